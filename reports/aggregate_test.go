package reports

import (
	"reflect"
	"testing"

	"civicreport/models"
)

func TestComputeKPIs(t *testing.T) {
	testCases := []struct {
		name      string
		summaries []models.ReportSummary
		expected  models.KPIs
	}{
		{
			name:     "Empty table",
			expected: models.KPIs{},
		},
		{
			name: "Severe matching is case-sensitive",
			summaries: []models.ReportSummary{
				{Email: "a@x.com", Severity: "Severe", Status: "Open"},
				{Email: "a@x.com", Severity: "Critical", Status: "Open"},
				{Email: "a@x.com", Severity: "severe", Status: "Open"},
				{Email: "a@x.com", Severity: "CRITICAL", Status: "Open"},
				{Email: "a@x.com", Severity: "Low", Status: "Open"},
			},
			expected: models.KPIs{Total: 5, Open: 5, Severe: 2, Users: 1},
		},
		{
			name: "Users are distinct by exact email",
			summaries: []models.ReportSummary{
				{Email: "A@x.com", Severity: "Low", Status: "Open"},
				{Email: "a@x.com", Severity: "Low", Status: "Open"},
				{Email: "a@x.com", Severity: "Low", Status: "Open"},
			},
			expected: models.KPIs{Total: 3, Open: 3, Severe: 0, Users: 2},
		},
		{
			name: "Open counts only exact status",
			summaries: []models.ReportSummary{
				{Email: "a@x.com", Severity: "Medium", Status: "Open"},
				{Email: "b@x.com", Severity: "Medium", Status: "open"},
				{Email: "c@x.com", Severity: "Medium", Status: "Resolved"},
			},
			expected: models.KPIs{Total: 3, Open: 1, Severe: 0, Users: 3},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeKPIs(tc.summaries)
			if got != tc.expected {
				t.Errorf("expected %+v, got %+v", tc.expected, got)
			}
		})
	}
}

func TestRankReporters(t *testing.T) {
	summaries := []models.ReportSummary{
		{Email: "zed@x.com"},
		{Email: "amy@x.com"},
		{Email: "bob@x.com"},
		{Email: "bob@x.com"},
		{Email: "zed@x.com"},
		{Email: "Bob@x.com"},
		{Email: "carl@x.com"},
		{Email: "carl@x.com"},
		{Email: "carl@x.com"},
	}

	got := RankReporters(summaries)
	expected := []models.LeaderboardEntry{
		{Email: "carl@x.com", Count: 3},
		{Email: "bob@x.com", Count: 2},
		{Email: "zed@x.com", Count: 2},
		{Email: "Bob@x.com", Count: 1},
		{Email: "amy@x.com", Count: 1},
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("expected %+v, got %+v", expected, got)
	}

	sum := 0
	for _, e := range got {
		sum += e.Count
	}
	if sum != ComputeKPIs(summaries).Total {
		t.Errorf("leaderboard counts sum to %d, expected %d", sum, len(summaries))
	}
}

func TestRankReportersEmpty(t *testing.T) {
	got := RankReporters(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil leaderboard, got %#v", got)
	}
}
