package reports

import (
	"sort"

	"civicreport/models"
)

// Severities counted as severe on the dashboard. Matching is exact.
var severeLevels = map[string]bool{
	"Severe":   true,
	"Critical": true,
}

// ComputeKPIs aggregates the dashboard counters. Emails are distinct by
// exact string equality, so "A@x.com" and "a@x.com" are two users.
func ComputeKPIs(summaries []models.ReportSummary) models.KPIs {
	kpis := models.KPIs{Total: len(summaries)}
	users := make(map[string]struct{}, len(summaries))
	for _, s := range summaries {
		if s.Status == models.StatusOpen {
			kpis.Open++
		}
		if severeLevels[s.Severity] {
			kpis.Severe++
		}
		users[s.Email] = struct{}{}
	}
	kpis.Users = len(users)
	return kpis
}

// RankReporters counts reports per email, highest count first. Ties are
// broken by email in ascending byte order.
func RankReporters(summaries []models.ReportSummary) []models.LeaderboardEntry {
	counts := make(map[string]int)
	for _, s := range summaries {
		counts[s.Email]++
	}

	entries := make([]models.LeaderboardEntry, 0, len(counts))
	for email, count := range counts {
		entries = append(entries, models.LeaderboardEntry{Email: email, Count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Email < entries[j].Email
	})
	return entries
}
