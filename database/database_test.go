package database

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"civicreport/models"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
)

var (
	store *Database
	mock  sqlmock.Sqlmock
)

func setUp() {
	db, m, err := sqlmock.New()
	if err != nil {
		panic(err)
	}
	store = New(db)
	mock = m
}

func tearDown() {
	store.Close()
}

var it = beforeeach.Create(setUp, tearDown)

var reportColumns = []string{"id", "title", "description", "email", "severity", "img", "lat", "lng", "status", "votes", "createdAt"}

func TestSaveReport(t *testing.T) {
	createdAt := time.Date(2025, 9, 1, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name      string
		report    models.Report
		expectImg interface{}
		execErr   error
		expectID  int64
		expectErr bool
	}{
		{
			name: "Report with image",
			report: models.Report{
				Title: "Pothole", Description: "Large pothole", Email: "a@b.com", Severity: "Severe",
				Img: "data:image/png;base64,AAAA", Lat: 12.97, Lng: 77.59, Status: models.StatusOpen, CreatedAt: createdAt,
			},
			expectImg: "data:image/png;base64,AAAA",
			expectID:  7,
		},
		{
			name: "Report without image stores NULL",
			report: models.Report{
				Title: "Streetlight", Description: "Broken", Email: "c@d.com", Severity: "Low",
				Lat: 0, Lng: 0, Status: models.StatusOpen, CreatedAt: createdAt,
			},
			expectImg: nil,
			expectID:  8,
		},
		{
			name: "Insert failure",
			report: models.Report{
				Title: "Graffiti", Description: "Wall", Email: "e@f.com", Severity: "Medium",
				Status: models.StatusOpen, CreatedAt: createdAt,
			},
			expectImg: nil,
			execErr:   errors.New("connection refused"),
			expectErr: true,
		},
	}

	for _, testCase := range testCases {
		it(func() {
			exec := mock.ExpectExec("INSERT INTO reports (.+) VALUES (.+)").
				WithArgs(testCase.report.Title, testCase.report.Description, testCase.report.Email,
					testCase.report.Severity, testCase.expectImg, testCase.report.Lat, testCase.report.Lng,
					models.StatusOpen, 0, createdAt)
			if testCase.execErr != nil {
				exec.WillReturnError(testCase.execErr)
			} else {
				exec.WillReturnResult(sqlmock.NewResult(testCase.expectID, 1))
			}

			id, err := store.SaveReport(context.Background(), &testCase.report)
			if testCase.expectErr != (err != nil) {
				t.Errorf("%s: expected error: %v, got error: %v", testCase.name, testCase.expectErr, err)
			}
			if testCase.execErr != nil && !errors.Is(err, testCase.execErr) {
				t.Errorf("%s: expected wrapped driver error, got %v", testCase.name, err)
			}
			if id != testCase.expectID {
				t.Errorf("%s: expected id %d, got %d", testCase.name, testCase.expectID, id)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("%s: unmet expectations: %v", testCase.name, err)
			}
		})
	}
}

func TestGetReports(t *testing.T) {
	it(func() {
		newer := time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC)
		older := time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT (.+) FROM reports ORDER BY createdAt DESC, id DESC").
			WillReturnRows(sqlmock.NewRows(reportColumns).
				AddRow(2, "Pothole", "Large pothole", "a@b.com", "Severe", "data:x", 12.97, 77.59, "Open", 0, newer).
				AddRow(1, "Streetlight", "Broken", "c@d.com", "Low", nil, 0.0, 0.0, "Open", 3, older))

		reports, err := store.GetReports(context.Background())
		if err != nil {
			t.Fatalf("GetReports failed: %v", err)
		}

		expected := []models.Report{
			{ID: 2, Title: "Pothole", Description: "Large pothole", Email: "a@b.com", Severity: "Severe",
				Img: "data:x", Lat: 12.97, Lng: 77.59, Status: "Open", Votes: 0, CreatedAt: newer},
			{ID: 1, Title: "Streetlight", Description: "Broken", Email: "c@d.com", Severity: "Low",
				Img: "", Lat: 0, Lng: 0, Status: "Open", Votes: 3, CreatedAt: older},
		}
		if !reflect.DeepEqual(reports, expected) {
			t.Errorf("expected %+v, got %+v", expected, reports)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}

func TestGetReportsEmpty(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM reports").
			WillReturnRows(sqlmock.NewRows(reportColumns))

		reports, err := store.GetReports(context.Background())
		if err != nil {
			t.Fatalf("GetReports failed: %v", err)
		}
		if reports == nil || len(reports) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", reports)
		}
	})
}

func TestGetReportsQueryError(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM reports").WillReturnError(errors.New("boom"))

		if _, err := store.GetReports(context.Background()); err == nil {
			t.Errorf("expected error, got nil")
		}
	})
}

func TestGetReportSummaries(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT email, severity, status FROM reports").
			WillReturnRows(sqlmock.NewRows([]string{"email", "severity", "status"}).
				AddRow("a@b.com", "Severe", "Open").
				AddRow("A@b.com", "severe", "Closed"))

		summaries, err := store.GetReportSummaries(context.Background())
		if err != nil {
			t.Fatalf("GetReportSummaries failed: %v", err)
		}
		expected := []models.ReportSummary{
			{Email: "a@b.com", Severity: "Severe", Status: "Open"},
			{Email: "A@b.com", Severity: "severe", Status: "Closed"},
		}
		if !reflect.DeepEqual(summaries, expected) {
			t.Errorf("expected %+v, got %+v", expected, summaries)
		}
	})
}

func TestGetReportLocations(t *testing.T) {
	it(func() {
		ts := time.Date(2025, 9, 2, 9, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT id, title, severity, lat, lng, status, createdAt FROM reports").
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "severity", "lat", "lng", "status", "createdAt"}).
				AddRow(4, "Flooding", "Critical", -1.5, 36.8, "Open", ts))

		reports, err := store.GetReportLocations(context.Background())
		if err != nil {
			t.Fatalf("GetReportLocations failed: %v", err)
		}
		expected := []models.Report{{ID: 4, Title: "Flooding", Severity: "Critical", Lat: -1.5, Lng: 36.8, Status: "Open", CreatedAt: ts}}
		if !reflect.DeepEqual(reports, expected) {
			t.Errorf("expected %+v, got %+v", expected, reports)
		}
	})
}

func TestEnsureReportsTable(t *testing.T) {
	it(func() {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS reports").WillReturnResult(sqlmock.NewResult(0, 0))

		if err := store.EnsureReportsTable(context.Background()); err != nil {
			t.Errorf("EnsureReportsTable failed: %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
}
