// Package reports implements report creation and the read-side aggregations
// behind the gallery, KPI dashboard and leaderboard.
package reports

import (
	"context"
	"time"

	"civicreport/api"
	"civicreport/models"

	"github.com/apex/log"
)

// Store is the persistence the service needs.
type Store interface {
	SaveReport(ctx context.Context, r *models.Report) (int64, error)
	GetReports(ctx context.Context) ([]models.Report, error)
	GetReportSummaries(ctx context.Context) ([]models.ReportSummary, error)
	GetReportLocations(ctx context.Context) ([]models.Report, error)
}

// Notifier receives every created report. PublishReport must not block
// and has no way to fail the create.
type Notifier interface {
	PublishReport(report models.Report)
}

// Service owns the store handle and the set of notifiers.
type Service struct {
	store     Store
	notifiers []Notifier
	now       func() time.Time
}

// NewService creates a report service
func NewService(store Store, notifiers ...Notifier) *Service {
	return &Service{
		store:     store,
		notifiers: notifiers,
		now:       func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Create validates and stores a new report, then notifies subscribers.
func (s *Service) Create(ctx context.Context, args *api.ReportArgs) (*models.Report, error) {
	loc, err := validate(args)
	if err != nil {
		return nil, err
	}

	report := models.Report{
		Title:       args.Title,
		Description: args.Description,
		Email:       args.Email,
		Severity:    args.Severity,
		Img:         args.Img,
		Lat:         loc.lat,
		Lng:         loc.lng,
		Status:      models.StatusOpen,
		Votes:       0,
		CreatedAt:   s.now(),
	}

	id, err := s.store.SaveReport(ctx, &report)
	if err != nil {
		return nil, &PersistenceError{Op: "save report", Err: err}
	}
	report.ID = id

	log.WithFields(log.Fields{
		"id":       report.ID,
		"severity": report.Severity,
		"lat":      report.Lat,
		"lng":      report.Lng,
	}).Info("Report created")

	s.notify(report)
	return &report, nil
}

func (s *Service) notify(report models.Report) {
	for _, n := range s.notifiers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("Notifier panicked for report %d: %v", report.ID, r)
				}
			}()
			n.PublishReport(report)
		}()
	}
}

// List returns all reports, newest first.
func (s *Service) List(ctx context.Context) ([]models.Report, error) {
	reports, err := s.store.GetReports(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list reports", Err: err}
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return reports, nil
}

// KPIs computes the dashboard counters over the whole table.
func (s *Service) KPIs(ctx context.Context) (*models.KPIs, error) {
	summaries, err := s.store.GetReportSummaries(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load report summaries", Err: err}
	}
	kpis := ComputeKPIs(summaries)
	return &kpis, nil
}

// Leaderboard ranks reporters by number of submitted reports.
func (s *Service) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	summaries, err := s.store.GetReportSummaries(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "load report summaries", Err: err}
	}
	return RankReporters(summaries), nil
}
