package database

import (
	"context"
	"database/sql"
	"fmt"

	"civicreport/common"
	"civicreport/config"
	"civicreport/models"

	"github.com/apex/log"
)

const reportsTableSchema = `
	CREATE TABLE IF NOT EXISTS reports (
		id INT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(255) NOT NULL,
		description TEXT NOT NULL,
		email VARCHAR(255) NOT NULL,
		severity VARCHAR(32) NOT NULL,
		img LONGTEXT,
		lat DOUBLE NOT NULL,
		lng DOUBLE NOT NULL,
		status VARCHAR(32) NOT NULL DEFAULT 'Open',
		votes INT NOT NULL DEFAULT 0,
		createdAt DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		INDEX idx_reports_created (createdAt)
	) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin`

// Database handles all operations on the reports table
type Database struct {
	db *sql.DB
}

// NewDatabase connects to MySQL using the service configuration
func NewDatabase(cfg *config.Config) (*Database, error) {
	db, err := common.DBConnect(common.DBParams{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		Name:     cfg.DBName,
	})
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New wraps an existing pool
func New(db *sql.DB) *Database {
	return &Database{db: db}
}

// DB exposes the underlying pool
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close closes the database connection
func (d *Database) Close() error {
	return d.db.Close()
}

// Ping checks that the pool can reach the server
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// EnsureReportsTable creates the reports table if it does not exist
func (d *Database) EnsureReportsTable(ctx context.Context) error {
	if _, err := d.db.ExecContext(ctx, reportsTableSchema); err != nil {
		return fmt.Errorf("failed to ensure reports table: %w", err)
	}
	return nil
}

// SaveReport inserts a report and returns the id assigned by the table
func (d *Database) SaveReport(ctx context.Context, r *models.Report) (int64, error) {
	var img interface{}
	if r.Img != "" {
		img = r.Img
	}

	result, err := d.db.ExecContext(ctx, `
		INSERT INTO reports
		(title, description, email, severity, img, lat, lng, status, votes, createdAt)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Title, r.Description, r.Email, r.Severity, img, r.Lat, r.Lng, r.Status, r.Votes, r.CreatedAt)
	common.LogResult("SaveReport", result, err, true)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted report id: %w", err)
	}

	log.WithFields(log.Fields{"id": id, "email": r.Email, "severity": r.Severity}).Debug("Report saved")
	return id, nil
}

// GetReports returns every report, newest first
func (d *Database) GetReports(ctx context.Context) ([]models.Report, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, title, description, email, severity, img, lat, lng, status, votes, createdAt
		FROM reports
		ORDER BY createdAt DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		var r models.Report
		var img sql.NullString
		if err := rows.Scan(
			&r.ID,
			&r.Title,
			&r.Description,
			&r.Email,
			&r.Severity,
			&img,
			&r.Lat,
			&r.Lng,
			&r.Status,
			&r.Votes,
			&r.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		r.Img = img.String
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reports: %w", err)
	}
	return reports, nil
}

// GetReportSummaries loads the email, severity and status of every report.
// Aggregation happens in the caller so that string comparisons are exact
// regardless of the column collation.
func (d *Database) GetReportSummaries(ctx context.Context) ([]models.ReportSummary, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT email, severity, status FROM reports`)
	if err != nil {
		return nil, fmt.Errorf("failed to query report summaries: %w", err)
	}
	defer rows.Close()

	summaries := []models.ReportSummary{}
	for rows.Next() {
		var s models.ReportSummary
		if err := rows.Scan(&s.Email, &s.Severity, &s.Status); err != nil {
			return nil, fmt.Errorf("failed to scan report summary: %w", err)
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report summaries: %w", err)
	}
	return summaries, nil
}

// GetReportLocations returns every report without its image, newest first
func (d *Database) GetReportLocations(ctx context.Context) ([]models.Report, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, title, severity, lat, lng, status, createdAt
		FROM reports
		ORDER BY createdAt DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query report locations: %w", err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.ID, &r.Title, &r.Severity, &r.Lat, &r.Lng, &r.Status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report location: %w", err)
		}
		reports = append(reports, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report locations: %w", err)
	}
	return reports, nil
}
