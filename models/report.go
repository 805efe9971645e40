package models

import (
	"time"
)

const (
	// StatusOpen is assigned to every report at creation.
	StatusOpen = "Open"

	// EventNewReport is the realtime event emitted for each created report.
	EventNewReport = "newReport"
)

// Report represents a row of the reports table
type Report struct {
	ID          int64     `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Email       string    `json:"email" db:"email"`
	Severity    string    `json:"severity" db:"severity"`
	Img         string    `json:"img" db:"img"`
	Lat         float64   `json:"lat" db:"lat"`
	Lng         float64   `json:"lng" db:"lng"`
	Status      string    `json:"status" db:"status"`
	Votes       int       `json:"votes" db:"votes"`
	CreatedAt   time.Time `json:"createdAt" db:"createdAt"`
}

// ReportSummary holds the columns the KPI and leaderboard aggregations read
type ReportSummary struct {
	Email    string `db:"email"`
	Severity string `db:"severity"`
	Status   string `db:"status"`
}

// KPIs are the dashboard counters computed over the whole reports table
type KPIs struct {
	Total  int `json:"total"`
	Open   int `json:"open"`
	Severe int `json:"severe"`
	Users  int `json:"users"`
}

// LeaderboardEntry is the number of reports submitted by one email
type LeaderboardEntry struct {
	Email string `json:"email"`
	Count int    `json:"count"`
}

// BroadcastMessage represents a message sent to realtime clients
type BroadcastMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status           string `json:"status"`
	Service          string `json:"service"`
	Timestamp        string `json:"timestamp"`
	ConnectedClients int    `json:"connected_clients"`
	LastBroadcastID  int64  `json:"last_broadcast_id"`
}
