// Package api holds the endpoint paths and JSON payloads shared by the
// server handlers and the Go client.
package api

const (
	BaseEndpoint        = "/api"
	ReportsEndpoint     = "/api/reports"
	KPIsEndpoint        = "/api/reports/kpis"
	LeaderboardEndpoint = "/api/reports/leaderboard"
	MapEndpoint         = "/api/reports/map"
	ListenEndpoint      = "/api/reports/listen"
	EventsEndpoint      = "/api/reports/events"
	HealthEndpoint      = "/health"
	MetricsEndpoint     = "/metrics"
)

const (
	MsgReportCreated   = "Report created"
	MsgMissingFields   = "Missing required fields"
	MsgInvalidCoords   = "Invalid coordinates"
	MsgInvalidJSON     = "Invalid JSON body"
	MsgDatabaseError   = "Database error"
	MsgPayloadTooLarge = "Payload too large"
	MsgInternalError   = "Something went wrong"
)

// ReportArgs is the body of POST /api/reports.
type ReportArgs struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Email       string     `json:"email"`
	Severity    string     `json:"severity"`
	Img         string     `json:"img"`
	Lat         Coordinate `json:"lat"`
	Lng         Coordinate `json:"lng"`
}

// ReportResponse is returned with 201 after a report is stored.
type ReportResponse struct {
	Message  string `json:"message"`
	ReportID int64  `json:"reportId"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is a plain status message.
type MessageResponse struct {
	Message string `json:"message"`
}
