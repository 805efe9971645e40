// Package client is a Go client for the civic reports API.
package client

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"civicreport/api"
	"civicreport/models"

	"github.com/apex/log"
	"github.com/gabriel-vasile/mimetype"
)

const contentType = "application/json"

// APIError is any non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// Client talks to a civic reports server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New creates a client for the server at baseURL, e.g. http://localhost:5000
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Request sends body as JSON and decodes the response into out. Either may be nil.
func (c *Client) Request(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", contentType)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.WithError(err).Errorf("%s %s failed", method, path)
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.WithError(err).Errorf("%s %s: failed to read response", method, path)
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
		var errBody api.ErrorResponse
		if json.Unmarshal(data, &errBody) == nil && errBody.Error != "" {
			apiErr.Message = errBody.Error
		}
		log.WithField("status", resp.StatusCode).Errorf("%s %s: %s", method, path, apiErr.Message)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.WithError(err).Errorf("%s %s: failed to decode response", method, path)
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// CreateReport posts a report and returns the assigned id.
func (c *Client) CreateReport(ctx context.Context, args *api.ReportArgs) (int64, error) {
	var resp api.ReportResponse
	if err := c.Request(ctx, http.MethodPost, api.ReportsEndpoint, args, &resp); err != nil {
		return 0, err
	}
	return resp.ReportID, nil
}

// ListReports returns all reports, newest first.
func (c *Client) ListReports(ctx context.Context) ([]models.Report, error) {
	var reports []models.Report
	if err := c.Request(ctx, http.MethodGet, api.ReportsEndpoint, nil, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// KPIs returns the dashboard counters.
func (c *Client) KPIs(ctx context.Context) (*models.KPIs, error) {
	var kpis models.KPIs
	if err := c.Request(ctx, http.MethodGet, api.KPIsEndpoint, nil, &kpis); err != nil {
		return nil, err
	}
	return &kpis, nil
}

// Leaderboard returns reporters ranked by report count.
func (c *Client) Leaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	if err := c.Request(ctx, http.MethodGet, api.LeaderboardEndpoint, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// EncodeImage returns data as a data URI. The MIME type is sniffed from the
// content; filename is only used when sniffing finds nothing specific.
func EncodeImage(filename string, data []byte) string {
	mime := mimetype.Detect(data)
	if mime.Is("application/octet-stream") && filename != "" {
		if ext := mimetype.Lookup(extensionType(filename)); ext != nil {
			mime = ext
		}
	}
	return "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func extensionType(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 {
		return ""
	}
	switch strings.ToLower(filename[i+1:]) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return ""
}
