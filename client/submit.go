package client

import (
	"context"
	"errors"
	"math"
	"strings"

	"civicreport/api"
)

// ErrIncomplete is returned by SubmitReport before any request is made.
var ErrIncomplete = errors.New("please fill all fields and pick a map location")

// Draft is what the upload flow collects.
type Draft struct {
	Title       string
	Description string
	Email       string
	Severity    string
	Filename    string
	Image       []byte
	Lat, Lng    *float64
}

// SubmitReport checks the draft locally, encodes the image and creates the report.
func (c *Client) SubmitReport(ctx context.Context, d Draft) (int64, error) {
	for _, v := range []string{d.Title, d.Description, d.Email, d.Severity} {
		if strings.TrimSpace(v) == "" {
			return 0, ErrIncomplete
		}
	}
	if d.Lat == nil || d.Lng == nil || !finite(*d.Lat) || !finite(*d.Lng) {
		return 0, ErrIncomplete
	}

	args := &api.ReportArgs{
		Title:       strings.TrimSpace(d.Title),
		Description: strings.TrimSpace(d.Description),
		Email:       strings.TrimSpace(d.Email),
		Severity:    d.Severity,
		Lat:         api.NewCoordinate(*d.Lat),
		Lng:         api.NewCoordinate(*d.Lng),
	}
	if len(d.Image) > 0 {
		args.Img = EncodeImage(d.Filename, d.Image)
	}
	return c.CreateReport(ctx, args)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
