package reports

import (
	"strings"

	"civicreport/api"

	"github.com/golang/geo/s2"
)

type location struct {
	lat, lng float64
}

// validate checks presence of the required fields and parses the coordinates.
// Presence is explicit: a coordinate of exactly 0 is accepted.
func validate(args *api.ReportArgs) (location, error) {
	required := []struct {
		field string
		value string
	}{
		{"title", args.Title},
		{"description", args.Description},
		{"email", args.Email},
		{"severity", args.Severity},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return location{}, &ValidationError{Field: r.field, Message: api.MsgMissingFields}
		}
	}

	if !args.Lat.Present() {
		return location{}, &ValidationError{Field: "lat", Message: api.MsgMissingFields}
	}
	if !args.Lng.Present() {
		return location{}, &ValidationError{Field: "lng", Message: api.MsgMissingFields}
	}
	lat, err := args.Lat.Float64()
	if err != nil {
		return location{}, &ValidationError{Field: "lat", Message: api.MsgInvalidCoords}
	}
	lng, err := args.Lng.Float64()
	if err != nil {
		return location{}, &ValidationError{Field: "lng", Message: api.MsgInvalidCoords}
	}
	if !s2.LatLngFromDegrees(lat, lng).IsValid() {
		return location{}, &ValidationError{Field: "lat/lng", Message: api.MsgInvalidCoords}
	}

	return location{lat: lat, lng: lng}, nil
}
