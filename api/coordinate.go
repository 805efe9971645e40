package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Longer values are rejected before any parsing.
const maxCoordinateLen = 64

var (
	ErrCoordinateMissing = errors.New("coordinate missing")
	ErrCoordinateInvalid = errors.New("coordinate is not a number")
)

// Coordinate is a latitude or longitude sent either as a JSON number or as a
// numeric string. Decoding never fails; the value is checked by Float64 so
// that a bad coordinate is reported as a validation error, not a JSON error.
type Coordinate struct {
	raw     string
	present bool
}

// NewCoordinate wraps a float for outgoing requests. NaN and infinities are
// kept as text and rejected by the server.
func NewCoordinate(v float64) Coordinate {
	return Coordinate{raw: strconv.FormatFloat(v, 'g', -1, 64), present: true}
}

// Present reports whether the field was sent with a non-null value.
func (c Coordinate) Present() bool {
	return c.present
}

// Float64 parses the coordinate. Zero is a valid value.
// decimal checks the syntax only; converting through it costs time
// proportional to the exponent, so the value comes from strconv.
func (c Coordinate) Float64() (float64, error) {
	if !c.present {
		return 0, ErrCoordinateMissing
	}
	if len(c.raw) == 0 || len(c.raw) > maxCoordinateLen {
		return 0, ErrCoordinateInvalid
	}
	if _, err := decimal.NewFromString(c.raw); err != nil {
		return 0, ErrCoordinateInvalid
	}
	f, err := strconv.ParseFloat(c.raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, ErrCoordinateInvalid
	}
	return f, nil
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = Coordinate{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*c = Coordinate{raw: string(data), present: true}
			return nil
		}
		*c = Coordinate{raw: strings.TrimSpace(s), present: true}
		return nil
	}
	*c = Coordinate{raw: string(data), present: true}
	return nil
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.present {
		return []byte("null"), nil
	}
	if f, err := c.Float64(); err == nil {
		return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
	}
	return json.Marshal(c.raw)
}
