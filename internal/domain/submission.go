package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidSubmission is returned for submissions that cannot be evaluated
// at all, as opposed to pits that fail validation.
var ErrInvalidSubmission = errors.New("invalid submission")

// MaxSnowDepth is the deepest snowpack, in cm, a submission may report.
const MaxSnowDepth = 2000.0

// Submission is a pit as sent by a client or a field device. Temperatures
// may be given in any supported unit; the air temperature defaults to °C
// and the profile to Kelvin.
type Submission struct {
	ID                 string     `json:"id,omitempty"`
	Site               string     `json:"site"`
	Date               string     `json:"date,omitempty"`
	SnowDepth          float64    `json:"snow_depth"`
	AirTemperature     *float64   `json:"air_temperature,omitempty"`
	AirTemperatureUnit string     `json:"air_temperature_unit,omitempty"`
	TemperatureUnit    string     `json:"temperature_unit,omitempty"`
	Layers             []LayerRow `json:"layers"`
	Temperature        []Sample   `json:"temperature_profile,omitempty"`
	LWC                []Sample   `json:"lwc_profile,omitempty"`
}

// ParseSubmission decodes a JSON submission.
func ParseSubmission(data []byte) (Submission, error) {
	var sub Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return Submission{}, fmt.Errorf("parse submission: %w", err)
	}
	return sub, nil
}

// Outcome is the result of evaluating a submission. Exactly one of Pit
// (accepted), Violations or Rejection describes it.
type Outcome struct {
	Collection Collection
	Pit        SnowPit
	Violations Violations
	Rejection  error
	Action     Action // set once the pit is stored
}

// Accepted reports whether the pit may be persisted.
func (o Outcome) Accepted() bool {
	return o.Rejection == nil && len(o.Violations) == 0
}

// Err returns the rejection or the validation error, nil when accepted.
func (o Outcome) Err() error {
	if o.Rejection != nil {
		return o.Rejection
	}
	return o.Violations.Err()
}

// Accept normalizes a submission and validates it. Temperatures are
// converted to Kelvin before the stratigraphy checks and the absolute zero
// check. Unset profile samples are dropped from the accepted pit, and a pit
// without an id gets a new UUID.
func Accept(sub Submission) Outcome {
	var out Outcome

	date := clock.Now()
	if strings.TrimSpace(sub.Date) != "" {
		d, err := ParseDate(sub.Date)
		if err != nil {
			out.Rejection = fmt.Errorf("%w: %v", ErrInvalidCollection, err)
			return out
		}
		date = d
	}
	c, err := NewCollection(sub.Site, date)
	if err != nil {
		out.Rejection = err
		return out
	}
	out.Collection = c

	if math.IsNaN(sub.SnowDepth) || math.IsInf(sub.SnowDepth, 0) || sub.SnowDepth < 0 || sub.SnowDepth > MaxSnowDepth {
		out.Rejection = fmt.Errorf("%w: snow depth %v", ErrInvalidSubmission, sub.SnowDepth)
		return out
	}
	unit, err := ParseTemperatureUnit(sub.TemperatureUnit)
	if err != nil {
		out.Rejection = fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
		return out
	}
	airUnit := Celsius
	if sub.AirTemperatureUnit != "" {
		if airUnit, err = ParseTemperatureUnit(sub.AirTemperatureUnit); err != nil {
			out.Rejection = fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
			return out
		}
	}

	temperature := make([]Sample, len(sub.Temperature))
	for i, s := range sub.Temperature {
		temperature[i] = Sample{Depth: s.Depth, Value: ToKelvinPtr(s.Value, unit)}
	}
	air := ToKelvinPtr(sub.AirTemperature, airUnit)

	out.Violations = Validate(sub.SnowDepth, sub.Layers, temperature, sub.LWC)
	if len(out.Violations) > 0 {
		return out
	}
	if err := CheckAbsoluteZero(air, temperature); err != nil {
		out.Rejection = err
		return out
	}

	layers := make([]Layer, 0, len(sub.Layers))
	for i, row := range sub.Layers {
		l, err := row.Layer()
		if err != nil {
			out.Rejection = fmt.Errorf("%w: layer %d: %v", ErrInvalidSubmission, i, err)
			return out
		}
		layers = append(layers, l)
	}

	id := strings.TrimSpace(sub.ID)
	if id == "" {
		id = uuid.NewString()
	}
	out.Pit = SnowPit{
		ID:             id,
		Date:           time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		SnowDepth:      sub.SnowDepth,
		AirTemperature: air,
		Layers:         layers,
		Temperature:    Measured(temperature),
		LWC:            Measured(cloneSamples(sub.LWC)),
	}
	return out
}

// ParseDate parses an observation date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return d, nil
}
