package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
)

var errBlankReading = errors.New("blank reading")

// Reading is a numeric field as typed on a field sheet. It keeps the raw text
// so an entry that does not parse can be reported instead of dropped.
type Reading string

// ReadingOf formats v as a Reading.
func ReadingOf(v float64) Reading {
	return Reading(strconv.FormatFloat(v, 'f', -1, 64))
}

// Float parses the reading. Blank, non-numeric and non-finite values fail.
func (r Reading) Float() (float64, error) {
	s := strings.TrimSpace(string(r))
	if s == "" {
		return 0, errBlankReading
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, strconv.ErrSyntax
	}
	return v, nil
}

// Optional parses a reading that may legitimately be left blank, such as a
// density that was not measured.
func (r Reading) Optional() (*float64, error) {
	if r.Blank() {
		return nil, nil
	}
	v, err := r.Float()
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Blank reports whether nothing was entered.
func (r Reading) Blank() bool {
	return strings.TrimSpace(string(r)) == ""
}

// UnmarshalJSON accepts a JSON number, a string or null.
func (r *Reading) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*r = ""
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Reading(s)
	default:
		*r = Reading(b)
	}
	return nil
}

// MarshalJSON writes parseable readings as numbers, blanks as null and
// anything else as the original string.
func (r Reading) MarshalJSON() ([]byte, error) {
	if r.Blank() {
		return []byte("null"), nil
	}
	if v, err := r.Float(); err == nil {
		return []byte(strconv.FormatFloat(v, 'f', -1, 64)), nil
	}
	return json.Marshal(string(r))
}
