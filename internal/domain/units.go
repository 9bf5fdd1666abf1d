package domain

import (
	"fmt"
	"strings"
)

// TemperatureUnit names a temperature scale. The empty unit means "not
// chosen" and converts as Kelvin.
type TemperatureUnit string

const (
	Kelvin     TemperatureUnit = "K"
	Celsius    TemperatureUnit = "°C"
	Fahrenheit TemperatureUnit = "°F"
)

// kelvinOffset is 0 °C expressed in Kelvin.
const kelvinOffset = 273.15

// ParseTemperatureUnit accepts the display forms (K, °C, °F) and their ASCII
// spellings. An empty string yields the empty unit.
func ParseTemperatureUnit(s string) (TemperatureUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "k", "kelvin":
		return Kelvin, nil
	case "°c", "c", "degc", "celsius":
		return Celsius, nil
	case "°f", "f", "degf", "fahrenheit":
		return Fahrenheit, nil
	default:
		return "", fmt.Errorf("unknown temperature unit %q", s)
	}
}

// ToKelvin converts v from unit to Kelvin. Kelvin, the empty unit and any
// unrecognized unit are the identity. NaN (no measurement) passes through.
func ToKelvin(v float64, unit TemperatureUnit) float64 {
	switch unit {
	case Celsius:
		return v + kelvinOffset
	case Fahrenheit:
		return (v-32)*5/9 + kelvinOffset
	default:
		return v
	}
}

// FromKelvin converts a Kelvin value to unit. It is the inverse of ToKelvin.
func FromKelvin(v float64, unit TemperatureUnit) float64 {
	switch unit {
	case Celsius:
		return v - kelvinOffset
	case Fahrenheit:
		return (v-kelvinOffset)*9/5 + 32
	default:
		return v
	}
}

// ToKelvinPtr is ToKelvin for optional values; nil stays nil.
func ToKelvinPtr(v *float64, unit TemperatureUnit) *float64 {
	if v == nil {
		return nil
	}
	k := ToKelvin(*v, unit)
	return &k
}

// FromKelvinPtr is FromKelvin for optional values; nil stays nil.
func FromKelvinPtr(v *float64, unit TemperatureUnit) *float64 {
	if v == nil {
		return nil
	}
	out := FromKelvin(*v, unit)
	return &out
}

// Label returns the unit as shown on axes, "K" for the empty unit.
func (u TemperatureUnit) Label() string {
	if u == "" {
		return string(Kelvin)
	}
	return string(u)
}
