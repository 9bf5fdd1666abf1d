package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToKelvin(t *testing.T) {
	tests := []struct {
		unit TemperatureUnit
		in   float64
		want float64
	}{
		{Kelvin, 263.15, 263.15},
		{"", 263.15, 263.15},
		{Celsius, -10, 263.15},
		{Fahrenheit, 14, 263.15},
		{Fahrenheit, 32, 273.15},
		{"Rankine", 500, 500},
	}
	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			assert.InDelta(t, tt.want, ToKelvin(tt.in, tt.unit), 1e-9)
		})
	}
}

func TestFromKelvin(t *testing.T) {
	assert.InDelta(t, -10, FromKelvin(263.15, Celsius), 1e-9)
	assert.InDelta(t, 14, FromKelvin(263.15, Fahrenheit), 1e-9)
	assert.Equal(t, 263.15, FromKelvin(263.15, Kelvin))
}

func TestUnitRoundTrip(t *testing.T) {
	for _, unit := range []TemperatureUnit{Kelvin, Celsius, Fahrenheit} {
		for _, v := range []float64{0, 1.5, 255.37, 273.15, 300} {
			assert.InDelta(t, v, ToKelvin(FromKelvin(v, unit), unit), 1e-9, "unit %s value %v", unit, v)
		}
	}
}

func TestUnitNaNPassesThrough(t *testing.T) {
	for _, unit := range []TemperatureUnit{Kelvin, Celsius, Fahrenheit} {
		assert.True(t, math.IsNaN(ToKelvin(math.NaN(), unit)))
		assert.True(t, math.IsNaN(FromKelvin(math.NaN(), unit)))
	}
}

func TestUnitPtrHelpers(t *testing.T) {
	assert.Nil(t, ToKelvinPtr(nil, Celsius))
	assert.Nil(t, FromKelvinPtr(nil, Celsius))

	got := ToKelvinPtr(ptr(0), Celsius)
	require.NotNil(t, got)
	assert.InDelta(t, 273.15, *got, 1e-9)
}

func TestParseTemperatureUnit(t *testing.T) {
	tests := map[string]TemperatureUnit{
		"":     "",
		"K":    Kelvin,
		"°C":   Celsius,
		"C":    Celsius,
		"degC": Celsius,
		"°F":   Fahrenheit,
		"f":    Fahrenheit,
		"degF": Fahrenheit,
	}
	for in, want := range tests {
		got, err := ParseTemperatureUnit(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseTemperatureUnit("rankine")
	assert.Error(t, err)
}

func TestTemperatureUnitLabel(t *testing.T) {
	assert.Equal(t, "K", TemperatureUnit("").Label())
	assert.Equal(t, "°C", Celsius.Label())
}
