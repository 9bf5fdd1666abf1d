package domain

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// DateLayout is the civil date format of observation dates.
const DateLayout = "2006-01-02"

// Layer is one stratigraphic layer. Depths are measured in centimetres from
// the ground upward, so Top > Bottom.
type Layer struct {
	Bottom   float64
	Top      float64
	Grain    GrainType
	Density  *float64 // g cm⁻³, nil when not measured
	Hardness Hardness
}

// Thickness is Top - Bottom.
func (l Layer) Thickness() float64 {
	return l.Top - l.Bottom
}

// Row converts the layer back into an editable row.
func (l Layer) Row() LayerRow {
	row := LayerRow{
		Bottom:   ReadingOf(l.Bottom),
		Top:      ReadingOf(l.Top),
		Grain:    l.Grain.String(),
		Hardness: l.Hardness.String(),
	}
	if l.Density != nil {
		row.Density = ReadingOf(*l.Density)
	}
	return row
}

// LayerRow is a candidate layer as entered, before validation.
type LayerRow struct {
	Bottom   Reading `json:"bottom"`
	Top      Reading `json:"top"`
	Grain    string  `json:"grain"`
	Density  Reading `json:"density,omitempty"`
	Hardness string  `json:"hardness"`
}

// Layer parses the row. Unknown grain and hardness codes map to the Unknown
// values; only unparsable numbers are an error.
func (r LayerRow) Layer() (Layer, error) {
	bottom, err := r.Bottom.Float()
	if err != nil {
		return Layer{}, fmt.Errorf("parse bottom %q: %w", r.Bottom, err)
	}
	top, err := r.Top.Float()
	if err != nil {
		return Layer{}, fmt.Errorf("parse top %q: %w", r.Top, err)
	}
	density, err := r.Density.Optional()
	if err != nil {
		return Layer{}, fmt.Errorf("parse density %q: %w", r.Density, err)
	}
	grain, _ := ParseGrain(r.Grain)
	hardness, _ := ParseHardness(r.Hardness)
	return Layer{Bottom: bottom, Top: top, Grain: grain, Density: density, Hardness: hardness}, nil
}

// Sample is a point measurement at a depth. Value is nil when unset.
type Sample struct {
	Depth float64  `json:"z"`
	Value *float64 `json:"value"`
}

// Set reports whether the sample carries a measurement.
func (s Sample) Set() bool {
	return s.Value != nil && !math.IsNaN(*s.Value)
}

// Measured returns only the samples that carry a measurement.
func Measured(samples []Sample) []Sample {
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if s.Set() {
			out = append(out, s)
		}
	}
	return out
}

// SnowPit is one pit observation. Temperatures are stored in Kelvin.
type SnowPit struct {
	ID             string
	Date           time.Time
	SnowDepth      float64  // cm
	AirTemperature *float64 // K
	Layers         []Layer
	Temperature    []Sample // K
	LWC            []Sample // %
}

// Clone returns a copy that shares no slices or pointers with p.
func (p SnowPit) Clone() SnowPit {
	out := p
	out.AirTemperature = clonePtr(p.AirTemperature)
	if p.Layers != nil {
		out.Layers = make([]Layer, len(p.Layers))
		for i, l := range p.Layers {
			l.Density = clonePtr(l.Density)
			out.Layers[i] = l
		}
	}
	out.Temperature = cloneSamples(p.Temperature)
	out.LWC = cloneSamples(p.LWC)
	return out
}

// LayerRows returns the layers as editable rows.
func (p SnowPit) LayerRows() []LayerRow {
	rows := make([]LayerRow, len(p.Layers))
	for i, l := range p.Layers {
		rows[i] = l.Row()
	}
	return rows
}

// Validate runs the stratigraphy checks against the pit's own data.
func (p SnowPit) Validate() Violations {
	return Validate(p.SnowDepth, p.LayerRows(), p.Temperature, p.LWC)
}

// DateString formats Date with DateLayout, or "" when unset.
func (p SnowPit) DateString() string {
	if p.Date.IsZero() {
		return ""
	}
	return p.Date.Format(DateLayout)
}

// PitLabel is the one-line summary used when listing the pits of a
// collection. i is the 0-based position in the collection.
func PitLabel(i int, p SnowPit) string {
	air := "n/a"
	if p.AirTemperature != nil {
		air = formatNumber(*p.AirTemperature)
	}
	return fmt.Sprintf("Snow Pit %d: Snow depth = %s cm | Air Temperature = %s K",
		i+1, formatNumber(p.SnowDepth), air)
}

// TemperatureLocked reports whether any temperature value has been entered.
// Once it has, the profile's unit may no longer change.
func TemperatureLocked(profile []Sample) bool {
	for _, s := range profile {
		if s.Set() {
			return true
		}
	}
	return false
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneSamples(in []Sample) []Sample {
	if in == nil {
		return nil
	}
	out := make([]Sample, len(in))
	for i, s := range in {
		out[i] = Sample{Depth: s.Depth, Value: clonePtr(s.Value)}
	}
	return out
}
