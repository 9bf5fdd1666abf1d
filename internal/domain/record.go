package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Field names of the persisted collection format. They carry units and
// superscripts, which struct tags cannot express, so SnowPit and Layer encode
// themselves.
const (
	fieldID             = "id"
	fieldDate           = "Date"
	fieldSnowDepth      = "SD (cm)"
	fieldAirTemperature = "Air_T (K)"
	fieldLayers         = "layers"
	fieldTemperature    = "temperature_profile (K)"
	fieldLWC            = "lwc_profile (%)"

	fieldBottom   = "bottom (cm)"
	fieldTop      = "top (cm)"
	fieldGrain    = "grain (IACS)"
	fieldDensity  = "density (g cm⁻³)"
	fieldHardness = "snow hardness"

	fieldDepth            = "z (cm)"
	fieldTemperatureValue = "temperature (K)"
	fieldLWCValue         = "LWC (%)"
)

// MarshalCollection encodes the pits of one collection as an indented JSON array.
func MarshalCollection(pits []SnowPit) ([]byte, error) {
	if pits == nil {
		pits = []SnowPit{}
	}
	b, err := json.MarshalIndent(pits, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode collection: %w", err)
	}
	return b, nil
}

// UnmarshalCollection decodes a collection. Empty input is an empty collection.
func UnmarshalCollection(data []byte) ([]SnowPit, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []SnowPit{}, nil
	}
	var pits []SnowPit
	if err := json.Unmarshal(data, &pits); err != nil {
		return nil, fmt.Errorf("decode collection: %w", err)
	}
	if pits == nil {
		pits = []SnowPit{}
	}
	return pits, nil
}

// MarshalJSON writes the pit with the persisted field names in a fixed order.
func (p SnowPit) MarshalJSON() ([]byte, error) {
	layers := p.Layers
	if layers == nil {
		layers = []Layer{}
	}
	return object{
		{fieldID, p.ID},
		{fieldDate, p.DateString()},
		{fieldSnowDepth, p.SnowDepth},
		{fieldAirTemperature, p.AirTemperature},
		{fieldLayers, layers},
		{fieldTemperature, profileObjects(p.Temperature, fieldTemperatureValue)},
		{fieldLWC, profileObjects(p.LWC, fieldLWCValue)},
	}.MarshalJSON()
}

// UnmarshalJSON reads a pit in the persisted format. Missing fields stay zero.
func (p *SnowPit) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var out SnowPit
	var date string
	if err := decodeFields(raw,
		field{fieldID, &out.ID},
		field{fieldDate, &date},
		field{fieldSnowDepth, &out.SnowDepth},
		field{fieldAirTemperature, &out.AirTemperature},
		field{fieldLayers, &out.Layers},
	); err != nil {
		return err
	}
	if date != "" {
		d, err := time.Parse(DateLayout, date)
		if err != nil {
			return fmt.Errorf("decode %q: %w", fieldDate, err)
		}
		out.Date = d
	}

	var err error
	if out.Temperature, err = decodeProfile(raw, fieldTemperature, fieldTemperatureValue); err != nil {
		return err
	}
	if out.LWC, err = decodeProfile(raw, fieldLWC, fieldLWCValue); err != nil {
		return err
	}
	*p = out
	return nil
}

// MarshalJSON writes the layer with the persisted field names.
func (l Layer) MarshalJSON() ([]byte, error) {
	return object{
		{fieldBottom, l.Bottom},
		{fieldTop, l.Top},
		{fieldGrain, l.Grain.String()},
		{fieldDensity, l.Density},
		{fieldHardness, l.Hardness.String()},
	}.MarshalJSON()
}

// UnmarshalJSON reads a persisted layer. Codes outside the IACS and hand
// hardness tables decode to the Unknown values.
func (l *Layer) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var out Layer
	var grain, hardness string
	if err := decodeFields(raw,
		field{fieldBottom, &out.Bottom},
		field{fieldTop, &out.Top},
		field{fieldGrain, &grain},
		field{fieldDensity, &out.Density},
		field{fieldHardness, &hardness},
	); err != nil {
		return err
	}
	out.Grain, _ = ParseGrain(grain)
	out.Hardness, _ = ParseHardness(hardness)
	*l = out
	return nil
}

func profileObjects(samples []Sample, valueField string) []object {
	out := make([]object, 0, len(samples))
	for _, s := range samples {
		out = append(out, object{{fieldDepth, s.Depth}, {valueField, s.Value}})
	}
	return out
}

func decodeProfile(raw map[string]json.RawMessage, name, valueField string) ([]Sample, error) {
	msg, ok := raw[name]
	if !ok {
		return nil, nil
	}
	var rows []map[string]json.RawMessage
	if err := json.Unmarshal(msg, &rows); err != nil {
		return nil, fmt.Errorf("decode %q: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	samples := make([]Sample, 0, len(rows))
	for i, row := range rows {
		var s Sample
		if err := decodeFields(row, field{fieldDepth, &s.Depth}, field{valueField, &s.Value}); err != nil {
			return nil, fmt.Errorf("decode %q[%d]: %w", name, i, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

type field struct {
	name string
	dst  any
}

func decodeFields(raw map[string]json.RawMessage, fields ...field) error {
	for _, f := range fields {
		msg, ok := raw[f.name]
		if !ok {
			continue
		}
		if err := json.Unmarshal(msg, f.dst); err != nil {
			return fmt.Errorf("decode %q: %w", f.name, err)
		}
	}
	return nil
}

type member struct {
	name  string
	value any
}

// object is a JSON object whose members keep their declared order.
type object []member

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(m.name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.value)
		if err != nil {
			return nil, fmt.Errorf("encode %q: %w", m.name, err)
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
