package domain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Scope names the part of a pit a violation refers to.
type Scope string

const (
	ScopeLayer       Scope = "layer"
	ScopeCoverage    Scope = "coverage"
	ScopeTemperature Scope = "Temperature"
	ScopeLWC         Scope = "LWC"
)

// Code identifies the rule a violation breaks.
type Code string

const (
	CodeInvalidNumber    Code = "invalid_number"
	CodeTopNotAbove      Code = "top_not_above_bottom"
	CodeTopAboveDepth    Code = "top_above_snow_depth"
	CodeNegativeBottom   Code = "negative_bottom"
	CodeInvalidGrain     Code = "invalid_grain"
	CodeInvalidHardness  Code = "invalid_hardness"
	CodeCoverage         Code = "coverage_mismatch"
	CodeOverlap          Code = "overlap"
	CodeDepthBelowGround Code = "depth_below_zero"
	CodeDepthAboveSnow   Code = "depth_above_snow_depth"
	CodeDuplicateDepth   Code = "duplicated_depths"
)

// Violation is one failed rule. Index is the layer index for layer rules and
// -1 otherwise.
type Violation struct {
	Scope   Scope  `json:"scope"`
	Index   int    `json:"index"`
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (v Violation) Error() string { return v.Message }

// Violations is the ordered list of every rule a pit breaks.
type Violations []Violation

// Messages returns the human-readable messages in order.
func (vs Violations) Messages() []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Message
	}
	return out
}

// Err returns nil when there are no violations and a *ValidationError
// otherwise.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	return &ValidationError{Violations: vs}
}

// ValidationError carries all violations of a rejected pit.
type ValidationError struct {
	Violations Violations
}

func (e *ValidationError) Error() string {
	return "invalid snow pit: " + strings.Join(e.Violations.Messages(), "; ")
}

// AsViolations extracts the violations from err, if it carries any.
func AsViolations(err error) (Violations, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Violations, true
	}
	return nil, false
}

type span struct {
	bottom, top float64
}

// Validate checks candidate layers and profiles against the snow depth and
// returns every violation found. It never stops at the first failure.
//
// Order: per-layer numeric and bound checks, thickness coverage, overlap of
// adjacent layers by bottom, then the Temperature and LWC profiles. A layer
// whose bottom or top does not parse is reported and left out of the
// coverage and overlap checks. Coverage compares the thickness sum with the
// depth exactly, so it also fires on overlaps and gaps.
func Validate(depth float64, layers []LayerRow, temperature, lwc []Sample) Violations {
	var out Violations
	var total float64
	spans := make([]span, 0, len(layers))

	for i, row := range layers {
		bottom, errBottom := row.Bottom.Float()
		top, errTop := row.Top.Float()
		numeric := errBottom == nil && errTop == nil
		if !numeric {
			out = append(out, layerViolation(i, CodeInvalidNumber, "Layer %d: invalid numeric values", i))
		} else {
			if top <= bottom {
				out = append(out, layerViolation(i, CodeTopNotAbove, "Layer %d: top (%s) <= bottom (%s)",
					i, formatNumber(top), formatNumber(bottom)))
			}
			if top > depth {
				out = append(out, layerViolation(i, CodeTopAboveDepth, "Layer %d: top (%s) > SD (%s)",
					i, formatNumber(top), formatNumber(depth)))
			}
			if bottom < 0 {
				out = append(out, layerViolation(i, CodeNegativeBottom, "Layer %d: bottom (%s) < 0",
					i, formatNumber(bottom)))
			}
			total += top - bottom
			spans = append(spans, span{bottom: bottom, top: top})
		}
		if _, ok := ParseGrain(row.Grain); !ok {
			out = append(out, layerViolation(i, CodeInvalidGrain, "Layer %d: invalid grain (%s)", i, row.Grain))
		}
		if _, ok := ParseHardness(row.Hardness); !ok {
			out = append(out, layerViolation(i, CodeInvalidHardness, "Layer %d: invalid snow hardness (%s)", i, row.Hardness))
		}
	}

	if len(layers) > 0 && total != depth {
		out = append(out, Violation{
			Scope: ScopeCoverage,
			Index: -1,
			Code:  CodeCoverage,
			Message: fmt.Sprintf("Layer thickness sum (%.1f cm) ≠ SD (%s cm)",
				total, formatNumber(depth)),
		})
	}

	sort.SliceStable(spans, func(a, b int) bool {
		if spans[a].bottom != spans[b].bottom {
			return spans[a].bottom < spans[b].bottom
		}
		return spans[a].top < spans[b].top
	})
	for i := 1; i < len(spans); i++ {
		if spans[i-1].top > spans[i].bottom {
			out = append(out, layerViolation(i, CodeOverlap, "Layer %d: overlap detected with previous layer", i))
		}
	}

	out = append(out, validateProfile(ScopeTemperature, depth, temperature)...)
	out = append(out, validateProfile(ScopeLWC, depth, lwc)...)
	return out
}

func validateProfile(scope Scope, depth float64, samples []Sample) Violations {
	if len(samples) == 0 {
		return nil
	}
	var below, above, duplicated bool
	seen := make(map[float64]struct{}, len(samples))
	for _, s := range samples {
		if math.IsNaN(s.Depth) {
			continue
		}
		if s.Depth < 0 {
			below = true
		}
		if s.Depth > depth {
			above = true
		}
		if _, ok := seen[s.Depth]; ok {
			duplicated = true
		}
		seen[s.Depth] = struct{}{}
	}

	var out Violations
	if below {
		out = append(out, profileViolation(scope, CodeDepthBelowGround, "z < 0"))
	}
	if above {
		out = append(out, profileViolation(scope, CodeDepthAboveSnow, "z > SD"))
	}
	if duplicated {
		out = append(out, profileViolation(scope, CodeDuplicateDepth, "duplicated depths"))
	}
	return out
}

func layerViolation(i int, code Code, format string, args ...any) Violation {
	return Violation{Scope: ScopeLayer, Index: i, Code: code, Message: fmt.Sprintf(format, args...)}
}

func profileViolation(scope Scope, code Code, what string) Violation {
	return Violation{Scope: scope, Index: -1, Code: code, Message: string(scope) + ": " + what}
}

// ErrBelowAbsoluteZero reports a temperature below 0 K after conversion.
var ErrBelowAbsoluteZero = errors.New("one or more values in temperature profile < 0 K")

// CheckAbsoluteZero rejects a negative Kelvin value in the air temperature or
// the profile. It reports a single error however many values fail, and
// must run after values are converted to Kelvin.
func CheckAbsoluteZero(air *float64, profile []Sample) error {
	if air != nil && *air < 0 {
		return ErrBelowAbsoluteZero
	}
	for _, s := range profile {
		if s.Set() && *s.Value < 0 {
			return ErrBelowAbsoluteZero
		}
	}
	return nil
}
