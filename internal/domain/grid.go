package domain

import "math"

// MaxProfileSamples bounds the number of samples in a generated grid.
const MaxProfileSamples = 10_000

// GenerateProfile lays out an empty measurement grid: samples at 0, step,
// 2*step and so on, strictly below depth, each without a value.
//
// The grid is empty when depth is not positive or step is missing, not
// positive or NaN. A grid never holds more than MaxProfileSamples samples;
// ProfileSize reports whether a depth and step fit. Callers that regenerate a profile after depth or step
// changes discard any values already entered.
func GenerateProfile(depth float64, step *float64) []Sample {
	if step == nil || math.IsNaN(depth) || depth <= 0 {
		return nil
	}
	s := *step
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return nil
	}

	n := MaxProfileSamples
	if size := math.Ceil(depth / s); size < MaxProfileSamples {
		n = int(size)
	}
	samples := make([]Sample, 0, n)
	for i := range n {
		z := float64(i) * s
		if z >= depth {
			break
		}
		samples = append(samples, Sample{Depth: z})
	}
	return samples
}

// ProfileSize returns the number of samples GenerateProfile would lay out
// for depth and step before the MaxProfileSamples bound, as a float so
// oversized grids do not overflow.
func ProfileSize(depth, step float64) float64 {
	if math.IsNaN(depth) || math.IsNaN(step) || depth <= 0 || step <= 0 {
		return 0
	}
	return math.Ceil(depth / step)
}
