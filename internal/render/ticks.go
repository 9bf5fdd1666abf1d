package render

import (
	"math"
	"strconv"
	"strings"
)

// niceStep picks a tick spacing of 1, 2 or 5 times a power of ten so that
// span is divided into at most about target intervals.
func niceStep(span float64, target int) float64 {
	if span <= 0 || target <= 0 {
		return 1
	}
	raw := span / float64(target)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	for _, m := range []float64{1, 2, 5, 10} {
		if step := m * mag; step >= raw {
			return step
		}
	}
	return 10 * mag
}

// niceTicks returns labelled ticks at multiples of a nice step inside [lo, hi].
func niceTicks(lo, hi float64, target int) []Tick {
	if hi < lo {
		lo, hi = hi, lo
	}
	step := niceStep(hi-lo, target)
	first := math.Ceil(lo/step-1e-9) * step
	var ticks []Tick
	for i := 0; ; i++ {
		v := first + float64(i)*step
		if v > hi+step*1e-9 {
			break
		}
		v = math.Round(v/step) * step
		ticks = append(ticks, Tick{Value: v, Label: formatTick(v, step)})
	}
	return ticks
}

// maxMinorSteps bounds the minor grid lines of one axis.
const maxMinorSteps = 1000

// minorSteps returns every integer in [lo, hi]. Wider ranges fall back to
// multiples of a nice step so there are at most about maxMinorSteps lines.
func minorSteps(lo, hi float64) []float64 {
	step := 1.0
	if hi-lo > maxMinorSteps {
		step = niceStep(hi-lo, maxMinorSteps)
	}
	var out []float64
	for v := math.Ceil(lo/step) * step; v <= hi; v += step {
		out = append(out, v)
	}
	return out
}

// formatTick prints v with as many decimals as step needs.
func formatTick(v, step float64) string {
	decimals := 0
	if step < 1 {
		decimals = int(math.Ceil(-math.Log10(step) - 1e-9))
	}
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	if s == "-0" {
		s = "0"
	}
	return s
}
