// Package render lays out stratigraphic diagrams of snow pits. It produces
// pure geometry in data units; drawing to an image or document is left to an
// output adapter.
package render

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/snowpit-service/internal/domain"
)

// DefaultTitle is used when Options.Title is empty.
const DefaultTitle = "Snow pit profile"

// Overlay names.
const (
	OverlayTemperature = "temperature"
	OverlayLWC         = "lwc"
)

const (
	// thinLayer is the thickness (cm) below which labels move out of the bar.
	thinLayer = 5.0
	// figureWidth is the chart width in inches; the height grows with depth
	// between the two bounds.
	figureWidth     = 8.0
	minFigureHeight = 6.0
	maxFigureHeight = 40.0
	// coldest is the far end of the temperature window, in °C.
	coldest = -30.0
	// maxLWC is the far end of the LWC window, in %.
	maxLWC = 3.0
)

// Options controls what a diagram shows.
type Options struct {
	ShowTemperature bool
	ShowLWC         bool
	Title           string
	Location        string
	Weather         string
	// TemperatureUnit is the display unit of the temperature overlay and the
	// caption; °C when empty.
	TemperatureUnit domain.TemperatureUnit
}

// Render computes the diagram of a pit. It is deterministic and does no I/O.
//
// Each layer becomes a bar from 0 to its hardness position. The hardness axis
// is reversed so bars grow from the right, where the depth axis sits.
// Layers thinner than 5 cm get a boxed label beside the bar joined by a
// leader line; thicker ones are labelled inside the bar.
func Render(pit domain.SnowPit, opts Options) Diagram {
	unit := opts.TemperatureUnit
	if unit == "" {
		unit = domain.Celsius
	}
	title := opts.Title
	if title == "" {
		title = DefaultTitle
	}

	depth := math.Trunc(pit.SnowDepth)
	step := hardnessStep(depth)

	d := Diagram{
		Title:     title,
		Width:     figureWidth,
		Height:    math.Min(maxFigureHeight, math.Max(minFigureHeight, depth/6)),
		Hardness:  hardnessAxis(depth, step),
		Depth:     depthAxis(depth),
		MajorGrid: GridStyle{Width: 0.6, Alpha: 0.5},
		MinorGrid: GridStyle{Width: 0.3, Alpha: 0.35},
	}

	for i, layer := range pit.Layers {
		x := float64(layer.Hardness.Rank()) * step
		d.Bars = append(d.Bars, Bar{
			Layer: i,
			Rect:  Rect{Min: Point{X: 0, Y: layer.Bottom}, Max: Point{X: x, Y: layer.Top}},
			Fill:  GrainColor(layer.Grain),
		})
		d.Labels = append(d.Labels, layerLabel(i, layer, x, step))
	}

	if opts.ShowTemperature {
		d.Overlays = append(d.Overlays, temperatureOverlay(pit, depth, unit))
	}
	if opts.ShowLWC {
		o := lwcOverlay(pit)
		if opts.ShowTemperature {
			o.Level = 1
		}
		d.Overlays = append(d.Overlays, o)
	}

	d.Caption = caption(pit, opts.Location, opts.Weather, unit)
	return d
}

// hardnessStep spaces the six hardness categories evenly across the depth.
// Pits shallower than six centimetres still get a unit spacing.
func hardnessStep(depth float64) float64 {
	step := math.Floor(depth / float64(domain.NumHardness))
	if step < 1 {
		return 1
	}
	return step
}

// LabelModeFor returns the label placement for a layer of the given thickness.
func LabelModeFor(thickness float64) LabelMode {
	if thickness < thinLayer {
		return LabelLeader
	}
	return LabelInline
}

func layerLabel(i int, layer domain.Layer, x, step float64) Label {
	h := layer.Thickness()
	label := Label{
		Layer: i,
		Mode:  LabelModeFor(h),
		Lines: labelLines(layer),
	}
	if label.Mode == LabelInline {
		center := Point{X: x / 2, Y: layer.Bottom + h/2}
		label.Anchor, label.Text = center, center
		label.HAlign, label.VAlign = AlignCenter, AlignCenter
		return label
	}

	// The ground layer has nothing below it, so its label goes above.
	label.HAlign = AlignLeft
	if layer.Bottom == 0 {
		label.Anchor = Point{X: x, Y: layer.Bottom + h/3}
		label.Text = Point{X: x + step*0.1, Y: layer.Top + 1}
		label.VAlign = AlignBottom
	} else {
		label.Anchor = Point{X: x, Y: layer.Bottom + 2*h/3}
		label.Text = Point{X: x + step*0.1, Y: layer.Bottom - 1}
		label.VAlign = AlignTop
	}
	return label
}

func labelLines(layer domain.Layer) []string {
	grain := layer.Grain.String()
	if grain == "" {
		grain = "?"
	}
	density := "n/a"
	if layer.Density != nil {
		density = formatValue(*layer.Density)
	}
	return []string{
		fmt.Sprintf("Grain: %s - [%s]", grain, layer.Grain.Symbol()),
		fmt.Sprintf("Density: %s g cm⁻³", density),
	}
}

func hardnessAxis(depth, step float64) Axis {
	scale := domain.HardnessScale()
	ticks := make([]Tick, len(scale))
	for i, h := range scale {
		ticks[i] = Tick{Value: float64(h.Rank()) * step, Label: h.String()}
	}
	extent := float64(len(scale))*step + 1
	return Axis{
		Label: "Snow hardness",
		From:  extent,
		To:    0,
		Ticks: ticks,
		Minor: minorSteps(0, math.Min(depth, extent)),
	}
}

// depthAxis spans at least one centimetre so a bare-ground pit still has a
// drawable axis.
func depthAxis(depth float64) Axis {
	span := math.Max(depth, 1)
	return Axis{
		Label: "Depth (cm)",
		From:  0,
		To:    span,
		Ticks: niceTicks(0, span, 10),
		Minor: minorSteps(0, span),
	}
}

func temperatureOverlay(pit domain.SnowPit, depth float64, unit domain.TemperatureUnit) Overlay {
	measured := domain.Measured(pit.Temperature)
	sort.SliceStable(measured, func(a, b int) bool { return measured[a].Depth < measured[b].Depth })

	points := make([]Point, 0, len(measured)+1)
	for _, s := range measured {
		points = append(points, Point{X: domain.FromKelvin(*s.Value, unit), Y: s.Depth})
	}
	if pit.AirTemperature != nil {
		points = append(points, Point{X: domain.FromKelvin(*pit.AirTemperature, unit), Y: depth})
	}

	// The window runs from 0 °C on the right to the coldest value on the left.
	warm := domain.FromKelvin(domain.ToKelvin(0, domain.Celsius), unit)
	cold := domain.FromKelvin(domain.ToKelvin(coldest, domain.Celsius), unit)
	return Overlay{
		Name: OverlayTemperature,
		Axis: Axis{
			Label: "Temperature (" + unit.Label() + ")",
			From:  cold,
			To:    warm,
			Ticks: niceTicks(cold, warm, 6),
		},
		Points: points,
		Color:  darkRed,
		Width:  2,
	}
}

func lwcOverlay(pit domain.SnowPit) Overlay {
	measured := domain.Measured(pit.LWC)
	sort.SliceStable(measured, func(a, b int) bool { return measured[a].Depth < measured[b].Depth })

	points := make([]Point, len(measured))
	for i, s := range measured {
		points[i] = Point{X: *s.Value, Y: s.Depth}
	}
	return Overlay{
		Name: OverlayLWC,
		Axis: Axis{
			Label: "LWC (%)",
			From:  maxLWC,
			To:    0,
			Ticks: niceTicks(0, maxLWC, 6),
		},
		Points: points,
		Color:  royalBlue,
		Width:  2,
		Dashed: true,
	}
}

// caption builds the two information lines above the chart. Missing fields
// are left out together with their separator, and an empty line is dropped.
func caption(pit domain.SnowPit, location, weather string, unit domain.TemperatureUnit) []string {
	const sep = "   |   "
	var first, second []string
	if date := pit.DateString(); date != "" {
		first = append(first, "Date: "+date)
	}
	if location != "" {
		first = append(first, "Location: "+location)
	}
	if weather != "" {
		second = append(second, "Weather: "+weather)
	}
	if pit.AirTemperature != nil {
		air := math.Round(domain.FromKelvin(*pit.AirTemperature, unit)*100) / 100
		second = append(second, "Air temperature: "+formatValue(air)+" "+unit.Label())
	}

	var lines []string
	for _, parts := range [][]string{first, second} {
		if len(parts) > 0 {
			lines = append(lines, strings.Join(parts, sep))
		}
	}
	return lines
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
