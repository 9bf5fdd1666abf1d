package vgplot

import (
	"image/color"
	"math"
	"strings"

	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/couchcryptid/snowpit-service/internal/render"
)

const (
	marginLeft   = vg.Inch * 0.35
	marginRight  = vg.Inch * 0.85
	marginBottom = vg.Inch * 0.75
	headerHeight = vg.Inch * 1.1
	overlayBand  = vg.Inch * 0.55
	tickLength   = 4 // points
	boxPadding   = 2 // points
)

var (
	black     = color.Black
	white     = color.White
	gridGrey  = color.NRGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0xff}
	captionBg = color.NRGBA{R: 0xf5, G: 0xf5, B: 0xf5, A: 0xff}
)

// painter draws one diagram onto a canvas. frame is the plotting area in
// canvas coordinates.
type painter struct {
	c     draw.Canvas
	d     render.Diagram
	frame vg.Rectangle
}

func newPainter(c draw.Canvas, d render.Diagram) *painter {
	bands := 0
	for _, o := range d.Overlays {
		bands = max(bands, o.Level+1)
	}
	frame := vg.Rectangle{
		Min: vg.Point{X: c.Min.X + marginLeft, Y: c.Min.Y + marginBottom},
		Max: vg.Point{X: c.Max.X - marginRight, Y: c.Max.Y - headerHeight - vg.Length(bands)*overlayBand},
	}
	return &painter{c: c, d: d, frame: frame}
}

func (p *painter) paint() {
	p.grid()
	p.bars()
	p.outline(p.frame, draw.LineStyle{Color: black, Width: vg.Points(0.8)})
	p.hardnessAxis()
	p.depthAxis()
	p.labels()
	for _, o := range p.d.Overlays {
		p.overlay(o)
	}
	p.legend()
	p.header()
}

// x maps a value of a horizontal axis to a canvas X coordinate.
func (p *painter) x(a render.Axis, v float64) vg.Length {
	return p.frame.Min.X + vg.Length((v-a.From)/(a.To-a.From))*(p.frame.Max.X-p.frame.Min.X)
}

// y maps a depth to a canvas Y coordinate.
func (p *painter) y(v float64) vg.Length {
	a := p.d.Depth
	return p.frame.Min.Y + vg.Length((v-a.From)/(a.To-a.From))*(p.frame.Max.Y-p.frame.Min.Y)
}

func (p *painter) grid() {
	minor := draw.LineStyle{Color: withAlpha(gridGrey, p.d.MinorGrid.Alpha), Width: vg.Points(p.d.MinorGrid.Width)}
	major := draw.LineStyle{Color: withAlpha(gridGrey, p.d.MajorGrid.Alpha), Width: vg.Points(p.d.MajorGrid.Width)}

	for _, v := range p.d.Hardness.Minor {
		p.vline(minor, p.x(p.d.Hardness, v))
	}
	for _, v := range p.d.Depth.Minor {
		p.hline(minor, p.y(v))
	}
	for _, t := range p.d.Hardness.Ticks {
		p.vline(major, p.x(p.d.Hardness, t.Value))
	}
	for _, t := range p.d.Depth.Ticks {
		p.hline(major, p.y(t.Value))
	}
}

func (p *painter) vline(sty draw.LineStyle, x vg.Length) {
	if x < p.frame.Min.X || x > p.frame.Max.X {
		return
	}
	p.c.StrokeLine2(sty, x, p.frame.Min.Y, x, p.frame.Max.Y)
}

func (p *painter) hline(sty draw.LineStyle, y vg.Length) {
	if y < p.frame.Min.Y || y > p.frame.Max.Y {
		return
	}
	p.c.StrokeLine2(sty, p.frame.Min.X, y, p.frame.Max.X, y)
}

func (p *painter) bars() {
	edge := draw.LineStyle{Color: black, Width: vg.Points(0.6)}
	for _, b := range p.d.Bars {
		r := vg.Rectangle{
			Min: vg.Point{X: p.x(p.d.Hardness, b.Rect.Min.X), Y: p.y(b.Rect.Min.Y)},
			Max: vg.Point{X: p.x(p.d.Hardness, b.Rect.Max.X), Y: p.y(b.Rect.Max.Y)},
		}
		p.c.FillPolygon(b.Fill, corners(r))
		p.outline(r, edge)
	}
}

func (p *painter) hardnessAxis() {
	a := p.d.Hardness
	tick := draw.LineStyle{Color: black, Width: vg.Points(0.6)}
	sty := textStyle(9, text.XCenter, text.YTop)
	for _, t := range a.Ticks {
		x := p.x(a, t.Value)
		p.c.StrokeLine2(tick, x, p.frame.Min.Y, x, p.frame.Min.Y-vg.Points(tickLength))
		p.c.FillText(sty, vg.Point{X: x, Y: p.frame.Min.Y - vg.Points(tickLength+2)}, t.Label)
	}
	mid := (p.frame.Min.X + p.frame.Max.X) / 2
	p.c.FillText(textStyle(10, text.XCenter, text.YTop), vg.Point{X: mid, Y: p.frame.Min.Y - vg.Points(28)}, a.Label)
}

func (p *painter) depthAxis() {
	a := p.d.Depth
	tick := draw.LineStyle{Color: black, Width: vg.Points(0.6)}
	sty := textStyle(9, text.XLeft, text.YCenter)
	for _, t := range a.Ticks {
		y := p.y(t.Value)
		p.c.StrokeLine2(tick, p.frame.Max.X, y, p.frame.Max.X+vg.Points(tickLength), y)
		p.c.FillText(sty, vg.Point{X: p.frame.Max.X + vg.Points(tickLength+2), Y: y}, t.Label)
	}
	label := textStyle(10, text.XCenter, text.YTop)
	label.Rotation = math.Pi / 2
	mid := (p.frame.Min.Y + p.frame.Max.Y) / 2
	p.c.FillText(label, vg.Point{X: p.frame.Max.X + vg.Points(36), Y: mid}, a.Label)
}

func (p *painter) labels() {
	leader := draw.LineStyle{Color: black, Width: vg.Points(0.8)}
	border := draw.LineStyle{Color: black, Width: vg.Points(0.5)}
	for _, l := range p.d.Labels {
		txt := strings.Join(l.Lines, "\n")
		at := vg.Point{X: p.x(p.d.Hardness, l.Text.X), Y: p.y(l.Text.Y)}
		if l.Mode == render.LabelInline {
			p.c.FillText(textStyle(8, text.XCenter, text.YCenter), at, txt)
			continue
		}

		sty := textStyle(8, xAlign(l.HAlign), yAlign(l.VAlign))
		box := textBox(sty, at, txt)
		anchor := vg.Point{X: p.x(p.d.Hardness, l.Anchor.X), Y: p.y(l.Anchor.Y)}
		p.c.StrokeLine2(leader, anchor.X, anchor.Y, at.X, at.Y)
		p.c.FillPolygon(white, corners(box))
		p.outline(box, border)
		p.c.FillText(sty, at, txt)
	}
}

func (p *painter) overlay(o render.Overlay) {
	base := p.frame.Max.Y + vg.Length(o.Level)*overlayBand
	line := draw.LineStyle{Color: black, Width: vg.Points(0.6)}
	p.c.StrokeLine2(line, p.frame.Min.X, base, p.frame.Max.X, base)

	sty := textStyle(8, text.XCenter, text.YBottom)
	for _, t := range o.Axis.Ticks {
		x := p.x(o.Axis, t.Value)
		p.c.StrokeLine2(line, x, base, x, base+vg.Points(tickLength))
		p.c.FillText(sty, vg.Point{X: x, Y: base + vg.Points(tickLength+1)}, t.Label)
	}
	mid := (p.frame.Min.X + p.frame.Max.X) / 2
	p.c.FillText(textStyle(9, text.XCenter, text.YBottom), vg.Point{X: mid, Y: base + vg.Points(18)}, o.Axis.Label)

	if len(o.Points) < 2 {
		return
	}
	pts := make([]vg.Point, len(o.Points))
	for i, pt := range o.Points {
		pts[i] = vg.Point{X: p.x(o.Axis, pt.X), Y: p.y(pt.Y)}
	}
	clip := draw.Canvas{Canvas: p.c.Canvas, Rectangle: p.frame}
	p.c.StrokeLines(curveStyle(o), clip.ClipLinesXY(pts)...)
}

func (p *painter) legend() {
	if len(p.d.Overlays) == 0 {
		return
	}
	sty := textStyle(8, text.XLeft, text.YCenter)
	x := p.frame.Max.X - vg.Inch*1.4
	y := p.frame.Max.Y - vg.Points(10)
	for _, o := range p.d.Overlays {
		p.c.StrokeLine2(curveStyle(o), x, y, x+vg.Points(18), y)
		p.c.FillText(sty, vg.Point{X: x + vg.Points(22), Y: y}, o.Axis.Label)
		y -= vg.Points(12)
	}
}

func (p *painter) header() {
	title := textStyle(12, text.XCenter, text.YTop)
	title.Font.Weight = xfont.WeightBold
	mid := (p.c.Min.X + p.c.Max.X) / 2
	top := p.c.Max.Y - vg.Points(8)
	p.c.FillText(title, vg.Point{X: mid, Y: top}, p.d.Title)

	if len(p.d.Caption) == 0 {
		return
	}
	sty := textStyle(9, text.XCenter, text.YTop)
	txt := strings.Join(p.d.Caption, "\n")
	at := vg.Point{X: mid, Y: top - vg.Points(24)}
	box := textBox(sty, at, txt)
	p.c.FillPolygon(captionBg, corners(box))
	p.outline(box, draw.LineStyle{Color: black, Width: vg.Points(0.6)})
	p.c.FillText(sty, at, txt)
}

func (p *painter) outline(r vg.Rectangle, sty draw.LineStyle) {
	pts := corners(r)
	p.c.StrokeLines(sty, append(pts, pts[0]))
}

func curveStyle(o render.Overlay) draw.LineStyle {
	sty := draw.LineStyle{Color: o.Color, Width: vg.Points(o.Width)}
	if o.Dashed {
		sty.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	}
	return sty
}

func textStyle(size float64, xa text.XAlignment, ya text.YAlignment) text.Style {
	return text.Style{
		Color:   black,
		Font:    font.Font{Typeface: "Liberation", Variant: "Sans", Size: vg.Points(size)},
		XAlign:  xa,
		YAlign:  ya,
		Handler: plot.DefaultTextHandler,
	}
}

// textBox is the padded rectangle a text occupies when drawn at pt with sty.
func textBox(sty text.Style, pt vg.Point, txt string) vg.Rectangle {
	w, h := sty.Width(txt), sty.Height(txt)
	minX := pt.X + vg.Length(sty.XAlign)*w
	minY := pt.Y + vg.Length(sty.YAlign)*h
	pad := vg.Points(boxPadding)
	return vg.Rectangle{
		Min: vg.Point{X: minX - pad, Y: minY - pad},
		Max: vg.Point{X: minX + w + pad, Y: minY + h + pad},
	}
}

func corners(r vg.Rectangle) []vg.Point {
	return []vg.Point{
		{X: r.Min.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Min.Y},
		{X: r.Max.X, Y: r.Max.Y},
		{X: r.Min.X, Y: r.Max.Y},
	}
}

func xAlign(a render.Align) text.XAlignment {
	if a == render.AlignLeft {
		return text.XLeft
	}
	return text.XCenter
}

func yAlign(a render.Align) text.YAlignment {
	switch a {
	case render.AlignTop:
		return text.YTop
	case render.AlignBottom:
		return text.YBottom
	default:
		return text.YCenter
	}
}

func withAlpha(c color.NRGBA, alpha float64) color.NRGBA {
	c.A = uint8(math.Round(math.Max(0, math.Min(1, alpha)) * 255))
	return c
}
