package render

import "image/color"

// Point is a position in data units: X along the axis in question, Y depth in cm.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in data units.
type Rect struct {
	Min, Max Point
}

// Bar is the hardness bar of one layer: it spans [0, hardness position]
// horizontally and [bottom, top] vertically.
type Bar struct {
	Layer int
	Rect  Rect
	Fill  color.RGBA
}

// LabelMode selects how a layer label is placed.
type LabelMode int

const (
	// LabelInline centers the label inside the bar.
	LabelInline LabelMode = iota
	// LabelLeader places a boxed label beside a thin bar, joined to it by a
	// leader line.
	LabelLeader
)

func (m LabelMode) String() string {
	if m == LabelLeader {
		return "leader"
	}
	return "inline"
}

// Align positions text relative to its anchor.
type Align int

const (
	AlignCenter Align = iota
	AlignLeft
	AlignTop
	AlignBottom
)

// Label annotates one layer. Anchor is the point on the bar a leader line
// starts from; Text is where the text is placed. For inline labels both are
// the bar center.
type Label struct {
	Layer  int
	Mode   LabelMode
	Lines  []string
	Anchor Point
	Text   Point
	HAlign Align
	VAlign Align
}

// Tick is a labelled axis position.
type Tick struct {
	Value float64
	Label string
}

// Axis describes one axis. From is the value at the start of the axis (left
// edge for horizontal axes, bottom edge for vertical ones) and To the value
// at its end, so a reversed axis has From > To.
type Axis struct {
	Label string
	From  float64
	To    float64
	Ticks []Tick
	Minor []float64
}

// Span returns the axis bounds in ascending order.
func (a Axis) Span() (lo, hi float64) {
	if a.From < a.To {
		return a.From, a.To
	}
	return a.To, a.From
}

// Overlay is a profile curve drawn against its own horizontal axis above the
// diagram. Level 0 sits directly on the frame; higher levels stack outward.
type Overlay struct {
	Name   string
	Axis   Axis
	Points []Point
	Color  color.RGBA
	Width  float64 // points
	Dashed bool
	Level  int
}

// GridStyle is the stroke of a set of grid lines.
type GridStyle struct {
	Width float64 // points
	Alpha float64
}

// Diagram is the geometry of a stratigraphic chart, independent of any output
// format. Sizes are in inches.
type Diagram struct {
	Title    string
	Caption  []string
	Width    float64
	Height   float64
	Hardness Axis
	Depth    Axis
	Bars     []Bar
	Labels   []Label
	Overlays []Overlay

	MajorGrid GridStyle
	MinorGrid GridStyle
}

// Overlay returns the overlay with the given name.
func (d Diagram) Overlay(name string) (Overlay, bool) {
	for _, o := range d.Overlays {
		if o.Name == name {
			return o, true
		}
	}
	return Overlay{}, false
}
