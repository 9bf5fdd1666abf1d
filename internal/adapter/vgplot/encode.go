// Package vgplot draws render.Diagram values with gonum plot's vector
// graphics canvases and encodes them as PNG, SVG or PDF.
package vgplot

import (
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
	"gonum.org/v1/plot/vg/vgsvg"

	"github.com/couchcryptid/snowpit-service/internal/render"
)

// Format is an output file format.
type Format string

const (
	PNG Format = "png"
	SVG Format = "svg"
	PDF Format = "pdf"
)

// DefaultDPI is the raster resolution used when none is configured.
const DefaultDPI = 150

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")); f {
	case PNG, SVG, PDF:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported diagram format %q", s)
	}
}

// Ext returns the file extension, without the dot.
func (f Format) Ext() string { return string(f) }

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case SVG:
		return "image/svg+xml"
	case PDF:
		return "application/pdf"
	default:
		return "image/png"
	}
}

// Encode draws d and writes it to w. dpi applies to PNG only; values <= 0
// use DefaultDPI.
func Encode(w io.Writer, d render.Diagram, f Format, dpi int) error {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	width := vg.Length(d.Width) * vg.Inch
	height := vg.Length(d.Height) * vg.Inch

	var c vg.CanvasWriterTo
	switch f {
	case PNG:
		c = vgimg.PngCanvas{Canvas: vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))}
	case SVG:
		c = vgsvg.New(width, height)
	case PDF:
		// Liberation is not one of the PDF standard fonts, so it must be
		// embedded or the writer rejects the text.
		pdf := vgpdf.New(width, height)
		pdf.EmbedFonts(true)
		c = pdf
	default:
		return fmt.Errorf("encode diagram: unsupported format %q", f)
	}

	dc := draw.New(c)
	newPainter(dc, d).paint()

	if _, err := c.WriteTo(w); err != nil {
		return fmt.Errorf("write %s diagram: %w", f, err)
	}
	return nil
}
