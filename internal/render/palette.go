package render

import (
	"image/color"

	"github.com/couchcryptid/snowpit-service/internal/domain"
)

// Grey fills bars whose grain code is unknown.
var Grey = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}

var (
	darkRed   = color.RGBA{R: 0x8b, A: 0xff}
	royalBlue = color.RGBA{R: 0x41, G: 0x69, B: 0xe1, A: 0xff}
)

// grainFill is indexed by domain.GrainType; every class has an entry.
var grainFill = [domain.NumGrainTypes]color.RGBA{
	domain.GrainUnknown:     Grey,
	domain.GrainPP:          rgb(0x00ff00),
	domain.GrainDF:          rgb(0x228b22),
	domain.GrainRG:          rgb(0xffb6c1),
	domain.GrainRGwp:        rgb(0xffb6c1),
	domain.GrainFC:          rgb(0xadd8e6),
	domain.GrainDH:          rgb(0x0000ff),
	domain.GrainSH:          rgb(0xff00ff),
	domain.GrainMF:          rgb(0xff0000),
	domain.GrainIF:          rgb(0x00ffff),
	domain.GrainNotMeasured: rgb(0xffffff),
}

// GrainColor returns the fill color of a grain class.
func GrainColor(g domain.GrainType) color.RGBA {
	if !g.Known() {
		return Grey
	}
	return grainFill[g]
}

func rgb(hex uint32) color.RGBA {
	return color.RGBA{R: uint8(hex >> 16), G: uint8(hex >> 8), B: uint8(hex), A: 0xff}
}
