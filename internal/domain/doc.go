// Package domain models snow pit observations: the stratigraphic layers dug
// out of a snowpack and the temperature and liquid water content (LWC)
// profiles measured down the pit wall.
//
// # Depth Convention
//
// Depths are centimetres measured from the ground upward. A layer spans
// [Bottom, Top] with Top > Bottom, the ground is at 0 and the snow surface is
// at the total snow depth (SD). Profile samples use the same axis ("z").
//
// # Classifications
//
// Grain shapes follow the International Classification for Seasonal Snow on
// the Ground (IACS):
//
//	PP    precipitation particles
//	DF    decomposing and fragmented particles
//	RG    rounded grains (RGwp: wind-packed)
//	FC    faceted crystals
//	DH    depth hoar
//	SH    surface hoar
//	MF    melt forms
//	IF    ice formations
//
// plus "Not measured". Hand hardness is the ordered scale
// F (fist) < 4F (four fingers) < 1F (one finger) < P (pencil) < K (knife) < I (ice).
//
// # Units
//
// Temperatures are stored in Kelvin. Input may arrive in °C or °F and is
// converted once, at acceptance. LWC is a volume percentage, density is
// g cm⁻³.
//
// # Validation
//
// [Validate] reports every violation rather than the first: bad numbers,
// inverted or out-of-range layers, unknown codes, thickness coverage that does
// not sum exactly to SD, overlaps between adjacent layers and out-of-range or
// duplicated profile depths. Coverage uses exact equality, so a single overlap
// is usually reported twice (as an overlap and as a coverage mismatch).
//
// # Collections
//
// Pits are grouped per site and observation date. The winter season of a date
// is derived by [SeasonOf]; seasons start on 1 October.
package domain
