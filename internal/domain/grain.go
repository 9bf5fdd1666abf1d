package domain

// GrainType is an IACS grain shape class. The zero value is GrainUnknown and
// marks a code outside the classification.
type GrainType int

const (
	GrainUnknown GrainType = iota
	GrainPP                // precipitation particles
	GrainDF                // decomposing and fragmented particles
	GrainRG                // rounded grains
	GrainRGwp              // wind-packed rounded grains
	GrainFC                // faceted crystals
	GrainDH                // depth hoar
	GrainSH                // surface hoar
	GrainMF                // melt forms
	GrainIF                // ice formations
	GrainNotMeasured
)

// NumGrainTypes is the size of tables indexed by GrainType, GrainUnknown included.
const NumGrainTypes = int(GrainNotMeasured) + 1

var grainCodes = [NumGrainTypes]string{
	GrainUnknown:     "",
	GrainPP:          "PP",
	GrainDF:          "DF",
	GrainRG:          "RG",
	GrainRGwp:        "RGwp",
	GrainFC:          "FC",
	GrainDH:          "DH",
	GrainSH:          "SH",
	GrainMF:          "MF",
	GrainIF:          "IF",
	GrainNotMeasured: "Not measured",
}

// grainSymbols are the IACS plotting symbols.
var grainSymbols = [NumGrainTypes]string{
	GrainUnknown:     "",
	GrainPP:          "+",
	GrainDF:          "⁄",
	GrainRG:          "●",
	GrainRGwp:        "●̸",
	GrainFC:          "◻︎",
	GrainDH:          "^",
	GrainSH:          "v",
	GrainMF:          "o",
	GrainIF:          "■",
	GrainNotMeasured: " ",
}

// GrainTypes returns the valid grain classes in field-sheet order.
func GrainTypes() []GrainType {
	return []GrainType{
		GrainPP, GrainDF, GrainRG, GrainRGwp, GrainFC,
		GrainDH, GrainSH, GrainMF, GrainIF, GrainNotMeasured,
	}
}

// ParseGrain maps an IACS code to its GrainType. Matching is exact, as codes
// such as "RG" and "RGwp" differ only by case-sensitive suffix.
func ParseGrain(code string) (GrainType, bool) {
	for _, g := range GrainTypes() {
		if grainCodes[g] == code {
			return g, true
		}
	}
	return GrainUnknown, false
}

// String returns the IACS code, or "" for GrainUnknown.
func (g GrainType) String() string {
	if !g.valid() {
		return ""
	}
	return grainCodes[g]
}

// Symbol returns the IACS plotting symbol for the grain class.
func (g GrainType) Symbol() string {
	if !g.valid() {
		return ""
	}
	return grainSymbols[g]
}

// Known reports whether g is one of the classified grain types.
func (g GrainType) Known() bool {
	return g > GrainUnknown && g.valid()
}

func (g GrainType) valid() bool {
	return g >= GrainUnknown && int(g) < NumGrainTypes
}

// Hardness is the hand hardness index. Values are ordered from softest (F,
// fist) to hardest (I, ice); the zero value is HardnessUnknown.
type Hardness int

const (
	HardnessUnknown Hardness = iota
	HardnessF
	Hardness4F
	Hardness1F
	HardnessP
	HardnessK
	HardnessI
)

// NumHardness is the number of categories on the hand hardness scale.
const NumHardness = int(HardnessI)

var hardnessCodes = [NumHardness + 1]string{
	HardnessUnknown: "",
	HardnessF:       "F",
	Hardness4F:      "4F",
	Hardness1F:      "1F",
	HardnessP:       "P",
	HardnessK:       "K",
	HardnessI:       "I",
}

// HardnessScale returns the hardness categories from softest to hardest.
func HardnessScale() []Hardness {
	return []Hardness{HardnessF, Hardness4F, Hardness1F, HardnessP, HardnessK, HardnessI}
}

// ParseHardness maps a hand hardness code (F, 4F, 1F, P, K, I) to its category.
func ParseHardness(code string) (Hardness, bool) {
	for _, h := range HardnessScale() {
		if hardnessCodes[h] == code {
			return h, true
		}
	}
	return HardnessUnknown, false
}

// String returns the hand hardness code, or "" for HardnessUnknown.
func (h Hardness) String() string {
	if h < HardnessUnknown || int(h) > NumHardness {
		return ""
	}
	return hardnessCodes[h]
}

// Rank is the 1-based position of h on the scale; 0 for HardnessUnknown.
func (h Hardness) Rank() int {
	if !h.Known() {
		return 0
	}
	return int(h)
}

// Known reports whether h is a category of the scale.
func (h Hardness) Known() bool {
	return h > HardnessUnknown && int(h) <= NumHardness
}
