// Package tpg drives a test pattern generator IP core: pattern
// selection, output color format, frame dimensions, start and interrupt
// mask control over a mapped register block.
package tpg

const (
	regControl     = 0x0000
	regGlobalIRQEn = 0x0004
	regIPIRQEn     = 0x0008
	regIPIRQStatus = 0x000C // latched, write-one-to-clear
	regActiveH     = 0x0010
	regActiveW     = 0x0018
	regPatternID   = 0x0020
	regColorFormat = 0x0040

	ctlStart       = 1 << 0
	ctlAutoRestart = 1 << 7
)

// IRQFrameDone is the frame-done source bit in the IP interrupt status
// register. Other status bits belong to sources this driver does not own.
const IRQFrameDone uint32 = 1 << 0

// Pattern selects the generated test pattern.
type Pattern uint32

const (
	PatHorizontalRamp Pattern = iota + 1
	PatVerticalRamp
	PatTemporalRamp
	PatSolidRed
	PatSolidGreen
	PatSolidBlue
	PatSolidBlack
	PatSolidWhite
	PatColorBars
	PatZonePlate
	PatTartanColorBars
	PatCrossHatch
	PatColorSweep
	PatComboRamp
	PatCheckerBoard
	PatDPColorRamp
	PatDPVerticalLines
	PatDPColorSquare
)

var patternNames = []struct {
	id   Pattern
	name string
}{
	{PatHorizontalRamp, "horizontal-ramp"},
	{PatVerticalRamp, "vertical-ramp"},
	{PatTemporalRamp, "temporal-ramp"},
	{PatSolidRed, "red"},
	{PatSolidGreen, "green"},
	{PatSolidBlue, "blue"},
	{PatSolidBlack, "black"},
	{PatSolidWhite, "white"},
	{PatColorBars, "color-bars"},
	{PatZonePlate, "zone-plate"},
	{PatTartanColorBars, "tartan-color-bars"},
	{PatCrossHatch, "cross-hatch"},
	{PatColorSweep, "color-sweep"},
	{PatComboRamp, "combo-ramp"},
	{PatCheckerBoard, "checker-board"},
	{PatDPColorRamp, "dp-color-ramp"},
	{PatDPVerticalLines, "dp-vertical-lines"},
	{PatDPColorSquare, "dp-color-square"},
}

func (p Pattern) String() string {
	for _, e := range patternNames {
		if e.id == p {
			return e.name
		}
	}
	return "unknown"
}

// PatternByName resolves a pattern name to its id.
func PatternByName(name string) (Pattern, bool) {
	for _, e := range patternNames {
		if e.name == name {
			return e.id, true
		}
	}
	return 0, false
}

// PatternNames lists the selectable pattern names in id order.
func PatternNames() []string {
	out := make([]string, 0, len(patternNames))
	for _, e := range patternNames {
		out = append(out, e.name)
	}
	return out
}
