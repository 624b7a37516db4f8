package tpg

import (
	"displaycode-go/regio"
	"displaycode-go/types"
)

// ColorFormat is the generator's internal output color format enumeration.
type ColorFormat uint32

const (
	FormatRGB ColorFormat = iota
	FormatYUV444
	FormatYUV422
	FormatYUV420
	FormatInvalid
)

func (f ColorFormat) String() string {
	switch f {
	case FormatRGB:
		return "rgb"
	case FormatYUV444:
		return "yuv444"
	case FormatYUV422:
		return "yuv422"
	case FormatYUV420:
		return "yuv420"
	default:
		return "invalid"
	}
}

var formatMap = []struct {
	bus   types.BusFormat
	color ColorFormat
}{
	{types.BusFmtRGB666_1X18, FormatRGB},
	{types.BusFmtRBG888_1X24, FormatRGB},
	{types.BusFmtUYVY8_1X16, FormatYUV422},
	{types.BusFmtVUY8_1X24, FormatYUV444},
	{types.BusFmtUYVY10_1X20, FormatYUV422},
}

// BusToColorFormat maps a media bus format to the generator color format,
// or FormatInvalid if the bus format is not supported. Pure; the caller
// must treat FormatInvalid as a probe failure, not a default.
func BusToColorFormat(bus types.BusFormat) ColorFormat {
	for _, e := range formatMap {
		if e.bus == bus {
			return e.color
		}
	}
	return FormatInvalid
}

// Device is one pattern generator instance over a mapped register block.
type Device struct {
	regs regio.Bus32
}

func New(regs regio.Bus32) *Device {
	return &Device{regs: regs}
}

// SetDimensions programs the output frame width and height.
func (d *Device) SetDimensions(w, h uint16) {
	d.regs.Write32(regActiveW, uint32(w))
	d.regs.Write32(regActiveH, uint32(h))
}

// SetPattern programs the output video pattern.
func (d *Device) SetPattern(p Pattern) {
	d.regs.Write32(regPatternID, uint32(p))
}

// Pattern reads back the programmed pattern.
func (d *Device) Pattern() Pattern {
	return Pattern(d.regs.Read32(regPatternID))
}

// SetFormat programs the output color format.
func (d *Device) SetFormat(f ColorFormat) {
	d.regs.Write32(regColorFormat, uint32(f))
}

// Start begins video signal generation. Auto-restart keeps the generator
// free-running, one frame after another, until reset.
func (d *Device) Start() {
	d.regs.Write32(regControl, ctlStart|ctlAutoRestart)
}

// EnableIRQ enables frame-done interrupt generation (global + per-source).
func (d *Device) EnableIRQ() {
	d.regs.Write32(regGlobalIRQEn, 1)
	d.regs.Write32(regIPIRQEn, 1)
}

// DisableIRQ disables frame-done interrupt generation.
func (d *Device) DisableIRQ() {
	d.regs.Write32(regGlobalIRQEn, 0)
	d.regs.Write32(regIPIRQEn, 0)
}

// IRQEnabled reports whether both interrupt enable stages are set.
func (d *Device) IRQEnabled() bool {
	return d.regs.Read32(regGlobalIRQEn)&1 != 0 && d.regs.Read32(regIPIRQEn)&1 != 0
}

// ReadClearStatus reads the latched interrupt status and writes it back to
// clear it. The returned value is unmasked; callers mask to the sources
// they own.
func (d *Device) ReadClearStatus() uint32 {
	s := d.regs.Read32(regIPIRQStatus)
	d.regs.Write32(regIPIRQStatus, s)
	return s
}
