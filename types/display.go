package types

// ------------------------
// Media bus formats
// ------------------------

// BusFormat identifies the pixel-encoding convention on the link between the
// pattern generator and the downstream consumer. Values follow the standard
// media bus format numbering.
type BusFormat uint32

const (
	BusFmtRGB666_1X18 BusFormat = 0x1009
	BusFmtRBG888_1X24 BusFormat = 0x100e
	BusFmtUYVY8_1X16  BusFormat = 0x2006
	BusFmtVUY8_1X24   BusFormat = 0x2019
	BusFmtUYVY10_1X20 BusFormat = 0x201a
)

func (f BusFormat) String() string {
	switch f {
	case BusFmtRGB666_1X18:
		return "RGB666_1X18"
	case BusFmtRBG888_1X24:
		return "RBG888_1X24"
	case BusFmtUYVY8_1X16:
		return "UYVY8_1X16"
	case BusFmtVUY8_1X24:
		return "VUY8_1X24"
	case BusFmtUYVY10_1X20:
		return "UYVY10_1X20"
	default:
		return "unknown"
	}
}

// ------------------------
// Display modes
// ------------------------

// ModeFlags carries sync polarity.
type ModeFlags uint32

const (
	ModeFlagPHSync ModeFlags = 1 << iota
	ModeFlagNHSync
	ModeFlagPVSync
	ModeFlagNVSync
)

// DisplayMode is a raster description in the compositor's convention:
// sync positions are absolute within the total line/frame.
type DisplayMode struct {
	Clock uint32 `json:"clock"` // pixel clock in kHz

	HDisplay   uint16 `json:"hdisplay"`
	HSyncStart uint16 `json:"hsync_start"`
	HSyncEnd   uint16 `json:"hsync_end"`
	HTotal     uint16 `json:"htotal"`

	VDisplay   uint16 `json:"vdisplay"`
	VSyncStart uint16 `json:"vsync_start"`
	VSyncEnd   uint16 `json:"vsync_end"`
	VTotal     uint16 `json:"vtotal"`

	Flags ModeFlags `json:"flags,omitempty"`
}

// Videomode is the same raster expressed as porch/sync interval lengths,
// the form timing-controller hardware is programmed in.
type Videomode struct {
	PixelClock uint64 // Hz

	HActive     uint32
	HFrontPorch uint32
	HSyncLen    uint32
	HBackPorch  uint32

	VActive     uint32
	VFrontPorch uint32
	VSyncLen    uint32
	VBackPorch  uint32

	Flags ModeFlags
}

// Videomode converts the absolute raster positions into interval lengths.
func (m DisplayMode) Videomode() Videomode {
	return Videomode{
		PixelClock: uint64(m.Clock) * 1000,

		HActive:     uint32(m.HDisplay),
		HFrontPorch: uint32(m.HSyncStart - m.HDisplay),
		HSyncLen:    uint32(m.HSyncEnd - m.HSyncStart),
		HBackPorch:  uint32(m.HTotal - m.HSyncEnd),

		VActive:     uint32(m.VDisplay),
		VFrontPorch: uint32(m.VSyncStart - m.VDisplay),
		VSyncLen:    uint32(m.VSyncEnd - m.VSyncStart),
		VBackPorch:  uint32(m.VTotal - m.VSyncEnd),

		Flags: m.Flags,
	}
}
