// Package vtc drives a video timing controller IP: sync/blanking timing
// generation for a display pipeline. It is a reference peripheral for the
// timing registry contract; the pipeline core never depends on it.
package vtc

const (
	regCtl = 0x000

	// Generator timing registers.
	regGASize = 0x060 // active size: height<<16 | width
	regGPol   = 0x06C // sync polarity
	regGHSize = 0x070 // total line length
	regGVSize = 0x074 // total frame length
	regGHSync = 0x078 // hsync end<<16 | start
	regGVSync = 0x080 // vsync end<<16 | start

	ctlSwEnable  = 1 << 0
	ctlRegUpdate = 1 << 1
	ctlGenEnable = 1 << 2

	polHSyncPos = 1 << 0
	polVSyncPos = 1 << 1
)
