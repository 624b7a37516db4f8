package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

// PeriodFromHz returns a nanosecond period for a requested frequency.
// freqHz==0 is coerced to 1 to avoid division by zero.
func PeriodFromHz(freqHz uint32) uint64 {
	if freqHz == 0 {
		freqHz = 1
	}
	return uint64(1_000_000_000 / uint64(freqHz))
}

// FramePeriod returns the duration of one output frame for a pixel clock in
// kHz and the total (active plus blanking) line and frame sizes. Degenerate
// inputs fall back to a 60 Hz period.
func FramePeriod(clockKHz uint32, htotal, vtotal uint32) time.Duration {
	px := uint64(htotal) * uint64(vtotal)
	if clockKHz == 0 || px == 0 {
		return time.Second / 60
	}
	return time.Duration(px * 1_000_000 / uint64(clockKHz))
}
