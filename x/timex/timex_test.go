package timex

import (
	"testing"
	"time"
)

func TestPeriodFromHz(t *testing.T) {
	if got := PeriodFromHz(1000); got != 1_000_000 {
		t.Fatal(got)
	}
	if got := PeriodFromHz(0); got != 1_000_000_000 {
		t.Fatal(got)
	}
}

func TestFramePeriod(t *testing.T) {
	// 1080p60: 148.5 MHz, 2200x1125 total.
	got := FramePeriod(148500, 2200, 1125)
	want := time.Second / 60
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	if diff > time.Microsecond {
		t.Fatalf("period = %v", got)
	}

	if got := FramePeriod(0, 2200, 1125); got != time.Second/60 {
		t.Fatalf("degenerate period = %v", got)
	}
}
