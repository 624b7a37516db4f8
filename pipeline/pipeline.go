// Package pipeline sequences the pattern generator and an optional timing
// controller through enable/disable/commit, and hands frame-done
// interrupts off to whoever is waiting on the single pending completion.
package pipeline

import (
	"sync"
	"sync/atomic"

	"displaycode-go/drivers/tpg"
	"displaycode-go/errcode"
	"displaycode-go/timing"
	"displaycode-go/types"
)

// State of the pipeline.
type State uint8

const (
	Disabled State = iota
	Enabled
)

func (s State) String() string {
	if s == Enabled {
		return "enabled"
	}
	return "disabled"
}

// Config is the probe-time configuration. OutputBusFormat is required and
// fixed for the life of the pipeline; TimingNode is optional ("" runs
// self-timed). OnFrame, when set, is called from the interrupt path once
// per frame-done and must not block.
type Config struct {
	Gen             *tpg.Device
	OutputBusFormat types.BusFormat
	TimingNode      string
	Registry        *timing.Registry // nil = timing.Default()
	OnFrame         func(seq uint64)
}

// Proposal is a configuration to validate before commit.
type Proposal struct {
	Enable          bool
	OutputBusFormat types.BusFormat
}

// Pipeline owns one generator plus, optionally, one resolved timing
// controller capability.
type Pipeline struct {
	gen       *tpg.Device
	cap       *timing.Capability
	busFormat types.BusFormat
	color     tpg.ColorFormat
	onFrame   func(uint64)

	mu    sync.Mutex // state transitions; ordinary call paths only
	state State

	// Completion lock: shared between the interrupt path and
	// enable/disable. Held only for the read-clear-dispatch of one token.
	evMu    sync.Mutex
	pending *Completion

	frames atomic.Uint64
}

// Probe resolves the configuration into a disabled pipeline.
//
// The output bus format is mapped to the generator color format once, here;
// an unmapped format is Unsupported and the pipeline is never created. A
// configured timing node that is not registered yet propagates DeferProbe
// so the caller's probe machinery can retry after the peripheral appears.
func Probe(cfg Config) (*Pipeline, error) {
	if cfg.Gen == nil {
		return nil, errcode.InvalidArgument
	}

	color := tpg.BusToColorFormat(cfg.OutputBusFormat)
	if color == tpg.FormatInvalid {
		return nil, &errcode.E{
			C:   errcode.Unsupported,
			Op:  "pipeline.probe",
			Msg: "no color format for bus format " + cfg.OutputBusFormat.String(),
		}
	}

	var cap *timing.Capability
	if cfg.TimingNode != "" {
		reg := cfg.Registry
		if reg == nil {
			reg = timing.Default()
		}
		var err error
		cap, err = reg.Find(cfg.TimingNode)
		if err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		gen:       cfg.Gen,
		cap:       cap,
		busFormat: cfg.OutputBusFormat,
		color:     color,
		onFrame:   cfg.OnFrame,
	}, nil
}

// State reports the current pipeline state.
func (p *Pipeline) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// OutputBusFormat returns the fixed output format chosen at probe time.
func (p *Pipeline) OutputBusFormat() types.BusFormat { return p.busFormat }

// ColorFormat returns the generator color format derived at probe time.
func (p *Pipeline) ColorFormat() tpg.ColorFormat { return p.color }

// HasTimingController reports whether a timing controller was resolved.
func (p *Pipeline) HasTimingController() bool { return p.cap != nil }

// FrameCount returns the number of frame-done interrupts handled.
func (p *Pipeline) FrameCount() uint64 { return p.frames.Load() }

// Check validates a proposal without touching hardware or state. A
// proposal that would enable the pipeline with an output bus format other
// than the fixed one is Unsupported. On success the caller must treat all
// of this pipeline's planes as affected and re-evaluate them.
func (p *Pipeline) Check(prop Proposal) error {
	if !prop.Enable {
		return nil
	}
	if prop.OutputBusFormat != p.busFormat {
		return errcode.Unsupported
	}
	return nil
}

// SelectOutputFormat picks the fixed output format out of the candidate
// set offered by downstream consumers. ok is false when none matches.
func (p *Pipeline) SelectOutputFormat(candidates []types.BusFormat) (f types.BusFormat, ok bool) {
	for _, c := range candidates {
		if c == p.busFormat {
			return p.busFormat, true
		}
	}
	return 0, false
}

// Enable brings the pipeline up for the given mode. The timing controller,
// when present, is programmed and enabled before the generator starts so
// downstream sync is established before pixel generation begins.
func (p *Pipeline) Enable(mode types.DisplayMode) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Enabled {
		return nil
	}

	if p.cap != nil {
		if err := timing.SetTiming(p.cap, mode.Videomode()); err != nil {
			return err
		}
		if err := timing.Enable(p.cap); err != nil {
			return err
		}
	}

	p.gen.SetDimensions(mode.HDisplay, mode.VDisplay)
	p.gen.SetFormat(p.color)
	p.gen.Start()

	p.state = Enabled
	return nil
}

// Disable takes the pipeline down: timing controller first, then any
// pending completion is resolved synchronously so no waiter is left
// blocked, and only then is interrupt delivery torn down.
func (p *Pipeline) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == Disabled {
		return
	}

	timing.Disable(p.cap)
	p.retirePending()
	p.gen.DisableIRQ()

	p.state = Disabled
}

// EnableVblank arms frame-done interrupt generation. State is unchanged.
func (p *Pipeline) EnableVblank() { p.gen.EnableIRQ() }

// DisableVblank masks frame-done interrupt generation. State is unchanged.
func (p *Pipeline) DisableVblank() { p.gen.DisableIRQ() }
