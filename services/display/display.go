// Package display runs the video output service: it owns the pattern
// generator pipeline, applies bus-delivered configuration, and exposes
// control verbs and frame events over the message bus.
package display

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"displaycode-go/bus"
	"displaycode-go/drivers/tpg"
	"displaycode-go/errcode"
	"displaycode-go/pipeline"
	"displaycode-go/timing"
	"displaycode-go/types"
	"displaycode-go/x/mathx"
	"displaycode-go/x/timex"
)

// Hardware is the platform-injected device set. Attach, when set, is
// called once the pipeline has probed so the platform can wire the
// device's interrupt line to the pipeline's handler.
type Hardware struct {
	Gen      *tpg.Device
	Registry *timing.Registry // nil = timing.Default()
	Attach   func(*pipeline.Pipeline)
}

// retryPeriod is how long to wait before re-probing after a deferred probe.
const retryPeriod = 200 * time.Millisecond

// maxDim bounds programmable frame dimensions.
const maxDim = 4096

// -----------------------------------------------------------------------------
// Entry point
// -----------------------------------------------------------------------------

func Run(ctx context.Context, conn *bus.Connection, hw Hardware) {
	reg := hw.Registry
	if reg == nil {
		reg = timing.Default()
	}
	s := &service{
		conn:   conn,
		gen:    hw.Gen,
		reg:    reg,
		attach: hw.Attach,
		frames: make(chan uint64, 32),
	}
	s.loop(ctx)
}

type service struct {
	conn   *bus.Connection
	gen    *tpg.Device
	reg    *timing.Registry
	attach func(*pipeline.Pipeline)

	pipe    *pipeline.Pipeline
	cfg     types.DisplayConfig
	haveCfg bool

	// Frame-done fan-in from the interrupt path. The callback must not
	// block, so overflow increments dropped instead of stalling delivery.
	frames  chan uint64
	dropped atomic.Uint32

	timer   *time.Timer
	retryAt time.Time
}

// -----------------------------------------------------------------------------
// Main loop
// -----------------------------------------------------------------------------

func (s *service) loop(ctx context.Context) {
	cfgSub := s.conn.Subscribe(bus.Topic{"config", "display"})
	ctrlSub := s.conn.Subscribe(bus.Topic{"display", "control", "+"})
	defer s.conn.Unsubscribe(cfgSub)
	defer s.conn.Unsubscribe(ctrlSub)

	s.publishState("idle", "awaiting_config", nil)

	s.timer = time.NewTimer(time.Hour)
	if !s.timer.Stop() {
		drainTimer(s.timer)
	}

	for {
		if s.retryAt.IsZero() {
			resetTimer(s.timer, time.Hour)
		} else {
			resetTimer(s.timer, time.Until(s.retryAt))
		}

		select {
		case <-ctx.Done():
			if s.pipe != nil {
				s.pipe.Disable()
			}
			s.publishState("stopped", "context_cancelled", nil)
			return

		case msg := <-cfgSub.Channel():
			var cfg types.DisplayConfig
			if err := decodeJSON(msg.Payload, &cfg); err != nil {
				s.publishState("error", "config_decode_failed", err)
				continue
			}
			// Tear the old pipeline down before replacing it: Disable
			// resolves any armed completion, so a waiting flip requester
			// is answered instead of leaked.
			if s.pipe != nil {
				s.pipe.Disable()
				s.pipe = nil
			}
			s.cfg = cfg
			s.haveCfg = true
			s.retryAt = time.Time{}
			s.probe()

		case msg := <-ctrlSub.Channel():
			// display/control/<verb>
			if len(msg.Topic) < 3 {
				continue
			}
			verb, _ := msg.Topic[2].(string)
			s.control(verb, msg)

		case <-s.timer.C:
			if !s.retryAt.IsZero() && !time.Now().Before(s.retryAt) {
				s.retryAt = time.Time{}
				s.probe()
			}

		case seq := <-s.frames:
			s.conn.Publish(s.conn.NewMessage(
				bus.Topic{"display", "frame"},
				types.FrameEvent{Seq: seq, TS: timex.NowMs()},
				false,
			))
		}
	}
}

// -----------------------------------------------------------------------------
// Probe
// -----------------------------------------------------------------------------

func (s *service) probe() {
	if !s.haveCfg {
		return
	}

	p, err := pipeline.Probe(pipeline.Config{
		Gen:             s.gen,
		OutputBusFormat: s.cfg.BusFormat,
		TimingNode:      s.cfg.TimingNode,
		Registry:        s.reg,
		OnFrame:         s.onFrame,
	})
	switch {
	case err == nil:
	case errcode.Is(err, errcode.DeferProbe):
		// Timing node not registered yet; try again shortly.
		s.retryAt = time.Now().Add(retryPeriod)
		s.publishState("probing", "awaiting_timing_node", nil)
		return
	default:
		s.publishState("error", "probe_failed", err)
		return
	}

	s.pipe = p
	if s.attach != nil {
		s.attach(p)
	}
	if s.cfg.Pattern != "" {
		if id, ok := tpg.PatternByName(s.cfg.Pattern); ok {
			s.gen.SetPattern(id)
		}
	}
	s.publishPattern()
	s.publishState("ready", "configured", nil)
}

// onFrame runs on the interrupt path.
func (s *service) onFrame(seq uint64) {
	select {
	case s.frames <- seq:
	default:
		s.dropped.Add(1)
	}
}

// -----------------------------------------------------------------------------
// Control verbs
// -----------------------------------------------------------------------------

func (s *service) control(verb string, msg *bus.Message) {
	if s.pipe == nil && verb != "status" {
		s.replyErr(msg, "not_ready")
		return
	}

	switch verb {
	case "enable":
		var req types.EnableReq
		if err := decodeJSON(msg.Payload, &req); err != nil {
			s.replyErr(msg, "bad_request")
			return
		}
		mode, ok := sanitizeMode(req.Mode)
		if !ok {
			s.replyErr(msg, "invalid_mode")
			return
		}
		if err := s.pipe.Check(pipeline.Proposal{Enable: true, OutputBusFormat: s.cfg.BusFormat}); err != nil {
			s.replyErr(msg, errcode.Of(err).Error())
			return
		}
		if err := s.pipe.Enable(mode); err != nil {
			s.publishState("error", "enable_failed", err)
			s.replyErr(msg, errcode.Of(err).Error())
			return
		}
		s.pipe.EnableVblank()
		s.publishState("ready", "enabled", nil)
		s.replyOK(msg, map[string]any{"state": s.pipe.State().String()})

	case "disable":
		s.pipe.Disable()
		s.publishState("ready", "disabled", nil)
		s.replyOK(msg, map[string]any{"state": s.pipe.State().String()})

	case "pattern_set":
		var req types.PatternSet
		if err := decodeJSON(msg.Payload, &req); err != nil {
			s.replyErr(msg, "bad_request")
			return
		}
		id, ok := tpg.PatternByName(req.Name)
		if !ok {
			s.replyErr(msg, "unknown_pattern")
			return
		}
		s.gen.SetPattern(id)
		s.publishPattern()
		s.replyOK(msg, map[string]any{"pattern": req.Name})

	case "pattern_get":
		p := s.gen.Pattern()
		s.conn.Reply(msg, types.PatternReply{ID: uint32(p), Name: p.String()}, false)

	case "flip":
		p := s.pipe
		if p.State() != pipeline.Enabled {
			s.replyErr(msg, "not_enabled")
			return
		}
		c, err := p.ArmCompletion()
		if err != nil {
			s.replyErr(msg, errcode.Of(err).Error())
			return
		}
		// Reply from a helper goroutine once the frame boundary lands, so
		// the service loop keeps consuming events meanwhile. The goroutine
		// holds its own pipeline reference; s.pipe may be replaced by a
		// reconfigure before the completion resolves.
		go func() {
			<-c.Done()
			s.replyOK(msg, map[string]any{"frames": p.FrameCount()})
		}()

	case "status":
		s.conn.Reply(msg, s.status(), false)

	default:
		s.replyErr(msg, "unknown_verb")
	}
}

// sanitizeMode validates sync ordering and bounds the active region.
func sanitizeMode(m types.DisplayMode) (types.DisplayMode, bool) {
	hOK := m.HDisplay > 0 &&
		m.HDisplay <= m.HSyncStart && m.HSyncStart <= m.HSyncEnd && m.HSyncEnd <= m.HTotal
	vOK := m.VDisplay > 0 &&
		m.VDisplay <= m.VSyncStart && m.VSyncStart <= m.VSyncEnd && m.VSyncEnd <= m.VTotal
	if !hOK || !vOK {
		return m, false
	}
	m.HDisplay = mathx.Clamp(m.HDisplay, 1, maxDim)
	m.VDisplay = mathx.Clamp(m.VDisplay, 1, maxDim)
	return m, true
}

// -----------------------------------------------------------------------------
// Publications and replies
// -----------------------------------------------------------------------------

func (s *service) status() types.PipelineStatus {
	st := types.PipelineStatus{
		Level:  "idle",
		Status: "awaiting_config",
		TS:     timex.NowMs(),
	}
	if s.pipe != nil {
		st.Level = "ready"
		st.Status = "configured"
		st.State = s.pipe.State().String()
		st.Frames = s.pipe.FrameCount()
		st.Dropped = s.dropped.Load()
		st.Pattern = s.gen.Pattern().String()
	} else if s.haveCfg {
		st.Level = "probing"
		st.Status = "awaiting_timing_node"
	}
	return st
}

func (s *service) publishState(level, status string, err error) {
	st := types.PipelineStatus{Level: level, Status: status, TS: timex.NowMs()}
	if s.pipe != nil {
		st.State = s.pipe.State().String()
		st.Frames = s.pipe.FrameCount()
	}
	if err != nil {
		st.Error = err.Error()
	}
	s.conn.Publish(s.conn.NewMessage(bus.Topic{"display", "state"}, st, true))
}

func (s *service) publishPattern() {
	p := s.gen.Pattern()
	s.conn.Publish(s.conn.NewMessage(
		bus.Topic{"display", "pattern"},
		types.PatternReply{ID: uint32(p), Name: p.String()},
		true,
	))
}

func (s *service) replyOK(req *bus.Message, extra map[string]any) {
	if len(req.ReplyTo) == 0 {
		return
	}
	m := map[string]any{"ok": true}
	for k, v := range extra {
		m[k] = v
	}
	s.conn.Reply(req, m, false)
}

func (s *service) replyErr(req *bus.Message, e string) {
	if len(req.ReplyTo) == 0 {
		return
	}
	s.conn.Reply(req, map[string]any{"ok": false, "error": e}, false)
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func decodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	if !t.Stop() {
		drainTimer(t)
	}
	if d < 0 {
		d = 0
	}
	t.Reset(d)
}

func drainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
