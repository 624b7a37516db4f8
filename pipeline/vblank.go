package pipeline

import (
	"displaycode-go/drivers/tpg"
	"displaycode-go/errcode"
)

// Completion is a one-shot frame-boundary notification token. Done is
// closed exactly once: either by the interrupt path on the next frame-done,
// or synchronously by Disable.
type Completion struct {
	done chan struct{}
}

func newCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Done is closed when the completion has been delivered.
func (c *Completion) Done() <-chan struct{} { return c.done }

// ArmCompletion registers a request to be notified at the next frame
// boundary. At most one completion can be outstanding; arming while one is
// pending is Busy.
func (p *Pipeline) ArmCompletion() (*Completion, error) {
	p.evMu.Lock()
	defer p.evMu.Unlock()
	if p.pending != nil {
		return nil, errcode.Busy
	}
	c := newCompletion()
	p.pending = c
	return c, nil
}

// retirePending takes ownership of the pending slot and delivers the token,
// if any. The read-clear-dispatch is one atomic sequence under evMu, which
// is what makes delivery exactly-once against a racing interrupt or
// Disable. Closing a channel cannot block, so holding the lock across the
// close keeps the critical section bounded.
func (p *Pipeline) retirePending() {
	p.evMu.Lock()
	c := p.pending
	p.pending = nil
	if c != nil {
		close(c.done)
	}
	p.evMu.Unlock()
}

// HandleIRQ is the top-half interrupt handler. It is invoked on every
// device interrupt on the shared line and must not block.
//
// It read-clears the latched status, and reports false ("not ours") when
// no frame-done bit is set so other sources on the line get their turn.
// Otherwise it counts the frame, signals the frame boundary, and retires
// any pending completion. A missed or spurious interrupt needs no
// recovery: the generator free-runs and raises the next frame-done
// regardless.
func (p *Pipeline) HandleIRQ() bool {
	status := p.gen.ReadClearStatus()

	if status&tpg.IRQFrameDone == 0 {
		return false
	}

	seq := p.frames.Add(1)
	if p.onFrame != nil {
		p.onFrame(seq)
	}

	p.retirePending()
	return true
}
