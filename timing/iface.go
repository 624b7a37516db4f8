// Package timing defines the pluggable video timing controller contract:
// a capability object peripheral drivers expose, and the process-wide
// registry pipelines resolve it from.
package timing

import (
	"displaycode-go/errcode"
	"displaycode-go/types"
)

// Capability is a registered timing controller. The registry holds only a
// non-owning link to it; the peripheral driver that registered it owns its
// lifetime. Each operation is independently optional: a nil field means the
// peripheral does not support that operation.
type Capability struct {
	// Node is the stable hardware identifier used for lookup.
	Node string

	Enable    func() error
	Disable   func()
	SetTiming func(types.Videomode) error
}

// Enable forwards to the capability's enable operation.
func Enable(c *Capability) error {
	if c == nil || c.Enable == nil {
		return errcode.InvalidArgument
	}
	return c.Enable()
}

// Disable forwards to the capability's disable operation. Best-effort:
// there is no failure channel, and a missing operation is a no-op.
func Disable(c *Capability) {
	if c == nil || c.Disable == nil {
		return
	}
	c.Disable()
}

// SetTiming forwards a video mode to the capability's timing programming
// operation.
func SetTiming(c *Capability, vm types.Videomode) error {
	if c == nil || c.SetTiming == nil {
		return errcode.InvalidArgument
	}
	return c.SetTiming(vm)
}
