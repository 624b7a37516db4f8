package vtc

import (
	"displaycode-go/errcode"
	"displaycode-go/regio"
	"displaycode-go/timing"
	"displaycode-go/types"
)

// Device is one timing controller instance over a mapped register block.
type Device struct {
	node string
	regs regio.Bus32
}

// New constructs a Device identified by its hardware node.
func New(node string, regs regio.Bus32) *Device {
	return &Device{node: node, regs: regs}
}

func (d *Device) Node() string { return d.node }

// Enable turns the timing generator on.
func (d *Device) Enable() error {
	d.regs.Write32(regCtl, ctlSwEnable|ctlGenEnable|ctlRegUpdate)
	return nil
}

// Disable stops the timing generator.
func (d *Device) Disable() {
	d.regs.Write32(regCtl, 0)
}

// SetTiming programs the generator timing from a video mode. The mode must
// describe a non-empty active region.
func (d *Device) SetTiming(vm types.Videomode) error {
	if vm.HActive == 0 || vm.VActive == 0 {
		return errcode.InvalidArgument
	}

	htotal := vm.HActive + vm.HFrontPorch + vm.HSyncLen + vm.HBackPorch
	vtotal := vm.VActive + vm.VFrontPorch + vm.VSyncLen + vm.VBackPorch
	hsyncStart := vm.HActive + vm.HFrontPorch
	vsyncStart := vm.VActive + vm.VFrontPorch

	d.regs.Write32(regGASize, vm.VActive<<16|vm.HActive)
	d.regs.Write32(regGHSize, htotal)
	d.regs.Write32(regGVSize, vtotal)
	d.regs.Write32(regGHSync, (hsyncStart+vm.HSyncLen)<<16|hsyncStart)
	d.regs.Write32(regGVSync, (vsyncStart+vm.VSyncLen)<<16|vsyncStart)

	var pol uint32
	if vm.Flags&types.ModeFlagPHSync != 0 {
		pol |= polHSyncPos
	}
	if vm.Flags&types.ModeFlagPVSync != 0 {
		pol |= polVSyncPos
	}
	d.regs.Write32(regGPol, pol)

	return nil
}

// Capability builds the registry-facing capability object for this device.
func (d *Device) Capability() *timing.Capability {
	return &timing.Capability{
		Node:      d.node,
		Enable:    d.Enable,
		Disable:   d.Disable,
		SetTiming: d.SetTiming,
	}
}

// Register advertises the device in reg and returns the registered
// capability, for later Unregister.
func (d *Device) Register(reg *timing.Registry) (*timing.Capability, error) {
	cap := d.Capability()
	if err := reg.Register(cap); err != nil {
		return nil, err
	}
	return cap, nil
}
