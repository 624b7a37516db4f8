//go:build tinygo

package regio

import (
	"runtime/volatile"
	"unsafe"
)

// MMIO is a directly mapped register block for tinygo targets.
type MMIO struct {
	base uintptr
}

func NewMMIO(base uintptr) *MMIO { return &MMIO{base: base} }

func (m *MMIO) Read32(off uint32) uint32 {
	return volatile.LoadUint32((*uint32)(unsafe.Pointer(m.base + uintptr(off))))
}

func (m *MMIO) Write32(off uint32, v uint32) {
	volatile.StoreUint32((*uint32)(unsafe.Pointer(m.base+uintptr(off))), v)
}
