// Package regio abstracts 32-bit register-block access so IP drivers can be
// exercised on the host and attached to real register space on target.
package regio

import "sync"

// Bus32 is a mapped 32-bit register block. Writes have no failure channel,
// matching memory-mapped I/O; transports that can fail (see I2CBridge)
// latch their error out of band.
type Bus32 interface {
	Read32(off uint32) uint32
	Write32(off uint32, v uint32)
}

// ------------------------------ host register file ---------------------------

// A WriteOp records one register write, in order.
type WriteOp struct {
	Off uint32
	Val uint32
}

// Mem is a host-side register file for tests and simulation. Offsets marked
// write-one-to-clear behave like latched interrupt status registers: writing
// a value clears the written bits instead of storing them.
type Mem struct {
	mu     sync.Mutex
	regs   map[uint32]uint32
	w1c    map[uint32]bool
	writes []WriteOp
}

func NewMem() *Mem {
	return &Mem{
		regs: map[uint32]uint32{},
		w1c:  map[uint32]bool{},
	}
}

func (m *Mem) Read32(off uint32) uint32 {
	m.mu.Lock()
	v := m.regs[off]
	m.mu.Unlock()
	return v
}

func (m *Mem) Write32(off uint32, v uint32) {
	m.mu.Lock()
	m.writes = append(m.writes, WriteOp{Off: off, Val: v})
	if m.w1c[off] {
		m.regs[off] &^= v
	} else {
		m.regs[off] = v
	}
	m.mu.Unlock()
}

// SetW1C marks an offset as write-one-to-clear.
func (m *Mem) SetW1C(off uint32) {
	m.mu.Lock()
	m.w1c[off] = true
	m.mu.Unlock()
}

// Poke sets a register from the "hardware side": no write is recorded and
// W1C handling is bypassed. Latching an interrupt status bit is
// Poke(status, old|bit).
func (m *Mem) Poke(off uint32, v uint32) {
	m.mu.Lock()
	m.regs[off] = v
	m.mu.Unlock()
}

// Latch ORs bits into a register from the hardware side.
func (m *Mem) Latch(off uint32, bits uint32) {
	m.mu.Lock()
	m.regs[off] |= bits
	m.mu.Unlock()
}

// Writes returns a snapshot of recorded writes in program order.
func (m *Mem) Writes() []WriteOp {
	m.mu.Lock()
	out := append([]WriteOp(nil), m.writes...)
	m.mu.Unlock()
	return out
}

// ResetLog clears the recorded write log, keeping register contents.
func (m *Mem) ResetLog() {
	m.mu.Lock()
	m.writes = nil
	m.mu.Unlock()
}
