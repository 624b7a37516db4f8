package regio

import (
	"sync"

	"tinygo.org/x/drivers"
)

// I2CBridge tunnels register access through an I²C-to-register bridge
// device: a 4-byte little-endian offset followed, for writes, by a 4-byte
// little-endian value. Useful for boards that expose an IP core's register
// space on a management bus instead of mapping it.
//
// Bus32 has no error channel; transfer failures are latched and readable
// via Err. Reads after a failure return zero.
type I2CBridge struct {
	mu   sync.Mutex
	i2c  drivers.I2C
	addr uint16
	err  error

	// Fixed buffers to avoid per-call heap allocations.
	w [8]byte
	r [4]byte
}

func NewI2CBridge(i2c drivers.I2C, addr uint16) *I2CBridge {
	return &I2CBridge{i2c: i2c, addr: addr}
}

func (b *I2CBridge) Read32(off uint32) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	putLE32(b.w[:4], off)
	if err := b.i2c.Tx(b.addr, b.w[:4], b.r[:4]); err != nil {
		if b.err == nil {
			b.err = err
		}
		return 0
	}
	return getLE32(b.r[:4])
}

func (b *I2CBridge) Write32(off uint32, v uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	putLE32(b.w[:4], off)
	putLE32(b.w[4:], v)
	if err := b.i2c.Tx(b.addr, b.w[:8], nil); err != nil {
		if b.err == nil {
			b.err = err
		}
	}
}

// Err returns the first transfer error since the last ClearErr, if any.
func (b *I2CBridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *I2CBridge) ClearErr() {
	b.mu.Lock()
	b.err = nil
	b.mu.Unlock()
}

func putLE32(p []byte, v uint32) {
	p[0] = byte(v)
	p[1] = byte(v >> 8)
	p[2] = byte(v >> 16)
	p[3] = byte(v >> 24)
}

func getLE32(p []byte) uint32 {
	return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16 | uint32(p[3])<<24
}
