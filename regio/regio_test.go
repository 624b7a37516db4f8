package regio

import "testing"

func TestMemStoresWrites(t *testing.T) {
	m := NewMem()
	if m.Read32(0x10) != 0 {
		t.Fatal("registers not zero at reset")
	}
	m.Write32(0x10, 0xdead)
	if m.Read32(0x10) != 0xdead {
		t.Fatal("write lost")
	}
}

func TestMemW1C(t *testing.T) {
	m := NewMem()
	m.SetW1C(0x0c)

	m.Latch(0x0c, 0x5)
	if m.Read32(0x0c) != 0x5 {
		t.Fatal("latch lost")
	}

	// Writing clears only the written bits.
	m.Write32(0x0c, 0x1)
	if m.Read32(0x0c) != 0x4 {
		t.Fatalf("reg = %#x after partial clear", m.Read32(0x0c))
	}
	m.Write32(0x0c, 0x4)
	if m.Read32(0x0c) != 0 {
		t.Fatal("reg not clear")
	}
}

func TestMemWriteLog(t *testing.T) {
	m := NewMem()
	m.Write32(0x0, 1)
	m.Write32(0x4, 2)
	m.Poke(0x8, 3) // hardware side, not logged

	w := m.Writes()
	if len(w) != 2 || w[0] != (WriteOp{Off: 0x0, Val: 1}) || w[1] != (WriteOp{Off: 0x4, Val: 2}) {
		t.Fatalf("writes = %v", w)
	}

	m.ResetLog()
	if len(m.Writes()) != 0 {
		t.Fatal("log survived reset")
	}
	if m.Read32(0x0) != 1 {
		t.Fatal("reset log cleared register contents")
	}
}
