// machine_bus_test.go - Memory arena and I/O routing tests

package sc68

import "testing"

type recordingDevice struct {
	reads  []uint32
	writes []uint32
	cycles []uint64
	value  uint32
}

func (d *recordingDevice) busRead(sz M68KSize, addr uint32, cycle uint64) uint32 {
	d.reads = append(d.reads, addr)
	d.cycles = append(d.cycles, cycle)
	return d.value
}

func (d *recordingDevice) busWrite(sz M68KSize, addr uint32, value uint32, cycle uint64) {
	d.writes = append(d.writes, addr, value)
	d.cycles = append(d.cycles, cycle)
}

func TestMemoryArena_BigEndian(t *testing.T) {
	m := NewMemoryArena(64 * 1024)
	m.Write(M68K_SIZE_LONG, 0x100, 0x11223344)
	if got := m.Byte(0x100); got != 0x11 {
		t.Errorf("byte 0 = $%02X, want $11", got)
	}
	if got := m.Read(M68K_SIZE_WORD, 0x102); got != 0x3344 {
		t.Errorf("low word = $%04X, want $3344", got)
	}
	m.Write(M68K_SIZE_BYTE, 0x101, 0xAA1234)
	if got := m.Read(M68K_SIZE_LONG, 0x100); got != 0x11343344 {
		t.Errorf("long = $%08X after byte write", got)
	}
}

func TestMemoryArena_Wraps(t *testing.T) {
	m := NewMemoryArena(64 * 1024)
	m.Write(M68K_SIZE_LONG, 0xFFFE, 0xCAFEBABE)
	if got := m.Read(M68K_SIZE_WORD, 0); got != 0xBABE {
		t.Errorf("wrapped half = $%04X, want $BABE", got)
	}
	if got := m.Read(M68K_SIZE_LONG, 0x1FFFE); got != 0xCAFEBABE {
		t.Errorf("mirror read = $%08X", got)
	}
}

func TestMemoryArena_Load(t *testing.T) {
	m := NewMemoryArena(64 * 1024)
	if err := m.Load(0xFFF0, make([]byte, 16)); err != nil {
		t.Fatalf("load to the end: %v", err)
	}
	if err := m.Load(0xFFF0, make([]byte, 17)); err == nil {
		t.Fatal("overflowing load accepted")
	}
}

func TestMemoryArena_SizePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("non power of two size accepted")
		}
	}()
	NewMemoryArena(3000)
}

func TestMachineBus_Routing(t *testing.T) {
	mem := NewMemoryArena(64 * 1024)
	bus := NewMachineBus(mem)
	dev := &recordingDevice{value: 0x1234}
	if err := bus.MapIO(0xFF8800, 0xFF88FF, dev); err != nil {
		t.Fatalf("MapIO: %v", err)
	}

	bus.Write(M68K_SIZE_WORD, 0xFF8802, 0xABCD, 77)
	if len(dev.writes) != 2 || dev.writes[0] != 0xFF8802 || dev.writes[1] != 0xABCD || dev.cycles[0] != 77 {
		t.Fatalf("device write %v cycles %v", dev.writes, dev.cycles)
	}
	if got := bus.Read(M68K_SIZE_BYTE, 0xFF8800, 80); got != 0x34 {
		t.Errorf("byte read masked to $%02X, want $34", got)
	}

	// the top address byte is ignored
	bus.Write(M68K_SIZE_WORD, 0x01000010, 0x4E71, 0)
	if got := mem.Read(M68K_SIZE_WORD, 0x10); got != 0x4E71 {
		t.Errorf("RAM = $%04X, want $4E71", got)
	}

	// unmapped I/O reads zero and drops writes
	bus.Write(M68K_SIZE_LONG, 0xDFF0A0, 0xFFFFFFFF, 0)
	if got := bus.Read(M68K_SIZE_LONG, 0xDFF0A0, 0); got != 0 {
		t.Errorf("unmapped I/O reads $%X", got)
	}
	if got := mem.Read(M68K_SIZE_LONG, 0xDFF0A0); got != 0 {
		t.Errorf("unmapped I/O write reached RAM: $%X", got)
	}
}

func TestMachineBus_MapIOErrors(t *testing.T) {
	bus := NewMachineBus(NewMemoryArena(64 * 1024))
	dev := &recordingDevice{}
	tests := []struct {
		name       string
		start, end uint32
	}{
		{"ram", 0x1000, 0x10FF},
		{"reversed", 0xFF8900, 0xFF8800},
		{"past_top", 0xFFFF00, 0x1000000},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := bus.MapIO(tc.start, tc.end, dev); err == nil {
				t.Fatal("accepted")
			}
		})
	}
	if err := bus.MapIO(MFP_BASE, MFP_END, dev); err != nil {
		t.Fatal(err)
	}
	if err := bus.MapIO(MFP_BASE+0x80, MFP_BASE+0x8F, dev); err == nil {
		t.Fatal("overlapping page accepted")
	}
	// same page, outside the registered range
	if got := bus.Read(M68K_SIZE_BYTE, MFP_BASE+0x80, 0); got != 0 || len(dev.reads) != 0 {
		t.Fatalf("read outside range reached device: $%X", got)
	}
}

func TestByteLaneHelpers(t *testing.T) {
	regs := map[uint32]uint8{}
	writeBytes(M68K_SIZE_LONG, 0x10, 0x01020304, func(a uint32, v uint8) { regs[a] = v })
	for i, want := range []uint8{1, 2, 3, 4} {
		if regs[0x10+uint32(i)] != want {
			t.Fatalf("byte %d = %d", i, regs[0x10+uint32(i)])
		}
	}
	got := readBytes(M68K_SIZE_WORD, 0x11, func(a uint32) uint8 { return regs[a] })
	if got != 0x0203 {
		t.Fatalf("readBytes = $%04X", got)
	}
}
