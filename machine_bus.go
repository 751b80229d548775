// machine_bus.go - Memory arena and memory-mapped I/O routing for the 68000

/*
machine_bus.go - Machine Bus

The bus owns the session's RAM and routes every CPU access either to RAM
or to a registered device. Devices claim whole 256-byte pages; a page
bitmap makes the RAM path a single lookup.

Memory Map:

    $000000-$BFFFFF  RAM, mirrored every MemorySize bytes
    $C00000-$FFFFFF  I/O space. Pages without a device read as zero and
                     ignore writes.

The 68000 is big-endian: words and longs are stored most significant byte
first. Accesses are never split across devices; a long access to a device
is handed to it whole and the device decides how to split it.
*/

package sc68

import (
	"encoding/binary"
	"fmt"
)

const (
	PAGE_SIZE  = 0x100
	PAGE_SHIFT = 8

	MACHINE_IO_START = 0xC00000
)

// busDevice is a memory-mapped device. Addresses are absolute and 24-bit;
// cycle is the CPU cycle of the access.
type busDevice interface {
	busRead(sz M68KSize, addr uint32, cycle uint64) uint32
	busWrite(sz M68KSize, addr uint32, value uint32, cycle uint64)
}

// IORegion is a device mapped over [Start, End].
type IORegion struct {
	Start, End uint32
	dev        busDevice
}

// ------------------------------------------------------------------------------
// Memory Arena
// ------------------------------------------------------------------------------

// MemoryArena is the emulated RAM. Its size is a power of two and addresses
// wrap at the size.
type MemoryArena struct {
	data []byte
	mask uint32
}

func NewMemoryArena(size int) *MemoryArena {
	if size <= 0 || size&(size-1) != 0 {
		panic(fmt.Sprintf("memory arena size %d is not a power of two", size))
	}
	return &MemoryArena{data: make([]byte, size), mask: uint32(size - 1)}
}

func (m *MemoryArena) Size() uint32 { return uint32(len(m.data)) }

// Read returns a big-endian value. Multi-byte accesses that cross the end
// of the arena wrap to the start.
func (m *MemoryArena) Read(sz M68KSize, addr uint32) uint32 {
	a := addr & m.mask
	switch sz {
	case M68K_SIZE_BYTE:
		return uint32(m.data[a])
	case M68K_SIZE_WORD:
		if a+1 < uint32(len(m.data)) {
			return uint32(binary.BigEndian.Uint16(m.data[a:]))
		}
		return uint32(m.data[a])<<8 | uint32(m.data[(a+1)&m.mask])
	}
	if a+3 < uint32(len(m.data)) {
		return binary.BigEndian.Uint32(m.data[a:])
	}
	return m.Read(M68K_SIZE_WORD, addr)<<16 | m.Read(M68K_SIZE_WORD, addr+2)
}

func (m *MemoryArena) Write(sz M68KSize, addr uint32, value uint32) {
	a := addr & m.mask
	switch sz {
	case M68K_SIZE_BYTE:
		m.data[a] = uint8(value)
	case M68K_SIZE_WORD:
		if a+1 < uint32(len(m.data)) {
			binary.BigEndian.PutUint16(m.data[a:], uint16(value))
			return
		}
		m.data[a] = uint8(value >> 8)
		m.data[(a+1)&m.mask] = uint8(value)
	default:
		if a+3 < uint32(len(m.data)) {
			binary.BigEndian.PutUint32(m.data[a:], value)
			return
		}
		m.Write(M68K_SIZE_WORD, addr, value>>16)
		m.Write(M68K_SIZE_WORD, addr+2, value)
	}
}

// Byte is the DMA view used by the sound engines.
func (m *MemoryArena) Byte(addr uint32) uint8 {
	return m.data[addr&m.mask]
}

// Load copies data to addr. It does not wrap.
func (m *MemoryArena) Load(addr uint32, data []byte) error {
	if uint64(addr)+uint64(len(data)) > uint64(len(m.data)) {
		return fmt.Errorf("load of %d bytes at $%06X exceeds %d bytes of memory", len(data), addr, len(m.data))
	}
	copy(m.data[addr:], data)
	return nil
}

func (m *MemoryArena) Clear() {
	clear(m.data)
}

// ------------------------------------------------------------------------------
// Machine Bus
// ------------------------------------------------------------------------------

// MachineBus implements M68KBus over a MemoryArena and the mapped devices.
type MachineBus struct {
	mem     *MemoryArena
	regions []IORegion
	ioPages []int16 // index into regions + 1 per I/O page, 0 when unmapped
}

func NewMachineBus(mem *MemoryArena) *MachineBus {
	return &MachineBus{
		mem:     mem,
		ioPages: make([]int16, (M68K_ADDRESS_MASK+1-MACHINE_IO_START)/PAGE_SIZE),
	}
}

// MapIO registers dev over [start, end]. Both ends are rounded out to
// whole pages, which must lie in I/O space and not already be mapped.
func (bus *MachineBus) MapIO(start, end uint32, dev busDevice) error {
	if start < MACHINE_IO_START || end > M68K_ADDRESS_MASK || end < start {
		return fmt.Errorf("io region $%06X-$%06X outside io space", start, end)
	}
	first := (start - MACHINE_IO_START) >> PAGE_SHIFT
	last := (end - MACHINE_IO_START) >> PAGE_SHIFT
	for p := first; p <= last; p++ {
		if bus.ioPages[p] != 0 {
			return fmt.Errorf("io region $%06X-$%06X overlaps an existing mapping", start, end)
		}
	}
	bus.regions = append(bus.regions, IORegion{Start: start, End: end, dev: dev})
	idx := int16(len(bus.regions))
	for p := first; p <= last; p++ {
		bus.ioPages[p] = idx
	}
	return nil
}

func (bus *MachineBus) device(addr uint32) (busDevice, bool) {
	if addr < MACHINE_IO_START {
		return nil, false
	}
	idx := bus.ioPages[(addr-MACHINE_IO_START)>>PAGE_SHIFT]
	if idx == 0 {
		return nil, true
	}
	r := &bus.regions[idx-1]
	if addr < r.Start || addr > r.End {
		return nil, true
	}
	return r.dev, true
}

func (bus *MachineBus) Read(sz M68KSize, addr uint32, cycle uint64) uint32 {
	addr &= M68K_ADDRESS_MASK
	if dev, io := bus.device(addr); io {
		if dev == nil {
			return 0
		}
		return dev.busRead(sz, addr, cycle) & sz.mask()
	}
	return bus.mem.Read(sz, addr)
}

func (bus *MachineBus) Write(sz M68KSize, addr uint32, value uint32, cycle uint64) {
	addr &= M68K_ADDRESS_MASK
	if dev, io := bus.device(addr); io {
		if dev != nil {
			dev.busWrite(sz, addr, value&sz.mask(), cycle)
		}
		return
	}
	bus.mem.Write(sz, addr, value)
}

// ------------------------------------------------------------------------------
// Byte-wide devices
// ------------------------------------------------------------------------------

// readBytes assembles a sized big-endian read from byte reads, for devices
// wired to one half of the data bus.
func readBytes(sz M68KSize, addr uint32, read func(addr uint32) uint8) uint32 {
	var v uint32
	for i := range sz.bytes() {
		v = v<<8 | uint32(read(addr+i))
	}
	return v
}

// writeBytes splits a sized write into byte writes, most significant first.
func writeBytes(sz M68KSize, addr, value uint32, write func(addr uint32, v uint8)) {
	n := sz.bytes()
	for i := range n {
		write(addr+i, uint8(value>>(8*(n-1-i))))
	}
}
