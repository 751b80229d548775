// cpu_m68k_exception.go - Exception dispatch and the vector table.

package sc68

import "fmt"

type frameFormat uint8

const (
	frameShort  frameFormat = iota // SR + PC
	frameGroup0                    // access info, fault address, IR, SR + PC
)

// exceptionEvent is created by an instruction handler or an interrupt and
// consumed by raise. There is never more than one in flight.
type exceptionEvent struct {
	vector uint8
	data   uint32 // trap number, interrupt level or fault address
	format frameFormat
	pc     uint32 // PC pushed in the frame
	level  uint8  // interrupt level, 0 for synchronous exceptions

	write bool // group 0 only
	fetch bool
}

type exceptionResult uint8

const (
	exceptionDispatched exceptionResult = iota
	exceptionHalted
)

// exception queues a trap-class exception; the frame holds the address of
// the next instruction.
func (cpu *M68KCPU) exception(vector uint8, data uint32) {
	if cpu.hasPending {
		return
	}
	cpu.pending = exceptionEvent{vector: vector, data: data, pc: cpu.PC}
	cpu.hasPending = true
}

// fault queues a fault-class exception; the frame holds the address of the
// faulting instruction so the handler may retry or skip it.
func (cpu *M68KCPU) fault(vector uint8) {
	if cpu.hasPending {
		return
	}
	cpu.pending = exceptionEvent{vector: vector, pc: cpu.opPC}
	cpu.hasPending = true
}

// isFault reports whether ev aborted its instruction rather than ending it.
func (ev exceptionEvent) isFault() bool {
	switch ev.vector {
	case M68K_VEC_ILLEGAL, M68K_VEC_PRIVILEGE, M68K_VEC_LINE_A, M68K_VEC_LINE_F:
		return true
	}
	return false
}

func (cpu *M68KCPU) illegal() {
	cpu.fault(M68K_VEC_ILLEGAL)
}

// privileged reports whether the CPU is in supervisor mode and queues a
// privilege violation when it is not.
func (cpu *M68KCPU) privileged() bool {
	if cpu.SR.S {
		return true
	}
	cpu.fault(M68K_VEC_PRIVILEGE)
	return false
}

func (cpu *M68KCPU) addressErrorEvent() exceptionEvent {
	return exceptionEvent{
		vector: M68K_VEC_ADDRESS_ERROR,
		data:   cpu.faultAddr,
		format: frameGroup0,
		pc:     cpu.opPC + 2,
		write:  cpu.faultWrite,
		fetch:  cpu.faultFetch,
	}
}

// raise processes one exception: pseudo vectors only notify, everything
// else pushes a frame, enters supervisor mode with tracing off and jumps
// to the handler.
func (cpu *M68KCPU) raise(ev exceptionEvent) exceptionResult {
	if cpu.hook != nil {
		cpu.hook(ev.vector, ev.pc)
	}

	switch ev.vector {
	case M68K_VEC_HW_STOP:
		return exceptionDispatched
	case M68K_VEC_HW_RESET:
		cpu.halt(fmt.Errorf("%w: reset instruction at $%06X", ErrHalted, ev.pc&M68K_ADDRESS_MASK))
		return exceptionHalted
	}

	saved := cpu.SR.Pack()
	wasSupervisor := cpu.SR.S
	cpu.setSupervisor(true)
	cpu.SR.T0 = false
	cpu.SR.T1 = false
	if ev.level > 0 {
		cpu.SR.IPL = ev.level
	}

	cpu.faulted = false
	cpu.push32(ev.pc)
	cpu.push16(saved)
	if ev.format == frameGroup0 {
		cpu.push16(cpu.opcode)
		cpu.push32(ev.data)
		cpu.push16(group0AccessWord(ev, wasSupervisor))
	}
	handler := cpu.read(M68K_SIZE_LONG, uint32(ev.vector)*4)

	if cpu.faulted {
		cpu.halt(fmt.Errorf("%w: stack fault at $%06X building frame for vector %d", ErrDoubleFault, cpu.faultAddr, ev.vector))
		return exceptionHalted
	}
	if handler == 0 {
		cpu.halt(fmt.Errorf("%w: vector %d", ErrUnmappedVector, ev.vector))
		return exceptionHalted
	}

	cpu.PC = handler & M68K_ADDRESS_MASK
	if ev.format == frameGroup0 {
		cpu.group0 = true
		cpu.cycles += M68K_CYCLE_GROUP0
	} else {
		cpu.cycles += M68K_CYCLE_EXCEPTION
	}
	return exceptionDispatched
}

// group0AccessWord is the first word of a bus/address error frame:
// R/W in bit 4, I/N in bit 3, function code in bits 0-2.
func group0AccessWord(ev exceptionEvent, supervisor bool) uint16 {
	var w uint16
	if !ev.write {
		w |= 0x10
	}
	if !ev.fetch {
		w |= 0x08
	}
	fc := uint16(1) // user data
	if ev.fetch {
		fc = 2
	}
	if supervisor {
		fc += 4
	}
	return w | fc
}

// ------------------------------------------------------------------------------
// Vector Table
// ------------------------------------------------------------------------------

// VectorTable reads and writes exception handler addresses held in the
// first 1KB of memory.
type VectorTable struct {
	mem *MemoryArena
}

func NewVectorTable(mem *MemoryArena) VectorTable {
	return VectorTable{mem: mem}
}

// Handler returns the handler address for vector.
func (vt VectorTable) Handler(vector uint8) uint32 {
	return vt.mem.Read(M68K_SIZE_LONG, uint32(vector)*4)
}

// Set installs a handler address.
func (vt VectorTable) Set(vector uint8, handler uint32) {
	vt.mem.Write(M68K_SIZE_LONG, uint32(vector)*4, handler&M68K_ADDRESS_MASK)
}

// Validate rejects a table in which a vector the CPU can raise by itself
// has no handler. Pseudo vectors are never dispatched and are skipped.
func (vt VectorTable) Validate() error {
	for v := M68K_VEC_BUS_ERROR; v < M68K_VEC_USER; v++ {
		switch v {
		case M68K_VEC_HW_STOP, M68K_VEC_HW_RESET:
			continue
		}
		h := vt.Handler(uint8(v))
		if h == 0 {
			return fmt.Errorf("%w: vector %d", ErrUnmappedVector, v)
		}
		if h&1 != 0 {
			return fmt.Errorf("%w: vector %d handler $%06X is odd", ErrUnmappedVector, v, h)
		}
	}
	return nil
}
