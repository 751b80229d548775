// cpu_m68k.go - Motorola 68000 CPU core for sound-driver playback

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/
/*
cpu_m68k.go - Motorola 68000 core for sound-driver playback

The core runs the replay code of Atari ST and Amiga music programs. It is a
single-issue interpreter: one Step executes one instruction, or idles when
the CPU is stopped, and returns the cycles it consumed so the scheduler can
keep the sound chips in step with the program.

Run states:
- Normal:  fetch, decode and execute one instruction per Step
- Stopped: after STOP; cycles still elapse, an unmasked interrupt resumes
- Halted:  after a double fault, a RESET or an unmapped vector; terminal
           until Reset

Exceptions are never taken from inside an instruction. A handler records
at most one pending exceptionEvent (or a bus fault) and Step hands it to
raise once the handler has returned.

Memory is reached through M68KBus with a 24-bit address. Word and long
accesses at odd addresses raise an address error instead of touching the
bus.
*/

package sc68

import "fmt"

// ------------------------------------------------------------------------------
// Status Register Bits
// ------------------------------------------------------------------------------
const (
	M68K_SR_C     = 0x0001
	M68K_SR_V     = 0x0002
	M68K_SR_Z     = 0x0004
	M68K_SR_N     = 0x0008
	M68K_SR_X     = 0x0010
	M68K_SR_CCR   = 0x001F
	M68K_SR_IPL   = 0x0700
	M68K_SR_S     = 0x2000
	M68K_SR_T0    = 0x4000
	M68K_SR_T1    = 0x8000
	M68K_SR_VALID = 0xA71F // bits implemented by the 68000
)

// ------------------------------------------------------------------------------
// Exception Vectors
// ------------------------------------------------------------------------------
const (
	M68K_VEC_RESET_SSP     = 0
	M68K_VEC_RESET_PC      = 1
	M68K_VEC_BUS_ERROR     = 2
	M68K_VEC_ADDRESS_ERROR = 3
	M68K_VEC_ILLEGAL       = 4
	M68K_VEC_ZERO_DIVIDE   = 5
	M68K_VEC_CHK           = 6
	M68K_VEC_TRAPV         = 7
	M68K_VEC_PRIVILEGE     = 8
	M68K_VEC_TRACE         = 9
	M68K_VEC_LINE_A        = 10
	M68K_VEC_LINE_F        = 11
	M68K_VEC_UNINITIALIZED = 15
	M68K_VEC_HW_STOP       = 16 // reserved on the 68000; STOP notification, no frame
	M68K_VEC_HW_RESET      = 17 // reserved on the 68000; RESET notification, no frame
	M68K_VEC_SPURIOUS      = 24
	M68K_VEC_AUTOVECTOR    = 24 // level n uses 24+n
	M68K_VEC_TRAP_BASE     = 32
	M68K_VEC_USER          = 64

	M68K_VECTOR_TABLE_SIZE = 0x400
)

// ------------------------------------------------------------------------------
// Bus and Timing
// ------------------------------------------------------------------------------
const (
	M68K_ADDRESS_MASK = 0x00FFFFFF

	M68K_CLOCK_ATARI = 8000000
	M68K_CLOCK_AMIGA = 7093789

	M68K_CYCLE_STOP_IDLE = 4
	M68K_CYCLE_EXCEPTION = 34
	M68K_CYCLE_INTERRUPT = 44
	M68K_CYCLE_GROUP0    = 50
)

// M68KSize is an operand size.
type M68KSize uint8

const (
	M68K_SIZE_BYTE M68KSize = iota
	M68K_SIZE_WORD
	M68K_SIZE_LONG
)

func (s M68KSize) mask() uint32 {
	switch s {
	case M68K_SIZE_BYTE:
		return 0xFF
	case M68K_SIZE_WORD:
		return 0xFFFF
	}
	return 0xFFFFFFFF
}

func (s M68KSize) msb() uint32 {
	switch s {
	case M68K_SIZE_BYTE:
		return 0x80
	case M68K_SIZE_WORD:
		return 0x8000
	}
	return 0x80000000
}

func (s M68KSize) bytes() uint32 {
	switch s {
	case M68K_SIZE_BYTE:
		return 1
	case M68K_SIZE_WORD:
		return 2
	}
	return 4
}

// signExtend widens a value of size s to 32 bits.
func signExtend(v uint32, s M68KSize) uint32 {
	switch s {
	case M68K_SIZE_BYTE:
		return uint32(int32(int8(v)))
	case M68K_SIZE_WORD:
		return uint32(int32(int16(v)))
	}
	return v
}

// M68KBus is the CPU's view of memory. cycle is the absolute CPU cycle at
// which the access happens; devices use it to timestamp register writes.
type M68KBus interface {
	Read(sz M68KSize, addr uint32, cycle uint64) uint32
	Write(sz M68KSize, addr uint32, value uint32, cycle uint64)
}

// InterruptSource is polled before each instruction.
type InterruptSource interface {
	// PendingLevel returns the highest requested level, 0 when idle.
	PendingLevel(cycle uint64) uint8
	// Acknowledge returns the vector for an accepted level, or -1 to use
	// the autovector.
	Acknowledge(level uint8, cycle uint64) int
}

// ExceptionHook observes every exception, pseudo vectors included, before
// it is processed.
type ExceptionHook func(vector uint8, pc uint32)

// RunState is the Instruction Core state.
type RunState uint8

const (
	RunNormal RunState = iota
	RunStopped
	RunHalted
)

func (s RunState) String() string {
	switch s {
	case RunNormal:
		return "normal"
	case RunStopped:
		return "stopped"
	case RunHalted:
		return "halted"
	}
	return fmt.Sprintf("RunState(%d)", uint8(s))
}

// M68KCPU is one 68000. It is owned by a single session and is not safe for
// concurrent use.
type M68KCPU struct {
	Registers

	bus  M68KBus
	irq  InterruptSource
	hook ExceptionHook

	state   RunState
	haltErr error
	cycles  uint64
	cyc     int // cycles charged to the instruction in progress

	opPC   uint32
	opcode uint16

	pending    exceptionEvent
	hasPending bool

	// Bus fault raised by the instruction in progress.
	faulted    bool
	faultAddr  uint32
	faultWrite bool
	faultFetch bool

	// Set while a group 0 frame is built and until the handler's first
	// instruction completes. A fault in that window halts the CPU.
	group0 bool
}

// NewM68KCPU returns a CPU in the Normal state with every register zero.
func NewM68KCPU(bus M68KBus) *M68KCPU {
	return &M68KCPU{bus: bus}
}

// SetInterruptSource attaches the device that requests interrupts.
func (cpu *M68KCPU) SetInterruptSource(src InterruptSource) {
	cpu.irq = src
}

// SetExceptionHook installs an observer for exceptions.
func (cpu *M68KCPU) SetExceptionHook(h ExceptionHook) {
	cpu.hook = h
}

// Reset restores power-up state and clears the cycle counter.
func (cpu *M68KCPU) Reset(entry, stackTop uint32) {
	cpu.Registers.Reset(entry, stackTop)
	cpu.state = RunNormal
	cpu.haltErr = nil
	cpu.cycles = 0
	cpu.cyc = 0
	cpu.hasPending = false
	cpu.faulted = false
	cpu.group0 = false
}

func (cpu *M68KCPU) State() RunState { return cpu.state }

// HaltErr reports why the CPU halted.
func (cpu *M68KCPU) HaltErr() error { return cpu.haltErr }

// Cycles returns the absolute cycle counter.
func (cpu *M68KCPU) Cycles() uint64 { return cpu.cycles }

// Resume leaves the Stopped state. The scheduler uses it to call a routine
// while the CPU idles between calls.
func (cpu *M68KCPU) Resume() {
	if cpu.state == RunStopped {
		cpu.state = RunNormal
	}
}

func (cpu *M68KCPU) halt(err error) {
	cpu.state = RunHalted
	if cpu.haltErr == nil {
		cpu.haltErr = err
	}
}

// RunUntil steps until the cycle counter reaches target or the CPU halts.
func (cpu *M68KCPU) RunUntil(target uint64) {
	for cpu.cycles < target && cpu.state != RunHalted {
		if cpu.state == RunStopped && cpu.irq == nil {
			cpu.cycles = target
			return
		}
		cpu.Step()
	}
}

// Step executes one instruction, services one interrupt or idles, and
// returns the cycles consumed.
func (cpu *M68KCPU) Step() int {
	start := cpu.cycles
	switch cpu.state {
	case RunHalted:
		return 0
	case RunStopped:
		if !cpu.checkInterrupt() {
			cpu.cycles += M68K_CYCLE_STOP_IDLE
		}
		return int(cpu.cycles - start)
	}
	if !cpu.checkInterrupt() {
		cpu.execute()
	}
	return int(cpu.cycles - start)
}

func (cpu *M68KCPU) execute() {
	traced := cpu.SR.T1
	inHandler := cpu.group0

	cpu.cyc = 0
	cpu.faulted = false
	cpu.hasPending = false
	cpu.opPC = cpu.PC
	cpu.opcode = cpu.fetchWord()
	if !cpu.faulted {
		m68kDecodeTable[cpu.opcode>>12](cpu, cpu.opcode)
	}
	cpu.cycles += uint64(cpu.cyc)

	switch {
	case cpu.state == RunHalted:
	case cpu.faulted:
		if inHandler {
			cpu.halt(fmt.Errorf("%w: address error at $%06X in address error handler", ErrDoubleFault, cpu.faultAddr))
			return
		}
		cpu.raise(cpu.addressErrorEvent())
		return
	case cpu.hasPending:
		// a trap-class instruction completes, so trace follows its frame
		if cpu.raise(cpu.pending) == exceptionDispatched && traced && !cpu.pending.isFault() {
			cpu.raise(exceptionEvent{vector: M68K_VEC_TRACE, pc: cpu.PC})
		}
	case traced && cpu.state == RunNormal:
		cpu.raise(exceptionEvent{vector: M68K_VEC_TRACE, pc: cpu.PC})
	}
	if inHandler {
		cpu.group0 = false
	}
}

// checkInterrupt takes a pending interrupt above the mask. Level 7 cannot
// be masked.
func (cpu *M68KCPU) checkInterrupt() bool {
	if cpu.irq == nil {
		return false
	}
	level := cpu.irq.PendingLevel(cpu.cycles)
	if level == 0 || (level < 7 && level <= cpu.SR.IPL) {
		return false
	}
	vector := cpu.irq.Acknowledge(level, cpu.cycles)
	if vector < 0 {
		vector = M68K_VEC_AUTOVECTOR + int(level)
	}
	cpu.state = RunNormal
	cpu.opPC = cpu.PC
	cpu.cycles += M68K_CYCLE_INTERRUPT - M68K_CYCLE_EXCEPTION
	cpu.raise(exceptionEvent{vector: uint8(vector), data: uint32(level), level: level, pc: cpu.PC})
	return true
}

// ------------------------------------------------------------------------------
// Bus Access
// ------------------------------------------------------------------------------

func (cpu *M68KCPU) busFault(addr uint32, write, fetch bool) {
	cpu.faulted = true
	cpu.faultAddr = addr
	cpu.faultWrite = write
	cpu.faultFetch = fetch
}

func (cpu *M68KCPU) read(sz M68KSize, addr uint32) uint32 {
	addr &= M68K_ADDRESS_MASK
	if cpu.faulted {
		return 0
	}
	if sz != M68K_SIZE_BYTE && addr&1 != 0 {
		cpu.busFault(addr, false, false)
		return 0
	}
	return cpu.bus.Read(sz, addr, cpu.cycles+uint64(cpu.cyc))
}

func (cpu *M68KCPU) write(sz M68KSize, addr uint32, value uint32) {
	addr &= M68K_ADDRESS_MASK
	if cpu.faulted {
		return
	}
	if sz != M68K_SIZE_BYTE && addr&1 != 0 {
		cpu.busFault(addr, true, false)
		return
	}
	cpu.bus.Write(sz, addr, value&sz.mask(), cpu.cycles+uint64(cpu.cyc))
}

func (cpu *M68KCPU) fetchWord() uint16 {
	pc := cpu.PC & M68K_ADDRESS_MASK
	cpu.PC += 2
	if cpu.faulted {
		return 0
	}
	if pc&1 != 0 {
		cpu.busFault(pc, false, true)
		return 0
	}
	return uint16(cpu.bus.Read(M68K_SIZE_WORD, pc, cpu.cycles+uint64(cpu.cyc)))
}

func (cpu *M68KCPU) fetchLong() uint32 {
	hi := uint32(cpu.fetchWord())
	return hi<<16 | uint32(cpu.fetchWord())
}

// fetchImmediate reads an immediate operand; bytes occupy a full word.
func (cpu *M68KCPU) fetchImmediate(sz M68KSize) uint32 {
	switch sz {
	case M68K_SIZE_BYTE:
		return uint32(cpu.fetchWord()) & 0xFF
	case M68K_SIZE_WORD:
		return uint32(cpu.fetchWord())
	}
	return cpu.fetchLong()
}

func (cpu *M68KCPU) push16(v uint16) {
	cpu.A[7] -= 2
	cpu.write(M68K_SIZE_WORD, cpu.A[7], uint32(v))
}

func (cpu *M68KCPU) push32(v uint32) {
	cpu.A[7] -= 4
	cpu.write(M68K_SIZE_LONG, cpu.A[7], v)
}

func (cpu *M68KCPU) pop16() uint16 {
	v := cpu.read(M68K_SIZE_WORD, cpu.A[7])
	cpu.A[7] += 2
	return uint16(v)
}

func (cpu *M68KCPU) pop32() uint32 {
	v := cpu.read(M68K_SIZE_LONG, cpu.A[7])
	cpu.A[7] += 4
	return v
}

// ------------------------------------------------------------------------------
// Condition Codes
// ------------------------------------------------------------------------------

func (cpu *M68KCPU) setNZ(v uint32, sz M68KSize) {
	cpu.SR.N = v&sz.msb() != 0
	cpu.SR.Z = v&sz.mask() == 0
}

func (cpu *M68KCPU) setLogicFlags(v uint32, sz M68KSize) {
	cpu.setNZ(v, sz)
	cpu.SR.V = false
	cpu.SR.C = false
}

// setAddFlags sets flags for res = dst + src (+X).
func (cpu *M68KCPU) setAddFlags(src, dst, res uint32, sz M68KSize) {
	msb := sz.msb()
	cpu.SR.C = ((src&dst)|(^res&(src|dst)))&msb != 0
	cpu.SR.V = ((src^res)&(dst^res))&msb != 0
	cpu.SR.X = cpu.SR.C
	cpu.setNZ(res, sz)
}

// setSubFlags sets flags for res = dst - src (-X).
func (cpu *M68KCPU) setSubFlags(src, dst, res uint32, sz M68KSize) {
	cpu.setCmpFlags(src, dst, res, sz)
	cpu.SR.X = cpu.SR.C
}

func (cpu *M68KCPU) setCmpFlags(src, dst, res uint32, sz M68KSize) {
	msb := sz.msb()
	cpu.SR.C = ((src&^dst)|(res&^dst)|(src&res))&msb != 0
	cpu.SR.V = ((src^dst)&(res^dst))&msb != 0
	cpu.setNZ(res, sz)
}

func (cpu *M68KCPU) testCondition(cc uint16) bool {
	sr := &cpu.SR
	switch cc & 0xF {
	case 0x0:
		return true
	case 0x1:
		return false
	case 0x2:
		return !sr.C && !sr.Z
	case 0x3:
		return sr.C || sr.Z
	case 0x4:
		return !sr.C
	case 0x5:
		return sr.C
	case 0x6:
		return !sr.Z
	case 0x7:
		return sr.Z
	case 0x8:
		return !sr.V
	case 0x9:
		return sr.V
	case 0xA:
		return !sr.N
	case 0xB:
		return sr.N
	case 0xC:
		return sr.N == sr.V
	case 0xD:
		return sr.N != sr.V
	case 0xE:
		return !sr.Z && sr.N == sr.V
	}
	return sr.Z || sr.N != sr.V
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
