// cpu_m68k_test_helpers_test.go - Table-driven harness for 68000 instruction tests

package sc68

import (
	"fmt"
	"testing"
)

const (
	testMemSize     = 64 * 1024
	testCodeAddr    = 0x1000
	testStackTop    = 0x8000
	testHandlerBase = 0x4000 // vector v jumps to testHandlerBase + v*0x10
)

func testHandler(vector uint8) uint32 {
	return testHandlerBase + uint32(vector)*0x10
}

// newTestCPU builds a supervisor-mode CPU on a plain RAM bus with every
// vector pointing at its own handler slot.
func newTestCPU() (*M68KCPU, *MemoryArena) {
	mem := NewMemoryArena(testMemSize)
	cpu := NewM68KCPU(NewMachineBus(mem))
	vt := NewVectorTable(mem)
	for v := 0; v < M68K_VECTOR_TABLE_SIZE/4; v++ {
		vt.Set(uint8(v), testHandler(uint8(v)))
	}
	cpu.Reset(testCodeAddr, testStackTop)
	cpu.SR.IPL = 0
	return cpu, mem
}

// loadCode writes opcode words at addr.
func loadCode(mem *MemoryArena, addr uint32, words ...uint16) {
	for i, w := range words {
		mem.Write(M68K_SIZE_WORD, addr+uint32(2*i), uint32(w))
	}
}

// FlagExpectation lists expected CCR bits: -1 don't care, 0 clear, 1 set.
// The zero value checks nothing.
type FlagExpectation struct {
	N, Z, V, C, X int8
}

func FlagDontCare() FlagExpectation {
	return FlagExpectation{N: -1, Z: -1, V: -1, C: -1, X: -1}
}

func FlagsNZ(n, z int8) FlagExpectation {
	return FlagExpectation{N: n, Z: z, V: -1, C: -1, X: -1}
}

func FlagsNZVC(n, z, v, c int8) FlagExpectation {
	return FlagExpectation{N: n, Z: z, V: v, C: c, X: -1}
}

func FlagsAll(n, z, v, c, x int8) FlagExpectation {
	return FlagExpectation{N: n, Z: z, V: v, C: c, X: x}
}

// MemoryExpectation is an expected value at an address.
type MemoryExpectation struct {
	Address uint32
	Size    M68KSize
	Value   uint32
}

func ExpectByte(addr uint32, v uint8) MemoryExpectation {
	return MemoryExpectation{addr, M68K_SIZE_BYTE, uint32(v)}
}

func ExpectWord(addr uint32, v uint16) MemoryExpectation {
	return MemoryExpectation{addr, M68K_SIZE_WORD, uint32(v)}
}

func ExpectLong(addr uint32, v uint32) MemoryExpectation {
	return MemoryExpectation{addr, M68K_SIZE_LONG, v}
}

// M68KTestCase is one instruction executed from testCodeAddr.
type M68KTestCase struct {
	Name string

	Setup    func(*M68KCPU, *MemoryArena)
	DataRegs [8]uint32
	AddrRegs [7]uint32 // A0-A6; A7 stays at testStackTop
	SR       uint16    // 0 keeps the supervisor reset state
	Mem      []MemoryExpectation

	Opcodes []uint16

	ExpectedRegs  map[string]uint32
	ExpectedMem   []MemoryExpectation
	ExpectedFlags FlagExpectation

	ShouldTrap bool
	TrapVector uint8

	ExpectedPCDelta uint32 // 0 = don't check
}

func RunM68KTests(t *testing.T, tests []M68KTestCase) {
	for _, tc := range tests {
		t.Run(tc.Name, func(t *testing.T) {
			cpu, mem := newTestCPU()
			runSingleM68KTest(t, cpu, mem, tc)
		})
	}
}

func runSingleM68KTest(t *testing.T, cpu *M68KCPU, mem *MemoryArena, tc M68KTestCase) {
	t.Helper()
	cpu.D = tc.DataRegs
	copy(cpu.A[:7], tc.AddrRegs[:])
	if tc.SR != 0 {
		cpu.SetSR(tc.SR)
	}
	for _, m := range tc.Mem {
		mem.Write(m.Size, m.Address, m.Value)
	}
	loadCode(mem, testCodeAddr, tc.Opcodes...)
	if tc.Setup != nil {
		tc.Setup(cpu, mem)
	}

	cpu.Step()

	if tc.ShouldTrap {
		if want := testHandler(tc.TrapVector); cpu.PC != want {
			t.Errorf("expected vector %d (PC $%06X), PC is $%06X", tc.TrapVector, want, cpu.PC)
		}
	} else {
		for v := uint8(2); v < M68K_VEC_USER; v++ {
			if cpu.PC == testHandler(v) {
				t.Fatalf("unexpected exception, vector %d", v)
			}
		}
		if tc.ExpectedPCDelta != 0 && cpu.PC-testCodeAddr != tc.ExpectedPCDelta {
			t.Errorf("PC delta: got %d, expected %d", cpu.PC-testCodeAddr, tc.ExpectedPCDelta)
		}
	}

	for name, want := range tc.ExpectedRegs {
		if got := registerValue(cpu, name); got != want {
			t.Errorf("%s: got 0x%08X, expected 0x%08X", name, got, want)
		}
	}
	for _, m := range tc.ExpectedMem {
		if got := mem.Read(m.Size, m.Address); got != m.Value {
			t.Errorf("mem[$%06X]: got 0x%X, expected 0x%X", m.Address, got, m.Value)
		}
	}
	checkFlags(t, cpu, tc.ExpectedFlags)
}

func registerValue(cpu *M68KCPU, name string) uint32 {
	var n int
	switch {
	case name == "PC":
		return cpu.PC
	case name == "SR":
		return uint32(cpu.SR.Pack())
	case name == "USP":
		return cpu.UserSP()
	case name == "SSP":
		return cpu.SupervisorSP()
	case len(name) == 2 && name[0] == 'D':
		fmt.Sscanf(name[1:], "%d", &n)
		return cpu.D[n]
	case len(name) == 2 && name[0] == 'A':
		fmt.Sscanf(name[1:], "%d", &n)
		return cpu.A[n]
	}
	panic(fmt.Sprintf("unknown register: %s", name))
}

func checkFlags(t *testing.T, cpu *M68KCPU, want FlagExpectation) {
	t.Helper()
	if want == (FlagExpectation{}) {
		return
	}
	check := func(name string, want int8, got bool) {
		if want < 0 {
			return
		}
		if (want == 1) != got {
			t.Errorf("%s flag: got %v, expected %d", name, got, want)
		}
	}
	check("N", want.N, cpu.SR.N)
	check("Z", want.Z, cpu.SR.Z)
	check("V", want.V, cpu.SR.V)
	check("C", want.C, cpu.SR.C)
	check("X", want.X, cpu.SR.X)
}

func Reg(name string, v uint32) map[string]uint32 {
	return map[string]uint32{name: v}
}

func Regs(pairs ...any) map[string]uint32 {
	out := make(map[string]uint32, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out[pairs[i].(string)] = pairs[i+1].(uint32)
	}
	return out
}
