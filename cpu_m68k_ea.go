// cpu_m68k_ea.go - Effective address decoding.

package sc68

// Addressing mode classes, one bit per mode. eaClass maps a mode/register
// field pair onto them.
const (
	M68K_EA_DN = 1 << iota
	M68K_EA_AN
	M68K_EA_IND
	M68K_EA_POST
	M68K_EA_PRE
	M68K_EA_DISP
	M68K_EA_INDEX
	M68K_EA_ABS_W
	M68K_EA_ABS_L
	M68K_EA_PC_DISP
	M68K_EA_PC_INDEX
	M68K_EA_IMM

	M68K_EA_ALL       = 1<<12 - 1
	M68K_EA_DATA      = M68K_EA_ALL &^ M68K_EA_AN
	M68K_EA_MEMORY    = M68K_EA_ALL &^ (M68K_EA_DN | M68K_EA_AN)
	M68K_EA_CONTROL   = M68K_EA_IND | M68K_EA_DISP | M68K_EA_INDEX | M68K_EA_ABS_W | M68K_EA_ABS_L | M68K_EA_PC_DISP | M68K_EA_PC_INDEX
	M68K_EA_ALTERABLE = M68K_EA_DN | M68K_EA_AN | M68K_EA_IND | M68K_EA_POST | M68K_EA_PRE | M68K_EA_DISP | M68K_EA_INDEX | M68K_EA_ABS_W | M68K_EA_ABS_L
	M68K_EA_DATA_ALT  = M68K_EA_DATA & M68K_EA_ALTERABLE
	M68K_EA_MEM_ALT   = M68K_EA_MEMORY & M68K_EA_ALTERABLE
	M68K_EA_CTRL_ALT  = M68K_EA_CONTROL & M68K_EA_ALTERABLE
)

func eaClass(mode, reg uint16) uint16 {
	if mode < 7 {
		return 1 << mode
	}
	if reg <= 4 {
		return M68K_EA_ABS_W << reg
	}
	return 0
}

func eaAllowed(mode, reg uint16, classes uint16) bool {
	return eaClass(mode, reg)&classes != 0
}

// Fetch cost per addressing mode for byte/word and long operands.
var m68kEACycles = [12][2]int{
	{0, 0}, {0, 0}, {4, 8}, {4, 8}, {6, 10}, {8, 12},
	{10, 14}, {8, 12}, {12, 16}, {8, 12}, {10, 14}, {4, 8},
}

type operandKind uint8

const (
	operandDataReg operandKind = iota
	operandAddrReg
	operandMemory
	operandImmediate
)

// operand is a resolved effective address. Resolving performs the address
// register side effects, so an operand is resolved exactly once and then
// read and/or written.
type operand struct {
	kind operandKind
	reg  uint16
	addr uint32
	imm  uint32
	size M68KSize
}

func (cpu *M68KCPU) resolveEA(mode, reg uint16, sz M68KSize) operand {
	op := operand{reg: reg, size: sz, kind: operandMemory}

	class := eaClass(mode, reg)
	for i := range m68kEACycles {
		if class == 1<<i {
			if sz == M68K_SIZE_LONG {
				cpu.cyc += m68kEACycles[i][1]
			} else {
				cpu.cyc += m68kEACycles[i][0]
			}
			break
		}
	}

	switch mode {
	case 0:
		op.kind = operandDataReg
	case 1:
		op.kind = operandAddrReg
	case 2:
		op.addr = cpu.A[reg]
	case 3:
		op.addr = cpu.A[reg]
		cpu.A[reg] += addrStep(reg, sz)
	case 4:
		cpu.A[reg] -= addrStep(reg, sz)
		op.addr = cpu.A[reg]
	case 5:
		op.addr = cpu.A[reg] + signExtend(uint32(cpu.fetchWord()), M68K_SIZE_WORD)
	case 6:
		op.addr = cpu.indexed(cpu.A[reg])
	case 7:
		switch reg {
		case 0:
			op.addr = signExtend(uint32(cpu.fetchWord()), M68K_SIZE_WORD)
		case 1:
			op.addr = cpu.fetchLong()
		case 2:
			base := cpu.PC
			op.addr = base + signExtend(uint32(cpu.fetchWord()), M68K_SIZE_WORD)
		case 3:
			op.addr = cpu.indexed(cpu.PC)
		case 4:
			op.kind = operandImmediate
			op.imm = cpu.fetchImmediate(sz)
		}
	}
	return op
}

// addrStep is the (An)+ / -(An) increment; A7 stays word aligned.
func addrStep(reg uint16, sz M68KSize) uint32 {
	if sz == M68K_SIZE_BYTE && reg == 7 {
		return 2
	}
	return sz.bytes()
}

// indexed decodes a brief extension word: d8 + Xn.W/L + base.
func (cpu *M68KCPU) indexed(base uint32) uint32 {
	ext := cpu.fetchWord()
	n := (ext >> 12) & 7
	var x uint32
	if ext&0x8000 != 0 {
		x = cpu.A[n]
	} else {
		x = cpu.D[n]
	}
	if ext&0x0800 == 0 {
		x = signExtend(x, M68K_SIZE_WORD)
	}
	return base + x + signExtend(uint32(ext), M68K_SIZE_BYTE)
}

func (cpu *M68KCPU) readOperand(op operand) uint32 {
	switch op.kind {
	case operandDataReg:
		return cpu.D[op.reg] & op.size.mask()
	case operandAddrReg:
		return cpu.A[op.reg] & op.size.mask()
	case operandImmediate:
		return op.imm
	}
	return cpu.read(op.size, op.addr)
}

// writeOperand stores v. Data registers keep the bits above the operand
// size; address registers are always written whole.
func (cpu *M68KCPU) writeOperand(op operand, v uint32) {
	switch op.kind {
	case operandDataReg:
		mask := op.size.mask()
		cpu.D[op.reg] = cpu.D[op.reg]&^mask | v&mask
	case operandAddrReg:
		cpu.A[op.reg] = v
	case operandMemory:
		cpu.write(op.size, op.addr, v)
	}
}

// readEA resolves and reads a source operand.
func (cpu *M68KCPU) readEA(mode, reg uint16, sz M68KSize) uint32 {
	return cpu.readOperand(cpu.resolveEA(mode, reg, sz))
}
