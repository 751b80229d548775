// cpu_m68k_ops_shift.go - Shifts, rotates and single-bit instructions.

package sc68

type shiftKind uint16

const (
	shiftArith shiftKind = iota
	shiftLogical
	shiftRotateX
	shiftRotate
)

func (cpu *M68KCPU) opShiftRegister(op uint16) {
	sz, _ := sizeField(op)
	reg := op & 7
	count := uint32((op >> 9) & 7)
	if op&0x0020 != 0 {
		count = cpu.D[count] & 63
	} else if count == 0 {
		count = 8
	}
	dst := operand{kind: operandDataReg, reg: reg, size: sz}
	res := cpu.shift(shiftKind((op>>3)&3), op&0x0100 != 0, cpu.readOperand(dst), count, sz)
	cpu.writeOperand(dst, res)
	cpu.cyc += longCycles(sz, 6, 8) + 2*int(count)
}

// Memory shifts are word sized and move one bit.
func (cpu *M68KCPU) opShiftMemory(op uint16) {
	mode, reg := eaFields(op)
	if op&0x0800 != 0 || !eaAllowed(mode, reg, M68K_EA_MEM_ALT) {
		cpu.illegal()
		return
	}
	dst := cpu.resolveEA(mode, reg, M68K_SIZE_WORD)
	res := cpu.shift(shiftKind((op>>9)&3), op&0x0100 != 0, cpu.readOperand(dst), 1, M68K_SIZE_WORD)
	cpu.writeOperand(dst, res)
	cpu.cyc += 8
}

// shift applies count single-bit steps and sets the flags. A zero count
// clears C (ROXd copies X into it) and leaves X alone.
func (cpu *M68KCPU) shift(kind shiftKind, left bool, v, count uint32, sz M68KSize) uint32 {
	mask, msb := sz.mask(), sz.msb()
	v &= mask
	sr := &cpu.SR
	sr.V = false
	carry := false
	if kind == shiftRotateX {
		carry = sr.X
	}

	for range count {
		if left {
			out := v&msb != 0
			var in uint32
			switch kind {
			case shiftRotateX:
				in = boolBit(sr.X)
			case shiftRotate:
				in = boolBit(out)
			}
			v = (v<<1 | in) & mask
			if kind == shiftArith && (v&msb != 0) != out {
				sr.V = true
			}
			carry = out
		} else {
			out := v&1 != 0
			var in uint32
			switch kind {
			case shiftArith:
				in = v & msb
			case shiftRotateX:
				in = boolBit(sr.X) * msb
			case shiftRotate:
				in = boolBit(out) * msb
			}
			v = v>>1 | in
			carry = out
		}
		if kind != shiftRotate {
			sr.X = carry
		}
	}

	sr.C = carry
	cpu.setNZ(v, sz)
	return v
}

// BTST/BCHG/BCLR/BSET with the bit number in a data register.
func (cpu *M68KCPU) opBitDynamic(op uint16) {
	cpu.bitOp(op, cpu.D[(op>>9)&7], true)
}

// The same with an immediate bit number.
func (cpu *M68KCPU) opBitStatic(op uint16) {
	cpu.bitOp(op, uint32(cpu.fetchWord()), false)
}

func (cpu *M68KCPU) bitOp(op uint16, bit uint32, dynamic bool) {
	mode, reg := eaFields(op)
	kind := (op >> 6) & 3
	allowed := uint16(M68K_EA_DATA_ALT)
	if kind == 0 {
		allowed = M68K_EA_DATA
		if !dynamic {
			allowed &^= M68K_EA_IMM
		}
	}
	if !eaAllowed(mode, reg, allowed) {
		cpu.illegal()
		return
	}

	sz := M68K_SIZE_BYTE
	if mode == 0 {
		sz = M68K_SIZE_LONG
		bit &= 31
	} else {
		bit &= 7
	}
	dst := cpu.resolveEA(mode, reg, sz)
	v := cpu.readOperand(dst)
	m := uint32(1) << bit
	cpu.SR.Z = v&m == 0

	switch kind {
	case 0:
		cpu.cyc += 4
		return
	case 1:
		v ^= m
	case 2:
		v &^= m
	case 3:
		v |= m
	}
	cpu.writeOperand(dst, v)
	cpu.cyc += 8
}
