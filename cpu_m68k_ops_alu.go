// cpu_m68k_ops_alu.go - Arithmetic, logic and compare instructions.

package sc68

type logicKind uint8

const (
	logicOr logicKind = iota
	logicAnd
	logicEor
)

func (k logicKind) apply(a, b uint32) uint32 {
	switch k {
	case logicOr:
		return a | b
	case logicAnd:
		return a & b
	}
	return a ^ b
}

func immediateLogic(kind uint16) logicKind {
	switch kind {
	case 1:
		return logicAnd
	case 5:
		return logicEor
	}
	return logicOr
}

// sizeField decodes the common two-bit size field at bits 7-6.
func sizeField(op uint16) (M68KSize, bool) {
	switch (op >> 6) & 3 {
	case 0:
		return M68K_SIZE_BYTE, true
	case 1:
		return M68K_SIZE_WORD, true
	case 2:
		return M68K_SIZE_LONG, true
	}
	return 0, false
}

func longCycles(sz M68KSize, word, long int) int {
	if sz == M68K_SIZE_LONG {
		return long
	}
	return word
}

// ORI/ANDI/SUBI/ADDI/EORI/CMPI, including the CCR and SR forms.
func (cpu *M68KCPU) opImmediate(op uint16) {
	kind := (op >> 9) & 7
	switch op & 0x00FF {
	case 0x3C, 0x7C:
		if kind != 0 && kind != 1 && kind != 5 {
			cpu.illegal()
			return
		}
		lk := immediateLogic(kind)
		imm := uint32(cpu.fetchWord())
		if op&0x0040 == 0 {
			cpu.SR.SetCCR(uint8(lk.apply(uint32(cpu.SR.CCR()), imm)))
		} else {
			if !cpu.privileged() {
				return
			}
			cpu.SetSR(uint16(lk.apply(uint32(cpu.SR.Pack()), imm)))
		}
		cpu.cyc += 20
		return
	}

	sz, ok := sizeField(op)
	mode, reg := eaFields(op)
	if !ok || kind == 4 || kind == 7 || !eaAllowed(mode, reg, M68K_EA_DATA_ALT) {
		cpu.illegal()
		return
	}

	imm := cpu.fetchImmediate(sz)
	dst := cpu.resolveEA(mode, reg, sz)
	d := cpu.readOperand(dst)
	mask := sz.mask()

	switch kind {
	case 0, 1, 5:
		res := immediateLogic(kind).apply(d, imm) & mask
		cpu.writeOperand(dst, res)
		cpu.setLogicFlags(res, sz)
	case 2:
		res := (d - imm) & mask
		cpu.writeOperand(dst, res)
		cpu.setSubFlags(imm, d, res, sz)
	case 3:
		res := (d + imm) & mask
		cpu.writeOperand(dst, res)
		cpu.setAddFlags(imm, d, res, sz)
	case 6:
		cpu.setCmpFlags(imm, d, (d-imm)&mask, sz)
	}
	if mode == 0 {
		cpu.cyc += longCycles(sz, 8, 16)
	} else {
		cpu.cyc += longCycles(sz, 12, 20)
	}
}

// ADDQ/SUBQ. An address register destination is changed whole and leaves
// the flags alone.
func (cpu *M68KCPU) opAddqSubq(op uint16) {
	sz, _ := sizeField(op)
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_ALTERABLE) || (mode == 1 && sz == M68K_SIZE_BYTE) {
		cpu.illegal()
		return
	}
	data := uint32((op >> 9) & 7)
	if data == 0 {
		data = 8
	}
	sub := op&0x0100 != 0

	if mode == 1 {
		if sub {
			cpu.A[reg] -= data
		} else {
			cpu.A[reg] += data
		}
		cpu.cyc += 8
		return
	}

	dst := cpu.resolveEA(mode, reg, sz)
	d := cpu.readOperand(dst)
	var res uint32
	if sub {
		res = (d - data) & sz.mask()
		cpu.setSubFlags(data, d, res, sz)
	} else {
		res = (d + data) & sz.mask()
		cpu.setAddFlags(data, d, res, sz)
	}
	cpu.writeOperand(dst, res)
	if mode == 0 {
		cpu.cyc += longCycles(sz, 4, 8)
	} else {
		cpu.cyc += longCycles(sz, 8, 12)
	}
}

// ADD/SUB <ea>,Dn and Dn,<ea>.
func (cpu *M68KCPU) opAddSub(op uint16, sub bool) {
	sz, _ := sizeField(op)
	mode, reg := eaFields(op)
	dn := (op >> 9) & 7
	toEA := op&0x0100 != 0

	var s, d, res uint32
	if toEA {
		if !eaAllowed(mode, reg, M68K_EA_MEM_ALT) {
			cpu.illegal()
			return
		}
		s = cpu.D[dn] & sz.mask()
		dst := cpu.resolveEA(mode, reg, sz)
		d = cpu.readOperand(dst)
		res = cpu.addSub(s, d, sz, sub)
		cpu.writeOperand(dst, res)
		cpu.cyc += longCycles(sz, 8, 12)
		return
	}

	if mode == 1 && sz == M68K_SIZE_BYTE {
		cpu.illegal()
		return
	}
	s = cpu.readEA(mode, reg, sz)
	d = cpu.D[dn] & sz.mask()
	res = cpu.addSub(s, d, sz, sub)
	cpu.writeOperand(operand{kind: operandDataReg, reg: dn, size: sz}, res)
	cpu.cyc += longCycles(sz, 4, 6)
}

func (cpu *M68KCPU) addSub(s, d uint32, sz M68KSize, sub bool) uint32 {
	if sub {
		res := (d - s) & sz.mask()
		cpu.setSubFlags(s, d, res, sz)
		return res
	}
	res := (d + s) & sz.mask()
	cpu.setAddFlags(s, d, res, sz)
	return res
}

// ADDA/SUBA: the source is sign extended and no flags change.
func (cpu *M68KCPU) opAddaSuba(op uint16, sub bool) {
	sz := M68K_SIZE_WORD
	if op&0x0100 != 0 {
		sz = M68K_SIZE_LONG
	}
	mode, reg := eaFields(op)
	s := signExtend(cpu.readEA(mode, reg, sz), sz)
	an := (op >> 9) & 7
	if sub {
		cpu.A[an] -= s
	} else {
		cpu.A[an] += s
	}
	cpu.cyc += 8
}

// ADDX/SUBX. Z is only ever cleared so that multi-precision chains test
// the whole value.
func (cpu *M68KCPU) opAddxSubx(op uint16, sub bool) {
	sz, _ := sizeField(op)
	rx, ry := (op>>9)&7, op&7
	var src, dst operand
	if op&0x0008 != 0 {
		src = cpu.resolveEA(4, ry, sz)
		dst = cpu.resolveEA(4, rx, sz)
		cpu.cyc += longCycles(sz, 18, 30)
	} else {
		src = operand{kind: operandDataReg, reg: ry, size: sz}
		dst = operand{kind: operandDataReg, reg: rx, size: sz}
		cpu.cyc += longCycles(sz, 4, 8)
	}
	s := cpu.readOperand(src)
	d := cpu.readOperand(dst)
	x := boolBit(cpu.SR.X)
	z := cpu.SR.Z

	var res uint32
	if sub {
		res = (d - s - x) & sz.mask()
		cpu.setSubFlags(s, d, res, sz)
	} else {
		res = (d + s + x) & sz.mask()
		cpu.setAddFlags(s, d, res, sz)
	}
	cpu.SR.Z = z && res == 0
	cpu.writeOperand(dst, res)
}

func (cpu *M68KCPU) opCmp(op uint16) {
	sz, _ := sizeField(op)
	mode, reg := eaFields(op)
	if mode == 1 && sz == M68K_SIZE_BYTE {
		cpu.illegal()
		return
	}
	s := cpu.readEA(mode, reg, sz)
	d := cpu.D[(op>>9)&7] & sz.mask()
	cpu.setCmpFlags(s, d, (d-s)&sz.mask(), sz)
	cpu.cyc += longCycles(sz, 4, 6)
}

func (cpu *M68KCPU) opCmpa(op uint16) {
	sz := M68K_SIZE_WORD
	if op&0x0100 != 0 {
		sz = M68K_SIZE_LONG
	}
	mode, reg := eaFields(op)
	s := signExtend(cpu.readEA(mode, reg, sz), sz)
	d := cpu.A[(op>>9)&7]
	cpu.setCmpFlags(s, d, d-s, M68K_SIZE_LONG)
	cpu.cyc += 6
}

func (cpu *M68KCPU) opCmpm(op uint16) {
	sz, _ := sizeField(op)
	s := cpu.readEA(3, op&7, sz)
	d := cpu.readEA(3, (op>>9)&7, sz)
	cpu.setCmpFlags(s, d, (d-s)&sz.mask(), sz)
	cpu.cyc += longCycles(sz, 12, 20)
}

// OR/AND <ea>,Dn and Dn,<ea>; EOR only has the Dn,<ea> form.
func (cpu *M68KCPU) opLogic(op uint16, kind logicKind) {
	sz, _ := sizeField(op)
	mode, reg := eaFields(op)
	dn := (op >> 9) & 7

	if op&0x0100 != 0 {
		allowed := uint16(M68K_EA_MEM_ALT)
		if kind == logicEor {
			allowed = M68K_EA_DATA_ALT
		}
		if !eaAllowed(mode, reg, allowed) {
			cpu.illegal()
			return
		}
		dst := cpu.resolveEA(mode, reg, sz)
		res := kind.apply(cpu.readOperand(dst), cpu.D[dn]) & sz.mask()
		cpu.writeOperand(dst, res)
		cpu.setLogicFlags(res, sz)
		cpu.cyc += longCycles(sz, 8, 12)
		return
	}

	if !eaAllowed(mode, reg, M68K_EA_DATA) {
		cpu.illegal()
		return
	}
	res := kind.apply(cpu.readEA(mode, reg, sz), cpu.D[dn]) & sz.mask()
	cpu.writeOperand(operand{kind: operandDataReg, reg: dn, size: sz}, res)
	cpu.setLogicFlags(res, sz)
	cpu.cyc += longCycles(sz, 4, 6)
}

// NEGX, CLR, NEG and NOT.
func (cpu *M68KCPU) opUnary(op uint16) {
	sz, _ := sizeField(op)
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_DATA_ALT) {
		cpu.illegal()
		return
	}
	dst := cpu.resolveEA(mode, reg, sz)
	mask := sz.mask()

	switch (op >> 9) & 3 {
	case 0:
		d := cpu.readOperand(dst)
		z := cpu.SR.Z
		res := (0 - d - boolBit(cpu.SR.X)) & mask
		cpu.setSubFlags(d, 0, res, sz)
		cpu.SR.Z = z && res == 0
		cpu.writeOperand(dst, res)
	case 1:
		// The 68000 reads before clearing.
		cpu.readOperand(dst)
		cpu.writeOperand(dst, 0)
		cpu.setLogicFlags(0, sz)
	case 2:
		d := cpu.readOperand(dst)
		res := (0 - d) & mask
		cpu.setSubFlags(d, 0, res, sz)
		cpu.writeOperand(dst, res)
	case 3:
		res := ^cpu.readOperand(dst) & mask
		cpu.writeOperand(dst, res)
		cpu.setLogicFlags(res, sz)
	}
	if mode == 0 {
		cpu.cyc += longCycles(sz, 4, 6)
	} else {
		cpu.cyc += longCycles(sz, 8, 12)
	}
}

func (cpu *M68KCPU) opTst(op uint16) {
	sz, ok := sizeField(op)
	mode, reg := eaFields(op)
	if !ok || !eaAllowed(mode, reg, M68K_EA_DATA_ALT) {
		cpu.illegal()
		return
	}
	cpu.setLogicFlags(cpu.readEA(mode, reg, sz), sz)
	cpu.cyc += 4
}

func (cpu *M68KCPU) opTas(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_DATA_ALT) {
		cpu.illegal()
		return
	}
	dst := cpu.resolveEA(mode, reg, M68K_SIZE_BYTE)
	v := cpu.readOperand(dst)
	cpu.setLogicFlags(v, M68K_SIZE_BYTE)
	cpu.writeOperand(dst, v|0x80)
	cpu.cyc += 14
}

func (cpu *M68KCPU) opScc(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_DATA_ALT) {
		cpu.illegal()
		return
	}
	dst := cpu.resolveEA(mode, reg, M68K_SIZE_BYTE)
	if cpu.testCondition((op >> 8) & 0xF) {
		cpu.writeOperand(dst, 0xFF)
		cpu.cyc += 6
	} else {
		cpu.writeOperand(dst, 0)
		cpu.cyc += 4
	}
}

// MULU/MULS: 16x16 to 32 bits.
func (cpu *M68KCPU) opMul(op uint16, signed bool) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_DATA) {
		cpu.illegal()
		return
	}
	s := cpu.readEA(mode, reg, M68K_SIZE_WORD)
	dn := (op >> 9) & 7
	var res uint32
	if signed {
		res = uint32(int32(int16(s)) * int32(int16(cpu.D[dn])))
	} else {
		res = (s & 0xFFFF) * (cpu.D[dn] & 0xFFFF)
	}
	cpu.D[dn] = res
	cpu.setLogicFlags(res, M68K_SIZE_LONG)
	cpu.cyc += 54
}

// DIVU: 32/16 unsigned. On overflow V is set and the register is unchanged.
func (cpu *M68KCPU) opDivu(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_DATA) {
		cpu.illegal()
		return
	}
	s := cpu.readEA(mode, reg, M68K_SIZE_WORD) & 0xFFFF
	if cpu.faulted {
		return
	}
	if s == 0 {
		cpu.SR.C = false
		cpu.exception(M68K_VEC_ZERO_DIVIDE, 0)
		cpu.cyc += 4
		return
	}
	dn := (op >> 9) & 7
	q := cpu.D[dn] / s
	r := cpu.D[dn] % s
	cpu.cyc += 136
	cpu.SR.C = false
	if q > 0xFFFF {
		cpu.SR.V = true
		return
	}
	cpu.D[dn] = r<<16 | q
	cpu.setLogicFlags(q, M68K_SIZE_WORD)
}

// DIVS: 32/16 signed, the remainder takes the dividend's sign.
func (cpu *M68KCPU) opDivs(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_DATA) {
		cpu.illegal()
		return
	}
	s := int64(int16(cpu.readEA(mode, reg, M68K_SIZE_WORD)))
	if cpu.faulted {
		return
	}
	if s == 0 {
		cpu.SR.C = false
		cpu.exception(M68K_VEC_ZERO_DIVIDE, 0)
		cpu.cyc += 4
		return
	}
	dn := (op >> 9) & 7
	d := int64(int32(cpu.D[dn]))
	q := d / s
	r := d % s
	cpu.cyc += 156
	cpu.SR.C = false
	if q < -32768 || q > 32767 {
		cpu.SR.V = true
		return
	}
	cpu.D[dn] = uint32(r)<<16 | uint32(q)&0xFFFF
	cpu.setLogicFlags(uint32(q), M68K_SIZE_WORD)
}

// CHK: trap when Dn.W is negative or above the bound.
func (cpu *M68KCPU) opChk(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_DATA) {
		cpu.illegal()
		return
	}
	bound := int16(cpu.readEA(mode, reg, M68K_SIZE_WORD))
	index := int16(cpu.D[(op>>9)&7])
	cpu.SR.V = false
	cpu.SR.C = false
	cpu.SR.Z = index == 0
	cpu.cyc += 10
	switch {
	case index < 0:
		cpu.SR.N = true
		cpu.exception(M68K_VEC_CHK, 0)
	case index > bound:
		cpu.SR.N = false
		cpu.exception(M68K_VEC_CHK, 0)
	}
}

// ABCD/SBCD, register or -(An) pairs.
func (cpu *M68KCPU) opBcd(op uint16, sub bool) {
	rx, ry := (op>>9)&7, op&7
	var src, dst operand
	if op&0x0008 != 0 {
		src = cpu.resolveEA(4, ry, M68K_SIZE_BYTE)
		dst = cpu.resolveEA(4, rx, M68K_SIZE_BYTE)
		cpu.cyc += 18
	} else {
		src = operand{kind: operandDataReg, reg: ry, size: M68K_SIZE_BYTE}
		dst = operand{kind: operandDataReg, reg: rx, size: M68K_SIZE_BYTE}
		cpu.cyc += 6
	}
	s := cpu.readOperand(src)
	d := cpu.readOperand(dst)
	x := boolBit(cpu.SR.X)

	var res, v uint32
	if sub {
		res = (d & 0x0F) - (s & 0x0F) - x
		v = ^res
		if res > 9 {
			res -= 6
		}
		res += (d & 0xF0) - (s & 0xF0)
		cpu.SR.C = res > 0x99
		if cpu.SR.C {
			res += 0xA0
		}
	} else {
		res = (s & 0x0F) + (d & 0x0F) + x
		v = ^res
		if res > 9 {
			res += 6
		}
		res += (s & 0xF0) + (d & 0xF0)
		cpu.SR.C = res > 0x99
		if cpu.SR.C {
			res -= 0xA0
		}
	}
	res &= 0xFF
	cpu.SR.X = cpu.SR.C
	cpu.SR.V = v&res&0x80 != 0
	cpu.SR.N = res&0x80 != 0
	if res != 0 {
		cpu.SR.Z = false
	}
	cpu.writeOperand(dst, res)
}

func (cpu *M68KCPU) opNbcd(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_DATA_ALT) {
		cpu.illegal()
		return
	}
	dst := cpu.resolveEA(mode, reg, M68K_SIZE_BYTE)
	d := cpu.readOperand(dst)
	res := (0x9A - d - boolBit(cpu.SR.X)) & 0xFF

	if res != 0x9A {
		v := ^res
		if res&0x0F == 0x0A {
			res = (res & 0xF0) + 0x10
		}
		res &= 0xFF
		cpu.SR.V = v&res&0x80 != 0
		cpu.writeOperand(dst, res)
		if res != 0 {
			cpu.SR.Z = false
		}
		cpu.SR.C = true
	} else {
		cpu.SR.V = false
		cpu.SR.C = false
	}
	cpu.SR.X = cpu.SR.C
	cpu.SR.N = res&0x80 != 0
	cpu.cyc += 6
}
