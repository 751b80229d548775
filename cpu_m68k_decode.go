// cpu_m68k_decode.go - Opcode decoding by top nibble.

package sc68

var m68kDecodeTable = [16]func(*M68KCPU, uint16){
	(*M68KCPU).decodeGroup0,
	(*M68KCPU).decodeMove,
	(*M68KCPU).decodeMove,
	(*M68KCPU).decodeMove,
	(*M68KCPU).decodeGroup4,
	(*M68KCPU).decodeGroup5,
	(*M68KCPU).decodeGroup6,
	(*M68KCPU).decodeGroup7,
	(*M68KCPU).decodeGroup8,
	(*M68KCPU).decodeGroup9D,
	(*M68KCPU).decodeGroupA,
	(*M68KCPU).decodeGroupB,
	(*M68KCPU).decodeGroupC,
	(*M68KCPU).decodeGroup9D,
	(*M68KCPU).decodeGroupE,
	(*M68KCPU).decodeGroupF,
}

func eaFields(op uint16) (mode, reg uint16) {
	return (op >> 3) & 7, op & 7
}

// Group 0: bit manipulation, MOVEP, immediate arithmetic and logic.
func (cpu *M68KCPU) decodeGroup0(op uint16) {
	mode, _ := eaFields(op)
	switch {
	case op&0x0100 != 0 && mode == 1:
		cpu.opMovep(op)
	case op&0x0100 != 0:
		cpu.opBitDynamic(op)
	case op&0x0F00 == 0x0800:
		cpu.opBitStatic(op)
	default:
		cpu.opImmediate(op)
	}
}

// Group 4: miscellaneous.
func (cpu *M68KCPU) decodeGroup4(op uint16) {
	switch {
	case op == 0x4AFC:
		cpu.illegal()
	case op&0xFFF0 == 0x4E40:
		cpu.exception(M68K_VEC_TRAP_BASE+uint8(op&0xF), uint32(op&0xF))
		cpu.cyc += 4
	case op&0xFFF8 == 0x4E50:
		cpu.opLink(op & 7)
	case op&0xFFF8 == 0x4E58:
		cpu.opUnlk(op & 7)
	case op&0xFFF0 == 0x4E60:
		cpu.opMoveUSP(op)
	case op == 0x4E70:
		cpu.opReset()
	case op == 0x4E71:
		cpu.cyc += 4
	case op == 0x4E72:
		cpu.opStop()
	case op == 0x4E73:
		cpu.opRte()
	case op == 0x4E75:
		cpu.PC = cpu.pop32()
		cpu.cyc += 16
	case op == 0x4E76:
		cpu.opTrapv()
	case op == 0x4E77:
		cpu.opRtr()
	case op&0xFF80 == 0x4E80:
		cpu.opJump(op)
	case op&0xF1C0 == 0x41C0:
		cpu.opLea(op)
	case op&0xF1C0 == 0x4180:
		cpu.opChk(op)
	case op&0xFFC0 == 0x40C0:
		cpu.opMoveFromSR(op)
	case op&0xFFC0 == 0x44C0:
		cpu.opMoveToCCR(op)
	case op&0xFFC0 == 0x46C0:
		cpu.opMoveToSR(op)
	case op&0xF900 == 0x4000 && op&0x00C0 != 0x00C0:
		cpu.opUnary(op)
	case op&0xFFC0 == 0x4800:
		cpu.opNbcd(op)
	case op&0xFFF8 == 0x4840:
		cpu.opSwap(op & 7)
	case op&0xFFC0 == 0x4840:
		cpu.opPea(op)
	case op&0xFFB8 == 0x4880:
		cpu.opExt(op)
	case op&0xFB80 == 0x4880:
		cpu.opMovem(op)
	case op&0xFFC0 == 0x4AC0:
		cpu.opTas(op)
	case op&0xFF00 == 0x4A00:
		cpu.opTst(op)
	default:
		cpu.illegal()
	}
}

// Group 5: ADDQ, SUBQ, Scc, DBcc.
func (cpu *M68KCPU) decodeGroup5(op uint16) {
	if (op>>6)&3 == 3 {
		if mode, _ := eaFields(op); mode == 1 {
			cpu.opDbcc(op)
		} else {
			cpu.opScc(op)
		}
		return
	}
	cpu.opAddqSubq(op)
}

// Group 6: Bcc, BRA, BSR.
func (cpu *M68KCPU) decodeGroup6(op uint16) {
	base := cpu.PC
	disp := signExtend(uint32(op), M68K_SIZE_BYTE)
	if op&0xFF == 0 {
		disp = signExtend(uint32(cpu.fetchWord()), M68K_SIZE_WORD)
	}
	target := base + disp

	switch cc := (op >> 8) & 0xF; cc {
	case 0:
		cpu.PC = target
		cpu.cyc += 10
	case 1:
		cpu.push32(cpu.PC)
		cpu.PC = target
		cpu.cyc += 18
	default:
		if cpu.testCondition(cc) {
			cpu.PC = target
			cpu.cyc += 10
		} else {
			cpu.cyc += 8
		}
	}
}

// Group 7: MOVEQ.
func (cpu *M68KCPU) decodeGroup7(op uint16) {
	if op&0x0100 != 0 {
		cpu.illegal()
		return
	}
	v := signExtend(uint32(op), M68K_SIZE_BYTE)
	cpu.D[(op>>9)&7] = v
	cpu.setLogicFlags(v, M68K_SIZE_LONG)
	cpu.cyc += 4
}

// Group 8: OR, DIVU, DIVS, SBCD.
func (cpu *M68KCPU) decodeGroup8(op uint16) {
	switch {
	case (op>>6)&7 == 3:
		cpu.opDivu(op)
	case (op>>6)&7 == 7:
		cpu.opDivs(op)
	case op&0x01F0 == 0x0100:
		cpu.opBcd(op, true)
	default:
		cpu.opLogic(op, logicOr)
	}
}

// Groups 9 and D: SUB and ADD with their A and X forms.
func (cpu *M68KCPU) decodeGroup9D(op uint16) {
	sub := op>>12 == 0x9
	opmode := (op >> 6) & 7
	switch {
	case opmode == 3 || opmode == 7:
		cpu.opAddaSuba(op, sub)
	case op&0x0130 == 0x0100:
		cpu.opAddxSubx(op, sub)
	default:
		cpu.opAddSub(op, sub)
	}
}

func (cpu *M68KCPU) decodeGroupA(op uint16) {
	cpu.fault(M68K_VEC_LINE_A)
}

// Group B: CMP, CMPA, CMPM, EOR.
func (cpu *M68KCPU) decodeGroupB(op uint16) {
	opmode := (op >> 6) & 7
	mode, _ := eaFields(op)
	switch {
	case opmode == 3 || opmode == 7:
		cpu.opCmpa(op)
	case opmode < 3:
		cpu.opCmp(op)
	case mode == 1:
		cpu.opCmpm(op)
	default:
		cpu.opLogic(op, logicEor)
	}
}

// Group C: AND, MULU, MULS, ABCD, EXG.
func (cpu *M68KCPU) decodeGroupC(op uint16) {
	switch {
	case (op>>6)&7 == 3:
		cpu.opMul(op, false)
	case (op>>6)&7 == 7:
		cpu.opMul(op, true)
	case op&0x01F0 == 0x0100:
		cpu.opBcd(op, false)
	case op&0x01F8 == 0x0140, op&0x01F8 == 0x0148, op&0x01F8 == 0x0188:
		cpu.opExg(op)
	default:
		cpu.opLogic(op, logicAnd)
	}
}

// Group E: shifts and rotates.
func (cpu *M68KCPU) decodeGroupE(op uint16) {
	if (op>>6)&3 == 3 {
		cpu.opShiftMemory(op)
		return
	}
	cpu.opShiftRegister(op)
}

func (cpu *M68KCPU) decodeGroupF(op uint16) {
	cpu.fault(M68K_VEC_LINE_F)
}
