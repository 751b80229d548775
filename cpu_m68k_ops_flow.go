// cpu_m68k_ops_flow.go - Program control and system instructions.

package sc68

// JSR and JMP.
func (cpu *M68KCPU) opJump(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_CONTROL) {
		cpu.illegal()
		return
	}
	target := cpu.resolveEA(mode, reg, M68K_SIZE_LONG).addr
	if op&0x0040 == 0 {
		cpu.push32(cpu.PC)
		cpu.cyc += 16
	} else {
		cpu.cyc += 8
	}
	cpu.PC = target
}

// DBcc: the displacement is relative to the extension word.
func (cpu *M68KCPU) opDbcc(op uint16) {
	base := cpu.PC
	disp := signExtend(uint32(cpu.fetchWord()), M68K_SIZE_WORD)
	if cpu.testCondition((op >> 8) & 0xF) {
		cpu.cyc += 12
		return
	}
	reg := op & 7
	count := uint16(cpu.D[reg]) - 1
	cpu.D[reg] = cpu.D[reg]&0xFFFF0000 | uint32(count)
	if count == 0xFFFF {
		cpu.cyc += 14
		return
	}
	cpu.PC = base + disp
	cpu.cyc += 10
}

func (cpu *M68KCPU) opRte() {
	if !cpu.privileged() {
		return
	}
	sr := cpu.pop16()
	pc := cpu.pop32()
	if cpu.faulted {
		return
	}
	cpu.SetSR(sr)
	cpu.PC = pc
	cpu.cyc += 20
}

func (cpu *M68KCPU) opRtr() {
	ccr := cpu.pop16()
	pc := cpu.pop32()
	if cpu.faulted {
		return
	}
	cpu.SR.SetCCR(uint8(ccr))
	cpu.PC = pc
	cpu.cyc += 20
}

func (cpu *M68KCPU) opTrapv() {
	cpu.cyc += 4
	if cpu.SR.V {
		cpu.exception(M68K_VEC_TRAPV, 0)
	}
}

// STOP loads SR and idles until an interrupt. The HW_STOP pseudo vector
// reports the transition. When tracing was on, the trace exception wins
// and the CPU stays in the Normal state.
func (cpu *M68KCPU) opStop() {
	imm := cpu.fetchWord()
	if !cpu.privileged() {
		return
	}
	saved := cpu.SR
	cpu.SetSR(imm)
	cpu.state = RunStopped
	cpu.raise(exceptionEvent{vector: M68K_VEC_HW_STOP, pc: cpu.PC})
	if saved.T1 {
		cpu.SR.T1 = true
		if cpu.state == RunStopped {
			cpu.state = RunNormal
		}
	}
	cpu.cyc += 4
}

// RESET is a pseudo hardware reset that halts the CPU.
func (cpu *M68KCPU) opReset() {
	if !cpu.privileged() {
		return
	}
	cpu.exception(M68K_VEC_HW_RESET, 0)
	cpu.cyc += 132
}
