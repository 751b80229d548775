// cpu_m68k_ops_move.go - Data movement instructions.

package sc68

// MOVE and MOVEA. The size field is 1 = byte, 3 = word, 2 = long.
func (cpu *M68KCPU) decodeMove(op uint16) {
	var sz M68KSize
	switch op >> 12 {
	case 1:
		sz = M68K_SIZE_BYTE
	case 3:
		sz = M68K_SIZE_WORD
	default:
		sz = M68K_SIZE_LONG
	}
	srcMode, srcReg := eaFields(op)
	dstMode, dstReg := (op>>6)&7, (op>>9)&7

	if !eaAllowed(srcMode, srcReg, M68K_EA_ALL) || (sz == M68K_SIZE_BYTE && srcMode == 1) {
		cpu.illegal()
		return
	}
	if dstMode == 1 {
		if sz == M68K_SIZE_BYTE {
			cpu.illegal()
			return
		}
		cpu.A[dstReg] = signExtend(cpu.readEA(srcMode, srcReg, sz), sz)
		cpu.cyc += 4
		return
	}
	if !eaAllowed(dstMode, dstReg, M68K_EA_DATA_ALT) {
		cpu.illegal()
		return
	}

	v := cpu.readEA(srcMode, srcReg, sz)
	dst := cpu.resolveEA(dstMode, dstReg, sz)
	cpu.writeOperand(dst, v)
	cpu.setLogicFlags(v, sz)
	cpu.cyc += 4
}

// MOVEP transfers bytes to or from every other address, the way 8-bit
// peripherals sit on one half of the 68000 data bus.
func (cpu *M68KCPU) opMovep(op uint16) {
	dn := (op >> 9) & 7
	addr := cpu.A[op&7] + signExtend(uint32(cpu.fetchWord()), M68K_SIZE_WORD)
	n := 2
	if op&0x0040 != 0 {
		n = 4
	}

	if op&0x0080 == 0 {
		var v uint32
		for i := range n {
			v = v<<8 | cpu.read(M68K_SIZE_BYTE, addr+uint32(2*i))
		}
		if n == 2 {
			cpu.D[dn] = cpu.D[dn]&0xFFFF0000 | v
		} else {
			cpu.D[dn] = v
		}
	} else {
		v := cpu.D[dn]
		for i := range n {
			shift := uint(8 * (n - 1 - i))
			cpu.write(M68K_SIZE_BYTE, addr+uint32(2*i), v>>shift)
		}
	}
	cpu.cyc += 8 + 4*n
}

// MOVEM. In predecrement mode the mask is reversed (bit 0 = A7).
func (cpu *M68KCPU) opMovem(op uint16) {
	toRegs := op&0x0400 != 0
	sz := M68K_SIZE_WORD
	if op&0x0040 != 0 {
		sz = M68K_SIZE_LONG
	}
	mode, reg := eaFields(op)
	allowed := uint16(M68K_EA_CTRL_ALT | M68K_EA_PRE)
	if toRegs {
		allowed = M68K_EA_CONTROL | M68K_EA_POST
	}
	if !eaAllowed(mode, reg, allowed) {
		cpu.illegal()
		return
	}
	mask := cpu.fetchWord()
	step := sz.bytes()
	perReg := 4
	if sz == M68K_SIZE_LONG {
		perReg = 8
	}

	if mode == 4 {
		addr := cpu.A[reg]
		for i := range 16 {
			if mask&(1<<i) == 0 {
				continue
			}
			addr -= step
			r := 15 - i
			var v uint32
			if r >= 8 {
				v = cpu.A[r-8]
			} else {
				v = cpu.D[r]
			}
			cpu.write(sz, addr, v)
			cpu.cyc += perReg
		}
		cpu.A[reg] = addr
		cpu.cyc += 8
		return
	}

	var addr uint32
	if mode == 3 {
		addr = cpu.A[reg]
	} else {
		addr = cpu.resolveEA(mode, reg, sz).addr
	}
	for i := range 16 {
		if mask&(1<<i) == 0 {
			continue
		}
		if toRegs {
			v := signExtend(cpu.read(sz, addr), sz)
			if i < 8 {
				cpu.D[i] = v
			} else {
				cpu.A[i-8] = v
			}
		} else {
			var v uint32
			if i < 8 {
				v = cpu.D[i]
			} else {
				v = cpu.A[i-8]
			}
			cpu.write(sz, addr, v)
		}
		addr += step
		cpu.cyc += perReg
	}
	if mode == 3 {
		cpu.A[reg] = addr
	}
	cpu.cyc += 12
}

func (cpu *M68KCPU) opLea(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_CONTROL) {
		cpu.illegal()
		return
	}
	cpu.A[(op>>9)&7] = cpu.resolveEA(mode, reg, M68K_SIZE_LONG).addr
	cpu.cyc += 4
}

func (cpu *M68KCPU) opPea(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_CONTROL) {
		cpu.illegal()
		return
	}
	cpu.push32(cpu.resolveEA(mode, reg, M68K_SIZE_LONG).addr)
	cpu.cyc += 12
}

func (cpu *M68KCPU) opSwap(reg uint16) {
	v := cpu.D[reg]<<16 | cpu.D[reg]>>16
	cpu.D[reg] = v
	cpu.setLogicFlags(v, M68K_SIZE_LONG)
	cpu.cyc += 4
}

func (cpu *M68KCPU) opExt(op uint16) {
	reg := op & 7
	if op&0x0040 == 0 {
		v := signExtend(cpu.D[reg], M68K_SIZE_BYTE) & 0xFFFF
		cpu.D[reg] = cpu.D[reg]&0xFFFF0000 | v
		cpu.setLogicFlags(v, M68K_SIZE_WORD)
	} else {
		v := signExtend(cpu.D[reg], M68K_SIZE_WORD)
		cpu.D[reg] = v
		cpu.setLogicFlags(v, M68K_SIZE_LONG)
	}
	cpu.cyc += 4
}

func (cpu *M68KCPU) opExg(op uint16) {
	rx, ry := (op>>9)&7, op&7
	switch op & 0x01F8 {
	case 0x0140:
		cpu.D[rx], cpu.D[ry] = cpu.D[ry], cpu.D[rx]
	case 0x0148:
		cpu.A[rx], cpu.A[ry] = cpu.A[ry], cpu.A[rx]
	default:
		cpu.D[rx], cpu.A[ry] = cpu.A[ry], cpu.D[rx]
	}
	cpu.cyc += 6
}

func (cpu *M68KCPU) opLink(reg uint16) {
	disp := signExtend(uint32(cpu.fetchWord()), M68K_SIZE_WORD)
	cpu.push32(cpu.A[reg])
	cpu.A[reg] = cpu.A[7]
	cpu.A[7] += disp
	cpu.cyc += 16
}

func (cpu *M68KCPU) opUnlk(reg uint16) {
	cpu.A[7] = cpu.A[reg]
	cpu.A[reg] = cpu.pop32()
	cpu.cyc += 12
}

func (cpu *M68KCPU) opMoveUSP(op uint16) {
	if !cpu.privileged() {
		return
	}
	if op&0x0008 == 0 {
		cpu.USP = cpu.A[op&7]
	} else {
		cpu.A[op&7] = cpu.USP
	}
	cpu.cyc += 4
}

// MOVE from SR is unprivileged on the 68000.
func (cpu *M68KCPU) opMoveFromSR(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_DATA_ALT) {
		cpu.illegal()
		return
	}
	dst := cpu.resolveEA(mode, reg, M68K_SIZE_WORD)
	cpu.writeOperand(dst, uint32(cpu.SR.Pack()))
	cpu.cyc += 6
}

func (cpu *M68KCPU) opMoveToCCR(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_DATA) {
		cpu.illegal()
		return
	}
	cpu.SR.SetCCR(uint8(cpu.readEA(mode, reg, M68K_SIZE_WORD)))
	cpu.cyc += 12
}

func (cpu *M68KCPU) opMoveToSR(op uint16) {
	mode, reg := eaFields(op)
	if !eaAllowed(mode, reg, M68K_EA_DATA) {
		cpu.illegal()
		return
	}
	if !cpu.privileged() {
		return
	}
	cpu.SetSR(uint16(cpu.readEA(mode, reg, M68K_SIZE_WORD)))
	cpu.cyc += 12
}
