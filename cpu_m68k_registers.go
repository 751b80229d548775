// cpu_m68k_registers.go - 68000 register file and status register.

package sc68

// StatusRegister is the 68000 SR. It is kept unpacked while the CPU runs and
// converted to the 16-bit hardware layout only when it is pushed, popped or
// moved.
type StatusRegister struct {
	T1, T0 bool
	S      bool
	IPL    uint8
	X      bool
	N      bool
	Z      bool
	V      bool
	C      bool
}

// Pack returns the hardware representation. Bits the 68000 does not
// implement read as zero.
func (sr StatusRegister) Pack() uint16 {
	v := uint16(sr.CCR()) | uint16(sr.IPL&7)<<8
	if sr.S {
		v |= M68K_SR_S
	}
	if sr.T0 {
		v |= M68K_SR_T0
	}
	if sr.T1 {
		v |= M68K_SR_T1
	}
	return v & M68K_SR_VALID
}

// UnpackStatus decodes a hardware SR value.
func UnpackStatus(v uint16) StatusRegister {
	sr := StatusRegister{
		T1:  v&M68K_SR_T1 != 0,
		T0:  v&M68K_SR_T0 != 0,
		S:   v&M68K_SR_S != 0,
		IPL: uint8(v>>8) & 7,
	}
	sr.SetCCR(uint8(v))
	return sr
}

// CCR returns the condition code byte.
func (sr StatusRegister) CCR() uint8 {
	var v uint8
	if sr.C {
		v |= M68K_SR_C
	}
	if sr.V {
		v |= M68K_SR_V
	}
	if sr.Z {
		v |= M68K_SR_Z
	}
	if sr.N {
		v |= M68K_SR_N
	}
	if sr.X {
		v |= M68K_SR_X
	}
	return v
}

// SetCCR replaces the condition codes and leaves the system byte alone.
func (sr *StatusRegister) SetCCR(v uint8) {
	sr.C = v&M68K_SR_C != 0
	sr.V = v&M68K_SR_V != 0
	sr.Z = v&M68K_SR_Z != 0
	sr.N = v&M68K_SR_N != 0
	sr.X = v&M68K_SR_X != 0
}

// Registers is the programmer-visible CPU state. A[7] is always the active
// stack pointer; the inactive one lives in USP or SSP.
type Registers struct {
	D   [8]uint32
	A   [8]uint32
	PC  uint32
	SR  StatusRegister
	USP uint32
	SSP uint32
}

// Reset restores the power-up state: supervisor mode, interrupts masked,
// PC at entry and both stacks at stackTop.
func (r *Registers) Reset(entry, stackTop uint32) {
	*r = Registers{}
	r.PC = entry
	r.SR = UnpackStatus(M68K_SR_S | M68K_SR_IPL)
	r.A[7] = stackTop
	r.SSP = stackTop
	r.USP = stackTop
}

// SetSR loads a packed SR, switching stack pointers when S changes.
func (r *Registers) SetSR(v uint16) {
	next := UnpackStatus(v)
	r.setSupervisor(next.S)
	r.SR = next
}

// setSupervisor switches mode and swaps A7 with the saved stack pointer.
func (r *Registers) setSupervisor(on bool) {
	if on == r.SR.S {
		return
	}
	if on {
		r.USP = r.A[7]
		r.A[7] = r.SSP
	} else {
		r.SSP = r.A[7]
		r.A[7] = r.USP
	}
	r.SR.S = on
}

// UserSP returns the user stack pointer whichever mode is active.
func (r *Registers) UserSP() uint32 {
	if r.SR.S {
		return r.USP
	}
	return r.A[7]
}

// SupervisorSP returns the supervisor stack pointer whichever mode is active.
func (r *Registers) SupervisorSP() uint32 {
	if r.SR.S {
		return r.A[7]
	}
	return r.SSP
}
