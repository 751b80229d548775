// paula_engine.go - Amiga Paula four-channel DMA sample playback

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
paula_engine.go - Paula PCM Engine

Each channel reads signed 8-bit samples from emulated memory. A 16.16
phase accumulator steps through the sample at PAULA_CLOCK_PAL/period
bytes per second; the engine renders at the output rate directly.

DMA semantics:
- Location and length are latched when DMA starts and at every loop
  boundary, so writes to them prepare the next loop
- Period and volume act immediately
- A block of length 0 plays its first byte and then falls silent, so
  loading length 0 for the next loop ends a sample after one pass
- With its DMA off a channel plays the word last written to AUDxDAT,
  high byte first, over and over

Channels 0 and 3 feed the left output, 1 and 2 the right.
*/

package sc68

type paulaWrite struct {
	cycle uint64
	reg   uint16 // offset from PAULA_BASE
	value uint16
}

type paulaVoice struct {
	lc  uint32
	len uint16
	per uint16
	vol uint16
	dat uint16

	playing bool
	manual  bool   // driven by AUDxDAT instead of DMA
	ptr     uint32 // next byte to fetch
	remain  uint32 // bytes left in the block after cur
	phase   uint32 // 16.16 position within cur
	cur     int8
}

type PaulaEngine struct {
	tb          timebase
	mem         *MemoryArena
	blend       int32
	interpolate bool

	regs   [0x100]uint16 // CPU-visible word registers, index = offset/2
	writes []paulaWrite

	dmacon uint16 // applied
	voices [PAULA_CHANNELS]paulaVoice
}

func NewPaulaEngine(cfg Config, mem *MemoryArena) *PaulaEngine {
	e := &PaulaEngine{
		mem:         mem,
		blend:       int32(cfg.AmigaBlend),
		interpolate: cfg.PaulaInterpolate,
		writes:      make([]paulaWrite, 0, 256),
	}
	e.reset()
	return e
}

func (e *PaulaEngine) ioRange() (uint32, uint32) { return PAULA_BASE, PAULA_END }

func (e *PaulaEngine) reset() {
	e.regs = [0x100]uint16{}
	e.writes = e.writes[:0]
	e.dmacon = 0
	for i := range e.voices {
		e.voices[i] = paulaVoice{}
	}
}

// ------------------------------------------------------------------------------
// Bus port
// ------------------------------------------------------------------------------

func (e *PaulaEngine) readWord(off uint32) uint16 {
	switch off {
	case PAULA_DMACONR:
		return e.regs[PAULA_DMACON/2]
	case PAULA_ADKCONR:
		return e.regs[PAULA_ADKCON/2]
	case PAULA_INTENAR:
		return e.regs[PAULA_INTENA/2]
	case PAULA_INTREQR:
		return e.regs[PAULA_INTREQ/2]
	}
	return 0
}

func (e *PaulaEngine) busRead(sz M68KSize, addr uint32, cycle uint64) uint32 {
	off := addr - PAULA_BASE
	switch sz {
	case M68K_SIZE_BYTE:
		w := e.readWord(off &^ 1)
		if off&1 == 0 {
			return uint32(w >> 8)
		}
		return uint32(w & 0xFF)
	case M68K_SIZE_WORD:
		return uint32(e.readWord(off))
	}
	return uint32(e.readWord(off))<<16 | uint32(e.readWord(off+2))
}

func (e *PaulaEngine) busWrite(sz M68KSize, addr uint32, value uint32, cycle uint64) {
	off := addr - PAULA_BASE
	switch sz {
	case M68K_SIZE_BYTE:
		// A byte write merges with the other half of the register.
		w := e.regs[(off&^1)/2]
		if off&1 == 0 {
			w = w&0x00FF | uint16(value)<<8
		} else {
			w = w&0xFF00 | uint16(value&0xFF)
		}
		e.writeWord(off&^1, w, cycle)
	case M68K_SIZE_WORD:
		e.writeWord(off, uint16(value), cycle)
	default:
		e.writeWord(off, uint16(value>>16), cycle)
		e.writeWord(off+2, uint16(value), cycle)
	}
}

func (e *PaulaEngine) writeWord(off uint32, v uint16, cycle uint64) {
	if off >= uint32(len(e.regs))*2 {
		return
	}
	switch off {
	case PAULA_DMACON, PAULA_INTENA, PAULA_INTREQ, PAULA_ADKCON:
		e.regs[off/2] = setClear(e.regs[off/2], v)
	default:
		e.regs[off/2] = v
	}
	e.writes = append(e.writes, paulaWrite{cycle: cycle, reg: uint16(off), value: v})
}

// setClear applies an Amiga SET/CLR write: bit 15 selects whether the
// other set bits are set or cleared.
func setClear(reg, v uint16) uint16 {
	if v&PAULA_DMA_SETCLR != 0 {
		return reg | v&^PAULA_DMA_SETCLR
	}
	return reg &^ v
}

// ------------------------------------------------------------------------------
// Voices
// ------------------------------------------------------------------------------

func (e *PaulaEngine) apply(w paulaWrite) {
	if w.reg == PAULA_DMACON {
		old := e.dmacon
		e.dmacon = setClear(e.dmacon, w.value)
		for ch := range e.voices {
			was, now := dmaOn(old, ch), dmaOn(e.dmacon, ch)
			switch {
			case now && !was:
				e.startVoice(&e.voices[ch])
			case was && !now:
				e.voices[ch].playing = false
				e.voices[ch].manual = false
				e.voices[ch].cur = 0
			}
		}
		return
	}
	if w.reg < PAULA_AUD0 || w.reg >= PAULA_AUD0+PAULA_CHANNELS*PAULA_AUD_STRIDE {
		return
	}
	ch := int(w.reg-PAULA_AUD0) / PAULA_AUD_STRIDE
	v := &e.voices[ch]
	switch (w.reg - PAULA_AUD0) % PAULA_AUD_STRIDE {
	case PAULA_AUD_LCH:
		v.lc = v.lc&0xFFFF | uint32(w.value)<<16
	case PAULA_AUD_LCL:
		v.lc = v.lc&0xFFFF0000 | uint32(w.value&^1)
	case PAULA_AUD_LEN:
		v.len = w.value
	case PAULA_AUD_PER:
		v.per = w.value
	case PAULA_AUD_VOL:
		v.vol = min(w.value&0x7F, PAULA_VOL_MAX)
	case PAULA_AUD_DAT:
		v.dat = w.value
		if !dmaOn(e.dmacon, ch) && !v.manual {
			v.manual = true
			v.playing = true
			v.phase = 0
			v.cur = datByte(v.dat, 0)
			v.ptr = 1
		}
	}
}

// datByte returns byte i of the repeating AUDxDAT word.
func datByte(dat uint16, i uint32) int8 {
	if i&1 == 0 {
		return int8(dat >> 8)
	}
	return int8(dat)
}

func dmaOn(dmacon uint16, ch int) bool {
	return dmacon&PAULA_DMA_MASTER != 0 && dmacon&(1<<ch) != 0
}

// startVoice latches location and length and loads the first byte.
func (e *PaulaEngine) startVoice(v *paulaVoice) {
	v.playing = true
	v.manual = false
	v.phase = 0
	v.ptr = v.lc
	v.cur = int8(e.mem.Byte(v.ptr))
	v.ptr++
	v.remain = uint32(v.len) * 2
	if v.remain > 0 {
		v.remain--
	}
}

// nextByte moves to the following sample byte, reloading the registers at
// the end of a block.
func (e *PaulaEngine) nextByte(v *paulaVoice) {
	if v.manual {
		v.cur = datByte(v.dat, v.ptr)
		v.ptr++
		return
	}
	if v.remain == 0 {
		if v.len == 0 {
			v.playing = false
			v.cur = 0
			return
		}
		v.ptr = v.lc
		v.remain = uint32(v.len) * 2
	}
	v.cur = int8(e.mem.Byte(v.ptr))
	v.ptr++
	v.remain--
}

// peek returns the byte that follows cur.
func (e *PaulaEngine) peek(v *paulaVoice) int8 {
	switch {
	case v.manual:
		return datByte(v.dat, v.ptr)
	case v.remain > 0:
		return int8(e.mem.Byte(v.ptr))
	case v.len != 0:
		return int8(e.mem.Byte(v.lc))
	}
	return 0
}

// voiceSample returns the channel's output for one sample and steps it.
func (e *PaulaEngine) voiceSample(v *paulaVoice) int32 {
	if !v.playing {
		return 0
	}
	s := int32(v.cur) << 8
	if e.interpolate {
		next := int32(e.peek(v)) << 8
		s += (next - s) * int32(v.phase>>8) >> 8
	}
	s = s * int32(v.vol) >> 8

	if v.per != 0 {
		v.phase += uint32((uint64(PAULA_CLOCK_PAL) << 16) / (uint64(v.per) * e.tb.rate))
		for v.phase >= 1<<16 && v.playing {
			v.phase -= 1 << 16
			e.nextByte(v)
		}
	}
	return s
}

// ------------------------------------------------------------------------------
// Rendering
// ------------------------------------------------------------------------------

func (e *PaulaEngine) applyWrites(cycle uint64) {
	n := 0
	for n < len(e.writes) && e.writes[n].cycle < cycle {
		e.apply(e.writes[n])
		n++
	}
	e.writes = e.writes[:copy(e.writes, e.writes[n:])]
}

func (e *PaulaEngine) start(tb timebase) {
	e.tb = tb
	for _, w := range e.writes {
		e.apply(w)
	}
	e.writes = e.writes[:0]
}

// render adds samples first.. to out and consumes the writes stamped
// before end.
func (e *PaulaEngine) render(out []int32, first, end uint64) error {
	for i := range len(out) / 2 {
		e.applyWrites(e.tb.sampleCycle(first + uint64(i)))

		l := e.voiceSample(&e.voices[0]) + e.voiceSample(&e.voices[3])
		r := e.voiceSample(&e.voices[1]) + e.voiceSample(&e.voices[2])
		l, r = l*2, r*2
		if e.blend != 0 {
			l, r = (l*(256-e.blend)+r*e.blend)>>8, (r*(256-e.blend)+l*e.blend)>>8
		}
		out[2*i] += l
		out[2*i+1] += r
	}
	e.applyWrites(end)
	return nil
}
