// ym_blep_engine.go - YM2149 synthesis with band-limited steps

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
ym_blep_engine.go - YM2149 BLEP Engine

The three tone generators, the noise generator and the envelope generator
run at the 250 kHz generator clock. Instead of rendering that clock, the
engine jumps from one generator event to the next and only records where
the summed DAC output changes. Each change becomes a band-limited step
(blepEvent) that is mixed into every output sample that follows it, so
square waves far above the output rate do not alias.

Timing:
- CPU cycles map to generator ticks through the session timebase
- Register writes are queued with their CPU cycle and applied at that tick
- Sample n is taken at tick n*YM_TICK_HZ/rate, with a 16-bit fraction

Output:
- settled level plus the interpolated kernel of every recent step
- a leaky high-pass removes the DC the unipolar DAC produces
- scaled by 1/3 so three full-scale channels fit in 16 bits
*/

package sc68

import (
	"fmt"
	"math"
)

const ymNever = math.MaxUint64

// ymWrite is a register write captured from the bus.
type ymWrite struct {
	cycle uint64
	reg   uint8
	value uint8
}

// blepEvent is a change of the summed output at a generator tick.
type blepEvent struct {
	stamp uint64
	delta int32
}

// ymGenerator is the timing shared by all five generators: it fires every
// period ticks measured from the last time it fired.
type ymGenerator struct {
	period uint64 // ticks, 0 when frozen
	last   uint64
	next   uint64
}

// setPeriod keeps the elapsed count. If it already exceeds the new
// period the generator fires at now.
func (g *ymGenerator) setPeriod(period, now uint64) {
	g.period = period
	if period == 0 {
		g.next = ymNever
		return
	}
	g.next = max(g.last+period, now)
}

func (g *ymGenerator) restart(now uint64) {
	g.last = now
	g.setPeriod(g.period, now)
}

func (g *ymGenerator) fire(now uint64) {
	g.last = now
	g.next = now + g.period
}

type YMBlepEngine struct {
	tb        timebase
	leakShift uint

	shadow [YM_REG_COUNT]uint8 // CPU view
	sel    uint8
	writes []ymWrite

	regs [YM_REG_COUNT]uint8 // applied
	tick uint64              // ticks before this one are processed

	tone     [3]ymGenerator
	toneHigh [3]bool

	noise     ymGenerator
	noiseLFSR uint32
	noiseHigh bool

	env       ymGenerator
	envStep   int // 0-31 within the current ramp
	envAttack bool
	envHold   bool

	output int32 // summed DAC output at tick

	bleps    []blepEvent // ring
	head     int
	count    int
	settled  int32
	dc       int64 // 16.16 running mean
	overflow int   // transitions lost to a full queue this render
}

func NewYMBlepEngine(cfg Config) *YMBlepEngine {
	e := &YMBlepEngine{
		leakShift: cfg.BlepLeakShift,
		bleps:     make([]blepEvent, cfg.BlepCapacity),
		writes:    make([]ymWrite, 0, 256),
	}
	e.reset()
	return e
}

func (e *YMBlepEngine) ioRange() (uint32, uint32) { return YM_BASE, YM_END }

func (e *YMBlepEngine) reset() {
	e.shadow = [YM_REG_COUNT]uint8{}
	e.sel = 0
	e.writes = e.writes[:0]
	e.regs = [YM_REG_COUNT]uint8{}
	e.tick = 0
	for i := range e.tone {
		e.tone[i] = ymGenerator{next: ymNever}
		e.toneHigh[i] = true
	}
	e.noise = ymGenerator{next: ymNever}
	e.noiseLFSR = YM_LFSR_RESET
	e.noiseHigh = true
	e.env = ymGenerator{next: ymNever}
	e.envStep = 0
	e.envAttack = false
	e.envHold = false
	e.output = e.level()
	e.head, e.count = 0, 0
	e.settled = e.output
	e.dc = int64(e.settled) << 16
	e.overflow = 0
}

// ------------------------------------------------------------------------------
// Bus port
// ------------------------------------------------------------------------------

// The YM sits on the high half of the data bus and is mirrored every four
// bytes: offset 0 selects a register (reads return its value), offset 2
// writes the selected register. Odd addresses do not respond.
func (e *YMBlepEngine) readReg(addr uint32) uint8 {
	if addr&1 != 0 || e.sel >= YM_REG_COUNT {
		return 0xFF
	}
	return e.shadow[e.sel]
}

func (e *YMBlepEngine) busRead(sz M68KSize, addr uint32, cycle uint64) uint32 {
	return readBytes(sz, addr, e.readReg)
}

func (e *YMBlepEngine) busWrite(sz M68KSize, addr uint32, value uint32, cycle uint64) {
	writeBytes(sz, addr, value, func(a uint32, v uint8) {
		switch a & 3 {
		case 0:
			e.sel = v
		case 2:
			e.writeRegister(e.sel, v, cycle)
		}
	})
}

// writeRegister queues a write; the shadow copy changes immediately.
func (e *YMBlepEngine) writeRegister(reg, v uint8, cycle uint64) {
	if reg >= YM_REG_COUNT {
		return
	}
	v &= ymRegMask[reg]
	e.shadow[reg] = v
	e.writes = append(e.writes, ymWrite{cycle: cycle, reg: reg, value: v})
}

// ------------------------------------------------------------------------------
// Generators
// ------------------------------------------------------------------------------

func (e *YMBlepEngine) tonePeriod(ch int) uint64 {
	return uint64(e.regs[2*ch]) | uint64(e.regs[2*ch+1])<<8
}

// apply performs a register write at tick now.
func (e *YMBlepEngine) apply(reg, v uint8, now uint64) {
	e.regs[reg] = v
	switch reg {
	case YM_REG_TONE_A_FINE, YM_REG_TONE_A_COARSE, YM_REG_TONE_B_FINE,
		YM_REG_TONE_B_COARSE, YM_REG_TONE_C_FINE, YM_REG_TONE_C_COARSE:
		ch := int(reg / 2)
		p := e.tonePeriod(ch)
		e.tone[ch].setPeriod(p, now)
		if p == 0 {
			e.toneHigh[ch] = true
		}
	case YM_REG_NOISE:
		e.noise.setPeriod(2*uint64(v), now)
	case YM_REG_ENV_FINE, YM_REG_ENV_COARSE:
		p := uint64(e.regs[YM_REG_ENV_FINE]) | uint64(e.regs[YM_REG_ENV_COARSE])<<8
		e.env.setPeriod(p, now)
	case YM_REG_ENV_SHAPE:
		e.envStep = 0
		e.envAttack = v&YM_ENV_ATTACK != 0
		e.envHold = false
		e.env.restart(now)
	}
	e.update(now)
}

func (e *YMBlepEngine) stepNoise() {
	bit := (e.noiseLFSR ^ e.noiseLFSR>>3) & 1
	e.noiseLFSR = e.noiseLFSR>>1 | bit<<16
	e.noiseHigh = e.noiseLFSR&1 != 0
}

// stepEnvelope moves one of 32 steps and applies the shape at the end of
// a ramp.
func (e *YMBlepEngine) stepEnvelope() {
	if e.envHold {
		return
	}
	e.envStep++
	if e.envStep < YM_LEVELS {
		return
	}
	shape := e.regs[YM_REG_ENV_SHAPE]
	switch {
	case shape&YM_ENV_CONTINUE == 0:
		e.envAttack = false
		e.envStep = YM_LEVELS - 1
		e.envHold = true
	case shape&YM_ENV_HOLD != 0:
		if shape&YM_ENV_ALTERNATE != 0 {
			e.envAttack = !e.envAttack
		}
		e.envStep = YM_LEVELS - 1
		e.envHold = true
	default:
		if shape&YM_ENV_ALTERNATE != 0 {
			e.envAttack = !e.envAttack
		}
		e.envStep = 0
	}
}

func (e *YMBlepEngine) envLevel() int {
	if e.envAttack {
		return e.envStep
	}
	return YM_LEVELS - 1 - e.envStep
}

// level is the summed DAC output of the three channels.
func (e *YMBlepEngine) level() int32 {
	mixer := e.regs[YM_REG_MIXER]
	var sum int32
	for ch := range 3 {
		toneOff := mixer&(1<<ch) != 0
		noiseOff := mixer&(8<<ch) != 0
		if !(e.toneHigh[ch] || toneOff) || !(e.noiseHigh || noiseOff) {
			continue
		}
		vol := e.regs[YM_REG_VOL_A+ch]
		idx := 0
		switch {
		case vol&YM_VOL_ENVELOPE != 0:
			idx = e.envLevel()
		case vol != 0:
			idx = 2*int(vol&0x0F) + 1
		}
		sum += ymLevels[idx]
	}
	return sum
}

// update records a step if the output changed at tick now.
func (e *YMBlepEngine) update(now uint64) {
	l := e.level()
	if l == e.output {
		return
	}
	e.pushBlep(now, l-e.output)
	e.output = l
}

// advance processes every generator event before tick to.
func (e *YMBlepEngine) advance(to uint64) {
	for {
		now := min(e.tone[0].next, e.tone[1].next, e.tone[2].next, e.noise.next, e.env.next)
		if now >= to {
			break
		}
		for ch := range e.tone {
			if e.tone[ch].next == now {
				e.toneHigh[ch] = !e.toneHigh[ch]
				e.tone[ch].fire(now)
			}
		}
		if e.noise.next == now {
			e.stepNoise()
			e.noise.fire(now)
		}
		if e.env.next == now {
			e.stepEnvelope()
			e.env.fire(now)
		}
		e.update(now)
	}
	e.tick = max(e.tick, to)
}

// ------------------------------------------------------------------------------
// BLEP queue
// ------------------------------------------------------------------------------

func (e *YMBlepEngine) pushBlep(stamp uint64, delta int32) {
	if e.count > 0 {
		last := &e.bleps[(e.head+e.count-1)%len(e.bleps)]
		if last.stamp == stamp {
			last.delta += delta
			return
		}
	}
	if e.count == len(e.bleps) {
		// Full: the step lands unfiltered.
		e.settled += delta
		e.overflow++
		return
	}
	e.bleps[(e.head+e.count)%len(e.bleps)] = blepEvent{stamp: stamp, delta: delta}
	e.count++
}

// sample evaluates the output at tick ti plus frac/65536. Steps past the
// end of the kernel are folded into the settled level.
func (e *YMBlepEngine) sample(ti uint64, frac uint32) int32 {
	for e.count > 0 {
		b := e.bleps[e.head]
		if ti-b.stamp < BLEP_KERNEL_LEN-1 {
			break
		}
		e.settled += b.delta
		e.head = (e.head + 1) % len(e.bleps)
		e.count--
	}

	acc := int64(e.settled) << 16
	for i := range e.count {
		b := e.bleps[(e.head+i)%len(e.bleps)]
		x := ti - b.stamp
		s0, s1 := int64(blepStep[x]), int64(blepStep[x+1])
		step := s0 + (s1-s0)*int64(frac)>>16
		acc += int64(b.delta) * step
	}
	v := acc >> 16

	e.dc += (v<<16 - e.dc) >> e.leakShift
	return int32((v - e.dc>>16) * 21845 >> 16)
}

// ------------------------------------------------------------------------------
// Rendering
// ------------------------------------------------------------------------------

func (e *YMBlepEngine) tickAt(cycle uint64) uint64 {
	if cycle <= e.tb.origin {
		return 0
	}
	return (cycle - e.tb.origin) * YM_TICK_HZ / e.tb.cpuHz
}

// applyWrites applies queued writes stamped before cycle and drops them.
func (e *YMBlepEngine) applyWrites(cycle uint64) {
	n := 0
	for n < len(e.writes) && e.writes[n].cycle < cycle {
		w := e.writes[n]
		now := max(e.tickAt(w.cycle), e.tick)
		e.advance(now)
		e.apply(w.reg, w.value, now)
		n++
	}
	e.writes = e.writes[:copy(e.writes, e.writes[n:])]
}

// start makes every queued write take effect silently and begins the
// output at tb.origin.
func (e *YMBlepEngine) start(tb timebase) {
	for _, w := range e.writes {
		e.regs[w.reg] = w.value
	}
	e.writes = e.writes[:0]
	e.tb = tb
	e.tick = 0
	for ch := range e.tone {
		e.tone[ch] = ymGenerator{}
		p := e.tonePeriod(ch)
		e.tone[ch].setPeriod(p, 0)
		e.toneHigh[ch] = true
	}
	e.noise = ymGenerator{}
	e.noise.setPeriod(2*uint64(e.regs[YM_REG_NOISE]), 0)
	e.env = ymGenerator{}
	e.env.setPeriod(uint64(e.regs[YM_REG_ENV_FINE])|uint64(e.regs[YM_REG_ENV_COARSE])<<8, 0)
	e.envStep = 0
	e.envAttack = e.regs[YM_REG_ENV_SHAPE]&YM_ENV_ATTACK != 0
	e.envHold = false

	e.output = e.level()
	e.head, e.count = 0, 0
	e.settled = e.output
	e.dc = int64(e.settled) << 16
}

// render adds samples first.. to out (interleaved stereo) and consumes the
// writes stamped before end.
func (e *YMBlepEngine) render(out []int32, first, end uint64) error {
	rate := e.tb.rate
	for i := range len(out) / 2 {
		n := first + uint64(i)
		e.applyWrites(e.tb.sampleCycle(n))

		pos := n * YM_TICK_HZ
		ti := pos / rate
		frac := uint32((pos % rate) << 16 / rate)
		e.advance(ti + 1)

		s := e.sample(ti, frac)
		out[2*i] += s
		out[2*i+1] += s
	}
	e.applyWrites(end)

	if e.overflow > 0 {
		lost := e.overflow
		e.overflow = 0
		return fmt.Errorf("%w: %d transitions past capacity %d", ErrBlepOverflow, lost, len(e.bleps))
	}
	return nil
}
