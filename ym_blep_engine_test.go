// ym_blep_engine_test.go - YM2149 BLEP engine tests

package sc68

import (
	"errors"
	"math"
	"testing"
)

var testTimebase = timebase{cpuHz: M68K_CLOCK_ATARI, rate: 44100}

func newTestYM(t *testing.T, capacity int, regs map[uint8]uint8) *YMBlepEngine {
	t.Helper()
	cfg := DefaultConfig()
	if capacity != 0 {
		cfg.BlepCapacity = capacity
	}
	e := NewYMBlepEngine(cfg)
	for r, v := range regs {
		e.writeRegister(r, v, 0)
	}
	e.start(testTimebase)
	return e
}

// renderYM renders n mono samples from first, in chunks of chunk samples.
func renderYM(t *testing.T, e *YMBlepEngine, first uint64, n, chunk int) ([]int32, error) {
	t.Helper()
	out := make([]int32, 0, n)
	var firstErr error
	for done := 0; done < n; done += chunk {
		c := min(chunk, n-done)
		buf := make([]int32, 2*c)
		start := first + uint64(done)
		err := e.render(buf, start, testTimebase.sampleCycle(start+uint64(c)))
		if err != nil && firstErr == nil {
			firstErr = err
		}
		for i := range c {
			if buf[2*i] != buf[2*i+1] {
				t.Fatalf("sample %d: left %d right %d differ", int(start)+i, buf[2*i], buf[2*i+1])
			}
			out = append(out, buf[2*i])
		}
	}
	return out, firstErr
}

// 200 Hz on channel A at full volume, everything else off.
var ymSquare200 = map[uint8]uint8{
	YM_REG_TONE_A_FINE:   625 & 0xFF,
	YM_REG_TONE_A_COARSE: 625 >> 8,
	YM_REG_MIXER:         0x3E,
	YM_REG_VOL_A:         15,
}

func TestYM_TonePeriodZeroIsConstant(t *testing.T) {
	e := newTestYM(t, 0, map[uint8]uint8{
		YM_REG_MIXER: 0x3E,
		YM_REG_VOL_A: 15,
	})
	out, err := renderYM(t, e, 0, 4410, 4410)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range out {
		if v != 0 {
			t.Fatalf("sample %d = %d, want a constant 0", i, v)
		}
	}
}

func TestYM_Deterministic(t *testing.T) {
	regs := map[uint8]uint8{
		YM_REG_TONE_A_FINE: 0x37, YM_REG_TONE_B_FINE: 0xC1, YM_REG_TONE_C_COARSE: 0x02,
		YM_REG_NOISE: 7, YM_REG_MIXER: 0x30,
		YM_REG_VOL_A: 12, YM_REG_VOL_B: 0x10, YM_REG_VOL_C: 9,
		YM_REG_ENV_FINE: 0x40, YM_REG_ENV_SHAPE: 0x0E,
	}
	run := func(chunk int) []int32 {
		e := newTestYM(t, 0, regs)
		for i := range 20 {
			e.writeRegister(YM_REG_TONE_A_FINE, uint8(i*13), testTimebase.sampleCycle(uint64(i*400)+37))
		}
		out, err := renderYM(t, e, 0, 8820, chunk)
		if err != nil {
			t.Fatal(err)
		}
		return out
	}
	ref := run(8820)
	for _, chunk := range []int{1, 7, 441, 1000} {
		got := run(chunk)
		for i := range ref {
			if got[i] != ref[i] {
				t.Fatalf("chunk %d: sample %d = %d, want %d", chunk, i, got[i], ref[i])
			}
		}
	}
}

// blepCentroid is the mean delay of the kernel in ticks.
func blepCentroid() float64 {
	var sum float64
	for x := 0; x+1 < BLEP_KERNEL_LEN; x++ {
		sum += (float64(x) + 0.5) * float64(blepStep[x+1]-blepStep[x])
	}
	return sum / BLEP_ONE
}

func TestYM_SquareMatchesReference(t *testing.T) {
	e := newTestYM(t, 0, ymSquare200)
	const n = 44100
	out, err := renderYM(t, e, 0, n, 512)
	if err != nil {
		t.Fatal(err)
	}

	delay := blepCentroid()
	const period = 625.0 // ticks per half cycle
	const guard = 112.0

	var dc int64 = 32767 << 16
	compared, worst := 0, int64(0)
	for i := range n {
		tick := float64(i)*YM_TICK_HZ/44100 - delay
		var v int64
		if tick < period || int(math.Floor(tick/period))%2 == 0 {
			v = 32767
		}
		dc += (v<<16 - dc) >> DEFAULT_BLEP_LEAK_SHIFT
		ref := (v - dc>>16) * 21845 >> 16

		edge := math.Round(tick/period) * period
		if edge >= period && math.Abs(tick-edge) < guard {
			continue
		}
		compared++
		d := int64(out[i]) - ref
		worst = max(worst, d, -d)
		if d > 64 || d < -64 {
			t.Fatalf("sample %d = %d, reference %d", i, out[i], ref)
		}
	}
	if compared < n/2 {
		t.Fatalf("only %d samples compared", compared)
	}
	t.Logf("compared %d samples, worst difference %d", compared, worst)
}

func TestYM_SquareIsBounded(t *testing.T) {
	e := newTestYM(t, 0, ymSquare200)
	out, _ := renderYM(t, e, 0, 44100, 44100)
	lo, hi := int32(math.MaxInt32), int32(math.MinInt32)
	for _, v := range out[22050:] {
		lo, hi = min(lo, v), max(hi, v)
	}
	// 32767/3 peak to peak, centred by the high-pass
	if hi-lo < 10000 || hi-lo > 12500 || hi < 4000 || lo > -4000 {
		t.Fatalf("range [%d, %d]", lo, hi)
	}
}

func TestYM_BlepOverflow(t *testing.T) {
	e := newTestYM(t, 4, map[uint8]uint8{
		YM_REG_TONE_A_FINE: 1, YM_REG_TONE_B_FINE: 2, YM_REG_TONE_C_FINE: 3,
		YM_REG_MIXER: 0x38,
		YM_REG_VOL_A: 15, YM_REG_VOL_B: 14, YM_REG_VOL_C: 13,
	})
	_, err := renderYM(t, e, 0, 100, 100)
	if !errors.Is(err, ErrBlepOverflow) {
		t.Fatalf("err = %v, want ErrBlepOverflow", err)
	}
	// reported once per render
	if e.overflow != 0 {
		t.Fatalf("overflow count %d not cleared", e.overflow)
	}
}

func TestYM_WriteTiming(t *testing.T) {
	e := newTestYM(t, 0, map[uint8]uint8{YM_REG_MIXER: 0x3F})
	e.writeRegister(YM_REG_VOL_A, 15, testTimebase.sampleCycle(100))
	e.writeRegister(YM_REG_VOL_A, 0, testTimebase.sampleCycle(300))

	out := make([]int32, 2*300)
	if err := e.render(out, 0, testTimebase.sampleCycle(300)); err != nil {
		t.Fatal(err)
	}
	for i := range 100 {
		if out[2*i] != 0 {
			t.Fatalf("sample %d = %d before the write", i, out[2*i])
		}
	}
	if out[2*150] < 8000 {
		t.Fatalf("sample 150 = %d, volume write not applied", out[2*150])
	}
	if len(e.writes) != 1 || e.writes[0].cycle != testTimebase.sampleCycle(300) {
		t.Fatalf("queued writes %+v, want the write at the end cycle kept", e.writes)
	}
}

func TestYM_EnvelopeShapes(t *testing.T) {
	ramp := func(from, to int) []int {
		var s []int
		step := 1
		if to < from {
			step = -1
		}
		for v := from; v != to+step; v += step {
			s = append(s, v)
		}
		return s
	}
	repeat := func(v, n int) []int {
		s := make([]int, n)
		for i := range s {
			s[i] = v
		}
		return s
	}
	cat := func(parts ...[]int) []int {
		var s []int
		for _, p := range parts {
			s = append(s, p...)
		}
		return s
	}

	tests := []struct {
		name  string
		shape uint8
		want  []int
	}{
		{"decay_then_off", 0x00, cat(ramp(31, 0), repeat(0, 32))},
		{"attack_then_off", 0x04, cat(ramp(0, 31), repeat(0, 32))},
		{"saw_down", 0x08, cat(ramp(31, 0), ramp(31, 0))},
		{"decay_hold_high", 0x0B, cat(ramp(31, 0), repeat(31, 32))},
		{"triangle_up", 0x0E, cat(ramp(0, 31), ramp(31, 0))},
		{"attack_hold", 0x0D, cat(ramp(0, 31), repeat(31, 32))},
		{"attack_hold_low", 0x0F, cat(ramp(0, 31), repeat(0, 32))},
		{"decay_triangle", 0x0A, cat(ramp(31, 0), ramp(0, 31))},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := newTestYM(t, 0, nil)
			e.apply(YM_REG_ENV_SHAPE, tc.shape, 0)
			for i, want := range tc.want {
				if got := e.envLevel(); got != want {
					t.Fatalf("step %d: level %d, want %d", i, got, want)
				}
				e.stepEnvelope()
			}
		})
	}
}

func TestYM_NoiseLFSRPeriod(t *testing.T) {
	e := newTestYM(t, 0, nil)
	steps := 0
	for {
		e.stepNoise()
		steps++
		if e.noiseLFSR == YM_LFSR_RESET || steps > 1<<17 {
			break
		}
	}
	if steps != 1<<17-1 {
		t.Fatalf("LFSR period %d, want %d", steps, 1<<17-1)
	}
}

func TestYM_RegisterPort(t *testing.T) {
	e := newTestYM(t, 0, nil)
	// select 7 at $FF8800, write $3E at $FF8802; odd bytes are ignored
	e.busWrite(M68K_SIZE_LONG, YM_BASE, 0x07AA3E55, 10)
	if got := e.busRead(M68K_SIZE_BYTE, YM_BASE, 10); got != 0x3E {
		t.Fatalf("R7 reads $%02X, want $3E", got)
	}
	// mirrored every four bytes, and the register mask applies
	e.busWrite(M68K_SIZE_BYTE, YM_BASE+4, YM_REG_TONE_A_COARSE, 20)
	e.busWrite(M68K_SIZE_BYTE, YM_BASE+6, 0xFF, 20)
	if got := e.busRead(M68K_SIZE_BYTE, YM_BASE+8, 20); got != 0x0F {
		t.Fatalf("R1 reads $%02X, want $0F", got)
	}
	if got := e.busRead(M68K_SIZE_BYTE, YM_BASE+1, 20); got != 0xFF {
		t.Fatalf("odd address reads $%02X", got)
	}
	if len(e.writes) != 2 || e.writes[0].cycle != 10 || e.writes[1].value != 0x0F {
		t.Fatalf("queued writes %+v", e.writes)
	}
	// selecting past R15 ignores data writes
	e.busWrite(M68K_SIZE_BYTE, YM_BASE, 0x20, 30)
	e.busWrite(M68K_SIZE_BYTE, YM_BASE+2, 0x01, 30)
	if len(e.writes) != 2 {
		t.Fatal("write to register 32 queued")
	}
}

func TestYM_GeneratorKeepsElapsedCount(t *testing.T) {
	var g ymGenerator
	g.setPeriod(100, 0)
	g.fire(100)
	g.setPeriod(50, 130)
	if g.next != 150 {
		t.Fatalf("next = %d, want 150", g.next)
	}
	g.setPeriod(20, 130)
	if g.next != 130 {
		t.Fatalf("next = %d, want the current tick when already elapsed", g.next)
	}
	g.setPeriod(0, 140)
	if g.next != ymNever {
		t.Fatal("period 0 should freeze the generator")
	}
}
