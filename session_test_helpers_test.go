// session_test_helpers_test.go - Program images assembled for session tests

package sc68

import (
	"encoding/binary"
	"testing"
)

const (
	testLoadAddr    = 0x10000
	testCounterAddr = 0x20000 // play routine call count
	testTrackAddr   = 0x20004 // D0 seen by init
	testLoadSeen    = 0x20008 // A0 seen by init
)

// Instruction words used by the test programs.
var (
	opRTS     = []uint16{0x4E75}
	opRESET   = []uint16{0x4E70}
	opILLEGAL = []uint16{0x4AFC}
	opSpin    = []uint16{0x60FE} // BRA.S *

	// ADDQ.L #1,testCounterAddr
	opCount = []uint16{0x52B9, testCounterAddr >> 16, testCounterAddr & 0xFFFF}
)

// opSaveArgs stores D0 and A0 for the test to inspect.
var opSaveArgs = []uint16{
	0x23C0, testTrackAddr >> 16, testTrackAddr & 0xFFFF, // MOVE.L D0,abs.L
	0x23C8, testLoadSeen >> 16, testLoadSeen & 0xFFFF,   // MOVE.L A0,abs.L
}

func code(parts ...[]uint16) []uint16 {
	var w []uint16
	for _, p := range parts {
		w = append(w, p...)
	}
	return w
}

// ymSet writes v to YM register reg.
func ymSet(reg, v uint8) []uint16 {
	return []uint16{
		0x13FC, uint16(reg), 0x00FF, 0x8800, // MOVE.B #reg,$FF8800
		0x13FC, uint16(v), 0x00FF, 0x8802,   // MOVE.B #v,$FF8802
	}
}

// paulaSetW writes a word to a custom chip register.
func paulaSetW(off uint32, v uint16) []uint16 {
	addr := PAULA_BASE + off
	return []uint16{0x33FC, v, uint16(addr >> 16), uint16(addr)} // MOVE.W #v,abs.L
}

// paulaSetL writes a long to a custom chip register pair.
func paulaSetL(off uint32, v uint32) []uint16 {
	addr := PAULA_BASE + off
	return []uint16{0x23FC, uint16(v >> 16), uint16(v), uint16(addr >> 16), uint16(addr)} // MOVE.L #v,abs.L
}

func wordBytes(words []uint16) []byte {
	b := make([]byte, 2*len(words))
	for i, w := range words {
		binary.BigEndian.PutUint16(b[2*i:], w)
	}
	return b
}

// buildImage places init then play at testLoadAddr, followed by extra data.
func buildImage(hw Hardware, initCode, playCode []uint16, extra []byte, tracks ...Track) *ProgramImage {
	if len(tracks) == 0 {
		tracks = []Track{{Name: "test"}}
	}
	data := append(wordBytes(code(initCode, playCode)), extra...)
	return &ProgramImage{
		Data:         data,
		LoadAddr:     testLoadAddr,
		InitAddr:     testLoadAddr,
		PlayAddr:     testLoadAddr + 2*uint32(len(initCode)),
		ReplayHz:     50,
		Hardware:     hw,
		Tracks:       tracks,
		DefaultTrack: 1,
	}
}

// ymSquareInit starts a 200 Hz square on channel A.
var ymSquareInit = code(
	opSaveArgs,
	ymSet(YM_REG_TONE_A_FINE, 0x71),
	ymSet(YM_REG_TONE_A_COARSE, 0x02),
	ymSet(YM_REG_MIXER, 0x3E),
	ymSet(YM_REG_VOL_A, 15),
	opRTS,
)

var countingPlay = code(opCount, opRTS)

// testSampleOff is where squareImage puts the two-byte Paula sample.
const testSampleOff = 0x100

// paulaSquareInit loops the sample at testSampleOff on channel 0.
var paulaSquareInit = code(
	paulaSetL(PAULA_AUD0+PAULA_AUD_LCH, testLoadAddr+testSampleOff),
	paulaSetW(PAULA_AUD0+PAULA_AUD_LEN, 1),
	paulaSetW(PAULA_AUD0+PAULA_AUD_PER, 256),
	paulaSetW(PAULA_AUD0+PAULA_AUD_VOL, 64),
	paulaSetW(PAULA_DMACON, PAULA_DMA_SETCLR|PAULA_DMA_MASTER|1),
)

// squareImage starts a square wave on every chip in hw and counts play
// calls.
func squareImage(hw Hardware) *ProgramImage {
	var setup []uint16
	if hw&HardwareYM != 0 {
		setup = code(setup, ymSquareInit[:len(ymSquareInit)-len(opRTS)])
	}
	if hw&HardwareAmiga != 0 {
		setup = code(setup, paulaSquareInit)
	}
	setup = code(setup, opRTS)
	body := wordBytes(code(setup, countingPlay))
	extra := append(make([]byte, testSampleOff-len(body)), 0x40, 0xC0)
	return buildImage(hw, setup, countingPlay, extra)
}

func newTestSession(t *testing.T, img *ProgramImage, rate int) *Session {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SampleRate = rate
	s, err := NewSession(img, cfg)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	return s
}

func renderAll(t *testing.T, s *Session, frames, chunk int) []int16 {
	t.Helper()
	out := make([]int16, 0, 2*frames)
	buf := make([]int16, 2*chunk)
	for len(out) < 2*frames {
		n := min(chunk, frames-len(out)/2)
		got, eos, err := s.RenderSamples(buf[:2*n])
		if err != nil {
			t.Fatalf("RenderSamples: %v", err)
		}
		out = append(out, buf[:2*got]...)
		if eos {
			break
		}
	}
	return out
}
