// session.go - Playback session: program image, CPU, bus and sound chips

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
session.go - Emulation Session

A Session owns one emulated machine built from a ProgramImage: RAM, the
68000, the bus, and the sound chips named by the image's hardware flags.

Machine layout:
- $000000-$0003FF  exception vectors, preset to the stubs below
- LoadAddr...      the program image, copied in at every track selection
- top of memory    SESSION_RESERVED_TOP bytes for the supervisor stack
                   and four stubs: return, halt, skip and rte

Routines are called with the return stub as their return address. The stub
stops the CPU with interrupts at level 3 and, when an interrupt handler
returns to it, stops again; so a stopped CPU at the stub means the routine
is done and the machine is idle.
*/

package sc68

import (
	"encoding/binary"
	"fmt"

	"github.com/intuitionamiga/sc68/internal/logger"
)

const (
	SESSION_RESERVED_TOP = 0x1000
	SESSION_STUB_AREA    = 0x40

	SESSION_ROUTINE_SR       = 0x2300
	SESSION_STUB_RETURN_LOOP = 4 // offset of the BRA.S after STOP
)

// Stub code, big-endian words.
var (
	stubReturn = []uint16{0x4E72, SESSION_ROUTINE_SR, 0x60FA} // STOP #$2300; BRA.S *-4
	stubHalt   = []uint16{0x4E70}                             // RESET
	stubRte    = []uint16{0x4E73}                             // RTE
)

// stubSkip resumes after the faulting instruction. Privileged forms with an
// immediate word (STOP, MOVE to SR, ORI/ANDI/EORI to SR) skip four bytes,
// everything else two.
var stubSkip = []uint16{
	0x2F08,         // MOVE.L A0,-(A7)
	0x206F, 0x0006, // MOVEA.L 6(A7),A0   faulting PC
	0x54AF, 0x0006, // ADDQ.L #2,6(A7)
	0x0C50, 0x4E72, // CMPI.W #$4E72,(A0)  STOP
	0x6718,         // BEQ.S imm
	0x0C50, 0x46FC, // CMPI.W #$46FC,(A0)  MOVE #,SR
	0x6712,         // BEQ.S imm
	0x0C50, 0x007C, // CMPI.W #$007C,(A0)  ORI #,SR
	0x670C,         // BEQ.S imm
	0x0C50, 0x027C, // CMPI.W #$027C,(A0)  ANDI #,SR
	0x6706,         // BEQ.S imm
	0x0C50, 0x0A7C, // CMPI.W #$0A7C,(A0)  EORI #,SR
	0x6604,         // BNE.S done
	0x54AF, 0x0006, // imm: ADDQ.L #2,6(A7)
	0x205F,         // done: MOVEA.L (A7)+,A0
	0x4E73,         // RTE
}

type sessionStubs struct {
	ret, halt, skip, rte uint32
}

// Session renders one program. It is not safe for concurrent use.
type Session struct {
	cfg Config
	log *logger.Logger
	img *ProgramImage

	mem   *MemoryArena
	bus   *MachineBus
	cpu   *M68KCPU
	mfp   *MFP68901
	ym    *YMBlepEngine
	paula *PaulaEngine
	chips []soundChip

	stackTop uint32
	stubs    sessionStubs

	track, loops int
	durationMs   int // 0 when endless
	replayHz     uint64
	tb           timebase

	frame     uint64 // next replay frame
	nextFrame uint64 // its start cycle
	sliceEnd  uint64 // cycle the chips have rendered to
	sample    uint64 // next sample the chips render
	endSample uint64 // 0 when endless
	played    uint64 // samples handed to the caller

	pending []int16 // rendered, not yet delivered
	mix     []int32
	halted  error
	closed  bool
}

// NewSession validates the image and builds the machine. No code runs
// until a track is selected.
func NewSession(img *ProgramImage, cfg Config) (*Session, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if err := img.validate(uint32(cfg.MemorySize)); err != nil {
		return nil, err
	}

	s := &Session{cfg: cfg, log: cfg.Logger, img: img}
	cpuHz := uint64(M68K_CLOCK_AMIGA)
	if img.Hardware&HardwareYM != 0 {
		cpuHz = M68K_CLOCK_ATARI
	}
	s.tb = timebase{cpuHz: cpuHz, rate: uint64(cfg.SampleRate)}

	s.mem = NewMemoryArena(cfg.MemorySize)
	s.bus = NewMachineBus(s.mem)
	s.cpu = NewM68KCPU(s.bus)

	if img.Hardware&HardwareYM != 0 {
		s.ym = NewYMBlepEngine(cfg)
		s.mfp = NewMFP68901(cpuHz)
		s.chips = append(s.chips, s.ym)
		if err := s.bus.MapIO(MFP_BASE, MFP_END, s.mfp); err != nil {
			return nil, err
		}
		s.cpu.SetInterruptSource(s.mfp)
	}
	if img.Hardware&HardwareAmiga != 0 {
		s.paula = NewPaulaEngine(cfg, s.mem)
		s.chips = append(s.chips, s.paula)
	}
	for _, c := range s.chips {
		start, end := c.ioRange()
		if err := s.bus.MapIO(start, end, c); err != nil {
			return nil, err
		}
	}

	if cfg.LogExceptions {
		s.cpu.SetExceptionHook(func(vector uint8, pc uint32) {
			s.log.Logf("exception", "vector %d at $%06X", vector, pc)
		})
	}

	top := s.mem.Size() - SESSION_STUB_AREA
	s.stackTop = top
	s.stubs = sessionStubs{ret: top, halt: top + 0x08, rte: top + 0x0C, skip: top + 0x10}
	return s, nil
}

// installStubs writes the stubs and points every vector at one of them.
func (s *Session) installStubs() {
	put := func(addr uint32, code []uint16) {
		for i, w := range code {
			s.mem.Write(M68K_SIZE_WORD, addr+uint32(2*i), uint32(w))
		}
	}
	put(s.stubs.ret, stubReturn)
	put(s.stubs.halt, stubHalt)
	put(s.stubs.skip, stubSkip)
	put(s.stubs.rte, stubRte)

	vt := NewVectorTable(s.mem)
	vt.Set(M68K_VEC_RESET_SSP, s.stackTop)
	vt.Set(M68K_VEC_RESET_PC, s.stubs.ret)
	for v := 2; v < M68K_VECTOR_TABLE_SIZE/4; v++ {
		switch v {
		case M68K_VEC_BUS_ERROR, M68K_VEC_ADDRESS_ERROR:
			vt.Set(uint8(v), s.stubs.halt)
		case M68K_VEC_ILLEGAL, M68K_VEC_PRIVILEGE, M68K_VEC_LINE_A, M68K_VEC_LINE_F:
			vt.Set(uint8(v), s.stubs.skip)
		default:
			vt.Set(uint8(v), s.stubs.rte)
		}
	}
}

// call starts a routine at addr that returns to the return stub.
func (s *Session) call(addr uint32) {
	s.cpu.Resume()
	s.cpu.SetSR(SESSION_ROUTINE_SR)
	s.cpu.A[7] = s.stackTop - 4
	s.mem.Write(M68K_SIZE_LONG, s.cpu.A[7], s.stubs.ret)
	s.cpu.PC = addr
}

// SelectTrack restarts the machine on a 1-based track and runs its init
// routine. Track 0 selects the default track; loops 0 uses the track's
// own count and -1 plays forever.
func (s *Session) SelectTrack(track, loops int) error {
	if s.closed {
		return ErrClosed
	}
	if track == 0 {
		track = max(s.img.DefaultTrack, 1)
	}
	if track < 1 || track > len(s.img.Tracks) {
		return fmt.Errorf("%w: track %d of %d", ErrTrackRange, track, len(s.img.Tracks))
	}
	if loops < -1 {
		return fmt.Errorf("%w: loop count %d", ErrTrackRange, loops)
	}
	t := s.img.Tracks[track-1]
	if loops == 0 {
		loops = max(t.Loops, 1)
	}

	s.mem.Clear()
	s.installStubs()
	if err := s.mem.Load(s.img.LoadAddr, s.img.Data); err != nil {
		return s.abandon(track, loops, fmt.Errorf("%w: %w", ErrBadImage, err))
	}
	for _, c := range s.chips {
		c.reset()
	}
	if s.mfp != nil {
		s.mfp.Reset()
	}

	s.cpu.Reset(s.img.InitAddr, s.stackTop)
	s.call(s.img.InitAddr)
	s.cpu.D[0] = uint32(track)
	s.cpu.A[0] = s.img.LoadAddr

	if err := s.runInit(); err != nil {
		return s.abandon(track, loops, err)
	}
	if err := NewVectorTable(s.mem).Validate(); err != nil {
		return s.abandon(track, loops, fmt.Errorf("track %d init: %w", track, err))
	}

	s.track, s.loops = track, loops
	s.replayHz = uint64(s.img.replayHz(track))
	s.durationMs = 0
	if loops > 0 {
		s.durationMs = t.TimeMs * loops
	}

	s.tb.origin = s.cpu.Cycles()
	for _, c := range s.chips {
		c.start(s.tb)
	}
	s.frame = 0
	s.nextFrame = s.tb.origin
	s.sliceEnd = s.tb.origin
	s.sample = 0
	s.played = 0
	s.endSample = uint64(s.durationMs) * s.tb.rate / 1000
	s.pending = s.pending[:0]
	s.halted = nil

	s.log.Logf("session", "track %d/%d %q, %d Hz replay, %s, loops %d",
		track, len(s.img.Tracks), t.Name, s.replayHz, s.img.Hardware, loops)
	return nil
}

// abandon leaves the session on track with an empty schedule after the
// machine was torn down for it. Render reports err with end of stream
// until a track is selected successfully.
func (s *Session) abandon(track, loops int, err error) error {
	s.track, s.loops = track, loops
	s.durationMs = 0
	s.tb.origin = s.cpu.Cycles()
	s.frame = 0
	s.nextFrame = s.tb.origin
	s.sliceEnd = s.tb.origin
	s.sample = 0
	s.played = 0
	s.endSample = 0
	s.pending = s.pending[:0]
	s.halted = err
	s.log.Logf("session", "track %d: %v", track, err)
	return err
}

// runInit runs the init routine until it returns to the stub. Register
// writes it makes take effect without producing audio.
func (s *Session) runInit() error {
	limit := s.cfg.InitCycleLimit
	if limit == 0 {
		limit = DEFAULT_INIT_SECONDS * s.tb.cpuHz
	}
	step := s.tb.cpuHz / SLICES_PER_SECOND
	for !s.idle() {
		switch {
		case s.cpu.State() == RunHalted:
			return fmt.Errorf("init: %w", haltError(s.cpu.HaltErr()))
		case s.cpu.Cycles() >= limit:
			return fmt.Errorf("%w: still running at $%06X after %d cycles", ErrInitTimeout, s.cpu.PC, s.cpu.Cycles())
		}
		s.cpu.RunUntil(min(s.cpu.Cycles()+step, limit))
	}
	s.log.Logf("session", "init returned after %d cycles", s.cpu.Cycles())
	return nil
}

// Render produces up to frames stereo frames as little-endian int16 pairs.
// eos reports that the track ended or the CPU halted; a halt is returned
// as err together with the frames rendered before it. Errors that do not
// stop playback, such as ErrBlepOverflow, come with eos false.
func (s *Session) Render(frames int) (pcm []byte, written int, eos bool, err error) {
	buf := make([]int16, 2*max(frames, 0))
	written, eos, err = s.RenderSamples(buf)
	pcm = make([]byte, 4*written)
	for i, v := range buf[:2*written] {
		binary.LittleEndian.PutUint16(pcm[2*i:], uint16(v))
	}
	return pcm, written, eos, err
}

// RenderSamples fills dst with interleaved stereo samples and returns the
// number of frames written.
func (s *Session) RenderSamples(dst []int16) (int, bool, error) {
	if s.closed {
		return 0, true, ErrClosed
	}
	if s.track == 0 {
		if err := s.SelectTrack(0, 0); err != nil {
			return 0, true, err
		}
	}
	frames := len(dst) / 2
	eos, err := s.fill(frames)
	n := min(frames, len(s.pending)/2)
	copy(dst, s.pending[:2*n])
	s.pending = s.pending[:copy(s.pending, s.pending[2*n:])]
	s.played += uint64(n)
	return n, eos && len(s.pending) == 0, err
}

// Seek moves to ms into the track: forward by rendering and discarding,
// backward by selecting the track again.
func (s *Session) Seek(ms int) error {
	if s.closed {
		return ErrClosed
	}
	if ms < 0 {
		return fmt.Errorf("%w: seek to %d ms", ErrTrackRange, ms)
	}
	target := uint64(ms) * s.tb.rate / 1000
	if s.track == 0 || target < s.played {
		if err := s.SelectTrack(s.track, s.loops); err != nil {
			return err
		}
	}
	if s.halted != nil {
		return s.halted
	}
	scratch := make([]int16, 2*4096)
	for s.played < target {
		n := int(min(target-s.played, 4096))
		_, eos, err := s.RenderSamples(scratch[:2*n])
		if eos {
			return err
		}
	}
	s.log.Logf("session", "seek to %d ms", ms)
	return nil
}

// Position returns the playback position in milliseconds.
func (s *Session) Position() int {
	return int(s.played * 1000 / s.tb.rate)
}

// Duration returns the track length times its loop count in milliseconds,
// or 0 when the track plays forever or has no declared time.
func (s *Session) Duration() int { return s.durationMs }

func (s *Session) SampleRate() int { return int(s.tb.rate) }

// Track returns the selected 1-based track, 0 before the first selection.
func (s *Session) Track() int { return s.track }

// Close releases the machine. Every later call fails with ErrClosed.
func (s *Session) Close() {
	s.closed = true
	s.chips = nil
	s.pending = nil
	s.mix = nil
}
