// session_scheduler.go - Frame and slice scheduling of CPU and sound chips.

package sc68

import (
	"errors"
	"fmt"
)

const SLICES_PER_SECOND = 1000

// timebase maps output samples onto CPU cycles. Sample n is taken at
// cycle origin + floor(n*cpuHz/rate).
type timebase struct {
	cpuHz  uint64
	rate   uint64
	origin uint64
}

func (tb timebase) sampleCycle(n uint64) uint64 {
	return tb.origin + n*tb.cpuHz/tb.rate
}

// firstSample returns the first sample taken at or after cycle.
func (tb timebase) firstSample(cycle uint64) uint64 {
	if cycle <= tb.origin {
		return 0
	}
	return ((cycle-tb.origin)*tb.rate + tb.cpuHz - 1) / tb.cpuHz
}

// soundChip is a sound engine mapped on the bus. Register writes carry the
// CPU cycle; render applies those stamped before each sample and leaves
// the ones at or after end queued.
type soundChip interface {
	busDevice
	ioRange() (start, end uint32)
	reset()
	start(tb timebase)
	render(out []int32, first, end uint64) error
}

// frameCycle is the CPU cycle at which replay frame k starts.
func (s *Session) frameCycle(k uint64) uint64 {
	return s.tb.origin + k*s.tb.cpuHz/s.replayHz
}

// idle reports whether the CPU waits at the return stub.
func (s *Session) idle() bool {
	return s.cpu.State() == RunStopped && s.cpu.PC == s.stubs.ret+SESSION_STUB_RETURN_LOOP
}

// runSlice emulates one slice and appends its samples to s.pending.
func (s *Session) runSlice() error {
	start := s.sliceEnd
	if start == s.nextFrame {
		if s.idle() {
			s.call(s.img.PlayAddr)
		} else {
			s.log.Logf("scheduler", "frame %d overrun: play routine still running at $%06X", s.frame, s.cpu.PC)
		}
		s.frame++
		s.nextFrame = s.frameCycle(s.frame)
	}

	end := min(start+s.tb.cpuHz/SLICES_PER_SECOND, s.nextFrame)
	s.cpu.RunUntil(end)
	var haltErr error
	if s.cpu.State() == RunHalted {
		haltErr = s.cpu.HaltErr()
		end = max(min(end, s.cpu.Cycles()), start)
		s.log.Logf("cpu", "halted at $%06X: %v", s.cpu.PC, haltErr)
	}

	first, last := s.sample, s.tb.firstSample(end)
	if s.endSample != 0 && last > s.endSample {
		last = s.endSample
	}
	count := int(last - first)
	if cap(s.mix) < 2*count {
		s.mix = make([]int32, 2*count)
	}
	mix := s.mix[:2*count]
	clear(mix)

	var chipErr error
	for _, c := range s.chips {
		if err := c.render(mix, first, end); err != nil {
			s.log.Logf("render", "%v", err)
			chipErr = err
		}
	}
	for _, v := range mix {
		s.pending = append(s.pending, int16(max(min(v, 32767), -32768)))
	}
	s.sample = last
	s.sliceEnd = end

	if haltErr != nil {
		return haltErr
	}
	return chipErr
}

// fill renders slices until n frames are pending, the track ends or the
// CPU halts. Non-fatal chip errors are returned with more data to come.
func (s *Session) fill(n int) (eos bool, err error) {
	var soft error
	for len(s.pending) < 2*n {
		if s.halted != nil {
			return true, s.halted
		}
		if s.endSample != 0 && s.sample >= s.endSample {
			return true, soft
		}
		if e := s.runSlice(); e != nil {
			if s.cpu.State() == RunHalted {
				s.halted = haltError(e)
				continue
			}
			soft = e
		}
	}
	return false, soft
}

// haltError makes every halt reason match ErrHalted.
func haltError(err error) error {
	if errors.Is(err, ErrHalted) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrHalted, err)
}
