// wav_export.go - Render a track to a 16-bit stereo WAV file

package main

import (
	"errors"
	"os"

	"github.com/intuitionamiga/sc68"
	"github.com/youpy/go-wav"
)

const EXPORT_CHUNK_FRAMES = 4096

// exportWAV renders until the track ends, or for maxSeconds when it never
// does, and writes the result to path. Samples are buffered in memory
// because the WAV header needs the final length.
func exportWAV(path string, s *sc68.Session, maxSeconds int) (frames int, rerr error) {
	limit := maxSeconds * s.SampleRate()
	if d := s.Duration(); d > 0 {
		limit = d * s.SampleRate() / 1000
	}

	samples := make([]wav.Sample, 0, limit)
	buf := make([]int16, 2*EXPORT_CHUNK_FRAMES)
	for len(samples) < limit {
		want := min(EXPORT_CHUNK_FRAMES, limit-len(samples))
		n, eos, err := s.RenderSamples(buf[:2*want])
		for i := range n {
			samples = append(samples, wav.Sample{Values: [2]int{int(buf[2*i]), int(buf[2*i+1])}})
		}
		if eos {
			if err != nil && !errors.Is(err, sc68.ErrHalted) {
				return 0, err
			}
			// a halted program still leaves what it played
			break
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := f.Close(); err != nil && rerr == nil {
			rerr = err
		}
	}()

	enc := wav.NewWriter(f, uint32(len(samples)), 2, uint32(s.SampleRate()), 16)
	if err := enc.WriteSamples(samples); err != nil {
		return 0, err
	}
	return len(samples), nil
}
