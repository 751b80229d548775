// audio_oto.go - Live playback through OTO v3

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/intuitionamiga/sc68"
	"golang.org/x/term"
)

const (
	OTO_BUFFER_SIZE     = 100 * time.Millisecond
	STATUS_REFRESH_RATE = 250 * time.Millisecond
)

// sessionStream feeds session PCM to the OTO player. OTO reads from its
// own goroutine, so every session call goes through mu.
type sessionStream struct {
	mu      sync.Mutex
	session *sc68.Session
	ended   bool
	err     error
}

func (st *sessionStream) Read(p []byte) (int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.ended {
		return 0, io.EOF
	}
	pcm, n, eos, err := st.session.Render(len(p) / 4)
	copy(p, pcm)
	if eos {
		st.ended = true
		st.err = err
		if n == 0 {
			return 0, io.EOF
		}
	}
	return 4 * n, nil
}

func (st *sessionStream) status() (posMs int, ended bool, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.session.Position(), st.ended, st.err
}

// playLive plays the session until the track ends or the user interrupts.
func playLive(s *sc68.Session, info trackInfo, out io.Writer) error {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   s.SampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatSignedInt16LE,
		BufferSize:   OTO_BUFFER_SIZE,
	})
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	<-ready

	stream := &sessionStream{session: s}
	player := ctx.NewPlayer(stream)
	defer player.Close()
	player.Play()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	defer signal.Stop(interrupt)

	fd := int(os.Stdout.Fd())
	live := out == os.Stdout && term.IsTerminal(fd)
	styles := newStatusStyles()
	if !live {
		fmt.Fprintf(out, "Playing %s, track %d/%d\n", info.title(), info.track, info.tracks)
	}

	ticker := time.NewTicker(STATUS_REFRESH_RATE)
	defer ticker.Stop()
	for {
		select {
		case <-interrupt:
			if live {
				fmt.Fprintln(out)
			}
			return nil
		case <-ticker.C:
		}

		pos, ended, streamErr := stream.status()
		if live {
			width, _, err := term.GetSize(fd)
			if err != nil {
				width = 0
			}
			fmt.Fprint(out, "\r\x1b[K"+styles.line(info, pos, s.Duration(), width))
		}
		if ended && !player.IsPlaying() {
			if live {
				fmt.Fprintln(out)
			}
			if err := player.Err(); err != nil {
				return fmt.Errorf("audio: %w", err)
			}
			return streamErr
		}
	}
}
