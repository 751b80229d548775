// program_image.go - The loaded, ready-to-run music program handed to a session.

package sc68

import (
	"fmt"
	"strings"
)

// Hardware selects the sound chips a program drives.
type Hardware uint8

const (
	HardwareYM    Hardware = 1 << iota // Atari ST YM2149 at $FF8800 (with the MFP)
	HardwareAmiga                      // Amiga Paula at $DFF0A0

	hardwareKnown = HardwareYM | HardwareAmiga
)

func (h Hardware) String() string {
	var parts []string
	if h&HardwareYM != 0 {
		parts = append(parts, "YM")
	}
	if h&HardwareAmiga != 0 {
		parts = append(parts, "Amiga")
	}
	if h&^hardwareKnown != 0 {
		parts = append(parts, fmt.Sprintf("0x%02X", uint8(h&^hardwareKnown)))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "+")
}

func (h Hardware) validate() error {
	if h == 0 || h&^hardwareKnown != 0 {
		return fmt.Errorf("%w: %s", ErrBadHardware, h)
	}
	return nil
}

// Track describes one sub-song of a program.
type Track struct {
	Name     string
	TimeMs   int // length of one pass, 0 when unknown
	Loops    int // passes to play, 0 means one
	ReplayHz int // 0 uses ProgramImage.ReplayHz
}

// ProgramImage is the loader's output. A session copies Data into its own
// memory at LoadAddr on every track selection and never modifies the image.
type ProgramImage struct {
	Data     []byte
	LoadAddr uint32
	InitAddr uint32 // called once per track with D0 = track number
	PlayAddr uint32 // called once per replay frame
	ReplayHz int
	Hardware Hardware

	Tracks       []Track
	DefaultTrack int // 1-based
}

const (
	REPLAY_HZ_MIN = 1
	REPLAY_HZ_MAX = 1000
)

// validate checks the image against a memory of memSize bytes whose top
// reserved bytes hold the stack and the stubs.
func (img *ProgramImage) validate(memSize uint32) error {
	if img == nil || len(img.Data) == 0 {
		return fmt.Errorf("%w: no program data", ErrBadImage)
	}
	if err := img.Hardware.validate(); err != nil {
		return err
	}

	end := uint64(img.LoadAddr) + uint64(len(img.Data))
	if img.LoadAddr < M68K_VECTOR_TABLE_SIZE || end > uint64(memSize-SESSION_RESERVED_TOP) {
		return fmt.Errorf("%w: image $%06X-$%06X does not fit in $%06X-$%06X", ErrBadImage,
			img.LoadAddr, end, M68K_VECTOR_TABLE_SIZE, memSize-SESSION_RESERVED_TOP)
	}
	for _, entry := range []struct {
		name string
		addr uint32
	}{{"init", img.InitAddr}, {"play", img.PlayAddr}} {
		if entry.addr < img.LoadAddr || uint64(entry.addr) >= end || entry.addr&1 != 0 {
			return fmt.Errorf("%w: %s address $%06X outside image", ErrBadImage, entry.name, entry.addr)
		}
	}

	if len(img.Tracks) == 0 {
		return fmt.Errorf("%w: no tracks", ErrBadImage)
	}
	if img.DefaultTrack < 0 || img.DefaultTrack > len(img.Tracks) {
		return fmt.Errorf("%w: default track %d of %d", ErrTrackRange, img.DefaultTrack, len(img.Tracks))
	}
	for i, t := range img.Tracks {
		if hz := img.replayHz(i + 1); hz < REPLAY_HZ_MIN || hz > REPLAY_HZ_MAX {
			return fmt.Errorf("%w: track %d replay rate %d Hz", ErrBadImage, i+1, hz)
		}
		if t.TimeMs < 0 || t.Loops < 0 {
			return fmt.Errorf("%w: track %d has negative time or loops", ErrBadImage, i+1)
		}
	}
	return nil
}

// replayHz returns the replay rate of a 1-based track.
func (img *ProgramImage) replayHz(track int) int {
	if track >= 1 && track <= len(img.Tracks) && img.Tracks[track-1].ReplayHz != 0 {
		return img.Tracks[track-1].ReplayHz
	}
	return img.ReplayHz
}
