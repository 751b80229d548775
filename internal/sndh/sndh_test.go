// sndh_test.go - Tests for the SNDH tag parser and image mapping.

package sndh

import (
	"errors"
	"testing"

	"github.com/intuitionamiga/sc68"
)

func TestParse_Tags(t *testing.T) {
	data := buildSNDH(
		"TITLGold Runner\x00",
		"COMMRob Hubbard\x00",
		"YEAR1987\x00",
		"##03\x00",
		"!#02\x00",
		"TC200\x00",
		"TIME\x00\x3C\x00\x00\x01\x2C",
		"FLAGy\x00",
	)
	f, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	h := f.Header
	if h.Title != "Gold Runner" || h.Composer != "Rob Hubbard" || h.Year != "1987" {
		t.Errorf("text tags = %q/%q/%q", h.Title, h.Composer, h.Year)
	}
	if h.SubSongs != 3 || h.Default != 2 {
		t.Errorf("subsongs=%d default=%d, want 3/2", h.SubSongs, h.Default)
	}
	if h.Timer != "C" || h.TimerHz != 200 {
		t.Errorf("timer=%s@%d, want C@200", h.Timer, h.TimerHz)
	}
	want := []int{60, 0, 300}
	for i, d := range want {
		if got := f.Duration(i + 1); got != d {
			t.Errorf("Duration(%d) = %d, want %d", i+1, got, d)
		}
	}
	if len(h.Flags) != 1 || h.Flags[0] != "y" {
		t.Errorf("flags = %v", h.Flags)
	}
	if f.Packed {
		t.Error("raw file reported as packed")
	}
}

func TestParse_Defaults(t *testing.T) {
	f, err := Parse(buildSNDH("TITLx\x00"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Header.SubSongs != 1 || f.Header.Default != 1 {
		t.Errorf("subsongs=%d default=%d", f.Header.SubSongs, f.Header.Default)
	}
	if f.Header.Timer != "V" || f.Header.TimerHz != SNDH_DEFAULT_HZ {
		t.Errorf("timer=%s@%d", f.Header.Timer, f.Header.TimerHz)
	}
	if f.Duration(1) != 0 {
		t.Errorf("Duration(1) = %d, want 0", f.Duration(1))
	}
}

func TestParse_VBLTag(t *testing.T) {
	f, err := Parse(buildSNDH("!V60\x00"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.Header.Timer != "V" || f.Header.TimerHz != 60 {
		t.Errorf("timer=%s@%d, want V@60", f.Header.Timer, f.Header.TimerHz)
	}
}

func TestParse_NotSNDH(t *testing.T) {
	if _, err := Parse([]byte("just some bytes that are not music")); !errors.Is(err, ErrNotSNDH) {
		t.Fatalf("err = %v, want ErrNotSNDH", err)
	}
	if IsSNDH([]byte("short")) {
		t.Error("IsSNDH accepted junk")
	}
}

func TestParse_Packed(t *testing.T) {
	raw := buildSNDH("TITLPacked\x00", "##02\x00")
	if !IsSNDH(storeICE(raw)) {
		t.Fatal("IsSNDH rejected a packed file")
	}
	f, err := Parse(storeICE(raw))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !f.Packed || f.Header.Title != "Packed" || f.Header.SubSongs != 2 {
		t.Errorf("packed=%v title=%q subsongs=%d", f.Packed, f.Header.Title, f.Header.SubSongs)
	}
	if len(f.Data) != len(raw) {
		t.Errorf("data length %d, want %d", len(f.Data), len(raw))
	}
}

func TestImage(t *testing.T) {
	data := buildSNDH("TITLSong\x00", "##02\x00", "!#05\x00", "TB100\x00", "TIME\x00\x0A\x00\x14")
	_, img, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.LoadAddr != SNDH_LOAD_ADDR || img.InitAddr != SNDH_LOAD_ADDR || img.PlayAddr != SNDH_LOAD_ADDR+8 {
		t.Errorf("addresses load=$%X init=$%X play=$%X", img.LoadAddr, img.InitAddr, img.PlayAddr)
	}
	if img.Hardware != sc68.HardwareYM || img.ReplayHz != 100 {
		t.Errorf("hardware=%s hz=%d", img.Hardware, img.ReplayHz)
	}
	if img.DefaultTrack != 1 {
		t.Errorf("out of range default should fall back to 1, got %d", img.DefaultTrack)
	}
	if len(img.Tracks) != 2 || img.Tracks[0].TimeMs != 10000 || img.Tracks[1].TimeMs != 20000 {
		t.Errorf("tracks = %+v", img.Tracks)
	}
	if img.Tracks[1].Name != "Song #2" {
		t.Errorf("track 2 name %q", img.Tracks[1].Name)
	}
}

func TestImage_PlaysInSession(t *testing.T) {
	_, img, err := Load(buildSNDH("TITLSilence\x00", "TC50\x00"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s, err := sc68.NewSession(img, sc68.Config{SampleRate: 22050})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()
	pcm, _, _, err := s.Render(2205)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(pcm) != 2205*4 {
		t.Fatalf("rendered %d bytes, want %d", len(pcm), 2205*4)
	}
}
