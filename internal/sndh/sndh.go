// sndh.go - SNDH container parser for Atari ST YM2149 music.
//
// An SNDH file starts with three branch instructions (INIT, EXIT, PLAY),
// then the "SNDH" magic, a list of tags and "HDNS". The whole file is
// the 68000 program; it runs at whatever address it is loaded to.
//
// Format reference: https://sndh.atari.org/fileformat.php

package sndh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/intuitionamiga/sc68"
)

const (
	SNDH_LOAD_ADDR   = 0x10000
	SNDH_INIT_OFFSET = 0
	SNDH_EXIT_OFFSET = 4
	SNDH_PLAY_OFFSET = 8
	SNDH_MAGIC_AT    = 12

	SNDH_DEFAULT_HZ   = 50
	SNDH_MAX_SUBSONGS = 99
	sndhTagScanLimit  = 4096
)

var ErrNotSNDH = errors.New("not an SNDH file")

// Header is the tag block of an SNDH file.
type Header struct {
	Title     string
	Composer  string
	Ripper    string
	Converter string
	Year      string
	SubSongs  int
	Default   int    // 1-based
	Timer     string // "A".."D", or "V" for the vertical blank
	TimerHz   int
	Durations []int // seconds per subsong, 0 when unknown
	Flags     []string
}

// File is a parsed, depacked SNDH file.
type File struct {
	Header Header
	Data   []byte
	Packed bool
}

// IsSNDH reports whether data looks like a raw or ICE packed SNDH file.
func IsSNDH(data []byte) bool {
	if IsICE(data) {
		return true
	}
	return bytes.Index(head(data, SNDH_MAGIC_AT+4), []byte("SNDH")) >= 0
}

func head(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}

// Parse depacks data if needed and reads its tags.
func Parse(data []byte) (*File, error) {
	f := &File{}
	if IsICE(data) {
		out, err := DepackICE(data)
		if err != nil {
			return nil, err
		}
		data, f.Packed = out, true
	}
	magic := bytes.Index(head(data, sndhTagScanLimit), []byte("SNDH"))
	if magic < 0 {
		return nil, ErrNotSNDH
	}
	if len(data) <= SNDH_PLAY_OFFSET+2 {
		return nil, fmt.Errorf("%w: %d bytes", ErrNotSNDH, len(data))
	}
	f.Data = data
	f.Header = Header{SubSongs: 1, Default: 1, Timer: "V", TimerHz: SNDH_DEFAULT_HZ}
	f.parseTags(magic + 4)
	return f, nil
}

func (f *File) parseTags(pos int) {
	data, h := f.Data, &f.Header
	limit := len(data)
	if limit > sndhTagScanLimit {
		limit = sndhTagScanLimit
	}

	for pos+4 <= limit {
		if data[pos] == 0 {
			pos++
			continue
		}
		id := string(data[pos : pos+4])
		if id == "HDNS" {
			return
		}

		switch {
		case id == "TITL":
			h.Title, pos = cstring(data, pos+4)
		case id == "COMM":
			h.Composer, pos = cstring(data, pos+4)
		case id == "RIPP":
			h.Ripper, pos = cstring(data, pos+4)
		case id == "CONV":
			h.Converter, pos = cstring(data, pos+4)
		case id == "YEAR":
			h.Year, pos = cstring(data, pos+4)
		case id == "TIME":
			pos += 4
			h.Durations = make([]int, h.SubSongs)
			for i := range h.Durations {
				if pos+2 > len(data) {
					break
				}
				h.Durations[i] = int(binary.BigEndian.Uint16(data[pos:]))
				pos += 2
			}
		case id == "FLAG":
			var flags string
			flags, pos = cstring(data, pos+4)
			if flags != "" {
				h.Flags = append(h.Flags, flags)
			}
		case id == "#!SN":
			// subsong name offsets, one word per subsong
			pos += 4 + 2*h.SubSongs
		default:
			var tag string
			tag, pos = cstring(data, pos)
			f.numericTag(tag)
		}
	}
}

// numericTag handles the tags whose value follows a two character prefix.
func (f *File) numericTag(tag string) {
	if len(tag) < 3 {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(tag[2:]))
	if err != nil || n <= 0 {
		return
	}
	h := &f.Header
	switch prefix := tag[:2]; {
	case prefix == "##":
		if n <= SNDH_MAX_SUBSONGS {
			h.SubSongs = n
		}
	case prefix == "!#":
		h.Default = n
	case prefix == "!V":
		h.Timer, h.TimerHz = "V", n
	case prefix[0] == 'T' && strings.IndexByte("ABCD", prefix[1]) >= 0:
		h.Timer, h.TimerHz = prefix[1:], n
	}
}

func cstring(data []byte, pos int) (string, int) {
	end := bytes.IndexByte(data[pos:], 0)
	if end < 0 {
		return string(data[pos:]), len(data)
	}
	return string(data[pos : pos+end]), pos + end + 1
}

// Duration returns the length of a 1-based subsong in seconds, 0 when
// the file does not say.
func (f *File) Duration(subsong int) int {
	if subsong < 1 || subsong > len(f.Header.Durations) {
		return 0
	}
	return f.Header.Durations[subsong-1]
}

// Image maps the file onto a program image: loaded at SNDH_LOAD_ADDR,
// INIT and PLAY at their fixed branch slots, one track per subsong.
func (f *File) Image() *sc68.ProgramImage {
	h := f.Header
	img := &sc68.ProgramImage{
		Data:         f.Data,
		LoadAddr:     SNDH_LOAD_ADDR,
		InitAddr:     SNDH_LOAD_ADDR + SNDH_INIT_OFFSET,
		PlayAddr:     SNDH_LOAD_ADDR + SNDH_PLAY_OFFSET,
		ReplayHz:     h.TimerHz,
		Hardware:     sc68.HardwareYM,
		DefaultTrack: h.Default,
	}
	if img.DefaultTrack > h.SubSongs {
		img.DefaultTrack = 1
	}
	for i := 1; i <= h.SubSongs; i++ {
		name := h.Title
		if h.SubSongs > 1 {
			name = fmt.Sprintf("%s #%d", h.Title, i)
		}
		img.Tracks = append(img.Tracks, sc68.Track{Name: name, TimeMs: f.Duration(i) * 1000})
	}
	return img
}

// Load parses an SNDH file straight into a program image.
func Load(data []byte) (*File, *sc68.ProgramImage, error) {
	f, err := Parse(data)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Image(), nil
}
