// loader.go - Turn a file on disk into a program image

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/intuitionamiga/sc68"
	"github.com/intuitionamiga/sc68/internal/sndh"
)

// RAW_PLAY_OFFSET follows the common replay layout of init, exit and play
// branches at the start of the image.
const RAW_PLAY_OFFSET = 8

type program struct {
	image    *sc68.ProgramImage
	name     string
	composer string
	year     string
}

// loadProgram reads an SNDH file, or a raw image when -load is given.
func loadProgram(opts options) (*program, error) {
	data, err := os.ReadFile(opts.filename)
	if err != nil {
		return nil, err
	}
	if opts.loadAddr != "" {
		return rawProgram(data, opts)
	}
	if !sndh.IsSNDH(data) {
		return nil, fmt.Errorf("%w (use -load for raw images)", sndh.ErrNotSNDH)
	}

	f, img, err := sndh.Load(data)
	if err != nil {
		return nil, err
	}
	p := &program{
		image:    img,
		name:     f.Header.Title,
		composer: f.Header.Composer,
		year:     f.Header.Year,
	}
	if p.name == "" {
		p.name = filepath.Base(opts.filename)
	}
	return p, nil
}

func rawProgram(data []byte, opts options) (*program, error) {
	load, err := parseAddress(opts.loadAddr)
	if err != nil {
		return nil, err
	}
	initAddr, playAddr := load, load+RAW_PLAY_OFFSET
	if opts.initAddr != "" {
		if initAddr, err = parseAddress(opts.initAddr); err != nil {
			return nil, err
		}
	}
	if opts.playAddr != "" {
		if playAddr, err = parseAddress(opts.playAddr); err != nil {
			return nil, err
		}
	}
	hw, err := parseHardware(opts.hardware)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(opts.filename)
	return &program{
		image: &sc68.ProgramImage{
			Data:         data,
			LoadAddr:     load,
			InitAddr:     initAddr,
			PlayAddr:     playAddr,
			ReplayHz:     opts.replayHz,
			Hardware:     hw,
			Tracks:       []sc68.Track{{Name: name}},
			DefaultTrack: 1,
		},
		name: name,
	}, nil
}

// trackInfo describes the session's current track for display.
func (p *program) trackInfo(s *sc68.Session) trackInfo {
	t := s.Track()
	return trackInfo{
		name:     p.image.Tracks[t-1].Name,
		composer: p.composer,
		year:     p.year,
		track:    t,
		tracks:   len(p.image.Tracks),
		hardware: p.image.Hardware.String(),
	}
}
