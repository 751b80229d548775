// main.go - sc68play: play or export Atari ST and Amiga music programs

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/intuitionamiga/sc68"
	"github.com/intuitionamiga/sc68/internal/logger"
)

const DEFAULT_EXPORT_SECONDS = 180

type options struct {
	track, loops int
	rate         int
	blend        int
	interpolate  bool
	verbose      bool
	trace        bool

	wavPath    string
	maxSeconds int

	// raw program images
	loadAddr string
	initAddr string
	playAddr string
	replayHz int
	hardware string

	filename string
}

func parseFlags(args []string, usageOut io.Writer) (options, error) {
	var opts options

	flagSet := flag.NewFlagSet("sc68play", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.IntVar(&opts.track, "track", 0, "Track to play (0 = default track)")
	flagSet.IntVar(&opts.loops, "loops", 0, "Loop count (0 = track default, -1 = forever)")
	flagSet.IntVar(&opts.rate, "rate", sc68.SAMPLE_RATE_DEFAULT, "Output sample rate in Hz")
	flagSet.IntVar(&opts.blend, "blend", 0, "Amiga stereo blend, 0 (hard stereo) to 256 (swapped)")
	flagSet.BoolVar(&opts.interpolate, "interp", false, "Interpolate Amiga samples")
	flagSet.BoolVar(&opts.verbose, "v", false, "Echo the session log to stderr")
	flagSet.BoolVar(&opts.trace, "trace", false, "Log every CPU exception (implies -v)")
	flagSet.StringVar(&opts.wavPath, "wav", "", "Write a WAV file instead of playing")
	flagSet.IntVar(&opts.maxSeconds, "seconds", DEFAULT_EXPORT_SECONDS, "Length limit in seconds for endless tracks")
	flagSet.StringVar(&opts.loadAddr, "load", "", "Load address of a raw image (hex or decimal)")
	flagSet.StringVar(&opts.initAddr, "init", "", "Init routine address (default: load address)")
	flagSet.StringVar(&opts.playAddr, "play", "", "Play routine address (default: load address + 8)")
	flagSet.IntVar(&opts.replayHz, "hz", 50, "Replay rate of a raw image")
	flagSet.StringVar(&opts.hardware, "hw", "ym", "Hardware of a raw image: ym, amiga or ym+amiga")

	flagSet.Usage = func() {
		flagSet.SetOutput(usageOut)
		fmt.Fprintln(usageOut, "Usage: sc68play [options] file.sndh")
		fmt.Fprintln(usageOut, "       sc68play -load 0x10000 [-init addr] [-play addr] [-hz 50] [-hw ym] file.bin")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return opts, errors.New("expected exactly one file")
	}
	opts.filename = flagSet.Arg(0)
	if opts.trace {
		opts.verbose = true
	}
	return opts, nil
}

func (opts options) config(log *logger.Logger) sc68.Config {
	cfg := sc68.DefaultConfig()
	cfg.SampleRate = opts.rate
	cfg.Logger = log
	cfg.LogExceptions = opts.trace
	cfg.AmigaBlend = opts.blend
	cfg.PaulaInterpolate = opts.interpolate
	return cfg
}

// parseAddress accepts 0x-prefixed hex, $-prefixed hex or decimal.
func parseAddress(s string) (uint32, error) {
	if strings.HasPrefix(s, "$") {
		s = "0x" + s[1:]
	}
	v, err := strconv.ParseUint(s, 0, 24)
	if err != nil {
		return 0, fmt.Errorf("bad address %q: %w", s, err)
	}
	return uint32(v), nil
}

func parseHardware(s string) (sc68.Hardware, error) {
	var hw sc68.Hardware
	for _, part := range strings.Split(strings.ToLower(s), "+") {
		switch part {
		case "ym", "st":
			hw |= sc68.HardwareYM
		case "amiga", "paula":
			hw |= sc68.HardwareAmiga
		default:
			return 0, fmt.Errorf("unknown hardware %q", part)
		}
	}
	return hw, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stdout)
	if err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	log := logger.NewLogger(logger.DefaultMaxEntries)
	if opts.verbose {
		log.SetEcho(stderr)
	}

	prog, err := loadProgram(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading %s: %v\n", opts.filename, err)
		return 1
	}

	session, err := sc68.NewSession(prog.image, opts.config(log))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer session.Close()

	if err := session.SelectTrack(opts.track, opts.loops); err != nil {
		fmt.Fprintf(stderr, "Error starting track: %v\n", err)
		return 1
	}

	info := prog.trackInfo(session)
	if opts.wavPath != "" {
		frames, err := exportWAV(opts.wavPath, session, opts.maxSeconds)
		if err != nil {
			fmt.Fprintf(stderr, "Error writing %s: %v\n", opts.wavPath, err)
			return 1
		}
		fmt.Fprintf(stdout, "%s: %d frames at %d Hz written to %s\n",
			info.title(), frames, session.SampleRate(), opts.wavPath)
		return 0
	}

	if err := playLive(session, info, stdout); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, sc68.ErrHalted) && !opts.verbose {
			log.Tail(stderr, 8)
		}
		return 1
	}
	return 0
}
