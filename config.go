// config.go - Session configuration.

package sc68

import (
	"fmt"

	"github.com/intuitionamiga/sc68/internal/logger"
)

const (
	SAMPLE_RATE_MIN     = 8000
	SAMPLE_RATE_MAX     = 96000
	SAMPLE_RATE_DEFAULT = 44100

	DEFAULT_MEMORY_SIZE     = 512 * 1024
	DEFAULT_BLEP_CAPACITY   = 512
	DEFAULT_BLEP_LEAK_SHIFT = 12
	DEFAULT_INIT_SECONDS    = 10 // CPU time allowed for a track's init routine
)

// Config holds everything a session needs besides the program image. None of
// the diagnostic fields change the rendered output.
type Config struct {
	SampleRate int

	// Logger receives session diagnostics. Nil discards them.
	Logger *logger.Logger

	// LogExceptions logs every exception the CPU takes.
	LogExceptions bool

	// BlepCapacity bounds the YM transition queue. A slice that would
	// overflow it is clamped and reported as ErrBlepOverflow.
	BlepCapacity int

	// BlepLeakShift sets the DC leak of the YM output: the running DC
	// estimate moves 1/2^shift of the way to the signal each sample.
	BlepLeakShift uint

	// AmigaBlend mixes the Paula left/right pairs: 0 is hard stereo, 128 is
	// mono, 256 swaps the sides.
	AmigaBlend int

	// PaulaInterpolate selects linear interpolation between sample bytes.
	PaulaInterpolate bool

	// InitCycleLimit caps the CPU cycles a track's init routine may take.
	// Zero means DEFAULT_INIT_SECONDS of CPU time.
	InitCycleLimit uint64

	// MemorySize is the size of the emulated RAM in bytes. It must be a
	// power of two.
	MemorySize int
}

// DefaultConfig returns the configuration used when a field is left zero.
func DefaultConfig() Config {
	return Config{
		SampleRate:    SAMPLE_RATE_DEFAULT,
		BlepCapacity:  DEFAULT_BLEP_CAPACITY,
		BlepLeakShift: DEFAULT_BLEP_LEAK_SHIFT,
		MemorySize:    DEFAULT_MEMORY_SIZE,
	}
}

// withDefaults fills zero fields and validates the result.
func (c Config) withDefaults() (Config, error) {
	def := DefaultConfig()
	if c.SampleRate == 0 {
		c.SampleRate = def.SampleRate
	}
	if c.BlepCapacity == 0 {
		c.BlepCapacity = def.BlepCapacity
	}
	if c.BlepLeakShift == 0 {
		c.BlepLeakShift = def.BlepLeakShift
	}
	if c.MemorySize == 0 {
		c.MemorySize = def.MemorySize
	}
	if c.Logger == nil {
		c.Logger = logger.NewLogger(logger.DefaultMaxEntries)
	}

	if c.SampleRate < SAMPLE_RATE_MIN || c.SampleRate > SAMPLE_RATE_MAX {
		return c, fmt.Errorf("%w: %d Hz (want %d-%d)", ErrSampleRate, c.SampleRate, SAMPLE_RATE_MIN, SAMPLE_RATE_MAX)
	}
	if c.BlepCapacity < 2 {
		return c, fmt.Errorf("blep capacity %d too small", c.BlepCapacity)
	}
	if c.BlepLeakShift > 24 {
		return c, fmt.Errorf("blep leak shift %d too large", c.BlepLeakShift)
	}
	if c.AmigaBlend < 0 || c.AmigaBlend > 256 {
		return c, fmt.Errorf("amiga blend %d out of range 0-256", c.AmigaBlend)
	}
	if c.MemorySize < 64*1024 || c.MemorySize > 1<<24 || c.MemorySize&(c.MemorySize-1) != 0 {
		return c, fmt.Errorf("memory size %d must be a power of two between 64KiB and 16MiB", c.MemorySize)
	}
	return c, nil
}
