// errors.go - Error values surfaced by sessions.

package sc68

import "errors"

// Fatal emulation faults. Returned by Render together with the frames that
// were produced before the fault.
var (
	ErrHalted         = errors.New("cpu halted")
	ErrDoubleFault    = errors.New("fault while processing a fault")
	ErrUnmappedVector = errors.New("exception vector has no handler")
	ErrBlepOverflow   = errors.New("ym blep event queue overflow")
)

// Configuration errors. Returned by NewSession and SelectTrack before any
// rendering takes place.
var (
	ErrBadHardware = errors.New("invalid hardware flags")
	ErrBadImage    = errors.New("invalid program image")
	ErrSampleRate  = errors.New("sample rate out of range")
	ErrTrackRange  = errors.New("track out of range")
	ErrInitTimeout = errors.New("init routine did not return")
	ErrClosed      = errors.New("session closed")
)
