package mixer

import "errors"

// Sentinel errors for the mix-configuration validation surface. Callers
// should use errors.Is against these, since concrete errors returned by
// this package wrap them with call-specific context.
var (
	// ErrBadID reports a channel or tablet id outside its valid range.
	ErrBadID = errors.New("id out of range")
	// ErrBadGain reports a negative, NaN, or infinite gain.
	ErrBadGain = errors.New("gain must be a finite, non-negative real")
	// ErrBadHeadroom reports a headroom outside [0, 60] dB.
	ErrBadHeadroom = errors.New("headroom_db must be in [0, 60]")
	// ErrBadFrameLength reports a pushed frame whose length does not
	// equal the engine's fixed frame size N.
	ErrBadFrameLength = errors.New("frame length does not match configured frame size")
)
