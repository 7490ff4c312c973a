// Package pcm implements the two pure conversions between signed 16-bit
// PCM samples and normalized float32 audio, the boundary format the
// mixer engine works in internally.
//
// Both conversions are allocation-free on the per-frame path: callers
// supply the destination slice and this package only writes into it.
package pcm

import "math"

const (
	// scaleFromPCM converts an int16 sample to the [-1.0, 1.0) range.
	scaleFromPCM = 1.0 / 32768.0
	// scaleToPCM converts a normalized float back to the int16 range.
	scaleToPCM = 32767.0

	maxInt16 = 32767
	minInt16 = -32768
)

// FromPCM16 converts src, a slice of little-endian-decoded signed 16-bit
// samples, into normalized float32 samples in dst. len(dst) must equal
// len(src); the caller owns both slices.
//
// s=-32768 maps exactly to -1.0; s=32767 maps to slightly less than
// 1.0, since the int16 range is asymmetric around zero.
func FromPCM16(dst []float32, src []int16) {
	for i, s := range src {
		dst[i] = float32(s) * scaleFromPCM
	}
}

// ToPCM16 converts src, normalized float32 samples, into signed 16-bit
// PCM in dst. len(dst) must equal len(src).
//
// Values are scaled and rounded to the nearest integer, then clamped to
// the int16 range: saturation is the only overflow policy. NaN maps to
// 0 rather than propagating.
func ToPCM16(dst []int16, src []float32) {
	for i, f := range src {
		if math.IsNaN(float64(f)) {
			dst[i] = 0
			continue
		}
		scaled := math.Round(float64(f) * scaleToPCM)
		switch {
		case scaled > maxInt16:
			dst[i] = maxInt16
		case scaled < minInt16:
			dst[i] = minInt16
		default:
			dst[i] = int16(scaled)
		}
	}
}
