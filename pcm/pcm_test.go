package pcm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestFromPCM16_Boundaries(t *testing.T) {
	dst := make([]float32, 3)
	FromPCM16(dst, []int16{-32768, 0, 32767})

	assert.Equal(t, float32(-1.0), dst[0])
	assert.Equal(t, float32(0.0), dst[1])
	assert.InDelta(t, 1.0, float64(dst[2]), 1e-4)
}

func TestToPCM16_Clamps(t *testing.T) {
	dst := make([]int16, 4)
	ToPCM16(dst, []float32{2.0, -2.0, 0, float32(math.NaN())})

	assert.Equal(t, int16(32767), dst[0])
	assert.Equal(t, int16(-32768), dst[1])
	assert.Equal(t, int16(0), dst[2])
	assert.Equal(t, int16(0), dst[3], "NaN must map to 0")
}

// Every int16 sample must survive a PCM->float->PCM round trip exactly,
// except -32768, which saturates to -32767 due to the asymmetric int16
// range.
func TestRoundTrip_PCMToFloatToPCM(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.Int16().Draw(t, "s")

		fbuf := make([]float32, 1)
		FromPCM16(fbuf, []int16{s})
		pbuf := make([]int16, 1)
		ToPCM16(pbuf, fbuf)

		if s == math.MinInt16 {
			assert.Equal(t, int16(math.MinInt16+1), pbuf[0])
		} else {
			assert.Equal(t, s, pbuf[0])
		}
	})
}

// A float->PCM->float round trip must land within one quantization step
// of the original value clamped to [-1, 1].
func TestRoundTrip_FloatToPCMToFloat(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := float32(rapid.Float64Range(-10, 10).Draw(t, "f"))

		pbuf := make([]int16, 1)
		ToPCM16(pbuf, []float32{f})
		fbuf := make([]float32, 1)
		FromPCM16(fbuf, pbuf)

		clamped := f
		if clamped > 1 {
			clamped = 1
		} else if clamped < -1 {
			clamped = -1
		}
		assert.InDelta(t, float64(clamped), float64(fbuf[0]), 1.0/32767.0+1e-6)
	})
}
