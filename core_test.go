package intercom

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/intercom/mixer"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	c, err := New(Config{Fs: 48000, FrameSize: 8, HeadroomDB: 0}, 2, 3, nil)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadTopology(t *testing.T) {
	_, err := New(Config{Fs: 48000, FrameSize: 8}, 0, 3, nil)
	assert.Error(t, err)
	_, err = New(Config{Fs: 0, FrameSize: 8}, 2, 3, nil)
	assert.Error(t, err)
}

func TestPushPullRoundTrip_PCM16(t *testing.T) {
	c := newTestCore(t)
	require.NoError(t, c.SetUniformRouting(0)) // 0 dB, unity gain

	in := []int16{100, -100, 32767, -32768, 0, 42, -42, 7}
	require.NoError(t, c.PushTabletFramePCM16(1, in))
	require.NoError(t, c.PushChannelFramePCM16(1, make([]int16, 8)))

	c.Tick()

	out, err := c.PullChannelFramePCM16(1)
	require.NoError(t, err)
	require.Len(t, out, 8)

	// Unity uplink gain into a channel with headroom=0 (linear 1) passes
	// through tanh, which has unity slope at zero and saturates toward
	// the rails; every sample should still land within [-32768, 32767]
	// and preserve sign.
	for i, s := range in {
		if s > 0 {
			assert.GreaterOrEqual(t, out[i], int16(0))
		} else if s < 0 {
			assert.LessOrEqual(t, out[i], int16(0))
		}
	}
}

func TestPush_BadFrameLength(t *testing.T) {
	c := newTestCore(t)
	err := c.PushTabletFramePCM16(1, make([]int16, 4))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, mixer.ErrBadFrameLength))
}

func TestPush_BadTabletID(t *testing.T) {
	c := newTestCore(t)
	err := c.PushTabletFramePCM16(99, make([]int16, 8))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, mixer.ErrBadID))
}

func TestReload_HeadroomAppliesEvenOnMismatch(t *testing.T) {
	c := newTestCore(t)

	err := c.Reload(Config{Fs: 8000, FrameSize: 999, HeadroomDB: 6})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfigMismatch))

	// fs/frame_size did not change; the core keeps mixing at its
	// construction-time constants.
	assert.Equal(t, 48000, c.fs)
	assert.Equal(t, 8, c.frameSize)

	snap := c.StateSnapshot()
	assert.InDelta(t, 6, snap.Config.HeadroomDB, 1e-6)
}

func TestReload_NoMismatchNoError(t *testing.T) {
	c := newTestCore(t)
	err := c.Reload(Config{Fs: 48000, FrameSize: 8, HeadroomDB: 3})
	assert.NoError(t, err)
}

func TestPTT_DelegatesToTracker(t *testing.T) {
	c := newTestCore(t)

	state, err := c.PTTRequest(1, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, PTTActive, state)

	chState, tablets, err := c.PTTChannelState(1)
	require.NoError(t, err)
	assert.Equal(t, PTTActive, chState)
	assert.Equal(t, []int{1}, tablets)

	channels, err := c.PTTTabletsChannels(1)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, channels)

	state, err = c.PTTRelease(1, 1)
	require.NoError(t, err)
	assert.Equal(t, PTTIdle, state)
}

func TestStateSnapshot_Shape(t *testing.T) {
	c := newTestCore(t)
	_, err := c.PTTRequest(2, 1, 0)
	require.NoError(t, err)

	snap := c.StateSnapshot()
	assert.Len(t, snap.VU.Tablets, 3)
	assert.Len(t, snap.VU.Channels, 2)
	assert.Equal(t, 2, snap.Config.NumChannels)
	assert.Equal(t, 3, snap.Config.NumTablets)
	assert.Equal(t, []int{2}, snap.PTT[1])
	assert.Equal(t, []int{}, snap.PTT[2])

	for _, v := range snap.VU.Tablets {
		assert.False(t, math.IsNaN(v))
	}
}

func TestHealthRecord_ReportsFixedConstants(t *testing.T) {
	c := newTestCore(t)
	h := c.HealthRecord()
	assert.Equal(t, "ok", h.Status)
	assert.Equal(t, 48000, h.Fs)
	assert.Equal(t, 8, h.FrameSize)
	assert.Equal(t, 2, h.NumChannels)
	assert.Equal(t, 3, h.NumTablets)
}

func TestMergeUplink_ThroughFacade(t *testing.T) {
	c := newTestCore(t)
	err := c.MergeUplink([]GainUpdate{{Row: 1, Col: 1, Gain: 1.0}})
	require.NoError(t, err)

	err = c.MergeUplink([]GainUpdate{{Row: 99, Col: 1, Gain: 1.0}})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, mixer.ErrBadID))
}

func TestMuteThroughFacade(t *testing.T) {
	c := newTestCore(t)
	require.NoError(t, c.SetTabletMute(1, true))
	require.NoError(t, c.SetChannelMute(1, true))

	err := c.SetTabletMute(99, true)
	assert.True(t, errors.Is(err, mixer.ErrBadID))
}

func TestSetHeadroomDB_RejectsOutOfRange(t *testing.T) {
	c := newTestCore(t)
	err := c.SetHeadroomDB(-1)
	assert.True(t, errors.Is(err, mixer.ErrBadHeadroom))
	err = c.SetHeadroomDB(61)
	assert.True(t, errors.Is(err, mixer.ErrBadHeadroom))
}
