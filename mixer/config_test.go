package mixer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig(4, 16)
	snap := cfg.Snapshot()

	want := dbToLinear(defaultUniformGainDB)
	for c := 0; c < 4; c++ {
		for tab := 0; tab < 16; tab++ {
			assert.InDelta(t, float64(want), float64(snap.Uplink[c][tab]), 1e-6)
		}
	}
	for tab := 0; tab < 16; tab++ {
		for c := 0; c < 4; c++ {
			assert.InDelta(t, float64(want), float64(snap.Downlink[tab][c]), 1e-6)
		}
	}
	assert.Equal(t, float32(defaultHeadroomDB), snap.HeadroomDB)
	for _, m := range snap.TabletMute {
		assert.False(t, m)
	}
	for _, m := range snap.ChannelMute {
		assert.False(t, m)
	}
}

func TestMergeUplink_PartialUpdatePreservesOthers(t *testing.T) {
	cfg := NewConfig(4, 16)
	before := cfg.Snapshot()

	require.NoError(t, cfg.MergeUplink([]GainUpdate{{Row: 1, Col: 2, Gain: 0.5}}))

	after := cfg.Snapshot()
	assert.InDelta(t, 0.5, float64(after.Uplink[0][1]), 1e-6)

	for c := 0; c < 4; c++ {
		for tab := 0; tab < 16; tab++ {
			if c == 0 && tab == 1 {
				continue
			}
			assert.Equal(t, before.Uplink[c][tab], after.Uplink[c][tab], "channel=%d tablet=%d", c+1, tab+1)
		}
	}
}

func TestMergeUplink_ZeroGainDeletesEntry(t *testing.T) {
	cfg := NewConfig(4, 16)
	require.NoError(t, cfg.MergeUplink([]GainUpdate{{Row: 1, Col: 2, Gain: 0.5}}))
	require.NoError(t, cfg.MergeUplink([]GainUpdate{{Row: 1, Col: 2, Gain: 0}}))

	snap := cfg.Snapshot()
	assert.Equal(t, float32(0), snap.Uplink[0][1])
}

func TestSetHeadroomDB_RejectsNegative(t *testing.T) {
	cfg := NewConfig(4, 16)
	before := cfg.Snapshot().HeadroomDB

	err := cfg.SetHeadroomDB(-1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadHeadroom))
	assert.Equal(t, before, cfg.Snapshot().HeadroomDB)
}

func TestSetHeadroomDB_RejectsAboveMax(t *testing.T) {
	cfg := NewConfig(4, 16)
	err := cfg.SetHeadroomDB(60.1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadHeadroom))
}

func TestSetHeadroomDB_AcceptsBoundary(t *testing.T) {
	cfg := NewConfig(4, 16)
	require.NoError(t, cfg.SetHeadroomDB(0))
	require.NoError(t, cfg.SetHeadroomDB(60))
}

func TestMergeUplink_RejectsOutOfRangeTablet(t *testing.T) {
	cfg := NewConfig(4, 16)
	err := cfg.MergeUplink([]GainUpdate{{Row: 1, Col: 99, Gain: 0.1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadID))
}

func TestMergeUplink_RejectsNegativeGain(t *testing.T) {
	cfg := NewConfig(4, 16)
	err := cfg.MergeUplink([]GainUpdate{{Row: 1, Col: 1, Gain: -0.1}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadGain))
}

func TestMergeUplink_AllOrNothing(t *testing.T) {
	cfg := NewConfig(4, 16)
	before := cfg.Snapshot()

	err := cfg.MergeUplink([]GainUpdate{
		{Row: 1, Col: 1, Gain: 0.9},
		{Row: 1, Col: 99, Gain: 0.1}, // invalid, aborts the whole call
	})
	require.Error(t, err)

	after := cfg.Snapshot()
	assert.Equal(t, before.Uplink, after.Uplink)
}

func TestSetTabletMute_RejectsBadID(t *testing.T) {
	cfg := NewConfig(4, 16)
	err := cfg.SetTabletMute(17, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadID))
}
