package intercom

import (
	"time"

	"github.com/opsdesk/intercom/mixer"
)

// ConfigView is a read-only, JSON-friendly view of the current mix
// configuration, suitable for embedding in a state or health record.
type ConfigView struct {
	NumChannels int         `json:"num_channels"`
	NumTablets  int         `json:"num_tablets"`
	Uplink      [][]float32 `json:"uplink"`
	Downlink    [][]float32 `json:"downlink"`
	TabletMute  []bool      `json:"tablet_mute"`
	ChannelMute []bool      `json:"channel_mute"`
	HeadroomDB  float32     `json:"headroom_db"`
}

func newConfigView(s *mixer.Snapshot) ConfigView {
	return ConfigView{
		NumChannels: s.NumChannels,
		NumTablets:  s.NumTablets,
		Uplink:      s.Uplink,
		Downlink:    s.Downlink,
		TabletMute:  s.TabletMute,
		ChannelMute: s.ChannelMute,
		HeadroomDB:  s.HeadroomDB,
	}
}

// VUView reports the most recently computed level, in dBFS, for every
// tablet and channel.
type VUView struct {
	Tablets  map[int]float64 `json:"tablets"`
	Channels map[int]float64 `json:"channels"`
}

// StateRecord is the combined snapshot exposed to a control API: current
// levels, current routing/mute/headroom configuration, and current PTT
// state, all taken close enough in time to present as one coherent
// picture even though each subsystem guards its own state independently.
type StateRecord struct {
	Ts     time.Time     `json:"ts"`
	VU     VUView        `json:"vu"`
	Config ConfigView    `json:"config"`
	PTT    map[int][]int `json:"ptt_channels"`
}

// StateSnapshot assembles a StateRecord from the current state of the
// mix configuration, engine VU meters, and PTT tracker.
func (c *Core) StateSnapshot() StateRecord {
	cfgSnap := c.mix.Snapshot()

	return StateRecord{
		Ts:     time.Now(),
		VU:     c.VULevelsDB(),
		Config: newConfigView(cfgSnap),
		PTT:    c.ptt.Snapshot().Channels,
	}
}

// VULevelsDB returns the most recently computed level, in dBFS, for
// every tablet and channel. Unlike StateSnapshot it touches neither the
// mix configuration matrices nor the PTT tracker, so it is cheap enough
// to drive a meter feed published on its own fast, fixed interval.
func (c *Core) VULevelsDB() VUView {
	vu := VUView{
		Tablets:  make(map[int]float64, c.numTablets),
		Channels: make(map[int]float64, c.numChannels),
	}
	for t := 1; t <= c.numTablets; t++ {
		vu.Tablets[t] = c.engine.TabletDBFS(t)
	}
	for ch := 1; ch <= c.numChannels; ch++ {
		vu.Channels[ch] = c.engine.ChannelDBFS(ch)
	}
	return vu
}

// HealthRecord is a lightweight liveness/topology summary, cheaper to
// produce than StateSnapshot, meant for frequent polling by an operator
// dashboard or load balancer health check.
type HealthRecord struct {
	Status      string    `json:"status"`
	Ts          time.Time `json:"ts"`
	Fs          int       `json:"fs"`
	FrameSize   int       `json:"frame_size"`
	NumChannels int       `json:"num_channels"`
	NumTablets  int       `json:"num_tablets"`
}

// HealthRecord reports current topology and fixed constants. Status is
// always "ok": a constructed Core has no failure mode that leaves it
// running but unhealthy.
func (c *Core) HealthRecord() HealthRecord {
	return HealthRecord{
		Status:      "ok",
		Ts:          time.Now(),
		Fs:          c.fs,
		FrameSize:   c.frameSize,
		NumChannels: c.numChannels,
		NumTablets:  c.numTablets,
	}
}
