package intercom

import (
	"fmt"
	"time"

	"github.com/opsdesk/intercom/internal/telemetry"
	"github.com/opsdesk/intercom/mixer"
	"github.com/opsdesk/intercom/pcm"
	"github.com/opsdesk/intercom/ptt"
)

// GainUpdate is a single (row, col, gain) triple in a partial matrix
// merge; re-exported from mixer so callers only need to import this
// package.
type GainUpdate = mixer.GainUpdate

// PTTState mirrors ptt.State at the facade boundary.
type PTTState = ptt.State

const (
	// PTTIdle indicates a tablet is not transmitting on a channel.
	PTTIdle = ptt.Idle
	// PTTActive indicates a tablet is transmitting on a channel.
	PTTActive = ptt.Active
)

// Core is the control facade: the single object graph a hosting process
// constructs once and drives for the process lifetime. Every exported
// method is safe for concurrent use; Tick is expected to be called from
// exactly one periodic scheduler while other methods are called from
// arbitrary contexts such as an operator console or control API handler.
type Core struct {
	fs        int
	frameSize int

	numChannels int
	numTablets  int

	mix    *mixer.Config
	engine *mixer.Engine
	ptt    *ptt.Tracker

	sink telemetry.EventSink
	log  *telemetry.Logger
}

// New constructs a Core for the given topology and initial
// configuration. The configuration's fs and frame_size become the
// core's fixed constants for the process lifetime; only headroom_db may
// be changed later, via Reload or SetHeadroomDB.
func New(cfg Config, numChannels, numTablets int, sink telemetry.EventSink) (*Core, error) {
	if cfg.Fs <= 0 || cfg.FrameSize <= 0 {
		return nil, fmt.Errorf("fs and frame_size must be positive: fs=%d frame_size=%d", cfg.Fs, cfg.FrameSize)
	}
	if numChannels <= 0 || numTablets <= 0 {
		return nil, fmt.Errorf("num_channels and num_tablets must be positive: channels=%d tablets=%d", numChannels, numTablets)
	}
	if sink == nil {
		sink = telemetry.NoopSink{}
	}

	mix := mixer.NewConfig(numChannels, numTablets)
	if err := mix.SetHeadroomDB(cfg.HeadroomDB); err != nil {
		return nil, err
	}

	c := &Core{
		fs:          cfg.Fs,
		frameSize:   cfg.FrameSize,
		numChannels: numChannels,
		numTablets:  numTablets,
		mix:         mix,
		engine:      mixer.NewEngine(cfg.FrameSize, numChannels, numTablets),
		ptt:         ptt.New(numChannels, numTablets, ptt.WithEventSink(sink)),
		sink:        sink,
		log:         telemetry.NewLogger("intercom", "Core"),
	}
	c.log.WithField("fs", cfg.Fs).WithField("frame_size", cfg.FrameSize).
		WithField("channels", numChannels).WithField("tablets", numTablets).
		Info("core constructed")
	return c, nil
}

// Reload applies a new configuration object. fs and frame_size are
// compared against the core's construction-time constants; a mismatch
// is reported to the EventSink and returned as an error wrapping
// ErrConfigMismatch, but headroom_db is still live-applied regardless —
// a mismatched reload is recoverable, not fatal.
func (c *Core) Reload(cfg Config) error {
	var mismatchErr error
	if cfg.Fs != c.fs || cfg.FrameSize != c.frameSize {
		mismatchErr = fmt.Errorf("reload fs=%d frame_size=%d, core is fs=%d frame_size=%d: %w",
			cfg.Fs, cfg.FrameSize, c.fs, c.frameSize, ErrConfigMismatch)
		c.log.WithError(mismatchErr, "Reload").Warn("configuration mismatch on reload")
		c.sink.Emit(telemetry.Event{
			Kind:    telemetry.KindConfigMismatch,
			Ts:      time.Now(),
			Message: mismatchErr.Error(),
			Fields: map[string]interface{}{
				"reload_fs": cfg.Fs, "reload_frame_size": cfg.FrameSize,
				"core_fs": c.fs, "core_frame_size": c.frameSize,
			},
		})
	}

	if err := c.mix.SetHeadroomDB(cfg.HeadroomDB); err != nil {
		return err
	}
	return mismatchErr
}

// Tick runs one mixing step: a snapshot of the current mix configuration
// is taken, then the engine mixes uplink -> limiter -> downlink against
// it. Bounded time, no I/O.
func (c *Core) Tick() {
	c.engine.Tick(c.mix.Snapshot())
}

// PushTabletFramePCM16 replaces tablet t's input buffer from little-
// endian signed 16-bit PCM.
func (c *Core) PushTabletFramePCM16(t int, samples []int16) error {
	buf := make([]float32, len(samples))
	pcm.FromPCM16(buf, samples)
	return c.engine.PushTabletFrame(t, buf)
}

// PushChannelFramePCM16 replaces channel c's input buffer from
// little-endian signed 16-bit PCM. Not read by Tick; see
// mixer.Engine.PushChannelFrame.
func (c *Core) PushChannelFramePCM16(ch int, samples []int16) error {
	buf := make([]float32, len(samples))
	pcm.FromPCM16(buf, samples)
	return c.engine.PushChannelFrame(ch, buf)
}

// PullTabletFramePCM16 copies out tablet t's current output buffer as
// little-endian signed 16-bit PCM.
func (c *Core) PullTabletFramePCM16(t int) ([]int16, error) {
	f := make([]float32, c.frameSize)
	if err := c.engine.PullTabletFrame(t, f); err != nil {
		return nil, err
	}
	out := make([]int16, c.frameSize)
	pcm.ToPCM16(out, f)
	return out, nil
}

// PullChannelFramePCM16 copies out channel c's current output buffer as
// little-endian signed 16-bit PCM.
func (c *Core) PullChannelFramePCM16(ch int) ([]int16, error) {
	f := make([]float32, c.frameSize)
	if err := c.engine.PullChannelFrame(ch, f); err != nil {
		return nil, err
	}
	out := make([]int16, c.frameSize)
	pcm.ToPCM16(out, f)
	return out, nil
}

// SetUniformRouting populates every uplink and downlink entry with the
// linear equivalent of gainDB and clears all mutes.
func (c *Core) SetUniformRouting(gainDB float64) error {
	return c.mix.SetUniformRouting(gainDB)
}

// MergeUplink applies a partial merge to the uplink[c][t] matrix.
func (c *Core) MergeUplink(updates []GainUpdate) error {
	return c.mix.MergeUplink(updates)
}

// MergeDownlink applies a partial merge to the downlink[t][c] matrix.
func (c *Core) MergeDownlink(updates []GainUpdate) error {
	return c.mix.MergeDownlink(updates)
}

// SetTabletMute sets tablet t's mute flag.
func (c *Core) SetTabletMute(t int, mute bool) error {
	return c.mix.SetTabletMute(t, mute)
}

// SetChannelMute sets channel c's mute flag.
func (c *Core) SetChannelMute(ch int, mute bool) error {
	return c.mix.SetChannelMute(ch, mute)
}

// SetHeadroomDB sets the pre-limiter headroom attenuation, in dB.
func (c *Core) SetHeadroomDB(x float64) error {
	return c.mix.SetHeadroomDB(x)
}

// PTTRequest marks tablet as transmitting on channel.
func (c *Core) PTTRequest(tablet, channel, priority int) (PTTState, error) {
	return c.ptt.Request(tablet, channel, priority)
}

// PTTRelease marks tablet as no longer transmitting on channel.
func (c *Core) PTTRelease(tablet, channel int) (PTTState, error) {
	return c.ptt.Release(tablet, channel)
}

// PTTChannelState returns a channel's overall state and sorted active
// tablet ids.
func (c *Core) PTTChannelState(channel int) (PTTState, []int, error) {
	return c.ptt.ChannelState(channel)
}

// PTTTabletsChannels returns the sorted channels a tablet is active on.
func (c *Core) PTTTabletsChannels(tablet int) ([]int, error) {
	return c.ptt.TabletsChannels(tablet)
}

// PTTSnapshot returns an atomic point-in-time view of PTT state.
func (c *Core) PTTSnapshot() ptt.Snapshot {
	return c.ptt.Snapshot()
}
