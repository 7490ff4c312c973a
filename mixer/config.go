package mixer

import (
	"fmt"
	"math"
	"sync"

	"github.com/opsdesk/intercom/internal/telemetry"
)

const (
	// defaultUniformGainDB is the routing gain a freshly constructed
	// Config starts at, before any explicit routing call.
	defaultUniformGainDB = -12.0
	// defaultHeadroomDB is the headroom a freshly constructed Config
	// carries before any SetHeadroomDB call.
	defaultHeadroomDB = 12.0
	minHeadroomDB     = 0.0
	maxHeadroomDB     = 60.0
)

// Config holds the mix-configuration state: the bidirectional
// routing matrices, mute vectors, and headroom. It is safe for concurrent
// use; every mutator validates its entire input before touching any state,
// so a rejected call leaves Config byte-for-byte unchanged.
type Config struct {
	mu sync.RWMutex

	numChannels int
	numTablets  int

	uplink      [][]float32 // [channel-1][tablet-1]
	downlink    [][]float32 // [tablet-1][channel-1]
	tabletMute  []bool
	channelMute []bool
	headroomDB  float32

	log *telemetry.Logger
}

// NewConfig creates a Config for numChannels channels and numTablets
// tablets, initialized to uniform routing at -12 dBFS across every
// pair, no mutes, and defaultHeadroomDB headroom.
func NewConfig(numChannels, numTablets int) *Config {
	c := &Config{
		numChannels: numChannels,
		numTablets:  numTablets,
		uplink:      make2D(numChannels, numTablets),
		downlink:    make2D(numTablets, numChannels),
		tabletMute:  make([]bool, numTablets),
		channelMute: make([]bool, numChannels),
		headroomDB:  defaultHeadroomDB,
		log:         telemetry.NewLogger("mixer", "Config"),
	}
	c.setUniformRoutingLocked(defaultUniformGainDB)
	return c
}

func make2D(rows, cols int) [][]float32 {
	m := make([][]float32, rows)
	for i := range m {
		m[i] = make([]float32, cols)
	}
	return m
}

// dbToLinear converts a gain in dB to a linear multiplier: 10^(db/20).
func dbToLinear(db float64) float32 {
	return float32(math.Pow(10, db/20))
}

// headroomToLinear converts a non-negative headroom in dB to the linear
// attenuation applied pre-limiter: 10^(-headroom_db/20). Headroom is
// always attenuation, never amplification, so raising it can only pull
// a signal further from the limiter, never push it closer.
func headroomToLinear(db float64) float32 {
	return float32(math.Pow(10, -db/20))
}

// validGain reports whether g is finite and non-negative: gains model a
// physical attenuation/amplification factor, which cannot be negative.
func validGain(g float64) bool {
	return !math.IsNaN(g) && !math.IsInf(g, 0) && g >= 0
}

func (c *Config) validChannel(ch int) bool { return ch >= 1 && ch <= c.numChannels }
func (c *Config) validTablet(t int) bool   { return t >= 1 && t <= c.numTablets }

// SetUniformRouting populates every uplink and downlink entry with the
// linear equivalent of gainDB and clears all mutes.
func (c *Config) SetUniformRouting(gainDB float64) error {
	if math.IsNaN(gainDB) || math.IsInf(gainDB, 0) {
		c.log.WithField("gain_db", gainDB).Error("rejected non-finite uniform routing gain")
		return fmt.Errorf("uniform routing gain_db must be finite: %w", ErrBadGain)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setUniformRoutingLocked(gainDB)
	c.log.WithField("gain_db", gainDB).Info("uniform routing applied")
	return nil
}

func (c *Config) setUniformRoutingLocked(gainDB float64) {
	g := dbToLinear(gainDB)
	for ch := range c.uplink {
		for t := range c.uplink[ch] {
			c.uplink[ch][t] = g
		}
	}
	for t := range c.downlink {
		for ch := range c.downlink[t] {
			c.downlink[t][ch] = g
		}
	}
	for i := range c.tabletMute {
		c.tabletMute[i] = false
	}
	for i := range c.channelMute {
		c.channelMute[i] = false
	}
}

// GainUpdate is one (id, id, gain) triple in a partial matrix merge.
// Unspecified pairs keep their current value; a gain of exactly 0
// deletes the entry, muting that route without touching any other.
type GainUpdate struct {
	Row  int // channel id for uplink, tablet id for downlink
	Col  int // tablet id for uplink, channel id for downlink
	Gain float64
}

// MergeUplink applies a partial merge to the uplink[c][t] matrix. Every
// update is validated before any is applied.
func (c *Config) MergeUplink(updates []GainUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.validateMerge(updates, c.validChannel, c.validTablet); err != nil {
		return err
	}
	for _, u := range updates {
		c.uplink[u.Row-1][u.Col-1] = float32(u.Gain)
	}
	c.log.WithField("count", len(updates)).Info("uplink matrix merged")
	return nil
}

// MergeDownlink applies a partial merge to the downlink[t][c] matrix.
func (c *Config) MergeDownlink(updates []GainUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.validateMerge(updates, c.validTablet, c.validChannel); err != nil {
		return err
	}
	for _, u := range updates {
		c.downlink[u.Row-1][u.Col-1] = float32(u.Gain)
	}
	c.log.WithField("count", len(updates)).Info("downlink matrix merged")
	return nil
}

func (c *Config) validateMerge(updates []GainUpdate, validRow, validCol func(int) bool) error {
	for _, u := range updates {
		if !validRow(u.Row) || !validCol(u.Col) {
			c.log.WithField("row", u.Row).WithField("col", u.Col).Error("rejected out-of-range id in matrix merge")
			return fmt.Errorf("row=%d col=%d: %w", u.Row, u.Col, ErrBadID)
		}
		if !validGain(u.Gain) {
			c.log.WithField("gain", u.Gain).Error("rejected invalid gain in matrix merge")
			return fmt.Errorf("gain=%v: %w", u.Gain, ErrBadGain)
		}
	}
	return nil
}

// SetTabletMute sets tablet t's mute flag.
func (c *Config) SetTabletMute(t int, mute bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.validTablet(t) {
		return fmt.Errorf("tablet=%d: %w", t, ErrBadID)
	}
	c.tabletMute[t-1] = mute
	c.log.WithField("tablet", t).WithField("mute", mute).Info("tablet mute updated")
	return nil
}

// SetChannelMute sets channel c's mute flag.
func (c *Config) SetChannelMute(ch int, mute bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.validChannel(ch) {
		return fmt.Errorf("channel=%d: %w", ch, ErrBadID)
	}
	c.channelMute[ch-1] = mute
	c.log.WithField("channel", ch).WithField("mute", mute).Info("channel mute updated")
	return nil
}

// SetHeadroomDB sets the pre-limiter headroom attenuation, in dB.
func (c *Config) SetHeadroomDB(x float64) error {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < minHeadroomDB || x > maxHeadroomDB {
		c.log.WithField("headroom_db", x).Error("rejected out-of-range headroom")
		return fmt.Errorf("headroom_db=%v: %w", x, ErrBadHeadroom)
	}
	c.mu.Lock()
	c.headroomDB = float32(x)
	c.mu.Unlock()
	c.log.WithField("headroom_db", x).Info("headroom updated")
	return nil
}

// Snapshot returns an immutable, independently-owned copy of the current
// configuration suitable for exactly one Engine.Tick call. The lock is
// held only long enough to copy the dense matrices, so a slow reader
// never blocks a concurrent mutator for longer than that copy.
func (c *Config) Snapshot() *Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := &Snapshot{
		NumChannels:    c.numChannels,
		NumTablets:     c.numTablets,
		Uplink:         copy2D(c.uplink),
		Downlink:       copy2D(c.downlink),
		TabletMute:     append([]bool(nil), c.tabletMute...),
		ChannelMute:    append([]bool(nil), c.channelMute...),
		HeadroomDB:     c.headroomDB,
		HeadroomLinear: headroomToLinear(float64(c.headroomDB)),
	}
	return s
}

func copy2D(src [][]float32) [][]float32 {
	dst := make([][]float32, len(src))
	for i, row := range src {
		dst[i] = append([]float32(nil), row...)
	}
	return dst
}

// Snapshot is a point-in-time, read-only view of a Config, taken at tick
// entry. It is never mutated after creation.
type Snapshot struct {
	NumChannels    int
	NumTablets     int
	Uplink         [][]float32
	Downlink       [][]float32
	TabletMute     []bool
	ChannelMute    []bool
	HeadroomDB     float32
	HeadroomLinear float32
}
