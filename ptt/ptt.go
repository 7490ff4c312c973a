// Package ptt implements the push-to-talk state tracker: which tablets
// are currently transmitting on which channels, a capped append-only
// event history, and atomic point-in-time snapshots.
//
// Priority is recorded in history only; it never affects state
// transitions. Floor control, queuing, and priority preemption are
// deliberately out of scope for this tracker.
package ptt

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/opsdesk/intercom/internal/clock"
	"github.com/opsdesk/intercom/internal/telemetry"
)

// State is a (tablet, channel) pair's transmission state.
type State int

const (
	// Idle means the tablet is not currently transmitting on the channel.
	Idle State = iota
	// Active means the tablet is currently transmitting on the channel.
	Active
)

func (s State) String() string {
	if s == Active {
		return "ACTIVE"
	}
	return "IDLE"
}

// Action identifies what a history entry recorded.
type Action string

const (
	// ActionRequest records a PTT request.
	ActionRequest Action = "request"
	// ActionRelease records a PTT release.
	ActionRelease Action = "release"
)

// HistoryEntry is one append-only record in the PTT event log.
type HistoryEntry struct {
	ID       uuid.UUID
	Ts       int64 // unix nanoseconds, per clock.Clock
	Tablet   int
	Channel  int
	Action   Action
	Priority int
}

// defaultHistoryCap bounds the event log so it cannot grow without
// bound: once full, the oldest entry is evicted for every new one.
const defaultHistoryCap = 10000

// Tracker holds PTT state: per-channel sets of active tablets and a
// capped history log. Safe for concurrent use.
type Tracker struct {
	mu sync.Mutex

	numChannels int
	numTablets  int
	active      []map[int]struct{} // index by channel-1

	history    []HistoryEntry
	historyCap int
	histHead   int // next write position once history is full

	clock clock.Clock
	log   *telemetry.Logger
	sink  telemetry.EventSink
}

// Option configures a Tracker at construction.
type Option func(*Tracker)

// WithClock overrides the Tracker's time source. Defaults to
// clock.System{}.
func WithClock(c clock.Clock) Option {
	return func(t *Tracker) { t.clock = c }
}

// WithHistoryCap overrides the default history ring-buffer capacity.
func WithHistoryCap(n int) Option {
	return func(t *Tracker) {
		if n > 0 {
			t.historyCap = n
		}
	}
}

// WithEventSink attaches an EventSink that receives a typed event on
// every request/release transition.
func WithEventSink(sink telemetry.EventSink) Option {
	return func(t *Tracker) { t.sink = sink }
}

// New creates a Tracker for numChannels channels and numTablets
// tablets, with every (tablet, channel) pair initially Idle.
func New(numChannels, numTablets int, opts ...Option) *Tracker {
	t := &Tracker{
		numChannels: numChannels,
		numTablets:  numTablets,
		active:      make([]map[int]struct{}, numChannels),
		historyCap:  defaultHistoryCap,
		clock:       clock.System{},
		log:         telemetry.NewLogger("ptt", "Tracker"),
		sink:        telemetry.NoopSink{},
	}
	for i := range t.active {
		t.active[i] = make(map[int]struct{})
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) validChannel(c int) bool { return c >= 1 && c <= t.numChannels }
func (t *Tracker) validTablet(tab int) bool { return tab >= 1 && tab <= t.numTablets }

// ErrBadID is returned when a channel or tablet id is out of range.
type ErrBadID struct {
	Channel int
	Tablet  int
}

func (e *ErrBadID) Error() string {
	return fmt.Sprintf("id out of range: tablet=%d channel=%d", e.Tablet, e.Channel)
}

func (t *Tracker) appendHistoryLocked(tablet, channel int, action Action, priority int) {
	entry := HistoryEntry{
		ID:       uuid.New(),
		Ts:       t.clock.Now().UnixNano(),
		Tablet:   tablet,
		Channel:  channel,
		Action:   action,
		Priority: priority,
	}
	if len(t.history) < t.historyCap {
		t.history = append(t.history, entry)
		return
	}
	t.history[t.histHead] = entry
	t.histHead = (t.histHead + 1) % t.historyCap
}

// Request marks tablet as transmitting on channel. Idempotent: calling
// it repeatedly while already active leaves the active set unchanged
// but still appends to history.
func (t *Tracker) Request(tablet, channel, priority int) (State, error) {
	if !t.validTablet(tablet) || !t.validChannel(channel) {
		return Idle, &ErrBadID{Channel: channel, Tablet: tablet}
	}
	t.mu.Lock()
	t.active[channel-1][tablet] = struct{}{}
	t.appendHistoryLocked(tablet, channel, ActionRequest, priority)
	t.mu.Unlock()

	t.log.WithField("tablet", tablet).WithField("channel", channel).Info("ptt request")
	t.sink.Emit(telemetry.Event{
		Kind:    telemetry.KindPTTRequest,
		Message: "ptt request",
		Fields:  map[string]interface{}{"tablet": tablet, "channel": channel, "priority": priority},
	})
	return Active, nil
}

// Release marks tablet as no longer transmitting on channel. A no-op on
// the active set if the pair was already idle, but still logs.
func (t *Tracker) Release(tablet, channel int) (State, error) {
	if !t.validTablet(tablet) || !t.validChannel(channel) {
		return Idle, &ErrBadID{Channel: channel, Tablet: tablet}
	}
	t.mu.Lock()
	delete(t.active[channel-1], tablet)
	t.appendHistoryLocked(tablet, channel, ActionRelease, 0)
	t.mu.Unlock()

	t.log.WithField("tablet", tablet).WithField("channel", channel).Info("ptt release")
	t.sink.Emit(telemetry.Event{
		Kind:    telemetry.KindPTTRelease,
		Message: "ptt release",
		Fields:  map[string]interface{}{"tablet": tablet, "channel": channel},
	})
	return Idle, nil
}

// ChannelState returns the channel's overall state and the sorted list
// of currently active tablets.
func (t *Tracker) ChannelState(channel int) (State, []int, error) {
	if !t.validChannel(channel) {
		return Idle, nil, &ErrBadID{Channel: channel}
	}
	t.mu.Lock()
	tablets := sortedKeys(t.active[channel-1])
	t.mu.Unlock()

	state := Idle
	if len(tablets) > 0 {
		state = Active
	}
	return state, tablets, nil
}

// TabletsChannels returns the sorted list of channels on which tablet
// is currently active.
func (t *Tracker) TabletsChannels(tablet int) ([]int, error) {
	if !t.validTablet(tablet) {
		return nil, &ErrBadID{Tablet: tablet}
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	channels := make([]int, 0)
	for c := 0; c < t.numChannels; c++ {
		if _, ok := t.active[c][tablet]; ok {
			channels = append(channels, c+1)
		}
	}
	return channels, nil
}

// Snapshot is a point-in-time, atomic view of every channel's active
// tablet set.
type Snapshot struct {
	Channels map[int][]int
}

// Snapshot returns a Snapshot taken atomically: no channel in the
// result can reflect a state change that happened after another
// channel's state was already read into a different snapshot. Holding a
// single mutex across the whole copy achieves this without any
// per-channel torn reads.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[int][]int, t.numChannels)
	for c := 0; c < t.numChannels; c++ {
		out[c+1] = sortedKeys(t.active[c])
	}
	return Snapshot{Channels: out}
}

// History returns a copy of the current event log, oldest first.
func (t *Tracker) History() []HistoryEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.history) < t.historyCap {
		out := make([]HistoryEntry, len(t.history))
		copy(out, t.history)
		return out
	}
	out := make([]HistoryEntry, t.historyCap)
	copy(out, t.history[t.histHead:])
	copy(out[t.historyCap-t.histHead:], t.history[:t.histHead])
	return out
}

func sortedKeys(m map[int]struct{}) []int {
	out := make([]int, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
