package mixer

import (
	"fmt"
	"math"
	"sync"

	"github.com/opsdesk/intercom/internal/telemetry"
)

// Engine is the real-time mixing engine: per-tick uplink summation,
// headroom, soft limiting, downlink summation, and VU accumulation.
// Tick itself performs no I/O and never logs, so its running time stays
// bounded regardless of logging backend; rejected push/pull calls are
// logged since those happen off the tick path.
//
// Buffers are guarded by a single mutex; push, tick, and pull all
// serialize on it, so a slow reader can only ever delay the next
// caller, never see a torn buffer.
type Engine struct {
	mu sync.Mutex

	frameSize   int
	numChannels int
	numTablets  int

	tabletIn   [][]float32
	tabletOut  [][]float32
	channelIn  [][]float32
	channelOut [][]float32

	tabletRMS  []float64
	channelRMS []float64

	// scratch is a reusable per-tick accumulator, sized frameSize, to
	// keep Tick allocation-free.
	scratch []float32

	log *telemetry.Logger
}

// NewEngine creates an Engine for the given frame size and topology.
// All buffers start zero-initialized, so a Tick before the first push
// mixes silence rather than reading uninitialized memory.
func NewEngine(frameSize, numChannels, numTablets int) *Engine {
	return &Engine{
		frameSize:   frameSize,
		numChannels: numChannels,
		numTablets:  numTablets,
		tabletIn:    make2D(numTablets, frameSize),
		tabletOut:   make2D(numTablets, frameSize),
		channelIn:   make2D(numChannels, frameSize),
		channelOut:  make2D(numChannels, frameSize),
		tabletRMS:   make([]float64, numTablets),
		channelRMS:  make([]float64, numChannels),
		scratch:     make([]float32, frameSize),
		log:         telemetry.NewLogger("mixer", "Engine"),
	}
}

// FrameSize returns the engine's fixed frame length N.
func (e *Engine) FrameSize() int { return e.frameSize }

func (e *Engine) validTablet(t int) bool  { return t >= 1 && t <= e.numTablets }
func (e *Engine) validChannel(c int) bool { return c >= 1 && c <= e.numChannels }

// PushTabletFrame replaces tablet t's input buffer. Last-writer-wins:
// only the most recent push before the next Tick is used.
func (e *Engine) PushTabletFrame(t int, frame []float32) error {
	if !e.validTablet(t) {
		e.log.WithField("tablet", t).Error("rejected out-of-range tablet id on push")
		return fmt.Errorf("tablet=%d: %w", t, ErrBadID)
	}
	if len(frame) != e.frameSize {
		e.log.WithField("tablet", t).WithField("len", len(frame)).Error("rejected mismatched frame length on tablet push")
		return fmt.Errorf("tablet=%d len=%d want=%d: %w", t, len(frame), e.frameSize, ErrBadFrameLength)
	}
	e.mu.Lock()
	copy(e.tabletIn[t-1], frame)
	e.mu.Unlock()
	return nil
}

// PushChannelFrame replaces channel c's input buffer. Not read by Tick;
// present for symmetry with PushTabletFrame and for future consumers
// (e.g. a channel-level recorder) that want the last frame written.
func (e *Engine) PushChannelFrame(c int, frame []float32) error {
	if !e.validChannel(c) {
		e.log.WithField("channel", c).Error("rejected out-of-range channel id on push")
		return fmt.Errorf("channel=%d: %w", c, ErrBadID)
	}
	if len(frame) != e.frameSize {
		e.log.WithField("channel", c).WithField("len", len(frame)).Error("rejected mismatched frame length on channel push")
		return fmt.Errorf("channel=%d len=%d want=%d: %w", c, len(frame), e.frameSize, ErrBadFrameLength)
	}
	e.mu.Lock()
	copy(e.channelIn[c-1], frame)
	e.mu.Unlock()
	return nil
}

// PullTabletFrame copies out tablet t's current output buffer.
func (e *Engine) PullTabletFrame(t int, dst []float32) error {
	if !e.validTablet(t) {
		e.log.WithField("tablet", t).Error("rejected out-of-range tablet id on pull")
		return fmt.Errorf("tablet=%d: %w", t, ErrBadID)
	}
	if len(dst) != e.frameSize {
		e.log.WithField("tablet", t).WithField("len", len(dst)).Error("rejected mismatched buffer length on tablet pull")
		return fmt.Errorf("tablet=%d len=%d want=%d: %w", t, len(dst), e.frameSize, ErrBadFrameLength)
	}
	e.mu.Lock()
	copy(dst, e.tabletOut[t-1])
	e.mu.Unlock()
	return nil
}

// PullChannelFrame copies out channel c's current output buffer.
func (e *Engine) PullChannelFrame(c int, dst []float32) error {
	if !e.validChannel(c) {
		e.log.WithField("channel", c).Error("rejected out-of-range channel id on pull")
		return fmt.Errorf("channel=%d: %w", c, ErrBadID)
	}
	if len(dst) != e.frameSize {
		e.log.WithField("channel", c).WithField("len", len(dst)).Error("rejected mismatched buffer length on channel pull")
		return fmt.Errorf("channel=%d len=%d want=%d: %w", c, len(dst), e.frameSize, ErrBadFrameLength)
	}
	e.mu.Lock()
	copy(dst, e.channelOut[c-1])
	e.mu.Unlock()
	return nil
}

// TabletDBFS returns tablet t's most recently computed level in dBFS.
func (e *Engine) TabletDBFS(t int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return LinearToDBFS(e.tabletRMS[t-1])
}

// ChannelDBFS returns channel c's most recently computed level in dBFS.
func (e *Engine) ChannelDBFS(c int) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return LinearToDBFS(e.channelRMS[c-1])
}

// Tick runs one mixing step against snapshot s: uplink sum (weighted by
// uplink gain and tablet mute) → headroom → tanh soft limiter →
// channel_out and channel_rms, then downlink sum (weighted by downlink
// gain and channel mute) → tablet_out, with tablet_rms computed from
// tablet_in.
func (e *Engine) Tick(s *Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for c := 0; c < e.numChannels; c++ {
		acc := e.scratch
		for i := range acc {
			acc[i] = 0
		}
		if !s.ChannelMute[c] {
			for t := 0; t < e.numTablets; t++ {
				w := s.Uplink[c][t]
				if s.TabletMute[t] {
					w = 0
				}
				if w == 0 {
					continue
				}
				in := e.tabletIn[t]
				for i := range acc {
					acc[i] += w * in[i]
				}
			}
		}

		var sumSq float64
		out := e.channelOut[c]
		for i, v := range acc {
			v *= s.HeadroomLinear
			y := float32(math.Tanh(float64(v)))
			out[i] = y
			sumSq += float64(y) * float64(y)
		}
		e.channelRMS[c] = math.Sqrt(sumSq / float64(len(out)))
	}

	for t := 0; t < e.numTablets; t++ {
		out := e.tabletOut[t]
		for i := range out {
			out[i] = 0
		}
		if !s.TabletMute[t] {
			for c := 0; c < e.numChannels; c++ {
				w := s.Downlink[t][c]
				if s.ChannelMute[c] {
					w = 0
				}
				if w == 0 {
					continue
				}
				in := e.channelOut[c]
				for i := range out {
					out[i] += w * in[i]
				}
			}
		}

		var sumSq float64
		in := e.tabletIn[t]
		for _, v := range in {
			sumSq += float64(v) * float64(v)
		}
		e.tabletRMS[t] = math.Sqrt(sumSq / float64(len(in)))
	}
}
