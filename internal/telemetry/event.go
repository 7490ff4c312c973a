package telemetry

import "time"

// Kind identifies the category of a typed event emitted by the core.
type Kind string

const (
	// KindConfigMismatch reports a reload whose fs/frame_size disagree
	// with the core's construction-time constants.
	KindConfigMismatch Kind = "config_mismatch"
	// KindConfigUpdated reports a successful configuration mutation.
	KindConfigUpdated Kind = "config_updated"
	// KindValidationError reports a rejected facade call.
	KindValidationError Kind = "validation_error"
	// KindPTTRequest reports a PTT request transition.
	KindPTTRequest Kind = "ptt_request"
	// KindPTTRelease reports a PTT release transition.
	KindPTTRelease Kind = "ptt_release"
)

// Event is a typed, structured record the core hands to an EventSink.
// The core never blocks on Emit and never calls it from Engine.Tick.
type Event struct {
	Kind    Kind
	Ts      time.Time
	Message string
	Fields  map[string]interface{}
}

// EventSink receives typed events from the core. Implementations must
// not block for any meaningful duration and must be safe for concurrent
// use, since events may originate from any facade caller.
type EventSink interface {
	Emit(Event)
}

// NoopSink discards all events. Used as the default when a caller does
// not wire an EventSink.
type NoopSink struct{}

// Emit implements EventSink.
func (NoopSink) Emit(Event) {}

// LogrusSink adapts EventSink to structured logrus output.
type LogrusSink struct {
	logger *Logger
}

// NewLogrusSink creates an EventSink that logs via logrus.
func NewLogrusSink() *LogrusSink {
	return &LogrusSink{logger: NewLogger("intercom", "event")}
}

// Emit implements EventSink.
func (s *LogrusSink) Emit(ev Event) {
	l := s.logger.WithField("kind", string(ev.Kind)).WithField("ts", ev.Ts)
	for k, v := range ev.Fields {
		l = l.WithField(k, v)
	}
	switch ev.Kind {
	case KindConfigMismatch, KindValidationError:
		l.Warn(ev.Message)
	default:
		l.Info(ev.Message)
	}
}
