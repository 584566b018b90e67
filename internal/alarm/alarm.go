// Package alarm defines the Alarm collaborator SE forwards non-fatal
// turn failures to (spec.md §4.4.7), plus a structured-logging sink. The
// real alarm/reporting pipeline is an external collaborator; this
// package only specifies the interface the engine depends on.
package alarm

import "go.uber.org/zap"

// Event is one alarm-worthy condition observed during a sharding turn.
type Event struct {
	Namespace string
	Job       string
	Executor  string // optional, empty when not executor-specific
	Reason    string
	Detail    string
}

// Sink receives alarm events. Implementations must not block the
// engine loop; a slow sink should buffer or drop internally.
type Sink interface {
	Raise(Event)
}

// LogSink logs alarm events at warn level. It is the default Sink used
// when no external alarm/reporting pipeline is wired.
type LogSink struct {
	log *zap.Logger
}

func NewLogSink(log *zap.Logger) *LogSink {
	return &LogSink{log: log.Named("alarm")}
}

func (s *LogSink) Raise(e Event) {
	s.log.Warn("alarm",
		zap.String("namespace", e.Namespace),
		zap.String("job", e.Job),
		zap.String("executor", e.Executor),
		zap.String("reason", e.Reason),
		zap.String("detail", e.Detail),
	)
}
