package analytics

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Sink delivers an event somewhere. Errors are never surfaced to the workflow.
type Sink interface {
	Report(ctx context.Context, event Event) error
}

// Reporter fans an event out to every sink, swallowing failures and panics.
type Reporter struct {
	sinks []Sink
	l     *zap.Logger
}

// NewReporter creates a reporter over the given sinks.
func NewReporter(l *zap.Logger, sinks ...Sink) *Reporter {
	return &Reporter{sinks: sinks, l: l}
}

// Report is fire-and-forget from the caller's point of view.
func (r *Reporter) Report(ctx context.Context, event Event) {
	if r == nil {
		return
	}
	for _, s := range r.sinks {
		r.deliver(ctx, s, event)
	}
}

func (r *Reporter) deliver(ctx context.Context, s Sink, event Event) {
	defer func() {
		if p := recover(); p != nil {
			r.l.Error("analytics sink panicked",
				zap.String("event", string(event.Type())),
				zap.String("panic", fmt.Sprint(p)))
		}
	}()

	if err := s.Report(ctx, event); err != nil {
		r.l.Warn("analytics sink failed",
			zap.String("event", string(event.Type())),
			zap.Error(err))
	}
}

// LogSink writes events to a zap logger.
type LogSink struct {
	l *zap.Logger
}

// NewLogSink creates a sink logging at info level.
func NewLogSink(l *zap.Logger) *LogSink {
	return &LogSink{l: l.With(zap.String("component", "analytics"))}
}

// Report logs the event.
func (s *LogSink) Report(_ context.Context, event Event) error {
	meta := event.Metadata()
	s.l.Info("analytics event",
		zap.String("type", string(event.Type())),
		zap.String("id", meta.ID),
		zap.String("asset", meta.Asset),
		zap.Any("event", event))
	return nil
}
