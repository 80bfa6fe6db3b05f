package service

import (
	"context"
	"io"
	"log/slog"
)

// QueueEvent captures lightweight telemetry for one aggregator operation.
type QueueEvent struct {
	Op      string
	Outcome AddOutcome
	Code    string
	Entries int
	Total   int
	Err     error
}

// QueueObserver receives aggregator operation events.
type QueueObserver interface {
	ObserveQueue(ctx context.Context, event QueueEvent)
}

// NoopQueueObserver ignores all events.
type NoopQueueObserver struct{}

func (NoopQueueObserver) ObserveQueue(context.Context, QueueEvent) {}

type logQueueObserver struct {
	logger *slog.Logger
}

// NewLogQueueObserver writes aggregator events to the provided writer.
func NewLogQueueObserver(w io.Writer) QueueObserver {
	if w == nil {
		return NoopQueueObserver{}
	}
	return &logQueueObserver{
		logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

func (o *logQueueObserver) ObserveQueue(ctx context.Context, event QueueEvent) {
	attrs := make([]any, 0, 10)
	attrs = append(attrs, "op", event.Op)
	if event.Outcome != "" {
		attrs = append(attrs, "outcome", string(event.Outcome))
	}
	if event.Code != "" {
		attrs = append(attrs, "code", event.Code)
	}
	attrs = append(attrs, "entries", event.Entries, "total", event.Total)
	if event.Err != nil {
		attrs = append(attrs, "error", event.Err.Error())
		o.logger.WarnContext(ctx, "scan_queue", attrs...)
		return
	}
	o.logger.InfoContext(ctx, "scan_queue", attrs...)
}

func queueObserverOrNoop(observers []QueueObserver) QueueObserver {
	for _, obs := range observers {
		if obs != nil {
			return obs
		}
	}
	return NoopQueueObserver{}
}
