package service

import (
	"context"
	"errors"
	"time"

	"github.com/pantrykit/scanbatch/internal/domain"
)

// ErrEmptyCode is returned when an empty code reaches the aggregator.
// Callers validate at the input boundary, so seeing this error means a
// boundary check was skipped.
var ErrEmptyCode = errors.New("empty code")

// AddOutcome reports which branch an Add took, so callers can pick
// distinct feedback (success for a new entry, warning for a repeat).
type AddOutcome string

const (
	OutcomeAdded       AddOutcome = "added"
	OutcomeIncremented AddOutcome = "incremented"
)

// QueueStats are the derived presentation aggregates.
type QueueStats struct {
	Entries int // distinct codes
	Total   int // sum of counts, shown in the dispatch call-to-action
}

// DispatchResult reports what a Dispatch handed off. Sent is false for
// the empty-queue no-op.
type DispatchResult struct {
	Sent    bool
	Payload domain.BatchPayload
	Entries int
	Total   int
}

// QueueService is the session aggregator: it owns the ordered queue of
// distinct scanned entries, applies dedup/count-increment semantics,
// persists the queue across reloads, and hands the final payload to
// the host.
type QueueService interface {
	Add(ctx context.Context, code string, format domain.Symbology, at time.Time) (AddOutcome, error)
	Entries() []domain.ScanEntry
	Stats() QueueStats
	Remove(ctx context.Context, index int) error
	Clear(ctx context.Context) error
	BuildPayload(mode domain.Mode) domain.BatchPayload
	Dispatch(ctx context.Context, mode domain.Mode) (DispatchResult, error)
	// SendSingle hands one scan to the host in the legacy single-scan
	// wire shape, without touching the queue.
	SendSingle(ctx context.Context, code string, format domain.Symbology, mode domain.Mode) error
}
