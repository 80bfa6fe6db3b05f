package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pantrykit/scanbatch/internal/domain"
	"github.com/pantrykit/scanbatch/internal/host"
	"github.com/pantrykit/scanbatch/internal/repository"
)

// queueStateKey is the fixed key the queue is serialized under in the
// session-scoped store.
const queueStateKey = "scan_queue"

type queueService struct {
	mu       sync.Mutex
	store    repository.StateRepo
	bridge   host.Bridge
	observer QueueObserver
	entries  []domain.ScanEntry
}

// NewQueueService creates the session aggregator. The queue is restored
// from the store when a usable serialized value exists; any read or
// parse failure degrades to an empty queue and never fails construction.
// A nil store keeps the queue in memory only; a nil bridge means no host.
func NewQueueService(store repository.StateRepo, bridge host.Bridge, observers ...QueueObserver) QueueService {
	if bridge == nil {
		bridge = host.NoopBridge{}
	}
	s := &queueService{
		store:    store,
		bridge:   bridge,
		observer: queueObserverOrNoop(observers),
	}
	s.restore(context.Background())
	return s
}

func (s *queueService) restore(ctx context.Context) {
	if s.store == nil {
		return
	}
	raw, err := s.store.Get(ctx, queueStateKey)
	if err != nil {
		return
	}
	var stored []domain.ScanEntry
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		s.observer.ObserveQueue(ctx, QueueEvent{Op: "restore", Err: err})
		return
	}
	entries := make([]domain.ScanEntry, 0, len(stored))
	for _, e := range stored {
		if e.Code == "" {
			continue
		}
		if e.Count < 1 {
			e.Count = 1
		}
		entries = append(entries, e)
	}
	s.entries = entries
}

// persistLocked serializes the queue to the store. Persistence failure
// degrades to the in-memory queue: observed, never returned.
func (s *queueService) persistLocked(ctx context.Context) {
	if s.store == nil {
		return
	}
	raw, err := json.Marshal(s.entries)
	if err == nil {
		err = s.store.Set(ctx, queueStateKey, string(raw))
	}
	if err != nil {
		s.observer.ObserveQueue(ctx, QueueEvent{Op: "persist", Err: err})
	}
}

func (s *queueService) Add(ctx context.Context, code string, format domain.Symbology, at time.Time) (AddOutcome, error) {
	if code == "" {
		return "", ErrEmptyCode
	}

	s.mu.Lock()
	outcome := OutcomeAdded
	found := false
	for i := range s.entries {
		if s.entries[i].Code == code {
			s.entries[i].Count++
			outcome = OutcomeIncremented
			found = true
			break
		}
	}
	if !found {
		if at.IsZero() {
			at = time.Now().UTC()
		}
		s.entries = append(s.entries, domain.ScanEntry{
			Code:        code,
			Format:      format,
			Count:       1,
			FirstSeenAt: at,
		})
	}
	s.persistLocked(ctx)
	stats := s.statsLocked()
	s.mu.Unlock()

	s.observer.ObserveQueue(ctx, QueueEvent{
		Op:      "add",
		Outcome: outcome,
		Code:    code,
		Entries: stats.Entries,
		Total:   stats.Total,
	})
	return outcome, nil
}

func (s *queueService) Entries() []domain.ScanEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ScanEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *queueService) Stats() QueueStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statsLocked()
}

func (s *queueService) statsLocked() QueueStats {
	total := 0
	for _, e := range s.entries {
		total += e.Count
	}
	return QueueStats{Entries: len(s.entries), Total: total}
}

// Remove deletes the entry at index. Out-of-bounds is a silent no-op.
func (s *queueService) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	if index < 0 || index >= len(s.entries) {
		s.mu.Unlock()
		return nil
	}
	code := s.entries[index].Code
	s.entries = append(s.entries[:index], s.entries[index+1:]...)
	s.persistLocked(ctx)
	stats := s.statsLocked()
	s.mu.Unlock()

	s.observer.ObserveQueue(ctx, QueueEvent{Op: "remove", Code: code, Entries: stats.Entries, Total: stats.Total})
	return nil
}

func (s *queueService) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.entries = s.entries[:0]
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.observer.ObserveQueue(ctx, QueueEvent{Op: "clear"})
	return nil
}

// BuildPayload snapshots the queue in insertion order. It never
// mutates the queue and is safe to call repeatedly.
func (s *queueService) BuildPayload(mode domain.Mode) domain.BatchPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return buildPayload(mode, s.entries)
}

func buildPayload(mode domain.Mode, entries []domain.ScanEntry) domain.BatchPayload {
	scans := make([]domain.PayloadScan, 0, len(entries))
	for _, e := range entries {
		scans = append(scans, domain.PayloadScan{
			Code:   e.Code,
			Format: string(e.Format),
			Count:  e.Count,
		})
	}
	return domain.BatchPayload{Mode: string(mode), Scans: scans}
}

// Dispatch finalizes the queue into a payload and hands it to the host.
// The queue is cleared and the cleared state persisted BEFORE delivery
// is attempted, so the UI never shows stale counts while the host
// processes the batch. Delivery is fire-and-forget: a failed send is
// observed but not retried, per the host-boundary contract.
func (s *queueService) Dispatch(ctx context.Context, mode domain.Mode) (DispatchResult, error) {
	s.mu.Lock()
	if len(s.entries) == 0 {
		s.mu.Unlock()
		return DispatchResult{}, nil
	}
	payload := buildPayload(mode, s.entries)
	stats := s.statsLocked()
	s.entries = s.entries[:0]
	s.persistLocked(ctx)
	s.mu.Unlock()

	raw, err := json.Marshal(payload)
	if err != nil {
		s.observer.ObserveQueue(ctx, QueueEvent{Op: "dispatch", Err: err})
		return DispatchResult{}, err
	}

	sendErr := s.bridge.SendPayload(string(raw))
	s.observer.ObserveQueue(ctx, QueueEvent{
		Op:      "dispatch",
		Entries: stats.Entries,
		Total:   stats.Total,
		Err:     sendErr,
	})

	return DispatchResult{Sent: true, Payload: payload, Entries: stats.Entries, Total: stats.Total}, nil
}

// SendSingle hands one scan to the host in the legacy single-scan wire
// shape, bypassing the queue entirely.
func (s *queueService) SendSingle(ctx context.Context, code string, format domain.Symbology, mode domain.Mode) error {
	if code == "" {
		return ErrEmptyCode
	}
	raw, err := json.Marshal(domain.SinglePayload{
		Code:   code,
		Format: string(format),
		Mode:   string(mode),
	})
	if err != nil {
		return err
	}
	sendErr := s.bridge.SendPayload(string(raw))
	s.observer.ObserveQueue(ctx, QueueEvent{Op: "send_single", Code: code, Err: sendErr})
	return sendErr
}
