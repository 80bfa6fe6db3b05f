package testutil

import (
	"context"
	"errors"
	"net/url"
	"sync"

	"github.com/pantrykit/scanbatch/internal/host"
)

// RecordingBridge is a host.Bridge that records everything sent to it.
type RecordingBridge struct {
	mu       sync.Mutex
	Params   url.Values
	SendErr  error // returned by SendPayload when set
	payloads []string
	feedback []host.Feedback
	closed   bool
}

func (b *RecordingBridge) Notify(kind host.Feedback) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.feedback = append(b.feedback, kind)
}

func (b *RecordingBridge) SendPayload(json string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.payloads = append(b.payloads, json)
	return b.SendErr
}

func (b *RecordingBridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *RecordingBridge) LaunchParams() url.Values {
	if b.Params == nil {
		return url.Values{}
	}
	return b.Params
}

// Payloads returns every payload handed to the bridge, in order.
func (b *RecordingBridge) Payloads() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.payloads))
	copy(out, b.payloads)
	return out
}

// Feedback returns every feedback notification, in order.
func (b *RecordingBridge) Feedback() []host.Feedback {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]host.Feedback, len(b.feedback))
	copy(out, b.feedback)
	return out
}

// Closed reports whether Close was called.
func (b *RecordingBridge) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// ErrStoreUnavailable is the default failure of a FailingStateRepo.
var ErrStoreUnavailable = errors.New("store unavailable")

// FailingStateRepo fails every operation, for degradation-path tests.
type FailingStateRepo struct{}

func (FailingStateRepo) Get(context.Context, string) (string, error) {
	return "", ErrStoreUnavailable
}

func (FailingStateRepo) Set(context.Context, string, string) error {
	return ErrStoreUnavailable
}

func (FailingStateRepo) Delete(context.Context, string) error {
	return ErrStoreUnavailable
}
