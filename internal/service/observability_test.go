package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogQueueObserver_WritesEvents(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLogQueueObserver(&buf)

	obs.ObserveQueue(context.Background(), QueueEvent{Op: "add", Outcome: OutcomeAdded, Code: "123", Entries: 1, Total: 1})
	out := buf.String()
	assert.Contains(t, out, "op=add")
	assert.Contains(t, out, "outcome=added")
	assert.Contains(t, out, "code=123")

	buf.Reset()
	obs.ObserveQueue(context.Background(), QueueEvent{Op: "persist", Err: errors.New("disk full")})
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "disk full")
}

func TestNewLogQueueObserver_NilWriterIsNoop(t *testing.T) {
	obs := NewLogQueueObserver(nil)
	assert.IsType(t, NoopQueueObserver{}, obs)
}
