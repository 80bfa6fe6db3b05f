package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pantrykit/scanbatch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector gathers emitted events for assertions.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) emit(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) all() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func newTestController(t *testing.T, eng Engine, cfg Config) (*Controller, *collector) {
	t.Helper()
	col := &collector{}
	ctrl := NewController(eng, cfg, col.emit)
	t.Cleanup(ctrl.Stop)
	return ctrl, col
}

func TestController_StartStopLifecycle(t *testing.T) {
	eng := NewScriptEngine(nil)
	ctrl, _ := newTestController(t, eng, DefaultConfig())

	assert.Equal(t, PhaseIdle, ctrl.Phase())

	require.NoError(t, ctrl.Start(context.Background()))
	assert.Equal(t, PhaseActive, ctrl.Phase())

	// Start while active is disallowed by the state machine.
	assert.ErrorIs(t, ctrl.Start(context.Background()), ErrNotIdle)

	ctrl.Stop()
	assert.Equal(t, PhaseIdle, ctrl.Phase())

	// Stop while already idle is a no-op.
	ctrl.Stop()
	assert.Equal(t, PhaseIdle, ctrl.Phase())
}

func TestController_RetryWithRelaxedConstraints(t *testing.T) {
	eng := NewScriptEngine(nil)
	eng.FailOpens(1)
	ctrl, _ := newTestController(t, eng, DefaultConfig())

	require.NoError(t, ctrl.Start(context.Background()))
	assert.Equal(t, PhaseActive, ctrl.Phase())

	opens := eng.Opens()
	require.Len(t, opens, 2)
	assert.Equal(t, Constraints{Facing: "environment", Width: 1280, Height: 720}, opens[0])
	// Retry keeps only the facing preference.
	assert.Equal(t, Constraints{Facing: "environment"}, opens[1])
}

func TestController_TerminalFailureSettlesIdle(t *testing.T) {
	eng := NewScriptEngine(nil)
	eng.FailOpens(2)
	ctrl, _ := newTestController(t, eng, DefaultConfig())

	err := ctrl.Start(context.Background())
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, PhaseIdle, ctrl.Phase())

	// Capture failure is non-fatal: a later start may succeed.
	require.NoError(t, ctrl.Start(context.Background()))
	assert.Equal(t, PhaseActive, ctrl.Phase())
}

func TestController_DebounceWindow(t *testing.T) {
	eng := NewScriptEngine(nil)
	ctrl, col := newTestController(t, eng, DefaultConfig())

	now := time.Now()
	ctrl.now = func() time.Time { return now }
	require.NoError(t, ctrl.Start(context.Background()))

	ctrl.handleDecode("X", domain.SymbologyEAN13)
	now = now.Add(500 * time.Millisecond)
	ctrl.handleDecode("X", domain.SymbologyEAN13) // inside the window, dropped
	require.Len(t, col.all(), 1)

	now = now.Add(3 * time.Second)
	ctrl.handleDecode("X", domain.SymbologyEAN13) // outside the window
	require.Len(t, col.all(), 2)
}

func TestController_DebounceBoundaryAndDistinctCodes(t *testing.T) {
	eng := NewScriptEngine(nil)
	ctrl, col := newTestController(t, eng, DefaultConfig())

	now := time.Now()
	ctrl.now = func() time.Time { return now }
	require.NoError(t, ctrl.Start(context.Background()))

	ctrl.handleDecode("X", domain.SymbologyEAN13)
	// A different code is never debounced.
	ctrl.handleDecode("Y", domain.SymbologyEAN13)
	require.Len(t, col.all(), 2)

	// Exactly the window boundary is accepted (strictly-under drops).
	now = now.Add(2 * time.Second)
	ctrl.handleDecode("Y", domain.SymbologyEAN13)
	require.Len(t, col.all(), 3)
}

func TestController_NoDeviceSettlesIdle(t *testing.T) {
	ctrl, col := newTestController(t, NoDeviceEngine{}, DefaultConfig())

	assert.ErrorIs(t, ctrl.Start(context.Background()), ErrUnavailable)
	assert.Equal(t, PhaseIdle, ctrl.Phase())
	assert.Empty(t, col.all())
}

func TestController_DebounceIgnoresFormat(t *testing.T) {
	eng := NewScriptEngine(nil)
	ctrl, col := newTestController(t, eng, DefaultConfig())

	now := time.Now()
	ctrl.now = func() time.Time { return now }
	require.NoError(t, ctrl.Start(context.Background()))

	// Debounce keys on code equality alone. A repeat inside the window
	// is dropped even when the reported symbology differs.
	ctrl.handleDecode("12345678", domain.SymbologyEAN8)
	now = now.Add(time.Second)
	ctrl.handleDecode("12345678", domain.SymbologyCode128)
	require.Len(t, col.all(), 1)
}

func TestController_DefaultsFormatWhenUnreported(t *testing.T) {
	eng := NewScriptEngine(nil)
	ctrl, col := newTestController(t, eng, DefaultConfig())
	require.NoError(t, ctrl.Start(context.Background()))

	ctrl.handleDecode("ABC-99", "")

	events := col.all()
	require.Len(t, events, 1)
	assert.Equal(t, domain.SymbologyCode128, events[0].Format)
}

func TestController_SingleShotStopsAfterFirstDecode(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Continuous = false
	eng := NewScriptEngine(nil)
	ctrl, col := newTestController(t, eng, cfg)
	require.NoError(t, ctrl.Start(context.Background()))

	ctrl.handleDecode("123", domain.SymbologyEAN8)

	require.Len(t, col.all(), 1)
	assert.Equal(t, PhaseIdle, ctrl.Phase())

	// Events after settling are ignored.
	ctrl.handleDecode("456", domain.SymbologyEAN8)
	assert.Len(t, col.all(), 1)
}

func TestController_EmitsScriptedDecodes(t *testing.T) {
	eng := NewScriptEngine([]ScriptedDecode{
		{After: time.Millisecond, Code: "4006381333931", Format: domain.SymbologyEAN13},
		{After: time.Millisecond, Code: "ABC-99"},
	})
	ctrl, col := newTestController(t, eng, DefaultConfig())
	require.NoError(t, ctrl.Start(context.Background()))

	require.Eventually(t, func() bool { return len(col.all()) == 2 }, time.Second, 5*time.Millisecond)

	events := col.all()
	assert.Equal(t, "4006381333931", events[0].Code)
	assert.Equal(t, domain.SymbologyEAN13, events[0].Format)
	assert.Equal(t, "ABC-99", events[1].Code)
	assert.Equal(t, domain.SymbologyCode128, events[1].Format)
}

// blockingEngine blocks Open until released, to exercise a Stop issued
// while the controller is still STARTING.
type blockingEngine struct {
	ScriptEngine
	release chan struct{}
	closed  chan struct{}
	once    sync.Once
}

func (e *blockingEngine) Open(ctx context.Context, c Constraints) error {
	select {
	case <-e.release:
		return errors.New("stream torn down")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *blockingEngine) Close() error {
	e.once.Do(func() { close(e.closed) })
	return nil
}

func TestController_StopWhileStartingAborts(t *testing.T) {
	eng := &blockingEngine{release: make(chan struct{}), closed: make(chan struct{})}
	ctrl := NewController(eng, DefaultConfig(), nil)

	done := make(chan error, 1)
	go func() { done <- ctrl.Start(context.Background()) }()

	require.Eventually(t, func() bool { return ctrl.Phase() == PhaseStarting }, time.Second, time.Millisecond)

	ctrl.Stop()
	close(eng.release) // the pending acquisition now fails

	require.NoError(t, <-done)
	assert.Equal(t, PhaseIdle, ctrl.Phase())

	select {
	case <-eng.closed:
	case <-time.After(time.Second):
		t.Fatal("engine was not released")
	}
}
