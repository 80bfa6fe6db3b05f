package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pantrykit/scanbatch/internal/domain"
)

// ErrNotIdle is returned by Start when capture is already running.
var ErrNotIdle = errors.New("capture already started")

// ErrUnavailable is returned when both start attempts fail. It is a
// non-fatal capture failure: callers fall back to manual entry.
var ErrUnavailable = errors.New("capture device unavailable")

// Phase is the controller's lifecycle state.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseStarting Phase = "starting"
	PhaseActive   Phase = "active"
	PhaseError    Phase = "error"
)

// Config holds controller settings. Zero values fall back to defaults.
type Config struct {
	Constraints    Constraints
	Engine         EngineConfig
	Tuning         Tuning
	DebounceWindow time.Duration
	// Continuous keeps scanning after each accepted decode. When false
	// (single-shot) the first accepted decode pauses the engine and the
	// controller settles back in IDLE after emitting.
	Continuous bool
}

// DefaultConfig returns the default capture configuration.
func DefaultConfig() Config {
	return Config{
		Constraints:    Constraints{Facing: "environment", Width: 1280, Height: 720},
		Engine:         EngineConfig{FrameRate: 10, RegionScale: 0.6, Symbologies: domain.AcceptedSymbologies, PreferHardware: true},
		Tuning:         Tuning{ContinuousFocus: true, Zoom: 2.0},
		DebounceWindow: 2 * time.Second,
		Continuous:     true,
	}
}

// Controller runs the capture lifecycle state machine
// IDLE → STARTING → ACTIVE → IDLE, with one automatic retry via ERROR
// on a failed start. All state is serialized under a mutex so decode
// events never interleave and the debounce check stays consistent.
type Controller struct {
	engine  Engine
	cfg     Config
	onEvent func(Event)

	mu       sync.Mutex
	phase    Phase
	gen      int // bumped by Stop to invalidate in-flight starts
	lastCode string
	lastAt   time.Time

	now func() time.Time
}

// NewController creates a Controller over the given engine. onEvent
// receives accepted (debounced) decode events and may be nil.
func NewController(engine Engine, cfg Config, onEvent func(Event)) *Controller {
	if cfg.Constraints == (Constraints{}) {
		cfg.Constraints = DefaultConfig().Constraints
	}
	if cfg.Engine.FrameRate == 0 {
		cfg.Engine.FrameRate = 10
	}
	if cfg.Engine.RegionScale == 0 {
		cfg.Engine.RegionScale = 0.6
	}
	if cfg.Engine.Symbologies == nil {
		cfg.Engine.Symbologies = domain.AcceptedSymbologies
	}
	if cfg.DebounceWindow == 0 {
		cfg.DebounceWindow = 2 * time.Second
	}
	return &Controller{
		engine:  engine,
		cfg:     cfg,
		onEvent: onEvent,
		phase:   PhaseIdle,
		now:     time.Now,
	}
}

// Phase returns the current lifecycle phase.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Start acquires the stream and begins decoding. Valid only from IDLE.
// A failed attempt is retried once with relaxed constraints; if the
// retry also fails the controller settles in IDLE and reports
// ErrUnavailable without raising a session-fatal condition.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return ErrNotIdle
	}
	c.phase = PhaseStarting
	gen := c.gen
	c.mu.Unlock()

	if err := c.attempt(ctx, c.cfg.Constraints); err != nil {
		if !c.transition(gen, PhaseStarting, PhaseError) {
			return nil // stopped while starting
		}
		if !c.transition(gen, PhaseError, PhaseStarting) {
			return nil
		}
		if retryErr := c.attempt(ctx, c.cfg.Constraints.Relaxed()); retryErr != nil {
			c.transition(gen, PhaseStarting, PhaseIdle)
			return fmt.Errorf("%w: %v", ErrUnavailable, retryErr)
		}
	}

	if !c.transition(gen, PhaseStarting, PhaseActive) {
		// Stop raced the start; make sure the stream is released.
		_ = c.engine.Close()
		return nil
	}

	// Best-effort tuning. Unsupported focus/zoom controls are ignored.
	_ = c.engine.Tune(c.cfg.Tuning)

	// Steady-state decode errors (no symbol in frame) are expected,
	// high-frequency, and suppressed. The engine closes the channel on
	// release, ending the drain.
	go func(errs <-chan error) {
		for range errs {
		}
	}(c.engine.Errors())

	return nil
}

// Stop releases the stream and decoder. Valid from any phase and
// idempotent; a Stop during STARTING aborts the pending attempt.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.phase == PhaseIdle {
		c.mu.Unlock()
		return
	}
	c.phase = PhaseIdle
	c.gen++
	c.mu.Unlock()
	_ = c.engine.Close()
}

func (c *Controller) attempt(ctx context.Context, cons Constraints) error {
	if err := c.engine.Open(ctx, cons); err != nil {
		return fmt.Errorf("acquiring stream: %w", err)
	}
	if err := c.engine.StartDecoding(c.cfg.Engine, c.handleDecode); err != nil {
		_ = c.engine.Close()
		return fmt.Errorf("starting decoder: %w", err)
	}
	return nil
}

// transition advances phase from `from` to `to` unless a Stop has
// invalidated the starting generation in the meantime.
func (c *Controller) transition(gen int, from, to Phase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen || c.phase != from {
		return false
	}
	c.phase = to
	return true
}

// handleDecode is the engine callback. It drops repeats of the last
// accepted code inside the debounce window, defaults the format for
// engines that do not report one, and emits the accepted event.
func (c *Controller) handleDecode(code string, format domain.Symbology) {
	c.mu.Lock()
	if c.phase != PhaseActive {
		c.mu.Unlock()
		return
	}
	now := c.now()
	if code == c.lastCode && now.Sub(c.lastAt) < c.cfg.DebounceWindow {
		c.mu.Unlock()
		return
	}
	c.lastCode = code
	c.lastAt = now
	if format == "" {
		format = domain.SymbologyCode128
	}
	single := !c.cfg.Continuous
	if single {
		c.engine.Pause()
	}
	emit := c.onEvent
	c.mu.Unlock()

	if emit != nil {
		emit(Event{Code: code, Format: format, At: now})
	}
	if single {
		c.Stop()
	}
}
