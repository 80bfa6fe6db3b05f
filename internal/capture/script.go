package capture

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pantrykit/scanbatch/internal/domain"
)

// ScriptedDecode is one decode the ScriptEngine replays.
type ScriptedDecode struct {
	After  time.Duration // delay before this decode fires
	Code   string
	Format domain.Symbology
}

// ScriptEngine replays a fixed decode script. It backs the demo scan
// mode and the controller tests, and records the constraints of every
// Open call so retry behavior can be asserted.
type ScriptEngine struct {
	mu       sync.Mutex
	script   []ScriptedDecode
	failOpen int
	opened   bool
	paused   bool
	errs     chan error
	stop     chan struct{}
	done     chan struct{}
	opens    []Constraints
}

// NewScriptEngine creates a ScriptEngine replaying the given script.
func NewScriptEngine(script []ScriptedDecode) *ScriptEngine {
	return &ScriptEngine{script: script}
}

// FailOpens makes the next n Open calls fail, to exercise the
// controller's relaxed-constraint retry path.
func (e *ScriptEngine) FailOpens(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failOpen = n
}

// Opens returns the constraints of every Open call so far.
func (e *ScriptEngine) Opens() []Constraints {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]Constraints, len(e.opens))
	copy(out, e.opens)
	return out
}

func (e *ScriptEngine) Open(ctx context.Context, c Constraints) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opens = append(e.opens, c)
	if e.failOpen > 0 {
		e.failOpen--
		return errors.New("scripted open failure")
	}
	if e.opened {
		return errors.New("stream already open")
	}
	e.opened = true
	e.paused = false
	e.errs = make(chan error, 8)
	e.stop = make(chan struct{})
	e.done = make(chan struct{})
	return nil
}

// Done is closed when the script has been fully replayed or the engine
// stopped. Valid after Open.
func (e *ScriptEngine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

func (e *ScriptEngine) StartDecoding(cfg EngineConfig, onDecode DecodeFunc) error {
	e.mu.Lock()
	if !e.opened {
		e.mu.Unlock()
		return errors.New("stream not open")
	}
	script := e.script
	stop := e.stop
	done := e.done
	e.mu.Unlock()

	go func() {
		defer close(done)
		for _, d := range script {
			select {
			case <-stop:
				return
			case <-time.After(d.After):
			}
			e.mu.Lock()
			paused := e.paused || !e.opened
			e.mu.Unlock()
			if paused {
				return
			}
			onDecode(d.Code, d.Format)
		}
	}()
	return nil
}

func (e *ScriptEngine) Errors() <-chan error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errs
}

func (e *ScriptEngine) Tune(Tuning) error { return nil }

func (e *ScriptEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
}

func (e *ScriptEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opened {
		return nil
	}
	e.opened = false
	close(e.stop)
	close(e.errs)
	return nil
}
