// Package capture owns the device stream and decode engine lifecycle:
// an explicit state machine over an exclusive hardware resource, with
// debounced decode events emitted to the caller.
package capture

import (
	"context"
	"errors"
	"time"

	"github.com/pantrykit/scanbatch/internal/domain"
)

// Event is one accepted decode, after debouncing.
type Event struct {
	Code   string
	Format domain.Symbology
	At     time.Time
}

// DecodeFunc receives every symbol the engine recognizes. Format is
// empty when the engine does not report a symbology.
type DecodeFunc func(code string, format domain.Symbology)

// Constraints are stream-acquisition hints. Transports without a
// camera equivalent accept and ignore them.
type Constraints struct {
	Facing string // preferred facing mode, e.g. "environment"
	Width  int    // resolution hint
	Height int
}

// Relaxed drops the resolution hints, keeping only the facing
// preference. Used for the single automatic retry after a failed start.
func (c Constraints) Relaxed() Constraints {
	return Constraints{Facing: c.Facing}
}

// Tuning is best-effort post-start device tuning. Unsupported controls
// are never surfaced as session errors.
type Tuning struct {
	ContinuousFocus bool
	Zoom            float64
}

// EngineConfig configures the decode loop.
type EngineConfig struct {
	FrameRate      int     // decode attempts per second
	RegionScale    float64 // detection-region size relative to the viewport
	Symbologies    []domain.Symbology
	PreferHardware bool // hardware-acceleration preference
}

// NoDeviceEngine is an Engine with nothing behind it: Open always
// fails, so a controller over it settles in IDLE and the session runs
// on manual entry. Used when the terminal's stdin belongs to the
// interactive view and cannot double as a capture stream.
type NoDeviceEngine struct{}

func (NoDeviceEngine) Open(context.Context, Constraints) error {
	return errors.New("no capture device")
}

func (NoDeviceEngine) StartDecoding(EngineConfig, DecodeFunc) error {
	return errors.New("no capture device")
}

func (NoDeviceEngine) Errors() <-chan error { return nil }
func (NoDeviceEngine) Tune(Tuning) error    { return nil }
func (NoDeviceEngine) Pause()               {}
func (NoDeviceEngine) Close() error         { return nil }

// Engine is the external decoding collaborator. Implementations must
// make Close idempotent and close the Errors channel on release; the
// Errors channel carries steady-state failures (no symbol in frame)
// that callers are free to drain and drop.
type Engine interface {
	// Open acquires the exclusive device stream.
	Open(ctx context.Context, c Constraints) error
	// StartDecoding begins invoking onDecode for recognized symbols.
	StartDecoding(cfg EngineConfig, onDecode DecodeFunc) error
	// Errors returns the steady-state error channel, valid after Open.
	Errors() <-chan error
	// Tune applies best-effort device tuning.
	Tune(t Tuning) error
	// Pause suspends decoding without releasing the stream.
	Pause()
	// Close releases the stream and decoder. Safe to call repeatedly.
	Close() error
}
