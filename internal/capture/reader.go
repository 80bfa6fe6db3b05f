package capture

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pantrykit/scanbatch/internal/domain"
)

// ReaderEngine decodes from a line-oriented device such as a serial or
// HID barcode scanner. Each line is either "SYMBOLOGY:code" when the
// device reports an AIM-style prefix, or a bare code with no reported
// symbology. Camera constraints and tuning have no equivalent on this
// transport and are ignored.
type ReaderEngine struct {
	mu       sync.Mutex
	path     string
	provided io.Reader
	rc       io.ReadCloser
	opened   bool
	paused   bool
	errs     chan error
	done     chan struct{}
}

// NewReaderEngine creates a ReaderEngine reading from the device at
// path. "-" reads from stdin.
func NewReaderEngine(path string) *ReaderEngine {
	return &ReaderEngine{path: path}
}

// NewReaderEngineFrom creates a ReaderEngine over an existing reader.
func NewReaderEngineFrom(r io.Reader) *ReaderEngine {
	return &ReaderEngine{provided: r}
}

func (e *ReaderEngine) Open(ctx context.Context, _ Constraints) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.opened {
		return errors.New("device already open")
	}
	switch {
	case e.provided != nil:
		e.rc = io.NopCloser(e.provided)
	case e.path == "-":
		e.rc = io.NopCloser(os.Stdin)
	default:
		f, err := os.Open(e.path)
		if err != nil {
			return fmt.Errorf("opening device %s: %w", e.path, err)
		}
		e.rc = f
	}
	e.opened = true
	e.paused = false
	e.errs = make(chan error, 8)
	e.done = make(chan struct{})
	return nil
}

// Done is closed when the device's line stream ends, typically on EOF
// of a piped input. Valid after Open.
func (e *ReaderEngine) Done() <-chan struct{} {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

func (e *ReaderEngine) StartDecoding(cfg EngineConfig, onDecode DecodeFunc) error {
	e.mu.Lock()
	if !e.opened {
		e.mu.Unlock()
		return errors.New("device not open")
	}
	rc := e.rc
	done := e.done
	e.mu.Unlock()

	go func() {
		defer close(done)
		scanner := bufio.NewScanner(rc)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			e.mu.Lock()
			skip := e.paused || !e.opened
			e.mu.Unlock()
			if skip {
				continue
			}
			code, format := parseLine(line)
			onDecode(code, format)
		}
		if err := scanner.Err(); err != nil {
			e.mu.Lock()
			if e.opened {
				select {
				case e.errs <- err:
				default:
				}
			}
			e.mu.Unlock()
		}
	}()
	return nil
}

func (e *ReaderEngine) Errors() <-chan error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errs
}

// Tune always fails: a line transport exposes no focus or zoom
// controls. Callers treat tuning as best effort.
func (e *ReaderEngine) Tune(Tuning) error {
	return errors.New("tuning not supported by line device")
}

func (e *ReaderEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paused = true
}

func (e *ReaderEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.opened {
		return nil
	}
	e.opened = false
	close(e.errs)
	return e.rc.Close()
}

// parseLine splits a device line into code and reported symbology. A
// prefix that is not a known symbology (e.g. "https" in a URL) is kept
// as part of the code, with no reported format.
func parseLine(line string) (string, domain.Symbology) {
	if idx := strings.IndexByte(line, ':'); idx > 0 {
		prefix := domain.Symbology(line[:idx])
		for _, s := range domain.AcceptedSymbologies {
			if prefix == s {
				return line[idx+1:], s
			}
		}
	}
	return line, ""
}
