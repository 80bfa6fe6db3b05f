package host

import (
	"fmt"
	"io"
	"net/url"
)

// WriterBridge writes each dispatched payload as one line to an
// io.Writer, typically stdout, so batches can be piped into the host.
type WriterBridge struct {
	w      io.Writer
	params url.Values
}

// NewWriterBridge creates a WriterBridge with the given launch parameters.
func NewWriterBridge(w io.Writer, params url.Values) *WriterBridge {
	if params == nil {
		params = url.Values{}
	}
	return &WriterBridge{w: w, params: params}
}

func (b *WriterBridge) Notify(Feedback) {}

func (b *WriterBridge) SendPayload(json string) error {
	if _, err := fmt.Fprintln(b.w, json); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}
	return nil
}

func (b *WriterBridge) Close() error { return nil }

func (b *WriterBridge) LaunchParams() url.Values { return b.params }
