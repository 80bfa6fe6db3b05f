// Package host defines the capability boundary to the parent application
// that embeds the scanner and receives dispatched payloads.
package host

import "net/url"

// Feedback is the kind of tactile/audible confirmation requested from
// the host. Hosts without a feedback channel simply ignore these.
type Feedback string

const (
	FeedbackSuccess Feedback = "success"
	FeedbackWarning Feedback = "warning"
	FeedbackError   Feedback = "error"
)

// Bridge is the injected host capability interface. All methods are
// fire-and-forget from the session's point of view: SendPayload has no
// acknowledgement visible to the caller, and Notify failures are never
// surfaced. A NoopBridge stands in when no host is present.
type Bridge interface {
	// Notify requests haptic/audible feedback of the given kind.
	Notify(kind Feedback)
	// SendPayload hands a JSON payload to the host messaging channel.
	SendPayload(json string) error
	// Close signals the host that the session is complete.
	Close() error
	// LaunchParams returns the parameters the view was opened with.
	LaunchParams() url.Values
}

// NoopBridge is a Bridge for standalone operation without a host.
type NoopBridge struct{}

func (NoopBridge) Notify(Feedback)          {}
func (NoopBridge) SendPayload(string) error { return nil }
func (NoopBridge) Close() error             { return nil }
func (NoopBridge) LaunchParams() url.Values { return url.Values{} }
