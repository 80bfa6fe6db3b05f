package host

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPBridge posts dispatched payloads to a host webhook endpoint.
// Delivery is one-way: the response body is discarded and only
// transport-level failures are reported back to the caller, which is
// free to ignore them.
type HTTPBridge struct {
	endpoint string
	client   *http.Client
	params   url.Values
}

// NewHTTPBridge creates an HTTPBridge posting to the given endpoint.
// Launch parameters are taken from the endpoint's query string.
func NewHTTPBridge(endpoint string) (*HTTPBridge, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing host endpoint: %w", err)
	}
	return &HTTPBridge{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		params:   u.Query(),
	}, nil
}

func (b *HTTPBridge) Notify(Feedback) {}

func (b *HTTPBridge) SendPayload(json string) error {
	resp, err := b.client.Post(b.endpoint, "application/json", strings.NewReader(json))
	if err != nil {
		return fmt.Errorf("posting payload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("posting payload: host returned %s", resp.Status)
	}
	return nil
}

func (b *HTTPBridge) Close() error {
	b.client.CloseIdleConnections()
	return nil
}

func (b *HTTPBridge) LaunchParams() url.Values { return b.params }
