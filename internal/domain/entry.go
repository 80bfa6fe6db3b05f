package domain

import "time"

// ScanEntry is one aggregated line item in the session queue.
// Code is unique within a session; repeat observations bump Count
// on the existing entry instead of appending a new one.
type ScanEntry struct {
	Code        string    `json:"code"`
	Format      Symbology `json:"format"`
	Count       int       `json:"count"`
	FirstSeenAt time.Time `json:"first_seen_at"`
}

// PayloadScan is the per-entry wire shape inside a batch payload.
type PayloadScan struct {
	Code   string `json:"code"`
	Format string `json:"format"`
	Count  int    `json:"count"`
}

// BatchPayload is the dispatch wire format. Field order and names are
// fixed by the host contract and must not change.
type BatchPayload struct {
	Mode  string        `json:"mode"`
	Scans []PayloadScan `json:"scans"`
}

// SinglePayload is the legacy one-scan wire shape the host also accepts.
// Used for single-shot capture handoff.
type SinglePayload struct {
	Code   string `json:"code"`
	Format string `json:"format"`
	Mode   string `json:"mode"`
}
