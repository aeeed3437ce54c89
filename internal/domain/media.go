package domain

import "time"

// Frame is one decoded video access unit handed to the display sink.
// Data is opaque to the core; for H264 it is an Annex-B access unit.
type Frame struct {
	TrackID   string
	MimeType  string
	Data      []byte
	Timestamp uint32
	Received  time.Time
}
