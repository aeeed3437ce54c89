package domain

import "strings"

// SDPType is the role of a session description in negotiation.
type SDPType string

const (
	SDPTypeOffer  SDPType = "offer"
	SDPTypeAnswer SDPType = "answer"
)

// SessionDescription is an opaque SDP blob with its negotiation role.
type SessionDescription struct {
	Type SDPType `json:"type"`
	SDP  string  `json:"sdp"`
}

// SDPVersionMarker must appear in every valid session description.
const SDPVersionMarker = "v=0"

// LooksLikeSDP reports whether text carries the mandatory version line.
func LooksLikeSDP(text string) bool {
	return strings.Contains(text, SDPVersionMarker)
}

// Answer is the remote description returned by the negotiation endpoint.
type Answer struct {
	SDP string
	// Location is the session resource URL, empty if the endpoint did not
	// provide one.
	Location string
}

// MediaKind is the kind of media a codec or track carries.
type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

// Codec describes one codec capability of the transport.
type Codec struct {
	MimeType    string
	ClockRate   uint32
	Channels    uint16
	SDPFmtpLine string
	PayloadType uint8
}
