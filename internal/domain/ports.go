package domain

import "context"

// Controller is the control channel as seen by its dependents.
type Controller interface {
	IsConnected() bool
	SendButton(key, state int)
	SendTouch(x, y, state int)
}

// OfferPoster exchanges a local offer for a remote answer over HTTP.
type OfferPoster interface {
	PostOffer(ctx context.Context, sdp string) (Answer, error)
}

// SessionTerminator releases a negotiated session resource on the remote side.
type SessionTerminator interface {
	DeleteSession(ctx context.Context, location string) error
}

// Transport is the public negotiation surface of the real-time media engine.
type Transport interface {
	CreateOffer(ctx context.Context) (SessionDescription, error)
	// SetLocalDescription registers the offer. Implementations may block
	// until candidate gathering finishes or ctx is done.
	SetLocalDescription(ctx context.Context, desc SessionDescription) error
	// LocalDescription returns the registered local description, including
	// any gathered candidates.
	LocalDescription() SessionDescription
	SetRemoteDescription(desc SessionDescription) error
	CodecCapabilities(kind MediaKind) []Codec
	Close() error
}

// CodecPreferrer is implemented by transports that accept a codec order hint.
type CodecPreferrer interface {
	SetCodecPreferences(kind MediaKind, codecs []Codec) error
}

// FrameSink receives decoded video frames.
type FrameSink interface {
	RenderFrame(f Frame)
}
