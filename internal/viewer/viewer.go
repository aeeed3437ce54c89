// Package viewer negotiates the receive-only video session that shows the
// machine's screen.
package viewer

import (
	"context"
	"strings"
	"sync"
	"time"

	"cagate/remote/internal/domain"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "viewer")

const (
	defaultGatherTimeout = 6 * time.Second
	teardownTimeout      = 2 * time.Second
)

// Config tunes a negotiation attempt.
type Config struct {
	// PreferredCodec is matched case-insensitively as a substring of each
	// codec's MIME type. Empty leaves the transport's order untouched.
	PreferredCodec string
	// GatherTimeout bounds the wait for local candidates before the offer
	// is posted.
	GatherTimeout time.Duration
}

// Session is the record of one negotiation attempt.
type Session struct {
	ID         string
	Local      domain.SessionDescription
	Remote     domain.SessionDescription
	CodecOrder []domain.Codec
	Location   string
}

// Viewer runs a single offer/answer exchange against a transport and a
// negotiation endpoint. It transmits at most one offer and is not retried.
// Negotiate must not be called concurrently.
type Viewer struct {
	transport domain.Transport
	poster    domain.OfferPoster
	cfg       Config

	mu      sync.Mutex
	state   domain.NegotiationState
	session Session
	closed  bool
}

// New creates a Viewer for transport, posting offers through poster.
func New(transport domain.Transport, poster domain.OfferPoster, cfg Config) *Viewer {
	if cfg.GatherTimeout <= 0 {
		cfg.GatherTimeout = defaultGatherTimeout
	}
	return &Viewer{
		transport: transport,
		poster:    poster,
		cfg:       cfg,
	}
}

// State returns the negotiation state.
func (v *Viewer) State() domain.NegotiationState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Session returns a copy of the current session record.
func (v *Viewer) Session() Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session
}

// Start negotiates in the background. The returned channel receives the
// result and is then closed.
func (v *Viewer) Start(ctx context.Context) <-chan error {
	result := make(chan error, 1)
	go func() {
		defer close(result)
		_, err := v.Negotiate(ctx)
		if err != nil {
			log.Errorf("negotiation failed: %v", err)
		}
		result <- err
	}()
	return result
}

// Negotiate creates an offer, registers it, posts it and applies the
// answer. Any failure is terminal for this Viewer.
func (v *Viewer) Negotiate(ctx context.Context) (Session, error) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return Session{}, domain.ErrClosed
	}
	if v.state != domain.Idle {
		v.mu.Unlock()
		return Session{}, domain.ErrAlreadyNegotiated
	}
	id := uuid.NewString()
	v.session = Session{ID: id}
	v.mu.Unlock()

	l := log.WithField("session", id)

	if v.cfg.PreferredCodec != "" {
		v.applyCodecPreferences(l)
	}

	offer, err := v.transport.CreateOffer(ctx)
	if err != nil {
		return v.fail("create offer", domain.ErrTransportFailure, err)
	}
	v.advance(domain.OfferCreated, func(s *Session) { s.Local = offer })
	l.Debugf("offer created")

	gatherCtx, cancel := context.WithTimeout(ctx, v.cfg.GatherTimeout)
	err = v.transport.SetLocalDescription(gatherCtx, offer)
	cancel()
	if err != nil {
		return v.fail("set local description", domain.ErrTransportFailure, err)
	}

	local := v.transport.LocalDescription()
	if local.SDP == "" {
		local = offer
	}
	v.advance(domain.OfferSet, func(s *Session) { s.Local = local })

	v.advance(domain.AnswerRequested, nil)
	l.Infof("posting offer (%d bytes)", len(local.SDP))
	answer, err := v.poster.PostOffer(ctx, local.SDP)
	if err != nil {
		kind := domain.ErrProtocolViolation
		if errors.Is(err, domain.ErrConnectionFailure) {
			kind = domain.ErrConnectionFailure
		}
		return v.fail("post offer", kind, err)
	}

	remote := domain.SessionDescription{Type: domain.SDPTypeAnswer, SDP: answer.SDP}
	if err := v.transport.SetRemoteDescription(remote); err != nil {
		return v.fail("apply answer", domain.ErrTransportFailure, err)
	}
	v.advance(domain.AnswerApplied, func(s *Session) {
		s.Remote = remote
		s.Location = answer.Location
	})
	l.Infof("answer applied")

	return v.Session(), nil
}

// applyCodecPreferences moves the preferred codec to the front of the
// video codec list. It is a hint: a transport without preference support,
// no matching codec, or an error applying the order are all ignored.
func (v *Viewer) applyCodecPreferences(l *logrus.Entry) {
	preferrer, ok := v.transport.(domain.CodecPreferrer)
	if !ok {
		l.Debugf("transport does not accept codec preferences")
		return
	}

	ordered, matched := OrderCodecs(v.transport.CodecCapabilities(domain.MediaKindVideo), v.cfg.PreferredCodec)
	if !matched {
		l.Debugf("no codec matches %q", v.cfg.PreferredCodec)
		return
	}
	if err := preferrer.SetCodecPreferences(domain.MediaKindVideo, ordered); err != nil {
		l.Debugf("codec preferences ignored: %v", err)
		return
	}

	v.mu.Lock()
	v.session.CodecOrder = ordered
	v.mu.Unlock()
}

// OrderCodecs returns codecs with every codec whose MIME type contains
// preferred (case-insensitive) first, keeping relative order within both
// groups. matched is false when nothing matches.
func OrderCodecs(codecs []domain.Codec, preferred string) (ordered []domain.Codec, matched bool) {
	target := strings.ToLower(strings.TrimSpace(preferred))
	if target == "" {
		return codecs, false
	}

	var first, rest []domain.Codec
	for _, c := range codecs {
		if c.MimeType != "" && strings.Contains(strings.ToLower(c.MimeType), target) {
			first = append(first, c)
		} else {
			rest = append(rest, c)
		}
	}
	if len(first) == 0 {
		return codecs, false
	}
	return append(first, rest...), true
}

func (v *Viewer) advance(state domain.NegotiationState, update func(*Session)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = state
	if update != nil {
		update(&v.session)
	}
}

func (v *Viewer) fail(op string, kind, err error) (Session, error) {
	v.mu.Lock()
	v.state = domain.Failed
	v.mu.Unlock()
	return Session{}, &domain.NegotiationError{Op: op, Kind: kind, Err: err}
}

// Close releases the remote session resource and the transport. It is safe
// to call more than once, before or without negotiation, and never fails.
func (v *Viewer) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	location := v.session.Location
	v.mu.Unlock()

	if t, ok := v.poster.(domain.SessionTerminator); ok && location != "" {
		ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
		if err := t.DeleteSession(ctx, location); err != nil {
			log.Debugf("delete session: %v", err)
		}
		cancel()
	}

	if v.transport != nil {
		if err := v.transport.Close(); err != nil {
			log.Debugf("close transport: %v", err)
		}
	}
}
