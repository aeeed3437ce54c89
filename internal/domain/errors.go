package domain

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrConnectionFailure marks handshake, send or receive errors.
	ErrConnectionFailure = errors.New("connection failure")
	// ErrProtocolViolation marks a negotiation response that is not a usable answer.
	ErrProtocolViolation = errors.New("protocol violation")
	// ErrTransportFailure marks offer creation or description registration errors.
	ErrTransportFailure = errors.New("transport failure")

	ErrClosed            = errors.New("closed")
	ErrAlreadyNegotiated = errors.New("negotiation already attempted")
)

// KindError tags a cause with one of the failure kinds above. It unwraps to
// both, so callers can match the kind and the underlying error.
type KindError struct {
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *KindError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// NegotiationError reports the operation at which a negotiation attempt
// failed. It unwraps to both Kind and Err.
type NegotiationError struct {
	Op   string
	Kind error
	Err  error
}

func (e *NegotiationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NegotiationError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}
