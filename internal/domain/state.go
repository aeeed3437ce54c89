package domain

// ConnectionState is the lifecycle state of the control channel.
type ConnectionState int

const (
	Disconnected ConnectionState = iota
	Connecting
	Open
	Closing
)

func (s ConnectionState) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// NegotiationState is the step reached by a negotiation attempt.
type NegotiationState int

const (
	Idle NegotiationState = iota
	OfferCreated
	OfferSet
	AnswerRequested
	AnswerApplied
	Failed
)

func (s NegotiationState) String() string {
	switch s {
	case Idle:
		return "idle"
	case OfferCreated:
		return "offer-created"
	case OfferSet:
		return "offer-set"
	case AnswerRequested:
		return "answer-requested"
	case AnswerApplied:
		return "answer-applied"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s NegotiationState) Terminal() bool {
	return s == AnswerApplied || s == Failed
}
