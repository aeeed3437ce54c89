// Package protocol encodes control events for the machine's JSON-RPC socket.
package protocol

import (
	"encoding/json"

	"github.com/pkg/errors"
)

const (
	MethodSetButton = "setbutton"
	MethodSetTouch  = "settouch"
)

// Touch and button states.
const (
	StateUp   = 0
	StateDown = 1
)

// ScaleMax is the largest coordinate the machine accepts.
const ScaleMax = 32767

// Request is the envelope of every outgoing control message.
type Request struct {
	Method string `json:"method"`
	Params any    `json:"params"`
	ID     int64  `json:"id"`
}

// ButtonParams are the params of a setbutton request.
type ButtonParams struct {
	Key   int `json:"key"`
	State int `json:"state"`
}

// TouchParams are the params of a settouch request.
type TouchParams struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	State int `json:"state"`
}

// NewButton builds a setbutton request.
func NewButton(id int64, key, state int) Request {
	return Request{
		Method: MethodSetButton,
		Params: ButtonParams{Key: key, State: normalizeState(state)},
		ID:     id,
	}
}

// NewTouch builds a settouch request. Coordinates are clamped to [0, ScaleMax].
func NewTouch(id int64, x, y, state int) Request {
	return Request{
		Method: MethodSetTouch,
		Params: TouchParams{X: clamp(x, 0, ScaleMax), Y: clamp(y, 0, ScaleMax), State: normalizeState(state)},
		ID:     id,
	}
}

// Encode serializes a request into the text frame payload.
func Encode(req Request) ([]byte, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", req.Method)
	}
	return data, nil
}

func normalizeState(state int) int {
	if state != StateUp {
		return StateDown
	}
	return StateUp
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
