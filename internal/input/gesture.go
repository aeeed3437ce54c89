package input

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// GestureKind is the pointer callback a gesture line replays.
type GestureKind string

const (
	GestureDown   GestureKind = "down"
	GestureMove   GestureKind = "move"
	GestureUp     GestureKind = "up"
	GestureCancel GestureKind = "cancel"
)

// Gesture is one parsed line of a gesture script.
type Gesture struct {
	Kind  GestureKind
	Event PointerEvent
}

// ParseGesture parses "<down|move|up> <pointer> <x> <y>" or "cancel".
// Blank lines and lines starting with '#' yield ok=false.
func ParseGesture(line string) (g Gesture, ok bool, err error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Gesture{}, false, nil
	}

	fields := strings.Fields(line)
	kind := GestureKind(strings.ToLower(fields[0]))
	switch kind {
	case GestureCancel:
		return Gesture{Kind: kind}, true, nil
	case GestureDown, GestureMove, GestureUp:
	default:
		return Gesture{}, false, errors.Errorf("unknown gesture %q", fields[0])
	}

	if len(fields) != 4 {
		return Gesture{}, false, errors.Errorf("%s: want 3 arguments, got %d", kind, len(fields)-1)
	}
	id, err := strconv.Atoi(fields[1])
	if err != nil {
		return Gesture{}, false, errors.Wrapf(err, "%s: pointer id", kind)
	}
	x, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return Gesture{}, false, errors.Wrapf(err, "%s: x", kind)
	}
	y, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Gesture{}, false, errors.Wrapf(err, "%s: y", kind)
	}

	return Gesture{
		Kind:  kind,
		Event: PointerEvent{PointerID: id, Position: Point{X: x, Y: y}},
	}, true, nil
}

// Apply dispatches g to the matching touch pad callback.
func (p *TouchPad) Apply(g Gesture) {
	switch g.Kind {
	case GestureDown:
		p.PointerDown(g.Event)
	case GestureMove:
		p.PointerDrag(g.Event)
	case GestureUp:
		p.PointerUp(g.Event)
	case GestureCancel:
		p.PointerCancel()
	}
}
