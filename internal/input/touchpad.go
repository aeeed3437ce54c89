package input

import (
	"sync"
	"time"

	"cagate/remote/internal/domain"
	"cagate/remote/internal/protocol"

	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("component", "input")

const (
	DefaultMinSendInterval = 20 * time.Millisecond
	DefaultMinDelta        = 8
)

// Config tunes coordinate conversion and the move gate.
type Config struct {
	Scale   WireScale
	InvertY bool
	// MinSendInterval is the minimum time between sent moves; zero disables
	// the time gate.
	MinSendInterval time.Duration
	// MinDelta is the minimum per-axis movement, in internal units, for a
	// move to be sent.
	MinDelta int
}

// DefaultConfig returns the stock touch pad settings.
func DefaultConfig() Config {
	return Config{
		Scale:           Scale10000,
		MinSendInterval: DefaultMinSendInterval,
		MinDelta:        DefaultMinDelta,
	}
}

// PointerEvent is one pointer callback from the host.
type PointerEvent struct {
	PointerID int
	Position  Point
	Camera    Camera
}

// TouchPad turns single-pointer gestures on a surface into settouch events.
// Only one pointer is tracked at a time; other pointers are ignored until
// it is released.
type TouchPad struct {
	ctrl    domain.Controller
	surface Surface
	cfg     Config
	now     func() time.Time

	mu        sync.Mutex
	pressed   bool
	pointerID int
	hasLast   bool
	lastX     int
	lastY     int
	lastSend  time.Time
	moved     bool
}

// NewTouchPad creates a touch pad sending through ctrl.
func NewTouchPad(ctrl domain.Controller, surface Surface, cfg Config) *TouchPad {
	if !cfg.Scale.Valid() {
		cfg.Scale = Scale10000
	}
	return &TouchPad{
		ctrl:    ctrl,
		surface: surface,
		cfg:     cfg,
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock used by the move gate.
func (p *TouchPad) SetNowFunc(fn func() time.Time) {
	if fn != nil {
		p.now = fn
	}
}

// Pressed reports whether a pointer is currently held down.
func (p *TouchPad) Pressed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pressed
}

func (p *TouchPad) ready() bool {
	return p.ctrl != nil && p.surface != nil && p.ctrl.IsConnected()
}

// PointerDown starts a touch. The state=1 event bypasses the move gate.
func (p *TouchPad) PointerDown(e PointerEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready() || p.pressed {
		return
	}
	p.pressed = true
	p.pointerID = e.PointerID
	p.hasLast = false
	p.moved = false

	if x, y, ok := p.coords(e); ok {
		p.send(x, y, protocol.StateDown)
	}
}

// PointerDrag moves the active touch, subject to the move gate.
func (p *TouchPad) PointerDrag(e PointerEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.ready() || !p.pressed || e.PointerID != p.pointerID {
		return
	}
	x, y, ok := p.coords(e)
	if !ok {
		return
	}

	first := !p.moved
	p.moved = true
	if !p.shouldSend(x, y, first) {
		return
	}
	p.send(x, y, protocol.StateDown)
}

// PointerUp ends the active touch. If the release position cannot be
// resolved the last sent position is replayed. The pressed state is cleared
// even when the channel is down; only the send is skipped.
func (p *TouchPad) PointerUp(e PointerEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.pressed || e.PointerID != p.pointerID {
		return
	}
	p.pressed = false
	p.pointerID = 0
	if !p.ready() {
		return
	}

	if x, y, ok := p.coords(e); ok {
		p.send(x, y, protocol.StateUp)
		return
	}
	if p.hasLast {
		p.sendWire(p.lastX, p.lastY, protocol.StateUp)
	}
}

// PointerCancel ends the active touch after the host cancelled input.
func (p *TouchPad) PointerCancel() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.pressed {
		return
	}
	p.release()
}

// Deactivate ends the active touch when the surface goes away, so the
// machine never keeps a stuck touch.
func (p *TouchPad) Deactivate() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pressed && p.ctrl != nil && p.ctrl.IsConnected() {
		p.release()
		return
	}
	p.pressed = false
	p.pointerID = 0
}

func (p *TouchPad) release() {
	p.pressed = false
	p.pointerID = 0
	if p.hasLast {
		p.sendWire(p.lastX, p.lastY, protocol.StateUp)
	}
}

func (p *TouchPad) coords(e PointerEvent) (int, int, bool) {
	local, ok := p.surface.ScreenToLocal(e.Position, e.Camera)
	if !ok {
		return 0, 0, false
	}
	x, y := Normalize(local, p.surface.Rect())
	return x, y, true
}

// shouldSend applies the time gate and the delta gate; both must pass.
// The first move after a press is exempt from the time gate.
func (p *TouchPad) shouldSend(x, y int, first bool) bool {
	if !first && p.cfg.MinSendInterval > 0 && p.now().Sub(p.lastSend) < p.cfg.MinSendInterval {
		return false
	}
	if !p.hasLast {
		return true
	}
	return abs(x-p.lastX) >= p.cfg.MinDelta || abs(y-p.lastY) >= p.cfg.MinDelta
}

func (p *TouchPad) send(x, y, state int) {
	p.hasLast = true
	p.lastX = x
	p.lastY = y
	p.lastSend = p.now()
	p.sendWire(x, y, state)
}

func (p *TouchPad) sendWire(x, y, state int) {
	wx, wy := ToWire(x, y, p.cfg.Scale, p.cfg.InvertY)
	log.Debugf("touch x=%d y=%d state=%d", wx, wy, state)
	p.ctrl.SendTouch(wx, wy, state)
}
