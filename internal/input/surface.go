// Package input maps pointer gestures on a host surface to touch events on
// the machine.
package input

// Point is a position in screen or surface-local space.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in surface-local space, Y up.
type Rect struct {
	XMin, YMin, XMax, YMax float64
}

// Camera projects a screen position into the space the surface lives in.
// Hosts without a projection pass nil.
type Camera interface {
	ScreenToWorld(p Point) Point
}

// Surface is the host's input rectangle.
type Surface interface {
	// ScreenToLocal maps a screen position into the surface's local space.
	// It reports false when the position cannot be resolved at all; points
	// outside the rectangle still resolve.
	ScreenToLocal(screen Point, cam Camera) (Point, bool)
	Rect() Rect
}

// RectSurface is a surface occupying a screen-aligned rectangle. Screen
// coordinates grow downwards; local coordinates grow upwards from the
// rectangle's bottom-left corner.
type RectSurface struct {
	X, Y, W, H float64
}

// ScreenToLocal implements Surface.
func (s RectSurface) ScreenToLocal(screen Point, cam Camera) (Point, bool) {
	if s.W <= 0 || s.H <= 0 {
		return Point{}, false
	}
	if cam != nil {
		screen = cam.ScreenToWorld(screen)
	}
	return Point{X: screen.X - s.X, Y: s.Y + s.H - screen.Y}, true
}

// Rect implements Surface.
func (s RectSurface) Rect() Rect {
	return Rect{XMax: s.W, YMax: s.H}
}
