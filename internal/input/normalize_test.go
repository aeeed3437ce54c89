package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_CornersAndFlip(t *testing.T) {
	s := RectSurface{X: 100, Y: 50, W: 400, H: 200}

	tests := []struct {
		name   string
		screen Point
		wantX  int
		wantY  int
	}{
		{"top-left", Point{100, 50}, 0, 0},
		{"bottom-right", Point{500, 250}, MaxCoord, MaxCoord},
		{"center", Point{300, 150}, 5000, 5000},
		{"quarter", Point{200, 100}, 2500, 2500},
		{"outside clamps", Point{-1000, 9000}, 0, MaxCoord},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			local, ok := s.ScreenToLocal(tt.screen, nil)
			assert.True(t, ok)
			x, y := Normalize(local, s.Rect())
			assert.Equal(t, tt.wantX, x)
			assert.Equal(t, tt.wantY, y)
		})
	}
}

func TestNormalize_InsideBoundsStaysInWireRange(t *testing.T) {
	s := RectSurface{W: 1920, H: 1080}
	for _, scale := range []WireScale{Scale10000, Scale0x7FFF} {
		for px := 0.0; px <= s.W; px += 37 {
			for py := 0.0; py <= s.H; py += 23 {
				local, _ := s.ScreenToLocal(Point{px, py}, nil)
				nx, ny := Normalize(local, s.Rect())
				x, y := ToWire(nx, ny, scale, false)
				assert.GreaterOrEqual(t, x, 0)
				assert.LessOrEqual(t, x, int(scale))
				assert.GreaterOrEqual(t, y, 0)
				assert.LessOrEqual(t, y, int(scale))
			}
		}
	}
}

func TestToWire(t *testing.T) {
	x, y := ToWire(5000, 10000, Scale10000, false)
	assert.Equal(t, 5000, x)
	assert.Equal(t, 10000, y)

	x, y = ToWire(5000, 10000, Scale0x7FFF, false)
	assert.Equal(t, 16384, x) // round(16383.5)
	assert.Equal(t, 32767, y)

	x, y = ToWire(0, 2500, Scale10000, true)
	assert.Equal(t, 0, x)
	assert.Equal(t, 7500, y)

	_, y = ToWire(0, 0, Scale0x7FFF, true)
	assert.Equal(t, 32767, y)
}

func TestRectSurface_Degenerate(t *testing.T) {
	_, ok := RectSurface{W: 0, H: 10}.ScreenToLocal(Point{1, 1}, nil)
	assert.False(t, ok)
}

type offsetCamera struct{ dx, dy float64 }

func (c offsetCamera) ScreenToWorld(p Point) Point {
	return Point{X: p.X + c.dx, Y: p.Y + c.dy}
}

func TestRectSurface_Camera(t *testing.T) {
	s := RectSurface{W: 100, H: 100}
	local, ok := s.ScreenToLocal(Point{0, 0}, offsetCamera{dx: 50, dy: 50})
	assert.True(t, ok)
	x, y := Normalize(local, s.Rect())
	assert.Equal(t, 5000, x)
	assert.Equal(t, 5000, y)
}
