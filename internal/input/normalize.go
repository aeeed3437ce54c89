package input

import "math"

// MaxCoord is the upper bound of the internal coordinate space.
const MaxCoord = 10000

// WireScale is the coordinate range the machine expects.
type WireScale int

const (
	Scale10000  WireScale = 10000
	Scale0x7FFF WireScale = 32767
)

// Valid reports whether s is a supported wire scale.
func (s WireScale) Valid() bool {
	return s == Scale10000 || s == Scale0x7FFF
}

// Normalize maps a local position into the internal [0, MaxCoord] space.
// The Y axis is flipped so the top edge of the surface maps to 0.
func Normalize(local Point, r Rect) (int, int) {
	nx := clamp01(inverseLerp(r.XMin, r.XMax, local.X))
	ny := 1 - clamp01(inverseLerp(r.YMin, r.YMax, local.Y))
	x := clampInt(int(math.Round(nx*MaxCoord)), 0, MaxCoord)
	y := clampInt(int(math.Round(ny*MaxCoord)), 0, MaxCoord)
	return x, y
}

// ToWire converts internal coordinates to the wire scale.
func ToWire(x, y int, scale WireScale, invertY bool) (int, int) {
	s := int(scale)
	wx, wy := x, y
	if s != MaxCoord {
		wx = clampInt(int(math.Round(float64(x)*float64(s)/MaxCoord)), 0, s)
		wy = clampInt(int(math.Round(float64(y)*float64(s)/MaxCoord)), 0, s)
	}
	if invertY {
		wy = s - wy
	}
	return wx, wy
}

func inverseLerp(a, b, v float64) float64 {
	if a == b {
		return 0
	}
	return (v - a) / (b - a)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
