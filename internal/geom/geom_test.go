package geom

import (
	"math"
	"testing"
)

const epsilon = 1e-10

func closeTo(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

var samplePoints = []Point{
	{0, 0}, {1, 0}, {1, 1}, {0, 1},
	{0.3, 0.7}, {0.5, 0.5}, {0.1, 0.9}, {0.5, 0.2},
}

func TestRotateUnit_Identity(t *testing.T) {
	t.Run("zero degrees", func(t *testing.T) {
		x, y := RotateUnit(0.3, 0.7, 0)
		if !closeTo(x, 0.3) || !closeTo(y, 0.7) {
			t.Errorf("RotateUnit(0.3, 0.7, 0) = (%v, %v), want (0.3, 0.7)", x, y)
		}
	})

	t.Run("full turn", func(t *testing.T) {
		for _, p := range samplePoints {
			x, y := RotateUnit(p.X, p.Y, 360)
			if !closeTo(x, p.X) || !closeTo(y, p.Y) {
				t.Errorf("RotateUnit(%v, %v, 360) = (%v, %v), want identity", p.X, p.Y, x, y)
			}
		}
	})

	t.Run("center is a fixed point under every rotation", func(t *testing.T) {
		for _, degrees := range []int{0, 90, 180, 270, 360, -90, -180} {
			x, y := RotateUnit(0.5, 0.5, degrees)
			if !closeTo(x, 0.5) || !closeTo(y, 0.5) {
				t.Errorf("center moved to (%v, %v) at %d degrees", x, y, degrees)
			}
		}
	})
}

func TestRotateUnit_KnownCorners(t *testing.T) {
	cases := []struct {
		degrees        int
		x, y           float64
		wantX, wantY   float64
	}{
		{90, 0, 0, 1, 0},
		{180, 0, 0, 1, 1},
		{270, 0, 0, 0, 1},
		{90, 1, 0, 1, 1},
		{90, 1, 1, 0, 1},
		{90, 0, 1, 0, 0},
	}
	for _, c := range cases {
		x, y := RotateUnit(c.x, c.y, c.degrees)
		if !closeTo(x, c.wantX) || !closeTo(y, c.wantY) {
			t.Errorf("RotateUnit(%v, %v, %d) = (%v, %v), want (%v, %v)",
				c.x, c.y, c.degrees, x, y, c.wantX, c.wantY)
		}
	}
}

func TestRotateUnit_Inverse(t *testing.T) {
	t.Run("delta then -delta mod 360 recovers the point", func(t *testing.T) {
		for _, delta := range []int{0, 90, 180, 270, 360, -90, -180} {
			inverse := NormalizeDegrees(-delta)
			for _, p := range samplePoints {
				x, y := RotateUnit(p.X, p.Y, delta)
				x, y = RotateUnit(x, y, inverse)
				if !closeTo(x, p.X) || !closeTo(y, p.Y) {
					t.Errorf("rotate %d then %d moved (%v, %v) to (%v, %v)",
						delta, inverse, p.X, p.Y, x, y)
				}
			}
		}
	})

	t.Run("negative delta matches equivalent positive", func(t *testing.T) {
		for _, p := range samplePoints {
			xn, yn := RotateUnit(p.X, p.Y, -90)
			xp, yp := RotateUnit(p.X, p.Y, 270)
			if !closeTo(xn, xp) || !closeTo(yn, yp) {
				t.Errorf("-90 gave (%v, %v), +270 gave (%v, %v)", xn, yn, xp, yp)
			}
		}
	})
}

func TestRotateUnit_Composition(t *testing.T) {
	for _, c := range []struct{ a, b int }{
		{90, 90}, {90, 180}, {180, 180}, {270, 90}, {270, 270},
	} {
		for _, p := range samplePoints {
			x1, y1 := RotateUnit(p.X, p.Y, c.a)
			x1, y1 = RotateUnit(x1, y1, c.b)
			x2, y2 := RotateUnit(p.X, p.Y, c.a+c.b)
			if !closeTo(x1, x2) || !closeTo(y1, y2) {
				t.Errorf("rotate %d then %d != rotate %d for point (%v, %v)",
					c.a, c.b, c.a+c.b, p.X, p.Y)
			}
		}
	}
}

func TestRotateUnit_StaysInUnitSquare(t *testing.T) {
	for _, degrees := range []int{0, 90, 180, 270} {
		for _, p := range samplePoints {
			x, y := RotateUnit(p.X, p.Y, degrees)
			if x < -epsilon || x > 1+epsilon || y < -epsilon || y > 1+epsilon {
				t.Errorf("(%v, %v) left the unit square at %d degrees: (%v, %v)",
					p.X, p.Y, degrees, x, y)
			}
		}
	}
}

func TestNormalizeDegrees(t *testing.T) {
	cases := map[int]int{
		0: 0, 90: 90, 180: 180, 270: 270,
		360: 0, 450: 90, -90: 270, -180: 180, -360: 0, 630: 270,
	}
	for in, want := range cases {
		if got := NormalizeDegrees(in); got != want {
			t.Errorf("NormalizeDegrees(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestToNormalizedToDeviceRoundTrip(t *testing.T) {
	originX, originY := 120.0, 35.0
	width, height := 640.0, 850.0

	for _, p := range samplePoints {
		px, py := ToDevice(p.X, p.Y, originX, originY, width, height)
		nx, ny := ToNormalized(px, py, originX, originY, width, height)
		if !closeTo(nx, p.X) || !closeTo(ny, p.Y) {
			t.Errorf("round trip of (%v, %v) gave (%v, %v)", p.X, p.Y, nx, ny)
		}
	}
}

func TestToNormalized_ToleratesEdgeOvershoot(t *testing.T) {
	// A pointer event one pixel past the right edge must still produce a
	// finite coordinate just past 1.0, not an error or a clamp.
	nx, _ := ToNormalized(201, 50, 100, 0, 100, 100)
	if nx <= 1 || nx > 1.02 {
		t.Errorf("overshoot mapped to %v, want slightly above 1", nx)
	}
}

func TestRectDistanceTo(t *testing.T) {
	r := Rect{X: 10, Y: 10, W: 100, H: 50}

	t.Run("inside is zero", func(t *testing.T) {
		if d := r.DistanceTo(Point{X: 40, Y: 30}); d != 0 {
			t.Errorf("distance inside rect = %v, want 0", d)
		}
	})

	t.Run("straight out from an edge", func(t *testing.T) {
		if d := r.DistanceTo(Point{X: 125, Y: 30}); !closeTo(d, 15) {
			t.Errorf("distance = %v, want 15", d)
		}
	})

	t.Run("diagonal from a corner", func(t *testing.T) {
		if d := r.DistanceTo(Point{X: 113, Y: 64}); !closeTo(d, 5) {
			t.Errorf("distance = %v, want 5", d)
		}
	})
}
