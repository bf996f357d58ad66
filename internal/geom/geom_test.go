package geom

import (
	"math"
	"testing"
)

func TestPolygonArea(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want float64
	}{
		{"unit square", []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}, 1},
		{"clockwise rectangle", []Point{{0, 0}, {0, 50}, {100, 50}, {100, 0}}, 5000},
		{"triangle", []Point{{0, 0}, {10, 0}, {0, 10}}, 50},
		{"two points", []Point{{0, 0}, {10, 10}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PolygonArea(tt.pts); got != tt.want {
				t.Errorf("PolygonArea: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArcLength(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}

	if got := ArcLength(square, true); got != 40 {
		t.Errorf("closed: got %v, want 40", got)
	}
	if got := ArcLength(square, false); got != 30 {
		t.Errorf("open: got %v, want 30", got)
	}
	if got := ArcLength(square[:1], true); got != 0 {
		t.Errorf("single point: got %v, want 0", got)
	}
}

func TestIsConvex(t *testing.T) {
	tests := []struct {
		name string
		pts  []Point
		want bool
	}{
		{"square", []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, true},
		{"square reversed", []Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}, true},
		{"arrowhead", []Point{{0, 0}, {10, 5}, {0, 10}, {3, 5}}, false},
		{"collinear corner", []Point{{0, 0}, {5, 0}, {10, 0}, {5, 5}}, false},
		{"bowtie", []Point{{0, 0}, {10, 10}, {10, 0}, {0, 10}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConvex(tt.pts); got != tt.want {
				t.Errorf("IsConvex: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAngleCosine(t *testing.T) {
	right := AngleCosine(Pt(10, 0), Pt(0, 10), Pt(0, 0))
	if math.Abs(right) > 1e-9 {
		t.Errorf("right angle: got %v, want 0", right)
	}

	fortyFive := AngleCosine(Pt(10, 0), Pt(10, 10), Pt(0, 0))
	if math.Abs(fortyFive-math.Sqrt2/2) > 1e-6 {
		t.Errorf("45 degrees: got %v, want %v", fortyFive, math.Sqrt2/2)
	}

	// Degenerate triangle must not divide by zero
	if got := AngleCosine(Pt(0, 0), Pt(0, 0), Pt(0, 0)); got != 0 {
		t.Errorf("degenerate: got %v, want 0", got)
	}
}

func TestMaxCornerCosine(t *testing.T) {
	rect := []Point{{0, 0}, {200, 0}, {200, 100}, {0, 100}}
	if got := MaxCornerCosine(rect); got > 1e-9 {
		t.Errorf("rectangle: got %v, want 0", got)
	}

	trapezoid := []Point{{0, 0}, {300, 0}, {200, 100}, {0, 100}}
	if got := MaxCornerCosine(trapezoid); math.Abs(got-math.Sqrt2/2) > 1e-6 {
		t.Errorf("trapezoid: got %v, want %v", got, math.Sqrt2/2)
	}
}

func TestApproxPolyDP_Closed(t *testing.T) {
	// Dense rectangle outline with one pixel of jitter
	var pts []Point
	for x := 0; x < 100; x++ {
		pts = append(pts, Pt(float64(x), float64(x%2)))
	}
	for y := 0; y < 60; y++ {
		pts = append(pts, Pt(100, float64(y)))
	}
	for x := 100; x > 0; x-- {
		pts = append(pts, Pt(float64(x), 60))
	}
	for y := 60; y > 0; y-- {
		pts = append(pts, Pt(0, float64(y)))
	}

	eps := 0.02 * ArcLength(pts, true)
	approx := ApproxPolyDP(pts, eps, true)
	if len(approx) != 4 {
		t.Fatalf("got %d vertices %v, want 4", len(approx), approx)
	}

	corners := []Point{{0, 0}, {100, 0}, {100, 60}, {0, 60}}
	for _, c := range corners {
		found := false
		for _, p := range approx {
			if p.Dist(c) <= 2 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("corner %v missing from %v", c, approx)
		}
	}
}

func TestApproxPolyDP_ClosedStartMidEdge(t *testing.T) {
	// Tilted rectangle outline whose first point lies inside the top edge
	corners := []Point{{0, 10}, {200, 0}, {205, 100}, {5, 110}}
	var pts []Point
	for i := range corners {
		a, b := corners[i], corners[(i+1)%4]
		steps := int(a.Dist(b))
		for s := 0; s < steps; s++ {
			f := float64(s) / float64(steps)
			pts = append(pts, Pt(math.Round(a.X+(b.X-a.X)*f), math.Round(a.Y+(b.Y-a.Y)*f)))
		}
	}
	start := 80
	ring := append(append([]Point(nil), pts[start:]...), pts[:start]...)

	approx := ApproxPolyDP(ring, 0.02*ArcLength(ring, true), true)
	if len(approx) != 4 {
		t.Fatalf("got %d vertices %v, want 4", len(approx), approx)
	}
	for _, c := range corners {
		found := false
		for _, p := range approx {
			if p.Dist(c) <= 2 {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("corner %v missing from %v", c, approx)
		}
	}
}

func TestFarthestFrom(t *testing.T) {
	pts := []Point{{0, 0}, {3, 4}, {-3, -4}, {1, 1}}

	if got := farthestFrom(pts, 0); got != 1 {
		t.Errorf("farthestFrom(0) = %d, want 1 (first of a tie)", got)
	}
	if got := farthestFrom(pts, 1); got != 2 {
		t.Errorf("farthestFrom(1) = %d, want 2", got)
	}
}

func TestApproxPolyDP_KeepsQuadrilateral(t *testing.T) {
	quad := []Point{{0, 0}, {300, 0}, {200, 100}, {0, 100}}
	approx := ApproxPolyDP(quad, 0.02*ArcLength(quad, true), true)
	if len(approx) != 4 {
		t.Errorf("got %d vertices, want 4", len(approx))
	}
}

func TestApproxPolyDP_Open(t *testing.T) {
	line := []Point{{0, 0}, {5, 0.1}, {10, 0}}
	approx := ApproxPolyDP(line, 1, false)
	if len(approx) != 2 {
		t.Errorf("got %d points, want 2", len(approx))
	}
}

func TestQuadrilateral_ValueSemantics(t *testing.T) {
	q := Rect(100, 50)

	scaled := q.Scale(2, 3)
	moved := q.Translate(Pt(5, 5))

	if q[2] != Pt(100, 50) {
		t.Errorf("original mutated: %v", q)
	}
	if scaled[2] != Pt(200, 150) {
		t.Errorf("Scale: got %v, want (200,150)", scaled[2])
	}
	if moved[0] != Pt(5, 5) {
		t.Errorf("Translate: got %v, want (5,5)", moved[0])
	}

	pts := q.Points()
	pts[0] = Pt(-1, -1)
	if q[0] != Pt(0, 0) {
		t.Error("Points() must return a copy")
	}
}

func TestQuadrilateral_CentroidArea(t *testing.T) {
	q := Quadrilateral{Pt(10, 10), Pt(110, 10), Pt(110, 60), Pt(10, 60)}
	if c := q.Centroid(); c != Pt(60, 35) {
		t.Errorf("Centroid: got %v, want (60,35)", c)
	}
	if a := q.Area(); a != 5000 {
		t.Errorf("Area: got %v, want 5000", a)
	}
}
