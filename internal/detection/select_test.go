package detection

import (
	"image"
	"testing"

	"github.com/ironsheep/docscan/internal/geom"
)

// rectContour returns a walk-ordered rectangle contour
func rectContour(x, y, w, h int) Contour {
	return Contour{{x, y}, {x + w, y}, {x + w, y + h}, {x, y + h}}
}

// topLeft returns the canonical top-left corner of a selected quadrilateral
func topLeft(t *testing.T, quad geom.Quadrilateral) geom.Point {
	t.Helper()
	ordered, ok := OrderCorners(quad)
	if !ok {
		t.Fatalf("Selected quadrilateral cannot be ordered: %v", quad)
	}
	return ordered[geom.TopLeft]
}

func TestSelectQuadrilateral(t *testing.T) {
	contours := []Contour{rectContour(10, 10, 200, 100)}

	quad, ok := SelectQuadrilateral(contours, DefaultOptions())

	if !ok {
		t.Fatal("Expected a quadrilateral")
	}
	if a := quad.Area(); a != 20000 {
		t.Errorf("Expected area 20000, got %v", a)
	}
}

func TestSelectQuadrilateral_MinArea(t *testing.T) {
	tests := []struct {
		name    string
		contour Contour
		want    bool
	}{
		{"below", rectContour(0, 0, 80, 50), false},
		{"exactly at threshold", rectContour(0, 0, 100, 50), false},
		{"above", rectContour(0, 0, 101, 50), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := SelectQuadrilateral([]Contour{tt.contour}, DefaultOptions())
			if ok != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, ok)
			}
		})
	}
}

func TestSelectQuadrilateral_RejectsSharpCorner(t *testing.T) {
	// Largest and convex, but with a 45° corner at (300,0)
	trapezoid := Contour{{0, 0}, {300, 0}, {200, 100}, {0, 100}}
	rect := rectContour(400, 0, 100, 60)

	quad, ok := SelectQuadrilateral([]Contour{trapezoid, rect}, DefaultOptions())

	if !ok {
		t.Fatal("Expected the rectangle to be selected")
	}
	if topLeft(t, quad) != geom.Pt(400, 0) {
		t.Errorf("Expected the rectangle, got %v", quad)
	}

	if _, ok := SelectQuadrilateral([]Contour{trapezoid}, DefaultOptions()); ok {
		t.Error("Trapezoid with a 45° corner must be rejected")
	}
}

func TestSelectQuadrilateral_MaxCosineConfigurable(t *testing.T) {
	trapezoid := Contour{{0, 0}, {300, 0}, {200, 100}, {0, 100}}
	opts := DefaultOptions()
	opts.MaxCosine = 0.75

	if _, ok := SelectQuadrilateral([]Contour{trapezoid}, opts); !ok {
		t.Error("Trapezoid should pass with a relaxed max cosine")
	}
}

func TestSelectQuadrilateral_RejectsNonConvex(t *testing.T) {
	arrowhead := Contour{{0, 0}, {200, 100}, {0, 200}, {60, 100}}

	if _, ok := SelectQuadrilateral([]Contour{arrowhead}, DefaultOptions()); ok {
		t.Error("Non-convex 4-gon must be rejected")
	}
}

func TestSelectQuadrilateral_RejectsPentagon(t *testing.T) {
	pentagon := Contour{{100, 0}, {200, 70}, {160, 190}, {40, 190}, {0, 70}}

	if _, ok := SelectQuadrilateral([]Contour{pentagon}, DefaultOptions()); ok {
		t.Error("Pentagon must be rejected")
	}
}

func TestSelectQuadrilateral_LargestWins(t *testing.T) {
	contours := []Contour{
		rectContour(0, 0, 100, 60),
		rectContour(200, 0, 300, 200),
		rectContour(0, 300, 150, 100),
	}

	quad, ok := SelectQuadrilateral(contours, DefaultOptions())

	if !ok {
		t.Fatal("Expected a quadrilateral")
	}
	if topLeft(t, quad) != geom.Pt(200, 0) {
		t.Errorf("Expected the largest rectangle, got %v", quad)
	}
}

func TestSelectQuadrilateral_TieKeepsFirst(t *testing.T) {
	contours := []Contour{
		rectContour(0, 0, 100, 60),
		rectContour(300, 300, 100, 60),
	}

	quad, ok := SelectQuadrilateral(contours, DefaultOptions())

	if !ok {
		t.Fatal("Expected a quadrilateral")
	}
	if topLeft(t, quad) != geom.Pt(0, 0) {
		t.Errorf("Expected the first contour to win the tie, got %v", quad)
	}
}

func TestSelectQuadrilateral_Empty(t *testing.T) {
	if _, ok := SelectQuadrilateral(nil, DefaultOptions()); ok {
		t.Error("Expected no quadrilateral from no contours")
	}
}

func TestSelectQuadrilateral_Candidates(t *testing.T) {
	contours := []Contour{
		rectContour(0, 0, 10, 10),
		{{0, 0}, {300, 0}, {200, 100}, {0, 100}},
		rectContour(0, 0, 200, 100),
	}

	_, ok, candidates := selectQuadrilateral(contours, DefaultOptions())

	if !ok {
		t.Fatal("Expected a quadrilateral")
	}
	if len(candidates) != 3 {
		t.Fatalf("Expected 3 candidates, got %d", len(candidates))
	}
	if candidates[0].Vertices != 0 || candidates[0].Accepted {
		t.Errorf("Small contour should be rejected on area: %+v", candidates[0])
	}
	if candidates[1].Accepted || !candidates[1].Convex || candidates[1].MaxCosine < 0.7 {
		t.Errorf("Trapezoid should fail the corner test: %+v", candidates[1])
	}
	if !candidates[2].Accepted || candidates[2].Vertices != 4 {
		t.Errorf("Rectangle should be accepted: %+v", candidates[2])
	}
}

func TestSelectQuadrilateral_DenseContour(t *testing.T) {
	m := NewEdgeMap(200, 150)
	fillRect(m, image.Rect(20, 30, 180, 130))
	contours := TraceContours(m)

	quad, ok := SelectQuadrilateral(contours, DefaultOptions())

	if !ok {
		t.Fatal("Expected a quadrilateral from a traced rectangle")
	}
	ordered, ok := OrderCorners(quad)
	if !ok {
		t.Fatal("Expected orderable corners")
	}
	want := geom.Quadrilateral{geom.Pt(20, 30), geom.Pt(179, 30), geom.Pt(179, 129), geom.Pt(20, 129)}
	if ordered != want {
		t.Errorf("Expected %v, got %v", want, ordered)
	}
}
