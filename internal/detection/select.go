package detection

import "github.com/ironsheep/docscan/internal/geom"

// Candidate records how one contour fared in quadrilateral selection.
type Candidate struct {
	// Area is the area enclosed by the contour.
	Area float64 `json:"area"`

	// Vertices is the vertex count after polygon approximation.
	// Zero when the contour was rejected on area alone.
	Vertices int `json:"vertices"`

	// Convex reports whether the approximated 4-gon is convex.
	Convex bool `json:"convex"`

	// MaxCosine is the largest absolute corner cosine of the 4-gon.
	MaxCosine float64 `json:"max_cosine"`

	// Accepted is true when the contour passed every test.
	Accepted bool `json:"accepted"`
}

// SelectQuadrilateral picks the largest near-rectangular 4-gon among the
// contours.
//
// A contour qualifies when:
//  1. its enclosed area exceeds opts.MinArea
//  2. Douglas-Peucker approximation with tolerance
//     opts.ApproxEpsilon × perimeter leaves exactly 4 vertices
//  3. the 4-gon is convex
//  4. every corner has |cos θ| below opts.MaxCosine
//
// Among qualifying contours the largest contour area wins; equal areas keep
// the first one seen. The returned corners are in approximation order, not
// canonical order. The boolean is false when nothing qualifies.
func SelectQuadrilateral(contours []Contour, opts Options) (geom.Quadrilateral, bool) {
	quad, ok, _ := selectQuadrilateral(contours, opts)
	return quad, ok
}

func selectQuadrilateral(contours []Contour, opts Options) (geom.Quadrilateral, bool, []Candidate) {
	var best geom.Quadrilateral
	found := false
	maxArea := 0.0
	candidates := make([]Candidate, 0, len(contours))

	for _, contour := range contours {
		pts := contour.Points()
		area := geom.PolygonArea(pts)
		c := Candidate{Area: area}
		if area <= opts.MinArea {
			candidates = append(candidates, c)
			continue
		}

		epsilon := opts.ApproxEpsilon * geom.ArcLength(pts, true)
		approx := geom.ApproxPolyDP(pts, epsilon, true)
		c.Vertices = len(approx)
		if len(approx) != 4 {
			candidates = append(candidates, c)
			continue
		}

		c.Convex = geom.IsConvex(approx)
		c.MaxCosine = geom.MaxCornerCosine(approx)
		c.Accepted = c.Convex && c.MaxCosine < opts.MaxCosine
		candidates = append(candidates, c)
		if !c.Accepted {
			continue
		}

		if !found || area > maxArea {
			copy(best[:], approx)
			maxArea = area
			found = true
		}
	}

	return best, found, candidates
}
