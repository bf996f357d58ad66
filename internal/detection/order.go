package detection

import "github.com/ironsheep/docscan/internal/geom"

// OrderCorners arranges a quadrilateral canonically: top-left, top-right,
// bottom-right, bottom-left.
//
// Each corner is classified by its quadrant around the centroid using strict
// comparisons. The result is false when a corner lies exactly on either
// centroid axis or two corners share a quadrant; no tie-break is guessed.
// The input is not modified.
func OrderCorners(q geom.Quadrilateral) (geom.Quadrilateral, bool) {
	var ordered geom.Quadrilateral
	var filled [4]bool

	c := q.Centroid()
	for _, p := range q {
		var index int
		switch {
		case p.X < c.X && p.Y < c.Y:
			index = geom.TopLeft
		case p.X > c.X && p.Y < c.Y:
			index = geom.TopRight
		case p.X > c.X && p.Y > c.Y:
			index = geom.BottomRight
		case p.X < c.X && p.Y > c.Y:
			index = geom.BottomLeft
		default:
			return geom.Quadrilateral{}, false
		}
		if filled[index] {
			return geom.Quadrilateral{}, false
		}
		filled[index] = true
		ordered[index] = p
	}
	return ordered, true
}
