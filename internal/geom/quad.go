package geom

// Corner indices of a canonical Quadrilateral.
const (
	TopLeft = iota
	TopRight
	BottomRight
	BottomLeft
)

// Quadrilateral holds exactly four corner points.
//
// The type does not record whether the corners are in canonical order
// (top-left, top-right, bottom-right, bottom-left). Candidates produced by
// selection are in walk order; only the corner orderer produces canonical
// quadrilaterals.
type Quadrilateral [4]Point

// Rect returns the canonical quadrilateral of the axis-aligned rectangle
// spanning (0,0)-(w,h).
func Rect(w, h float64) Quadrilateral {
	return Quadrilateral{Pt(0, 0), Pt(w, 0), Pt(w, h), Pt(0, h)}
}

// Points returns the corners as a new slice.
func (q Quadrilateral) Points() []Point {
	return []Point{q[0], q[1], q[2], q[3]}
}

// Centroid returns the mean of the four corners.
func (q Quadrilateral) Centroid() Point {
	var c Point
	for _, p := range q {
		c.X += p.X
		c.Y += p.Y
	}
	return Point{X: c.X / 4, Y: c.Y / 4}
}

// Scale returns a new quadrilateral with every corner scaled by (fx, fy).
func (q Quadrilateral) Scale(fx, fy float64) Quadrilateral {
	var out Quadrilateral
	for i, p := range q {
		out[i] = p.Scale(fx, fy)
	}
	return out
}

// Translate returns a new quadrilateral with every corner moved by d.
func (q Quadrilateral) Translate(d Point) Quadrilateral {
	var out Quadrilateral
	for i, p := range q {
		out[i] = p.Add(d)
	}
	return out
}

// Area returns the enclosed area of the quadrilateral.
func (q Quadrilateral) Area() float64 {
	return PolygonArea(q[:])
}
