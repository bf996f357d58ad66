package geom

import "math"

// cosineEpsilon keeps AngleCosine finite for degenerate triangles.
const cosineEpsilon = 1e-10

// PolygonArea returns the absolute enclosed area of a closed polygon using
// the shoelace formula. Fewer than three points enclose nothing.
func PolygonArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += pts[i].Cross(pts[j])
	}
	return math.Abs(sum) / 2
}

// ArcLength returns the length of the polyline through pts. When closed is
// true the segment from the last point back to the first is included.
func ArcLength(pts []Point, closed bool) float64 {
	n := len(pts)
	if n < 2 {
		return 0
	}
	var length float64
	for i := 1; i < n; i++ {
		length += pts[i-1].Dist(pts[i])
	}
	if closed {
		length += pts[n-1].Dist(pts[0])
	}
	return length
}

// IsConvex reports whether the closed polygon turns the same way at every
// vertex. Collinear or repeated vertices make a polygon non-convex.
func IsConvex(pts []Point) bool {
	n := len(pts)
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		a := pts[i]
		b := pts[(i+1)%n]
		c := pts[(i+2)%n]
		cross := b.Sub(a).Cross(c.Sub(b))
		switch {
		case cross > 0:
			if sign < 0 {
				return false
			}
			sign = 1
		case cross < 0:
			if sign > 0 {
				return false
			}
			sign = -1
		default:
			return false
		}
	}
	return true
}

// AngleCosine returns the cosine of the angle at vertex p0 between the rays
// p0->p1 and p0->p2:
//
//	cos = (v1·v2) / (|v1||v2| + 1e-10)
func AngleCosine(p1, p2, p0 Point) float64 {
	v1 := p1.Sub(p0)
	v2 := p2.Sub(p0)
	return v1.Dot(v2) / (math.Sqrt(v1.Dot(v1)*v2.Dot(v2)) + cosineEpsilon)
}

// MaxCornerCosine returns the largest absolute corner cosine of a closed
// polygon. A rectangle scores 0; sharper or flatter corners score higher.
func MaxCornerCosine(pts []Point) float64 {
	n := len(pts)
	maxCos := 0.0
	for i := 0; i < n; i++ {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		c := math.Abs(AngleCosine(prev, next, pts[i]))
		if c > maxCos {
			maxCos = c
		}
	}
	return maxCos
}

// ApproxPolyDP simplifies a curve with the Douglas-Peucker algorithm so that
// no dropped point lies farther than epsilon from the simplified outline.
//
// A closed curve is split at a near-diameter pair: the point farthest from
// pts[0], and the point farthest from that one. Both arcs are simplified
// independently, so where the ring starts does not decide which vertices
// survive. The result does not repeat its first point.
func ApproxPolyDP(pts []Point, epsilon float64, closed bool) []Point {
	n := len(pts)
	if n < 3 {
		return append([]Point(nil), pts...)
	}
	if !closed {
		return douglasPeucker(pts, epsilon)
	}

	a := farthestFrom(pts, 0)
	b := farthestFrom(pts, a)
	if pts[a].Dist(pts[b]) == 0 {
		return []Point{pts[0]}
	}

	// Walk the ring from a, so b falls at index split.
	ring := make([]Point, 0, n+1)
	ring = append(ring, pts[a:]...)
	ring = append(ring, pts[:a]...)
	split := (b - a + n) % n

	first := douglasPeucker(ring[:split+1], epsilon)

	tail := make([]Point, 0, n-split+1)
	tail = append(tail, ring[split:]...)
	tail = append(tail, ring[0])
	second := douglasPeucker(tail, epsilon)

	out := make([]Point, 0, len(first)+len(second)-2)
	out = append(out, first[:len(first)-1]...)
	out = append(out, second[:len(second)-1]...)
	return out
}

// farthestFrom returns the index of the point farthest from pts[from]. The
// first such point wins a tie.
func farthestFrom(pts []Point, from int) int {
	far := from
	maxDist := 0.0
	for i, p := range pts {
		if d := pts[from].Dist(p); d > maxDist {
			maxDist = d
			far = i
		}
	}
	return far
}

// douglasPeucker simplifies an open polyline, always keeping both endpoints.
// Uses an explicit stack instead of recursion so long contours cannot
// exhaust the goroutine stack.
func douglasPeucker(pts []Point, epsilon float64) []Point {
	n := len(pts)
	if n < 3 {
		return append([]Point(nil), pts...)
	}

	keep := make([]bool, n)
	keep[0] = true
	keep[n-1] = true

	type span struct{ from, to int }
	stack := []span{{0, n - 1}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		maxDist := -1.0
		index := -1
		for i := s.from + 1; i < s.to; i++ {
			d := lineDistance(pts[i], pts[s.from], pts[s.to])
			if d > maxDist {
				maxDist = d
				index = i
			}
		}
		if index >= 0 && maxDist > epsilon {
			keep[index] = true
			stack = append(stack, span{s.from, index}, span{index, s.to})
		}
	}

	out := make([]Point, 0, n)
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

// lineDistance returns the perpendicular distance from p to the line through
// a and b, or the distance to a when a and b coincide.
func lineDistance(p, a, b Point) float64 {
	ab := b.Sub(a)
	length := math.Hypot(ab.X, ab.Y)
	if length == 0 {
		return p.Dist(a)
	}
	return math.Abs(ab.Cross(p.Sub(a))) / length
}
