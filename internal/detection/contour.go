package detection

import (
	"image"

	"github.com/ironsheep/docscan/internal/geom"
)

// Contour is a closed boundary curve in walk order. The last point connects
// back to the first.
type Contour []image.Point

// Points converts the contour to real-valued points.
func (c Contour) Points() []geom.Point {
	pts := make([]geom.Point, len(c))
	for i, p := range c {
		pts[i] = geom.FromImagePoint(p)
	}
	return pts
}

// Area returns the area enclosed by the contour.
func (c Contour) Area() float64 {
	return geom.PolygonArea(c.Points())
}

// Moore neighborhood in clockwise order (y grows downward), starting east.
var (
	dirX = [8]int{1, 1, 0, -1, -1, -1, 0, 1}
	dirY = [8]int{0, 1, 1, 1, 0, -1, -1, -1}
)

const dirWest = 4

// TraceContours extracts the outer boundary of every connected group of edge
// pixels.
//
// Foreground pixels are 8-connected and background pixels 4-connected.
// Groups that sit inside the hole of another group are skipped, as are the
// hole boundaries themselves, so only outermost shapes are reported. Each
// contour is chain-compressed: runs of pixels that continue in the same
// direction keep only their end points.
//
// Contours are returned in raster order of the topmost-leftmost pixel of
// their group. An empty map yields no contours.
//
// # Algorithm
//
//  1. Label 8-connected edge groups with an iterative flood fill
//  2. Flood the background from the image border to find exterior pixels;
//     background the flood cannot reach is a hole
//  3. A group is outer when the pixel above its first pixel is exterior
//  4. Trace each outer group with Moore-neighbor tracing, stopping when the
//     walk leaves the start pixel toward its first step again
func TraceContours(m *EdgeMap) []Contour {
	if m.Width == 0 || m.Height == 0 {
		return nil
	}

	starts := labelComponents(m)
	exterior := markExterior(m)

	contours := make([]Contour, 0)
	for _, s := range starts {
		if s.Y > 0 && !exterior[(s.Y-1)*m.Width+s.X] {
			continue
		}
		contours = append(contours, compressChain(traceBoundary(m, s)))
	}
	return contours
}

// labelComponents finds the 8-connected groups of edge pixels and returns
// the first pixel of each in raster order.
func labelComponents(m *EdgeMap) []image.Point {
	visited := make([]bool, len(m.Pix))
	starts := make([]image.Point, 0)

	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			i := y*m.Width + x
			if m.Pix[i] != 0 && !visited[i] {
				starts = append(starts, image.Point{X: x, Y: y})
				fillComponent(m, visited, x, y)
			}
		}
	}
	return starts
}

// fillComponent marks every edge pixel 8-connected to (startX, startY).
//
// Uses a stack-based approach (not recursive) to avoid stack overflow
// on large components.
func fillComponent(m *EdgeMap, visited []bool, startX, startY int) {
	stack := []image.Point{{X: startX, Y: startY}}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= m.Width || p.Y < 0 || p.Y >= m.Height {
			continue
		}
		i := p.Y*m.Width + p.X
		if visited[i] || m.Pix[i] == 0 {
			continue
		}
		visited[i] = true

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				stack = append(stack, image.Point{X: p.X + dx, Y: p.Y + dy})
			}
		}
	}
}

// markExterior returns, per pixel, whether it is background reachable from
// the image border through 4-connected background pixels.
func markExterior(m *EdgeMap) []bool {
	exterior := make([]bool, len(m.Pix))
	stack := make([]image.Point, 0, 2*(m.Width+m.Height))

	for x := 0; x < m.Width; x++ {
		stack = append(stack, image.Point{X: x, Y: 0}, image.Point{X: x, Y: m.Height - 1})
	}
	for y := 0; y < m.Height; y++ {
		stack = append(stack, image.Point{X: 0, Y: y}, image.Point{X: m.Width - 1, Y: y})
	}

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= m.Width || p.Y < 0 || p.Y >= m.Height {
			continue
		}
		i := p.Y*m.Width + p.X
		if exterior[i] || m.Pix[i] != 0 {
			continue
		}
		exterior[i] = true

		stack = append(stack,
			image.Point{X: p.X + 1, Y: p.Y},
			image.Point{X: p.X - 1, Y: p.Y},
			image.Point{X: p.X, Y: p.Y + 1},
			image.Point{X: p.X, Y: p.Y - 1},
		)
	}
	return exterior
}

// traceBoundary walks the outer boundary of the group containing start,
// which must be the group's first pixel in raster order. The walk is
// clockwise and may revisit pixels where the group is one pixel thin.
func traceBoundary(m *EdgeMap, start image.Point) []image.Point {
	boundary := []image.Point{start}

	// The west neighbor of a group's first pixel is always background.
	second, back, ok := nextBoundaryPixel(m, start, dirWest)
	if !ok {
		return boundary
	}

	// Each pixel is entered at most once from each of its four sides.
	maxSteps := 4*len(m.Pix) + 4

	p := second
	for step := 0; step < maxSteps; step++ {
		next, nextBack, _ := nextBoundaryPixel(m, p, back)
		if p == start && next == second {
			break
		}
		boundary = append(boundary, p)
		p, back = next, nextBack
	}
	return boundary
}

// nextBoundaryPixel scans the Moore neighborhood of p clockwise, starting
// after the background neighbor in direction back, and returns the first
// edge pixel found together with the direction, seen from that pixel, of
// the background neighbor examined just before it.
func nextBoundaryPixel(m *EdgeMap, p image.Point, back int) (image.Point, int, bool) {
	for i := 1; i <= 8; i++ {
		d := (back + i) % 8
		q := image.Point{X: p.X + dirX[d], Y: p.Y + dirY[d]}
		if !m.At(q.X, q.Y) {
			continue
		}
		prev := (back + i - 1) % 8
		bg := image.Point{X: p.X + dirX[prev], Y: p.Y + dirY[prev]}
		return q, direction(bg.Sub(q)), true
	}
	return p, back, false
}

// direction returns the Moore index of a unit step.
func direction(d image.Point) int {
	for i := 0; i < 8; i++ {
		if dirX[i] == d.X && dirY[i] == d.Y {
			return i
		}
	}
	return dirWest
}

// compressChain keeps only the points where the walk changes direction.
func compressChain(pts []image.Point) Contour {
	n := len(pts)
	if n <= 2 {
		return Contour(pts)
	}

	out := make(Contour, 0, n/4+4)
	for i := 0; i < n; i++ {
		prev := pts[(i+n-1)%n]
		next := pts[(i+1)%n]
		if pts[i].Sub(prev) != next.Sub(pts[i]) {
			out = append(out, pts[i])
		}
	}
	if len(out) == 0 {
		return Contour(pts)
	}
	return out
}
