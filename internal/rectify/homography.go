package rectify

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ironsheep/docscan/internal/geom"
)

// Homography is a 3x3 projective transform stored row-major:
//
//	| H[0] H[1] H[2] |
//	| H[3] H[4] H[5] |
//	| H[6] H[7] H[8] |
//
// A point (x, y) maps to ((H0 x + H1 y + H2) / w, (H3 x + H4 y + H5) / w)
// with w = H6 x + H7 y + H8.
type Homography [9]float64

// Identity is the transform that leaves every point in place.
var Identity = Homography{1, 0, 0, 0, 1, 0, 0, 0, 1}

// NewHomography solves the transform that maps each src corner to the dst
// corner with the same index.
//
// The eight unknowns (H8 fixed at 1) come from two linear equations per
// correspondence:
//
//	x' = (h0 x + h1 y + h2) / (h6 x + h7 y + 1)
//	y' = (h3 x + h4 y + h5) / (h6 x + h7 y + 1)
//
// Returns ErrDegenerateQuadrilateral when three or more corners are
// collinear and the system has no unique solution.
func NewHomography(src, dst geom.Quadrilateral) (Homography, error) {
	a := mat.NewDense(8, 8, nil)
	b := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		r := 2 * i

		a.SetRow(r, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		b.SetVec(r, u)

		a.SetRow(r+1, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b.SetVec(r+1, v)
	}

	var h mat.VecDense
	if err := h.SolveVec(a, b); err != nil && !acceptable(err) {
		return Homography{}, fmt.Errorf("%w: %v", ErrDegenerateQuadrilateral, err)
	}

	var out Homography
	for i := 0; i < 8; i++ {
		out[i] = h.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return Homography{}, fmt.Errorf("%w: transform is not finite", ErrDegenerateQuadrilateral)
		}
	}
	out[8] = 1

	// Near-singular systems solve without error but miss the corners.
	for i := 0; i < 4; i++ {
		if d := out.Apply(src[i]).Dist(dst[i]); !(d <= correspondenceTolerance) {
			return Homography{}, fmt.Errorf("%w: corner %d maps %.3g px from its target", ErrDegenerateQuadrilateral, i, d)
		}
	}
	return out, nil
}

// correspondenceTolerance is the largest corner mapping error, in pixels,
// accepted from a solved transform.
const correspondenceTolerance = 1e-3

// Apply maps p through the transform. Points on the transform's line at
// infinity come back as (+Inf, +Inf).
func (h Homography) Apply(p geom.Point) geom.Point {
	w := h[6]*p.X + h[7]*p.Y + h[8]
	if w == 0 {
		return geom.Pt(math.Inf(1), math.Inf(1))
	}
	return geom.Pt(
		(h[0]*p.X+h[1]*p.Y+h[2])/w,
		(h[3]*p.X+h[4]*p.Y+h[5])/w,
	)
}

// Inverse returns the transform that undoes h.
func (h Homography) Inverse() (Homography, error) {
	m := mat.NewDense(3, 3, h[:])
	var inv mat.Dense
	if err := inv.Inverse(m); err != nil && !acceptable(err) {
		return Homography{}, fmt.Errorf("%w: %v", ErrDegenerateQuadrilateral, err)
	}

	var out Homography
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			out[r*3+c] = inv.At(r, c)
		}
	}
	// Normalize so the bottom-right entry is 1 when possible.
	if s := out[8]; s != 0 && !math.IsNaN(s) {
		for i := range out {
			out[i] /= s
		}
	}
	return out, nil
}

// acceptable reports whether a gonum solver error still left a usable
// result. Large but finite condition numbers are common for pixel-scale
// coordinates; only an exactly singular system is rejected.
func acceptable(err error) bool {
	var cond mat.Condition
	if errors.As(err, &cond) {
		return !math.IsInf(float64(cond), 1)
	}
	return false
}
