package rectify

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/docscan/internal/geom"
)

var (
	// ErrInvalidCorners is returned when the corner count is not exactly 4.
	ErrInvalidCorners = errors.New("rectify: exactly 4 corners are required")

	// ErrDegenerateQuadrilateral is returned when the corners do not span a
	// usable area.
	ErrDegenerateQuadrilateral = errors.New("rectify: degenerate quadrilateral")
)

// TargetSize returns the output dimensions for a canonical quadrilateral:
// the rounded mean of the top and bottom edge lengths, and of the left and
// right edge lengths.
func TargetSize(q geom.Quadrilateral) (width, height int) {
	top := q[geom.TopLeft].Dist(q[geom.TopRight])
	bottom := q[geom.BottomLeft].Dist(q[geom.BottomRight])
	left := q[geom.TopLeft].Dist(q[geom.BottomLeft])
	right := q[geom.TopRight].Dist(q[geom.BottomRight])

	width = int(math.Round((top + bottom) / 2))
	height = int(math.Round((left + right) / 2))
	return width, height
}

// Rectify warps the region of img enclosed by corners into an axis-aligned
// image, as if the document had been scanned from directly above.
//
// Parameters:
//   - img: Full resolution source image.
//   - corners: Exactly four points in canonical order (top-left, top-right,
//     bottom-right, bottom-left), in img's coordinate space.
//
// Returns:
//   - *image.NRGBA: Rectified image of TargetSize, origin (0, 0).
//   - error: ErrInvalidCorners for a wrong corner count,
//     ErrDegenerateQuadrilateral when no output can be formed.
//
// Source samples that fall outside img are clamped to the nearest border
// pixel.
func Rectify(img image.Image, corners []geom.Point) (*image.NRGBA, error) {
	if len(corners) != 4 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCorners, len(corners))
	}

	var quad geom.Quadrilateral
	copy(quad[:], corners)

	width, height := TargetSize(quad)
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: target size %dx%d", ErrDegenerateQuadrilateral, width, height)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: empty source image", ErrDegenerateQuadrilateral)
	}

	// Work in the clone's origin-based coordinates.
	local := quad.Translate(geom.FromImagePoint(bounds.Min).Scale(-1, -1))
	dst := geom.Rect(float64(width), float64(height))

	h, err := NewHomography(local, dst)
	if err != nil {
		return nil, err
	}
	inv, err := h.Inverse()
	if err != nil {
		return nil, err
	}

	src := imaging.Clone(img)
	out := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := inv.Apply(geom.Pt(float64(x), float64(y)))
			sampleBilinear(src, p.X, p.Y, out.Pix[y*out.Stride+x*4:y*out.Stride+x*4+4])
		}
	}
	return out, nil
}

// sampleBilinear writes the bilinear interpolation of src at (fx, fy) into
// px (4 bytes, NRGBA). Coordinates are clamped to the image.
func sampleBilinear(src *image.NRGBA, fx, fy float64, px []uint8) {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	if math.IsNaN(fx) || math.IsNaN(fy) {
		fx, fy = 0, 0
	}
	fx = math.Max(0, math.Min(fx, float64(w-1)))
	fy = math.Max(0, math.Min(fy, float64(h-1)))

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1 := x0 + 1
	y1 := y0 + 1
	if x1 >= w {
		x1 = w - 1
	}
	if y1 >= h {
		y1 = h - 1
	}
	ax := fx - float64(x0)
	ay := fy - float64(y0)

	i00 := y0*src.Stride + x0*4
	i10 := y0*src.Stride + x1*4
	i01 := y1*src.Stride + x0*4
	i11 := y1*src.Stride + x1*4

	for c := 0; c < 4; c++ {
		top := float64(src.Pix[i00+c])*(1-ax) + float64(src.Pix[i10+c])*ax
		bottom := float64(src.Pix[i01+c])*(1-ax) + float64(src.Pix[i11+c])*ax
		v := math.Round(top*(1-ay) + bottom*ay)
		px[c] = uint8(math.Max(0, math.Min(v, 255)))
	}
}
