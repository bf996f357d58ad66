package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/docscan/internal/geom"
)

// OverlayStyle controls how DrawQuadrilateral renders a detected boundary.
type OverlayStyle struct {
	// Color is the stroke color as "#RRGGBB".
	Color string `json:"color"`

	// Stroke is the line width in pixels. 0 picks ~0.4% of the shorter side.
	Stroke int `json:"stroke"`

	// CornerRadius is the radius of the corner markers. 0 picks 2x the stroke.
	CornerRadius int `json:"corner_radius"`
}

// DefaultOverlayStyle returns a green boundary with automatic sizing.
func DefaultOverlayStyle() OverlayStyle {
	return OverlayStyle{Color: "#00C853"}
}

// DrawQuadrilateral returns a copy of img with the quadrilateral q outlined
// and its corners marked. q is in img's coordinate space. The result has its
// origin at (0, 0).
func DrawQuadrilateral(img image.Image, q geom.Quadrilateral, style OverlayStyle) (*image.NRGBA, error) {
	c, err := parseColor(style.Color)
	if err != nil {
		return nil, err
	}

	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()

	stroke := style.Stroke
	if stroke <= 0 {
		stroke = int(math.Max(2, 0.004*float64(minInt(w, h))))
	}
	radius := style.CornerRadius
	if radius <= 0 {
		radius = 2 * stroke
	}

	local := q.Translate(geom.FromImagePoint(img.Bounds().Min).Scale(-1, -1))
	for i := range local {
		drawLine(out, local[i], local[(i+1)%4], stroke, c)
	}
	for _, p := range local {
		fillDisc(out, p, float64(radius), c)
	}
	return out, nil
}

// parseColor parses "#RRGGBB" (or "#RGB") into an opaque color.
func parseColor(hex string) (color.NRGBA, error) {
	if hex == "" {
		hex = DefaultOverlayStyle().Color
	}
	cf, err := colorful.Hex(hex)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid overlay color %q: %w", hex, err)
	}
	r, g, b := cf.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}, nil
}

// drawLine strokes the segment a-b with a square pen of the given width.
func drawLine(img *image.NRGBA, a, b geom.Point, width int, c color.NRGBA) {
	d := b.Sub(a)
	steps := int(math.Ceil(math.Max(math.Abs(d.X), math.Abs(d.Y))))
	if steps == 0 {
		steps = 1
	}
	half := width / 2
	for s := 0; s <= steps; s++ {
		p := a.Add(d.Scale(float64(s)/float64(steps), float64(s)/float64(steps)))
		x0 := int(math.Round(p.X)) - half
		y0 := int(math.Round(p.Y)) - half
		fillRect(img, x0, y0, x0+width, y0+width, c)
	}
}

// fillDisc paints a filled circle centered on p.
func fillDisc(img *image.NRGBA, p geom.Point, r float64, c color.NRGBA) {
	cx, cy := int(math.Round(p.X)), int(math.Round(p.Y))
	ir := int(math.Ceil(r))
	for dy := -ir; dy <= ir; dy++ {
		for dx := -ir; dx <= ir; dx++ {
			if float64(dx*dx+dy*dy) <= r*r {
				setPixel(img, cx+dx, cy+dy, c)
			}
		}
	}
}

// fillRect paints [x0,x1) x [y0,y1), clipped to the image.
func fillRect(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			setPixel(img, x, y, c)
		}
	}
}

func setPixel(img *image.NRGBA, x, y int, c color.NRGBA) {
	if x < 0 || y < 0 || x >= img.Rect.Dx() || y >= img.Rect.Dy() {
		return
	}
	i := y*img.Stride + x*4
	img.Pix[i+0] = c.R
	img.Pix[i+1] = c.G
	img.Pix[i+2] = c.B
	img.Pix[i+3] = c.A
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
