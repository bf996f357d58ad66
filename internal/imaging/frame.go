package imaging

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// OrientFrame rotates a camera frame upright. rotation is the clockwise
// rotation in degrees reported by the camera and must be a multiple of 90.
func OrientFrame(img image.Image, rotation int) (*image.NRGBA, error) {
	r := ((rotation % 360) + 360) % 360
	switch r {
	case 0:
		return imaging.Clone(img), nil
	case 90:
		// imaging rotates counter-clockwise.
		return imaging.Rotate270(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	default:
		return nil, fmt.Errorf("rotation must be a multiple of 90 degrees, got %d", rotation)
	}
}

// CropToAspect center-crops img to the aspect ratio width:height, the
// shape of the preview the frame is shown in. The larger dimension is cut;
// the other is kept whole.
func CropToAspect(img image.Image, width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("aspect ratio must be positive, got %dx%d", width, height)
	}

	bounds := img.Bounds()
	iw, ih := bounds.Dx(), bounds.Dy()
	if iw == 0 || ih == 0 {
		return nil, fmt.Errorf("cannot crop empty image")
	}

	target := float64(width) / float64(height)
	cw, ch := iw, ih
	if float64(iw)/float64(ih) > target {
		cw = int(math.Round(float64(ih) * target))
	} else {
		ch = int(math.Round(float64(iw) / target))
	}
	if cw < 1 {
		cw = 1
	}
	if ch < 1 {
		ch = 1
	}
	return imaging.CropCenter(img, cw, ch), nil
}
