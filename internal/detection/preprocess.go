package detection

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/anthonynsimon/bild/effect"
	"github.com/disintegration/imaging"
)

// Blur kernel parameters.
const (
	blurSize  = 5
	blurSigma = 1.0
)

// Preprocess converts img to grayscale and smooths it with a 5x5 Gaussian
// kernel (sigma 1.0) to suppress paper grain and compression noise before
// edge detection.
//
// Luminance uses ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B). Border
// pixels are blurred against replicated edge values. The result always has
// its origin at (0, 0) and the same size as img.
func Preprocess(img image.Image) *image.Gray {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return image.NewGray(image.Rect(0, 0, 0, 0))
	}

	if bounds.Min != (image.Point{}) {
		img = imaging.Clone(img)
	}

	gray := effect.GrayscaleWithWeights(img, 0.299, 0.587, 0.114)
	blurred := convolution.Convolve(gray, gaussianKernel(blurSize, blurSigma), &convolution.Options{})

	// Every channel carries the same value; keep red.
	result := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		src := blurred.Pix[y*blurred.Stride:]
		dst := result.Pix[y*result.Stride:]
		for x := 0; x < width; x++ {
			dst[x] = src[x*4]
		}
	}
	return result
}

// gaussianKernel builds a normalized size x size Gaussian kernel.
func gaussianKernel(size int, sigma float64) convolution.Matrix {
	k := convolution.NewKernel(size, size)
	r := size / 2
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			k.Matrix[(y+r)*size+(x+r)] = math.Exp(-float64(x*x+y*y) / (2 * sigma * sigma))
		}
	}
	return k.Normalized()
}
