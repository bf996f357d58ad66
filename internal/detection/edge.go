package detection

import (
	"image"
	"math"
)

// EdgeMap is a binary raster marking edge pixels.
//
// Pix holds one byte per pixel in row-major order: 1 for an edge, 0
// otherwise. The origin is always (0, 0).
type EdgeMap struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewEdgeMap returns an empty edge map of the given size.
func NewEdgeMap(width, height int) *EdgeMap {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &EdgeMap{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// At reports whether (x, y) is an edge pixel. Coordinates outside the map
// are never edges.
func (m *EdgeMap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Pix[y*m.Width+x] != 0
}

// Set marks or clears the pixel at (x, y). Out of range writes are ignored.
func (m *EdgeMap) Set(x, y int, edge bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	var v uint8
	if edge {
		v = 1
	}
	m.Pix[y*m.Width+x] = v
}

// Count returns the number of edge pixels.
func (m *EdgeMap) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Image renders the map as a grayscale image with edges in white (255) and
// everything else black.
func (m *EdgeMap) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		if v != 0 {
			img.Pix[i] = 255
		}
	}
	return img
}

// edgeMapFromImage thresholds the red channel of an image at 128. The image
// must start at the origin.
func edgeMapFromImage(img *image.RGBA) *EdgeMap {
	b := img.Bounds()
	m := NewEdgeMap(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < m.Width; x++ {
			if row[x*4] >= 128 {
				m.Pix[y*m.Width+x] = 1
			}
		}
	}
	return m
}

// DetectEdges performs Canny edge detection on a smoothed grayscale image.
//
// Parameters:
//   - gray: Output of Preprocess (or any grayscale image).
//   - low: Weak threshold (0-255 scale). Gradients below it are discarded.
//   - high: Strong threshold. Gradients at or above it are always edges.
//
// # Algorithm
//
//  1. Gradient computation: 3x3 Sobel operators with replicated borders,
//     magnitude = sqrt(Gx² + Gy²), direction = atan2(Gy, Gx)
//
//  2. Non-maximum suppression: keep only pixels that are local maxima along
//     the gradient direction, thinning edges to one pixel
//
//  3. Hysteresis: pixels above high seed a breadth-first search that
//     accepts 8-connected pixels above low. Weak pixels that no seed
//     reaches are dropped.
//
// A uniform image has no gradient and produces an empty map.
func DetectEdges(gray *image.Gray, low, high int) *EdgeMap {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	edges := NewEdgeMap(width, height)
	if width == 0 || height == 0 {
		return edges
	}

	lum := func(x, y int) float64 {
		x = clamp(x, 0, width-1)
		y = clamp(y, 0, height-1)
		return float64(gray.Pix[gray.PixOffset(x+bounds.Min.X, y+bounds.Min.Y)])
	}

	// Sobel gradients
	magnitude := make([]float64, width*height)
	direction := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			gx := -lum(x-1, y-1) + lum(x+1, y-1) -
				2*lum(x-1, y) + 2*lum(x+1, y) -
				lum(x-1, y+1) + lum(x+1, y+1)
			gy := -lum(x-1, y-1) - 2*lum(x, y-1) - lum(x+1, y-1) +
				lum(x-1, y+1) + 2*lum(x, y+1) + lum(x+1, y+1)
			i := y*width + x
			magnitude[i] = math.Sqrt(gx*gx + gy*gy)
			direction[i] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression. Border pixels are never edges.
	suppressed := make([]float64, width*height)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			mag := magnitude[i]
			if mag == 0 {
				continue
			}

			// n1 precedes the pixel in raster order, n2 follows it. A tie
			// with n1 suppresses, so a two-pixel plateau keeps one pixel.
			angle := direction[i]
			var n1, n2 float64
			switch {
			case (angle >= -math.Pi/8 && angle < math.Pi/8) || angle >= 7*math.Pi/8 || angle < -7*math.Pi/8:
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			case (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8):
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			case (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8):
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			default:
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			if mag > n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis
	lowThresh := float64(low)
	highThresh := float64(high)
	queue := make([]int, 0, width)
	for i, v := range suppressed {
		if v > highThresh && v > 0 {
			edges.Pix[i] = 1
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		x, y := i%width, i/width
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= width || ny >= height {
					continue
				}
				j := ny*width + nx
				if edges.Pix[j] != 0 {
					continue
				}
				if v := suppressed[j]; v > 0 && v > lowThresh {
					edges.Pix[j] = 1
					queue = append(queue, j)
				}
			}
		}
	}

	return edges
}

// clamp constrains an integer value to the range [min, max].
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
