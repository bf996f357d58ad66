package detection

import (
	"fmt"
	"image"

	"github.com/ironsheep/docscan/internal/geom"
)

// Default detection parameters.
const (
	DefaultLowThreshold  = 50
	DefaultHighThreshold = 100
	DefaultMinArea       = 5000.0
	DefaultMaxCosine     = 0.3
	DefaultApproxEpsilon = 0.02
)

// Options tunes the detection pipeline.
type Options struct {
	// LowThreshold is the weak Canny threshold (0-255 gradient scale).
	LowThreshold int `json:"low_threshold" yaml:"low_threshold"`

	// HighThreshold is the strong Canny threshold.
	HighThreshold int `json:"high_threshold" yaml:"high_threshold"`

	// MinArea is the area in square pixels a contour must exceed.
	MinArea float64 `json:"min_area" yaml:"min_area"`

	// MaxCosine bounds |cos θ| at every corner. 0.3 accepts corners
	// between roughly 72.5° and 107.5°.
	MaxCosine float64 `json:"max_cosine" yaml:"max_cosine"`

	// ApproxEpsilon is the polygon approximation tolerance as a fraction
	// of the contour perimeter.
	ApproxEpsilon float64 `json:"approx_epsilon" yaml:"approx_epsilon"`
}

// DefaultOptions returns the stock detection parameters.
func DefaultOptions() Options {
	return Options{
		LowThreshold:  DefaultLowThreshold,
		HighThreshold: DefaultHighThreshold,
		MinArea:       DefaultMinArea,
		MaxCosine:     DefaultMaxCosine,
		ApproxEpsilon: DefaultApproxEpsilon,
	}
}

// Validate checks that the options describe a usable pipeline.
func (o Options) Validate() error {
	if o.LowThreshold < 0 || o.HighThreshold < 0 {
		return fmt.Errorf("thresholds must be non-negative (low=%d, high=%d)", o.LowThreshold, o.HighThreshold)
	}
	if o.LowThreshold > o.HighThreshold {
		return fmt.Errorf("low threshold %d exceeds high threshold %d", o.LowThreshold, o.HighThreshold)
	}
	if o.MinArea < 0 {
		return fmt.Errorf("min area must be non-negative, got %v", o.MinArea)
	}
	if o.MaxCosine <= 0 || o.MaxCosine > 1 {
		return fmt.Errorf("max cosine must be in (0, 1], got %v", o.MaxCosine)
	}
	if o.ApproxEpsilon <= 0 || o.ApproxEpsilon >= 1 {
		return fmt.Errorf("approx epsilon must be in (0, 1), got %v", o.ApproxEpsilon)
	}
	return nil
}

// Result holds the outcome of a detection run and the intermediate counts
// useful when tuning thresholds.
type Result struct {
	// Corners is the canonical document boundary. Valid only when Found.
	Corners geom.Quadrilateral `json:"corners"`

	// Found is false when no document boundary was detected.
	Found bool `json:"found"`

	// Width and Height are the analysed image dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// EdgePixels is the number of edge pixels after closing.
	EdgePixels int `json:"edge_pixels"`

	// Contours is the number of outer contours traced.
	Contours int `json:"contours"`

	// Candidates lists the selection verdict for every contour.
	Candidates []Candidate `json:"candidates,omitempty"`

	// Edges is the closed edge map the contours were traced from.
	Edges *EdgeMap `json:"-"`
}

// Detect finds the document boundary in img.
//
// It returns the four corners in canonical order (top-left, top-right,
// bottom-right, bottom-left) in the coordinate space of img, or false when
// no document was found. Never returns 1 to 3 points.
func Detect(img image.Image, opts Options) (geom.Quadrilateral, bool) {
	res := Run(img, opts)
	return res.Corners, res.Found
}

// Run executes the full pipeline and reports its intermediate results.
func Run(img image.Image, opts Options) *Result {
	bounds := img.Bounds()
	res := &Result{Width: bounds.Dx(), Height: bounds.Dy()}

	gray := Preprocess(img)
	edges := Close(DetectEdges(gray, opts.LowThreshold, opts.HighThreshold))
	res.Edges = edges
	res.EdgePixels = edges.Count()
	if res.EdgePixels == 0 {
		return res
	}

	contours := TraceContours(edges)
	res.Contours = len(contours)

	quad, ok, candidates := selectQuadrilateral(contours, opts)
	res.Candidates = candidates
	if !ok {
		return res
	}

	ordered, ok := OrderCorners(quad)
	if !ok {
		return res
	}

	res.Corners = ordered.Translate(geom.FromImagePoint(bounds.Min))
	res.Found = true
	return res
}
