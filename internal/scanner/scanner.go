// Package scanner wraps document detection for callers working with full
// resolution photos: it analyses a downscaled copy, maps the boundary back
// to the original, and hands out results that can be rectified and saved.
package scanner

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan/internal/detection"
	"github.com/ironsheep/docscan/internal/geom"
	"github.com/ironsheep/docscan/internal/logging"
)

// ErrNoDocument is returned when no document boundary is found and the
// whole-image fallback is disabled.
var ErrNoDocument = errors.New("scanner: no document detected")

// DefaultAnalysisMaxSize bounds the longer side of the analysed copy.
const DefaultAnalysisMaxSize = 800

// Options configures a Scanner.
type Options struct {
	detection.Options `yaml:",inline"`

	// AnalysisMaxSize is the longest side, in pixels, of the copy detection
	// runs on. 0 analyses the image at full size.
	AnalysisMaxSize int `json:"analysis_max_size" yaml:"analysis_max_size"`

	// SelectAllOnError returns the whole image as the document instead of
	// ErrNoDocument when detection finds nothing.
	SelectAllOnError bool `json:"select_all_on_error" yaml:"select_all_on_error"`
}

// DefaultOptions returns the stock scanner configuration.
func DefaultOptions() Options {
	return Options{
		Options:          detection.DefaultOptions(),
		AnalysisMaxSize:  DefaultAnalysisMaxSize,
		SelectAllOnError: true,
	}
}

// Validate checks the detection parameters and the analysis size.
func (o Options) Validate() error {
	if err := o.Options.Validate(); err != nil {
		return err
	}
	if o.AnalysisMaxSize < 0 {
		return fmt.Errorf("analysis max size must be non-negative, got %d", o.AnalysisMaxSize)
	}
	return nil
}

// Scanner finds documents in images. It holds no per-image state and is safe
// for concurrent use.
type Scanner struct {
	opts Options
	log  *logrus.Entry
}

// New creates a Scanner. A nil logger discards log output.
func New(opts Options, logger *logrus.Logger) (*Scanner, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scanner options: %w", err)
	}
	return &Scanner{
		opts: opts,
		log:  logging.Component(logger, "scanner"),
	}, nil
}

// Options returns the scanner's configuration.
func (s *Scanner) Options() Options {
	return s.opts
}

// Scan locates the document in img.
//
// Detection runs on a copy fitted inside AnalysisMaxSize; the corners in
// the result are in img's own coordinate space. When nothing is found the
// result spans the whole image if SelectAllOnError is set, otherwise Scan
// returns ErrNoDocument.
func (s *Scanner) Scan(img image.Image) (*ScanResult, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrNoDocument)
	}

	analysis, sx, sy := s.analysisCopy(img)
	logger := s.log.WithFields(logrus.Fields{
		"width":         bounds.Dx(),
		"height":        bounds.Dy(),
		"analysis_size": fmt.Sprintf("%dx%d", analysis.Bounds().Dx(), analysis.Bounds().Dy()),
	})

	res := detection.Run(analysis, s.opts.Options)
	logger = logger.WithFields(logrus.Fields{
		"edge_pixels": res.EdgePixels,
		"contours":    res.Contours,
	})

	if !res.Found {
		if !s.opts.SelectAllOnError {
			logger.Debug("No document detected")
			return nil, ErrNoDocument
		}
		logger.Debug("No document detected, selecting whole image")
		whole := geom.Rect(float64(bounds.Dx()), float64(bounds.Dy())).
			Translate(geom.FromImagePoint(bounds.Min))
		return &ScanResult{Image: img, Corners: whole, Detected: false}, nil
	}

	// Analysis corners are relative to the analysed copy's origin.
	local := res.Corners.Translate(geom.FromImagePoint(analysis.Bounds().Min).Scale(-1, -1))
	corners := local.Scale(sx, sy).Translate(geom.FromImagePoint(bounds.Min))
	logger.WithField("corners", corners).Debug("Document detected")

	return &ScanResult{Image: img, Corners: corners, Detected: true}, nil
}

// analysisCopy returns the image detection should run on and the factors
// that map its coordinates back to img.
func (s *Scanner) analysisCopy(img image.Image) (image.Image, float64, float64) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	limit := s.opts.AnalysisMaxSize
	if limit <= 0 || (w <= limit && h <= limit) {
		return img, 1, 1
	}

	small := imaging.Fit(img, limit, limit, imaging.Linear)
	sw, sh := small.Bounds().Dx(), small.Bounds().Dy()
	return small, float64(w) / float64(sw), float64(h) / float64(sh)
}
