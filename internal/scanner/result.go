package scanner

import (
	"fmt"
	"image"

	"github.com/ironsheep/docscan/internal/geom"
	docimg "github.com/ironsheep/docscan/internal/imaging"
	"github.com/ironsheep/docscan/internal/rectify"
)

// ScanResult is a scanned image together with its document boundary.
type ScanResult struct {
	// Image is the full resolution source.
	Image image.Image `json:"-"`

	// Corners is the canonical boundary in Image's coordinate space.
	Corners geom.Quadrilateral `json:"corners"`

	// Detected is false when Corners is the whole-image fallback.
	Detected bool `json:"detected"`
}

// Rectify flattens the document. Each call warps the source again.
func (r *ScanResult) Rectify() (*image.NRGBA, error) {
	out, err := rectify.Rectify(r.Image, r.Corners.Points())
	if err != nil {
		return nil, fmt.Errorf("failed to rectify document: %w", err)
	}
	return out, nil
}

// Save rectifies the document and writes it to path. The format follows the
// file extension; quality <= 0 selects the default of 100.
func (r *ScanResult) Save(path string, quality int) error {
	out, err := r.Rectify()
	if err != nil {
		return err
	}
	if err := docimg.Save(path, out, quality); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	return nil
}
