// Package detection locates the quadrilateral boundary of a document in a
// photograph.
//
// The package implements the detection half of the scanning pipeline. Every
// stage is a pure function of its input, so stages can be run and tested on
// their own, and concurrent calls on independent images need no locking.
//
// # Pipeline
//
// Detect runs the stages in order:
//
//  1. Preprocess: grayscale conversion and a 5x5 Gaussian blur (sigma 1.0)
//  2. DetectEdges: Canny edge detection with low/high hysteresis thresholds
//  3. Close: morphological closing (two dilations, one erosion, 5x5 square)
//     so the document border forms one unbroken curve
//  4. TraceContours: outer boundaries of the closed edge map, chain-compressed
//  5. SelectQuadrilateral: the largest convex, near-rectangular 4-gon
//  6. OrderCorners: canonical top-left, top-right, bottom-right, bottom-left
//
// Any stage may come up empty (no edges, no 4-sided contour, ambiguous corner
// ordering). That is the normal "no document" outcome and is reported with a
// false return value, never an error.
//
// # Coordinate System
//
// All coordinates use the standard image convention:
//   - Origin (0, 0) at top-left corner
//   - X increases rightward
//   - Y increases downward
//
// Intermediate rasters (the grayscale image and the EdgeMap) always start at
// the origin. Detect translates its result back into the bounds of the input
// image.
//
// # Tuning
//
// Options carries the two Canny thresholds, the minimum contour area, the
// maximum corner cosine and the polygon approximation tolerance. The defaults
// (50, 100, 5000, 0.3, 0.02) suit phone photos scaled to roughly 800 pixels on
// the long side. Lower thresholds recover faint page borders at the cost of
// more background clutter.
package detection
