// Package geom provides the value types and planar geometry helpers shared by the
// detection and rectification stages.
//
// # Coordinate System
//
// Coordinates are real-valued pixel positions in image space:
//   - Origin (0, 0) at the top-left corner
//   - X increases rightward
//   - Y increases downward
//
// # Value Semantics
//
// Point and Quadrilateral are plain values. Every transform (Scale, Translate,
// Add, Sub) returns a new value and never modifies its receiver, so the same
// quadrilateral can be held in display space and image space at once without
// aliasing.
package geom
