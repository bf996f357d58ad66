// Package rectify flattens a photographed quadrilateral into an axis-aligned
// image.
//
// Given the four canonical corners of a document (top-left, top-right,
// bottom-right, bottom-left) in source pixel space, Rectify:
//
//  1. Infers the output size: width is the mean of the top and bottom edge
//     lengths, height the mean of the left and right edge lengths
//  2. Solves the projective transform (homography) taking the corners to
//     (0,0), (W,0), (W,H), (0,H)
//  3. Maps every output pixel back through the inverse transform and samples
//     the source bilinearly, clamping at the image border
//
// # Errors
//
// Passing anything other than exactly four corners is a programming error
// and returns ErrInvalidCorners without producing an image. Corners that
// collapse to a zero-size output or a singular transform return
// ErrDegenerateQuadrilateral.
package rectify
