// Package imaging handles image I/O and presentation around the document
// scanner.
//
// It loads PNG, JPEG, GIF and WebP files with EXIF orientation applied,
// encodes results as JPEG, PNG or WebP, prepares camera frames (rotation and
// preview-aspect cropping), and draws detected boundaries for debugging.
// All coordinates use (0,0) at the top-left corner, X increasing rightward
// and Y increasing downward.
//
// # Thread Safety
//
// The ImageCache type is safe for concurrent use. Individual image operations
// are stateless and never modify their input; each returns a new image with
// its origin at (0,0).
//
// # Formats
//
// Format names are normalized by ParseFormat: "jpg" and "jpeg" both map to
// FormatJPEG. Quality applies to JPEG and WebP; WebP at quality 100 is
// written lossless.
package imaging
