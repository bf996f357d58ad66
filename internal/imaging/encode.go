package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

// Output formats.
const (
	FormatJPEG = "jpeg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// DefaultQuality is the JPEG/WebP quality used when none is given.
const DefaultQuality = 100

// ParseFormat normalizes a format name ("jpg", "JPEG", "png", "webp").
func ParseFormat(name string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(name, ".")) {
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("unsupported image format: %q", name)
	}
}

// FormatFromPath infers the output format from a file extension.
func FormatFromPath(path string) (string, error) {
	return ParseFormat(filepath.Ext(path))
}

// MimeType returns the MIME type for a normalized format.
func MimeType(format string) string {
	switch format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	default:
		return "image/png"
	}
}

// Extension returns the file extension, with dot, for a normalized format.
func Extension(format string) string {
	if format == FormatJPEG {
		return ".jpg"
	}
	return "." + format
}

// Encode writes img to w in the given format. Quality (1-100) applies to
// JPEG and WebP; WebP at 100 is encoded lossless.
func Encode(w io.Writer, img image.Image, format string, quality int) error {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	switch format {
	case FormatJPEG:
		if err := imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return fmt.Errorf("failed to encode jpeg: %w", err)
		}
	case FormatPNG:
		if err := imaging.Encode(w, img, imaging.PNG); err != nil {
			return fmt.Errorf("failed to encode png: %w", err)
		}
	case FormatWebP:
		opts := &webp.Options{Lossless: quality >= 100, Quality: float32(quality)}
		if err := webp.Encode(w, img, opts); err != nil {
			return fmt.Errorf("failed to encode webp: %w", err)
		}
	default:
		return fmt.Errorf("unsupported image format: %q", format)
	}
	return nil
}

// Save encodes img to path, choosing the format from the file extension and
// creating the parent directory if needed.
func Save(path string, img image.Image, quality int) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if err := Encode(f, img, format, quality); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

// EncodedImage is an image serialized for a JSON response.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// EncodeBase64 encodes img in format and returns it base64-wrapped.
func EncodeBase64(img image.Image, format string, quality int) (*EncodedImage, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format, quality); err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	return &EncodedImage{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    MimeType(format),
	}, nil
}
