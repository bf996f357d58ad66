package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// solidImage creates an in-memory image filled with c
func solidImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// quadrantImage creates an image with red top-left, green top-right, blue
// bottom-left and white bottom-right quadrants
func quadrantImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.NRGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.NRGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.NRGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.NRGBA{0, 0, 255, 255}
			default:
				c = color.NRGBA{255, 255, 255, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// writePNG writes img as a PNG file under dir and returns its path
func writePNG(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestImageCache_Load(t *testing.T) {
	cache := NewImageCache()
	path := writePNG(t, t.TempDir(), "page.png", solidImage(100, 80, color.NRGBA{255, 0, 0, 255}))

	img1, err := cache.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if img1.Bounds().Dx() != 100 || img1.Bounds().Dy() != 80 {
		t.Errorf("Expected 100x80, got %dx%d", img1.Bounds().Dx(), img1.Bounds().Dy())
	}

	img2, err := cache.Load(path)
	if err != nil {
		t.Fatalf("second Load failed: %v", err)
	}
	if img1 != img2 {
		t.Error("second Load did not return cached image")
	}
	if cache.Len() != 1 {
		t.Errorf("Expected 1 cached image, got %d", cache.Len())
	}
}

func TestImageCache_Load_Errors(t *testing.T) {
	dir := t.TempDir()
	invalid := filepath.Join(dir, "invalid.png")
	if err := os.WriteFile(invalid, []byte("not an image"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing", filepath.Join(dir, "missing.png")},
		{"invalid data", invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewImageCache()
			if _, err := cache.Load(tt.path); err == nil {
				t.Error("Expected error")
			}
			if cache.Len() != 0 {
				t.Error("Failed load should not be cached")
			}
		})
	}
}

func TestImageCache_ClearAndEvict(t *testing.T) {
	dir := t.TempDir()
	a := writePNG(t, dir, "a.png", solidImage(10, 10, color.White))
	b := writePNG(t, dir, "b.png", solidImage(10, 10, color.Black))

	cache := NewImageCache()
	for _, p := range []string{a, b} {
		if _, err := cache.Load(p); err != nil {
			t.Fatalf("Load failed: %v", err)
		}
	}

	cache.Evict(a)
	if cache.Len() != 1 {
		t.Errorf("Expected 1 image after Evict, got %d", cache.Len())
	}
	cache.Evict("/nonexistent/path")

	cache.Clear()
	if cache.Len() != 0 {
		t.Errorf("Expected empty cache after Clear, got %d", cache.Len())
	}
}

func TestImageCache_ConcurrentAccess(t *testing.T) {
	cache := NewImageCache()
	path := writePNG(t, t.TempDir(), "gray.png", solidImage(50, 50, color.Gray{128}))

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Load(path); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Load error: %v", err)
	}
}

func TestDecode_WebP(t *testing.T) {
	src := quadrantImage(40, 30)
	var buf bytes.Buffer
	if err := Encode(&buf, src, FormatWebP, 100); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	img, err := Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Fatalf("Expected 40x30, got %v", img.Bounds())
	}

	r, g, b, _ := img.At(5, 5).RGBA()
	if r>>8 != 255 || g>>8 != 0 || b>>8 != 0 {
		t.Errorf("Expected red top-left after lossless round trip, got (%d,%d,%d)", r>>8, g>>8, b>>8)
	}
}

func TestDecode_Invalid(t *testing.T) {
	if _, err := Decode(bytes.NewReader([]byte("RIFF....WEBPjunk"))); err == nil {
		t.Error("Expected error for corrupt data")
	}
}

func TestLoadImageInfo(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name   string
		format string
	}{
		{"page.png", "png"},
		{"page.jpg", "jpeg"},
		{"page.JPEG", "jpeg"},
		{"page.webp", "webp"},
		{"page.gif", "gif"},
		{"page.xyz", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// PNG content regardless of extension; format is extension based
			path := writePNG(t, dir, tt.name, solidImage(20, 10, color.White))

			info, err := LoadImageInfo(NewImageCache(), path)
			if err != nil {
				t.Fatalf("LoadImageInfo failed: %v", err)
			}
			if info.Format != tt.format {
				t.Errorf("Expected format %s, got %s", tt.format, info.Format)
			}
			if info.Width != 20 || info.Height != 10 {
				t.Errorf("Expected 20x10, got %dx%d", info.Width, info.Height)
			}
			if info.FileSizeBytes <= 0 {
				t.Error("FileSizeBytes should be positive")
			}
		})
	}
}

func TestGetDimensions(t *testing.T) {
	cache := NewImageCache()
	path := writePNG(t, t.TempDir(), "dims.png", solidImage(300, 200, color.Gray{100}))

	dims, err := GetDimensions(cache, path)
	if err != nil {
		t.Fatalf("GetDimensions failed: %v", err)
	}
	if dims.Width != 300 || dims.Height != 200 {
		t.Errorf("Expected 300x200, got %dx%d", dims.Width, dims.Height)
	}

	if _, err := GetDimensions(cache, "/nonexistent/image.png"); err == nil {
		t.Error("GetDimensions should fail for non-existent file")
	}
}
