package httpapi

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ironsheep/docscan/internal/geom"
	docimg "github.com/ironsheep/docscan/internal/imaging"
	"github.com/ironsheep/docscan/internal/scanner"
)

func testOptions() Options {
	return Options{
		Scanner:     scanner.DefaultOptions(),
		RateLimit:   100,
		Burst:       100,
		MaxUploadMB: 5,
		Format:      "png",
		Quality:     100,
	}
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	s, err := New(opts, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

// documentPNG encodes a light page on a dark background
func documentPNG(t *testing.T, width, height int, page image.Rectangle) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBA{30, 30, 30, 255}
			if (image.Point{x, y}).In(page) {
				c = color.NRGBA{220, 220, 220, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return buf.Bytes()
}

// uploadRequest builds a multipart POST with an optional file and fields
func uploadRequest(t *testing.T, path string, file []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if file != nil {
		part, err := w.CreateFormFile("file", "upload.png")
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		part.Write(file)
	}
	for k, v := range fields {
		w.WriteField(k, v)
	}
	w.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := serve(newTestServer(t, testOptions()), httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("Unexpected body %s", rec.Body.String())
	}
}

func TestDetect(t *testing.T) {
	s := newTestServer(t, testOptions())
	req := uploadRequest(t, "/v1/detect", documentPNG(t, 300, 300, image.Rect(60, 50, 240, 230)), nil)

	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp DetectResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !resp.Found || len(resp.Corners) != 4 {
		t.Fatalf("Expected 4 corners, got %+v", resp)
	}
	if d := resp.Corners[0].Dist(geom.Pt(60, 50)); d > 6 {
		t.Errorf("Expected top-left near (60,50), got %v", resp.Corners[0])
	}
}

func TestDetect_NotFound(t *testing.T) {
	s := newTestServer(t, testOptions())
	rec := serve(s, uploadRequest(t, "/v1/detect", documentPNG(t, 100, 100, image.Rectangle{}), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var resp DetectResponse
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Found || len(resp.Corners) != 0 {
		t.Errorf("Expected no document, got %+v", resp)
	}
}

func TestDetect_BadUploads(t *testing.T) {
	s := newTestServer(t, testOptions())

	tests := []struct {
		name string
		file []byte
	}{
		{"missing file", nil},
		{"not an image", []byte("hello")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, uploadRequest(t, "/v1/detect", tt.file, nil))
			if rec.Code != http.StatusBadRequest {
				t.Errorf("Expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("Expected JSON error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestRectify_WithCorners(t *testing.T) {
	s := newTestServer(t, testOptions())
	req := uploadRequest(t, "/v1/rectify", documentPNG(t, 200, 200, image.Rect(20, 20, 180, 180)), map[string]string{
		"corners": `[{"x":20,"y":20},{"x":120,"y":20},{"x":120,"y":70},{"x":20,"y":70}]`,
	})

	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Expected image/png, got %s", ct)
	}

	img, err := docimg.Decode(rec.Body)
	if err != nil {
		t.Fatalf("response is not an image: %v", err)
	}
	if img.Bounds().Dx() != 100 || img.Bounds().Dy() != 50 {
		t.Errorf("Expected 100x50, got %v", img.Bounds())
	}
}

func TestRectify_Detected(t *testing.T) {
	s := newTestServer(t, testOptions())
	req := uploadRequest(t, "/v1/rectify", documentPNG(t, 300, 300, image.Rect(60, 50, 240, 230)), map[string]string{
		"format":  "jpg",
		"quality": "80",
	})

	rec := serve(s, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Expected image/jpeg, got %s", ct)
	}
	if rec.Header().Get(HeaderDetected) != "true" {
		t.Errorf("Expected detected header, got %q", rec.Header().Get(HeaderDetected))
	}

	var corners []geom.Point
	if err := json.Unmarshal([]byte(rec.Header().Get(HeaderCorners)), &corners); err != nil || len(corners) != 4 {
		t.Errorf("Expected 4 corners in header, got %q", rec.Header().Get(HeaderCorners))
	}
}

func TestRectify_Errors(t *testing.T) {
	noFallback := testOptions()
	noFallback.Scanner.SelectAllOnError = false

	tests := []struct {
		name     string
		opts     Options
		fields   map[string]string
		wantCode int
	}{
		{"three corners", testOptions(), map[string]string{"corners": `[{"x":0,"y":0},{"x":10,"y":0},{"x":10,"y":10}]`}, http.StatusBadRequest},
		{"malformed corners", testOptions(), map[string]string{"corners": `[{"x":`}, http.StatusBadRequest},
		{"collinear corners", testOptions(), map[string]string{"corners": `[{"x":0,"y":0},{"x":10,"y":0},{"x":20,"y":0},{"x":30,"y":0}]`}, http.StatusUnprocessableEntity},
		{"bad format", testOptions(), map[string]string{"format": "bmp"}, http.StatusBadRequest},
		{"bad quality", testOptions(), map[string]string{"quality": "0"}, http.StatusBadRequest},
		{"no document", noFallback, nil, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.opts)
			rec := serve(s, uploadRequest(t, "/v1/rectify", documentPNG(t, 80, 80, image.Rectangle{}), tt.fields))
			if rec.Code != tt.wantCode {
				t.Errorf("Expected %d, got %d: %s", tt.wantCode, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	opts := testOptions()
	opts.RateLimit = 1
	opts.Burst = 2
	s := newTestServer(t, opts)

	codes := make([]int, 3)
	for i := range codes {
		codes[i] = serve(s, httptest.NewRequest(http.MethodGet, "/health", nil)).Code
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected burst of 2 to pass, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected third request to be limited, got %d", codes[2])
	}
}

func TestRateLimiter_PerClientAndEviction(t *testing.T) {
	now := time.Unix(1000, 0)
	l := NewRateLimiter(1, 1)
	l.now = func() time.Time { return now }

	if !l.Allow("10.0.0.1") || l.Allow("10.0.0.1") {
		t.Error("Expected one request then a rejection for the same client")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("Expected a separate bucket for another client")
	}

	now = now.Add(2 * time.Minute)
	l.Allow("10.0.0.3")
	if len(l.clients) != 1 {
		t.Errorf("Expected idle clients to be evicted, have %d", len(l.clients))
	}
}

func TestBodyLimit(t *testing.T) {
	opts := testOptions()
	opts.MaxUploadMB = 1
	s := newTestServer(t, opts)

	big := bytes.Repeat([]byte{0}, 2<<20)
	rec := serve(s, uploadRequest(t, "/v1/detect", big, nil))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413, got %d", rec.Code)
	}
}

func TestNew_InvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.RateLimit = 0
	if _, err := New(opts, nil); err == nil {
		t.Error("Expected error for zero rate limit")
	}

	opts = testOptions()
	opts.Scanner.MaxCosine = 2
	if _, err := New(opts, nil); err == nil {
		t.Error("Expected error for invalid scanner options")
	}
}
