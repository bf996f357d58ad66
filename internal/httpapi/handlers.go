package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ironsheep/docscan/internal/geom"
	docimg "github.com/ironsheep/docscan/internal/imaging"
	"github.com/ironsheep/docscan/internal/rectify"
	"github.com/ironsheep/docscan/internal/scanner"
)

type errorBody struct {
	Error string `json:"error"`
}

// DetectResponse is the /v1/detect body.
type DetectResponse struct {
	Found   bool         `json:"found"`
	Corners []geom.Point `json:"corners"`
	Width   int          `json:"width"`
	Height  int          `json:"height"`
}

// Response headers set by /v1/rectify.
const (
	HeaderCorners  = "X-Document-Corners"
	HeaderDetected = "X-Document-Detected"
)

// errBadUpload marks client errors in the uploaded image.
var errBadUpload = errors.New("invalid upload")

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDetect(c echo.Context) error {
	img, err := readImage(c)
	if err != nil {
		return err
	}

	resp := DetectResponse{
		Corners: []geom.Point{},
		Width:   img.Bounds().Dx(),
		Height:  img.Bounds().Dy(),
	}
	res, err := s.detector.Scan(img)
	if errors.Is(err, scanner.ErrNoDocument) {
		return c.JSON(http.StatusOK, resp)
	}
	if err != nil {
		return err
	}

	resp.Found = true
	resp.Corners = res.Corners.Points()
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleRectify(c echo.Context) error {
	img, err := readImage(c)
	if err != nil {
		return err
	}

	format := s.opts.Format
	if f := c.FormValue("format"); f != "" {
		format = f
	}
	if format == "" {
		format = docimg.FormatJPEG
	}
	format, err = docimg.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadUpload, err)
	}

	quality := s.opts.Quality
	if q := c.FormValue("quality"); q != "" {
		if quality, err = strconv.Atoi(q); err != nil || quality < 1 || quality > 100 {
			return fmt.Errorf("%w: quality must be an integer between 1 and 100", errBadUpload)
		}
	}

	var (
		corners  []geom.Point
		detected bool
		out      *image.NRGBA
	)
	if raw := c.FormValue("corners"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &corners); err != nil {
			return fmt.Errorf("%w: corners: %v", errBadUpload, err)
		}
		out, err = rectify.Rectify(img, corners)
	} else {
		res, serr := s.scanner.Scan(img)
		if serr != nil {
			return serr
		}
		corners = res.Corners.Points()
		detected = res.Detected
		out, err = res.Rectify()
	}
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := docimg.Encode(&buf, out, format, quality); err != nil {
		return err
	}

	cornersJSON, err := json.Marshal(corners)
	if err != nil {
		return fmt.Errorf("failed to encode corners: %w", err)
	}
	c.Response().Header().Set(HeaderCorners, string(cornersJSON))
	c.Response().Header().Set(HeaderDetected, strconv.FormatBool(detected))
	return c.Blob(http.StatusOK, docimg.MimeType(format), buf.Bytes())
}

// readImage decodes the multipart "file" field.
func readImage(c echo.Context) (image.Image, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, fmt.Errorf("%w: missing file field: %v", errBadUpload, err)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadUpload, err)
	}
	defer f.Close()

	img, err := docimg.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errBadUpload, err)
	}
	return img, nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code
	case errors.Is(err, errBadUpload), errors.Is(err, rectify.ErrInvalidCorners):
		return http.StatusBadRequest
	case errors.Is(err, rectify.ErrDegenerateQuadrilateral), errors.Is(err, scanner.ErrNoDocument):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleError renders every error as a JSON body.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := statusFor(err)
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	if code >= http.StatusInternalServerError {
		s.log.WithError(err).WithField("path", c.Path()).Error("Request failed")
		msg = http.StatusText(code)
	}

	if err := c.JSON(code, errorBody{Error: msg}); err != nil {
		s.log.WithError(err).Error("Failed to write error response")
	}
}
