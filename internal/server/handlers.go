package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/docscan/internal/detection"
	"github.com/ironsheep/docscan/internal/geom"
	"github.com/ironsheep/docscan/internal/imaging"
	"github.com/ironsheep/docscan/internal/rectify"
	"github.com/ironsheep/docscan/internal/scanner"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_load", "docscan_detect").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithFields(logrus.Fields{"tool": params.Name}).WithError(err).Warn("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Basic Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)

	// Document Scanning
	case "docscan_detect":
		return s.handleDocscanDetect(args)
	case "docscan_rectify":
		return s.handleDocscanRectify(args)
	case "docscan_edges":
		return s.handleDocscanEdges(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments, treating a missing object as empty.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// === Basic Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

// === Document Scanning Handlers ===

// detectionArgs carries optional overrides of the server's scanner options.
type detectionArgs struct {
	Path          string   `json:"path"`
	LowThreshold  *int     `json:"low_threshold"`
	HighThreshold *int     `json:"high_threshold"`
	MinArea       *float64 `json:"min_area"`
	MaxCosine     *float64 `json:"max_cosine"`
	ApproxEpsilon *float64 `json:"approx_epsilon"`
}

func (a detectionArgs) apply(opts scanner.Options) scanner.Options {
	if a.LowThreshold != nil {
		opts.LowThreshold = *a.LowThreshold
	}
	if a.HighThreshold != nil {
		opts.HighThreshold = *a.HighThreshold
	}
	if a.MinArea != nil {
		opts.MinArea = *a.MinArea
	}
	if a.MaxCosine != nil {
		opts.MaxCosine = *a.MaxCosine
	}
	if a.ApproxEpsilon != nil {
		opts.ApproxEpsilon = *a.ApproxEpsilon
	}
	return opts
}

// scan loads the image and runs a scanner configured from the arguments.
func (s *Server) scan(a detectionArgs, selectAll bool) (image.Image, *scanner.ScanResult, error) {
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, nil, err
	}

	opts := a.apply(s.opts)
	opts.SelectAllOnError = selectAll
	sc, err := scanner.New(opts, s.log.Logger)
	if err != nil {
		return nil, nil, err
	}

	res, err := sc.Scan(img)
	return img, res, err
}

type detectArgs struct {
	detectionArgs
	Overlay bool `json:"overlay"`
}

// DetectResult is the docscan_detect response.
type DetectResult struct {
	Found   bool                  `json:"found"`
	Corners []geom.Point          `json:"corners"`
	Width   int                   `json:"width"`
	Height  int                   `json:"height"`
	Overlay *imaging.EncodedImage `json:"overlay,omitempty"`
}

func (s *Server) handleDocscanDetect(args json.RawMessage) (interface{}, error) {
	var a detectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	img, res, err := s.scan(a.detectionArgs, false)
	if err != nil && !errors.Is(err, scanner.ErrNoDocument) {
		return nil, err
	}

	out := &DetectResult{
		Corners: []geom.Point{},
		Width:   img.Bounds().Dx(),
		Height:  img.Bounds().Dy(),
	}
	if res == nil {
		return out, nil
	}

	out.Found = true
	out.Corners = res.Corners.Points()
	if a.Overlay {
		drawn, err := imaging.DrawQuadrilateral(img, res.Corners, imaging.DefaultOverlayStyle())
		if err != nil {
			return nil, err
		}
		if out.Overlay, err = imaging.EncodeBase64(drawn, imaging.FormatPNG, 0); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type rectifyArgs struct {
	detectionArgs
	Corners    []geom.Point `json:"corners"`
	OutputPath string       `json:"output_path"`
	Format     string       `json:"format"`
	Quality    int          `json:"quality"`
}

// RectifyResult is the docscan_rectify response.
type RectifyResult struct {
	Width      int                   `json:"width"`
	Height     int                   `json:"height"`
	Corners    []geom.Point          `json:"corners"`
	Detected   bool                  `json:"detected"`
	OutputPath string                `json:"output_path,omitempty"`
	Image      *imaging.EncodedImage `json:"image,omitempty"`
}

func (s *Server) handleDocscanRectify(args json.RawMessage) (interface{}, error) {
	var a rectifyArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	format := imaging.FormatPNG
	if a.Format != "" {
		f, err := imaging.ParseFormat(a.Format)
		if err != nil {
			return nil, err
		}
		format = f
	}

	var (
		out *image.NRGBA
		err error
		res = &RectifyResult{Corners: a.Corners}
	)
	if a.Corners != nil {
		img, lerr := s.cache.Load(a.Path)
		if lerr != nil {
			return nil, lerr
		}
		out, err = rectify.Rectify(img, a.Corners)
	} else {
		_, scan, serr := s.scan(a.detectionArgs, s.opts.SelectAllOnError)
		if serr != nil {
			return nil, serr
		}
		res.Corners = scan.Corners.Points()
		res.Detected = scan.Detected
		out, err = scan.Rectify()
	}
	if err != nil {
		return nil, err
	}

	res.Width = out.Bounds().Dx()
	res.Height = out.Bounds().Dy()

	if a.OutputPath != "" {
		if err := imaging.Save(a.OutputPath, out, a.Quality); err != nil {
			return nil, err
		}
		res.OutputPath = a.OutputPath
		return res, nil
	}

	if res.Image, err = imaging.EncodeBase64(out, format, a.Quality); err != nil {
		return nil, err
	}
	return res, nil
}

// EdgesResult is the docscan_edges response.
type EdgesResult struct {
	Found      bool                  `json:"found"`
	Corners    []geom.Point          `json:"corners"`
	EdgePixels int                   `json:"edge_pixels"`
	Contours   int                   `json:"contours"`
	Candidates []detection.Candidate `json:"candidates"`
	Image      *imaging.EncodedImage `json:"image"`
}

func (s *Server) handleDocscanEdges(args json.RawMessage) (interface{}, error) {
	var a detectionArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	opts := a.apply(s.opts)
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	run := detection.Run(img, opts.Options)
	encoded, err := imaging.EncodeBase64(run.Edges.Image(), imaging.FormatPNG, 0)
	if err != nil {
		return nil, err
	}

	out := &EdgesResult{
		Corners:    []geom.Point{},
		EdgePixels: run.EdgePixels,
		Contours:   run.Contours,
		Candidates: run.Candidates,
		Image:      encoded,
	}
	if out.Candidates == nil {
		out.Candidates = []detection.Candidate{}
	}
	if run.Found {
		out.Found = true
		out.Corners = run.Corners.Points()
	}
	return out, nil
}
