package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// detectionProperties are the optional overrides shared by the detection tools.
func detectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"path": pathProperty(),
		"low_threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Weak Canny threshold on the 0-255 gradient scale (default 50)",
		},
		"high_threshold": map[string]interface{}{
			"type":        "integer",
			"description": "Strong Canny threshold (default 100)",
		},
		"min_area": map[string]interface{}{
			"type":        "number",
			"description": "Area in square pixels a document outline must exceed (default 5000)",
		},
		"max_cosine": map[string]interface{}{
			"type":        "number",
			"description": "Largest |cos| allowed at a corner; 0.3 keeps corners near 90 degrees (default 0.3)",
		},
		"approx_epsilon": map[string]interface{}{
			"type":        "number",
			"description": "Polygon simplification tolerance as a fraction of the perimeter (default 0.02)",
		},
	}
}

func pointsProperty() map[string]interface{} {
	return map[string]interface{}{
		"type": "array",
		"items": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"x": map[string]interface{}{"type": "number"},
				"y": map[string]interface{}{"type": "number"},
			},
			"required": []string{"x", "y"},
		},
		"description": "Exactly four corners in order top-left, top-right, bottom-right, bottom-left",
	}
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	detect := detectionProperties()
	detect["overlay"] = map[string]interface{}{
		"type":        "boolean",
		"description": "Also return a PNG of the image with the detected boundary drawn on it",
		"default":     false,
	}

	rectify := detectionProperties()
	rectify["corners"] = pointsProperty()
	rectify["output_path"] = map[string]interface{}{
		"type":        "string",
		"description": "Write the result here (format from extension) instead of returning it inline",
	}
	rectify["format"] = map[string]interface{}{
		"type":        "string",
		"enum":        []string{"png", "jpg", "webp"},
		"description": "Inline output format (default png)",
	}
	rectify["quality"] = map[string]interface{}{
		"type":        "integer",
		"description": "JPEG/WebP quality 1-100 (default 100)",
	}

	return []Tool{
		// Basic Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format. The decoded image is cached for subsequent operations.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"path": pathProperty()},
				"required":   []string{"path"},
			},
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{"path": pathProperty()},
				"required":   []string{"path"},
			},
		},

		// Document Scanning
		{
			Name:        "docscan_detect",
			Description: "Find the boundary of a paper document in a photo. Returns four corners in order top-left, top-right, bottom-right, bottom-left, or found=false.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detect,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "docscan_rectify",
			Description: "Flatten a document into an axis-aligned image. Uses the given corners, or detects them when omitted (falling back to the whole image).",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": rectify,
				"required":   []string{"path"},
			},
		},
		{
			Name:        "docscan_edges",
			Description: "Render the closed edge map used for detection as a PNG, with per-contour diagnostics. Use this to tune thresholds when detection fails.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": detectionProperties(),
				"required":   []string{"path"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
