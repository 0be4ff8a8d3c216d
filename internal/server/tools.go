package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Single image
		{
			Name:        "image_channel_stats",
			Description: "Compute the mean and standard deviation of every channel (R, G, B, A and, except for raw RGBA dumps, Y, U, V) of one image. HEIF grid images are analysed tile by tile with the padding of edge tiles excluded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file (.rgba, .rgba.zst, .heic, .heif, .png, .jpg, ...)",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Width in pixels of a raw .rgba dump (ignored for other formats)",
						"minimum":     1,
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Height in pixels of a raw .rgba dump (ignored for other formats)",
						"minimum":     1,
					},
				},
				"required": []string{"path"},
			},
		},

		// Directory
		{
			Name:        "image_analyze_batch",
			Description: "Analyse every image of a directory concurrently and return one CSV row per image. A failed image is listed with the step that failed and does not affect the others.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"directory": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the directory to scan",
					},
					"width": map[string]interface{}{
						"type":        "integer",
						"description": "Width in pixels of the raw .rgba dumps in the directory",
						"minimum":     1,
					},
					"height": map[string]interface{}{
						"type":        "integer",
						"description": "Height in pixels of the raw .rgba dumps in the directory",
						"minimum":     1,
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Optional path of a CSV file to write; a .zst suffix writes it zstd-compressed",
					},
				},
				"required": []string{"directory"},
			},
		},

		// Grid inspection
		{
			Name:        "image_grid_info",
			Description: "Describe the item structure of a HEIF file: primary image size, grid descriptor, tile items in stored order and the crop applied to each tile.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the HEIF file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_tile_crop_plan",
			Description: "Compute which part of each tile of a grid lies on the output canvas, given the grid descriptor and the native tile size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"rows_minus_one": map[string]interface{}{
						"type":        "integer",
						"description": "Number of tile rows minus one (0-255)",
						"minimum":     0,
						"maximum":     255,
					},
					"columns_minus_one": map[string]interface{}{
						"type":        "integer",
						"description": "Number of tile columns minus one (0-255)",
						"minimum":     0,
						"maximum":     255,
					},
					"output_width": map[string]interface{}{
						"type":        "integer",
						"description": "Width of the reconstructed image",
						"minimum":     1,
					},
					"output_height": map[string]interface{}{
						"type":        "integer",
						"description": "Height of the reconstructed image",
						"minimum":     1,
					},
					"tile_width": map[string]interface{}{
						"type":        "integer",
						"description": "Native decoded width of every tile",
						"minimum":     1,
					},
					"tile_height": map[string]interface{}{
						"type":        "integer",
						"description": "Native decoded height of every tile",
						"minimum":     1,
					},
				},
				"required": []string{
					"rows_minus_one", "columns_minus_one",
					"output_width", "output_height",
					"tile_width", "tile_height",
				},
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
