package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/image-stats-mcp/internal/analyzer"
	"github.com/ironsheep/image-stats-mcp/internal/heif"
	"github.com/ironsheep/image-stats-mcp/internal/report"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_channel_stats").
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
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
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
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_channel_stats":
		return s.handleImageChannelStats(ctx, args)
	case "image_analyze_batch":
		return s.handleImageAnalyzeBatch(ctx, args)
	case "image_grid_info":
		return s.handleImageGridInfo(args)
	case "image_tile_crop_plan":
		return s.handleImageTileCropPlan(args)
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
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Statistics Handlers ===

type imageChannelStatsArgs struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ChannelStatsResult is the output of image_channel_stats.
type ChannelStatsResult struct {
	*analyzer.Result
	CSV    string         `json:"csv"`
	Swatch *report.Swatch `json:"mean_colour,omitempty"`
}

func (s *Server) handleImageChannelStats(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageChannelStatsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Path == "" {
		return nil, errors.New("path is required")
	}
	if a.Width < 0 || a.Height < 0 {
		return nil, fmt.Errorf("invalid raw size %dx%d", a.Width, a.Height)
	}

	res, err := s.single.Analyze(ctx, analyzer.Image{Path: a.Path, Width: a.Width, Height: a.Height})
	if err != nil {
		return nil, err
	}
	out := &ChannelStatsResult{Result: res}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, []*analyzer.Result{res}); err != nil {
		return nil, err
	}
	out.CSV = buf.String()
	if sw, ok := report.MeanSwatch(res); ok {
		out.Swatch = &sw
	}
	return out, nil
}

type imageAnalyzeBatchArgs struct {
	Directory string `json:"directory"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Output    string `json:"output"`
}

// BatchFailure names an image whose analysis failed.
type BatchFailure struct {
	Path  string         `json:"path"`
	State analyzer.State `json:"state,omitempty"`
	Error string         `json:"error"`
}

// BatchResult is the output of image_analyze_batch.
type BatchResult struct {
	Directory string         `json:"directory"`
	Images    int            `json:"images"`
	Succeeded int            `json:"succeeded"`
	Failed    []BatchFailure `json:"failed,omitempty"`
	// CSV holds the report when no output file was requested.
	CSV    string `json:"csv,omitempty"`
	Output string `json:"output,omitempty"`
}

func (s *Server) handleImageAnalyzeBatch(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageAnalyzeBatchArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Directory == "" {
		return nil, errors.New("directory is required")
	}

	images, err := analyzer.CollectImages(a.Directory, a.Width, a.Height)
	if err != nil {
		return nil, err
	}
	outcomes := s.batch.AnalyzeBatch(ctx, images)

	out := &BatchResult{Directory: a.Directory, Images: len(images)}
	results := make([]*analyzer.Result, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Err != nil {
			f := BatchFailure{Path: o.Image.Path, Error: o.Err.Error()}
			var aerr *analyzer.Error
			if errors.As(o.Err, &aerr) {
				f.State = aerr.State
			}
			out.Failed = append(out.Failed, f)
			continue
		}
		results = append(results, o.Result)
	}
	out.Succeeded = len(results)

	if a.Output == "" {
		var buf bytes.Buffer
		if err := report.WriteCSV(&buf, results); err != nil {
			return nil, err
		}
		out.CSV = buf.String()
		return out, nil
	}

	w, err := report.CreateCSV(a.Output)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if err := w.Write(res); err != nil {
			w.Close()
			return nil, err
		}
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	out.Output = a.Output
	return out, nil
}

// === Grid Handlers ===

type imageGridInfoArgs struct {
	Path string `json:"path"`
}

// GridTileInfo describes one tile item and its crop.
type GridTileInfo struct {
	heif.TilePlan
	ItemID uint32 `json:"item_id"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// GridInfoResult is the output of image_grid_info.
type GridInfoResult struct {
	Path   string         `json:"path"`
	Brand  string         `json:"brand"`
	Width  int            `json:"width"`
	Height int            `json:"height"`
	Grid   *heif.Grid     `json:"grid,omitempty"`
	Tiles  []GridTileInfo `json:"tiles,omitempty"`
}

func (s *Server) handleImageGridInfo(args json.RawMessage) (interface{}, error) {
	var a imageGridInfoArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	c, err := heif.Open(a.Path)
	if err != nil {
		return nil, err
	}
	return DescribeContainer(a.Path, c)
}

// DescribeContainer lists the grid and per-tile crop plan of a parsed HEIF
// file. Non-grid files report only the primary image size.
func DescribeContainer(path string, c *heif.Container) (*GridInfoResult, error) {
	out := &GridInfoResult{Path: path, Brand: c.MajorBrand}
	var err error
	if out.Width, out.Height, err = c.PrimarySize(); err != nil {
		return nil, err
	}
	if !c.IsGrid() {
		return out, nil
	}

	if out.Grid, err = c.Grid(); err != nil {
		return nil, err
	}
	tiles, err := c.TileItems()
	if err != nil {
		return nil, err
	}
	if len(tiles) != out.Grid.TileCount() {
		return nil, fmt.Errorf("%w: %s declares %d tiles, found %d",
			heif.ErrInvalidGridGeometry, out.Grid, out.Grid.TileCount(), len(tiles))
	}

	// The first tile's ispe is the size every tile is planned with.
	tileWidth, tileHeight, err := c.ItemSize(tiles[0].ID)
	if err != nil {
		return nil, err
	}
	for i, tile := range tiles {
		w, h, err := c.ItemSize(tile.ID)
		if err != nil {
			return nil, err
		}
		if w != tileWidth || h != tileHeight {
			return nil, fmt.Errorf("%w: tile %d (item %d) is %dx%d, grid tiles are %dx%d",
				heif.ErrInvalidGridGeometry, i, tile.ID, w, h, tileWidth, tileHeight)
		}
		crop, err := heif.PlanCrop(out.Grid, i, tileWidth, tileHeight)
		if err != nil {
			return nil, fmt.Errorf("tile %d (item %d): %w", i, tile.ID, err)
		}
		row, col := out.Grid.TilePosition(i)
		out.Tiles = append(out.Tiles, GridTileInfo{
			TilePlan: heif.TilePlan{Index: i, Row: row, Column: col, Crop: crop},
			ItemID:   tile.ID,
			Width:    w,
			Height:   h,
		})
	}
	return out, nil
}

type imageTileCropPlanArgs struct {
	RowsMinusOne    int `json:"rows_minus_one"`
	ColumnsMinusOne int `json:"columns_minus_one"`
	OutputWidth     int `json:"output_width"`
	OutputHeight    int `json:"output_height"`
	TileWidth       int `json:"tile_width"`
	TileHeight      int `json:"tile_height"`
}

// CropPlanResult is the output of image_tile_crop_plan.
type CropPlanResult struct {
	Grid  *heif.Grid      `json:"grid"`
	Tiles []heif.TilePlan `json:"tiles"`
}

func (s *Server) handleImageTileCropPlan(args json.RawMessage) (interface{}, error) {
	var a imageTileCropPlanArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.RowsMinusOne < 0 || a.RowsMinusOne > 255 || a.ColumnsMinusOne < 0 || a.ColumnsMinusOne > 255 {
		return nil, fmt.Errorf("rows_minus_one and columns_minus_one must be in 0-255, got %d and %d",
			a.RowsMinusOne, a.ColumnsMinusOne)
	}
	if a.OutputWidth < 0 || a.OutputHeight < 0 || int64(a.OutputWidth) > 0xFFFFFFFF || int64(a.OutputHeight) > 0xFFFFFFFF {
		return nil, fmt.Errorf("invalid output size %dx%d", a.OutputWidth, a.OutputHeight)
	}

	g := &heif.Grid{
		RowsMinusOne:    uint8(a.RowsMinusOne),
		ColumnsMinusOne: uint8(a.ColumnsMinusOne),
		OutputWidth:     uint32(a.OutputWidth),
		OutputHeight:    uint32(a.OutputHeight),
	}
	plans, err := heif.PlanTiles(g, a.TileWidth, a.TileHeight)
	if err != nil {
		return nil, err
	}
	return &CropPlanResult{Grid: g, Tiles: plans}, nil
}
