package heif

import "fmt"

// CropRect is the part of a decoded tile that belongs to the output canvas.
// It is always anchored at the tile's own top-left corner.
type CropRect struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// PlanCrop returns the crop to apply to the tile at index before its samples
// are counted, or nil when the tile is used unmodified.
//
// Tiles in the last column are trimmed to the remainder width, tiles in the
// last row to the remainder height, and the bottom-right tile to both.
// tileWidth and tileHeight are the native size shared by every tile.
func PlanCrop(g *Grid, index, tileWidth, tileHeight int) (*CropRect, error) {
	if index < 0 || index >= g.TileCount() {
		return nil, fmt.Errorf("%w: tile index %d outside %d-tile grid", ErrInvalidGridGeometry, index, g.TileCount())
	}
	if err := g.Validate(tileWidth, tileHeight); err != nil {
		return nil, err
	}

	lastCol := g.IsLastColumn(index)
	lastRow := g.IsLastRow(index)
	switch {
	case lastCol && lastRow:
		return &CropRect{Width: g.RemainderWidth(tileWidth), Height: g.RemainderHeight(tileHeight)}, nil
	case lastCol:
		return &CropRect{Width: g.RemainderWidth(tileWidth), Height: tileHeight}, nil
	case lastRow:
		return &CropRect{Width: tileWidth, Height: g.RemainderHeight(tileHeight)}, nil
	}
	return nil, nil
}

// TilePlan describes one tile's place on the canvas.
type TilePlan struct {
	Index  int       `json:"index"`
	Row    int       `json:"row"`
	Column int       `json:"column"`
	Crop   *CropRect `json:"crop,omitempty"`
}

// PlanTiles returns the crop plan of every tile of a grid whose tiles share
// the given native size.
func PlanTiles(g *Grid, tileWidth, tileHeight int) ([]TilePlan, error) {
	plans := make([]TilePlan, 0, g.TileCount())
	for i := 0; i < g.TileCount(); i++ {
		crop, err := PlanCrop(g, i, tileWidth, tileHeight)
		if err != nil {
			return nil, err
		}
		row, col := g.TilePosition(i)
		plans = append(plans, TilePlan{Index: i, Row: row, Column: col, Crop: crop})
	}
	return plans, nil
}
