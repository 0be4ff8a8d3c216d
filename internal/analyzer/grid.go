package analyzer

import (
	"fmt"
	"sync"

	"github.com/ironsheep/image-stats-mcp/internal/heif"
	"github.com/ironsheep/image-stats-mcp/internal/imaging"
	"github.com/ironsheep/image-stats-mcp/internal/stats"
)

// AccumulateRegion extracts every sample of a whole-image region into a new
// channel set.
func AccumulateRegion(region *imaging.Region) (*stats.ChannelSet, error) {
	if err := region.Validate(); err != nil {
		return nil, err
	}
	set := stats.NewChannelSet()
	if err := region.Extract(set); err != nil {
		return nil, err
	}
	return set, nil
}

// AccumulateTile crops the tile at index to its visible part of the grid
// canvas and extracts the cropped samples into a new channel set. tile holds
// the tile at its native decoded size, which must equal the grid's common
// tile size tileWidth x tileHeight.
func AccumulateTile(g *heif.Grid, index, tileWidth, tileHeight int, tile *imaging.Region) (*stats.ChannelSet, error) {
	if err := tile.Validate(); err != nil {
		return nil, err
	}
	if tile.Width != tileWidth || tile.Height != tileHeight {
		return nil, fmt.Errorf("%w: tile %d is %dx%d, grid tiles are %dx%d",
			heif.ErrInvalidGridGeometry, index, tile.Width, tile.Height, tileWidth, tileHeight)
	}
	crop, err := heif.PlanCrop(g, index, tileWidth, tileHeight)
	if err != nil {
		return nil, err
	}
	if crop != nil {
		tile, err = tile.Crop(crop.Width, crop.Height)
		if err != nil {
			return nil, err
		}
	}
	set := stats.NewChannelSet()
	if err := tile.Extract(set); err != nil {
		return nil, err
	}
	return set, nil
}

// AnalyzeGrid folds decoded tiles, given in stored order, into one set of
// whole-image histograms. Tile 0 fixes the native size every other tile
// must share.
func AnalyzeGrid(g *heif.Grid, tiles []*imaging.Region) (*stats.ChannelSet, error) {
	if err := checkTileCount(g, len(tiles)); err != nil {
		return nil, err
	}
	if tiles[0] == nil {
		return nil, fmt.Errorf("tile 0: %w: no region", imaging.ErrMalformedBuffer)
	}
	width, height := tiles[0].Width, tiles[0].Height
	set := stats.NewChannelSet()
	for i, tile := range tiles {
		if tile == nil {
			return nil, fmt.Errorf("tile %d: %w: no region", i, imaging.ErrMalformedBuffer)
		}
		ts, err := AccumulateTile(g, i, width, height, tile)
		if err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, err)
		}
		set.Merge(ts)
	}
	return set, nil
}

// tileSize holds the native size shared by all tiles of one grid. An unset
// size is taken from the first tile that reports one.
type tileSize struct {
	mu            sync.Mutex
	width, height int
}

func (s *tileSize) resolve(width, height int) (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width <= 0 || s.height <= 0 {
		s.width, s.height = width, height
	}
	return s.width, s.height
}

func checkTileCount(g *heif.Grid, n int) error {
	if n != g.TileCount() {
		return fmt.Errorf("%w: %s references %d tiles, found %d",
			heif.ErrInvalidGridGeometry, g, g.TileCount(), n)
	}
	return nil
}
