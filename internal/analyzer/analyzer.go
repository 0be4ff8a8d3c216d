// Package analyzer computes per-channel statistics for whole images and for
// HEIF grid images assembled from independently coded tiles.
//
// The analyzer never decodes pixels itself. A Decoder supplies the image
// layout and the decoded buffers; the analyzer plans tile crops, extracts
// samples and merges the per-tile histograms into whole-image statistics.
//
// Tiles of one image are processed concurrently, each into its own
// stats.ChannelSet that is merged into the image-wide set when complete.
// Images of a batch are independent: a failed image is reported on its own
// and does not stop the others.
package analyzer

import (
	"context"
	"fmt"
	"log"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/image-stats-mcp/internal/heif"
	"github.com/ironsheep/image-stats-mcp/internal/imaging"
	"github.com/ironsheep/image-stats-mcp/internal/stats"
)

// Image identifies one input file. Width and Height describe raw dumps,
// which carry no header; they are ignored for other formats.
type Image struct {
	Path   string `json:"path"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Layout describes how an image's pixels are stored.
type Layout struct {
	Format imaging.Format
	// Grid is set for tiled images.
	Grid *heif.Grid
	// Tiles lists the grid's tile items in stored order.
	Tiles []heif.Item
	// TileWidth and TileHeight are the native size shared by every tile,
	// when the container records it. Zero means the first decoded tile
	// sets it.
	TileWidth, TileHeight int
	// Container is the parsed HEIF structure, set for HEIF files.
	Container *heif.Container
}

// Tiled reports whether the image is a grid of tiles.
func (l *Layout) Tiled() bool {
	return l.Grid != nil
}

// Decoder produces decoded pixel buffers for the analyzer.
type Decoder interface {
	// Layout determines the format and, for grid images, the grid
	// descriptor and tile list.
	Layout(ctx context.Context, img Image) (*Layout, error)

	// Decode returns the whole image as one region.
	Decode(ctx context.Context, img Image, layout *Layout) (*imaging.Region, error)

	// DecodeTile returns one tile at its native, uncropped size.
	DecodeTile(ctx context.Context, img Image, layout *Layout, tile heif.Item) (*imaging.Region, error)
}

// Result holds the statistics of one successfully analysed image.
type Result struct {
	Path       string                                    `json:"path"`
	Format     imaging.Format                            `json:"format"`
	State      State                                     `json:"state"`
	Width      int                                       `json:"width"`
	Height     int                                       `json:"height"`
	Grid       *heif.Grid                                `json:"grid,omitempty"`
	Tiles      int                                       `json:"tiles,omitempty"`
	Statistics map[stats.Channel]stats.ChannelStatistics `json:"statistics"`
}

// Channel returns the statistics of c and whether the image has that channel.
func (r *Result) Channel(c stats.Channel) (stats.ChannelStatistics, bool) {
	st, ok := r.Statistics[c]
	return st, ok
}

// Options configures an Analyzer.
type Options struct {
	// Workers bounds both the tiles decoded concurrently within one image
	// and the images analysed concurrently by AnalyzeBatch. Zero means
	// runtime.GOMAXPROCS(0).
	Workers int

	// Logger, when set, receives progress and failure lines.
	Logger *log.Logger
}

// Analyzer runs the per-image analysis.
type Analyzer struct {
	dec     Decoder
	workers int
	logger  *log.Logger
}

// New returns an analyzer that obtains pixels from dec.
func New(dec Decoder, opts Options) *Analyzer {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Analyzer{dec: dec, workers: workers, logger: opts.Logger}
}

func (a *Analyzer) logf(format string, args ...any) {
	if a.logger != nil {
		a.logger.Printf(format, args...)
	}
}

// Analyze computes the statistics of one image. Any failure aborts the
// image and is returned as an *Error naming the failed step; no partial
// statistics are produced.
func (a *Analyzer) Analyze(ctx context.Context, img Image) (*Result, error) {
	state := StateStart
	fail := func(err error) (*Result, error) {
		a.logf("analyze %s failed in %s: %v", img.Path, state, err)
		return nil, &Error{Path: img.Path, State: state, Err: err}
	}

	state = StateDetermineFormat
	layout, err := a.dec.Layout(ctx, img)
	if err != nil {
		return fail(err)
	}
	res := &Result{Path: img.Path, Format: layout.Format}

	var set *stats.ChannelSet
	if layout.Tiled() {
		state = StateTiledGrid
		res.Grid = layout.Grid
		res.Tiles = len(layout.Tiles)
		res.Width, res.Height = int(layout.Grid.OutputWidth), int(layout.Grid.OutputHeight)
		set, err = a.analyzeTiles(ctx, img, layout)
	} else {
		state = StateSingleRegion
		set, err = a.analyzeRegion(ctx, img, layout, res)
	}
	if err != nil {
		return fail(err)
	}

	state = StateAggregate
	if len(set.Channels()) == 0 {
		return fail(fmt.Errorf("%w: no samples extracted", stats.ErrDivideByZero))
	}
	res.Statistics, err = set.Statistics()
	if err != nil {
		return fail(err)
	}

	res.State = StateCompleted
	a.logf("analyze %s: %s, %d channels", img.Path, layout.Format, len(res.Statistics))
	return res, nil
}

func (a *Analyzer) analyzeRegion(ctx context.Context, img Image, layout *Layout, res *Result) (*stats.ChannelSet, error) {
	region, err := a.dec.Decode(ctx, img, layout)
	if err != nil {
		return nil, err
	}
	if err := checkBuffers(layout.Format, region); err != nil {
		return nil, err
	}
	res.Width, res.Height = region.Width, region.Height
	return AccumulateRegion(region)
}

// analyzeTiles decodes, crops and extracts every tile concurrently. The
// first failure cancels the remaining tiles, including a tile whose native
// size differs from the others.
func (a *Analyzer) analyzeTiles(ctx context.Context, img Image, layout *Layout) (*stats.ChannelSet, error) {
	g := layout.Grid
	if err := checkTileCount(g, len(layout.Tiles)); err != nil {
		return nil, err
	}

	size := &tileSize{width: layout.TileWidth, height: layout.TileHeight}
	set := stats.NewChannelSet()
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(a.workers)
	for i, tile := range layout.Tiles {
		i, tile := i, tile
		eg.Go(func() error {
			region, err := a.dec.DecodeTile(ctx, img, layout, tile)
			if err != nil {
				return fmt.Errorf("tile %d (item %d): %w", i, tile.ID, err)
			}
			if err := checkBuffers(layout.Format, region); err != nil {
				return fmt.Errorf("tile %d (item %d): %w", i, tile.ID, err)
			}
			w, h := size.resolve(region.Width, region.Height)
			ts, err := AccumulateTile(g, i, w, h, region)
			if err != nil {
				return fmt.Errorf("tile %d (item %d): %w", i, tile.ID, err)
			}
			set.Merge(ts)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return set, nil
}

// checkBuffers requires RGBA samples for every format and YUV samples for
// every format except raw dumps.
func checkBuffers(format imaging.Format, region *imaging.Region) error {
	if region == nil {
		return fmt.Errorf("%w: decoder returned no region", imaging.ErrMalformedBuffer)
	}
	if region.RGBA == nil {
		return fmt.Errorf("%w: missing RGBA samples", imaging.ErrMalformedBuffer)
	}
	if !format.IsRaw() && region.YUV == nil {
		return fmt.Errorf("%w: missing YUV planes for %s image", imaging.ErrMalformedBuffer, format)
	}
	return nil
}
