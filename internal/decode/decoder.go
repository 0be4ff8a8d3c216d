// Package decode obtains raw pixel buffers for the analyzer.
//
// Raw RGBA dumps are read directly. PNG, JPEG, GIF, BMP, TIFF and WebP are
// decoded in-process with Go's image decoders. HEIF images are decoded by
// libheif when the binary is built with the "libheif" tag, and otherwise by
// handing each coded item to ffmpeg as an HEVC elementary stream. Grid tiles
// always go through ffmpeg so each tile can be decoded at its native size.
package decode

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ironsheep/image-stats-mcp/internal/analyzer"
	"github.com/ironsheep/image-stats-mcp/internal/heif"
	"github.com/ironsheep/image-stats-mcp/internal/imaging"
	"github.com/ironsheep/image-stats-mcp/internal/toolchain"
)

// Decoder implements analyzer.Decoder.
type Decoder struct {
	ffmpeg *toolchain.FFmpeg
	cache  *imaging.RegionCache
	logger *log.Logger
}

// Options configures a Decoder.
type Options struct {
	// FFmpeg decodes HEVC items. Nil selects ffmpeg on PATH.
	FFmpeg *toolchain.FFmpeg
	// Cache, when set, keeps decoded whole images keyed by path and size.
	Cache  *imaging.RegionCache
	Logger *log.Logger
}

// New returns a decoder.
func New(opts Options) *Decoder {
	ff := opts.FFmpeg
	if ff == nil {
		ff = toolchain.NewFFmpeg("", &toolchain.ExecRunner{Logger: opts.Logger})
	}
	return &Decoder{ffmpeg: ff, cache: opts.Cache, logger: opts.Logger}
}

var _ analyzer.Decoder = (*Decoder)(nil)

// Layout detects the file format and, for HEIF files, parses the container.
func (d *Decoder) Layout(ctx context.Context, img analyzer.Image) (*analyzer.Layout, error) {
	format, err := imaging.DetectFormat(img.Path)
	if err != nil {
		return nil, err
	}
	layout := &analyzer.Layout{Format: format}
	if format != imaging.FormatHEIC {
		return layout, nil
	}

	c, err := heif.Open(img.Path)
	if err != nil {
		return nil, err
	}
	layout.Container = c
	if !c.IsGrid() {
		return layout, nil
	}

	if layout.Grid, err = c.Grid(); err != nil {
		return nil, err
	}
	if layout.Tiles, err = c.TileItems(); err != nil {
		return nil, err
	}
	if len(layout.Tiles) > 0 {
		// Without an ispe the first decoded tile sets the size.
		w, h, err := c.ItemSize(layout.Tiles[0].ID)
		switch {
		case err == nil:
			layout.TileWidth, layout.TileHeight = w, h
		case !errors.Is(err, heif.ErrItemNotFound):
			return nil, err
		}
	}
	return layout, nil
}

// Decode returns the whole image.
func (d *Decoder) Decode(ctx context.Context, img analyzer.Image, layout *analyzer.Layout) (*imaging.Region, error) {
	load := func() (*imaging.Region, error) {
		switch {
		case layout.Format.IsRaw():
			return imaging.LoadRaw(img.Path, img.Width, img.Height)
		case layout.Format == imaging.FormatHEIC:
			return d.decodeHEIF(ctx, img.Path, layout.Container)
		default:
			return imaging.LoadImage(img.Path)
		}
	}
	if d.cache == nil {
		return load()
	}
	return d.cache.Load(fmt.Sprintf("%s@%dx%d", img.Path, img.Width, img.Height), load)
}

func (d *Decoder) decodeHEIF(ctx context.Context, path string, c *heif.Container) (*imaging.Region, error) {
	if libheifEnabled {
		return imaging.LoadImage(path)
	}
	if c == nil {
		var err error
		if c, err = heif.Open(path); err != nil {
			return nil, err
		}
	}
	primary, err := c.PrimaryItem()
	if err != nil {
		return nil, err
	}
	return d.decodeItem(ctx, c, primary)
}

// DecodeTile decodes one grid tile at its native size.
func (d *Decoder) DecodeTile(ctx context.Context, img analyzer.Image, layout *analyzer.Layout, tile heif.Item) (*imaging.Region, error) {
	if layout.Container == nil {
		return nil, fmt.Errorf("%s: tile %d requested without a HEIF container", img.Path, tile.ID)
	}
	return d.decodeItem(ctx, layout.Container, tile)
}

// decodeItem decodes an HEVC item to RGBA and planar YUV 4:4:4 at the size
// recorded in its ispe property.
func (d *Decoder) decodeItem(ctx context.Context, c *heif.Container, item heif.Item) (*imaging.Region, error) {
	if item.Type != heif.ItemTypeHEVC {
		return nil, fmt.Errorf("%w: item %d has type %q", imaging.ErrUnsupportedFormat, item.ID, item.Type)
	}
	width, height, err := c.ItemSize(item.ID)
	if err != nil {
		return nil, err
	}
	stream, err := c.AnnexB(item.ID)
	if err != nil {
		return nil, err
	}

	rgba, err := d.ffmpeg.DecodeHEVC(ctx, stream, toolchain.PixFmtRGBA)
	if err != nil {
		return nil, fmt.Errorf("item %d: %w", item.ID, err)
	}
	yuv, err := d.ffmpeg.DecodeHEVC(ctx, stream, toolchain.PixFmtYUV444P)
	if err != nil {
		return nil, fmt.Errorf("item %d: %w", item.ID, err)
	}

	if d.logger != nil {
		d.logger.Printf("decoded item %d: %dx%d, %d RGBA bytes", item.ID, width, height, len(rgba))
	}
	region := &imaging.Region{Width: width, Height: height, RGBA: rgba, YUV: yuv}
	if err := region.Validate(); err != nil {
		return nil, fmt.Errorf("item %d: %w", item.ID, err)
	}
	return region, nil
}
