package imaging

import (
	"errors"
	"fmt"

	"github.com/ironsheep/image-stats-mcp/internal/stats"
)

// ErrMalformedBuffer is returned when a raw buffer's length does not match
// the dimensions it was declared with.
var ErrMalformedBuffer = errors.New("imaging: malformed buffer")

// Region is one decoded analysis unit: a whole image or a single grid tile.
//
// RGBA holds interleaved R,G,B,A samples (4·Width·Height bytes). YUV holds
// full-resolution planar Y, U and V samples (3·Width·Height bytes). Either
// buffer may be nil when the decoder did not produce it; a raw dump, for
// instance, only carries RGBA.
//
// Regions are treated as immutable once decoded so they can be shared
// between goroutines and cached.
type Region struct {
	Width  int
	Height int
	RGBA   []byte
	YUV    []byte
}

// Validate checks that every present buffer matches the region dimensions.
func (r *Region) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrMalformedBuffer, r.Width, r.Height)
	}
	if r.RGBA != nil && len(r.RGBA) != 4*r.Width*r.Height {
		return fmt.Errorf("%w: RGBA buffer is %d bytes, want %d for %dx%d",
			ErrMalformedBuffer, len(r.RGBA), 4*r.Width*r.Height, r.Width, r.Height)
	}
	if r.YUV != nil && len(r.YUV) != 3*r.Width*r.Height {
		return fmt.Errorf("%w: YUV buffer is %d bytes, want %d for %dx%d",
			ErrMalformedBuffer, len(r.YUV), 3*r.Width*r.Height, r.Width, r.Height)
	}
	return nil
}

// Extract feeds every sample of the region into set.
func (r *Region) Extract(set *stats.ChannelSet) error {
	if r.RGBA != nil {
		if err := ExtractRGBA(r.RGBA, r.Width, r.Height, set); err != nil {
			return err
		}
	}
	if r.YUV != nil {
		if err := ExtractYUV(r.YUV, r.Width, r.Height, set); err != nil {
			return err
		}
	}
	return nil
}

// Crop returns the top-left width×height sub-region. The region itself is
// returned when the crop covers it entirely.
func (r *Region) Crop(width, height int) (*Region, error) {
	if width <= 0 || height <= 0 || width > r.Width || height > r.Height {
		return nil, fmt.Errorf("crop %dx%d outside region bounds %dx%d", width, height, r.Width, r.Height)
	}
	if width == r.Width && height == r.Height {
		return r, nil
	}

	out := &Region{Width: width, Height: height}
	if r.RGBA != nil {
		pix, err := CropRGBA(r.RGBA, r.Width, r.Height, width, height)
		if err != nil {
			return nil, err
		}
		out.RGBA = pix
	}
	if r.YUV != nil {
		pix, err := CropPlanar(r.YUV, 3, r.Width, r.Height, width, height)
		if err != nil {
			return nil, err
		}
		out.YUV = pix
	}
	return out, nil
}
