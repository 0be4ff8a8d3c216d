package imaging

import (
	"fmt"

	"github.com/ironsheep/image-stats-mcp/internal/stats"
)

// ExtractRGBA folds an interleaved RGBA buffer into set.
//
// Bytes 4k+0..3 are taken as R, G, B and A respectively. The buffer must be
// exactly 4·width·height bytes long; anything else fails with
// ErrMalformedBuffer and leaves set untouched.
func ExtractRGBA(buf []byte, width, height int, set *stats.ChannelSet) error {
	if width <= 0 || height <= 0 || len(buf) != 4*width*height {
		return fmt.Errorf("%w: RGBA buffer is %d bytes, want 4*%d*%d", ErrMalformedBuffer, len(buf), width, height)
	}

	r := set.Histogram(stats.R)
	g := set.Histogram(stats.G)
	b := set.Histogram(stats.B)
	a := set.Histogram(stats.A)
	for i := 0; i < len(buf); i += 4 {
		r.Add(buf[i])
		g.Add(buf[i+1])
		b.Add(buf[i+2])
		a.Add(buf[i+3])
	}
	return nil
}

// ExtractYUV folds a full-resolution planar YUV buffer into set.
//
// The first width·height bytes are Y, the next width·height are U and the
// last width·height are V. Any length other than 3·width·height fails with
// ErrMalformedBuffer and leaves set untouched.
func ExtractYUV(buf []byte, width, height int, set *stats.ChannelSet) error {
	if width <= 0 || height <= 0 || len(buf) != 3*width*height {
		return fmt.Errorf("%w: YUV buffer is %d bytes, want 3*%d*%d", ErrMalformedBuffer, len(buf), width, height)
	}

	n := width * height
	set.Histogram(stats.Y).AddBytes(buf[:n])
	set.Histogram(stats.U).AddBytes(buf[n : 2*n])
	set.Histogram(stats.V).AddBytes(buf[2*n:])
	return nil
}
