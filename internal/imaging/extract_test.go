package imaging

import (
	"errors"
	"image"
	"math/rand"
	"testing"

	"github.com/anthonynsimon/bild/histogram"

	"github.com/ironsheep/image-stats-mcp/internal/stats"
)

// constantRGBA returns a width×height RGBA buffer with every pixel set to px.
func constantRGBA(width, height int, px [4]uint8) []byte {
	buf := make([]byte, 4*width*height)
	for i := 0; i < len(buf); i += 4 {
		copy(buf[i:i+4], px[:])
	}
	return buf
}

func TestExtractRGBA_ConstantRoundTrip(t *testing.T) {
	for _, v := range []uint8{0, 1, 128, 255} {
		buf := constantRGBA(13, 7, [4]uint8{v, v, v, v})
		set := stats.NewChannelSet()
		if err := ExtractRGBA(buf, 13, 7, set); err != nil {
			t.Fatalf("ExtractRGBA failed: %v", err)
		}

		got, err := set.Statistics()
		if err != nil {
			t.Fatalf("Statistics failed: %v", err)
		}
		for _, c := range stats.RGBAChannels {
			if got[c].Mean != int(v) || got[c].StdDev != 0 {
				t.Errorf("value %d channel %s: got mean=%d stddev=%f", v, c, got[c].Mean, got[c].StdDev)
			}
			if got[c].Samples != 13*7 {
				t.Errorf("channel %s: got %d samples, want %d", c, got[c].Samples, 13*7)
			}
		}
		if len(got) != 4 {
			t.Errorf("expected only RGBA channels, got %d", len(got))
		}
	}
}

func TestExtractRGBA_ChannelOrder(t *testing.T) {
	buf := constantRGBA(4, 4, [4]uint8{10, 20, 30, 40})
	set := stats.NewChannelSet()
	if err := ExtractRGBA(buf, 4, 4, set); err != nil {
		t.Fatalf("ExtractRGBA failed: %v", err)
	}

	want := map[stats.Channel]int{stats.R: 10, stats.G: 20, stats.B: 30, stats.A: 40}
	got, _ := set.Statistics()
	for c, m := range want {
		if got[c].Mean != m {
			t.Errorf("channel %s: got mean %d, want %d", c, got[c].Mean, m)
		}
	}
}

func TestExtractRGBA_Malformed(t *testing.T) {
	tests := []struct {
		name          string
		size          int
		width, height int
	}{
		{"not a multiple of 4", 4*10 - 1, 10, 1},
		{"too long", 4*10 + 4, 10, 1},
		{"too short", 4 * 9, 10, 1},
		{"zero width", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := stats.NewChannelSet()
			err := ExtractRGBA(make([]byte, tt.size), tt.width, tt.height, set)
			if !errors.Is(err, ErrMalformedBuffer) {
				t.Fatalf("got %v, want ErrMalformedBuffer", err)
			}
			if len(set.Channels()) != 0 {
				t.Error("failed extraction should not fold any sample")
			}
		})
	}
}

func TestExtractYUV_Planes(t *testing.T) {
	const w, h = 5, 3
	n := w * h
	buf := make([]byte, 3*n)
	for i := 0; i < n; i++ {
		buf[i] = 16
		buf[n+i] = 128
		buf[2*n+i] = 240
	}

	set := stats.NewChannelSet()
	if err := ExtractYUV(buf, w, h, set); err != nil {
		t.Fatalf("ExtractYUV failed: %v", err)
	}
	got, _ := set.Statistics()
	if got[stats.Y].Mean != 16 || got[stats.U].Mean != 128 || got[stats.V].Mean != 240 {
		t.Errorf("unexpected YUV means: %+v", got)
	}
	if _, ok := got[stats.R]; ok {
		t.Error("YUV extraction should not populate RGBA channels")
	}
}

func TestExtractYUV_Malformed(t *testing.T) {
	set := stats.NewChannelSet()
	err := ExtractYUV(make([]byte, 3*4*4+1), 4, 4, set)
	if !errors.Is(err, ErrMalformedBuffer) {
		t.Fatalf("got %v, want ErrMalformedBuffer", err)
	}
	// Subsampled 4:2:0 buffers are not accepted.
	err = ExtractYUV(make([]byte, 4*4*3/2), 4, 4, set)
	if !errors.Is(err, ErrMalformedBuffer) {
		t.Fatalf("4:2:0 buffer: got %v, want ErrMalformedBuffer", err)
	}
}

func TestExtractRGBA_MatchesBildHistogram(t *testing.T) {
	const w, h = 64, 48
	rng := rand.New(rand.NewSource(7))
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = uint8(rng.Intn(256))
		img.Pix[i+1] = uint8(rng.Intn(256))
		img.Pix[i+2] = uint8(rng.Intn(256))
		img.Pix[i+3] = 255 // opaque so premultiplication is a no-op
	}

	set := stats.NewChannelSet()
	if err := ExtractRGBA(img.Pix, w, h, set); err != nil {
		t.Fatalf("ExtractRGBA failed: %v", err)
	}

	ref := histogram.NewRGBAHistogram(img)
	refs := map[stats.Channel][]int{
		stats.R: ref.R.Bins,
		stats.G: ref.G.Bins,
		stats.B: ref.B.Bins,
		stats.A: ref.A.Bins,
	}
	for c, bins := range refs {
		h := set.Lookup(c)
		for v := 0; v < 256; v++ {
			if int(h.Bin(uint8(v))) != bins[v] {
				t.Fatalf("channel %s bin %d: got %d, want %d", c, v, h.Bin(uint8(v)), bins[v])
			}
		}
	}
}

func TestRegion_ExtractBothBuffers(t *testing.T) {
	r := &Region{
		Width:  2,
		Height: 2,
		RGBA:   constantRGBA(2, 2, [4]uint8{1, 2, 3, 4}),
		YUV:    []byte{5, 5, 5, 5, 6, 6, 6, 6, 7, 7, 7, 7},
	}
	set := stats.NewChannelSet()
	if err := r.Extract(set); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if got := len(set.Channels()); got != 7 {
		t.Errorf("expected 7 channels, got %d", got)
	}
}
