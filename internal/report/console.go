package report

import (
	"fmt"
	"io"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/image-stats-mcp/internal/analyzer"
	"github.com/ironsheep/image-stats-mcp/internal/stats"
)

// Swatch is the colour formed by an image's mean R, G and B values.
type Swatch struct {
	Hex string  `json:"hex"`
	L   float64 `json:"l"`
	A   float64 `json:"a"`
	B   float64 `json:"b"`
}

// MeanSwatch returns the swatch of res, or false when the image lacks any
// of the R, G and B channels.
func MeanSwatch(res *analyzer.Result) (Swatch, bool) {
	r, okR := res.Channel(stats.R)
	g, okG := res.Channel(stats.G)
	b, okB := res.Channel(stats.B)
	if !okR || !okG || !okB {
		return Swatch{}, false
	}
	c := colorful.Color{
		R: float64(r.Mean) / 255,
		G: float64(g.Mean) / 255,
		B: float64(b.Mean) / 255,
	}
	l, la, lb := c.Lab()
	return Swatch{Hex: c.Hex(), L: l * 100, A: la * 100, B: lb * 100}, true
}

// Console prints the CSV row of res followed by its mean colour swatch.
func Console(w io.Writer, res *analyzer.Result) error {
	if _, err := fmt.Fprintln(w, strings.Join(Row(res), ",")); err != nil {
		return err
	}
	sw, ok := MeanSwatch(res)
	if !ok {
		return nil
	}
	_, err := fmt.Fprintf(w, "  mean colour %s  L*a*b* (%.1f, %.1f, %.1f)\n", sw.Hex, sw.L, sw.A, sw.B)
	return err
}
