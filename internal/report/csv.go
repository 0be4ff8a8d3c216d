// Package report formats analysis results as CSV and console text.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/ironsheep/image-stats-mcp/internal/analyzer"
	"github.com/ironsheep/image-stats-mcp/internal/stats"
)

// Header is the CSV header row. A channel absent from an image is written
// as two empty fields.
var Header = []string{
	"filename",
	"rmean", "rstddev",
	"gmean", "gstddev",
	"bmean", "bstddev",
	"amean", "astddev",
	"ymean", "ystddev",
	"umean", "ustddev",
	"vmean", "vstddev",
}

// Row returns the CSV fields of one result.
func Row(res *analyzer.Result) []string {
	row := make([]string, 0, len(Header))
	row = append(row, res.Path)
	for _, c := range stats.AllChannels {
		st, ok := res.Channel(c)
		if !ok {
			row = append(row, "", "")
			continue
		}
		row = append(row, strconv.Itoa(st.Mean), FormatStdDev(st.StdDev))
	}
	return row
}

// FormatStdDev formats a standard deviation with the shortest exact
// representation, always as a float: 0 is written "0.0" and 2 is "2.0".
// Magnitudes below 1e-4 switch to exponent form, as in "1.5e-05".
func FormatStdDev(v float64) string {
	if v != 0 && math.Abs(v) < 1e-4 {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// CSVWriter writes a header followed by one row per result.
type CSVWriter struct {
	cw      *csv.Writer
	closers []io.Closer
	header  bool
}

// NewCSVWriter writes CSV to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{cw: csv.NewWriter(w)}
}

// CreateCSV creates the file at path. Paths ending in ".zst" are written
// zstd-compressed.
func CreateCSV(path string) (*CSVWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report: %w", err)
	}
	if !strings.HasSuffix(path, ".zst") {
		w := NewCSVWriter(f)
		w.closers = []io.Closer{f}
		return w, nil
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create zstd writer: %w", err)
	}
	w := NewCSVWriter(enc)
	w.closers = []io.Closer{enc, f}
	return w, nil
}

// Write appends the row of res, writing the header first if needed.
func (w *CSVWriter) Write(res *analyzer.Result) error {
	if err := w.writeHeader(); err != nil {
		return err
	}
	return w.cw.Write(Row(res))
}

func (w *CSVWriter) writeHeader() error {
	if w.header {
		return nil
	}
	w.header = true
	return w.cw.Write(Header)
}

// Flush writes buffered rows to the underlying writer.
func (w *CSVWriter) Flush() error {
	w.cw.Flush()
	return w.cw.Error()
}

// Close flushes the rows, writing a header even for an empty report, and
// closes any file the writer opened.
func (w *CSVWriter) Close() error {
	err := w.writeHeader()
	if ferr := w.Flush(); err == nil {
		err = ferr
	}
	for _, c := range w.closers {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// WriteCSV writes a complete report of results to out.
func WriteCSV(out io.Writer, results []*analyzer.Result) error {
	w := NewCSVWriter(out)
	for _, res := range results {
		if err := w.Write(res); err != nil {
			return err
		}
	}
	return w.Close()
}
