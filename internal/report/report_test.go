package report

import (
	"bytes"
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"

	"github.com/ironsheep/image-stats-mcp/internal/analyzer"
	"github.com/ironsheep/image-stats-mcp/internal/stats"
)

func rawResult() *analyzer.Result {
	return &analyzer.Result{
		Path: "a.rgba",
		Statistics: map[stats.Channel]stats.ChannelStatistics{
			stats.R: {Mean: 255, StdDev: 0},
			stats.G: {Mean: 0, StdDev: 0.5},
			stats.B: {Mean: 0, StdDev: math.Sqrt(2.0 / 9.0)},
			stats.A: {Mean: 255, StdDev: 0},
		},
	}
}

func heicResult() *analyzer.Result {
	res := rawResult()
	res.Path = "b.heic"
	res.Statistics[stats.Y] = stats.ChannelStatistics{Mean: 81, StdDev: 1.25}
	res.Statistics[stats.U] = stats.ChannelStatistics{Mean: 90}
	res.Statistics[stats.V] = stats.ChannelStatistics{Mean: 240}
	return res
}

func TestHeader(t *testing.T) {
	want := "filename,rmean,rstddev,gmean,gstddev,bmean,bstddev,amean,astddev,ymean,ystddev,umean,ustddev,vmean,vstddev"
	if got := strings.Join(Header, ","); got != want {
		t.Errorf("header:\n got %s\nwant %s", got, want)
	}
}

func TestRow(t *testing.T) {
	tests := []struct {
		name string
		res  *analyzer.Result
		want string
	}{
		{"raw leaves YUV empty", rawResult(), "a.rgba,255,0.0,0,0.5,0,0.4714045207910317,255,0.0,,,,,,"},
		{"heic fills every channel", heicResult(), "b.heic,255,0.0,0,0.5,0,0.4714045207910317,255,0.0,81,1.25,90,0.0,240,0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := Row(tt.res)
			if len(row) != len(Header) {
				t.Errorf("row has %d fields, want %d", len(row), len(Header))
			}
			if got := strings.Join(row, ","); got != tt.want {
				t.Errorf("row:\n got %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestFormatStdDev(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.0"},
		{2, "2.0"},
		{127.5, "127.5"},
		{1.25, "1.25"},
		{0.4714045207910317, "0.4714045207910317"},
		{0.0001, "0.0001"},
		{0.000015, "1.5e-05"},
	}
	for _, tt := range tests {
		if got := FormatStdDev(tt.in); got != tt.want {
			t.Errorf("FormatStdDev(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, []*analyzer.Result{rawResult(), heicResult()}); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	if records[1][0] != "a.rgba" || records[2][0] != "b.heic" {
		t.Errorf("rows out of order: %v", records)
	}
}

func TestWriteCSV_EmptyHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != strings.Join(Header, ",") {
		t.Errorf("got %q, want header only", got)
	}
}

func TestCreateCSV(t *testing.T) {
	dir := t.TempDir()

	for _, name := range []string{"out.csv", "out.csv.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			w, err := CreateCSV(path)
			if err != nil {
				t.Fatalf("CreateCSV failed: %v", err)
			}
			if err := w.Write(heicResult()); err != nil {
				t.Fatalf("Write failed: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if strings.HasSuffix(name, ".zst") {
				dec, err := zstd.NewReader(bytes.NewReader(data))
				if err != nil {
					t.Fatal(err)
				}
				data, err = io.ReadAll(dec)
				dec.Close()
				if err != nil {
					t.Fatalf("output is not zstd: %v", err)
				}
			}
			lines := strings.Split(strings.TrimSpace(string(data)), "\n")
			if len(lines) != 2 || !strings.HasPrefix(lines[1], "b.heic,255,") {
				t.Errorf("unexpected report:\n%s", data)
			}
		})
	}
}

func TestConsole(t *testing.T) {
	var buf bytes.Buffer
	if err := Console(&buf, rawResult()); err != nil {
		t.Fatalf("Console failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "a.rgba,255,0.0,") {
		t.Errorf("first line = %q", lines[0])
	}
	if !strings.Contains(lines[1], "#ff0000") {
		t.Errorf("swatch line = %q, want #ff0000", lines[1])
	}
}

func TestMeanSwatch(t *testing.T) {
	sw, ok := MeanSwatch(rawResult())
	if !ok {
		t.Fatal("expected swatch")
	}
	// Pure sRGB red is roughly L*=53, a*=80, b*=67.
	if math.Abs(sw.L-53.2) > 1 || math.Abs(sw.A-80.1) > 1 || math.Abs(sw.B-67.2) > 1 {
		t.Errorf("Lab = (%.2f, %.2f, %.2f)", sw.L, sw.A, sw.B)
	}

	partial := &analyzer.Result{Statistics: map[stats.Channel]stats.ChannelStatistics{stats.Y: {Mean: 1}}}
	if _, ok := MeanSwatch(partial); ok {
		t.Error("swatch needs R, G and B")
	}
}
