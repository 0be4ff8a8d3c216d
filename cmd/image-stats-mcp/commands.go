package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ironsheep/image-stats-mcp/internal/analyzer"
	"github.com/ironsheep/image-stats-mcp/internal/config"
	"github.com/ironsheep/image-stats-mcp/internal/decode"
	"github.com/ironsheep/image-stats-mcp/internal/device"
	"github.com/ironsheep/image-stats-mcp/internal/heif"
	"github.com/ironsheep/image-stats-mcp/internal/report"
	"github.com/ironsheep/image-stats-mcp/internal/server"
	"github.com/ironsheep/image-stats-mcp/internal/toolchain"
)

// parseSize parses "WIDTHxHEIGHT". An empty string is 0x0.
func parseSize(s string) (width, height int, err error) {
	if s == "" {
		return 0, 0, nil
	}
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, want WIDTHxHEIGHT", s)
	}
	width, werr := strconv.Atoi(ws)
	height, herr := strconv.Atoi(hs)
	if werr != nil || herr != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q, want WIDTHxHEIGHT", s)
	}
	return width, height, nil
}

func debugLogger(cfg *config.Config) *log.Logger {
	if cfg.Debug {
		return log.Default()
	}
	return nil
}

func newAnalyzer(cfg *config.Config) *analyzer.Analyzer {
	logger := debugLogger(cfg)
	ff := toolchain.NewFFmpeg(cfg.FFmpeg, &toolchain.ExecRunner{Logger: logger})
	return analyzer.New(
		decode.New(decode.Options{FFmpeg: ff, Logger: logger}),
		analyzer.Options{Workers: cfg.Workers, Logger: logger},
	)
}

// collect expands directory arguments and attaches the raw size to files.
func collect(paths []string, width, height int) ([]analyzer.Image, error) {
	var images []analyzer.Image
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			images = append(images, analyzer.Image{Path: p, Width: width, Height: height})
			continue
		}
		found, err := analyzer.CollectImages(p, width, height)
		if err != nil {
			return nil, err
		}
		images = append(images, found...)
	}
	return images, nil
}

func runAnalyze(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	size := fs.String("size", "", "size of raw .rgba dumps, as WIDTHxHEIGHT")
	output := fs.String("o", "", "write a CSV report to this file (.zst for compressed)")
	quiet := fs.Bool("q", false, "do not print results to stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("no files or directories given")
	}
	width, height, err := parseSize(*size)
	if err != nil {
		return err
	}

	images, err := collect(fs.Args(), width, height)
	if err != nil {
		return err
	}
	outcomes := newAnalyzer(cfg).AnalyzeBatch(ctx, images)

	var console io.Writer = os.Stdout
	if *quiet {
		console = io.Discard
	}
	return writeOutcomes(outcomes, console, *output)
}

// writeOutcomes prints successful results, writes the optional CSV report
// and logs each failure. It returns an error when any image failed.
func writeOutcomes(outcomes []analyzer.Outcome, console io.Writer, output string) error {
	var csvw *report.CSVWriter
	if output != "" {
		var err error
		if csvw, err = report.CreateCSV(output); err != nil {
			return err
		}
	}

	failed := 0
	var werr error
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			log.Printf("skipping %s: %v", o.Image.Path, o.Err)
			continue
		}
		if err := report.Console(console, o.Result); err != nil && werr == nil {
			werr = err
		}
		if csvw != nil {
			if err := csvw.Write(o.Result); err != nil && werr == nil {
				werr = err
			}
		}
	}
	if csvw != nil {
		if err := csvw.Close(); err != nil && werr == nil {
			werr = err
		}
	}
	if werr != nil {
		return werr
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(outcomes))
	}
	return nil
}

func runDecode(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	size := fs.String("size", "", "decoded size as WIDTHxHEIGHT (default: read from the HEIF container)")
	output := fs.String("o", "", "local RGBA output (default: FILE.rgba)")
	colorSpace := fs.String("inPreferredColorSpace", "", "decoder colour space, one of "+strings.Join(device.ColorSpaces, ", "))
	tmpDir := fs.String("tmpdir", cfg.Device.TmpDir, "device scratch directory")
	serial := fs.String("serial", cfg.Device.Serial, "adb device serial")
	analyze := fs.Bool("analyze", false, "print the statistics of the decoded output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("decode takes exactly one input file")
	}
	input := fs.Arg(0)

	width, height, err := parseSize(*size)
	if err != nil {
		return err
	}
	if width == 0 {
		c, err := heif.Open(input)
		if err != nil {
			return fmt.Errorf("no -size given and %s has no readable HEIF size: %w", input, err)
		}
		if width, height, err = c.PrimarySize(); err != nil {
			return err
		}
	}

	opts := cfg.Device
	opts.TmpDir = *tmpDir
	opts.Serial = *serial
	logger := debugLogger(cfg)
	bridge := device.NewBridge(opts, &toolchain.ExecRunner{Logger: logger}, logger)

	out, err := bridge.Decode(ctx, device.DecodeRequest{
		Input:      input,
		Output:     *output,
		ColorSpace: *colorSpace,
		Width:      width,
		Height:     height,
	})
	if err != nil {
		return err
	}
	log.Printf("decoded %s to %s (%dx%d)", input, out, width, height)
	if !*analyze {
		return nil
	}

	res, err := newAnalyzer(cfg).Analyze(ctx, analyzer.Image{Path: out, Width: width, Height: height})
	if err != nil {
		return err
	}
	return report.Console(os.Stdout, res)
}

func runGrid(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) == 0 {
		return errors.New("no files given")
	}
	for _, path := range args {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := heif.Open(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		info, err := server.DescribeContainer(path, c)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		printGrid(os.Stdout, info)
	}
	return nil
}

func printGrid(w io.Writer, info *server.GridInfoResult) {
	fmt.Fprintf(w, "%s: brand %s, %dx%d\n", info.Path, info.Brand, info.Width, info.Height)
	if info.Grid == nil {
		fmt.Fprintln(w, "  single image")
		return
	}
	fmt.Fprintf(w, "  %s\n", info.Grid)
	for _, t := range info.Tiles {
		crop := "full"
		if t.Crop != nil {
			crop = fmt.Sprintf("crop %dx%d", t.Crop.Width, t.Crop.Height)
		}
		fmt.Fprintf(w, "  tile %d (item %d) row %d col %d: %dx%d, %s\n",
			t.Index, t.ItemID, t.Row, t.Column, t.Width, t.Height, crop)
	}
}
