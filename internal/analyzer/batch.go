package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one image of a batch: exactly one of Result and
// Err is set.
type Outcome struct {
	Image  Image
	Result *Result
	Err    error
}

// AnalyzeBatch analyses up to the configured number of images at a time
// and returns one outcome per image in input order.
//
// Images are isolated from each other: a failure is recorded in that
// image's outcome only, and the group never cancels its siblings. When ctx
// is cancelled no further images are started; images already running
// finish, and the ones never started carry the context error.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, images []Image) []Outcome {
	out := make([]Outcome, len(images))
	var eg errgroup.Group
	eg.SetLimit(a.workers)

	for i, img := range images {
		i, img := i, img
		out[i].Image = img
		if err := ctx.Err(); err != nil {
			out[i].Err = err
			continue
		}
		eg.Go(func() error {
			res, err := a.Analyze(ctx, img)
			out[i].Result, out[i].Err = res, err
			return nil
		})
	}
	eg.Wait()
	return out
}

// batchPatterns are the file names picked up from a directory.
var batchPatterns = []string{"*.rgba", "*.rgba.zst", "*.heic", "*.heif", "*.jpg", "*.jpeg", "*.png"}

// CollectImages lists the analysable files of dir sorted by path. width and
// height are attached to raw dumps.
func CollectImages(dir string, width, height int) ([]Image, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", dir)
	}

	seen := make(map[string]bool)
	var paths []string
	for _, pattern := range batchPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	images := make([]Image, 0, len(paths))
	for _, p := range paths {
		img := Image{Path: p}
		if strings.HasSuffix(p, ".rgba") || strings.HasSuffix(p, ".rgba.zst") {
			img.Width, img.Height = width, height
		}
		images = append(images, img)
	}
	return images, nil
}
