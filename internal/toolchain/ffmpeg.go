package toolchain

import (
	"context"
	"fmt"
)

// Pixel formats requested from ffmpeg.
const (
	PixFmtRGBA    = "rgba"
	PixFmtYUV444P = "yuv444p"
)

// FFmpeg decodes HEVC tiles to raw pixel buffers at their native size.
type FFmpeg struct {
	Binary string
	Runner Runner
}

// NewFFmpeg returns an FFmpeg wrapper. An empty binary selects "ffmpeg" on
// PATH and a nil runner selects an ExecRunner.
func NewFFmpeg(binary string, runner Runner) *FFmpeg {
	if binary == "" {
		binary = "ffmpeg"
	}
	if runner == nil {
		runner = &ExecRunner{}
	}
	return &FFmpeg{Binary: binary, Runner: runner}
}

// DecodeHEVC decodes an HEVC Annex-B elementary stream holding one picture.
func (f *FFmpeg) DecodeHEVC(ctx context.Context, stream []byte, pixFmt string) ([]byte, error) {
	args := []string{"-v", "error", "-f", "hevc", "-i", "pipe:0"}
	args = append(args, "-frames:v", "1", "-f", "rawvideo", "-pix_fmt", pixFmt, "pipe:1")
	return f.decode(ctx, args, stream)
}

func (f *FFmpeg) decode(ctx context.Context, args []string, stdin []byte) ([]byte, error) {
	stdout, _, err := f.Runner.Run(ctx, f.Binary, args, stdin)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg decode: %w", err)
	}
	if len(stdout) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no output", ErrToolFailed)
	}
	return stdout, nil
}
