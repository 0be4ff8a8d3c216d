// Package device drives the on-device decoder application over adb.
//
// A decode pushes the input file, waits until the device reports the full
// size, starts the decoder activity, waits for the raw RGBA output to reach
// 4*width*height bytes and pulls it back.
package device

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/image-stats-mcp/internal/toolchain"
)

var (
	// ErrTimeout is returned when a polled file does not reach its expected
	// size in time.
	ErrTimeout = errors.New("device: timed out waiting for file")

	// ErrNotExist is returned when a device path does not exist.
	ErrNotExist = errors.New("device: no such file")
)

// DecoderActivity is the component started to run a decode.
const DecoderActivity = "com.facebook.imgapp/.MainActivity"

// Defaults used when Options leaves a field zero.
const (
	DefaultTmpDir       = "/sdcard"
	DefaultPollInterval = 200 * time.Millisecond
	DefaultPollTimeout  = 2 * time.Minute
)

// Options configures a Bridge.
type Options struct {
	ADB          string // adb binary, default "adb"
	Serial       string // device serial passed with -s, optional
	TmpDir       string
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// Bridge talks to one device through adb.
type Bridge struct {
	opts   Options
	runner toolchain.Runner
	logger *log.Logger
}

// NewBridge returns a bridge. A nil runner selects a toolchain.ExecRunner and
// a nil logger disables progress logging.
func NewBridge(opts Options, runner toolchain.Runner, logger *log.Logger) *Bridge {
	if opts.ADB == "" {
		opts.ADB = "adb"
	}
	if opts.TmpDir == "" {
		opts.TmpDir = DefaultTmpDir
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = DefaultPollTimeout
	}
	if runner == nil {
		runner = &toolchain.ExecRunner{Logger: logger}
	}
	return &Bridge{opts: opts, runner: runner, logger: logger}
}

func (b *Bridge) logf(format string, args ...any) {
	if b.logger != nil {
		b.logger.Printf(format, args...)
	}
}

func (b *Bridge) adb(ctx context.Context, args ...string) ([]byte, []byte, error) {
	if b.opts.Serial != "" {
		args = append([]string{"-s", b.opts.Serial}, args...)
	}
	return b.runner.Run(ctx, b.opts.ADB, args, nil)
}

// Push copies a local file to the device.
func (b *Bridge) Push(ctx context.Context, local, remote string) error {
	if _, _, err := b.adb(ctx, "push", local, remote); err != nil {
		return fmt.Errorf("adb push %s: %w", local, err)
	}
	return nil
}

// Pull copies a device file to the local filesystem.
func (b *Bridge) Pull(ctx context.Context, remote, local string) error {
	if _, _, err := b.adb(ctx, "pull", remote, local); err != nil {
		return fmt.Errorf("adb pull %s: %w", remote, err)
	}
	return nil
}

// Size returns the byte size of a device file. A missing file yields
// ErrNotExist.
func (b *Bridge) Size(ctx context.Context, remote string) (int64, error) {
	stdout, stderr, err := b.adb(ctx, "shell", "stat", "-c", "%s", remote)
	if err != nil {
		if bytes.Contains(stderr, []byte("No such file")) || bytes.Contains(stdout, []byte("No such file")) {
			return 0, fmt.Errorf("%w: %s", ErrNotExist, remote)
		}
		return 0, fmt.Errorf("adb stat %s: %w", remote, err)
	}
	size, err := strconv.ParseInt(strings.TrimSpace(string(stdout)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("adb stat %s: unexpected output %q", remote, stdout)
	}
	return size, nil
}

// WaitForSize polls a device file until its size equals expected and returns
// that size. A file that does not exist yet is polled again. When the poll
// timeout or ctx expires first, the last observed size is returned with
// ErrTimeout.
func (b *Bridge) WaitForSize(ctx context.Context, remote string, expected int64) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, b.opts.PollTimeout)
	defer cancel()

	ticker := time.NewTicker(b.opts.PollInterval)
	defer ticker.Stop()

	var last int64
	for {
		size, err := b.Size(ctx, remote)
		switch {
		case err == nil:
			last = size
			b.logf("%s -> %d", remote, size)
			if size == expected {
				return size, nil
			}
		case errors.Is(err, ErrNotExist):
		case ctx.Err() != nil:
		default:
			return last, err
		}

		select {
		case <-ctx.Done():
			return last, fmt.Errorf("%w: %s at %d of %d bytes", ErrTimeout, remote, last, expected)
		case <-ticker.C:
		}
	}
}

// StartDecoder launches the decoder activity on a pushed input file. An empty
// colorSpace or "None" leaves the decoder's default colour space.
func (b *Bridge) StartDecoder(ctx context.Context, input, output, colorSpace string) error {
	if err := ValidateColorSpace(colorSpace); err != nil {
		return err
	}
	args := []string{"shell", "am", "start", "-W", "-e", "decode", "a", "-e", "input", input}
	if colorSpace != "" && colorSpace != "None" {
		args = append(args, "-e", "inPreferredColorSpace", colorSpace)
	}
	args = append(args, "-e", "output", output, DecoderActivity)
	if _, _, err := b.adb(ctx, args...); err != nil {
		return fmt.Errorf("start decoder: %w", err)
	}
	return nil
}

// DecodeRequest describes one device-side decode.
type DecodeRequest struct {
	Input      string // local input file
	Output     string // local RGBA output, default Input + ".rgba"
	ColorSpace string
	Width      int // decoded width, used to compute the expected output size
	Height     int
}

// Decode runs the full push, decode, pull sequence and returns the local
// output path.
func (b *Bridge) Decode(ctx context.Context, req DecodeRequest) (string, error) {
	if req.Width <= 0 || req.Height <= 0 {
		return "", fmt.Errorf("decode %s: invalid output size %dx%d", req.Input, req.Width, req.Height)
	}
	if err := ValidateColorSpace(req.ColorSpace); err != nil {
		return "", err
	}
	info, err := os.Stat(req.Input)
	if err != nil {
		return "", fmt.Errorf("failed to stat input: %w", err)
	}
	output := req.Output
	if output == "" {
		output = req.Input + ".rgba"
	}

	remoteIn := path.Join(b.opts.TmpDir, filepath.Base(req.Input))
	if err := b.Push(ctx, req.Input, remoteIn); err != nil {
		return "", err
	}
	if _, err := b.WaitForSize(ctx, remoteIn, info.Size()); err != nil {
		return "", fmt.Errorf("waiting for pushed input: %w", err)
	}

	remoteOut := path.Join(b.opts.TmpDir, fmt.Sprintf("%s.%08x", filepath.Base(output), rand.Uint32()))
	if err := b.StartDecoder(ctx, remoteIn, remoteOut, req.ColorSpace); err != nil {
		return "", err
	}
	expected := 4 * int64(req.Width) * int64(req.Height)
	if _, err := b.WaitForSize(ctx, remoteOut, expected); err != nil {
		return "", fmt.Errorf("waiting for decoder output: %w", err)
	}

	if err := b.Pull(ctx, remoteOut, output); err != nil {
		return "", err
	}
	return output, nil
}
