package device

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ironsheep/image-stats-mcp/internal/toolchain"
	"github.com/ironsheep/image-stats-mcp/internal/toolchain/toolchaintest"
)

func fastOptions() Options {
	return Options{PollInterval: time.Millisecond, PollTimeout: 500 * time.Millisecond}
}

// fakeDevice answers adb commands from an in-memory table of file sizes.
type fakeDevice struct {
	mu    sync.Mutex
	sizes map[string][]string // successive stat answers per path; "" means missing
}

func (d *fakeDevice) handle(c toolchaintest.Call) toolchaintest.Response {
	args := c.Args
	if len(args) > 1 && args[0] == "-s" {
		args = args[2:]
	}
	if len(args) >= 5 && args[0] == "shell" && args[1] == "stat" {
		d.mu.Lock()
		defer d.mu.Unlock()
		p := args[4]
		answers := d.sizes[p]
		if len(answers) == 0 {
			return toolchaintest.Response{
				Stderr: []byte("stat: '" + p + "': No such file or directory\n"),
				Err:    toolchain.ErrToolFailed,
			}
		}
		next := answers[0]
		if len(answers) > 1 {
			d.sizes[p] = answers[1:]
		}
		if next == "" {
			return toolchaintest.Response{
				Stderr: []byte("stat: '" + p + "': No such file or directory\n"),
				Err:    toolchain.ErrToolFailed,
			}
		}
		return toolchaintest.Response{Stdout: []byte(next + "\n")}
	}
	return toolchaintest.Response{}
}

func TestBridge_Size(t *testing.T) {
	dev := &fakeDevice{sizes: map[string][]string{"/sdcard/a": {"1234"}}}
	b := NewBridge(fastOptions(), &toolchaintest.Runner{Handler: dev.handle}, nil)

	size, err := b.Size(context.Background(), "/sdcard/a")
	if err != nil || size != 1234 {
		t.Errorf("Size = %d, %v; want 1234", size, err)
	}
	if _, err := b.Size(context.Background(), "/sdcard/missing"); !errors.Is(err, ErrNotExist) {
		t.Errorf("missing file: got %v, want ErrNotExist", err)
	}
}

func TestBridge_SizeGarbage(t *testing.T) {
	fake := &toolchaintest.Runner{Handler: func(toolchaintest.Call) toolchaintest.Response {
		return toolchaintest.Response{Stdout: []byte("not a number")}
	}}
	b := NewBridge(fastOptions(), fake, nil)
	if _, err := b.Size(context.Background(), "/sdcard/a"); err == nil {
		t.Error("expected parse error")
	}
}

func TestBridge_WaitForSize(t *testing.T) {
	dev := &fakeDevice{sizes: map[string][]string{
		"/sdcard/out": {"", "", "0", "512", "1024"},
	}}
	b := NewBridge(fastOptions(), &toolchaintest.Runner{Handler: dev.handle}, nil)

	size, err := b.WaitForSize(context.Background(), "/sdcard/out", 1024)
	if err != nil {
		t.Fatalf("WaitForSize failed: %v", err)
	}
	if size != 1024 {
		t.Errorf("got %d, want 1024", size)
	}
}

func TestBridge_WaitForSizeTimeout(t *testing.T) {
	dev := &fakeDevice{sizes: map[string][]string{"/sdcard/out": {"100"}}}
	opts := fastOptions()
	opts.PollTimeout = 20 * time.Millisecond
	b := NewBridge(opts, &toolchaintest.Runner{Handler: dev.handle}, nil)

	size, err := b.WaitForSize(context.Background(), "/sdcard/out", 400)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	if size != 100 {
		t.Errorf("last size = %d, want 100", size)
	}
}

func TestBridge_WaitForSizeStatFailure(t *testing.T) {
	fake := &toolchaintest.Runner{Handler: func(toolchaintest.Call) toolchaintest.Response {
		return toolchaintest.Response{Stderr: []byte("error: no devices/emulators found"), Err: toolchain.ErrToolFailed}
	}}
	b := NewBridge(fastOptions(), fake, nil)

	_, err := b.WaitForSize(context.Background(), "/sdcard/out", 4)
	if !errors.Is(err, toolchain.ErrToolFailed) || errors.Is(err, ErrTimeout) {
		t.Errorf("got %v, want the adb failure", err)
	}
}

func TestBridge_StartDecoder(t *testing.T) {
	tests := []struct {
		name       string
		colorSpace string
		want       string
	}{
		{"default", "", "adb shell am start -W -e decode a -e input /sdcard/in.heic -e output /sdcard/out.rgba " + DecoderActivity},
		{"none", "None", "adb shell am start -W -e decode a -e input /sdcard/in.heic -e output /sdcard/out.rgba " + DecoderActivity},
		{"display p3", "DISPLAY_P3", "adb shell am start -W -e decode a -e input /sdcard/in.heic -e inPreferredColorSpace DISPLAY_P3 -e output /sdcard/out.rgba " + DecoderActivity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &toolchaintest.Runner{}
			b := NewBridge(fastOptions(), fake, nil)
			if err := b.StartDecoder(context.Background(), "/sdcard/in.heic", "/sdcard/out.rgba", tt.colorSpace); err != nil {
				t.Fatalf("StartDecoder failed: %v", err)
			}
			if got := fake.Calls()[0].String(); got != tt.want {
				t.Errorf("command:\n got %s\nwant %s", got, tt.want)
			}
		})
	}
}

func TestBridge_StartDecoderRejectsUnknownColorSpace(t *testing.T) {
	fake := &toolchaintest.Runner{}
	b := NewBridge(fastOptions(), fake, nil)
	if err := b.StartDecoder(context.Background(), "a", "b", "RAINBOW"); err == nil {
		t.Error("expected error for unknown color space")
	}
	if len(fake.Calls()) != 0 {
		t.Error("adb should not run for an invalid color space")
	}
}

func TestBridge_Decode(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "photo.heic")
	if err := os.WriteFile(input, make([]byte, 300), 0o644); err != nil {
		t.Fatal(err)
	}

	var mu sync.Mutex
	var remoteOut string
	dev := &fakeDevice{sizes: map[string][]string{"/data/tmp/photo.heic": {"100", "300"}}}
	fake := &toolchaintest.Runner{Handler: func(c toolchaintest.Call) toolchaintest.Response {
		if len(c.Args) > 4 && c.Args[2] == "shell" && c.Args[3] == "am" {
			for i, a := range c.Args {
				if a == "output" {
					mu.Lock()
					remoteOut = c.Args[i+1]
					mu.Unlock()
					dev.mu.Lock()
					dev.sizes[remoteOut] = []string{"", "32", "64"}
					dev.mu.Unlock()
				}
			}
		}
		return dev.handle(c)
	}}

	opts := fastOptions()
	opts.Serial = "emulator-5554"
	opts.TmpDir = "/data/tmp"
	b := NewBridge(opts, fake, nil)

	out, err := b.Decode(context.Background(), DecodeRequest{Input: input, Width: 4, Height: 4})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if out != input+".rgba" {
		t.Errorf("output = %q, want %q", out, input+".rgba")
	}

	calls := fake.Calls()
	if got := calls[0].String(); got != "adb -s emulator-5554 push "+input+" /data/tmp/photo.heic" {
		t.Errorf("first command = %q", got)
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.HasPrefix(remoteOut, "/data/tmp/photo.heic.rgba.") {
		t.Errorf("remote output = %q", remoteOut)
	}
	last := calls[len(calls)-1].String()
	if last != "adb -s emulator-5554 pull "+remoteOut+" "+out {
		t.Errorf("last command = %q", last)
	}
}

func TestBridge_DecodeInvalidSize(t *testing.T) {
	b := NewBridge(fastOptions(), &toolchaintest.Runner{}, nil)
	if _, err := b.Decode(context.Background(), DecodeRequest{Input: "x.heic"}); err == nil {
		t.Error("expected error for missing output size")
	}
}

func TestValidateColorSpace(t *testing.T) {
	for _, name := range append([]string{""}, ColorSpaces...) {
		if err := ValidateColorSpace(name); err != nil {
			t.Errorf("ValidateColorSpace(%q) = %v", name, err)
		}
	}
	if err := ValidateColorSpace("srgb"); err == nil {
		t.Error("names are case sensitive")
	}
}
