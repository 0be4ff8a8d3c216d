package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/ironsheep/image-stats-mcp/internal/device"
)

func clearEnv(t *testing.T) {
	for _, name := range []string{
		EnvLogLevel, EnvWorkers, EnvFFmpeg, EnvADB, EnvADBSerial,
		EnvDeviceTmpDir, EnvPollInterval, EnvPollTimeout,
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Debug {
		t.Error("debug should be off by default")
	}
	if cfg.Workers != runtime.GOMAXPROCS(0) {
		t.Errorf("Workers = %d, want GOMAXPROCS", cfg.Workers)
	}
	if cfg.FFmpeg != "ffmpeg" || cfg.Device.ADB != "adb" {
		t.Errorf("binaries = %q, %q", cfg.FFmpeg, cfg.Device.ADB)
	}
	if cfg.Device.TmpDir != device.DefaultTmpDir {
		t.Errorf("TmpDir = %q", cfg.Device.TmpDir)
	}
	if cfg.Device.PollInterval != 200*time.Millisecond || cfg.Device.PollTimeout != 2*time.Minute {
		t.Errorf("poll = %v / %v", cfg.Device.PollInterval, cfg.Device.PollTimeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvLogLevel, "DEBUG")
	t.Setenv(EnvWorkers, "3")
	t.Setenv(EnvFFmpeg, "/usr/local/bin/ffmpeg")
	t.Setenv(EnvADB, "/opt/platform-tools/adb")
	t.Setenv(EnvADBSerial, "emulator-5554")
	t.Setenv(EnvDeviceTmpDir, "/data/local/tmp")
	t.Setenv(EnvPollInterval, "50ms")
	t.Setenv(EnvPollTimeout, "30s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := Config{
		Debug:   true,
		Workers: 3,
		FFmpeg:  "/usr/local/bin/ffmpeg",
		Device: device.Options{
			ADB:          "/opt/platform-tools/adb",
			Serial:       "emulator-5554",
			TmpDir:       "/data/local/tmp",
			PollInterval: 50 * time.Millisecond,
			PollTimeout:  30 * time.Second,
		},
	}
	if *cfg != want {
		t.Errorf("got %+v\nwant %+v", *cfg, want)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name, env, value string
	}{
		{"log level", EnvLogLevel, "verbose"},
		{"workers zero", EnvWorkers, "0"},
		{"workers text", EnvWorkers, "many"},
		{"interval", EnvPollInterval, "fast"},
		{"negative timeout", EnvPollTimeout, "-5s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.env, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("%s=%q should fail", tt.env, tt.value)
			}
		})
	}
}
