// Package config reads the server and CLI settings from the environment.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/ironsheep/image-stats-mcp/internal/device"
)

// Environment variable names.
const (
	EnvLogLevel     = "IMAGE_STATS_LOG_LEVEL"
	EnvWorkers      = "IMAGE_STATS_WORKERS"
	EnvFFmpeg       = "IMAGE_STATS_FFMPEG"
	EnvADB          = "IMAGE_STATS_ADB"
	EnvADBSerial    = "IMAGE_STATS_ADB_SERIAL"
	EnvDeviceTmpDir = "IMAGE_STATS_DEVICE_TMPDIR"
	EnvPollInterval = "IMAGE_STATS_POLL_INTERVAL"
	EnvPollTimeout  = "IMAGE_STATS_POLL_TIMEOUT"
)

// Config holds every setting.
type Config struct {
	Debug   bool
	Workers int
	FFmpeg  string
	Device  device.Options
}

// Load reads the configuration, applying defaults for unset variables.
func Load() (*Config, error) {
	cfg := &Config{
		Workers: runtime.GOMAXPROCS(0),
		FFmpeg:  "ffmpeg",
		Device: device.Options{
			ADB:          "adb",
			TmpDir:       device.DefaultTmpDir,
			PollInterval: device.DefaultPollInterval,
			PollTimeout:  device.DefaultPollTimeout,
		},
	}

	switch level := strings.ToLower(os.Getenv(EnvLogLevel)); level {
	case "", "info":
	case "debug":
		cfg.Debug = true
	default:
		return nil, fmt.Errorf("%s: unknown log level %q (want debug or info)", EnvLogLevel, level)
	}

	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%s: want a positive integer, got %q", EnvWorkers, v)
		}
		cfg.Workers = n
	}

	if v := os.Getenv(EnvFFmpeg); v != "" {
		cfg.FFmpeg = v
	}
	if v := os.Getenv(EnvADB); v != "" {
		cfg.Device.ADB = v
	}
	cfg.Device.Serial = os.Getenv(EnvADBSerial)
	if v := os.Getenv(EnvDeviceTmpDir); v != "" {
		cfg.Device.TmpDir = v
	}

	var err error
	if cfg.Device.PollInterval, err = duration(EnvPollInterval, cfg.Device.PollInterval); err != nil {
		return nil, err
	}
	if cfg.Device.PollTimeout, err = duration(EnvPollTimeout, cfg.Device.PollTimeout); err != nil {
		return nil, err
	}
	return cfg, nil
}

func duration(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s: want a positive duration such as 250ms, got %q", name, v)
	}
	return d, nil
}
