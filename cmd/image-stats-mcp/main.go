package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/image-stats-mcp/internal/config"
	"github.com/ironsheep/image-stats-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func usage() {
	fmt.Println("image-stats-mcp - per-channel image statistics, as an MCP server or a CLI")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  image-stats-mcp                       Run the MCP server on stdin/stdout")
	fmt.Println("  image-stats-mcp analyze [flags] PATH...")
	fmt.Println("                                        Print statistics of files or directories")
	fmt.Println("  image-stats-mcp decode [flags] FILE   Decode FILE on an Android device to RGBA")
	fmt.Println("  image-stats-mcp grid FILE...          Show the grid layout of HEIF files")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Run a subcommand with -h for its flags.")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  IMAGE_STATS_LOG_LEVEL=debug        Enable debug logging")
	fmt.Println("  IMAGE_STATS_WORKERS=N              Images and tiles analysed concurrently")
	fmt.Println("  IMAGE_STATS_FFMPEG=PATH            ffmpeg binary used for HEVC tiles")
	fmt.Println("  IMAGE_STATS_ADB=PATH               adb binary used by decode")
	fmt.Println("  IMAGE_STATS_ADB_SERIAL=SERIAL      Device to use when several are attached")
	fmt.Println("  IMAGE_STATS_DEVICE_TMPDIR=DIR      Device scratch directory (default /sdcard)")
	fmt.Println("  IMAGE_STATS_POLL_INTERVAL=200ms    Device file polling interval")
	fmt.Println("  IMAGE_STATS_POLL_TIMEOUT=2m        Device file polling timeout")
}

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("image-stats-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			usage()
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol and reports)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.Debug {
		log.Printf("Image Stats MCP v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 {
		var run func(context.Context, *config.Config, []string) error
		switch os.Args[1] {
		case "analyze":
			run = runAnalyze
		case "decode":
			run = runDecode
		case "grid":
			run = runGrid
		default:
			fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
			usage()
			os.Exit(2)
		}
		if err := run(ctx, cfg, os.Args[2:]); err != nil {
			stop()
			log.Fatalf("%s: %v", os.Args[1], err)
		}
		return
	}

	server.Version = Version
	srv := server.New(cfg)
	if err := srv.Run(ctx, os.Stdin, os.Stdout); err != nil && ctx.Err() == nil {
		log.Fatalf("Server error: %v", err)
	}
}
