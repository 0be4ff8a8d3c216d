// Package toolchain runs the external command-line tools the analyzer
// delegates decoding to.
package toolchain

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"strings"
)

// ErrToolFailed is returned when an external tool exits unsuccessfully.
var ErrToolFailed = errors.New("toolchain: tool failed")

// Runner runs a command to completion and returns its captured output.
//
// Implementations must return stdout and stderr even when the command fails,
// since callers inspect stderr to classify failures.
type Runner interface {
	Run(ctx context.Context, name string, args []string, stdin []byte) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands as local processes.
type ExecRunner struct {
	// Logger, when set, receives one line per command.
	Logger *log.Logger
}

// Run executes name with args, feeding stdin when it is non-nil.
func (r *ExecRunner) Run(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
	if r.Logger != nil {
		r.Logger.Printf("running $ %s %s", name, strings.Join(args, " "))
	}

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), stderr.Bytes(), nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("%w: %s exited with %d: %s",
			ErrToolFailed, name, exitErr.ExitCode(), firstLine(stderr.Bytes()))
	}
	return stdout.Bytes(), stderr.Bytes(), fmt.Errorf("failed to run %s: %w", name, err)
}

func firstLine(b []byte) string {
	s := strings.TrimSpace(string(b))
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
