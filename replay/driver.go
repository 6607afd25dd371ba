package replay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
)

// DriverResult is the terminal state of a driver process.
type DriverResult struct {
	// ExitCode is the process exit code.
	ExitCode int
	// Stderr is the captured diagnostic output.
	Stderr []byte
}

// Driver is one driver under replay: something that can be started,
// fed commands, read for replies, and reaped. Tests implement it
// in-process; production replays use ExecDriver.
type Driver interface {
	Start(ctx context.Context) error
	Stdin() io.WriteCloser
	Stdout() io.Reader
	Wait() (*DriverResult, error)
	Kill() error
}

// DriverFactory builds the driver a replay runs against.
type DriverFactory func() Driver

// ExecDriver runs a driver binary as a subprocess. Stdin carries
// commands, stdout carries replies, stderr is captured for
// diagnostics.
type ExecDriver struct {
	// Path is the driver binary.
	Path string
	// Args are passed through to the binary.
	Args []string
	// Env entries are appended to the inherited environment;
	// duplicates resolve to the appended value.
	Env []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser
}

var _ Driver = (*ExecDriver)(nil)

// ExecFactory returns a factory producing subprocess drivers.
func ExecFactory(path string, args, env []string) DriverFactory {
	return func() Driver {
		return &ExecDriver{Path: path, Args: args, Env: env}
	}
}

// Start launches the driver process with its pipes attached. The
// context bounds the process lifetime: cancellation kills it, which
// also unblocks any pending pipe reads.
func (d *ExecDriver) Start(ctx context.Context) error {
	d.cmd = exec.CommandContext(ctx, d.Path, d.Args...)
	if len(d.Env) > 0 {
		d.cmd.Env = deduplicateEnv(append(os.Environ(), d.Env...))
	}

	stdin, err := d.cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	d.stdin = stdin

	stdout, err := d.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	d.stdout = stdout

	stderr, err := d.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}
	d.stderr = stderr

	if err := d.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start driver: %w", err)
	}
	return nil
}

// Stdin returns the command writer.
func (d *ExecDriver) Stdin() io.WriteCloser { return d.stdin }

// Stdout returns the reply reader.
func (d *ExecDriver) Stdout() io.Reader { return d.stdout }

// Wait drains stderr, waits for the process to exit, and reports its
// exit code. Must be called after Start.
func (d *ExecDriver) Wait() (*DriverResult, error) {
	if d.cmd == nil {
		return nil, errors.New("driver not started")
	}

	stderrBytes, _ := io.ReadAll(d.stderr)

	err := d.cmd.Wait()
	result := &DriverResult{Stderr: stderrBytes}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
				result.ExitCode = status.ExitStatus()
			} else {
				result.ExitCode = -1
			}
		} else {
			return nil, fmt.Errorf("driver wait failed: %w", err)
		}
	}
	return result, nil
}

// Kill terminates the driver process.
func (d *ExecDriver) Kill() error {
	if d.cmd != nil && d.cmd.Process != nil {
		return d.cmd.Process.Kill()
	}
	return nil
}

// deduplicateEnv keeps the last occurrence of each env var key, so
// appended overrides win over inherited duplicates.
func deduplicateEnv(env []string) []string {
	seen := make(map[string]int, len(env))
	for i, entry := range env {
		key, _, _ := strings.Cut(entry, "=")
		seen[key] = i
	}
	result := make([]string, 0, len(seen))
	for i, entry := range env {
		key, _, _ := strings.Cut(entry, "=")
		if seen[key] == i {
			result = append(result, entry)
		}
	}
	return result
}
