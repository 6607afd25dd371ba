// Package main provides the drover-replay entrypoint: it re-runs a
// recorded execution script against a live driver binary and verifies
// every reply byte-for-byte.
//
// Usage:
//
//	drover-replay --script <path> --driver <binary> [-- driver args...]
//
// Exit codes:
//   - 0: verified (every reply matched, driver exited 0)
//   - 1: diverged (a reply differed, or the driver exited nonzero)
//   - 2: replay failure (bad script, spawn failure, stream ended early)
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tapeout-io/drover/iox"
	"github.com/tapeout-io/drover/log"
	"github.com/tapeout-io/drover/replay"
	"github.com/tapeout-io/drover/types"
)

const (
	exitVerified    = 0
	exitDiverged    = 1
	exitReplayError = 2
)

func main() {
	app := &cli.App{
		Name:           "drover-replay",
		Usage:          "Replay a recorded execution script against a driver binary",
		Version:        types.Version,
		ExitErrHandler: exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "script",
				Usage:    "Path to the execution script",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "driver",
				Usage:    "Path to the driver binary to verify",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "design",
				Usage: "Design manifest forwarded to the driver as --design",
			},
			&cli.StringSliceFlag{
				Name:  "env",
				Usage: "Extra KEY=VALUE environment for the driver (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Suppress result output",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Diagnostic level: debug, info, warn, error",
				Value: "info",
			},
		},
		Action: replayAction,
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(exitReplayError)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() so callers can
// distinguish a verified replay from a diverged one.
func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		code := exitCoder.ExitCode()
		msg := exitCoder.Error()

		// cli.Exit("", N).Error() returns "exit status N", so skip those.
		if msg != "" && msg != fmt.Sprintf("exit status %d", code) {
			fmt.Fprintln(os.Stderr, msg)
		}
		os.Exit(code)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitReplayError)
}

func replayAction(c *cli.Context) error {
	logger, err := log.NewLogger("drover-replay", c.String("log-level"))
	if err != nil {
		return cli.Exit(err.Error(), exitReplayError)
	}

	scriptPath := c.String("script")
	s, err := loadScript(scriptPath)
	if err != nil {
		return cli.Exit(err.Error(), exitReplayError)
	}
	if len(s.Events) == 0 {
		return cli.Exit(fmt.Sprintf("execution script %s has no events", scriptPath), exitReplayError)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	args := c.Args().Slice()
	if design := c.String("design"); design != "" {
		args = append([]string{"--design", design}, args...)
	}
	factory := replay.ExecFactory(c.String("driver"), args, c.StringSlice("env"))

	start := time.Now()
	res, err := replay.New(s, factory, logger).Execute(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("replay failed: %v", err), exitReplayError)
	}
	duration := time.Since(start)

	if !c.Bool("quiet") {
		printResult(scriptPath, res, duration)
	}

	if res.Verified() {
		return cli.Exit("", exitVerified)
	}
	return cli.Exit("", exitDiverged)
}

// loadScript opens and parses the execution script.
func loadScript(path string) (*replay.Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open execution script: %w", err)
	}
	defer iox.DiscardClose(f)

	s, err := replay.ParseScript(f)
	if err != nil {
		return nil, fmt.Errorf("parse execution script %s: %w", path, err)
	}
	return s, nil
}

// verdict classifies a replay result for the report line.
func verdict(res *replay.Result) string {
	switch {
	case res.Mismatch != nil:
		return "diverged"
	case res.ExitCode != 0:
		return "driver-failed"
	default:
		return "verified"
	}
}

// printResult prints the replay outcome.
func printResult(scriptPath string, res *replay.Result, duration time.Duration) {
	fmt.Printf("\nscript=%s, commands=%d, messages=%d, duration=%s\n",
		scriptPath, res.Commands, res.Messages, duration.Round(time.Millisecond))

	switch verdict(res) {
	case "diverged":
		fmt.Printf("verdict=diverged\n%s\n", res.Mismatch)
	case "driver-failed":
		fmt.Printf("verdict=driver-failed, exit_code=%d\n", res.ExitCode)
	default:
		fmt.Printf("verdict=verified, exit_code=%d\n", res.ExitCode)
	}

	if len(res.Stderr) > 0 {
		fmt.Printf("\n=== Driver Stderr ===\n%s", res.Stderr)
	}
}
