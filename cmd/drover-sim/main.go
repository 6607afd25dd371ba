// Package main provides the drover-sim entrypoint: the simulation
// side of the driver protocol, spawned by a test harness and spoken
// to over stdin/stdout.
//
// Usage:
//
//	drover-sim [--design <manifest.yaml>] [--log-level <level>]
//
// The session contract rides on environment variables:
//
//	DROVER_SIMULATION_LOG          simulation log path (default simulation-log.txt)
//	DROVER_SIMULATION_TRACE        trace destination (default trace)
//	DROVER_EXECUTION_SCRIPT        execution script path (recording off when unset)
//	DROVER_EXECUTION_SCRIPT_LIMIT  max recorded commands, 0 = unlimited
//	DROVER_SESSION_SUMMARY         summary artifact path, "-" for stderr
//
// Exit codes:
//   - 0: clean exit (driver sent Done)
//   - 1: session failure (already reported on the wire as an error message)
//   - 2: setup failure (flags, environment, design manifest)
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/tapeout-io/drover/config"
	"github.com/tapeout-io/drover/iox"
	"github.com/tapeout-io/drover/log"
	"github.com/tapeout-io/drover/metrics"
	"github.com/tapeout-io/drover/script"
	"github.com/tapeout-io/drover/session"
	"github.com/tapeout-io/drover/simkern"
	"github.com/tapeout-io/drover/types"
)

const (
	exitSuccess      = 0
	exitSessionError = 1
	exitSetupError   = 2
)

func main() {
	app := &cli.App{
		Name:           "drover-sim",
		Usage:          "Simulation-side endpoint for the driver protocol",
		Version:        types.Version,
		ExitErrHandler: exitErrHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "design",
				Usage: "Path to a design manifest YAML (built-in toy design when unset)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Diagnostic level: debug, info, warn, error",
				Value: "info",
			},
		},
		Action: simAction,
	}

	if err := app.Run(os.Args); err != nil {
		// ExitErrHandler already handled cli.ExitCoder errors.
		// This branch handles unexpected errors that weren't wrapped.
		os.Exit(exitSetupError)
	}
}

// exitErrHandler preserves exit codes from cli.Exit() so the harness
// spawning us can tell session failures from setup failures.
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
	os.Exit(exitSetupError)
}

func simAction(c *cli.Context) error {
	logger, err := log.NewLogger("drover-sim", c.String("log-level"))
	if err != nil {
		return cli.Exit(err.Error(), exitSetupError)
	}

	env, err := config.FromEnv()
	if err != nil {
		return cli.Exit(err.Error(), exitSetupError)
	}

	design, err := loadDesign(c.String("design"))
	if err != nil {
		return cli.Exit(err.Error(), exitSetupError)
	}

	kern, err := simkern.NewKernel(design, env.SimulationLog)
	if err != nil {
		return cli.Exit(err.Error(), exitSetupError)
	}

	var recorder *script.Recorder
	if env.ScriptPath != "" {
		recorder, err = script.New(env.ScriptPath, env.ScriptLimit)
		if err != nil {
			iox.DiscardClose(kern)
			return cli.Exit(err.Error(), exitSetupError)
		}
	}

	collector := metrics.NewCollector(design.Name)
	sess := session.New(session.Config{
		In:        os.Stdin,
		Out:       os.Stdout,
		Registry:  kern,
		Stepper:   kern,
		Tracer:    kern,
		Env:       env,
		Recorder:  recorder,
		Collector: collector,
		Logger:    logger,
	})

	runErr := sess.Run()

	if err := sess.Close(); err != nil {
		logger.Warn("log tail close failed", map[string]any{"error": err.Error()})
	}
	if err := kern.Close(); err != nil {
		logger.Warn("kernel close failed", map[string]any{"error": err.Error()})
	}
	if err := recorder.Close(); err != nil {
		logger.Warn("execution script close failed", map[string]any{"error": err.Error()})
	}

	if env.SummaryPath != "" {
		summary := buildSummary(collector.Snapshot(), recorder.Stats(), runErr)
		if err := metrics.WriteSummary(summary, env.SummaryPath); err != nil {
			logger.Error("summary not written", map[string]any{"error": err.Error()})
			if runErr == nil {
				return cli.Exit(err.Error(), exitSetupError)
			}
		}
	}

	if runErr != nil {
		return cli.Exit("", exitSessionError)
	}
	return cli.Exit("", exitSuccess)
}

// loadDesign loads the manifest at path, or the built-in toy design
// when path is empty.
func loadDesign(path string) (*simkern.Design, error) {
	if path == "" {
		return simkern.DefaultDesign()
	}
	return simkern.Load(path)
}

// buildSummary assembles the session summary artifact from the
// collector snapshot, the recorder stats, and the session outcome.
func buildSummary(snap metrics.Snapshot, stats script.Stats, runErr error) types.SessionSummary {
	s := types.SessionSummary{
		Version:         types.Version,
		Design:          snap.Design,
		Commands:        snap.Commands,
		Messages:        snap.Messages,
		CommandsByCode:  snap.CommandsByCode,
		MessagesByCode:  snap.MessagesByCode,
		CyclesTicked:    snap.CyclesTicked,
		StepsAdvanced:   snap.StepsAdvanced,
		LogBytes:        snap.LogBytes,
		ScriptCommands:  stats.Commands,
		ScriptMessages:  stats.Messages,
		ScriptTruncated: stats.Truncated,
		CleanExit:       runErr == nil,
	}
	if runErr != nil {
		s.Error = runErr.Error()
	}
	return s
}
