// Package config resolves the driver's environment contract and
// expands environment references inside design manifests.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment variables understood by the driver binaries.
const (
	EnvSimulationLog        = "DROVER_SIMULATION_LOG"
	EnvSimulationTrace      = "DROVER_SIMULATION_TRACE"
	EnvExecutionScript      = "DROVER_EXECUTION_SCRIPT"
	EnvExecutionScriptLimit = "DROVER_EXECUTION_SCRIPT_LIMIT"
	EnvSessionSummary       = "DROVER_SESSION_SUMMARY"
)

// Defaults for the variables that have one.
const (
	DefaultSimulationLog   = "simulation-log.txt"
	DefaultSimulationTrace = "trace"
)

// Env is the resolved environment contract for one session.
type Env struct {
	// SimulationLog is the file the kernel logs to and ReadLog tails.
	SimulationLog string
	// SimulationTrace is the destination handed to InitTrace.
	SimulationTrace string
	// ScriptPath names the execution script; empty disables recording.
	ScriptPath string
	// ScriptLimit caps recorded commands; zero records without bound.
	ScriptLimit int
	// SummaryPath names the session summary artifact; empty disables it.
	SummaryPath string
}

// FromEnv resolves the contract from the process environment. Unset
// or empty variables fall back to their defaults; a malformed script
// limit is a fatal configuration error.
func FromEnv() (Env, error) {
	e := Env{
		SimulationLog:   DefaultSimulationLog,
		SimulationTrace: DefaultSimulationTrace,
		ScriptPath:      os.Getenv(EnvExecutionScript),
		SummaryPath:     os.Getenv(EnvSessionSummary),
	}
	if v := os.Getenv(EnvSimulationLog); v != "" {
		e.SimulationLog = v
	}
	if v := os.Getenv(EnvSimulationTrace); v != "" {
		e.SimulationTrace = v
	}
	if v := os.Getenv(EnvExecutionScriptLimit); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Env{}, fmt.Errorf("%s must be a non-negative decimal, got %q", EnvExecutionScriptLimit, v)
		}
		e.ScriptLimit = n
	}
	return e, nil
}
