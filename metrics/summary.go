package metrics

import (
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/tapeout-io/drover/types"
)

// WriteSummary writes the session summary as a msgpack artifact.
// If path is "-", the encoded bytes go to stderr instead (stdout is
// the wire and must stay clean).
func WriteSummary(summary types.SessionSummary, path string) error {
	if path == "" {
		return fmt.Errorf("summary path must not be empty")
	}

	data, err := msgpack.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal session summary: %w", err)
	}

	if path == "-" {
		if _, err := os.Stderr.Write(data); err != nil {
			return fmt.Errorf("failed to write session summary to stderr: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write session summary to %s: %w", path, err)
	}
	return nil
}

// ReadSummary loads a summary artifact written by WriteSummary.
func ReadSummary(path string) (types.SessionSummary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.SessionSummary{}, fmt.Errorf("failed to read session summary: %w", err)
	}
	var summary types.SessionSummary
	if err := msgpack.Unmarshal(data, &summary); err != nil {
		return types.SessionSummary{}, fmt.Errorf("failed to decode session summary: %w", err)
	}
	return summary, nil
}
