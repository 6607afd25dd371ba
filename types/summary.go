// Package types defines cross-component value types: the project
// version and the session summary artifact shared by the driver binary
// and the replay tool.
package types

// SessionSummary is the artifact written at session end when a summary
// path is configured. It is encoded as msgpack so downstream tooling
// can ingest it without parsing driver diagnostics.
type SessionSummary struct {
	Version string `msgpack:"version"`
	Design  string `msgpack:"design"`

	// Wire traffic.
	Commands       int64            `msgpack:"commands"`
	Messages       int64            `msgpack:"messages"`
	CommandsByCode map[string]int64 `msgpack:"commands_by_code"`
	MessagesByCode map[string]int64 `msgpack:"messages_by_code"`

	// Kernel activity.
	CyclesTicked  int64 `msgpack:"cycles_ticked"`
	StepsAdvanced int64 `msgpack:"steps_advanced"`
	LogBytes      int64 `msgpack:"log_bytes"`

	// Execution script recording.
	ScriptCommands  int64 `msgpack:"script_commands"`
	ScriptMessages  int64 `msgpack:"script_messages"`
	ScriptTruncated bool  `msgpack:"script_truncated"`

	// CleanExit is true only when the session ended via Done.
	CleanExit bool   `msgpack:"clean_exit"`
	Error     string `msgpack:"error,omitempty"`
}
