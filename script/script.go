// Package script records a replayable transcript of a driver session.
//
// Each driver command becomes a line `N> <command>` with N counting
// from 1, and each reply message becomes `N< <frame>` with N counting
// from 0. Log frames keep their interior newlines, so one recorded
// message may span several physical lines; the declared byte count in
// the frame header is what delimits it. Comment lines start with '#'.
//
// When a command limit is configured the script is sealed after the
// limiting command: a comment marks the truncation and a synthetic
// final Done keeps the transcript replayable end to end.
package script

import (
	"fmt"
	"os"
)

// Stats summarizes what a Recorder captured.
type Stats struct {
	Commands  int64
	Messages  int64
	Truncated bool
}

// Recorder appends session events to an execution script file. All
// methods are nil-safe so an unconfigured session can carry a nil
// recorder. Writes go straight to the file, unbuffered, so the script
// is complete up to the last event even if the process dies.
type Recorder struct {
	f        *os.File
	limit    int
	commands int64
	messages int64
	sealed   bool
}

// New creates the script file, truncating any previous one. A limit of
// zero records without bound.
func New(path string, limit int) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create execution script: %w", err)
	}
	return &Recorder{f: f, limit: limit}, nil
}

// RecordCommand appends one command line. Recording the limiting
// command seals the script.
func (r *Recorder) RecordCommand(line string) error {
	if r == nil || r.sealed {
		return nil
	}
	r.commands++
	if _, err := fmt.Fprintf(r.f, "%d> %s\n", r.commands, line); err != nil {
		return fmt.Errorf("record command: %w", err)
	}
	if r.limit > 0 && r.commands >= int64(r.limit) {
		return r.seal()
	}
	return nil
}

// RecordMessage appends one reply frame, given without its final
// terminator. Messages stop being recorded once their count reaches
// the command limit, so a sealed script never ends on a dangling
// reply.
func (r *Recorder) RecordMessage(frame string) error {
	if r == nil || r.sealed {
		return nil
	}
	if r.limit > 0 && r.messages >= int64(r.limit) {
		return nil
	}
	n := r.messages
	r.messages++
	if _, err := fmt.Fprintf(r.f, "%d< %s\n", n, frame); err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}

func (r *Recorder) seal() error {
	r.sealed = true
	_, err := fmt.Fprintf(r.f,
		"# Execution script limited to %d commands (not counting implicit 'Done').\n%d> D\n",
		r.limit, r.limit+1)
	if err != nil {
		return fmt.Errorf("seal execution script: %w", err)
	}
	return nil
}

// Stats reports the recorded event counts. The synthetic Done written
// by sealing is not counted as a command.
func (r *Recorder) Stats() Stats {
	if r == nil {
		return Stats{}
	}
	return Stats{Commands: r.commands, Messages: r.messages, Truncated: r.sealed}
}

// Close closes the underlying file.
func (r *Recorder) Close() error {
	if r == nil || r.f == nil {
		return nil
	}
	return r.f.Close()
}
