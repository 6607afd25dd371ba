// Package replay verifies that a driver reproduces a recorded
// execution script: the script's commands are fed to a live driver in
// order and every reply it emits is compared against the recorded
// frame.
package replay

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tapeout-io/drover/wire"
)

// EventKind discriminates script events.
type EventKind int

const (
	// EventCommand is a driver-to-simulation command line.
	EventCommand EventKind = iota
	// EventMessage is a simulation-to-driver reply frame.
	EventMessage
)

// Event is one recorded script event.
type Event struct {
	Kind EventKind
	// Seq is the recorded event number. Commands count from 1,
	// messages from 0, each on its own sequence.
	Seq int
	// Text is the command line or reply frame, terminator stripped.
	// Log frames keep their interior newlines.
	Text string
	// Line is the 1-based script line where the event starts.
	Line int
}

// Script is a parsed execution script.
type Script struct {
	Events []Event
}

// Commands counts the command events.
func (s *Script) Commands() int {
	n := 0
	for _, ev := range s.Events {
		if ev.Kind == EventCommand {
			n++
		}
	}
	return n
}

// Messages counts the message events.
func (s *Script) Messages() int {
	return len(s.Events) - s.Commands()
}

// ParseScript reads an execution script. Lines starting with '#' are
// comments. Event numbering must be dense and monotonic per stream;
// a gap means the script was corrupted or hand-edited, and replaying
// it would verify the wrong thing.
func ParseScript(r io.Reader) (*Script, error) {
	br := bufio.NewReader(r)
	s := &Script{}
	lineNo := 0
	wantCmd, wantMsg := 1, 0

	for {
		lineNo++
		line, err := wire.ReadLine(br)
		if err == io.EOF {
			return s, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if strings.HasPrefix(line, "#") {
			continue
		}

		ev, err := splitEvent(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		ev.Line = lineNo

		switch ev.Kind {
		case EventCommand:
			if ev.Seq != wantCmd {
				return nil, fmt.Errorf("line %d: command numbered %d, want %d", lineNo, ev.Seq, wantCmd)
			}
			wantCmd++
		case EventMessage:
			if ev.Seq != wantMsg {
				return nil, fmt.Errorf("line %d: message numbered %d, want %d", lineNo, ev.Seq, wantMsg)
			}
			wantMsg++
			if strings.HasPrefix(ev.Text, "l ") {
				joined, consumed, err := joinLogFrame(ev.Text, br)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", ev.Line, err)
				}
				ev.Text = joined
				lineNo += consumed
			}
		}
		s.Events = append(s.Events, ev)
	}
}

// splitEvent splits "N> body" or "N< body" into its parts.
func splitEvent(line string) (Event, error) {
	i := strings.IndexAny(line, "<>")
	if i <= 0 {
		return Event{}, fmt.Errorf("malformed script line %.40q", line)
	}
	seq, err := strconv.Atoi(line[:i])
	if err != nil || seq < 0 {
		return Event{}, fmt.Errorf("bad event number in %.40q", line)
	}
	if i+2 > len(line) || line[i+1] != ' ' {
		return Event{}, fmt.Errorf("malformed script line %.40q", line)
	}
	kind := EventMessage
	if line[i] == '>' {
		kind = EventCommand
	}
	return Event{Kind: kind, Seq: seq, Text: line[i+2:]}, nil
}

// joinLogFrame reassembles a log frame whose payload spans script
// lines, using the declared byte count. It returns the full frame and
// the number of continuation lines consumed.
func joinLogFrame(first string, br *bufio.Reader) (string, int, error) {
	size, err := wire.LogPayloadSize(first)
	if err != nil {
		return "", 0, err
	}
	need := wire.LogHeaderLen + size
	frame := first
	consumed := 0
	for len(frame) < need {
		more, err := wire.ReadLine(br)
		if err != nil {
			return "", 0, fmt.Errorf("log frame truncated: have %d of %d bytes", len(frame), need)
		}
		consumed++
		frame += "\n" + more
	}
	if len(frame) != need {
		return "", 0, fmt.Errorf("log frame length %d does not match declared %d bytes", len(frame), need)
	}
	return frame, consumed, nil
}
