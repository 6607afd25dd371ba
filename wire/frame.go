package wire

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LogHeaderLen is the length of "l 00000000 ": opcode, space, eight
// hex digits, space.
const LogHeaderLen = 11

// ReadLine reads one newline-terminated line and returns it without
// the terminator. A clean EOF before any byte is io.EOF; EOF after a
// partial line is a ParseError.
func ReadLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err == io.EOF {
		if line == "" {
			return "", io.EOF
		}
		return "", &ParseError{
			Kind: ParseErrorUnterminatedLine,
			Msg:  fmt.Sprintf("stream ended mid-line after %q", line),
		}
	}
	if err != nil {
		return "", err
	}
	return line[:len(line)-1], nil
}

// ReadFrame reads one complete message frame and returns it without
// the final terminator. Log payloads carry a byte count and may
// themselves contain newlines, so an 'l' frame keeps reading lines
// until the declared count is satisfied.
func ReadFrame(r *bufio.Reader) (string, error) {
	line, err := ReadLine(r)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(line, "l ") {
		return line, nil
	}
	size, err := LogPayloadSize(line)
	if err != nil {
		return "", err
	}
	// The declared count plus the trailing newline bound the frame.
	need := LogHeaderLen + size + 1
	frame := line + "\n"
	for len(frame) < need {
		more, err := ReadLine(r)
		if err == io.EOF {
			return "", &ParseError{
				Kind: ParseErrorUnterminatedLine,
				Msg:  fmt.Sprintf("log frame truncated: have %d of %d bytes", len(frame), need),
			}
		}
		if err != nil {
			return "", err
		}
		frame += more + "\n"
	}
	if len(frame) != need {
		return "", &ParseError{
			Kind: ParseErrorBadMessage,
			Msg:  fmt.Sprintf("log frame length %d does not match declared %d bytes", len(frame), need),
		}
	}
	return frame[:len(frame)-1], nil
}

// LogPayloadSize extracts the declared byte count from the first line
// of an 'l' frame. Consumers reassembling frames from sources other
// than a stream (execution scripts, captures) use it to know how many
// continuation bytes belong to the frame.
func LogPayloadSize(line string) (int, error) {
	if len(line) < LogHeaderLen || line[LogHeaderLen-1] != ' ' {
		return 0, &ParseError{
			Kind: ParseErrorBadMessage,
			Msg:  fmt.Sprintf("malformed log header %.40q", line),
		}
	}
	v, err := strconv.ParseUint(line[2:LogHeaderLen-1], 16, 32)
	if err != nil {
		return 0, &ParseError{
			Kind: ParseErrorBadMessage,
			Msg:  fmt.Sprintf("bad log byte count in %.40q", line),
		}
	}
	return int(v), nil
}
