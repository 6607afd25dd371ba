package wire

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"testing"
)

func TestReadLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("D\nG u 3\n"))
	for _, want := range []string{"D", "G u 3"} {
		got, err := ReadLine(r)
		if err != nil {
			t.Fatalf("ReadLine returned error: %v", err)
		}
		if got != want {
			t.Errorf("ReadLine = %q, want %q", got, want)
		}
	}
	if _, err := ReadLine(r); err != io.EOF {
		t.Errorf("ReadLine at end = %v, want io.EOF", err)
	}
}

func TestReadLine_Unterminated(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("D"))
	_, err := ReadLine(r)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ParseErrorUnterminatedLine {
		t.Fatalf("ReadLine = %v, want unterminated-line parse error", err)
	}
}

func TestReadFrame_PlainLine(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("k ack\nb 00000008 2A\n"))
	for _, want := range []string{"k ack", "b 00000008 2A"} {
		got, err := ReadFrame(r)
		if err != nil {
			t.Fatalf("ReadFrame returned error: %v", err)
		}
		if got != want {
			t.Errorf("ReadFrame = %q, want %q", got, want)
		}
	}
}

func TestReadFrame_MultiLineLog(t *testing.T) {
	frame, err := MarshalMessage(LogReply{Data: []byte("one\ntwo\n")})
	if err != nil {
		t.Fatalf("MarshalMessage returned error: %v", err)
	}
	r := bufio.NewReader(strings.NewReader(string(frame) + "k ack\n"))

	got, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame returned error: %v", err)
	}
	msg, err := ParseMessage(got)
	if err != nil {
		t.Fatalf("ParseMessage(%q) returned error: %v", got, err)
	}
	log, ok := msg.(LogReply)
	if !ok {
		t.Fatalf("ParseMessage(%q) = %#v, want LogReply", got, msg)
	}
	if string(log.Data) != "one\ntwo\n" {
		t.Errorf("log payload = %q, want %q", log.Data, "one\ntwo\n")
	}

	// The frame after the log must still parse cleanly.
	next, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("ReadFrame after log returned error: %v", err)
	}
	if next != "k ack" {
		t.Errorf("next frame = %q, want %q", next, "k ack")
	}
}

func TestReadFrame_TruncatedLog(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("l 00000008 one\n"))
	_, err := ReadFrame(r)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ParseErrorUnterminatedLine {
		t.Fatalf("ReadFrame = %v, want unterminated-line parse error", err)
	}
}

func TestReadFrame_LogCountMismatch(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("l 00000002 abcd\n"))
	_, err := ReadFrame(r)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ParseErrorBadMessage {
		t.Fatalf("ReadFrame = %v, want bad-message parse error", err)
	}
}

func TestReadFrame_MalformedLogHeader(t *testing.T) {
	r := bufio.NewReader(strings.NewReader("l xyz\n"))
	_, err := ReadFrame(r)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ParseErrorBadMessage {
		t.Fatalf("ReadFrame = %v, want bad-message parse error", err)
	}
}
