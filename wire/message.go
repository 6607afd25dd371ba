package wire

import (
	"fmt"
	"strings"
)

// Message is one reply frame sent from the simulation to the driver.
type Message interface{ isMessage() }

// ReadyMsg announces that the session accepts commands.
type ReadyMsg struct{}

// AckMsg confirms a command that produces no payload.
type AckMsg struct{}

// BitsReply carries a port value: the port's bit width and the
// hexadecimal text produced by package bitvec.
type BitsReply struct {
	Width int
	Text  string
}

// LogReply carries raw simulation log bytes. The payload may contain
// newlines; the declared byte count bounds the frame.
type LogReply struct {
	Data []byte
}

// ErrorMsg reports a fatal session error. The text is flattened to a
// single line on the wire.
type ErrorMsg struct {
	Text string
}

func (ReadyMsg) isMessage()  {}
func (AckMsg) isMessage()    {}
func (BitsReply) isMessage() {}
func (LogReply) isMessage()  {}
func (ErrorMsg) isMessage()  {}

// MarshalMessage renders one reply frame, terminator included.
func MarshalMessage(m Message) ([]byte, error) {
	switch m := m.(type) {
	case ReadyMsg:
		return []byte("r ready\n"), nil
	case AckMsg:
		return []byte("k ack\n"), nil
	case BitsReply:
		return fmt.Appendf(nil, "b %08X %s\n", uint32(m.Width), m.Text), nil
	case LogReply:
		b := fmt.Appendf(nil, "l %08X ", uint32(len(m.Data)))
		b = append(b, m.Data...)
		return append(b, '\n'), nil
	case ErrorMsg:
		return fmt.Appendf(nil, "e %s\n", flattenLine(m.Text)), nil
	}
	return nil, fmt.Errorf("wire: cannot marshal message type %T", m)
}

// ParseMessage parses one reply frame (without its final terminator).
// Log frames keep any interior newlines; use ReadFrame to reassemble
// them from a stream first.
func ParseMessage(frame string) (Message, error) {
	switch {
	case frame == "r ready":
		return ReadyMsg{}, nil
	case frame == "k ack":
		return AckMsg{}, nil
	}
	if len(frame) >= 2 && frame[1] == ' ' {
		switch frame[0] {
		case 'b':
			c := &cursor{line: frame, pos: 2}
			width, err := c.fixedHex32()
			if err != nil {
				return nil, err
			}
			if err := c.expect(' '); err != nil {
				return nil, err
			}
			return BitsReply{Width: int(width), Text: string(c.rest())}, nil
		case 'l':
			c := &cursor{line: frame, pos: 2}
			size, err := c.fixedHex32()
			if err != nil {
				return nil, err
			}
			if err := c.expect(' '); err != nil {
				return nil, err
			}
			data := string(c.rest())
			if len(data) != int(size) {
				return nil, &ParseError{
					Kind: ParseErrorBadMessage,
					Msg:  fmt.Sprintf("log payload is %d bytes, header declares %d", len(data), size),
				}
			}
			return LogReply{Data: []byte(data)}, nil
		case 'e':
			return ErrorMsg{Text: frame[2:]}, nil
		}
	}
	return nil, &ParseError{
		Kind: ParseErrorBadMessage,
		Msg:  fmt.Sprintf("unrecognized message %.40q", frame),
	}
}

// flattenLine folds line terminators into spaces so the frame stays a
// single line.
func flattenLine(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
