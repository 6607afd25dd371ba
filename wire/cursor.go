package wire

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// cursor walks one command or message line during parsing.
type cursor struct {
	line string
	pos  int
}

func (c *cursor) done() bool { return c.pos >= len(c.line) }

func (c *cursor) next() (byte, bool) {
	if c.done() {
		return 0, false
	}
	b := c.line[c.pos]
	c.pos++
	return b, true
}

// expect consumes one byte and fails unless it matches want.
func (c *cursor) expect(want byte) error {
	got, ok := c.next()
	if !ok {
		return &ParseError{
			Kind: ParseErrorBadDelimiter,
			Msg:  fmt.Sprintf("expected %q, found end of line", want),
		}
	}
	if got != want {
		return &ParseError{
			Kind: ParseErrorBadDelimiter,
			Msg:  fmt.Sprintf("expected %q, found %q", want, got),
		}
	}
	return nil
}

// scanInt32 parses a base-16 integer the way strtol does: leading
// spaces, an optional sign, then hex digits, bounded to the signed
// 32-bit range.
func (c *cursor) scanInt32() (int32, error) {
	for c.pos < len(c.line) && c.line[c.pos] == ' ' {
		c.pos++
	}
	neg := false
	if c.pos < len(c.line) && (c.line[c.pos] == '-' || c.line[c.pos] == '+') {
		neg = c.line[c.pos] == '-'
		c.pos++
	}

	var v int64
	digits := 0
	for c.pos < len(c.line) {
		nib, ok := hexDigit(c.line[c.pos])
		if !ok {
			break
		}
		c.pos++
		digits++
		// Saturate once past any representable magnitude.
		if v <= 1<<31 {
			v = v<<4 | int64(nib)
		}
	}
	if digits == 0 {
		return 0, &ParseError{Kind: ParseErrorBadInteger, Msg: "expected a hexadecimal integer"}
	}
	if neg {
		v = -v
	}
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, &ParseError{Kind: ParseErrorBadInteger, Msg: "hexadecimal integer out of 32-bit range"}
	}
	return int32(v), nil
}

// fixedHex32 consumes exactly eight hex digits.
func (c *cursor) fixedHex32() (uint32, error) {
	if c.pos+8 > len(c.line) {
		return 0, &ParseError{Kind: ParseErrorBadMessage, Msg: "truncated length field"}
	}
	v, err := strconv.ParseUint(c.line[c.pos:c.pos+8], 16, 32)
	if err != nil {
		return 0, &ParseError{
			Kind: ParseErrorBadMessage,
			Msg:  fmt.Sprintf("bad length field %q", c.line[c.pos:c.pos+8]),
		}
	}
	c.pos += 8
	return uint32(v), nil
}

// until captures a raw span up to delim, consuming the delimiter.
func (c *cursor) until(delim byte) (Span, error) {
	i := strings.IndexByte(c.line[c.pos:], delim)
	if i < 0 {
		return "", &ParseError{
			Kind: ParseErrorBadDelimiter,
			Msg:  fmt.Sprintf("missing %q delimiter", delim),
		}
	}
	s := Span(c.line[c.pos : c.pos+i])
	c.pos += i + 1
	return s, nil
}

// rest captures the remainder of the line.
func (c *cursor) rest() Span {
	s := Span(c.line[c.pos:])
	c.pos = len(c.line)
	return s
}

// end fails if unconsumed bytes remain.
func (c *cursor) end() error {
	if !c.done() {
		return &ParseError{
			Kind: ParseErrorTrailingBytes,
			Msg:  fmt.Sprintf("unexpected trailing bytes %q", c.line[c.pos:]),
		}
	}
	return nil
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
