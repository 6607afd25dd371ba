// Package bitvec implements the driver's hexadecimal bit-vector codec.
//
// Values cross the wire as arbitrary-precision two's-complement
// hexadecimal. A vector is a little-endian byte buffer paired with an
// explicit bit width; the wire form is most significant byte first,
// two uppercase digits per byte, so the digit count of a non-negative
// value is always 2*ByteCount(width). Negative values are rendered as
// '-' followed by the two's-complement magnitude.
//
// Encode and Decode are not byte-symmetric above the width boundary:
// Decode sign-extends the padding bits of a negative value through the
// full buffer, while Encode masks them off before rendering. Kernels
// mask writes to the port width, which keeps the asymmetry invisible
// on the wire.
package bitvec

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// Codec failures. All of them are fatal to a session; callers wrap
// them with value context so the wire error names the offending field.
var (
	ErrZeroWidth      = errors.New("bit width must be positive")
	ErrSignedWidthOne = errors.New("signed value needs a magnitude bit beyond the sign bit")
	ErrBadDigit       = errors.New("invalid hexadecimal digit")
	ErrEmptyDigits    = errors.New("no hexadecimal digits")
	ErrOverflow       = errors.New("value does not fit in bit width")
	ErrNegativeZero   = errors.New("negative zero is not representable")
)

// Bits is a little-endian two's-complement bit vector.
type Bits struct {
	// Data holds ByteCount(Width) bytes, least significant first.
	Data  []byte
	Width int
}

// ByteCount returns the buffer size in bytes for a bit width.
func ByteCount(width int) int { return (width + 7) / 8 }

// New returns a zeroed bit vector of the given width.
func New(width int) Bits {
	return Bits{Data: make([]byte, ByteCount(width)), Width: width}
}

// FromUint64 packs v into a 64-bit vector.
func FromUint64(v uint64) Bits {
	b := New(64)
	binary.LittleEndian.PutUint64(b.Data, v)
	return b
}

// Equal reports whether two vectors hold identical bytes. Widths are
// not compared; callers align widths at the port boundary.
func (b Bits) Equal(o Bits) bool { return bytes.Equal(b.Data, o.Data) }

// Encode renders buf as wire hexadecimal at the given width.
//
// The signed form renders a set sign bit (bit width-1) as '-' followed
// by the negated magnitude, masked to the width so the most negative
// value survives a round trip. buf is never mutated.
func Encode(buf []byte, width int, signed bool) (string, error) {
	if width <= 0 {
		return "", fmt.Errorf("%d-bit value: %w", width, ErrZeroWidth)
	}
	if signed && width <= 1 {
		return "", fmt.Errorf("%d-bit value: %w", width, ErrSignedWidthOne)
	}

	n := ByteCount(width)
	src := buf
	negative := signed && buf[(width-1)/8]&(1<<uint((width-1)%8)) != 0
	if negative {
		neg := make([]byte, n)
		carry := uint16(1)
		for i := 0; i < n; i++ {
			sum := uint16(^buf[i]) + carry
			neg[i] = byte(sum)
			carry = sum >> 8
		}
		if width%8 != 0 {
			neg[n-1] &= byte(1<<uint(width%8)) - 1
		}
		src = neg
	}

	var sb strings.Builder
	sb.Grow(2*n + 1)
	if negative {
		sb.WriteByte('-')
	}
	for i := n - 1; i >= 0; i-- {
		sb.WriteByte(hexUpper[src[i]>>4])
		sb.WriteByte(hexUpper[src[i]&0x0F])
	}
	return sb.String(), nil
}

const hexUpper = "0123456789ABCDEF"

// Decode parses wire hexadecimal into a bit vector of the given width.
// what names the value in error messages (e.g. "value for port 3").
//
// Digits are consumed right to left, an odd digit count is legal, and
// the digit budget is ByteCount(width) bytes for both signs; redundant
// leading zeros count against it. Negative results come back
// sign-extended through the whole buffer.
func Decode(text string, width int, what string) (Bits, error) {
	if width <= 0 {
		return Bits{}, fmt.Errorf("%s: %d-bit width: %w", what, width, ErrZeroWidth)
	}

	digits := text
	negative := false
	if strings.HasPrefix(digits, "-") {
		negative = true
		digits = digits[1:]
		if width <= 1 {
			return Bits{}, fmt.Errorf("%s: %w", what, ErrSignedWidthOne)
		}
	}
	if digits == "" {
		return Bits{}, fmt.Errorf("%s: %w", what, ErrEmptyDigits)
	}

	n := ByteCount(width)
	out := New(width)
	for i := 0; i < len(digits); i++ {
		c := digits[len(digits)-1-i]
		nib, ok := hexNibble(c)
		if !ok {
			return Bits{}, fmt.Errorf("%s: character %q: %w", what, c, ErrBadDigit)
		}
		byteIndex := i / 2
		if byteIndex >= n {
			return Bits{}, fmt.Errorf("%s: %d hex digits exceed %d-bit width: %w",
				what, len(digits), width, ErrOverflow)
		}
		if i%2 == 0 {
			out.Data[byteIndex] = nib
		} else {
			out.Data[byteIndex] |= nib << 4
		}
	}
	scanned := (len(digits) + 1) / 2

	if negative {
		carry := uint16(1)
		for i := 0; i < scanned; i++ {
			sum := uint16(^out.Data[i]) + carry
			out.Data[i] = byte(sum)
			carry = sum >> 8
		}
		// A surviving carry means the magnitude was zero.
		if carry != 0 {
			return Bits{}, fmt.Errorf("%s: %w", what, ErrNegativeZero)
		}
		for i := scanned; i < n; i++ {
			out.Data[i] = 0xFF
		}
		mask := byte(0xFF << uint((width-1)%8))
		if out.Data[n-1]&mask != mask {
			return Bits{}, fmt.Errorf("%s: negative value exceeds %d-bit range: %w",
				what, width, ErrOverflow)
		}
	} else if width%8 != 0 {
		mask := byte(0xFF << uint(width%8))
		if out.Data[n-1]&mask != 0 {
			return Bits{}, fmt.Errorf("%s: value exceeds %d-bit range: %w",
				what, width, ErrOverflow)
		}
	}
	return out, nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}
