package wire

import (
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func TestParseCommand_Forms(t *testing.T) {
	cases := []struct {
		name string
		line string
		want Command
	}{
		{"done", "D", DoneCmd{}},
		{"read log", "L", ReadLogCmd{}},
		{"get unsigned", "G u 3", GetBitsCmd{Port: 3, Signed: false}},
		{"get signed", "G s 1F", GetBitsCmd{Port: 0x1F, Signed: true}},
		{"get extra spaces before id", "G u   3", GetBitsCmd{Port: 3}},
		{"set", "S 3 2A", SetBitsCmd{Port: 3, Value: "2A"}},
		{"set negative value", "S 3 -01", SetBitsCmd{Port: 3, Value: "-01"}},
		{"run", "R 10", RunCmd{Steps: 16}},
		{"run negative", "R -1", RunCmd{Steps: -1}},
		{"run max", "R 7FFFFFFF", RunCmd{Steps: math.MaxInt32}},
		{"run min", "R -80000000", RunCmd{Steps: math.MinInt32}},
		{
			"tick",
			"T 0 1,0-2*A",
			TickCmd{Port: 0, InValue: "1", OutValue: "0", StepsPerPhase: 2, MaxCycles: 10},
		},
		{
			"tick with sentinel",
			"T 0 1,0-2*A 4=1",
			TickCmd{
				Port: 0, InValue: "1", OutValue: "0", StepsPerPhase: 2, MaxCycles: 10,
				Sentinel: &TickSentinel{Port: 4, Value: "1"},
			},
		},
		{
			"tick wide sentinel value",
			"T 0 1,0-1*1 2=00FF",
			TickCmd{
				Port: 0, InValue: "1", OutValue: "0", StepsPerPhase: 1, MaxCycles: 1,
				Sentinel: &TickSentinel{Port: 2, Value: "00FF"},
			},
		},
		{"trace on", "W 1", SetTraceCmd{Enable: true}},
		{"trace off", "W 0", SetTraceCmd{Enable: false}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseCommand(tc.line)
			if err != nil {
				t.Fatalf("ParseCommand(%q) returned error: %v", tc.line, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ParseCommand(%q) = %#v, want %#v", tc.line, got, tc.want)
			}
		})
	}
}

func TestParseCommand_Errors(t *testing.T) {
	cases := []struct {
		name string
		line string
		kind ParseErrorKind
	}{
		{"empty line", "", ParseErrorUnknownCommand},
		{"unknown opcode", "X", ParseErrorUnknownCommand},
		{"done with payload", "D x", ParseErrorTrailingBytes},
		{"log with payload", "L 3", ParseErrorTrailingBytes},
		{"bad sign mode", "G x 3", ParseErrorBadDelimiter},
		{"get missing id", "G u", ParseErrorBadInteger},
		{"get trailing bytes", "G u 3 x", ParseErrorTrailingBytes},
		{"set missing value", "S 3", ParseErrorBadDelimiter},
		{"run missing steps", "R", ParseErrorBadInteger},
		{"run above max", "R 80000000", ParseErrorBadInteger},
		{"run below min", "R -80000001", ParseErrorBadInteger},
		{"run saturated magnitude", "R FFFFFFFFFFFFFFFF", ParseErrorBadInteger},
		{"tick missing comma", "T 0 10-2*4", ParseErrorBadDelimiter},
		{"tick missing dash", "T 0 1,02*4", ParseErrorBadDelimiter},
		{"tick missing star", "T 0 1,0-2 4", ParseErrorBadDelimiter},
		{"tick zero cycles", "T 0 1,0-2*0", ParseErrorBadInteger},
		{"tick negative cycles", "T 0 1,0-2*-1", ParseErrorBadInteger},
		{"tick sentinel missing equals", "T 0 1,0-2*4 4", ParseErrorBadDelimiter},
		{"trace bad flag", "W 2", ParseErrorBadDelimiter},
		{"trace missing flag", "W", ParseErrorBadDelimiter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCommand(tc.line)
			if err == nil {
				t.Fatalf("ParseCommand(%q) succeeded, want error", tc.line)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("ParseCommand(%q) error type %T, want *ParseError", tc.line, err)
			}
			if pe.Kind != tc.kind {
				t.Errorf("ParseCommand(%q) error kind %d, want %d (%v)", tc.line, pe.Kind, tc.kind, err)
			}
		})
	}
}

func TestParseCommand_ErrorNamesBadByte(t *testing.T) {
	_, err := ParseCommand("G x 3")
	if err == nil {
		t.Fatal("ParseCommand succeeded, want error")
	}
	if want := "'x'"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not name the offending byte %s", err, want)
	}
}
