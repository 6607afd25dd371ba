// Package wire implements the line-framed driver protocol spoken over
// the simulation process's standard streams.
//
// Commands travel from the driver to the simulation one per line,
// identified by their first byte; replies travel back the same way.
// Each command line is parsed in full before anything executes, so a
// malformed line never leaves the session half-applied. Port values
// cross the wire as the hexadecimal form produced by package bitvec.
package wire

import "fmt"

// Span is a raw slice of a command line, captured during parsing and
// decoded later against the width of the port it targets.
type Span string

// Command is one parsed driver command.
type Command interface{ isCommand() }

// DoneCmd ends the session.
type DoneCmd struct{}

// ReadLogCmd asks for the simulation log bytes written since the last
// read.
type ReadLogCmd struct{}

// GetBitsCmd reads a port's value. Signed selects the signed
// hexadecimal rendering.
type GetBitsCmd struct {
	Port   int32
	Signed bool
}

// SetBitsCmd writes Value to a port. The span is decoded against the
// port's width at execution time.
type SetBitsCmd struct {
	Port  int32
	Value Span
}

// RunCmd advances simulation time by Steps.
type RunCmd struct {
	Steps int32
}

// TickSentinel is the optional early-exit condition of a TickCmd: the
// clock loop stops once the named port reads equal to Value.
type TickSentinel struct {
	Port  int32
	Value Span
}

// TickCmd toggles a clock port between InValue and OutValue for up to
// MaxCycles cycles, advancing StepsPerPhase after each half-cycle
// write.
type TickCmd struct {
	Port          int32
	InValue       Span
	OutValue      Span
	StepsPerPhase int32
	MaxCycles     int32
	Sentinel      *TickSentinel
}

// SetTraceCmd enables or disables waveform tracing.
type SetTraceCmd struct {
	Enable bool
}

func (DoneCmd) isCommand()     {}
func (ReadLogCmd) isCommand()  {}
func (GetBitsCmd) isCommand()  {}
func (SetBitsCmd) isCommand()  {}
func (RunCmd) isCommand()      {}
func (TickCmd) isCommand()     {}
func (SetTraceCmd) isCommand() {}

// ParseCommand parses one command line (without its terminator).
func ParseCommand(line string) (Command, error) {
	if line == "" {
		return nil, &ParseError{Kind: ParseErrorUnknownCommand, Msg: "empty command line"}
	}
	c := &cursor{line: line, pos: 1}
	switch line[0] {
	case 'D':
		if err := c.end(); err != nil {
			return nil, err
		}
		return DoneCmd{}, nil
	case 'L':
		if err := c.end(); err != nil {
			return nil, err
		}
		return ReadLogCmd{}, nil
	case 'G':
		return parseGetBits(c)
	case 'S':
		return parseSetBits(c)
	case 'R':
		return parseRun(c)
	case 'T':
		return parseTick(c)
	case 'W':
		return parseSetTrace(c)
	}
	return nil, &ParseError{
		Kind: ParseErrorUnknownCommand,
		Msg:  fmt.Sprintf("unknown command %q", line[0]),
	}
}

func parseGetBits(c *cursor) (Command, error) {
	if err := c.expect(' '); err != nil {
		return nil, err
	}
	mode, ok := c.next()
	if !ok {
		return nil, &ParseError{Kind: ParseErrorBadDelimiter, Msg: "missing sign mode"}
	}
	if mode != 's' && mode != 'u' {
		return nil, &ParseError{
			Kind: ParseErrorBadDelimiter,
			Msg:  fmt.Sprintf("sign mode must be 's' or 'u', found %q", mode),
		}
	}
	port, err := c.scanInt32()
	if err != nil {
		return nil, err
	}
	if err := c.end(); err != nil {
		return nil, err
	}
	return GetBitsCmd{Port: port, Signed: mode == 's'}, nil
}

func parseSetBits(c *cursor) (Command, error) {
	port, err := c.scanInt32()
	if err != nil {
		return nil, err
	}
	if err := c.expect(' '); err != nil {
		return nil, err
	}
	return SetBitsCmd{Port: port, Value: c.rest()}, nil
}

func parseRun(c *cursor) (Command, error) {
	steps, err := c.scanInt32()
	if err != nil {
		return nil, err
	}
	if err := c.end(); err != nil {
		return nil, err
	}
	return RunCmd{Steps: steps}, nil
}

// parseTick handles the densest command form:
//
//	T <port> <in>,<out>-<steps>*<maxCycles>[ <port>=<value>]
//
// The out-value span ends at the '-' separator, so a negative
// out-value cannot be expressed in this grammar.
func parseTick(c *cursor) (Command, error) {
	port, err := c.scanInt32()
	if err != nil {
		return nil, err
	}
	if err := c.expect(' '); err != nil {
		return nil, err
	}
	in, err := c.until(',')
	if err != nil {
		return nil, err
	}
	out, err := c.until('-')
	if err != nil {
		return nil, err
	}
	steps, err := c.scanInt32()
	if err != nil {
		return nil, err
	}
	if err := c.expect('*'); err != nil {
		return nil, err
	}
	maxCycles, err := c.scanInt32()
	if err != nil {
		return nil, err
	}
	if maxCycles <= 0 {
		return nil, &ParseError{
			Kind: ParseErrorBadInteger,
			Msg:  fmt.Sprintf("max cycle count must be positive, got %d", maxCycles),
		}
	}
	cmd := TickCmd{
		Port:          port,
		InValue:       in,
		OutValue:      out,
		StepsPerPhase: steps,
		MaxCycles:     maxCycles,
	}
	if c.done() {
		return cmd, nil
	}
	if err := c.expect(' '); err != nil {
		return nil, err
	}
	sentinelPort, err := c.scanInt32()
	if err != nil {
		return nil, err
	}
	if err := c.expect('='); err != nil {
		return nil, err
	}
	cmd.Sentinel = &TickSentinel{Port: sentinelPort, Value: c.rest()}
	return cmd, nil
}

func parseSetTrace(c *cursor) (Command, error) {
	if err := c.expect(' '); err != nil {
		return nil, err
	}
	flag, ok := c.next()
	if !ok {
		return nil, &ParseError{Kind: ParseErrorBadDelimiter, Msg: "missing trace flag"}
	}
	if flag != '0' && flag != '1' {
		return nil, &ParseError{
			Kind: ParseErrorBadDelimiter,
			Msg:  fmt.Sprintf("trace flag must be '0' or '1', found %q", flag),
		}
	}
	if err := c.end(); err != nil {
		return nil, err
	}
	return SetTraceCmd{Enable: flag == '1'}, nil
}
