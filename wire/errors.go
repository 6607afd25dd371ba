package wire

// ParseErrorKind classifies wire grammar violations.
type ParseErrorKind int

const (
	// ParseErrorUnknownCommand indicates an unrecognized command byte.
	ParseErrorUnknownCommand ParseErrorKind = iota
	// ParseErrorBadInteger indicates a missing or out-of-range integer field.
	ParseErrorBadInteger
	// ParseErrorBadDelimiter indicates a mismatched delimiter or mode byte.
	ParseErrorBadDelimiter
	// ParseErrorTrailingBytes indicates bytes left over after a complete command.
	ParseErrorTrailingBytes
	// ParseErrorUnterminatedLine indicates a frame that ended without a terminator.
	ParseErrorUnterminatedLine
	// ParseErrorBadMessage indicates an unparseable reply frame.
	ParseErrorBadMessage
)

// ParseError reports a wire grammar violation. Every ParseError is
// fatal: the protocol has no resynchronization point, so the session
// reports it once and terminates.
type ParseError struct {
	Kind ParseErrorKind
	Msg  string
}

func (e *ParseError) Error() string { return e.Msg }
