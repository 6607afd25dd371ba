// Package session implements the driver dispatch loop: read one
// command line, execute it against the kernel, emit exactly one reply.
//
// The loop is strictly single-threaded. Replies leave in command
// order, each flushed before the next read, and the session never
// writes anything to the wire except whole messages. Every failure is
// fatal: the session reports it once as an error message and returns,
// so a malformed command can never desynchronize the stream.
package session

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/tapeout-io/drover/bitvec"
	"github.com/tapeout-io/drover/config"
	"github.com/tapeout-io/drover/log"
	"github.com/tapeout-io/drover/metrics"
	"github.com/tapeout-io/drover/ports"
	"github.com/tapeout-io/drover/script"
	"github.com/tapeout-io/drover/wire"
)

// Config assembles a session's dependencies. Registry and Stepper are
// required. Tracer may be nil for kernels that cannot trace; the
// trace command then fails. Recorder, Collector and Logger are
// optional, nil disables them.
type Config struct {
	In  io.Reader
	Out io.Writer

	Registry ports.Registry
	Stepper  ports.Stepper
	Tracer   ports.Tracer

	Env config.Env

	Recorder  *script.Recorder
	Collector *metrics.Collector
	Logger    *log.Logger
}

// Session is one protocol conversation over a stream pair.
type Session struct {
	in  *bufio.Reader
	out *bufio.Writer

	registry ports.Registry
	stepper  ports.Stepper
	tracer   ports.Tracer

	env       config.Env
	recorder  *script.Recorder
	collector *metrics.Collector
	logger    *log.Logger

	logTail    *os.File
	traceReady bool
}

// New creates a Session over the given streams.
func New(cfg Config) *Session {
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	return &Session{
		in:        bufio.NewReader(cfg.In),
		out:       bufio.NewWriter(cfg.Out),
		registry:  cfg.Registry,
		stepper:   cfg.Stepper,
		tracer:    cfg.Tracer,
		env:       cfg.Env,
		recorder:  cfg.Recorder,
		collector: cfg.Collector,
		logger:    logger,
	}
}

// Run announces readiness and dispatches commands until Done, stream
// end, or the first failure. It returns nil only when the driver sent
// Done. Any other return has already been reported on the wire as a
// single error message; input pipelined after Done is never consumed.
func (s *Session) Run() error {
	if err := s.emit(wire.ReadyMsg{}); err != nil {
		return s.fail(err)
	}
	s.logger.Info("session ready", map[string]any{
		"simulation_log": s.env.SimulationLog,
	})

	for {
		line, err := wire.ReadLine(s.in)
		if err != nil {
			if err == io.EOF {
				return s.fail(fmt.Errorf("stream ended before Done"))
			}
			return s.fail(err)
		}
		if err := s.recorder.RecordCommand(line); err != nil {
			return s.fail(err)
		}
		s.collector.IncCommand(commandCode(line))
		s.logger.Debug("command received", map[string]any{"line": line})

		cmd, err := wire.ParseCommand(line)
		if err != nil {
			return s.fail(err)
		}
		if _, done := cmd.(wire.DoneCmd); done {
			s.logger.Info("session done", map[string]any{"clean_exit": true})
			return nil
		}

		msg, err := s.execute(cmd)
		if err != nil {
			return s.fail(err)
		}
		if err := s.emit(msg); err != nil {
			return s.fail(err)
		}
	}
}

// Close releases the log tail handle. Safe when Run never opened it.
func (s *Session) Close() error {
	if s.logTail == nil {
		return nil
	}
	return s.logTail.Close()
}

// fail reports err on the wire as a single error message and passes
// it through. A failure to deliver the error message itself is only
// logged; the original error stays the session's outcome.
func (s *Session) fail(err error) error {
	s.collector.IncError()
	s.logger.Error("session failed", map[string]any{"error": err.Error()})
	if emitErr := s.emit(wire.ErrorMsg{Text: err.Error()}); emitErr != nil {
		s.logger.Error("error reply not delivered", map[string]any{"error": emitErr.Error()})
	}
	return err
}

// emit writes one message, flushes it, and fans it out to the
// collector and the execution script.
func (s *Session) emit(m wire.Message) error {
	frame, err := wire.MarshalMessage(m)
	if err != nil {
		return err
	}
	if _, err := s.out.Write(frame); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	if err := s.out.Flush(); err != nil {
		return fmt.Errorf("flush reply: %w", err)
	}
	s.collector.IncMessage(string(frame[:1]))
	return s.recorder.RecordMessage(string(frame[:len(frame)-1]))
}

func (s *Session) execute(cmd wire.Command) (wire.Message, error) {
	switch cmd := cmd.(type) {
	case wire.GetBitsCmd:
		return s.getBits(cmd)
	case wire.SetBitsCmd:
		return s.setBits(cmd)
	case wire.RunCmd:
		return s.run(cmd)
	case wire.ReadLogCmd:
		return s.readLog()
	case wire.SetTraceCmd:
		return s.setTrace(cmd)
	case wire.TickCmd:
		return s.tick(cmd)
	}
	return nil, fmt.Errorf("unhandled command type %T", cmd)
}

func (s *Session) getBits(cmd wire.GetBitsCmd) (wire.Message, error) {
	port, err := s.registry.Readable(cmd.Port)
	if err != nil {
		return nil, err
	}
	buf := bitvec.New(port.Width)
	port.ReadInto(buf.Data)
	text, err := bitvec.Encode(buf.Data, port.Width, cmd.Signed)
	if err != nil {
		return nil, err
	}
	return wire.BitsReply{Width: port.Width, Text: text}, nil
}

func (s *Session) setBits(cmd wire.SetBitsCmd) (wire.Message, error) {
	port, err := s.registry.Writable(cmd.Port)
	if err != nil {
		return nil, err
	}
	bits, err := bitvec.Decode(string(cmd.Value), port.Width,
		fmt.Sprintf("value for port %d", cmd.Port))
	if err != nil {
		return nil, err
	}
	port.Write(bits.Data)
	return wire.AckMsg{}, nil
}

func (s *Session) run(cmd wire.RunCmd) (wire.Message, error) {
	s.stepper.Advance(cmd.Steps)
	s.collector.AddSteps(int64(cmd.Steps))
	return wire.AckMsg{}, nil
}

// readLog ships the simulation log bytes appended since the previous
// read. The handle opens lazily on first use and keeps its offset
// across calls, so each reply carries only the delta.
func (s *Session) readLog() (wire.Message, error) {
	if s.logTail == nil {
		f, err := os.Open(s.env.SimulationLog)
		if err != nil {
			return nil, fmt.Errorf("open simulation log: %w", err)
		}
		s.logTail = f
	}
	data, err := io.ReadAll(s.logTail)
	if err != nil {
		return nil, fmt.Errorf("read simulation log: %w", err)
	}
	s.collector.AddLogBytes(int64(len(data)))
	return wire.LogReply{Data: data}, nil
}

// setTrace initializes the trace destination on the first enable,
// then flips tracing on or off. Disabling never initializes.
func (s *Session) setTrace(cmd wire.SetTraceCmd) (wire.Message, error) {
	if s.tracer == nil {
		return nil, fmt.Errorf("kernel does not support tracing")
	}
	if !cmd.Enable {
		s.tracer.DisableTrace()
		return wire.AckMsg{}, nil
	}
	if !s.traceReady {
		if err := s.tracer.InitTrace(s.env.SimulationTrace); err != nil {
			return nil, err
		}
		s.traceReady = true
	}
	s.tracer.EnableTrace()
	return wire.AckMsg{}, nil
}

func commandCode(line string) string {
	if line == "" {
		return "?"
	}
	return line[:1]
}
