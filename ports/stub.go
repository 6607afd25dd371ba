package ports

import "fmt"

// StubPort is one in-memory port backing a StubRegistry.
// Reads and Writes count accessor calls for test assertions.
type StubPort struct {
	Width     int
	Buf       []byte
	ReadOnly  bool
	WriteOnly bool

	Reads  int
	Writes int
}

// StubRegistry is an in-memory Registry for tests.
type StubRegistry struct {
	Ports map[int32]*StubPort
}

// NewStubRegistry creates an empty stub registry.
func NewStubRegistry() *StubRegistry {
	return &StubRegistry{Ports: make(map[int32]*StubPort)}
}

// Add registers a read-write port of the given width and returns it
// for direct buffer manipulation.
func (r *StubRegistry) Add(id int32, width int) *StubPort {
	p := &StubPort{Width: width, Buf: make([]byte, (width+7)/8)}
	r.Ports[id] = p
	return p
}

// Readable resolves a readable accessor.
func (r *StubRegistry) Readable(id int32) (ReadablePort, error) {
	p, ok := r.Ports[id]
	if !ok {
		return ReadablePort{}, fmt.Errorf("port %d: %w", id, ErrUnknownPort)
	}
	if p.WriteOnly {
		return ReadablePort{}, fmt.Errorf("port %d: %w", id, ErrNotReadable)
	}
	return ReadablePort{
		Width: p.Width,
		ReadInto: func(dst []byte) {
			p.Reads++
			copy(dst, p.Buf)
		},
	}, nil
}

// Writable resolves a writable accessor.
func (r *StubRegistry) Writable(id int32) (WritablePort, error) {
	p, ok := r.Ports[id]
	if !ok {
		return WritablePort{}, fmt.Errorf("port %d: %w", id, ErrUnknownPort)
	}
	if p.ReadOnly {
		return WritablePort{}, fmt.Errorf("port %d: %w", id, ErrNotWritable)
	}
	return WritablePort{
		Width: p.Width,
		Write: func(src []byte) {
			p.Writes++
			copy(p.Buf, src)
		},
	}, nil
}

// StubStepper records Advance calls. OnAdvance, when set, runs after
// each call so tests can mutate stub ports as time passes.
type StubStepper struct {
	Calls     []int32
	Total     int64
	OnAdvance func(steps int32)
}

// Advance records the call.
func (s *StubStepper) Advance(steps int32) {
	s.Calls = append(s.Calls, steps)
	s.Total += int64(steps)
	if s.OnAdvance != nil {
		s.OnAdvance(steps)
	}
}

// StubTracer records trace lifecycle calls.
type StubTracer struct {
	InitPath string
	InitErr  error

	Inits    int
	Enables  int
	Disables int
}

// InitTrace records the destination and returns InitErr.
func (s *StubTracer) InitTrace(path string) error {
	s.Inits++
	s.InitPath = path
	return s.InitErr
}

// EnableTrace records an enable.
func (s *StubTracer) EnableTrace() { s.Enables++ }

// DisableTrace records a disable.
func (s *StubTracer) DisableTrace() { s.Disables++ }
