// Package ports defines the boundary between the protocol engine and a
// simulation kernel: port resolution, time stepping, and tracing.
//
// The engine never sees kernel internals. It resolves a port id to a
// width plus an accessor, moves bytes through the accessor, and asks
// the kernel to advance simulated time. Buffers are little-endian and
// ByteCount-sized for the port width.
package ports

import "errors"

// Resolution failures. The session treats every one of them as fatal.
var (
	ErrUnknownPort = errors.New("unknown port id")
	ErrNotReadable = errors.New("port is not readable")
	ErrNotWritable = errors.New("port is not writable")
)

// ReadablePort exposes one readable port: a bit width plus an accessor
// filling dst with ceil(Width/8) little-endian bytes.
type ReadablePort struct {
	Width    int
	ReadInto func(dst []byte)
}

// WritablePort exposes one writable port. Kernels mask written bytes
// to the port width before applying them.
type WritablePort struct {
	Width int
	Write func(src []byte)
}

// Registry resolves port ids to accessors.
//
// Implementations return ErrUnknownPort, ErrNotReadable or
// ErrNotWritable (optionally wrapped) so callers can classify
// failures with errors.Is.
type Registry interface {
	Readable(id int32) (ReadablePort, error)
	Writable(id int32) (WritablePort, error)
}

// Stepper advances simulated time. Advance blocks until the kernel has
// settled; the engine never calls it concurrently.
type Stepper interface {
	Advance(steps int32)
}

// Tracer is implemented by kernels that can record waveforms. A kernel
// without a Tracer makes the trace command fail.
type Tracer interface {
	// InitTrace prepares the trace destination. Called at most once
	// per session, on the first enable.
	InitTrace(path string) error
	EnableTrace()
	DisableTrace()
}
