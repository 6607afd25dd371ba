package simkern

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/tapeout-io/drover/bitvec"
	"github.com/tapeout-io/drover/iox"
	"github.com/tapeout-io/drover/ports"
)

// Kernel simulates one Design. It implements ports.Registry,
// ports.Stepper and ports.Tracer.
//
// The kernel is single-threaded, like the dispatch loop driving it.
// Log and trace write failures never interrupt simulation; the first
// one sticks and surfaces from Close.
type Kernel struct {
	design *Design
	byID   map[int32]*port
	order  []*port // ascending id, for deterministic log and trace lines

	time    int64
	log     *os.File
	trace   *os.File
	tracing bool
	err     error
}

var _ ports.Registry = (*Kernel)(nil)
var _ ports.Stepper = (*Kernel)(nil)
var _ ports.Tracer = (*Kernel)(nil)

// port is one simulated port. Registers and clocks store their value
// in buf; counters derive theirs from count at read time.
type port struct {
	spec    PortSpec
	buf     []byte
	count   uint64
	toggles uint64
}

// NewKernel builds a kernel for the design and creates its simulation
// log, truncating any previous one, so the log exists before the
// first advance.
func NewKernel(design *Design, logPath string) (*Kernel, error) {
	logFile, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create simulation log: %w", err)
	}
	k := &Kernel{
		design: design,
		byID:   make(map[int32]*port, len(design.Ports)),
		log:    logFile,
	}
	for _, spec := range design.Ports {
		p := &port{spec: spec, buf: bitvec.New(spec.Width).Data}
		k.byID[spec.ID] = p
		k.order = append(k.order, p)
	}
	sort.Slice(k.order, func(i, j int) bool { return k.order[i].spec.ID < k.order[j].spec.ID })
	return k, nil
}

// DesignName reports the name of the simulated design.
func (k *Kernel) DesignName() string { return k.design.Name }

// Time reports elapsed simulated time in steps.
func (k *Kernel) Time() int64 { return k.time }

// Readable implements ports.Registry.
func (k *Kernel) Readable(id int32) (ports.ReadablePort, error) {
	p, ok := k.byID[id]
	if !ok {
		return ports.ReadablePort{}, fmt.Errorf("port %d: %w", id, ports.ErrUnknownPort)
	}
	if !p.spec.Direction.readable() {
		return ports.ReadablePort{}, fmt.Errorf("port %d (%s): %w", id, p.spec.Name, ports.ErrNotReadable)
	}
	return ports.ReadablePort{Width: p.spec.Width, ReadInto: p.read}, nil
}

// Writable implements ports.Registry.
func (k *Kernel) Writable(id int32) (ports.WritablePort, error) {
	p, ok := k.byID[id]
	if !ok {
		return ports.WritablePort{}, fmt.Errorf("port %d: %w", id, ports.ErrUnknownPort)
	}
	if !p.spec.Direction.writable() {
		return ports.WritablePort{}, fmt.Errorf("port %d (%s): %w", id, p.spec.Name, ports.ErrNotWritable)
	}
	return ports.WritablePort{
		Width: p.spec.Width,
		Write: func(src []byte) { k.write(p, src) },
	}, nil
}

// Advance implements ports.Stepper. Time never moves backward; steps
// at or below zero log the call and change nothing else. Each call
// appends one line to the simulation log, and counter changes land in
// the trace when tracing is on.
func (k *Kernel) Advance(steps int32) {
	if steps < 0 {
		steps = 0
	}
	k.time += int64(steps)
	if _, err := fmt.Fprintf(k.log, "t=%d advance=%d\n", k.time, steps); err != nil {
		k.fail(err)
	}
	if steps == 0 {
		return
	}
	for _, p := range k.order {
		if p.spec.Kind != KindCounter {
			continue
		}
		p.count += uint64(steps)
		k.traceRecord(p)
	}
}

// InitTrace implements ports.Tracer.
func (k *Kernel) InitTrace(path string) error {
	if k.trace != nil {
		return fmt.Errorf("trace already initialized")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trace: %w", err)
	}
	k.trace = f
	return nil
}

// EnableTrace implements ports.Tracer.
func (k *Kernel) EnableTrace() { k.tracing = true }

// DisableTrace implements ports.Tracer.
func (k *Kernel) DisableTrace() { k.tracing = false }

// Close closes the log and trace files. A sticky write failure takes
// precedence over close errors.
func (k *Kernel) Close() error {
	var closers []io.Closer
	if k.log != nil {
		closers = append(closers, k.log)
	}
	if k.trace != nil {
		closers = append(closers, k.trace)
	}
	err := iox.CloseAll(closers...)
	if k.err != nil {
		return k.err
	}
	return err
}

// write applies src to a register or clock port, masked to the port
// width so padding bits never persist. A clock port counts every
// value change as a toggle.
func (k *Kernel) write(p *port, src []byte) {
	masked := make([]byte, len(p.buf))
	copy(masked, src)
	if rem := p.spec.Width % 8; rem != 0 {
		masked[len(masked)-1] &= byte(1<<uint(rem)) - 1
	}
	if p.spec.Kind == KindClock && !bytes.Equal(p.buf, masked) {
		p.toggles++
	}
	copy(p.buf, masked)
	k.traceRecord(p)
}

// read fills dst with the port's current value.
func (p *port) read(dst []byte) {
	copy(dst, p.value())
}

// value returns the port's canonical little-endian buffer.
func (p *port) value() []byte {
	if p.spec.Kind != KindCounter {
		return p.buf
	}
	var scratch [8]byte
	binary.LittleEndian.PutUint64(scratch[:], p.count&widthMask(p.spec.Width))
	copy(p.buf, scratch[:len(p.buf)])
	return p.buf
}

// traceRecord appends one change line to the trace when tracing is on.
func (k *Kernel) traceRecord(p *port) {
	if !k.tracing || k.trace == nil {
		return
	}
	text, err := bitvec.Encode(p.value(), p.spec.Width, false)
	if err != nil {
		k.fail(err)
		return
	}
	if _, err := fmt.Fprintf(k.trace, "t=%d %s=%s\n", k.time, p.spec.Name, text); err != nil {
		k.fail(err)
	}
}

func (k *Kernel) fail(err error) {
	if k.err == nil {
		k.err = err
	}
}

// widthMask returns the low-bit mask for a width of at most 64.
func widthMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return 1<<uint(width) - 1
}
