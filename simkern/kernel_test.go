package simkern

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tapeout-io/drover/iox"
	"github.com/tapeout-io/drover/ports"
)

func newTestKernel(t *testing.T) (*Kernel, string) {
	t.Helper()
	design, err := DefaultDesign()
	if err != nil {
		t.Fatalf("DefaultDesign returned error: %v", err)
	}
	logPath := filepath.Join(t.TempDir(), "sim.log")
	k, err := NewKernel(design, logPath)
	if err != nil {
		t.Fatalf("NewKernel returned error: %v", err)
	}
	t.Cleanup(iox.CloseFunc(k))
	return k, logPath
}

func TestKernel_RegisterWriteRead(t *testing.T) {
	k, _ := newTestKernel(t)

	w, err := k.Writable(3)
	if err != nil {
		t.Fatalf("Writable(3) returned error: %v", err)
	}
	w.Write([]byte{0xAB})

	r, err := k.Readable(3)
	if err != nil {
		t.Fatalf("Readable(3) returned error: %v", err)
	}
	buf := make([]byte, 1)
	r.ReadInto(buf)
	if buf[0] != 0xAB {
		t.Errorf("scratch = %02X, want AB", buf[0])
	}
}

func TestKernel_WriteMasksToWidth(t *testing.T) {
	k, _ := newTestKernel(t)

	// reset is a 1-bit input; padding bits must not persist.
	w, err := k.Writable(1)
	if err != nil {
		t.Fatalf("Writable(1) returned error: %v", err)
	}
	w.Write([]byte{0xFF})
	if got := k.byID[1].buf[0]; got != 0x01 {
		t.Errorf("reset buffer = %02X, want 01", got)
	}
}

func TestKernel_Directions(t *testing.T) {
	k, _ := newTestKernel(t)

	if _, err := k.Readable(0); !errors.Is(err, ports.ErrNotReadable) {
		t.Errorf("Readable(clock) = %v, want ErrNotReadable", err)
	}
	if _, err := k.Writable(2); !errors.Is(err, ports.ErrNotWritable) {
		t.Errorf("Writable(count) = %v, want ErrNotWritable", err)
	}
	if _, err := k.Readable(9); !errors.Is(err, ports.ErrUnknownPort) {
		t.Errorf("Readable(9) = %v, want ErrUnknownPort", err)
	}
}

func TestKernel_CounterCountsSteps(t *testing.T) {
	k, _ := newTestKernel(t)

	k.Advance(5)
	k.Advance(3)

	r, err := k.Readable(2)
	if err != nil {
		t.Fatalf("Readable(2) returned error: %v", err)
	}
	buf := make([]byte, 2)
	r.ReadInto(buf)
	if buf[0] != 0x08 || buf[1] != 0x00 {
		t.Errorf("count = % 02X, want 08 00", buf)
	}
	if k.Time() != 8 {
		t.Errorf("Time = %d, want 8", k.Time())
	}
}

func TestKernel_AdvanceNeverRewinds(t *testing.T) {
	k, _ := newTestKernel(t)

	k.Advance(4)
	k.Advance(-7)
	if k.Time() != 4 {
		t.Errorf("Time = %d, want 4", k.Time())
	}
	if got := k.byID[2].count; got != 4 {
		t.Errorf("count = %d, want 4", got)
	}
}

func TestKernel_ClockToggles(t *testing.T) {
	k, _ := newTestKernel(t)

	w, err := k.Writable(0)
	if err != nil {
		t.Fatalf("Writable(0) returned error: %v", err)
	}
	w.Write([]byte{0x01})
	w.Write([]byte{0x01})
	w.Write([]byte{0x00})

	if got := k.byID[0].toggles; got != 2 {
		t.Errorf("toggles = %d, want 2", got)
	}
}

func TestKernel_SimulationLog(t *testing.T) {
	k, logPath := newTestKernel(t)

	k.Advance(2)
	k.Advance(3)
	if err := k.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	got, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	want := "t=2 advance=2\nt=5 advance=3\n"
	if string(got) != want {
		t.Errorf("log = %q, want %q", got, want)
	}
}

func TestKernel_Trace(t *testing.T) {
	k, _ := newTestKernel(t)
	tracePath := filepath.Join(t.TempDir(), "trace")

	if err := k.InitTrace(tracePath); err != nil {
		t.Fatalf("InitTrace returned error: %v", err)
	}
	k.EnableTrace()

	w, err := k.Writable(3)
	if err != nil {
		t.Fatalf("Writable(3) returned error: %v", err)
	}
	w.Write([]byte{0x2A})
	k.Advance(1)

	k.DisableTrace()
	w.Write([]byte{0x00})
	k.Advance(1)

	if err := k.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	got, err := os.ReadFile(tracePath)
	if err != nil {
		t.Fatalf("ReadFile returned error: %v", err)
	}
	want := "t=0 scratch=2A\nt=1 count=0001\n"
	if string(got) != want {
		t.Errorf("trace = %q, want %q", got, want)
	}
}

func TestKernel_InitTraceTwice(t *testing.T) {
	k, _ := newTestKernel(t)
	dir := t.TempDir()

	if err := k.InitTrace(filepath.Join(dir, "a")); err != nil {
		t.Fatalf("first InitTrace returned error: %v", err)
	}
	if err := k.InitTrace(filepath.Join(dir, "b")); err == nil {
		t.Error("second InitTrace succeeded, want error")
	}
}
