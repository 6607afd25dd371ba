// Package simkern is a reference simulation kernel: an in-process
// stand-in for a compiled hardware simulation, driven through the
// ports interfaces. It gives the binaries and integration tests a
// backend with observable, deterministic behavior.
//
// A kernel is built from a design manifest, a YAML document declaring
// the ports of the simulated design. Manifests pass through
// environment expansion before parsing, so widths and names can come
// from the environment.
package simkern

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tapeout-io/drover/config"
)

// ErrInvalidDesign marks design manifest validation failures.
var ErrInvalidDesign = errors.New("invalid design")

// Direction declares which side of the wire may touch a port.
type Direction string

const (
	// DirectionIn ports are written by the driver.
	DirectionIn Direction = "in"
	// DirectionOut ports are read by the driver.
	DirectionOut Direction = "out"
	// DirectionInOut ports allow both.
	DirectionInOut Direction = "inout"
)

func (d Direction) readable() bool { return d == DirectionOut || d == DirectionInOut }
func (d Direction) writable() bool { return d == DirectionIn || d == DirectionInOut }

// Kind selects a port's behavior inside the kernel.
type Kind string

const (
	// KindRegister holds whatever was last written to it.
	KindRegister Kind = "register"
	// KindCounter increments once per advanced time step.
	KindCounter Kind = "counter"
	// KindClock is a register that counts its own toggles.
	KindClock Kind = "clock"
)

// PortSpec declares one port of a design.
type PortSpec struct {
	Name      string    `yaml:"name"`
	ID        int32     `yaml:"id"`
	Width     int       `yaml:"width"`
	Direction Direction `yaml:"direction"`
	Kind      Kind      `yaml:"kind"`
}

// Design is a parsed design manifest.
type Design struct {
	Name  string     `yaml:"design"`
	Ports []PortSpec `yaml:"ports"`
}

// Load reads a design manifest, expands ${VAR} references, and parses
// it.
func Load(path string) (*Design, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("design manifest not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read design manifest %q: %w", path, err)
	}
	return Parse([]byte(config.ExpandEnv(string(data))))
}

// Parse unmarshals and validates a design manifest.
func Parse(data []byte) (*Design, error) {
	var d Design
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("invalid design YAML: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Validate checks the declaration rules: a named design with at least
// one port, unique ids and names, known directions and kinds, counter
// widths that fit the kernel's 64-bit accumulators, counters readable
// and clocks writable.
func (d *Design) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: design name is required", ErrInvalidDesign)
	}
	if len(d.Ports) == 0 {
		return fmt.Errorf("%w: at least one port is required", ErrInvalidDesign)
	}
	ids := make(map[int32]string, len(d.Ports))
	names := make(map[string]bool, len(d.Ports))
	for _, p := range d.Ports {
		if p.Name == "" {
			return fmt.Errorf("%w: port %d has no name", ErrInvalidDesign, p.ID)
		}
		if p.Width < 1 {
			return fmt.Errorf("%w: port %q width must be at least 1, got %d", ErrInvalidDesign, p.Name, p.Width)
		}
		if prev, dup := ids[p.ID]; dup {
			return fmt.Errorf("%w: ports %q and %q share id %d", ErrInvalidDesign, prev, p.Name, p.ID)
		}
		ids[p.ID] = p.Name
		if names[p.Name] {
			return fmt.Errorf("%w: duplicate port name %q", ErrInvalidDesign, p.Name)
		}
		names[p.Name] = true
		switch p.Direction {
		case DirectionIn, DirectionOut, DirectionInOut:
		default:
			return fmt.Errorf("%w: port %q direction %q is not in, out, or inout", ErrInvalidDesign, p.Name, p.Direction)
		}
		switch p.Kind {
		case KindRegister:
		case KindCounter:
			if p.Width > 64 {
				return fmt.Errorf("%w: counter %q width must not exceed 64, got %d", ErrInvalidDesign, p.Name, p.Width)
			}
			if p.Direction != DirectionOut {
				return fmt.Errorf("%w: counter %q direction must be out", ErrInvalidDesign, p.Name)
			}
		case KindClock:
			if p.Direction != DirectionIn {
				return fmt.Errorf("%w: clock %q direction must be in", ErrInvalidDesign, p.Name)
			}
		default:
			return fmt.Errorf("%w: port %q kind %q is not register, counter, or clock", ErrInvalidDesign, p.Name, p.Kind)
		}
	}
	return nil
}
