package session

import (
	"fmt"

	"github.com/tapeout-io/drover/bitvec"
	"github.com/tapeout-io/drover/ports"
	"github.com/tapeout-io/drover/wire"
)

// tick drives the clock protocol: write the in-phase value, advance,
// write the out-of-phase value, advance, for up to MaxCycles full
// cycles. An armed sentinel is checked before each cycle's first
// toggle, so a sentinel that already matches costs zero kernel calls.
// The reply is the executed cycle count as an unsigned 64-bit value.
func (s *Session) tick(cmd wire.TickCmd) (wire.Message, error) {
	clock, err := s.registry.Writable(cmd.Port)
	if err != nil {
		return nil, err
	}
	in, err := bitvec.Decode(string(cmd.InValue), clock.Width,
		fmt.Sprintf("in-phase value for port %d", cmd.Port))
	if err != nil {
		return nil, err
	}
	out, err := bitvec.Decode(string(cmd.OutValue), clock.Width,
		fmt.Sprintf("out-of-phase value for port %d", cmd.Port))
	if err != nil {
		return nil, err
	}

	var sentinel ports.ReadablePort
	var want, probe bitvec.Bits
	armed := cmd.Sentinel != nil
	if armed {
		sentinel, err = s.registry.Readable(cmd.Sentinel.Port)
		if err != nil {
			return nil, err
		}
		want, err = bitvec.Decode(string(cmd.Sentinel.Value), sentinel.Width,
			fmt.Sprintf("sentinel value for port %d", cmd.Sentinel.Port))
		if err != nil {
			return nil, err
		}
		probe = bitvec.New(sentinel.Width)
	}

	var executed int64
	for i := int32(0); i < cmd.MaxCycles; i++ {
		if armed {
			sentinel.ReadInto(probe.Data)
			if probe.Equal(want) {
				break
			}
		}
		clock.Write(in.Data)
		s.stepper.Advance(cmd.StepsPerPhase)
		clock.Write(out.Data)
		s.stepper.Advance(cmd.StepsPerPhase)
		executed++
		s.collector.AddSteps(2 * int64(cmd.StepsPerPhase))
	}
	s.collector.AddCycles(executed)

	text, err := bitvec.Encode(bitvec.FromUint64(uint64(executed)).Data, 64, false)
	if err != nil {
		return nil, err
	}
	return wire.BitsReply{Width: 64, Text: text}, nil
}
