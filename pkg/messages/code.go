// Package messages implements the message catalog: a closed sum over the
// protocol's named message types (§3 MessageInstance), with frequency-class
// numbering per §4.G and hand-written wire read/write for the handful of
// messages the core circuit itself needs to speak.
//
// A full catalog (~700 variants) would be generated from an IDL per the
// §9 design note; this module hand-writes only the messages the circuit
// core uses directly (UseCircuitCode, CompleteAgentMovement, PacketAck,
// StartPingCheck/CompletePingCheck) plus a handful of additional messages
// used to exercise the dispatcher and terrain decoder end to end
// (AgentUpdate, ChatFromViewer, RegionHandshakeReply, LayerData,
// ObjectUpdate). Integer/float body fields use little-endian encoding,
// matching the teacher's `writeUint32LE`/`writeFloat32LE` convention in
// `source/protocol/rpc.go`; SequenceNumber fields (as carried inside
// PacketAck) stay big-endian, matching the packet header's own sequence
// number encoding in §4.G.
package messages

import (
	"encoding/binary"
	"fmt"

	"github.com/opensim-go/viewercircuit/pkg/bitio"
)

// Frequency is the frequency class of a message number, which determines
// how many bytes its code occupies on the wire.
type Frequency int

const (
	FrequencyHigh Frequency = iota
	FrequencyMedium
	FrequencyLow
	FrequencyFixed
)

func (f Frequency) String() string {
	switch f {
	case FrequencyHigh:
		return "high"
	case FrequencyMedium:
		return "medium"
	case FrequencyLow:
		return "low"
	case FrequencyFixed:
		return "fixed"
	default:
		return "unknown"
	}
}

// Code identifies a message's number and frequency class together, since
// the same numeric value can in principle appear in different classes.
type Code struct {
	Frequency Frequency
	Number    uint16
}

// ReadCode decodes a message number per §4.G: a high-frequency code is a
// single non-0xFF byte; a medium-frequency code is 0xFF followed by a
// non-0xFF byte; a low/fixed-frequency code is 0xFF 0xFF followed by two
// more bytes forming the number. Low and fixed share the same wire shape;
// the catalog itself decides which numbers are "fixed".
func ReadCode(r *bitio.ByteReader) (Code, error) {
	b1, err := r.ReadByte()
	if err != nil {
		return Code{}, fmt.Errorf("messages: read message number: %w", err)
	}
	if b1 != 0xFF {
		return Code{Frequency: FrequencyHigh, Number: uint16(b1)}, nil
	}

	b2, err := r.ReadByte()
	if err != nil {
		return Code{}, fmt.Errorf("messages: read message number: %w", err)
	}
	if b2 != 0xFF {
		return Code{Frequency: FrequencyMedium, Number: uint16(b2)}, nil
	}

	hi, err := r.ReadByte()
	if err != nil {
		return Code{}, fmt.Errorf("messages: read message number: %w", err)
	}
	lo, err := r.ReadByte()
	if err != nil {
		return Code{}, fmt.Errorf("messages: read message number: %w", err)
	}
	return Code{Frequency: FrequencyLow, Number: uint16(hi)<<8 | uint16(lo)}, nil
}

// WriteCode writes the code in its wire shape.
func WriteCode(w *bitio.ByteWriter, c Code) {
	switch c.Frequency {
	case FrequencyHigh:
		w.WriteByte(byte(c.Number))
	case FrequencyMedium:
		w.WriteByte(0xFF)
		w.WriteByte(byte(c.Number))
	case FrequencyLow, FrequencyFixed:
		w.WriteByte(0xFF)
		w.WriteByte(0xFF)
		w.WriteU16(binary.BigEndian, c.Number)
	default:
		panic(fmt.Sprintf("messages: unknown frequency %v", c.Frequency))
	}
}
