package messages

import (
	"encoding/binary"
	"fmt"

	"github.com/opensim-go/viewercircuit/pkg/bitio"
	"github.com/opensim-go/viewercircuit/pkg/types"
)

// bodyOrder is the byte order used for multi-byte body fields other than
// SequenceNumber, matching the teacher's `writeUint32LE`/`writeFloat32LE`
// convention in `source/protocol/rpc.go`. SequenceNumber fields (as carried
// inside PacketAck) are the one exception and stay big-endian, matching the
// header's own sequence number field.
var bodyOrder = binary.LittleEndian

// seqOrder is the byte order for SequenceNumber fields embedded in a
// message body (as opposed to the frame header), kept big-endian to
// match §4.G's header encoding.
var seqOrder = binary.BigEndian

// MessageInstance is implemented by every message body the catalog knows
// how to read and write. The packet codec handles the surrounding frame
// (flags, sequence number, message number); a MessageInstance only
// concerns itself with the bytes after its own message number.
type MessageInstance interface {
	// Code reports the message's wire number and frequency class.
	Code() Code
	// ReadBody decodes the message body from r. r is positioned just past
	// the message number.
	ReadBody(r *bitio.ByteReader) error
	// WriteBody encodes the message body to w, not including the message
	// number itself.
	WriteBody(w *bitio.ByteWriter)
}

// Registry maps a message's Code to a constructor for a zero-valued
// instance of its type, used by the packet codec and dispatcher to decode
// an inbound message whose number they've just read.
type Registry struct {
	factories map[Code]func() MessageInstance
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[Code]func() MessageInstance)}
}

// Register adds a constructor for the message identified by code. It
// panics on a duplicate registration, since that always indicates a
// catalog bug rather than a runtime condition.
func (reg *Registry) Register(code Code, factory func() MessageInstance) {
	if _, exists := reg.factories[code]; exists {
		panic(fmt.Sprintf("messages: duplicate registration for code %+v", code))
	}
	reg.factories[code] = factory
}

// New constructs a zero-valued instance for code, or reports false if no
// message is registered under that code. Low and fixed codes share a wire
// shape and ReadCode reports both as low, so a low code with no
// registration of its own resolves to a fixed registration of the same
// number.
func (reg *Registry) New(code Code) (MessageInstance, bool) {
	factory, ok := reg.factories[code]
	if !ok && code.Frequency == FrequencyLow {
		factory, ok = reg.factories[Code{Frequency: FrequencyFixed, Number: code.Number}]
	}
	if !ok {
		return nil, false
	}
	return factory(), true
}

// NewCoreRegistry returns a registry populated with the messages this
// module hand-writes: the handful the circuit core speaks directly, plus
// a supplemental set used to exercise the dispatcher and terrain decoder.
func NewCoreRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(codeUseCircuitCode, func() MessageInstance { return &UseCircuitCode{} })
	reg.Register(codeCompleteAgentMovement, func() MessageInstance { return &CompleteAgentMovement{} })
	reg.Register(codePacketAck, func() MessageInstance { return &PacketAck{} })
	reg.Register(codeStartPingCheck, func() MessageInstance { return &StartPingCheck{} })
	reg.Register(codeCompletePingCheck, func() MessageInstance { return &CompletePingCheck{} })
	reg.Register(codeAgentUpdate, func() MessageInstance { return &AgentUpdate{} })
	reg.Register(codeChatFromViewer, func() MessageInstance { return &ChatFromViewer{} })
	reg.Register(codeRegionHandshakeReply, func() MessageInstance { return &RegionHandshakeReply{} })
	reg.Register(codeLayerData, func() MessageInstance { return &LayerData{} })
	reg.Register(codeObjectUpdate, func() MessageInstance { return &ObjectUpdate{} })
	return reg
}

func readUUID(r *bitio.ByteReader) (types.UUID, error) {
	b, err := r.ReadBytes(16)
	if err != nil {
		return types.Nil, err
	}
	return types.UUIDFromBytes(b)
}

func writeUUID(w *bitio.ByteWriter, u types.UUID) {
	b, _ := u.MarshalBinary()
	w.WriteBytes(b)
}

func readString8(r *bitio.ByteReader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeString8(w *bitio.ByteWriter, s string) {
	if len(s) > 255 {
		s = s[:255]
	}
	w.WriteByte(byte(len(s)))
	w.WriteBytes([]byte(s))
}

func readString16(r *bitio.ByteReader) (string, error) {
	n, err := r.ReadU16(bodyOrder)
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeString16(w *bitio.ByteWriter, s string) {
	w.WriteU16(bodyOrder, uint16(len(s)))
	w.WriteBytes([]byte(s))
}
