package messages

import (
	"fmt"

	"github.com/opensim-go/viewercircuit/pkg/bitio"
	"github.com/opensim-go/viewercircuit/pkg/types"
)

// Message numbers for the hand-written catalog. Values are assigned to
// match the wire shapes spec.md's decode examples exercise (UseCircuitCode
// decodes from the four bytes FF FF 00 01); they do not need to match any
// particular deployed numbering as long as they're internally consistent
// and collision-free within this catalog.
var (
	codeUseCircuitCode        = Code{Frequency: FrequencyLow, Number: 0x0001}
	codeCompleteAgentMovement = Code{Frequency: FrequencyLow, Number: 0x00F9}
	codePacketAck             = Code{Frequency: FrequencyFixed, Number: 0xFFFB}
	codeStartPingCheck        = Code{Frequency: FrequencyHigh, Number: 1}
	codeCompletePingCheck     = Code{Frequency: FrequencyHigh, Number: 2}
	codeAgentUpdate           = Code{Frequency: FrequencyHigh, Number: 4}
	codeChatFromViewer        = Code{Frequency: FrequencyLow, Number: 80}
	codeRegionHandshakeReply  = Code{Frequency: FrequencyLow, Number: 149}
	codeLayerData             = Code{Frequency: FrequencyHigh, Number: 11}
	codeObjectUpdate          = Code{Frequency: FrequencyHigh, Number: 12}
)

// UseCircuitCode is the first reliable message a viewer sends on a new
// circuit, authenticating it against the session the login response
// handed out.
type UseCircuitCode struct {
	CircuitCode uint32
	SessionID   types.UUID
	AgentID     types.UUID
}

func (m *UseCircuitCode) Code() Code { return codeUseCircuitCode }

func (m *UseCircuitCode) ReadBody(r *bitio.ByteReader) error {
	v, err := r.ReadU32(bodyOrder)
	if err != nil {
		return fmt.Errorf("messages: UseCircuitCode.CircuitCode: %w", err)
	}
	m.CircuitCode = v
	if m.SessionID, err = readUUID(r); err != nil {
		return fmt.Errorf("messages: UseCircuitCode.SessionID: %w", err)
	}
	if m.AgentID, err = readUUID(r); err != nil {
		return fmt.Errorf("messages: UseCircuitCode.AgentID: %w", err)
	}
	return nil
}

func (m *UseCircuitCode) WriteBody(w *bitio.ByteWriter) {
	w.WriteU32(bodyOrder, m.CircuitCode)
	writeUUID(w, m.SessionID)
	writeUUID(w, m.AgentID)
}

// CompleteAgentMovement tells the simulator the viewer has finished
// applying the region handshake and is ready to be placed in-world.
type CompleteAgentMovement struct {
	AgentID     types.UUID
	SessionID   types.UUID
	CircuitCode uint32
}

func (m *CompleteAgentMovement) Code() Code { return codeCompleteAgentMovement }

func (m *CompleteAgentMovement) ReadBody(r *bitio.ByteReader) error {
	var err error
	if m.AgentID, err = readUUID(r); err != nil {
		return fmt.Errorf("messages: CompleteAgentMovement.AgentID: %w", err)
	}
	if m.SessionID, err = readUUID(r); err != nil {
		return fmt.Errorf("messages: CompleteAgentMovement.SessionID: %w", err)
	}
	if m.CircuitCode, err = r.ReadU32(bodyOrder); err != nil {
		return fmt.Errorf("messages: CompleteAgentMovement.CircuitCode: %w", err)
	}
	return nil
}

func (m *CompleteAgentMovement) WriteBody(w *bitio.ByteWriter) {
	writeUUID(w, m.AgentID)
	writeUUID(w, m.SessionID)
	w.WriteU32(bodyOrder, m.CircuitCode)
}

// PacketAck carries acknowledgements for reliably-sent packets as a
// message body (distinct from the appended-ack trailer of §4.G, which
// piggybacks acks on any outgoing packet). SequenceNumber fields stay
// big-endian, matching the header's own sequence number encoding.
type PacketAck struct {
	Packets []types.SequenceNumber
}

func (m *PacketAck) Code() Code { return codePacketAck }

func (m *PacketAck) ReadBody(r *bitio.ByteReader) error {
	count, err := r.ReadByte()
	if err != nil {
		return fmt.Errorf("messages: PacketAck.count: %w", err)
	}
	m.Packets = make([]types.SequenceNumber, 0, count)
	for i := 0; i < int(count); i++ {
		v, err := r.ReadU32(seqOrder)
		if err != nil {
			return fmt.Errorf("messages: PacketAck.Packets[%d]: %w", i, err)
		}
		m.Packets = append(m.Packets, types.SequenceNumber(v))
	}
	return nil
}

func (m *PacketAck) WriteBody(w *bitio.ByteWriter) {
	if len(m.Packets) > 255 {
		panic("messages: PacketAck cannot carry more than 255 acks in one body")
	}
	w.WriteByte(byte(len(m.Packets)))
	for _, seq := range m.Packets {
		w.WriteU32(seqOrder, uint32(seq))
	}
}

// StartPingCheck is sent periodically to measure round-trip time and to
// report the oldest packet the sender has not yet seen acknowledged.
type StartPingCheck struct {
	PingID        byte
	OldestUnacked uint32
}

func (m *StartPingCheck) Code() Code { return codeStartPingCheck }

func (m *StartPingCheck) ReadBody(r *bitio.ByteReader) error {
	var err error
	if m.PingID, err = r.ReadByte(); err != nil {
		return fmt.Errorf("messages: StartPingCheck.PingID: %w", err)
	}
	if m.OldestUnacked, err = r.ReadU32(bodyOrder); err != nil {
		return fmt.Errorf("messages: StartPingCheck.OldestUnacked: %w", err)
	}
	return nil
}

func (m *StartPingCheck) WriteBody(w *bitio.ByteWriter) {
	w.WriteByte(m.PingID)
	w.WriteU32(bodyOrder, m.OldestUnacked)
}

// CompletePingCheck is the reply to StartPingCheck, echoing its PingID.
type CompletePingCheck struct {
	PingID byte
}

func (m *CompletePingCheck) Code() Code { return codeCompletePingCheck }

func (m *CompletePingCheck) ReadBody(r *bitio.ByteReader) error {
	var err error
	if m.PingID, err = r.ReadByte(); err != nil {
		return fmt.Errorf("messages: CompletePingCheck.PingID: %w", err)
	}
	return nil
}

func (m *CompletePingCheck) WriteBody(w *bitio.ByteWriter) {
	w.WriteByte(m.PingID)
}
