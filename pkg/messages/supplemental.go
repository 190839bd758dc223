package messages

import (
	"fmt"

	"github.com/opensim-go/viewercircuit/pkg/bitio"
	"github.com/opensim-go/viewercircuit/pkg/types"
)

// AgentUpdate is sent at a high rate by the viewer to report camera and
// movement control state. Only the fields the dispatcher's sample handler
// exercises are modeled; a full catalog entry would carry several more.
type AgentUpdate struct {
	AgentID      types.UUID
	SessionID    types.UUID
	BodyRotation [4]float32
	ControlFlags uint32
	Flags        byte
}

func (m *AgentUpdate) Code() Code { return codeAgentUpdate }

func (m *AgentUpdate) ReadBody(r *bitio.ByteReader) error {
	var err error
	if m.AgentID, err = readUUID(r); err != nil {
		return fmt.Errorf("messages: AgentUpdate.AgentID: %w", err)
	}
	if m.SessionID, err = readUUID(r); err != nil {
		return fmt.Errorf("messages: AgentUpdate.SessionID: %w", err)
	}
	for i := range m.BodyRotation {
		if m.BodyRotation[i], err = r.ReadF32(bodyOrder); err != nil {
			return fmt.Errorf("messages: AgentUpdate.BodyRotation[%d]: %w", i, err)
		}
	}
	if m.ControlFlags, err = r.ReadU32(bodyOrder); err != nil {
		return fmt.Errorf("messages: AgentUpdate.ControlFlags: %w", err)
	}
	if m.Flags, err = r.ReadByte(); err != nil {
		return fmt.Errorf("messages: AgentUpdate.Flags: %w", err)
	}
	return nil
}

func (m *AgentUpdate) WriteBody(w *bitio.ByteWriter) {
	writeUUID(w, m.AgentID)
	writeUUID(w, m.SessionID)
	for _, f := range m.BodyRotation {
		w.WriteF32(bodyOrder, f)
	}
	w.WriteU32(bodyOrder, m.ControlFlags)
	w.WriteByte(m.Flags)
}

// ChatFromViewer carries local chat typed by the user.
type ChatFromViewer struct {
	Message string
	Type    byte
	Channel int32
}

func (m *ChatFromViewer) Code() Code { return codeChatFromViewer }

func (m *ChatFromViewer) ReadBody(r *bitio.ByteReader) error {
	var err error
	if m.Message, err = readString16(r); err != nil {
		return fmt.Errorf("messages: ChatFromViewer.Message: %w", err)
	}
	if m.Type, err = r.ReadByte(); err != nil {
		return fmt.Errorf("messages: ChatFromViewer.Type: %w", err)
	}
	chVal, err := r.ReadI32(bodyOrder)
	if err != nil {
		return fmt.Errorf("messages: ChatFromViewer.Channel: %w", err)
	}
	m.Channel = chVal
	return nil
}

func (m *ChatFromViewer) WriteBody(w *bitio.ByteWriter) {
	writeString16(w, m.Message)
	w.WriteByte(m.Type)
	w.WriteI32(bodyOrder, m.Channel)
}

// RegionHandshakeReply acknowledges a RegionHandshake, unblocking the
// simulator's agent-enter sequence.
type RegionHandshakeReply struct {
	AgentID   types.UUID
	SessionID types.UUID
	Flags     uint32
}

func (m *RegionHandshakeReply) Code() Code { return codeRegionHandshakeReply }

func (m *RegionHandshakeReply) ReadBody(r *bitio.ByteReader) error {
	var err error
	if m.AgentID, err = readUUID(r); err != nil {
		return fmt.Errorf("messages: RegionHandshakeReply.AgentID: %w", err)
	}
	if m.SessionID, err = readUUID(r); err != nil {
		return fmt.Errorf("messages: RegionHandshakeReply.SessionID: %w", err)
	}
	if m.Flags, err = r.ReadU32(bodyOrder); err != nil {
		return fmt.Errorf("messages: RegionHandshakeReply.Flags: %w", err)
	}
	return nil
}

func (m *RegionHandshakeReply) WriteBody(w *bitio.ByteWriter) {
	writeUUID(w, m.AgentID)
	writeUUID(w, m.SessionID)
	w.WriteU32(bodyOrder, m.Flags)
}

// LayerData carries a terrain (or wind, cloud) patch group. The body past
// the Type byte is left raw for pkg/terrain to parse, since its bit-packed
// layout depends on Type and is not itself part of the message framing.
type LayerData struct {
	Type byte
	Data []byte
}

func (m *LayerData) Code() Code { return codeLayerData }

func (m *LayerData) ReadBody(r *bitio.ByteReader) error {
	var err error
	if m.Type, err = r.ReadByte(); err != nil {
		return fmt.Errorf("messages: LayerData.Type: %w", err)
	}
	m.Data = append([]byte(nil), r.Remaining()...)
	if _, err = r.ReadBytes(len(m.Data)); err != nil {
		return fmt.Errorf("messages: LayerData.Data: %w", err)
	}
	return nil
}

func (m *LayerData) WriteBody(w *bitio.ByteWriter) {
	w.WriteByte(m.Type)
	w.WriteBytes(m.Data)
}

// ObjectUpdate carries a batch of object state updates. Only the group
// header is modeled; per-object content is out of scope (world-content
// semantics are a non-goal) and kept as an opaque tail.
type ObjectUpdate struct {
	RegionHandle uint64
	TimeDilation uint16
	Data         []byte
}

func (m *ObjectUpdate) Code() Code { return codeObjectUpdate }

func (m *ObjectUpdate) ReadBody(r *bitio.ByteReader) error {
	var err error
	if m.RegionHandle, err = r.ReadU64(bodyOrder); err != nil {
		return fmt.Errorf("messages: ObjectUpdate.RegionHandle: %w", err)
	}
	if m.TimeDilation, err = r.ReadU16(bodyOrder); err != nil {
		return fmt.Errorf("messages: ObjectUpdate.TimeDilation: %w", err)
	}
	m.Data = append([]byte(nil), r.Remaining()...)
	if _, err = r.ReadBytes(len(m.Data)); err != nil {
		return fmt.Errorf("messages: ObjectUpdate.Data: %w", err)
	}
	return nil
}

func (m *ObjectUpdate) WriteBody(w *bitio.ByteWriter) {
	w.WriteU64(bodyOrder, m.RegionHandle)
	w.WriteU16(bodyOrder, m.TimeDilation)
	w.WriteBytes(m.Data)
}
