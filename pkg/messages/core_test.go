package messages

import (
	"testing"

	"github.com/opensim-go/viewercircuit/pkg/bitio"
	"github.com/opensim-go/viewercircuit/pkg/types"
)

func TestUseCircuitCodeRoundTrip(t *testing.T) {
	agentID := types.UUID{1, 2, 3, 4}
	sessionID := types.UUID{5, 6, 7, 8}
	msg := &UseCircuitCode{CircuitCode: 0xDEADBEEF, SessionID: sessionID, AgentID: agentID}

	w := bitio.NewByteWriter(64)
	msg.WriteBody(w)

	var got UseCircuitCode
	if err := got.ReadBody(bitio.NewByteReader(w.Bytes())); err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if got.CircuitCode != msg.CircuitCode || got.SessionID != msg.SessionID || got.AgentID != msg.AgentID {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, msg)
	}
}

func TestPacketAckRoundTrip(t *testing.T) {
	msg := &PacketAck{Packets: []types.SequenceNumber{1, 2, 0xFFFFFFFE}}

	w := bitio.NewByteWriter(16)
	msg.WriteBody(w)

	var got PacketAck
	if err := got.ReadBody(bitio.NewByteReader(w.Bytes())); err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if len(got.Packets) != len(msg.Packets) {
		t.Fatalf("got %d packets, want %d", len(got.Packets), len(msg.Packets))
	}
	for i := range msg.Packets {
		if got.Packets[i] != msg.Packets[i] {
			t.Fatalf("packet %d: got %d, want %d", i, got.Packets[i], msg.Packets[i])
		}
	}
}

func TestStartPingCheckRoundTrip(t *testing.T) {
	msg := &StartPingCheck{PingID: 7, OldestUnacked: 42}

	w := bitio.NewByteWriter(8)
	msg.WriteBody(w)

	var got StartPingCheck
	if err := got.ReadBody(bitio.NewByteReader(w.Bytes())); err != nil {
		t.Fatalf("ReadBody: %v", err)
	}
	if got != *msg {
		t.Fatalf("got %+v, want %+v", got, msg)
	}
}

func TestCoreRegistryResolvesEveryCode(t *testing.T) {
	reg := NewCoreRegistry()
	codes := []Code{
		codeUseCircuitCode, codeCompleteAgentMovement, codePacketAck,
		codeStartPingCheck, codeCompletePingCheck, codeAgentUpdate,
		codeChatFromViewer, codeRegionHandshakeReply, codeLayerData, codeObjectUpdate,
	}
	for _, c := range codes {
		if _, ok := reg.New(c); !ok {
			t.Fatalf("no registration for code %+v", c)
		}
	}
}
