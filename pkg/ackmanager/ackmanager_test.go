package ackmanager

import (
	"context"
	"testing"
	"time"

	"github.com/opensim-go/viewercircuit/pkg/messages"
	"github.com/opensim-go/viewercircuit/pkg/packet"
)

func TestSendMsgUnreliableResolvesImmediately(t *testing.T) {
	am := New(Config{SendTimeout: time.Second, SendAttempts: 3})
	future := am.SendMsg(&messages.StartPingCheck{PingID: 1}, false)

	p := am.Fetch()
	if p.Flags.Has(packet.FlagReliable) {
		t.Fatalf("unreliable send should not set FlagReliable")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	status, err := future.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status.Kind != StatusSuccess {
		t.Fatalf("got status %v, want Success", status.Kind)
	}
}

func TestSendMsgReliableResolvesOnAck(t *testing.T) {
	am := New(Config{SendTimeout: time.Second, SendAttempts: 3})
	future := am.SendMsg(&messages.StartPingCheck{PingID: 1}, true)

	p := am.Fetch()
	if !p.Flags.Has(packet.FlagReliable) {
		t.Fatalf("reliable send should set FlagReliable")
	}

	am.RegisterAck(p.SequenceNumber)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	status, err := future.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status.Kind != StatusSuccess {
		t.Fatalf("got status %v, want Success", status.Kind)
	}
}

func TestRetransmitExactlyThreeTimesThenFails(t *testing.T) {
	am := New(Config{SendTimeout: 20 * time.Millisecond, SendAttempts: 3})
	future := am.SendMsg(&messages.StartPingCheck{PingID: 1}, true)

	var seqs []uint32
	var resentFlags []bool
	for i := 0; i < 3; i++ {
		p := am.Fetch()
		seqs = append(seqs, uint32(p.SequenceNumber))
		resentFlags = append(resentFlags, p.Flags.Has(packet.FlagResent))
	}

	for i, seq := range seqs {
		if seq != seqs[0] {
			t.Fatalf("attempt %d used sequence %d, want %d (same seq across retries)", i, seq, seqs[0])
		}
	}
	if resentFlags[0] {
		t.Fatalf("first send should not carry RESENT")
	}
	if !resentFlags[1] || !resentFlags[2] {
		t.Fatalf("retransmits should carry RESENT: %v", resentFlags)
	}

	// A sender loop keeps calling Fetch; the call after the third timeout
	// is the one that exhausts the attempts and fails the future.
	go am.Fetch()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	status, err := future.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if status.Kind != StatusFailure {
		t.Fatalf("got status %v, want Failure", status.Kind)
	}
	if status.Err != ErrFailedAck {
		t.Fatalf("got err %v, want ErrFailedAck", status.Err)
	}
}

func TestSendAckIsPiggybackedOnNextPacket(t *testing.T) {
	am := New(Config{SendTimeout: time.Second, SendAttempts: 3})
	am.SendAck(7)
	am.SendAck(8)
	future := am.SendMsg(&messages.StartPingCheck{PingID: 1}, false)

	p := am.Fetch()
	if !p.Flags.Has(packet.FlagAppendedAcks) {
		t.Fatalf("pending acks should have been appended")
	}
	if len(p.AppendedAcks) != 2 {
		t.Fatalf("got %d appended acks, want 2", len(p.AppendedAcks))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	future.Wait(ctx)
}

func TestSendAckAloneSynthesizesPacketAck(t *testing.T) {
	am := New(Config{SendTimeout: time.Second, SendAttempts: 3})
	am.SendAck(42)

	p := am.Fetch()
	ack, ok := p.Message.(*messages.PacketAck)
	if !ok {
		t.Fatalf("got message type %T, want *messages.PacketAck", p.Message)
	}
	if len(ack.Packets) != 1 || ack.Packets[0] != 42 {
		t.Fatalf("got %+v, want [42]", ack.Packets)
	}
}
