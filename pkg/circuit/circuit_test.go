package circuit

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/opensim-go/viewercircuit/pkg/ackmanager"
	"github.com/opensim-go/viewercircuit/pkg/messages"
)

// reserveUDPAddr grabs an ephemeral port by briefly listening on it, then
// releases it so a Circuit can bind there deterministically. This carries
// the usual narrow TOCTOU race of any "free port" test helper; acceptable
// for a loopback unit test.
func reserveUDPAddr(t *testing.T) *net.UDPAddr {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("reserveUDPAddr: %v", err)
	}
	addr := conn.LocalAddr().(*net.UDPAddr)
	conn.Close()
	return addr
}

func TestCircuitRoundTripBetweenTwoEndpoints(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	addrA := reserveUDPAddr(t)
	addrB := reserveUDPAddr(t)

	regA := messages.NewCoreRegistry()
	regB := messages.NewCoreRegistry()

	circuitA, err := Dial(ctx, addrA, addrB, regA, Config{SendTimeout: 100 * time.Millisecond, SendAttempts: 3})
	if err != nil {
		t.Fatalf("Dial A: %v", err)
	}
	defer circuitA.Close()

	circuitB, err := Dial(ctx, addrB, addrA, regB, Config{SendTimeout: 100 * time.Millisecond, SendAttempts: 3})
	if err != nil {
		t.Fatalf("Dial B: %v", err)
	}
	defer circuitB.Close()

	future := circuitA.Send(&messages.StartPingCheck{PingID: 5, OldestUnacked: 0}, true)

	readCtx, readCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer readCancel()
	msg, err := circuitB.Read(readCtx)
	if err != nil {
		t.Fatalf("B.Read: %v", err)
	}
	ping, ok := msg.(*messages.StartPingCheck)
	if !ok {
		t.Fatalf("got message type %T, want *messages.StartPingCheck", msg)
	}
	if ping.PingID != 5 {
		t.Fatalf("got PingID %d, want 5", ping.PingID)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer waitCancel()
	status, err := future.Wait(waitCtx)
	if err != nil {
		t.Fatalf("future.Wait: %v", err)
	}
	if status.Kind != ackmanager.StatusSuccess {
		t.Fatalf("got status kind %v, want Success", status.Kind)
	}
}
