package simulator

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/opensim-go/viewercircuit/pkg/agentstate"
	"github.com/opensim-go/viewercircuit/pkg/circuit"
	"github.com/opensim-go/viewercircuit/pkg/messages"
	"github.com/opensim-go/viewercircuit/pkg/types"
)

// reserveUDPAddr briefly listens on an ephemeral port to learn a free
// address, then closes it, mirroring pkg/circuit's test helper.
func reserveUDPAddr(t *testing.T) *net.UDPAddr {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	addr := conn.LocalAddr().(*net.UDPAddr)
	require.NoError(t, conn.Close())
	return addr
}

// TestHandshakeCompletesAgainstAPeerThatAcksEverything exercises the
// handshake step alone (login/capabilities are external collaborators
// tested in their own packages) against a bare peer circuit that simply
// acks whatever it receives, confirming MarkMovementComplete fires once
// both messages are acknowledged.
func TestHandshakeCompletesAgainstAPeerThatAcksEverything(t *testing.T) {
	viewerAddr := reserveUDPAddr(t)
	peerAddr := reserveUDPAddr(t)

	registry := messages.NewCoreRegistry()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	peer, err := circuit.Dial(ctx, peerAddr, viewerAddr, registry, circuit.Config{
		SendTimeout:  50 * time.Millisecond,
		SendAttempts: 3,
	})
	require.NoError(t, err)
	defer peer.Close()

	viewer, err := circuit.Dial(ctx, viewerAddr, peerAddr, registry, circuit.Config{
		SendTimeout:  50 * time.Millisecond,
		SendAttempts: 3,
	})
	require.NoError(t, err)
	defer viewer.Close()

	go func() {
		for {
			if _, err := peer.Read(ctx); err != nil {
				return
			}
		}
	}()

	agentID := types.UUID{}
	sessionID := types.UUID{}
	agent := agentstate.New(agentID, sessionID, 42)

	require.NoError(t, handshake(ctx, viewer, agent))
	require.True(t, agent.MovementComplete())
}
