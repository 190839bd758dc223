// Package simulator is the façade described in §[O]: it wires together
// login, capability seeding, and circuit establishment, then drives the
// UseCircuitCode/CompleteAgentMovement handshake that marks an agent as
// connected. Grounded on the teacher's `NewServer`/`Start` entry point in
// `source/server/server.go`, which plays the same "construct every
// subsystem, then kick off the first protocol exchange" role for an
// SA-MP server — here inverted to the viewer side of one circuit.
package simulator

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/pkg/errors"

	"github.com/opensim-go/viewercircuit/pkg/ackmanager"
	"github.com/opensim-go/viewercircuit/pkg/agentstate"
	"github.com/opensim-go/viewercircuit/pkg/capabilities"
	"github.com/opensim-go/viewercircuit/pkg/circuit"
	"github.com/opensim-go/viewercircuit/pkg/login"
	"github.com/opensim-go/viewercircuit/pkg/messages"
)

// Session is an established connection to one simulator: its circuit,
// granted capability table, and agent handshake state.
type Session struct {
	Circuit      *circuit.Circuit
	Capabilities capabilities.Table
	Agent        *agentstate.Agent
}

// Config bundles what Connect needs beyond the login credentials
// (retransmit policy, dispatcher, logger) so callers don't have to
// reconstruct a circuit.Config by hand.
type Config struct {
	LoginURI       string
	CapabilityList []string
	CircuitConfig  circuit.Config
}

// Connect performs the full login -> seed capabilities -> open circuit ->
// handshake sequence described by §6's external-interface notes and §9's
// scheduling model, returning a ready-to-use Session.
func Connect(ctx context.Context, req login.Request, cfg Config) (*Session, error) {
	loginResp, err := login.Perform(cfg.LoginURI, req)
	if err != nil {
		return nil, errors.Wrap(err, "simulator: login failed")
	}

	names := cfg.CapabilityList
	if len(names) == 0 {
		names = capabilities.DefaultCapabilityNames
	}
	capClient := capabilities.NewClient()
	capTable, err := capClient.Seed(ctx, loginResp.SeedCapability, names)
	if err != nil {
		return nil, errors.Wrap(err, "simulator: capability seed failed")
	}

	remoteAddr := &net.UDPAddr{IP: net.ParseIP(loginResp.SimIP), Port: int(loginResp.SimPort)}
	localAddr := &net.UDPAddr{IP: net.IPv4zero, Port: 0}

	registry := messages.NewCoreRegistry()
	circ, err := circuit.Dial(ctx, localAddr, remoteAddr, registry, cfg.CircuitConfig)
	if err != nil {
		return nil, errors.Wrap(err, "simulator: circuit dial failed")
	}

	agent := agentstate.New(loginResp.AgentID, loginResp.SessionID, loginResp.CircuitCode)

	if err := handshake(ctx, circ, agent); err != nil {
		circ.Close()
		return nil, errors.Wrap(err, "simulator: handshake failed")
	}

	return &Session{Circuit: circ, Capabilities: capTable, Agent: agent}, nil
}

// handshake sends UseCircuitCode reliably, waits for it to be
// acknowledged, then sends CompleteAgentMovement and marks the agent's
// movement as complete once that, too, is acknowledged — the first
// handshake §[O] describes.
func handshake(ctx context.Context, circ *circuit.Circuit, agent *agentstate.Agent) error {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultHandshakeTimeout)
		defer cancel()
	}

	useCircuit := &messages.UseCircuitCode{
		CircuitCode: agent.CircuitCode,
		SessionID:   agent.SessionID,
		AgentID:     agent.AgentID,
	}
	future := circ.Send(useCircuit, true)
	status, err := future.Wait(ctx)
	if err != nil {
		return err
	}
	if status.Kind != ackmanager.StatusSuccess {
		return fmt.Errorf("simulator: UseCircuitCode was not acknowledged (status=%v)", status.Kind)
	}

	complete := &messages.CompleteAgentMovement{
		AgentID:     agent.AgentID,
		SessionID:   agent.SessionID,
		CircuitCode: agent.CircuitCode,
	}
	future = circ.Send(complete, true)
	status, err = future.Wait(ctx)
	if err != nil {
		return err
	}
	if status.Kind != ackmanager.StatusSuccess {
		return fmt.Errorf("simulator: CompleteAgentMovement was not acknowledged (status=%v)", status.Kind)
	}
	agent.MarkMovementComplete()
	return nil
}

// defaultHandshakeTimeout bounds how long the whole handshake (both
// messages together) may take when the caller's ctx has no deadline.
const defaultHandshakeTimeout = 10 * time.Second
