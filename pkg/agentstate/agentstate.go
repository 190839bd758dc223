// Package agentstate tracks the minimal bookkeeping a simulator façade
// needs to know when the handshake is done: the agent's identity and
// whether CompleteAgentMovement has been acknowledged. An external
// collaborator per §4's scope (no avatar/physics/world-content state).
package agentstate

import (
	"sync"

	"github.com/opensim-go/viewercircuit/pkg/types"
)

// Agent holds the identity and handshake status of one logged-in agent.
type Agent struct {
	mu sync.RWMutex

	AgentID     types.UUID
	SessionID   types.UUID
	CircuitCode uint32

	movementComplete bool
}

// New returns an Agent for the given login identity, not yet marked as
// having completed movement.
func New(agentID, sessionID types.UUID, circuitCode uint32) *Agent {
	return &Agent{AgentID: agentID, SessionID: sessionID, CircuitCode: circuitCode}
}

// MarkMovementComplete records that CompleteAgentMovement has been sent
// and acknowledged (the handshake's terminal step, per §9).
func (a *Agent) MarkMovementComplete() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.movementComplete = true
}

// MovementComplete reports whether the handshake has finished.
func (a *Agent) MovementComplete() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.movementComplete
}
