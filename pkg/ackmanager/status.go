// Package ackmanager implements the reliable-delivery state machine:
// sequence-number assignment, bounded retransmission, ack aggregation,
// and the SendMessage future applications park on while a reliable send
// is in flight. Grounded on `original_source/src/circuit/ack_manager.rs`
// and `original_source/src/circuit/status.rs`, translated from Rust's
// mpsc channels and Arc<Mutex<Status>> future into Go channels and a
// mutex-guarded status cell woken via a closed-channel signal, the way
// the teacher guards `Session.PendingACK` behind `pendingMu` in
// `source/protocol/raknet.go` but extended with a wake signal since here
// callers actually block waiting for a transition, not just poll a map.
package ackmanager

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/opensim-go/viewercircuit/pkg/types"
)

// StatusKind distinguishes the phases of SendMessage.Status's state
// machine, per §3's SendMessage future and §4.H's transition table.
type StatusKind int

const (
	StatusPendingSend StatusKind = iota
	StatusPendingAck
	StatusSuccess
	StatusFailure
)

func (k StatusKind) String() string {
	switch k {
	case StatusPendingSend:
		return "pending_send"
	case StatusPendingAck:
		return "pending_ack"
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// ErrFailedAck is the terminal error recorded on a Status when a reliable
// send exhausts its retransmit attempts without being acknowledged.
var ErrFailedAck = fmt.Errorf("ackmanager: failed to receive ack after all attempts")

// Status is one point in the SendMessage transition diagram:
//
//	PendingSend{reliable} -> PendingAck{attempt,timeout,id} -> Success | Failure(FailedAck)
type Status struct {
	Kind     StatusKind
	Reliable bool                 // valid in PendingSend
	Attempt  int                  // valid in PendingAck
	Timeout  time.Time            // valid in PendingAck
	ID       types.SequenceNumber // valid in PendingAck, Success, Failure
	Err      error                // valid in Failure
}

func (s Status) isTerminal() bool {
	return s.Kind == StatusSuccess || s.Kind == StatusFailure
}

// SendMessage is a sharable handle over a send's status cell. The
// submitter (via SendMsg) and the AckManager's fetch loop both mutate it
// under the same mutex; a waiter parks on done, which is closed exactly
// once, the moment the status reaches Success or Failure.
type SendMessage struct {
	mu     sync.Mutex
	status Status
	done   chan struct{}
}

func newSendMessage(initial Status) *SendMessage {
	return &SendMessage{status: initial, done: make(chan struct{})}
}

// Status returns a snapshot of the current status.
func (f *SendMessage) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

// updateStatus publishes a new status and, if it is terminal, wakes any
// parked waiter by closing done. Closing is idempotent-safe because
// updateStatus is only ever called from the single-writer fetch loop,
// and a terminal status is never subsequently overwritten.
func (f *SendMessage) updateStatus(s Status) {
	f.mu.Lock()
	defer f.mu.Unlock()
	wasTerminal := f.status.isTerminal()
	f.status = s
	if s.isTerminal() && !wasTerminal {
		close(f.done)
	}
}

// Wait blocks until the send reaches Success or Failure, or ctx is done.
// Per §9's cancellation note, cancelling the wait (ctx expiring) does not
// cancel the in-flight retransmit loop — the AckManager keeps retrying
// regardless of whether anyone is still waiting on this future.
func (f *SendMessage) Wait(ctx context.Context) (Status, error) {
	select {
	case <-f.done:
		return f.Status(), nil
	case <-ctx.Done():
		return f.Status(), ctx.Err()
	}
}
