package ackmanager

import (
	"time"

	"github.com/opensim-go/viewercircuit/pkg/fifo"
	"github.com/opensim-go/viewercircuit/pkg/messages"
	"github.com/opensim-go/viewercircuit/pkg/packet"
	"github.com/opensim-go/viewercircuit/pkg/types"
)

// maxAppendedAcks bounds how many acks a single outgoing packet can
// piggyback, per §4.G/§4.H ("up to 255").
const maxAppendedAcks = 255

// idleSleep is how long fetch() pauses when neither outbound work nor a
// timed-out wait-queue head is available, per §9's scheduling note —
// bounded above by send_timeout so a freshly-inserted wait entry cannot
// go unserviced past its own deadline.
const idleSleep = 50 * time.Millisecond

// Config holds the per-circuit retransmit policy.
type Config struct {
	SendTimeout  time.Duration
	SendAttempts int
}

type pendingMessage struct {
	message  messages.MessageInstance
	future   *SendMessage
	reliable bool
}

// AckManager owns the addressable wait queue, the three channels
// (outbound messages, received acks, acks to send), the sequence
// counter, and the circuit's retransmit config. It is driven by a single
// caller on the sender goroutine via Fetch; SendMsg/RegisterAck/SendAck
// are safe to call from any goroutine since they only touch channels.
type AckManager struct {
	waitQueue *fifo.AddressableQueue[types.SequenceNumber, *pendingMessage]

	msgsOut chan *pendingMessage
	acksInc chan types.SequenceNumber
	acksOut chan types.SequenceNumber

	seq    *types.SequenceCounter
	config Config
}

// New returns an AckManager ready to be driven by a sender loop calling
// Fetch.
func New(config Config) *AckManager {
	return &AckManager{
		waitQueue: fifo.NewAddressableQueue[types.SequenceNumber, *pendingMessage](),
		msgsOut:   make(chan *pendingMessage, 256),
		acksInc:   make(chan types.SequenceNumber, 256),
		acksOut:   make(chan types.SequenceNumber, 256),
		seq:       types.NewSequenceCounter(),
		config:    config,
	}
}

// SendMsg enqueues msg for transmission and returns a future tracking its
// delivery. If reliable is false the future resolves to Success as soon
// as Fetch hands its packet to the sender, before the socket write.
func (am *AckManager) SendMsg(msg messages.MessageInstance, reliable bool) *SendMessage {
	future := newSendMessage(Status{Kind: StatusPendingSend, Reliable: reliable})
	am.msgsOut <- &pendingMessage{message: msg, future: future, reliable: reliable}
	return future
}

// RegisterAck records that seq was acknowledged by the peer. It is
// idempotent against an unknown or already-resolved sequence number —
// the fetch loop silently ignores acks it can't match to a wait-queue
// entry.
func (am *AckManager) RegisterAck(seq types.SequenceNumber) {
	am.acksInc <- seq
}

// SendAck queues seq to be acknowledged back to the peer, piggybacked
// onto the next outgoing packet (or sent alone as a PacketAck if nothing
// else is pending).
func (am *AckManager) SendAck(seq types.SequenceNumber) {
	am.acksOut <- seq
}

// Fetch blocks until a packet is ready to send, applying incoming acks,
// scanning the wait queue for a timed-out head, picking up fresh
// outbound work, or synthesizing a PacketAck from pending acks — in that
// priority order, per §4.H.
func (am *AckManager) Fetch() *packet.Packet {
	for {
		p, future, ok := am.fetchOnce()
		if !ok {
			pause := idleSleep
			if t := am.config.SendTimeout; t > 0 && t < pause {
				pause = t
			}
			time.Sleep(pause)
			continue
		}
		if p.Flags.Has(packet.FlagReliable) {
			am.waitQueue.Insert(p.SequenceNumber, &pendingMessage{message: p.Message, future: future, reliable: true})
		}
		return p
	}
}

func (am *AckManager) fetchOnce() (*packet.Packet, *SendMessage, bool) {
	am.applyIncomingAcks()

	msg, ok := am.nextMessage()
	if !ok {
		return nil, nil, false
	}

	p, status := am.preparePacket(msg)
	msg.future.updateStatus(status)
	if p == nil {
		// Attempts exhausted; the message is dropped. Try again.
		return nil, nil, false
	}

	acks := am.drainAcks(maxAppendedAcks)
	if len(acks) > 0 {
		p.AppendedAcks = acks
		p.Flags |= packet.FlagAppendedAcks
	}
	return p, msg.future, true
}

func (am *AckManager) applyIncomingAcks() {
	for {
		select {
		case seq := <-am.acksInc:
			if pending, ok := am.waitQueue.RemoveKey(seq); ok {
				pending.future.updateStatus(Status{Kind: StatusSuccess, ID: seq})
			}
		default:
			return
		}
	}
}

// nextMessage picks the next message to (re)send: a timed-out wait-queue
// head takes priority over fresh outbound work, which takes priority
// over synthesizing a PacketAck from pending acks.
func (am *AckManager) nextMessage() (*pendingMessage, bool) {
	seq, pending, ok := am.waitQueue.RemoveHead()
	if ok {
		if am.isTooOld(pending) {
			return pending, true
		}
		am.waitQueue.InsertHead(seq, pending)
	}

	select {
	case msg := <-am.msgsOut:
		return msg, true
	default:
	}

	acks := am.drainAcks(maxAppendedAcks)
	if len(acks) == 0 {
		return nil, false
	}
	return &pendingMessage{
		message:  &messages.PacketAck{Packets: acks},
		future:   newSendMessage(Status{Kind: StatusPendingSend, Reliable: false}),
		reliable: false,
	}, true
}

func (am *AckManager) isTooOld(pending *pendingMessage) bool {
	status := pending.future.Status()
	return status.Kind == StatusPendingAck && !time.Now().Before(status.Timeout)
}

// preparePacket advances msg's future by one transition and builds the
// Packet to send, or reports nil if the message's attempts are exhausted.
func (am *AckManager) preparePacket(msg *pendingMessage) (*packet.Packet, Status) {
	switch msg.future.Status().Kind {
	case StatusPendingSend:
		seqNum := am.seq.Next()
		p := &packet.Packet{SequenceNumber: seqNum, Message: msg.message}
		if !msg.reliable {
			return p, Status{Kind: StatusSuccess, ID: seqNum}
		}
		p.Flags |= packet.FlagReliable
		status := Status{Kind: StatusPendingAck, Attempt: 0, Timeout: time.Now().Add(am.config.SendTimeout), ID: seqNum}
		return p, status

	case StatusPendingAck:
		old := msg.future.Status()
		attempt := old.Attempt + 1
		if attempt >= am.config.SendAttempts {
			return nil, Status{Kind: StatusFailure, ID: old.ID, Err: ErrFailedAck}
		}
		status := Status{Kind: StatusPendingAck, Attempt: attempt, Timeout: time.Now().Add(am.config.SendTimeout), ID: old.ID}
		p := &packet.Packet{
			SequenceNumber: old.ID,
			Message:        msg.message,
			Flags:          packet.FlagReliable | packet.FlagResent,
		}
		return p, status

	default:
		// Success/Failure messages should never be handed back through
		// nextMessage; treat as a no-op drop if they somehow are.
		return nil, msg.future.Status()
	}
}

func (am *AckManager) drainAcks(max int) []types.SequenceNumber {
	var acks []types.SequenceNumber
	for len(acks) < max {
		select {
		case seq := <-am.acksOut:
			acks = append(acks, seq)
		default:
			return acks
		}
	}
	return acks
}
