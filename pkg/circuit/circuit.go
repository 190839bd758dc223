// Package circuit wires the packet codec and the AckManager together into
// the bidirectional, reliable-over-UDP channel a viewer holds open to a
// single simulator host. Grounded on the teacher's three-goroutine shape
// in `source/server/server.go` (an update-ticker loop, a UDP listen loop,
// and per-packet handler goroutines) and on `original_source/src/circuit/mod.rs`'s
// sender/reader thread split, translated to `golang.org/x/sync/errgroup`
// for lifecycle management instead of the teacher's bare `go` + `running`
// bool, since a circuit needs both loops to shut down together on the
// first fatal error from either.
package circuit

import (
	"context"
	"fmt"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/opensim-go/viewercircuit/pkg/ackmanager"
	"github.com/opensim-go/viewercircuit/pkg/fifo"
	"github.com/opensim-go/viewercircuit/pkg/logging"
	"github.com/opensim-go/viewercircuit/pkg/messages"
	"github.com/opensim-go/viewercircuit/pkg/packet"
	"github.com/opensim-go/viewercircuit/pkg/types"
)

// recvBufferSize is the fixed buffer the reader loop recv()s into, per
// §9 ("blocking recv into a fixed buffer (>=4096 bytes)").
const recvBufferSize = 4096

// inboundQueueDepth bounds the fallback inbound queue so a circuit whose
// application stops reading backpressures instead of growing unbounded.
const inboundQueueDepth = 1024

// Dispatcher is offered every non-duplicate, non-PacketAck inbound
// message before it falls back to the circuit's own inbound queue. It
// reports whether it handled the message — false routes it to Read/TryRead
// instead, so a circuit can be used standalone (no dispatcher set) for
// straight-line request/response code.
type Dispatcher interface {
	Dispatch(msg messages.MessageInstance) (handled bool)
}

// Config configures a Circuit's retransmit policy and seen-set sizing.
type Config struct {
	SendTimeout     time.Duration
	SendAttempts    int
	SeenSetCapacity int
	Logger          logging.Logger
	Dispatcher      Dispatcher
}

func (c Config) withDefaults() Config {
	if c.SendTimeout <= 0 {
		c.SendTimeout = 250 * time.Millisecond
	}
	if c.SendAttempts <= 0 {
		c.SendAttempts = 3
	}
	if c.SeenSetCapacity <= 0 {
		c.SeenSetCapacity = fifo.DefaultSeenSetCapacity
	}
	if c.Logger == nil {
		c.Logger = logging.NoopLogger{}
	}
	return c
}

// Circuit is one viewer<->simulator UDP channel with reliable delivery on
// top, per §7.
type Circuit struct {
	conn     *net.UDPConn
	registry *messages.Registry
	ack      *ackmanager.AckManager
	seen     *fifo.SeenSet[types.SequenceNumber]
	logger   logging.Logger
	dispatch Dispatcher

	inbound chan messages.MessageInstance

	group  *errgroup.Group
	cancel context.CancelFunc
}

// Dial opens a UDP socket bound to localAddr (nil picks an ephemeral
// port, the common case for a viewer) and connected to remoteAddr, then
// starts the sender and reader goroutines. registry is used to resolve
// inbound message numbers to MessageInstance values.
func Dial(ctx context.Context, localAddr, remoteAddr *net.UDPAddr, registry *messages.Registry, config Config) (*Circuit, error) {
	config = config.withDefaults()

	conn, err := net.DialUDP("udp", localAddr, remoteAddr)
	if err != nil {
		return nil, fmt.Errorf("circuit: dial %s: %w", remoteAddr, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, runCtx := errgroup.WithContext(runCtx)

	c := &Circuit{
		conn:     conn,
		registry: registry,
		ack:      ackmanager.New(ackmanager.Config{SendTimeout: config.SendTimeout, SendAttempts: config.SendAttempts}),
		seen:     fifo.NewSeenSet[types.SequenceNumber](config.SeenSetCapacity),
		logger:   config.Logger,
		dispatch: config.Dispatcher,
		inbound:  make(chan messages.MessageInstance, inboundQueueDepth),
		group:    group,
		cancel:   cancel,
	}

	group.Go(func() error { return c.senderLoop(runCtx) })
	group.Go(func() error { return c.readerLoop(runCtx) })

	return c, nil
}

// Send submits msg for transmission and returns a future tracking its
// delivery (Success as soon as the sender loop picks it up, if reliable
// is false).
func (c *Circuit) Send(msg messages.MessageInstance, reliable bool) *ackmanager.SendMessage {
	return c.ack.SendMsg(msg, reliable)
}

// Read blocks until a message arrives on the fallback inbound queue (one
// the Dispatcher, if any, did not claim) or ctx is done.
func (c *Circuit) Read(ctx context.Context) (messages.MessageInstance, error) {
	select {
	case msg, ok := <-c.inbound:
		if !ok {
			return nil, fmt.Errorf("circuit: disconnected")
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryRead returns a queued inbound message without blocking.
func (c *Circuit) TryRead() (messages.MessageInstance, bool) {
	select {
	case msg, ok := <-c.inbound:
		return msg, ok
	default:
		return nil, false
	}
}

// Close stops both loops and releases the socket. It waits for the
// sender and reader goroutines to exit.
func (c *Circuit) Close() error {
	c.cancel()
	err := c.group.Wait()
	close(c.inbound)
	if closeErr := c.conn.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

// senderLoop repeatedly blocks on AckManager.Fetch, encodes, logs, and
// sends. A fatal I/O error terminates the circuit; successful sends never
// cause it to exit early.
func (c *Circuit) senderLoop(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p := c.ack.Fetch()
		raw := packet.Encode(p)
		c.logger.LogSend(raw, p)
		if _, err := c.conn.Write(raw); err != nil {
			return fmt.Errorf("circuit: send: %w", err)
		}
	}
}

// readerLoop repeatedly blocks on recv, decodes, logs, and routes each
// packet per §9's reader-loop steps: forward appended acks, ack back and
// dedup reliable packets, swallow PacketAck bodies, and deliver
// everything else to the Dispatcher or the fallback inbound queue.
func (c *Circuit) readerLoop(ctx context.Context) error {
	buf := make([]byte, recvBufferSize)
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		n, err := c.conn.Read(buf)
		if err != nil {
			return fmt.Errorf("circuit: recv: %w", err)
		}
		raw := append([]byte(nil), buf[:n]...)

		p, err := packet.Decode(raw, c.registry)
		c.logger.LogRecv(raw, p, err)
		if err != nil {
			continue
		}

		for _, seq := range p.AppendedAcks {
			c.ack.RegisterAck(seq)
		}

		if p.Flags.Has(packet.FlagReliable) {
			c.ack.SendAck(p.SequenceNumber)
			if c.seen.Contains(p.SequenceNumber) {
				continue
			}
			c.seen.Insert(p.SequenceNumber)
		}

		if ackMsg, ok := p.Message.(*messages.PacketAck); ok {
			for _, seq := range ackMsg.Packets {
				c.ack.RegisterAck(seq)
			}
			continue
		}

		if c.dispatch != nil && c.dispatch.Dispatch(p.Message) {
			continue
		}

		select {
		case c.inbound <- p.Message:
		default:
			// Application isn't keeping up; drop rather than block the
			// reader loop and stall ack processing for everyone.
		}
	}
}
