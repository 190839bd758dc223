// Package dispatch implements the handler registry described in §4.J:
// exact message-type handlers consulted first, then ordered
// (predicate, handler) filter handlers, with a built-in StartPingCheck
// responder so liveness stays accurate without application involvement.
// Grounded on the teacher's packet-handler dispatch in
// `source/server/packet.go` (a type-keyed switch calling into per-type
// handler functions), generalized into a registry plus a filter chain
// since the protocol's message catalog is open-ended rather than the
// teacher's fixed small set of SA-MP opcodes.
package dispatch

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"

	"github.com/opensim-go/viewercircuit/pkg/ackmanager"
	"github.com/opensim-go/viewercircuit/pkg/messages"
)

// ErrNoHandler lets a handler decline a message it was offered (e.g. a
// filter predicate matched too broadly), sending it to the next filter
// or, if none claims it, the circuit's fallback inbound queue.
var ErrNoHandler = errors.New("dispatch: no handler")

// MessageSender is the outbound half of a handler's context: a thin
// wrapper over the AckManager (or a Circuit, which satisfies this
// interface directly) so handlers can reply without depending on the
// circuit package.
type MessageSender interface {
	Send(msg messages.MessageInstance, reliable bool) *ackmanager.SendMessage
}

// Context is passed to every handler invocation.
type Context struct {
	Sender  MessageSender
	Pool    *WorkerPool
	Reactor *Reactor
}

// Handler processes one inbound message. Returning ErrNoHandler declines
// it (falls through to the next filter, or the inbound queue); any other
// non-nil error is logged and swallowed, per §7's "Other(err)" policy —
// one bad handler must never kill the circuit.
type Handler func(ctx *Context, msg messages.MessageInstance) error

type filterEntry struct {
	predicate func(messages.MessageInstance) bool
	handler   Handler
}

// Dispatcher routes inbound messages to handlers and implements
// `circuit.Dispatcher`.
type Dispatcher struct {
	ctx     *Context
	exact   map[reflect.Type]Handler
	filters []filterEntry
	logger  *logrus.Entry
}

// New returns a Dispatcher wired to send replies through sender, and
// registers the built-in StartPingCheck responder.
func New(sender MessageSender, logger *logrus.Entry) *Dispatcher {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	d := &Dispatcher{
		ctx: &Context{
			Sender:  sender,
			Pool:    NewWorkerPool(4),
			Reactor: NewReactor(),
		},
		exact:  make(map[reflect.Type]Handler),
		logger: logger,
	}
	d.RegisterExact(&messages.StartPingCheck{}, respondToPing)
	return d
}

// RegisterExact registers a handler for the exact Go type of sample
// (only its type is inspected; its field values are ignored).
func (d *Dispatcher) RegisterExact(sample messages.MessageInstance, h Handler) {
	d.exact[reflect.TypeOf(sample)] = h
}

// RegisterFilter appends a predicate/handler pair, consulted in
// registration order after exact-type handlers have all missed.
func (d *Dispatcher) RegisterFilter(predicate func(messages.MessageInstance) bool, h Handler) {
	d.filters = append(d.filters, filterEntry{predicate: predicate, handler: h})
}

// Dispatch implements circuit.Dispatcher: it tries the exact-type
// handler first, then filters in order, and reports whether any handler
// claimed the message (as opposed to declining with ErrNoHandler).
func (d *Dispatcher) Dispatch(msg messages.MessageInstance) bool {
	if h, ok := d.exact[reflect.TypeOf(msg)]; ok {
		if d.invoke(h, msg) {
			return true
		}
	}
	for _, f := range d.filters {
		if !f.predicate(msg) {
			continue
		}
		if d.invoke(f.handler, msg) {
			return true
		}
	}
	return false
}

// invoke runs h and reports whether it claimed the message.
func (d *Dispatcher) invoke(h Handler, msg messages.MessageInstance) bool {
	err := h(d.ctx, msg)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrNoHandler):
		return false
	default:
		d.logger.WithError(err).WithField("message", fmt.Sprintf("%T", msg)).
			Warn("dispatch: handler error, message dropped")
		return true
	}
}

func respondToPing(ctx *Context, msg messages.MessageInstance) error {
	ping := msg.(*messages.StartPingCheck)
	ctx.Sender.Send(&messages.CompletePingCheck{PingID: ping.PingID}, false)
	return nil
}
