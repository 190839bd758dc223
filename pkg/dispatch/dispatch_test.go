package dispatch

import (
	"fmt"
	"testing"

	"github.com/opensim-go/viewercircuit/pkg/ackmanager"
	"github.com/opensim-go/viewercircuit/pkg/messages"
)

type fakeSender struct {
	sent []messages.MessageInstance
}

func (s *fakeSender) Send(msg messages.MessageInstance, reliable bool) *ackmanager.SendMessage {
	s.sent = append(s.sent, msg)
	return ackmanager.New(ackmanager.Config{SendAttempts: 1}).SendMsg(msg, reliable)
}

func TestBuiltinPingResponder(t *testing.T) {
	sender := &fakeSender{}
	d := New(sender, nil)

	handled := d.Dispatch(&messages.StartPingCheck{PingID: 9})
	if !handled {
		t.Fatalf("built-in ping handler should have claimed the message")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("got %d sends, want 1", len(sender.sent))
	}
	reply, ok := sender.sent[0].(*messages.CompletePingCheck)
	if !ok {
		t.Fatalf("got %T, want *messages.CompletePingCheck", sender.sent[0])
	}
	if reply.PingID != 9 {
		t.Fatalf("got PingID %d, want 9", reply.PingID)
	}
}

func TestExactHandlerTakesPriorityOverFilter(t *testing.T) {
	sender := &fakeSender{}
	d := New(sender, nil)

	var exactCalled, filterCalled bool
	d.RegisterExact(&messages.ChatFromViewer{}, func(ctx *Context, msg messages.MessageInstance) error {
		exactCalled = true
		return nil
	})
	d.RegisterFilter(func(messages.MessageInstance) bool { return true }, func(ctx *Context, msg messages.MessageInstance) error {
		filterCalled = true
		return nil
	})

	d.Dispatch(&messages.ChatFromViewer{Message: "hi"})
	if !exactCalled || filterCalled {
		t.Fatalf("exact handler should run instead of the catch-all filter")
	}
}

func TestNoHandlerFallsThroughToCaller(t *testing.T) {
	sender := &fakeSender{}
	d := New(sender, nil)

	d.RegisterFilter(func(messages.MessageInstance) bool { return true }, func(ctx *Context, msg messages.MessageInstance) error {
		return ErrNoHandler
	})

	handled := d.Dispatch(&messages.ObjectUpdate{})
	if handled {
		t.Fatalf("a handler returning ErrNoHandler should not count as handled")
	}
}

func TestOtherHandlerErrorIsSwallowed(t *testing.T) {
	sender := &fakeSender{}
	d := New(sender, nil)

	d.RegisterExact(&messages.ChatFromViewer{}, func(ctx *Context, msg messages.MessageInstance) error {
		return fmt.Errorf("boom")
	})

	handled := d.Dispatch(&messages.ChatFromViewer{})
	if !handled {
		t.Fatalf("a handler error other than ErrNoHandler should still count as handled (message dropped, not escalated)")
	}
}
