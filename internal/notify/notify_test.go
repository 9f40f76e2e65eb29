package notify

import (
	"context"
	"sync"
	"testing"
)

type captureSink struct {
	mu   sync.Mutex
	sent []Message
}

func (s *captureSink) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return nil
}

func (s *captureSink) messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Message(nil), s.sent...)
}

func TestDispatcherDeliversAfterClose(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, Contacts{Production: "production@plant.example"}, 8)
	d.Notify(KindStart, Payload{AssetName: "Press 4", WorkOrderID: "wo-1"})
	d.Notify(KindFinish, Payload{AssetName: "Press 4", WorkOrderID: "wo-1"})
	d.Close()

	msgs := sink.messages()
	if len(msgs) != 2 {
		t.Fatalf("delivered %d messages, want 2", len(msgs))
	}
	if msgs[0].Kind != KindStart || msgs[1].Kind != KindFinish {
		t.Fatalf("unexpected order: %v, %v", msgs[0].Kind, msgs[1].Kind)
	}
	if msgs[0].Subject != "Maintenance started: Press 4" {
		t.Errorf("subject = %q", msgs[0].Subject)
	}
	if msgs[1].Subject != "Asset operational: Press 4" {
		t.Errorf("subject = %q", msgs[1].Subject)
	}
}

func TestDelayCopiesManager(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, Contacts{
		Production: "production@plant.example",
		Manager:    "manager@plant.example",
	}, 8)
	d.Notify(KindDelay, Payload{
		AssetName:   "Lathe 2",
		WorkOrderID: "wo-9",
		Details:     map[string]string{"reason": "missing part"},
	})
	d.Close()

	msgs := sink.messages()
	if len(msgs) != 1 {
		t.Fatalf("delivered %d messages, want 1", len(msgs))
	}
	msg := msgs[0]
	if len(msg.Recipients) != 2 || msg.Recipients[1] != "manager@plant.example" {
		t.Fatalf("recipients = %v, want production and manager", msg.Recipients)
	}
	if msg.Context["reason"] != "missing part" {
		t.Errorf("context = %v", msg.Context)
	}
}

func TestStartDoesNotCopyManager(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, Contacts{
		Production: "production@plant.example",
		Manager:    "manager@plant.example",
	}, 8)
	d.Notify(KindStart, Payload{AssetName: "Lathe 2", WorkOrderID: "wo-9"})
	d.Close()

	msgs := sink.messages()
	if len(msgs) != 1 || len(msgs[0].Recipients) != 1 {
		t.Fatalf("start should only reach production: %+v", msgs)
	}
}

func TestDelayReachesManagerWithoutProduction(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, Contacts{Manager: "manager@plant.example"}, 8)
	d.Notify(KindDelay, Payload{AssetName: "Saw 3", WorkOrderID: "wo-5"})
	d.Close()

	msgs := sink.messages()
	if len(msgs) != 1 {
		t.Fatalf("delivered %d messages, want 1", len(msgs))
	}
	if len(msgs[0].Recipients) != 1 || msgs[0].Recipients[0] != "manager@plant.example" {
		t.Fatalf("recipients = %v, want just the manager", msgs[0].Recipients)
	}
}

func TestNoProductionContactDrops(t *testing.T) {
	sink := &captureSink{}
	d := NewDispatcher(sink, Contacts{}, 8)
	d.Notify(KindStart, Payload{AssetName: "Mill 1", WorkOrderID: "wo-3"})
	d.Close()

	if got := len(sink.messages()); got != 0 {
		t.Fatalf("delivered %d messages, want 0", got)
	}
}

func TestPayloadSnapshotIsolation(t *testing.T) {
	details := map[string]string{"reason": "original"}
	sink := &captureSink{}
	d := NewDispatcher(sink, Contacts{Production: "production@plant.example"}, 8)
	d.Notify(KindDelay, Payload{AssetName: "Mill 1", WorkOrderID: "wo-4", Details: details})
	details["reason"] = "mutated"
	d.Close()

	msgs := sink.messages()
	if len(msgs) != 1 {
		t.Fatalf("delivered %d messages, want 1", len(msgs))
	}
	if msgs[0].Context["reason"] != "original" {
		t.Errorf("dispatch saw caller mutation: %v", msgs[0].Context)
	}
}
