package notify

import (
	"context"
	"log"
	"time"
)

// Kind selects the notification flavor for a maintenance event.
type Kind string

const (
	KindStart  Kind = "start"
	KindFinish Kind = "finish"
	KindDelay  Kind = "delay"
)

// Payload carries the facts a notification is rendered from. Dispatch works
// on a snapshot of it; nothing here may reference request-scoped state.
type Payload struct {
	AssetName   string
	WorkOrderID string
	Details     map[string]string
}

func (p Payload) snapshot() Payload {
	cp := Payload{AssetName: p.AssetName, WorkOrderID: p.WorkOrderID}
	if p.Details != nil {
		cp.Details = make(map[string]string, len(p.Details))
		for k, v := range p.Details {
			cp.Details[k] = v
		}
	}
	return cp
}

// Message is a rendered notification handed to a delivery sink.
type Message struct {
	Kind       Kind
	Subject    string
	Recipients []string
	Template   string
	Context    map[string]string
}

// Sink delivers a message. Implementations are best-effort; errors are
// logged by the dispatcher and never reach the triggering workflow.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// Contacts are the standing recipients for maintenance notifications.
type Contacts struct {
	Production string
	Manager    string
}

const defaultQueueSize = 64

// Dispatcher queues notifications and delivers them from a single worker
// goroutine. Notify never blocks the caller: a full queue drops the message
// with a log line. The contract is submitted, not guaranteed delivered.
type Dispatcher struct {
	sink     Sink
	contacts Contacts
	timeout  time.Duration
	jobs     chan Message
	done     chan struct{}
}

func NewDispatcher(sink Sink, contacts Contacts, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Dispatcher{
		sink:     sink,
		contacts: contacts,
		timeout:  10 * time.Second,
		jobs:     make(chan Message, queueSize),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Notify builds the message for the event kind and enqueues it.
func (d *Dispatcher) Notify(kind Kind, p Payload) {
	msg := d.build(kind, p.snapshot())
	if len(msg.Recipients) == 0 {
		log.Printf("notify: no recipients configured for %s, dropping", kind)
		return
	}
	select {
	case d.jobs <- msg:
	default:
		log.Printf("notify: queue full, dropping %s for %s", kind, p.AssetName)
	}
}

// Close stops accepting messages and waits for the queue to drain.
func (d *Dispatcher) Close() {
	close(d.jobs)
	<-d.done
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		if err := d.sink.Send(ctx, msg); err != nil {
			log.Printf("notify: deliver %s failed: %v", msg.Kind, err)
		}
		cancel()
	}
}

func (d *Dispatcher) build(kind Kind, p Payload) Message {
	msgCtx := map[string]string{
		"asset_name":    p.AssetName,
		"work_order_id": p.WorkOrderID,
	}
	for k, v := range p.Details {
		msgCtx[k] = v
	}
	msg := Message{
		Kind:    kind,
		Context: msgCtx,
	}
	if d.contacts.Production != "" {
		msg.Recipients = append(msg.Recipients, d.contacts.Production)
	}
	switch kind {
	case KindStart:
		msg.Subject = "Maintenance started: " + p.AssetName
		msg.Template = "maintenance_start"
	case KindFinish:
		msg.Subject = "Asset operational: " + p.AssetName
		msg.Template = "maintenance_finish"
	case KindDelay:
		msg.Subject = "Maintenance delayed: " + p.AssetName
		msg.Template = "maintenance_delay"
		if d.contacts.Manager != "" {
			msg.Recipients = append(msg.Recipients, d.contacts.Manager)
		}
	}
	return msg
}
