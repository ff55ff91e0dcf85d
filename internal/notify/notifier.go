// Package notify coalesces invoice-update events before fanning them out
// over the websocket hub. Keystroke-level configuration edits arrive in
// bursts; only the trailing edge of a burst produces a broadcast, and the
// payload carries just the invoice id so consumers re-fetch full state.
package notify

import (
	"encoding/json"
	"sync"
	"time"
)

// DefaultDelay is the debounce window for invoice update bursts.
const DefaultDelay = 300 * time.Millisecond

// Event is the broadcast payload.
type Event struct {
	Event string `json:"event"`
	NfeID string `json:"nfe_id"`
}

// Broadcaster is the fan-out sink, satisfied by the websocket hub's
// Broadcast channel wrapped in a send.
type Broadcaster interface {
	Send(message []byte)
}

// Notifier debounces per-invoice update notifications.
type Notifier struct {
	sink  Broadcaster
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func New(sink Broadcaster, delay time.Duration) *Notifier {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Notifier{
		sink:    sink,
		delay:   delay,
		pending: make(map[string]*time.Timer),
	}
}

// InvoiceUpdated schedules a broadcast for the invoice; rapid consecutive
// calls for the same invoice collapse into one event after the debounce
// window. Different invoices debounce independently.
func (n *Notifier) InvoiceUpdated(nfeID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if timer, ok := n.pending[nfeID]; ok {
		timer.Stop()
	}
	n.pending[nfeID] = time.AfterFunc(n.delay, func() {
		n.fire(nfeID)
	})
}

// InvoiceDeleted broadcasts immediately; deletions are not part of an edit
// burst and a stale pending update for the same invoice is dropped.
func (n *Notifier) InvoiceDeleted(nfeID string) {
	n.mu.Lock()
	if timer, ok := n.pending[nfeID]; ok {
		timer.Stop()
		delete(n.pending, nfeID)
	}
	n.mu.Unlock()

	n.send(Event{Event: "nfe_deleted", NfeID: nfeID})
}

func (n *Notifier) fire(nfeID string) {
	n.mu.Lock()
	delete(n.pending, nfeID)
	n.mu.Unlock()

	n.send(Event{Event: "nfe_updated", NfeID: nfeID})
}

func (n *Notifier) send(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	n.sink.Send(payload)
}

// HubSink adapts a broadcast channel to the Broadcaster interface without
// blocking the caller when nobody is draining the hub.
type HubSink struct {
	Ch chan []byte
}

func (s HubSink) Send(message []byte) {
	select {
	case s.Ch <- message:
	default:
	}
}
