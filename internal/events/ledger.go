package events

import (
	"sync"
	"time"
)

// Kind names what a notification reports.
type Kind string

const (
	KindFundCreated       Kind = "fund_created"
	KindAccountCreated    Kind = "account_created"
	KindPeriodCreated     Kind = "period_created"
	KindPeriodClosed      Kind = "period_closed"
	KindEventAdded        Kind = "balance_event_added"
	KindTransactionPosted Kind = "transaction_posted"
)

// Notification announces a committed ledger change. Ids are plain strings so
// web consumers don't need the domain package.
type Notification struct {
	Timestamp   time.Time `json:"ts"`
	Kind        Kind      `json:"kind"`
	Account     string    `json:"account,omitempty"`
	Period      string    `json:"period,omitempty"`
	Event       string    `json:"event,omitempty"`
	Transaction string    `json:"transaction,omitempty"`
	Date        string    `json:"date,omitempty"`
}

// Broadcaster fans out notifications to all subscribers via buffered channels.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[chan Notification]struct{}
	buffer int
}

// NewBroadcaster creates a broadcaster with the given per-subscriber buffer.
func NewBroadcaster(buffer int) *Broadcaster {
	if buffer < 1 {
		buffer = 64
	}
	return &Broadcaster{
		subs:   make(map[chan Notification]struct{}),
		buffer: buffer,
	}
}

// Publish sends n to all subscribers, dropping it for readers that fall behind.
func (b *Broadcaster) Publish(n Notification) {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- n:
		default:
			// drop slow consumer
		}
	}
}

// Subscribe returns a channel that receives notifications until Unsubscribe is called.
func (b *Broadcaster) Subscribe() chan Notification {
	ch := make(chan Notification, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes the channel and closes it.
func (b *Broadcaster) Unsubscribe(ch chan Notification) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers reports how many channels are attached.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
