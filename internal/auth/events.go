package auth

import "sync"

type EventType string

const (
	SignedIn    EventType = "SIGNED_IN"
	SignedOut   EventType = "SIGNED_OUT"
	UserUpdated EventType = "USER_UPDATED"
)

// Event is a session change. Session is nil for SignedOut.
type Event struct {
	Type    EventType
	Session *Session
}

const subscriberBuffer = 16

// Broker fans session changes out to subscribers. A subscriber that falls
// behind misses events instead of blocking the publisher.
type Broker struct {
	mu   sync.Mutex
	next int
	subs map[int]chan Event
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of events and a function that ends the
// subscription and closes the channel.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs, id)
			close(ch)
		})
	}
}

func (b *Broker) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
