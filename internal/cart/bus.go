package cart

import (
	"sync"
	"time"
)

// Event is broadcast whenever a mutation changes the number of lines in a
// cart. Lines is the number of distinct lines after the mutation, so a
// cleared cart publishes zero.
type Event struct {
	OwnerID string    `json:"owner_id"`
	Lines   int       `json:"lines"`
	At      time.Time `json:"at"`
}

// Bus fans cart events out to any number of decoupled observers. Publish is
// synchronous with respect to subscription bookkeeping but never blocks on a
// slow observer: a subscriber whose buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]chan Event
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscription is one observer's registration. Events arrive on C until
// Unsubscribe is called, after which C is closed.
type Subscription struct {
	C      <-chan Event
	cancel func()
}

// Unsubscribe deregisters the observer. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.cancel()
}

// Subscribe registers an observer with the given channel buffer. Observers
// subscribe on mount and unsubscribe on unmount so no stale callback is ever
// invoked after the observer is gone.
func (b *Bus) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}

	return &Subscription{C: ch, cancel: cancel}
}

// Publish delivers the event to every current subscriber.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// observer is not keeping up, drop rather than block the mutation
		}
	}
}
