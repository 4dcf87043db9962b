package memdb

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// broadcaster fans event batches out to the subscriptions of one handle.
// Publishing only appends to queues and never blocks.
type broadcaster struct {
	mu        sync.Mutex
	subs      map[*Subscription]struct{}
	completed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[*Subscription]struct{})}
}

func (b *broadcaster) publish(batch *EventBatch) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		s.push(batch)
	}
}

func (b *broadcaster) subscribe() *Subscription {
	s := &Subscription{
		ID:     uuid.NewString(),
		b:      b,
		signal: make(chan struct{}, 1),
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.completed {
		s.done = true
	} else {
		b.subs[s] = struct{}{}
	}
	return s
}

func (b *broadcaster) unsubscribe(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, s)
}

// complete ends every subscription. Queued batches stay readable.
func (b *broadcaster) complete() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.completed = true
	for s := range b.subs {
		s.finish()
	}
	b.subs = nil
}

// Subscription receives the event batches of one collection handle.
type Subscription struct {
	ID string

	b      *broadcaster
	mu     sync.Mutex
	queue  []*EventBatch
	done   bool
	signal chan struct{}
}

func (s *Subscription) push(batch *EventBatch) {
	s.mu.Lock()
	if !s.done {
		s.queue = append(s.queue, batch)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Subscription) finish() {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	s.notify()
}

func (s *Subscription) notify() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

// Next blocks until a batch is available. After the handle is closed, it
// drains what was queued and then returns ErrClosed.
func (s *Subscription) Next(ctx context.Context) (*EventBatch, error) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			batch := s.queue[0]
			s.queue[0] = nil
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return batch, nil
		}
		done := s.done
		s.mu.Unlock()
		if done {
			return nil, ErrClosed
		}

		select {
		case <-s.signal:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Pending returns the number of queued batches.
func (s *Subscription) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close stops delivery and discards queued batches.
func (s *Subscription) Close() {
	s.b.unsubscribe(s)
	s.mu.Lock()
	s.done = true
	s.queue = nil
	s.mu.Unlock()
	s.notify()
}
