// Package broadcast fans values out to any number of subscribers without
// ever blocking the publisher.
package broadcast

import "sync"

// DefaultBuffer is the per-subscriber queue length used by New.
const DefaultBuffer = 16

// Broadcaster delivers every published value to all current subscribers.
// Each subscriber has a bounded queue; when it is full the oldest queued
// value is dropped to make room, so a slow reader sees the latest values
// and the publisher never waits.
type Broadcaster[T any] struct {
	mu     sync.Mutex
	subs   map[*Subscription[T]]struct{}
	buffer int
}

// Subscription receives values from a Broadcaster until closed.
type Subscription[T any] struct {
	ch     chan T
	parent *Broadcaster[T]
	once   sync.Once
}

// New creates a Broadcaster with DefaultBuffer slots per subscriber.
func New[T any]() *Broadcaster[T] {
	return NewWithBuffer[T](DefaultBuffer)
}

// NewWithBuffer creates a Broadcaster with n slots per subscriber.
func NewWithBuffer[T any](n int) *Broadcaster[T] {
	if n < 1 {
		n = 1
	}

	return &Broadcaster[T]{
		subs:   make(map[*Subscription[T]]struct{}),
		buffer: n,
	}
}

// Subscribe registers a new subscriber. The caller must Close it.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		ch:     make(chan T, b.buffer),
		parent: b,
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Subscribers returns the number of open subscriptions.
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.subs)
}

// Publish sends v to every subscriber and returns how many received it.
func (b *Broadcaster[T]) Publish(v T) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs {
		for {
			select {
			case sub.ch <- v:
			default:
				// Full: drop the oldest and retry. Only Publish sends,
				// and it holds the lock, so the retry cannot starve.
				select {
				case <-sub.ch:
				default:
				}

				continue
			}

			break
		}
	}

	return len(b.subs)
}

// C returns the channel values are delivered on. It is closed by Close.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription[T]) Close() {
	s.once.Do(func() {
		s.parent.mu.Lock()
		delete(s.parent.subs, s)
		close(s.ch)
		s.parent.mu.Unlock()
	})
}
