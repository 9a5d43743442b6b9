// Package pubsub provides a current-value broadcaster: one state cell fanned
// out to any number of subscribers.
//
// Every subscriber owns an unbounded queue drained by its own goroutine, so
// Publish never blocks on a slow reader and a reader never misses a value:
// it receives the value current at subscription time followed by every later
// published value, in order.
package pubsub

import (
	"context"
	"sync"
)

// Option configures a Broadcaster.
type Option[T any] func(*Broadcaster[T])

// WithCopy makes the broadcaster hand each subscriber its own copy of every
// value, for reference types such as slices.
func WithCopy[T any](fn func(T) T) Option[T] {
	return func(b *Broadcaster[T]) { b.copy = fn }
}

type Broadcaster[T any] struct {
	mu      sync.Mutex
	current T
	subs    map[*subscriber[T]]struct{}
	copy    func(T) T
}

func New[T any](initial T, opts ...Option[T]) *Broadcaster[T] {
	b := &Broadcaster[T]{
		current: initial,
		subs:    make(map[*subscriber[T]]struct{}),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Current returns the last published value (or the initial one).
func (b *Broadcaster[T]) Current() T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clone(b.current)
}

// Publish stores v as the current value and queues it for every subscriber.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current = v
	for s := range b.subs {
		s.push(b.clone(v))
	}
}

// Subscribe returns a channel that first yields the current value and then
// every published value. The channel is closed once ctx is done.
func (b *Broadcaster[T]) Subscribe(ctx context.Context) <-chan T {
	s := &subscriber[T]{
		out:    make(chan T),
		notify: make(chan struct{}, 1),
	}

	b.mu.Lock()
	s.push(b.clone(b.current))
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		defer close(s.out)
		defer b.remove(s)
		s.run(ctx)
	}()

	return s.out
}

// Subscribers reports how many subscriptions are live.
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster[T]) remove(s *subscriber[T]) {
	b.mu.Lock()
	delete(b.subs, s)
	b.mu.Unlock()
}

func (b *Broadcaster[T]) clone(v T) T {
	if b.copy == nil {
		return v
	}
	return b.copy(v)
}

type subscriber[T any] struct {
	mu      sync.Mutex
	pending []T
	notify  chan struct{}
	out     chan T
}

func (s *subscriber[T]) push(v T) {
	s.mu.Lock()
	s.pending = append(s.pending, v)
	s.mu.Unlock()

	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *subscriber[T]) pop() (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		var zero T
		return zero, false
	}
	v := s.pending[0]
	var zero T
	s.pending[0] = zero
	s.pending = s.pending[1:]
	return v, true
}

func (s *subscriber[T]) run(ctx context.Context) {
	for {
		v, ok := s.pop()
		if !ok {
			select {
			case <-s.notify:
				continue
			case <-ctx.Done():
				return
			}
		}

		select {
		case s.out <- v:
		case <-ctx.Done():
			return
		}
	}
}
