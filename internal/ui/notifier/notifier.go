// Package notifier fans the latest value out to any number of listeners.
package notifier

import "sync"

// Notifier broadcasts values to all subscribed listeners. Listeners only
// ever see the most recent value: a slow listener skips intermediate ones
// instead of blocking the publisher.
type Notifier[T any] struct {
	mu        sync.RWMutex
	listeners map[chan T]struct{}
	latest    T
	has       bool
}

// New creates a new Notifier instance.
func New[T any]() *Notifier[T] {
	return &Notifier[T]{
		listeners: make(map[chan T]struct{}),
	}
}

// Subscribe returns a channel that receives published values. If a value was
// already published it is delivered immediately. The caller must call
// Unsubscribe when done.
func (n *Notifier[T]) Subscribe() chan T {
	ch := make(chan T, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	if n.has {
		ch <- n.latest
	}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier[T]) Unsubscribe(ch chan T) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; !ok {
		return
	}
	delete(n.listeners, ch)
	close(ch)
}

// Publish records v and hands it to every listener, replacing a value the
// listener has not consumed yet.
func (n *Notifier[T]) Publish(v T) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.latest = v
	n.has = true
	for ch := range n.listeners {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}

// Latest returns the most recently published value.
func (n *Notifier[T]) Latest() (T, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.latest, n.has
}

// Close unsubscribes every listener.
func (n *Notifier[T]) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for ch := range n.listeners {
		delete(n.listeners, ch)
		close(ch)
	}
}
