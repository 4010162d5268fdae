// Package notify provides a synchronous publish/subscribe registry.
//
// Architecture:
//   - Single-threaded: callers serialize Subscribe/Publish themselves
//   - Subscribers are invoked in registration order
//   - Handles are never reused, so a stale Unsubscribe is harmless
package notify

// Handle identifies a subscription.
type Handle uint64

type subscription[T any] struct {
	handle Handle
	fn     func(T)
}

// Registry holds the callbacks registered for one event.
// The zero value is ready to use.
type Registry[T any] struct {
	next Handle
	subs []subscription[T]
}

// Subscribe registers fn and returns its handle.
func (r *Registry[T]) Subscribe(fn func(T)) Handle {
	r.next++
	r.subs = append(r.subs, subscription[T]{handle: r.next, fn: fn})
	return r.next
}

// Unsubscribe removes the subscription. Returns false if h is unknown.
func (r *Registry[T]) Unsubscribe(h Handle) bool {
	for i, s := range r.subs {
		if s.handle == h {
			r.subs = append(r.subs[:i:i], r.subs[i+1:]...)
			return true
		}
	}
	return false
}

// Publish invokes every subscriber with v.
// A subscriber that unsubscribes during Publish does not affect the current round.
func (r *Registry[T]) Publish(v T) {
	subs := r.subs
	for _, s := range subs {
		s.fn(v)
	}
}

// Len returns the number of subscribers.
func (r *Registry[T]) Len() int {
	return len(r.subs)
}
