package eventbus

import (
	"slices"
	"sync"
)

// hooks observe the bus itself rather than one event. Publish and drop
// hooks run on the publishing goroutine; panic hooks on the dispatcher.
type hooks struct {
	mu      sync.RWMutex
	publish []func(Event, any)
	drop    []func(Event, any)
	panics  []func(Event, any, any)
}

// OnPublish registers fn to run after an event is enqueued.
func (bus *EventBus) OnPublish(fn func(Event, any)) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	bus.hooks.publish = append(bus.hooks.publish, fn)
}

// OnDrop registers fn to run when the buffer is full and an event is lost.
func (bus *EventBus) OnDrop(fn func(Event, any)) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	bus.hooks.drop = append(bus.hooks.drop, fn)
}

// OnPanic registers fn to run with the recovered value when a subscriber
// panics.
func (bus *EventBus) OnPanic(fn func(Event, any, any)) {
	bus.hooks.mu.Lock()
	defer bus.hooks.mu.Unlock()
	bus.hooks.panics = append(bus.hooks.panics, fn)
}

// send enqueues an event without blocking. Used by the typed Publish methods.
func (bus *EventBus) send(event Event, payload any) {
	select {
	case bus.ch <- envelope{event: event, payload: payload}:
		for _, fn := range snapshot(&bus.hooks, bus.hooks.publish) {
			fn(event, payload)
		}
	default:
		for _, fn := range snapshot(&bus.hooks, bus.hooks.drop) {
			fn(event, payload)
		}
	}
}

func (bus *EventBus) runOnPanic(event Event, payload, recovered any) {
	for _, fn := range snapshot(&bus.hooks, bus.hooks.panics) {
		func() {
			defer func() { _ = recover() }()
			fn(event, payload, recovered)
		}()
	}
}

// snapshot copies a hook list under the read lock so hooks may register
// more hooks while running.
func snapshot[T any](h *hooks, list []T) []T {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(list)
}
