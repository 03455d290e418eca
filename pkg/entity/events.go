// pkg/entity/events.go

package entity

import "sync"

// Lifecycle and collection events.
const (
	EventRequest = "request"
	EventSync    = "sync"
	EventError   = "error"
	EventChange  = "change"
	EventDestroy = "destroy"
	EventAdd     = "add"
	EventRemove  = "remove"
	EventReset   = "reset"

	// EventAll handlers receive every event, with the event name as the
	// first argument.
	EventAll = "all"
)

// Handler receives the arguments passed to Trigger.
type Handler func(args ...any)

// Events is a minimal synchronous event bus. The zero value is ready to use.
type Events struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// On registers handler for event.
func (e *Events) On(event string, handler Handler) {
	if handler == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[string][]Handler)
	}
	e.handlers[event] = append(e.handlers[event], handler)
}

// Off removes every handler registered for event.
func (e *Events) Off(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handlers, event)
}

// Trigger calls the handlers for event in registration order, then the
// EventAll handlers. Handlers run outside the lock and may register more.
func (e *Events) Trigger(event string, args ...any) {
	e.mu.RLock()
	direct := append([]Handler(nil), e.handlers[event]...)
	var all []Handler
	if event != EventAll {
		all = append([]Handler(nil), e.handlers[EventAll]...)
	}
	e.mu.RUnlock()

	for _, h := range direct {
		h(args...)
	}
	if len(all) == 0 {
		return
	}
	withName := append([]any{event}, args...)
	for _, h := range all {
		h(withName...)
	}
}
