package flowchart

import "sync"

// ClickHandler receives the id of a clicked node
type ClickHandler func(nodeID string)

// Dispatcher routes node clicks from a renderer to the handler registered
// under the click binding's callback name. Each editor owns one, so several
// editors never share a callback.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]registration
	next     uint64
}

type registration struct {
	token uint64
	fn    ClickHandler
}

// NewDispatcher creates an empty dispatcher
func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]registration)}
}

// Register binds fn to callback, replacing any previous handler. The
// returned function removes the binding only if it has not been replaced
// since.
func (d *Dispatcher) Register(callback string, fn ClickHandler) (unregister func()) {
	d.mu.Lock()
	d.next++
	token := d.next
	d.handlers[callback] = registration{token: token, fn: fn}
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		if reg, ok := d.handlers[callback]; ok && reg.token == token {
			delete(d.handlers, callback)
		}
	}
}

// Dispatch invokes the handler bound to callback and reports whether one was
func (d *Dispatcher) Dispatch(callback, nodeID string) bool {
	d.mu.RLock()
	reg, ok := d.handlers[callback]
	d.mu.RUnlock()
	if !ok {
		if debugLog != nil {
			debugLog("[Dispatcher] No handler for callback", callback)
		}
		return false
	}
	reg.fn(nodeID)
	return true
}

// Has reports whether a handler is bound to callback
func (d *Dispatcher) Has(callback string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[callback]
	return ok
}

// Len returns the number of bound callbacks
func (d *Dispatcher) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers)
}
