// Package reactive provides synchronous state cells and effects, the
// building blocks of the editor's hook-style state.
//
// A State notifies its subscribers on every write. An Effect re-runs when
// any of its sources changes, running the previous cleanup first. Writes made
// inside Runtime.Batch are coalesced: each subscriber runs once when the
// outermost batch returns.
package reactive

import (
	"sync"
	"sync/atomic"
)

// debugLog is set by pkg/debug
var debugLog func(args ...interface{})

// SetDebugLog sets the debug logging function
func SetDebugLog(fn func(args ...interface{})) {
	debugLog = fn
}

// subscriptionID hands out keys for plain subscriptions
var subscriptionID atomic.Uint64

// Source is anything an Effect can depend on
type Source interface {
	subscribe(key any, fn func()) (unsubscribe func())
}

// subscriber is a notification target. Subscribers with the same key are
// coalesced inside a batch.
type subscriber struct {
	key any
	fn  func()
}

// Runtime groups the cells of one owner (one editor instance) so their
// writes can be batched together. A Runtime is driven from one goroutine at a
// time; cells themselves are safe to read from any goroutine.
type Runtime struct {
	mu     sync.Mutex
	depth  int
	queue  []subscriber
	queued map[any]bool
}

// NewRuntime creates a runtime with no batch in progress
func NewRuntime() *Runtime {
	return &Runtime{queued: make(map[any]bool)}
}

// Batch runs fn and defers all notifications it causes until fn returns.
// Nested batches join the outermost one.
func (r *Runtime) Batch(fn func()) {
	r.mu.Lock()
	r.depth++
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		r.depth--
		if r.depth > 0 {
			r.mu.Unlock()
			return
		}
		queue := r.queue
		r.queue = nil
		r.queued = make(map[any]bool)
		r.mu.Unlock()

		if debugLog != nil && len(queue) > 0 {
			debugLog("[Runtime] Flushing", len(queue), "batched subscribers")
		}
		for _, sub := range queue {
			sub.fn()
		}
	}()

	fn()
}

// deferNotify queues sub when a batch is open and reports whether it did
func (r *Runtime) deferNotify(sub subscriber) bool {
	if r == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.depth == 0 {
		return false
	}
	if !r.queued[sub.key] {
		r.queued[sub.key] = true
		r.queue = append(r.queue, sub)
	}
	return true
}

// State is a reactive value
type State[T any] struct {
	value T
	mu    sync.RWMutex
	equal func(a, b T) bool

	subs   []subscriber
	subsMu sync.RWMutex

	runtime *Runtime
}

// NewState creates a state that notifies on every Set
func NewState[T any](initial T, rt *Runtime) *State[T] {
	return &State[T]{value: initial, runtime: rt}
}

// NewStateFunc creates a state that skips notification when equal reports
// the new value is the same as the old one
func NewStateFunc[T any](initial T, rt *Runtime, equal func(a, b T) bool) *State[T] {
	return &State[T]{value: initial, runtime: rt, equal: equal}
}

// Equal is an equality function for comparable types, for use with NewStateFunc
func Equal[T comparable](a, b T) bool {
	return a == b
}

// Get returns the current value
func (s *State[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and notifies subscribers
func (s *State[T]) Set(value T) {
	s.Update(func(T) T { return value })
}

// Update atomically reads, modifies, and writes the value
func (s *State[T]) Update(fn func(T) T) {
	s.mu.Lock()
	old := s.value
	s.value = fn(old)
	changed := s.equal == nil || !s.equal(old, s.value)
	s.mu.Unlock()

	if !changed {
		return
	}
	s.notify()
}

// Subscribe registers fn to be called with the new value after each change
func (s *State[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	return s.subscribe(subscriptionID.Add(1), func() { fn(s.Get()) })
}

func (s *State[T]) subscribe(key any, fn func()) func() {
	s.subsMu.Lock()
	s.subs = append(s.subs, subscriber{key: key, fn: fn})
	s.subsMu.Unlock()

	return func() {
		s.subsMu.Lock()
		defer s.subsMu.Unlock()
		for i, sub := range s.subs {
			if sub.key == key {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Subscribers returns the number of live subscriptions
func (s *State[T]) Subscribers() int {
	s.subsMu.RLock()
	defer s.subsMu.RUnlock()
	return len(s.subs)
}

// notify runs subscribers outside the locks so they may write other cells
func (s *State[T]) notify() {
	s.subsMu.RLock()
	subs := make([]subscriber, len(s.subs))
	copy(subs, s.subs)
	s.subsMu.RUnlock()

	for _, sub := range subs {
		if s.runtime.deferNotify(sub) {
			continue
		}
		sub.fn()
	}
}

// Effect re-runs a function whenever one of its sources changes
type Effect struct {
	run     func() func()
	cleanup func()
	unsubs  []func()

	mu      sync.Mutex
	running bool
	pending bool
	stopped bool
	runs    int
}

// NewEffect runs fn immediately and again after every change to deps. The
// function returned by fn, if any, runs before the next run and on Stop.
func NewEffect(fn func() (cleanup func()), deps ...Source) *Effect {
	e := &Effect{run: fn}
	for _, dep := range deps {
		e.unsubs = append(e.unsubs, dep.subscribe(e, e.trigger))
	}
	e.trigger()
	return e
}

// trigger runs the effect. A trigger that arrives while the effect is
// running is folded into one more run after the current one.
func (e *Effect) trigger() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	if e.running {
		e.pending = true
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	for {
		if e.cleanup != nil {
			e.cleanup()
			e.cleanup = nil
		}
		e.cleanup = e.run()

		e.mu.Lock()
		e.runs++
		if !e.pending || e.stopped {
			e.running = false
			e.mu.Unlock()
			return
		}
		e.pending = false
		e.mu.Unlock()
	}
}

// Runs returns how many times the effect has run
func (e *Effect) Runs() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs
}

// Stop unsubscribes the effect and runs its last cleanup
func (e *Effect) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	unsubs := e.unsubs
	e.unsubs = nil
	e.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	if e.cleanup != nil {
		e.cleanup()
		e.cleanup = nil
	}
}
