package render

import "sync"

// ListenerSet holds click listeners keyed by element id
type ListenerSet struct {
	mu        sync.Mutex
	listeners map[string][]listener
	next      uint64
}

type listener struct {
	token uint64
	fn    func()
}

// NewListenerSet creates an empty set
func NewListenerSet() *ListenerSet {
	return &ListenerSet{listeners: make(map[string][]listener)}
}

// Add attaches fn to elementID and returns a function that detaches it
func (s *ListenerSet) Add(elementID string, fn func()) (remove func()) {
	s.mu.Lock()
	s.next++
	token := s.next
	s.listeners[elementID] = append(s.listeners[elementID], listener{token: token, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.listeners[elementID]
		for i, l := range list {
			if l.token == token {
				list = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(s.listeners, elementID)
		} else {
			s.listeners[elementID] = list
		}
	}
}

// Fire runs the listeners of elementID outside the lock and returns how
// many ran
func (s *ListenerSet) Fire(elementID string) int {
	s.mu.Lock()
	list := append([]listener(nil), s.listeners[elementID]...)
	s.mu.Unlock()

	for _, l := range list {
		l.fn()
	}
	return len(list)
}

// Remove detaches every listener of elementID and returns how many there were
func (s *ListenerSet) Remove(elementID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.listeners[elementID])
	delete(s.listeners, elementID)
	return n
}

// Count returns the number of attached listeners
func (s *ListenerSet) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, list := range s.listeners {
		n += len(list)
	}
	return n
}

// Elements returns how many elements have listeners
func (s *ListenerSet) Elements() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
