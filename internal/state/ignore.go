package state

import (
	"sort"
	"sync"
)

// IgnoreSet holds the names of services whose next observed transition was
// caused by this process. Each entry suppresses exactly one watcher
// notification.
type IgnoreSet struct {
	mu    sync.Mutex
	names map[string]struct{}
}

// NewIgnoreSet creates an empty set.
func NewIgnoreSet() *IgnoreSet {
	return &IgnoreSet{names: make(map[string]struct{})}
}

// Add records name and reports whether it was newly added. Adding a name
// already present is a no-op.
func (s *IgnoreSet) Add(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; ok {
		return false
	}
	s.names[name] = struct{}{}
	return true
}

// Consume removes name and reports whether it was present.
func (s *IgnoreSet) Consume(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[name]; !ok {
		return false
	}
	delete(s.names, name)
	return true
}

// Contains reports whether name is present without consuming it.
func (s *IgnoreSet) Contains(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.names[name]
	return ok
}

// Len returns the number of pending entries.
func (s *IgnoreSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

// Names returns the pending entries in sorted order.
func (s *IgnoreSet) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.names))
	for n := range s.names {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
