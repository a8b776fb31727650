package rules

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNilRule is returned when a nil rule is added or encoded.
	ErrNilRule = errors.New("nil rule")
	// ErrIndexOutOfRange is returned by Remove for a position outside the list.
	ErrIndexOutOfRange = errors.New("rule index out of range")
)

// Store is the ordered rule list of a session. Insertion order is kept
// because precedence-style rules depend on it. The store accepts any rule
// value; callers run Check first. It is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	rules []Rule
}

// NewStore returns a store holding rs in order.
func NewStore(rs ...Rule) *Store {
	s := &Store{}
	for _, r := range rs {
		if r != nil {
			s.rules = append(s.rules, r)
		}
	}
	return s
}

// Add appends r.
func (s *Store) Add(r Rule) error {
	if r == nil {
		return ErrNilRule
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
	return nil
}

// Remove deletes the rule at index, shifting later rules down.
func (s *Store) Remove(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.rules) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, index, len(s.rules))
	}
	s.rules = append(s.rules[:index:index], s.rules[index+1:]...)
	return nil
}

// Clear removes every rule.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = nil
}

// Replace swaps the whole list, as an import does.
func (s *Store) Replace(rs []Rule) error {
	for i, r := range rs {
		if r == nil {
			return fmt.Errorf("rule %d: %w", i, ErrNilRule)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append([]Rule(nil), rs...)
	return nil
}

// List returns a copy of the rules in insertion order.
func (s *Store) List() []Rule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Len returns the number of rules.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}
