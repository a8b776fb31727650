package rules

import (
	"errors"
	"fmt"
	"sync"
)

// Priority weight keys.
const (
	PriorityLevel   = "priorityLevel"
	TaskFulfillment = "taskFulfillment"
	Fairness        = "fairness"
)

// Bounds and default of every weight.
const (
	MinWeight     = 0
	MaxWeight     = 10
	DefaultWeight = 5
)

var (
	// ErrUnknownPriority is returned for a key other than the three weights.
	ErrUnknownPriority = errors.New("unknown priority key")
	// ErrWeightRange is returned for a weight outside MinWeight..MaxWeight.
	ErrWeightRange = errors.New("priority weight out of range")
)

// PrioritySettings holds the three scheduling weights.
type PrioritySettings struct {
	PriorityLevel   int `json:"priorityLevel"`
	TaskFulfillment int `json:"taskFulfillment"`
	Fairness        int `json:"fairness"`
}

// DefaultPriorities returns every weight at DefaultWeight.
func DefaultPriorities() PrioritySettings {
	return PrioritySettings{
		PriorityLevel:   DefaultWeight,
		TaskFulfillment: DefaultWeight,
		Fairness:        DefaultWeight,
	}
}

// Validate reports the first weight outside the allowed range.
func (p PrioritySettings) Validate() error {
	for _, kv := range []struct {
		key string
		val int
	}{
		{PriorityLevel, p.PriorityLevel},
		{TaskFulfillment, p.TaskFulfillment},
		{Fairness, p.Fairness},
	} {
		if err := checkWeight(kv.key, kv.val); err != nil {
			return err
		}
	}
	return nil
}

func checkWeight(key string, v int) error {
	if v < MinWeight || v > MaxWeight {
		return fmt.Errorf("%w: %s=%d (want %d..%d)", ErrWeightRange, key, v, MinWeight, MaxWeight)
	}
	return nil
}

// Priorities is the mutable weight record of a session. Weights change one
// at a time and are never removed. It is safe for concurrent use.
type Priorities struct {
	mu       sync.RWMutex
	settings PrioritySettings
}

// NewPriorities returns weights at their defaults.
func NewPriorities() *Priorities {
	return &Priorities{settings: DefaultPriorities()}
}

// Get returns a snapshot of the weights.
func (p *Priorities) Get() PrioritySettings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.settings
}

// Set changes one weight.
func (p *Priorities) Set(key string, value int) error {
	switch key {
	case PriorityLevel, TaskFulfillment, Fairness:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPriority, key)
	}
	if err := checkWeight(key, value); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch key {
	case PriorityLevel:
		p.settings.PriorityLevel = value
	case TaskFulfillment:
		p.settings.TaskFulfillment = value
	case Fairness:
		p.settings.Fairness = value
	}
	return nil
}

// Replace sets every weight at once, as an import does.
func (p *Priorities) Replace(s PrioritySettings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.settings = s
	return nil
}
