// Package validate checks client, task and worker tables one row at a time
// and across tables. Every finding is returned as a ValidationError value;
// nothing in this package returns a Go error or panics on malformed input.
package validate

import (
	"fmt"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

// TableLevel is the RowIndex of findings that belong to a whole table.
const TableLevel = -1

// ValidationError is one finding against a table, a row, or a cell.
type ValidationError struct {
	File     dataset.Table `json:"file"`
	RowIndex int           `json:"rowIndex"`
	Column   string        `json:"column,omitempty"`
	Message  string        `json:"message"`
}

func (e ValidationError) String() string {
	if e.RowIndex == TableLevel {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	if e.Column == "" {
		return fmt.Sprintf("%s row %d: %s", e.File, e.RowIndex, e.Message)
	}
	return fmt.Sprintf("%s row %d [%s]: %s", e.File, e.RowIndex, e.Column, e.Message)
}

// SeenIDs accumulates the IDs observed so far in one table. The first
// occurrence of an ID is recorded; every later occurrence is a duplicate.
// A SeenIDs is not safe for concurrent use.
type SeenIDs struct {
	ids map[string]struct{}
}

// NewSeenIDs returns an accumulator that already holds ids.
func NewSeenIDs(ids ...string) *SeenIDs {
	s := &SeenIDs{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Observe records id and reports whether it had been seen before.
func (s *SeenIDs) Observe(id string) bool {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	if _, ok := s.ids[id]; ok {
		return true
	}
	s.ids[id] = struct{}{}
	return false
}

// Len returns the number of distinct IDs recorded.
func (s *SeenIDs) Len() int {
	return len(s.ids)
}

// IDSet is a set of record IDs.
type IDSet map[string]struct{}

// Has reports membership.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// TaskIDs collects the IDs of a task table.
func TaskIDs(tasks []dataset.Task) IDSet {
	set := make(IDSet, len(tasks))
	for _, t := range tasks {
		set[t.TaskID] = struct{}{}
	}
	return set
}
