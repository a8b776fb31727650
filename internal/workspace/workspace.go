// Package workspace holds the state of one editing session: the three
// tables, their validation findings, the rule store and the priority
// weights. Every change revalidates what it touched and recomputes the
// cross-file findings.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/dusk-indust/alchemist/internal/dataset"
	"github.com/dusk-indust/alchemist/internal/patch"
	"github.com/dusk-indust/alchemist/internal/rules"
	"github.com/dusk-indust/alchemist/internal/validate"
)

// ErrRowOutOfRange is returned when a row index does not address a row.
var ErrRowOutOfRange = errors.New("row index out of range")

// Workspace is safe for concurrent use.
type Workspace struct {
	mu        sync.RWMutex
	data      dataset.Bundle
	tableErrs map[dataset.Table][]validate.ValidationError
	crossErrs []validate.ValidationError

	rules      *rules.Store
	priorities *rules.Priorities
	logger     *zap.Logger
}

// Option configures a Workspace.
type Option func(*Workspace)

// WithLogger sets the workspace logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Workspace) {
		if l != nil {
			w.logger = l
		}
	}
}

// New returns an empty workspace.
func New(opts ...Option) *Workspace {
	w := &Workspace{
		tableErrs:  make(map[dataset.Table][]validate.ValidationError),
		rules:      rules.NewStore(),
		priorities: rules.NewPriorities(),
		logger:     zap.NewNop(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Rules returns the session rule store.
func (w *Workspace) Rules() *rules.Store { return w.rules }

// Priorities returns the session weights.
func (w *Workspace) Priorities() *rules.Priorities { return w.priorities }

// LoadDir replaces every table with the CSV files found in dir. Tables
// without a file become empty.
func (w *Workspace) LoadDir(ctx context.Context, dir string) error {
	b, err := dataset.LoadDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("load %s: %w", dir, err)
	}
	w.LoadBundle(b)
	w.logger.Info("dataset loaded",
		zap.String("dir", dir),
		zap.Int("clients", len(b.Clients)),
		zap.Int("tasks", len(b.Tasks)),
		zap.Int("workers", len(b.Workers)))
	return nil
}

// LoadBundle replaces every table with the records of b.
func (w *Workspace) LoadBundle(b *dataset.Bundle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.data = dataset.Bundle{}
	if b != nil {
		w.data = dataset.Bundle{
			Clients: append([]dataset.Client(nil), b.Clients...),
			Tasks:   append([]dataset.Task(nil), b.Tasks...),
			Workers: append([]dataset.Worker(nil), b.Workers...),
		}
	}
	for _, t := range dataset.Tables {
		w.revalidateTable(t)
	}
	w.revalidateCrossFile()
}

// SetTable replaces one table and revalidates it. Replacing the tasks also
// revalidates the clients, whose task references depend on them.
func (w *Workspace) SetTable(t dataset.Table, rows []dataset.Row) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.setTable(t, rows)
}

func (w *Workspace) setTable(t dataset.Table, rows []dataset.Row) {
	w.data.SetRows(t, rows)
	w.revalidateTable(t)
	if t == dataset.TableTasks {
		w.revalidateTable(dataset.TableClients)
	}
	w.revalidateCrossFile()
}

// Rows returns a copy of one table in its open form.
func (w *Workspace) Rows(t dataset.Table) []dataset.Row {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.data.Rows(t)
}

// UpdateCell sets one cell and revalidates only that row, with duplicate
// detection seeded by the IDs of the rows before it. The row's previous
// findings are replaced.
func (w *Workspace) UpdateCell(t dataset.Table, rowIndex int, column string, value any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows := w.data.Rows(t)
	if rowIndex < 0 || rowIndex >= len(rows) {
		return fmt.Errorf("%w: %s row %d of %d", ErrRowOutOfRange, t, rowIndex, len(rows))
	}
	rows[rowIndex][column] = value
	w.data.SetRows(t, rows)

	var kept []validate.ValidationError
	for _, e := range w.tableErrs[t] {
		if e.RowIndex != rowIndex {
			kept = append(kept, e)
		}
	}
	kept = append(kept, w.validateRow(t, rowIndex)...)
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].RowIndex < kept[j].RowIndex })
	w.tableErrs[t] = kept

	w.revalidateCrossFile()
	w.logger.Debug("cell updated", zap.String("table", string(t)), zap.Int("row", rowIndex), zap.String("column", column))
	return nil
}

// DeleteRow removes one row and revalidates its table so row indices of the
// remaining findings stay aligned.
func (w *Workspace) DeleteRow(t dataset.Table, rowIndex int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	rows := w.data.Rows(t)
	if rowIndex < 0 || rowIndex >= len(rows) {
		return fmt.Errorf("%w: %s row %d of %d", ErrRowOutOfRange, t, rowIndex, len(rows))
	}
	rows = append(rows[:rowIndex], rows[rowIndex+1:]...)
	w.setTable(t, rows)
	return nil
}

// ApplyPatch reshapes one table with p and revalidates it.
func (w *Workspace) ApplyPatch(t dataset.Table, p patch.Patch) patch.Stats {
	w.mu.Lock()
	defer w.mu.Unlock()

	out, st := patch.ApplyWithStats(w.data.Rows(t), p)
	w.setTable(t, out)
	w.logger.Info("patch applied",
		zap.String("table", string(t)),
		zap.Int("modified", st.Modified),
		zap.Int("deleted", st.Deleted))
	return st
}

// FilterRows returns the rows of t matching node; a nil node keeps all.
func (w *Workspace) FilterRows(t dataset.Table, node patch.Node) []dataset.Row {
	return patch.Filter(w.Rows(t), node)
}

// Bundle returns a copy of the three tables.
func (w *Workspace) Bundle() *dataset.Bundle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return &dataset.Bundle{
		Clients: append([]dataset.Client(nil), w.data.Clients...),
		Tasks:   append([]dataset.Task(nil), w.data.Tasks...),
		Workers: append([]dataset.Worker(nil), w.data.Workers...),
	}
}

// Snapshot is a consistent view of the session's findings.
type Snapshot struct {
	Counts    map[dataset.Table]int                        `json:"counts"`
	Tables    map[dataset.Table][]validate.ValidationError `json:"tables"`
	CrossFile []validate.ValidationError                   `json:"crossFile"`
	Rules     int                                          `json:"rules"`
	Weights   rules.PrioritySettings                       `json:"priorities"`
}

// Errors returns every finding: client, task and worker findings in row
// order, then the cross-file findings.
func (s Snapshot) Errors() []validate.ValidationError {
	var out []validate.ValidationError
	for _, t := range dataset.Tables {
		out = append(out, s.Tables[t]...)
	}
	return append(out, s.CrossFile...)
}

// Snapshot copies the current findings.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s := Snapshot{
		Counts:  make(map[dataset.Table]int, len(dataset.Tables)),
		Tables:  make(map[dataset.Table][]validate.ValidationError, len(dataset.Tables)),
		Rules:   w.rules.Len(),
		Weights: w.priorities.Get(),
	}
	for _, t := range dataset.Tables {
		s.Counts[t] = w.data.Len(t)
		s.Tables[t] = append([]validate.ValidationError(nil), w.tableErrs[t]...)
	}
	s.CrossFile = append([]validate.ValidationError(nil), w.crossErrs...)
	return s
}

// revalidateTable recomputes every finding of t. Callers hold the lock.
func (w *Workspace) revalidateTable(t dataset.Table) {
	switch t {
	case dataset.TableClients:
		w.tableErrs[t] = validate.ValidateClients(w.data.Clients, validate.TaskIDs(w.data.Tasks))
	case dataset.TableTasks:
		w.tableErrs[t] = validate.ValidateTasks(w.data.Tasks)
	case dataset.TableWorkers:
		w.tableErrs[t] = validate.ValidateWorkers(w.data.Workers)
	}
}

// validateRow checks row i of t against the rows before it.
func (w *Workspace) validateRow(t dataset.Table, i int) []validate.ValidationError {
	switch t {
	case dataset.TableClients:
		seen := validate.NewSeenIDs()
		for _, c := range w.data.Clients[:i] {
			seen.Observe(c.ClientID)
		}
		return validate.ValidateClientRow(w.data.Clients[i], i, validate.TaskIDs(w.data.Tasks), seen)
	case dataset.TableTasks:
		seen := validate.NewSeenIDs()
		for _, tk := range w.data.Tasks[:i] {
			seen.Observe(tk.TaskID)
		}
		return validate.ValidateTaskRow(w.data.Tasks[i], i, seen)
	case dataset.TableWorkers:
		seen := validate.NewSeenIDs()
		for _, wk := range w.data.Workers[:i] {
			seen.Observe(wk.WorkerID)
		}
		return validate.ValidateWorkerRow(w.data.Workers[i], i, seen)
	}
	return nil
}

// revalidateCrossFile runs the cross-file checks once all three tables have
// rows; until then there are no cross-file findings.
func (w *Workspace) revalidateCrossFile() {
	if len(w.data.Clients) == 0 || len(w.data.Tasks) == 0 || len(w.data.Workers) == 0 {
		w.crossErrs = nil
		return
	}
	w.crossErrs = validate.ValidateCrossFile(w.data.Clients, w.data.Tasks, w.data.Workers)
}
