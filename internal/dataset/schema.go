package dataset

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// --- Enums ---

// Table identifies one of the three uploaded datasets.
type Table string

const (
	TableClients Table = "clients"
	TableTasks   Table = "tasks"
	TableWorkers Table = "workers"
)

// Tables lists every table in load and report order.
var Tables = []Table{TableClients, TableTasks, TableWorkers}

// ErrUnknownTable is returned for a table name other than the three datasets.
var ErrUnknownTable = errors.New("unknown table")

// ParseTable converts a user-supplied name into a Table.
func ParseTable(s string) (Table, error) {
	switch t := Table(strings.ToLower(strings.TrimSpace(s))); t {
	case TableClients, TableTasks, TableWorkers:
		return t, nil
	default:
		return "", fmt.Errorf("%w %q (want clients, tasks or workers)", ErrUnknownTable, s)
	}
}

// TableForFile infers the table a CSV file holds from its base name.
// A name mentioning "client" wins over "task", which wins over "worker".
func TableForFile(path string) (Table, bool) {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.Contains(name, "client"):
		return TableClients, true
	case strings.Contains(name, "task"):
		return TableTasks, true
	case strings.Contains(name, "worker"):
		return TableWorkers, true
	default:
		return "", false
	}
}

// --- Column names ---

const (
	ColClientID         = "ClientID"
	ColRequestedTaskIDs = "RequestedTaskIDs"
	ColPriorityLevel    = "PriorityLevel"
	ColAttributesJSON   = "AttributesJSON"

	ColTaskID          = "TaskID"
	ColDuration        = "Duration"
	ColPreferredPhases = "PreferredPhases"
	ColRequiredSkills  = "RequiredSkills"
	ColMaxConcurrent   = "MaxConcurrent"

	ColWorkerID        = "WorkerID"
	ColSkills          = "Skills"
	ColAvailableSlots  = "AvailableSlots"
	ColMaxLoadPerPhase = "MaxLoadPerPhase"
)

var (
	clientColumns = []string{ColClientID, ColRequestedTaskIDs, ColPriorityLevel, ColAttributesJSON}
	taskColumns   = []string{ColTaskID, ColDuration, ColPreferredPhases, ColRequiredSkills, ColMaxConcurrent, ColAttributesJSON}
	workerColumns = []string{ColWorkerID, ColSkills, ColAvailableSlots, ColMaxLoadPerPhase}
)

// KnownColumns returns the fixed columns of a table in canonical order.
func KnownColumns(t Table) []string {
	var cols []string
	switch t {
	case TableClients:
		cols = clientColumns
	case TableTasks:
		cols = taskColumns
	case TableWorkers:
		cols = workerColumns
	}
	out := make([]string, len(cols))
	copy(out, cols)
	return out
}

// --- Models ---

// Row is the open view of a record: known columns plus any extra columns.
// Patches and filters operate on rows so that extra columns remain reachable.
type Row map[string]any

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Client is one row of clients.csv. Known columns keep their raw text so
// malformed values stay loaded and get reported by the validators.
type Client struct {
	ClientID         string         `json:"ClientID"`
	RequestedTaskIDs string         `json:"RequestedTaskIDs"`
	PriorityLevel    string         `json:"PriorityLevel"`
	AttributesJSON   string         `json:"AttributesJSON"`
	Extra            map[string]any `json:"-"`
}

// Task is one row of tasks.csv.
type Task struct {
	TaskID          string         `json:"TaskID"`
	Duration        string         `json:"Duration"`
	PreferredPhases string         `json:"PreferredPhases"`
	RequiredSkills  string         `json:"RequiredSkills"`
	MaxConcurrent   string         `json:"MaxConcurrent"`
	AttributesJSON  string         `json:"AttributesJSON"`
	Extra           map[string]any `json:"-"`
}

// Worker is one row of workers.csv.
type Worker struct {
	WorkerID        string         `json:"WorkerID"`
	Skills          string         `json:"Skills"`
	AvailableSlots  string         `json:"AvailableSlots"`
	MaxLoadPerPhase string         `json:"MaxLoadPerPhase"`
	Extra           map[string]any `json:"-"`
}

// Row returns the open view of the client.
func (c Client) Row() Row {
	r := extraRow(c.Extra, len(clientColumns))
	r[ColClientID] = c.ClientID
	r[ColRequestedTaskIDs] = c.RequestedTaskIDs
	r[ColPriorityLevel] = c.PriorityLevel
	r[ColAttributesJSON] = c.AttributesJSON
	return r
}

// ClientFromRow builds a Client from a row. Columns other than the known
// ones are carried in Extra.
func ClientFromRow(r Row) Client {
	return Client{
		ClientID:         Text(r[ColClientID]),
		RequestedTaskIDs: Text(r[ColRequestedTaskIDs]),
		PriorityLevel:    Text(r[ColPriorityLevel]),
		AttributesJSON:   Text(r[ColAttributesJSON]),
		Extra:            extraFields(r, clientColumns),
	}
}

// Row returns the open view of the task.
func (t Task) Row() Row {
	r := extraRow(t.Extra, len(taskColumns))
	r[ColTaskID] = t.TaskID
	r[ColDuration] = t.Duration
	r[ColPreferredPhases] = t.PreferredPhases
	r[ColRequiredSkills] = t.RequiredSkills
	r[ColMaxConcurrent] = t.MaxConcurrent
	r[ColAttributesJSON] = t.AttributesJSON
	return r
}

// TaskFromRow builds a Task from a row.
func TaskFromRow(r Row) Task {
	return Task{
		TaskID:          Text(r[ColTaskID]),
		Duration:        Text(r[ColDuration]),
		PreferredPhases: Text(r[ColPreferredPhases]),
		RequiredSkills:  Text(r[ColRequiredSkills]),
		MaxConcurrent:   Text(r[ColMaxConcurrent]),
		AttributesJSON:  Text(r[ColAttributesJSON]),
		Extra:           extraFields(r, taskColumns),
	}
}

// Row returns the open view of the worker.
func (w Worker) Row() Row {
	r := extraRow(w.Extra, len(workerColumns))
	r[ColWorkerID] = w.WorkerID
	r[ColSkills] = w.Skills
	r[ColAvailableSlots] = w.AvailableSlots
	r[ColMaxLoadPerPhase] = w.MaxLoadPerPhase
	return r
}

// WorkerFromRow builds a Worker from a row.
func WorkerFromRow(r Row) Worker {
	return Worker{
		WorkerID:        Text(r[ColWorkerID]),
		Skills:          Text(r[ColSkills]),
		AvailableSlots:  Text(r[ColAvailableSlots]),
		MaxLoadPerPhase: Text(r[ColMaxLoadPerPhase]),
		Extra:           extraFields(r, workerColumns),
	}
}

func extraRow(extra map[string]any, known int) Row {
	r := make(Row, len(extra)+known)
	for k, v := range extra {
		r[k] = v
	}
	return r
}

func extraFields(r Row, known []string) map[string]any {
	var extra map[string]any
	for k, v := range r {
		if contains(known, k) {
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}
	return extra
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Bundle holds the three tables of one dataset.
type Bundle struct {
	Clients []Client `json:"clients"`
	Tasks   []Task   `json:"tasks"`
	Workers []Worker `json:"workers"`
}

// Rows returns the open view of a table.
func (b *Bundle) Rows(t Table) []Row {
	switch t {
	case TableClients:
		return ClientRows(b.Clients)
	case TableTasks:
		return TaskRows(b.Tasks)
	case TableWorkers:
		return WorkerRows(b.Workers)
	}
	return nil
}

// SetRows replaces a table with records rebuilt from rows.
func (b *Bundle) SetRows(t Table, rows []Row) {
	switch t {
	case TableClients:
		b.Clients = ClientsFromRows(rows)
	case TableTasks:
		b.Tasks = TasksFromRows(rows)
	case TableWorkers:
		b.Workers = WorkersFromRows(rows)
	}
}

// Len returns the number of records in a table.
func (b *Bundle) Len(t Table) int {
	switch t {
	case TableClients:
		return len(b.Clients)
	case TableTasks:
		return len(b.Tasks)
	case TableWorkers:
		return len(b.Workers)
	}
	return 0
}

// ClientRows converts clients to rows.
func ClientRows(cs []Client) []Row {
	out := make([]Row, len(cs))
	for i, c := range cs {
		out[i] = c.Row()
	}
	return out
}

// TaskRows converts tasks to rows.
func TaskRows(ts []Task) []Row {
	out := make([]Row, len(ts))
	for i, t := range ts {
		out[i] = t.Row()
	}
	return out
}

// WorkerRows converts workers to rows.
func WorkerRows(ws []Worker) []Row {
	out := make([]Row, len(ws))
	for i, w := range ws {
		out[i] = w.Row()
	}
	return out
}

// ClientsFromRows converts rows to clients.
func ClientsFromRows(rows []Row) []Client {
	out := make([]Client, len(rows))
	for i, r := range rows {
		out[i] = ClientFromRow(r)
	}
	return out
}

// TasksFromRows converts rows to tasks.
func TasksFromRows(rows []Row) []Task {
	out := make([]Task, len(rows))
	for i, r := range rows {
		out[i] = TaskFromRow(r)
	}
	return out
}

// WorkersFromRows converts rows to workers.
func WorkersFromRows(rows []Row) []Worker {
	out := make([]Worker, len(rows))
	for i, r := range rows {
		out[i] = WorkerFromRow(r)
	}
	return out
}
