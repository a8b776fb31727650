package mcptools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dusk-indust/alchemist/internal/dataset"
	"github.com/dusk-indust/alchemist/internal/export"
	"github.com/dusk-indust/alchemist/internal/llm"
	"github.com/dusk-indust/alchemist/internal/patch"
	"github.com/dusk-indust/alchemist/internal/rules"
	"github.com/dusk-indust/alchemist/internal/validate"
	"github.com/dusk-indust/alchemist/internal/workspace"
)

// fakeGenerator replays a canned reply.
type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(_ context.Context, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func fixtureBundle() *dataset.Bundle {
	return &dataset.Bundle{
		Clients: []dataset.Client{
			{ClientID: "C1", RequestedTaskIDs: "T1,T2", PriorityLevel: "2", AttributesJSON: "{}"},
			{ClientID: "C2", RequestedTaskIDs: "T2", PriorityLevel: "4", AttributesJSON: `{"tier":"gold"}`},
		},
		Tasks: []dataset.Task{
			{TaskID: "T1", Duration: "1", PreferredPhases: "1-2", RequiredSkills: "go", MaxConcurrent: "1", AttributesJSON: `{"CoRunWith":["T2"]}`},
			{TaskID: "T2", Duration: "1", PreferredPhases: "[2]", RequiredSkills: "sql", MaxConcurrent: "1", AttributesJSON: `{}`},
		},
		Workers: []dataset.Worker{
			{WorkerID: "W1", Skills: "go,sql", AvailableSlots: "[1,2]", MaxLoadPerPhase: "2"},
			{WorkerID: "W2", Skills: "sql", AvailableSlots: "[2]", MaxLoadPerPhase: "1"},
		},
	}
}

// fixtureDir writes the fixture tables as CSV files.
func fixtureDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, dataset.WriteDir(dir, fixtureBundle()))
	return dir
}

func newTestService(t *testing.T, gen llm.Generator) *Service {
	t.Helper()
	ws := workspace.New()
	ws.LoadBundle(fixtureBundle())
	var assistant *llm.Assistant
	if gen != nil {
		assistant = llm.NewAssistant(gen)
	}
	return NewService(ws, assistant, WithTimeout(time.Second))
}

func TestLoadData_Dir(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewService(workspace.New(), nil, WithLogger(zap.New(core)))

	_, out, err := svc.LoadData(context.Background(), nil, LoadDataInput{Dir: fixtureDir(t)})
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"clients": 2, "tasks": 2, "workers": 2}, out.Counts)
	assert.Zero(t, out.Total)
	assert.NotNil(t, out.Errors)
	assert.NotNil(t, out.CrossFile)
	assert.Zero(t, logs.Len())
}

func TestLoadData_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "my_workers.csv")
	doc := "WorkerID,Skills,AvailableSlots,MaxLoadPerPhase\nW1,go,[1],2\nW2,go,[1],0\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	core, logs := observer.New(zapcore.InfoLevel)
	svc := NewService(workspace.New(), nil, WithLogger(zap.New(core)))

	_, out, err := svc.LoadData(context.Background(), nil, LoadDataInput{File: path})
	require.NoError(t, err)
	assert.Equal(t, 2, out.Counts["workers"])
	require.Len(t, out.Errors, 1)
	assert.Equal(t, dataset.TableWorkers, out.Errors[0].File)
	assert.Equal(t, 1, out.Errors[0].RowIndex)
	assert.Equal(t, dataset.ColMaxLoadPerPhase, out.Errors[0].Column)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "table loaded", logs.All()[0].Message)
}

func TestLoadData_Errors(t *testing.T) {
	svc := NewService(workspace.New(), nil)
	ctx := context.Background()

	_, _, err := svc.LoadData(ctx, nil, LoadDataInput{})
	assert.Error(t, err)

	_, _, err = svc.LoadData(ctx, nil, LoadDataInput{File: "/nowhere/data.csv"})
	assert.ErrorIs(t, err, dataset.ErrUnknownTable)

	_, _, err = svc.LoadData(ctx, nil, LoadDataInput{File: "/nowhere/data.csv", Table: "invoices"})
	assert.ErrorIs(t, err, dataset.ErrUnknownTable)

	_, _, err = svc.LoadData(ctx, nil, LoadDataInput{Dir: t.TempDir()})
	assert.ErrorIs(t, err, dataset.ErrNoData)
}

func TestUpdateCell(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, out, err := svc.UpdateCell(ctx, nil, UpdateCellInput{Table: "tasks", RowIndex: 0, Column: "Duration", Value: "0"})
	require.NoError(t, err)
	assert.Contains(t, out.Errors, validate.ValidationError{
		File:     dataset.TableTasks,
		RowIndex: 0,
		Column:   dataset.ColDuration,
		Message:  "Duration must be at least 1",
	})

	_, _, err = svc.UpdateCell(ctx, nil, UpdateCellInput{Table: "tasks", RowIndex: 9, Column: "Duration", Value: "1"})
	assert.ErrorIs(t, err, workspace.ErrRowOutOfRange)

	_, _, err = svc.UpdateCell(ctx, nil, UpdateCellInput{Table: "tasks", RowIndex: 0, Value: "1"})
	assert.Error(t, err)

	_, _, err = svc.UpdateCell(ctx, nil, UpdateCellInput{Table: "jobs", Column: "Duration", Value: "1"})
	assert.ErrorIs(t, err, dataset.ErrUnknownTable)
}

func TestDeleteRow(t *testing.T) {
	svc := newTestService(t, nil)

	_, out, err := svc.DeleteRow(context.Background(), nil, DeleteRowInput{Table: "clients", RowIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Counts["clients"])
	assert.Equal(t, "C2", svc.Workspace().Rows(dataset.TableClients)[0]["ClientID"])

	_, _, err = svc.DeleteRow(context.Background(), nil, DeleteRowInput{Table: "clients", RowIndex: 5})
	assert.ErrorIs(t, err, workspace.ErrRowOutOfRange)
}

func TestRuleTools(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, added, err := svc.AddRule(ctx, nil, AddRuleInput{Rule: map[string]any{"type": "coRun", "tasks": []any{"T1", "T2"}}})
	require.NoError(t, err)
	assert.True(t, added.Added)
	assert.Equal(t, 1, added.Count)
	assert.Equal(t, "coRun", added.Rule["type"])

	_, _, err = svc.AddRule(ctx, nil, AddRuleInput{Rule: map[string]any{"type": "coRun", "tasks": []any{"T1"}}})
	assert.ErrorIs(t, err, rules.ErrInvalidRule)

	_, _, err = svc.AddRule(ctx, nil, AddRuleInput{Rule: map[string]any{"type": "blackout"}})
	assert.ErrorIs(t, err, rules.ErrUnknownKind)

	_, _, err = svc.AddRule(ctx, nil, AddRuleInput{})
	assert.Error(t, err)

	_, _, err = svc.AddRule(ctx, nil, AddRuleInput{Rule: map[string]any{"type": "TaskPriority", "priorityList": []any{"T2", "T1"}}})
	require.NoError(t, err)

	_, list, err := svc.ListRules(ctx, nil, ListRulesInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, "TaskPriority", list.Rules[1]["type"])

	_, list, err = svc.RemoveRule(ctx, nil, RemoveRuleInput{Index: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Count)
	assert.Equal(t, "TaskPriority", list.Rules[0]["type"])

	_, _, err = svc.RemoveRule(ctx, nil, RemoveRuleInput{Index: 3})
	assert.Error(t, err)

	_, list, err = svc.ClearRules(ctx, nil, ClearRulesInput{})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{}, list.Rules)
	assert.Zero(t, svc.Workspace().Rules().Len())
}

func TestSetPriority(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, out, err := svc.SetPriority(ctx, nil, SetPriorityInput{Key: rules.Fairness, Value: 9})
	require.NoError(t, err)
	assert.Equal(t, rules.PrioritySettings{PriorityLevel: 5, TaskFulfillment: 5, Fairness: 9}, out.Priorities)

	_, _, err = svc.SetPriority(ctx, nil, SetPriorityInput{Key: rules.Fairness, Value: 11})
	assert.ErrorIs(t, err, rules.ErrWeightRange)

	_, _, err = svc.SetPriority(ctx, nil, SetPriorityInput{Key: "speed", Value: 1})
	assert.ErrorIs(t, err, rules.ErrUnknownPriority)
}

func TestApplyPatch(t *testing.T) {
	svc := newTestService(t, nil)

	p := patch.Patch{
		Modification: []patch.Modification{{Where: patch.Where{"PriorityLevel >": 3}, Set: map[string]any{"Tier": "A"}}},
		Deletion:     []patch.Deletion{{Where: patch.Where{"ClientID": "C1"}}},
	}
	_, out, err := svc.ApplyPatch(context.Background(), nil, ApplyPatchInput{Table: "clients", Patch: p})
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, patch.Stats{Modified: 1, Deleted: 1}, out.Stats)
	assert.Equal(t, 1, out.Validation.Counts["clients"])

	rows := svc.Workspace().Rows(dataset.TableClients)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0]["Tier"])
}

func TestFilterRows(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	filter := map[string]any{"any": []any{
		map[string]any{"field": "Skills", "op": "==", "value": "sql"},
		map[string]any{"field": "MaxLoadPerPhase", "op": ">", "value": 1},
	}}
	_, out, err := svc.FilterRows(ctx, nil, FilterRowsInput{Table: "workers", Filter: filter})
	require.NoError(t, err)
	assert.True(t, out.Filtered)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, 2, out.Matched)

	_, out, err = svc.FilterRows(ctx, nil, FilterRowsInput{Table: "workers"})
	require.NoError(t, err)
	assert.False(t, out.Filtered)
	assert.Equal(t, 2, out.Matched)

	_, _, err = svc.FilterRows(ctx, nil, FilterRowsInput{Table: "workers", Filter: map[string]any{"field": "Skills", "op": "~"}})
	assert.ErrorIs(t, err, patch.ErrBadNode)
}

func TestNLModify(t *testing.T) {
	gen := &fakeGenerator{reply: "```json\n" + `{"modification":[{"where":{"ClientID":"C2"},"set":{"PriorityLevel":"5"}}]}` + "\n```"}
	svc := newTestService(t, gen)
	ctx := context.Background()

	_, out, err := svc.NLModify(ctx, nil, NLModifyInput{Table: "clients", Description: "raise C2", DryRun: true})
	require.NoError(t, err)
	require.NotNil(t, out.Patch)
	assert.False(t, out.Applied)
	assert.Equal(t, "4", svc.Workspace().Rows(dataset.TableClients)[1]["PriorityLevel"])

	_, out, err = svc.NLModify(ctx, nil, NLModifyInput{Table: "clients", Description: "raise C2"})
	require.NoError(t, err)
	assert.True(t, out.Applied)
	assert.Equal(t, patch.Stats{Modified: 1}, out.Stats)
	assert.Equal(t, "5", svc.Workspace().Rows(dataset.TableClients)[1]["PriorityLevel"])
	assert.Equal(t, 2, gen.calls)

	_, _, err = svc.NLModify(ctx, nil, NLModifyInput{Table: "clients"})
	assert.Error(t, err)
}

func TestNLModify_NoPatch(t *testing.T) {
	for _, gen := range []llm.Generator{nil, &fakeGenerator{err: errors.New("quota")}, &fakeGenerator{reply: "null"}} {
		svc := newTestService(t, gen)
		before := svc.Workspace().Rows(dataset.TableClients)

		_, out, err := svc.NLModify(context.Background(), nil, NLModifyInput{Table: "clients", Description: "anything"})
		require.NoError(t, err)
		assert.Nil(t, out.Patch)
		assert.False(t, out.Applied)
		assert.Equal(t, before, svc.Workspace().Rows(dataset.TableClients))
	}
}

func TestNLFilter(t *testing.T) {
	gen := &fakeGenerator{reply: `{"all":[{"field":"RequiredSkills","op":"==","value":"go"}]}`}
	svc := newTestService(t, gen)

	_, out, err := svc.NLFilter(context.Background(), nil, NLFilterInput{Table: "tasks", Query: "go tasks"})
	require.NoError(t, err)
	assert.True(t, out.Filtered)
	assert.Equal(t, 1, out.Matched)
	assert.Equal(t, "T1", out.Rows[0]["TaskID"])

	want := map[string]any{"all": []any{map[string]any{"field": "RequiredSkills", "op": "==", "value": "go"}}}
	if diff := cmp.Diff(want, out.Filter); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}
}

func TestNLFilter_KeepsAllOnFailure(t *testing.T) {
	svc := newTestService(t, &fakeGenerator{reply: "row => true"})

	_, out, err := svc.NLFilter(context.Background(), nil, NLFilterInput{Table: "tasks", Query: "anything"})
	require.NoError(t, err)
	assert.False(t, out.Filtered)
	assert.Nil(t, out.Filter)
	assert.Equal(t, 2, out.Matched)
}

func TestNLRule(t *testing.T) {
	gen := &fakeGenerator{reply: `{"type":"coRun","tasks":["T1","T2"]}`}
	svc := newTestService(t, gen)
	ctx := context.Background()

	_, out, err := svc.NLRule(ctx, nil, NLRuleInput{Description: "T1 with T2", DryRun: true})
	require.NoError(t, err)
	assert.False(t, out.Added)
	assert.Equal(t, "coRun", out.Rule["type"])
	assert.Zero(t, svc.Workspace().Rules().Len())

	_, out, err = svc.NLRule(ctx, nil, NLRuleInput{Description: "T1 with T2"})
	require.NoError(t, err)
	assert.True(t, out.Added)
	assert.Equal(t, []rules.Rule{rules.CoRun{Tasks: []string{"T1", "T2"}}}, svc.Workspace().Rules().List())
}

func TestNLRule_Issues(t *testing.T) {
	ctx := context.Background()

	svc := newTestService(t, &fakeGenerator{reply: `{"type":"coRun","tasks":["T1"]}`})
	_, out, err := svc.NLRule(ctx, nil, NLRuleInput{Description: "T1 alone"})
	require.NoError(t, err)
	assert.False(t, out.Added)
	assert.Contains(t, out.Issue, "at least two tasks")
	assert.Zero(t, svc.Workspace().Rules().Len())

	svc = newTestService(t, nil)
	_, out, err = svc.NLRule(ctx, nil, NLRuleInput{Description: "anything"})
	require.NoError(t, err)
	assert.Equal(t, "no rule could be generated", out.Issue)
	assert.Nil(t, out.Rule)
}

func TestExportConfig(t *testing.T) {
	svc := newTestService(t, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC) }
	require.NoError(t, svc.Workspace().Rules().Add(rules.LoadLimit{GroupIDs: []string{"W1"}, MaxSlotsPerPhase: 1}))

	dir := t.TempDir()
	path := filepath.Join(dir, "config", "rules.json")
	csvDir := filepath.Join(dir, "csv")

	_, out, err := svc.ExportConfig(context.Background(), nil, ExportConfigInput{Path: path, CSVDir: csvDir})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-14T09:26:53Z", out.ExportedAt)
	assert.Equal(t, export.FormatVersion, out.Version)
	assert.Equal(t, rules.DefaultPriorities(), out.Priorities)
	require.Len(t, out.Rules, 1)
	assert.Equal(t, "loadLimit", out.Rules[0]["type"])
	assert.Equal(t, path, out.Path)
	assert.Len(t, out.CSVFiles, 3)

	doc, err := export.ReadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, rules.List{rules.LoadLimit{GroupIDs: []string{"W1"}, MaxSlotsPerPhase: 1}}, doc.Rules)

	reloaded, err := dataset.LoadDir(context.Background(), csvDir)
	require.NoError(t, err)
	assert.Len(t, reloaded.Clients, 2)
}

func TestExportConfig_NoRules(t *testing.T) {
	svc := NewService(workspace.New(), nil)

	_, out, err := svc.ExportConfig(context.Background(), nil, ExportConfigInput{})
	require.NoError(t, err)
	assert.Equal(t, []map[string]any{}, out.Rules)
	assert.Empty(t, out.Path)
	assert.Nil(t, out.CSVFiles)
}
