package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

func filterColumn(errs []ValidationError, col string) []ValidationError {
	var out []ValidationError
	for _, e := range errs {
		if e.Column == col {
			out = append(out, e)
		}
	}
	return out
}

func TestValidateCrossFile_CleanDataset(t *testing.T) {
	clients := []dataset.Client{{ClientID: "C1", RequestedTaskIDs: "T1,T2", PriorityLevel: "2", AttributesJSON: "{}"}}
	tasks := []dataset.Task{
		{TaskID: "T1", Duration: "1", PreferredPhases: "1-2", RequiredSkills: "go", MaxConcurrent: "1", AttributesJSON: `{"CoRunWith":["T2"]}`},
		{TaskID: "T2", Duration: "1", PreferredPhases: "[2]", RequiredSkills: "sql", MaxConcurrent: "1", AttributesJSON: `{"CoRunWith":[]}`},
	}
	workers := []dataset.Worker{
		{WorkerID: "W1", Skills: "go,sql", AvailableSlots: "[1,2]", MaxLoadPerPhase: "2"},
		{WorkerID: "W2", Skills: "sql", AvailableSlots: "[2]", MaxLoadPerPhase: "1"},
	}
	assert.Empty(t, ValidateCrossFile(clients, tasks, workers))
}

func TestValidateCrossFile_UnknownTaskReference(t *testing.T) {
	clients := []dataset.Client{{ClientID: "C1", RequestedTaskIDs: " T1 , T9 ,"}}
	tasks := []dataset.Task{{TaskID: "T1"}}

	errs := ValidateCrossFile(clients, tasks, nil)
	refs := filterColumn(errs, dataset.ColRequestedTaskIDs)
	require.Len(t, refs, 1)
	assert.Equal(t, ValidationError{
		File: dataset.TableClients, RowIndex: 0, Column: dataset.ColRequestedTaskIDs, Message: "Unknown TaskID referenced: T9",
	}, refs[0])
}

func TestValidateCrossFile_UnknownSkill(t *testing.T) {
	tasks := []dataset.Task{
		{TaskID: "T1", RequiredSkills: "go"},
		{TaskID: "T2", RequiredSkills: "go, cobol"},
	}
	workers := []dataset.Worker{{WorkerID: "W1", Skills: " go ,sql"}}

	errs := filterColumn(ValidateCrossFile(nil, tasks, workers), dataset.ColRequiredSkills)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].RowIndex)
	assert.Equal(t, "No worker has required skill: cobol", errs[0].Message)
}

func TestValidateCrossFile_WorkerOverload(t *testing.T) {
	tests := []struct {
		name    string
		maxLoad string
		slots   string
		want    []string
	}{
		{"more load than slots", "3", "[1,2]", []string{"AvailableSlots (2) < MaxLoadPerPhase (3)"}},
		{"load equals slots", "2", "[1,2]", nil},
		{"malformed slots skipped", "3", "[1,2", nil},
		{"non numeric load skipped", "many", "[1]", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			workers := []dataset.Worker{{WorkerID: "W1", AvailableSlots: tt.slots, MaxLoadPerPhase: tt.maxLoad}}
			errs := filterColumn(ValidateCrossFile(nil, nil, workers), dataset.ColAvailableSlots)
			if tt.want == nil {
				assert.Empty(t, errs)
				return
			}
			assert.Equal(t, tt.want, messages(errs))
			assert.Equal(t, dataset.TableWorkers, errs[0].File)
		})
	}
}

func TestValidateCrossFile_CoRunCycle(t *testing.T) {
	cyclic := []dataset.Task{
		{TaskID: "T1", AttributesJSON: `{"CoRunWith":["T2"]}`},
		{TaskID: "T2", AttributesJSON: `{"CoRunWith":["T1"]}`},
	}
	errs := filterColumn(ValidateCrossFile(nil, cyclic, nil), dataset.ColAttributesJSON)
	require.NotEmpty(t, errs)
	assert.Equal(t, "Circular co-run detected starting at TaskID: T1", errs[0].Message)
	assert.Equal(t, 0, errs[0].RowIndex)

	acyclic := []dataset.Task{
		{TaskID: "T1", AttributesJSON: `{"CoRunWith":["T2"]}`},
		{TaskID: "T2", AttributesJSON: `{"CoRunWith":[]}`},
	}
	assert.Empty(t, filterColumn(ValidateCrossFile(nil, acyclic, nil), dataset.ColAttributesJSON))
}

func TestValidateCrossFile_CoRunCycleUsesFirstRow(t *testing.T) {
	tasks := []dataset.Task{
		{TaskID: "T0", AttributesJSON: `{bad`},
		{TaskID: "T1", AttributesJSON: `{}`},
		{TaskID: "T2", AttributesJSON: `{}`},
		{TaskID: "T1", AttributesJSON: `{"CoRunWith":["T1"]}`},
	}
	errs := filterColumn(ValidateCrossFile(nil, tasks, nil), dataset.ColAttributesJSON)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].RowIndex)
}

func TestValidateCrossFile_PhaseSaturation(t *testing.T) {
	tasks := []dataset.Task{{TaskID: "T1", Duration: "5", PreferredPhases: "[1]"}}
	workers := []dataset.Worker{{WorkerID: "W1", AvailableSlots: "[2,3]", MaxLoadPerPhase: "1"}}

	var table []ValidationError
	for _, e := range ValidateCrossFile(nil, tasks, workers) {
		if e.RowIndex == TableLevel {
			table = append(table, e)
		}
	}
	require.Len(t, table, 1)
	assert.Equal(t, ValidationError{
		File: dataset.TableTasks, RowIndex: TableLevel, Message: "Phase 1 over-saturated: demand 5 > supply 0",
	}, table[0])
}

func TestValidateCrossFile_PhaseSaturationOrderAndSupply(t *testing.T) {
	tasks := []dataset.Task{
		{TaskID: "T1", Duration: "2", PreferredPhases: "2-3"},
		{TaskID: "T2", Duration: "1", PreferredPhases: "[1, 3]"},
		{TaskID: "T3", Duration: "x", PreferredPhases: "[1]"},
		{TaskID: "T4", Duration: "9", PreferredPhases: "bad"},
	}
	workers := []dataset.Worker{
		{WorkerID: "W1", AvailableSlots: `[1,"2"]`, MaxLoadPerPhase: "9"},
		{WorkerID: "W2", AvailableSlots: "[2]", MaxLoadPerPhase: "9"},
		{WorkerID: "W3", AvailableSlots: "oops", MaxLoadPerPhase: "9"},
	}

	var got []string
	for _, e := range ValidateCrossFile(nil, tasks, workers) {
		if e.RowIndex == TableLevel {
			got = append(got, e.Message)
		}
	}
	// Phase 1: demand 1, supply 1. Phase 2: demand 2, supply 2. Phase 3: demand 3, supply 0.
	assert.Equal(t, []string{"Phase 3 over-saturated: demand 3 > supply 0"}, got)
}

func TestValidateCrossFile_ConcurrencyFeasibility(t *testing.T) {
	tasks := []dataset.Task{
		{TaskID: "T1", RequiredSkills: "go", MaxConcurrent: "2"},
		{TaskID: "T2", RequiredSkills: "go,sql", MaxConcurrent: "2"},
		{TaskID: "T3", RequiredSkills: "go", MaxConcurrent: "lots"},
		{TaskID: "T4", RequiredSkills: "", MaxConcurrent: "2"},
	}
	workers := []dataset.Worker{
		{WorkerID: "W1", Skills: "golang,sql"},
		{WorkerID: "W2", Skills: "go"},
	}

	errs := filterColumn(ValidateCrossFile(nil, tasks, workers), dataset.ColMaxConcurrent)
	require.Len(t, errs, 1)
	assert.Equal(t, 1, errs[0].RowIndex)
	assert.Equal(t, "MaxConcurrent (2) > available qualified workers (1)", errs[0].Message)
}

func TestValidateCrossFile_CheckOrder(t *testing.T) {
	clients := []dataset.Client{{ClientID: "C1", RequestedTaskIDs: "T9"}}
	tasks := []dataset.Task{{
		TaskID: "T1", Duration: "1", PreferredPhases: "[1]", RequiredSkills: "cobol", MaxConcurrent: "1",
		AttributesJSON: `{"CoRunWith":["T1"]}`,
	}}
	workers := []dataset.Worker{{WorkerID: "W1", Skills: "go", AvailableSlots: "[2]", MaxLoadPerPhase: "2"}}

	errs := ValidateCrossFile(clients, tasks, workers)
	cols := make([]string, len(errs))
	for i, e := range errs {
		cols[i] = e.Column
	}
	assert.Equal(t, []string{
		dataset.ColRequestedTaskIDs,
		dataset.ColRequiredSkills,
		dataset.ColAvailableSlots,
		dataset.ColAttributesJSON,
		"",
		dataset.ColMaxConcurrent,
	}, cols)
}
