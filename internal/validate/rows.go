package validate

import (
	"fmt"
	"math"
	"strings"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

// ValidateClientRow checks one client row. knownTaskIDs holds the IDs of
// the loaded task table; seen is updated with the row's ClientID.
func ValidateClientRow(row dataset.Client, rowIndex int, knownTaskIDs IDSet, seen *SeenIDs) []ValidationError {
	var errs []ValidationError
	add := func(col, msg string) {
		errs = append(errs, ValidationError{File: dataset.TableClients, RowIndex: rowIndex, Column: col, Message: msg})
	}

	level := dataset.Number(row.PriorityLevel)
	if math.IsNaN(level) || level < 1 || level > 5 {
		add(dataset.ColPriorityLevel, "PriorityLevel must be between 1 and 5")
	}

	if strings.TrimSpace(row.AttributesJSON) != "" {
		if _, err := dataset.ParseAttributes(row.AttributesJSON); err != nil {
			add(dataset.ColAttributesJSON, "Malformed JSON")
		}
	}

	for _, id := range dataset.SplitList(row.RequestedTaskIDs) {
		if !knownTaskIDs.Has(id) {
			add(dataset.ColRequestedTaskIDs, "Unknown TaskID: "+id)
		}
	}

	if seen.Observe(row.ClientID) {
		add(dataset.ColClientID, "Duplicate ClientID: "+row.ClientID)
	}
	return errs
}

// ValidateTaskRow checks one task row; seen is updated with its TaskID.
func ValidateTaskRow(row dataset.Task, rowIndex int, seen *SeenIDs) []ValidationError {
	var errs []ValidationError
	add := func(col, msg string) {
		errs = append(errs, ValidationError{File: dataset.TableTasks, RowIndex: rowIndex, Column: col, Message: msg})
	}

	duration := dataset.Number(row.Duration)
	if math.IsNaN(duration) || duration < 1 {
		add(dataset.ColDuration, "Duration must be at least 1")
	}

	phases := strings.TrimSpace(row.PreferredPhases)
	if !dataset.IsRange(phases) && !dataset.IsBracketed(phases) {
		add(dataset.ColPreferredPhases, "PreferredPhases must be a list [1,2] or range 1-3")
	}
	if p, ok := dataset.RedundantRange(phases); ok {
		add(dataset.ColPreferredPhases, fmt.Sprintf("Redundant single-value range %q. Use [%s] instead.", phases, p))
	}

	if strings.TrimSpace(row.RequiredSkills) == "" {
		add(dataset.ColRequiredSkills, "RequiredSkills must be a comma-separated string")
	}

	if seen.Observe(row.TaskID) {
		add(dataset.ColTaskID, "Duplicate TaskID: "+row.TaskID)
	}
	return errs
}

// ValidateWorkerRow checks one worker row; seen is updated with its WorkerID.
func ValidateWorkerRow(row dataset.Worker, rowIndex int, seen *SeenIDs) []ValidationError {
	var errs []ValidationError
	add := func(col, msg string) {
		errs = append(errs, ValidationError{File: dataset.TableWorkers, RowIndex: rowIndex, Column: col, Message: msg})
	}

	slots, slotErr := dataset.ParseSlots(row.AvailableSlots)
	if slotErr != nil {
		add(dataset.ColAvailableSlots, "AvailableSlots must be a valid JSON array")
	}

	maxLoad := dataset.Number(row.MaxLoadPerPhase)
	if math.IsNaN(maxLoad) || maxLoad <= 0 {
		add(dataset.ColMaxLoadPerPhase, "MaxLoadPerPhase must be a positive number")
	}

	for _, slot := range slots {
		if !dataset.IsNumeric(slot) {
			add(dataset.ColAvailableSlots, "Non-numeric value in AvailableSlots: "+dataset.Text(slot))
			break
		}
	}

	if seen.Observe(row.WorkerID) {
		add(dataset.ColWorkerID, "Duplicate WorkerID: "+row.WorkerID)
	}
	return errs
}

// ValidateClients checks a whole client table in order with a fresh
// duplicate tracker.
func ValidateClients(clients []dataset.Client, knownTaskIDs IDSet) []ValidationError {
	var errs []ValidationError
	seen := NewSeenIDs()
	for i, c := range clients {
		errs = append(errs, ValidateClientRow(c, i, knownTaskIDs, seen)...)
	}
	return errs
}

// ValidateTasks checks a whole task table.
func ValidateTasks(tasks []dataset.Task) []ValidationError {
	var errs []ValidationError
	seen := NewSeenIDs()
	for i, t := range tasks {
		errs = append(errs, ValidateTaskRow(t, i, seen)...)
	}
	return errs
}

// ValidateWorkers checks a whole worker table.
func ValidateWorkers(workers []dataset.Worker) []ValidationError {
	var errs []ValidationError
	seen := NewSeenIDs()
	for i, w := range workers {
		errs = append(errs, ValidateWorkerRow(w, i, seen)...)
	}
	return errs
}
