package validate

import (
	"fmt"
	"math"
	"sort"

	"github.com/dusk-indust/alchemist/internal/dataset"
	"github.com/dusk-indust/alchemist/internal/graph"
)

// ValidateCrossFile runs the multi-table consistency checks in a fixed
// order and returns every finding. Callers run it once all three tables
// hold data. Cells that fail to parse contribute nothing to the check that
// needed them; the row validators report them.
func ValidateCrossFile(clients []dataset.Client, tasks []dataset.Task, workers []dataset.Worker) []ValidationError {
	var errs []ValidationError
	errs = append(errs, unknownTaskRefs(clients, tasks)...)
	errs = append(errs, unknownSkills(tasks, workers)...)
	errs = append(errs, overloadedWorkers(workers)...)
	errs = append(errs, coRunCycles(tasks)...)
	errs = append(errs, phaseSaturation(tasks, workers)...)
	errs = append(errs, concurrencyFeasibility(tasks, workers)...)
	return errs
}

func unknownTaskRefs(clients []dataset.Client, tasks []dataset.Task) []ValidationError {
	known := TaskIDs(tasks)
	var errs []ValidationError
	for i, c := range clients {
		for _, id := range dataset.SplitList(c.RequestedTaskIDs) {
			if !known.Has(id) {
				errs = append(errs, ValidationError{
					File:     dataset.TableClients,
					RowIndex: i,
					Column:   dataset.ColRequestedTaskIDs,
					Message:  "Unknown TaskID referenced: " + id,
				})
			}
		}
	}
	return errs
}

func unknownSkills(tasks []dataset.Task, workers []dataset.Worker) []ValidationError {
	offered := make(map[string]struct{})
	for _, w := range workers {
		for _, s := range dataset.SplitList(w.Skills) {
			offered[s] = struct{}{}
		}
	}

	var errs []ValidationError
	for i, t := range tasks {
		for _, s := range dataset.SplitList(t.RequiredSkills) {
			if _, ok := offered[s]; !ok {
				errs = append(errs, ValidationError{
					File:     dataset.TableTasks,
					RowIndex: i,
					Column:   dataset.ColRequiredSkills,
					Message:  "No worker has required skill: " + s,
				})
			}
		}
	}
	return errs
}

func overloadedWorkers(workers []dataset.Worker) []ValidationError {
	var errs []ValidationError
	for i, w := range workers {
		slots, err := dataset.ParseSlots(w.AvailableSlots)
		if err != nil {
			continue
		}
		maxLoad := dataset.Number(w.MaxLoadPerPhase)
		if float64(len(slots)) < maxLoad {
			errs = append(errs, ValidationError{
				File:     dataset.TableWorkers,
				RowIndex: i,
				Column:   dataset.ColAvailableSlots,
				Message:  fmt.Sprintf("AvailableSlots (%d) < MaxLoadPerPhase (%s)", len(slots), dataset.Text(maxLoad)),
			})
		}
	}
	return errs
}

func coRunCycles(tasks []dataset.Task) []ValidationError {
	g := graph.CoRunGraphFromTasks(tasks)
	var errs []ValidationError
	for _, id := range g.CyclicRoots() {
		errs = append(errs, ValidationError{
			File:     dataset.TableTasks,
			RowIndex: firstTaskIndex(tasks, id),
			Column:   dataset.ColAttributesJSON,
			Message:  "Circular co-run detected starting at TaskID: " + id,
		})
	}
	return errs
}

func firstTaskIndex(tasks []dataset.Task, id string) int {
	for i, t := range tasks {
		if t.TaskID == id {
			return i
		}
	}
	return TableLevel
}

// phaseSaturation compares, per phase, the summed duration of tasks that
// prefer the phase with the number of workers available in it. Supply
// counts workers, not their per-phase load.
func phaseSaturation(tasks []dataset.Task, workers []dataset.Worker) []ValidationError {
	demand := make(map[int]float64)
	for _, t := range tasks {
		d := dataset.Number(t.Duration)
		if math.IsNaN(d) {
			continue
		}
		for _, p := range dataset.ParsePhases(t.PreferredPhases) {
			demand[p] += d
		}
	}
	if len(demand) == 0 {
		return nil
	}

	supply := make(map[int]int)
	for _, w := range workers {
		slots, err := dataset.ParseSlots(w.AvailableSlots)
		if err != nil {
			continue
		}
		for _, p := range dataset.SlotPhases(slots) {
			supply[p]++
		}
	}

	phases := make([]int, 0, len(demand))
	for p := range demand {
		phases = append(phases, p)
	}
	sort.Ints(phases)

	var errs []ValidationError
	for _, p := range phases {
		if demand[p] > float64(supply[p]) {
			errs = append(errs, ValidationError{
				File:     dataset.TableTasks,
				RowIndex: TableLevel,
				Message:  fmt.Sprintf("Phase %d over-saturated: demand %s > supply %d", p, dataset.Text(demand[p]), supply[p]),
			})
		}
	}
	return errs
}

func concurrencyFeasibility(tasks []dataset.Task, workers []dataset.Worker) []ValidationError {
	var errs []ValidationError
	for i, t := range tasks {
		maxConcurrent := dataset.Number(t.MaxConcurrent)
		if math.IsNaN(maxConcurrent) {
			continue
		}
		required := dataset.SplitList(t.RequiredSkills)
		qualified := 0
		for _, w := range workers {
			if graph.Qualifies(w.Skills, required) {
				qualified++
			}
		}
		if maxConcurrent > float64(qualified) {
			errs = append(errs, ValidationError{
				File:     dataset.TableTasks,
				RowIndex: i,
				Column:   dataset.ColMaxConcurrent,
				Message:  fmt.Sprintf("MaxConcurrent (%s) > available qualified workers (%d)", dataset.Text(maxConcurrent), qualified),
			})
		}
	}
	return errs
}
