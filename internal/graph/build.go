package graph

import (
	"context"
	"fmt"
	"strings"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

// Build loads a dataset into store: one node per distinct ID, REQUESTS
// edges to known tasks, CO_RUNS edges between known tasks, and QUALIFIED
// edges from every worker whose skills cover a task's required skills.
// The first record with a given ID supplies the node detail.
func Build(ctx context.Context, store Store, b *dataset.Bundle) error {
	if err := store.InitSchema(ctx); err != nil {
		return fmt.Errorf("init schema: %w", err)
	}

	add := func(kind NodeKind, id, detail string, seen map[string]bool) error {
		if seen[id] {
			return nil
		}
		seen[id] = true
		if err := store.AddNode(ctx, Node{ID: id, Kind: kind, Detail: detail}); err != nil {
			return fmt.Errorf("add %s %s: %w", kind, id, err)
		}
		return nil
	}

	clients := map[string]bool{}
	for _, c := range b.Clients {
		if err := add(NodeKindClient, c.ClientID, c.PriorityLevel, clients); err != nil {
			return err
		}
	}
	tasks := map[string]bool{}
	for _, t := range b.Tasks {
		if err := add(NodeKindTask, t.TaskID, t.RequiredSkills, tasks); err != nil {
			return err
		}
	}
	workers := map[string]bool{}
	for _, w := range b.Workers {
		if err := add(NodeKindWorker, w.WorkerID, w.Skills, workers); err != nil {
			return err
		}
	}

	var edges []Edge
	for _, c := range b.Clients {
		for _, id := range dataset.SplitList(c.RequestedTaskIDs) {
			if tasks[id] {
				edges = append(edges, Edge{SourceID: c.ClientID, TargetID: id, Kind: EdgeKindRequests})
			}
		}
	}
	corun := CoRunGraphFromTasks(b.Tasks)
	for _, id := range corun.Roots() {
		for _, p := range corun.Partners(id) {
			if tasks[p] {
				edges = append(edges, Edge{SourceID: id, TargetID: p, Kind: EdgeKindCoRuns})
			}
		}
	}
	for _, t := range b.Tasks {
		required := dataset.SplitList(t.RequiredSkills)
		for _, w := range b.Workers {
			if Qualifies(w.Skills, required) {
				edges = append(edges, Edge{SourceID: w.WorkerID, TargetID: t.TaskID, Kind: EdgeKindQualified})
			}
		}
	}

	seen := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		if err := store.AddEdge(ctx, e); err != nil {
			return fmt.Errorf("add %s edge %s->%s: %w", e.Kind, e.SourceID, e.TargetID, err)
		}
	}
	return nil
}

// Qualifies reports whether a worker's skills text contains every required
// skill. Matching is plain substring containment, so "go" is covered by
// "golang".
func Qualifies(skills string, required []string) bool {
	for _, rs := range required {
		if !strings.Contains(skills, rs) {
			return false
		}
	}
	return true
}
