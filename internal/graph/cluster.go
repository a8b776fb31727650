package graph

import (
	"context"
	"fmt"
	"sort"
)

// TaskGroup is a set of tasks joined, directly or transitively, by co-run
// edges. Workers lists the workers qualified for every member.
type TaskGroup struct {
	Members []string `json:"members"`
	Edges   int      `json:"edges"`
	Workers []string `json:"workers"`
}

// CoRunGroups finds the connected components of the co-run graph held in
// store, treating edges as undirected.
//
// Algorithm:
//  1. Build an undirected adjacency list from CO_RUNS edges.
//  2. Find connected components via BFS in sorted task order.
//  3. For each component with >= 2 tasks, count its co-run edges and the
//     workers holding a QUALIFIED edge to every member.
//
// Groups are ordered by their smallest task ID; members and workers are
// sorted.
func CoRunGroups(ctx context.Context, store Store) ([]TaskGroup, error) {
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}

	adj := make(map[string]map[string]bool)
	link := func(a, b string) {
		if adj[a] == nil {
			adj[a] = make(map[string]bool)
		}
		adj[a][b] = true
	}
	qualified := make(map[string]map[string]bool) // task -> workers
	coRuns := make(map[[2]string]bool)
	for _, e := range edges {
		switch e.Kind {
		case EdgeKindCoRuns:
			if e.SourceID == e.TargetID {
				continue
			}
			link(e.SourceID, e.TargetID)
			link(e.TargetID, e.SourceID)
			coRuns[undirected(e.SourceID, e.TargetID)] = true
		case EdgeKindQualified:
			if qualified[e.TargetID] == nil {
				qualified[e.TargetID] = make(map[string]bool)
			}
			qualified[e.TargetID][e.SourceID] = true
		}
	}

	starts := make([]string, 0, len(adj))
	for id := range adj {
		starts = append(starts, id)
	}
	sort.Strings(starts)

	visited := make(map[string]bool, len(adj))
	groups := []TaskGroup{}
	for _, id := range starts {
		if visited[id] {
			continue
		}
		component := bfsComponent(id, adj, visited)
		if len(component) < 2 {
			continue
		}
		sort.Strings(component)
		groups = append(groups, TaskGroup{
			Members: component,
			Edges:   countInternal(component, coRuns),
			Workers: commonWorkers(component, qualified),
		})
	}
	return groups, nil
}

func undirected(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// bfsComponent performs BFS from start on the adjacency list and returns
// all reachable nodes. It marks visited nodes as it goes.
func bfsComponent(start string, adj map[string]map[string]bool, visited map[string]bool) []string {
	var component []string
	queue := []string{start}
	visited[start] = true

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		component = append(component, node)
		for neighbor := range adj[node] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	return component
}

// countInternal counts the distinct undirected co-run pairs inside a group.
// A pair linked in both directions counts once.
func countInternal(members []string, coRuns map[[2]string]bool) int {
	n := 0
	for i, a := range members {
		for _, b := range members[i+1:] {
			if coRuns[undirected(a, b)] {
				n++
			}
		}
	}
	return n
}

func commonWorkers(members []string, qualified map[string]map[string]bool) []string {
	workers := []string{}
	for w := range qualified[members[0]] {
		all := true
		for _, m := range members[1:] {
			if !qualified[m][w] {
				all = false
				break
			}
		}
		if all {
			workers = append(workers, w)
		}
	}
	sort.Strings(workers)
	return workers
}
