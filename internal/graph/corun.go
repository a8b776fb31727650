package graph

import (
	"strings"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

// CoRunWithKey is the AttributesJSON key that lists a task's co-run partners.
const CoRunWithKey = "CoRunWith"

// CoRunGraph is the directed co-run adjacency of a task table. Roots keep
// the order in which task IDs first appeared.
type CoRunGraph struct {
	order []string
	adj   map[string][]string
}

// NewCoRunGraph returns an empty graph.
func NewCoRunGraph() *CoRunGraph {
	return &CoRunGraph{adj: make(map[string][]string)}
}

// CoRunGraphFromTasks builds the co-run graph of a task table. A task with
// blank AttributesJSON is a node without partners; a task whose
// AttributesJSON is malformed or null is left out of the graph. A later task
// with a repeated ID replaces the earlier partners.
func CoRunGraphFromTasks(tasks []dataset.Task) *CoRunGraph {
	g := NewCoRunGraph()
	for _, t := range tasks {
		nbrs, ok := coRunPartners(t.AttributesJSON)
		if !ok {
			continue
		}
		g.Set(t.TaskID, nbrs)
	}
	return g
}

// coRunPartners extracts CoRunWith from an AttributesJSON cell. The bool is
// false when the cell cannot describe a node at all.
func coRunPartners(raw string) ([]string, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, true
	}
	if strings.TrimSpace(raw) == "null" {
		return nil, false
	}
	attrs, err := dataset.ParseAttributes(raw)
	if err != nil {
		return nil, false
	}
	list, _ := attrs[CoRunWithKey].([]any)
	nbrs := make([]string, 0, len(list))
	for _, v := range list {
		switch x := v.(type) {
		case string, float64, bool:
			nbrs = append(nbrs, dataset.Text(x))
		}
	}
	return nbrs, true
}

// Set assigns the partners of id. A node that already exists keeps its
// position among the roots.
func (g *CoRunGraph) Set(id string, partners []string) {
	if _, ok := g.adj[id]; !ok {
		g.order = append(g.order, id)
	}
	if partners == nil {
		partners = []string{}
	}
	g.adj[id] = partners
}

// Has reports whether id is a node of the graph.
func (g *CoRunGraph) Has(id string) bool {
	_, ok := g.adj[id]
	return ok
}

// Roots returns the node IDs in first-appearance order.
func (g *CoRunGraph) Roots() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Partners returns the co-run partners of id.
func (g *CoRunGraph) Partners(id string) []string {
	return g.adj[id]
}

// HasCycleFrom reports whether a depth-first search from root meets a task
// that is still on the search path. Partners that are not nodes of the
// graph are dead ends. The search keeps its own stack, so deep chains do
// not grow the goroutine stack.
func (g *CoRunGraph) HasCycleFrom(root string) bool {
	if !g.Has(root) {
		return false
	}

	type frame struct {
		node string
		next int
	}

	visited := map[string]bool{root: true}
	onStack := map[string]bool{root: true}
	stack := []frame{{node: root}}

	for len(stack) > 0 {
		top := len(stack) - 1
		partners := g.adj[stack[top].node]
		if stack[top].next >= len(partners) {
			onStack[stack[top].node] = false
			stack = stack[:top]
			continue
		}
		n := partners[stack[top].next]
		stack[top].next++

		if !g.Has(n) {
			continue
		}
		if onStack[n] {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true
		onStack[n] = true
		stack = append(stack, frame{node: n})
	}
	return false
}

// CyclicRoots returns, in root order, every node whose search finds a cycle.
func (g *CoRunGraph) CyclicRoots() []string {
	var out []string
	for _, id := range g.order {
		if g.HasCycleFrom(id) {
			out = append(out, id)
		}
	}
	return out
}
