package export

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/alchemist/internal/graph"
	"github.com/dusk-indust/alchemist/internal/rules"
)

// GenerateMermaid produces a Mermaid graph TD diagram of co-run edges in a
// graph store. Tasks whose search finds a circular co-run are styled as
// cyclic. Rules of kind coRun, when given, are drawn as dotted links between
// consecutive tasks of each rule.
func GenerateMermaid(ctx context.Context, store graph.Store, rs ...rules.Rule) (string, error) {
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return "", fmt.Errorf("get edges: %w", err)
	}

	var corun []graph.Edge
	for _, e := range edges {
		if e.Kind == graph.EdgeKindCoRuns {
			corun = append(corun, e)
		}
	}
	sort.Slice(corun, func(i, j int) bool {
		if corun[i].SourceID != corun[j].SourceID {
			return corun[i].SourceID < corun[j].SourceID
		}
		return corun[i].TargetID < corun[j].TargetID
	})

	// Mermaid node IDs must be alphanumeric.
	nodeIDs := make(map[string]string)
	var order []string
	getID := func(task string) string {
		if id, ok := nodeIDs[task]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", len(order))
		nodeIDs[task] = id
		order = append(order, task)
		return id
	}

	adj := make(map[string][]string)
	var roots []string
	for _, e := range corun {
		if _, ok := adj[e.SourceID]; !ok {
			roots = append(roots, e.SourceID)
		}
		adj[e.SourceID] = append(adj[e.SourceID], e.TargetID)
		getID(e.SourceID)
		getID(e.TargetID)
	}

	var links [][2]string
	for _, r := range rs {
		cr, ok := r.(rules.CoRun)
		if !ok {
			continue
		}
		for i := 1; i < len(cr.Tasks); i++ {
			links = append(links, [2]string{cr.Tasks[i-1], cr.Tasks[i]})
			getID(cr.Tasks[i-1])
			getID(cr.Tasks[i])
		}
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")
	for _, task := range order {
		fmt.Fprintf(&sb, "  %s[\"%s\"]\n", nodeIDs[task], label(task))
	}
	for _, e := range corun {
		fmt.Fprintf(&sb, "  %s --> %s\n", nodeIDs[e.SourceID], nodeIDs[e.TargetID])
	}
	for _, l := range links {
		fmt.Fprintf(&sb, "  %s -.-> %s\n", nodeIDs[l[0]], nodeIDs[l[1]])
	}

	g := graph.NewCoRunGraph()
	for _, id := range roots {
		g.Set(id, adj[id])
	}
	cyclic := g.CyclicRoots()
	if len(cyclic) > 0 {
		sb.WriteString("  classDef cyclic stroke:#d33,stroke-width:2px\n")
		ids := make([]string, len(cyclic))
		for i, task := range cyclic {
			ids[i] = nodeIDs[task]
		}
		fmt.Fprintf(&sb, "  class %s cyclic\n", strings.Join(ids, ","))
	}
	return sb.String(), nil
}

// label escapes a task ID for use inside a quoted Mermaid label.
func label(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
