package graph

import (
	"context"
	"errors"
	"io"
)

// ErrUnknownEdgeKind is returned when an edge carries a kind the store
// has no relationship table for.
var ErrUnknownEdgeKind = errors.New("unknown edge kind")

// Store is the interface for the scheduling graph backend.
// Implementations: KuzuStore (persistent, cgo) and MemStore.
type Store interface {
	io.Closer

	// InitSchema is called once before any data is inserted.
	InitSchema(ctx context.Context) error

	AddNode(ctx context.Context, node Node) error
	AddEdge(ctx context.Context, edge Edge) error

	// GetNode returns nil when no node of that kind has the ID.
	GetNode(ctx context.Context, kind NodeKind, id string) (*Node, error)
	GetAllEdges(ctx context.Context) ([]Edge, error)

	// Neighbors returns the IDs one hop away along edges of the given kind.
	// Downstream follows edges from id, upstream follows edges into id.
	Neighbors(ctx context.Context, kind EdgeKind, id string, direction Direction) ([]string, error)

	// GetDependencies walks co-run edges from a task breadth first.
	GetDependencies(ctx context.Context, taskID string, direction Direction, maxDepth int) ([]DependencyChain, error)

	Stats(ctx context.Context) (*GraphStats, error)
}

// Direction controls traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // who points at this node?
	DirectionDownstream Direction = "downstream" // what does this node point at?
)

// walkDependencies runs the shared breadth-first co-run traversal. next
// returns the one-hop neighbors of a task.
func walkDependencies(taskID string, maxDepth int, next func(string) ([]string, error)) ([]DependencyChain, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{taskID: true}
	queue := []bfsEntry{{id: taskID, path: []string{taskID}}}
	var chains []DependencyChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var nextQueue []bfsEntry
		for _, entry := range queue {
			neighbors, err := next(entry.id)
			if err != nil {
				return nil, err
			}
			for _, nb := range neighbors {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				newPath := make([]string, len(entry.path), len(entry.path)+1)
				copy(newPath, entry.path)
				newPath = append(newPath, nb)
				chains = append(chains, DependencyChain{Nodes: newPath, Depth: len(newPath) - 1})
				nextQueue = append(nextQueue, bfsEntry{id: nb, path: newPath})
			}
		}
		queue = nextQueue
	}
	return chains, nil
}
