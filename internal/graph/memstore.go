package graph

import (
	"context"
	"fmt"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu    sync.RWMutex
	nodes map[string]Node // key: "kind:id"
	edges []Edge
	seen  map[Edge]bool
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes: make(map[string]Node),
		seen:  make(map[Edge]bool),
	}
}

func nodeKey(kind NodeKind, id string) string {
	return string(kind) + ":" + id
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddNode stores a node; adding an existing node replaces its detail.
func (m *MemStore) AddNode(_ context.Context, node Node) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nodes[nodeKey(node.Kind, node.ID)] = node
	return nil
}

// AddEdge records an edge once. Both endpoints must already exist.
func (m *MemStore) AddEdge(_ context.Context, edge Edge) error {
	src, dst, ok := edge.Kind.endpoints()
	if !ok {
		return fmt.Errorf("memstore: %w: %s", ErrUnknownEdgeKind, edge.Kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.nodes[nodeKey(src, edge.SourceID)]; !ok {
		return nil
	}
	if _, ok := m.nodes[nodeKey(dst, edge.TargetID)]; !ok {
		return nil
	}
	if m.seen[edge] {
		return nil
	}
	m.seen[edge] = true
	m.edges = append(m.edges, edge)
	return nil
}

// GetNode returns the node of the given kind and ID, or nil if not found.
func (m *MemStore) GetNode(_ context.Context, kind NodeKind, id string) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[nodeKey(kind, id)]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

// GetAllEdges returns a copy of all edges in insertion order.
func (m *MemStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// Neighbors returns IDs reachable from id in one hop along edges of kind.
func (m *MemStore) Neighbors(_ context.Context, kind EdgeKind, id string, direction Direction) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.neighbors(kind, id, direction), nil
}

func (m *MemStore) neighbors(kind EdgeKind, id string, direction Direction) []string {
	var result []string
	for _, e := range m.edges {
		if e.Kind != kind {
			continue
		}
		switch direction {
		case DirectionDownstream:
			if e.SourceID == id {
				result = append(result, e.TargetID)
			}
		case DirectionUpstream:
			if e.TargetID == id {
				result = append(result, e.SourceID)
			}
		}
	}
	return result
}

// GetDependencies performs a BFS on co-run edges from taskID, up to
// maxDepth hops. It returns one DependencyChain per reachable task.
func (m *MemStore) GetDependencies(_ context.Context, taskID string, direction Direction, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return walkDependencies(taskID, maxDepth, func(id string) ([]string, error) {
		return m.neighbors(EdgeKindCoRuns, id, direction), nil
	})
}

// Stats returns counts of all node kinds and edges in the graph.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &GraphStats{EdgeCount: len(m.edges)}
	for _, n := range m.nodes {
		switch n.Kind {
		case NodeKindClient:
			stats.ClientCount++
		case NodeKindTask:
			stats.TaskCount++
		case NodeKindWorker:
			stats.WorkerCount++
		}
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
