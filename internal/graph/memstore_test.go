package graph

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

// sampleBundle is a small dataset shared by the store tests.
func sampleBundle() *dataset.Bundle {
	return &dataset.Bundle{
		Clients: []dataset.Client{
			{ClientID: "C1", RequestedTaskIDs: "T1, T2, T9", PriorityLevel: "3"},
			{ClientID: "C1", RequestedTaskIDs: "T3", PriorityLevel: "5"},
		},
		Tasks: []dataset.Task{
			{TaskID: "T1", RequiredSkills: "go", AttributesJSON: `{"CoRunWith":["T2"]}`},
			{TaskID: "T2", RequiredSkills: "go,sql", AttributesJSON: `{"CoRunWith":["T3","T9"]}`},
			{TaskID: "T3", RequiredSkills: "rust", AttributesJSON: `{}`},
		},
		Workers: []dataset.Worker{
			{WorkerID: "W1", Skills: "golang,sql"},
			{WorkerID: "W2", Skills: "rust"},
		},
	}
}

// sorted returns a sorted copy so assertions do not depend on edge order.
func sorted(ss []string) []string {
	out := make([]string, len(ss))
	copy(out, ss)
	sort.Strings(out)
	return out
}

func newBuiltMemStore(t *testing.T) *MemStore {
	t.Helper()
	s := NewMemStore()
	require.NoError(t, Build(context.Background(), s, sampleBundle()))
	return s
}

func TestBuild_MemStoreStats(t *testing.T) {
	s := newBuiltMemStore(t)
	stats, err := s.Stats(context.Background())
	require.NoError(t, err)

	// REQUESTS: C1->T1, C1->T2, C1->T3. CO_RUNS: T1->T2, T2->T3.
	// QUALIFIED: W1->T1, W1->T2, W2->T3.
	assert.Equal(t, &GraphStats{ClientCount: 1, TaskCount: 3, WorkerCount: 2, EdgeCount: 8}, stats)
}

func TestBuild_FirstRecordWins(t *testing.T) {
	s := newBuiltMemStore(t)
	n, err := s.GetNode(context.Background(), NodeKindClient, "C1")
	require.NoError(t, err)
	require.NotNil(t, n)
	assert.Equal(t, "3", n.Detail)

	missing, err := s.GetNode(context.Background(), NodeKindTask, "T9")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemStore_Neighbors(t *testing.T) {
	s := newBuiltMemStore(t)
	ctx := context.Background()

	workers, err := s.Neighbors(ctx, EdgeKindQualified, "T2", DirectionUpstream)
	require.NoError(t, err)
	assert.Equal(t, []string{"W1"}, workers)

	requested, err := s.Neighbors(ctx, EdgeKindRequests, "C1", DirectionDownstream)
	require.NoError(t, err)
	assert.Equal(t, []string{"T1", "T2", "T3"}, sorted(requested))
}

func TestMemStore_GetDependencies(t *testing.T) {
	s := newBuiltMemStore(t)
	ctx := context.Background()

	chains, err := s.GetDependencies(ctx, "T1", DirectionDownstream, 5)
	require.NoError(t, err)
	require.Len(t, chains, 2)
	assert.Equal(t, []string{"T1", "T2"}, chains[0].Nodes)
	assert.Equal(t, []string{"T1", "T2", "T3"}, chains[1].Nodes)
	assert.Equal(t, 2, chains[1].Depth)

	chains, err = s.GetDependencies(ctx, "T3", DirectionUpstream, 1)
	require.NoError(t, err)
	require.Len(t, chains, 1)
	assert.Equal(t, []string{"T3", "T2"}, chains[0].Nodes)

	chains, err = s.GetDependencies(ctx, "T1", DirectionDownstream, 0)
	require.NoError(t, err)
	assert.Nil(t, chains)
}

func TestMemStore_AddEdgeRules(t *testing.T) {
	s := NewMemStore()
	ctx := context.Background()
	require.NoError(t, s.AddNode(ctx, Node{ID: "T1", Kind: NodeKindTask}))
	require.NoError(t, s.AddNode(ctx, Node{ID: "T2", Kind: NodeKindTask}))

	e := Edge{SourceID: "T1", TargetID: "T2", Kind: EdgeKindCoRuns}
	require.NoError(t, s.AddEdge(ctx, e))
	require.NoError(t, s.AddEdge(ctx, e))
	require.NoError(t, s.AddEdge(ctx, Edge{SourceID: "T1", TargetID: "T7", Kind: EdgeKindCoRuns}))

	edges, err := s.GetAllEdges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Edge{e}, edges)

	err = s.AddEdge(ctx, Edge{SourceID: "T1", TargetID: "T2", Kind: "BLOCKS"})
	assert.ErrorIs(t, err, ErrUnknownEdgeKind)
}

func TestQualifies(t *testing.T) {
	assert.True(t, Qualifies("golang,sql", []string{"go", "sql"}))
	assert.False(t, Qualifies("golang", []string{"go", "sql"}))
	assert.True(t, Qualifies("", nil))
}
