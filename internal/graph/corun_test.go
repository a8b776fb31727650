package graph

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

func task(id, attrs string) dataset.Task {
	return dataset.Task{TaskID: id, AttributesJSON: attrs}
}

func TestCoRunGraphFromTasks(t *testing.T) {
	g := CoRunGraphFromTasks([]dataset.Task{
		task("T1", `{"CoRunWith":["T2", 3]}`),
		task("T2", ""),
		task("T3", `{bad`),
		task("T4", `null`),
		task("T5", `{"CoRunWith":"T1"}`),
	})

	assert.Equal(t, []string{"T1", "T2", "T5"}, g.Roots())
	assert.Equal(t, []string{"T2", "3"}, g.Partners("T1"))
	assert.Empty(t, g.Partners("T2"))
	assert.False(t, g.Has("T3"))
	assert.False(t, g.Has("T4"))
	assert.Empty(t, g.Partners("T5"))
}

func TestCoRunGraph_RepeatedIDKeepsPosition(t *testing.T) {
	g := CoRunGraphFromTasks([]dataset.Task{
		task("T1", `{"CoRunWith":["T2"]}`),
		task("T2", `{}`),
		task("T1", `{"CoRunWith":[]}`),
	})
	assert.Equal(t, []string{"T1", "T2"}, g.Roots())
	assert.Empty(t, g.Partners("T1"))
}

func TestHasCycleFrom(t *testing.T) {
	tests := []struct {
		name  string
		edges map[string][]string
		order []string
		want  []string
	}{
		{
			name:  "two node cycle",
			order: []string{"T1", "T2"},
			edges: map[string][]string{"T1": {"T2"}, "T2": {"T1"}},
			want:  []string{"T1", "T2"},
		},
		{
			name:  "chain without cycle",
			order: []string{"T1", "T2"},
			edges: map[string][]string{"T1": {"T2"}, "T2": {}},
		},
		{
			name:  "self loop",
			order: []string{"T1"},
			edges: map[string][]string{"T1": {"T1"}},
			want:  []string{"T1"},
		},
		{
			name:  "tail reaches cycle",
			order: []string{"T0", "T1", "T2"},
			edges: map[string][]string{"T0": {"T1"}, "T1": {"T2"}, "T2": {"T1"}},
			want:  []string{"T0", "T1", "T2"},
		},
		{
			name:  "unknown partner is a dead end",
			order: []string{"T1"},
			edges: map[string][]string{"T1": {"T9"}},
		},
		{
			name:  "diamond is not a cycle",
			order: []string{"A", "B", "C", "D"},
			edges: map[string][]string{"A": {"B", "C"}, "B": {"D"}, "C": {"D"}, "D": {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewCoRunGraph()
			for _, id := range tt.order {
				g.Set(id, tt.edges[id])
			}
			assert.Equal(t, tt.want, g.CyclicRoots())
		})
	}
}

func TestHasCycleFrom_UnknownRoot(t *testing.T) {
	g := NewCoRunGraph()
	assert.False(t, g.HasCycleFrom("T1"))
}

func TestHasCycleFrom_DeepChain(t *testing.T) {
	const n = 200000
	g := NewCoRunGraph()
	for i := 0; i < n; i++ {
		g.Set(fmt.Sprintf("T%d", i), []string{fmt.Sprintf("T%d", i+1)})
	}
	g.Set(fmt.Sprintf("T%d", n), []string{"T0"})

	assert.True(t, g.HasCycleFrom("T0"))
}
