package rules

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleRules holds one rule of every kind.
func sampleRules() []Rule {
	return []Rule{
		CoRun{Tasks: []string{"T1", "T2"}},
		SlotRestriction{GroupType: GroupClients, GroupIDs: []string{"C1", "C2"}, MinCommonSlots: 3},
		LoadLimit{GroupIDs: []string{"W5"}, MaxSlotsPerPhase: 2},
		PhaseWindow{TaskID: "T1", AllowedPhases: []int{1, 3, 5}},
		PatternMatch{Regex: ".*urgent.*", RuleTemplate: TemplateHighlight, Params: map[string]any{"label": "Important"}},
		PrecedenceOverride{PriorityList: []string{"T1", "T3", "T2"}},
		TaskPriority{PriorityList: []string{"T5", "T1"}},
	}
}

func TestMarshal_TypeDiscriminator(t *testing.T) {
	b, err := Marshal(PhaseWindow{TaskID: "T1", AllowedPhases: []int{2}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"phaseWindow","taskId":"T1","allowedPhases":[2]}`, string(b))

	_, err = Marshal(nil)
	assert.ErrorIs(t, err, ErrNilRule)
}

func TestUnmarshal_EveryKind(t *testing.T) {
	for _, r := range sampleRules() {
		t.Run(string(r.Kind()), func(t *testing.T) {
			b, err := Marshal(r)
			require.NoError(t, err)
			got, err := Unmarshal(b)
			require.NoError(t, err)
			if diff := cmp.Diff(r, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnmarshal_TaskIDsAlias(t *testing.T) {
	r, err := Unmarshal([]byte(`{"type":"coRun","taskIDs":["T1","T2"]}`))
	require.NoError(t, err)
	assert.Equal(t, CoRun{Tasks: []string{"T1", "T2"}}, r)

	r, err = Unmarshal([]byte(`{"type":"coRun","tasks":["T3"],"taskIDs":["T1"]}`))
	require.NoError(t, err)
	assert.Equal(t, CoRun{Tasks: []string{"T3"}}, r)
}

func TestUnmarshal_Errors(t *testing.T) {
	_, err := Unmarshal([]byte(`{"type":"blackout"}`))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Unmarshal([]byte(`{"tasks":["T1"]}`))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Unmarshal([]byte(`{"type":"loadLimit","maxSlotsPerPhase":"two"}`))
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`[`))
	assert.Error(t, err)
}

func TestList_JSON(t *testing.T) {
	in := List(sampleRules())
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out List
	require.NoError(t, json.Unmarshal(b, &out))
	if diff := cmp.Diff(in, out); diff != "" {
		t.Errorf("list round trip mismatch (-want +got):\n%s", diff)
	}

	var empty List
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.Empty(t, empty)

	err = json.Unmarshal([]byte(`[{"type":"coRun"},{"type":"nope"}]`), &out)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestMapConversion(t *testing.T) {
	m, err := ToMap(LoadLimit{GroupIDs: []string{"W1"}, MaxSlotsPerPhase: 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"type":             "loadLimit",
		"groupIDs":         []any{"W1"},
		"maxSlotsPerPhase": float64(2),
	}, m)

	r, err := FromMap(m)
	require.NoError(t, err)
	assert.Equal(t, LoadLimit{GroupIDs: []string{"W1"}, MaxSlotsPerPhase: 2}, r)
}

func TestStore(t *testing.T) {
	s := NewStore()
	for _, r := range sampleRules()[:3] {
		require.NoError(t, s.Add(r))
	}
	assert.ErrorIs(t, s.Add(nil), ErrNilRule)
	assert.Equal(t, 3, s.Len())

	require.NoError(t, s.Remove(1))
	assert.Equal(t, []Rule{sampleRules()[0], sampleRules()[2]}, s.List())

	assert.ErrorIs(t, s.Remove(2), ErrIndexOutOfRange)
	assert.ErrorIs(t, s.Remove(-1), ErrIndexOutOfRange)

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.List())
}

func TestStore_KeepsContradictions(t *testing.T) {
	s := NewStore(
		PhaseWindow{TaskID: "T1", AllowedPhases: []int{1}},
		PhaseWindow{TaskID: "T1", AllowedPhases: []int{2}},
	)
	require.NoError(t, s.Add(CoRun{Tasks: []string{"T1"}}))
	assert.Equal(t, 3, s.Len())
}

func TestStore_ListIsCopy(t *testing.T) {
	s := NewStore(CoRun{Tasks: []string{"T1", "T2"}})
	list := s.List()
	list[0] = TaskPriority{}
	assert.Equal(t, KindCoRun, s.List()[0].Kind())
}

func TestStore_Replace(t *testing.T) {
	s := NewStore(CoRun{Tasks: []string{"T1", "T2"}})
	require.NoError(t, s.Replace(sampleRules()))
	assert.Equal(t, len(sampleRules()), s.Len())
	assert.ErrorIs(t, s.Replace([]Rule{nil}), ErrNilRule)
}

func TestCheck(t *testing.T) {
	for _, r := range sampleRules() {
		assert.NoError(t, Check(r), "%s should pass", r.Kind())
	}

	invalid := []Rule{
		CoRun{Tasks: []string{"T1"}},
		CoRun{Tasks: []string{"T1", " "}},
		SlotRestriction{GroupType: "teams", GroupIDs: []string{"C1", "C2"}},
		SlotRestriction{GroupType: GroupWorkers, GroupIDs: []string{"W1"}},
		LoadLimit{MaxSlotsPerPhase: 1},
		PhaseWindow{TaskID: "", AllowedPhases: []int{1}},
		PhaseWindow{TaskID: "T1"},
		PatternMatch{Regex: "", RuleTemplate: TemplateTag},
		PatternMatch{Regex: "(", RuleTemplate: TemplateTag},
		PatternMatch{Regex: "a+", RuleTemplate: "bold"},
		PrecedenceOverride{PriorityList: []string{"T1"}},
		TaskPriority{},
	}
	for _, r := range invalid {
		assert.ErrorIs(t, Check(r), ErrInvalidRule, "%#v", r)
	}
	assert.ErrorIs(t, Check(nil), ErrNilRule)
}

func TestPriorities(t *testing.T) {
	p := NewPriorities()
	assert.Equal(t, PrioritySettings{PriorityLevel: 5, TaskFulfillment: 5, Fairness: 5}, p.Get())

	require.NoError(t, p.Set(Fairness, 10))
	require.NoError(t, p.Set(PriorityLevel, 0))
	assert.Equal(t, PrioritySettings{PriorityLevel: 0, TaskFulfillment: 5, Fairness: 10}, p.Get())

	assert.ErrorIs(t, p.Set(TaskFulfillment, 11), ErrWeightRange)
	assert.ErrorIs(t, p.Set("speed", 3), ErrUnknownPriority)
	assert.ErrorIs(t, p.Set("speed", 30), ErrUnknownPriority)
	assert.Equal(t, 5, p.Get().TaskFulfillment)

	assert.ErrorIs(t, p.Replace(PrioritySettings{Fairness: -1}), ErrWeightRange)
	require.NoError(t, p.Replace(PrioritySettings{PriorityLevel: 1, TaskFulfillment: 2, Fairness: 3}))
	assert.Equal(t, 2, p.Get().TaskFulfillment)
}

func TestPrioritySettings_JSON(t *testing.T) {
	b, err := json.Marshal(DefaultPriorities())
	require.NoError(t, err)
	assert.JSONEq(t, `{"priorityLevel":5,"taskFulfillment":5,"fairness":5}`, string(b))
}
