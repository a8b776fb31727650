package rules

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when decoding a rule whose type is not one of Kinds.
var ErrUnknownKind = errors.New("unknown rule type")

// Marshal encodes a rule as a JSON object carrying its kind under "type".
func Marshal(r Rule) ([]byte, error) {
	if r == nil {
		return nil, ErrNilRule
	}
	body, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal %s rule: %w", r.Kind(), err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("marshal %s rule: %w", r.Kind(), err)
	}
	kind, _ := json.Marshal(string(r.Kind()))
	fields["type"] = kind
	return json.Marshal(fields)
}

// Unmarshal decodes a rule from its JSON object form. A coRun rule may name
// its tasks under "taskIDs" instead of "tasks".
func Unmarshal(data []byte) (Rule, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode rule: %w", err)
	}

	var (
		r   Rule
		err error
	)
	switch head.Type {
	case KindCoRun:
		var v struct {
			Tasks   []string `json:"tasks"`
			TaskIDs []string `json:"taskIDs"`
		}
		err = json.Unmarshal(data, &v)
		if v.Tasks == nil {
			v.Tasks = v.TaskIDs
		}
		r = CoRun{Tasks: v.Tasks}
	case KindSlotRestriction:
		var v SlotRestriction
		err = json.Unmarshal(data, &v)
		r = v
	case KindLoadLimit:
		var v LoadLimit
		err = json.Unmarshal(data, &v)
		r = v
	case KindPhaseWindow:
		var v PhaseWindow
		err = json.Unmarshal(data, &v)
		r = v
	case KindPatternMatch:
		var v PatternMatch
		err = json.Unmarshal(data, &v)
		r = v
	case KindPrecedenceOverride:
		var v PrecedenceOverride
		err = json.Unmarshal(data, &v)
		r = v
	case KindTaskPriority:
		var v TaskPriority
		err = json.Unmarshal(data, &v)
		r = v
	default:
		return nil, fmt.Errorf("decode rule: %w: %q", ErrUnknownKind, head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s rule: %w", head.Type, err)
	}
	return r, nil
}

// List is an ordered rule sequence with a JSON array encoding.
type List []Rule

// MarshalJSON encodes the list as an array of rule objects.
func (l List) MarshalJSON() ([]byte, error) {
	out := make([]json.RawMessage, len(l))
	for i, r := range l {
		b, err := Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out[i] = b
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an array of rule objects. JSON null yields an empty list.
func (l *List) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode rule list: %w", err)
	}
	out := make(List, 0, len(raw))
	for i, item := range raw {
		r, err := Unmarshal(item)
		if err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, r)
	}
	*l = out
	return nil
}

// ToMaps converts rules to generic JSON objects, the shape tool surfaces
// and prompts use.
func ToMaps(rs []Rule) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(rs))
	for i, r := range rs {
		m, err := ToMap(r)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// ToMap converts one rule to a generic JSON object.
func ToMap(r Rule) (map[string]any, error) {
	b, err := Marshal(r)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// FromMap decodes a rule from a generic JSON object.
func FromMap(m map[string]any) (Rule, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode rule object: %w", err)
	}
	return Unmarshal(b)
}
