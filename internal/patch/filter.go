package patch

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

// ErrBadNode is returned when a condition tree document has no recognizable shape.
var ErrBadNode = errors.New("malformed condition")

// Node is a condition tree evaluated against one row.
type Node interface {
	Match(row dataset.Row) bool
}

// Condition compares the value at Field with Value. Op is one of the key
// expression operators; an empty Op compares text forms.
type Condition struct {
	Field string `json:"field"`
	Op    string `json:"op,omitempty"`
	Value any    `json:"value"`
}

// Match implements Node.
func (c Condition) Match(row dataset.Row) bool {
	return compare(Resolve(row, c.Field), c.Op, c.Value)
}

// All matches when every child matches.
type All []Node

// Match implements Node.
func (a All) Match(row dataset.Row) bool {
	for _, n := range a {
		if !n.Match(row) {
			return false
		}
	}
	return true
}

// Any matches when at least one child matches.
type Any []Node

// Match implements Node.
func (a Any) Match(row dataset.Row) bool {
	for _, n := range a {
		if n.Match(row) {
			return true
		}
	}
	return false
}

// Not inverts its child.
type Not struct {
	Node Node
}

// Match implements Node.
func (n Not) Match(row dataset.Row) bool {
	return !n.Node.Match(row)
}

// Filter returns the rows that match node. A nil node keeps every row.
func Filter(rows []dataset.Row, node Node) []dataset.Row {
	out := make([]dataset.Row, 0, len(rows))
	for _, row := range rows {
		if node == nil || node.Match(row) {
			out = append(out, row)
		}
	}
	return out
}

// DecodeNode parses a condition tree document. Objects take one of the forms
//
//	{"all": [...]}  {"any": [...]}  {"not": {...}}
//	{"field": "PriorityLevel", "op": ">", "value": 3}
//
// and a where clause object ({"PriorityLevel >": 3}) under the "where" key
// becomes an All of its entries. JSON null decodes to a nil Node.
func DecodeNode(data []byte) (Node, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode condition: %w", err)
	}
	if raw == nil {
		return nil, nil
	}
	return nodeFrom(raw)
}

// NodeFromMap builds a condition tree from an already decoded object.
func NodeFromMap(m map[string]any) (Node, error) {
	if m == nil {
		return nil, nil
	}
	return nodeFrom(m)
}

func nodeFrom(raw any) (Node, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: want object, got %T", ErrBadNode, raw)
	}

	if v, ok := m["all"]; ok {
		children, err := nodeList(v)
		return All(children), err
	}
	if v, ok := m["any"]; ok {
		children, err := nodeList(v)
		return Any(children), err
	}
	if v, ok := m["not"]; ok {
		child, err := nodeFrom(v)
		if err != nil {
			return nil, err
		}
		return Not{Node: child}, nil
	}
	if v, ok := m["where"]; ok {
		w, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: where must be an object", ErrBadNode)
		}
		return WhereNode(w), nil
	}

	field, ok := m["field"].(string)
	if !ok || field == "" {
		return nil, fmt.Errorf("%w: missing field", ErrBadNode)
	}
	op, _ := m["op"].(string)
	switch op {
	case "", OpEq, OpNe, OpGt, OpLt, OpGte, OpLte:
	default:
		return nil, fmt.Errorf("%w: unsupported operator %q", ErrBadNode, op)
	}
	value, ok := m["value"]
	if !ok {
		value = undefined
	}
	return Condition{Field: field, Op: op, Value: value}, nil
}

func nodeList(v any) ([]Node, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: want array, got %T", ErrBadNode, v)
	}
	out := make([]Node, 0, len(items))
	for i, item := range items {
		n, err := nodeFrom(item)
		if err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

// WhereNode converts a where clause into an All of conditions.
func WhereNode(w map[string]any) Node {
	out := make(All, 0, len(w))
	for k, v := range w {
		path, op := ParseKey(k)
		out = append(out, Condition{Field: path, Op: op, Value: v})
	}
	return out
}
