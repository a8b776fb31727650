// Package patch reshapes record tables with conditional modifications and
// deletions, and filters them with structured condition trees.
//
// A where clause maps key expressions to expected values. A key is a dotted
// field path, optionally followed by one of ==, !=, >, <, >=, <=. A bare
// path compares text forms; == and != use loose equality; the ordering
// operators compare numerically and are false when either side is not a
// number. All entries of one where clause must match.
package patch

import (
	"encoding/json"
	"fmt"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

// Where maps key expressions to expected values.
type Where map[string]any

// Matches reports whether every entry of w holds for row. An empty clause
// matches every row.
func (w Where) Matches(row dataset.Row) bool {
	for k, v := range w {
		if !matchKey(row, k, v) {
			return false
		}
	}
	return true
}

// Modification merges Set into rows matching Where.
type Modification struct {
	Where Where          `json:"where"`
	Set   map[string]any `json:"set"`
}

// Deletion removes rows matching Where.
type Deletion struct {
	Where Where `json:"where"`
}

// Patch is a batch of modifications followed by deletions.
type Patch struct {
	Modification []Modification `json:"modification,omitempty"`
	Deletion     []Deletion     `json:"deletion,omitempty"`
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return len(p.Modification) == 0 && len(p.Deletion) == 0
}

// Decode parses a patch document.
func Decode(data []byte) (*Patch, error) {
	var p Patch
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	return &p, nil
}

// Apply returns the rows after p. For each row, the first modification
// whose clause matches has its set fields merged over a copy of the row;
// later modifications are not consulted. Deletions then run in order, each
// filtering the rows left by the previous one. The input slice and its rows
// are never mutated.
func Apply(rows []dataset.Row, p Patch) []dataset.Row {
	if rows == nil {
		return nil
	}

	out := make([]dataset.Row, len(rows))
	for i, row := range rows {
		out[i] = row
		for _, m := range p.Modification {
			if !m.Where.Matches(row) {
				continue
			}
			merged := row.Clone()
			for k, v := range m.Set {
				merged[k] = v
			}
			out[i] = merged
			break
		}
	}

	for _, d := range p.Deletion {
		kept := out[:0:0]
		for _, row := range out {
			if !d.Where.Matches(row) {
				kept = append(kept, row)
			}
		}
		out = kept
	}
	return out
}

// Stats counts what Apply changed.
type Stats struct {
	Modified int `json:"modified"`
	Deleted  int `json:"deleted"`
}

// ApplyWithStats is Apply plus counts of modified and deleted rows.
func ApplyWithStats(rows []dataset.Row, p Patch) ([]dataset.Row, Stats) {
	var st Stats
	for _, row := range rows {
		for _, m := range p.Modification {
			if m.Where.Matches(row) {
				st.Modified++
				break
			}
		}
	}
	out := Apply(rows, p)
	st.Deleted = len(rows) - len(out)
	return out, st
}
