package mcptools

import (
	"github.com/dusk-indust/alchemist/internal/dataset"
	"github.com/dusk-indust/alchemist/internal/patch"
	"github.com/dusk-indust/alchemist/internal/rules"
	"github.com/dusk-indust/alchemist/internal/validate"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// LoadDataInput is the input for the load_data MCP tool.
type LoadDataInput struct {
	Dir   string `json:"dir,omitempty" jsonschema:"directory holding clients, tasks and workers CSV files"`
	File  string `json:"file,omitempty" jsonschema:"a single CSV file to load instead of a directory"`
	Table string `json:"table,omitempty" jsonschema:"table the file holds: clients, tasks or workers (default: inferred from the file name)"`
}

// ValidateInput is the input for the validate MCP tool.
type ValidateInput struct{}

// ValidateOutput is the result of the validate MCP tool and of every tool
// that changes a table.
type ValidateOutput struct {
	Counts    map[string]int             `json:"counts"`
	Errors    []validate.ValidationError `json:"errors"`
	CrossFile []validate.ValidationError `json:"crossFile"`
	Total     int                        `json:"total"`
}

// UpdateCellInput is the input for the update_cell MCP tool.
type UpdateCellInput struct {
	Table    string `json:"table" jsonschema:"clients, tasks or workers"`
	RowIndex int    `json:"rowIndex" jsonschema:"zero-based row index"`
	Column   string `json:"column" jsonschema:"column name; unknown columns are added to the row"`
	Value    any    `json:"value" jsonschema:"new cell value"`
}

// DeleteRowInput is the input for the delete_row MCP tool.
type DeleteRowInput struct {
	Table    string `json:"table" jsonschema:"clients, tasks or workers"`
	RowIndex int    `json:"rowIndex" jsonschema:"zero-based row index"`
}

// AddRuleInput is the input for the add_rule MCP tool.
type AddRuleInput struct {
	Rule map[string]any `json:"rule" jsonschema:"rule object with a type of coRun, slotRestriction, loadLimit, phaseWindow, patternMatch, precedenceOverride or TaskPriority"`
}

// AddRuleOutput is the result of the add_rule and nl_rule MCP tools.
type AddRuleOutput struct {
	Rule  map[string]any `json:"rule,omitempty"`
	Added bool           `json:"added"`
	Count int            `json:"count"`
	Issue string         `json:"issue,omitempty"`
}

// ListRulesInput is the input for the list_rules MCP tool.
type ListRulesInput struct{}

// ListRulesOutput is the result of every tool that reports the rule list.
type ListRulesOutput struct {
	Rules []map[string]any `json:"rules"`
	Count int              `json:"count"`
}

// RemoveRuleInput is the input for the remove_rule MCP tool.
type RemoveRuleInput struct {
	Index int `json:"index" jsonschema:"zero-based position in the rule list"`
}

// ClearRulesInput is the input for the clear_rules MCP tool.
type ClearRulesInput struct{}

// SetPriorityInput is the input for the set_priority MCP tool.
type SetPriorityInput struct {
	Key   string `json:"key" jsonschema:"priorityLevel, taskFulfillment or fairness"`
	Value int    `json:"value" jsonschema:"weight from 0 to 10"`
}

// SetPriorityOutput is the result of the set_priority MCP tool.
type SetPriorityOutput struct {
	Priorities rules.PrioritySettings `json:"priorities"`
}

// ApplyPatchInput is the input for the apply_patch MCP tool.
type ApplyPatchInput struct {
	Table string      `json:"table" jsonschema:"clients, tasks or workers"`
	Patch patch.Patch `json:"patch" jsonschema:"modification and deletion lists keyed by where clauses"`
}

// ApplyPatchOutput is the result of the apply_patch and nl_modify MCP tools.
type ApplyPatchOutput struct {
	Patch      *patch.Patch   `json:"patch,omitempty"`
	Applied    bool           `json:"applied"`
	Stats      patch.Stats    `json:"stats"`
	Validation ValidateOutput `json:"validation"`
}

// FilterRowsInput is the input for the filter_rows MCP tool.
type FilterRowsInput struct {
	Table  string         `json:"table" jsonschema:"clients, tasks or workers"`
	Filter map[string]any `json:"filter,omitempty" jsonschema:"condition tree: {field, op, value} leaves combined with all, any and not; omit to keep every row"`
}

// FilterRowsOutput is the result of the filter_rows and nl_filter MCP tools.
type FilterRowsOutput struct {
	Rows     []dataset.Row  `json:"rows"`
	Total    int            `json:"total"`
	Matched  int            `json:"matched"`
	Filter   map[string]any `json:"filter,omitempty"`
	Filtered bool           `json:"filtered"`
}

// NLModifyInput is the input for the nl_modify MCP tool.
type NLModifyInput struct {
	Table       string `json:"table" jsonschema:"clients, tasks or workers"`
	Description string `json:"description" jsonschema:"natural-language change, e.g. set Tier A for priority above 3"`
	DryRun      bool   `json:"dryRun,omitempty" jsonschema:"return the generated patch without applying it"`
}

// NLFilterInput is the input for the nl_filter MCP tool.
type NLFilterInput struct {
	Table string `json:"table" jsonschema:"clients, tasks or workers"`
	Query string `json:"query" jsonschema:"natural-language search, e.g. clients with priority 5"`
}

// NLRuleInput is the input for the nl_rule MCP tool.
type NLRuleInput struct {
	Description string `json:"description" jsonschema:"natural-language rule, e.g. T1 and T2 must run together"`
	DryRun      bool   `json:"dryRun,omitempty" jsonschema:"return the generated rule without adding it"`
}

// ExportConfigInput is the input for the export_config MCP tool.
type ExportConfigInput struct {
	Path   string `json:"path,omitempty" jsonschema:"file to write the rules and priorities JSON to"`
	CSVDir string `json:"csvDir,omitempty" jsonschema:"directory to write the current tables to as CSV"`
}

// ExportConfigOutput is the result of the export_config MCP tool.
type ExportConfigOutput struct {
	Rules      []map[string]any       `json:"rules"`
	Priorities rules.PrioritySettings `json:"priorities"`
	ExportedAt string                 `json:"exportedAt"`
	Version    string                 `json:"version"`
	Path       string                 `json:"path,omitempty"`
	CSVFiles   []string               `json:"csvFiles,omitempty"`
}
