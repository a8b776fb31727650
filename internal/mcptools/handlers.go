package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/dusk-indust/alchemist/internal/dataset"
	"github.com/dusk-indust/alchemist/internal/export"
	"github.com/dusk-indust/alchemist/internal/llm"
	"github.com/dusk-indust/alchemist/internal/patch"
	"github.com/dusk-indust/alchemist/internal/rules"
	"github.com/dusk-indust/alchemist/internal/validate"
	"github.com/dusk-indust/alchemist/internal/workspace"
)

// DefaultLLMTimeout bounds each natural-language tool call.
const DefaultLLMTimeout = 30 * time.Second

// Service holds the workspace and assistant used by MCP tool handlers.
type Service struct {
	ws        *workspace.Workspace
	assistant *llm.Assistant
	timeout   time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout bounds every call to the assistant.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewService creates a Service. A nil assistant makes every natural-language
// tool fall back to its safe default.
func NewService(ws *workspace.Workspace, assistant *llm.Assistant, opts ...Option) *Service {
	s := &Service{
		ws:        ws,
		assistant: assistant,
		timeout:   DefaultLLMTimeout,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Workspace returns the session state the tools operate on.
func (s *Service) Workspace() *workspace.Workspace { return s.ws }

// LoadData replaces the tables from a directory, or one table from a file.
func (s *Service) LoadData(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input LoadDataInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	switch {
	case input.File != "":
		table, err := tableForLoad(input.File, input.Table)
		if err != nil {
			return nil, ValidateOutput{}, err
		}
		rows, err := dataset.ReadFile(input.File)
		if err != nil {
			return nil, ValidateOutput{}, err
		}
		s.ws.SetTable(table, rows)
		s.logger.Info("table loaded", zap.String("file", input.File), zap.String("table", string(table)), zap.Int("rows", len(rows)))
	case input.Dir != "":
		if err := s.ws.LoadDir(ctx, input.Dir); err != nil {
			return nil, ValidateOutput{}, err
		}
	default:
		return nil, ValidateOutput{}, fmt.Errorf("dir or file is required")
	}
	return nil, s.validation(), nil
}

func tableForLoad(file, name string) (dataset.Table, error) {
	if name != "" {
		return dataset.ParseTable(name)
	}
	t, ok := dataset.TableForFile(file)
	if !ok {
		return "", fmt.Errorf("cannot infer table from %s: %w", file, dataset.ErrUnknownTable)
	}
	return t, nil
}

// Validate reports every current finding.
func (s *Service) Validate(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ValidateInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	return nil, s.validation(), nil
}

// UpdateCell edits one cell and revalidates its row.
func (s *Service) UpdateCell(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input UpdateCellInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	table, err := dataset.ParseTable(input.Table)
	if err != nil {
		return nil, ValidateOutput{}, err
	}
	if input.Column == "" {
		return nil, ValidateOutput{}, fmt.Errorf("column is required")
	}
	if err := s.ws.UpdateCell(table, input.RowIndex, input.Column, input.Value); err != nil {
		return nil, ValidateOutput{}, err
	}
	return nil, s.validation(), nil
}

// DeleteRow removes one row and revalidates its table.
func (s *Service) DeleteRow(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input DeleteRowInput,
) (*mcp.CallToolResult, ValidateOutput, error) {
	table, err := dataset.ParseTable(input.Table)
	if err != nil {
		return nil, ValidateOutput{}, err
	}
	if err := s.ws.DeleteRow(table, input.RowIndex); err != nil {
		return nil, ValidateOutput{}, err
	}
	return nil, s.validation(), nil
}

// AddRule checks and stores one rule.
func (s *Service) AddRule(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input AddRuleInput,
) (*mcp.CallToolResult, AddRuleOutput, error) {
	if input.Rule == nil {
		return nil, AddRuleOutput{}, fmt.Errorf("rule is required")
	}
	r, err := rules.FromMap(input.Rule)
	if err != nil {
		return nil, AddRuleOutput{}, err
	}
	if err := rules.Check(r); err != nil {
		return nil, AddRuleOutput{}, err
	}
	return s.addRule(r)
}

func (s *Service) addRule(r rules.Rule) (*mcp.CallToolResult, AddRuleOutput, error) {
	if err := s.ws.Rules().Add(r); err != nil {
		return nil, AddRuleOutput{}, err
	}
	m, err := rules.ToMap(r)
	if err != nil {
		return nil, AddRuleOutput{}, err
	}
	return nil, AddRuleOutput{Rule: m, Added: true, Count: s.ws.Rules().Len()}, nil
}

// ListRules returns the rule list in insertion order.
func (s *Service) ListRules(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListRulesInput,
) (*mcp.CallToolResult, ListRulesOutput, error) {
	out, err := s.ruleList()
	return nil, out, err
}

// RemoveRule deletes the rule at an index.
func (s *Service) RemoveRule(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input RemoveRuleInput,
) (*mcp.CallToolResult, ListRulesOutput, error) {
	if err := s.ws.Rules().Remove(input.Index); err != nil {
		return nil, ListRulesOutput{}, err
	}
	out, err := s.ruleList()
	return nil, out, err
}

// ClearRules empties the rule list.
func (s *Service) ClearRules(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ClearRulesInput,
) (*mcp.CallToolResult, ListRulesOutput, error) {
	s.ws.Rules().Clear()
	return nil, ListRulesOutput{Rules: []map[string]any{}}, nil
}

func (s *Service) ruleList() (ListRulesOutput, error) {
	maps, err := rules.ToMaps(s.ws.Rules().List())
	if err != nil {
		return ListRulesOutput{}, err
	}
	if maps == nil {
		maps = []map[string]any{}
	}
	return ListRulesOutput{Rules: maps, Count: len(maps)}, nil
}

// SetPriority changes one weight.
func (s *Service) SetPriority(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input SetPriorityInput,
) (*mcp.CallToolResult, SetPriorityOutput, error) {
	if err := s.ws.Priorities().Set(input.Key, input.Value); err != nil {
		return nil, SetPriorityOutput{}, err
	}
	return nil, SetPriorityOutput{Priorities: s.ws.Priorities().Get()}, nil
}

// ApplyPatch reshapes one table with an explicit patch.
func (s *Service) ApplyPatch(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ApplyPatchInput,
) (*mcp.CallToolResult, ApplyPatchOutput, error) {
	table, err := dataset.ParseTable(input.Table)
	if err != nil {
		return nil, ApplyPatchOutput{}, err
	}
	st := s.ws.ApplyPatch(table, input.Patch)
	return nil, ApplyPatchOutput{Applied: true, Stats: st, Validation: s.validation()}, nil
}

// FilterRows returns the rows matching a condition tree.
func (s *Service) FilterRows(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input FilterRowsInput,
) (*mcp.CallToolResult, FilterRowsOutput, error) {
	table, err := dataset.ParseTable(input.Table)
	if err != nil {
		return nil, FilterRowsOutput{}, err
	}
	node, err := patch.NodeFromMap(input.Filter)
	if err != nil {
		return nil, FilterRowsOutput{}, err
	}
	return nil, s.filtered(table, node, input.Filter), nil
}

func (s *Service) filtered(table dataset.Table, node patch.Node, filter map[string]any) FilterRowsOutput {
	all := s.ws.Rows(table)
	rows := patch.Filter(all, node)
	return FilterRowsOutput{
		Rows:     rows,
		Total:    len(all),
		Matched:  len(rows),
		Filter:   filter,
		Filtered: node != nil,
	}
}

// NLModify asks the assistant for a patch and applies it unless DryRun is
// set. A failed request leaves the table unchanged.
func (s *Service) NLModify(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NLModifyInput,
) (*mcp.CallToolResult, ApplyPatchOutput, error) {
	table, err := dataset.ParseTable(input.Table)
	if err != nil {
		return nil, ApplyPatchOutput{}, err
	}
	if input.Description == "" {
		return nil, ApplyPatchOutput{}, fmt.Errorf("description is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	p := s.assistant.Patch(ctx, input.Description, table, s.ws.Rows(table))

	out := ApplyPatchOutput{Patch: p}
	if p != nil && !input.DryRun {
		out.Stats = s.ws.ApplyPatch(table, *p)
		out.Applied = true
	}
	out.Validation = s.validation()
	return nil, out, nil
}

// NLFilter asks the assistant for a condition tree and returns the matching
// rows. A failed request keeps every row.
func (s *Service) NLFilter(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NLFilterInput,
) (*mcp.CallToolResult, FilterRowsOutput, error) {
	table, err := dataset.ParseTable(input.Table)
	if err != nil {
		return nil, FilterRowsOutput{}, err
	}
	if input.Query == "" {
		return nil, FilterRowsOutput{}, fmt.Errorf("query is required")
	}

	var sample dataset.Row
	if rows := s.ws.Rows(table); len(rows) > 0 {
		sample = rows[0]
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	node := s.assistant.Filter(ctx, input.Query, table, sample)
	return nil, s.filtered(table, node, nodeMap(node)), nil
}

// nodeMap renders a condition tree for display.
func nodeMap(n patch.Node) map[string]any {
	if n == nil {
		return nil
	}
	b, err := json.Marshal(treeView(n))
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}

func treeView(n patch.Node) any {
	switch v := n.(type) {
	case patch.All:
		return map[string]any{"all": treeList(v)}
	case patch.Any:
		return map[string]any{"any": treeList(v)}
	case patch.Not:
		return map[string]any{"not": treeView(v.Node)}
	}
	return n
}

func treeList(ns []patch.Node) []any {
	out := make([]any, len(ns))
	for i, n := range ns {
		out[i] = treeView(n)
	}
	return out
}

// NLRule asks the assistant for a rule and adds it unless DryRun is set or
// the rule does not pass Check.
func (s *Service) NLRule(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input NLRuleInput,
) (*mcp.CallToolResult, AddRuleOutput, error) {
	if input.Description == "" {
		return nil, AddRuleOutput{}, fmt.Errorf("description is required")
	}

	b := s.ws.Bundle()
	rc := llm.RuleContext{
		Clients: dataset.ClientRows(b.Clients),
		Tasks:   dataset.TaskRows(b.Tasks),
		Workers: dataset.WorkerRows(b.Workers),
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	r := s.assistant.Rule(ctx, input.Description, rc)
	if r == nil {
		return nil, AddRuleOutput{Count: s.ws.Rules().Len(), Issue: "no rule could be generated"}, nil
	}

	m, err := rules.ToMap(r)
	if err != nil {
		return nil, AddRuleOutput{}, err
	}
	out := AddRuleOutput{Rule: m, Count: s.ws.Rules().Len()}
	if err := rules.Check(r); err != nil {
		out.Issue = err.Error()
		return nil, out, nil
	}
	if input.DryRun {
		return nil, out, nil
	}
	return s.addRule(r)
}

// ExportConfig builds the rules and priorities document, optionally writing
// it and the current tables to disk.
func (s *Service) ExportConfig(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ExportConfigInput,
) (*mcp.CallToolResult, ExportConfigOutput, error) {
	doc := export.NewConfigExport(s.ws.Rules().List(), s.ws.Priorities().Get(), s.now())
	maps, err := rules.ToMaps(doc.Rules)
	if err != nil {
		return nil, ExportConfigOutput{}, err
	}
	if maps == nil {
		maps = []map[string]any{}
	}
	out := ExportConfigOutput{
		Rules:      maps,
		Priorities: doc.Priorities,
		ExportedAt: doc.ExportedAt,
		Version:    doc.Version,
	}

	if input.Path != "" {
		if err := export.WriteConfig(input.Path, doc); err != nil {
			return nil, ExportConfigOutput{}, err
		}
		out.Path = input.Path
	}
	if input.CSVDir != "" {
		files, err := export.WriteCSV(input.CSVDir, s.ws.Bundle())
		if err != nil {
			return nil, ExportConfigOutput{}, err
		}
		out.CSVFiles = files
	}
	return nil, out, nil
}

// validation converts the workspace snapshot for tool output.
func (s *Service) validation() ValidateOutput {
	snap := s.ws.Snapshot()
	counts := make(map[string]int, len(snap.Counts))
	for t, n := range snap.Counts {
		counts[string(t)] = n
	}
	var rowErrs []validate.ValidationError
	for _, t := range dataset.Tables {
		rowErrs = append(rowErrs, snap.Tables[t]...)
	}
	if rowErrs == nil {
		rowErrs = []validate.ValidationError{}
	}
	cross := snap.CrossFile
	if cross == nil {
		cross = []validate.ValidationError{}
	}
	return ValidateOutput{
		Counts:    counts,
		Errors:    rowErrs,
		CrossFile: cross,
		Total:     len(rowErrs) + len(cross),
	}
}
