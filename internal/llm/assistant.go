package llm

import (
	"context"

	"go.uber.org/zap"

	"github.com/dusk-indust/alchemist/internal/dataset"
	"github.com/dusk-indust/alchemist/internal/patch"
	"github.com/dusk-indust/alchemist/internal/rules"
)

// Assistant translates requests through a Generator. Its methods never fail:
// service errors and unparsable replies are logged and yield nil.
type Assistant struct {
	gen    Generator
	logger *zap.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithLogger sets the logger used for degraded responses.
func WithLogger(l *zap.Logger) Option {
	return func(a *Assistant) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAssistant wraps gen.
func NewAssistant(gen Generator, opts ...Option) *Assistant {
	a := &Assistant{gen: gen, logger: zap.NewNop()}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Filter asks for a condition tree selecting rows of table. A nil result
// keeps every row.
func (a *Assistant) Filter(ctx context.Context, query string, table dataset.Table, sample dataset.Row) patch.Node {
	raw, ok := a.ask(ctx, "filter", buildFilterPrompt(query, table, sample))
	if !ok {
		return nil
	}
	node, err := patch.DecodeNode([]byte(raw))
	if err != nil {
		a.logger.Warn("unparsable filter", zap.String("reply", raw), zap.Error(err))
		return nil
	}
	return node
}

// Rule asks for one scheduling rule.
func (a *Assistant) Rule(ctx context.Context, description string, rc RuleContext) rules.Rule {
	raw, ok := a.ask(ctx, "rule", buildRulePrompt(description, rc))
	if !ok {
		return nil
	}
	r, err := rules.Unmarshal([]byte(raw))
	if err != nil {
		a.logger.Warn("unparsable rule", zap.String("reply", raw), zap.Error(err))
		return nil
	}
	return r
}

// Patch asks for a patch reshaping rows of table.
func (a *Assistant) Patch(ctx context.Context, description string, table dataset.Table, rows []dataset.Row) *patch.Patch {
	raw, ok := a.ask(ctx, "patch", buildPatchPrompt(description, table, rows))
	if !ok {
		return nil
	}
	if raw == "null" {
		return nil
	}
	p, err := patch.Decode([]byte(raw))
	if err != nil {
		a.logger.Warn("unparsable patch", zap.String("reply", raw), zap.Error(err))
		return nil
	}
	return p
}

func (a *Assistant) ask(ctx context.Context, kind, prompt string) (string, bool) {
	if a == nil || a.gen == nil {
		return "", false
	}
	reply, err := a.gen.Generate(ctx, prompt)
	if err != nil {
		a.logger.Warn("generation failed", zap.String("kind", kind), zap.Error(err))
		return "", false
	}
	raw := StripFences(reply)
	if raw == "" {
		a.logger.Warn("empty reply", zap.String("kind", kind))
		return "", false
	}
	a.logger.Debug("generated", zap.String("kind", kind), zap.Int("bytes", len(raw)))
	return raw, true
}
