package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidRule wraps every Check failure.
var ErrInvalidRule = errors.New("invalid rule")

// Check applies the form-level requirements a rule must meet before it is
// added to a store.
func Check(r Rule) error {
	switch v := r.(type) {
	case nil:
		return ErrNilRule
	case CoRun:
		if len(nonBlank(v.Tasks)) < 2 {
			return invalid(v, "select at least two tasks")
		}
	case SlotRestriction:
		if v.GroupType != GroupClients && v.GroupType != GroupWorkers {
			return invalid(v, "groupType must be clients or workers, got %q", v.GroupType)
		}
		if len(nonBlank(v.GroupIDs)) < 2 {
			return invalid(v, "select at least two group IDs")
		}
	case LoadLimit:
		if len(nonBlank(v.GroupIDs)) < 1 {
			return invalid(v, "select at least one group ID")
		}
	case PhaseWindow:
		if strings.TrimSpace(v.TaskID) == "" {
			return invalid(v, "taskId is required")
		}
		if len(v.AllowedPhases) == 0 {
			return invalid(v, "select at least one allowed phase")
		}
	case PatternMatch:
		if v.Regex == "" {
			return invalid(v, "regex is required")
		}
		if _, err := regexp.Compile(v.Regex); err != nil {
			return invalid(v, "regex does not compile: %v", err)
		}
		switch v.RuleTemplate {
		case TemplateHighlight, TemplateExclude, TemplateTag:
		default:
			return invalid(v, "ruleTemplate must be highlight, exclude or tag, got %q", v.RuleTemplate)
		}
	case PrecedenceOverride:
		if len(nonBlank(v.PriorityList)) < 2 {
			return invalid(v, "add at least two entries to define a precedence order")
		}
	case TaskPriority:
		if len(nonBlank(v.PriorityList)) < 2 {
			return invalid(v, "add at least two task IDs to define a priority order")
		}
	default:
		return fmt.Errorf("%w: unsupported rule %T", ErrInvalidRule, r)
	}
	return nil
}

func invalid(r Rule, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidRule, r.Kind(), fmt.Sprintf(format, args...))
}

func nonBlank(ids []string) []string {
	var out []string
	for _, id := range ids {
		if strings.TrimSpace(id) != "" {
			out = append(out, id)
		}
	}
	return out
}
