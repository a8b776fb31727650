package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/dusk-indust/alchemist/internal/dataset"
)

// Sample sizes sent with each prompt.
const (
	patchSampleRows = 3
	ruleSampleRows  = 5
)

// RuleContext is the data a rule prompt is grounded on.
type RuleContext struct {
	Clients []dataset.Row `json:"clients"`
	Tasks   []dataset.Row `json:"tasks"`
	Workers []dataset.Row `json:"workers"`
}

const filterPrompt = `You are a data filtering assistant. The user uploaded a CSV table of %q.

Here is an example row:
%s

The user wants to filter rows using this request:
%q

Return only a JSON condition tree. A leaf compares one field:
{"field": "PriorityLevel", "op": "==", "value": 5}
Fields may be dotted paths such as "AttributesJSON.location" or
"RequiredSkills.length". Operators are ==, !=, >, <, >=, <=.
Combine leaves with {"all": [...]}, {"any": [...]} or {"not": {...}}.

Do not explain. Do not include comments.`

const rulePrompt = `You are an assistant that converts natural language instructions into JSON rule objects for scheduling.

Available rule types include:
- coRun
- slotRestriction
- loadLimit
- phaseWindow
- patternMatch
- precedenceOverride
- TaskPriority

Data context:
Clients: %s
Tasks: %s
Workers: %s

Now convert this user instruction into a valid rule object:
%q

Return ONLY a JSON object. Examples of valid outputs:
{"type": "coRun", "tasks": ["T001", "T002"]}
{"type": "slotRestriction", "groupType": "clients", "groupIDs": ["C001", "C002"], "minCommonSlots": 3}
{"type": "loadLimit", "groupIDs": ["W005"], "maxSlotsPerPhase": 2}
{"type": "phaseWindow", "taskId": "T001", "allowedPhases": [1, 3, 5]}
{"type": "patternMatch", "regex": ".*urgent.*", "ruleTemplate": "highlight", "params": {"label": "Important"}}
{"type": "precedenceOverride", "priorityList": ["T001", "T003", "T002"]}
{"type": "TaskPriority", "priorityList": ["T005", "T001", "T004"]}`

const patchPrompt = `You are a data transformation assistant. Based on the natural language instruction below, return a JSON patch object.

The patch MUST include a "modification" array to update rows, or a "deletion" array to remove rows.

Each item must include a "where" object. Its keys may be expressions such as:
- "Skills.length >": 2
- "PriorityLevel >": 3
- "GroupTag ==": "A"
Modifications also carry a "set" object of fields to change.

Only return the JSON patch. Do not explain.

Instruction:
%q

Data type: %s

Data sample:
%s

Format:
{
  "modification": [{"where": {"AvailableSlots.length >": 3}, "set": {"WorkGroup": "Z"}}],
  "deletion": [{"where": {"GroupTag ==": "B"}}]
}`

func buildFilterPrompt(query string, table dataset.Table, sample dataset.Row) string {
	return fmt.Sprintf(filterPrompt, string(table), indentJSON(sample), query)
}

func buildRulePrompt(description string, rc RuleContext) string {
	return fmt.Sprintf(rulePrompt,
		compactJSON(head(rc.Clients, ruleSampleRows)),
		compactJSON(head(rc.Tasks, ruleSampleRows)),
		compactJSON(head(rc.Workers, ruleSampleRows)),
		description)
}

func buildPatchPrompt(description string, table dataset.Table, rows []dataset.Row) string {
	return fmt.Sprintf(patchPrompt, description, string(table), indentJSON(head(rows, patchSampleRows)))
}

func head(rows []dataset.Row, n int) []dataset.Row {
	if rows == nil {
		return []dataset.Row{}
	}
	if len(rows) > n {
		return rows[:n]
	}
	return rows
}

func indentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

var fence = regexp.MustCompile("```[a-zA-Z]*")

// StripFences removes markdown code fences, with or without a language tag,
// and surrounding whitespace from a reply.
func StripFences(s string) string {
	return strings.TrimSpace(fence.ReplaceAllString(s, ""))
}
