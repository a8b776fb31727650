// Package rules models the scheduling business rules a user defines over a
// dataset and the priority weights that accompany them.
package rules

// Kind is the JSON discriminator of a rule.
type Kind string

const (
	KindCoRun              Kind = "coRun"
	KindSlotRestriction    Kind = "slotRestriction"
	KindLoadLimit          Kind = "loadLimit"
	KindPhaseWindow        Kind = "phaseWindow"
	KindPatternMatch       Kind = "patternMatch"
	KindPrecedenceOverride Kind = "precedenceOverride"
	KindTaskPriority       Kind = "TaskPriority"
)

// Kinds lists every rule kind.
var Kinds = []Kind{
	KindCoRun,
	KindSlotRestriction,
	KindLoadLimit,
	KindPhaseWindow,
	KindPatternMatch,
	KindPrecedenceOverride,
	KindTaskPriority,
}

// Rule is one of the variant types in this package. The set is closed.
type Rule interface {
	Kind() Kind
	isRule()
}

// Group types accepted by SlotRestriction.
const (
	GroupClients = "clients"
	GroupWorkers = "workers"
)

// Pattern templates accepted by PatternMatch.
const (
	TemplateHighlight = "highlight"
	TemplateExclude   = "exclude"
	TemplateTag       = "tag"
)

// CoRun requires the listed tasks to run together.
type CoRun struct {
	Tasks []string `json:"tasks"`
}

// SlotRestriction requires a group of clients or workers to share at least
// MinCommonSlots slots.
type SlotRestriction struct {
	GroupType      string   `json:"groupType"`
	GroupIDs       []string `json:"groupIDs"`
	MinCommonSlots int      `json:"minCommonSlots"`
}

// LoadLimit caps the slots per phase of a worker group.
type LoadLimit struct {
	GroupIDs         []string `json:"groupIDs"`
	MaxSlotsPerPhase int      `json:"maxSlotsPerPhase"`
}

// PhaseWindow restricts a task to the listed phases.
type PhaseWindow struct {
	TaskID        string `json:"taskId"`
	AllowedPhases []int  `json:"allowedPhases"`
}

// PatternMatch applies a template to rows whose text matches Regex.
type PatternMatch struct {
	Regex        string         `json:"regex"`
	RuleTemplate string         `json:"ruleTemplate"`
	Params       map[string]any `json:"params"`
}

// PrecedenceOverride orders rule kinds or task IDs by precedence.
type PrecedenceOverride struct {
	PriorityList []string `json:"priorityList"`
}

// TaskPriority orders task IDs by priority.
type TaskPriority struct {
	PriorityList []string `json:"priorityList"`
}

func (CoRun) Kind() Kind              { return KindCoRun }
func (SlotRestriction) Kind() Kind    { return KindSlotRestriction }
func (LoadLimit) Kind() Kind          { return KindLoadLimit }
func (PhaseWindow) Kind() Kind        { return KindPhaseWindow }
func (PatternMatch) Kind() Kind       { return KindPatternMatch }
func (PrecedenceOverride) Kind() Kind { return KindPrecedenceOverride }
func (TaskPriority) Kind() Kind       { return KindTaskPriority }

func (CoRun) isRule()              {}
func (SlotRestriction) isRule()    {}
func (LoadLimit) isRule()          {}
func (PhaseWindow) isRule()        {}
func (PatternMatch) isRule()       {}
func (PrecedenceOverride) isRule() {}
func (TaskPriority) isRule()       {}
