package dialect

import "strings"

// ThinkingMode enumerates how a parsed model name wants reasoning handled.
type ThinkingMode string

const (
	// ModeNone disables any thinking configuration.
	ModeNone ThinkingMode = "none"
	// ModeThinking enables thinking and returns the thought content to the
	// caller as-is (e.g. wrapped in <thinking> tags by the model).
	ModeThinking ThinkingMode = "thinking"
	// ModeRefined enables thinking but strips <thinking>...</thinking>
	// spans from the emitted content.
	ModeRefined ThinkingMode = "refined"
)

// BudgetLevel is the named budget tier recovered from a model suffix.
type BudgetLevel string

const (
	BudgetNoneLevel   BudgetLevel = "none"
	BudgetLowLevel    BudgetLevel = "low"
	BudgetMediumLevel BudgetLevel = "medium"
	BudgetHighLevel   BudgetLevel = "high"
)

// budgetLevelTokens mirrors ReasoningBudget but keyed by the suffix word
// rather than the OpenAI reasoning_effort field name. It is a separate
// literal holding the same token counts as ReasoningBudget.
var budgetLevelTokens = map[BudgetLevel]int{
	BudgetNoneLevel:   0,
	BudgetLowLevel:    1024,
	BudgetMediumLevel: 8192,
	BudgetHighLevel:   24576,
}

// ModelTag is the result of parsing suffixes off a client-supplied model
// name. BaseModel is the name with the recognized suffixes removed; it
// is not checked against the gemini-*, gemma-*, learnlm-* or
// "models/..." families.
type ModelTag struct {
	BaseModel    string
	Mode         ThinkingMode
	Budget       int
	SearchTool   bool
	RawSuffix    string
}

// suffixLevels lists the recognized `-<level>` budget words, longest
// first isn't required here since level words don't overlap, but we keep
// a stable iteration order for deterministic suffix stripping.
var suffixLevels = []BudgetLevel{BudgetHighLevel, BudgetMediumLevel, BudgetLowLevel, BudgetNoneLevel}

// ParseModelName recovers {baseModel, mode, budget, searchTool} from a
// client-supplied model string. Suffix testing is greedy and
// longest-match: "-refined-<level>" and "-thinking-<level>" are tried
// before the bare ":search"/"-search-preview" markers.
func ParseModelName(name string) ModelTag {
	tag := ModelTag{BaseModel: name, Mode: ModeNone}

	if rest, level, ok := stripLeveledSuffix(name, "-refined-"); ok {
		tag.BaseModel = rest
		tag.Mode = ModeRefined
		tag.Budget = budgetLevelTokens[level]
		tag.RawSuffix = "-refined-" + string(level)
		return finishSearchSuffix(tag)
	}

	if rest, level, ok := stripLeveledSuffix(name, "-thinking-"); ok {
		tag.BaseModel = rest
		tag.Mode = ModeThinking
		tag.Budget = budgetLevelTokens[level]
		tag.RawSuffix = "-thinking-" + string(level)
		return finishSearchSuffix(tag)
	}

	return finishSearchSuffix(tag)
}

// finishSearchSuffix strips a trailing ":search" or "-search-preview"
// marker from tag.BaseModel, setting SearchTool. Both suffixes are
// treated identically (see DESIGN.md's resolution of this overlap).
func finishSearchSuffix(tag ModelTag) ModelTag {
	base := tag.BaseModel
	switch {
	case strings.HasSuffix(base, ":search"):
		tag.BaseModel = strings.TrimSuffix(base, ":search")
		tag.SearchTool = true
	case strings.HasSuffix(base, "-search-preview"):
		tag.BaseModel = strings.TrimSuffix(base, "-search-preview")
		tag.SearchTool = true
	}
	return tag
}

// stripLeveledSuffix tries every known budget level against "<marker><level>"
// at the end of name, returning the trimmed base and matched level.
func stripLeveledSuffix(name, marker string) (base string, level BudgetLevel, ok bool) {
	for _, lvl := range suffixLevels {
		suffix := marker + string(lvl)
		if strings.HasSuffix(name, suffix) {
			return strings.TrimSuffix(name, suffix), lvl, true
		}
	}
	return "", "", false
}
