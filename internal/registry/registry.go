// Package registry holds the static catalog of Gemini/Gemma/LearnLM
// models the gateway knows about: token limits and thinking-budget
// ranges used to clamp requests and to serve GET /models.
//
// Generalized from model_families.go's multi-provider ModelFamilies
// map: this gateway targets Gemini only, so the family/priority/
// provider fields are dropped, but the package-level map-literal
// catalog shape and its accessor functions are kept.
package registry

import "sort"

// ThinkingRange describes the valid thinkingBudget range for a model
// that supports thinking.
type ThinkingRange struct {
	Min            int
	Max            int
	ZeroAllowed    bool
	DynamicAllowed bool
}

// ModelInfo is the static metadata the gateway knows about one model.
type ModelInfo struct {
	Name                string
	InputTokenLimit     int
	OutputTokenLimit    int
	MaxCompletionTokens int
	SupportsEmbeddings  bool
	SupportsSearch      bool
	Thinking            *ThinkingRange
}

// catalog is the package-level static model list, intentionally a
// literal map (not loaded from a remote endpoint) so /models responses
// are stable and don't depend on upstream availability.
var catalog = map[string]ModelInfo{
	"gemini-2.0-flash": {
		Name: "gemini-2.0-flash", InputTokenLimit: 1_048_576, OutputTokenLimit: 8192,
	},
	"gemini-2.0-flash-thinking": {
		Name: "gemini-2.0-flash-thinking", InputTokenLimit: 1_048_576, OutputTokenLimit: 8192,
		Thinking: &ThinkingRange{Min: 0, Max: 24576, ZeroAllowed: true, DynamicAllowed: true},
	},
	"gemini-2.5-pro": {
		Name: "gemini-2.5-pro", InputTokenLimit: 2_097_152, OutputTokenLimit: 65536,
		Thinking: &ThinkingRange{Min: 128, Max: 32768, ZeroAllowed: false, DynamicAllowed: true},
	},
	"gemini-2.5-flash": {
		Name: "gemini-2.5-flash", InputTokenLimit: 1_048_576, OutputTokenLimit: 65536,
		Thinking: &ThinkingRange{Min: 0, Max: 24576, ZeroAllowed: true, DynamicAllowed: true},
	},
	"gemini-2.5-flash-lite": {
		Name: "gemini-2.5-flash-lite", InputTokenLimit: 1_048_576, OutputTokenLimit: 65536,
		Thinking: &ThinkingRange{Min: 0, Max: 24576, ZeroAllowed: true, DynamicAllowed: true},
	},
	"gemini-embedding-001": {
		Name: "gemini-embedding-001", InputTokenLimit: 2048, SupportsEmbeddings: true,
	},
	"text-embedding-004": {
		Name: "text-embedding-004", InputTokenLimit: 2048, SupportsEmbeddings: true,
	},
	"gemma-3-27b-it": {
		Name: "gemma-3-27b-it", InputTokenLimit: 131072, OutputTokenLimit: 8192,
	},
	"learnlm-2.0-flash-experimental": {
		Name: "learnlm-2.0-flash-experimental", InputTokenLimit: 1_048_576, OutputTokenLimit: 8192,
	},
}

// GetModelInfo looks up a model by its base name (after suffix
// stripping by dialect.ParseModelName). Returns nil if unknown; callers
// must tolerate an unknown model by skipping the clamp/limit logic
// rather than failing the request.
func GetModelInfo(name string) *ModelInfo {
	if info, ok := catalog[name]; ok {
		cp := info
		return &cp
	}
	return nil
}

// List returns every known model sorted by name, for GET /models.
func List() []ModelInfo {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)

	out := make([]ModelInfo, 0, len(names))
	for _, n := range names {
		out = append(out, catalog[n])
	}
	return out
}

// IsKnownModel reports whether name is present in the static catalog.
func IsKnownModel(name string) bool {
	_, ok := catalog[name]
	return ok
}
