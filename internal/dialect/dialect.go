// Package dialect holds the immutable constants and field maps shared by
// every translator package: OpenAI<->Gemini field names, reasoning-effort
// budgets, finish-reason mapping, safety defaults, and the SSE framing
// regex. Nothing here depends on request/response shapes so it can be
// imported by request, response, streampipe, and anthropic without cycles.
package dialect

import "regexp"

// SSEDelimiter separates consecutive SSE frames.
const SSEDelimiter = "\n\n"

// ContentPartSeparator joins multiple text parts from a single candidate.
const ContentPartSeparator = "\n\n|>"

// SSELinePattern matches one complete Gemini SSE data line, including the
// CRLF/CR variants some proxies rewrite line endings into.
var SSELinePattern = regexp.MustCompile(`(?s)^data: (.*?)(?:\n\n|\r\r|\r\n\r\n)`)

// DoneMarker is the terminal OpenAI SSE sentinel.
const DoneMarker = "data: [DONE]\n\n"

// GenerationConfigFieldMap maps OpenAI sampling fields to their Gemini
// generationConfig counterpart.
var GenerationConfigFieldMap = map[string]string{
	"temperature":       "temperature",
	"top_p":             "topP",
	"top_k":             "topK",
	"max_tokens":        "maxOutputTokens",
	"max_output_tokens": "maxOutputTokens",
	"seed":              "seed",
	"stop":              "stopSequences",
	"frequency_penalty": "frequencyPenalty",
	"presence_penalty":  "presencePenalty",
	"n":                 "candidateCount",
}

// ReasoningBudget maps the OpenAI reasoning_effort enum to a Gemini
// thinkingBudget token count.
var ReasoningBudget = map[string]int{
	"none":   0,
	"low":    1024,
	"medium": 8192,
	"high":   24576,
}

// FinishReasonMap maps a Gemini finishReason to the OpenAI finish_reason enum.
// Reasons absent from this map pass through unchanged (lower-cased).
var FinishReasonMap = map[string]string{
	"STOP":       "stop",
	"MAX_TOKENS": "length",
	"SAFETY":     "content_filter",
	"RECITATION": "content_filter",
}

// MapFinishReason applies FinishReasonMap, falling back to the reason
// itself (lower-cased) for unknown upstream values so new Gemini finish
// reasons degrade gracefully instead of vanishing.
func MapFinishReason(geminiReason string) string {
	if mapped, ok := FinishReasonMap[geminiReason]; ok {
		return mapped
	}
	if geminiReason == "" {
		return "stop"
	}
	return toLowerASCII(geminiReason)
}

func toLowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// HarmCategories are the five Gemini harm categories that receive a fixed
// safety threshold on every outbound request (spec requires BLOCK_NONE
// across the board; the gateway never tightens or loosens this per
// request).
var HarmCategories = []string{
	"HARM_CATEGORY_HARASSMENT",
	"HARM_CATEGORY_HATE_SPEECH",
	"HARM_CATEGORY_SEXUALLY_EXPLICIT",
	"HARM_CATEGORY_DANGEROUS_CONTENT",
	"HARM_CATEGORY_CIVIC_INTEGRITY",
}

// SafetyThreshold is the fixed threshold applied to every HarmCategories
// entry.
const SafetyThreshold = "BLOCK_NONE"

// DefaultSafetySettings returns a fresh slice of {category, threshold}
// pairs ready to be marshaled into generationConfig-adjacent
// safetySettings. A fresh slice is returned each call so callers can
// freely mutate/append without aliasing the package default.
func DefaultSafetySettings() []SafetySetting {
	out := make([]SafetySetting, len(HarmCategories))
	for i, cat := range HarmCategories {
		out[i] = SafetySetting{Category: cat, Threshold: SafetyThreshold}
	}
	return out
}

// SafetySetting mirrors the Gemini wire shape for one harm-category rule.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// VoiceNamePattern matches a Gemini prebuilt TTS voice name (e.g. "Kore",
// "Zubenelgenubi") as opposed to a locale-style voice id like "en-US-Wavenet-D".
var VoiceNamePattern = regexp.MustCompile(`^[A-Z][a-z]+$`)

// LocaleVoicePattern matches a standard locale-style voice identifier.
var LocaleVoicePattern = regexp.MustCompile(`^[a-z]{2}-[A-Z]{2}-[A-Za-z0-9]+$`)
