// Package response translates a complete Gemini response into the
// internal ir.ChatResponse, then into an OpenAI-compatible
// ChatCompletionResponse. Grounded on rad-gateway's
// ResponseTransformer.Transform (aggregating part text, mapping finish
// reasons, building usage, and detecting a blocked prompt when no
// candidates come back).
package response

import (
	"encoding/json"
	"strings"

	"github.com/daoch4n/zen-router/internal/dialect"
	"github.com/daoch4n/zen-router/internal/gwerrors"
	"github.com/daoch4n/zen-router/internal/translator/gemini"
	"github.com/daoch4n/zen-router/internal/translator/ir"
	"github.com/daoch4n/zen-router/internal/translator/openai"
)

// FromGemini builds the internal ChatResponse from a complete Gemini
// response. When the prompt itself was blocked before any candidate was
// produced, this still returns a normal 200-shaped response: a single
// synthetic candidate with no content and finish_reason "content_filter",
// matching what a client expects from a well-formed (if refused) chat
// completion rather than an error envelope.
func FromGemini(resp *gemini.Response, model string) (*ir.ChatResponse, error) {
	out := &ir.ChatResponse{
		Model: model,
		Usage: ir.Usage{
			PromptTokens:       resp.UsageMetadata.PromptTokenCount,
			CompletionTokens:   resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:        resp.UsageMetadata.TotalTokenCount,
			ThoughtsTokenCount: resp.UsageMetadata.ThoughtsTokenCount,
		},
	}

	if blocked := checkPromptBlock(resp); blocked != "" {
		out.BlockedBy = blocked
		out.Candidates = []ir.CandidateResult{{
			Message:      ir.Message{Role: ir.RoleAssistant},
			FinishReason: ir.FinishReasonContentFilter,
		}}
		return out, nil
	}
	if len(resp.Candidates) == 0 {
		return nil, gwerrors.Upstream("no candidates in gemini response", nil)
	}

	for _, c := range resp.Candidates {
		out.Candidates = append(out.Candidates, transformCandidate(c))
	}
	return out, nil
}

func checkPromptBlock(resp *gemini.Response) string {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return resp.PromptFeedback.BlockReason
	}
	return ""
}

func transformCandidate(c gemini.Candidate) ir.CandidateResult {
	var text strings.Builder
	var reasoning strings.Builder
	var toolCalls []ir.ToolCall

	for _, part := range c.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			toolCalls = append(toolCalls, ir.ToolCall{
				Name: part.FunctionCall.Name,
				Args: marshalArgs(part.FunctionCall.Args),
			})
		case part.Thought:
			reasoning.WriteString(part.Text)
		default:
			text.WriteString(part.Text)
		}
	}

	msg := ir.Message{Role: ir.RoleAssistant, ToolCalls: toolCalls}
	if text.Len() > 0 {
		msg.Content = append(msg.Content, ir.ContentPart{Type: ir.ContentTypeText, Text: text.String()})
	}
	if reasoning.Len() > 0 {
		msg.Content = append(msg.Content, ir.ContentPart{Type: ir.ContentTypeReasoning, Reasoning: reasoning.String()})
	}

	finish := dialect.MapFinishReason(c.FinishReason)
	fr := ir.FinishReason(finish)
	if len(toolCalls) > 0 {
		fr = ir.FinishReasonToolCalls
	}

	return ir.CandidateResult{Index: c.Index, Message: msg, FinishReason: fr}
}

func marshalArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

// ToOpenAI renders resp as a non-streaming OpenAI chat completion.
func ToOpenAI(resp *ir.ChatResponse, id string, created int64) *openai.ChatCompletionResponse {
	out := &openai.ChatCompletionResponse{
		ID:      id,
		Object:  "chat.completion",
		Created: created,
		Model:   resp.Model,
		Usage: openai.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	for _, c := range resp.Candidates {
		out.Choices = append(out.Choices, toChoice(c))
	}
	return out
}

func toChoice(c ir.CandidateResult) openai.Choice {
	choice := openai.Choice{
		Index:        c.Index,
		FinishReason: string(c.FinishReason),
		Message:      openai.Message{Role: "assistant"},
	}

	var text strings.Builder
	for _, part := range c.Message.Content {
		if part.Type == ir.ContentTypeText {
			text.WriteString(part.Text)
		}
	}
	if text.Len() > 0 {
		choice.Message.Content = text.String()
	}

	for _, tc := range c.Message.ToolCalls {
		choice.Message.ToolCalls = append(choice.Message.ToolCalls, openai.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: openai.ToolCallFunc{
				Name:      tc.Name,
				Arguments: tc.Args,
			},
		})
	}
	return choice
}

// ProcessEmbeddings builds an OpenAI embeddings response from the
// per-input embedding vectors Gemini's embedContent/batchEmbedContents
// returned.
func ProcessEmbeddings(model string, vectors [][]float64, promptTokens int) *openai.EmbeddingsResponse {
	data := make([]openai.EmbeddingDatum, len(vectors))
	for i, v := range vectors {
		data[i] = openai.EmbeddingDatum{Object: "embedding", Index: i, Embedding: v}
	}
	return &openai.EmbeddingsResponse{
		Object: "list",
		Data:   data,
		Model:  model,
		Usage:  openai.Usage{PromptTokens: promptTokens, TotalTokens: promptTokens},
	}
}
