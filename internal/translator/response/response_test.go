package response

import (
	"testing"

	"github.com/daoch4n/zen-router/internal/translator/gemini"
	"github.com/daoch4n/zen-router/internal/translator/ir"
)

func TestFromGeminiPromptBlocked(t *testing.T) {
	resp := &gemini.Response{
		PromptFeedback: &gemini.PromptFeedback{BlockReason: "SAFETY"},
	}
	out, err := FromGemini(resp, "gemini-2.5-flash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.BlockedBy != "SAFETY" {
		t.Fatalf("expected BlockedBy to be recorded, got %q", out.BlockedBy)
	}
	if len(out.Candidates) != 1 || out.Candidates[0].FinishReason != ir.FinishReasonContentFilter {
		t.Fatalf("expected one content_filter candidate, got %+v", out.Candidates)
	}

	oa := ToOpenAI(out, "id1", 123)
	if len(oa.Choices) != 1 || oa.Choices[0].FinishReason != "content_filter" {
		t.Fatalf("expected one content_filter choice, got %+v", oa.Choices)
	}
	if oa.Choices[0].Message.Content != nil {
		t.Fatalf("expected null content, got %v", oa.Choices[0].Message.Content)
	}
}

func TestFromGeminiMapsTextAndFinishReason(t *testing.T) {
	resp := &gemini.Response{
		Candidates: []gemini.Candidate{
			{
				Content:      gemini.Content{Role: "model", Parts: []gemini.Part{{Text: "hi there"}}},
				FinishReason: "STOP",
			},
		},
		UsageMetadata: gemini.UsageMetadata{PromptTokenCount: 5, CandidatesTokenCount: 2, TotalTokenCount: 7},
	}

	out, err := FromGemini(resp, "gemini-2.5-flash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Candidates) != 1 || out.Candidates[0].FinishReason != "stop" {
		t.Fatalf("unexpected candidates: %+v", out.Candidates)
	}

	oa := ToOpenAI(out, "id1", 123)
	if oa.Choices[0].Message.Content != "hi there" {
		t.Fatalf("unexpected content: %q", oa.Choices[0].Message.Content)
	}
	if oa.Usage.TotalTokens != 7 {
		t.Fatalf("unexpected usage: %+v", oa.Usage)
	}
}

func TestFromGeminiToolCallFinishReason(t *testing.T) {
	resp := &gemini.Response{
		Candidates: []gemini.Candidate{
			{
				Content:      gemini.Content{Parts: []gemini.Part{{FunctionCall: &gemini.FunctionCall{Name: "get_weather", Args: map[string]any{"city": "nyc"}}}}},
				FinishReason: "STOP",
			},
		},
	}
	out, err := FromGemini(resp, "gemini-2.5-flash")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Candidates[0].FinishReason != "tool_calls" {
		t.Fatalf("expected tool_calls finish reason, got %s", out.Candidates[0].FinishReason)
	}
}
