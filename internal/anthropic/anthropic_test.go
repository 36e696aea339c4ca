package anthropic

import (
	"testing"

	"github.com/daoch4n/zen-router/internal/translator/ir"
)

func TestFromAnthropicPrependsSystemToFirstUserText(t *testing.T) {
	req := &MessagesRequest{
		Model:     "gemini-2.5-flash",
		System:    "be terse",
		MaxTokens: 100,
		Messages: []Message{
			{Role: "user", Content: []ContentBlock{{Type: "text", Text: "hi"}}},
		},
	}
	out := FromAnthropic(req)
	if len(out.Messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(out.Messages))
	}
	got := out.Messages[0].Content[0].Text
	if got != "be terse\n\nhi" {
		t.Fatalf("unexpected merged text: %q", got)
	}
}

func TestToAnthropicMapsStopReason(t *testing.T) {
	resp := &ir.ChatResponse{
		Model: "gemini-2.5-flash",
		Candidates: []ir.CandidateResult{
			{FinishReason: ir.FinishReasonToolCalls, Message: ir.Message{ToolCalls: []ir.ToolCall{{ID: "t1", Name: "lookup", Args: `{"q":"x"}`}}}},
		},
	}
	out := ToAnthropic(resp, "msg_1")
	if out.StopReason != "tool_use" {
		t.Fatalf("expected tool_use stop reason, got %s", out.StopReason)
	}
	if len(out.Content) != 1 || out.Content[0].Type != "tool_use" {
		t.Fatalf("expected tool_use content block, got %+v", out.Content)
	}
}
