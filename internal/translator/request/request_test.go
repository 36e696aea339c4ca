package request

import (
	"context"
	"testing"

	"github.com/daoch4n/zen-router/internal/translator/openai"
)

func TestFromOpenAISystemPrependedToFirstUser(t *testing.T) {
	req := &openai.ChatCompletionRequest{
		Model: "gemini-2.5-flash",
		Messages: []openai.Message{
			{Role: "system", Content: "be concise"},
			{Role: "user", Content: "hello"},
		},
	}
	ir, _, err := FromOpenAI(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ir.Messages) != 1 {
		t.Fatalf("expected system+user merged into one message, got %d", len(ir.Messages))
	}
	got := ir.Messages[0].Content[0].Text
	if got != "be concise\n\nhello" {
		t.Fatalf("unexpected merged content: %q", got)
	}
}

func TestFromOpenAIMergesConsecutiveSameRole(t *testing.T) {
	req := &openai.ChatCompletionRequest{
		Model: "gemini-2.5-flash",
		Messages: []openai.Message{
			{Role: "user", Content: "first"},
			{Role: "user", Content: "second"},
		},
	}
	ir, _, err := FromOpenAI(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ir.Messages) != 1 || len(ir.Messages[0].Content) != 2 {
		t.Fatalf("expected merged user message with 2 parts, got %+v", ir.Messages)
	}
}

func TestFromOpenAIParsesThinkingSuffix(t *testing.T) {
	req := &openai.ChatCompletionRequest{
		Model:    "gemini-2.5-flash-thinking-high",
		Messages: []openai.Message{{Role: "user", Content: "hi"}},
	}
	ir, tag, err := FromOpenAI(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ir.Model != "gemini-2.5-flash" {
		t.Fatalf("expected suffix stripped, got %s", ir.Model)
	}
	if ir.Thinking == nil || ir.Thinking.Budget != tag.Budget {
		t.Fatalf("expected thinking config carried through: %+v", ir.Thinking)
	}
}

func TestToGeminiRequestMapsAssistantToModelRole(t *testing.T) {
	req := &openai.ChatCompletionRequest{
		Model: "gemini-2.5-flash",
		Messages: []openai.Message{
			{Role: "user", Content: "hi"},
			{Role: "assistant", Content: "hello back"},
		},
	}
	ir, _, err := FromOpenAI(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g := ToGeminiRequest(ir)
	if len(g.Contents) != 2 || g.Contents[1].Role != "model" {
		t.Fatalf("expected assistant mapped to model role: %+v", g.Contents)
	}
}
