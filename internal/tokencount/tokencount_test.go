package tokencount

import (
	"testing"

	"github.com/daoch4n/zen-router/internal/translator/ir"
)

func TestEstimateNonZeroForText(t *testing.T) {
	req := &ir.ChatRequest{
		Model: "gemini-2.5-flash",
		Messages: []ir.Message{
			{Role: ir.RoleUser, Content: []ir.ContentPart{{Type: ir.ContentTypeText, Text: "hello there, how are you today?"}}},
		},
	}
	got := Estimate(req)
	if got <= 0 {
		t.Fatalf("expected positive token estimate, got %d", got)
	}
}

func TestEstimateGrowsWithImages(t *testing.T) {
	base := &ir.ChatRequest{
		Model: "gemini-2.5-flash",
		Messages: []ir.Message{
			{Role: ir.RoleUser, Content: []ir.ContentPart{{Type: ir.ContentTypeText, Text: "describe this"}}},
		},
	}
	withImage := &ir.ChatRequest{
		Model: "gemini-2.5-flash",
		Messages: []ir.Message{
			{Role: ir.RoleUser, Content: []ir.ContentPart{
				{Type: ir.ContentTypeText, Text: "describe this"},
				{Type: ir.ContentTypeImage, Image: &ir.ImagePart{MimeType: "image/png", Data: "abc"}},
			}},
		},
	}
	if Estimate(withImage) <= Estimate(base) {
		t.Fatalf("expected image to add token cost")
	}
}

func TestEstimateNilRequest(t *testing.T) {
	if got := Estimate(nil); got != 0 {
		t.Fatalf("expected 0 for nil request, got %d", got)
	}
}
