// Package anthropic translates Anthropic's Messages API request/response
// shape into the gateway's internal ir.ChatRequest/ir.ChatResponse so
// the same Gemini backend and dialect machinery serves both public
// surfaces. Role and
// content-block mapping follows the same system-accumulation and
// role-merge idiom as internal/translator/request (grounded on
// rad-gateway's transformMessages/mapRole), adapted to Anthropic's
// distinct "content blocks" message shape instead of OpenAI's
// string-or-array content field.
package anthropic

import (
	"encoding/json"

	"github.com/daoch4n/zen-router/internal/translator/ir"
)

// MessagesRequest is the body of POST /v1/messages.
type MessagesRequest struct {
	Model         string           `json:"model"`
	Messages      []Message        `json:"messages"`
	System        any              `json:"system,omitempty"` // string or []ContentBlock
	MaxTokens     int              `json:"max_tokens"`
	Temperature   *float64         `json:"temperature,omitempty"`
	TopP          *float64         `json:"top_p,omitempty"`
	TopK          *int             `json:"top_k,omitempty"`
	StopSequences []string         `json:"stop_sequences,omitempty"`
	Stream        bool             `json:"stream,omitempty"`
	Tools         []Tool           `json:"tools,omitempty"`
}

// Message is one Anthropic conversation turn.
type Message struct {
	Role    string         `json:"role"` // "user" or "assistant"
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one Anthropic content-block union member.
type ContentBlock struct {
	Type      string       `json:"type"` // "text", "image", "tool_use", "tool_result"
	Text      string       `json:"text,omitempty"`
	Source    *ImageSource `json:"source,omitempty"`      // image
	ID        string       `json:"id,omitempty"`          // tool_use id
	Name      string       `json:"name,omitempty"`        // tool_use name
	Input     any          `json:"input,omitempty"`       // tool_use args
	ToolUseID string       `json:"tool_use_id,omitempty"` // tool_result
	Content   any          `json:"content,omitempty"`     // tool_result payload (string or blocks)
}

// ImageSource is Anthropic's inline-image payload: base64 data tagged
// with its media type.
type ImageSource struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Tool is an Anthropic tool definition.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// MessagesResponse is a non-streaming Anthropic Messages reply.
type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      AnthropicUsage `json:"usage"`
}

// AnthropicUsage mirrors Anthropic's {input_tokens, output_tokens} shape.
type AnthropicUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// FromAnthropic builds the internal ChatRequest from an Anthropic
// request. System content (string or content-block array) is
// accumulated the same way OpenAI system messages are, and prepended to
// the first user turn, since Gemini has no dedicated system role.
func FromAnthropic(req *MessagesRequest) *ir.ChatRequest {
	out := &ir.ChatRequest{
		Model:         req.Model,
		MaxTokens:     &req.MaxTokens,
		Temperature:   req.Temperature,
		TopP:          req.TopP,
		TopK:          req.TopK,
		StopSequences: req.StopSequences,
		Stream:        req.Stream,
	}

	systemText := systemToText(req.System)
	out.Messages = transformMessages(req.Messages, systemText)

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, ir.ToolDefinition{Name: t.Name, Description: t.Description, Parameters: t.InputSchema})
	}
	return out
}

func systemToText(system any) string {
	switch v := system.(type) {
	case string:
		return v
	case []any:
		var blocks []string
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				if t, _ := m["text"].(string); t != "" {
					blocks = append(blocks, t)
				}
			}
		}
		return joinLines(blocks)
	default:
		return ""
	}
}

func joinLines(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "\n\n"
		}
		out += p
	}
	return out
}

func transformMessages(messages []Message, systemText string) []ir.Message {
	var out []ir.Message
	prependedSystem := systemText == ""

	for _, msg := range messages {
		role := ir.RoleUser
		if msg.Role == "assistant" {
			role = ir.RoleAssistant
		}

		m := ir.Message{Role: role}
		for _, block := range msg.Content {
			switch block.Type {
			case "text":
				text := block.Text
				if !prependedSystem && role == ir.RoleUser {
					text = systemText + "\n\n" + text
					prependedSystem = true
				}
				m.Content = append(m.Content, ir.ContentPart{Type: ir.ContentTypeText, Text: text})
			case "image":
				if block.Source != nil {
					m.Content = append(m.Content, ir.ContentPart{
						Type:  ir.ContentTypeImage,
						Image: &ir.ImagePart{MimeType: block.Source.MediaType, Data: block.Source.Data},
					})
				}
			case "tool_use":
				m.ToolCalls = append(m.ToolCalls, ir.ToolCall{ID: block.ID, Name: block.Name, Args: marshalInput(block.Input)})
			case "tool_result":
				m.Content = append(m.Content, ir.ContentPart{
					Type:       ir.ContentTypeToolResult,
					ToolResult: &ir.ToolResultPart{ToolCallID: block.ToolUseID, Result: stringifyToolResult(block.Content)},
				})
			}
		}
		out = append(out, m)
	}

	if !prependedSystem {
		out = append([]ir.Message{{Role: ir.RoleUser, Content: []ir.ContentPart{{Type: ir.ContentTypeText, Text: systemText}}}}, out...)
	}
	return out
}

func marshalInput(input any) string {
	b, err := json.Marshal(input)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func stringifyToolResult(content any) string {
	if s, ok := content.(string); ok {
		return s
	}
	b, err := json.Marshal(content)
	if err != nil {
		return ""
	}
	return string(b)
}

// ToAnthropic renders the internal ChatResponse's first candidate as an
// Anthropic Messages response.
func ToAnthropic(resp *ir.ChatResponse, id string) *MessagesResponse {
	out := &MessagesResponse{
		ID:    id,
		Type:  "message",
		Role:  "assistant",
		Model: resp.Model,
		Usage: AnthropicUsage{InputTokens: resp.Usage.PromptTokens, OutputTokens: resp.Usage.CompletionTokens},
	}
	if len(resp.Candidates) == 0 {
		return out
	}

	c := resp.Candidates[0]
	out.StopReason = mapStopReason(c.FinishReason)
	for _, part := range c.Message.Content {
		if part.Type == ir.ContentTypeText && part.Text != "" {
			out.Content = append(out.Content, ContentBlock{Type: "text", Text: part.Text})
		}
	}
	for _, tc := range c.Message.ToolCalls {
		var input any
		_ = json.Unmarshal([]byte(tc.Args), &input)
		out.Content = append(out.Content, ContentBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
	}
	return out
}

func mapStopReason(fr ir.FinishReason) string {
	switch fr {
	case ir.FinishReasonStop:
		return "end_turn"
	case ir.FinishReasonLength:
		return "max_tokens"
	case ir.FinishReasonToolCalls:
		return "tool_use"
	case ir.FinishReasonContentFilter:
		return "stop_sequence"
	default:
		return "end_turn"
	}
}
