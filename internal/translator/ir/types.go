// Package ir defines the internal representation the gateway's two
// public dialects (OpenAI chat completions and the Anthropic Messages
// adapter) are both translated into and out of before talking to the
// Gemini backend. Generalized from internal/translator_new/ir/types.go's
// "Esperanto" format: this gateway targets Gemini only, so the
// Responses-API-only and Claude-only passthrough fields are dropped and
// only what the request/response/stream/Anthropic translation packages
// actually use survives.
package ir

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// ContentType discriminates a ContentPart's payload.
type ContentType string

const (
	ContentTypeText       ContentType = "text"
	ContentTypeReasoning  ContentType = "reasoning"
	ContentTypeImage      ContentType = "image"
	ContentTypeToolResult ContentType = "tool_result"
)

// ContentPart is one discrete chunk of a Message's content.
type ContentPart struct {
	Type       ContentType
	Text       string
	Reasoning  string
	Image      *ImagePart
	ToolResult *ToolResultPart
}

// ImagePart is an inline base64 image, Gemini's only image input shape.
type ImagePart struct {
	MimeType string
	Data     string
}

// ToolResultPart carries the result of a previously requested tool call
// back to the model.
type ToolResultPart struct {
	ToolCallID string
	Result     string
}

// ToolCall is a single function-call the model asked the caller to run.
type ToolCall struct {
	ID   string
	Name string
	Args string // JSON-encoded arguments
}

// Message is one turn of the conversation.
type Message struct {
	Role      Role
	Content   []ContentPart
	ToolCalls []ToolCall
}

// ToolDefinition describes one callable function exposed to the model.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// SafetySetting mirrors Gemini's safetySettings entries.
type SafetySetting struct {
	Category  string
	Threshold string
}

// ThinkingConfig controls Gemini's extended-thinking budget.
type ThinkingConfig struct {
	IncludeThoughts bool
	Budget          int // token budget; -1 = auto/dynamic, 0 = disabled
}

// ChatRequest is the unified request shape built from an OpenAI or
// Anthropic request, from which upstream Gemini wire payloads are
// built.
type ChatRequest struct {
	Model          string
	Messages       []Message
	Tools          []ToolDefinition
	Temperature    *float64
	TopP           *float64
	TopK           *int
	MaxTokens      *int
	StopSequences  []string
	CandidateCount *int
	Thinking       *ThinkingConfig
	SafetySettings []SafetySetting
	Stream         bool
	WithSearchTool bool
	ResponseFormat *ResponseFormat
	ToolChoice     *ToolChoice
}

// ResponseFormat controls Gemini's responseMimeType/responseSchema,
// built from OpenAI's response_format field.
type ResponseFormat struct {
	MimeType string
	Schema   map[string]any
}

// ToolChoice controls Gemini's toolConfig.functionCallingConfig, built
// from OpenAI's tool_choice field.
type ToolChoice struct {
	Mode                 string
	AllowedFunctionNames []string
}

// FinishReason is the dialect-neutral reason generation stopped.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolCalls     FinishReason = "tool_calls"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonError         FinishReason = "error"
)

// Usage carries token accounting for a completed (or streamed-to-completion)
// response.
type Usage struct {
	PromptTokens       int
	CompletionTokens   int
	TotalTokens        int
	ThoughtsTokenCount int
}

// CandidateResult is one candidate/choice returned by the model.
type CandidateResult struct {
	Index        int
	Message      Message
	FinishReason FinishReason
}

// ChatResponse is the unified, non-streaming response shape built from
// a Gemini response before rendering it into the caller's dialect.
type ChatResponse struct {
	Model      string
	Candidates []CandidateResult
	Usage      Usage
	BlockedBy  string // non-empty if the prompt itself was blocked by safety filtering
}
