// Package request translates OpenAI chat-completion requests into the
// internal ir.ChatRequest, which is then rendered into the Gemini wire
// format. System-message accumulation, consecutive-role merging, and
// role mapping are grounded on rad-gateway's transformMessages/mapRole
// (33783bbe_TheArchitectit-rad-gateway transformer.go); thinking-budget
// and max-tokens clamping are grounded on
// internal/translator/preprocess/{thinking,limits}.go, generalized from
// Claude-only clamping to Gemini's registry.ThinkingRange. Image-url/
// input-audio content parts and the response_format/tool_choice mapping
// follow the same rad-gateway transformer file's multimodal part
// handling, generalized from Claude's content blocks to OpenAI's
// content-part array shape.
package request

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/daoch4n/zen-router/internal/dialect"
	"github.com/daoch4n/zen-router/internal/gwerrors"
	"github.com/daoch4n/zen-router/internal/httpclient"
	"github.com/daoch4n/zen-router/internal/registry"
	"github.com/daoch4n/zen-router/internal/translator/gemini"
	"github.com/daoch4n/zen-router/internal/translator/ir"
	"github.com/daoch4n/zen-router/internal/translator/openai"
)

// maxFetchedImageBytes bounds how much of a fetched image_url response
// body gets read into memory before it's base64-encoded as inline data.
const maxFetchedImageBytes = 10 << 20

// FromOpenAI builds the internal ChatRequest from an OpenAI request,
// resolving the model-name suffix via dialect.ParseModelName. ctx bounds
// any image_url fetches a multimodal message part requires.
func FromOpenAI(ctx context.Context, req *openai.ChatCompletionRequest) (*ir.ChatRequest, dialect.ModelTag, error) {
	tag := dialect.ParseModelName(req.Model)

	messages, err := transformMessages(ctx, req.Messages)
	if err != nil {
		return nil, tag, err
	}

	out := &ir.ChatRequest{
		Model:          tag.BaseModel,
		Messages:       messages,
		Tools:          transformTools(req.Tools),
		ToolChoice:     transformToolChoice(req.ToolChoice),
		Temperature:    req.Temperature,
		TopP:           req.TopP,
		StopSequences:  req.Stop,
		MaxTokens:      req.MaxTokens,
		Stream:         req.Stream,
		WithSearchTool: tag.SearchTool,
	}
	if req.N != nil {
		out.CandidateCount = req.N
	}
	if tag.Mode != dialect.ModeNone {
		out.Thinking = &ir.ThinkingConfig{
			IncludeThoughts: true,
			Budget:          tag.Budget,
		}
	}
	out.SafetySettings = defaultSafetySettings()

	rf, err := transformResponseFormat(req.ResponseFormat)
	if err != nil {
		return nil, tag, err
	}
	out.ResponseFormat = rf

	applyLimits(out, registry.GetModelInfo(out.Model))
	return out, tag, nil
}

func defaultSafetySettings() []ir.SafetySetting {
	settings := dialect.DefaultSafetySettings()
	out := make([]ir.SafetySetting, len(settings))
	for i, s := range settings {
		out[i] = ir.SafetySetting{Category: s.Category, Threshold: s.Threshold}
	}
	return out
}

// assistantTurn accumulates one assistant message's text parts and
// pending tool calls while scanning the OpenAI message list, mirroring
// rad-gateway's AssistantTurn bookkeeping for tool_call_id lookups.
type assistantTurn struct {
	textParts []string
	calls     map[string]openai.ToolCall
}

// transformMessages accumulates system messages and prepends them to
// the first user message; merges consecutive user messages (assistant
// and tool messages are never merged); maps
// tool results to Gemini's user-role functionResponse parts. User and
// assistant message content is parsed for multimodal parts (text,
// image_url, input_audio); an unrecognized part type fails the request
// rather than silently dropping content.
func transformMessages(ctx context.Context, messages []openai.Message) ([]ir.Message, error) {
	var out []ir.Message
	var systemText strings.Builder
	var lastRole ir.Role

	appendParts := func(role ir.Role, parts []ir.ContentPart) {
		if len(parts) == 0 {
			return
		}
		if lastRole == role && len(out) > 0 {
			out[len(out)-1].Content = append(out[len(out)-1].Content, parts...)
			return
		}
		out = append(out, ir.Message{Role: role, Content: parts})
		lastRole = role
	}

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			text := contentToText(msg.Content)
			if systemText.Len() > 0 {
				systemText.WriteString("\n\n")
			}
			systemText.WriteString(text)
			continue

		case "tool":
			text := contentToText(msg.Content)
			result := ir.ToolResultPart{ToolCallID: msg.ToolCallID, Result: text}
			out = append(out, ir.Message{Role: ir.RoleTool, Content: []ir.ContentPart{{Type: ir.ContentTypeToolResult, ToolResult: &result}}})
			lastRole = ir.RoleTool
			continue

		case "assistant":
			parts, err := contentToParts(ctx, msg.Content)
			if err != nil {
				return nil, err
			}
			m := ir.Message{Role: ir.RoleAssistant, Content: parts}
			for _, tc := range msg.ToolCalls {
				m.ToolCalls = append(m.ToolCalls, ir.ToolCall{ID: tc.ID, Name: tc.Function.Name, Args: tc.Function.Arguments})
			}
			out = append(out, m)
			lastRole = ir.RoleAssistant
			continue

		default: // "user"
			parts, err := contentToParts(ctx, msg.Content)
			if err != nil {
				return nil, err
			}
			if systemText.Len() > 0 {
				parts = prependSystemText(systemText.String(), parts)
				systemText.Reset()
			}
			appendParts(ir.RoleUser, parts)
		}
	}

	if len(out) == 0 && systemText.Len() > 0 {
		out = append(out, ir.Message{Role: ir.RoleUser, Content: []ir.ContentPart{{Type: ir.ContentTypeText, Text: systemText.String()}}})
	}
	return out, nil
}

// prependSystemText folds accumulated system text into parts' first
// text part, or inserts a new one if parts is all non-text (images).
func prependSystemText(prefix string, parts []ir.ContentPart) []ir.ContentPart {
	for i, p := range parts {
		if p.Type == ir.ContentTypeText {
			parts[i].Text = prefix + "\n\n" + p.Text
			return parts
		}
	}
	return append([]ir.ContentPart{{Type: ir.ContentTypeText, Text: prefix}}, parts...)
}

// contentToText flattens an OpenAI message's content field, which may
// be a plain string or an array of {type, text|image_url} parts. Used
// for system/tool messages, which this gateway only ever treats as
// plain text.
func contentToText(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		var sb strings.Builder
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := m["text"].(string); t != "" {
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
				sb.WriteString(t)
			}
		}
		return sb.String()
	default:
		return ""
	}
}

// contentToParts parses an OpenAI message's content field into tagged
// content parts, handling the multimodal array shape: text, image_url
// (data URL or fetched URL), and input_audio. An unknown part type
// fails the request. If every array item was an image, an empty text
// part is appended since Gemini requires at least one text part.
func contentToParts(ctx context.Context, content any) ([]ir.ContentPart, error) {
	switch v := content.(type) {
	case string:
		if v == "" {
			return nil, nil
		}
		return []ir.ContentPart{{Type: ir.ContentTypeText, Text: v}}, nil

	case []any:
		var parts []ir.ContentPart
		sawImage, sawNonImage := false, false
		for _, item := range v {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, gwerrors.BadRequest("invalid content part: expected object")
			}
			t, _ := m["type"].(string)
			switch t {
			case "text":
				text, _ := m["text"].(string)
				parts = append(parts, ir.ContentPart{Type: ir.ContentTypeText, Text: text})
				sawNonImage = true

			case "image_url":
				img, err := imagePartFromImageURL(ctx, m["image_url"])
				if err != nil {
					return nil, err
				}
				parts = append(parts, ir.ContentPart{Type: ir.ContentTypeImage, Image: img})
				sawImage = true

			case "input_audio":
				audio, err := audioPartFromInputAudio(m["input_audio"])
				if err != nil {
					return nil, err
				}
				parts = append(parts, ir.ContentPart{Type: ir.ContentTypeImage, Image: audio})
				sawNonImage = true

			default:
				return nil, gwerrors.BadRequest("unknown content part type: " + t)
			}
		}
		if sawImage && !sawNonImage {
			parts = append(parts, ir.ContentPart{Type: ir.ContentTypeText, Text: ""})
		}
		return parts, nil

	default:
		return nil, nil
	}
}

// imagePartFromImageURL resolves an OpenAI image_url part (either the
// bare-string or {url, detail} object form) into inline base64 data,
// decoding a data: URL in place or fetching an http(s) URL.
func imagePartFromImageURL(ctx context.Context, v any) (*ir.ImagePart, error) {
	var rawURL string
	switch u := v.(type) {
	case string:
		rawURL = u
	case map[string]any:
		rawURL, _ = u["url"].(string)
	}
	if rawURL == "" {
		return nil, gwerrors.BadRequest("image_url part missing url")
	}
	if strings.HasPrefix(rawURL, "data:") {
		return decodeDataURL(rawURL)
	}
	return fetchImageURL(ctx, rawURL)
}

// decodeDataURL parses a "data:<mime>;base64,<data>" URL into an
// ImagePart without any network access.
func decodeDataURL(dataURL string) (*ir.ImagePart, error) {
	rest := strings.TrimPrefix(dataURL, "data:")
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, gwerrors.BadRequest("malformed data URL in image_url")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, gwerrors.BadRequest("unsupported data URL encoding in image_url")
	}
	mimeType := strings.TrimSuffix(header, ";base64")
	return &ir.ImagePart{MimeType: mimeType, Data: payload}, nil
}

// fetchImageURL downloads an http(s) image_url and returns it as inline
// base64 data, the way Gemini's generateContent requires.
func fetchImageURL(ctx context.Context, rawURL string) (*ir.ImagePart, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, gwerrors.BadRequest("invalid image_url: " + err.Error())
	}
	resp, err := httpclient.New(10 * time.Second).Do(httpReq)
	if err != nil {
		return nil, gwerrors.BadRequest("failed to fetch image_url: " + err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchedImageBytes))
	if err != nil {
		return nil, gwerrors.BadRequest("failed to read image_url response: " + err.Error())
	}
	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &ir.ImagePart{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(body)}, nil
}

// audioPartFromInputAudio resolves an OpenAI input_audio part
// ({data, format}) into inline data tagged "audio/<format>".
func audioPartFromInputAudio(v any) (*ir.ImagePart, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, gwerrors.BadRequest("input_audio part missing data/format")
	}
	data, _ := m["data"].(string)
	format, _ := m["format"].(string)
	if data == "" || format == "" {
		return nil, gwerrors.BadRequest("input_audio part requires data and format")
	}
	return &ir.ImagePart{MimeType: "audio/" + format, Data: data}, nil
}

// transformResponseFormat maps OpenAI's response_format field onto the
// internal ResponseFormat, failing the request on an unrecognized type.
func transformResponseFormat(rf any) (*ir.ResponseFormat, error) {
	if rf == nil {
		return nil, nil
	}
	m, ok := rf.(map[string]any)
	if !ok {
		return nil, gwerrors.BadRequest("invalid response_format")
	}
	t, _ := m["type"].(string)
	switch t {
	case "", "text":
		return &ir.ResponseFormat{MimeType: "text/plain"}, nil
	case "json_object":
		return &ir.ResponseFormat{MimeType: "application/json"}, nil
	case "json_schema":
		js, _ := m["json_schema"].(map[string]any)
		schema, _ := js["schema"].(map[string]any)
		mimeType := "application/json"
		if _, hasEnum := schema["enum"]; hasEnum {
			mimeType = "text/x.enum"
		}
		return &ir.ResponseFormat{MimeType: mimeType, Schema: schema}, nil
	default:
		return nil, gwerrors.BadRequest("unknown response_format type: " + t)
	}
}

// transformToolChoice maps OpenAI's tool_choice field (a bare mode
// string, or a {type:"function",function:{name}} object forcing one
// specific tool) onto Gemini's functionCallingConfig shape.
func transformToolChoice(tc any) *ir.ToolChoice {
	switch v := tc.(type) {
	case string:
		switch v {
		case "auto", "none", "required":
			return &ir.ToolChoice{Mode: strings.ToUpper(v)}
		}
		return nil
	case map[string]any:
		fn, _ := v["function"].(map[string]any)
		name, _ := fn["name"].(string)
		if name == "" {
			return nil
		}
		return &ir.ToolChoice{Mode: "ANY", AllowedFunctionNames: []string{name}}
	default:
		return nil
	}
}

func transformTools(tools []openai.Tool) []ir.ToolDefinition {
	if len(tools) == 0 {
		return nil
	}
	out := make([]ir.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		out = append(out, ir.ToolDefinition{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			Parameters:  t.Function.Parameters,
		})
	}
	return out
}

func applyLimits(req *ir.ChatRequest, info *registry.ModelInfo) {
	clampMaxTokens(req, info)
	clampCandidateCount(req)
	normalizeThinkingBudget(req, info)
}

func clampMaxTokens(req *ir.ChatRequest, info *registry.ModelInfo) {
	if req.MaxTokens == nil || info == nil {
		return
	}
	limit := info.OutputTokenLimit
	if limit > 0 && *req.MaxTokens > limit {
		*req.MaxTokens = limit
	}
}

func clampCandidateCount(req *ir.ChatRequest) {
	if req.CandidateCount == nil {
		return
	}
	if *req.CandidateCount < 1 {
		*req.CandidateCount = 1
	}
	const maxCandidates = 8
	if *req.CandidateCount > maxCandidates {
		*req.CandidateCount = maxCandidates
	}
}

func normalizeThinkingBudget(req *ir.ChatRequest, info *registry.ModelInfo) {
	if req.Thinking == nil || info == nil || info.Thinking == nil {
		return
	}
	budget := req.Thinking.Budget
	tr := info.Thinking

	if budget == -1 && !tr.DynamicAllowed {
		budget = (tr.Min + tr.Max) / 2
	}
	if budget == 0 && !tr.ZeroAllowed {
		budget = tr.Min
	}
	if budget > 0 {
		if budget < tr.Min {
			budget = tr.Min
		}
		if budget > tr.Max {
			budget = tr.Max
		}
	}
	req.Thinking.Budget = budget
}

// ToGeminiRequest renders req as the upstream Gemini wire request.
func ToGeminiRequest(req *ir.ChatRequest) *gemini.Request {
	out := &gemini.Request{
		Contents:       toGeminiContents(req.Messages),
		SafetySettings: toGeminiSafety(req.SafetySettings),
	}

	gc := &gemini.GenerationConfig{
		Temperature:     req.Temperature,
		TopP:            req.TopP,
		TopK:            req.TopK,
		MaxOutputTokens: req.MaxTokens,
		StopSequences:   req.StopSequences,
	}
	if req.CandidateCount != nil {
		gc.CandidateCount = req.CandidateCount
	}
	if req.Thinking != nil {
		budget := req.Thinking.Budget
		gc.ThinkingConfig = &gemini.ThinkingConfig{
			IncludeThoughts: req.Thinking.IncludeThoughts,
			ThinkingBudget:  &budget,
		}
	}
	if req.ResponseFormat != nil {
		gc.ResponseMimeType = req.ResponseFormat.MimeType
		gc.ResponseSchema = req.ResponseFormat.Schema
	}
	out.GenerationConfig = gc

	if len(req.Tools) > 0 {
		decls := make([]gemini.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			decls = append(decls, gemini.FunctionDeclaration{Name: t.Name, Description: t.Description, Parameters: t.Parameters})
		}
		out.Tools = append(out.Tools, gemini.Tool{FunctionDeclarations: decls})
	}
	if req.WithSearchTool {
		out.Tools = append(out.Tools, gemini.Tool{GoogleSearch: &struct{}{}})
	}
	if req.ToolChoice != nil {
		out.ToolConfig = &gemini.ToolConfig{FunctionCallingConfig: &gemini.FunctionCallingConfig{
			Mode:                 req.ToolChoice.Mode,
			AllowedFunctionNames: req.ToolChoice.AllowedFunctionNames,
		}}
	}

	return out
}

func toGeminiSafety(settings []ir.SafetySetting) []gemini.SafetySetting {
	out := make([]gemini.SafetySetting, len(settings))
	for i, s := range settings {
		out[i] = gemini.SafetySetting{Category: s.Category, Threshold: s.Threshold}
	}
	return out
}

func toGeminiContents(messages []ir.Message) []gemini.Content {
	out := make([]gemini.Content, 0, len(messages))
	for _, m := range messages {
		role := "user"
		if m.Role == ir.RoleAssistant {
			role = "model"
		}

		var parts []gemini.Part
		for _, c := range m.Content {
			switch c.Type {
			case ir.ContentTypeText:
				if c.Text != "" {
					parts = append(parts, gemini.Part{Text: c.Text})
				}
			case ir.ContentTypeImage:
				if c.Image != nil {
					parts = append(parts, gemini.Part{InlineData: &gemini.InlineData{MimeType: c.Image.MimeType, Data: c.Image.Data}})
				}
			case ir.ContentTypeToolResult:
				if c.ToolResult != nil {
					var resp map[string]any
					if err := json.Unmarshal([]byte(c.ToolResult.Result), &resp); err != nil {
						resp = map[string]any{"result": c.ToolResult.Result}
					}
					parts = append(parts, gemini.Part{FunctionResponse: &gemini.FunctionResponse{Name: c.ToolResult.ToolCallID, Response: resp}})
				}
			}
		}
		for _, tc := range m.ToolCalls {
			var args map[string]any
			_ = json.Unmarshal([]byte(tc.Args), &args)
			parts = append(parts, gemini.Part{FunctionCall: &gemini.FunctionCall{Name: tc.Name, Args: args}})
		}

		if len(parts) == 0 {
			continue
		}
		out = append(out, gemini.Content{Role: role, Parts: parts})
	}
	return out
}
