package gateway

import (
	"bufio"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daoch4n/zen-router/internal/anthropic"
	"github.com/daoch4n/zen-router/internal/dialect"
	"github.com/daoch4n/zen-router/internal/gwerrors"
	"github.com/daoch4n/zen-router/internal/obslog"
	"github.com/daoch4n/zen-router/internal/streampipe"
	"github.com/daoch4n/zen-router/internal/translator/gemini"
	"github.com/daoch4n/zen-router/internal/translator/ir"
	"github.com/daoch4n/zen-router/internal/translator/request"
	"github.com/daoch4n/zen-router/internal/translator/response"
)

func (e *Engine) handleAnthropicMessages(c *gin.Context) {
	var req anthropic.MessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(gwerrors.BadRequest("invalid messages request body: " + err.Error()))
		return
	}

	irReq := anthropic.FromAnthropic(&req)
	resolveModelTag(irReq)
	geminiReq := request.ToGeminiRequest(irReq)

	if req.Stream {
		e.streamAnthropicMessages(c, geminiReq, irReq.Model)
		return
	}
	e.nonStreamAnthropicMessages(c, geminiReq, irReq.Model)
}

// resolveModelTag applies the same suffix-stripping/thinking-budget
// parsing the OpenAI path gets via request.FromOpenAI, since Anthropic
// clients address the same underlying Gemini models by the same names.
func resolveModelTag(req *ir.ChatRequest) {
	tag := dialect.ParseModelName(req.Model)
	req.Model = tag.BaseModel
	req.WithSearchTool = tag.SearchTool
	if tag.Mode != dialect.ModeNone {
		req.Thinking = &ir.ThinkingConfig{IncludeThoughts: true, Budget: tag.Budget}
	}
}

func (e *Engine) nonStreamAnthropicMessages(c *gin.Context, geminiReq *gemini.Request, model string) {
	resp, err := e.gemini.GenerateContent(c.Request.Context(), upstreamKey(c), model, geminiReq)
	if err != nil {
		attachUpstreamError(c, err)
		return
	}

	chatResp, err := response.FromGemini(resp, model)
	if err != nil {
		attachUpstreamError(c, err)
		return
	}

	out := anthropic.ToAnthropic(chatResp, "msg_"+uuid.NewString())
	c.JSON(http.StatusOK, out)
}

// streamAnthropicMessages rewrites the Gemini SSE stream into Anthropic's
// own event vocabulary (message_start, content_block_start/delta/stop,
// message_delta, message_stop), per the adapter's stream-event-rewriting
// responsibility.
func (e *Engine) streamAnthropicMessages(c *gin.Context, geminiReq *gemini.Request, model string) {
	upstream, err := e.gemini.StreamGenerateContent(c.Request.Context(), upstreamKey(c), model, geminiReq)
	if err != nil {
		attachUpstreamError(c, err)
		return
	}
	defer upstream.Body.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	msgID := "msg_" + uuid.NewString()
	trace := obslog.NewThinkingTrace()
	frame := streampipe.NewFrame(c.Request.Context(), bufio.NewScanner(upstream.Body))

	writeEvent(c, "message_start", anthropicMessageStart{
		Type: "message_start",
		Message: anthropicMessageStartBody{
			ID: msgID, Type: "message", Role: "assistant", Model: model,
			Content: []any{}, Usage: anthropic.AnthropicUsage{},
		},
	})
	writeEvent(c, "content_block_start", anthropicBlockStart{
		Type: "content_block_start", Index: 0,
		ContentBlock: anthropicBlockStartBody{Type: "text", Text: ""},
	})

	stopReason := "end_turn"

	for {
		result, ok := frame.Next()
		if !ok || result.Done {
			break
		}
		if result.Raw != "" {
			trace.RawSSE(model, []byte(result.Raw))
			continue
		}

		var resp gemini.Response
		if err := json.Unmarshal([]byte(result.Data), &resp); err != nil {
			trace.RawSSE(model, []byte("parse error: "+err.Error()))
			continue
		}
		if len(resp.Candidates) == 0 {
			continue
		}

		cand := resp.Candidates[0]
		for _, part := range cand.Content.Parts {
			if part.Thought || part.Text == "" {
				continue
			}
			writeEvent(c, "content_block_delta", anthropicBlockDelta{
				Type: "content_block_delta", Index: 0,
				Delta: anthropicTextDelta{Type: "text_delta", Text: part.Text},
			})
		}
		if cand.FinishReason != "" {
			stopReason = anthropicStopReason(cand.FinishReason)
		}
	}

	writeEvent(c, "content_block_stop", anthropicBlockStop{Type: "content_block_stop", Index: 0})
	writeEvent(c, "message_delta", anthropicMessageDelta{
		Type: "message_delta",
		Delta: anthropicMessageDeltaBody{StopReason: stopReason},
	})
	writeEvent(c, "message_stop", anthropicMessageStop{Type: "message_stop"})
}

func anthropicStopReason(geminiReason string) string {
	switch geminiReason {
	case "MAX_TOKENS":
		return "max_tokens"
	case "STOP":
		return "end_turn"
	default:
		return "end_turn"
	}
}

func writeEvent(c *gin.Context, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.Writer.WriteString("event: " + event + "\n")
	c.Writer.WriteString("data: " + string(data) + "\n\n")
	c.Writer.Flush()
}

type anthropicMessageStart struct {
	Type    string                    `json:"type"`
	Message anthropicMessageStartBody `json:"message"`
}

type anthropicMessageStartBody struct {
	ID      string                    `json:"id"`
	Type    string                    `json:"type"`
	Role    string                    `json:"role"`
	Model   string                    `json:"model"`
	Content []any                     `json:"content"`
	Usage   anthropic.AnthropicUsage  `json:"usage"`
}

type anthropicBlockStart struct {
	Type         string                  `json:"type"`
	Index        int                     `json:"index"`
	ContentBlock anthropicBlockStartBody `json:"content_block"`
}

type anthropicBlockStartBody struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicBlockDelta struct {
	Type  string             `json:"type"`
	Index int                `json:"index"`
	Delta anthropicTextDelta `json:"delta"`
}

type anthropicTextDelta struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicBlockStop struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type anthropicMessageDelta struct {
	Type  string                    `json:"type"`
	Delta anthropicMessageDeltaBody `json:"delta"`
}

type anthropicMessageDeltaBody struct {
	StopReason string `json:"stop_reason"`
}

type anthropicMessageStop struct {
	Type string `json:"type"`
}
