package gateway

import (
	"bufio"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daoch4n/zen-router/internal/gwerrors"
	"github.com/daoch4n/zen-router/internal/obslog"
	"github.com/daoch4n/zen-router/internal/streampipe"
	"github.com/daoch4n/zen-router/internal/tokencount"
	"github.com/daoch4n/zen-router/internal/translator/gemini"
	"github.com/daoch4n/zen-router/internal/translator/ir"
	"github.com/daoch4n/zen-router/internal/translator/openai"
	"github.com/daoch4n/zen-router/internal/translator/request"
	"github.com/daoch4n/zen-router/internal/translator/response"
)

func (e *Engine) handleChatCompletions(c *gin.Context) {
	var req openai.ChatCompletionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(gwerrors.BadRequest("invalid chat completion request body: " + err.Error()))
		return
	}

	irReq, tag, err := request.FromOpenAI(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}
	geminiReq := request.ToGeminiRequest(irReq)

	if req.Stream {
		e.streamChatCompletion(c, geminiReq, tag.BaseModel)
		return
	}
	e.nonStreamChatCompletion(c, irReq, geminiReq, tag.BaseModel)
}

func (e *Engine) nonStreamChatCompletion(c *gin.Context, irReq *ir.ChatRequest, geminiReq *gemini.Request, model string) {
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
	if chatResp.Usage.TotalTokens == 0 {
		chatResp.Usage.PromptTokens = int(tokencount.Estimate(irReq))
	}

	out := response.ToOpenAI(chatResp, "chatcmpl-"+uuid.NewString(), streampipe.Now())
	c.JSON(http.StatusOK, out)
}

func (e *Engine) streamChatCompletion(c *gin.Context, geminiReq *gemini.Request, model string) {
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

	trace := obslog.NewThinkingTrace()
	transform := streampipe.NewTransform(model, streampipe.Now())
	frame := streampipe.NewFrame(c.Request.Context(), bufio.NewScanner(upstream.Body))

	candidateCount := 1
	if geminiReq.GenerationConfig != nil && geminiReq.GenerationConfig.CandidateCount != nil {
		candidateCount = *geminiReq.GenerationConfig.CandidateCount
	}
	c.Writer.Write(transform.RoleFrame(candidateCount))
	c.Writer.Flush()

	for {
		result, ok := frame.Next()
		if !ok {
			break
		}
		if result.Done {
			break
		}
		if result.Raw != "" {
			trace.RawSSE(model, []byte(result.Raw))
			c.Writer.WriteString(result.Raw + "\n")
			c.Writer.Flush()
			continue
		}

		out, isFinal, ok, err := transform.TransformChunk(result.Data)
		if err != nil {
			trace.RawSSE(model, []byte("parse error: "+err.Error()))
			c.Writer.WriteString("data: " + result.Data + "\n\n")
			c.Writer.Flush()
			continue
		}
		if !ok {
			continue
		}
		c.Writer.Write(out)
		c.Writer.Flush()
		if isFinal {
			break
		}
	}

	c.Writer.Write(streampipe.DoneFrame())
	c.Writer.Flush()
}
