package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daoch4n/zen-router/internal/gwerrors"
	"github.com/daoch4n/zen-router/internal/translator/openai"
	"github.com/daoch4n/zen-router/internal/translator/response"
)

func (e *Engine) handleEmbeddings(c *gin.Context) {
	var req openai.EmbeddingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(gwerrors.BadRequest("invalid embeddings request body: " + err.Error()))
		return
	}

	inputs := embeddingInputs(req.Input)
	if len(inputs) == 0 {
		c.Error(gwerrors.BadRequest("embeddings request requires a non-empty input"))
		return
	}

	vectors := make([][]float64, len(inputs))
	promptTokens := 0
	for i, text := range inputs {
		v, err := e.gemini.EmbedContent(c.Request.Context(), upstreamKey(c), req.Model, text)
		if err != nil {
			attachUpstreamError(c, err)
			return
		}
		vectors[i] = v
		promptTokens += estimateTextTokens(text)
	}

	c.JSON(http.StatusOK, response.ProcessEmbeddings(req.Model, vectors, promptTokens))
}

func embeddingInputs(input any) []string {
	switch v := input.(type) {
	case string:
		return []string{v}
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// estimateTextTokens is a coarse client-side fallback for embeddings
// usage accounting; Gemini's embedContent response carries no
// usageMetadata to report precisely.
func estimateTextTokens(text string) int {
	const charsPerToken = 4
	n := len(text) / charsPerToken
	if n == 0 && text != "" {
		n = 1
	}
	return n
}
