// Package tokencount estimates prompt token usage with tiktoken-go as
// a client-side fallback for non-streaming responses the Gemini backend
// reports no usage for.
// Adapted from internal/util/tokenizer_tiktoken.go: the
// cached-codec-by-encoding pattern and the per-message overhead
// accounting are kept, generalized from a multi-provider IR to this
// gateway's Gemini-only ir.ChatRequest.
package tokencount

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/daoch4n/zen-router/internal/translator/ir"
)

// ImageTokenCost approximates the fixed per-image token cost used when
// a more precise vision-token count isn't available.
const ImageTokenCost = 255

var (
	codecCacheMu sync.RWMutex
	codecCache   = make(map[tokenizer.Encoding]tokenizer.Codec)
)

func getCodec(encoding tokenizer.Encoding) (tokenizer.Codec, error) {
	codecCacheMu.RLock()
	if c, ok := codecCache[encoding]; ok {
		codecCacheMu.RUnlock()
		return c, nil
	}
	codecCacheMu.RUnlock()

	codecCacheMu.Lock()
	defer codecCacheMu.Unlock()
	if c, ok := codecCache[encoding]; ok {
		return c, nil
	}
	c, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, err
	}
	codecCache[encoding] = c
	return c, nil
}

// encodingFor returns the tiktoken encoding used for the named model;
// every model currently maps to O200kBase. Gemini has no published
// tiktoken-compatible encoding, so this is an approximation used only
// when the backend reported no usageMetadata.
func encodingFor(model string) tokenizer.Encoding {
	lower := strings.ToLower(model)
	if strings.Contains(lower, "flash") || strings.Contains(lower, "pro") || strings.Contains(lower, "2.5") || strings.Contains(lower, "2.0") {
		return tokenizer.O200kBase
	}
	return tokenizer.O200kBase
}

// Estimate returns an approximate prompt token count for req, used to
// populate usage.prompt_tokens for a non-streaming chat completion whose
// Gemini response reported zero total tokens.
func Estimate(req *ir.ChatRequest) int64 {
	if req == nil {
		return 0
	}

	enc, err := getCodec(encodingFor(req.Model))
	if err != nil {
		return 0
	}

	var total int64
	const perMessageOverhead = int64(3)

	for _, msg := range req.Messages {
		total += perMessageOverhead

		roleIDs, _, _ := enc.Encode(string(msg.Role))
		total += int64(len(roleIDs))

		text, images := flatten(&msg)
		if text != "" {
			ids, _, _ := enc.Encode(text)
			total += int64(len(ids))
		}
		total += int64(images) * ImageTokenCost
	}

	if len(req.Tools) > 0 {
		toolsJSON, _ := json.Marshal(req.Tools)
		ids, _, _ := enc.Encode(string(toolsJSON))
		total += int64(len(ids)) + 10
	}

	total += 3 // reply priming
	return total
}

func flatten(msg *ir.Message) (string, int) {
	var sb strings.Builder
	images := 0

	for _, part := range msg.Content {
		switch part.Type {
		case ir.ContentTypeText:
			sb.WriteString(part.Text)
		case ir.ContentTypeReasoning:
			sb.WriteString(part.Reasoning)
		case ir.ContentTypeImage:
			images++
		case ir.ContentTypeToolResult:
			if part.ToolResult != nil {
				sb.WriteString(part.ToolResult.Result)
			}
		}
	}

	for _, tc := range msg.ToolCalls {
		sb.WriteString(tc.Name)
		sb.WriteString(tc.Args)
	}

	return sb.String(), images
}
