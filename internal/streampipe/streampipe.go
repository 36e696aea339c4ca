// Package streampipe implements a two-stage Frame/Transform translation
// of Gemini's streamed SSE response into OpenAI-compatible SSE chunks.
// The Frame stage is grounded on internal/streamutil.OptimizedStreamReader
// (context-aware line scanning over a configurable buffer size); the
// Transform stage is grounded on rad-gateway's StreamTransformer
// (accumulated-content diffing to compute the delta, isFinal detection
// via a non-empty finishReason).
package streampipe

import (
	"bufio"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/daoch4n/zen-router/internal/dialect"
	"github.com/daoch4n/zen-router/internal/obslog"
	"github.com/daoch4n/zen-router/internal/translator/gemini"
	"github.com/daoch4n/zen-router/internal/translator/openai"
)

const (
	defaultBufferSize  = 64 * 1024
	defaultMaxLineSize = 2 * 1024 * 1024
)

// Frame reads one SSE "data: ..." line at a time from r, stripping the
// leading "data: " prefix, until ctx is cancelled or r is exhausted.
// Lines that don't match the data: / [DONE] shape are forwarded
// unparsed via the raw field: an unparseable line is passed through to
// the client rather than silently dropped.
type Frame struct {
	scanner *bufio.Scanner
	ctx     context.Context
}

// NewFrame builds a Frame over r with a generous max-token size so a
// single oversized SSE event doesn't truncate.
func NewFrame(ctx context.Context, r *bufio.Scanner) *Frame {
	r.Buffer(make([]byte, defaultBufferSize), defaultMaxLineSize)
	return &Frame{scanner: r, ctx: ctx}
}

// FrameResult is one decoded frame from the upstream byte stream.
type FrameResult struct {
	Data     string // JSON payload with "data: " stripped
	Done     bool   // true if this was the "[DONE]" marker
	Raw      string // set when the line didn't parse as an SSE data line
}

// Next returns the next frame, or ok=false at end of stream / ctx
// cancellation.
func (f *Frame) Next() (FrameResult, bool) {
	for f.scanner.Scan() {
		select {
		case <-f.ctx.Done():
			return FrameResult{}, false
		default:
		}

		line := strings.TrimSpace(f.scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "data: ") {
			payload := strings.TrimPrefix(line, "data: ")
			if payload == "[DONE]" {
				return FrameResult{Done: true}, true
			}
			return FrameResult{Data: payload}, true
		}
		if strings.HasPrefix(line, ":") {
			continue // SSE comment/keepalive
		}
		return FrameResult{Raw: line}, true
	}
	return FrameResult{}, false
}

// Transform accumulates Gemini stream state across calls to TransformChunk
// and renders each chunk as an OpenAI-compatible SSE "data: ..." line.
// State is tracked per candidate index so a multi-candidate stream
// (candidateCount > 1) diffs each candidate's text independently instead
// of conflating them.
type Transform struct {
	messageID     string
	model         string
	created       int64
	accumulated   map[int]string
	toolCallsSent map[int]int
	trace         *obslog.ThinkingTrace
}

// NewTransform starts a new stream transformation for model, stamping a
// fresh message id and creation time.
func NewTransform(model string, createdAt int64) *Transform {
	return &Transform{
		messageID:     "chatcmpl-" + uuid.NewString(),
		model:         model,
		created:       createdAt,
		accumulated:   make(map[int]string),
		toolCallsSent: make(map[int]int),
		trace:         obslog.NewThinkingTrace(),
	}
}

// RoleFrame renders the leading `delta.role:"assistant"` chunk every
// OpenAI stream opens with, one choice per requested candidate, before
// any content has arrived.
func (t *Transform) RoleFrame(candidateCount int) []byte {
	if candidateCount < 1 {
		candidateCount = 1
	}
	choices := make([]openai.ChunkChoice, candidateCount)
	for i := range choices {
		choices[i] = openai.ChunkChoice{Index: i, Delta: openai.ChunkDelta{Role: "assistant"}}
	}
	chunk := openai.ChatCompletionChunk{
		ID:      t.messageID,
		Object:  "chat.completion.chunk",
		Created: t.created,
		Model:   t.model,
		Choices: choices,
	}
	out, err := json.Marshal(chunk)
	if err != nil {
		return nil
	}
	return formatSSE(out)
}

// TransformChunk parses one Gemini SSE payload and returns the
// corresponding OpenAI SSE frame (already formatted with the
// "data: ...\n\n" delimiter), whether every candidate has finished, and
// any parse error. A frame with no candidates (e.g. a keepalive-only
// payload) yields ok=false with no error.
func (t *Transform) TransformChunk(raw string) (frame []byte, isFinal bool, ok bool, err error) {
	t.trace.RawSSE(t.model, []byte(raw))

	var resp gemini.Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, false, false, err
	}
	if len(resp.Candidates) == 0 {
		return nil, false, false, nil
	}

	choices := make([]openai.ChunkChoice, 0, len(resp.Candidates))
	allFinal := true
	for _, c := range resp.Candidates {
		choice, final := t.transformCandidateDelta(c)
		choices = append(choices, choice)
		if !final {
			allFinal = false
		}
	}
	isFinal = allFinal

	chunk := openai.ChatCompletionChunk{
		ID:      t.messageID,
		Object:  "chat.completion.chunk",
		Created: t.created,
		Model:   t.model,
		Choices: choices,
	}
	if isFinal && resp.UsageMetadata.TotalTokenCount > 0 {
		chunk.Usage = &openai.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}

	chunkJSON, err := json.Marshal(chunk)
	if err != nil {
		return nil, false, false, err
	}
	out := formatSSE(chunkJSON)
	t.trace.Frame(t.model, out)
	return out, isFinal, true, nil
}

// transformCandidateDelta renders one candidate's incremental text and
// any newly-seen tool calls into an OpenAI ChunkChoice, diffing against
// state tracked per candidate index since Gemini resends each
// candidate's full accumulated text/tool-call list on every chunk
// rather than true incremental fragments.
func (t *Transform) transformCandidateDelta(c gemini.Candidate) (openai.ChunkChoice, bool) {
	var full strings.Builder
	var toolCalls []openai.ToolCall
	for _, part := range c.Content.Parts {
		switch {
		case part.FunctionCall != nil:
			toolCalls = append(toolCalls, openai.ToolCall{
				Type:     "function",
				Function: openai.ToolCallFunc{Name: part.FunctionCall.Name, Arguments: marshalArgs(part.FunctionCall.Args)},
			})
		case part.Thought:
			// reasoning text isn't surfaced as a chat completion delta field
		default:
			full.WriteString(part.Text)
		}
	}
	fullText := full.String()

	var textDelta string
	prevText := t.accumulated[c.Index]
	if len(fullText) > len(prevText) {
		textDelta = fullText[len(prevText):]
		t.accumulated[c.Index] = fullText
	}

	var toolDelta []openai.ToolCall
	sent := t.toolCallsSent[c.Index]
	if len(toolCalls) > sent {
		for i := sent; i < len(toolCalls); i++ {
			idx := i
			tc := toolCalls[i]
			tc.Index = &idx
			toolDelta = append(toolDelta, tc)
		}
		t.toolCallsSent[c.Index] = len(toolCalls)
	}

	isFinal := c.FinishReason != ""
	finishReason := ""
	if isFinal {
		finishReason = dialect.MapFinishReason(c.FinishReason)
	}

	return openai.ChunkChoice{
		Index:        c.Index,
		Delta:        openai.ChunkDelta{Content: textDelta, ToolCalls: toolDelta},
		FinishReason: finishReason,
	}, isFinal
}

func marshalArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func formatSSE(data []byte) []byte {
	return append(append([]byte("data: "), data...), []byte("\n\n")...)
}

// DoneFrame is the terminal SSE frame every OpenAI stream ends with.
func DoneFrame() []byte {
	return []byte("data: [DONE]\n\n")
}

// Now exists only so callers needing a created-at timestamp for
// NewTransform don't each reimplement time.Now().Unix().
func Now() int64 { return time.Now().Unix() }
