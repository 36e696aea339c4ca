package streampipe

import (
	"bufio"
	"context"
	"strings"
	"testing"
)

func TestFrameNextParsesDataLines(t *testing.T) {
	body := "data: {\"a\":1}\n\ndata: [DONE]\n\n"
	f := NewFrame(context.Background(), bufio.NewScanner(strings.NewReader(body)))

	r1, ok := f.Next()
	if !ok || r1.Data != `{"a":1}` {
		t.Fatalf("unexpected first frame: %+v ok=%v", r1, ok)
	}
	r2, ok := f.Next()
	if !ok || !r2.Done {
		t.Fatalf("expected done marker, got %+v ok=%v", r2, ok)
	}
	_, ok = f.Next()
	if ok {
		t.Fatal("expected end of stream")
	}
}

func TestFrameForwardsUnparseableLines(t *testing.T) {
	body := "not-an-sse-line\n"
	f := NewFrame(context.Background(), bufio.NewScanner(strings.NewReader(body)))
	r, ok := f.Next()
	if !ok || r.Raw != "not-an-sse-line" {
		t.Fatalf("expected raw passthrough, got %+v ok=%v", r, ok)
	}
}

func TestTransformChunkAccumulatesDelta(t *testing.T) {
	tr := NewTransform("gemini-2.5-flash", 1000)

	frame1, final1, ok1, err1 := tr.TransformChunk(`{"candidates":[{"content":{"parts":[{"text":"hel"}]},"index":0,"finishReason":""}]}`)
	if err1 != nil || !ok1 || final1 {
		t.Fatalf("unexpected first chunk: ok=%v final=%v err=%v", ok1, final1, err1)
	}
	if !strings.Contains(string(frame1), `"content":"hel"`) {
		t.Fatalf("expected delta 'hel', got %s", frame1)
	}

	frame2, final2, ok2, err2 := tr.TransformChunk(`{"candidates":[{"content":{"parts":[{"text":"hello"}]},"index":0,"finishReason":"STOP"}]}`)
	if err2 != nil || !ok2 || !final2 {
		t.Fatalf("unexpected final chunk: ok=%v final=%v err=%v", ok2, final2, err2)
	}
	if !strings.Contains(string(frame2), `"content":"lo"`) {
		t.Fatalf("expected delta 'lo', got %s", frame2)
	}
	if !strings.Contains(string(frame2), `"finish_reason":"stop"`) {
		t.Fatalf("expected mapped finish reason, got %s", frame2)
	}
}

func TestTransformChunkHandlesMultipleCandidates(t *testing.T) {
	tr := NewTransform("gemini-2.5-flash", 1000)

	frame, final, ok, err := tr.TransformChunk(`{"candidates":[
		{"content":{"parts":[{"text":"a"}]},"index":0,"finishReason":"STOP"},
		{"content":{"parts":[{"text":"b"}]},"index":1,"finishReason":"STOP"}
	]}`)
	if err != nil || !ok || !final {
		t.Fatalf("unexpected chunk: ok=%v final=%v err=%v", ok, final, err)
	}
	if !strings.Contains(string(frame), `"index":0`) || !strings.Contains(string(frame), `"index":1`) {
		t.Fatalf("expected both candidate indices present, got %s", frame)
	}
	if !strings.Contains(string(frame), `"content":"a"`) || !strings.Contains(string(frame), `"content":"b"`) {
		t.Fatalf("expected both candidates' content, got %s", frame)
	}
}

func TestTransformChunkEmitsToolCallDelta(t *testing.T) {
	tr := NewTransform("gemini-2.5-flash", 1000)

	frame, final, ok, err := tr.TransformChunk(`{"candidates":[{"content":{"parts":[
		{"functionCall":{"name":"get_weather","args":{"city":"nyc"}}}
	]},"index":0,"finishReason":"STOP"}]}`)
	if err != nil || !ok || !final {
		t.Fatalf("unexpected chunk: ok=%v final=%v err=%v", ok, final, err)
	}
	if !strings.Contains(string(frame), `"tool_calls"`) || !strings.Contains(string(frame), `"get_weather"`) {
		t.Fatalf("expected tool_calls delta, got %s", frame)
	}

	// Gemini resends the full parts list verbatim; a repeat of the same
	// function call must not be re-emitted as a second tool_calls delta.
	frame2, _, ok2, err2 := tr.TransformChunk(`{"candidates":[{"content":{"parts":[
		{"functionCall":{"name":"get_weather","args":{"city":"nyc"}}}
	]},"index":0,"finishReason":"STOP"}]}`)
	if err2 != nil || !ok2 {
		t.Fatalf("unexpected second chunk: ok=%v err=%v", ok2, err2)
	}
	if strings.Contains(string(frame2), `"tool_calls"`) {
		t.Fatalf("expected no repeated tool_calls delta, got %s", frame2)
	}
}

func TestRoleFrameEmitsOneChoicePerCandidate(t *testing.T) {
	tr := NewTransform("gemini-2.5-flash", 1000)
	out := tr.RoleFrame(3)
	for _, idx := range []string{`"index":0`, `"index":1`, `"index":2`} {
		if !strings.Contains(string(out), idx) {
			t.Fatalf("expected %s in role frame, got %s", idx, out)
		}
	}
}
