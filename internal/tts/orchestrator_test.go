package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/daoch4n/zen-router/internal/kv"
	"github.com/daoch4n/zen-router/internal/router"
	"github.com/daoch4n/zen-router/internal/ttsstate"
)

func newTestOrchestrator(t *testing.T, backends []BackendConfig) (*Orchestrator, *kv.SQLiteStore) {
	t.Helper()
	store, err := kv.Open(":memory:")
	if err != nil {
		t.Fatalf("open kv: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	counter := router.New(store, router.CounterName)
	state := ttsstate.NewManager(store, 0)
	return NewOrchestrator(backends, counter, state), store
}

func echoAudioServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := synthResponse{Candidates: []synthCandidate{{Content: synthRespContent{Parts: []synthRespPart{
			{InlineData: &synthInlineData{MimeType: "audio/pcm", Data: base64.StdEncoding.EncodeToString([]byte("audio"))}},
		}}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

type collectedFrame struct {
	event string
	id    int
	data  []byte
}

func TestRunEmitsMessagePerSentenceAndEndFrame(t *testing.T) {
	srv := echoAudioServer(t)
	defer srv.Close()

	o, _ := newTestOrchestrator(t, []BackendConfig{{BaseURL: srv.URL, APIKey: "k"}})

	var mu sync.Mutex
	var frames []collectedFrame
	emit := func(event string, id int, data []byte) {
		mu.Lock()
		defer mu.Unlock()
		frames = append(frames, collectedFrame{event, id, data})
	}

	err := o.Run(context.Background(), "job-1", "Hello world. How are you?", "Kore", emit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var messageCount, endCount int
	for _, f := range frames {
		switch f.event {
		case "message":
			messageCount++
			var p MessagePayload
			if err := json.Unmarshal(f.data, &p); err != nil {
				t.Fatalf("bad message payload: %v", err)
			}
			if p.JobID != "job-1" {
				t.Fatalf("unexpected jobId: %q", p.JobID)
			}
		case "end":
			endCount++
		}
	}
	if messageCount != 2 {
		t.Fatalf("expected 2 message frames, got %d (frames=%+v)", messageCount, frames)
	}
	if endCount != 1 {
		t.Fatalf("expected exactly 1 end frame, got %d", endCount)
	}
}

func TestRunResumesFromCurrentSentenceIndex(t *testing.T) {
	srv := echoAudioServer(t)
	defer srv.Close()

	o, store := newTestOrchestrator(t, []BackendConfig{{BaseURL: srv.URL, APIKey: "k"}})
	ctx := context.Background()

	state := ttsstate.NewManager(store, 0)
	text := "One. Two. Three."
	if err := state.Initialize(ctx, "job-resume", text, "Kore"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	chunk := base64.StdEncoding.EncodeToString([]byte("stored-audio"))
	if err := state.UpdateProgress(ctx, "job-resume", 0, &chunk, ""); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	var mu sync.Mutex
	var frames []collectedFrame
	emit := func(event string, id int, data []byte) {
		mu.Lock()
		defer mu.Unlock()
		frames = append(frames, collectedFrame{event, id, data})
	}

	if err := o.Run(ctx, "job-resume", text, "Kore", emit); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var replayed bool
	var messageCount int
	for _, f := range frames {
		if f.event != "message" {
			continue
		}
		messageCount++
		var p MessagePayload
		_ = json.Unmarshal(f.data, &p)
		if p.Index == 0 && p.AudioChunk == chunk {
			replayed = true
		}
	}
	if !replayed {
		t.Fatalf("expected sentence 0 to be replayed from stored state, frames=%+v", frames)
	}
	if messageCount != 3 {
		t.Fatalf("expected 3 message frames (1 replayed + 2 synthesized), got %d", messageCount)
	}
}

func TestRunFailsWhenWorkerPoolEmpty(t *testing.T) {
	o, _ := newTestOrchestrator(t, nil)
	err := o.Run(context.Background(), "job-empty", "Hello.", "Kore", func(string, int, []byte) {})
	if err == nil {
		t.Fatal("expected an error for an empty worker pool")
	}
}

func TestRunEmitsErrorEventOnPermanentBackendFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	o, _ := newTestOrchestrator(t, []BackendConfig{{BaseURL: srv.URL, APIKey: "k"}})

	var mu sync.Mutex
	var frames []collectedFrame
	emit := func(event string, id int, data []byte) {
		mu.Lock()
		defer mu.Unlock()
		frames = append(frames, collectedFrame{event, id, data})
	}

	if err := o.Run(context.Background(), "job-fail", "Hello there.", "Kore", emit); err != nil {
		t.Fatalf("unexpected top-level error: %v", err)
	}

	var sawError bool
	for _, f := range frames {
		if f.event == "error" {
			sawError = true
		}
	}
	if !sawError {
		t.Fatalf("expected an error frame, got %+v", frames)
	}
}
