package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSynthesizeDecodesAudio(t *testing.T) {
	wantAudio := []byte("pcm-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := synthResponse{Candidates: []synthCandidate{{Content: synthRespContent{Parts: []synthRespPart{
			{InlineData: &synthInlineData{MimeType: "audio/pcm", Data: base64.StdEncoding.EncodeToString(wantAudio)}},
		}}}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	w := NewBackendWorker(srv.URL, "key")
	audio, err := w.Synthesize(context.Background(), "hello", "Kore")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(audio) != string(wantAudio) {
		t.Fatalf("expected %q, got %q", wantAudio, audio)
	}
}

func TestSynthesizeMarksRetryableOn429(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte("rate limited"))
	}))
	defer srv.Close()

	w := NewBackendWorker(srv.URL, "key")
	_, err := w.Synthesize(context.Background(), "hello", "Kore")
	if err == nil {
		t.Fatal("expected an error")
	}
	var retryable *RetryableError
	if !asRetryable(err, &retryable) {
		t.Fatalf("expected *RetryableError, got %T: %v", err, err)
	}
	if retryable.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("unexpected status code: %d", retryable.StatusCode)
	}
}

func TestSynthesizeRejectsPermanentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("bad voice"))
	}))
	defer srv.Close()

	w := NewBackendWorker(srv.URL, "key")
	_, err := w.Synthesize(context.Background(), "hello", "not-a-voice")
	if err == nil {
		t.Fatal("expected an error")
	}
	var retryable *RetryableError
	if asRetryable(err, &retryable) {
		t.Fatal("400 should not be classified as retryable")
	}
}

func asRetryable(err error, target **RetryableError) bool {
	if re, ok := err.(*RetryableError); ok {
		*target = re
		return true
	}
	return false
}
