// Backend worker wire format and HTTP client for Gemini's
// speech-synthesis generateContent endpoint. Grounded on
// 9beb7f70_apresai-podcaster__internal-tts-gemini.go.go's geminiRequest/
// geminiResponse shapes and its doRequest status-code handling
// (RetryableError on 429/5xx), generalized from the podcaster's
// multi-speaker dialogue synthesis to this gateway's one-sentence-at-a-
// time synthesis.
package tts

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/daoch4n/zen-router/internal/httpclient"
)

const ttsModel = "gemini-2.5-flash-preview-tts"

type synthRequest struct {
	Contents         []synthContent `json:"contents"`
	GenerationConfig synthGenConfig `json:"generationConfig"`
}

type synthContent struct {
	Parts []synthPart `json:"parts"`
}

type synthPart struct {
	Text string `json:"text,omitempty"`
}

type synthGenConfig struct {
	ResponseModalities []string         `json:"responseModalities"`
	SpeechConfig       synthSpeechConfig `json:"speechConfig"`
}

type synthSpeechConfig struct {
	VoiceConfig synthVoiceConfig `json:"voiceConfig"`
}

type synthVoiceConfig struct {
	PrebuiltVoiceConfig synthPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type synthPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type synthResponse struct {
	Candidates []synthCandidate `json:"candidates"`
}

type synthCandidate struct {
	Content synthRespContent `json:"content"`
}

type synthRespContent struct {
	Parts []synthRespPart `json:"parts"`
}

type synthRespPart struct {
	InlineData *synthInlineData `json:"inlineData,omitempty"`
}

type synthInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// RetryableError marks an upstream failure the caller's retry policy
// should retry (429 or 5xx), as opposed to a permanent 4xx rejection.
type RetryableError struct {
	StatusCode int
	Body       string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("tts backend error (status %d): %s", e.StatusCode, e.Body)
}

// TransportError marks a network-level failure (dial/TLS/timeout, no
// HTTP response at all) — retried identically to a RetryableError, as
// distinct from a terminal non-retryable status code.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "tts backend transport error: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// BackendWorker is one upstream Gemini endpoint/credential pairing the
// Router-Counter load-balances sentence synthesis across.
type BackendWorker struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

// NewBackendWorker builds a worker over the shared HTTP client/transport.
func NewBackendWorker(baseURL, apiKey string) *BackendWorker {
	return &BackendWorker{BaseURL: baseURL, APIKey: apiKey, client: httpclient.New(0)}
}

// Synthesize renders one sentence of text with voiceID and returns the
// raw (not yet base64-re-encoded) PCM audio bytes.
func (w *BackendWorker) Synthesize(ctx context.Context, text, voiceID string) ([]byte, error) {
	reqBody := synthRequest{
		Contents: []synthContent{{Parts: []synthPart{{Text: text}}}},
		GenerationConfig: synthGenConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: synthSpeechConfig{
				VoiceConfig: synthVoiceConfig{PrebuiltVoiceConfig: synthPrebuiltVoice{VoiceName: voiceID}},
			},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	url := w.BaseURL + "/v1beta/models/" + ttsModel + ":generateContent?key=" + w.APIKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := w.client.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError {
		errBody, _ := io.ReadAll(res.Body)
		return nil, &RetryableError{StatusCode: res.StatusCode, Body: string(errBody)}
	}
	if res.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("tts backend error (status %d): %s", res.StatusCode, string(errBody))
	}

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts response: %w", err)
	}

	var resp synthResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("parse tts response: %w", err)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 ||
		resp.Candidates[0].Content.Parts[0].InlineData == nil {
		return nil, fmt.Errorf("tts response contained no audio data")
	}

	audioB64 := resp.Candidates[0].Content.Parts[0].InlineData.Data
	audio, err := base64.StdEncoding.DecodeString(audioB64)
	if err != nil {
		return nil, fmt.Errorf("decode tts audio base64: %w", err)
	}
	return audio, nil
}
