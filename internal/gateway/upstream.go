// Upstream Gemini client: builds the {BASE_URL}/{API_VERSION}/models/
// {model}:{task} URL for generateContent, streamGenerateContent and
// embedContent, grounded on Prism-API's gemini_adapter.go Call/
// CallStream (URL shape, bufio-scanned SSE body for streaming; the API
// key travels in the x-goog-api-key header rather than the query
// string) and internal/httpclient for the shared transport.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/daoch4n/zen-router/internal/gwerrors"
	"github.com/daoch4n/zen-router/internal/httpclient"
	"github.com/daoch4n/zen-router/internal/translator/gemini"
)

const clientID = "zen-router-gateway"

// geminiClient calls the upstream Gemini API using one API key per
// call, picked by the caller from the credential pool.
type geminiClient struct {
	baseURL    string
	apiVersion string
	client     *http.Client
}

func newGeminiClient(baseURL, apiVersion string, timeout time.Duration) *geminiClient {
	return &geminiClient{baseURL: baseURL, apiVersion: apiVersion, client: httpclient.New(timeout)}
}

func (g *geminiClient) endpoint(model, task string, stream bool) string {
	url := fmt.Sprintf("%s/%s/models/%s:%s", g.baseURL, g.apiVersion, model, task)
	if stream {
		url += "?alt=sse"
	}
	return url
}

func (g *geminiClient) newRequest(ctx context.Context, apiKey, task, model string, stream bool, body any) (*http.Request, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, gwerrors.Internal("marshal upstream request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint(model, task, stream), bytes.NewReader(payload))
	if err != nil {
		return nil, gwerrors.Internal("build upstream request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)
	req.Header.Set("x-goog-api-client", clientID)
	return req, nil
}

// GenerateContent performs a non-streaming chat completion call.
func (g *geminiClient) GenerateContent(ctx context.Context, apiKey, model string, body *gemini.Request) (*gemini.Response, error) {
	req, err := g.newRequest(ctx, apiKey, "generateContent", model, false, body)
	if err != nil {
		return nil, err
	}

	res, err := g.client.Do(req)
	if err != nil {
		return nil, gwerrors.UpstreamTimeout("gemini generateContent request failed", err)
	}
	defer res.Body.Close()

	raw, gwErr := readUpstreamBody(res)
	if gwErr != nil {
		return nil, gwErr
	}

	var out gemini.Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, gwerrors.Internal("decode gemini response", err)
	}
	return &out, nil
}

// StreamGenerateContent performs a streaming chat completion call and
// returns the raw *http.Response for the caller to scan SSE lines from.
// A non-2xx status before any bytes are returned is surfaced as-is
// (same status, upstream body text in the message) rather than through
// readUpstreamBody's friendly mapping, since headers haven't been
// flushed to the client yet.
func (g *geminiClient) StreamGenerateContent(ctx context.Context, apiKey, model string, body *gemini.Request) (*http.Response, error) {
	req, err := g.newRequest(ctx, apiKey, "streamGenerateContent", model, true, body)
	if err != nil {
		return nil, err
	}

	res, err := g.client.Do(req)
	if err != nil {
		return nil, gwerrors.UpstreamTimeout("gemini streamGenerateContent request failed", err)
	}
	if res.StatusCode >= 300 {
		raw, err := io.ReadAll(res.Body)
		res.Body.Close()
		if err != nil {
			return nil, gwerrors.Internal("read upstream response body", err)
		}
		return nil, gwerrors.New(res.StatusCode, gwerrors.CodeUpstream, "gemini rejected stream request: "+string(raw))
	}
	return res, nil
}

// embedRequest/embedResponse are the embedContent wire shapes, not
// otherwise shared with the chat request/response types.
type embedRequest struct {
	Content gemini.Content `json:"content"`
}

type embedResponse struct {
	Embedding struct {
		Values []float64 `json:"values"`
	} `json:"embedding"`
}

// EmbedContent embeds a single input text.
func (g *geminiClient) EmbedContent(ctx context.Context, apiKey, model, text string) ([]float64, error) {
	body := embedRequest{Content: gemini.Content{Parts: []gemini.Part{{Text: text}}}}

	req, err := g.newRequest(ctx, apiKey, "embedContent", model, false, body)
	if err != nil {
		return nil, err
	}

	res, err := g.client.Do(req)
	if err != nil {
		return nil, gwerrors.UpstreamTimeout("gemini embedContent request failed", err)
	}
	defer res.Body.Close()

	raw, gwErr := readUpstreamBody(res)
	if gwErr != nil {
		return nil, gwErr
	}

	var out embedResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, gwerrors.Internal("decode gemini embedding response", err)
	}
	return out.Embedding.Values, nil
}

// readUpstreamBody maps a non-2xx Gemini response to a friendly
// *gwerrors.Error; by-code mapping keeps the most common statuses
// distinguishable. Only the 400 case relays the raw upstream text to
// the client; the other statuses get a fixed message.
func readUpstreamBody(res *http.Response) ([]byte, *gwerrors.Error) {
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, gwerrors.Internal("read upstream response body", err)
	}
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return raw, nil
	}

	switch res.StatusCode {
	case http.StatusTooManyRequests:
		return nil, gwerrors.New(http.StatusTooManyRequests, gwerrors.CodeRateLimited, "gemini rate limited the request")
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, gwerrors.New(http.StatusBadGateway, gwerrors.CodeUpstream, "gemini rejected the configured credential")
	case http.StatusBadRequest:
		return nil, gwerrors.New(http.StatusBadGateway, gwerrors.CodeUpstream, "gemini rejected the request: "+string(raw))
	default:
		return nil, gwerrors.Upstream(fmt.Sprintf("gemini returned status %d", res.StatusCode), nil)
	}
}
