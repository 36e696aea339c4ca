// Orchestrator resolves/initializes a TTS job, splits its text into
// sentences, replays already-synthesized sentences, and fans the
// remainder out across a bounded-concurrency (K=5) pool of backend
// workers selected by the Router-Counter, emitting one SSE event per
// sentence as it completes.
//
// Grounded on 9beb7f70_apresai-podcaster__internal-tts-gemini.go.go's
// SynthesizeBatch for the per-sentence retry/backend-selection shape,
// generalized from a flat batch into this gateway's resumable,
// SSE-streaming job model (internal/ttsstate, internal/router).
package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"golang.org/x/sync/errgroup"

	"github.com/daoch4n/zen-router/internal/circuitbreaker"
	"github.com/daoch4n/zen-router/internal/router"
	"github.com/daoch4n/zen-router/internal/ttsstate"
)

// FanOutCeiling is the bounded-concurrency limit K on simultaneous
// in-flight sentence syntheses per job.
const FanOutCeiling = 5

// MaxRetries is the number of retries (on top of the initial attempt)
// for a retryable per-sentence failure: 1 initial + 3 retries = 4 total
// attempts.
const MaxRetries = 3

const (
	sentenceTimeout      = 15 * time.Second
	firstSentenceTimeout = 20 * time.Second
)

// BackendConfig names one upstream TTS backend worker endpoint.
type BackendConfig struct {
	BaseURL string
	APIKey  string
}

// Orchestrator owns the full worker pool, the shared Router-Counter,
// and durable job state for every TTS request.
type Orchestrator struct {
	workers       []*BackendWorker
	breakers      *circuitbreaker.Pool
	counter       *router.Counter
	state         *ttsstate.Manager
	retry         failsafe.Policy[[]byte]
	abbreviations []string
}

// NewOrchestrator builds an Orchestrator over the given backend pool,
// sharing counter (the global Router-Counter) and state (the durable
// job-state manager) across every job the process serves.
func NewOrchestrator(backends []BackendConfig, counter *router.Counter, state *ttsstate.Manager) *Orchestrator {
	workers := make([]*BackendWorker, len(backends))
	for i, b := range backends {
		workers[i] = NewBackendWorker(b.BaseURL, b.APIKey)
	}

	retry := retrypolicy.Builder[[]byte]().
		WithBackoff(1*time.Second, 8*time.Second).
		WithMaxRetries(MaxRetries).
		HandleIf(func(_ []byte, err error) bool {
			if err == nil {
				return false
			}
			switch err.(type) {
			case *RetryableError, *TransportError:
				return true
			default:
				return false
			}
		}).
		Build()

	return &Orchestrator{
		workers:       workers,
		breakers:      circuitbreaker.NewPool("tts-backend", len(workers)),
		counter:       counter,
		state:         state,
		retry:         retry,
		abbreviations: DefaultAbbreviations,
	}
}

// WithAbbreviations overrides the sentence splitter's abbreviation list
// (wired from GatewayConfig.AbbreviationList), returning o for chaining.
func (o *Orchestrator) WithAbbreviations(abbreviations []string) *Orchestrator {
	if len(abbreviations) > 0 {
		o.abbreviations = abbreviations
	}
	return o
}

// MessagePayload is the JSON body of a successful sentence's SSE
// "message" event.
type MessagePayload struct {
	AudioChunk string `json:"audioChunk"`
	Index      int    `json:"index"`
	MimeType   string `json:"mimeType"`
	JobID      string `json:"jobId"`
}

// ErrorPayload is the JSON body of a failed sentence's SSE "error"
// event.
type ErrorPayload struct {
	Index              int     `json:"index"`
	Message            string  `json:"message"`
	AudioContentBase64 *string `json:"audioContentBase64"`
	JobID              string  `json:"jobId"`
}

// Emit is called once per SSE frame the orchestrator produces. event is
// "message", "error", or "end"; id is the sentence index (end frames
// pass -1); data is the already-marshaled JSON payload (nil for "end").
type Emit func(event string, id int, data []byte)

// Run executes the full per-request algorithm against rawText, resuming
// jobID from any existing durable state, and calls emit once per SSE
// frame in whatever order each sentence's synthesis completes —
// emission is not re-ordered across sentences; emit's id field carries
// the sentence index so a downstream consumer can reconstruct order.
// Calls to emit are serialized, so emit is never entered by two
// goroutines at once. On resume, every stored chunk up to and including
// CurrentSentenceIndex is replayed first, and only sentences without a
// replayed chunk are synthesized.
func (o *Orchestrator) Run(ctx context.Context, jobID, rawText, voiceID string, emit Emit) error {
	if len(o.workers) == 0 {
		return router.ErrEmptyWorkerPool{}
	}

	existing := o.state.GetState(ctx, jobID)
	if !existing.Initialised || existing.OriginalText != rawText || existing.VoiceID != voiceID {
		if err := o.state.Initialize(ctx, jobID, rawText, voiceID); err != nil {
			return err
		}
		existing = o.state.GetState(ctx, jobID)
	}

	clean := PreprocessText(rawText)
	sentences := SplitSentencesWith(clean, o.abbreviations)

	var emitMu sync.Mutex
	serialEmit := func(event string, id int, data []byte) {
		emitMu.Lock()
		defer emitMu.Unlock()
		emit(event, id, data)
	}

	resumeFrom := existing.CurrentSentenceIndex
	replayed := make(map[int]bool)
	for i := 0; i <= resumeFrom && i < len(sentences); i++ {
		chunk, ok := existing.AudioChunks[i]
		if !ok || chunk == nil {
			continue
		}
		payload, _ := json.Marshal(MessagePayload{AudioChunk: *chunk, Index: i, MimeType: "audio/pcm", JobID: jobID})
		serialEmit("message", i, payload)
		replayed[i] = true
	}

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(FanOutCeiling)

	for i := resumeFrom; i < len(sentences); i++ {
		if replayed[i] {
			continue
		}
		idx := i
		sentence := sentences[idx]
		group.Go(func() error {
			o.processSentence(gctx, jobID, idx, sentence, voiceID, serialEmit)
			return nil
		})
	}
	_ = group.Wait()

	serialEmit("end", -1, nil)
	return nil
}

// processSentence synthesizes one sentence, persists the outcome, and
// emits its SSE frame. Per-sentence failures never abort sibling
// sentences or the job as a whole — they are reported individually.
func (o *Orchestrator) processSentence(ctx context.Context, jobID string, idx int, text, voiceID string, emit Emit) {
	timeout := sentenceTimeout
	if idx == 0 {
		timeout = firstSentenceTimeout
	}
	sctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	workerIdx, err := o.counter.SelectWorker(sctx, len(o.workers))
	if err != nil {
		o.fail(ctx, jobID, idx, err.Error(), emit)
		return
	}

	audio, err := o.synthesize(sctx, workerIdx, text, voiceID)
	if err != nil {
		o.fail(ctx, jobID, idx, err.Error(), emit)
		return
	}

	b64 := base64.StdEncoding.EncodeToString(audio)
	if err := o.state.UpdateProgress(context.Background(), jobID, idx, &b64, ""); err != nil {
		o.fail(ctx, jobID, idx, "persist progress: "+err.Error(), emit)
		return
	}
	payload, _ := json.Marshal(MessagePayload{AudioChunk: b64, Index: idx, MimeType: "audio/pcm", JobID: jobID})
	emit("message", idx, payload)
}

func (o *Orchestrator) fail(ctx context.Context, jobID string, idx int, message string, emit Emit) {
	_ = o.state.UpdateProgress(ctx, jobID, idx, nil, message)
	payload, _ := json.Marshal(ErrorPayload{Index: idx, Message: message, AudioContentBase64: nil, JobID: jobID})
	emit("error", idx, payload)
}

// Synthesize renders a single sentence with no job-state persistence or
// sentence splitting, for the gateway's raw single-shot TTS endpoint.
// It goes through the same counter-selection, circuit breaker, and
// retry policy as an orchestrated sentence.
func (o *Orchestrator) Synthesize(ctx context.Context, text, voiceID string) (string, error) {
	if len(o.workers) == 0 {
		return "", router.ErrEmptyWorkerPool{}
	}

	sctx, cancel := context.WithTimeout(ctx, firstSentenceTimeout)
	defer cancel()

	workerIdx, err := o.counter.SelectWorker(sctx, len(o.workers))
	if err != nil {
		return "", err
	}

	audio, err := o.synthesize(sctx, workerIdx, text, voiceID)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}

// synthesize routes sentence synthesis through the worker's circuit
// breaker and the shared per-sentence retry policy.
func (o *Orchestrator) synthesize(ctx context.Context, workerIdx int, text, voiceID string) ([]byte, error) {
	worker := o.workers[workerIdx]
	breaker := o.breakers.For(workerIdx)

	result, err := breaker.Execute(ctx, func(bctx context.Context) (any, error) {
		return failsafe.Get(func() ([]byte, error) {
			return worker.Synthesize(bctx, text, voiceID)
		}, o.retry)
	})
	if err != nil {
		return nil, err
	}
	audio, _ := result.([]byte)
	return audio, nil
}
