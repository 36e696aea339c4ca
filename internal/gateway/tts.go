package gateway

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/daoch4n/zen-router/internal/gwerrors"
)

// ttsRequest is the body of POST /tts, /rawtts, and /api/tts.
type ttsRequest struct {
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
	APIKey  string `json:"apiKey"`
}

// handleTTSGateway runs the full resumable, fan-out TTS job over an SSE
// stream, per the gateway-facing TTS Orchestrator variant.
func (e *Engine) handleTTSGateway(c *gin.Context) {
	e.runOrchestratedTTS(c)
}

// handleTTSExternal is the external-facing mirror of /tts: same
// Orchestrator algorithm, a distinct path for callers outside the
// gateway's own client surface.
func (e *Engine) handleTTSExternal(c *gin.Context) {
	e.runOrchestratedTTS(c)
}

func (e *Engine) runOrchestratedTTS(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(gwerrors.BadRequest("invalid tts request body: " + err.Error()))
		return
	}
	if req.Text == "" {
		c.Error(gwerrors.BadRequest("tts request requires non-empty text"))
		return
	}

	jobID := c.Query("jobId")
	if jobID == "" {
		jobID = uuid.NewString()
	}

	c.Header("Content-Type", "text/event-stream; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	err := e.deps.TTS.Run(c.Request.Context(), jobID, req.Text, req.VoiceID, func(event string, id int, data []byte) {
		writeTTSFrame(c, event, id, data)
	})
	if err != nil {
		c.Error(gwerrors.Internal("tts orchestration failed", err))
	}
}

// writeTTSFrame renders one TTS SSE frame in the exact wire shape:
// "message"/"error" frames carry an id line and JSON data; "end"
// carries neither.
func writeTTSFrame(c *gin.Context, event string, id int, data []byte) {
	c.Writer.WriteString("event: " + event + "\n")
	if event == "end" {
		c.Writer.WriteString("data: \n\n")
		c.Writer.Flush()
		return
	}
	c.Writer.WriteString("id: " + strconv.Itoa(id) + "\n")
	c.Writer.WriteString("data: " + string(data) + "\n\n")
	c.Writer.Flush()
}

// handleRawTTS synthesizes a single sentence directly against one
// backend worker, bypassing the Orchestrator's job state and sentence
// splitting entirely.
func (e *Engine) handleRawTTS(c *gin.Context) {
	var req ttsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(gwerrors.BadRequest("invalid tts request body: " + err.Error()))
		return
	}
	if req.Text == "" {
		c.Error(gwerrors.BadRequest("tts request requires non-empty text"))
		return
	}

	audioB64, err := e.deps.TTS.Synthesize(c.Request.Context(), req.Text, req.VoiceID)
	if err != nil {
		c.Error(gwerrors.Internal("tts synthesis failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"audioContentBase64": audioB64})
}

type ttsStateRequest struct {
	JobID   string `json:"jobId"`
	Text    string `json:"text"`
	VoiceID string `json:"voiceId"`
}

// handleTTSInitialize exposes TTSJobState.initialize as a standalone
// endpoint, mirroring the durable-object-style call path used for state
// mutation outside the full orchestrated run.
func (e *Engine) handleTTSInitialize(c *gin.Context) {
	var req ttsStateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.JobID == "" {
		c.Error(gwerrors.BadRequest("initialize requires jobId, text, voiceId"))
		return
	}
	if err := e.deps.TTSState.Initialize(c.Request.Context(), req.JobID, req.Text, req.VoiceID); err != nil {
		c.Error(gwerrors.Internal("tts state initialize failed", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobId": req.JobID, "initialised": true})
}

type updateProgressRequest struct {
	JobID      string  `json:"jobId"`
	Index      int     `json:"index"`
	AudioChunk *string `json:"audioChunk"`
	Error      string  `json:"error,omitempty"`
}

// handleTTSUpdateProgress exposes TTSJobState.updateProgress directly.
func (e *Engine) handleTTSUpdateProgress(c *gin.Context) {
	var req updateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.JobID == "" {
		c.Error(gwerrors.BadRequest("update-progress requires jobId and index"))
		return
	}
	if err := e.deps.TTSState.UpdateProgress(c.Request.Context(), req.JobID, req.Index, req.AudioChunk, req.Error); err != nil {
		c.Error(gwerrors.Internal("tts state update failed", err))
		return
	}
	c.Status(http.StatusNoContent)
}

type deleteStateRequest struct {
	JobID string `json:"jobId"`
}

// handleTTSDeleteState exposes TTSJobState.deleteAll directly.
func (e *Engine) handleTTSDeleteState(c *gin.Context) {
	var req deleteStateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.JobID == "" {
		c.Error(gwerrors.BadRequest("delete-state requires jobId"))
		return
	}
	if err := e.deps.TTSState.DeleteAll(c.Request.Context(), req.JobID); err != nil {
		c.Error(gwerrors.Internal("tts state delete failed", err))
		return
	}
	c.Status(http.StatusNoContent)
}
