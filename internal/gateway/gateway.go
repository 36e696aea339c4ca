// Package gateway wires the gin routing table that fronts every public
// endpoint: CORS and colo-gating middleware, client bearer auth,
// credential-pool selection, and dispatch into the chat/embeddings/
// messages/models/TTS handlers. Grounded on Laisky-one-api's
// router/api.go (gin.Engine + route-group-per-concern layout) and on
// gwerrors.Middleware() as the single error funnel every handler
// reports through via c.Error instead of writing JSON directly.
package gateway

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daoch4n/zen-router/internal/credpool"
	"github.com/daoch4n/zen-router/internal/gwerrors"
	"github.com/daoch4n/zen-router/internal/tts"
	"github.com/daoch4n/zen-router/internal/ttsstate"
)

// Deps bundles every collaborator the gateway's handlers call into.
type Deps struct {
	GeminiBaseURL    string
	GeminiAPIVersion string
	GatewayPassword  string
	RequestTimeout   time.Duration
	ColoDenyList     func() []string

	Credentials *credpool.Pool
	TTS         *tts.Orchestrator
	TTSState    *ttsstate.Manager
}

// Engine owns the gin.Engine and the dependencies its handlers close
// over.
type Engine struct {
	router *gin.Engine
	deps   Deps
	gemini *geminiClient
}

// New builds the gin engine and registers every route in the table.
func New(deps Deps) *Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	// gwerrors.Middleware must be outermost: its post-handler code still
	// runs even when a later middleware calls c.Abort(), which is how
	// the colo-gate/auth/credential failures below get rendered.
	r.Use(gwerrors.Middleware())
	r.Use(corsMiddleware())
	r.Use(coloGateMiddleware(deps.ColoDenyList))
	r.Use(credentialSelectMiddleware(deps.Credentials))
	r.Use(clientAuthMiddleware(func(bearer string) bool {
		return credpool.Authenticate(bearer, deps.GatewayPassword)
	}))

	e := &Engine{
		router: r,
		deps:   deps,
		gemini: newGeminiClient(deps.GeminiBaseURL, deps.GeminiAPIVersion, deps.RequestTimeout),
	}
	e.registerRoutes()
	return e
}

// Handler returns the http.Handler to pass to an *http.Server.
func (e *Engine) Handler() *gin.Engine { return e.router }

func (e *Engine) registerRoutes() {
	e.router.POST("/v1/messages", e.handleAnthropicMessages)

	e.router.POST("/chat/completions", e.handleChatCompletions)
	e.router.POST("/v1/chat/completions", e.handleChatCompletions)

	e.router.POST("/embeddings", e.handleEmbeddings)
	e.router.POST("/embed", e.handleEmbeddings)
	e.router.POST("/v1/embeddings", e.handleEmbeddings)

	e.router.GET("/models", e.handleModels)
	e.router.GET("/v1/models", e.handleModels)

	e.router.POST("/tts", e.handleTTSGateway)
	e.router.POST("/rawtts", e.handleRawTTS)
	e.router.POST("/api/tts", e.handleTTSExternal)

	e.router.POST("/initialize", e.handleTTSInitialize)
	e.router.POST("/update-progress", e.handleTTSUpdateProgress)
	e.router.POST("/delete-state", e.handleTTSDeleteState)

	e.router.NoRoute(func(c *gin.Context) {
		c.Error(gwerrors.NotFound("unknown path " + c.Request.URL.Path))
	})
	e.router.NoMethod(func(c *gin.Context) {
		c.Error(gwerrors.MethodNotAllowed(c.Request.Method + " not allowed on " + c.Request.URL.Path))
	})
}

// apiKeyContextKey is the gin context key credentialSelectMiddleware
// stores the selected upstream key under.
const apiKeyContextKey = "gateway.upstreamAPIKey"

// credentialSelectMiddleware picks one upstream Gemini key per incoming
// request (the credential cursor advances once per request, not once
// per upstream call) and stashes it for handlers to read.
func credentialSelectMiddleware(pool *credpool.Pool) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, err := pool.Next()
		if err != nil {
			c.Error(gwerrors.Internal("credential selection failed", err))
			c.Abort()
			return
		}
		c.Set(apiKeyContextKey, key)
		c.Next()
	}
}

func upstreamKey(c *gin.Context) string {
	v, _ := c.Get(apiKeyContextKey)
	key, _ := v.(string)
	return key
}
