package cli

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	log "github.com/sirupsen/logrus"

	"github.com/daoch4n/zen-router/internal/config"
	"github.com/daoch4n/zen-router/internal/credpool"
	"github.com/daoch4n/zen-router/internal/gateway"
	"github.com/daoch4n/zen-router/internal/kv"
	"github.com/daoch4n/zen-router/internal/obslog"
	"github.com/daoch4n/zen-router/internal/router"
	"github.com/daoch4n/zen-router/internal/tts"
	"github.com/daoch4n/zen-router/internal/ttsstate"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the gateway HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(GetConfigPath())
	},
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	obslog.Init(obslog.Options{Level: cfg.LogLevel, File: cfg.LogFile})

	store, err := kv.Open(cfg.KVPath)
	if err != nil {
		return fmt.Errorf("open kv store: %w", err)
	}
	defer store.Close()

	retryingStore := ttsstate.WithRetry(store)
	counter := router.New(retryingStore, "global-router-counter")
	state := ttsstate.NewManager(retryingStore, cfg.TTSInactivity)

	orchestrator := tts.NewOrchestrator(backendConfigs(cfg), counter, state).
		WithAbbreviations(cfg.AbbreviationList)

	credentials := credpool.New(cfg.GeminiKeys)

	var live atomic.Pointer[config.Config]
	live.Store(cfg)

	watcher, err := config.WatchFile(configPath, func(reloaded *config.Config) {
		live.Store(reloaded)
	})
	if err != nil {
		return fmt.Errorf("watch config: %w", err)
	}
	defer watcher.Close()

	engine := gateway.New(gateway.Deps{
		GeminiBaseURL:    cfg.GeminiBaseURL,
		GeminiAPIVersion: cfg.GeminiAPIVersion,
		GatewayPassword:  cfg.GatewayPassword,
		RequestTimeout:   cfg.RequestTimeout,
		ColoDenyList:     func() []string { return live.Load().ColoDenyList },
		Credentials:      credentials,
		TTS:              orchestrator,
		TTSState:         state,
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: engine.Handler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.ListenAddr).Info("gateway listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// backendConfigs pairs each configured TTS backend URL with one of the
// Gemini credential pool's keys, round-robin, since every backend
// worker speaks the same key-authenticated Gemini generateContent
// endpoint the main chat path does.
func backendConfigs(cfg *config.Config) []tts.BackendConfig {
	out := make([]tts.BackendConfig, len(cfg.TTSBackends))
	for i, url := range cfg.TTSBackends {
		key := ""
		if len(cfg.GeminiKeys) > 0 {
			key = cfg.GeminiKeys[i%len(cfg.GeminiKeys)]
		}
		out[i] = tts.BackendConfig{BaseURL: url, APIKey: key}
	}
	return out
}
