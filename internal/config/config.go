// Package config loads the gateway's runtime configuration from a YAML
// file, environment variables and an optional .env file, and watches
// the YAML file for changes, handing each reloaded Config to a callback
// without a restart. Upstream keys come from GEMINI_API_KEYS (comma
// separated) or, when that is unset, from KEY1, KEY2, ... read in order
// until the first missing number.
//
// Loading order: a .env file (loaded the way Laisky-one-api's
// cmd/test/main.go loads one, via joho/godotenv) is read first so its
// values land in the process environment, then the YAML file supplies
// defaults, and finally explicit environment variables win over both.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/daoch4n/zen-router/internal/tts"
)

// Config is the complete set of gateway runtime settings.
type Config struct {
	ListenAddr      string        `yaml:"listenAddr"`
	GatewayPassword string        `yaml:"-"` // env/secret only, never persisted to YAML
	GeminiKeys      []string      `yaml:"-"` // env/secret only
	GeminiBaseURL   string        `yaml:"geminiBaseUrl"`
	GeminiAPIVersion string       `yaml:"geminiApiVersion"`
	TTSBackends     []string      `yaml:"-"` // env/secret only, BACKEND_SERVICE_1..N
	ColoDenyList    []string      `yaml:"coloDenyList"`
	AbbreviationList []string     `yaml:"abbreviationList"`
	KVPath          string        `yaml:"kvPath"`
	TTSConcurrency  int           `yaml:"ttsConcurrency"`
	TTSInactivity   time.Duration `yaml:"ttsInactivity"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
	DebugThinking   bool          `yaml:"-"`
	LogFile         string        `yaml:"logFile"`
	LogLevel        string        `yaml:"logLevel"`
}

func defaults() Config {
	return Config{
		ListenAddr:       ":8080",
		GeminiBaseURL:    "https://generativelanguage.googleapis.com",
		GeminiAPIVersion: "v1beta",
		ColoDenyList:     []string{"DME", "LED", "SVX", "KJA"},
		AbbreviationList: append([]string(nil), tts.DefaultAbbreviations...),
		KVPath:           "gateway.db",
		TTSConcurrency:   5,
		TTSInactivity:    5 * time.Minute,
		RequestTimeout:   120 * time.Second,
		LogLevel:         "info",
	}
}

// Load builds a Config from (in precedence order, lowest to highest):
// built-in defaults, the YAML file at path (if it exists), a .env file
// in the working directory, and process environment variables.
func Load(path string) (*Config, error) {
	_ = godotenv.Load() // optional; a missing .env is not an error

	cfg := defaults()

	if path != "" {
		if raw, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return nil, fmt.Errorf("parse config yaml %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config yaml %s: %w", path, err)
		}
	}

	applyEnv(&cfg)

	if len(cfg.GeminiKeys) == 0 {
		return nil, fmt.Errorf("no GEMINI_API_KEYS configured")
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	cfg.GatewayPassword = os.Getenv("GATEWAY_PASSWORD")
	if v := os.Getenv("GEMINI_API_KEYS"); v != "" {
		cfg.GeminiKeys = splitCSV(v)
	} else {
		for i := 1; ; i++ {
			k := os.Getenv("KEY" + strconv.Itoa(i))
			if k == "" {
				break
			}
			cfg.GeminiKeys = append(cfg.GeminiKeys, k)
		}
	}
	if v := os.Getenv("GEMINI_BASE_URL"); v != "" {
		cfg.GeminiBaseURL = v
	}
	if v := os.Getenv("GEMINI_API_VERSION"); v != "" {
		cfg.GeminiAPIVersion = v
	}
	cfg.TTSBackends = backendServicesFromEnv()
	if v := os.Getenv("COLO_DENY_LIST"); v != "" {
		cfg.ColoDenyList = splitCSV(v)
	}
	if v := os.Getenv("TTS_ABBREVIATIONS"); v != "" {
		cfg.AbbreviationList = splitCSV(v)
	}
	if v := os.Getenv("KV_PATH"); v != "" {
		cfg.KVPath = v
	}
	if v := os.Getenv("TTS_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TTSConcurrency = n
		}
	}
	if v := os.Getenv("TTS_INACTIVITY"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.TTSInactivity = d
		}
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.RequestTimeout = d
		}
	}
	cfg.DebugThinking = os.Getenv("DEBUG_THINKING") == "1"
	if v := os.Getenv("LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// backendServicesFromEnv reads BACKEND_SERVICE_1, BACKEND_SERVICE_2, ...
// contiguously starting at 1, stopping at the first unset index.
func backendServicesFromEnv() []string {
	var out []string
	for i := 1; ; i++ {
		v := os.Getenv("BACKEND_SERVICE_" + strconv.Itoa(i))
		if v == "" {
			break
		}
		out = append(out, v)
	}
	return out
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Watcher reloads the YAML portion of the config on file change and
// invokes onReload with the merged result. Secrets (GatewayPassword,
// GeminiKeys) are re-read from the environment on every reload too,
// since operators rotate those via env/.env, not the YAML file.
type Watcher struct {
	path  string
	mu    sync.Mutex
	fsw   *fsnotify.Watcher
	stopC chan struct{}
}

// WatchFile starts watching path for writes and calls onReload with the
// freshly-loaded Config after each one. Returns a Watcher the caller
// must Close on shutdown. If path is empty, returns a no-op Watcher.
func WatchFile(path string, onReload func(*Config)) (*Watcher, error) {
	w := &Watcher{path: path, stopC: make(chan struct{})}
	if path == "" {
		return w, nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create config watcher: %w", err)
	}
	if err := fsw.Add(path); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch config file %s: %w", path, err)
	}
	w.fsw = fsw

	go func() {
		for {
			select {
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				cfg, err := Load(path)
				if err != nil {
					log.WithError(err).Warn("config reload failed, keeping previous config")
					continue
				}
				log.Info("config file changed, reloaded")
				onReload(cfg)
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("config watcher error")
			case <-w.stopC:
				return
			}
		}
	}()

	return w, nil
}

// Close stops the watcher goroutine, if one is running.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.stopC:
		return nil
	default:
		close(w.stopC)
	}
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}
