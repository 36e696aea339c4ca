// Package obslog configures the gateway's structured logger and
// provides the DEBUG_THINKING-style gated tracing helpers used while
// diagnosing dialect translation. Grounded on
// internal/runtime/executor/debug_thinking.go (logrus + an env-gated
// boolean flag) and on gopkg.in/natefinch/lumberjack.v2 for rotation.
package obslog

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Init.
type Options struct {
	Level string // logrus level name; defaults to "info" if empty/invalid
	File  string // if set, logs are rotated into this file via lumberjack
}

// Init configures logrus' standard logger with a text formatter and,
// when opts.File is set, a rotating file writer alongside stderr.
func Init(opts Options) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if opts.File == "" {
		logrus.SetOutput(os.Stderr)
		return
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	logrus.SetOutput(os.Stderr)
	logrus.AddHook(&fileHook{writer: rotator})
}

// fileHook duplicates log entries into the rotating file while leaving
// the default stderr output in place, so operators tailing the
// terminal and the log file both see entries.
type fileHook struct {
	writer *lumberjack.Logger
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(e *logrus.Entry) error {
	line, err := e.Bytes()
	if err != nil {
		return err
	}
	_, err = h.writer.Write(line)
	return err
}

// ThinkingTrace is a DEBUG_THINKING=1 gated tracer: when enabled it logs
// dialect-translation internals that are too noisy for normal
// operation.
type ThinkingTrace struct {
	enabled bool
}

// NewThinkingTrace reports whether DEBUG_THINKING=1 is set in the
// environment, mirroring debug_thinking.go's package-level
// debugThinking var.
func NewThinkingTrace() *ThinkingTrace {
	return &ThinkingTrace{enabled: os.Getenv("DEBUG_THINKING") == "1"}
}

// Enabled reports whether tracing is active.
func (t *ThinkingTrace) Enabled() bool { return t.enabled }

// Requestf logs an outbound request payload truncated for readability.
func (t *ThinkingTrace) Requestf(model string, payload []byte) {
	if !t.enabled {
		return
	}
	logrus.Debugf("[dialect_trace] model=%s request=%s", model, truncate(string(payload), 2000))
}

// RawSSE logs a raw upstream SSE line.
func (t *ThinkingTrace) RawSSE(model string, line []byte) {
	if !t.enabled {
		return
	}
	logrus.Debugf("[dialect_trace] model=%s raw_sse=%s", model, truncate(string(line), 500))
}

// Frame logs a translated output frame.
func (t *ThinkingTrace) Frame(model string, frame []byte) {
	if !t.enabled {
		return
	}
	logrus.Debugf("[dialect_trace] model=%s frame=%s", model, truncate(string(frame), 1000))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...[truncated]"
}
