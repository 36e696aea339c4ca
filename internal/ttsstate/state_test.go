package ttsstate

import (
	"context"
	"testing"
	"time"

	"github.com/daoch4n/zen-router/internal/kv"
)

func openTestStore(t *testing.T) *kv.SQLiteStore {
	t.Helper()
	store, err := kv.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInitializeIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewManager(openTestStore(t), time.Minute)

	if err := m.Initialize(ctx, "job1", "hello world", "v1"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := m.UpdateProgress(ctx, "job1", 0, strPtr("chunk0"), ""); err != nil {
		t.Fatalf("update progress: %v", err)
	}

	// Re-initialize with identical text/voice must be a no-op.
	if err := m.Initialize(ctx, "job1", "hello world", "v1"); err != nil {
		t.Fatalf("re-initialize: %v", err)
	}
	s := m.GetState(ctx, "job1")
	if s.CurrentSentenceIndex != 0 || s.AudioChunks[0] == nil {
		t.Fatalf("idempotent initialize must not reset progress: %+v", s)
	}

	// Re-initialize with different text must reset.
	if err := m.Initialize(ctx, "job1", "different text", "v1"); err != nil {
		t.Fatalf("re-initialize with new text: %v", err)
	}
	s = m.GetState(ctx, "job1")
	if len(s.AudioChunks) != 0 || s.CurrentSentenceIndex != 0 {
		t.Fatalf("expected reset state, got %+v", s)
	}
}

func TestUpdateProgressHighWaterMark(t *testing.T) {
	ctx := context.Background()
	m := NewManager(openTestStore(t), time.Minute)
	_ = m.Initialize(ctx, "job2", "a. b. c.", "v1")

	_ = m.UpdateProgress(ctx, "job2", 1, strPtr("c1"), "")
	_ = m.UpdateProgress(ctx, "job2", 0, strPtr("c0"), "")

	s := m.GetState(ctx, "job2")
	if s.CurrentSentenceIndex != 1 {
		t.Fatalf("expected high-water mark 1, got %d", s.CurrentSentenceIndex)
	}
	if s.AudioChunks[0] == nil || *s.AudioChunks[0] != "c0" {
		t.Fatalf("chunk 0 not preserved: %+v", s.AudioChunks)
	}
}

func TestUpdateProgressError(t *testing.T) {
	ctx := context.Background()
	m := NewManager(openTestStore(t), time.Minute)
	_ = m.Initialize(ctx, "job3", "a. b.", "v1")

	if err := m.UpdateProgress(ctx, "job3", 0, nil, "HTTP error Status 503"); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	s := m.GetState(ctx, "job3")
	if s.AudioChunks[0] != nil {
		t.Fatalf("expected nil chunk on failure")
	}
	if s.LastError == "" || s.ErrorTimestamp == nil {
		t.Fatalf("expected lastError/timestamp set: %+v", s)
	}

	if err := m.UpdateProgress(ctx, "job3", 0, strPtr("retry-ok"), ""); err != nil {
		t.Fatalf("update progress: %v", err)
	}
	s = m.GetState(ctx, "job3")
	if s.LastError != "" || s.ErrorTimestamp != nil {
		t.Fatalf("expected error cleared after success: %+v", s)
	}
}

func TestGetStateUninitialisedSentinel(t *testing.T) {
	ctx := context.Background()
	m := NewManager(openTestStore(t), time.Minute)
	s := m.GetState(ctx, "nonexistent")
	if s.Initialised {
		t.Fatalf("expected sentinel state for unknown job")
	}
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	m := NewManager(openTestStore(t), time.Minute)
	_ = m.Initialize(ctx, "job4", "text", "v1")
	if err := m.DeleteAll(ctx, "job4"); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	s := m.GetState(ctx, "job4")
	if s.Initialised {
		t.Fatalf("expected state purged")
	}
}

func strPtr(s string) *string { return &s }
