// Package ttsstate implements the durable per-job TTS record. Each
// job's record lives under its own KV scope ("job:<jobId>") so Store
// persists independently per job while sharing the same underlying
// table as the Router-Counter.
package ttsstate

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/daoch4n/zen-router/internal/kv"
)

const stateKey = "state"

// State is the durable record for one TTS job.
type State struct {
	JobID                string         `json:"jobId"`
	OriginalText         string         `json:"originalText"`
	VoiceID              string         `json:"voiceId"`
	Initialised          bool           `json:"initialised"`
	CurrentSentenceIndex int            `json:"currentSentenceIndex"`
	AudioChunks          map[int]*string `json:"audioChunks"`
	LastError            string         `json:"lastError,omitempty"`
	ErrorTimestamp       *time.Time     `json:"errorTimestamp,omitempty"`
}

// Manager serializes access to one job's state at a time behind a
// sharded per-jobId mutex, mirroring async_result.go's Manager.mu +
// auths map[string]*Auth pattern generalized to TTS jobs.
type Manager struct {
	store        kv.Store
	inactivityTTL time.Duration

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewManager builds a Manager over store. inactivityTTL is the window
// of inactivity (typically 5 minutes) after which a job's state is
// cleared automatically via the KV alarm mechanism.
func NewManager(store kv.Store, inactivityTTL time.Duration) *Manager {
	return &Manager{store: store, inactivityTTL: inactivityTTL, locks: make(map[string]*sync.Mutex)}
}

func (m *Manager) lockFor(jobID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[jobID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[jobID] = l
	}
	return l
}

func scopeFor(jobID string) string { return "job:" + jobID }

// GetState returns the current state for jobID, or a fresh
// uninitialised sentinel (Initialised == false) if no record exists yet
// or the store read fails — callers tolerate fetch failure by assuming
// a fresh job.
func (m *Manager) GetState(ctx context.Context, jobID string) *State {
	lock := m.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	raw, ok, err := m.store.Get(ctx, scopeFor(jobID), stateKey)
	if err != nil || !ok {
		return &State{JobID: jobID, AudioChunks: map[int]*string{}}
	}

	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return &State{JobID: jobID, AudioChunks: map[int]*string{}}
	}
	if s.AudioChunks == nil {
		s.AudioChunks = map[int]*string{}
	}
	return &s
}

// Initialize sets text/voiceId for jobID. It is idempotent: if the job
// is already initialised with an identical (text, voiceId) pair it is a
// no-op; otherwise progress is reset and the record replaced entirely.
func (m *Manager) Initialize(ctx context.Context, jobID, text, voiceID string) error {
	lock := m.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	existing := m.getStateLocked(ctx, jobID)
	if existing.Initialised && existing.OriginalText == text && existing.VoiceID == voiceID {
		return nil
	}

	fresh := &State{
		JobID:                jobID,
		OriginalText:         text,
		VoiceID:              voiceID,
		Initialised:          true,
		CurrentSentenceIndex: 0,
		AudioChunks:          map[int]*string{},
	}
	return m.persist(ctx, jobID, fresh)
}

// UpdateProgress records the outcome of synthesizing sentence index:
// chunk (base64) on success, or a nil chunk with err set on failure.
// CurrentSentenceIndex tracks the high-water mark, not an acknowledged
// prefix.
func (m *Manager) UpdateProgress(ctx context.Context, jobID string, index int, chunk *string, errMsg string) error {
	lock := m.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	s := m.getStateLocked(ctx, jobID)
	s.AudioChunks[index] = chunk
	if index > s.CurrentSentenceIndex {
		s.CurrentSentenceIndex = index
	}
	if errMsg != "" {
		s.LastError = errMsg
		now := time.Now()
		s.ErrorTimestamp = &now
	} else {
		s.LastError = ""
		s.ErrorTimestamp = nil
	}
	return m.persist(ctx, jobID, s)
}

// DeleteAll purges every key under jobID's scope.
func (m *Manager) DeleteAll(ctx context.Context, jobID string) error {
	lock := m.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()
	return m.store.DeleteAll(ctx, scopeFor(jobID))
}

// ArmInactivityAlarm (re)schedules the job's auto-clear alarm relative
// to now; every mutating operation should call this after persisting so
// the 5-minute window resets on activity.
func (m *Manager) ArmInactivityAlarm(jobID string) {
	if m.inactivityTTL <= 0 {
		return
	}
	deadline := time.Now().Add(m.inactivityTTL).Unix()
	m.store.SetAlarm(scopeFor(jobID), deadline, func() {
		_ = m.DeleteAll(context.Background(), jobID)
	})
}

func (m *Manager) getStateLocked(ctx context.Context, jobID string) *State {
	raw, ok, err := m.store.Get(ctx, scopeFor(jobID), stateKey)
	if err != nil || !ok {
		return &State{JobID: jobID, AudioChunks: map[int]*string{}}
	}
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return &State{JobID: jobID, AudioChunks: map[int]*string{}}
	}
	if s.AudioChunks == nil {
		s.AudioChunks = map[int]*string{}
	}
	return &s
}

func (m *Manager) persist(ctx context.Context, jobID string, s *State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := m.store.Put(ctx, scopeFor(jobID), stateKey, raw); err != nil {
		return err
	}
	m.ArmInactivityAlarm(jobID)
	return nil
}
