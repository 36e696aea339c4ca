// Package router implements the single durable monotonic counter used as
// the round-robin cursor for TTS worker selection.
//
// Unlike credpool's in-memory atomic cursor, this counter must survive a
// process restart (the orchestrator resumes jobs across deploys), so it
// is backed by the durable KV store and serialized with an in-process
// mutex per counter name — a single-writer record behind the durable KV.
package router

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/daoch4n/zen-router/internal/kv"
)

// CounterName is the fixed, shared counter name every TTS job selects
// its backend worker from.
const CounterName = "global-router-counter"

const counterScope = "router"

// Counter is a durable, serialized monotonic cursor.
type Counter struct {
	store kv.Store
	name  string

	mu sync.Mutex
}

// New returns a Counter for the given logical name backed by store.
func New(store kv.Store, name string) *Counter {
	return &Counter{store: store, name: name}
}

type counterState struct {
	Value int64 `json:"value"`
}

// Increment atomically reads, increments, and persists the counter,
// returning the new value. Concurrent callers on the same process are
// serialized by an internal mutex; cross-process serialization relies
// on the KV implementation not losing the read-modify-write race (the
// gateway runs single-writer per counter name in practice).
func (c *Counter) Increment(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	state, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	state.Value++

	raw, err := json.Marshal(state)
	if err != nil {
		return 0, err
	}
	if err := c.store.Put(ctx, counterScope, c.name, raw); err != nil {
		return 0, err
	}
	return state.Value, nil
}

// Get returns the current counter value without incrementing it.
func (c *Counter) Get(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	state, err := c.load(ctx)
	if err != nil {
		return 0, err
	}
	return state.Value, nil
}

func (c *Counter) load(ctx context.Context) (counterState, error) {
	raw, ok, err := c.store.Get(ctx, counterScope, c.name)
	if err != nil {
		return counterState{}, err
	}
	if !ok {
		return counterState{}, nil
	}
	var state counterState
	if err := json.Unmarshal(raw, &state); err != nil {
		return counterState{}, err
	}
	return state, nil
}

// SelectWorker increments the counter and returns the worker index
// `counter mod poolSize` picks: worker = backends[counter.increment()
// mod backends.length].
func (c *Counter) SelectWorker(ctx context.Context, poolSize int) (int, error) {
	if poolSize <= 0 {
		return 0, ErrEmptyWorkerPool{}
	}
	v, err := c.Increment(ctx)
	if err != nil {
		return 0, err
	}
	return int(v % int64(poolSize)), nil
}

// ErrEmptyWorkerPool is returned by SelectWorker when poolSize is zero.
type ErrEmptyWorkerPool struct{}

func (ErrEmptyWorkerPool) Error() string { return "router: no backend workers configured" }
