package ttsstate

import (
	"context"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"

	"github.com/daoch4n/zen-router/internal/kv"
)

// RetryingStore wraps a kv.Store with an exponential-backoff retry
// policy (starting at 200ms, factor 2, ~5 attempts). Reads are retried
// with the same policy since a transient failure reading state is
// indistinguishable from one writing it.
type RetryingStore struct {
	inner  kv.Store
	policy failsafe.Policy[any]
}

// WithRetry builds the default retry policy (200ms initial, x2, 5
// attempts = 1 initial + 4 retries, capped at 5s) over inner.
func WithRetry(inner kv.Store) *RetryingStore {
	policy := retrypolicy.Builder[any]().
		WithBackoff(200*time.Millisecond, 5*time.Second).
		WithMaxRetries(4).
		Build()
	return &RetryingStore{inner: inner, policy: policy}
}

func (r *RetryingStore) Get(ctx context.Context, scope, key string) ([]byte, bool, error) {
	var value []byte
	var found bool
	err := failsafe.Run(func() error {
		v, ok, err := r.inner.Get(ctx, scope, key)
		value, found = v, ok
		return err
	}, r.policy)
	return value, found, err
}

func (r *RetryingStore) Put(ctx context.Context, scope, key string, value []byte) error {
	return failsafe.Run(func() error {
		return r.inner.Put(ctx, scope, key, value)
	}, r.policy)
}

func (r *RetryingStore) Delete(ctx context.Context, scope, key string) error {
	return failsafe.Run(func() error {
		return r.inner.Delete(ctx, scope, key)
	}, r.policy)
}

func (r *RetryingStore) DeleteAll(ctx context.Context, scope string) error {
	return failsafe.Run(func() error {
		return r.inner.DeleteAll(ctx, scope)
	}, r.policy)
}

func (r *RetryingStore) SetAlarm(scope string, at int64, fn func()) {
	r.inner.SetAlarm(scope, at, fn)
}
