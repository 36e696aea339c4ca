package router

import (
	"context"
	"sync"
	"testing"

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

func TestIncrementMonotonic(t *testing.T) {
	ctx := context.Background()
	c := New(openTestStore(t), CounterName)

	var last int64
	for i := 0; i < 5; i++ {
		v, err := c.Increment(ctx)
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if v <= last {
			t.Fatalf("counter not monotonic: %d -> %d", last, v)
		}
		last = v
	}
}

func TestSelectWorkerDistributesUniformly(t *testing.T) {
	ctx := context.Background()
	c := New(openTestStore(t), CounterName)

	const poolSize = 4
	counts := make(map[int]int)
	for i := 0; i < 400; i++ {
		idx, err := c.SelectWorker(ctx, poolSize)
		if err != nil {
			t.Fatalf("select worker: %v", err)
		}
		counts[idx]++
	}
	for i := 0; i < poolSize; i++ {
		if counts[i] != 100 {
			t.Errorf("worker %d selected %d times, want 100", i, counts[i])
		}
	}
}

func TestSelectWorkerEmptyPool(t *testing.T) {
	ctx := context.Background()
	c := New(openTestStore(t), CounterName)
	if _, err := c.SelectWorker(ctx, 0); err == nil {
		t.Fatal("expected error for empty pool")
	}
}

func TestIncrementSerializedUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	c := New(openTestStore(t), CounterName)

	var wg sync.WaitGroup
	seen := make(chan int64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := c.Increment(ctx)
			if err != nil {
				t.Error(err)
				return
			}
			seen <- v
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[int64]bool{}
	for v := range seen {
		if unique[v] {
			t.Fatalf("duplicate counter value observed: %d", v)
		}
		unique[v] = true
	}
	if len(unique) != 100 {
		t.Fatalf("expected 100 unique values, got %d", len(unique))
	}
}
