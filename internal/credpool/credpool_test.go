package credpool

import (
	"sync"
	"testing"
	"time"
)

func TestNextRoundRobin(t *testing.T) {
	p := New([]string{"k1", "k2", "k3"})
	seen := map[string]int{}
	for i := 0; i < 9; i++ {
		k, err := p.Next()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen[k]++
	}
	for _, k := range []string{"k1", "k2", "k3"} {
		if seen[k] != 3 {
			t.Errorf("key %s selected %d times, want 3", k, seen[k])
		}
	}
}

func TestNextEmptyPool(t *testing.T) {
	p := New(nil)
	if _, err := p.Next(); err == nil {
		t.Fatal("expected error for empty pool")
	}
}

func TestNextConcurrent(t *testing.T) {
	p := New([]string{"a", "b", "c", "d"})
	var wg sync.WaitGroup
	results := make(chan string, 400)
	for i := 0; i < 400; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k, _ := p.Next()
			results <- k
		}()
	}
	wg.Wait()
	close(results)
	counts := map[string]int{}
	for k := range results {
		counts[k]++
	}
	if len(counts) != 4 {
		t.Fatalf("expected all 4 keys used, got %v", counts)
	}
}

func TestMarkResultSuspendsFailingKey(t *testing.T) {
	p := New([]string{"only"})
	p.MarkResult("only", false)
	// With a single key in the pool, suspension can't change the pick,
	// but it must not panic and the health map must record the failure.
	if !p.isSuspended(0, time.Now()) {
		t.Fatal("expected the failing key to be suspended")
	}
	k, err := p.Next()
	if err != nil || k != "only" {
		t.Fatalf("unexpected result: %v %v", k, err)
	}
}

func TestAuthenticate(t *testing.T) {
	if !Authenticate("secret", "secret") {
		t.Fatal("expected match")
	}
	if Authenticate("wrong", "secret") {
		t.Fatal("expected mismatch")
	}
	if Authenticate("", "") {
		t.Fatal("empty configured pass must never authenticate")
	}
}
