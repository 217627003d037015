package credgate

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRotateConcurrencySingleWinner(t *testing.T) {
	engine, store := newTestEngine(t, nil)
	seedPrincipal(t, store, "user-1", "admin", "admin123", true)

	pair, _, err := engine.Login(context.Background(), "admin", "admin123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := engine.Rotate(context.Background(), pair.RenewalToken)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	fail := 0
	for err := range results {
		if err == nil {
			success++
			continue
		}
		if errors.Is(err, ErrRenewalRevoked) {
			fail++
			continue
		}
		t.Fatalf("unexpected rotation error: %v", err)
	}

	if success != 1 {
		t.Fatalf("expected exactly one rotation success, got %d", success)
	}
	if fail != n-1 {
		t.Fatalf("expected %d rotation rejections, got %d", n-1, fail)
	}
}
