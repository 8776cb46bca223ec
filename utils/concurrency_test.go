package utils

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPoolRunsAllJobs(t *testing.T) {
	pool := NewWorkerPool(3)

	var counter int64
	for i := 0; i < 20; i++ {
		pool.Submit(func() {
			atomic.AddInt64(&counter, 1)
		})
	}
	pool.Wait()

	if counter != 20 {
		t.Errorf("completed %d jobs; want 20", counter)
	}
}

func TestWorkerPoolRespectsConcurrencyLimit(t *testing.T) {
	const limit = 2
	pool := NewWorkerPool(limit)

	var mu sync.Mutex
	active, peak := 0, 0

	for i := 0; i < 10; i++ {
		pool.Submit(func() {
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()

			time.Sleep(5 * time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	pool.Wait()

	if peak > limit {
		t.Errorf("peak concurrency %d exceeded limit %d", peak, limit)
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewLogger()}

	attempts := 0
	err := r.Do(context.Background(), "flaky", func() error {
		attempts++
		if attempts < 3 {
			return errors.New("boom")
		}
		return nil
	})

	if err != nil {
		t.Fatalf("Do returned error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d; want 3", attempts)
	}
}

func TestRetryGivesUp(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: NewLogger()}

	err := r.Do(context.Background(), "hopeless", func() error {
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("Do succeeded; want failure after exhausting attempts")
	}
}

func TestRetryStopsOnCancel(t *testing.T) {
	r := &RetryConfig{MaxAttempts: 10, BaseDelay: time.Hour, Logger: NewLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := r.Do(ctx, "cancelled", func() error {
		return errors.New("boom")
	})

	if err == nil {
		t.Fatal("Do succeeded; want cancellation error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v; want context.Canceled in the chain", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Do kept waiting on back-off after cancellation")
	}
}
