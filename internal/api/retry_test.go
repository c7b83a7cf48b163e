package api

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// recordSleeps replaces the executor's sleep with one that records delays and returns at once.
func recordSleeps(e *Executor) *[]time.Duration {
	var mu sync.Mutex
	delays := &[]time.Duration{}
	e.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		*delays = append(*delays, d)
		mu.Unlock()
		return ctx.Err()
	}
	return delays
}

func TestExecutorDo(t *testing.T) {
	t.Run("success on first attempt", func(t *testing.T) {
		e := NewExecutor(DefaultRetryConfig(), nil)
		delays := recordSleeps(e)

		calls := 0
		err := e.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
		if len(*delays) != 0 {
			t.Errorf("delays = %v, want none", *delays)
		}
	})

	t.Run("fails twice then succeeds with doubling backoff", func(t *testing.T) {
		e := NewExecutor(DefaultRetryConfig(), nil)
		delays := recordSleeps(e)

		calls := 0
		err := e.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("503")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
		want := []time.Duration{500 * time.Millisecond, time.Second}
		if len(*delays) != len(want) {
			t.Fatalf("delays = %v, want %v", *delays, want)
		}
		for i := range want {
			if (*delays)[i] != want[i] {
				t.Errorf("delay[%d] = %v, want %v", i, (*delays)[i], want[i])
			}
		}
	})

	t.Run("exhausted", func(t *testing.T) {
		e := NewExecutor(DefaultRetryConfig(), nil)
		delays := recordSleeps(e)

		failure := errors.New("boom")
		calls := 0
		err := e.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return failure
		})
		if !errors.Is(err, ErrRetriesExhausted) {
			t.Fatalf("error = %v, want ErrRetriesExhausted", err)
		}
		if !errors.Is(err, failure) {
			t.Errorf("error = %v, want it to wrap the last failure", err)
		}
		if calls != 4 {
			t.Errorf("calls = %d, want 4", calls)
		}
		want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
		if len(*delays) != len(want) {
			t.Fatalf("delays = %v, want %v", *delays, want)
		}
		for i := range want {
			if (*delays)[i] != want[i] {
				t.Errorf("delay[%d] = %v, want %v", i, (*delays)[i], want[i])
			}
		}
	})

	t.Run("zero retries", func(t *testing.T) {
		e := NewExecutor(RetryConfig{Timeout: time.Second, MaxRetries: 0}, nil)
		recordSleeps(e)

		calls := 0
		err := e.Do(context.Background(), func(ctx context.Context) error {
			calls++
			return errors.New("fail")
		})
		if !errors.Is(err, ErrRetriesExhausted) {
			t.Fatalf("error = %v, want ErrRetriesExhausted", err)
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
	})

	t.Run("caller cancellation before first attempt", func(t *testing.T) {
		e := NewExecutor(DefaultRetryConfig(), nil)
		recordSleeps(e)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := e.Do(ctx, func(ctx context.Context) error {
			calls++
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		if calls != 0 {
			t.Errorf("calls = %d, want 0", calls)
		}
	})

	t.Run("caller cancellation during attempt is not retried", func(t *testing.T) {
		e := NewExecutor(DefaultRetryConfig(), nil)
		delays := recordSleeps(e)

		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := e.Do(ctx, func(ctx context.Context) error {
			calls++
			cancel()
			<-ctx.Done()
			return ctx.Err()
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		if errors.Is(err, ErrRetriesExhausted) {
			t.Error("cancellation should not be reported as exhaustion")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1", calls)
		}
		if len(*delays) != 0 {
			t.Errorf("delays = %v, want none", *delays)
		}
	})

	t.Run("attempt deadline counts as failure", func(t *testing.T) {
		e := NewExecutor(RetryConfig{Timeout: 20 * time.Millisecond, MaxRetries: 1, BaseDelay: time.Millisecond}, nil)
		recordSleeps(e)

		calls := 0
		err := e.Do(context.Background(), func(ctx context.Context) error {
			calls++
			if calls == 1 {
				<-ctx.Done()
				return ctx.Err()
			}
			return nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls != 2 {
			t.Errorf("calls = %d, want 2", calls)
		}
	})

	t.Run("real sleep honours cancellation", func(t *testing.T) {
		e := NewExecutor(RetryConfig{Timeout: time.Second, MaxRetries: 3, BaseDelay: time.Hour}, nil)

		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			time.Sleep(20 * time.Millisecond)
			cancel()
		}()

		start := time.Now()
		err := e.Do(ctx, func(ctx context.Context) error {
			return errors.New("fail")
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("error = %v, want context.Canceled", err)
		}
		if time.Since(start) > 5*time.Second {
			t.Error("Do did not return promptly after cancellation")
		}
	})
}
