package testutil

import (
	"context"
	"sync"
	"testing"
	"time"
)

// ConcurrencyTestConfig holds parameters for concurrency tests.
type ConcurrencyTestConfig struct {
	// NumGoroutines is the number of concurrent operations to run.
	// Default: 20
	NumGoroutines int

	// Timeout is the maximum duration for each operation. Operations that
	// exceed it count as timeouts (potential deadlocks).
	// Default: 3 seconds
	Timeout time.Duration
}

// ConcurrencyTestResult captures the outcome of concurrency tests.
type ConcurrencyTestResult struct {
	SuccessCount int
	ErrorCount   int
	TimeoutCount int
	Errors       []error
}

// RunConcurrentOps executes the same operation from many goroutines at once
// and reports successes, errors, and timeouts. Used to exercise the rank key
// collision retry path: concurrent movers and creators must all land on
// distinct keys without deadlocking sqlite.
func RunConcurrentOps[T any](
	ctx context.Context,
	t *testing.T,
	config ConcurrencyTestConfig,
	setupData func(i int) T,
	execute func(ctx context.Context, data T) error,
) ConcurrencyTestResult {
	t.Helper()

	if config.NumGoroutines == 0 {
		config.NumGoroutines = 20
	}
	if config.Timeout == 0 {
		config.Timeout = 3 * time.Second
	}

	type opResult struct {
		timeout bool
		err     error
	}

	resultChan := make(chan opResult, config.NumGoroutines)
	var wg sync.WaitGroup

	for i := 0; i < config.NumGoroutines; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()

			data := setupData(index)
			opCtx, cancel := context.WithTimeout(ctx, config.Timeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- execute(opCtx, data)
			}()

			select {
			case err := <-done:
				resultChan <- opResult{err: err}
			case <-opCtx.Done():
				resultChan <- opResult{timeout: true, err: opCtx.Err()}
			}
		}(i)
	}

	wg.Wait()
	close(resultChan)

	var result ConcurrencyTestResult
	for r := range resultChan {
		switch {
		case r.timeout:
			result.TimeoutCount++
			result.Errors = append(result.Errors, r.err)
		case r.err != nil:
			result.ErrorCount++
			result.Errors = append(result.Errors, r.err)
		default:
			result.SuccessCount++
		}
	}
	return result
}
