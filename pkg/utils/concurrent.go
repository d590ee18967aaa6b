package utils

import (
	"context"
	"sync"
)

// ConcurrentExecutor runs functions with at most a fixed number in flight.
type ConcurrentExecutor struct {
	semaphore chan struct{}
}

// NewConcurrentExecutor creates an executor. A non-positive limit falls back
// to GetSemaphoreLimit.
func NewConcurrentExecutor(maxConcurrency int) *ConcurrentExecutor {
	if maxConcurrency <= 0 {
		maxConcurrency = GetSemaphoreLimit()
	}
	return &ConcurrentExecutor{
		semaphore: make(chan struct{}, maxConcurrency),
	}
}

// Execute runs every function and returns their errors in input order.
// Panics are recovered and reported as *PanicError. Functions that never
// acquire a slot before ctx is done report ctx.Err().
func (e *ConcurrentExecutor) Execute(ctx context.Context, functions ...func() error) []error {
	if len(functions) == 0 {
		return nil
	}

	results := make([]error, len(functions))
	var wg sync.WaitGroup

	for i, fn := range functions {
		wg.Add(1)
		go func(index int, function func() error) {
			defer wg.Done()
			defer RecoverWithCallback(func(err error) {
				results[index] = err
			})

			select {
			case e.semaphore <- struct{}{}:
				defer func() { <-e.semaphore }()
			case <-ctx.Done():
				results[index] = ctx.Err()
				return
			}

			results[index] = function()
		}(i, fn)
	}

	wg.Wait()
	return results
}

// Worker processes a single item for a WorkerPool.
type Worker[T any, R any] func(ctx context.Context, item T) (R, error)

// WorkerPool feeds items to a fixed number of workers.
//
// ProcessItems blocks until every worker returns. Workers stop early when
// ctx is cancelled; items they never reached report ctx.Err().
type WorkerPool[T any, R any] struct {
	numWorkers int
	worker     Worker[T, R]
}

// NewWorkerPool creates a pool with numWorkers workers.
func NewWorkerPool[T any, R any](numWorkers int, worker Worker[T, R]) *WorkerPool[T, R] {
	if numWorkers <= 0 {
		numWorkers = GetSemaphoreLimit()
	}
	return &WorkerPool[T, R]{
		numWorkers: numWorkers,
		worker:     worker,
	}
}

type indexedItem[T any] struct {
	item  T
	index int
}

// ProcessItems runs the worker over items and returns results and errors in
// input order.
func (wp *WorkerPool[T, R]) ProcessItems(ctx context.Context, items []T) ([]R, []error) {
	if len(items) == 0 {
		return nil, nil
	}

	itemsChan := make(chan indexedItem[T], len(items))
	for i, item := range items {
		itemsChan <- indexedItem[T]{item: item, index: i}
	}
	close(itemsChan)

	results := make([]R, len(items))
	errs := make([]error, len(items))
	done := make([]bool, len(items))
	var wg sync.WaitGroup

	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case it, ok := <-itemsChan:
					if !ok {
						return
					}
					func() {
						defer RecoverWithCallback(func(err error) {
							errs[it.index] = err
						})
						results[it.index], errs[it.index] = wp.worker(ctx, it.item)
					}()
					done[it.index] = true
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	wg.Wait()
	if ctx.Err() != nil {
		for i := range done {
			if !done[i] && errs[i] == nil {
				errs[i] = ctx.Err()
			}
		}
	}
	return results, errs
}

// Batch splits items into consecutive chunks of at most batchSize.
func Batch[T any](items []T, batchSize int) [][]T {
	if batchSize <= 0 {
		batchSize = 10
	}

	var batches [][]T
	for i := 0; i < len(items); i += batchSize {
		end := min(i+batchSize, len(items))
		batches = append(batches, items[i:end])
	}
	return batches
}
