package main

import (
	"context"
	"sync"
)

// stageResult wraps the output of one fan-out input with its error.
type stageResult[Out any] struct {
	Value Out
	Err   error
	Index int // original index in the input slice
}

// stage defines a concurrent processing step over a batch of inputs.
type stage[In, Out any] struct {
	Name        string
	Concurrency int // maximum number of concurrent workers
	Process     func(ctx context.Context, input In) (Out, error)
}

// runStage executes the stage's Process function over all inputs with bounded
// concurrency. Each worker operates on its own copy of the input; results are
// returned in the same order as inputs.
func runStage[In, Out any](ctx context.Context, s stage[In, Out], inputs []In) []stageResult[Out] {
	if len(inputs) == 0 {
		return nil
	}

	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	if concurrency > len(inputs) {
		concurrency = len(inputs)
	}

	results := make([]stageResult[Out], len(inputs))
	sem := make(chan struct{}, concurrency)

	var wg sync.WaitGroup
	for i, input := range inputs {
		wg.Add(1)
		go func(idx int, in In) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx] = stageResult[Out]{Err: ctx.Err(), Index: idx}
				return
			}

			if ctx.Err() != nil {
				results[idx] = stageResult[Out]{Err: ctx.Err(), Index: idx}
				return
			}

			out, err := s.Process(ctx, in)
			results[idx] = stageResult[Out]{Value: out, Err: err, Index: idx}
		}(i, input)
	}

	wg.Wait()
	debugLog("stage %s: processed %d inputs with concurrency %d", s.Name, len(inputs), concurrency)
	return results
}
