package pipeline

import (
	"context"
	"sync"
	"time"

	"optijpeg/internal/encode"
)

// BatchItem names one source file and its optimization destination.
type BatchItem struct {
	InputPath  string
	OutputPath string
}

// BatchOutcome reports one finished batch entry.
type BatchOutcome struct {
	Item   BatchItem
	Result Result
	Err    error
}

// BatchSummary aggregates a batch run. Outcomes appear in completion order;
// items never attempted because the context was canceled are absent.
type BatchSummary struct {
	Completed      int
	Failed         int
	StagedBytes    int64
	OptimizedBytes int64
	Elapsed        time.Duration
	Outcomes       []BatchOutcome
}

// ReductionPercent reports the aggregate size reduction of the completed
// entries.
func (s BatchSummary) ReductionPercent() float64 {
	if s.StagedBytes <= 0 {
		return 0
	}
	return 100 * (1 - float64(s.OptimizedBytes)/float64(s.StagedBytes))
}

// SaveMany optimizes items with up to jobs concurrent workers. Each outcome
// is handed to observe from a single goroutine as it completes, so observe
// may mutate shared state without locking. Canceling the context stops new
// items from being scheduled while in-flight saves finish their cleanup.
func (p *Pipeline) SaveMany(ctx context.Context, items []BatchItem, opts encode.Options, jobs int, observe func(BatchOutcome)) BatchSummary {
	start := time.Now()
	var summary BatchSummary
	if len(items) == 0 {
		summary.Elapsed = time.Since(start)
		return summary
	}

	if jobs < 1 {
		jobs = 1
	}
	if jobs > len(items) {
		jobs = len(items)
	}

	work := make(chan BatchItem)
	outcomes := make(chan BatchOutcome)

	var wg sync.WaitGroup
	wg.Add(jobs)
	for i := 0; i < jobs; i++ {
		go func() {
			defer wg.Done()
			for item := range work {
				result, err := p.SaveFile(ctx, item.InputPath, item.OutputPath, opts)
				outcomes <- BatchOutcome{Item: item, Result: result, Err: err}
			}
		}()
	}

	go func() {
		defer close(work)
		for _, item := range items {
			if ctx.Err() != nil {
				return
			}
			select {
			case <-ctx.Done():
				return
			case work <- item:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	for outcome := range outcomes {
		if outcome.Err != nil {
			summary.Failed++
		} else {
			summary.Completed++
			summary.StagedBytes += outcome.Result.StagedBytes
			summary.OptimizedBytes += outcome.Result.OptimizedBytes
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
		if observe != nil {
			observe(outcome)
		}
	}

	summary.Elapsed = time.Since(start)
	return summary
}
