package batch

import (
	"context"

	"github.com/denchenko/gmm/internal/core/domain"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultConcurrency is the number of in-flight remote calls of a batch.
	DefaultConcurrency = 4
	// MaxConcurrency caps in-flight remote calls to keep the remote service responsive.
	MaxConcurrency = 8
)

// Operation mutates the remote state for a single user.
type Operation func(ctx context.Context, userID int) error

// Runner applies one Operation to many users, isolating failures per user.
type Runner struct {
	concurrency int
}

// NewRunner creates a Runner. Concurrency is clamped to [1, MaxConcurrency].
func NewRunner(concurrency int) *Runner {
	return &Runner{concurrency: clamp(concurrency)}
}

// Concurrency returns the effective number of in-flight operations.
func (r *Runner) Concurrency() int {
	return r.concurrency
}

// Run invokes op for every user id and never stops early.
// The success list keeps submission order regardless of concurrency.
func (r *Runner) Run(ctx context.Context, userIDs []int, op Operation) *domain.BatchResult {
	if r.concurrency <= 1 || len(userIDs) <= 1 {
		return Sequential(ctx, userIDs, op)
	}

	outcomes := make([]error, len(userIDs))

	var g errgroup.Group
	g.SetLimit(r.concurrency)

	for i, userID := range userIDs {
		g.Go(func() error {
			outcomes[i] = op(ctx, userID)

			return nil
		})
	}

	// Per-item errors live in outcomes, the group itself never fails.
	_ = g.Wait()

	return Reduce(userIDs, outcomes)
}

// Sequential runs op for each user id in input order.
func Sequential(ctx context.Context, userIDs []int, op Operation) *domain.BatchResult {
	result := newResult(len(userIDs))
	for _, userID := range userIDs {
		appendOutcome(result, userID, op(ctx, userID))
	}

	return result
}

// Reduce folds per-position outcomes into a BatchResult.
// outcomes[i] is the error of userIDs[i], nil meaning success.
func Reduce(userIDs []int, outcomes []error) *domain.BatchResult {
	result := newResult(len(userIDs))
	for i, userID := range userIDs {
		var err error
		if i < len(outcomes) {
			err = outcomes[i]
		}
		appendOutcome(result, userID, err)
	}

	return result
}

func newResult(size int) *domain.BatchResult {
	return &domain.BatchResult{
		SuccessUserIDs: make([]int, 0, size),
		Failed:         make([]domain.BatchItemError, 0),
	}
}

func appendOutcome(result *domain.BatchResult, userID int, err error) {
	if err == nil {
		result.SuccessUserIDs = append(result.SuccessUserIDs, userID)

		return
	}

	result.Failed = append(result.Failed, domain.BatchItemError{
		UserID:  userID,
		Message: err.Error(),
	})
}

func clamp(concurrency int) int {
	switch {
	case concurrency < 1:
		return 1
	case concurrency > MaxConcurrency:
		return MaxConcurrency
	default:
		return concurrency
	}
}
