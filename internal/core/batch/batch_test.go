package batch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/denchenko/gmm/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failOn(ids ...int) Operation {
	failing := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		failing[id] = struct{}{}
	}

	return func(_ context.Context, userID int) error {
		if _, ok := failing[userID]; ok {
			return &domain.TransportError{Err: errors.New("connection reset")}
		}

		return nil
	}
}

func TestRunner_Run(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name            string
		concurrency     int
		userIDs         []int
		op              Operation
		expectedSuccess []int
		expectedFailed  []int
	}{
		{
			name:            "middle item fails sequentially",
			concurrency:     1,
			userIDs:         []int{1, 2, 3},
			op:              failOn(2),
			expectedSuccess: []int{1, 3},
			expectedFailed:  []int{2},
		},
		{
			name:            "middle item fails concurrently",
			concurrency:     4,
			userIDs:         []int{1, 2, 3},
			op:              failOn(2),
			expectedSuccess: []int{1, 3},
			expectedFailed:  []int{2},
		},
		{
			name:            "all fail",
			concurrency:     2,
			userIDs:         []int{5, 6},
			op:              failOn(5, 6),
			expectedSuccess: []int{},
			expectedFailed:  []int{5, 6},
		},
		{
			name:            "empty input",
			concurrency:     4,
			userIDs:         nil,
			op:              failOn(),
			expectedSuccess: []int{},
			expectedFailed:  []int{},
		},
		{
			name:            "duplicates yield one outcome each",
			concurrency:     3,
			userIDs:         []int{7, 7, 8},
			op:              failOn(8),
			expectedSuccess: []int{7, 7},
			expectedFailed:  []int{8},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NewRunner(tt.concurrency).Run(ctx, tt.userIDs, tt.op)

			require.NotNil(t, result)
			assert.Equal(t, tt.expectedSuccess, result.SuccessUserIDs)

			failedIDs := make([]int, 0, len(result.Failed))
			for _, item := range result.Failed {
				failedIDs = append(failedIDs, item.UserID)
				assert.NotEmpty(t, item.Message)
			}
			assert.Equal(t, tt.expectedFailed, failedIDs)
			assert.Len(t, tt.userIDs, len(result.SuccessUserIDs)+len(result.Failed))
		})
	}
}

func TestRunner_Run_PreservesOrderUnderConcurrency(t *testing.T) {
	userIDs := make([]int, 0, 40)
	for i := 1; i <= 40; i++ {
		userIDs = append(userIDs, i)
	}

	// Earlier ids finish later so completion order differs from submission order.
	op := func(_ context.Context, userID int) error {
		time.Sleep(time.Duration(41-userID) * 100 * time.Microsecond)
		if userID%5 == 0 {
			return errors.New("rejected")
		}

		return nil
	}

	result := NewRunner(8).Run(context.Background(), userIDs, op)

	var expectedSuccess, expectedFailed []int
	for _, id := range userIDs {
		if id%5 == 0 {
			expectedFailed = append(expectedFailed, id)
		} else {
			expectedSuccess = append(expectedSuccess, id)
		}
	}

	assert.Equal(t, expectedSuccess, result.SuccessUserIDs)

	failedIDs := make([]int, 0, len(result.Failed))
	for _, item := range result.Failed {
		failedIDs = append(failedIDs, item.UserID)
		assert.Equal(t, "rejected", item.Message)
	}
	assert.Equal(t, expectedFailed, failedIDs)
}

func TestRunner_Run_RespectsConcurrencyLimit(t *testing.T) {
	const limit = 3

	var inFlight, peak atomic.Int32
	op := func(_ context.Context, _ int) error {
		current := inFlight.Add(1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)

		return nil
	}

	userIDs := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	result := NewRunner(limit).Run(context.Background(), userIDs, op)

	assert.Equal(t, userIDs, result.SuccessUserIDs)
	assert.LessOrEqual(t, peak.Load(), int32(limit))
}

func TestRunner_Run_DoesNotShortCircuit(t *testing.T) {
	var mu sync.Mutex
	attempted := make([]int, 0)

	op := func(_ context.Context, userID int) error {
		mu.Lock()
		attempted = append(attempted, userID)
		mu.Unlock()

		return errors.New("always fails")
	}

	result := Sequential(context.Background(), []int{3, 1, 2}, op)

	assert.Equal(t, []int{3, 1, 2}, attempted)
	assert.Empty(t, result.SuccessUserIDs)
	assert.Len(t, result.Failed, 3)
}

func TestReduce(t *testing.T) {
	result := Reduce([]int{1, 2, 3}, []error{nil, errors.New("nope"), nil})

	assert.Equal(t, []int{1, 3}, result.SuccessUserIDs)
	assert.Equal(t, []domain.BatchItemError{{UserID: 2, Message: "nope"}}, result.Failed)
}

func TestNewRunner_ClampsConcurrency(t *testing.T) {
	assert.Equal(t, 1, NewRunner(0).Concurrency())
	assert.Equal(t, 1, NewRunner(-3).Concurrency())
	assert.Equal(t, 5, NewRunner(5).Concurrency())
	assert.Equal(t, MaxConcurrency, NewRunner(64).Concurrency())
}
