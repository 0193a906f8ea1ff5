package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCollectsPerUnitErrors(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	results := make([]int, 5)

	errs := Run(context.Background(), 5, 2, func(_ context.Context, i int) error {
		if i == 3 {
			return boom
		}
		results[i] = i * 10
		return nil
	})

	require.Len(t, errs, 5)
	for i, err := range errs {
		if i == 3 {
			assert.ErrorIs(t, err, boom)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, i*10, results[i])
	}
}

func TestRunRespectsLimit(t *testing.T) {
	t.Parallel()

	var inFlight, peak atomic.Int32
	block := make(chan struct{})
	started := make(chan struct{}, 10)

	done := make(chan []error)
	go func() {
		done <- Run(context.Background(), 10, 3, func(_ context.Context, _ int) error {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			started <- struct{}{}
			<-block
			inFlight.Add(-1)
			return nil
		})
	}()

	for i := 0; i < 3; i++ {
		<-started
	}
	close(block)
	errs := <-done

	assert.LessOrEqual(t, peak.Load(), int32(3))
	for _, err := range errs {
		assert.NoError(t, err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	errs := Run(ctx, 4, 2, func(context.Context, int) error {
		calls.Add(1)
		return nil
	})

	assert.Equal(t, int32(0), calls.Load())
	for _, err := range errs {
		assert.ErrorIs(t, err, context.Canceled)
	}
}

func TestRunEmpty(t *testing.T) {
	t.Parallel()

	errs := Run(context.Background(), 0, 4, func(context.Context, int) error { return nil })
	assert.Empty(t, errs)
}
