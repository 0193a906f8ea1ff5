// Package fanout runs independent per-unit work with bounded concurrency while
// keeping each unit's error separate, so one failing unit never cancels the rest.
package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Run calls fn for every index in [0, n) with at most limit calls in flight
// and returns the error of each unit at its index (nil on success). Units not
// yet started when ctx is done report ctx.Err().
func Run(ctx context.Context, n, limit int, fn func(ctx context.Context, i int) error) []error {
	errs := make([]error, n)
	if n == 0 {
		return errs
	}
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	for i := 0; i < n; i++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			errs[i] = fn(ctx, i)
			return nil
		})
	}

	_ = g.Wait()
	return errs
}
