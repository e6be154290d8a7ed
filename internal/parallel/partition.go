package parallel

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

var ErrEmpty = errors.New("parallel: nothing to split")

// Range is the half-open interval [Start, End).
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (r Range) Len() int { return r.End - r.Start }

func (r Range) String() string { return fmt.Sprintf("[%d,%d)", r.Start, r.End) }

// Split partitions [0, n) into workers chunks of n/workers cells each, the
// remainder going to the last chunk. workers is clamped to [1, n].
func Split(n, workers int) ([]Range, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: n = %d", ErrEmpty, n)
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	size := n / workers
	ranges := make([]Range, workers)
	for w := range ranges {
		ranges[w] = Range{Start: w * size, End: (w + 1) * size}
	}
	ranges[workers-1].End = n
	return ranges, nil
}

// Func processes one chunk; chunk is its index in the slice passed to For.
type Func func(ctx context.Context, chunk int, r Range) error

// For runs fn over every range with at most limit chunks in flight
// (limit <= 0 means all at once). The first error cancels the context seen
// by the remaining chunks; chunks not yet started are skipped.
func For(ctx context.Context, ranges []Range, limit int, fn Func) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(normalizeLimit(limit, len(ranges)))

	for i, r := range ranges {
		i, r := i, r // per-iteration copies; go directive is 1.21
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i, r)
		})
	}
	return g.Wait()
}

// ForEach runs fn over every range regardless of failures and returns the
// error of each chunk by index.
func ForEach(ctx context.Context, ranges []Range, limit int, fn Func) []error {
	errs := make([]error, len(ranges))

	var g errgroup.Group
	g.SetLimit(normalizeLimit(limit, len(ranges)))
	for i, r := range ranges {
		i, r := i, r // per-iteration copies; go directive is 1.21
		g.Go(func() error {
			errs[i] = fn(ctx, i, r)
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

func normalizeLimit(limit, n int) int {
	if limit <= 0 || limit > n {
		limit = n
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}
