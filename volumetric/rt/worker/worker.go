// Package worker runs independent per-row work across a bounded set of goroutines.
package worker

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// bandsPerWorker controls how finely rows are split; more bands even out rows
// with very different costs.
const bandsPerWorker = 4

// Count resolves a configured worker count; n <= 0 means one per CPU.
func Count(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// Rows calls fn once for every y in [0, rows). Rows are processed in bands by at
// most workers goroutines. The context is checked before each row, so a
// cancelled or expired context stops the loop early and its error is returned.
func Rows(ctx context.Context, workers, rows int, fn func(y int) error) error {
	if rows <= 0 {
		return ctx.Err()
	}
	workers = Count(workers)
	if workers > rows {
		workers = rows
	}

	band := (rows + workers*bandsPerWorker - 1) / (workers * bandsPerWorker)
	if band < 1 {
		band = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for start := 0; start < rows; start += band {
		start := start
		end := min(start+band, rows)
		g.Go(func() error {
			for y := start; y < end; y++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := fn(y); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
