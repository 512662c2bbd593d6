package album

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 4

// SyncAll reconciles each distinct album ID with its own coordinator.
// Results are returned in first-seen order of ids. The error is non-nil only
// when an ID is invalid or ctx ends; fetch failures are carried in Results.
func SyncAll(ctx context.Context, ids []string, deps Deps, workers int) ([]Result, error) {
	return SyncAllFunc(ctx, ids, deps, workers, nil)
}

// SyncAllFunc is SyncAll with a callback invoked as each album finishes.
// onResult runs on the worker goroutine and may be called concurrently.
func SyncAllFunc(ctx context.Context, ids []string, deps Deps, workers int, onResult func(Result)) ([]Result, error) {
	if workers <= 0 {
		workers = defaultWorkers
	}

	unique := dedupe(ids)
	coordinators := make([]*Coordinator, len(unique))
	for i, id := range unique {
		c, err := NewCoordinator(id, deps)
		if err != nil {
			return nil, err
		}
		coordinators[i] = c
	}

	results := make([]Result, len(unique))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, c := range coordinators {
		i, c := i, c
		g.Go(func() error {
			results[i] = c.Run(gctx)
			if onResult != nil {
				onResult(results[i])
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, ctx.Err()
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
