package handler

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// fetchAll runs the tasks concurrently and fails the whole batch on the
// first error: remaining tasks see a cancelled context. Used by loaders
// where a partial page is worse than an error.
func fetchAll(ctx context.Context, tasks ...func(context.Context) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		g.Go(func() error {
			return task(ctx)
		})
	}
	return g.Wait()
}

// fetchSettled runs the tasks concurrently and waits for every one to
// finish, failures included. Each task's outcome is reported in the
// returned slice, index-aligned with the input; one failure never cancels
// its siblings. Used by loaders that degrade sections independently.
func fetchSettled(ctx context.Context, tasks ...func(context.Context) error) []error {
	errs := make([]error, len(tasks))

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		i, task := i, task
		go func() {
			defer wg.Done()
			errs[i] = task(ctx)
		}()
	}
	wg.Wait()

	return errs
}
