package storyweave

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// RunAll runs tasks concurrently under ctx via errgroup.WithContext: the
// first task to return a non-nil error cancels the group's derived
// context, and RunAll returns that error once every task has returned.
// Used to fan multiple generator runs out against a shared [Context] when
// a run opts into [GeneratorContext.Multithreaded].
func RunAll(ctx context.Context, tasks ...func(context.Context) error) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		task := task
		group.Go(func() error {
			return task(groupCtx)
		})
	}
	return group.Wait()
}
