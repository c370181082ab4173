package repoclient

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DeleteAll runs independent cleanup operations concurrently and waits for
// all of them. Every operation runs even if another fails; the first error
// is returned.
func DeleteAll(ctx context.Context, ops ...func(context.Context) error) error {
	var g errgroup.Group
	for _, op := range ops {
		g.Go(func() error { return op(ctx) })
	}
	return g.Wait()
}
