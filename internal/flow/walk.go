package flow

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/peaceflow/peace/internal/itemspec/rt"
)

// BufferedFuturesMax bounds how many items may run fn concurrently
// during WalkConcurrent, mirroring the original's BUFFERED_FUTURES_MAX
// (crate/rt/src/cmds/ensure_cmd.rs) constant capping in-flight futures
// regardless of how wide the graph's frontier is.
const BufferedFuturesMax = 16

// VisitFunc runs one item's work for a traversal phase. Item-local
// failures should be returned as an error; WalkConcurrent cancels
// remaining unstarted work and returns the first error observed, but
// lets in-flight siblings finish.
type VisitFunc func(ctx context.Context, item int) error

// WalkConcurrent streams the graph in dependency order: an item starts
// as soon as all of its direct predecessors have finished, with at most
// BufferedFuturesMax items running at once (spec §4.9 "predecessors'
// results stream to dependents as they complete, not in separate
// homogeneous passes over the whole item set"). Item index refers to
// g.ItemsInOrder()'s order.
//
// Waiting for predecessors and running fn are kept on separate
// goroutine pools: a plain (unbounded) goroutine per item blocks on its
// predecessors' done channels, then hands the actual fn call to the
// errgroup, which is what maxConcurrent limits. If instead every item's
// wait-then-run were itself one of the eg.SetLimit-bounded goroutines,
// items could fill all available slots waiting on predecessors that
// g.items doesn't store in topological order and whose own eg.Go call
// would then never get a free slot to run in — a self-inflicted
// deadlock. Dispatching the wait outside the limit avoids that
// regardless of insertion order.
func (g *Graph) WalkConcurrent(ctx context.Context, maxConcurrent int, fn VisitFunc) error {
	if maxConcurrent <= 0 {
		maxConcurrent = BufferedFuturesMax
	}
	n := len(g.items)
	done := make([]chan struct{}, n)
	for i := range done {
		done[i] = make(chan struct{})
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxConcurrent)

	// failed[i] is written before done[i] is closed and read only after it.
	failed := make([]bool, n)

	var dispatch sync.WaitGroup
	dispatch.Add(n)
	for i := 0; i < n; i++ {
		i := i
		go func() {
			defer dispatch.Done()
			for _, p := range g.preds[i] {
				select {
				case <-done[p]:
					if failed[p] {
						return
					}
				case <-egCtx.Done():
					return
				}
			}
			eg.Go(func() error {
				if egCtx.Err() != nil {
					return nil
				}
				err := fn(egCtx, i)
				failed[i] = err != nil
				close(done[i])
				return err
			})
		}()
	}
	dispatch.Wait()

	return eg.Wait()
}

// ItemAt returns the item at insertion-order index i, as used by
// WalkConcurrent's VisitFunc to resolve the concrete item for index i.
func (g *Graph) ItemAt(i int) rt.ItemSpecRt { return g.items[i] }
