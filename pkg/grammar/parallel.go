package grammar

import (
	"context"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/chazu/robogram/pkg/graph"
)

// cancelCheckInterval is the number of steps a branch takes between
// context checks.
const cancelCheckInterval = 256

// FindMatchesParallel returns the same matches as FindMatches, in the
// same order, by searching each first-level branch of the search tree in
// its own goroutine. Branches share only the read-only plan. It returns
// the context error if ctx is cancelled before the search completes.
func FindMatchesParallel(ctx context.Context, pattern, target *graph.Graph) ([]graph.GraphMapping, error) {
	p := newPlan(pattern, target)
	root := p.root()
	if p.complete(root) {
		return []graph.GraphMapping{root.mapping()}, nil
	}

	branches := p.expand(root)
	results := make([][]graph.GraphMapping, len(branches))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, branch := range branches {
		g.Go(func() error {
			s := &Search{plan: p, stack: []*state{branch}}
			for n := 0; !s.Done(); n++ {
				if n%cancelCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				if m, ok := s.step(); ok {
					results[i] = append(results[i], m)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return slices.Concat(results...), nil
}
