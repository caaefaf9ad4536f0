package analysis

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Factory builds the independent simulator for run i.
type Factory func(i int) (*Simulator, error)

// RunEnsemble advances n simulators to until concurrently. The first failure
// cancels the remaining runs.
func RunEnsemble(ctx context.Context, n int, factory Factory, until float64) ([]*Simulator, error) {
	sims := make([]*Simulator, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			sim, err := factory(i)
			if err != nil {
				return fmt.Errorf("analysis: run %d: %w", i, err)
			}
			if err := sim.AdvanceToContext(ctx, until); err != nil {
				return fmt.Errorf("analysis: run %d: %w", i, err)
			}
			sims[i] = sim
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return sims, nil
}
