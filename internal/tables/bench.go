package tables

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/funvibe/multimethod/internal/config"
	"github.com/funvibe/multimethod/pkg/typesystem"
	"github.com/funvibe/multimethod/pkg/multimethod"
)

// BenchResult summarizes a benchmark run.
type BenchResult struct {
	Calls    int64
	Failures int64
	Elapsed  time.Duration
}

// PerSecond returns the resolution throughput.
func (r BenchResult) PerSecond() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Calls) / r.Elapsed.Seconds()
}

type benchCall struct {
	graph *multimethod.Multimethod
	types []typesystem.Type
}

// Bench resolves every well-formed call of the table iterations times on
// each of workers goroutines. Resolution errors the table expects still
// count as calls; they are tallied as failures.
func (s *Set) Bench(ctx context.Context, workers, iterations int) (BenchResult, error) {
	var calls []benchCall
	for _, call := range s.table.Calls {
		if call.Error == config.ExpectMalformed {
			continue
		}
		types, err := typesystem.ParseAll(s.Universe, call.Args...)
		if err != nil {
			continue
		}
		calls = append(calls, benchCall{graph: s.Namespace.Get(call.Graph), types: types})
	}

	var total, failures atomic.Int64
	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < max(workers, 1); w++ {
		g.Go(func() error {
			for i := 0; i < iterations; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				for _, c := range calls {
					if _, err := c.graph.Resolve(c.types...); err != nil {
						failures.Add(1)
					}
					total.Add(1)
				}
			}
			return nil
		})
	}
	err := g.Wait()
	return BenchResult{Calls: total.Load(), Failures: failures.Load(), Elapsed: time.Since(start)}, err
}
