package bench

import (
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

// scenarioFunc times one round against a fresh pool. It returns the number
// of timed operations and the wall time they took.
type scenarioFunc func(s subject, n, workers int) (ops int, elapsed time.Duration)

type scenarioSpec struct {
	description string
	concurrent  bool
	run         scenarioFunc
}

var scenarios = map[string]scenarioSpec{
	"alloc": {
		description: "one goroutine pulls N values and keeps them",
		run:         allocSingle,
	},
	"free": {
		description: "one goroutine releases N held values",
		run:         freeSingle,
	},
	"alloc-mt": {
		description: "W goroutines pull N values each, released together",
		concurrent:  true,
		run:         allocConcurrent,
	},
	"free-mt": {
		description: "W goroutines release N held values each, released together",
		concurrent:  true,
		run:         freeConcurrent,
	},
}

// Scenarios returns the known scenarios, sorted.
func Scenarios() []string {
	return sortedKeys(scenarios)
}

// DescribeScenario returns a one-line description of a scenario.
func DescribeScenario(name string) (string, error) {
	s, ok := scenarios[name]
	if !ok {
		return "", unknown("scenario", name, Scenarios())
	}
	return s.description, nil
}

func allocSingle(s subject, n, _ int) (int, time.Duration) {
	b := s.newBatch(n)
	start := time.Now()
	b.fill(n)
	elapsed := time.Since(start)
	b.drain()
	return n, elapsed
}

func freeSingle(s subject, n, _ int) (int, time.Duration) {
	b := s.newBatch(n)
	b.fill(n)
	start := time.Now()
	b.drain()
	return n, time.Since(start)
}

func allocConcurrent(s subject, n, workers int) (int, time.Duration) {
	batches := make([]batch, workers)
	for i := range batches {
		batches[i] = s.newBatch(n)
	}

	elapsed := together(workers, nil, func(w int) { batches[w].fill(n) })

	for _, b := range batches {
		b.drain()
	}
	return n * workers, elapsed
}

func freeConcurrent(s subject, n, workers int) (int, time.Duration) {
	batches := make([]batch, workers)
	for i := range batches {
		batches[i] = s.newBatch(n)
	}

	elapsed := together(workers,
		func(w int) { batches[w].fill(n) },
		func(w int) { batches[w].drain() },
	)
	return n * workers, elapsed
}

// together runs prepare on every worker, then releases all workers into
// timed at once and returns the wall time until the last one finishes.
func together(workers int, prepare, timed func(w int)) time.Duration {
	var ready sync.WaitGroup
	ready.Add(workers)
	start := make(chan struct{})

	var wg conc.WaitGroup
	for w := 0; w < workers; w++ {
		w := w
		wg.Go(func() {
			if prepare != nil {
				prepare(w)
			}
			ready.Done()
			<-start
			timed(w)
		})
	}

	ready.Wait()
	begin := time.Now()
	close(start)
	wg.Wait()
	return time.Since(begin)
}
