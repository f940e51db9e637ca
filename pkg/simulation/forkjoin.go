package simulation

import (
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/behavior"
	"golang.org/x/sync/errgroup"
)

// chunkPool runs fixed size chunks of the flock as tasks, at most limit at a time.
// A task borrows one of limit slots for its whole run, the slot selects its scratch buffers.
type chunkPool struct {
	chunkSize int
	limit     int
	slots     chan int
	scratch   []*behavior.Scratch
}

func newChunkPool(chunkSize, limit int) *chunkPool {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if limit < 1 {
		limit = 1
	}
	c := &chunkPool{
		chunkSize: chunkSize,
		limit:     limit,
		slots:     make(chan int, limit),
		scratch:   make([]*behavior.Scratch, limit),
	}
	for i := 0; i < limit; i++ {
		c.slots <- i
		c.scratch[i] = behavior.NewScratch(i)
	}
	return c
}

// run updates every boid of w and returns when all chunks are done.
func (c *chunkPool) run(w *World, dt float64) error {
	var g errgroup.Group
	g.SetLimit(c.limit)
	n := w.Len()
	for lo := 0; lo < n; lo += c.chunkSize {
		hi := min(lo+c.chunkSize, n)
		g.Go(func() error {
			slot := <-c.slots
			defer func() { c.slots <- slot }()
			w.updateRange(lo, hi, dt, c.scratch[slot])
			return nil
		})
	}
	return g.Wait()
}

// ForkJoin submits one task per chunk every tick and blocks until they all complete.
// Chunk size is independent of the concurrency limit, finer chunks balance better.
type ForkJoin struct {
	pool *chunkPool
}

func NewForkJoin(chunkSize, maxConcurrency int) *ForkJoin {
	return &ForkJoin{pool: newChunkPool(chunkSize, maxConcurrency)}
}

func (f *ForkJoin) Name() string { return SchedulerForkJoin }

func (f *ForkJoin) Step(w *World, dt float64) {
	w.applyRequests()
	w.ensureWorkers(f.pool.limit)
	w.rebuild()
	_ = f.pool.run(w, dt)
	w.publishRange(0, w.Len())
}

func (f *ForkJoin) Close() {}
