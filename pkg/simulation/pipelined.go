package simulation

import (
	"golang.org/x/sync/errgroup"
)

// Pipelined overlaps ticks: Step waits for the previous tick's tasks, publishes them, applies
// pending requests, rebuilds the grid and submits the new tasks without waiting for them.
// The visible state therefore lags exactly one tick behind the submitted work.
type Pipelined struct {
	pool     *chunkPool
	inflight *errgroup.Group
	world    *World
}

func NewPipelined(chunkSize, maxConcurrency int) *Pipelined {
	return &Pipelined{pool: newChunkPool(chunkSize, maxConcurrency)}
}

func (p *Pipelined) Name() string { return SchedulerPipelined }

func (p *Pipelined) Step(w *World, dt float64) {
	p.drain()

	w.applyRequests()
	w.ensureWorkers(p.pool.limit)
	w.rebuild()

	g := new(errgroup.Group)
	g.Go(func() error { return p.pool.run(w, dt) })
	p.inflight = g
	p.world = w
}

// drain waits for the in-flight tick, if any, and publishes it.
func (p *Pipelined) drain() {
	if p.inflight == nil {
		return
	}
	_ = p.inflight.Wait()
	p.world.publishRange(0, p.world.Len())
	p.inflight = nil
	p.world = nil
}

// Close waits for the in-flight tick and publishes it.
func (p *Pipelined) Close() {
	p.drain()
}
