package simulation

import (
	"sync"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/behavior"
	"github.com/tochemey/goakt/v3/log"
)

// job is the work handed to one persistent worker for one tick.
type job struct {
	w      *World
	lo, hi int
	dt     float64
}

type poolWorker struct {
	id      int
	start   chan job
	scratch *behavior.Scratch
}

// WorkerPool keeps N goroutines alive, each owning the contiguous index range
// [i·n/N, (i+1)·n/N) of the flock. Ranges are recomputed when the flock size changes.
//
// The controller waits for the workers until the soft deadline. When it expires the tick is
// counted as an overrun and its publish is deferred: every boid keeps its previous visible
// state for one tick, and the next Step joins the late workers and publishes before touching
// the flock again.
type WorkerPool struct {
	logger   log.Logger
	deadline time.Duration
	workers  []*poolWorker
	done     chan int
	wg       sync.WaitGroup

	ranges  [][2]int
	lastLen int

	pending int    // workers started and not yet reported
	stale   *World // world whose last tick is computed but not published
	closed  bool
}

// NewWorkerPool starts n workers. A zero deadline makes the controller wait forever.
func NewWorkerPool(n int, deadline time.Duration, logger log.Logger) *WorkerPool {
	if n < 1 {
		n = 1
	}
	p := &WorkerPool{
		logger:   logger,
		deadline: deadline,
		done:     make(chan int, n),
		lastLen:  -1,
	}
	for i := 0; i < n; i++ {
		pw := &poolWorker{
			id:      i,
			start:   make(chan job, 1),
			scratch: behavior.NewScratch(i),
		}
		p.workers = append(p.workers, pw)
		p.wg.Add(1)
		go p.run(pw)
	}
	return p
}

func (p *WorkerPool) run(pw *poolWorker) {
	defer p.wg.Done()
	for j := range pw.start {
		j.w.updateRange(j.lo, j.hi, j.dt, pw.scratch)
		p.done <- pw.id
	}
}

func (p *WorkerPool) Name() string { return SchedulerWorkers }

func (p *WorkerPool) Step(w *World, dt float64) {
	if p.closed {
		p.logger.Warn("step on a closed worker pool ignored")
		return
	}
	p.settle()

	w.applyRequests()
	w.ensureWorkers(len(p.workers))
	w.rebuild()
	n := w.Len()
	p.partition(n)

	for i, pw := range p.workers {
		pw.start <- job{w: w, lo: p.ranges[i][0], hi: p.ranges[i][1], dt: dt}
	}
	p.pending = len(p.workers)

	var expired <-chan time.Time
	if p.deadline > 0 {
		timer := time.NewTimer(p.deadline)
		defer timer.Stop()
		expired = timer.C
	}
	for p.pending > 0 {
		select {
		case <-p.done:
			p.pending--
		case <-expired:
			w.overruns.Add(1)
			p.stale = w
			p.logger.Warnf("tick %d: %d of %d workers missed the %s deadline, publish deferred",
				w.Tick()+1, p.pending, len(p.workers), p.deadline)
			return
		}
	}
	w.publishRange(0, n)
}

// settle joins the workers of an overrun tick and publishes their results.
func (p *WorkerPool) settle() {
	for ; p.pending > 0; p.pending-- {
		<-p.done
	}
	if p.stale != nil {
		p.stale.publishRange(0, p.stale.Len())
		p.stale = nil
	}
}

// partition splits [0, n) evenly over the workers.
func (p *WorkerPool) partition(n int) {
	if n == p.lastLen {
		return
	}
	size := len(p.workers)
	p.ranges = p.ranges[:0]
	for i := 0; i < size; i++ {
		p.ranges = append(p.ranges, [2]int{i * n / size, (i + 1) * n / size})
	}
	p.lastLen = n
	p.logger.Debugf("worker ranges recomputed for %d boids", n)
}

// Close waits for running workers, publishes a deferred tick and stops the goroutines.
func (p *WorkerPool) Close() {
	if p.closed {
		return
	}
	p.settle()
	p.closed = true
	for _, pw := range p.workers {
		close(pw.start)
	}
	p.wg.Wait()
}
