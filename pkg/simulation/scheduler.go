package simulation

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/behavior"
	"github.com/tochemey/goakt/v3/log"
)

// Scheduler runs the per-boid update of one tick.
//
// Every implementation honors the same contract: when Step returns, no reader can observe a
// partially updated boid. Tasks only write the shadow slot of the boids they own, the grid is
// never mutated while tasks run, and population requests are applied at the tick boundary.
type Scheduler interface {
	Name() string
	Step(w *World, dt float64)
	Close()
}

// NewScheduler builds the scheduler named by cfg.Scheduler.
func NewScheduler(cfg *Config, logger log.Logger) (Scheduler, error) {
	switch cfg.Scheduler {
	case SchedulerSerial:
		return NewSerial(), nil
	case SchedulerWorkers:
		return NewWorkerPool(cfg.Workers, cfg.TickDeadline(), logger), nil
	case SchedulerForkJoin:
		return NewForkJoin(cfg.ChunkSize, cfg.MaxConcurrency), nil
	case SchedulerPipelined:
		return NewPipelined(cfg.ChunkSize, cfg.MaxConcurrency), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheduler, cfg.Scheduler)
	}
}

// Serial updates every boid on the calling goroutine. It is the reference the concurrent
// schedulers are checked against.
type Serial struct {
	scratch *behavior.Scratch
}

func NewSerial() *Serial {
	return &Serial{scratch: behavior.NewScratch(0)}
}

func (s *Serial) Name() string { return SchedulerSerial }

func (s *Serial) Step(w *World, dt float64) {
	w.applyRequests()
	w.ensureWorkers(1)
	w.rebuild()
	n := w.Len()
	w.updateRange(0, n, dt, s.scratch)
	w.publishRange(0, n)
}

func (s *Serial) Close() {}
