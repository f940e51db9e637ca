package simulation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/spatial"
	"github.com/tochemey/goakt/v3/log"
)

var (
	ErrRequestQueueFull = errors.New("request queue is full")
	ErrInvalidRequest   = errors.New("invalid request")
	ErrUnknownScheduler = errors.New("unknown scheduler")
)

type requestKind int

const (
	requestAdd requestKind = iota
	requestClear
)

// request is a population change waiting for the next tick boundary.
type request struct {
	kind    requestKind
	count   int
	variant behavior.Variant
}

// World owns the flock and the spatial grid and orchestrates one tick:
// apply pending requests, rebuild the grid, let the scheduler update every boid, publish.
//
// Step, Snapshot and Close must be called from a single goroutine, the tick driver.
// RequestAddBoids and RequestClear are safe from any goroutine.
type World struct {
	cfg      *Config
	logger   log.Logger
	bounds   geometry.Rect
	settings behavior.Settings
	variant  behavior.Variant
	rng      *rand.Rand

	boids   []*behavior.Boid // index addressable, schedulers partition it by index
	grid    *spatial.Grid[*behavior.Boid]
	finders []behavior.Finder // indexed by behavior.Variant

	requests  chan request
	scheduler Scheduler

	tick     atomic.Uint64
	overruns atomic.Uint64
}

// NewWorld validates cfg, allocates the grid, spawns the initial flock and starts the scheduler.
func NewWorld(cfg *Config, logger log.Logger) (*World, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = log.DiscardLogger
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	variant, _ := behavior.ParseVariant(cfg.DefaultVariant)

	w := &World{
		cfg:      cfg,
		logger:   logger,
		bounds:   cfg.Bounds(),
		settings: cfg.Behavior,
		variant:  variant,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		boids:    make([]*behavior.Boid, 0, cfg.NumBoidsAtStart),
		requests: make(chan request, cfg.RequestQueueSize),
	}

	grid, err := spatial.New(w.bounds, cfg.GridDivisionsX, cfg.GridDivisionsY, behavior.PositionOf)
	if err != nil {
		return nil, fmt.Errorf("failed to create grid: %w", err)
	}
	w.grid = grid

	flock := func() []*behavior.Boid { return w.boids }
	for _, v := range behavior.Variants() {
		f, err := behavior.NewFinder(v, flock, grid, w.settings)
		if err != nil {
			return nil, err
		}
		w.finders = append(w.finders, f)
	}

	w.addBoids(cfg.NumBoidsAtStart, variant)

	w.scheduler, err = NewScheduler(cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Infof("world %s ready: %d boids, grid %dx%d, scheduler %s, neighbors %s",
		w.bounds, len(w.boids), cfg.GridDivisionsX, cfg.GridDivisionsY, w.scheduler.Name(), variant)
	return w, nil
}

// Step advances the simulation by dt seconds.
func (w *World) Step(dt float64) {
	w.scheduler.Step(w, dt)
	w.tick.Add(1)
}

// RequestAddBoids queues the creation of count boids using the given neighbor strategy.
// They join the flock at the next tick boundary.
func (w *World) RequestAddBoids(count int, variant behavior.Variant) error {
	if count <= 0 {
		return fmt.Errorf("%w: cannot add %d boids", ErrInvalidRequest, count)
	}
	if !variant.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, variant)
	}
	return w.enqueue(request{kind: requestAdd, count: count, variant: variant})
}

// RequestClear queues the removal of every boid at the next tick boundary.
func (w *World) RequestClear() error {
	return w.enqueue(request{kind: requestClear})
}

func (w *World) enqueue(r request) error {
	select {
	case w.requests <- r:
		return nil
	default:
		return ErrRequestQueueFull
	}
}

// applyRequests drains the requests queued so far. Schedulers call it only when no task is
// reading the flock or the grid.
func (w *World) applyRequests() {
	for n := len(w.requests); n > 0; n-- {
		r := <-w.requests
		switch r.kind {
		case requestAdd:
			w.addBoids(r.count, r.variant)
			w.logger.Infof("added %d %s boids, flock is now %d", r.count, r.variant, len(w.boids))
		case requestClear:
			w.clear()
			w.logger.Info("flock cleared")
		}
	}
}

func (w *World) addBoids(count int, variant behavior.Variant) {
	for i := 0; i < count; i++ {
		b := behavior.NewRandom(w.rng, w.bounds, w.cfg.SpawnInset, w.settings.MinSpeed, variant)
		w.boids = append(w.boids, b)
		w.grid.Add(b)
	}
}

func (w *World) clear() {
	clear(w.boids)
	w.boids = w.boids[:0]
	w.grid.Clear()
}

// ensureWorkers gives the grid a k-nearest scratch buffer for every worker slot.
func (w *World) ensureWorkers(n int) {
	w.grid.SetWorkers(n)
}

func (w *World) rebuild() {
	w.grid.Build(w.boids)
}

// updateRange computes and stages the next state of boids [lo, hi).
// It reads visible state and the grid, and writes only the shadow slots of its own range.
func (w *World) updateRange(lo, hi int, dt float64, scratch *behavior.Scratch) {
	for _, b := range w.boids[lo:hi] {
		neighbors := w.finders[b.Variant].Find(b, scratch)
		next, forces := behavior.Step(b, neighbors, dt, w.bounds, w.settings)
		b.Stage(next, forces, scratch.Worker)
	}
}

func (w *World) publishRange(lo, hi int) {
	for _, b := range w.boids[lo:hi] {
		b.Publish()
	}
}

// Boids exposes the flock. Callers must treat it as read-only.
func (w *World) Boids() []*behavior.Boid { return w.boids }

// Len returns the number of boids.
func (w *World) Len() int { return len(w.boids) }

// Grid exposes the spatial grid. Callers must treat it as read-only.
func (w *World) Grid() *spatial.Grid[*behavior.Boid] { return w.grid }

// Bounds returns the simulated domain.
func (w *World) Bounds() geometry.Rect { return w.bounds }

// Settings returns the flocking rules in use.
func (w *World) Settings() behavior.Settings { return w.settings }

// DefaultVariant is the neighbor strategy of the initial flock.
func (w *World) DefaultVariant() behavior.Variant { return w.variant }

// SchedulerName returns the name of the active scheduler.
func (w *World) SchedulerName() string { return w.scheduler.Name() }

// Tick returns the number of completed Step calls.
func (w *World) Tick() uint64 { return w.tick.Load() }

// Overruns returns the number of ticks that missed the soft deadline.
func (w *World) Overruns() uint64 { return w.overruns.Load() }

// Close stops the scheduler. Work still in flight is waited for and published.
func (w *World) Close() {
	w.scheduler.Close()
}
