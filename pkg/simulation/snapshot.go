package simulation

import (
	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/geometry"
)

// BoidView is the published state of one boid, as seen by renderers.
type BoidView struct {
	ID       uuid.UUID
	Variant  behavior.Variant
	State    behavior.State
	Forces   behavior.Forces
	Affinity int
}

// CellView is one grid cell and the number of boids bucketed in it at the last rebuild.
type CellView struct {
	Bounds geometry.Rect
	Count  int
}

// Snapshot is a copy of the visible simulation state, safe to hand to another goroutine.
type Snapshot struct {
	Tick      uint64
	Overruns  uint64
	Scheduler string
	Bounds    geometry.Rect
	Boids     []BoidView
	Cells     []CellView
	Variants  map[behavior.Variant]int // population per neighbor strategy
}

// Snapshot copies the visible state of every boid and the grid layout.
func (w *World) Snapshot() *Snapshot {
	s := &Snapshot{
		Tick:      w.Tick(),
		Overruns:  w.Overruns(),
		Scheduler: w.scheduler.Name(),
		Bounds:    w.bounds,
		Boids:     make([]BoidView, len(w.boids)),
		Variants:  make(map[behavior.Variant]int),
	}
	for i, b := range w.boids {
		s.Boids[i] = BoidView{
			ID:       b.ID,
			Variant:  b.Variant,
			State:    b.State,
			Forces:   b.Forces,
			Affinity: b.Affinity,
		}
		s.Variants[b.Variant]++
	}
	cells := w.grid.Cells()
	s.Cells = make([]CellView, len(cells))
	for i := range cells {
		s.Cells[i] = CellView{Bounds: cells[i].Bounds, Count: len(cells[i].Items)}
	}
	return s
}
