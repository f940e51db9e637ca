// Package spatial provides a uniform grid index for neighbor queries over items living in a
// bounded 2D domain.
//
// The grid is allocated once and its buckets are repopulated by Build, typically once per
// simulation tick. Between two builds buckets may be stale: callers that need exact
// membership call Build again, or maintain it incrementally with Add and Remove outside of any
// concurrent read phase. All query methods are read-only and may run concurrently as long as no
// mutation happens at the same time.
package spatial

import (
	"errors"
	"fmt"
	"math"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/geometry"
)

var (
	ErrInvalidDivisions = errors.New("grid divisions must be positive")
	ErrDegenerateBounds = errors.New("grid bounds must have a positive finite area")
)

// Cell is one rectangular subdivision of the domain and the items currently bucketed in it.
type Cell[T comparable] struct {
	Bounds geometry.Rect
	Items  []T

	// reach is Bounds with the outer sides of edge cells pushed to infinity, because items
	// that drifted outside the domain are clamped into edge cells.
	reach geometry.Rect
}

// Neighbor is a query result carrying the distance to the query point.
// Dist is negative when the producer did not compute it.
type Neighbor[T any] struct {
	Item T
	Dist float64

	distSq float64
}

type cellDist struct {
	idx    int
	distSq float64
}

// Grid is a fixed uniform partition of bounds into divX × divY cells.
type Grid[T comparable] struct {
	bounds geometry.Rect
	divX   int
	divY   int
	cells  []Cell[T] // flat: index = iy*divX + ix
	pos    func(T) geometry.Vector2D
	count  int

	// scratch holds one reusable candidate-cell buffer per worker for QueryKNearest.
	scratch [][]cellDist
}

// New allocates a grid covering bounds with divX × divY equal cells.
// pos extracts the current position of an item.
func New[T comparable](bounds geometry.Rect, divX, divY int, pos func(T) geometry.Vector2D) (*Grid[T], error) {
	if divX <= 0 || divY <= 0 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidDivisions, divX, divY)
	}
	w, h := bounds.Width(), bounds.Height()
	if !(w > 0 && h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return nil, fmt.Errorf("%w: got %s", ErrDegenerateBounds, bounds)
	}
	if pos == nil {
		return nil, errors.New("grid needs a position function")
	}

	g := &Grid[T]{
		bounds: bounds,
		divX:   divX,
		divY:   divY,
		cells:  make([]Cell[T], divX*divY),
		pos:    pos,
	}
	for iy := 0; iy < divY; iy++ {
		for ix := 0; ix < divX; ix++ {
			c := &g.cells[iy*divX+ix]
			c.Bounds = geometry.Rect{
				Min: bounds.Lerp(float64(ix)/float64(divX), float64(iy)/float64(divY)),
				Max: bounds.Lerp(float64(ix+1)/float64(divX), float64(iy+1)/float64(divY)),
			}
			c.reach = c.Bounds
			if ix == 0 {
				c.reach.Min.X = math.Inf(-1)
			}
			if ix == divX-1 {
				c.reach.Max.X = math.Inf(1)
			}
			if iy == 0 {
				c.reach.Min.Y = math.Inf(-1)
			}
			if iy == divY-1 {
				c.reach.Max.Y = math.Inf(1)
			}
		}
	}
	g.SetWorkers(1)
	return g, nil
}

// SetWorkers makes sure QueryKNearest has a private scratch buffer for workers [0, n).
// It must not be called while queries are running.
func (g *Grid[T]) SetWorkers(n int) {
	for len(g.scratch) < n {
		g.scratch = append(g.scratch, make([]cellDist, 0, len(g.cells)))
	}
}

// Bounds returns the domain covered by the grid.
func (g *Grid[T]) Bounds() geometry.Rect { return g.bounds }

// Divisions returns the number of cells along X and Y.
func (g *Grid[T]) Divisions() (int, int) { return g.divX, g.divY }

// Len returns the number of items currently bucketed.
func (g *Grid[T]) Len() int { return g.count }

// Cells exposes the cell array, row by row. Callers must treat it as read-only.
func (g *Grid[T]) Cells() []Cell[T] { return g.cells }

// Cell returns the cell at grid coordinates (ix, iy), or nil when out of range.
func (g *Grid[T]) Cell(ix, iy int) *Cell[T] {
	if ix < 0 || ix >= g.divX || iy < 0 || iy >= g.divY {
		return nil
	}
	return &g.cells[iy*g.divX+ix]
}

// CellOf returns the coordinates of the cell covering p.
// Any point, even outside bounds, NaN or infinite, maps to a valid cell.
func (g *Grid[T]) CellOf(p geometry.Vector2D) (int, int) {
	u, v := g.bounds.Normalized(p)
	return clampIndex(u, g.divX), clampIndex(v, g.divY)
}

func clampIndex(u float64, n int) int {
	f := math.Floor(u * float64(n))
	if !(f >= 0) { // also catches NaN
		return 0
	}
	if f >= float64(n) {
		return n - 1
	}
	return int(f)
}

func (g *Grid[T]) indexOf(p geometry.Vector2D) int {
	ix, iy := g.CellOf(p)
	return iy*g.divX + ix
}

// Clear empties every bucket but keeps their capacity for the next Build.
func (g *Grid[T]) Clear() {
	for i := range g.cells {
		clear(g.cells[i].Items)
		g.cells[i].Items = g.cells[i].Items[:0]
	}
	g.count = 0
}

// Build clears the grid then buckets every item by its current position.
func (g *Grid[T]) Build(items []T) {
	g.Clear()
	for _, it := range items {
		idx := g.indexOf(g.pos(it))
		g.cells[idx].Items = append(g.cells[idx].Items, it)
	}
	g.count = len(items)
}

// Add buckets a single item by its current position.
func (g *Grid[T]) Add(item T) {
	idx := g.indexOf(g.pos(item))
	g.cells[idx].Items = append(g.cells[idx].Items, item)
	g.count++
}

// Remove deletes item from the grid and reports whether it was found.
// The cell covering the item's current position is tried first. Items may have moved since
// they were bucketed, so the other cells are scanned when that fails.
func (g *Grid[T]) Remove(item T) bool {
	idx := g.indexOf(g.pos(item))
	if g.removeFrom(idx, item) {
		return true
	}
	for i := range g.cells {
		if i != idx && g.removeFrom(i, item) {
			return true
		}
	}
	return false
}

func (g *Grid[T]) removeFrom(idx int, item T) bool {
	c := &g.cells[idx]
	for i, it := range c.Items {
		if it != item {
			continue
		}
		last := len(c.Items) - 1
		c.Items[i] = c.Items[last]
		var zero T
		c.Items[last] = zero
		c.Items = c.Items[:last]
		g.count--
		return true
	}
	return false
}

// cellRange returns the inclusive cell coordinates overlapping the square of half side r around p.
func (g *Grid[T]) cellRange(p geometry.Vector2D, r float64) (x0, y0, x1, y1 int) {
	x0, y0 = g.CellOf(geometry.Vector2D{X: p.X - r, Y: p.Y - r})
	x1, y1 = g.CellOf(geometry.Vector2D{X: p.X + r, Y: p.Y + r})
	return x0, y0, x1, y1
}
