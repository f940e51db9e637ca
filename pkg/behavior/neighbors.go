package behavior

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/spatial"
)

// Variant selects how a boid obtains its neighbors.
type Variant int

const (
	BruteForce Variant = iota // every other boid, distances computed by the force model
	Grid                      // radius query on the grid
	GridCached                // radius query on the grid, distances returned by the query
	Nearest                   // the MaxNeighbors closest boids within the query radius

	numVariants
)

var ErrUnknownVariant = errors.New("unknown neighbor variant")

var variantNames = [numVariants]string{"brute-force", "grid", "grid-cached", "nearest"}

// Variants lists every strategy, in declaration order.
func Variants() []Variant {
	return []Variant{BruteForce, Grid, GridCached, Nearest}
}

func (v Variant) String() string {
	if v < 0 || v >= numVariants {
		return fmt.Sprintf("variant(%d)", int(v))
	}
	return variantNames[v]
}

// ParseVariant is the inverse of String, case-insensitive.
func ParseVariant(s string) (Variant, error) {
	for i, name := range variantNames {
		if strings.EqualFold(s, name) {
			return Variant(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVariant, s)
}

// Valid reports whether v names a known strategy.
func (v Variant) Valid() bool {
	return v >= 0 && v < numVariants
}

// Scratch holds the reusable buffers of one worker. A Scratch must never be shared by two
// goroutines at the same time.
type Scratch struct {
	Worker    int
	items     []*Boid
	neighbors []spatial.Neighbor[*Boid]
}

// NewScratch returns the buffers of the given worker.
func NewScratch(worker int) *Scratch {
	return &Scratch{
		Worker:    worker,
		items:     make([]*Boid, 0, 32),
		neighbors: make([]spatial.Neighbor[*Boid], 0, 32),
	}
}

// Finder obtains the candidate neighbor set of a boid. The returned slice lives in scratch and
// is only valid until the next call with the same scratch.
type Finder interface {
	Find(b *Boid, scratch *Scratch) []spatial.Neighbor[*Boid]
}

// NewFinder builds the strategy for v.
// flock returns the current boid list, grid must be rebuilt before each tick.
func NewFinder(v Variant, flock func() []*Boid, grid *spatial.Grid[*Boid], s Settings) (Finder, error) {
	switch v {
	case BruteForce:
		return &bruteForceFinder{flock: flock}, nil
	case Grid:
		return &gridFinder{grid: grid, radius: s.QueryRadius()}, nil
	case GridCached:
		return &gridCachedFinder{grid: grid, radius: s.QueryRadius()}, nil
	case Nearest:
		return &nearestFinder{grid: grid, radius: s.QueryRadius(), k: s.MaxNeighbors}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownVariant, int(v))
	}
}

type bruteForceFinder struct {
	flock func() []*Boid
}

func (f *bruteForceFinder) Find(b *Boid, scratch *Scratch) []spatial.Neighbor[*Boid] {
	dst := scratch.neighbors[:0]
	for _, o := range f.flock() {
		if o != b {
			dst = append(dst, spatial.Neighbor[*Boid]{Item: o, Dist: -1})
		}
	}
	scratch.neighbors = dst
	return dst
}

type gridFinder struct {
	grid   *spatial.Grid[*Boid]
	radius float64
}

func (f *gridFinder) Find(b *Boid, scratch *Scratch) []spatial.Neighbor[*Boid] {
	scratch.items = f.grid.QueryRadius(scratch.items, b.Position, f.radius, b)
	dst := scratch.neighbors[:0]
	for _, o := range scratch.items {
		dst = append(dst, spatial.Neighbor[*Boid]{Item: o, Dist: -1})
	}
	scratch.neighbors = dst
	return dst
}

type gridCachedFinder struct {
	grid   *spatial.Grid[*Boid]
	radius float64
}

func (f *gridCachedFinder) Find(b *Boid, scratch *Scratch) []spatial.Neighbor[*Boid] {
	scratch.neighbors = f.grid.QueryRadiusDist(scratch.neighbors, b.Position, f.radius, b)
	return scratch.neighbors
}

type nearestFinder struct {
	grid   *spatial.Grid[*Boid]
	radius float64
	k      int
}

func (f *nearestFinder) Find(b *Boid, scratch *Scratch) []spatial.Neighbor[*Boid] {
	scratch.neighbors = f.grid.QueryKNearest(scratch.neighbors, b.Position, f.radius, b, f.k, scratch.Worker)
	return scratch.neighbors
}
