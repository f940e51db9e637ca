package behavior

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/geometry"
)

// State is the kinematic state of a boid. Direction is a unit vector.
type State struct {
	Position  geometry.Vector2D
	Direction geometry.Vector2D
	Velocity  geometry.Vector2D
}

// Forces holds the four steering components computed for one tick.
type Forces struct {
	Cohesion   geometry.Vector2D
	Separation geometry.Vector2D
	Alignment  geometry.Vector2D
	Repulsion  geometry.Vector2D
}

// Total returns the sum of all components.
func (f Forces) Total() geometry.Vector2D {
	return f.Cohesion.Add(f.Separation).Add(f.Alignment).Add(f.Repulsion)
}

// Boid represents a single entity in the flock.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// https://en.wikipedia.org/wiki/Boids
//
// The embedded State, Forces and Affinity are the externally visible values: during a tick
// they are only read. Workers write the next values into the shadow slot with Stage, and the
// tick driver makes them visible with Publish once every worker is done.
type Boid struct {
	ID      uuid.UUID
	Variant Variant

	State
	Forces   Forces
	Affinity int // worker that produced the visible state, -1 before the first tick

	next         State
	nextForces   Forces
	nextAffinity int
}

// New creates a boid in the given state. The shadow slot starts equal to the visible state,
// so publishing a boid that no worker touched changes nothing.
func New(s State, variant Variant) *Boid {
	return &Boid{
		ID:           uuid.New(),
		Variant:      variant,
		State:        s,
		Affinity:     -1,
		next:         s,
		nextAffinity: -1,
	}
}

// NewRandom creates a boid at a random position inside bounds shrunk by inset times the
// smallest side, heading in a random direction at minSpeed.
func NewRandom(rng *rand.Rand, bounds geometry.Rect, inset, minSpeed float64, variant Variant) *Boid {
	area := bounds.Inset(inset * math.Min(bounds.Width(), bounds.Height()))
	dir := geometry.NewVectorPolar(1, rng.Float64()*2*math.Pi).Normalize()
	if dir.IsZero() {
		dir = geometry.Vector2D{X: 1}
	}
	return New(State{
		Position:  area.Lerp(rng.Float64(), rng.Float64()),
		Direction: dir,
		Velocity:  dir.Mul(minSpeed),
	}, variant)
}

// PositionOf returns the visible position of b, it is the position function of the grid.
func PositionOf(b *Boid) geometry.Vector2D {
	return b.Position
}

// Stage writes the next state into the shadow slot.
// Only the worker that owns b during the current tick may call it.
func (b *Boid) Stage(s State, f Forces, worker int) {
	b.next = s
	b.nextForces = f
	b.nextAffinity = worker
}

// Next returns the staged state, not yet visible.
func (b *Boid) Next() State {
	return b.next
}

// Publish copies the shadow slot into the visible state.
func (b *Boid) Publish() {
	b.State = b.next
	b.Forces = b.nextForces
	b.Affinity = b.nextAffinity
}
