package behavior

import (
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/spatial"
)

const (
	// separationEpsilon ignores neighbors sitting on top of the boid, their push direction is noise.
	separationEpsilon = 1e-6
	// stallSpeed is the speed under which the velocity is rebuilt from the direction.
	stallSpeed = 1e-6
	// directionThresholdSq keeps the previous direction when the velocity is too small to trust.
	directionThresholdSq = 1e-8
)

// ComputeForces evaluates the four rules for b from one neighbor snapshot.
// Every neighbor is filtered against the radius of each rule, so the same slice can be a brute
// force list of the whole flock or a bounded k-nearest set.
func ComputeForces(b *Boid, neighbors []spatial.Neighbor[*Boid], bounds geometry.Rect, s Settings) Forces {
	var (
		f        Forces
		centroid geometry.Vector2D
		heading  geometry.Vector2D
		nCoh     int
		nAli     int
	)

	for _, n := range neighbors {
		o := n.Item
		d := n.Dist
		if d < 0 {
			d = b.Position.DistanceTo(o.Position)
		}

		if d <= s.CohesionRadius {
			centroid = centroid.Add(o.Position)
			nCoh++
		}
		if d <= s.AlignmentRadius {
			heading = heading.Add(o.Direction)
			nAli++
		}
		if d > separationEpsilon && d <= s.MaxSeparationRadius {
			away := b.Position.Sub(o.Position).Mul(1 / d)
			f.Separation = f.Separation.Add(away.Mul(SeparationStrength(d, s)))
		}
	}

	if nCoh > 0 {
		toward := centroid.Mul(1 / float64(nCoh)).Sub(b.Position)
		f.Cohesion = toward.Mul(1 / s.CohesionRadius).ClampLen(1).Mul(s.MaxCohesionForce)
	}
	if nAli > 0 {
		f.Alignment = heading.Normalize().Mul(s.AlignmentForce)
	}
	f.Repulsion = Repulsion(b.Position, bounds, s)
	return f
}

// SeparationStrength is full at or under RadiusForMaxSeparationForce, fades linearly to zero at
// MaxSeparationRadius and is zero beyond.
func SeparationStrength(d float64, s Settings) float64 {
	if d > s.MaxSeparationRadius {
		return 0
	}
	span := s.MaxSeparationRadius - s.RadiusForMaxSeparationForce
	if span <= 0 {
		return s.MaxSeparationForce
	}
	return s.MaxSeparationForce * geometry.Clamp01(1-(d-s.RadiusForMaxSeparationForce)/span)
}

// Repulsion pushes p away from each border of bounds closer than DistToStartRepulsion.
// Both axes and both sides are evaluated independently and summed.
func Repulsion(p geometry.Vector2D, bounds geometry.Rect, s Settings) geometry.Vector2D {
	return geometry.Vector2D{
		X: repulsionStrength(p.X-bounds.Min.X, s) - repulsionStrength(bounds.Max.X-p.X, s),
		Y: repulsionStrength(p.Y-bounds.Min.Y, s) - repulsionStrength(bounds.Max.Y-p.Y, s),
	}
}

func repulsionStrength(dist float64, s Settings) float64 {
	if dist >= s.DistToStartRepulsion {
		return 0
	}
	span := s.DistToStartRepulsion - s.DistForMaxRepulsion
	if span <= 0 {
		return s.MaxRepulsionForce
	}
	return s.MaxRepulsionForce * geometry.Clamp01((s.DistToStartRepulsion-dist)/span)
}

// Integrate applies force for dt, clamps the speed into [MinSpeed, MaxSpeed] and moves.
func Integrate(st State, force geometry.Vector2D, dt float64, s Settings) State {
	dir := st.Direction
	if dir.IsZero() {
		dir = geometry.Vector2D{X: 1}
	}

	v := st.Velocity.Add(force.Mul(dt))
	speed := v.Len()
	switch {
	case speed < stallSpeed:
		v = dir.Mul(s.MinSpeed)
	case speed < s.MinSpeed:
		v = v.Mul(s.MinSpeed / speed)
	case speed > s.MaxSpeed:
		v = v.Mul(s.MaxSpeed / speed)
	}

	if v.LenSqr() > directionThresholdSq {
		dir = v.Normalize()
	}
	return State{
		Position:  st.Position.Add(v.Mul(dt)),
		Direction: dir,
		Velocity:  v,
	}
}

// Step computes the next state of b. It reads b and its neighbors and writes nothing.
func Step(b *Boid, neighbors []spatial.Neighbor[*Boid], dt float64, bounds geometry.Rect, s Settings) (State, Forces) {
	f := ComputeForces(b, neighbors, bounds, s)
	return Integrate(b.State, f.Total(), dt, s), f
}
