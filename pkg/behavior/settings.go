package behavior

import (
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// Settings controls the flocking rules.
// Radii are in world units, forces in world units per second squared.
type Settings struct {
	CohesionRadius   float64 `json:"cohesionRadius"`   // neighbors pulling toward their centroid
	MaxCohesionForce float64 `json:"maxCohesionForce"` // reached when the centroid is CohesionRadius away

	MaxSeparationRadius         float64 `json:"maxSeparationRadius"`         // personal space, no push beyond
	RadiusForMaxSeparationForce float64 `json:"radiusForMaxSeparationForce"` // full push at or under
	MaxSeparationForce          float64 `json:"maxSeparationForce"`

	AlignmentRadius float64 `json:"alignmentRadius"`
	AlignmentForce  float64 `json:"alignmentForce"`

	DistToStartRepulsion float64 `json:"distToStartRepulsion"` // border distance where repulsion starts
	DistForMaxRepulsion  float64 `json:"distForMaxRepulsion"`  // border distance of full repulsion
	MaxRepulsionForce    float64 `json:"maxRepulsionForce"`

	MinSpeed float64 `json:"minSpeed"`
	MaxSpeed float64 `json:"maxSpeed"`

	MaxNeighbors int `json:"maxNeighbors"` // k of the nearest variant
}

// DefaultSettings returns rules tuned for a domain about twenty units wide.
func DefaultSettings() Settings {
	return Settings{
		CohesionRadius:              2.0,
		MaxCohesionForce:            1.0,
		MaxSeparationRadius:         0.8,
		RadiusForMaxSeparationForce: 0.3,
		MaxSeparationForce:          4.0,
		AlignmentRadius:             1.5,
		AlignmentForce:              0.8,
		DistToStartRepulsion:        1.5,
		DistForMaxRepulsion:         0.3,
		MaxRepulsionForce:           6.0,
		MinSpeed:                    1.0,
		MaxSpeed:                    3.0,
		MaxNeighbors:                7,
	}
}

// QueryRadius is the radius a neighbor query must cover to serve every rule.
func (s Settings) QueryRadius() float64 {
	return math.Max(s.CohesionRadius, math.Max(s.AlignmentRadius, s.MaxSeparationRadius))
}

// Validate reports every inconsistent parameter at once.
func (s Settings) Validate() error {
	var err error
	positive := []struct {
		name  string
		value float64
	}{
		{"cohesionRadius", s.CohesionRadius},
		{"maxSeparationRadius", s.MaxSeparationRadius},
		{"alignmentRadius", s.AlignmentRadius},
		{"minSpeed", s.MinSpeed},
		{"maxSpeed", s.MaxSpeed},
	}
	for _, p := range positive {
		if !(p.value > 0) {
			err = multierr.Append(err, fmt.Errorf("%s must be positive, got %v", p.name, p.value))
		}
	}
	nonNegative := []struct {
		name  string
		value float64
	}{
		{"maxCohesionForce", s.MaxCohesionForce},
		{"radiusForMaxSeparationForce", s.RadiusForMaxSeparationForce},
		{"maxSeparationForce", s.MaxSeparationForce},
		{"alignmentForce", s.AlignmentForce},
		{"distToStartRepulsion", s.DistToStartRepulsion},
		{"distForMaxRepulsion", s.DistForMaxRepulsion},
		{"maxRepulsionForce", s.MaxRepulsionForce},
	}
	for _, p := range nonNegative {
		if !(p.value >= 0) {
			err = multierr.Append(err, fmt.Errorf("%s must not be negative, got %v", p.name, p.value))
		}
	}
	if s.MaxSpeed < s.MinSpeed {
		err = multierr.Append(err, fmt.Errorf("maxSpeed %v is below minSpeed %v", s.MaxSpeed, s.MinSpeed))
	}
	if s.RadiusForMaxSeparationForce > s.MaxSeparationRadius {
		err = multierr.Append(err, fmt.Errorf("radiusForMaxSeparationForce %v exceeds maxSeparationRadius %v",
			s.RadiusForMaxSeparationForce, s.MaxSeparationRadius))
	}
	if s.DistForMaxRepulsion > s.DistToStartRepulsion {
		err = multierr.Append(err, fmt.Errorf("distForMaxRepulsion %v exceeds distToStartRepulsion %v",
			s.DistForMaxRepulsion, s.DistToStartRepulsion))
	}
	if s.MaxNeighbors < 1 {
		err = multierr.Append(err, fmt.Errorf("maxNeighbors must be at least 1, got %d", s.MaxNeighbors))
	}
	return err
}
