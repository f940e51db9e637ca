package simulation

import (
	"fmt"
	"math"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/behavior"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages understood by Actor, built on protobuf well-known types:
//
//	*durationpb.Duration  run one tick of that length
//	*structpb.Struct      add boids, fields "count" and "variant"
//	*emptypb.Empty        clear the flock

const (
	fieldCount   = "count"
	fieldVariant = "variant"
)

// NewTickMessage asks the world actor to advance the simulation by dt.
func NewTickMessage(dt time.Duration) *durationpb.Duration {
	return durationpb.New(dt)
}

// NewAddBoidsMessage asks the world actor to add count boids with the given neighbor strategy.
func NewAddBoidsMessage(count int, variant behavior.Variant) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldCount:   structpb.NewNumberValue(float64(count)),
		fieldVariant: structpb.NewStringValue(variant.String()),
	}}
}

// NewClearMessage asks the world actor to remove every boid.
func NewClearMessage() *emptypb.Empty {
	return &emptypb.Empty{}
}

func parseAddBoids(msg *structpb.Struct) (int, behavior.Variant, error) {
	fields := msg.GetFields()
	c, ok := fields[fieldCount]
	if !ok {
		return 0, 0, fmt.Errorf("%w: add boids message without %q", ErrInvalidRequest, fieldCount)
	}
	count := c.GetNumberValue()
	if count != math.Trunc(count) || count < 1 || count > math.MaxInt32 {
		return 0, 0, fmt.Errorf("%w: bad boid count %v", ErrInvalidRequest, count)
	}
	variant, err := behavior.ParseVariant(fields[fieldVariant].GetStringValue())
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return int(count), variant, nil
}
