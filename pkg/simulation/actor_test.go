package simulation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/behavior"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/types/known/structpb"
)

func waitSnapshot(t *testing.T, ch <-chan *Snapshot) *Snapshot {
	t.Helper()
	select {
	case s := <-ch:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no snapshot received")
		return nil
	}
}

func TestActor_DrivesWorld(t *testing.T) {
	ctx := context.Background()
	system, err := actor.NewActorSystem("BoidsTest", actor.WithLogger(golog.DiscardLogger))
	if err != nil {
		t.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = system.Stop(ctx) }()

	cfg := testConfig(SchedulerForkJoin)
	cfg.NumBoidsAtStart = 50
	snapshots := make(chan *Snapshot, 4)
	pid, err := system.Spawn(ctx, ActorName, NewActor(cfg, snapshots))
	if err != nil {
		t.Fatalf("Failed to spawn world: %v", err)
	}

	tick := NewTickMessage(time.Second / 60)

	_ = actor.Tell(ctx, pid, tick)
	s := waitSnapshot(t, snapshots)
	if s.Tick != 1 || len(s.Boids) != 50 {
		t.Fatalf("Expected tick 1 with 50 boids, got tick %d with %d", s.Tick, len(s.Boids))
	}

	_ = actor.Tell(ctx, pid, NewAddBoidsMessage(25, behavior.Nearest))
	_ = actor.Tell(ctx, pid, tick)
	s = waitSnapshot(t, snapshots)
	if len(s.Boids) != 75 || s.Variants[behavior.Nearest] != 25 {
		t.Fatalf("Expected 75 boids with 25 nearest, got %d and %v", len(s.Boids), s.Variants)
	}

	_ = actor.Tell(ctx, pid, NewClearMessage())
	_ = actor.Tell(ctx, pid, tick)
	s = waitSnapshot(t, snapshots)
	if len(s.Boids) != 0 {
		t.Fatalf("Expected an empty flock, got %d boids", len(s.Boids))
	}
}

func TestParseAddBoids(t *testing.T) {
	tests := []struct {
		name    string
		msg     *structpb.Struct
		count   int
		variant behavior.Variant
		wantErr bool
	}{
		{"valid", NewAddBoidsMessage(12, behavior.Grid), 12, behavior.Grid, false},
		{"zero", NewAddBoidsMessage(0, behavior.Grid), 0, 0, true},
		{"missing count", &structpb.Struct{Fields: map[string]*structpb.Value{
			fieldVariant: structpb.NewStringValue("grid"),
		}}, 0, 0, true},
		{"fractional count", &structpb.Struct{Fields: map[string]*structpb.Value{
			fieldCount:   structpb.NewNumberValue(2.5),
			fieldVariant: structpb.NewStringValue("grid"),
		}}, 0, 0, true},
		{"unknown variant", &structpb.Struct{Fields: map[string]*structpb.Value{
			fieldCount:   structpb.NewNumberValue(3),
			fieldVariant: structpb.NewStringValue("octree"),
		}}, 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, variant, err := parseAddBoids(tt.msg)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRequest) {
					t.Errorf("Expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil || count != tt.count || variant != tt.variant {
				t.Errorf("Expected %d %s, got %d %s (%v)", tt.count, tt.variant, count, variant, err)
			}
		})
	}
}
