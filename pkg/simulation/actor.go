package simulation

import (
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ActorName is the name the world actor is spawned under.
const ActorName = "world"

// Actor drives a World from its mailbox. Ticks, additions and clears arrive as messages, so
// the world is only ever touched by the actor's goroutine. After every tick a Snapshot is
// offered to the UI channel.
type Actor struct {
	cfg        *Config
	world      *World
	snapshotCh chan<- *Snapshot

	// --- Benchmark Stats ---
	ticks       int
	boidUpdates int
	lastLogTime time.Time
}

// NewActor creates the world logic unit. snapshotCh may be nil for headless runs.
func NewActor(cfg *Config, snapshotCh chan<- *Snapshot) *Actor {
	return &Actor{
		cfg:        cfg,
		snapshotCh: snapshotCh,
	}
}

func (a *Actor) PreStart(ctx *actor.Context) error {
	w, err := NewWorld(a.cfg, ctx.ActorSystem().Logger())
	if err != nil {
		return err
	}
	a.world = w
	a.lastLogTime = time.Now()
	return nil
}

func (a *Actor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("World started with %d boids", a.world.Len())

	case *durationpb.Duration:
		dt := msg.AsDuration().Seconds()
		if dt <= 0 {
			ctx.Logger().Warnf("ignoring tick of %s", msg.AsDuration())
			return
		}
		a.world.Step(dt)
		a.ticks++
		a.boidUpdates += a.world.Len()
		a.logBenchmarks(ctx)
		a.pushSnapshot()

	case *structpb.Struct:
		count, variant, err := parseAddBoids(msg)
		if err == nil {
			err = a.world.RequestAddBoids(count, variant)
		}
		if err != nil {
			ctx.Logger().Warnf("add boids rejected: %v", err)
		}

	case *emptypb.Empty:
		if err := a.world.RequestClear(); err != nil {
			ctx.Logger().Warnf("clear rejected: %v", err)
		}

	default:
		ctx.Unhandled()
	}
}

func (a *Actor) logBenchmarks(ctx *actor.ReceiveContext) {
	if time.Since(a.lastLogTime) >= time.Second {
		ctx.Logger().Infof("📊 TICK RATE: %d/sec (boid updates: %d/sec) | Boids: %d | Overruns: %d",
			a.ticks, a.boidUpdates, a.world.Len(), a.world.Overruns())
		a.ticks = 0
		a.boidUpdates = 0
		a.lastLogTime = time.Now()
	}
}

func (a *Actor) pushSnapshot() {
	if a.snapshotCh == nil || len(a.snapshotCh) == cap(a.snapshotCh) {
		return
	}
	select {
	case a.snapshotCh <- a.world.Snapshot():
	default:
		// UI busy, skip frame
	}
}

func (a *Actor) PostStop(ctx *actor.Context) error {
	if a.world != nil {
		a.world.Close()
	}
	ctx.ActorSystem().Logger().Info("World is shutdown...")
	return nil
}
