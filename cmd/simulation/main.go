package main

import (
	"context"
	"flag"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
)

// Headless runner: drives the world actor tick by tick without rendering and reports throughput.
func main() {
	configFile := flag.String("config", "", "path to a JSON configuration file, defaults are used when empty")
	ticks := flag.Int("ticks", 600, "number of ticks to run")
	tickLen := flag.Duration("dt", time.Second/60, "simulated time per tick")
	scheduler := flag.String("scheduler", "", "override the configured scheduler (serial, workers, forkjoin, pipelined)")
	boids := flag.Int("boids", -1, "override the configured initial number of boids")
	flag.Parse()

	logger := log.DefaultLogger
	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configFile); err != nil {
			logger.Fatal(err)
		}
	}
	if *scheduler != "" {
		cfg.Scheduler = *scheduler
	}
	if *boids >= 0 {
		cfg.NumBoidsAtStart = *boids
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal(err)
	}

	ctx := context.Background()
	system, err := actor.NewActorSystem("BoidsHeadless", actor.WithLogger(logger))
	if err != nil {
		logger.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		logger.Fatal(err)
	}
	defer func() { _ = system.Stop(ctx) }()

	// The runner waits for each snapshot before sending the next tick, so none is dropped.
	snapshots := make(chan *simulation.Snapshot, 1)
	pid, err := system.Spawn(ctx, simulation.ActorName, simulation.NewActor(cfg, snapshots))
	if err != nil {
		logger.Fatalf("Failed to spawn world: %v", err)
	}

	start := time.Now()
	var last *simulation.Snapshot
	for i := 0; i < *ticks; i++ {
		if err := actor.Tell(ctx, pid, simulation.NewTickMessage(*tickLen)); err != nil {
			logger.Fatal(err)
		}
		select {
		case last = <-snapshots:
		case <-time.After(30 * time.Second):
			logger.Fatalf("tick %d did not complete", i+1)
		}
	}
	elapsed := time.Since(start)

	if last == nil {
		logger.Info("no tick was run")
		return
	}
	logger.Infof("%d ticks of %d boids with %s in %s: %.1f ticks/sec, %d overruns",
		last.Tick, len(last.Boids), last.Scheduler, elapsed.Round(time.Millisecond),
		float64(last.Tick)/elapsed.Seconds(), last.Overruns)
}
