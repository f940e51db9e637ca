package main

import (
	"context"
	"flag"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/viewer"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/log"
)

const (
	screenWidth  = 1280
	screenHeight = 860
)

func main() {
	configFile := flag.String("config", "", "path to a JSON configuration file, defaults are used when empty")
	flag.Parse()

	logger := log.DefaultLogger
	cfg := simulation.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(*configFile); err != nil {
			logger.Fatal(err)
		}
	}

	ctx := context.Background()
	system, err := actor.NewActorSystem("BoidsWorld",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		logger.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		logger.Fatal(err)
	}
	defer func() { _ = system.Stop(ctx) }()

	game, err := viewer.NewGame(ctx, cfg, system, screenWidth, screenHeight)
	if err != nil {
		logger.Fatal(err)
	}

	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("Boids on a uniform grid")
	if err := ebiten.RunGame(game); err != nil {
		logger.Error(err)
	}
}
