package simulation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/geometry"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/multierr"
)

//go:embed config.schema.json
var configSchema string

const configSchemaURL = "config.schema.json"

// Scheduler names accepted by Config.Scheduler.
const (
	SchedulerSerial    = "serial"
	SchedulerWorkers   = "workers"
	SchedulerForkJoin  = "forkjoin"
	SchedulerPipelined = "pipelined"
)

type Config struct {
	// World Dimensions
	WorldMin geometry.Vector2D `json:"worldMin"`
	WorldMax geometry.Vector2D `json:"worldMax"`

	// Spatial grid, fixed at startup
	GridDivisionsX int `json:"gridDivisionsX"`
	GridDivisionsY int `json:"gridDivisionsY"`

	// Population
	NumBoidsAtStart int     `json:"numBoidsAtStart"`
	DefaultVariant  string  `json:"defaultVariant"` // neighbor strategy of new boids
	SpawnInset      float64 `json:"spawnInset"`     // fraction of the smallest side kept free at spawn
	Seed            uint64  `json:"seed"`

	// Concurrency
	Scheduler        string `json:"scheduler"`
	Workers          int    `json:"workers"`        // persistent goroutines of the workers scheduler
	ChunkSize        int    `json:"chunkSize"`      // boids per task of forkjoin and pipelined
	MaxConcurrency   int    `json:"maxConcurrency"` // tasks running at once for forkjoin and pipelined
	TickDeadlineMs   int    `json:"tickDeadlineMs"` // soft deadline of the workers scheduler, 0 waits forever
	RequestQueueSize int    `json:"requestQueueSize"`

	// Flocking rules
	Behavior behavior.Settings `json:"behavior"`
}

func DefaultConfig() *Config {
	return &Config{
		WorldMin:         geometry.NewVector(-10, -10),
		WorldMax:         geometry.NewVector(10, 10),
		GridDivisionsX:   8,
		GridDivisionsY:   8,
		NumBoidsAtStart:  500,
		DefaultVariant:   behavior.GridCached.String(),
		SpawnInset:       0.05,
		Seed:             1,
		Scheduler:        SchedulerForkJoin,
		Workers:          4,
		ChunkSize:        64,
		MaxConcurrency:   4,
		TickDeadlineMs:   50,
		RequestQueueSize: 64,
		Behavior:         behavior.DefaultSettings(),
	}
}

// Bounds returns the simulated domain.
func (c *Config) Bounds() geometry.Rect {
	return geometry.NewRect(c.WorldMin, c.WorldMax)
}

// TickDeadline returns the soft deadline as a duration, zero meaning none.
func (c *Config) TickDeadline() time.Duration {
	return time.Duration(c.TickDeadlineMs) * time.Millisecond
}

// Validate reports every configuration error at once.
func (c *Config) Validate() error {
	var err error
	if !(c.WorldMax.X > c.WorldMin.X && c.WorldMax.Y > c.WorldMin.Y) {
		err = multierr.Append(err, fmt.Errorf("world bounds %v to %v have no area", c.WorldMin, c.WorldMax))
	}
	if c.GridDivisionsX <= 0 || c.GridDivisionsY <= 0 {
		err = multierr.Append(err, fmt.Errorf("grid divisions must be positive, got %dx%d", c.GridDivisionsX, c.GridDivisionsY))
	}
	if c.NumBoidsAtStart < 0 {
		err = multierr.Append(err, fmt.Errorf("numBoidsAtStart must not be negative, got %d", c.NumBoidsAtStart))
	}
	if _, e := behavior.ParseVariant(c.DefaultVariant); e != nil {
		err = multierr.Append(err, e)
	}
	if c.SpawnInset < 0 || c.SpawnInset >= 0.5 {
		err = multierr.Append(err, fmt.Errorf("spawnInset must be in [0, 0.5), got %v", c.SpawnInset))
	}
	switch c.Scheduler {
	case SchedulerSerial, SchedulerWorkers, SchedulerForkJoin, SchedulerPipelined:
	default:
		err = multierr.Append(err, fmt.Errorf("%w: %q", ErrUnknownScheduler, c.Scheduler))
	}
	if c.Workers <= 0 {
		err = multierr.Append(err, fmt.Errorf("workers must be positive, got %d", c.Workers))
	}
	if c.ChunkSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("chunkSize must be positive, got %d", c.ChunkSize))
	}
	if c.MaxConcurrency <= 0 {
		err = multierr.Append(err, fmt.Errorf("maxConcurrency must be positive, got %d", c.MaxConcurrency))
	}
	if c.TickDeadlineMs < 0 {
		err = multierr.Append(err, fmt.Errorf("tickDeadlineMs must not be negative, got %d", c.TickDeadlineMs))
	}
	if c.RequestQueueSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("requestQueueSize must be positive, got %d", c.RequestQueueSize))
	}
	return multierr.Append(err, c.Behavior.Validate())
}

// LoadConfig loads configuration from a JSON file and validates it against the embedded schema.
// Fields missing from the file keep their DefaultConfig value.
func LoadConfig(configFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := jsonschema.CompileString(configSchemaURL, configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// 3. Validate
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Unmarshal into Struct
	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configFile, err)
	}
	return cfg, nil
}
