package simulation

import (
	"errors"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/geometry"
	"github.com/tochemey/goakt/v3/log"
)

const dt = 1.0 / 60

// testConfig is the reference scenario: 500 boids in [-10,10]², 8×8 grid.
func testConfig(scheduler string) *Config {
	cfg := DefaultConfig()
	cfg.Scheduler = scheduler
	cfg.NumBoidsAtStart = 500
	cfg.Workers = 3
	cfg.ChunkSize = 37
	cfg.MaxConcurrency = 4
	cfg.TickDeadlineMs = 0
	return cfg
}

func newTestWorld(t testing.TB, cfg *Config) *World {
	t.Helper()
	w, err := NewWorld(cfg, log.DiscardLogger)
	if err != nil {
		t.Fatalf("NewWorld: %v", err)
	}
	t.Cleanup(w.Close)
	return w
}

func TestNewWorld_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"zero divisions", func(c *Config) { c.GridDivisionsX = 0 }, nil},
		{"flat world", func(c *Config) { c.WorldMax.Y = c.WorldMin.Y }, nil},
		{"unknown scheduler", func(c *Config) { c.Scheduler = "magic" }, ErrUnknownScheduler},
		{"unknown variant", func(c *Config) { c.DefaultVariant = "octree" }, behavior.ErrUnknownVariant},
		{"inverted speeds", func(c *Config) { c.Behavior.MinSpeed, c.Behavior.MaxSpeed = 3, 1 }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(SchedulerSerial)
			tt.mutate(cfg)
			_, err := NewWorld(cfg, log.DiscardLogger)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if tt.target != nil && !errors.Is(err, tt.target) {
				t.Errorf("Expected %v, got %v", tt.target, err)
			}
		})
	}
}

// TestWorld_Scenario runs one tick of the reference scenario with every scheduler.
func TestWorld_Scenario(t *testing.T) {
	limit := geometry.NewRect(geometry.NewVector(-10.5, -10.5), geometry.NewVector(10.5, 10.5))
	for _, name := range []string{SchedulerSerial, SchedulerWorkers, SchedulerForkJoin, SchedulerPipelined} {
		t.Run(name, func(t *testing.T) {
			w := newTestWorld(t, testConfig(name))
			w.Step(dt)
			w.Close()

			if w.Len() != 500 {
				t.Fatalf("Expected 500 boids, got %d", w.Len())
			}
			for i, b := range w.Boids() {
				if !limit.Contains(b.Position) {
					t.Errorf("boid %d left the domain: %v", i, b.Position)
				}
				if b.Affinity < 0 {
					t.Errorf("boid %d was not updated", i)
				}
			}
			w.rebuild()
			assertCoverage(t, w)
		})
	}
}

// assertCoverage checks every boid sits in exactly one bucket, whose cell contains it.
func assertCoverage(t *testing.T, w *World) {
	t.Helper()
	seen := make(map[*behavior.Boid]int, w.Len())
	for _, c := range w.Grid().Cells() {
		for _, b := range c.Items {
			seen[b]++
			if w.Bounds().Contains(b.Position) && !c.Bounds.Contains(b.Position) {
				t.Errorf("boid at %v bucketed in cell %v", b.Position, c.Bounds)
			}
		}
	}
	for i, b := range w.Boids() {
		if seen[b] != 1 {
			t.Errorf("boid %d appears %d times in the grid", i, seen[b])
		}
	}
	if w.Grid().Len() != w.Len() {
		t.Errorf("grid holds %d boids, world %d", w.Grid().Len(), w.Len())
	}
}

func TestWorld_RequestsAppliedAtTickBoundary(t *testing.T) {
	cfg := testConfig(SchedulerSerial)
	cfg.NumBoidsAtStart = 10
	w := newTestWorld(t, cfg)

	if err := w.RequestAddBoids(5, behavior.Nearest); err != nil {
		t.Fatal(err)
	}
	if w.Len() != 10 {
		t.Fatalf("request applied before the tick, got %d boids", w.Len())
	}
	w.Step(dt)
	if w.Len() != 15 {
		t.Fatalf("Expected 15 boids after the tick, got %d", w.Len())
	}
	if got := w.Snapshot().Variants[behavior.Nearest]; got != 5 {
		t.Errorf("Expected 5 nearest boids, got %d", got)
	}
	w.rebuild()
	assertCoverage(t, w)

	// add then clear in the same tick leaves nothing
	_ = w.RequestAddBoids(3, behavior.Grid)
	_ = w.RequestClear()
	w.Step(dt)
	if w.Len() != 0 || w.Grid().Len() != 0 {
		t.Fatalf("Expected an empty world, got %d boids and %d in grid", w.Len(), w.Grid().Len())
	}

	// clear then add keeps the addition
	_ = w.RequestClear()
	_ = w.RequestAddBoids(4, behavior.BruteForce)
	w.Step(dt)
	if w.Len() != 4 {
		t.Fatalf("Expected 4 boids, got %d", w.Len())
	}
}

func TestWorld_RequestValidation(t *testing.T) {
	cfg := testConfig(SchedulerSerial)
	cfg.NumBoidsAtStart = 0
	cfg.RequestQueueSize = 2
	w := newTestWorld(t, cfg)

	if err := w.RequestAddBoids(0, behavior.Grid); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for zero count, got %v", err)
	}
	if err := w.RequestAddBoids(1, behavior.Variant(99)); !errors.Is(err, ErrInvalidRequest) {
		t.Errorf("Expected ErrInvalidRequest for unknown variant, got %v", err)
	}
	if err := w.RequestAddBoids(1, behavior.Grid); err != nil {
		t.Fatal(err)
	}
	if err := w.RequestClear(); err != nil {
		t.Fatal(err)
	}
	if err := w.RequestAddBoids(1, behavior.Grid); !errors.Is(err, ErrRequestQueueFull) {
		t.Errorf("Expected ErrRequestQueueFull, got %v", err)
	}

	w.Step(dt)
	if err := w.RequestAddBoids(1, behavior.Grid); err != nil {
		t.Errorf("queue must accept requests again after a tick, got %v", err)
	}
}

func TestWorld_Snapshot(t *testing.T) {
	w := newTestWorld(t, testConfig(SchedulerForkJoin))
	w.Step(dt)
	s := w.Snapshot()

	if s.Tick != 1 || s.Scheduler != SchedulerForkJoin {
		t.Errorf("unexpected header: tick %d, scheduler %s", s.Tick, s.Scheduler)
	}
	if len(s.Boids) != w.Len() {
		t.Fatalf("Expected %d boids, got %d", w.Len(), len(s.Boids))
	}
	if len(s.Cells) != 64 {
		t.Fatalf("Expected 64 cells, got %d", len(s.Cells))
	}
	total := 0
	for _, c := range s.Cells {
		total += c.Count
	}
	if total != w.Len() {
		t.Errorf("cells hold %d boids, expected %d", total, w.Len())
	}
	for i, b := range w.Boids() {
		if s.Boids[i].ID != b.ID || s.Boids[i].State != b.State {
			t.Fatalf("snapshot of boid %d does not match", i)
		}
	}

	// the snapshot is a copy
	w.Step(dt)
	if s.Boids[0].State == w.Boids()[0].State {
		t.Error("snapshot followed the world")
	}
}

func BenchmarkWorld_Step(b *testing.B) {
	for _, name := range []string{SchedulerSerial, SchedulerWorkers, SchedulerForkJoin, SchedulerPipelined} {
		b.Run(name, func(b *testing.B) {
			cfg := testConfig(name)
			cfg.NumBoidsAtStart = 2000
			w := newTestWorld(b, cfg)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				w.Step(dt)
			}
		})
	}
}
