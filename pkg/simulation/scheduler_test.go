package simulation

import (
	"errors"
	"testing"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/behavior"
	"github.com/tochemey/goakt/v3/log"
)

// mixedConfig spawns a flock where every neighbor strategy is represented.
func mixedConfig(scheduler string) *Config {
	cfg := testConfig(scheduler)
	cfg.NumBoidsAtStart = 300
	return cfg
}

func newMixedWorld(t testing.TB, scheduler string) *World {
	t.Helper()
	w := newTestWorld(t, mixedConfig(scheduler))
	for _, v := range behavior.Variants() {
		if err := w.RequestAddBoids(60, v); err != nil {
			t.Fatal(err)
		}
	}
	w.applyRequests()
	return w
}

// assertSameStates compares published states and forces index by index.
// Worker affinity is scheduler specific and ignored.
func assertSameStates(t *testing.T, want, got *World) {
	t.Helper()
	if want.Len() != got.Len() {
		t.Fatalf("Expected %d boids, got %d", want.Len(), got.Len())
	}
	wb, gb := want.Boids(), got.Boids()
	for i := range wb {
		if wb[i].State != gb[i].State {
			t.Fatalf("boid %d: state %+v, expected %+v", i, gb[i].State, wb[i].State)
		}
		if wb[i].Forces != gb[i].Forces {
			t.Fatalf("boid %d: forces %+v, expected %+v", i, gb[i].Forces, wb[i].Forces)
		}
	}
}

func TestSchedulers_MatchSerial(t *testing.T) {
	const ticks = 3
	reference := newMixedWorld(t, SchedulerSerial)
	for i := 0; i < ticks; i++ {
		reference.Step(dt)
	}

	for _, name := range []string{SchedulerWorkers, SchedulerForkJoin, SchedulerPipelined} {
		t.Run(name, func(t *testing.T) {
			w := newMixedWorld(t, name)
			for i := 0; i < ticks; i++ {
				w.Step(dt)
			}
			w.Close()
			assertSameStates(t, reference, w)
		})
	}
}

func TestPipelined_OneTickStale(t *testing.T) {
	serial := newMixedWorld(t, SchedulerSerial)
	piped := newMixedWorld(t, SchedulerPipelined)

	for k := 1; k <= 4; k++ {
		piped.Step(dt)
		// serial has run k-1 ticks here
		assertSameStates(t, serial, piped)
		serial.Step(dt)
	}
	piped.Close()
	assertSameStates(t, serial, piped)
}

func TestPipelined_RequestsWaitForInflightTick(t *testing.T) {
	cfg := mixedConfig(SchedulerPipelined)
	cfg.NumBoidsAtStart = 100
	w := newTestWorld(t, cfg)

	w.Step(dt)
	if err := w.RequestAddBoids(50, behavior.Grid); err != nil {
		t.Fatal(err)
	}
	if w.Len() != 100 {
		t.Fatalf("flock changed while a tick was in flight: %d", w.Len())
	}
	w.Step(dt)
	if w.Len() != 150 {
		t.Fatalf("Expected 150 boids, got %d", w.Len())
	}
	w.Close()
	for i, b := range w.Boids() {
		if b.Affinity < 0 {
			t.Fatalf("boid %d never published", i)
		}
	}
}

func TestWorkerPool_RangesFollowFlockSize(t *testing.T) {
	cfg := testConfig(SchedulerSerial)
	cfg.NumBoidsAtStart = 10
	w := newTestWorld(t, cfg)
	p := NewWorkerPool(3, 0, log.DiscardLogger)
	defer p.Close()

	p.Step(w, dt)
	assertRanges(t, p, [][2]int{{0, 3}, {3, 6}, {6, 10}})
	for i, b := range w.Boids() {
		if want := ownerOf(p, i); b.Affinity != want {
			t.Errorf("boid %d updated by worker %d, expected %d", i, b.Affinity, want)
		}
	}

	_ = w.RequestAddBoids(5, behavior.GridCached)
	p.Step(w, dt)
	assertRanges(t, p, [][2]int{{0, 5}, {5, 10}, {10, 15}})
}

func assertRanges(t *testing.T, p *WorkerPool, want [][2]int) {
	t.Helper()
	if len(p.ranges) != len(want) {
		t.Fatalf("Expected %d ranges, got %v", len(want), p.ranges)
	}
	for i := range want {
		if p.ranges[i] != want[i] {
			t.Errorf("range %d: expected %v, got %v", i, want[i], p.ranges[i])
		}
	}
}

func ownerOf(p *WorkerPool, idx int) int {
	for i, r := range p.ranges {
		if idx >= r[0] && idx < r[1] {
			return i
		}
	}
	return -1
}

func TestWorkerPool_OverrunDefersPublish(t *testing.T) {
	cfg := testConfig(SchedulerSerial)
	cfg.NumBoidsAtStart = 4000
	cfg.DefaultVariant = behavior.BruteForce.String()

	reference := newTestWorld(t, cfg)
	reference.Step(dt)

	w := newTestWorld(t, cfg)
	before := make([]behavior.State, w.Len())
	for i, b := range w.Boids() {
		before[i] = b.State
	}

	// a brute force tick over 4000 boids cannot finish in a nanosecond
	p := NewWorkerPool(2, time.Nanosecond, log.DiscardLogger)
	p.Step(w, dt)

	if w.Overruns() != 1 {
		t.Fatalf("Expected 1 overrun, got %d", w.Overruns())
	}
	for i, b := range w.Boids() {
		if b.State != before[i] {
			t.Fatalf("boid %d published before its workers finished", i)
		}
	}
	snap := w.Snapshot()
	if snap.Overruns != 1 {
		t.Errorf("Expected snapshot overruns 1, got %d", snap.Overruns)
	}

	p.Close()
	assertSameStates(t, reference, w)
	p.Close()
}

func TestForkJoin_SlotsBoundAffinity(t *testing.T) {
	cfg := testConfig(SchedulerForkJoin)
	cfg.ChunkSize = 7
	cfg.MaxConcurrency = 3
	w := newTestWorld(t, cfg)
	w.Step(dt)
	for i, b := range w.Boids() {
		if b.Affinity < 0 || b.Affinity >= cfg.MaxConcurrency {
			t.Fatalf("boid %d has affinity %d outside [0, %d)", i, b.Affinity, cfg.MaxConcurrency)
		}
	}
}

func TestNewScheduler(t *testing.T) {
	for _, name := range []string{SchedulerSerial, SchedulerWorkers, SchedulerForkJoin, SchedulerPipelined} {
		cfg := testConfig(name)
		s, err := NewScheduler(cfg, log.DiscardLogger)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if s.Name() != name {
			t.Errorf("Expected name %s, got %s", name, s.Name())
		}
		s.Close()
	}
	cfg := testConfig("magic")
	if _, err := NewScheduler(cfg, log.DiscardLogger); !errors.Is(err, ErrUnknownScheduler) {
		t.Errorf("Expected ErrUnknownScheduler, got %v", err)
	}
}

func TestWorkerPool_StepAfterCloseIgnored(t *testing.T) {
	cfg := testConfig(SchedulerSerial)
	cfg.NumBoidsAtStart = 20
	w := newTestWorld(t, cfg)
	p := NewWorkerPool(2, 0, log.DiscardLogger)
	p.Close()
	p.Step(w, dt)
	for i, b := range w.Boids() {
		if b.Affinity != -1 {
			t.Fatalf("boid %d updated by a closed pool", i)
		}
	}
}
