// Package viewer renders a running simulation with ebiten and forwards user input to the
// world actor. It only reads snapshots, it never touches the world directly.
package viewer

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-grid/pkg/ui"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/proto"
)

const (
	panelWidth = 300
	addBatch   = 100
	boidSize   = 7.0
	forceScale = 4.0 // pixels per unit of force
)

var whiteImage = ebiten.NewImage(3, 3)

func init() {
	whiteImage.Fill(color.White)
}

var (
	variantColors = [...]color.RGBA{
		behavior.BruteForce: {R: 255, G: 120, B: 90, A: 255},
		behavior.Grid:       {R: 120, G: 220, B: 120, A: 255},
		behavior.GridCached: {R: 100, G: 200, B: 255, A: 255},
		behavior.Nearest:    {R: 240, G: 210, B: 90, A: 255},
	}
	workerColors = []color.RGBA{
		{R: 230, G: 80, B: 80, A: 255},
		{R: 80, G: 200, B: 90, A: 255},
		{R: 80, G: 130, B: 240, A: 255},
		{R: 240, G: 200, B: 60, A: 255},
		{R: 200, G: 90, B: 220, A: 255},
		{R: 70, G: 210, B: 210, A: 255},
		{R: 250, G: 150, B: 60, A: 255},
		{R: 180, G: 180, B: 180, A: 255},
	}
	forceColors = [4]color.RGBA{
		{R: 80, G: 255, B: 80, A: 200},  // cohesion
		{R: 255, G: 80, B: 80, A: 200},  // separation
		{R: 80, G: 160, B: 255, A: 200}, // alignment
		{R: 255, G: 255, B: 80, A: 200}, // repulsion
	}
)

type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	worldPID   *actor.PID
	snapshotCh chan *simulation.Snapshot
	lastState  *simulation.Snapshot
	cfg        *simulation.Config

	screenW, screenH int
	view             geometry.Rect // screen area showing the world

	// UI Controls
	panel               *ui.Panel
	widgetPaused        *ui.Checkbox
	widgetShowGrid      *ui.Checkbox
	widgetShowForces    *ui.Checkbox
	widgetColorByWorker *ui.Checkbox

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64 // Rolling average in ms
}

// NewGame spawns the world actor in system and builds the control panel.
func NewGame(ctx context.Context, cfg *simulation.Config, system actor.ActorSystem, screenW, screenH int) (*Game, error) {
	snapshotCh := make(chan *simulation.Snapshot, 2)
	worldPID, err := system.Spawn(ctx, simulation.ActorName, simulation.NewActor(cfg, snapshotCh))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}

	g := &Game{
		ctx:        ctx,
		System:     system,
		worldPID:   worldPID,
		snapshotCh: snapshotCh,
		lastState:  &simulation.Snapshot{}, // Avoid nil pointer
		cfg:        cfg,
		screenW:    screenW,
		screenH:    screenH,
	}
	g.view = fitView(cfg.Bounds(), geometry.NewRect(
		geometry.NewVector(panelWidth+20, 10),
		geometry.NewVector(float64(screenW-10), float64(screenH-10)),
	))

	g.panel = ui.NewPanel("Boids", 10, 10, panelWidth, float64(screenH)-20)
	g.panel.AddSection(fmt.Sprintf("Add %d boids", addBatch))
	variants := behavior.Variants()
	labels := make([]string, len(variants))
	for i, v := range variants {
		labels[i] = shortName(v)
	}
	g.panel.AddButtons(labels, func(i int) {
		g.tell(simulation.NewAddBoidsMessage(addBatch, variants[i]))
	})
	g.panel.AddButton("Clear", func() { g.tell(simulation.NewClearMessage()) })

	g.panel.AddSection("Visualization")
	g.widgetPaused = g.panel.AddCheckbox("Pause", false)
	g.widgetShowGrid = g.panel.AddCheckbox("Show grid", true)
	g.widgetShowForces = g.panel.AddCheckbox("Show forces", false)
	g.widgetColorByWorker = g.panel.AddCheckbox("Color by worker", false)
	return g, nil
}

func shortName(v behavior.Variant) string {
	switch v {
	case behavior.BruteForce:
		return "brute"
	case behavior.GridCached:
		return "cached"
	case behavior.Nearest:
		return "knn"
	default:
		return v.String()
	}
}

func (g *Game) tell(msg proto.Message) {
	if err := actor.Tell(g.ctx, g.worldPID, msg); err != nil {
		g.System.Logger().Warnf("message to world lost: %v", err)
	}
}

// fitView returns the largest rectangle with the aspect ratio of world centered in area.
func fitView(world, area geometry.Rect) geometry.Rect {
	scale := math.Min(area.Width()/world.Width(), area.Height()/world.Height())
	half := geometry.NewVector(world.Width()*scale/2, world.Height()*scale/2)
	c := area.Center()
	return geometry.Rect{Min: c.Sub(half), Max: c.Add(half)}
}

// toScreen maps a world position to pixels, Y pointing up in the world.
func (g *Game) toScreen(p geometry.Vector2D) (float32, float32) {
	u, v := g.lastState.Bounds.Normalized(p)
	s := g.view.Lerp(u, 1-v)
	return float32(s.X), float32(s.Y)
}

func (g *Game) pixelsPerUnit() float64 {
	return g.view.Width() / g.lastState.Bounds.Width()
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	// 1. Update UI Panel
	g.panel.Update()

	// 2. Retrieve Latest State (Non-blocking)
	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
	default:
		// Use previous state if new one isn't ready
	}

	// 3. Trigger Simulation Step
	if !g.widgetPaused.Value {
		g.tell(simulation.NewTickMessage(time.Second / time.Duration(ebiten.TPS())))
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(color.RGBA{R: 10, G: 10, B: 30, A: 255})
	if g.lastState.Bounds.Area() > 0 {
		if g.widgetShowGrid.Value {
			g.drawGrid(screen)
		}
		for i := range g.lastState.Boids {
			b := &g.lastState.Boids[i]
			if g.widgetShowForces.Value {
				g.drawForces(screen, b)
			}
			g.drawBoid(screen, b)
		}
	}

	g.panel.Draw(screen)
	g.drawStats(screen)
}

func (g *Game) drawGrid(screen *ebiten.Image) {
	maxCount := 1
	for _, c := range g.lastState.Cells {
		maxCount = max(maxCount, c.Count)
	}
	for _, c := range g.lastState.Cells {
		x0, y0 := g.toScreen(geometry.NewVector(c.Bounds.Min.X, c.Bounds.Max.Y))
		x1, y1 := g.toScreen(geometry.NewVector(c.Bounds.Max.X, c.Bounds.Min.Y))
		if c.Count > 0 {
			shade := uint8(10 + 60*c.Count/maxCount)
			vector.FillRect(screen, x0, y0, x1-x0, y1-y0, color.RGBA{R: shade / 2, G: shade / 2, B: shade, A: 255}, false)
		}
		vector.StrokeRect(screen, x0, y0, x1-x0, y1-y0, 1, color.RGBA{R: 60, G: 60, B: 90, A: 255}, false)
	}
}

func (g *Game) drawForces(screen *ebiten.Image, b *simulation.BoidView) {
	x, y := g.toScreen(b.State.Position)
	forces := [4]geometry.Vector2D{b.Forces.Cohesion, b.Forces.Separation, b.Forces.Alignment, b.Forces.Repulsion}
	for i, f := range forces {
		if f.IsZero() {
			continue
		}
		d := f.Mul(forceScale)
		vector.StrokeLine(screen, x, y, x+float32(d.X), y-float32(d.Y), 1, forceColors[i], true)
	}
}

func (g *Game) boidColor(b *simulation.BoidView) color.RGBA {
	if g.widgetColorByWorker.Value {
		if b.Affinity < 0 {
			return color.RGBA{R: 255, G: 255, B: 255, A: 255}
		}
		return workerColors[b.Affinity%len(workerColors)]
	}
	if b.Variant.Valid() {
		return variantColors[b.Variant]
	}
	return color.RGBA{R: 255, G: 255, B: 255, A: 255}
}

// drawBoid draws a triangle pointing along the boid direction.
func (g *Game) drawBoid(screen *ebiten.Image, b *simulation.BoidView) {
	x, y := g.toScreen(b.State.Position)
	// screen Y points down
	angle := -b.State.Direction.Angle()
	size := math.Max(boidSize, 0.15*g.pixelsPerUnit())

	tipX := float64(x) + math.Cos(angle)*size
	tipY := float64(y) + math.Sin(angle)*size
	rightX := float64(x) + math.Cos(angle+2.5)*size*0.8
	rightY := float64(y) + math.Sin(angle+2.5)*size*0.8
	leftX := float64(x) + math.Cos(angle-2.5)*size*0.8
	leftY := float64(y) + math.Sin(angle-2.5)*size*0.8

	c := g.boidColor(b)
	r, gr, bl := float32(c.R)/255, float32(c.G)/255, float32(c.B)/255
	vertices := []ebiten.Vertex{
		{DstX: float32(tipX), DstY: float32(tipY), SrcX: 1, SrcY: 1, ColorR: r, ColorG: gr, ColorB: bl, ColorA: 1},
		{DstX: float32(rightX), DstY: float32(rightY), SrcX: 1, SrcY: 1, ColorR: r, ColorG: gr, ColorB: bl, ColorA: 1},
		{DstX: float32(leftX), DstY: float32(leftY), SrcX: 1, SrcY: 1, ColorR: r, ColorG: gr, ColorB: bl, ColorA: 1},
	}
	screen.DrawTriangles(vertices, []uint16{0, 1, 2}, whiteImage, &ebiten.DrawTrianglesOptions{})
}

func (g *Game) drawStats(screen *ebiten.Image) {
	s := g.lastState
	counts := ""
	for _, v := range behavior.Variants() {
		counts += fmt.Sprintf("%-7s %d\n", shortName(v), s.Variants[v])
	}
	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms\n\nTick:     %d\nBoids:    %d\nOverruns: %d\nScheduler: %s\n\n%s",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg,
		s.Tick,
		len(s.Boids),
		s.Overruns,
		s.Scheduler,
		counts)
	// Print stats on the right side
	ebitenutil.DebugPrintAt(screen, msg, g.screenW-170, 10)
}

func (g *Game) Layout(w, h int) (int, int) { return g.screenW, g.screenH }
