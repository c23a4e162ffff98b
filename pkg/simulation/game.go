package simulation

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/cdietze/zombie-toolkit/pkg/ui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tochemey/goakt/v3/actor"
	"go.uber.org/zap"
)

// forceScale stretches steering vectors so they are visible on screen.
const forceScale = 40.0

var (
	unitColor      = color.RGBA{R: 120, G: 200, B: 90, A: 255}
	cohesionColor  = color.RGBA{R: 255, G: 80, B: 80, A: 255}
	alignmentColor = color.RGBA{R: 80, G: 160, B: 255, A: 255}
	radiusColor    = color.RGBA{R: 200, G: 200, B: 200, A: 40}
	wallColor      = color.RGBA{R: 160, G: 160, B: 170, A: 255}
)

// Game is the ebiten viewer. It never touches the simulation directly:
// it sends ticks and commands to the world actor and draws the snapshots
// coming back.
type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	worldPID   *actor.PID
	snapshotCh chan *Snapshot
	lastState  *Snapshot
	cfg        *Config
	log        *zap.Logger
	view       viewport
	whiteImage *ebiten.Image

	panel *ui.Panel

	widgetWanderPower     *ui.Slider
	widgetWanderJitter    *ui.Slider
	widgetCohesionRadius  *ui.Slider
	widgetCohesionPower   *ui.Slider
	widgetAlignmentRadius *ui.Slider
	widgetAlignmentPower  *ui.Slider
	widgetDisplayRadius   *ui.Checkbox
	widgetDisplayForces   *ui.Checkbox

	paused    bool
	lastPatch map[string]float64
	mouseDown bool

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64
}

// NewGame spawns the world actor in system and builds the viewer around it.
func NewGame(ctx context.Context, cfg *Config, system actor.ActorSystem, log *zap.Logger) (*Game, error) {
	if log == nil {
		log = zap.NewNop()
	}
	snapshotCh := make(chan *Snapshot, 4)
	worldPID, err := system.Spawn(ctx, "world", NewWorldActor(cfg, snapshotCh, log.Named("world")))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn world: %w", err)
	}

	view := newViewport(cfg)
	panel := ui.NewPanel("Swarm", 0, 0, cfg.Viewer.PanelWidth, view.height)
	s := cfg.Swarm

	g := &Game{
		ctx:        ctx,
		System:     system,
		worldPID:   worldPID,
		snapshotCh: snapshotCh,
		lastState:  &Snapshot{},
		cfg:        cfg,
		log:        log,
		view:       view,
		panel:      panel,
		whiteImage: ebiten.NewImage(3, 3),
	}
	g.whiteImage.Fill(color.White)

	panel.AddSection("Wander")
	g.widgetWanderPower = panel.AddSlider("Power", 0, 0.5, s.WanderPower)
	g.widgetWanderJitter = panel.AddSlider("Jitter", 0, 1, s.WanderJitter)
	panel.AddSection("Cohesion")
	g.widgetCohesionRadius = panel.AddSlider("Radius", 0.5, 30, s.CohesionRadius)
	g.widgetCohesionPower = panel.AddSlider("Power", 0, 0.5, s.CohesionPower)
	panel.AddSection("Alignment")
	g.widgetAlignmentRadius = panel.AddSlider("Radius", 0.5, 30, s.AlignmentRadius)
	g.widgetAlignmentPower = panel.AddSlider("Power", 0, 0.5, s.AlignmentPower)
	panel.AddSection("Visualization")
	g.widgetDisplayRadius = panel.AddCheckbox("Show radius", cfg.Viewer.DisplayRadius)
	g.widgetDisplayForces = panel.AddCheckbox("Show forces", cfg.Viewer.DisplayForces)
	panel.AddSection("Crowd")
	panel.AddButton("Spawn 10", func() {
		actor.Tell(ctx, worldPID, SpawnCommand(10, centerOf(cfg)))
	})
	panel.AddButton("Pause / resume", func() { g.paused = !g.paused })
	panel.EndSection()

	return g, nil
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	g.panel.Update()

	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
	default:
	}

	if patch := g.settingsPatch(); patch != nil {
		actor.Tell(g.ctx, g.worldPID, SettingsCommand(patch))
	}
	g.handlePointer()

	if !g.paused {
		actor.Tell(g.ctx, g.worldPID, NewTick(time.Second/time.Duration(ebiten.TPS())))
	}
	return nil
}

// settingsPatch returns the slider values that changed since the last call.
func (g *Game) settingsPatch() map[string]float64 {
	current := map[string]float64{
		"wanderPower":     g.widgetWanderPower.Value,
		"wanderJitter":    g.widgetWanderJitter.Value,
		"cohesionRadius":  g.widgetCohesionRadius.Value,
		"cohesionPower":   g.widgetCohesionPower.Value,
		"alignmentRadius": g.widgetAlignmentRadius.Value,
		"alignmentPower":  g.widgetAlignmentPower.Value,
	}
	if g.lastPatch == nil {
		g.lastPatch = current
		return nil
	}
	var patch map[string]float64
	for k, v := range current {
		if g.lastPatch[k] != v {
			if patch == nil {
				patch = make(map[string]float64)
			}
			patch[k] = v
		}
	}
	g.lastPatch = current
	return patch
}

// handlePointer kicks the unit under a fresh click outside the panel.
func (g *Game) handlePointer() {
	down := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	pressed := down && !g.mouseDown
	g.mouseDown = down
	if !pressed {
		return
	}
	mx, my := ebiten.CursorPosition()
	if g.panel.Contains(float64(mx), float64(my)) {
		return
	}
	actor.Tell(g.ctx, g.worldPID, KickCommand(g.view.toWorld(float64(mx), float64(my))))
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	g.drawWalls(screen)
	ppu := float32(g.view.ppu)
	showRadius := g.widgetDisplayRadius.Value
	showForces := g.widgetDisplayForces.Value
	radius := float32(math.Max(g.widgetCohesionRadius.Value, g.widgetAlignmentRadius.Value)) * ppu

	for i := range g.lastState.Units {
		u := &g.lastState.Units[i]
		x, y := g.view.toScreen(u.Pos)
		if showRadius {
			vector.StrokeCircle(screen, float32(x), float32(y), radius, 1, radiusColor, true)
		}
		vector.StrokeCircle(screen, float32(x), float32(y), float32(g.cfg.Arena.UnitRadius)*ppu, 1, unitColor, true)
		g.drawUnit(screen, x, y, u.Heading())
		if showForces {
			g.drawForce(screen, x, y, u.Cohesion, cohesionColor)
			g.drawForce(screen, x, y, u.Alignment, alignmentColor)
		}
	}

	g.panel.Draw(screen)
	g.drawStats(screen)
}

func (g *Game) drawWalls(screen *ebiten.Image) {
	x0, y0 := g.view.toScreen(geometry.Zero)
	x1, y1 := g.view.toScreen(geometry.NewVector(g.cfg.Arena.Width, g.cfg.Arena.Height))
	vector.StrokeRect(screen, float32(x0), float32(y0), float32(x1-x0), float32(y1-y0), 2, wallColor, true)
}

func (g *Game) drawForce(screen *ebiten.Image, x, y float64, f geometry.Vector2D, clr color.Color) {
	if f.IsZero() {
		return
	}
	d := f.Mul(forceScale * g.view.ppu)
	vector.StrokeLine(screen, float32(x), float32(y), float32(x+d.X), float32(y+d.Y), 1, clr, true)
}

// drawUnit draws a heading triangle, tip along the velocity.
func (g *Game) drawUnit(screen *ebiten.Image, x, y, angle float64) {
	size := g.cfg.Arena.UnitRadius * g.view.ppu
	vertex := func(a, r float64) ebiten.Vertex {
		return ebiten.Vertex{
			DstX: float32(x + math.Cos(a)*r),
			DstY: float32(y + math.Sin(a)*r),
			SrcX: 1, SrcY: 1,
			ColorR: 0.8, ColorG: 1, ColorB: 0.6, ColorA: 1,
		}
	}
	vertices := []ebiten.Vertex{
		vertex(angle, size*1.5),
		vertex(angle+2.5, size),
		vertex(angle-2.5, size),
	}
	screen.DrawTriangles(vertices, []uint16{0, 1, 2}, g.whiteImage, &ebiten.DrawTrianglesOptions{})
}

func (g *Game) drawStats(screen *ebiten.Image) {
	sample := g.lastState.Sample()
	state := "running"
	if g.paused {
		state = "paused"
	}
	msg := fmt.Sprintf("Tick: %d (%s)\nUnits: %d\nSpeed: %.2f\nPolarization: %.2f\nNeighbors: %.1f\n\nFPS: %.1f TPS: %.1f\nUpdate: %.2fms\nDraw:   %.2fms",
		sample.Tick, state,
		sample.Units,
		sample.MeanSpeed,
		sample.Polarization,
		sample.MeanNeighbors,
		ebiten.ActualFPS(), ebiten.ActualTPS(),
		g.updateAvg, g.drawAvg)
	ebitenutil.DebugPrintAt(screen, msg, int(g.view.width)-170, 10)
}

func (g *Game) Layout(int, int) (int, int) {
	return int(g.view.width), int(g.view.height)
}

// viewport maps world units to screen pixels. The arena sits right of the
// panel; screen y grows downward like world y.
type viewport struct {
	ppu           float64
	offsetX       float64
	width, height float64
}

func newViewport(cfg *Config) viewport {
	ppu := cfg.Viewer.PixelsPerUnit
	return viewport{
		ppu:     ppu,
		offsetX: cfg.Viewer.PanelWidth,
		width:   cfg.Viewer.PanelWidth + cfg.Arena.Width*ppu,
		height:  cfg.Arena.Height * ppu,
	}
}

func (v viewport) toScreen(p geometry.Vector2D) (float64, float64) {
	return v.offsetX + p.X*v.ppu, p.Y * v.ppu
}

func (v viewport) toWorld(x, y float64) geometry.Vector2D {
	return geometry.NewVector((x-v.offsetX)/v.ppu, y/v.ppu)
}
