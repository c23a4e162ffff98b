package simulation

import (
	"time"

	"github.com/cdietze/zombie-toolkit/pkg/geometry"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// kickReach is how far from the pointer a unit can be and still get kicked.
const kickReach = 2.0

// WorldActor owns the Driver. Its mailbox is the only path to the
// simulation, so steps, retuning and kicks never overlap.
type WorldActor struct {
	cfg    *Config
	log    *zap.Logger
	driver *Driver
	// Communication with UI, may be nil
	snapshotCh chan<- *Snapshot

	// --- Benchmark Stats ---
	stepCount   int
	lastLogTime time.Time
}

// NewWorldActor creates the world logic unit. Snapshots are pushed to
// snapshotCh after every tick when the receiver keeps up.
func NewWorldActor(cfg *Config, snapshotCh chan<- *Snapshot, log *zap.Logger) *WorldActor {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorldActor{
		cfg:         cfg,
		log:         log,
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (w *WorldActor) PreStart(*actor.Context) error {
	driver, err := NewDriver(w.cfg, w.log)
	if err != nil {
		return err
	}
	w.driver = driver

	n, err := driver.SpawnCrowd(w.cfg.Units, centerOf(w.cfg))
	if err != nil {
		return err
	}
	w.log.Info("world is spawning the swarm", zap.Int("units", n))
	return nil
}

func (w *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		w.log.Info("world started", zap.Int("units", w.driver.Len()))
		w.pushSnapshot()

	// The main simulation step, driven by the game loop
	case *durationpb.Duration:
		if n := w.driver.Advance(msg.AsDuration()); n > 0 {
			w.stepCount += n
			w.pushSnapshot()
		}
		w.logBenchmarks()

	case *structpb.Struct:
		w.handleCommand(ctx, msg)

	default:
		ctx.Unhandled()
	}
}

func (w *WorldActor) handleCommand(ctx *actor.ReceiveContext, cmd *structpb.Struct) {
	switch op := cmd.GetFields()[fieldOp].GetStringValue(); op {
	case opStep:
		w.driver.Step()
		w.stepCount++
		w.pushSnapshot()
		ctx.Response(SampleToStruct(w.driver.Sample()))

	case opSample:
		ctx.Response(SampleToStruct(w.driver.Sample()))

	case opSettings:
		next, err := applySettingsPatch(w.driver.Settings(), cmd)
		if err == nil {
			err = w.driver.SetSettings(next)
		}
		if err != nil {
			w.log.Warn("settings patch rejected", zap.Error(err))
			return
		}
		w.log.Debug("settings updated", zap.Any("settings", next))

	case opKick:
		if e, ok := w.driver.KickNearest(pointOf(cmd), kickReach); ok {
			w.log.Debug("unit kicked", zap.Any("entity", e))
		}

	case opSpawn:
		n := int(cmd.GetFields()["n"].GetNumberValue())
		placed, err := w.driver.SpawnCrowd(n, pointOf(cmd))
		if err != nil {
			w.log.Warn("spawn incomplete", zap.Int("placed", placed), zap.Error(err))
		}
		w.pushSnapshot()

	default:
		w.log.Warn("unknown world command", zap.String("op", op))
		ctx.Unhandled()
	}
}

func (w *WorldActor) logBenchmarks() {
	if time.Since(w.lastLogTime) < time.Second {
		return
	}
	w.log.Info("step rate",
		zap.Int("steps", w.stepCount),
		zap.Int("units", w.driver.Len()),
		zap.Uint64("tick", w.driver.Ticks()))
	w.stepCount = 0
	w.lastLogTime = time.Now()
}

func (w *WorldActor) pushSnapshot() {
	if w.snapshotCh == nil {
		return
	}
	select {
	case w.snapshotCh <- w.driver.Snapshot():
	default:
		// UI busy, skip frame
	}
}

func (w *WorldActor) PostStop(*actor.Context) error {
	if w.driver != nil {
		w.log.Info("world is shutdown", zap.Uint64("ticks", w.driver.Ticks()))
	}
	return nil
}

// centerOf is the middle of the arena described by cfg.
func centerOf(cfg *Config) geometry.Vector2D {
	return geometry.NewVector(cfg.Arena.Width/2, cfg.Arena.Height/2)
}
