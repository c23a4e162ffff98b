package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cdietze/zombie-toolkit/internal/telemetry"
	"github.com/cdietze/zombie-toolkit/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const askTimeout = 5 * time.Second

// runHeadless steps the world as fast as it answers. One goroutine asks
// for steps, the other writes the samples, so slow disks do not stall
// the simulation beyond the channel buffer. ticks <= 0 runs until ctx
// is done.
func runHeadless(ctx context.Context, system actor.ActorSystem, cfg *simulation.Config, ticks int, dir string, log *zap.Logger) error {
	pid, err := system.Spawn(ctx, "world", simulation.NewWorldActor(cfg, nil, log.Named("world")))
	if err != nil {
		return fmt.Errorf("failed to spawn world: %w", err)
	}

	rec, err := telemetry.CreateRecorder(dir)
	if err != nil {
		return err
	}
	defer func() {
		if err := rec.Close(); err != nil {
			log.Warn("closing telemetry failed", zap.Error(err))
		}
	}()
	if rec != nil {
		log.Info("recording telemetry", zap.String("dir", dir), zap.String("run_id", rec.RunID()))
	}

	samples := make(chan telemetry.Sample, 64)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(samples)
		for i := 0; ticks <= 0 || i < ticks; i++ {
			reply, err := actor.Ask(gctx, pid, simulation.StepCommand(), askTimeout)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				return fmt.Errorf("step %d: %w", i+1, err)
			}
			s, err := simulation.DecodeSample(reply)
			if err != nil {
				return err
			}
			select {
			case samples <- s:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		var last telemetry.Sample
		for s := range samples {
			if err := rec.Record(s); err != nil {
				return err
			}
			last = s
			if s.Tick%100 == 0 {
				log.Debug("tick", zap.Uint64("tick", s.Tick), zap.Float64("polarization", s.Polarization))
			}
		}
		log.Info("headless run finished",
			zap.Uint64("ticks", last.Tick),
			zap.Int("units", last.Units),
			zap.Float64("mean_speed", last.MeanSpeed),
			zap.Float64("polarization", last.Polarization))
		return nil
	})

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		// interrupted by the user
		return nil
	}
	return err
}
