package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/cdietze/zombie-toolkit/internal/observability"
	"github.com/cdietze/zombie-toolkit/pkg/simulation"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"go.uber.org/zap"
)

// newRootCmd wires flags through viper so every option can also be set
// from the environment, e.g. ZTK_LOG_LEVEL=debug or ZTK_TICKS=500.
func newRootCmd() *cobra.Command {
	v := viper.New()
	cmd := &cobra.Command{
		Use:           "ztk",
		Short:         "Zombie crowd swarm simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v)
		},
	}

	f := cmd.Flags()
	f.StringP("config", "c", "", "simulation config file (JSON or YAML)")
	f.String("log-level", "info", "log level: debug, info, warn, error")
	f.String("log-format", "console", "log format: console or json")
	f.String("log-file", "", "also log JSON to this rotating file")
	f.Bool("headless", false, "run without a window")
	f.Int("ticks", 0, "headless: number of steps to run, 0 runs until interrupted")
	f.String("telemetry-dir", "", "headless: write <run id>.csv telemetry into this directory")

	_ = v.BindPFlags(f)
	v.SetEnvPrefix("ZTK")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return cmd
}

func run(ctx context.Context, v *viper.Viper) error {
	logCfg := observability.DefaultLoggerConfig()
	logCfg.Level = v.GetString("log-level")
	logCfg.Format = v.GetString("log-format")
	logCfg.File = v.GetString("log-file")
	log, err := observability.Initialize(logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg := simulation.DefaultConfig()
	if path := v.GetString("config"); path != "" {
		if cfg, err = simulation.LoadConfig(path); err != nil {
			return err
		}
		log.Info("config loaded", zap.String("path", path))
	}

	system, err := actor.NewActorSystem("ZombieToolkit", actor.WithLogger(golog.DiscardLogger))
	if err != nil {
		return fmt.Errorf("failed to create actor system: %w", err)
	}
	if err := system.Start(ctx); err != nil {
		return fmt.Errorf("failed to start actor system: %w", err)
	}
	defer func() {
		// ctx may already be cancelled by a signal
		if err := system.Stop(context.Background()); err != nil {
			log.Warn("actor system stop failed", zap.Error(err))
		}
	}()

	if v.GetBool("headless") {
		return runHeadless(ctx, system, cfg, v.GetInt("ticks"), v.GetString("telemetry-dir"), log)
	}
	return runViewer(ctx, system, cfg, log)
}

func runViewer(ctx context.Context, system actor.ActorSystem, cfg *simulation.Config, log *zap.Logger) error {
	game, err := simulation.NewGame(ctx, cfg, system, log)
	if err != nil {
		return err
	}
	ebiten.SetWindowSize(game.Layout(0, 0))
	ebiten.SetWindowTitle("Zombie toolkit: swarm")
	return ebiten.RunGame(game)
}
