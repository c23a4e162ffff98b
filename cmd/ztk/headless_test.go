package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cdietze/zombie-toolkit/internal/telemetry"
	"github.com/cdietze/zombie-toolkit/pkg/simulation"
	"github.com/gocarina/gocsv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
	"go.uber.org/zap"
)

func startSystem(t *testing.T) actor.ActorSystem {
	t.Helper()
	ctx := context.Background()
	system, err := actor.NewActorSystem("HeadlessTest", actor.WithLogger(golog.DiscardLogger))
	require.NoError(t, err)
	require.NoError(t, system.Start(ctx))
	t.Cleanup(func() { _ = system.Stop(ctx) })
	return system
}

func readTelemetry(t *testing.T, dir string) []telemetry.Sample {
	t.Helper()
	files, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	b, err := os.ReadFile(files[0])
	require.NoError(t, err)

	var samples []telemetry.Sample
	require.NoError(t, gocsv.UnmarshalString(string(b), &samples))
	return samples
}

func smallConfig() *simulation.Config {
	cfg := simulation.DefaultConfig()
	cfg.Units = 20
	return cfg
}

func TestRunHeadlessWritesOneRowPerTick(t *testing.T) {
	dir := t.TempDir()
	err := runHeadless(context.Background(), startSystem(t), smallConfig(), 5, dir, zap.NewNop())
	require.NoError(t, err)

	samples := readTelemetry(t, dir)
	require.Len(t, samples, 5)
	for i, s := range samples {
		assert.Equal(t, uint64(i+1), s.Tick)
		assert.Equal(t, 20, s.Units)
		assert.Equal(t, samples[0].RunID, s.RunID)
	}
	assert.NotEmpty(t, samples[0].RunID)
}

func TestRunHeadlessWithoutTelemetry(t *testing.T) {
	err := runHeadless(context.Background(), startSystem(t), smallConfig(), 3, "", zap.NewNop())
	assert.NoError(t, err)
}

func TestRunHeadlessStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()
	err := runHeadless(ctx, startSystem(t), smallConfig(), 0, "", zap.NewNop())
	assert.NoError(t, err)
}

func TestRootCmdHeadlessFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ZTK_TICKS", "4")
	t.Setenv("ZTK_TELEMETRY_DIR", dir)

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--headless", "--log-level", "error"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Len(t, readTelemetry(t, dir), 4)
}

func TestRootCmdRejectsBadConfig(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--headless", "--log-level", "error", "--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, cmd.ExecuteContext(context.Background()))
}

func TestRootCmdRejectsBadLogLevel(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--headless", "--log-level", "loud"})
	assert.ErrorContains(t, cmd.ExecuteContext(context.Background()), "invalid log level")
}
