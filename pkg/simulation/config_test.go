package simulation

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cdietze/zombie-toolkit/pkg/swarm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 50*time.Millisecond, cfg.Step())
	assert.Equal(t, swarm.DefaultSettings(), cfg.SwarmSettings())
}

func TestLoadConfigYAML(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata", "crowd.yaml"))
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, 40, cfg.Units)
	assert.Equal(t, 20*time.Millisecond, cfg.Step())
	assert.Equal(t, 32.0, cfg.Arena.Width)
	// untouched fields keep their default
	assert.Equal(t, 0.4, cfg.Arena.UnitRadius)

	s := cfg.SwarmSettings()
	assert.Equal(t, swarm.CachedFriends, s.NeighborMode)
	assert.Equal(t, 4, s.MaxFriends)
	assert.Equal(t, 0.1, s.CohesionPower)
	assert.Equal(t, 0.05, s.AlignmentPower)
}

func TestLoadConfigJSON(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata", "crowd.json"))
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Units)
	assert.Equal(t, 6.0, cfg.Swarm.AlignmentRadius)
	assert.Equal(t, 10.0, cfg.Swarm.CohesionRadius)
	assert.True(t, cfg.Viewer.DisplayRadius)
	assert.True(t, cfg.Viewer.DisplayForces)
}

func TestLoadConfigRejectsSchemaViolations(t *testing.T) {
	for _, name := range []string{"bad_mode.json", "unknown_field.yaml"} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(filepath.Join("testdata", name))
			assert.ErrorContains(t, err, "config validation failed")
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestParseConfigCrossFieldRules(t *testing.T) {
	_, err := ParseConfig([]byte(`{"swarm": {"wanderPower": 0, "cohesionPower": 0, "alignmentPower": 0}}`))
	require.NoError(t, err)

	// each field is in range, but the unit does not fit the arena
	_, err = ParseConfig([]byte(`{"arena": {"width": 1, "unitRadius": 0.6}}`))
	assert.ErrorContains(t, err, "invalid config: arena")

	_, err = ParseConfig([]byte(`{"units": -1}`))
	assert.ErrorContains(t, err, "config validation failed")

	_, err = ParseConfig([]byte(`{not json`))
	assert.ErrorContains(t, err, "failed to decode config json")
}

func TestLoadConfigEmptyYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yml")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
