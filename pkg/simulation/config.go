package simulation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cdietze/zombie-toolkit/pkg/physics"
	"github.com/cdietze/zombie-toolkit/pkg/swarm"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.json
var configSchema string

const schemaURL = "config.schema.json"

type Config struct {
	Seed        uint64  `json:"seed"`
	Units       int     `json:"units"`       // crowd size spawned at start
	StepMillis  int     `json:"stepMillis"`  // fixed simulation step
	KickImpulse float64 `json:"kickImpulse"` // cap of the initial random kick, also used by pointer kicks

	Arena  physics.Config `json:"arena"`
	Swarm  SwarmConfig    `json:"swarm"`
	Viewer ViewerConfig   `json:"viewer"`
}

// SwarmConfig is the file form of swarm.Settings.
type SwarmConfig struct {
	WanderPower     float64 `json:"wanderPower"`
	WanderJitter    float64 `json:"wanderJitter"`
	CohesionRadius  float64 `json:"cohesionRadius"`
	CohesionPower   float64 `json:"cohesionPower"`
	AlignmentRadius float64 `json:"alignmentRadius"`
	AlignmentPower  float64 `json:"alignmentPower"`

	NeighborMode        string `json:"neighborMode"`
	FriendRefreshMillis int    `json:"friendRefreshMillis"`
	MaxFriends          int    `json:"maxFriends"`
}

type ViewerConfig struct {
	PixelsPerUnit float64 `json:"pixelsPerUnit"`
	PanelWidth    float64 `json:"panelWidth"`
	DisplayRadius bool    `json:"displayRadius"`
	DisplayForces bool    `json:"displayForces"`
}

func DefaultConfig() *Config {
	s := swarm.DefaultSettings()
	return &Config{
		Seed:        1,
		Units:       150,
		StepMillis:  50,
		KickImpulse: 4,
		Arena:       physics.DefaultConfig(),
		Swarm: SwarmConfig{
			WanderPower:         s.WanderPower,
			WanderJitter:        s.WanderJitter,
			CohesionRadius:      s.CohesionRadius,
			CohesionPower:       s.CohesionPower,
			AlignmentRadius:     s.AlignmentRadius,
			AlignmentPower:      s.AlignmentPower,
			NeighborMode:        string(s.NeighborMode),
			FriendRefreshMillis: int(s.FriendRefresh / time.Millisecond),
			MaxFriends:          s.MaxFriends,
		},
		Viewer: ViewerConfig{
			PixelsPerUnit: 16,
			PanelWidth:    240,
			DisplayForces: true,
		},
	}
}

// Step is the fixed simulation step.
func (c *Config) Step() time.Duration {
	return time.Duration(c.StepMillis) * time.Millisecond
}

// SwarmSettings converts the swarm section for the controller.
func (c *Config) SwarmSettings() swarm.Settings {
	return swarm.Settings{
		WanderPower:     c.Swarm.WanderPower,
		WanderJitter:    c.Swarm.WanderJitter,
		CohesionRadius:  c.Swarm.CohesionRadius,
		CohesionPower:   c.Swarm.CohesionPower,
		AlignmentRadius: c.Swarm.AlignmentRadius,
		AlignmentPower:  c.Swarm.AlignmentPower,
		NeighborMode:    swarm.NeighborMode(c.Swarm.NeighborMode),
		FriendRefresh:   time.Duration(c.Swarm.FriendRefreshMillis) * time.Millisecond,
		MaxFriends:      c.Swarm.MaxFriends,
	}
}

// Validate checks the cross-field rules the schema cannot express.
func (c *Config) Validate() error {
	if c.StepMillis <= 0 {
		return fmt.Errorf("stepMillis must be positive, got %d", c.StepMillis)
	}
	if c.Units < 0 {
		return fmt.Errorf("units must not be negative, got %d", c.Units)
	}
	if err := c.Arena.Validate(); err != nil {
		return fmt.Errorf("arena: %w", err)
	}
	return c.SwarmSettings().Validate()
}

// LoadConfig reads a JSON or YAML file, validates it against the embedded
// schema and overlays it on DefaultConfig. Missing fields keep their default.
func LoadConfig(configFile string) (*Config, error) {
	b, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".yaml", ".yml":
		if b, err = yamlToJSON(b); err != nil {
			return nil, fmt.Errorf("failed to decode config yaml: %w", err)
		}
	}
	return ParseConfig(b)
}

// ParseConfig validates raw JSON and overlays it on DefaultConfig.
func ParseConfig(b []byte) (*Config, error) {
	sch, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func compileSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(schemaURL, strings.NewReader(configSchema)); err != nil {
		return nil, err
	}
	return c.Compile(schemaURL)
}

// yamlToJSON re-encodes a YAML document so the schema sees plain JSON values.
func yamlToJSON(b []byte) ([]byte, error) {
	var v interface{}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}
