package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config captures everything needed to generate, persist and simulate a
// voxel world.
type Config struct {
	Log     LogConfig         `yaml:"log" json:"log"`
	Terrain TerrainConfig     `yaml:"terrain" json:"terrain"`
	World   WorldConfig       `yaml:"world" json:"world"`
	Storage StorageConfig     `yaml:"storage" json:"storage"`
	Physics PhysicsConfig     `yaml:"physics" json:"physics"`
	Blocks  []BlockDefinition `yaml:"blocks" json:"blocks"`
}

type LogConfig struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
}

// TerrainConfig shapes the height quadtree. Size is the edge length of the
// square map centred on the origin; heights start at BaseHeight and deviate
// by at most MaxHeight at the first level, shrinking with depth.
type TerrainConfig struct {
	Seed       uint64  `yaml:"seed" json:"seed"`
	Size       float64 `yaml:"size" json:"size"`
	MaxDepth   uint32  `yaml:"max_depth" json:"maxDepth"`
	MaxHeight  float64 `yaml:"max_height" json:"maxHeight"`
	BaseHeight float64 `yaml:"base_height" json:"baseHeight"`
	FocusX     float64 `yaml:"focus_x" json:"focusX"` // level of detail centre
	FocusZ     float64 `yaml:"focus_z" json:"focusZ"`
	Full       bool    `yaml:"full" json:"full"` // refine the whole map to max_depth
}

// WorldConfig shapes the voxel octree. Blocks are referenced by their
// definition id.
type WorldConfig struct {
	Size         float64 `yaml:"size" json:"size"`
	MaxDepth     uint32  `yaml:"max_depth" json:"maxDepth"`
	SurfaceBlock string  `yaml:"surface_block" json:"surfaceBlock"`
	FillBlock    string  `yaml:"fill_block" json:"fillBlock"`
}

// StorageConfig selects where world snapshots go. An empty path keeps them in
// memory.
type StorageConfig struct {
	Path string `yaml:"path" json:"path"`
	Key  uint32 `yaml:"key" json:"key"`
}

type PhysicsConfig struct {
	Gravity      float64 `yaml:"gravity" json:"gravity"` // velocity gained per step
	MaxSteps     int     `yaml:"max_steps" json:"maxSteps"`
	PlayerWidth  float64 `yaml:"player_width" json:"playerWidth"`
	PlayerHeight float64 `yaml:"player_height" json:"playerHeight"`
}

type BlockDefinition struct {
	ID     string  `yaml:"id" json:"id"`
	Color  string  `yaml:"color" json:"color"`
	Solid  bool    `yaml:"solid" json:"solid"`
	Height float64 `yaml:"height" json:"height"` // fraction of the voxel filled from its floor
}

// Load reads configuration from a YAML or JSON file, picked by extension. An
// empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}

	if isJSON(path) {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.Wrap(err, "parse config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "validate config")
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Terrain: TerrainConfig{
			Seed:       1337,
			Size:       256,
			MaxDepth:   7,
			MaxHeight:  48,
			BaseHeight: 0,
		},
		World: WorldConfig{
			Size:         256,
			MaxDepth:     8,
			SurfaceBlock: "grass",
			FillBlock:    "dirt",
		},
		Storage: StorageConfig{
			Path: "",
			Key:  1,
		},
		Physics: PhysicsConfig{
			Gravity:      0.08,
			MaxSteps:     600,
			PlayerWidth:  0.6,
			PlayerHeight: 1.8,
		},
		Blocks: DefaultBlocks(),
	}
}

func (c *Config) Validate() error {
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return errors.Errorf("log.level %q is not a valid level", c.Log.Level)
	}
	if c.Terrain.Size <= 0 {
		return errors.New("terrain.size must be positive")
	}
	if c.Terrain.MaxDepth == 0 {
		return errors.New("terrain.maxDepth must be positive")
	}
	if c.Terrain.MaxDepth > 24 {
		return errors.New("terrain.maxDepth cannot exceed 24")
	}
	if c.Terrain.MaxHeight < 0 {
		return errors.New("terrain.maxHeight cannot be negative")
	}
	if half := c.Terrain.Size / 2; c.Terrain.FocusX < -half || c.Terrain.FocusX > half ||
		c.Terrain.FocusZ < -half || c.Terrain.FocusZ > half {
		return errors.New("terrain focus must lie inside the map")
	}
	if c.World.Size <= 0 {
		return errors.New("world.size must be positive")
	}
	if c.World.MaxDepth == 0 {
		return errors.New("world.maxDepth must be positive")
	}
	if c.World.MaxDepth > 16 {
		return errors.New("world.maxDepth cannot exceed 16")
	}
	if c.Physics.Gravity < 0 {
		return errors.New("physics.gravity cannot be negative")
	}
	if c.Physics.MaxSteps <= 0 {
		return errors.New("physics.maxSteps must be positive")
	}
	if c.Physics.PlayerWidth <= 0 || c.Physics.PlayerHeight <= 0 {
		return errors.New("physics player dimensions must be positive")
	}
	if err := validateBlocks(c.Blocks); err != nil {
		return err
	}
	if c.World.SurfaceBlock == "" {
		return errors.New("world.surfaceBlock must be set")
	}
	if !c.hasBlock(c.World.SurfaceBlock) {
		return errors.Errorf("world.surfaceBlock %q is not a defined block", c.World.SurfaceBlock)
	}
	if c.World.FillBlock == "" {
		return errors.New("world.fillBlock must be set")
	}
	if !c.hasBlock(c.World.FillBlock) {
		return errors.Errorf("world.fillBlock %q is not a defined block", c.World.FillBlock)
	}
	return nil
}

func (c *Config) hasBlock(id string) bool {
	for _, block := range c.Blocks {
		if block.ID == id {
			return true
		}
	}
	return false
}

func validateBlocks(blocks []BlockDefinition) error {
	if len(blocks) == 0 {
		return errors.New("blocks cannot be empty")
	}
	seen := make(map[string]struct{}, len(blocks))
	for i, block := range blocks {
		if block.ID == "" {
			return errors.Errorf("blocks[%d].id must be set", i)
		}
		if _, ok := seen[block.ID]; ok {
			return errors.Errorf("blocks[%d].id %q is duplicated", i, block.ID)
		}
		seen[block.ID] = struct{}{}
		if !isValidHexColor(block.Color) {
			return errors.Errorf("blocks[%d].color must be a hex RGB value", i)
		}
		if block.Height <= 0 || block.Height > 1 {
			return errors.Errorf("blocks[%d].height must be within (0, 1]", i)
		}
	}
	return nil
}

func isValidHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for _, ch := range s[1:] {
		switch {
		case ch >= '0' && ch <= '9':
		case ch >= 'a' && ch <= 'f':
		case ch >= 'A' && ch <= 'F':
		default:
			return false
		}
	}
	return true
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}
