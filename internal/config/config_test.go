package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestValidateDefaultConfig(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestValidateDetectsInvalidConfigurations(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "unknown log level",
			mutate:  func(cfg *Config) { cfg.Log.Level = "loud" },
			wantErr: `log.level "loud" is not a valid level`,
		},
		{
			name:    "non positive terrain size",
			mutate:  func(cfg *Config) { cfg.Terrain.Size = 0 },
			wantErr: "terrain.size must be positive",
		},
		{
			name:    "zero terrain depth",
			mutate:  func(cfg *Config) { cfg.Terrain.MaxDepth = 0 },
			wantErr: "terrain.maxDepth must be positive",
		},
		{
			name:    "terrain too deep",
			mutate:  func(cfg *Config) { cfg.Terrain.MaxDepth = 25 },
			wantErr: "terrain.maxDepth cannot exceed 24",
		},
		{
			name:    "negative terrain height",
			mutate:  func(cfg *Config) { cfg.Terrain.MaxHeight = -1 },
			wantErr: "terrain.maxHeight cannot be negative",
		},
		{
			name:    "focus outside the map",
			mutate:  func(cfg *Config) { cfg.Terrain.FocusZ = cfg.Terrain.Size },
			wantErr: "terrain focus must lie inside the map",
		},
		{
			name:    "non positive world size",
			mutate:  func(cfg *Config) { cfg.World.Size = -2 },
			wantErr: "world.size must be positive",
		},
		{
			name:    "zero world depth",
			mutate:  func(cfg *Config) { cfg.World.MaxDepth = 0 },
			wantErr: "world.maxDepth must be positive",
		},
		{
			name:    "world too deep",
			mutate:  func(cfg *Config) { cfg.World.MaxDepth = 17 },
			wantErr: "world.maxDepth cannot exceed 16",
		},
		{
			name:    "negative gravity",
			mutate:  func(cfg *Config) { cfg.Physics.Gravity = -0.1 },
			wantErr: "physics.gravity cannot be negative",
		},
		{
			name:    "no simulation steps",
			mutate:  func(cfg *Config) { cfg.Physics.MaxSteps = 0 },
			wantErr: "physics.maxSteps must be positive",
		},
		{
			name:    "flat player",
			mutate:  func(cfg *Config) { cfg.Physics.PlayerHeight = 0 },
			wantErr: "physics player dimensions must be positive",
		},
		{
			name:    "no blocks",
			mutate:  func(cfg *Config) { cfg.Blocks = nil },
			wantErr: "blocks cannot be empty",
		},
		{
			name:    "missing block id",
			mutate:  func(cfg *Config) { cfg.Blocks[0].ID = "" },
			wantErr: "blocks[0].id must be set",
		},
		{
			name:    "duplicated block id",
			mutate:  func(cfg *Config) { cfg.Blocks[2].ID = cfg.Blocks[1].ID },
			wantErr: `blocks[2].id "dirt" is duplicated`,
		},
		{
			name:    "bad block color",
			mutate:  func(cfg *Config) { cfg.Blocks[1].Color = "brown" },
			wantErr: "blocks[1].color must be a hex RGB value",
		},
		{
			name:    "block taller than a voxel",
			mutate:  func(cfg *Config) { cfg.Blocks[3].Height = 1.5 },
			wantErr: "blocks[3].height must be within (0, 1]",
		},
		{
			name:    "missing surface block",
			mutate:  func(cfg *Config) { cfg.World.SurfaceBlock = "" },
			wantErr: "world.surfaceBlock must be set",
		},
		{
			name:    "undefined fill block",
			mutate:  func(cfg *Config) { cfg.World.FillBlock = "marble" },
			wantErr: `world.fillBlock "marble" is not a defined block`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Equal(t, tt.wantErr, err.Error())
		})
	}
}

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadReadsYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()

	cfg := Default()
	cfg.Terrain.Seed = 42
	cfg.Terrain.Full = true
	cfg.Storage.Path = filepath.Join(dir, "world.db")
	cfg.World.SurfaceBlock = "sand"

	yamlData, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	yamlPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yamlPath, yamlData, 0o600))

	jsonData, err := json.Marshal(cfg)
	require.NoError(t, err)
	jsonPath := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(jsonPath, jsonData, 0o600))

	for _, path := range []string{yamlPath, jsonPath} {
		got, err := Load(path)
		require.NoError(t, err, path)
		require.Equal(t, cfg, got, path)
	}
}

func TestLoadOverridesOnlyListedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("terrain:\n  seed: 7\n  max_depth: 5\nlog:\n  level: debug\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, uint64(7), cfg.Terrain.Seed)
	require.Equal(t, uint32(5), cfg.Terrain.MaxDepth)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, Default().Terrain.Size, cfg.Terrain.Size)
	require.Equal(t, Default().Blocks, cfg.Blocks)
}

func TestLoadInvalidConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"world":{"size":0}}`), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "validate config: world.size must be positive")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteDefaultRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"nested/config.yaml", "nested/config.json"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteDefault(path))

		cfg, err := Load(path)
		require.NoError(t, err, name)
		require.Equal(t, Default(), cfg, name)
	}
}
