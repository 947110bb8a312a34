package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"antmania.io/internal/sim/engine"
)

type Tuning struct {
	ChunkSize    int   `yaml:"chunk_size"`
	MaxMoves     int   `yaml:"max_moves"`
	SpawnSeed    int64 `yaml:"spawn_seed"`
	MoveSeedBase int64 `yaml:"move_seed_base"`
	Workers      int   `yaml:"workers"`

	MaxTicks      uint64 `yaml:"max_ticks"`
	LogEveryTicks int    `yaml:"log_every_ticks"`
}

func Defaults() Tuning {
	return Tuning{
		ChunkSize:     engine.DefaultChunkSize,
		MaxMoves:      engine.DefaultMaxMoves,
		SpawnSeed:     engine.DefaultSpawnSeed,
		MoveSeedBase:  engine.DefaultMoveSeedBase,
		LogEveryTicks: engine.DefaultLogEveryTicks,
	}
}

// Load reads a tuning file on top of Defaults, so omitted keys keep their
// default values.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be > 0, got %d", t.ChunkSize)
	}
	if t.MaxMoves <= 0 {
		return fmt.Errorf("max_moves must be > 0, got %d", t.MaxMoves)
	}
	return t.EngineConfig().Validate()
}

// EngineConfig maps the file onto an engine config. Workers=0 means one per
// GOMAXPROCS.
func (t Tuning) EngineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.ChunkSize = t.ChunkSize
	cfg.MaxMoves = t.MaxMoves
	cfg.SpawnSeed = t.SpawnSeed
	cfg.MoveSeedBase = t.MoveSeedBase
	if t.Workers > 0 {
		cfg.Workers = t.Workers
	}
	cfg.MaxTicks = t.MaxTicks
	cfg.LogEveryTicks = t.LogEveryTicks
	return cfg
}
