package engine

import (
	"fmt"
	"runtime"
)

const (
	DefaultChunkSize     = 1000
	DefaultMaxMoves      = 10000
	DefaultSpawnSeed     = 12345
	DefaultMoveSeedBase  = 12345
	DefaultLogEveryTicks = 100
)

type Config struct {
	// ChunkSize is the number of consecutive ants one movement task owns.
	// Changing it changes the random streams, so runs are only comparable at
	// equal chunk sizes.
	ChunkSize    int
	MaxMoves     int
	SpawnSeed    int64
	MoveSeedBase int64

	// Workers bounds concurrent movement tasks (default GOMAXPROCS).
	Workers int

	// MaxTicks stops the loop early with OutcomeStopped; 0 means no bound.
	MaxTicks uint64

	// LogEveryTicks controls how often a TickLogEntry is written when a tick
	// logger is attached. Terminal ticks are always written.
	LogEveryTicks int
}

func DefaultConfig() Config {
	return Config{
		ChunkSize:     DefaultChunkSize,
		MaxMoves:      DefaultMaxMoves,
		SpawnSeed:     DefaultSpawnSeed,
		MoveSeedBase:  DefaultMoveSeedBase,
		Workers:       runtime.GOMAXPROCS(0),
		LogEveryTicks: DefaultLogEveryTicks,
	}
}

func (c *Config) normalize() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxMoves <= 0 {
		c.MaxMoves = DefaultMaxMoves
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.LogEveryTicks <= 0 {
		c.LogEveryTicks = DefaultLogEveryTicks
	}
}

func (c Config) Validate() error {
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk_size must be >= 0, got %d", c.ChunkSize)
	}
	if c.MaxMoves < 0 {
		return fmt.Errorf("max_moves must be >= 0, got %d", c.MaxMoves)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.LogEveryTicks < 0 {
		return fmt.Errorf("log_every_ticks must be >= 0, got %d", c.LogEveryTicks)
	}
	return nil
}
