package search

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// ErrInvalidConfig wraps every search configuration error.
var ErrInvalidConfig = errors.New("invalid search config")

// Config holds the genetic algorithm parameters.
type Config struct {
	PopulationSize int     `json:"population_size"`
	MaxGenerations int     `json:"max_generations"`
	CrossoverRate  float64 `json:"crossover_rate"`
	// MutationRate is the per-YearPlan mutation probability.
	MutationRate   float64 `json:"mutation_rate"`
	TournamentSize int     `json:"tournament_size"`
	// EliteCount best plans are copied unchanged into the next generation.
	EliteCount int `json:"elite_count"`
	// ArchiveSize bounds the best-N archive reported at the end of a run.
	ArchiveSize      int `json:"archive_size"`
	MaxMutationDelta int `json:"max_mutation_delta"`
	// MaxInitialBuy bounds each random buy of the initial population.
	MaxInitialBuy   int     `json:"max_initial_buy"`
	SellProbability float64 `json:"sell_probability"`
	Workers         int     `json:"workers"`
	Seed            int64   `json:"seed"`
	// TimeBudgetSeconds stops the search after the given wall time; zero
	// disables the limit.
	TimeBudgetSeconds float64 `json:"time_budget_seconds"`
}

const (
	DefaultPopulationSize   = 50
	DefaultMaxGenerations   = 30
	DefaultCrossoverRate    = 0.9
	DefaultMutationRate     = 0.1
	DefaultTournamentSize   = 5
	DefaultEliteCount       = 2
	DefaultArchiveSize      = 5
	DefaultMaxMutationDelta = 3
	DefaultMaxInitialBuy    = 10
	DefaultSellProbability  = 0.1
	DefaultSeed             = 20
)

// DefaultConfig returns the configuration used when nothing is set. Fields
// assigned on the returned value keep their value, zero included.
func DefaultConfig() Config {
	var c Config
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields with their default value. Zero counts as
// unset for every field, so a zero rate, elite count or mutation delta is
// set on a DefaultConfig instead.
func (c *Config) SetDefaults() {
	if c.PopulationSize == 0 {
		c.PopulationSize = DefaultPopulationSize
	}
	if c.MaxGenerations == 0 {
		c.MaxGenerations = DefaultMaxGenerations
	}
	if c.CrossoverRate == 0 {
		c.CrossoverRate = DefaultCrossoverRate
	}
	if c.MutationRate == 0 {
		c.MutationRate = DefaultMutationRate
	}
	if c.TournamentSize == 0 {
		c.TournamentSize = DefaultTournamentSize
	}
	if c.EliteCount == 0 {
		c.EliteCount = DefaultEliteCount
	}
	if c.ArchiveSize == 0 {
		c.ArchiveSize = DefaultArchiveSize
	}
	if c.MaxMutationDelta == 0 {
		c.MaxMutationDelta = DefaultMaxMutationDelta
	}
	if c.MaxInitialBuy == 0 {
		c.MaxInitialBuy = DefaultMaxInitialBuy
	}
	if c.SellProbability == 0 {
		c.SellProbability = DefaultSellProbability
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Seed == 0 {
		c.Seed = DefaultSeed
	}
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	switch {
	case c.PopulationSize < 2:
		return fmt.Errorf("%w: population_size must be at least 2", ErrInvalidConfig)
	case c.MaxGenerations < 1:
		return fmt.Errorf("%w: max_generations must be at least 1", ErrInvalidConfig)
	case !unit(c.CrossoverRate):
		return fmt.Errorf("%w: crossover_rate %.3f outside [0,1]", ErrInvalidConfig, c.CrossoverRate)
	case !unit(c.MutationRate):
		return fmt.Errorf("%w: mutation_rate %.3f outside [0,1]", ErrInvalidConfig, c.MutationRate)
	case !unit(c.SellProbability):
		return fmt.Errorf("%w: sell_probability %.3f outside [0,1]", ErrInvalidConfig, c.SellProbability)
	case c.TournamentSize < 1 || c.TournamentSize > c.PopulationSize:
		return fmt.Errorf("%w: tournament_size must be in [1, population_size]", ErrInvalidConfig)
	case c.EliteCount < 0 || c.EliteCount >= c.PopulationSize:
		return fmt.Errorf("%w: elite_count must be in [0, population_size)", ErrInvalidConfig)
	case c.ArchiveSize < 1:
		return fmt.Errorf("%w: archive_size must be positive", ErrInvalidConfig)
	case c.MaxMutationDelta < 0, c.MaxInitialBuy < 0:
		return fmt.Errorf("%w: mutation delta and initial buy must be non-negative", ErrInvalidConfig)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers must be non-negative", ErrInvalidConfig)
	case c.TimeBudgetSeconds < 0:
		return fmt.Errorf("%w: time_budget_seconds must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// TimeBudget returns the wall-clock budget, zero meaning unlimited.
func (c Config) TimeBudget() time.Duration {
	return time.Duration(c.TimeBudgetSeconds * float64(time.Second))
}

func unit(v float64) bool { return v >= 0 && v <= 1 }
