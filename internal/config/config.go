package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"convsim/domain/stats"
	"convsim/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Simulation  SimulationConfig
	Density     DensityConfig
	Regions     RegionConfig
	Convergence ConvergenceConfig
	Server      ServerConfig
	Output      OutputConfig
	Batch       BatchConfig
}

// SimulationConfig holds the default experiment and trial count
type SimulationConfig struct {
	Trials         int
	Visitors       int
	ConversionRate float64
	Unit           stats.Unit
	Seed           *int64
}

// DensityConfig holds KDE settings
type DensityConfig struct {
	GridSize int
}

// RegionConfig holds the default bounds; both set yields the three standard
// regions.
type RegionConfig struct {
	Lower *float64
	Upper *float64
}

// ConvergenceConfig holds the prefix sizes for the convergence panels
type ConvergenceConfig struct {
	PrefixSizes []int
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// OutputConfig holds renderer output settings
type OutputConfig struct {
	Dir     string
	Formats []string
}

// BatchConfig holds batch driver settings
type BatchConfig struct {
	Parallelism int
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	simConfig, err := loadSimulationConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load simulation configuration")
	}
	config.Simulation = *simConfig

	gridSize, err := getEnvIntOrDefault("DENSITY_GRID_SIZE", stats.DefaultGridSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load density configuration")
	}
	config.Density = DensityConfig{GridSize: gridSize}

	regionConfig, err := loadRegionConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load region configuration")
	}
	config.Regions = *regionConfig

	prefixes, err := ParseIntList(getEnvOrDefault("CONVERGENCE_PREFIXES", "1,50,200,10000"))
	if err != nil {
		return nil, errors.Wrap(errors.ConfigInvalid(err.Error()), "failed to load convergence configuration")
	}
	config.Convergence = ConvergenceConfig{PrefixSizes: prefixes}

	config.Server = ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}

	config.Output = OutputConfig{
		Dir:     getEnvOrDefault("OUTPUT_DIR", "./out"),
		Formats: splitList(getEnvOrDefault("OUTPUT_FORMATS", "png,xlsx,html")),
	}

	parallelism, err := getEnvIntOrDefault("BATCH_PARALLELISM", 4)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load batch configuration")
	}
	config.Batch = BatchConfig{Parallelism: parallelism}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadSimulationConfig() (*SimulationConfig, error) {
	unit, err := stats.ParseUnit(getEnvOrDefault("SIM_UNIT", string(stats.UnitCount)))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	cfg := &SimulationConfig{Unit: unit}
	if cfg.Trials, err = getEnvIntOrDefault("SIM_TRIALS", 10000); err != nil {
		return nil, err
	}
	if cfg.Visitors, err = getEnvIntOrDefault("SIM_VISITORS", 1000); err != nil {
		return nil, err
	}
	if cfg.ConversionRate, err = getEnvFloatOrDefault("SIM_CONVERSION_RATE", 0.10); err != nil {
		return nil, err
	}

	if value := os.Getenv("SIM_SEED"); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("SIM_SEED must be an integer, got %q", value))
		}
		cfg.Seed = &seed
	}
	return cfg, nil
}

func loadRegionConfig() (*RegionConfig, error) {
	cfg := &RegionConfig{}
	for _, item := range []struct {
		key    string
		target **float64
		def    string
	}{
		{"REGION_LOWER", &cfg.Lower, "85"},
		{"REGION_UPPER", &cfg.Upper, "115"},
	} {
		raw := getEnvOrDefault(item.key, item.def)
		if strings.EqualFold(raw, "none") {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.ConfigInvalid(fmt.Sprintf("%s must be a number or \"none\", got %q", item.key, raw))
		}
		*item.target = &v
	}
	return cfg, nil
}

// Regions expands the configured bounds into the regions to evaluate: the
// three standard views when both bounds are set, a single one-sided region
// otherwise.
func (r RegionConfig) Regions() []stats.Region {
	switch {
	case r.Lower != nil && r.Upper != nil:
		return stats.DefaultRegions(*r.Lower, *r.Upper)
	case r.Lower != nil:
		return []stats.Region{stats.AtMost(*r.Lower)}
	case r.Upper != nil:
		return []stats.Region{stats.AtLeast(*r.Upper)}
	}
	return nil
}

func validateConfig(config *Config) error {
	if config.Simulation.Trials <= 0 {
		return errors.ConfigInvalid("SIM_TRIALS must be positive")
	}
	if config.Simulation.Visitors <= 0 {
		return errors.ConfigInvalid("SIM_VISITORS must be positive")
	}
	if r := config.Simulation.ConversionRate; r < 0 || r > 1 {
		return errors.ConfigInvalid("SIM_CONVERSION_RATE must be within [0,1]")
	}
	if config.Density.GridSize < 2 {
		return errors.ConfigInvalid("DENSITY_GRID_SIZE must be at least 2")
	}
	if config.Regions.Lower == nil && config.Regions.Upper == nil {
		return errors.ConfigInvalid("at least one of REGION_LOWER or REGION_UPPER is required")
	}
	if len(config.Convergence.PrefixSizes) == 0 {
		return errors.ConfigInvalid("CONVERGENCE_PREFIXES must not be empty")
	}
	if config.Batch.Parallelism < 1 {
		return errors.ConfigInvalid("BATCH_PARALLELISM must be at least 1")
	}
	return nil
}

// ParseIntList parses a comma-separated list such as "1,50,200,10000".
func ParseIntList(s string) ([]int, error) {
	parts := splitList(s)
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q in list", p)
		}
		out = append(out, v)
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvIntOrDefault returns defaultValue when key is unset; a set but
// unparsable value is a configuration error.
func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be an integer, got %q", key, value))
	}
	return intValue, nil
}

func getEnvFloatOrDefault(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	floatValue, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(fmt.Sprintf("%s must be a number, got %q", key, value))
	}
	return floatValue, nil
}
