package reasoner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the reasoner's tunables: the backward-chainer's depth
// bound, the worker count for parallel materialization, and the round cap
// that guards against a non-range-restricted rule set that someone
// disabled validation for.
type Config struct {
	MaxDepth     int  `yaml:"max_depth"`
	MaxRounds    int  `yaml:"max_rounds"`
	WorkerCount  int  `yaml:"worker_count"`
	RepairOnFire bool `yaml:"repair_on_fire"`
}

// DefaultConfig returns the defaults: depth bound 10, no round cap (0
// means unbounded — termination is guaranteed for range-restricted
// rules), workers = runtime.NumCPU via 0.
func DefaultConfig() Config {
	return Config{
		MaxDepth:     10,
		MaxRounds:    0,
		WorkerCount:  0,
		RepairOnFire: false,
	}
}

// LoadConfig reads a YAML config file, filling any unset field from
// DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 10
	}
	return cfg, nil
}
