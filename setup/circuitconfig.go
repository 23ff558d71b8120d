package setup

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CircuitConfig describes the fixed parameters a circuit was compiled
// with. Each setup bundles the config of the circuit version it belongs
// to, so provers can size their inputs without inspecting the circuit.
type CircuitConfig struct {
	// MaxLengths maps input signal names to their maximum length.
	MaxLengths map[string]uint `yaml:"max_lengths"`
	// HasInputSkipAudChecks reports whether the circuit exposes the input
	// signal that disables audience checks.
	HasInputSkipAudChecks bool `yaml:"has_input_skip_aud_checks"`
}

// LoadCircuitConfig reads and parses a circuit_config.yml file.
func LoadCircuitConfig(path string) (*CircuitConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read circuit config: %w", err)
	}
	var cfg CircuitConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse circuit config %s: %w", path, err)
	}
	return &cfg, nil
}

// MaxLength returns the maximum length of the given input signal.
func (c *CircuitConfig) MaxLength(signal string) (uint, error) {
	length, ok := c.MaxLengths[signal]
	if !ok {
		return 0, fmt.Errorf("signal %q not present in circuit config", signal)
	}
	return length, nil
}
