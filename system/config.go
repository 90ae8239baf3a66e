// Package system composes one or more hart.Hart over a single shared
// bus.Bus into a Machine, and provides the JSON boot configuration a
// cmd/rvsim driver loads before constructing one.
package system

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/rvsim/bus"
)

// BootConfig describes a machine's memory layout and HART count before
// a program is loaded. Sizes are in bytes. DefaultBootConfig returns the
// default noted on each field; Validate rejects a zero HartCount or
// MemorySize rather than substituting a default.
type BootConfig struct {
	// HartCount is the number of HARTs to bring up. Default: 1.
	HartCount int `json:"hart_count"`

	// MemorySize is the size of the shared bus. Default: bus.DefaultSize.
	MemorySize uint64 `json:"memory_size"`

	// StackSize is reserved below InitialSP for each HART's stack.
	// Default: loader.DefaultStackSize.
	StackSize uint64 `json:"stack_size"`

	// MaxInstructions caps each HART's RunUntilHalt loop. Zero means
	// unbounded.
	MaxInstructions uint64 `json:"max_instructions"`

	// EnableProbe wraps the shared bus in a bus.Probe to collect
	// fetch/data locality statistics.
	EnableProbe bool `json:"enable_probe"`
}

// DefaultBootConfig returns a single-HART machine with the package's
// default memory size and no instruction limit.
func DefaultBootConfig() *BootConfig {
	return &BootConfig{
		HartCount:       1,
		MemorySize:      bus.DefaultSize,
		StackSize:       2 * 1024 * 1024,
		MaxInstructions: 0,
		EnableProbe:     false,
	}
}

// LoadBootConfig reads a BootConfig from a JSON file, starting from
// DefaultBootConfig so an omitted field keeps its default rather than
// zeroing out.
func LoadBootConfig(path string) (*BootConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read boot config file: %w", err)
	}

	config := DefaultBootConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse boot config: %w", err)
	}
	return config, nil
}

// SaveBootConfig writes config to path as indented JSON.
func (c *BootConfig) SaveBootConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize boot config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write boot config file: %w", err)
	}
	return nil
}

// Validate checks that config describes a constructible machine.
func (c *BootConfig) Validate() error {
	if c.HartCount <= 0 {
		return fmt.Errorf("hart_count must be > 0")
	}
	if c.MemorySize == 0 {
		return fmt.Errorf("memory_size must be > 0")
	}
	return nil
}
