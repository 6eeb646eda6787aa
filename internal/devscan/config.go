// ============================================================================
// Scanrunner Demonstration Orchestrator - Configuration Lookup
// ============================================================================
//
// Package: internal/devscan
// File: config.go
// Purpose: YAML-backed per-module option lookup
//
// A YAML document unmarshaled into a generic shape, read once at startup.
// The module-options sub-tree is deliberately left as map[string]any
// rather than a typed struct, since the orchestrator does not know the
// shape of any particular module's options — only
// types.DecodeModuleConfig interprets them, per module.
//
// ============================================================================

package devscan

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ScanConfig is the top-level YAML document a demonstration scan loads.
type ScanConfig struct {
	ScopeSearchDistance int                       `yaml:"scope_search_distance"`
	Targets             []string                  `yaml:"targets"`
	Modules             map[string]map[string]any `yaml:"modules"`
}

// LoadScanConfig reads and parses a YAML config file at path.
func LoadScanConfig(path string) (ScanConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ScanConfig{}, err
	}
	var cfg ScanConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return ScanConfig{}, err
	}
	if cfg.ScopeSearchDistance == 0 {
		cfg.ScopeSearchDistance = 1
	}
	return cfg, nil
}

// ModuleOptions returns the raw option map declared for moduleName, or nil
// if the config declares nothing for it — mirroring the orchestrator's
// "missing keys fall back to defaults" contract.
func (c ScanConfig) ModuleOptions(moduleName string) map[string]any {
	if c.Modules == nil {
		return nil
	}
	return c.Modules[moduleName]
}
