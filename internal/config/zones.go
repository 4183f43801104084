// Package config handles zonecast configuration and runtime state persistence.
// Static zone configuration lives in a YAML file; the runtime snapshot is
// persisted through the Store interface.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// OutputConfig describes one output transport attached to a zone.
type OutputConfig struct {
	Type string `yaml:"type"` // e.g. "airplay-out", "local", "spotify-input"
}

// ZoneConfig is the static, immutable configuration for one zone.
type ZoneConfig struct {
	ID      int            `yaml:"id"`
	Name    string         `yaml:"name"`
	Volume  int            `yaml:"volume"`   // startup volume, 0-100
	MaxVol  int            `yaml:"max_vol"`  // volume ceiling, 0-100
	Group   string         `yaml:"group"`    // audio group id, "" = ungrouped
	Outputs []OutputConfig `yaml:"outputs"`
	Inputs  []string       `yaml:"inputs"` // enabled input modes
}

// ZonesConfig is the top-level zones.yaml document.
type ZonesConfig struct {
	Zones []ZoneConfig `yaml:"zones"`
}

// LoadZones reads and validates the zones YAML file.
func LoadZones(path string) (*ZonesConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg ZonesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks zone ids are unique and volumes are sane.
func (c *ZonesConfig) Validate() error {
	seen := make(map[int]bool, len(c.Zones))
	for i := range c.Zones {
		z := &c.Zones[i]
		if z.ID < 0 {
			return fmt.Errorf("zone %q: negative id %d", z.Name, z.ID)
		}
		if seen[z.ID] {
			return fmt.Errorf("duplicate zone id %d", z.ID)
		}
		seen[z.ID] = true
		if z.MaxVol == 0 {
			z.MaxVol = 100
		}
		if z.Volume < 0 || z.Volume > z.MaxVol {
			return fmt.Errorf("zone %d: volume %d outside [0,%d]", z.ID, z.Volume, z.MaxVol)
		}
	}
	return nil
}

// DefaultZones returns a single-zone configuration used when no zones.yaml
// exists yet.
func DefaultZones() *ZonesConfig {
	return &ZonesConfig{
		Zones: []ZoneConfig{
			{
				ID:      0,
				Name:    "Living Room",
				Volume:  30,
				MaxVol:  100,
				Outputs: []OutputConfig{{Type: "local"}},
			},
		},
	}
}
