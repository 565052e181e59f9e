package settings

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// InstanceSetting is one deployment-level entry: a default value pushed to
// the slicing collaborator, optionally forced (sent even when it matches
// the definition default), optionally tightening bounds.
type InstanceSetting struct {
	DefaultValue string         `yaml:"default_value"`
	Forced       bool           `yaml:"forced"`
	Bounds       BoundsOverride `yaml:",inline"`
}

// InstanceDefaults maps setting key to its deployment entry. It is loaded
// once at startup alongside the definition documents.
type InstanceDefaults map[string]InstanceSetting

// LoadInstanceDefaults parses a YAML mapping of deployment defaults.
func LoadInstanceDefaults(r io.Reader) (InstanceDefaults, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("settings: instance defaults: %w", err)
	}
	defaults := InstanceDefaults{}
	if err := yaml.Unmarshal(data, &defaults); err != nil {
		return nil, fmt.Errorf("settings: instance defaults: %w", err)
	}
	return defaults, nil
}

// Values extracts key→default_value for every entry carrying one.
func (d InstanceDefaults) Values() map[string]string {
	values := make(map[string]string)
	for key, entry := range d {
		if entry.DefaultValue != "" {
			values[key] = entry.DefaultValue
		}
	}
	return values
}

// ForcedKeys returns the keys marked as always sent.
func (d InstanceDefaults) ForcedKeys() map[string]bool {
	forced := make(map[string]bool)
	for key, entry := range d {
		if entry.Forced {
			forced[key] = true
		}
	}
	return forced
}

// BoundsOverrides extracts the per-key bound replacements, ready to hand to
// the validator.
func (d InstanceDefaults) BoundsOverrides() map[string]BoundsOverride {
	overrides := make(map[string]BoundsOverride)
	for key, entry := range d {
		if entry.Bounds != (BoundsOverride{}) {
			overrides[key] = entry.Bounds
		}
	}
	return overrides
}
