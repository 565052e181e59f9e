package settings

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Preset is a named bundle of key→literal overrides applied as a unit.
type Preset struct {
	Name        string
	Description string
	Settings    map[string]string
	BuiltIn     bool
}

// builtinPresets are part of the immutable default configuration.
var builtinPresets = []Preset{
	{
		Name:        "draft",
		Description: "Fast printing, lower quality",
		Settings: map[string]string{
			"layer_height":          "0.3",
			"infill_sparse_density": "10",
			"wall_line_count":       "2",
			"top_layers":            "3",
			"bottom_layers":         "3",
			"speed_print":           "80",
		},
	},
	{
		Name:        "standard",
		Description: "Balanced quality and speed",
		Settings: map[string]string{
			"layer_height":          "0.2",
			"infill_sparse_density": "20",
			"wall_line_count":       "3",
			"top_layers":            "4",
			"bottom_layers":         "4",
			"speed_print":           "60",
		},
	},
	{
		Name:        "fine",
		Description: "High quality, slower printing",
		Settings: map[string]string{
			"layer_height":          "0.12",
			"infill_sparse_density": "20",
			"wall_line_count":       "3",
			"top_layers":            "5",
			"bottom_layers":         "5",
			"speed_print":           "40",
		},
	},
	{
		Name:        "strong",
		Description: "Maximum strength for functional parts",
		Settings: map[string]string{
			"layer_height":          "0.2",
			"infill_sparse_density": "60",
			"wall_line_count":       "4",
			"top_layers":            "6",
			"bottom_layers":         "6",
			"speed_print":           "50",
		},
	},
	{
		Name:        "PLA",
		Description: "Temperatures and settings for PLA filament",
		Settings: map[string]string{
			"material_print_temperature": "220",
			"material_bed_temperature":   "60",
			"cool_fan_speed":             "100",
			"cool_fan_speed_min":         "100",
			"cool_fan_speed_max":         "100",
			"speed_print":                "60",
		},
	},
	{
		Name:        "PETG",
		Description: "Temperatures and settings for PETG filament",
		Settings: map[string]string{
			"material_print_temperature": "235",
			"material_bed_temperature":   "75",
			"cool_fan_speed":             "50",
			"cool_fan_speed_min":         "50",
			"cool_fan_speed_max":         "50",
			"speed_print":                "45",
		},
	},
}

// PresetStore holds built-in presets plus any custom presets loaded from an
// external document. Lookup is case-insensitive.
type PresetStore struct {
	validator *Validator
	presets   map[string]Preset
}

// NewPresetStore builds a store seeded with the built-in presets. Every
// preset application is re-validated through validator.
func NewPresetStore(validator *Validator) *PresetStore {
	s := &PresetStore{
		validator: validator,
		presets:   make(map[string]Preset, len(builtinPresets)),
	}
	for _, preset := range builtinPresets {
		preset.BuiltIn = true
		s.presets[strings.ToLower(preset.Name)] = preset
	}
	return s
}

type customPreset struct {
	Description string         `yaml:"description"`
	Settings    map[string]any `yaml:"settings"`
}

// LoadCustom merges custom presets from a YAML document. A custom preset
// colliding with a built-in name never replaces it; the collided names are
// returned so the caller can report them.
func (s *PresetStore) LoadCustom(r io.Reader) (collisions []string, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("settings: custom presets: %w", err)
	}
	custom := map[string]customPreset{}
	if err := yaml.Unmarshal(data, &custom); err != nil {
		return nil, fmt.Errorf("settings: custom presets: %w", err)
	}

	for _, name := range sortedKeys(custom) {
		key := strings.ToLower(name)
		if existing, ok := s.presets[key]; ok && existing.BuiltIn {
			collisions = append(collisions, name)
			continue
		}
		entry := custom[name]
		preset := Preset{
			Name:        name,
			Description: entry.Description,
			Settings:    make(map[string]string, len(entry.Settings)),
		}
		for k, v := range entry.Settings {
			preset.Settings[k] = formatValue(v)
		}
		s.presets[key] = preset
	}
	return collisions, nil
}

// Get returns the preset registered under name, case-insensitively.
func (s *PresetStore) Get(name string) (Preset, bool) {
	preset, ok := s.presets[strings.ToLower(name)]
	return preset, ok
}

// Names returns all preset names sorted alphabetically.
func (s *PresetStore) Names() []string {
	names := make([]string, 0, len(s.presets))
	for _, preset := range s.presets {
		names = append(names, preset.Name)
	}
	sort.Strings(names)
	return names
}

// ApplyReport records the per-entry outcome of a preset application.
type ApplyReport struct {
	Applied  map[string]string
	Warnings map[string]string
	Skipped  map[string]string
}

// Apply validates every preset entry and merges the accepted ones over
// current, returning the new override set. Entries failing validation are
// skipped and reported, never aborting the rest of the preset. current is
// left untouched.
func (s *PresetStore) Apply(name string, current map[string]string) (map[string]string, ApplyReport, error) {
	report := ApplyReport{
		Applied:  map[string]string{},
		Warnings: map[string]string{},
		Skipped:  map[string]string{},
	}
	preset, ok := s.Get(name)
	if !ok {
		return nil, report, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	next := make(map[string]string, len(current)+len(preset.Settings))
	for key, value := range current {
		next[key] = value
	}
	for _, key := range sortedKeys(preset.Settings) {
		result := s.validator.Validate(key, preset.Settings[key])
		if !result.OK() {
			report.Skipped[key] = result.Reason
			continue
		}
		next[key] = result.Value
		report.Applied[key] = result.Value
		if result.Status == AcceptedWithWarning {
			report.Warnings[key] = result.Reason
		}
	}
	return next, report, nil
}
