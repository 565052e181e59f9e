package settings

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-slicer-settings/layering"
)

// ValidationStatus discriminates the validator's result variants.
type ValidationStatus int

const (
	// Rejected means the value must not be stored.
	Rejected ValidationStatus = iota
	// Accepted means the value passed every check.
	Accepted
	// AcceptedWithWarning means the value is inside hard bounds but
	// outside the recommended range.
	AcceptedWithWarning
)

// ValidationResult carries the coerced value and the reason for a warning
// or rejection. Value holds the canonical string form to store.
type ValidationResult struct {
	Status ValidationStatus
	Value  string
	Reason string
}

// OK reports whether the value may be stored.
func (r ValidationResult) OK() bool {
	return r.Status != Rejected
}

// BoundsOverride replaces individual bound fields of one definition before
// checks run. Explicit fields win; nil fields keep the definition's own
// bound.
type BoundsOverride struct {
	MinimumValue        *float64 `yaml:"minimum_value" json:"minimum_value,omitempty"`
	MaximumValue        *float64 `yaml:"maximum_value" json:"maximum_value,omitempty"`
	MinimumValueWarning *float64 `yaml:"minimum_value_warning" json:"minimum_value_warning,omitempty"`
	MaximumValueWarning *float64 `yaml:"maximum_value_warning" json:"maximum_value_warning,omitempty"`
}

// LoadBoundsOverrides parses a YAML mapping from setting key to bound
// replacements.
func LoadBoundsOverrides(r io.Reader) (map[string]BoundsOverride, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("settings: bounds overrides: %w", err)
	}
	overrides := map[string]BoundsOverride{}
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("settings: bounds overrides: %w", err)
	}
	return overrides, nil
}

var (
	truthy = map[string]bool{"true": true, "yes": true, "1": true, "on": true}
	falsy  = map[string]bool{"false": true, "no": true, "0": true, "off": true}
)

// Validator type-checks and bounds-checks raw values against the registry.
// It holds no mutable state and is safe for concurrent use.
type Validator struct {
	registry *Registry
	bounds   map[string]BoundsOverride
}

// ValidatorOption tunes validator construction.
type ValidatorOption func(*Validator)

// WithBoundsOverrides layers replacement bounds over definition bounds.
func WithBoundsOverrides(overrides map[string]BoundsOverride) ValidatorOption {
	return func(v *Validator) {
		v.bounds = layering.Clone(overrides)
	}
}

// NewValidator builds a validator over registry.
func NewValidator(registry *Registry, opts ...ValidatorOption) *Validator {
	v := &Validator{registry: registry}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// Validate coerces raw by the definition's declared type and checks bounds.
// Every failure is returned as a Rejected result, never an error.
func (v *Validator) Validate(key, raw string) ValidationResult {
	defn, ok := v.registry.Get(key)
	if !ok {
		return reject(raw, fmt.Sprintf("unknown setting %q", key))
	}

	switch defn.Type {
	case TypeFloat:
		return v.validateFloat(defn, raw)
	case TypeInt:
		return v.validateInt(defn, raw)
	case TypeBool:
		return validateBool(raw)
	case TypeEnum:
		return validateEnum(defn, raw)
	default:
		return ValidationResult{Status: Accepted, Value: raw}
	}
}

// BatchResult reports the outcome of validating a batch of raw overrides.
type BatchResult struct {
	Applied  map[string]string
	Warnings map[string]string
	Errors   map[string]string
}

// ValidateAll validates every entry of raw independently. Failures never
// abort the batch; they land in Errors keyed by setting.
func (v *Validator) ValidateAll(raw map[string]string) BatchResult {
	batch := BatchResult{
		Applied:  map[string]string{},
		Warnings: map[string]string{},
		Errors:   map[string]string{},
	}
	for key, value := range raw {
		result := v.Validate(key, value)
		if !result.OK() {
			batch.Errors[key] = result.Reason
			continue
		}
		batch.Applied[key] = result.Value
		if result.Status == AcceptedWithWarning {
			batch.Warnings[key] = result.Reason
		}
	}
	return batch
}

func (v *Validator) validateFloat(defn *SettingDefinition, raw string) ValidationResult {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return reject(raw, fmt.Sprintf("expected a number, got %q", raw))
	}
	return v.checkBounds(defn, value, strconv.FormatFloat(value, 'f', -1, 64))
}

func (v *Validator) validateInt(defn *SettingDefinition, raw string) ValidationResult {
	trimmed := strings.TrimSpace(raw)
	value, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		// Whole-number float spellings like "3.0" are accepted.
		f, ferr := strconv.ParseFloat(trimmed, 64)
		if ferr != nil || f != float64(int64(f)) {
			return reject(raw, fmt.Sprintf("expected an integer, got %q", raw))
		}
		value = int64(f)
	}
	return v.checkBounds(defn, float64(value), strconv.FormatInt(value, 10))
}

func (v *Validator) checkBounds(defn *SettingDefinition, value float64, coerced string) ValidationResult {
	bounds := v.effectiveBounds(defn)
	unit := ""
	if defn.Unit != "" {
		unit = " " + defn.Unit
	}

	if bounds.MinimumValue != nil && value < *bounds.MinimumValue {
		return reject(coerced, fmt.Sprintf("value %s%s is below minimum %s%s",
			coerced, unit, formatValue(*bounds.MinimumValue), unit))
	}
	if bounds.MaximumValue != nil && value > *bounds.MaximumValue {
		return reject(coerced, fmt.Sprintf("value %s%s exceeds maximum %s%s",
			coerced, unit, formatValue(*bounds.MaximumValue), unit))
	}

	if bounds.MinimumValueWarning != nil && value < *bounds.MinimumValueWarning {
		return ValidationResult{
			Status: AcceptedWithWarning,
			Value:  coerced,
			Reason: fmt.Sprintf("value %s%s is below recommended minimum %s%s",
				coerced, unit, formatValue(*bounds.MinimumValueWarning), unit),
		}
	}
	if bounds.MaximumValueWarning != nil && value > *bounds.MaximumValueWarning {
		return ValidationResult{
			Status: AcceptedWithWarning,
			Value:  coerced,
			Reason: fmt.Sprintf("value %s%s is above recommended maximum %s%s",
				coerced, unit, formatValue(*bounds.MaximumValueWarning), unit),
		}
	}

	return ValidationResult{Status: Accepted, Value: coerced}
}

// effectiveBounds layers any configured override over the definition's own
// bounds, the same way inheriting documents override fields.
func (v *Validator) effectiveBounds(defn *SettingDefinition) BoundsOverride {
	base := BoundsOverride{
		MinimumValue:        defn.MinimumValue,
		MaximumValue:        defn.MaximumValue,
		MinimumValueWarning: defn.MinimumValueWarning,
		MaximumValueWarning: defn.MaximumValueWarning,
	}
	override, ok := v.bounds[defn.Key]
	if !ok {
		return base
	}
	return layering.Merge(override, base)
}

func validateBool(raw string) ValidationResult {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if truthy[lowered] {
		return ValidationResult{Status: Accepted, Value: "true"}
	}
	if falsy[lowered] {
		return ValidationResult{Status: Accepted, Value: "false"}
	}
	return reject(raw, fmt.Sprintf("expected true/false, got %q", raw))
}

func validateEnum(defn *SettingDefinition, raw string) ValidationResult {
	if defn.HasOption(raw) {
		return ValidationResult{Status: Accepted, Value: raw}
	}
	return reject(raw, fmt.Sprintf("invalid option %q, valid options: %s",
		raw, strings.Join(defn.OptionValues(), ", ")))
}

func reject(value, reason string) ValidationResult {
	return ValidationResult{Status: Rejected, Value: value, Reason: reason}
}
