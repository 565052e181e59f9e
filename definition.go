package settings

import "sort"

// SettingType enumerates the value types a setting definition may declare.
type SettingType string

const (
	TypeFloat SettingType = "float"
	TypeInt   SettingType = "int"
	TypeBool  SettingType = "bool"
	TypeEnum  SettingType = "enum"
	TypeStr   SettingType = "str"
)

func (t SettingType) valid() bool {
	switch t {
	case TypeFloat, TypeInt, TypeBool, TypeEnum, TypeStr:
		return true
	}
	return false
}

// Numeric reports whether values of this type are bounds-checked.
func (t SettingType) Numeric() bool {
	return t == TypeFloat || t == TypeInt
}

// SettingDefinition describes one canonical setting after the inheritance
// chain has been flattened. Bounds are pointers so an absent field imposes
// no constraint on that side. Definitions are never mutated after Load.
type SettingDefinition struct {
	Key          string
	Label        string
	Description  string
	Type         SettingType
	Unit         string
	DefaultValue any

	// ValueExpression, when set, is the formula that computes this
	// setting's default from other settings' values.
	ValueExpression string

	MinimumValue        *float64
	MaximumValue        *float64
	MinimumValueWarning *float64
	MaximumValueWarning *float64

	// Options maps enum value to display label, in declaration order.
	Options []EnumOption

	// Category is the label path of the category tree this setting was
	// flattened out of. Display grouping only, never lookup.
	Category string
}

// EnumOption is one allowed enum value with its display label.
type EnumOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionValues returns the allowed enum values in declaration order.
func (d *SettingDefinition) OptionValues() []string {
	values := make([]string, len(d.Options))
	for i, opt := range d.Options {
		values[i] = opt.Value
	}
	return values
}

// HasOption reports whether value is an allowed enum value. Matching is
// case-sensitive.
func (d *SettingDefinition) HasOption(value string) bool {
	for _, opt := range d.Options {
		if opt.Value == value {
			return true
		}
	}
	return false
}

func (d *SettingDefinition) clone() *SettingDefinition {
	out := *d
	out.MinimumValue = cloneBound(d.MinimumValue)
	out.MaximumValue = cloneBound(d.MaximumValue)
	out.MinimumValueWarning = cloneBound(d.MinimumValueWarning)
	out.MaximumValueWarning = cloneBound(d.MaximumValueWarning)
	if d.Options != nil {
		out.Options = append([]EnumOption(nil), d.Options...)
	}
	return &out
}

func cloneBound(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
