package settings

import (
	"fmt"
	"strconv"
	"strings"
)

// Registry owns the flattened definition mapping and its derived indexes.
// It is immutable after construction and safe for unsynchronised concurrent
// readers.
type Registry struct {
	defs       map[string]*SettingDefinition
	keys       []string
	labelIndex map[string][]string
	categories map[string][]string
}

func newRegistry(defs map[string]*SettingDefinition) *Registry {
	r := &Registry{
		defs:       defs,
		keys:       sortedKeys(defs),
		labelIndex: make(map[string][]string),
		categories: make(map[string][]string),
	}
	for _, key := range r.keys {
		defn := defs[key]
		label := strings.ToLower(defn.Label)
		r.labelIndex[label] = append(r.labelIndex[label], key)
		category := defn.Category
		if category == "" {
			category = "Other"
		}
		r.categories[category] = append(r.categories[category], key)
	}
	return r
}

// Get returns the definition for a canonical key.
func (r *Registry) Get(key string) (*SettingDefinition, bool) {
	defn, ok := r.defs[key]
	return defn, ok
}

// Keys returns every canonical key in lexicographic order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

// Len returns the number of definitions.
func (r *Registry) Len() int {
	return len(r.keys)
}

// KeysByLabel returns every key whose label equals label case-insensitively.
// Multiple keys sharing a label are all retained; disambiguation belongs to
// the resolver.
func (r *Registry) KeysByLabel(label string) []string {
	keys := r.labelIndex[strings.ToLower(label)]
	if len(keys) == 0 {
		return nil
	}
	out := make([]string, len(keys))
	copy(out, keys)
	return out
}

// CategoryGroup lists the keys flattened out of one category, for display
// grouping only.
type CategoryGroup struct {
	Category string
	Keys     []string
}

// Categories returns all category groups sorted by category name, keys
// sorted within each group.
func (r *Registry) Categories() []CategoryGroup {
	groups := make([]CategoryGroup, 0, len(r.categories))
	for _, category := range sortedKeys(r.categories) {
		keys := r.categories[category]
		out := make([]string, len(keys))
		copy(out, keys)
		groups = append(groups, CategoryGroup{Category: category, Keys: out})
	}
	return groups
}

// MergedValues produces the flat key→literal mapping handed to the slicing
// collaborator: every registry default, field-by-field replaced by the
// entries of overrides. Keys in overrides that are not in the registry are
// dropped.
func (r *Registry) MergedValues(overrides map[string]string) map[string]string {
	merged := make(map[string]string, len(r.keys))
	for _, key := range r.keys {
		if v := r.defs[key].DefaultValue; v != nil {
			merged[key] = formatValue(v)
		}
	}
	for key, value := range overrides {
		if _, ok := r.defs[key]; ok {
			merged[key] = value
		}
	}
	return merged
}

// formatValue renders an evaluated or default value as the literal string
// form the slicing collaborator consumes.
func formatValue(v any) string {
	switch value := v.(type) {
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	default:
		return fmt.Sprintf("%v", value)
	}
}
