package settings

// Document is the JSON-serialisable export of a registry: every setting
// descriptor, category grouping for display, and the available presets.
// It is what a settings UI renders.
type Document struct {
	Settings   []SettingDescriptor  `json:"settings"`
	Categories []CategoryDescriptor `json:"categories"`
	Presets    []PresetDescriptor   `json:"presets,omitempty"`
	Defaults   map[string]string    `json:"defaults,omitempty"`
}

// SettingDescriptor is the flattened, display-ready form of one definition.
type SettingDescriptor struct {
	Key                 string       `json:"key"`
	Label               string       `json:"label"`
	Description         string       `json:"description,omitempty"`
	Type                SettingType  `json:"type"`
	Unit                string       `json:"unit,omitempty"`
	DefaultValue        string       `json:"default_value,omitempty"`
	ValueExpression     string       `json:"value,omitempty"`
	MinimumValue        *float64     `json:"minimum_value,omitempty"`
	MaximumValue        *float64     `json:"maximum_value,omitempty"`
	MinimumValueWarning *float64     `json:"minimum_value_warning,omitempty"`
	MaximumValueWarning *float64     `json:"maximum_value_warning,omitempty"`
	Options             []EnumOption `json:"options,omitempty"`
	Category            string       `json:"category,omitempty"`
}

// CategoryDescriptor lists the keys belonging to one category.
type CategoryDescriptor struct {
	Category string   `json:"category"`
	Keys     []string `json:"keys"`
}

// PresetDescriptor is the export form of one preset.
type PresetDescriptor struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Settings    map[string]string `json:"settings"`
	BuiltIn     bool              `json:"builtin,omitempty"`
}

// DocumentOption adds optional sections to an exported document.
type DocumentOption func(*Document)

// WithPresets includes the store's presets in the document.
func WithPresets(store *PresetStore) DocumentOption {
	return func(doc *Document) {
		if store == nil {
			return
		}
		for _, name := range store.Names() {
			preset, _ := store.Get(name)
			doc.Presets = append(doc.Presets, PresetDescriptor{
				Name:        preset.Name,
				Description: preset.Description,
				Settings:    preset.Settings,
				BuiltIn:     preset.BuiltIn,
			})
		}
	}
}

// WithDefaults includes deployment default values in the document.
func WithDefaults(defaults map[string]string) DocumentOption {
	return func(doc *Document) {
		if len(defaults) == 0 {
			return
		}
		doc.Defaults = make(map[string]string, len(defaults))
		for key, value := range defaults {
			doc.Defaults[key] = value
		}
	}
}

// Export renders the registry as a Document. Settings are ordered by key so
// repeated exports are byte-identical.
func (r *Registry) Export(opts ...DocumentOption) Document {
	doc := Document{
		Settings: make([]SettingDescriptor, 0, r.Len()),
	}
	for _, key := range r.Keys() {
		defn, _ := r.Get(key)
		descriptor := SettingDescriptor{
			Key:                 defn.Key,
			Label:               defn.Label,
			Description:         defn.Description,
			Type:                defn.Type,
			Unit:                defn.Unit,
			ValueExpression:     defn.ValueExpression,
			MinimumValue:        defn.MinimumValue,
			MaximumValue:        defn.MaximumValue,
			MinimumValueWarning: defn.MinimumValueWarning,
			MaximumValueWarning: defn.MaximumValueWarning,
			Options:             defn.Options,
			Category:            defn.Category,
		}
		if defn.DefaultValue != nil {
			descriptor.DefaultValue = formatValue(defn.DefaultValue)
		}
		doc.Settings = append(doc.Settings, descriptor)
	}
	for _, group := range r.Categories() {
		doc.Categories = append(doc.Categories, CategoryDescriptor(group))
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&doc)
		}
	}
	return doc
}
