package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/goliatone/go-slicer-settings/layering"
)

// DocumentSource supplies raw definition documents by identifier.
type DocumentSource interface {
	ReadDocument(id string) ([]byte, error)
}

// DirSource reads documents named <id>.def.json from fsys.
func DirSource(fsys fs.FS) DocumentSource {
	return dirSource{fsys: fsys}
}

type dirSource struct {
	fsys fs.FS
}

func (s dirSource) ReadDocument(id string) ([]byte, error) {
	return fs.ReadFile(s.fsys, id+".def.json")
}

// MapSource serves documents from an in-memory map, keyed by identifier.
// Intended for tests and embedded definitions.
type MapSource map[string][]byte

func (s MapSource) ReadDocument(id string) ([]byte, error) {
	doc, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("document %q not found", id)
	}
	return doc, nil
}

type rawDocument struct {
	Name      string                     `json:"name"`
	Inherits  string                     `json:"inherits"`
	Settings  map[string]*rawSetting     `json:"settings"`
	Overrides map[string]definitionPatch `json:"overrides"`
}

type rawSetting struct {
	Label               string                 `json:"label"`
	Description         string                 `json:"description"`
	Type                string                 `json:"type"`
	Unit                string                 `json:"unit"`
	DefaultValue        any                    `json:"default_value"`
	Value               *string                `json:"value"`
	MinimumValue        any                    `json:"minimum_value"`
	MaximumValue        any                    `json:"maximum_value"`
	MinimumValueWarning any                    `json:"minimum_value_warning"`
	MaximumValueWarning any                    `json:"maximum_value_warning"`
	Options             optionList             `json:"options"`
	Children            map[string]*rawSetting `json:"children"`
}

// definitionPatch is the per-key override shape carried by inheriting
// documents. Absent fields stay nil so layering.Merge lets them fall
// through to weaker documents.
type definitionPatch struct {
	Label               *string `json:"label"`
	DefaultValue        any     `json:"default_value"`
	Value               *string `json:"value"`
	MinimumValue        any     `json:"minimum_value"`
	MaximumValue        any     `json:"maximum_value"`
	MinimumValueWarning any     `json:"minimum_value_warning"`
	MaximumValueWarning any     `json:"maximum_value_warning"`
}

// optionList decodes an enum options object while preserving the document's
// declaration order, which encoding/json's map decoding would lose.
type optionList []EnumOption

func (o *optionList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("options: expected object")
	}
	var list []EnumOption
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key := keyTok.(string)
		var label string
		if err := dec.Decode(&label); err != nil {
			return err
		}
		list = append(list, EnumOption{Value: key, Label: label})
	}
	*o = list
	return nil
}

// Load follows the inherits chain from rootID to the base document,
// flattens the base settings tree, and applies every descendant's override
// patches most-specific-first. Any failure is a *ConfigurationError; a
// process must not start without a registry.
func Load(source DocumentSource, rootID string) (*Registry, error) {
	docs, ids, err := resolveChain(source, rootID)
	if err != nil {
		return nil, err
	}

	// The last document in the chain is the least specific; it carries
	// the full settings tree.
	base := docs[len(docs)-1]
	baseID := ids[len(ids)-1]
	defs := make(map[string]*SettingDefinition)
	if err := flattenTree(base.Settings, "", defs); err != nil {
		return nil, configErr(baseID, err)
	}
	if len(defs) == 0 {
		return nil, configErr(baseID, fmt.Errorf("document defines no settings"))
	}

	patchSets := make([]map[string]definitionPatch, 0, len(docs))
	for _, doc := range docs {
		if len(doc.Overrides) > 0 {
			patchSets = append(patchSets, doc.Overrides)
		}
	}
	merged := layering.Merge(patchSets...)
	for _, key := range sortedKeys(merged) {
		defn, ok := defs[key]
		if !ok {
			// Overrides for settings outside the flattened tree are
			// ignored, matching the source definitions' own behaviour.
			continue
		}
		applyPatch(defn, merged[key])
	}

	for _, key := range sortedKeys(defs) {
		if err := checkDefinition(defs[key]); err != nil {
			return nil, configErr(rootID, err)
		}
	}

	return newRegistry(defs), nil
}

func resolveChain(source DocumentSource, rootID string) ([]*rawDocument, []string, error) {
	var (
		docs []*rawDocument
		ids  []string
		seen = map[string]bool{}
	)
	id := rootID
	for id != "" {
		if seen[id] {
			return nil, nil, configErr(id, ErrCyclicInherits)
		}
		seen[id] = true

		data, err := source.ReadDocument(id)
		if err != nil {
			return nil, nil, configErr(id, fmt.Errorf("read: %w", err))
		}
		doc := &rawDocument{}
		if err := json.Unmarshal(data, doc); err != nil {
			return nil, nil, configErr(id, fmt.Errorf("parse: %w", err))
		}
		docs = append(docs, doc)
		ids = append(ids, id)
		id = doc.Inherits
	}
	return docs, ids, nil
}

func flattenTree(node map[string]*rawSetting, category string, out map[string]*SettingDefinition) error {
	for _, key := range sortedKeys(node) {
		raw := node[key]
		current := category
		if raw.Type == "category" {
			current = raw.Label
			if current == "" {
				current = key
			}
		}

		if t := SettingType(raw.Type); t.valid() {
			if _, exists := out[key]; exists {
				return fmt.Errorf("duplicate setting key %q", key)
			}
			label := raw.Label
			if label == "" {
				label = key
			}
			defn := &SettingDefinition{
				Key:                 key,
				Label:               label,
				Description:         raw.Description,
				Type:                t,
				Unit:                raw.Unit,
				DefaultValue:        raw.DefaultValue,
				MinimumValue:        parseBound(raw.MinimumValue),
				MaximumValue:        parseBound(raw.MaximumValue),
				MinimumValueWarning: parseBound(raw.MinimumValueWarning),
				MaximumValueWarning: parseBound(raw.MaximumValueWarning),
				Options:             []EnumOption(raw.Options),
				Category:            current,
			}
			if raw.Value != nil {
				defn.ValueExpression = *raw.Value
			}
			out[key] = defn
		}

		if len(raw.Children) > 0 {
			if err := flattenTree(raw.Children, current, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyPatch(defn *SettingDefinition, patch definitionPatch) {
	if patch.Label != nil {
		defn.Label = *patch.Label
	}
	if patch.DefaultValue != nil {
		defn.DefaultValue = patch.DefaultValue
	}
	if patch.Value != nil {
		defn.ValueExpression = *patch.Value
	}
	if patch.MinimumValue != nil {
		defn.MinimumValue = parseBound(patch.MinimumValue)
	}
	if patch.MaximumValue != nil {
		defn.MaximumValue = parseBound(patch.MaximumValue)
	}
	if patch.MinimumValueWarning != nil {
		defn.MinimumValueWarning = parseBound(patch.MinimumValueWarning)
	}
	if patch.MaximumValueWarning != nil {
		defn.MaximumValueWarning = parseBound(patch.MaximumValueWarning)
	}
}

// parseBound interprets a bound field. Bounds expressed as formulas rather
// than literals impose no static constraint, same as an absent field.
func parseBound(value any) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

// checkDefinition enforces the invariants a flattened definition must hold.
// Warning-bound ordering anomalies are deliberately tolerated; the
// validator handles them at check time.
func checkDefinition(defn *SettingDefinition) error {
	if defn.Type == TypeEnum && len(defn.Options) == 0 {
		return fmt.Errorf("enum setting %q has no options", defn.Key)
	}
	if defn.MinimumValue != nil && defn.MaximumValue != nil && *defn.MinimumValue > *defn.MaximumValue {
		return fmt.Errorf("setting %q: minimum %v exceeds maximum %v", defn.Key, *defn.MinimumValue, *defn.MaximumValue)
	}
	return nil
}
