package settings

import (
	"encoding/json"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExportOrdersSettingsByKey(t *testing.T) {
	registry := testRegistry(t)
	doc := registry.Export()

	if len(doc.Settings) != registry.Len() {
		t.Fatalf("exported %d settings, registry has %d", len(doc.Settings), registry.Len())
	}
	keys := make([]string, len(doc.Settings))
	for i, descriptor := range doc.Settings {
		keys[i] = descriptor.Key
	}
	if !sort.StringsAreSorted(keys) {
		t.Fatalf("settings not sorted by key: %v", keys)
	}
}

func TestExportDescriptorCarriesDefinitionFields(t *testing.T) {
	registry := testRegistry(t)
	doc := registry.Export()

	var layerHeight *SettingDescriptor
	for i := range doc.Settings {
		if doc.Settings[i].Key == "layer_height" {
			layerHeight = &doc.Settings[i]
			break
		}
	}
	if layerHeight == nil {
		t.Fatal("layer_height missing from export")
	}
	if layerHeight.Label != "Layer Height" {
		t.Errorf("label = %q", layerHeight.Label)
	}
	if layerHeight.Type != TypeFloat {
		t.Errorf("type = %q", layerHeight.Type)
	}
	if layerHeight.Unit != "mm" {
		t.Errorf("unit = %q", layerHeight.Unit)
	}
	if layerHeight.DefaultValue != "0.16" {
		t.Errorf("default = %q, want inherited override 0.16", layerHeight.DefaultValue)
	}
	if layerHeight.MaximumValue == nil || *layerHeight.MaximumValue != 0.8 {
		t.Errorf("maximum = %v, want 0.8", layerHeight.MaximumValue)
	}
	if layerHeight.MaximumValueWarning == nil || *layerHeight.MaximumValueWarning != 0.32 {
		t.Errorf("warning maximum = %v, want 0.32", layerHeight.MaximumValueWarning)
	}
	if layerHeight.Category != "Quality" {
		t.Errorf("category = %q", layerHeight.Category)
	}
}

func TestExportPreservesEnumOptionOrder(t *testing.T) {
	registry := testRegistry(t)
	doc := registry.Export()

	for _, descriptor := range doc.Settings {
		if descriptor.Key != "infill_pattern" {
			continue
		}
		want := []EnumOption{
			{Value: "grid", Label: "Grid"},
			{Value: "lines", Label: "Lines"},
			{Value: "triangles", Label: "Triangles"},
		}
		if diff := cmp.Diff(want, descriptor.Options); diff != "" {
			t.Fatalf("options mismatch (-want +got):\n%s", diff)
		}
		return
	}
	t.Fatal("infill_pattern missing from export")
}

func TestExportCategoriesMatchRegistry(t *testing.T) {
	registry := testRegistry(t)
	doc := registry.Export()

	groups := registry.Categories()
	if len(doc.Categories) != len(groups) {
		t.Fatalf("exported %d categories, registry has %d", len(doc.Categories), len(groups))
	}
	for i, group := range groups {
		if doc.Categories[i].Category != group.Category {
			t.Errorf("category[%d] = %q, want %q", i, doc.Categories[i].Category, group.Category)
		}
		if diff := cmp.Diff(group.Keys, doc.Categories[i].Keys); diff != "" {
			t.Errorf("category %q keys mismatch (-want +got):\n%s", group.Category, diff)
		}
	}
}

func TestExportWithPresets(t *testing.T) {
	registry := testRegistry(t)
	store := NewPresetStore(NewValidator(registry))
	doc := registry.Export(WithPresets(store))

	names := make([]string, len(doc.Presets))
	for i, preset := range doc.Presets {
		names[i] = preset.Name
		if !preset.BuiltIn {
			t.Errorf("preset %q not marked builtin", preset.Name)
		}
	}
	if diff := cmp.Diff(store.Names(), names); diff != "" {
		t.Fatalf("preset names mismatch (-want +got):\n%s", diff)
	}
}

func TestExportWithDefaultsCopiesInput(t *testing.T) {
	registry := testRegistry(t)
	defaults := map[string]string{"layer_height": "0.24"}
	doc := registry.Export(WithDefaults(defaults))

	defaults["layer_height"] = "mutated"
	if doc.Defaults["layer_height"] != "0.24" {
		t.Fatalf("defaults aliased input map: %q", doc.Defaults["layer_height"])
	}
}

func TestExportDeterministic(t *testing.T) {
	registry := testRegistry(t)
	store := NewPresetStore(NewValidator(registry))

	first, err := json.Marshal(registry.Export(WithPresets(store)))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second, err := json.Marshal(registry.Export(WithPresets(store)))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatal("repeated exports differ")
	}
}
