package settings

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistryLookup(t *testing.T) {
	registry := testRegistry(t)

	if _, ok := registry.Get("layer_height"); !ok {
		t.Fatal("layer_height not found")
	}
	if _, ok := registry.Get("Layer Height"); ok {
		t.Fatal("key lookup must not match labels")
	}

	keys := registry.Keys()
	if len(keys) != registry.Len() {
		t.Fatalf("len(Keys()) = %d, Len() = %d", len(keys), registry.Len())
	}
	if !sort.StringsAreSorted(keys) {
		t.Fatal("Keys() must be sorted")
	}
}

func TestLabelIndexRetainsSharedLabels(t *testing.T) {
	registry := testRegistry(t)

	keys := registry.KeysByLabel("generate support")
	want := []string{"support_enable", "support_tree_enable"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Fatalf("KeysByLabel mismatch (-want +got):\n%s", diff)
	}

	// Case-insensitive.
	if got := registry.KeysByLabel("LAYER HEIGHT"); len(got) != 1 || got[0] != "layer_height" {
		t.Fatalf("KeysByLabel(LAYER HEIGHT) = %v", got)
	}
}

func TestCategoriesGroupForDisplay(t *testing.T) {
	registry := testRegistry(t)

	groups := registry.Categories()
	byName := map[string][]string{}
	for _, group := range groups {
		byName[group.Category] = group.Keys
	}
	quality, ok := byName["Quality"]
	if !ok {
		t.Fatalf("Quality category missing, have %v", byName)
	}
	found := false
	for _, key := range quality {
		if key == "wall_line_width" {
			found = true
		}
	}
	if !found {
		t.Fatalf("wall_line_width not grouped under Quality: %v", quality)
	}
}

func TestMergedValuesOverridesReplaceDefaults(t *testing.T) {
	registry := testRegistry(t)

	merged := registry.MergedValues(map[string]string{
		"layer_height": "0.3",
		"not_a_key":    "1",
	})
	if merged["layer_height"] != "0.3" {
		t.Fatalf("layer_height = %q, want 0.3", merged["layer_height"])
	}
	if merged["infill_pattern"] != "grid" {
		t.Fatalf("infill_pattern = %q, want grid", merged["infill_pattern"])
	}
	if merged["machine_heated_bed"] != "true" {
		t.Fatalf("machine_heated_bed = %q, want true", merged["machine_heated_bed"])
	}
	if _, ok := merged["not_a_key"]; ok {
		t.Fatal("unknown override keys must be dropped")
	}

	// The merge is deterministic for a fixed input.
	again := registry.MergedValues(map[string]string{"layer_height": "0.3", "not_a_key": "1"})
	if diff := cmp.Diff(merged, again); diff != "" {
		t.Fatalf("merge not deterministic (-first +second):\n%s", diff)
	}
}
