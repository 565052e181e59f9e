package settings

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEvaluateAllTopologicalOrder(t *testing.T) {
	evaluator := NewEvaluator(testRegistry(t))

	result := evaluator.EvaluateAll(nil)
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %v", result.Errors)
	}
	// speed_wall = speed_print / 2 with the default 60.
	if got := result.Values["speed_wall"]; got != 30.0 {
		t.Fatalf("speed_wall = %v, want 30", got)
	}
	// line_width follows the concrete printer's nozzle, wall_line_width
	// follows line_width: two hops through the graph.
	if got := result.Values["line_width"]; got != 0.6 {
		t.Fatalf("line_width = %v, want 0.6", got)
	}
	if got := result.Values["wall_line_width"]; got != 0.6 {
		t.Fatalf("wall_line_width = %v, want 0.6", got)
	}
}

func TestEvaluateAllPinnedOverridesSkipEvaluation(t *testing.T) {
	evaluator := NewEvaluator(testRegistry(t))

	result := evaluator.EvaluateAll(map[string]string{
		"speed_print": "100",
		"line_width":  "0.8",
	})
	if got := result.Values["speed_wall"]; got != 50.0 {
		t.Fatalf("speed_wall = %v, want 50 from pinned speed_print", got)
	}
	if _, ok := result.Values["line_width"]; ok {
		t.Fatal("pinned settings must not be re-evaluated")
	}
	if got := result.Values["wall_line_width"]; got != 0.8 {
		t.Fatalf("wall_line_width = %v, want 0.8 from pinned line_width", got)
	}
}

func TestEvaluateAllDeterministic(t *testing.T) {
	first := NewEvaluator(testRegistry(t)).EvaluateAll(nil)
	second := NewEvaluator(testRegistry(t)).EvaluateAll(nil)
	if diff := cmp.Diff(first.Values, second.Values); diff != "" {
		t.Fatalf("evaluation not deterministic (-first +second):\n%s", diff)
	}
}

func cycleSource() MapSource {
	return MapSource{
		"doc": []byte(`{"settings": {
			"cat": {"type": "category", "label": "Cat", "children": {
				"loop_a": {"label": "Loop A", "type": "float", "default_value": 1, "value": "loop_a * 2"},
				"loop_b": {"label": "Loop B", "type": "float", "default_value": 1, "value": "loop_a + 1"},
				"anchor": {"label": "Anchor", "type": "float", "default_value": 5},
				"healthy": {"label": "Healthy", "type": "float", "default_value": 0, "value": "anchor * 2"}
			}}
		}}`),
	}
}

func TestEvaluateAllCycleFailsOnlyAffectedKeys(t *testing.T) {
	registry, err := Load(cycleSource(), "doc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	result := NewEvaluator(registry).EvaluateAll(nil)

	if err := result.Errors["loop_a"]; !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("loop_a error = %v, want ErrDependencyCycle", err)
	}
	if err := result.Errors["loop_b"]; !errors.Is(err, ErrDependencyCycle) {
		t.Fatalf("loop_b error = %v, want ErrDependencyCycle", err)
	}
	if got := result.Values["healthy"]; got != 10.0 {
		t.Fatalf("healthy = %v, want 10 despite the unrelated cycle", got)
	}
	if _, ok := result.Values["loop_a"]; ok {
		t.Fatal("cyclic keys must not produce values")
	}
}

func TestEvaluateAllParseFailurePropagatesToDependents(t *testing.T) {
	source := MapSource{
		"doc": []byte(`{"settings": {
			"cat": {"type": "category", "label": "Cat", "children": {
				"broken": {"label": "Broken", "type": "float", "default_value": 1, "value": "((("},
				"dependent": {"label": "Dependent", "type": "float", "default_value": 1, "value": "broken + 1"},
				"leaf": {"label": "Leaf", "type": "float", "default_value": 2},
				"fine": {"label": "Fine", "type": "float", "default_value": 0, "value": "leaf + 1"}
			}}
		}}`),
	}
	registry, err := Load(source, "doc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	result := NewEvaluator(registry).EvaluateAll(nil)

	var evalErr *EvaluationError
	if err := result.Errors["broken"]; !errors.As(err, &evalErr) {
		t.Fatalf("broken error = %v, want *EvaluationError", err)
	}
	if err := result.Errors["dependent"]; !errors.Is(err, ErrDependencyFailed) {
		t.Fatalf("dependent error = %v, want ErrDependencyFailed", err)
	}
	if got := result.Values["fine"]; got != 3.0 {
		t.Fatalf("fine = %v, want 3", got)
	}
}

func TestEvaluateAllHelperFunctions(t *testing.T) {
	source := MapSource{
		"doc": []byte(`{"settings": {
			"cat": {"type": "category", "label": "Cat", "children": {
				"nozzle": {"label": "Nozzle", "type": "float", "default_value": 0.4},
				"per_extruder": {"label": "Per Extruder", "type": "float", "default_value": 0,
					"value": "extruderValue(0, \"nozzle\") * 2"},
				"resolved": {"label": "Resolved", "type": "float", "default_value": 0,
					"value": "resolveOrValue(\"nozzle\") * 10"},
				"rounded": {"label": "Rounded", "type": "int", "default_value": 0,
					"value": "ceil(nozzle * 4)"}
			}}
		}}`),
	}
	registry, err := Load(source, "doc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	result := NewEvaluator(registry).EvaluateAll(nil)
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %v", result.Errors)
	}
	if got := result.Values["per_extruder"]; got != 0.8 {
		t.Fatalf("per_extruder = %v, want 0.8", got)
	}
	if got := result.Values["resolved"]; got != 4.0 {
		t.Fatalf("resolved = %v, want 4", got)
	}
	if got := result.Values["rounded"]; got != 2 {
		t.Fatalf("rounded = %v (%T), want int 2", got, got)
	}
}

func TestEvaluateAllCoercesToDeclaredType(t *testing.T) {
	source := MapSource{
		"doc": []byte(`{"settings": {
			"cat": {"type": "category", "label": "Cat", "children": {
				"layers": {"label": "Layers", "type": "int", "default_value": 1, "value": "7 / 2"}
			}}
		}}`),
	}
	registry, err := Load(source, "doc")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	result := NewEvaluator(registry).EvaluateAll(nil)
	if got := result.Values["layers"]; got != 4 {
		t.Fatalf("layers = %v (%T), want rounded int 4", got, got)
	}
}

func TestEvaluateAllLogsAttempts(t *testing.T) {
	var events []EvalLogEvent
	evaluator := NewEvaluator(testRegistry(t), WithEvalLogger(EvalLoggerFunc(func(e EvalLogEvent) {
		events = append(events, e)
	})))

	result := evaluator.EvaluateAll(nil)
	if len(events) != len(result.Values) {
		t.Fatalf("logged %d events, evaluated %d values", len(events), len(result.Values))
	}
}
