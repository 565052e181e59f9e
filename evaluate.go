package settings

import (
	"fmt"
	"math"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// EvalResult holds the outcome of one evaluation pass. Values carries every
// expression-backed setting that evaluated; Errors carries the keys that
// could not be computed. A key appears in exactly one of the two.
type EvalResult struct {
	Values map[string]any
	Errors map[string]error
}

// Evaluator computes the default values of expression-backed settings for
// preview. It holds no mutable state beyond the program cache and is safe
// for concurrent use. Its output is advisory; the slicing engine evaluates
// its own expressions authoritatively at slice time.
type Evaluator struct {
	registry  *Registry
	functions *FunctionRegistry
	cache     ProgramCache
	logger    EvalLogger
}

// EvaluatorOption tunes evaluator construction.
type EvaluatorOption func(*Evaluator)

// WithFunctions replaces the default function whitelist.
func WithFunctions(registry *FunctionRegistry) EvaluatorOption {
	return func(e *Evaluator) {
		if registry != nil {
			e.functions = registry.Clone()
		}
	}
}

// WithProgramCache wires a compiled-program cache into the evaluator.
func WithProgramCache(cache ProgramCache) EvaluatorOption {
	return func(e *Evaluator) {
		e.cache = cache
	}
}

// WithEvalLogger attaches a logger recording each evaluation attempt.
func WithEvalLogger(logger EvalLogger) EvaluatorOption {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEvaluator builds an evaluator over registry.
func NewEvaluator(registry *Registry, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		registry:  registry,
		functions: DefaultFunctions(),
		cache:     NewProgramCache(),
		logger:    noopEvalLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// EvaluateAll evaluates every value expression in dependency order.
// Settings present in overrides are pinned: they keep the supplied value
// and skip evaluation. A cycle or a failed dependency fails only the
// affected keys; everything else still evaluates.
func (e *Evaluator) EvaluateAll(overrides map[string]string) EvalResult {
	result := EvalResult{
		Values: map[string]any{},
		Errors: map[string]error{},
	}

	// Namespace starts from every literal default, with caller overrides
	// coerced on top.
	namespace := make(map[string]any, e.registry.Len())
	for _, key := range e.registry.Keys() {
		defn, _ := e.registry.Get(key)
		if defn.DefaultValue != nil {
			namespace[key] = coerceValue(defn.DefaultValue, defn.Type)
		}
	}
	pinned := make(map[string]bool, len(overrides))
	for key, raw := range overrides {
		defn, ok := e.registry.Get(key)
		if !ok {
			continue
		}
		namespace[key] = coerceString(raw, defn.Type)
		pinned[key] = true
	}

	graph := buildGraph(e.registry)
	failed := make(map[string]bool)
	for key, err := range graph.parseErrs {
		if pinned[key] {
			continue
		}
		result.Errors[key] = err
		failed[key] = true
	}

	order, cyclic := graph.topoOrder()
	for _, key := range cyclic {
		if pinned[key] {
			continue
		}
		defn, _ := e.registry.Get(key)
		result.Errors[key] = &EvaluationError{Key: key, Expr: defn.ValueExpression, Err: ErrDependencyCycle}
		failed[key] = true
	}

	for _, key := range order {
		if pinned[key] || failed[key] {
			continue
		}
		defn, _ := e.registry.Get(key)

		if dep := firstFailedDep(graph.deps[key], failed, pinned); dep != "" {
			result.Errors[key] = &EvaluationError{
				Key:  key,
				Expr: defn.ValueExpression,
				Err:  fmt.Errorf("%w: %s", ErrDependencyFailed, dep),
			}
			failed[key] = true
			continue
		}

		value, err := e.evaluate(defn, namespace)
		if err != nil {
			result.Errors[key] = err
			failed[key] = true
			continue
		}
		coerced := coerceValue(value, defn.Type)
		namespace[key] = coerced
		result.Values[key] = coerced
	}

	return result
}

func firstFailedDep(deps []string, failed, pinned map[string]bool) string {
	for _, dep := range deps {
		if failed[dep] && !pinned[dep] {
			return dep
		}
	}
	return ""
}

func (e *Evaluator) evaluate(defn *SettingDefinition, namespace map[string]any) (any, error) {
	start := time.Now()
	program, err := e.loadOrCompile(defn.ValueExpression)
	if err == nil {
		var value any
		value, err = exprlang.Run(program, e.environment(namespace))
		if err == nil {
			e.logger.LogEvaluation(EvalLogEvent{
				Key:      defn.Key,
				Expr:     defn.ValueExpression,
				Duration: time.Since(start),
			})
			return value, nil
		}
	}
	evalErr := &EvaluationError{Key: defn.Key, Expr: defn.ValueExpression, Err: err}
	e.logger.LogEvaluation(EvalLogEvent{
		Key:      defn.Key,
		Expr:     defn.ValueExpression,
		Duration: time.Since(start),
		Err:      evalErr,
	})
	return nil, evalErr
}

func (e *Evaluator) loadOrCompile(expression string) (*exprvm.Program, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	program, err := exprlang.Compile(expression,
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, err
	}
	if e.cache != nil {
		e.cache.Set(expression, program)
	}
	return program, nil
}

// environment assembles the evaluation namespace: every setting's current
// value, the whitelisted functions, and the single-extruder helper shims.
func (e *Evaluator) environment(namespace map[string]any) map[string]any {
	env := make(map[string]any, len(namespace)+8)
	for key, value := range namespace {
		env[key] = value
	}
	for _, name := range e.functions.Names() {
		fn := e.functions.get(name)
		env[name] = func(args ...any) (any, error) {
			return fn(args...)
		}
	}
	env["resolveOrValue"] = func(key string) any {
		return namespace[key]
	}
	env["extruderValue"] = func(_ any, key string) any {
		return namespace[key]
	}
	env["extruderValues"] = func(key string) []any {
		if value, ok := namespace[key]; ok {
			return []any{value}
		}
		return nil
	}
	return env
}

// coerceValue nudges an evaluated or literal value into the declared type.
// Values that cannot be converted pass through unchanged; the slicing
// engine re-validates everything it receives.
func coerceValue(value any, t SettingType) any {
	switch t {
	case TypeInt:
		if f, err := toFloat(value); err == nil {
			return int(math.Round(f))
		}
	case TypeFloat:
		if f, err := toFloat(value); err == nil {
			return f
		}
	case TypeBool:
		if b, ok := value.(bool); ok {
			return b
		}
	case TypeStr, TypeEnum:
		return formatValue(value)
	}
	return value
}

// coerceString parses a stored literal string into the declared type so
// pinned overrides participate in expressions as native values.
func coerceString(raw string, t SettingType) any {
	switch t {
	case TypeInt, TypeFloat:
		if f, err := toFloat(raw); err == nil {
			return coerceValue(f, t)
		}
	case TypeBool:
		if truthy[raw] {
			return true
		}
		if falsy[raw] {
			return false
		}
	}
	return raw
}
