package settings

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"
)

// Function is a pure callable expressions may invoke.
type Function func(args ...any) (any, error)

// FunctionRegistry stores the whitelist of functions available to value
// expressions. Anything not registered here cannot be called.
type FunctionRegistry struct {
	mu        sync.RWMutex
	functions map[string]Function
}

// NewFunctionRegistry constructs an empty registry.
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{functions: make(map[string]Function)}
}

// DefaultFunctions returns the registry of pure math helpers the stock
// definition documents rely on.
func DefaultFunctions() *FunctionRegistry {
	r := NewFunctionRegistry()
	_ = r.Register("ceil", unaryMath(math.Ceil))
	_ = r.Register("floor", unaryMath(math.Floor))
	_ = r.Register("round", unaryMath(math.Round))
	_ = r.Register("sqrt", unaryMath(math.Sqrt))
	_ = r.Register("log", unaryMath(math.Log))
	return r
}

// Register stores fn under name, guarding against duplicates.
func (r *FunctionRegistry) Register(name string, fn Function) error {
	if name == "" {
		return fmt.Errorf("settings: function name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("settings: function %q is nil", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.functions == nil {
		r.functions = make(map[string]Function)
	}
	if _, exists := r.functions[name]; exists {
		return fmt.Errorf("settings: function %q already registered", name)
	}
	r.functions[name] = fn
	return nil
}

// Clone returns a shallow copy of the registry.
func (r *FunctionRegistry) Clone() *FunctionRegistry {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	clone := &FunctionRegistry{functions: make(map[string]Function, len(r.functions))}
	for name, fn := range r.functions {
		clone.functions[name] = fn
	}
	return clone
}

// Names returns registered function names sorted alphabetically.
func (r *FunctionRegistry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *FunctionRegistry) get(name string) Function {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.functions[name]
}

func unaryMath(fn func(float64) float64) Function {
	return func(args ...any) (any, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
		}
		f, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		return fn(f), nil
	}
}

func toFloat(v any) (float64, error) {
	switch value := v.(type) {
	case float64:
		return value, nil
	case float32:
		return float64(value), nil
	case int:
		return float64(value), nil
	case int64:
		return float64(value), nil
	case bool:
		if value {
			return 1, nil
		}
		return 0, nil
	case string:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("expected a number, got %q", value)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
}
