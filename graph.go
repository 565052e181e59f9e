package settings

import (
	"sort"

	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
)

// helper functions whose string arguments name settings rather than plain
// identifiers.
var keyArgHelpers = map[string]bool{
	"resolveOrValue": true,
	"extruderValue":  true,
	"extruderValues": true,
}

// depGraph maps each setting that carries a value expression to the
// registry keys that expression references.
type depGraph struct {
	deps      map[string][]string
	parseErrs map[string]error
}

// buildGraph parses every value expression and records its dependencies,
// keeping only references that are actual setting keys.
func buildGraph(registry *Registry) *depGraph {
	g := &depGraph{
		deps:      map[string][]string{},
		parseErrs: map[string]error{},
	}
	for _, key := range registry.Keys() {
		defn, _ := registry.Get(key)
		if defn.ValueExpression == "" {
			continue
		}
		refs, err := extractRefs(defn.ValueExpression)
		if err != nil {
			g.deps[key] = nil
			g.parseErrs[key] = &EvaluationError{Key: key, Expr: defn.ValueExpression, Err: err}
			continue
		}
		var deps []string
		for ref := range refs {
			if _, ok := registry.Get(ref); ok {
				deps = append(deps, ref)
			}
		}
		sort.Strings(deps)
		g.deps[key] = deps
	}
	return g
}

// topoOrder runs Kahn's algorithm over the expression nodes, breaking ties
// lexicographically so a fixed input always evaluates in the same order.
// The second return value holds every node left inside or downstream of a
// cycle.
func (g *depGraph) topoOrder() (order []string, cyclic []string) {
	inDegree := make(map[string]int, len(g.deps))
	dependents := make(map[string][]string, len(g.deps))
	for key, deps := range g.deps {
		count := 0
		for _, dep := range deps {
			if _, ok := g.deps[dep]; ok {
				count++
				dependents[dep] = append(dependents[dep], key)
			}
		}
		inDegree[key] = count
	}

	var ready []string
	for key, degree := range inDegree {
		if degree == 0 {
			ready = append(ready, key)
		}
	}
	sort.Strings(ready)

	for len(ready) > 0 {
		key := ready[0]
		ready = ready[1:]
		order = append(order, key)
		changed := false
		for _, dependent := range dependents[key] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				ready = append(ready, dependent)
				changed = true
			}
		}
		if changed {
			sort.Strings(ready)
		}
	}

	if len(order) < len(g.deps) {
		for key, degree := range inDegree {
			if degree > 0 {
				cyclic = append(cyclic, key)
			}
		}
		sort.Strings(cyclic)
	}
	return order, cyclic
}

// extractRefs returns every identifier the expression references, plus the
// string arguments of the helper functions that address settings by name.
func extractRefs(expression string) (map[string]bool, error) {
	tree, err := parser.Parse(expression)
	if err != nil {
		return nil, err
	}
	visitor := &refVisitor{refs: map[string]bool{}}
	ast.Walk(&tree.Node, visitor)
	return visitor.refs, nil
}

type refVisitor struct {
	refs map[string]bool
}

func (v *refVisitor) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		v.refs[n.Value] = true
	case *ast.CallNode:
		callee, ok := n.Callee.(*ast.IdentifierNode)
		if !ok || !keyArgHelpers[callee.Value] {
			return
		}
		for _, arg := range n.Arguments {
			if s, ok := arg.(*ast.StringNode); ok {
				v.refs[s.Value] = true
			}
		}
	}
}
