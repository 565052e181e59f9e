package settings

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// MatchKind discriminates the resolver's result variants.
type MatchKind int

const (
	// MatchNone means no tier produced a candidate.
	MatchNone MatchKind = iota
	// MatchUnique means exactly one key answers the query.
	MatchUnique
	// MatchAmbiguous means several keys answer the query and the caller
	// must prompt for a choice.
	MatchAmbiguous
)

// Resolution is the outcome of resolving free-form user text to canonical
// keys.
type Resolution struct {
	Kind       MatchKind
	Key        string
	Candidates []*SettingDefinition
}

// Resolver maps user-supplied setting names to canonical keys using tiered
// matching: exact key, exact label, label substring, then fuzzy similarity.
// The first tier producing any match wins, so exact input is never
// redirected by a fuzzy near-miss.
type Resolver struct {
	registry      *Registry
	threshold     float64
	margin        float64
	maxCandidates int
}

// ResolverOption tunes resolver behaviour.
type ResolverOption func(*Resolver)

// WithFuzzyThreshold sets the minimum similarity score a fuzzy candidate
// must reach to be considered.
func WithFuzzyThreshold(threshold float64) ResolverOption {
	return func(r *Resolver) {
		r.threshold = threshold
	}
}

// WithFuzzyMargin sets how far the best fuzzy score must exceed the
// runner-up before the match counts as unique.
func WithFuzzyMargin(margin float64) ResolverOption {
	return func(r *Resolver) {
		r.margin = margin
	}
}

// WithMaxCandidates caps how many fuzzy candidates an ambiguous result
// carries.
func WithMaxCandidates(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.maxCandidates = n
		}
	}
}

// NewResolver builds a resolver over registry.
func NewResolver(registry *Registry, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		registry:      registry,
		threshold:     0.6,
		margin:        0.1,
		maxCandidates: 5,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve maps query to canonical keys.
func (r *Resolver) Resolve(query string) Resolution {
	query = strings.TrimSpace(query)
	if query == "" {
		return Resolution{Kind: MatchNone}
	}

	// Tier 1: exact key, case-sensitive.
	if defn, ok := r.registry.Get(query); ok {
		return unique(defn)
	}

	// Tier 2: exact label, case-insensitive. Shared labels stay ambiguous.
	if keys := r.registry.KeysByLabel(query); len(keys) > 0 {
		return r.fromKeys(keys)
	}

	// Tier 3: label substring, case-insensitive.
	lowered := strings.ToLower(query)
	var substring []string
	for _, key := range r.registry.Keys() {
		defn, _ := r.registry.Get(key)
		if strings.Contains(strings.ToLower(defn.Label), lowered) {
			substring = append(substring, key)
		}
	}
	if len(substring) > 0 {
		return r.fromKeys(substring)
	}

	// Tier 4: fuzzy similarity against labels.
	return r.fuzzy(lowered)
}

func (r *Resolver) fuzzy(lowered string) Resolution {
	type scored struct {
		key   string
		score float64
	}
	params := levenshtein.NewParams()
	var candidates []scored
	for _, key := range r.registry.Keys() {
		defn, _ := r.registry.Get(key)
		score := levenshtein.Similarity(strings.ToLower(defn.Label), lowered, params)
		if score >= r.threshold {
			candidates = append(candidates, scored{key: key, score: score})
		}
	}
	if len(candidates) == 0 {
		return Resolution{Kind: MatchNone}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score == candidates[j].score {
			return candidates[i].key < candidates[j].key
		}
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) == 1 || candidates[0].score > candidates[1].score+r.margin {
		defn, _ := r.registry.Get(candidates[0].key)
		return unique(defn)
	}

	top := candidates
	if len(top) > r.maxCandidates {
		top = top[:r.maxCandidates]
	}
	keys := make([]string, len(top))
	for i, c := range top {
		keys[i] = c.key
	}
	return r.ambiguous(keys)
}

func (r *Resolver) fromKeys(keys []string) Resolution {
	if len(keys) == 1 {
		defn, _ := r.registry.Get(keys[0])
		return unique(defn)
	}
	sort.Strings(keys)
	return r.ambiguous(keys)
}

func (r *Resolver) ambiguous(keys []string) Resolution {
	defs := make([]*SettingDefinition, 0, len(keys))
	for _, key := range keys {
		if defn, ok := r.registry.Get(key); ok {
			defs = append(defs, defn)
		}
	}
	return Resolution{Kind: MatchAmbiguous, Candidates: defs}
}

func unique(defn *SettingDefinition) Resolution {
	return Resolution{
		Kind:       MatchUnique,
		Key:        defn.Key,
		Candidates: []*SettingDefinition{defn},
	}
}
