package domain

import (
	"math"
	"strings"
	"sync"
)

// defaultEmissionFactors seed the registry at startup (kg CO2e per km).
// Order matters: fuzzy lookup scans keys in insertion order.
var defaultEmissionFactors = []struct {
	key    string
	factor float64
}{
	{"car", 0.192},
	{"motorcycle", 0.103},
	{"scooter", 0.103},
	{"bus", 0.089},
	{"train", 0.041},
	{"bicycle", 0},
	{"bike", 0},
	{"walking", 0},
	{"walk", 0},
}

// fallbackFactor is suggested when an unknown subcategory cannot be priced.
const fallbackFactor = 0.192

// FactorRegistry maps lowercase subcategory keys to emission factors.
// Keys keep insertion order so substring matching stays deterministic.
type FactorRegistry struct {
	mu      sync.RWMutex
	keys    []string
	factors map[string]float64
}

// NewFactorRegistry builds a registry seeded with the default factors.
func NewFactorRegistry() *FactorRegistry {
	r := &FactorRegistry{factors: make(map[string]float64)}
	for _, d := range defaultEmissionFactors {
		r.keys = append(r.keys, d.key)
		r.factors[d.key] = d.factor
	}
	return r
}

// Lookup resolves a factor for the subcategory: exact case-insensitive match
// first, then a substring scan in insertion order (query contains key or key
// contains query). The second return is false when nothing matches.
func (r *FactorRegistry) Lookup(subcategory string) (float64, bool) {
	query := strings.ToLower(strings.TrimSpace(subcategory))
	if query == "" {
		return 0, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if factor, ok := r.factors[query]; ok {
		return factor, true
	}
	for _, key := range r.keys {
		if strings.Contains(query, key) || strings.Contains(key, query) {
			return r.factors[key], true
		}
	}
	return 0, false
}

// Set stores a factor under the lowercased subcategory key, overwriting any
// existing value. Negative or non-finite factors are rejected.
func (r *FactorRegistry) Set(subcategory string, factor float64) error {
	key := strings.ToLower(strings.TrimSpace(subcategory))
	if key == "" {
		return newValidationError(CodeInvalidFactor, "Error: subcategory is required.")
	}
	if factor < 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return newValidationError(CodeInvalidFactor, "Error: emission factor must be a number >= 0.")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factors[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.factors[key] = factor
	return nil
}

// All returns a copy of the registry contents.
func (r *FactorRegistry) All() map[string]float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]float64, len(r.factors))
	for key, factor := range r.factors {
		out[key] = factor
	}
	return out
}

// SuggestedFactor returns the default factor for the subcategory so a caller
// whose entry was rejected with NoFactorFound can retry with an explicit
// value. Unknown subcategories fall back to the car factor.
func SuggestedFactor(subcategory string) float64 {
	key := strings.ToLower(strings.TrimSpace(subcategory))
	for _, d := range defaultEmissionFactors {
		if d.key == key {
			return d.factor
		}
	}
	return fallbackFactor
}
