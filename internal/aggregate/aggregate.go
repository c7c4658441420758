// Package aggregate averages per-split metric mappings.
package aggregate

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Mapping is an insertion-ordered metric name to value mapping.
// The zero value is ready to use.
type Mapping struct {
	keys   []string
	values map[string]float64
}

// Set stores v under key; a new key is appended, an existing one keeps its position.
func (m *Mapping) Set(key string, v float64) {
	if m.values == nil {
		m.values = make(map[string]float64)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Get returns the value stored under key.
func (m Mapping) Get(key string) (float64, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (m Mapping) Keys() []string {
	return slices.Clone(m.keys)
}

// Len returns the number of entries.
func (m Mapping) Len() int { return len(m.keys) }

// Clone returns an independent copy.
func (m Mapping) Clone() Mapping {
	var out Mapping
	for _, k := range m.keys {
		out.Set(k, m.values[k])
	}
	return out
}

// SchemaMismatchError reports mappings with different key sets.
type SchemaMismatchError struct {
	// Index is the position of the first mapping that differs from mapping 0
	Index   int
	Missing []string
	Extra   []string
}

func (e *SchemaMismatchError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Extra, ", "))
	}
	return fmt.Sprintf("metric set of split %d differs from split 0: %s", e.Index, strings.Join(parts, "; "))
}

// ErrNoMappings is returned by Mean when called without mappings.
var ErrNoMappings = errors.New("no mappings to aggregate")

// Mean returns the per-key arithmetic mean of mappings in the key order of
// the first mapping. All mappings must share the same key set.
func Mean(mappings ...Mapping) (Mapping, error) {
	if len(mappings) == 0 {
		return Mapping{}, ErrNoMappings
	}
	first := mappings[0]
	if len(mappings) == 1 {
		return first.Clone(), nil
	}

	for i, m := range mappings[1:] {
		if err := sameKeys(first, m); err != nil {
			err.Index = i + 1
			return Mapping{}, err
		}
	}

	var out Mapping
	n := float64(len(mappings))
	for _, k := range first.keys {
		var sum float64
		for _, m := range mappings {
			sum += m.values[k]
		}
		out.Set(k, sum/n)
	}
	return out, nil
}

func sameKeys(want, got Mapping) *SchemaMismatchError {
	var missing, extra []string
	for _, k := range want.keys {
		if _, ok := got.values[k]; !ok {
			missing = append(missing, k)
		}
	}
	for _, k := range got.keys {
		if _, ok := want.values[k]; !ok {
			extra = append(extra, k)
		}
	}
	if len(missing) == 0 && len(extra) == 0 {
		return nil
	}
	return &SchemaMismatchError{Missing: missing, Extra: extra}
}
