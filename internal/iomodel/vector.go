// Authors: IO Shock Propagation Project contributors
// Date: Oct 15th 2026
// Project: Energy Price Shock Propagation in Multi-Regional Input-Output Tables
// Class: 02-613 at Carnegie Mellon University

package iomodel

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

// KeyedVector is an immutable series of values keyed by (Country, Sector),
// e.g. gross output X, a volatility table or a price change vector.
type KeyedVector struct {
	name   string
	keys   []Key
	idx    map[Key]int
	values []float64
}

// NewKeyedVector validates keys and copies values. A nil values slice gives
// a zero vector.
func NewKeyedVector(name string, keys []Key, values []float64) (*KeyedVector, error) {
	const op = "new keyed vector"
	if values != nil && len(values) != len(keys) {
		return nil, preconditionf(op, name, nil, "%d keys but %d values", len(keys), len(values))
	}
	idx, err := indexKeys(op, name, keys)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, len(keys))
	copy(vals, values)
	return &KeyedVector{name: name, keys: slices.Clone(keys), idx: idx, values: vals}, nil
}

// VectorFromMap builds a vector from a map, keys sorted.
func VectorFromMap(name string, m map[Key]float64) *KeyedVector {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	SortKeys(keys)
	vals := make([]float64, len(keys))
	for i, k := range keys {
		vals[i] = m[k]
	}
	return mustVector(name, keys, vals)
}

// mustVector is used where keys are already known to be valid and unique.
func mustVector(name string, keys []Key, values []float64) *KeyedVector {
	v, err := NewKeyedVector(name, keys, values)
	if err != nil {
		panic(err)
	}
	return v
}

// Name returns the column name the vector is written under.
func (v *KeyedVector) Name() string { return v.name }

// WithName returns the same values under a new name.
func (v *KeyedVector) WithName(name string) *KeyedVector {
	return &KeyedVector{name: name, keys: v.keys, idx: v.idx, values: v.values}
}

// Len returns the number of entries.
func (v *KeyedVector) Len() int { return len(v.keys) }

// Keys returns a copy of the keys in order.
func (v *KeyedVector) Keys() []Key { return slices.Clone(v.keys) }

// Values returns a copy of the values in key order.
func (v *KeyedVector) Values() []float64 { return slices.Clone(v.values) }

// Get returns the value for k.
func (v *KeyedVector) Get(k Key) (float64, bool) {
	i, ok := v.idx[k]
	if !ok {
		return 0, false
	}
	return v.values[i], true
}

// Has reports whether k is present.
func (v *KeyedVector) Has(k Key) bool {
	_, ok := v.idx[k]
	return ok
}

// Sum returns the total of all values.
func (v *KeyedVector) Sum() float64 { return floats.Sum(v.values) }

// Filter keeps entries satisfying keep, in order.
func (v *KeyedVector) Filter(keep func(k Key, value float64) bool) *KeyedVector {
	var keys []Key
	var vals []float64
	for i, k := range v.keys {
		if keep(k, v.values[i]) {
			keys = append(keys, k)
			vals = append(vals, v.values[i])
		}
	}
	return mustVector(v.name, keys, vals)
}

// Sorted returns the vector in key order.
func (v *KeyedVector) Sorted() *KeyedVector {
	keys := slices.Clone(v.keys)
	SortKeys(keys)
	vals := make([]float64, len(keys))
	for i, k := range keys {
		vals[i] = v.values[v.idx[k]]
	}
	return mustVector(v.name, keys, vals)
}

// Minus returns v - o over v's keys. Keys must match as sets.
func (v *KeyedVector) Minus(o *KeyedVector) (*KeyedVector, error) {
	const op = "vector difference"
	var missing []Key
	out := make([]float64, len(v.keys))
	for i, k := range v.keys {
		ov, ok := o.Get(k)
		if !ok {
			missing = append(missing, k)
			continue
		}
		out[i] = v.values[i] - ov
	}
	if len(missing) > 0 {
		return nil, preconditionf(op, o.name, missing, "keys missing from the subtrahend")
	}
	if o.Len() != v.Len() {
		return nil, preconditionf(op, o.name, nil, "%d entries against %d", o.Len(), v.Len())
	}
	return mustVector(v.name, v.keys, out), nil
}

// CheckFinite returns a precondition error naming entries that hold NaN or Inf.
func (v *KeyedVector) CheckFinite(op string) error {
	var bad []Key
	for i, x := range v.values {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			bad = append(bad, v.keys[i])
		}
	}
	if len(bad) > 0 {
		return preconditionf(op, v.name, bad, "non-finite entries")
	}
	return nil
}
