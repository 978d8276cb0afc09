// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package value holds the container types that settings properties receive
// for flag-with-value, vector and pair parameters, and the accumulators the
// binder grows while it walks the parsed tree.
//
// The Go type produced for each built-in model.ValueType is:
//
//	string   string
//	bool     bool
//	int      int
//	int64    int64
//	uint     uint
//	float64  float64
//	duration time.Duration
//	url      *url.URL
//	semver   *semver.Version
//	port     value.Port
//
// Custom value types are carried as any.
package value

import (
	"fmt"
	"strconv"
)

// Port is a network port number.
type Port uint16

func (p Port) String() string {
	return strconv.FormatUint(uint64(p), 10)
}

// FlagValue is the settings type of a flag that may carry a value, such as
// "--level" or "--level=3". IsSet reports whether the flag was given at all;
// Value is nil when it was given without a value and has no default.
type FlagValue[T any] struct {
	IsSet bool
	Value *T
}

func (f FlagValue[T]) String() string {
	if f.Value == nil {
		return strconv.FormatBool(f.IsSet)
	}
	return fmt.Sprint(*f.Value)
}

// Get returns the value or the zero value of T when there is none.
func (f FlagValue[T]) Get() T {
	if f.Value == nil {
		var zero T
		return zero
	}
	return *f.Value
}

// KV is one entry of a MultiMap.
type KV[K comparable, V any] struct {
	Key   K
	Value V
}

// MultiMap is an ordered list of key/value pairs. Duplicate keys are kept in
// the order they were added.
type MultiMap[K comparable, V any] struct {
	pairs []KV[K, V]
}

// Add appends a pair.
func (m *MultiMap[K, V]) Add(k K, v V) {
	m.pairs = append(m.pairs, KV[K, V]{Key: k, Value: v})
}

// Len returns the number of pairs, counting duplicates.
func (m *MultiMap[K, V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.pairs)
}

// Pairs returns the pairs in insertion order.
func (m *MultiMap[K, V]) Pairs() []KV[K, V] {
	if m == nil {
		return nil
	}
	return m.pairs
}

// Get returns the first value added for k.
func (m *MultiMap[K, V]) Get(k K) (V, bool) {
	if m != nil {
		for _, p := range m.pairs {
			if p.Key == k {
				return p.Value, true
			}
		}
	}
	var zero V
	return zero, false
}

// GetAll returns every value added for k in insertion order.
func (m *MultiMap[K, V]) GetAll(k K) []V {
	if m == nil {
		return nil
	}
	var out []V
	for _, p := range m.pairs {
		if p.Key == k {
			out = append(out, p.Value)
		}
	}
	return out
}

// Keys returns the distinct keys in order of first appearance.
func (m *MultiMap[K, V]) Keys() []K {
	if m == nil {
		return nil
	}
	seen := make(map[K]bool, len(m.pairs))
	var keys []K
	for _, p := range m.pairs {
		if !seen[p.Key] {
			seen[p.Key] = true
			keys = append(keys, p.Key)
		}
	}
	return keys
}

// Map returns the last value for each key.
func (m *MultiMap[K, V]) Map() map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m.pairs))
	for _, p := range m.pairs {
		out[p.Key] = p.Value
	}
	return out
}
