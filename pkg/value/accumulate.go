// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"fmt"
	"net/url"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/yeetrun/cmdtree/pkg/model"
)

// Accumulator is a value that is grown while binding and turned into its
// final container type only when the settings are constructed.
type Accumulator interface {
	Finalize() (any, error)
}

// Seq collects vector values in encounter order. It finalizes to []T.
type Seq struct {
	Elem  model.ValueType
	Items []any
}

// NewSeq returns an empty Seq for elements of type elem.
func NewSeq(elem model.ValueType) *Seq {
	return &Seq{Elem: elem}
}

// Append adds v to the end of the sequence.
func (s *Seq) Append(v any) {
	s.Items = append(s.Items, v)
}

func (s *Seq) Len() int { return len(s.Items) }

func (s *Seq) Finalize() (any, error) {
	switch s.Elem {
	case model.String:
		return typedSlice[string](s.Items)
	case model.Bool:
		return typedSlice[bool](s.Items)
	case model.Int:
		return typedSlice[int](s.Items)
	case model.Int64:
		return typedSlice[int64](s.Items)
	case model.Uint:
		return typedSlice[uint](s.Items)
	case model.Float64:
		return typedSlice[float64](s.Items)
	case model.Duration:
		return typedSlice[time.Duration](s.Items)
	case model.URL:
		return typedSlice[*url.URL](s.Items)
	case model.Semver:
		return typedSlice[*semver.Version](s.Items)
	case model.Port:
		return typedSlice[Port](s.Items)
	default:
		return append([]any{}, s.Items...), nil
	}
}

func typedSlice[T any](items []any) ([]T, error) {
	out := make([]T, 0, len(items))
	for i, v := range items {
		t, ok := v.(T)
		if !ok {
			var zero T
			return nil, fmt.Errorf("element %d: got %T, want %T", i, v, zero)
		}
		out = append(out, t)
	}
	return out, nil
}

// Flag accumulates a flag-with-value. Value is nil until a value is set.
type Flag struct {
	Elem  model.ValueType
	IsSet bool
	Value any
}

// NewFlag returns an unset Flag for values of type elem.
func NewFlag(elem model.ValueType) *Flag {
	return &Flag{Elem: elem}
}

// Set marks the flag as given and stores v when it is non-nil.
func (f *Flag) Set(v any) {
	f.IsSet = true
	if v != nil {
		f.Value = v
	}
}

func (f *Flag) Finalize() (any, error) {
	switch f.Elem {
	case model.String:
		return typedFlag[string](f)
	case model.Bool:
		return typedFlag[bool](f)
	case model.Int:
		return typedFlag[int](f)
	case model.Int64:
		return typedFlag[int64](f)
	case model.Uint:
		return typedFlag[uint](f)
	case model.Float64:
		return typedFlag[float64](f)
	case model.Duration:
		return typedFlag[time.Duration](f)
	case model.URL:
		return typedFlag[*url.URL](f)
	case model.Semver:
		return typedFlag[*semver.Version](f)
	case model.Port:
		return typedFlag[Port](f)
	default:
		return typedFlag[any](f)
	}
}

func typedFlag[T any](f *Flag) (FlagValue[T], error) {
	out := FlagValue[T]{IsSet: f.IsSet}
	if f.Value == nil {
		return out, nil
	}
	v, ok := f.Value.(T)
	if !ok {
		return out, fmt.Errorf("flag value: got %T, want %T", f.Value, *new(T))
	}
	out.Value = &v
	return out, nil
}

// Pairs accumulates key/value pairs. It finalizes to *MultiMap[K, V].
type Pairs struct {
	Key    model.ValueType
	Elem   model.ValueType
	Keys   []any
	Values []any
}

// NewPairs returns an empty Pairs accumulator.
func NewPairs(key, elem model.ValueType) *Pairs {
	return &Pairs{Key: key, Elem: elem}
}

// Add appends one pair.
func (p *Pairs) Add(k, v any) {
	p.Keys = append(p.Keys, k)
	p.Values = append(p.Values, v)
}

func (p *Pairs) Len() int { return len(p.Keys) }

func (p *Pairs) Finalize() (any, error) {
	switch p.Key {
	case model.String:
		return pairsWithKey[string](p)
	case model.Bool:
		return pairsWithKey[bool](p)
	case model.Int:
		return pairsWithKey[int](p)
	case model.Int64:
		return pairsWithKey[int64](p)
	case model.Uint:
		return pairsWithKey[uint](p)
	case model.Float64:
		return pairsWithKey[float64](p)
	case model.Duration:
		return pairsWithKey[time.Duration](p)
	case model.Port:
		return pairsWithKey[Port](p)
	case model.URL, model.Semver:
		// Pointer keys compare by identity.
		return nil, fmt.Errorf("%s cannot be used as a pair key", p.Key)
	default:
		return pairsWithKey[any](p)
	}
}

func pairsWithKey[K comparable](p *Pairs) (any, error) {
	switch p.Elem {
	case model.String:
		return buildMultiMap[K, string](p)
	case model.Bool:
		return buildMultiMap[K, bool](p)
	case model.Int:
		return buildMultiMap[K, int](p)
	case model.Int64:
		return buildMultiMap[K, int64](p)
	case model.Uint:
		return buildMultiMap[K, uint](p)
	case model.Float64:
		return buildMultiMap[K, float64](p)
	case model.Duration:
		return buildMultiMap[K, time.Duration](p)
	case model.URL:
		return buildMultiMap[K, *url.URL](p)
	case model.Semver:
		return buildMultiMap[K, *semver.Version](p)
	case model.Port:
		return buildMultiMap[K, Port](p)
	default:
		return buildMultiMap[K, any](p)
	}
}

func buildMultiMap[K comparable, V any](p *Pairs) (*MultiMap[K, V], error) {
	m := &MultiMap[K, V]{pairs: make([]KV[K, V], 0, len(p.Keys))}
	for i := range p.Keys {
		k, ok := p.Keys[i].(K)
		if !ok {
			return nil, fmt.Errorf("pair %d key: got %T, want %T", i, p.Keys[i], *new(K))
		}
		var v V
		if p.Values[i] != nil {
			v, ok = p.Values[i].(V)
			if !ok {
				return nil, fmt.Errorf("pair %d value: got %T, want %T", i, p.Values[i], *new(V))
			}
		}
		m.Add(k, v)
	}
	return m, nil
}

// Finalize returns v with any accumulator replaced by its final container.
// Other values are returned unchanged.
func Finalize(v any) (any, error) {
	if a, ok := v.(Accumulator); ok {
		return a.Finalize()
	}
	return v, nil
}
