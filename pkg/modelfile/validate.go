// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package modelfile

import (
	"fmt"
	"math"

	"github.com/yeetrun/cmdtree/pkg/convert"
	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/validate"
	"github.com/yeetrun/cmdtree/pkg/value"
)

// ValidateSpec declares the validators of a parameter.
type ValidateSpec struct {
	Min      *float64 `yaml:"min,omitempty"`
	Max      *float64 `yaml:"max,omitempty"`
	OneOf    []string `yaml:"one_of,omitempty"`
	Pattern  string   `yaml:"pattern,omitempty"`
	NotEmpty bool     `yaml:"not_empty,omitempty"`
	// Keys name validators registered with the resolver.
	Keys []string `yaml:"keys,omitempty"`
}

func (s *ValidateSpec) validators(t model.ValueType) ([]model.Validator, error) {
	var vs []model.Validator
	if s.Min != nil || s.Max != nil {
		v, err := rangeFor(t, s.Min, s.Max)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	if len(s.OneOf) > 0 {
		v, err := oneOfFor(t, s.OneOf)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	if s.Pattern != "" {
		if t != model.String {
			return nil, fmt.Errorf("pattern requires a string parameter, got %s", t)
		}
		v, err := validate.Pattern(s.Pattern)
		if err != nil {
			return nil, err
		}
		vs = append(vs, v)
	}
	if s.NotEmpty {
		vs = append(vs, validate.NotEmpty())
	}
	return vs, nil
}

type number interface {
	~int | ~int64 | ~uint | ~uint16 | ~float64
}

func bounded[T number](min, max *float64, lo, hi T) model.Validator {
	if min != nil {
		lo = T(*min)
	}
	if max != nil {
		hi = T(*max)
	}
	return validate.Range(lo, hi)
}

func rangeFor(t model.ValueType, min, max *float64) (model.Validator, error) {
	switch t {
	case model.Int:
		return bounded[int](min, max, math.MinInt, math.MaxInt), nil
	case model.Int64:
		return bounded[int64](min, max, math.MinInt64, math.MaxInt64), nil
	case model.Uint:
		return bounded[uint](min, max, 0, math.MaxUint), nil
	case model.Float64:
		return bounded(min, max, math.Inf(-1), math.Inf(1)), nil
	case model.Port:
		return bounded[value.Port](min, max, 0, math.MaxUint16), nil
	}
	return nil, fmt.Errorf("min/max require a numeric parameter, got %s", t)
}

func oneOfFor(t model.ValueType, raw []string) (model.Validator, error) {
	switch t {
	case model.String:
		return validate.OneOf(raw...), nil
	case model.Int:
		return oneOfConverted[int](t, raw)
	case model.Int64:
		return oneOfConverted[int64](t, raw)
	case model.Uint:
		return oneOfConverted[uint](t, raw)
	case model.Float64:
		return oneOfConverted[float64](t, raw)
	case model.Port:
		return oneOfConverted[value.Port](t, raw)
	}
	return nil, fmt.Errorf("one_of is not supported for %s parameters", t)
}

func oneOfConverted[T comparable](t model.ValueType, raw []string) (model.Validator, error) {
	c := convert.For(t)
	allowed := make([]T, 0, len(raw))
	for _, s := range raw {
		v, err := c.ConvertFrom(s)
		if err != nil {
			return nil, fmt.Errorf("one_of: %w", err)
		}
		allowed = append(allowed, v.(T))
	}
	return validate.OneOf(allowed...), nil
}
