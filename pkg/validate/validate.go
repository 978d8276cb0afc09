// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package validate provides parameter validators. Validators that check a
// single value also accept a slice of values and check every element, so
// they can be attached to vector parameters.
package validate

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/value"
)

// Func adapts a function that checks only the value.
func Func(fn func(v any) error) model.Validator {
	return model.ValidatorFunc(func(_ model.Parameter, v any) error { return fn(v) })
}

// each calls check for v, or for every element of v if it is a []T.
func each[T any](v any, check func(T) error) error {
	switch v := v.(type) {
	case T:
		return check(v)
	case []T:
		for _, x := range v {
			if err := check(x); err != nil {
				return err
			}
		}
		return nil
	}
	var zero T
	return fmt.Errorf("unexpected value type %T, want %T", v, zero)
}

// Range rejects values outside [min, max].
func Range[T cmp.Ordered](min, max T) model.Validator {
	return model.ValidatorFunc(func(_ model.Parameter, v any) error {
		return each(v, func(x T) error {
			if x < min || x > max {
				return fmt.Errorf("must be between %v and %v, got %v", min, max, x)
			}
			return nil
		})
	})
}

// PortRange parses a range such as "8000-9000" and returns a validator for
// value.Port parameters.
func PortRange(spec string) (model.Validator, error) {
	lo, hi, ok := strings.Cut(spec, "-")
	if !ok {
		return nil, fmt.Errorf("invalid port range format %q (expected \"min-max\")", spec)
	}
	minVal, err := strconv.ParseUint(lo, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid min port in range %q: %w", spec, err)
	}
	maxVal, err := strconv.ParseUint(hi, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid max port in range %q: %w", spec, err)
	}
	if minVal > maxVal {
		return nil, fmt.Errorf("invalid port range %q: min (%d) > max (%d)", spec, minVal, maxVal)
	}
	return model.ValidatorFunc(func(_ model.Parameter, v any) error {
		return each(v, func(p value.Port) error {
			if uint64(p) < minVal || uint64(p) > maxVal {
				return fmt.Errorf("port must be between %s, got %d", spec, p)
			}
			return nil
		})
	}), nil
}

// OneOf rejects values not in allowed.
func OneOf[T comparable](allowed ...T) model.Validator {
	return model.ValidatorFunc(func(_ model.Parameter, v any) error {
		return each(v, func(x T) error {
			if !slices.Contains(allowed, x) {
				return fmt.Errorf("must be one of %v, got %v", allowed, x)
			}
			return nil
		})
	})
}

// NotEmpty rejects empty strings and empty collections.
func NotEmpty() model.Validator {
	return model.ValidatorFunc(func(_ model.Parameter, v any) error {
		empty := false
		switch v := v.(type) {
		case string:
			empty = strings.TrimSpace(v) == ""
		case []string:
			empty = len(v) == 0
		case []any:
			empty = len(v) == 0
		case interface{ Len() int }:
			empty = v.Len() == 0
		}
		if empty {
			return fmt.Errorf("must not be empty")
		}
		return nil
	})
}

// Pattern rejects strings that do not match expr.
func Pattern(expr string) (model.Validator, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", expr, err)
	}
	return model.ValidatorFunc(func(_ model.Parameter, v any) error {
		return each(v, func(s string) error {
			if !re.MatchString(s) {
				return fmt.Errorf("must match %s, got %q", expr, s)
			}
			return nil
		})
	}), nil
}

// MustPattern is like Pattern but panics on an invalid expression.
func MustPattern(expr string) model.Validator {
	v, err := Pattern(expr)
	if err != nil {
		panic(err)
	}
	return v
}
