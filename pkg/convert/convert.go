// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package convert turns raw argument strings into typed values.
package convert

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/value"
)

// ErrUnsupported is returned by a Converter that cannot handle the input's
// type. It lets a caller fall back to a registered constructor.
var ErrUnsupported = errors.New("unsupported conversion")

// Converter converts an input value, usually a string, to a target type.
type Converter interface {
	ConvertFrom(v any) (any, error)
}

// Func adapts a function to the Converter interface.
type Func func(v any) (any, error)

func (f Func) ConvertFrom(v any) (any, error) { return f(v) }

// Constructor builds a value of a custom type from a single input value.
type Constructor func(v any) (any, error)

// For returns the built-in converter for t, or nil if t is not a built-in
// type.
func For(t model.ValueType) Converter {
	switch t {
	case model.String:
		return Func(toString)
	case model.Bool:
		return builtin(t, func(s string) (any, error) {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, fmt.Errorf("invalid bool value %q", s)
			}
			return b, nil
		})
	case model.Int:
		return builtin(t, func(s string) (any, error) {
			i, err := strconv.ParseInt(s, 10, strconv.IntSize)
			if err != nil {
				return nil, fmt.Errorf("invalid int value %q: %w", s, numErr(err))
			}
			return int(i), nil
		})
	case model.Int64:
		return builtin(t, func(s string) (any, error) {
			i, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid int value %q: %w", s, numErr(err))
			}
			return i, nil
		})
	case model.Uint:
		return builtin(t, func(s string) (any, error) {
			u, err := strconv.ParseUint(s, 10, strconv.IntSize)
			if err != nil {
				return nil, fmt.Errorf("invalid uint value %q: %w", s, numErr(err))
			}
			return uint(u), nil
		})
	case model.Float64:
		return builtin(t, func(s string) (any, error) {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid float value %q: %w", s, numErr(err))
			}
			return f, nil
		})
	case model.Duration:
		return builtin(t, func(s string) (any, error) {
			d, err := time.ParseDuration(s)
			if err != nil {
				return nil, fmt.Errorf("invalid duration %q", s)
			}
			return d, nil
		})
	case model.URL:
		return builtin(t, func(s string) (any, error) {
			u, err := url.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("invalid URL %q: %w", s, err)
			}
			return u, nil
		})
	case model.Semver:
		return builtin(t, func(s string) (any, error) {
			v, err := semver.NewVersion(s)
			if err != nil {
				return nil, fmt.Errorf("invalid version %q: %w", s, err)
			}
			return v, nil
		})
	case model.Port:
		return builtin(t, func(s string) (any, error) {
			return parsePort(s)
		})
	}
	return nil
}

// builtin wraps a string parser. Inputs that already have the target Go type
// pass through; other non-string inputs are formatted first.
func builtin(t model.ValueType, parse func(string) (any, error)) Converter {
	return Func(func(v any) (any, error) {
		switch v := v.(type) {
		case string:
			return parse(v)
		case nil:
			return nil, fmt.Errorf("cannot convert nil to %s: %w", t, ErrUnsupported)
		}
		if IsType(t, v) {
			return v, nil
		}
		switch v.(type) {
		case fmt.Stringer, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return parse(fmt.Sprint(v))
		}
		return nil, fmt.Errorf("cannot convert %T to %s: %w", v, t, ErrUnsupported)
	})
}

func toString(v any) (any, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case nil:
		return "", nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return fmt.Sprint(v), nil
}

// parsePort parses a port number in the range 0-65535.
func parsePort(s string) (value.Port, error) {
	p, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		var ne *strconv.NumError
		if errors.As(err, &ne) && ne.Err == strconv.ErrRange {
			return 0, fmt.Errorf("port must be between 0 and 65535, got %q", s)
		}
		return 0, fmt.Errorf("invalid port value %q", s)
	}
	return value.Port(p), nil
}

func numErr(err error) error {
	var ne *strconv.NumError
	if errors.As(err, &ne) {
		return ne.Err
	}
	return err
}

// IsType reports whether v already has the Go type produced for t. Custom
// types always report false.
func IsType(t model.ValueType, v any) bool {
	switch v.(type) {
	case string:
		return t == model.String
	case bool:
		return t == model.Bool
	case int:
		return t == model.Int
	case int64:
		return t == model.Int64
	case uint:
		return t == model.Uint
	case float64:
		return t == model.Float64
	case time.Duration:
		return t == model.Duration
	case *url.URL:
		return t == model.URL
	case *semver.Version:
		return t == model.Semver
	case value.Port:
		return t == model.Port
	}
	return false
}

// ZeroString returns the string form of t's zero value: "false" for bool,
// "0" for numbers and ports, "0s" for durations, and "" for everything else.
func ZeroString(t model.ValueType) string {
	switch t {
	case model.Bool:
		return "false"
	case model.Int, model.Int64, model.Uint, model.Float64, model.Port:
		return "0"
	case model.Duration:
		return time.Duration(0).String()
	}
	return ""
}

// Format returns the string form of a converted value, such that converting
// the result back yields an equal value.
func Format(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case *semver.Version:
		return v.Original()
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(v)
}

// Smart converts with Converter and falls back to Constructor when the
// converter is missing or reports ErrUnsupported.
type Smart struct {
	Target      model.ValueType
	Converter   Converter
	Constructor Constructor
}

func (s Smart) ConvertFrom(v any) (any, error) {
	if s.Converter != nil {
		out, err := s.Converter.ConvertFrom(v)
		if err == nil || !errors.Is(err, ErrUnsupported) || s.Constructor == nil {
			return out, err
		}
	}
	if s.Constructor == nil {
		return nil, fmt.Errorf("no converter for type %s", s.Target)
	}
	return s.Constructor(v)
}
