// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package settings

import (
	"errors"
	"fmt"
	"math"
	"reflect"
)

// Assign sets field to v, converting between compatible shapes: numbers of
// different widths, T and *T, []any and []T, and flag values whose element
// types differ. A nil v sets the zero value.
func Assign(field reflect.Value, v any) error {
	if v == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}
	return assignValue(field, reflect.ValueOf(v))
}

func assignValue(field reflect.Value, rv reflect.Value) error {
	ft := field.Type()

	// Unwrap interfaces held in []any elements.
	for rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			field.Set(reflect.Zero(ft))
			return nil
		}
		rv = rv.Elem()
	}
	rt := rv.Type()

	switch {
	case rt.AssignableTo(ft):
		field.Set(rv)
		return nil

	case ft.Kind() == reflect.Pointer && rt.Kind() != reflect.Pointer:
		p := reflect.New(ft.Elem())
		if err := assignValue(p.Elem(), rv); err != nil {
			return err
		}
		field.Set(p)
		return nil

	case rt.Kind() == reflect.Pointer && !rv.IsNil() && rt.Elem().AssignableTo(ft):
		field.Set(rv.Elem())
		return nil

	case numeric(rt.Kind()) && numeric(ft.Kind()):
		if err := fits(field, rv); err != nil {
			return err
		}
		field.Set(rv.Convert(ft))
		return nil

	case rt.Kind() == reflect.String && ft.Kind() == reflect.String:
		field.Set(rv.Convert(ft))
		return nil

	case rt.Kind() == reflect.Slice && ft.Kind() == reflect.Slice:
		out := reflect.MakeSlice(ft, rv.Len(), rv.Len())
		for i := range rv.Len() {
			if err := assignValue(out.Index(i), rv.Index(i)); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		field.Set(out)
		return nil

	case isFlagValue(rt) && isFlagValue(ft):
		field.FieldByName("IsSet").SetBool(rv.FieldByName("IsSet").Bool())
		src := rv.FieldByName("Value")
		dst := field.FieldByName("Value")
		if src.IsNil() {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		return assignValue(dst, src.Elem())

	case ft.Kind() == reflect.Interface && rt.Implements(ft):
		field.Set(rv)
		return nil
	}
	return fmt.Errorf("cannot assign %s to %s", rt, ft)
}

func numeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// ErrRange is wrapped by errors for numbers that do not fit the field they
// are assigned to.
var ErrRange = errors.New("value out of range")

// fits reports an error if the number in rv cannot be stored in field
// without wrapping, truncation or loss of sign.
func fits(field, rv reflect.Value) error {
	overflow := func() error {
		return fmt.Errorf("%v overflows %s: %w", rv.Interface(), field.Type(), ErrRange)
	}
	switch k := field.Kind(); {
	case isInt(k):
		switch {
		case isInt(rv.Kind()):
			if field.OverflowInt(rv.Int()) {
				return overflow()
			}
		case isUint(rv.Kind()):
			if u := rv.Uint(); u > math.MaxInt64 || field.OverflowInt(int64(u)) {
				return overflow()
			}
		default:
			f := rv.Float()
			if err := wholeNumber(rv, field, f); err != nil {
				return err
			}
			if f < math.MinInt64 || f >= math.MaxInt64 || field.OverflowInt(int64(f)) {
				return overflow()
			}
		}
	case isUint(k):
		switch {
		case isInt(rv.Kind()):
			if n := rv.Int(); n < 0 || field.OverflowUint(uint64(n)) {
				return overflow()
			}
		case isUint(rv.Kind()):
			if field.OverflowUint(rv.Uint()) {
				return overflow()
			}
		default:
			f := rv.Float()
			if err := wholeNumber(rv, field, f); err != nil {
				return err
			}
			if f < 0 || f >= math.MaxUint64 || field.OverflowUint(uint64(f)) {
				return overflow()
			}
		}
	default:
		if (rv.Kind() == reflect.Float32 || rv.Kind() == reflect.Float64) && field.OverflowFloat(rv.Float()) {
			return overflow()
		}
	}
	return nil
}

func wholeNumber(rv, field reflect.Value, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return fmt.Errorf("%v is not a whole number for %s: %w", rv.Interface(), field.Type(), ErrRange)
	}
	return nil
}

func isInt(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func isUint(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uintptr
}

// isFlagValue reports whether t has the shape of value.FlagValue.
func isFlagValue(t reflect.Type) bool {
	if t.Kind() != reflect.Struct || t.NumField() != 2 {
		return false
	}
	set, ok := t.FieldByName("IsSet")
	if !ok || set.Type.Kind() != reflect.Bool {
		return false
	}
	val, ok := t.FieldByName("Value")
	return ok && val.Type.Kind() == reflect.Pointer
}
