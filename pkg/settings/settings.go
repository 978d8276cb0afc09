// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package settings generates settings type descriptors.
//
// For describes a struct type whose instances are *T. Every exported field
// becomes a property named after the field, or after its settings tag:
//
//	type AddSettings struct {
//		Name    string            `settings:"name"`
//		Port    value.Port
//		Tags    []string
//		Env     *value.MultiMap[string, string]
//		Level   value.FlagValue[int]
//		Ignored bool              `settings:"-"`
//	}
//
//	st := settings.For[AddSettings]()
//
// NewMap describes settings stored in a Values map, for models that are not
// backed by Go types.
package settings

import (
	"fmt"
	"reflect"

	"github.com/yeetrun/cmdtree/pkg/model"
)

// Option customizes a descriptor built by For.
type Option func(*model.SettingsType)

// WithName overrides the descriptor name, which defaults to the struct name.
func WithName(name string) Option {
	return func(t *model.SettingsType) { t.Name = name }
}

// WithConstructor adds a constructor. params name the constructor's
// parameters in order; a parameter that matches no resolved property is
// looked up as a service under its name.
func WithConstructor(invoke func(args []any) (any, error), params ...string) Option {
	return func(t *model.SettingsType) {
		c := model.Constructor{Invoke: invoke}
		for _, p := range params {
			c.Params = append(c.Params, model.ConstructorParam{Name: p})
		}
		t.Constructors = append(t.Constructors, c)
	}
}

// WithService adds a constructor parameter resolved from the named service
// to the most recently added constructor.
func WithService(param, service string) Option {
	return func(t *model.SettingsType) {
		if len(t.Constructors) == 0 {
			return
		}
		c := &t.Constructors[len(t.Constructors)-1]
		for i := range c.Params {
			if c.Params[i].Name == param {
				c.Params[i].Service = service
			}
		}
	}
}

// For returns the descriptor of struct type T. It panics if T is not a
// struct.
func For[T any](opts ...Option) *model.SettingsType {
	rt := reflect.TypeFor[T]()
	if rt.Kind() != reflect.Struct {
		panic(fmt.Sprintf("settings.For: %s is not a struct", rt))
	}
	t := &model.SettingsType{
		Name:       rt.Name(),
		New:        func() any { return new(T) },
		Properties: make(map[string]model.Setter),
	}
	for _, f := range reflect.VisibleFields(rt) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("settings"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}
		t.Properties[name] = fieldSetter[T](f.Index, f.Name)
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func fieldSetter[T any](index []int, field string) model.Setter {
	return func(settings, v any) error {
		ptr, ok := settings.(*T)
		if !ok {
			return fmt.Errorf("settings is %T, want *%s", settings, reflect.TypeFor[T]())
		}
		fv, err := reflect.ValueOf(ptr).Elem().FieldByIndexErr(index)
		if err != nil {
			return err
		}
		if err := Assign(fv, v); err != nil {
			return fmt.Errorf("field %s: %w", field, err)
		}
		return nil
	}
}

// Values holds map-backed settings.
type Values map[string]any

// NewMap returns a descriptor for map-backed settings with the given
// properties. Instances are Values.
func NewMap(name string, properties ...string) *model.SettingsType {
	t := &model.SettingsType{
		Name:       name,
		New:        func() any { return Values{} },
		Properties: make(map[string]model.Setter, len(properties)),
	}
	for _, p := range properties {
		t.Properties[p] = func(settings, v any) error {
			m, ok := settings.(Values)
			if !ok {
				return fmt.Errorf("settings is %T, want settings.Values", settings)
			}
			m[p] = v
			return nil
		}
	}
	return t
}
