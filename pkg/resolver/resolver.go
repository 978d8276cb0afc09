// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package resolver provides the capabilities the binder looks up while
// converting and validating parameter values: converters, value providers,
// pair deconstructors, validators, services and settings instances. All of
// them are registered explicitly and resolved by string key.
package resolver

import (
	"github.com/yeetrun/cmdtree/pkg/convert"
	"github.com/yeetrun/cmdtree/pkg/model"
	"tailscale.com/util/mak"
)

// ParameterContext is handed to a ValueProvider.
type ParameterContext struct {
	Parameter model.Parameter
	Provider  Provider
	// Value is the raw mapped value, or nil when the parameter was not given.
	Value *string
}

// ValueProvider supplies a value for a parameter. found is false when the
// provider has nothing to offer.
type ValueProvider interface {
	TryGetValue(ctx ParameterContext) (v any, found bool, err error)
}

// ValueProviderFunc adapts a function to the ValueProvider interface.
type ValueProviderFunc func(ctx ParameterContext) (any, bool, error)

func (f ValueProviderFunc) TryGetValue(ctx ParameterContext) (any, bool, error) { return f(ctx) }

// PairDeconstructor splits a raw pair argument into a typed key and value.
type PairDeconstructor interface {
	Deconstruct(p Provider, keyType, valueType model.ValueType, raw string) (key, value any, err error)
}

// Provider resolves capabilities by key.
type Provider interface {
	// Converter returns the converter registered under key.
	Converter(key string) (convert.Converter, bool)
	// TypeConverter returns the converter for values of type t.
	TypeConverter(t model.ValueType) (convert.Converter, bool)
	// Constructor returns the single-argument constructor for type t.
	Constructor(t model.ValueType) (convert.Constructor, bool)
	ValueProvider(key string) (ValueProvider, bool)
	Deconstructor(key string) (PairDeconstructor, bool)
	Validator(key string) (model.Validator, bool)
	// Service returns a dependency injected into settings constructors.
	Service(key string) (any, bool)
	// Settings returns a pre-built settings instance for the named settings
	// type.
	Settings(name string) (any, bool)
}

// Registry is the standard Provider. The zero value is ready to use and
// serves the built-in type converters.
type Registry struct {
	converters     map[string]convert.Converter
	typeConverters map[model.ValueType]convert.Converter
	constructors   map[model.ValueType]convert.Constructor
	valueProviders map[string]ValueProvider
	deconstructors map[string]PairDeconstructor
	validators     map[string]model.Validator
	services       map[string]any
	settings       map[string]func() any
}

var _ Provider = (*Registry)(nil)

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// RegisterConverter registers a converter that parameters select by key.
func (r *Registry) RegisterConverter(key string, c convert.Converter) *Registry {
	mak.Set(&r.converters, key, c)
	return r
}

// RegisterTypeConverter registers the converter used for every value of type
// t. It replaces the built-in converter for built-in types.
func (r *Registry) RegisterTypeConverter(t model.ValueType, c convert.Converter) *Registry {
	mak.Set(&r.typeConverters, t, c)
	return r
}

// RegisterConstructor registers a single-argument constructor for type t.
func (r *Registry) RegisterConstructor(t model.ValueType, c convert.Constructor) *Registry {
	mak.Set(&r.constructors, t, c)
	return r
}

func (r *Registry) RegisterValueProvider(key string, vp ValueProvider) *Registry {
	mak.Set(&r.valueProviders, key, vp)
	return r
}

func (r *Registry) RegisterDeconstructor(key string, d PairDeconstructor) *Registry {
	mak.Set(&r.deconstructors, key, d)
	return r
}

func (r *Registry) RegisterValidator(key string, v model.Validator) *Registry {
	mak.Set(&r.validators, key, v)
	return r
}

// RegisterService registers a dependency for settings constructors.
func (r *Registry) RegisterService(key string, svc any) *Registry {
	mak.Set(&r.services, key, svc)
	return r
}

// RegisterSettings registers a factory for instances of the named settings
// type. It takes precedence over the type's own New function.
func (r *Registry) RegisterSettings(name string, factory func() any) *Registry {
	mak.Set(&r.settings, name, factory)
	return r
}

func (r *Registry) Converter(key string) (convert.Converter, bool) {
	c, ok := r.converters[key]
	return c, ok
}

func (r *Registry) TypeConverter(t model.ValueType) (convert.Converter, bool) {
	if c, ok := r.typeConverters[t]; ok {
		return c, true
	}
	if c := convert.For(t); c != nil {
		return c, true
	}
	return nil, false
}

func (r *Registry) Constructor(t model.ValueType) (convert.Constructor, bool) {
	c, ok := r.constructors[t]
	return c, ok
}

func (r *Registry) ValueProvider(key string) (ValueProvider, bool) {
	vp, ok := r.valueProviders[key]
	return vp, ok
}

func (r *Registry) Deconstructor(key string) (PairDeconstructor, bool) {
	d, ok := r.deconstructors[key]
	return d, ok
}

func (r *Registry) Validator(key string) (model.Validator, bool) {
	v, ok := r.validators[key]
	return v, ok
}

func (r *Registry) Service(key string) (any, bool) {
	s, ok := r.services[key]
	return s, ok
}

func (r *Registry) Settings(name string) (any, bool) {
	f, ok := r.settings[name]
	if !ok {
		return nil, false
	}
	s := f()
	return s, s != nil
}

// TypeConverterFor returns the converter for values of type t, combining
// the registered or built-in converter with any registered constructor.
func TypeConverterFor(p Provider, t model.ValueType) (convert.Converter, bool) {
	c, hasConv := p.TypeConverter(t)
	ctor, hasCtor := p.Constructor(t)
	if !hasConv && !hasCtor {
		return nil, false
	}
	return convert.Smart{Target: t, Converter: c, Constructor: ctor}, true
}
