// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bind converts the raw values of a parsed command path into typed
// values and builds the settings instance a command executes with.
package bind

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"

	"github.com/yeetrun/cmdtree/pkg/clierr"
	"github.com/yeetrun/cmdtree/pkg/convert"
	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/parser"
	"github.com/yeetrun/cmdtree/pkg/resolver"
	"github.com/yeetrun/cmdtree/pkg/value"
	"tailscale.com/util/set"
)

// Resolve converts the values of every node from the top-level command down
// to the leaf. Each node's unmapped parameters are resolved before its mapped
// ones, so explicit values override defaults. Required parameters are
// checked before anything is converted.
func Resolve(tree *parser.Tree, p resolver.Provider) (*Lookup, error) {
	l := NewLookup()
	if tree == nil {
		return l, nil
	}
	if err := parser.ValidateRequired(tree); err != nil {
		return nil, err
	}
	b := &binder{lookup: l, provider: p}

	// Backing properties given explicitly on an ancestor.
	explicit := make(set.Set[string])
	for _, n := range tree.Nodes() {
		for _, param := range n.Unmapped {
			if explicit.Contains(model.BackingKey(param)) {
				continue
			}
			if err := b.unmapped(param); err != nil {
				return nil, err
			}
		}
		for _, m := range n.Mapped {
			if err := b.mapped(m); err != nil {
				return nil, err
			}
		}
		for _, m := range n.Mapped {
			explicit.Add(model.BackingKey(m.Parameter))
		}
	}
	return l, nil
}

type binder struct {
	lookup   *Lookup
	provider resolver.Provider
}

func (b *binder) unmapped(param model.Parameter) error {
	info := param.Info()
	if info.ValueProvider != "" {
		v, found, err := b.provide(param, nil)
		if err != nil {
			return err
		}
		if found {
			v, err = b.convertValue(param, v)
			if err != nil {
				return err
			}
			if err := b.bind(param, v); err != nil {
				return err
			}
			return b.validate(param)
		}
	}

	switch {
	case info.Kind == model.FlagWithValue:
		b.lookup.SetValue(param, value.NewFlag(info.Type))
	case info.Default != nil:
		v, err := b.convertValue(param, info.Default.Value)
		if err != nil {
			return err
		}
		if err := b.bind(param, v); err != nil {
			return err
		}
		return b.validate(param)
	case info.Nullable:
		b.lookup.SetValue(param, nil)
	}
	return nil
}

func (b *binder) mapped(m parser.Mapped) error {
	param := m.Parameter
	info := param.Info()
	raw := ""
	if m.Value != nil {
		raw = *m.Value
	}

	switch {
	case model.WantsRawValue(param):
		if err := b.bind(param, raw); err != nil {
			return err
		}
	case info.Kind == model.Flag:
		on := true
		if raw != "" {
			var err error
			if on, err = strconv.ParseBool(raw); err != nil {
				return conversionError(param, raw, err)
			}
		}
		if err := b.bind(param, on); err != nil {
			return err
		}
	case info.Kind == model.FlagWithValue && raw == "":
		var v any
		if info.Default != nil {
			var err error
			if v, err = b.convertValue(param, info.Default.Value); err != nil {
				return err
			}
		}
		if err := b.bind(param, v); err != nil {
			return err
		}
	default:
		c, err := b.converter(param)
		if err != nil {
			return err
		}
		v, err := c.ConvertFrom(raw)
		if err != nil {
			return conversionError(param, raw, err)
		}
		if err := b.bind(param, v); err != nil {
			return err
		}
	}

	if info.ValueProvider != "" {
		v, found, err := b.provide(param, m.Value)
		if err != nil {
			return err
		}
		if found {
			b.lookup.SetValue(param, v)
		}
	}
	return b.validate(param)
}

func (b *binder) provide(param model.Parameter, raw *string) (any, bool, error) {
	key := param.Info().ValueProvider
	vp, ok := b.provider.ValueProvider(key)
	if !ok {
		return nil, false, clierr.Configf("%s: value provider %q is not registered", param.DisplayName(), key)
	}
	v, found, err := vp.TryGetValue(resolver.ParameterContext{Parameter: param, Provider: b.provider, Value: raw})
	if err != nil {
		return nil, false, fmt.Errorf("%s: value provider %q: %w", param.DisplayName(), key, err)
	}
	return v, found, nil
}

// converter returns the converter for one value of param: the parameter's
// own converter when set, otherwise the converter for its value type.
func (b *binder) converter(param model.Parameter) (convert.Converter, error) {
	info := param.Info()
	if info.Converter != "" {
		c, ok := b.provider.Converter(info.Converter)
		if !ok {
			return nil, &clierr.ConversionError{Parameter: param.DisplayName(), Target: info.Converter, Err: clierr.ErrNoConverter}
		}
		return c, nil
	}
	c, ok := resolver.TypeConverterFor(b.provider, info.Type)
	if !ok {
		return nil, &clierr.ConversionError{Parameter: param.DisplayName(), Target: string(info.Type), Err: clierr.ErrNoConverter}
	}
	return c, nil
}

// convertValue converts a default or provided value when its shape differs
// from the declared type. Slices are converted element by element.
func (b *binder) convertValue(param model.Parameter, v any) (any, error) {
	info := param.Info()
	if v == nil {
		return nil, nil
	}
	if _, ok := v.(value.Accumulator); ok || info.Kind == model.Pair {
		return v, nil
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Slice && info.Kind == model.Vector {
		seq := value.NewSeq(info.Type)
		for i := range rv.Len() {
			elem, err := b.convertOne(param, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			seq.Append(elem)
		}
		return seq, nil
	}
	return b.convertOne(param, v)
}

func (b *binder) convertOne(param model.Parameter, v any) (any, error) {
	info := param.Info()
	if info.Converter == "" && convert.IsType(info.Type, v) {
		return v, nil
	}
	c, err := b.converter(param)
	if err != nil {
		return nil, err
	}
	out, err := c.ConvertFrom(v)
	if err != nil {
		return nil, conversionError(param, convert.Format(v), err)
	}
	return out, nil
}

// bind stores a converted value, growing the accumulator of vector, pair and
// flag-with-value parameters.
func (b *binder) bind(param model.Parameter, v any) error {
	info := param.Info()
	existing, _ := b.lookup.GetValue(param)

	switch info.Kind {
	case model.Vector:
		if seq, ok := v.(*value.Seq); ok {
			b.lookup.SetValue(param, seq)
			return nil
		}
		seq, ok := existing.(*value.Seq)
		if !ok {
			seq = value.NewSeq(info.Type)
		}
		seq.Append(v)
		b.lookup.SetValue(param, seq)

	case model.FlagWithValue:
		if f, ok := v.(*value.Flag); ok {
			b.lookup.SetValue(param, f)
			return nil
		}
		f, ok := existing.(*value.Flag)
		if !ok {
			f = value.NewFlag(info.Type)
		}
		f.Set(v)
		b.lookup.SetValue(param, f)

	case model.Pair:
		if ps, ok := v.(*value.Pairs); ok {
			b.lookup.SetValue(param, ps)
			return nil
		}
		ps, ok := existing.(*value.Pairs)
		if !ok {
			ps = value.NewPairs(info.KeyType, info.Type)
		}
		if err := b.addPair(param, ps, v); err != nil {
			return err
		}
		b.lookup.SetValue(param, ps)

	default:
		b.lookup.SetValue(param, v)
	}
	return nil
}

// addPair adds v to ps. A string is split by the parameter's deconstructor;
// a converter may instead produce a value.KV[any, any] directly.
func (b *binder) addPair(param model.Parameter, ps *value.Pairs, v any) error {
	info := param.Info()
	switch v := v.(type) {
	case value.KV[any, any]:
		ps.Add(v.Key, v.Value)
		return nil
	case []string:
		for _, s := range v {
			if err := b.addPair(param, ps, s); err != nil {
				return err
			}
		}
		return nil
	case string:
		var d resolver.PairDeconstructor = resolver.DefaultPairDeconstructor{}
		if info.PairDeconstructor != "" {
			var ok bool
			if d, ok = b.provider.Deconstructor(info.PairDeconstructor); !ok {
				return clierr.Configf("%s: pair deconstructor %q is not registered", param.DisplayName(), info.PairDeconstructor)
			}
		}
		k, val, err := d.Deconstruct(b.provider, info.KeyType, info.Type, v)
		if err != nil {
			var pe *clierr.ParseError
			if errors.As(err, &pe) && pe.Parameter == "" {
				pe.Parameter = param.DisplayName()
			}
			return err
		}
		if k != nil {
			ps.Add(k, val)
		}
		return nil
	}
	return &clierr.ConversionError{
		Parameter: param.DisplayName(),
		Raw:       convert.Format(v),
		Target:    fmt.Sprintf("%s=%s", info.KeyType, info.Type),
		Err:       fmt.Errorf("cannot add %T to a pair parameter", v),
	}
}

// validate runs the parameter's validators against its current value.
func (b *binder) validate(param model.Parameter) error {
	info := param.Info()
	if len(info.Validators) == 0 && len(info.ValidatorKeys) == 0 {
		return nil
	}
	v, _ := b.lookup.GetValue(param)
	if v == nil {
		return nil
	}
	v, err := value.Finalize(v)
	if err != nil {
		return clierr.Configf("%s: %v", param.DisplayName(), err)
	}
	validators := info.Validators
	for _, key := range info.ValidatorKeys {
		vd, ok := b.provider.Validator(key)
		if !ok {
			return clierr.Configf("%s: validator %q is not registered", param.DisplayName(), key)
		}
		validators = append(validators[:len(validators):len(validators)], vd)
	}
	for _, vd := range validators {
		if err := vd.Validate(param, v); err != nil {
			return clierr.Validation(param.DisplayName(), err)
		}
	}
	return nil
}

func conversionError(param model.Parameter, raw string, err error) error {
	var ce *clierr.ConversionError
	if errors.As(err, &ce) {
		return err
	}
	target := string(param.Info().Type)
	if c := param.Info().Converter; c != "" {
		target = c
	}
	return &clierr.ConversionError{Parameter: param.DisplayName(), Raw: raw, Target: target, Err: err}
}
