// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bind

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/yeetrun/cmdtree/pkg/clierr"
	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/parser"
	"github.com/yeetrun/cmdtree/pkg/resolver"
	"github.com/yeetrun/cmdtree/pkg/settings"
	"github.com/yeetrun/cmdtree/pkg/value"
	"tailscale.com/util/set"
)

// Validator is implemented by settings that check themselves after all
// values are assigned.
type Validator interface {
	Validate() error
}

// Bind resolves the values of tree and constructs settings of type t.
func Bind(tree *parser.Tree, t *model.SettingsType, p resolver.Provider) (any, error) {
	l, err := Resolve(tree, p)
	if err != nil {
		return nil, err
	}
	return Construct(t, l, p)
}

// Construct builds a settings instance from the lookup.
//
// A constructor is used when one of its parameter names matches a resolved
// property. Its remaining parameters come from the provider's services, and
// the properties it did not receive are assigned afterwards. Otherwise the
// instance comes from the provider or the type's New function and every
// non-nil value is assigned by property name.
func Construct(t *model.SettingsType, l *Lookup, p resolver.Provider) (any, error) {
	if t == nil {
		return nil, clierr.Configf("no settings type")
	}
	for _, ctor := range t.Constructors {
		for _, cp := range ctor.Params {
			if l.HasProperty(cp.Name) {
				return constructWith(t, ctor, l, p)
			}
		}
	}
	return constructProperties(t, l, p)
}

func constructWith(t *model.SettingsType, ctor model.Constructor, l *Lookup, p resolver.Provider) (any, error) {
	args := make([]any, 0, len(ctor.Params))
	injected := make(set.Set[uuid.UUID])
	for _, cp := range ctor.Params {
		if e, ok := l.ByProperty(cp.Name); ok {
			v, err := finalize(e)
			if err != nil {
				return nil, err
			}
			args = append(args, v)
			injected.Add(e.Parameter.Info().ID)
			continue
		}
		key := cp.Service
		if key == "" {
			key = cp.Name
		}
		svc, ok := p.Service(key)
		if !ok {
			return nil, clierr.Configf("could not resolve type %s for parameter %q of %s", key, cp.Name, t.Name)
		}
		args = append(args, svc)
	}
	settings, err := ctor.Invoke(args)
	if err != nil {
		return nil, &clierr.ConfigurationError{Msg: fmt.Sprintf("could not create settings %s", t.Name), Err: err}
	}
	if settings == nil {
		return nil, clierr.Configf("could not create settings %s", t.Name)
	}
	for _, e := range l.Entries() {
		if injected.Contains(e.Parameter.Info().ID) {
			continue
		}
		if err := assign(t, settings, e); err != nil {
			return nil, err
		}
	}
	if err := selfValidate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func constructProperties(t *model.SettingsType, l *Lookup, p resolver.Provider) (any, error) {
	settings, ok := p.Settings(t.Name)
	if !ok {
		if t.New == nil {
			return nil, clierr.Configf("could not create settings %s", t.Name)
		}
		settings = t.New()
	}
	for _, e := range l.Entries() {
		if e.Value == nil {
			continue
		}
		if err := assign(t, settings, e); err != nil {
			return nil, err
		}
	}
	if err := selfValidate(settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func assign(t *model.SettingsType, instance any, e Entry) error {
	prop := e.Parameter.Info().Property
	setter, ok := t.Property(prop)
	if !ok {
		return nil
	}
	v, err := finalize(e)
	if err != nil {
		return err
	}
	if err := setter(instance, v); err != nil {
		if errors.Is(err, settings.ErrRange) {
			return &clierr.ConversionError{
				Parameter: e.Parameter.DisplayName(),
				Raw:       fmt.Sprint(v),
				Target:    string(e.Parameter.Info().Type),
				Err:       err,
			}
		}
		return &clierr.ConfigurationError{Msg: fmt.Sprintf("cannot assign %s.%s", t.Name, prop), Err: err}
	}
	return nil
}

func finalize(e Entry) (any, error) {
	v, err := value.Finalize(e.Value)
	if err != nil {
		return nil, &clierr.ConfigurationError{Msg: fmt.Sprintf("cannot build value of %s", e.Parameter.DisplayName()), Err: err}
	}
	return v, nil
}

func selfValidate(settings any) error {
	v, ok := settings.(Validator)
	if !ok {
		return nil
	}
	return clierr.Validation("", v.Validate())
}
