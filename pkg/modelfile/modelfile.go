// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package modelfile declares a command model in YAML. Every command binds to
// map-backed settings (settings.Values) holding the values of its own
// parameters and those of its ancestors.
//
//	name: git
//	commands:
//	  - name: remote
//	    branch: true
//	    options:
//	      - template: "-v|--verbose"
//	    commands:
//	      - name: add
//	        arguments:
//	          - template: "<NAME>"
//	          - template: "<URL>"
//	            type: url
//	        options:
//	          - template: "-t|--track <BRANCH>"
//	            vector: true
//	          - template: "--port <PORT>"
//	            type: port
//	            env: GIT_REMOTE_PORT
//	            validate: {min: 1024, max: 65535}
package modelfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/resolver"
	"github.com/yeetrun/cmdtree/pkg/settings"
	"github.com/yeetrun/cmdtree/pkg/valueprovider"
	"gopkg.in/yaml.v3"
)

// File is the root of a model file.
type File struct {
	Name        string         `yaml:"name"`
	Version     string         `yaml:"version,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Default     *CommandSpec   `yaml:"default,omitempty"`
	Commands    []*CommandSpec `yaml:"commands,omitempty"`
	Examples    [][]string     `yaml:"examples,omitempty"`
}

// CommandSpec declares a command or branch.
type CommandSpec struct {
	Name        string         `yaml:"name"`
	Aliases     []string       `yaml:"aliases,omitempty"`
	Description string         `yaml:"description,omitempty"`
	Branch      bool           `yaml:"branch,omitempty"`
	Default     bool           `yaml:"default,omitempty"`
	Hidden      bool           `yaml:"hidden,omitempty"`
	Arguments   []ParamSpec    `yaml:"arguments,omitempty"`
	Options     []ParamSpec    `yaml:"options,omitempty"`
	Commands    []*CommandSpec `yaml:"commands,omitempty"`
	Examples    [][]string     `yaml:"examples,omitempty"`
}

// ParamSpec declares an argument or option. Template is "<NAME>" or
// "[NAME]" for arguments and "-s|--long <VALUE>" for options.
type ParamSpec struct {
	Template string `yaml:"template"`
	// Position defaults to the argument's index in the list.
	Position *int `yaml:"position,omitempty"`
	// Property defaults to the value name or first long name, lowercased.
	Property    string          `yaml:"property,omitempty"`
	Type        model.ValueType `yaml:"type,omitempty"`
	Vector      bool            `yaml:"vector,omitempty"`
	Pair        model.ValueType `yaml:"pair,omitempty"` // key type
	Required    bool            `yaml:"required,omitempty"`
	Nullable    bool            `yaml:"nullable,omitempty"`
	Hidden      bool            `yaml:"hidden,omitempty"`
	Description string          `yaml:"description,omitempty"`
	Default     any             `yaml:"default,omitempty"`

	Converter     string `yaml:"converter,omitempty"`
	ValueProvider string `yaml:"value_provider,omitempty"`
	Deconstructor string `yaml:"deconstructor,omitempty"`
	// Env names an environment variable that supplies the value when the
	// parameter is not given.
	Env      string        `yaml:"env,omitempty"`
	Validate *ValidateSpec `yaml:"validate,omitempty"`
}

// Parse decodes a model file. Unknown fields are errors.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty model file")
		}
		return nil, err
	}
	return &f, nil
}

// Load reads and decodes the model file at path.
func Load(path string) (*File, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Parse(bytes.NewReader(bs))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, nil
}

// Build returns the command model. Every command executes run. Value
// providers for env parameters are registered in reg.
func (f *File) Build(reg *resolver.Registry, run model.Delegate) (*model.Model, error) {
	b := &builder{reg: reg, run: run}
	var cmds []*model.Command
	for _, cs := range f.Commands {
		c, err := b.command(cs, "", nil)
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, c)
	}
	var def *model.Command
	if f.Default != nil {
		var err error
		if def, err = b.command(f.Default, "", nil); err != nil {
			return nil, err
		}
	}
	m, err := model.New(cmds, def)
	if err != nil {
		return nil, err
	}
	m.Examples = f.Examples
	return m, nil
}

type builder struct {
	reg *resolver.Registry
	run model.Delegate
}

// command builds cs. parent is the settings name of cs's parent and
// inherited holds the properties of its ancestors.
func (b *builder) command(cs *CommandSpec, parent string, inherited []string) (*model.Command, error) {
	name := cs.Name
	if name == "" {
		if !cs.Default {
			return nil, fmt.Errorf("command without a name")
		}
		name = model.DefaultCommandName
	}
	c := &model.Command{
		Name:        cs.Name,
		Aliases:     cs.Aliases,
		Description: cs.Description,
		IsBranch:    cs.Branch || len(cs.Commands) > 0,
		IsDefault:   cs.Default,
		IsHidden:    cs.Hidden,
		Examples:    cs.Examples,
		Delegate:    b.run,
	}
	props := slices.Clone(inherited)
	for i, ps := range cs.Arguments {
		pos := i
		if ps.Position != nil {
			pos = *ps.Position
		}
		a, err := b.argument(pos, ps)
		if err != nil {
			return nil, fmt.Errorf("command %q: %w", name, err)
		}
		c.Parameters = append(c.Parameters, a)
		props = append(props, a.Property)
	}
	for _, ps := range cs.Options {
		o, err := b.option(ps)
		if err != nil {
			return nil, fmt.Errorf("command %q: %w", name, err)
		}
		c.Parameters = append(c.Parameters, o)
		props = append(props, o.Property)
	}

	settingsName := name
	if parent != "" {
		settingsName = parent + "." + name
	}
	c.Settings = settings.NewMap(settingsName, props...)

	for _, child := range cs.Commands {
		cc, err := b.command(child, settingsName, props)
		if err != nil {
			return nil, err
		}
		c.Children = append(c.Children, cc)
	}
	return c, nil
}

func (b *builder) argument(pos int, ps ParamSpec) (*model.Argument, error) {
	opts, err := b.paramOptions(ps)
	if err != nil {
		return nil, err
	}
	a, err := model.NewArgument(pos, ps.Template, "", typeOf(ps), opts...)
	if err != nil {
		return nil, err
	}
	if a.Property == "" {
		a.Property = strings.ToLower(a.ValueName)
	}
	return a, b.finish(&a.ParameterInfo, ps)
}

func (b *builder) option(ps ParamSpec) (*model.Option, error) {
	opts, err := b.paramOptions(ps)
	if err != nil {
		return nil, err
	}
	o, err := model.NewOption(ps.Template, "", ps.Type, opts...)
	if err != nil {
		return nil, err
	}
	if o.Type == "" {
		o.Type = model.String
	}
	if o.Property == "" {
		switch {
		case len(o.LongNames) > 0:
			o.Property = strings.ToLower(o.LongNames[0])
		case len(o.ShortNames) > 0:
			o.Property = o.ShortNames[0]
		}
	}
	return o, b.finish(&o.ParameterInfo, ps)
}

func typeOf(ps ParamSpec) model.ValueType {
	if ps.Type == "" {
		return model.String
	}
	return ps.Type
}

func (b *builder) paramOptions(ps ParamSpec) ([]model.ParamOption, error) {
	var opts []model.ParamOption
	if ps.Property != "" {
		prop := ps.Property
		opts = append(opts, func(p *model.ParameterInfo) { p.Property = prop })
	}
	if ps.Vector {
		opts = append(opts, model.AsVector())
	}
	if ps.Pair != "" {
		opts = append(opts, model.AsPair(ps.Pair))
	}
	if ps.Required {
		opts = append(opts, model.Required())
	}
	if ps.Nullable {
		opts = append(opts, model.Nullable())
	}
	if ps.Hidden {
		opts = append(opts, model.Hidden())
	}
	if ps.Description != "" {
		opts = append(opts, model.Description(ps.Description))
	}
	if ps.Default != nil {
		opts = append(opts, model.WithDefault(normalizeDefault(ps.Default)))
	}
	if ps.Converter != "" {
		opts = append(opts, model.WithConverter(ps.Converter))
	}
	if ps.ValueProvider != "" && ps.Env != "" {
		return nil, fmt.Errorf("%s: value_provider and env are mutually exclusive", ps.Template)
	}
	if ps.ValueProvider != "" {
		opts = append(opts, model.WithValueProvider(ps.ValueProvider))
	}
	if ps.Env != "" {
		opts = append(opts, model.WithValueProvider("env:"+ps.Env))
	}
	if ps.Deconstructor != "" {
		opts = append(opts, model.WithDeconstructor(ps.Deconstructor))
	}
	return opts, nil
}

// finish attaches validators and registers the env value provider once the
// property name is known.
func (b *builder) finish(info *model.ParameterInfo, ps ParamSpec) error {
	if ps.Validate != nil {
		vs, err := ps.Validate.validators(info.Type)
		if err != nil {
			return fmt.Errorf("%s: %w", ps.Template, err)
		}
		info.Validators = append(info.Validators, vs...)
		info.ValidatorKeys = append(info.ValidatorKeys, ps.Validate.Keys...)
	}
	if ps.Env != "" && b.reg != nil {
		b.reg.RegisterValueProvider("env:"+ps.Env, valueprovider.Env{
			Names: map[string]string{info.Property: ps.Env},
		})
	}
	return nil
}

// normalizeDefault turns YAML sequences of strings into []string so pair
// parameters can split them.
func normalizeDefault(v any) any {
	list, ok := v.([]any)
	if !ok {
		return v
	}
	out := make([]string, 0, len(list))
	for _, x := range list {
		s, ok := x.(string)
		if !ok {
			return v
		}
		out = append(out, s)
	}
	return out
}
