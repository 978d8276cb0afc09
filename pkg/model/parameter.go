// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValueType names the declared type of a parameter value. The built-in names
// are served by the converters in package convert; any other name is a
// custom type that needs a converter registered under the same key.
type ValueType string

const (
	String   ValueType = "string"
	Bool     ValueType = "bool"
	Int      ValueType = "int"
	Int64    ValueType = "int64"
	Uint     ValueType = "uint"
	Float64  ValueType = "float64"
	Duration ValueType = "duration"
	URL      ValueType = "url"
	Semver   ValueType = "semver"
	// Port is a TCP/UDP port number (uint16).
	Port ValueType = "port"
)

// IsValueType reports whether the type has a meaningful zero value that is
// not the empty string (numbers, booleans and durations).
func (t ValueType) IsValueType() bool {
	switch t {
	case Bool, Int, Int64, Uint, Float64, Duration, Port:
		return true
	}
	return false
}

// IsBuiltin reports whether t is one of the built-in value types.
func (t ValueType) IsBuiltin() bool {
	switch t {
	case String, Bool, Int, Int64, Uint, Float64, Duration, URL, Semver, Port:
		return true
	}
	return false
}

// ParameterKind is the shape of a parameter's value.
type ParameterKind int

const (
	// SingleValue holds one converted value.
	SingleValue ParameterKind = iota
	// Flag is a boolean set by presence.
	Flag
	// FlagWithValue is a flag with an optional value (value.FlagValue).
	FlagWithValue
	// Vector accumulates every occurrence into a slice.
	Vector
	// Pair accumulates key=value occurrences into a value.MultiMap.
	Pair
)

func (k ParameterKind) String() string {
	switch k {
	case SingleValue:
		return "single"
	case Flag:
		return "flag"
	case FlagWithValue:
		return "flag-with-value"
	case Vector:
		return "vector"
	case Pair:
		return "pair"
	default:
		return fmt.Sprintf("ParameterKind(%d)", int(k))
	}
}

// Default holds a parameter's static default value. The value is converted
// like a raw value when it is not already of the declared type.
type Default struct {
	Value any
}

// Validator validates a parameter's final value.
type Validator interface {
	Validate(p Parameter, v any) error
}

// ValidatorFunc adapts a function to the Validator interface.
type ValidatorFunc func(p Parameter, v any) error

func (f ValidatorFunc) Validate(p Parameter, v any) error { return f(p, v) }

// ParameterInfo holds the fields shared by arguments and options.
type ParameterInfo struct {
	ID   uuid.UUID
	Kind ParameterKind

	// Property is the name of the backing settings property.
	Property string
	// DeclaringType is the settings type that declares Property. Defaults to
	// the owning command's settings type name.
	DeclaringType string

	// Type is the value type. It is the element type for Vector, the inner
	// type for FlagWithValue and the value type for Pair.
	Type ValueType
	// KeyType is the key type for Pair parameters.
	KeyType ValueType
	// Nullable parameters are bound to an explicit nil when unmapped.
	Nullable bool

	Required    bool
	Default     *Default
	Description string
	Hidden      bool

	Validators    []Validator
	ValidatorKeys []string

	// Converter, ValueProvider and PairDeconstructor are registry keys.
	Converter         string
	ValueProvider     string
	PairDeconstructor string
}

// Info returns the shared parameter fields.
func (p *ParameterInfo) Info() *ParameterInfo { return p }

// Parameter is an *Argument or an *Option.
type Parameter interface {
	Info() *ParameterInfo
	// DisplayName is the name used in messages, e.g. "--port" or "<NAME>".
	DisplayName() string
}

// Argument is a positional parameter.
type Argument struct {
	ParameterInfo
	Position  int
	ValueName string
}

func (a *Argument) DisplayName() string {
	if a.ValueName != "" {
		if a.Required {
			return "<" + a.ValueName + ">"
		}
		return "[" + a.ValueName + "]"
	}
	return a.Property
}

// Option is a named parameter.
type Option struct {
	ParameterInfo
	LongNames       []string
	ShortNames      []string
	ValueName       string
	ValueIsOptional bool
}

func (o *Option) DisplayName() string {
	if len(o.LongNames) > 0 {
		return "--" + o.LongNames[0]
	}
	if len(o.ShortNames) > 0 {
		return "-" + o.ShortNames[0]
	}
	return o.Property
}

// HasValue reports whether the option expects a value token.
func (o *Option) HasValue() bool {
	return o.Kind != Flag && o.Kind != FlagWithValue
}

// SameBackingProperty reports whether a and b assign the same settings
// property.
func SameBackingProperty(a, b Parameter) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	ai, bi := a.Info(), b.Info()
	return ai.DeclaringType == bi.DeclaringType && ai.Property == bi.Property
}

// BackingKey returns the identity used by SameBackingProperty.
func BackingKey(p Parameter) string {
	info := p.Info()
	return info.DeclaringType + "." + info.Property
}

// WantsRawValue reports whether the binder should receive the unconverted
// string, leaving conversion to the pair deconstructor.
func WantsRawValue(p Parameter) bool {
	info := p.Info()
	return info.Kind == Pair && (info.PairDeconstructor != "" || info.Converter == "")
}

// IsArgument reports whether p is positional.
func IsArgument(p Parameter) bool {
	_, ok := p.(*Argument)
	return ok
}

// ParamOption customizes a parameter built by NewArgument or NewOption.
type ParamOption func(*ParameterInfo)

func Required() ParamOption { return func(p *ParameterInfo) { p.Required = true } }

func Nullable() ParamOption { return func(p *ParameterInfo) { p.Nullable = true } }

func Hidden() ParamOption { return func(p *ParameterInfo) { p.Hidden = true } }

func Description(s string) ParamOption { return func(p *ParameterInfo) { p.Description = s } }

func WithDefault(v any) ParamOption { return func(p *ParameterInfo) { p.Default = &Default{Value: v} } }

func WithConverter(key string) ParamOption { return func(p *ParameterInfo) { p.Converter = key } }

func WithValueProvider(key string) ParamOption {
	return func(p *ParameterInfo) { p.ValueProvider = key }
}

func WithDeconstructor(key string) ParamOption {
	return func(p *ParameterInfo) { p.PairDeconstructor = key }
}

func WithValidators(vs ...Validator) ParamOption {
	return func(p *ParameterInfo) { p.Validators = append(p.Validators, vs...) }
}

func WithValidatorKeys(keys ...string) ParamOption {
	return func(p *ParameterInfo) { p.ValidatorKeys = append(p.ValidatorKeys, keys...) }
}

// DeclaredBy sets the settings type that declares the backing property.
func DeclaredBy(settingsType string) ParamOption {
	return func(p *ParameterInfo) { p.DeclaringType = settingsType }
}

// AsVector makes the parameter accumulate every occurrence.
func AsVector() ParamOption { return func(p *ParameterInfo) { p.Kind = Vector } }

// AsPair makes the parameter a key=value multimap with the given key type.
func AsPair(keyType ValueType) ParamOption {
	return func(p *ParameterInfo) {
		p.Kind = Pair
		p.KeyType = keyType
	}
}

// AsFlagWithValue makes the option a flag carrying an optional value.
func AsFlagWithValue() ParamOption { return func(p *ParameterInfo) { p.Kind = FlagWithValue } }

// NewArgument returns a positional argument. The template is "<NAME>" for a
// required argument or "[NAME]" for an optional one.
func NewArgument(position int, template, property string, typ ValueType, opts ...ParamOption) (*Argument, error) {
	name, required, err := parseValueName(template)
	if err != nil {
		return nil, err
	}
	a := &Argument{
		ParameterInfo: ParameterInfo{
			ID:       uuid.New(),
			Kind:     SingleValue,
			Property: property,
			Type:     typ,
			Required: required,
		},
		Position:  position,
		ValueName: name,
	}
	for _, opt := range opts {
		opt(&a.ParameterInfo)
	}
	return a, nil
}

// NewOption returns an option described by a template such as
// "-p|--port <PORT>". A value name in square brackets ("--level [LEVEL]")
// makes the value optional and the option a FlagWithValue. Options without a
// value name are flags.
func NewOption(template, property string, typ ValueType, opts ...ParamOption) (*Option, error) {
	o, err := ParseOptionTemplate(template)
	if err != nil {
		return nil, err
	}
	o.ID = uuid.New()
	o.Property = property
	o.Type = typ
	switch {
	case o.ValueIsOptional:
		o.Kind = FlagWithValue
	case o.ValueName == "":
		o.Kind = Flag
	default:
		o.Kind = SingleValue
	}
	for _, opt := range opts {
		opt(&o.ParameterInfo)
	}
	if o.Kind == Flag && o.Type == "" {
		o.Type = Bool
	}
	return o, nil
}

// MustArgument is like NewArgument but panics on a malformed template.
func MustArgument(position int, template, property string, typ ValueType, opts ...ParamOption) *Argument {
	a, err := NewArgument(position, template, property, typ, opts...)
	if err != nil {
		panic(err)
	}
	return a
}

// MustOption is like NewOption but panics on a malformed template.
func MustOption(template, property string, typ ValueType, opts ...ParamOption) *Option {
	o, err := NewOption(template, property, typ, opts...)
	if err != nil {
		panic(err)
	}
	return o
}

// ParseOptionTemplate parses names and value name from an option template.
func ParseOptionTemplate(template string) (*Option, error) {
	o := &Option{}
	fields := strings.Fields(template)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty option template")
	}
	for _, part := range strings.Split(fields[0], "|") {
		switch {
		case strings.HasPrefix(part, "--"):
			name := part[2:]
			if name == "" {
				return nil, fmt.Errorf("option template %q: empty long name", template)
			}
			o.LongNames = append(o.LongNames, name)
		case strings.HasPrefix(part, "-"):
			name := part[1:]
			if utf8.RuneCountInString(name) != 1 {
				return nil, fmt.Errorf("option template %q: short name %q must be a single character", template, name)
			}
			o.ShortNames = append(o.ShortNames, name)
		default:
			return nil, fmt.Errorf("option template %q: %q must start with '-' or '--'", template, part)
		}
	}
	switch len(fields) {
	case 1:
	case 2:
		name, required, err := parseValueName(fields[1])
		if err != nil {
			return nil, fmt.Errorf("option template %q: %w", template, err)
		}
		o.ValueName = name
		o.ValueIsOptional = !required
	default:
		return nil, fmt.Errorf("option template %q: too many parts", template)
	}
	return o, nil
}

func parseValueName(s string) (name string, required bool, err error) {
	if len(s) < 3 {
		return "", false, fmt.Errorf("invalid value name %q", s)
	}
	switch {
	case s[0] == '<' && s[len(s)-1] == '>':
		return s[1 : len(s)-1], true, nil
	case s[0] == '[' && s[len(s)-1] == ']':
		return s[1 : len(s)-1], false, nil
	}
	return "", false, fmt.Errorf("invalid value name %q (expected <NAME> or [NAME])", s)
}
