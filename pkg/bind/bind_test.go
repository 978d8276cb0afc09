// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bind

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/yeetrun/cmdtree/pkg/clierr"
	"github.com/yeetrun/cmdtree/pkg/convert"
	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/parser"
	"github.com/yeetrun/cmdtree/pkg/resolver"
	"github.com/yeetrun/cmdtree/pkg/settings"
	"github.com/yeetrun/cmdtree/pkg/value"
)

type AddSettings struct {
	Name    string
	Age     int
	Verbose bool
	Port    int
	Tags    []string
	Env     *value.MultiMap[string, string]
	Level   value.FlagValue[int]
	Nick    *string
}

func addCommand(extra ...model.Parameter) *model.Command {
	params := []model.Parameter{
		model.MustArgument(0, "<NAME>", "Name", model.String),
		model.MustArgument(1, "[AGE]", "Age", model.Int),
		model.MustOption("-v|--verbose", "Verbose", model.Bool),
		model.MustOption("-p|--port <PORT>", "Port", model.Int, model.WithDefault("80")),
		model.MustOption("-t|--tag <TAG>", "Tags", model.String, model.AsVector()),
		model.MustOption("-e|--env <KV>", "Env", model.String, model.AsPair(model.String)),
		model.MustOption("-l|--level [LEVEL]", "Level", model.Int, model.WithDefault(1)),
	}
	return &model.Command{
		Name:       "add",
		Settings:   settings.For[AddSettings](),
		Parameters: append(params, extra...),
	}
}

func parse(t *testing.T, cmds []*model.Command, args ...string) *parser.Tree {
	t.Helper()
	m, err := model.New(cmds, nil)
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	res, err := parser.New(m).Parse(args)
	if err != nil {
		t.Fatalf("Parse(%q): %v", args, err)
	}
	return res.Tree
}

func bindAdd(t *testing.T, p resolver.Provider, extra []model.Parameter, args ...string) (*AddSettings, error) {
	t.Helper()
	cmd := addCommand(extra...)
	tree := parse(t, []*model.Command{cmd}, args...)
	s, err := Bind(tree, cmd.Settings, p)
	if err != nil {
		return nil, err
	}
	return s.(*AddSettings), nil
}

func intp(i int) *int { return &i }

func TestBind(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want AddSettings
	}{
		{
			name: "defaults",
			args: []string{"add", "bob"},
			want: AddSettings{Name: "bob", Port: 80},
		},
		{
			name: "explicit values",
			args: []string{"add", "bob", "30", "-v", "--port", "8080"},
			want: AddSettings{Name: "bob", Age: 30, Verbose: true, Port: 8080},
		},
		{
			name: "vector keeps order",
			args: []string{"add", "bob", "-t", "b", "--tag", "a", "--tag=c"},
			want: AddSettings{Name: "bob", Port: 80, Tags: []string{"b", "a", "c"}},
		},
		{
			name: "flag value without value uses default",
			args: []string{"add", "bob", "-l"},
			want: AddSettings{Name: "bob", Port: 80, Level: value.FlagValue[int]{IsSet: true, Value: intp(1)}},
		},
		{
			name: "flag value with value",
			args: []string{"add", "bob", "--level=3"},
			want: AddSettings{Name: "bob", Port: 80, Level: value.FlagValue[int]{IsSet: true, Value: intp(3)}},
		},
		{
			name: "flag value takes the following value",
			args: []string{"add", "bob", "--level", "3"},
			want: AddSettings{Name: "bob", Port: 80, Level: value.FlagValue[int]{IsSet: true, Value: intp(3)}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bindAdd(t, resolver.NewRegistry(), nil, tt.args...)
			if err != nil {
				t.Fatalf("Bind: %v", err)
			}
			if diff := cmp.Diff(tt.want, *got, cmp.AllowUnexported(value.MultiMap[string, string]{})); diff != "" {
				t.Errorf("settings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBindPairs(t *testing.T) {
	got, err := bindAdd(t, resolver.NewRegistry(), nil, "add", "bob", "-e", "a=1", "--env", "b", "-e", "a=2")
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	want := []value.KV[string, string]{{Key: "a", Value: "1"}, {Key: "b", Value: ""}, {Key: "a", Value: "2"}}
	if diff := cmp.Diff(want, got.Env.Pairs()); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}
	if v, _ := got.Env.Get("a"); v != "2" {
		t.Errorf(`Env.Get("a") = %q, want "2"`, v)
	}
}

func TestBindMalformedPair(t *testing.T) {
	_, err := bindAdd(t, resolver.NewRegistry(), nil, "add", "bob", "-e", "a=1=2")
	var pe *clierr.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Bind error = %v, want ParseError", err)
	}
	if pe.Code != clierr.MalformedPair {
		t.Errorf("Code = %v, want %v", pe.Code, clierr.MalformedPair)
	}
	if pe.Parameter != "--env" {
		t.Errorf("Parameter = %q, want --env", pe.Parameter)
	}
}

func TestBindErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		extra []model.Parameter
		is    error
	}{
		{
			name: "missing required argument",
			args: []string{"add"},
			is:   clierr.ErrParse,
		},
		{
			name: "bad int",
			args: []string{"add", "bob", "old"},
			is:   clierr.ErrConversion,
		},
		{
			name:  "no converter for custom type",
			args:  []string{"add", "bob", "--color", "red"},
			extra: []model.Parameter{model.MustOption("--color <C>", "Color", "color")},
			is:    clierr.ErrNoConverter,
		},
		{
			name:  "unregistered converter key",
			args:  []string{"add", "bob", "--color", "red"},
			extra: []model.Parameter{model.MustOption("--color <C>", "Color", model.String, model.WithConverter("colors"))},
			is:    clierr.ErrNoConverter,
		},
		{
			name: "validator rejects",
			args: []string{"add", "bob", "--count", "11"},
			extra: []model.Parameter{model.MustOption("--count <N>", "Count", model.Int, model.WithValidators(
				model.ValidatorFunc(func(p model.Parameter, v any) error {
					if v.(int) > 10 {
						return fmt.Errorf("%d is too large", v)
					}
					return nil
				}),
			))},
			is: clierr.ErrValidation,
		},
		{
			name:  "unregistered value provider",
			args:  []string{"add", "bob"},
			extra: []model.Parameter{model.MustOption("--token <T>", "Token", model.String, model.WithValueProvider("vault"))},
			is:    clierr.ErrConfiguration,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bindAdd(t, resolver.NewRegistry(), tt.extra, tt.args...)
			if !errors.Is(err, tt.is) {
				t.Fatalf("Bind error = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestMissingRequiredBeforeConversion(t *testing.T) {
	// The bad default would fail conversion; the missing argument wins.
	extra := []model.Parameter{model.MustOption("--count <N>", "Count", model.Int, model.WithDefault("many"))}
	_, err := bindAdd(t, resolver.NewRegistry(), extra, "add")
	var pe *clierr.ParseError
	if !errors.As(err, &pe) || pe.Code != clierr.MissingRequired {
		t.Fatalf("Bind error = %v, want MissingRequired", err)
	}
	if errors.Is(err, clierr.ErrConversion) {
		t.Errorf("Bind error %v is a conversion error", err)
	}
}

func TestCustomConverter(t *testing.T) {
	reg := resolver.NewRegistry().RegisterConverter("upper", convert.Func(func(v any) (any, error) {
		return strings.ToUpper(v.(string)), nil
	}))
	cmd := &model.Command{
		Name:     "shout",
		Settings: settings.NewMap("Shout", "Word"),
		Parameters: []model.Parameter{
			model.MustArgument(0, "<WORD>", "Word", model.String, model.WithConverter("upper")),
		},
	}
	tree := parse(t, []*model.Command{cmd}, "shout", "hey")
	got, err := Bind(tree, cmd.Settings, reg)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	want := settings.Values{"Word": "HEY"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestNarrowFieldRejectsOutOfRange(t *testing.T) {
	type limits struct {
		Count int8
		Port  uint16
	}
	cmd := &model.Command{
		Name:     "limits",
		Settings: settings.For[limits](),
		Parameters: []model.Parameter{
			model.MustOption("--count <N>", "Count", model.Int),
			model.MustOption("--port <PORT>", "Port", model.Int),
		},
	}
	for _, args := range [][]string{
		{"limits", "--count", "200"},
		{"limits", "--port", "-1"},
	} {
		tree := parse(t, []*model.Command{cmd}, args...)
		_, err := Bind(tree, cmd.Settings, resolver.NewRegistry())
		if !errors.Is(err, clierr.ErrConversion) || !errors.Is(err, settings.ErrRange) {
			t.Errorf("Bind(%q) error = %v, want a range conversion error", args, err)
		}
	}

	tree := parse(t, []*model.Command{cmd}, "limits", "--count", "-128", "--port", "65535")
	got, err := Bind(tree, cmd.Settings, resolver.NewRegistry())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if want := (limits{Count: -128, Port: 65535}); *got.(*limits) != want {
		t.Errorf("settings = %+v, want %+v", *got.(*limits), want)
	}
}

func TestFlagIgnoresTypeConverter(t *testing.T) {
	reg := resolver.NewRegistry().RegisterTypeConverter(model.Bool, convert.Func(func(v any) (any, error) {
		return false, nil
	}))
	tests := []struct {
		args []string
		want bool
	}{
		{[]string{"add", "bob", "-v"}, true},
		{[]string{"add", "bob", "--verbose=true"}, true},
		{[]string{"add", "bob", "--verbose=false"}, false},
	}
	for _, tt := range tests {
		got, err := bindAdd(t, reg, nil, tt.args...)
		if err != nil {
			t.Fatalf("Bind(%q): %v", tt.args, err)
		}
		if got.Verbose != tt.want {
			t.Errorf("Bind(%q) Verbose = %v, want %v", tt.args, got.Verbose, tt.want)
		}
	}
}

func TestValueProvider(t *testing.T) {
	reg := resolver.NewRegistry().RegisterValueProvider("token", resolver.ValueProviderFunc(func(ctx resolver.ParameterContext) (any, bool, error) {
		if ctx.Value != nil {
			return nil, false, nil
		}
		return "from-provider", true, nil
	}))
	cmd := &model.Command{
		Name:     "login",
		Settings: settings.NewMap("Login", "Token"),
		Parameters: []model.Parameter{
			model.MustOption("--token <T>", "Token", model.String, model.WithValueProvider("token"), model.WithDefault("from-default")),
		},
	}
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"login"}, "from-provider"},
		{[]string{"login", "--token", "given"}, "given"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			tree := parse(t, []*model.Command{cmd}, tt.args...)
			got, err := Bind(tree, cmd.Settings, reg)
			if err != nil {
				t.Fatalf("Bind: %v", err)
			}
			if v := got.(settings.Values)["Token"]; v != tt.want {
				t.Errorf("Token = %v, want %q", v, tt.want)
			}
		})
	}
}

type ChildSettings struct {
	Level int
	Debug bool
}

func TestAncestorValueNotOverridden(t *testing.T) {
	parent := &model.Command{
		Name:     "remote",
		IsBranch: true,
		Settings: settings.For[ChildSettings](),
		Parameters: []model.Parameter{
			model.MustOption("--level <N>", "Level", model.Int, model.DeclaredBy("Base")),
		},
		Children: []*model.Command{{
			Name:     "show",
			Settings: settings.For[ChildSettings](),
			Parameters: []model.Parameter{
				model.MustOption("--level <N>", "Level", model.Int, model.DeclaredBy("Base"), model.WithDefault(5)),
				model.MustOption("--debug", "Debug", model.Bool),
			},
		}},
	}
	tests := []struct {
		args []string
		want ChildSettings
	}{
		{[]string{"remote", "show"}, ChildSettings{Level: 5}},
		{[]string{"remote", "--level", "3", "show"}, ChildSettings{Level: 3}},
		{[]string{"remote", "show", "--level", "7", "--debug"}, ChildSettings{Level: 7, Debug: true}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			tree := parse(t, []*model.Command{parent}, tt.args...)
			leaf := tree.Leaf()
			got, err := Bind(tree, leaf.Command.Settings, resolver.NewRegistry())
			if err != nil {
				t.Fatalf("Bind: %v", err)
			}
			if diff := cmp.Diff(tt.want, *got.(*ChildSettings)); diff != "" {
				t.Errorf("settings mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type GreetSettings struct {
	Name  string
	Loud  bool
	Clock string
}

func greetCommand(st *model.SettingsType) *model.Command {
	return &model.Command{
		Name:     "greet",
		Settings: st,
		Parameters: []model.Parameter{
			model.MustArgument(0, "<NAME>", "Name", model.String),
			model.MustOption("--loud", "Loud", model.Bool),
		},
	}
}

func newGreet(args []any) (any, error) {
	return &GreetSettings{Name: args[0].(string), Clock: args[1].(string)}, nil
}

func TestConstructorInjection(t *testing.T) {
	st := settings.For[GreetSettings](
		settings.WithConstructor(newGreet, "name", "clock"),
		settings.WithService("clock", "wallclock"),
	)
	cmd := greetCommand(st)
	tree := parse(t, []*model.Command{cmd}, "greet", "ann", "--loud")
	reg := resolver.NewRegistry().RegisterService("wallclock", "utc")

	got, err := Bind(tree, st, reg)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	want := GreetSettings{Name: "ann", Loud: true, Clock: "utc"}
	if diff := cmp.Diff(want, *got.(*GreetSettings)); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}

	_, err = Bind(tree, st, resolver.NewRegistry())
	if !errors.Is(err, clierr.ErrConfiguration) {
		t.Fatalf("Bind without service = %v, want configuration error", err)
	}
}

func TestConstructorNotMatched(t *testing.T) {
	called := false
	st := settings.For[GreetSettings](settings.WithConstructor(func(args []any) (any, error) {
		called = true
		return newGreet(args)
	}, "other", "clock"))
	cmd := greetCommand(st)
	tree := parse(t, []*model.Command{cmd}, "greet", "ann")

	got, err := Bind(tree, st, resolver.NewRegistry())
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if called {
		t.Error("constructor was used without a matching parameter")
	}
	if g := got.(*GreetSettings); g.Name != "ann" {
		t.Errorf("Name = %q, want ann", g.Name)
	}
}

func TestPropertyBinderSkipsNil(t *testing.T) {
	extra := []model.Parameter{model.MustOption("--nick <NICK>", "Nick", model.String, model.Nullable())}
	keep := "keep"
	reg := resolver.NewRegistry().RegisterSettings("AddSettings", func() any {
		return &AddSettings{Nick: &keep}
	})
	got, err := bindAdd(t, reg, extra, "add", "bob")
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got.Nick == nil || *got.Nick != "keep" {
		t.Errorf("Nick = %v, want keep", got.Nick)
	}

	got, err = bindAdd(t, reg, extra, "add", "bob", "--nick", "bobby")
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got.Nick == nil || *got.Nick != "bobby" {
		t.Errorf("Nick = %v, want bobby", got.Nick)
	}
}

type CheckedSettings struct {
	Min int
	Max int
}

func (s *CheckedSettings) Validate() error {
	if s.Min > s.Max {
		return errors.New("min must not exceed max")
	}
	return nil
}

func TestSettingsValidate(t *testing.T) {
	cmd := &model.Command{
		Name:     "range",
		Settings: settings.For[CheckedSettings](),
		Parameters: []model.Parameter{
			model.MustArgument(0, "<MIN>", "Min", model.Int),
			model.MustArgument(1, "<MAX>", "Max", model.Int),
		},
	}
	tree := parse(t, []*model.Command{cmd}, "range", "1", "5")
	if _, err := Bind(tree, cmd.Settings, resolver.NewRegistry()); err != nil {
		t.Fatalf("Bind: %v", err)
	}

	tree = parse(t, []*model.Command{cmd}, "range", "5", "1")
	got, err := Bind(tree, cmd.Settings, resolver.NewRegistry())
	if !errors.Is(err, clierr.ErrValidation) {
		t.Fatalf("Bind error = %v, want validation error", err)
	}
	if got != nil {
		t.Errorf("Bind returned %v with a validation error", got)
	}
}

func TestResolveNilTree(t *testing.T) {
	l, err := Resolve(nil, resolver.NewRegistry())
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d, want 0", l.Len())
	}
}

func TestLookup(t *testing.T) {
	a := model.MustOption("--a <A>", "A", model.String, model.DeclaredBy("S"))
	a2 := model.MustOption("--other <A>", "A", model.String, model.DeclaredBy("S"))
	b := model.MustOption("--b <B>", "B", model.String, model.DeclaredBy("S"))

	l := NewLookup()
	l.SetValue(a, "1")
	l.SetValue(b, "2")
	l.SetValue(a2, "3")

	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	if v, _ := l.GetValue(a); v != "3" {
		t.Errorf("GetValue(a) = %v, want 3", v)
	}
	if got := l.Entries()[0].Parameter; got != model.Parameter(a2) {
		t.Errorf("first entry parameter = %v, want the replacing parameter", got.DisplayName())
	}
	if !l.HasProperty("b") {
		t.Error(`HasProperty("b") = false, want true`)
	}
	if l.HasProperty("c") {
		t.Error(`HasProperty("c") = true, want false`)
	}
}
