// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/yeetrun/cmdtree/pkg/clierr"
	"github.com/yeetrun/cmdtree/pkg/config"
	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/settings"
)

type GreetSettings struct {
	Name string
	Loud bool
}

type recorder struct {
	calls    []string
	settings any
	cc       *model.CommandContext
}

func (r *recorder) delegate(name string, code int) model.Delegate {
	return func(ctx context.Context, cc *model.CommandContext, s any) (int, error) {
		r.calls = append(r.calls, name)
		r.settings = s
		r.cc = cc
		return code, nil
	}
}

func testModel(t *testing.T, r *recorder) *model.Model {
	t.Helper()
	greet := &model.Command{
		Name:        "greet",
		Description: "Say hello",
		Settings:    settings.For[GreetSettings](),
		Parameters: []model.Parameter{
			model.MustArgument(0, "<NAME>", "Name", model.String),
			model.MustOption("--loud", "Loud", model.Bool),
		},
		Delegate: r.delegate("greet", 0),
		Validate: func(cc *model.CommandContext, s any) error {
			if s.(*GreetSettings).Name == "nobody" {
				return errors.New("cannot greet nobody")
			}
			return nil
		},
	}
	remote := &model.Command{
		Name:     "remote",
		IsBranch: true,
		Settings: settings.NewMap("Remote"),
		Children: []*model.Command{
			{Name: "list", Settings: settings.NewMap("RemoteList"), Delegate: r.delegate("list", 3)},
		},
	}
	broken := &model.Command{Name: "broken", Settings: settings.NewMap("Broken")}
	m, err := model.New([]*model.Command{greet, remote, broken}, nil)
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	return m
}

func TestRun(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantCode  int
		wantCalls []string
		wantOut   string
	}{
		{"execute", []string{"greet", "ann", "--loud"}, 0, []string{"greet"}, ""},
		{"exit code from delegate", []string{"remote", "list"}, 3, []string{"list"}, ""},
		{"no arguments shows help", nil, 0, nil, "COMMANDS:"},
		{"branch shows help", []string{"remote"}, 1, nil, "list"},
		{"help requested", []string{"greet", "--help"}, 0, nil, "<NAME>"},
		{"version", []string{"--version"}, 0, nil, "1.2.3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &recorder{}
			var stdout, stderr bytes.Buffer
			cfg := config.Default()
			cfg.ApplicationName = "demo"
			cfg.ApplicationVersion = "1.2.3"
			a := New(testModel(t, r), WithConfig(cfg), WithOutput(&stdout, &stderr))

			code, err := a.Run(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("Run error: %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d (stderr %q)", code, tt.wantCode, stderr.String())
			}
			if !reflect.DeepEqual(r.calls, tt.wantCalls) {
				t.Errorf("calls = %v, want %v", r.calls, tt.wantCalls)
			}
			if !strings.Contains(stdout.String(), tt.wantOut) {
				t.Errorf("stdout = %q, want it to contain %q", stdout.String(), tt.wantOut)
			}
		})
	}
}

func TestRunBindsSettings(t *testing.T) {
	r := &recorder{}
	a := New(testModel(t, r), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
	if _, err := a.Run(context.Background(), []string{"greet", "ann", "--loud", "--", "extra"}); err != nil {
		t.Fatalf("Run error: %v", err)
	}
	want := &GreetSettings{Name: "ann", Loud: true}
	if !reflect.DeepEqual(r.settings, want) {
		t.Errorf("settings = %+v, want %+v", r.settings, want)
	}
	if r.cc.Name != "greet" {
		t.Errorf("context name = %q, want greet", r.cc.Name)
	}
	if !reflect.DeepEqual(r.cc.Remaining.Raw, []string{"extra"}) {
		t.Errorf("remaining = %v, want [extra]", r.cc.Remaining.Raw)
	}
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"unknown command", []string{"wave"}, clierr.ErrParse},
		{"missing argument", []string{"greet"}, clierr.ErrParse},
		{"command validation", []string{"greet", "nobody"}, clierr.ErrValidation},
		{"no delegate", []string{"broken"}, clierr.ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.PropagateErrors = true
			a := New(testModel(t, &recorder{}), WithConfig(cfg), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
			code, err := a.Run(context.Background(), tt.args)
			if !errors.Is(err, tt.is) {
				t.Fatalf("Run error = %v, want %v", err, tt.is)
			}
			if code != -1 {
				t.Errorf("code = %d, want -1", code)
			}
		})
	}
}

func TestRunErrorHandler(t *testing.T) {
	var handled error
	a := New(testModel(t, &recorder{}),
		WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
		WithErrorHandler(func(err error) int {
			handled = err
			return 42
		}),
	)
	code, err := a.Run(context.Background(), []string{"wave"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if code != 42 {
		t.Errorf("code = %d, want 42", code)
	}
	var pe *clierr.ParseError
	if !errors.As(handled, &pe) || pe.Code != clierr.UnknownCommand {
		t.Errorf("handled = %v, want UnknownCommand", handled)
	}
}

func TestRunRendersErrors(t *testing.T) {
	var stderr bytes.Buffer
	a := New(testModel(t, &recorder{}), WithOutput(&bytes.Buffer{}, &stderr))
	code, err := a.Run(context.Background(), []string{"greet", "ann", "--nope"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if code != -1 {
		t.Errorf("code = %d, want -1", code)
	}
	if !strings.HasPrefix(stderr.String(), "Error:") {
		t.Errorf("stderr = %q, want an error message", stderr.String())
	}
}

type orderInterceptor struct {
	name  string
	calls *[]string
}

func (o orderInterceptor) Intercept(ctx context.Context, cc *model.CommandContext, s any) error {
	*o.calls = append(*o.calls, o.name+".before")
	return nil
}

func (o orderInterceptor) InterceptResult(ctx context.Context, cc *model.CommandContext, s any, code *int) {
	*o.calls = append(*o.calls, o.name+".after")
	*code += 10
}

func TestInterceptors(t *testing.T) {
	r := &recorder{}
	var calls []string
	a := New(testModel(t, r),
		WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
		WithInterceptor(orderInterceptor{"a", &calls}),
		WithInterceptor(orderInterceptor{"b", &calls}),
		WithInterceptor(InterceptFunc(func(ctx context.Context, cc *model.CommandContext, s any) error {
			calls = append(calls, "func")
			return nil
		})),
	)
	code, err := a.Run(context.Background(), []string{"remote", "list"})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if code != 23 {
		t.Errorf("code = %d, want 23", code)
	}
	want := []string{"a.before", "b.before", "func", "a.after", "b.after"}
	if !reflect.DeepEqual(calls, want) {
		t.Errorf("calls = %v, want %v", calls, want)
	}
}

func TestInterceptorFailureStopsExecution(t *testing.T) {
	r := &recorder{}
	cfg := config.Default()
	cfg.PropagateErrors = true
	a := New(testModel(t, r),
		WithConfig(cfg),
		WithOutput(&bytes.Buffer{}, &bytes.Buffer{}),
		WithInterceptor(InterceptFunc(func(context.Context, *model.CommandContext, any) error {
			return errors.New("denied")
		})),
	)
	if _, err := a.Run(context.Background(), []string{"greet", "ann"}); err == nil {
		t.Fatal("Run succeeded, want interceptor error")
	}
	if len(r.calls) != 0 {
		t.Errorf("delegate called %v", r.calls)
	}
}

func TestRootDefaultCommand(t *testing.T) {
	r := &recorder{}
	def := &model.Command{
		Settings: settings.For[GreetSettings](),
		Parameters: []model.Parameter{
			model.MustArgument(0, "<NAME>", "Name", model.String),
		},
		Delegate: r.delegate("default", 0),
	}
	m, err := model.New(nil, def)
	if err != nil {
		t.Fatalf("model.New: %v", err)
	}
	var stdout bytes.Buffer
	cfg := config.Default()
	cfg.ApplicationVersion = "1.2.3"
	a := New(m, WithConfig(cfg), WithOutput(&stdout, &bytes.Buffer{}))

	code, err := a.Run(context.Background(), nil)
	if err != nil || code != 1 {
		t.Errorf("Run(no args) = %d, %v; want help with exit code 1", code, err)
	}
	if !strings.Contains(stdout.String(), "USAGE:") {
		t.Errorf("stdout = %q, want help", stdout.String())
	}

	code, err = a.Run(context.Background(), []string{"bob"})
	if err != nil || code != 0 {
		t.Fatalf("Run(bob) = %d, %v", code, err)
	}
	if got := r.settings.(*GreetSettings).Name; got != "bob" {
		t.Errorf("Name = %q, want bob", got)
	}
}

func TestLoggerFrom(t *testing.T) {
	if LoggerFrom(context.Background()) == nil {
		t.Fatal("LoggerFrom returned nil")
	}
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := WithLogger(context.Background(), logger)
	if LoggerFrom(ctx) != logger {
		t.Error("LoggerFrom did not return the stored logger")
	}

	r := &recorder{}
	a := New(testModel(t, r), WithOutput(&bytes.Buffer{}, &bytes.Buffer{}))
	if _, err := a.Run(ctx, []string{"greet", "ann"}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "command selected") {
		t.Errorf("log = %q, want debug pipeline messages", buf.String())
	}
}
