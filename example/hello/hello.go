// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command hello greets people and serves greetings over HTTP.
//
//	hello                        # Hello, World!
//	hello ann bob -c 2 --loud
//	hello serve --port 8080 -H X-Env=dev
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/yeetrun/cmdtree/pkg/app"
	"github.com/yeetrun/cmdtree/pkg/config"
	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/resolver"
	"github.com/yeetrun/cmdtree/pkg/settings"
	"github.com/yeetrun/cmdtree/pkg/validate"
	"github.com/yeetrun/cmdtree/pkg/value"
	"github.com/yeetrun/cmdtree/pkg/valueprovider"
)

type CommonSettings struct {
	// Verbose is a log level; --verbose alone means 1.
	Verbose value.FlagValue[int]
}

type GreetSettings struct {
	CommonSettings
	Names    []string
	Greeting string
	Count    int
	Interval time.Duration
	Loud     bool
}

type ServeSettings struct {
	CommonSettings
	Listen  string
	Port    value.Port
	Headers *value.MultiMap[string, string]
}

func verboseOption() *model.Option {
	return model.MustOption("-v|--verbose [LEVEL]", "Verbose", model.Int,
		model.WithDefault(1),
		model.Description("Log more; optionally give a level"))
}

func newModel(stdout io.Writer) (*model.Model, error) {
	greet := &model.Command{
		Description: "Greet people",
		Settings:    settings.For[GreetSettings](),
		Parameters: []model.Parameter{
			model.MustArgument(0, "[NAMES]", "Names", model.String, model.AsVector()),
			model.MustOption("-g|--greeting <WORD>", "Greeting", model.String,
				model.WithDefault("Hello"),
				model.WithValidators(validate.OneOf("Hello", "Hi", "Howdy"))),
			model.MustOption("-c|--count <N>", "Count", model.Int,
				model.WithDefault(1),
				model.WithValidators(validate.Range(1, 10))),
			model.MustOption("--interval <DURATION>", "Interval", model.Duration,
				model.Description("Pause between repeated greetings")),
			model.MustOption("--loud", "Loud", model.Bool),
			verboseOption(),
		},
		Delegate: func(ctx context.Context, cc *model.CommandContext, s any) (int, error) {
			return 0, greet(ctx, stdout, s.(*GreetSettings))
		},
	}
	serve := &model.Command{
		Name:        "serve",
		Description: "Serve greetings over HTTP",
		Settings:    settings.For[ServeSettings](),
		Parameters: []model.Parameter{
			model.MustOption("-l|--listen <HOST>", "Listen", model.String,
				model.WithValidators(validate.MustPattern(`^[^:\s]*$`))),
			model.MustOption("-p|--port <PORT>", "Port", model.Port,
				model.WithDefault("8080"),
				model.WithValueProvider("env"),
				model.WithValidators(validate.Range[value.Port](1024, 65535))),
			model.MustOption("-H|--header <KEY=VALUE>", "Headers", model.String,
				model.AsPair(model.String),
				model.Description("Response header, may be repeated")),
			verboseOption(),
		},
		Examples: [][]string{{"serve", "--port", "8080", "-H", "X-Env=dev"}},
		Delegate: func(ctx context.Context, cc *model.CommandContext, s any) (int, error) {
			return 0, serveHTTP(ctx, s.(*ServeSettings))
		},
	}
	return model.New([]*model.Command{serve}, greet)
}

func newRegistry() *resolver.Registry {
	return resolver.NewRegistry().
		RegisterValueProvider("env", valueprovider.Env{Prefix: "HELLO_"})
}

func greet(ctx context.Context, w io.Writer, s *GreetSettings) error {
	names := s.Names
	if len(names) == 0 {
		names = []string{"World"}
	}
	line := fmt.Sprintf("%s, %s!", s.Greeting, strings.Join(names, " and "))
	if s.Loud {
		line = strings.ToUpper(line)
	}
	for i := range s.Count {
		if i > 0 && s.Interval > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.Interval):
			}
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func newHandler(s *ServeSettings) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Headers != nil {
			for _, kv := range s.Headers.Pairs() {
				w.Header().Add(kv.Key, kv.Value)
			}
		}
		if r.URL.Path == "/env" {
			fmt.Fprintln(w, os.Environ())
			return
		}
		fmt.Fprintln(w, "Hello, world!")
	})
}

func serveHTTP(ctx context.Context, s *ServeSettings) error {
	addr := net.JoinHostPort(s.Listen, s.Port.String())
	srv := &http.Server{Addr: addr, Handler: newHandler(s)}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	app.LoggerFrom(ctx).Info("listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// logLevel raises the logger's level to match --verbose.
type logLevel struct {
	level *slog.LevelVar
}

func (l logLevel) Intercept(ctx context.Context, cc *model.CommandContext, s any) error {
	var v value.FlagValue[int]
	switch s := s.(type) {
	case *GreetSettings:
		v = s.Verbose
	case *ServeSettings:
		v = s.Verbose
	}
	if v.IsSet && v.Get() > 0 {
		l.level.Set(slog.LevelDebug)
	}
	app.LoggerFrom(ctx).Debug("executing", "command", cc.Name)
	return nil
}

func (logLevel) InterceptResult(ctx context.Context, cc *model.CommandContext, s any, code *int) {
	app.LoggerFrom(ctx).Debug("done", "command", cc.Name, "code", *code)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	level := new(slog.LevelVar)
	ctx = app.WithLogger(ctx, slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	m, err := newModel(os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.Default()
	cfg.ApplicationName = "hello"
	cfg.ApplicationVersion = "1.0.0"
	code, _ := app.New(m,
		app.WithConfig(cfg),
		app.WithProvider(newRegistry()),
		app.WithInterceptor(logLevel{level}),
	).Run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
