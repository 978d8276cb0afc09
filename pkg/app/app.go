// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package app runs a command model against process arguments: it parses,
// binds settings and executes the selected command's delegate.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/bind"
	"github.com/yeetrun/cmdtree/pkg/clierr"
	"github.com/yeetrun/cmdtree/pkg/config"
	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/parser"
	"github.com/yeetrun/cmdtree/pkg/resolver"
	"github.com/yeetrun/cmdtree/pkg/tui"
)

// Interceptor observes every execution. Intercept runs after settings are
// bound and before the command is validated; InterceptResult runs after the
// delegate returns and may change the exit code.
type Interceptor interface {
	Intercept(ctx context.Context, cc *model.CommandContext, settings any) error
	InterceptResult(ctx context.Context, cc *model.CommandContext, settings any, code *int)
}

// InterceptFunc is an Interceptor that only implements Intercept.
type InterceptFunc func(ctx context.Context, cc *model.CommandContext, settings any) error

func (f InterceptFunc) Intercept(ctx context.Context, cc *model.CommandContext, settings any) error {
	return f(ctx, cc, settings)
}

func (InterceptFunc) InterceptResult(context.Context, *model.CommandContext, any, *int) {}

// HelpFunc writes help for cmd, or for the application when cmd is nil.
type HelpFunc func(w io.Writer, name string, m *model.Model, cmd *model.Command)

// ErrorHandler turns a failure into an exit code.
type ErrorHandler func(err error) int

// App executes commands of a model.
type App struct {
	model        *model.Model
	cfg          *config.Settings
	provider     resolver.Provider
	interceptors []Interceptor
	help         HelpFunc
	errorHandler ErrorHandler
	stdout       io.Writer
	stderr       io.Writer
}

type Option func(*App)

// WithConfig sets the application settings. The default is config.Default().
// cfg is copied.
func WithConfig(cfg *config.Settings) Option {
	return func(a *App) {
		if cfg != nil {
			a.cfg = cfg.Clone()
		}
	}
}

// WithProvider sets the capability provider used while binding.
func WithProvider(p resolver.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithInterceptor appends an interceptor. Interceptors run in the order they
// were added.
func WithInterceptor(i Interceptor) Option {
	return func(a *App) { a.interceptors = append(a.interceptors, i) }
}

func WithHelp(h HelpFunc) Option {
	return func(a *App) { a.help = h }
}

// WithErrorHandler sets the handler for failures when errors are not
// propagated.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) { a.errorHandler = h }
}

func WithOutput(stdout, stderr io.Writer) Option {
	return func(a *App) {
		a.stdout = stdout
		a.stderr = stderr
	}
}

// New returns an App for m.
func New(m *model.Model, opts ...Option) *App {
	a := &App{
		model:    m,
		cfg:      config.Default(),
		provider: resolver.NewRegistry(),
		help:     WriteHelp,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run parses args, binds the selected command's settings and executes it,
// returning the exit code.
//
// With PropagateErrors set, failures are returned as errors. Otherwise they
// go to the error handler, or are written to stderr with exit code -1.
func (a *App) Run(ctx context.Context, args []string) (int, error) {
	code, err := a.run(ctx, args)
	if err == nil {
		return code, nil
	}
	LoggerFrom(ctx).Debug("command failed", "err", err)
	if a.cfg.PropagateErrors {
		return -1, err
	}
	if a.errorHandler != nil {
		return a.errorHandler(err), nil
	}
	tui.RenderError(a.stderr, tui.NewColorizer(a.stderr), args, err)
	return -1, nil
}

func (a *App) run(ctx context.Context, args []string) (int, error) {
	log := LoggerFrom(ctx)

	if a.model.Default == nil && len(args) > 0 && a.cfg.ApplicationVersion != "" {
		if strings.EqualFold(args[0], "--version") || strings.EqualFold(args[0], "-v") {
			fmt.Fprintln(a.stdout, a.cfg.ApplicationVersion)
			return 0, nil
		}
	}

	opts, err := a.cfg.ParserOptions()
	if err != nil {
		return 0, &clierr.ConfigurationError{Msg: "invalid application settings", Err: err}
	}
	res, err := parser.New(a.model, opts...).Parse(args)
	if err != nil {
		return 0, err
	}
	if !slices.Equal(res.Args, args) {
		log.Debug("default command inserted", "args", res.Args)
	}

	if res.Tree == nil {
		a.help(a.stdout, a.cfg.ApplicationName, a.model, nil)
		return 0, nil
	}
	leaf := res.Tree.Leaf()
	log.Debug("command selected", "path", res.Tree.Path(), "default", leaf.IsDefaultCommand, "help", leaf.ShowHelp)

	if leaf.Command.IsBranch || leaf.ShowHelp {
		a.help(a.stdout, a.cfg.ApplicationName, a.model, leaf.Command)
		if leaf.ShowHelp {
			return 0, nil
		}
		return 1, nil
	}
	if leaf.Command.IsDefault && len(args) == 0 && hasRequired(leaf.Command) {
		a.help(a.stdout, a.cfg.ApplicationName, a.model, leaf.Command)
		return 1, nil
	}

	cc := &model.CommandContext{
		Args:      args,
		Remaining: res.Remaining,
		Name:      leaf.Command.Name,
		Data:      leaf.Command.Data,
	}
	return a.execute(ctx, res.Tree, leaf, cc)
}

func (a *App) execute(ctx context.Context, tree, leaf *parser.Tree, cc *model.CommandContext) (int, error) {
	settings, err := bind.Bind(tree, leaf.Command.Settings, a.provider)
	if err != nil {
		return 0, err
	}
	for _, i := range a.interceptors {
		if err := i.Intercept(ctx, cc, settings); err != nil {
			return 0, err
		}
	}
	if v := leaf.Command.Validate; v != nil {
		if err := v(cc, settings); err != nil {
			return 0, clierr.Validation("", err)
		}
	}
	if leaf.Command.Delegate == nil {
		return 0, clierr.Configf("command %q has no delegate", leaf.Command.Name)
	}
	code, err := leaf.Command.Delegate(ctx, cc, settings)
	if err != nil {
		return code, err
	}
	for _, i := range a.interceptors {
		i.InterceptResult(ctx, cc, settings, &code)
	}
	LoggerFrom(ctx).Debug("command finished", "command", cc.Name, "code", code)
	return code, nil
}

func hasRequired(c *model.Command) bool {
	for _, p := range c.Parameters {
		if p.Info().Required {
			return true
		}
	}
	return false
}
