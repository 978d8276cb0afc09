// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command cmdtree runs a command model declared in a YAML file against the
// given arguments and prints what each command would receive.
//
//	cmdtree --model git.yaml -- remote add origin https://example.com
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"log/slog"
	"maps"
	"os"
	"reflect"
	"slices"
	"strings"

	"github.com/shayne/yargs"
	"github.com/yeetrun/cmdtree/pkg/app"
	"github.com/yeetrun/cmdtree/pkg/config"
	"github.com/yeetrun/cmdtree/pkg/convert"
	"github.com/yeetrun/cmdtree/pkg/env"
	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/modelfile"
	"github.com/yeetrun/cmdtree/pkg/parser"
	"github.com/yeetrun/cmdtree/pkg/resolver"
	"github.com/yeetrun/cmdtree/pkg/settings"
	"github.com/yeetrun/cmdtree/pkg/tui"
	"github.com/yeetrun/cmdtree/pkg/valueprovider"
	"gopkg.in/yaml.v3"
)

const defaultModelFile = "cmdtree.yaml"

type globalFlagsParsed struct {
	Model     string `flag:"model" help:"Model file (CMDTREE_MODEL, default cmdtree.yaml)"`
	Config    string `flag:"config" help:"Settings file (default: nearest cmdtree.toml)"`
	Format    string `flag:"format" help:"Output format (yaml|json|env)"`
	EnvFile   string `flag:"env-file" help:"Load unset environment variables from a KEY=VALUE file"`
	EnvPrefix string `flag:"env-prefix" help:"Variable name prefix for --format env and --write-env"`
	WriteEnv  string `flag:"write-env" help:"Also write the bound settings to a KEY=VALUE file"`
	Tree      bool   `flag:"tree" help:"Print the parsed command tree instead of executing"`
	Debug     bool   `flag:"debug" help:"Log pipeline decisions to stderr"`
}

func parseGlobalFlags(args []string) (globalFlagsParsed, []string, error) {
	result, err := yargs.ParseKnownFlags[globalFlagsParsed](args, yargs.KnownFlagsOptions{})
	if err != nil {
		return globalFlagsParsed{}, nil, err
	}
	return result.Flags, result.RemainingArgs, nil
}

// appArgs returns the arguments for the model. The first "--" separates
// them from cmdtree's own flags.
func appArgs(rest []string) []string {
	if i := slices.Index(rest, "--"); i >= 0 {
		return append(slices.Clone(rest[:i]), rest[i+1:]...)
	}
	return rest
}

func main() {
	log.SetFlags(0)
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags, rest, err := parseGlobalFlags(args)
	if err != nil {
		fmt.Fprintf(stderr, "cmdtree: %v\n", err)
		return 2
	}
	level := slog.LevelInfo
	if flags.Debug {
		level = slog.LevelDebug
	}
	ctx = app.WithLogger(ctx, slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	if flags.Model == "" {
		flags.Model = os.Getenv("CMDTREE_MODEL")
	}
	if flags.Model == "" {
		flags.Model = defaultModelFile
	}
	format, err := parseFormat(flags.Format)
	if err != nil {
		fmt.Fprintf(stderr, "cmdtree: %v\n", err)
		return 2
	}

	if flags.EnvFile != "" {
		if err := env.Load(flags.EnvFile); err != nil {
			fmt.Fprintf(stderr, "cmdtree: %v\n", err)
			return 1
		}
	}
	cfg, err := loadConfig(flags.Config)
	if err != nil {
		fmt.Fprintf(stderr, "cmdtree: %v\n", err)
		return 1
	}
	file, err := modelfile.Load(flags.Model)
	if err != nil {
		fmt.Fprintf(stderr, "cmdtree: %v\n", err)
		return 1
	}
	if cfg.ApplicationName == "" {
		cfg.ApplicationName = file.Name
	}
	if cfg.ApplicationVersion == "" {
		cfg.ApplicationVersion = file.Version
	}

	reg := resolver.NewRegistry()
	m, err := file.Build(reg, printSettings(stdout, format, flags.EnvPrefix, flags.WriteEnv))
	if err != nil {
		fmt.Fprintf(stderr, "cmdtree: %s: %v\n", flags.Model, err)
		return 1
	}

	argv := appArgs(rest)
	if flags.Tree {
		return printTree(stdout, stderr, cfg, m, argv)
	}
	code, err := app.New(m,
		app.WithConfig(cfg),
		app.WithProvider(reg),
		app.WithOutput(stdout, stderr),
	).Run(ctx, argv)
	if err != nil {
		log.Printf("%v", err)
	}
	return code
}

func loadConfig(path string) (*config.Settings, error) {
	if path != "" {
		return config.Load(path)
	}
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, _, err := config.LoadFromDir(wd)
	return cfg, err
}

func printTree(stdout, stderr io.Writer, cfg *config.Settings, m *model.Model, argv []string) int {
	opts, err := cfg.ParserOptions()
	if err != nil {
		fmt.Fprintf(stderr, "cmdtree: %v\n", err)
		return 1
	}
	res, err := parser.New(m, opts...).Parse(argv)
	if err != nil {
		tui.RenderError(stderr, tui.NewColorizer(stderr), argv, err)
		return -1
	}
	tui.RenderTree(stdout, tui.NewColorizer(stdout), res)
	return 0
}

type outputFormat string

const (
	formatYAML outputFormat = "yaml"
	formatJSON outputFormat = "json"
	formatEnv  outputFormat = "env"
)

func parseFormat(s string) (outputFormat, error) {
	switch s {
	case "", "yaml":
		return formatYAML, nil
	case "json":
		return formatJSON, nil
	case "env":
		return formatEnv, nil
	}
	return "", fmt.Errorf("invalid format %q (expected yaml, json or env)", s)
}

type invocation struct {
	Command   string         `json:"command" yaml:"command"`
	Settings  map[string]any `json:"settings" yaml:"settings"`
	Remaining []string       `json:"remaining,omitempty" yaml:"remaining,omitempty"`
}

func printSettings(w io.Writer, format outputFormat, envPrefix, envFile string) model.Delegate {
	return func(ctx context.Context, cc *model.CommandContext, s any) (int, error) {
		values, ok := s.(settings.Values)
		if !ok {
			return 0, fmt.Errorf("unexpected settings type %T", s)
		}
		names := valueprovider.Env{Prefix: envPrefix}
		vars := make(map[string]string, len(values))
		for k, v := range values {
			vars[names.VarName(k)] = envString(plain(v))
		}
		if envFile != "" {
			if err := env.Write(envFile, vars); err != nil {
				return 0, err
			}
		}
		if format == formatEnv {
			return 0, env.Marshal(w, vars)
		}
		inv := invocation{
			Command:   cc.Name,
			Settings:  make(map[string]any, len(values)),
			Remaining: cc.Remaining.Raw,
		}
		for k, v := range values {
			inv.Settings[k] = plain(v)
		}
		if err := encode(w, format, inv); err != nil {
			return 0, err
		}
		return 0, nil
	}
}

func encode(w io.Writer, format outputFormat, v any) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

type pairLister interface {
	Len() int
}

// plain returns v in a form both encoders print the way it was written on
// the command line. Multimaps become maps of lists.
func plain(v any) any {
	switch v := v.(type) {
	case nil, bool, string, int, int64, uint, float64:
		return v
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice {
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = plain(rv.Index(i).Interface())
		}
		return out
	}
	if _, ok := v.(pairLister); ok {
		if pairs := rv.MethodByName("Pairs"); pairs.IsValid() {
			return pairMap(pairs.Call(nil)[0])
		}
	}
	return convert.Format(v)
}

// envString flattens a plain value. Lists are joined with commas and maps
// become comma separated key=value pairs.
func envString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case []any:
		parts := make([]string, len(v))
		for i, x := range v {
			parts[i] = envString(x)
		}
		return strings.Join(parts, ",")
	case map[string][]any:
		var parts []string
		for _, k := range slices.Sorted(maps.Keys(v)) {
			for _, x := range v[k] {
				parts = append(parts, k+"="+envString(x))
			}
		}
		return strings.Join(parts, ",")
	}
	return fmt.Sprint(v)
}

func pairMap(kvs reflect.Value) map[string][]any {
	out := make(map[string][]any, kvs.Len())
	for i := 0; i < kvs.Len(); i++ {
		kv := kvs.Index(i)
		k := convert.Format(kv.FieldByName("Key").Interface())
		out[k] = append(out[k], plain(kv.FieldByName("Value").Interface()))
	}
	return out
}
