// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config loads application settings from cmdtree.toml and
// CMDTREE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/parser"
)

const (
	FileName       = "cmdtree.toml"
	currentVersion = 1
)

//go:generate go run tailscale.com/cmd/cloner -type=Settings

// Settings configures parsing and execution.
type Settings struct {
	Version int `toml:"version,omitempty"`

	ApplicationName    string `toml:"application_name,omitempty"`
	ApplicationVersion string `toml:"application_version,omitempty"`

	// CaseSensitivity is "insensitive" (default) or "sensitive".
	CaseSensitivity string `toml:"case_sensitivity,omitempty"`
	// ParsingMode is "strict" (default) or "relaxed".
	ParsingMode                    string `toml:"parsing_mode,omitempty"`
	ConvertUnknownFlagsToRemaining bool   `toml:"convert_unknown_flags_to_remaining,omitempty"`

	// PropagateErrors returns failures to the caller instead of handing
	// them to the error handler.
	PropagateErrors bool `toml:"propagate_errors,omitempty"`
}

// Default returns the default settings.
func Default() *Settings {
	return &Settings{Version: currentVersion}
}

// Sensitivity returns the parsed CaseSensitivity.
func (s *Settings) Sensitivity() (model.CaseSensitivity, error) {
	switch strings.ToLower(s.CaseSensitivity) {
	case "", "insensitive":
		return model.CaseInsensitive, nil
	case "sensitive":
		return model.CaseSensitive, nil
	}
	return 0, fmt.Errorf("invalid case sensitivity %q (expected sensitive|insensitive)", s.CaseSensitivity)
}

// ParserOptions returns the parser options described by s.
func (s *Settings) ParserOptions() ([]parser.Option, error) {
	cs, err := s.Sensitivity()
	if err != nil {
		return nil, err
	}
	mode, err := parser.ParseMode(s.ParsingMode)
	if err != nil {
		return nil, err
	}
	return []parser.Option{
		parser.WithCaseSensitivity(cs),
		parser.WithParsingMode(mode),
		parser.WithConvertUnknownFlags(s.ConvertUnknownFlagsToRemaining),
	}, nil
}

// Load reads the settings file at path and applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	s := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, s); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}
	if s.Version == 0 {
		s.Version = currentVersion
	}
	if err := applyEnv(s, os.LookupEnv); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadFromDir loads the nearest cmdtree.toml found in startDir or one of its
// parents.
func LoadFromDir(startDir string) (*Settings, string, error) {
	path, err := findPath(startDir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, "", err
	}
	s, err := Load(path)
	if err != nil {
		return nil, "", err
	}
	return s, path, nil
}

func findPath(startDir string) (string, error) {
	dir := filepath.Clean(startDir)
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func applyEnv(s *Settings, lookup func(string) (string, bool)) error {
	if v, ok := lookup("CMDTREE_APPLICATION_NAME"); ok && v != "" {
		s.ApplicationName = v
	}
	if v, ok := lookup("CMDTREE_APPLICATION_VERSION"); ok && v != "" {
		s.ApplicationVersion = v
	}
	if v, ok := lookup("CMDTREE_CASE_SENSITIVITY"); ok && v != "" {
		s.CaseSensitivity = v
	}
	if v, ok := lookup("CMDTREE_PARSING_MODE"); ok && v != "" {
		s.ParsingMode = v
	}
	for name, dst := range map[string]*bool{
		"CMDTREE_CONVERT_UNKNOWN_FLAGS": &s.ConvertUnknownFlagsToRemaining,
		"CMDTREE_PROPAGATE_ERRORS":      &s.PropagateErrors,
	} {
		v, ok := lookup(name)
		if !ok || v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q", name, v)
		}
		*dst = b
	}
	return nil
}
