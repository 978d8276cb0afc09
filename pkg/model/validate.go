// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/clierr"
)

// Validate checks the model for declarations the parser cannot work with.
// All problems are reported together in one ConfigurationError.
func Validate(m *Model) error {
	var errs []error
	if err := checkSiblings("top-level", m.Commands); err != nil {
		errs = append(errs, err)
	}
	m.Walk(func(c *Command) {
		errs = append(errs, checkCommand(c)...)
	})
	if len(errs) == 0 {
		return nil
	}
	return &clierr.ConfigurationError{Msg: "invalid command model", Err: errors.Join(errs...)}
}

func checkSiblings(where string, cmds []*Command) error {
	seen := make(map[string]string)
	var errs []error
	for _, c := range cmds {
		for _, name := range append([]string{c.Name}, c.Aliases...) {
			key := strings.ToLower(name)
			if other, ok := seen[key]; ok {
				errs = append(errs, fmt.Errorf("%s: %q of command %q clashes with command %q", where, name, c.Name, other))
				continue
			}
			seen[key] = c.Name
		}
	}
	return errors.Join(errs...)
}

func checkCommand(c *Command) []error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("command %q: %s", strings.Join(c.Path(), " "), fmt.Sprintf(format, args...)))
	}

	if c.Name == "" {
		fail("missing name")
	}
	if c.Settings == nil {
		fail("missing settings type")
	}
	if c.IsBranch && len(c.Children) == 0 {
		fail("branch has no children")
	}
	if !c.IsBranch && len(c.Children) > 0 {
		fail("command with children must be a branch")
	}
	defaults := 0
	for _, child := range c.Children {
		if child.IsDefault {
			defaults++
		}
	}
	if defaults > 1 {
		fail("has %d default commands", defaults)
	}
	if err := checkSiblings(fmt.Sprintf("children of %q", c.Name), c.Children); err != nil {
		errs = append(errs, err)
	}

	longs := make(map[string]bool)
	shorts := make(map[string]bool)
	for _, o := range c.Options() {
		if len(o.LongNames) == 0 && len(o.ShortNames) == 0 {
			fail("option for %q has no names", o.Property)
		}
		for _, n := range o.LongNames {
			if longs[strings.ToLower(n)] {
				fail("duplicate option --%s", n)
			}
			longs[strings.ToLower(n)] = true
		}
		for _, n := range o.ShortNames {
			if shorts[n] {
				fail("duplicate option -%s", n)
			}
			shorts[n] = true
		}
	}

	args := c.Arguments()
	positions := make(map[int]bool)
	for i, a := range args {
		if a.Position < 0 {
			fail("argument %s has negative position %d", a.DisplayName(), a.Position)
		}
		if positions[a.Position] {
			fail("duplicate argument position %d", a.Position)
		}
		positions[a.Position] = true
		if a.Kind == Vector && i != len(args)-1 {
			fail("vector argument %s must be the last argument", a.DisplayName())
		}
		if a.Kind == Flag || a.Kind == FlagWithValue {
			fail("argument %s cannot be a flag", a.DisplayName())
		}
		if a.Required && i > 0 && !args[i-1].Required {
			fail("required argument %s follows an optional argument", a.DisplayName())
		}
	}

	for _, p := range c.Parameters {
		info := p.Info()
		if info.Property == "" {
			fail("parameter %s has no backing property", p.DisplayName())
		}
		if info.Kind == Pair && info.KeyType == "" {
			fail("pair parameter %s has no key type", p.DisplayName())
		}
		if info.Type == "" {
			fail("parameter %s has no value type", p.DisplayName())
		}
	}
	return errs
}
