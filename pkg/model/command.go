// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import (
	"context"
	"slices"
	"strings"
)

// DefaultCommandName is the name given to a default command declared
// without one.
const DefaultCommandName = "__default_command"

// CaseSensitivity controls how command names and long option names match.
type CaseSensitivity int

const (
	CaseSensitive CaseSensitivity = iota
	CaseInsensitive
)

// Equal compares two names under the receiver's rules.
func (c CaseSensitivity) Equal(a, b string) bool {
	if c == CaseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// RemainingArg is an unknown option captured instead of failing the parse.
// Value is nil when the option had no value.
type RemainingArg struct {
	Name  string
	Value *string
}

// Remaining holds the arguments that were passed through unparsed.
type Remaining struct {
	// Raw is the verbatim tail after "--", plus any unknown options that were
	// converted to remaining arguments.
	Raw []string
	// Parsed holds unknown options captured in relaxed mode.
	Parsed []RemainingArg
}

// Values returns the values captured for the named unknown option.
func (r Remaining) Values(name string) []*string {
	var out []*string
	for _, a := range r.Parsed {
		if a.Name == name {
			out = append(out, a.Value)
		}
	}
	return out
}

// CommandContext is handed to a command's delegate and validation hook.
type CommandContext struct {
	// Args are the raw arguments the application was invoked with.
	Args      []string
	Remaining Remaining
	// Name is the name of the executed command.
	Name string
	Data any
}

// Delegate executes a command with its bound settings and returns an exit
// code.
type Delegate func(ctx context.Context, cc *CommandContext, settings any) (int, error)

// Command is one node in the declared command tree.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Settings    *SettingsType
	Parameters  []Parameter
	Children    []*Command

	IsBranch  bool
	IsDefault bool
	IsHidden  bool

	Delegate Delegate
	// Validate is an optional command-level check run after binding and
	// before execution.
	Validate func(cc *CommandContext, settings any) error

	Examples [][]string
	Data     any

	// Parent is set by New.
	Parent *Command
}

// Matches reports whether name is the command's name or one of its aliases.
func (c *Command) Matches(name string, cs CaseSensitivity) bool {
	if cs.Equal(c.Name, name) {
		return true
	}
	for _, alias := range c.Aliases {
		if cs.Equal(alias, name) {
			return true
		}
	}
	return false
}

// FindChild returns the child matching name, or nil.
func (c *Command) FindChild(name string, cs CaseSensitivity) *Command {
	return findCommand(c.Children, name, cs)
}

// DefaultChild returns the child marked as default, or nil.
func (c *Command) DefaultChild() *Command {
	for _, child := range c.Children {
		if child.IsDefault {
			return child
		}
	}
	return nil
}

// Arguments returns the command's arguments ordered by position.
func (c *Command) Arguments() []*Argument {
	var args []*Argument
	for _, p := range c.Parameters {
		if a, ok := p.(*Argument); ok {
			args = append(args, a)
		}
	}
	slices.SortStableFunc(args, func(a, b *Argument) int {
		return a.Position - b.Position
	})
	return args
}

// Options returns the command's options in declaration order.
func (c *Command) Options() []*Option {
	var opts []*Option
	for _, p := range c.Parameters {
		if o, ok := p.(*Option); ok {
			opts = append(opts, o)
		}
	}
	return opts
}

// FindLongOption returns the option declared with the long name.
func (c *Command) FindLongOption(name string, cs CaseSensitivity) *Option {
	for _, o := range c.Options() {
		for _, n := range o.LongNames {
			if cs.Equal(n, name) {
				return o
			}
		}
	}
	return nil
}

// FindShortOption returns the option declared with the short name. Short
// names always match case-sensitively.
func (c *Command) FindShortOption(name string) *Option {
	for _, o := range c.Options() {
		if slices.Contains(o.ShortNames, name) {
			return o
		}
	}
	return nil
}

// Path returns the names from the top-level command down to c.
func (c *Command) Path() []string {
	var path []string
	for cur := c; cur != nil; cur = cur.Parent {
		path = append(path, cur.Name)
	}
	slices.Reverse(path)
	return path
}

// Model is the immutable command tree. Build it with New.
type Model struct {
	Commands []*Command
	// Default is executed when no top-level command is named.
	Default  *Command
	Examples [][]string
}

// FindCommand returns the top-level command matching name, or nil.
func (m *Model) FindCommand(name string, cs CaseSensitivity) *Command {
	return findCommand(m.Commands, name, cs)
}

// Walk calls fn for every command in the tree, parents before children.
func (m *Model) Walk(fn func(*Command)) {
	var walk func([]*Command)
	walk = func(cmds []*Command) {
		for _, c := range cmds {
			fn(c)
			walk(c.Children)
		}
	}
	if m.Default != nil {
		walk([]*Command{m.Default})
	}
	walk(m.Commands)
}

func findCommand(cmds []*Command, name string, cs CaseSensitivity) *Command {
	for _, c := range cmds {
		if c.Matches(name, cs) {
			return c
		}
	}
	return nil
}

// New links the command tree, fills in declaring types and validates it.
// def is the optional root default command.
func New(commands []*Command, def *Command) (*Model, error) {
	m := &Model{Commands: commands, Default: def}
	if def != nil {
		def.IsDefault = true
		def.IsHidden = true
		if def.Name == "" {
			def.Name = DefaultCommandName
		}
	}
	m.Walk(func(c *Command) {
		for _, child := range c.Children {
			child.Parent = c
			if child.IsDefault && child.Name == "" {
				child.Name = DefaultCommandName
			}
		}
		if c.Settings == nil {
			return
		}
		for _, p := range c.Parameters {
			if info := p.Info(); info.DeclaringType == "" {
				info.DeclaringType = c.Settings.Name
			}
		}
	})
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}
