// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package parser

import (
	"fmt"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/clierr"
	"github.com/yeetrun/cmdtree/pkg/model"
)

// Mapped is a parameter matched to a raw value. Value is nil for a
// flag-with-value given without a value.
type Mapped struct {
	Parameter model.Parameter
	Value     *string
}

// Tree is one node of the parsed command path. Nodes are linked from the
// top-level command down to the leaf through Next.
type Tree struct {
	Command *model.Command
	Parent  *Tree
	Next    *Tree

	// Mapped holds the matched parameters in encounter order. Vector
	// parameters may appear more than once.
	Mapped []Mapped
	// Unmapped holds the command's parameters that were not matched.
	Unmapped []model.Parameter

	ShowHelp bool
	// IsDefaultCommand is set when the node was selected as a default
	// command rather than named explicitly.
	IsDefaultCommand bool
}

func newTree(parent *Tree, cmd *model.Command) *Tree {
	t := &Tree{Command: cmd, Parent: parent}
	if parent != nil {
		parent.Next = t
	}
	return t
}

// Leaf returns the deepest node of the path.
func (t *Tree) Leaf() *Tree {
	if t == nil {
		return nil
	}
	cur := t
	for cur.Next != nil {
		cur = cur.Next
	}
	return cur
}

// Nodes returns the path from t down to the leaf.
func (t *Tree) Nodes() []*Tree {
	var nodes []*Tree
	for cur := t; cur != nil; cur = cur.Next {
		nodes = append(nodes, cur)
	}
	return nodes
}

// Path returns the command names along the path, e.g. "remote add".
func (t *Tree) Path() string {
	var names []string
	for _, n := range t.Nodes() {
		names = append(names, n.Command.Name)
	}
	return strings.Join(names, " ")
}

// IsMapped reports whether a parameter sharing p's backing property was
// matched on this node.
func (t *Tree) IsMapped(p model.Parameter) bool {
	for _, m := range t.Mapped {
		if model.SameBackingProperty(m.Parameter, p) {
			return true
		}
	}
	return false
}

// Values returns the raw values mapped to p on this node.
func (t *Tree) Values(p model.Parameter) []*string {
	var out []*string
	for _, m := range t.Mapped {
		if m.Parameter == p {
			out = append(out, m.Value)
		}
	}
	return out
}

func (t *Tree) mapped(p model.Parameter, v *string) {
	t.Mapped = append(t.Mapped, Mapped{Parameter: p, Value: v})
}

// finish fills Unmapped with the parameters that were never matched.
func (t *Tree) finish() {
	t.Unmapped = nil
	for _, p := range t.Command.Parameters {
		found := false
		for _, m := range t.Mapped {
			if m.Parameter == p {
				found = true
				break
			}
		}
		if !found {
			t.Unmapped = append(t.Unmapped, p)
		}
	}
}

// ValidateRequired checks that every required parameter of every node was
// given. It runs before any value is converted.
func ValidateRequired(tree *Tree) error {
	for _, n := range tree.Nodes() {
		for _, p := range n.Command.Parameters {
			if !p.Info().Required || n.IsMapped(p) {
				continue
			}
			what := "option"
			if model.IsArgument(p) {
				what = "argument"
			}
			return &clierr.ParseError{
				Code:      clierr.MissingRequired,
				Position:  -1,
				Command:   n.Command.Name,
				Parameter: p.DisplayName(),
				Msg:       fmt.Sprintf("command %q is missing required %s %s", n.Command.Name, what, p.DisplayName()),
			}
		}
	}
	return nil
}
