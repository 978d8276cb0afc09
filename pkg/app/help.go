// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/model"
)

// WriteHelp is the default HelpFunc. It writes a plain usage summary.
func WriteHelp(w io.Writer, name string, m *model.Model, cmd *model.Command) {
	var b strings.Builder
	children := m.Commands
	usage := []string{name}
	var params []model.Parameter
	if cmd != nil {
		if cmd != m.Default {
			usage = append(usage, cmd.Path()...)
		}
		children = cmd.Children
		params = cmd.Parameters
		if cmd.Description != "" {
			b.WriteString(cmd.Description)
			b.WriteString("\n\n")
		}
	} else if m.Default != nil {
		params = m.Default.Parameters
	}

	b.WriteString("USAGE:\n    ")
	b.WriteString(strings.TrimSpace(strings.Join(usage, " ")))
	if len(params) > 0 {
		b.WriteString(" [OPTIONS]")
	}
	for _, p := range params {
		if model.IsArgument(p) {
			b.WriteString(" " + p.DisplayName())
		}
	}
	if len(children) > 0 {
		b.WriteString(" COMMAND")
	}
	b.WriteString("\n")

	var opts []*model.Option
	for _, p := range params {
		if o, ok := p.(*model.Option); ok && !o.Hidden {
			opts = append(opts, o)
		}
	}
	if len(opts) > 0 {
		b.WriteString("\nOPTIONS:\n")
		for _, o := range opts {
			b.WriteString(fmt.Sprintf("    %-24s %s\n", optionSignature(o), o.Description))
		}
	}

	var visible []*model.Command
	for _, c := range children {
		if !c.IsHidden {
			visible = append(visible, c)
		}
	}
	if len(visible) > 0 {
		b.WriteString("\nCOMMANDS:\n")
		for _, c := range visible {
			desc := c.Description
			if len(c.Aliases) > 0 {
				desc = strings.TrimSpace(fmt.Sprintf("%s (aliases: %s)", desc, strings.Join(c.Aliases, ", ")))
			}
			b.WriteString(fmt.Sprintf("    %-12s %s\n", c.Name, desc))
		}
	}
	io.WriteString(w, b.String())
}

func optionSignature(o *model.Option) string {
	var names []string
	for _, s := range o.ShortNames {
		names = append(names, "-"+s)
	}
	for _, l := range o.LongNames {
		names = append(names, "--"+l)
	}
	sig := strings.Join(names, ", ")
	switch {
	case o.ValueIsOptional:
		sig += " [" + o.ValueName + "]"
	case o.ValueName != "":
		sig += " <" + o.ValueName + ">"
	}
	return sig
}
