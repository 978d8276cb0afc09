// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/clierr"
	"github.com/yeetrun/cmdtree/pkg/parser"
)

// RenderError writes err to w. Parse failures that point at an argument
// also show the arguments with the offending one underlined.
func RenderError(w io.Writer, c Colorizer, args []string, err error) {
	fmt.Fprintf(w, "%s %s\n", c.Red("Error:"), err)
	var pe *clierr.ParseError
	if !errors.As(err, &pe) || pe.Position < 0 || pe.Position >= len(args) {
		return
	}
	offset := 0
	for _, a := range args[:pe.Position] {
		offset += len(a) + 1
	}
	width := max(len(args[pe.Position]), 1)
	indent := strings.Repeat(" ", len("Error: "))
	fmt.Fprintf(w, "%s%s\n", indent, strings.Join(args, " "))
	fmt.Fprintf(w, "%s%s%s\n", indent, strings.Repeat(" ", offset), c.Red(strings.Repeat("^", width)))
}

// RenderTree writes the parsed command path, one node per line followed by
// its mapped values, then the remaining arguments.
func RenderTree(w io.Writer, c Colorizer, res *parser.Result) {
	if res == nil || res.Tree == nil {
		fmt.Fprintln(w, c.Dim("(no command)"))
		return
	}
	for depth, n := range res.Tree.Nodes() {
		indent := strings.Repeat("  ", depth)
		line := indent + c.Bold(n.Command.Name)
		if n.IsDefaultCommand {
			line += " " + c.Dim("(default)")
		}
		if n.ShowHelp {
			line += " " + c.Yellow("(help)")
		}
		fmt.Fprintln(w, line)
		for _, m := range n.Mapped {
			v := c.Dim("<no value>")
			if m.Value != nil {
				v = c.Green(*m.Value)
			}
			fmt.Fprintf(w, "%s  %s = %s\n", indent, c.Cyan(m.Parameter.DisplayName()), v)
		}
	}
	if len(res.Remaining.Raw) > 0 {
		fmt.Fprintf(w, "%s %s\n", c.Dim("remaining:"), strings.Join(res.Remaining.Raw, " "))
	}
}
