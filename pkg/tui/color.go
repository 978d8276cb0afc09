// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tui renders parse results and failures for terminals.
package tui

import (
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

var isTerminalFn = term.IsTerminal

// Colorizer colors text when enabled.
type Colorizer struct {
	Enabled bool
}

// NewColorizer enables color when w is a terminal, NO_COLOR is unset and
// TERM is not dumb.
func NewColorizer(w io.Writer) Colorizer {
	f, ok := w.(*os.File)
	if !ok || !isTerminalFn(int(f.Fd())) {
		return Colorizer{}
	}
	if os.Getenv("NO_COLOR") != "" {
		return Colorizer{}
	}
	t := os.Getenv("TERM")
	if t == "" || t == "dumb" {
		return Colorizer{}
	}
	return Colorizer{Enabled: true}
}

func (c Colorizer) wrap(text string, attrs ...color.Attribute) string {
	col := color.New(attrs...)
	if c.Enabled {
		col.EnableColor()
	} else {
		col.DisableColor()
	}
	return col.Sprint(text)
}

func (c Colorizer) Red(s string) string    { return c.wrap(s, color.FgRed, color.Bold) }
func (c Colorizer) Green(s string) string  { return c.wrap(s, color.FgGreen) }
func (c Colorizer) Yellow(s string) string { return c.wrap(s, color.FgYellow) }
func (c Colorizer) Cyan(s string) string   { return c.wrap(s, color.FgCyan) }
func (c Colorizer) Dim(s string) string    { return c.wrap(s, color.FgHiBlack) }
func (c Colorizer) Bold(s string) string   { return c.wrap(s, color.Bold) }
