// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package valueprovider provides value providers that supply parameter
// values from outside the command line.
package valueprovider

import (
	"os"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/resolver"
)

// Env supplies a parameter's value from an environment variable when the
// parameter was not given on the command line. The variable name is Prefix
// followed by the parameter's property name in upper snake case, unless
// Names maps the property to an explicit variable.
type Env struct {
	Prefix string
	Names  map[string]string

	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

// VarName returns the environment variable consulted for property.
func (e Env) VarName(property string) string {
	if n, ok := e.Names[property]; ok {
		return n
	}
	return e.Prefix + upperSnake(property)
}

func (e Env) TryGetValue(ctx resolver.ParameterContext) (any, bool, error) {
	if ctx.Value != nil {
		return nil, false, nil
	}
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(e.VarName(ctx.Parameter.Info().Property))
	if !ok {
		return nil, false, nil
	}
	return v, true, nil
}

// upperSnake converts "RPCPort" to "RPC_PORT" and "logLevel" to "LOG_LEVEL".
func upperSnake(s string) string {
	var b strings.Builder
	rs := []rune(s)
	for i, r := range rs {
		isUpper := r >= 'A' && r <= 'Z'
		if isUpper && i > 0 {
			prevLower := rs[i-1] >= 'a' && rs[i-1] <= 'z' || rs[i-1] >= '0' && rs[i-1] <= '9'
			nextLower := i+1 < len(rs) && rs[i+1] >= 'a' && rs[i+1] <= 'z'
			if prevLower || (nextLower && rs[i-1] != '_') {
				b.WriteByte('_')
			}
		}
		if r == '-' {
			r = '_'
		}
		b.WriteRune(r)
	}
	return strings.ToUpper(b.String())
}

// Static always supplies Value, overriding both defaults and given values.
type Static struct {
	Value any
}

func (s Static) TryGetValue(resolver.ParameterContext) (any, bool, error) {
	return s.Value, true, nil
}

var (
	_ resolver.ValueProvider = Env{}
	_ resolver.ValueProvider = Static{}
)
