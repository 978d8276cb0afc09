// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package model

import "strings"

// Setter assigns v to one property of a settings instance.
type Setter func(settings, v any) error

// ConstructorParam is one parameter of a settings constructor. Params whose
// Name matches a bound property receive its value; the rest are resolved from
// the service registry by Service key.
type ConstructorParam struct {
	Name    string
	Service string
}

// Constructor builds a settings instance from positional arguments matching
// Params.
type Constructor struct {
	Params []ConstructorParam
	Invoke func(args []any) (any, error)
}

// SettingsType describes how to build and populate one settings type.
// Descriptors are usually generated by settings.For.
type SettingsType struct {
	// Name identifies the type for registry lookups and backing-property
	// comparison.
	Name string
	// New returns a fresh instance. It may be nil when instances come from
	// the registry or a Constructor.
	New func() any
	// Properties maps writable property names to their setters.
	Properties   map[string]Setter
	Constructors []Constructor
}

// Property returns the setter for name, matching exactly first and then
// ignoring case.
func (t *SettingsType) Property(name string) (Setter, bool) {
	if s, ok := t.Properties[name]; ok {
		return s, true
	}
	for k, s := range t.Properties {
		if strings.EqualFold(k, name) {
			return s, true
		}
	}
	return nil, false
}
