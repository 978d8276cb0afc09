// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bind

import (
	"strings"

	"github.com/yeetrun/cmdtree/pkg/model"
	"tailscale.com/util/mak"
)

// Entry is one resolved parameter value.
type Entry struct {
	Parameter model.Parameter
	Value     any
}

// Lookup holds the resolved value of each backing property, in the order the
// properties were first assigned.
type Lookup struct {
	entries []Entry
	index   map[string]int // backing key -> position in entries
}

// NewLookup returns an empty Lookup.
func NewLookup() *Lookup {
	return &Lookup{}
}

// SetValue stores v for p, replacing any value stored for a parameter with
// the same backing property.
func (l *Lookup) SetValue(p model.Parameter, v any) {
	key := model.BackingKey(p)
	if i, ok := l.index[key]; ok {
		l.entries[i] = Entry{Parameter: p, Value: v}
		return
	}
	mak.Set(&l.index, key, len(l.entries))
	l.entries = append(l.entries, Entry{Parameter: p, Value: v})
}

// GetValue returns the value stored for p's backing property.
func (l *Lookup) GetValue(p model.Parameter) (any, bool) {
	i, ok := l.index[model.BackingKey(p)]
	if !ok {
		return nil, false
	}
	return l.entries[i].Value, true
}

// Entries returns the stored entries in assignment order.
func (l *Lookup) Entries() []Entry {
	return l.entries
}

func (l *Lookup) Len() int { return len(l.entries) }

// ByProperty returns the entry whose backing property is named name,
// ignoring case.
func (l *Lookup) ByProperty(name string) (Entry, bool) {
	for _, e := range l.entries {
		if strings.EqualFold(e.Parameter.Info().Property, name) {
			return e, true
		}
	}
	return Entry{}, false
}

// HasProperty reports whether a value is stored for the named property.
func (l *Lookup) HasProperty(name string) bool {
	_, ok := l.ByProperty(name)
	return ok
}
