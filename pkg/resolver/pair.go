// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package resolver

import (
	"fmt"
	"strings"

	"github.com/yeetrun/cmdtree/pkg/clierr"
	"github.com/yeetrun/cmdtree/pkg/convert"
	"github.com/yeetrun/cmdtree/pkg/model"
)

// DefaultPairDeconstructor splits "key=value". A missing value part becomes
// the zero value of the value type. More than one "=" is a malformed pair.
type DefaultPairDeconstructor struct{}

func (DefaultPairDeconstructor) Deconstruct(p Provider, keyType, valueType model.ValueType, raw string) (any, any, error) {
	parts := strings.Split(raw, "=")
	if len(parts) > 2 {
		return nil, nil, malformed(raw)
	}
	rawValue := convert.ZeroString(valueType)
	if len(parts) == 2 {
		rawValue = parts[1]
	}
	key, err := parsePart(p, keyType, parts[0])
	if err != nil {
		return nil, nil, err
	}
	val, err := parsePart(p, valueType, rawValue)
	if err != nil {
		return nil, nil, err
	}
	return key, val, nil
}

func parsePart(p Provider, t model.ValueType, s string) (any, error) {
	c, ok := TypeConverterFor(p, t)
	if !ok {
		return nil, clierr.Configf("no converter for pair type %s", t)
	}
	v, err := c.ConvertFrom(s)
	if err != nil {
		return nil, malformed(s)
	}
	return v, nil
}

func malformed(raw string) error {
	return &clierr.ParseError{
		Code:     clierr.MalformedPair,
		Token:    raw,
		Position: -1,
		Msg:      fmt.Sprintf("the value %q is not in a valid format", raw),
	}
}
