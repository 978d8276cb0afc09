// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/yeetrun/cmdtree/pkg/model"
)

func TestMultiMap(t *testing.T) {
	var m MultiMap[string, int]
	m.Add("a", 1)
	m.Add("b", 2)
	m.Add("a", 3)

	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
	if v, ok := m.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if _, ok := m.Get("z"); ok {
		t.Error("Get(z) found a value")
	}
	if got := m.GetAll("a"); !reflect.DeepEqual(got, []int{1, 3}) {
		t.Errorf("GetAll(a) = %v", got)
	}
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v", got)
	}
	if got := m.Map(); !reflect.DeepEqual(got, map[string]int{"a": 3, "b": 2}) {
		t.Errorf("Map() = %v", got)
	}
	want := []KV[string, int]{{"a", 1}, {"b", 2}, {"a", 3}}
	if diff := cmp.Diff(want, m.Pairs()); diff != "" {
		t.Errorf("Pairs() mismatch (-want +got):\n%s", diff)
	}

	var nilMap *MultiMap[string, int]
	if nilMap.Len() != 0 || nilMap.Keys() != nil || nilMap.GetAll("a") != nil {
		t.Error("nil MultiMap is not empty")
	}
}

func TestFlagValue(t *testing.T) {
	var unset FlagValue[int]
	if unset.IsSet || unset.Get() != 0 || unset.String() != "false" {
		t.Errorf("unset = %+v", unset)
	}
	v := 3
	set := FlagValue[int]{IsSet: true, Value: &v}
	if set.Get() != 3 || set.String() != "3" {
		t.Errorf("set = %+v", set)
	}
}

func TestSeqFinalize(t *testing.T) {
	tests := []struct {
		name  string
		elem  model.ValueType
		items []any
		want  any
	}{
		{"strings", model.String, []any{"a", "b", "a"}, []string{"a", "b", "a"}},
		{"ints", model.Int, []any{3, 1, 2}, []int{3, 1, 2}},
		{"durations", model.Duration, []any{time.Second}, []time.Duration{time.Second}},
		{"ports", model.Port, []any{Port(80)}, []Port{80}},
		{"empty", model.Int, nil, []int{}},
		{"custom", "color", []any{"red"}, []any{"red"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSeq(tt.elem)
			for _, v := range tt.items {
				s.Append(v)
			}
			got, err := s.Finalize()
			if err != nil {
				t.Fatalf("Finalize() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Finalize() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSeqFinalizeTypeMismatch(t *testing.T) {
	s := NewSeq(model.Int)
	s.Append("x")
	if _, err := s.Finalize(); err == nil {
		t.Error("Finalize() succeeded with a string in an int sequence")
	}
}

func TestFlagFinalize(t *testing.T) {
	f := NewFlag(model.Int)
	got, err := f.Finalize()
	if err != nil {
		t.Fatal(err)
	}
	if fv := got.(FlagValue[int]); fv.IsSet || fv.Value != nil {
		t.Errorf("unset flag finalized to %+v", fv)
	}

	f.Set(nil)
	got, _ = f.Finalize()
	if fv := got.(FlagValue[int]); !fv.IsSet || fv.Value != nil {
		t.Errorf("valueless flag finalized to %+v", fv)
	}

	f.Set(7)
	got, _ = f.Finalize()
	if fv := got.(FlagValue[int]); !fv.IsSet || fv.Get() != 7 {
		t.Errorf("flag finalized to %+v", fv)
	}
}

func TestPairsFinalize(t *testing.T) {
	p := NewPairs(model.String, model.Int)
	p.Add("a", 1)
	p.Add("b", 0)
	p.Add("a", 2)
	got, err := p.Finalize()
	if err != nil {
		t.Fatalf("Finalize() error = %v", err)
	}
	m, ok := got.(*MultiMap[string, int])
	if !ok {
		t.Fatalf("Finalize() = %T, want *MultiMap[string, int]", got)
	}
	want := []KV[string, int]{{"a", 1}, {"b", 0}, {"a", 2}}
	if diff := cmp.Diff(want, m.Pairs()); diff != "" {
		t.Errorf("pairs mismatch (-want +got):\n%s", diff)
	}

	if _, err := NewPairs(model.URL, model.String).Finalize(); err == nil {
		t.Error("url keys were accepted")
	}
}

func TestFinalizePassThrough(t *testing.T) {
	got, err := Finalize("plain")
	if err != nil || got != "plain" {
		t.Errorf("Finalize(plain) = %v, %v", got, err)
	}
}
