// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yeetrun/cmdtree/pkg/app"
	"github.com/yeetrun/cmdtree/pkg/bind"
	"github.com/yeetrun/cmdtree/pkg/clierr"
	"github.com/yeetrun/cmdtree/pkg/parser"
	"github.com/yeetrun/cmdtree/pkg/value"
)

func TestGreet(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		want     string
	}{
		{"no arguments", nil, 0, "Hello, World!\n"},
		{"names", []string{"ann", "bob"}, 0, "Hello, ann and bob!\n"},
		{"count and loud", []string{"ann", "-c", "2", "--loud"}, 0, "HELLO, ANN!\nHELLO, ANN!\n"},
		{"greeting", []string{"--greeting", "Howdy", "ann"}, 0, "Howdy, ann!\n"},
		{"verbose flag", []string{"ann", "-v"}, 0, "Hello, ann!\n"},
		{"verbose level", []string{"-v", "2", "ann"}, 0, "Hello, ann!\n"},
		{"greeting not allowed", []string{"-g", "Yo"}, -1, ""},
		{"count out of range", []string{"-c", "11"}, -1, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			m, err := newModel(&stdout)
			if err != nil {
				t.Fatalf("newModel: %v", err)
			}
			code, err := app.New(m, app.WithProvider(newRegistry()), app.WithOutput(&stdout, &stderr)).
				Run(context.Background(), tt.args)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("code = %d, want %d (stderr %q)", code, tt.wantCode, stderr.String())
			}
			if stdout.String() != tt.want {
				t.Errorf("stdout = %q, want %q", stdout.String(), tt.want)
			}
		})
	}
}

func bindServe(t *testing.T, args ...string) (*ServeSettings, error) {
	t.Helper()
	m, err := newModel(io.Discard)
	if err != nil {
		t.Fatalf("newModel: %v", err)
	}
	res, err := parser.New(m).Parse(args)
	if err != nil {
		return nil, err
	}
	s, err := bind.Bind(res.Tree, res.Tree.Leaf().Command.Settings, newRegistry())
	if err != nil {
		return nil, err
	}
	return s.(*ServeSettings), nil
}

func TestServeSettings(t *testing.T) {
	t.Setenv("HELLO_PORT", "9090")
	s, err := bindServe(t, "serve", "-H", "X-Env=dev", "--verbose=2")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if s.Port != 9090 {
		t.Errorf("Port = %d, want 9090 from HELLO_PORT", s.Port)
	}
	if !s.Verbose.IsSet || s.Verbose.Get() != 2 {
		t.Errorf("Verbose = %+v, want 2", s.Verbose)
	}
	if v, ok := s.Headers.Get("X-Env"); !ok || v != "dev" {
		t.Errorf("Headers[X-Env] = %q, %v", v, ok)
	}

	s, err = bindServe(t, "serve", "--port", "2000")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if s.Port != 2000 {
		t.Errorf("Port = %d, want the explicit 2000", s.Port)
	}

	s, err = bindServe(t, "serve", "-v", "3")
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if !s.Verbose.IsSet || s.Verbose.Get() != 3 {
		t.Errorf("Verbose = %+v, want 3", s.Verbose)
	}
}

func TestServeSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		is   error
	}{
		{"privileged port", []string{"serve", "-p", "80"}, clierr.ErrValidation},
		{"listen with port", []string{"serve", "-l", "localhost:80"}, clierr.ErrValidation},
		{"bad port", []string{"serve", "-p", "http"}, clierr.ErrConversion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bindServe(t, tt.args...)
			if !errors.Is(err, tt.is) {
				t.Fatalf("err = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestHandler(t *testing.T) {
	headers := &value.MultiMap[string, string]{}
	headers.Add("X-Env", "dev")
	h := newHandler(&ServeSettings{Headers: headers})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if got := rec.Body.String(); got != "Hello, world!\n" {
		t.Errorf("body = %q", got)
	}
	if got := rec.Header().Get("X-Env"); got != "dev" {
		t.Errorf("X-Env = %q, want dev", got)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/env", nil))
	if !strings.HasPrefix(rec.Body.String(), "[") {
		t.Errorf("/env body = %q", rec.Body.String())
	}
}
