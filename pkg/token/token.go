// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package token classifies raw command-line arguments into tokens.
//
// Tokenizing is purely lexical: it knows nothing about the declared commands
// or options. Matching tokens against a command model is the parser's job.
//
//	res := token.Tokenize([]string{"run", "-vq", "--tag=x", "--", "-a", "b"})
//	// res.Tokens: Literal(run) ShortOptionCluster(vq) LongOption(tag=x)
//	//             RemainingMarker RemainingValue(-a) RemainingValue(b)
//	// res.Cut:    3
package token

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Kind is the lexical class of a Token.
type Kind int

const (
	Literal Kind = iota
	LongOption
	ShortOption
	ShortOptionCluster
	RemainingMarker
	RemainingValue
)

func (k Kind) String() string {
	switch k {
	case Literal:
		return "literal"
	case LongOption:
		return "long option"
	case ShortOption:
		return "short option"
	case ShortOptionCluster:
		return "short option cluster"
	case RemainingMarker:
		return "remaining marker"
	case RemainingValue:
		return "remaining value"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

const remainingMarker = "--"

// Token is one classified raw argument.
type Token struct {
	Kind Kind
	// Value is the option name (without dashes), the cluster letters, or the
	// literal text.
	Value string
	// Inline is the value attached with "=", if any.
	Inline *string
	// Position is the index of the argument in the raw input.
	Position int
	// Raw is the argument exactly as it was given.
	Raw string
}

// IsOption reports whether the token is any of the option kinds.
func (t Token) IsOption() bool {
	return t.Kind == LongOption || t.Kind == ShortOption || t.Kind == ShortOptionCluster
}

// InlineValue returns the attached value and whether there was one.
func (t Token) InlineValue() (string, bool) {
	if t.Inline == nil {
		return "", false
	}
	return *t.Inline, true
}

func (t Token) String() string {
	switch t.Kind {
	case LongOption, ShortOption, ShortOptionCluster:
		if v, ok := t.InlineValue(); ok {
			return fmt.Sprintf("%s(%s=%s)", t.Kind, t.Value, v)
		}
		return fmt.Sprintf("%s(%s)", t.Kind, t.Value)
	case RemainingMarker:
		return remainingMarker
	default:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Value)
	}
}

// Result is the output of Tokenize.
type Result struct {
	Tokens []Token
	// Cut is the index of the "--" marker in the raw arguments, or
	// len(args) when there is none.
	Cut int
}

// Tokenize lexes args (without the program name) into tokens.
func Tokenize(args []string) Result {
	res := Result{
		Tokens: make([]Token, 0, len(args)),
		Cut:    len(args),
	}
	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == remainingMarker {
			res.Cut = i
			res.Tokens = append(res.Tokens, Token{Kind: RemainingMarker, Value: arg, Position: i, Raw: arg})
			for j := i + 1; j < len(args); j++ {
				res.Tokens = append(res.Tokens, Token{Kind: RemainingValue, Value: args[j], Position: j, Raw: args[j]})
			}
			break
		}

		res.Tokens = append(res.Tokens, classify(arg, i))
	}
	return res
}

func classify(arg string, pos int) Token {
	switch {
	case strings.HasPrefix(arg, "--"):
		name, inline := splitInline(arg[2:])
		return Token{Kind: LongOption, Value: name, Inline: inline, Position: pos, Raw: arg}

	case strings.HasPrefix(arg, "-") && len(arg) > 1 && !isNegativeNumber(arg):
		name, inline := splitInline(arg[1:])
		kind := ShortOption
		if utf8.RuneCountInString(name) > 1 {
			kind = ShortOptionCluster
		}
		return Token{Kind: kind, Value: name, Inline: inline, Position: pos, Raw: arg}

	default:
		return Token{Kind: Literal, Value: arg, Position: pos, Raw: arg}
	}
}

// splitInline splits "name=value" at the first "=".
func splitInline(s string) (string, *string) {
	idx := strings.Index(s, "=")
	if idx == -1 {
		return s, nil
	}
	v := s[idx+1:]
	return s[:idx], &v
}

// isNegativeNumber reports whether arg, which starts with "-", is a
// negative decimal such as "-5", "-3.14" or "-.5".
func isNegativeNumber(arg string) bool {
	whole, frac, _ := strings.Cut(strings.TrimPrefix(arg, "-"), ".")
	if whole == "" && frac == "" {
		return false
	}
	return digits(whole) && digits(frac)
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Stream is a cursor over a token slice.
type Stream struct {
	tokens []Token
	pos    int
}

// NewStream returns a Stream positioned at the first token.
func NewStream(tokens []Token) *Stream {
	return &Stream{tokens: tokens}
}

// Peek returns the next token without consuming it.
func (s *Stream) Peek() (Token, bool) {
	return s.PeekAt(0)
}

// PeekAt returns the token n positions ahead without consuming anything.
func (s *Stream) PeekAt(n int) (Token, bool) {
	if s.pos+n >= len(s.tokens) {
		return Token{}, false
	}
	return s.tokens[s.pos+n], true
}

// Next consumes and returns the next token.
func (s *Stream) Next() (Token, bool) {
	t, ok := s.Peek()
	if ok {
		s.pos++
	}
	return t, ok
}

// Len returns the number of unconsumed tokens.
func (s *Stream) Len() int {
	return len(s.tokens) - s.pos
}

// Position returns the number of consumed tokens.
func (s *Stream) Position() int {
	return s.pos
}
