// Copyright (c) 2025 AUTHORS All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package parser matches tokenized arguments against a command model and
// produces the parsed command path.
//
// At each level a literal naming a child command descends into it. When no
// child is named and the level declares a default child, the parser descends
// into the default without consuming anything. Otherwise tokens are matched
// against the options of the current command and its ancestors and against
// the command's positional arguments.
package parser

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/yeetrun/cmdtree/pkg/clierr"
	"github.com/yeetrun/cmdtree/pkg/model"
	"github.com/yeetrun/cmdtree/pkg/token"
)

// Mode controls how unknown options and unexpected literals are handled.
type Mode int

const (
	// Strict fails on anything that does not match the model.
	Strict Mode = iota
	// Relaxed collects unknown options and unexpected literals as
	// remaining arguments.
	Relaxed
)

func (m Mode) String() string {
	if m == Relaxed {
		return "relaxed"
	}
	return "strict"
}

// ParseMode parses "strict" or "relaxed".
func ParseMode(s string) (Mode, error) {
	switch s {
	case "strict", "":
		return Strict, nil
	case "relaxed":
		return Relaxed, nil
	}
	return Strict, fmt.Errorf("invalid parsing mode %q (want strict or relaxed)", s)
}

// Result is the outcome of a parse.
type Result struct {
	// Tree is the parsed command path. It is nil when no command was
	// selected and help should be shown for the application.
	Tree *Tree
	// Remaining holds the unparsed arguments, attributed to the leaf.
	Remaining model.Remaining
	// Args are the arguments that produced Tree. They differ from the input
	// when a default command was inserted.
	Args []string
}

// Option configures a Parser.
type Option func(*Parser)

// WithCaseSensitivity sets how command names, aliases and long option names
// match. Short option names always match case-sensitively.
func WithCaseSensitivity(cs model.CaseSensitivity) Option {
	return func(p *Parser) { p.cs = cs }
}

func WithParsingMode(m Mode) Option {
	return func(p *Parser) { p.mode = m }
}

// WithConvertUnknownFlags makes unknown options part of Remaining.Raw
// instead of failing the parse.
func WithConvertUnknownFlags(b bool) Option {
	return func(p *Parser) { p.convertUnknown = b }
}

// WithHelpOptions replaces the option names that request help.
func WithHelpOptions(long, short []string) Option {
	return func(p *Parser) {
		p.helpLong = long
		p.helpShort = short
	}
}

// Parser parses arguments against a model. It is safe for concurrent use.
type Parser struct {
	model          *model.Model
	cs             model.CaseSensitivity
	mode           Mode
	convertUnknown bool
	helpLong       []string
	helpShort      []string
}

// New returns a Parser for m.
func New(m *model.Model, opts ...Option) *Parser {
	p := &Parser{
		model:     m,
		cs:        model.CaseInsensitive,
		helpLong:  []string{"help"},
		helpShort: []string{"h", "?"},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse tokenizes and parses args. When the parsed leaf is a branch with a
// default child, the default child's name is inserted before any "--" and
// the arguments are parsed once more.
func (p *Parser) Parse(args []string) (*Result, error) {
	toks := token.Tokenize(args)
	res, err := p.ParseTokens(toks)
	if err != nil {
		return nil, err
	}
	res.Args = args
	leaf := res.Tree.Leaf()
	if leaf == nil || !leaf.Command.IsBranch || leaf.ShowHelp {
		return res, nil
	}
	def := leaf.Command.DefaultChild()
	if def == nil {
		return res, nil
	}

	retry := slices.Insert(slices.Clone(args), toks.Cut, def.Name)
	res, err = p.ParseTokens(token.Tokenize(retry))
	if err != nil {
		return nil, err
	}
	res.Args = retry
	leaf = res.Tree.Leaf()
	if leaf.Command == def {
		leaf.IsDefaultCommand = true
	}
	if leaf.Command.IsBranch {
		leaf.ShowHelp = true
	}
	return res, nil
}

// ParseTokens runs a single parse pass without the default-command retry.
func (p *Parser) ParseTokens(toks token.Result) (*Result, error) {
	s := &state{p: p, stream: token.NewStream(toks.Tokens), res: &Result{}}
	if err := s.run(); err != nil {
		return nil, err
	}
	s.res.Tree = s.root
	for _, n := range s.root.Nodes() {
		n.finish()
	}
	if leaf := s.root.Leaf(); leaf != nil && leaf.Command.IsBranch && leaf.Command.DefaultChild() == nil {
		leaf.ShowHelp = true
	}
	return s.res, nil
}

type state struct {
	p      *Parser
	stream *token.Stream
	res    *Result
	root   *Tree
	cur    *Tree
	// argIdx is the index of the next positional argument of cur.
	argIdx int
}

func (s *state) descend(cmd *model.Command, isDefault bool) {
	n := newTree(s.cur, cmd)
	n.IsDefaultCommand = isDefault
	if s.root == nil {
		s.root = n
	}
	s.cur = n
	s.argIdx = 0
}

func (s *state) run() error {
	if err := s.selectTop(); err != nil || s.cur == nil {
		return err
	}
	for {
		tok, ok := s.stream.Peek()
		if !ok {
			return nil
		}
		cmd := s.cur.Command

		if tok.Kind == token.Literal && len(cmd.Children) > 0 {
			if child := cmd.FindChild(tok.Value, s.p.cs); child != nil {
				s.stream.Next()
				s.descend(child, false)
				continue
			}
		}
		if tok.Kind != token.RemainingMarker && !s.onPath(tok) {
			if def := cmd.DefaultChild(); def != nil {
				s.descend(def, true)
				continue
			}
		}

		var err error
		switch tok.Kind {
		case token.Literal:
			err = s.literal()
		case token.LongOption, token.ShortOption:
			err = s.option()
		case token.ShortOptionCluster:
			err = s.cluster()
		case token.RemainingMarker:
			s.remaining()
		default:
			s.stream.Next()
		}
		if err != nil {
			return err
		}
	}
}

// selectTop picks the top-level command. It leaves cur nil when the result
// is a nil tree.
func (s *state) selectTop() error {
	m := s.p.model
	tok, ok := s.stream.Peek()
	if !ok {
		if m.Default != nil {
			s.descend(m.Default, true)
		}
		return nil
	}
	if tok.Kind == token.Literal {
		if cmd := m.FindCommand(tok.Value, s.p.cs); cmd != nil {
			s.stream.Next()
			s.descend(cmd, false)
			return nil
		}
	}
	if m.Default != nil {
		s.descend(m.Default, true)
		return nil
	}
	switch tok.Kind {
	case token.Literal:
		return &clierr.ParseError{
			Code:     clierr.UnknownCommand,
			Token:    tok.Raw,
			Position: tok.Position,
			Msg:      fmt.Sprintf("unknown command %q", tok.Raw),
		}
	case token.RemainingMarker:
		return &clierr.ParseError{
			Code:     clierr.UnexpectedArgument,
			Token:    tok.Raw,
			Position: tok.Position,
			Msg:      fmt.Sprintf("expected a command before %q", tok.Raw),
		}
	}
	if s.isHelp(tok) {
		// Help for the application itself.
		return nil
	}
	return &clierr.ParseError{
		Code:     clierr.UnexpectedOption,
		Token:    tok.Raw,
		Position: tok.Position,
		Msg:      fmt.Sprintf("unexpected option %q, expected a command", tok.Raw),
	}
}

// onPath reports whether tok is an option declared on the current path or a
// help option. Such options are handled before descending into a default
// child.
func (s *state) onPath(tok token.Token) bool {
	switch tok.Kind {
	case token.LongOption, token.ShortOption:
		if s.isHelp(tok) {
			return true
		}
		_, o := s.findOption(tok.Value, tok.Kind == token.LongOption)
		return o != nil
	case token.ShortOptionCluster:
		_, o := s.findOption(string([]rune(tok.Value)[0]), false)
		return o != nil
	}
	return false
}

func (s *state) isHelp(tok token.Token) bool {
	switch tok.Kind {
	case token.LongOption:
		return slices.ContainsFunc(s.p.helpLong, func(n string) bool { return s.p.cs.Equal(n, tok.Value) })
	case token.ShortOption:
		return slices.Contains(s.p.helpShort, tok.Value)
	}
	return false
}

func (s *state) literal() error {
	tok, _ := s.stream.Next()
	args := s.cur.Command.Arguments()
	if s.argIdx < len(args) {
		a := args[s.argIdx]
		if a.Kind != model.Vector {
			s.argIdx++
		}
		s.cur.mapped(a, ptr(tok.Value))
		return nil
	}
	if s.p.mode == Relaxed {
		s.res.Remaining.Raw = append(s.res.Remaining.Raw, tok.Raw)
		return nil
	}
	if len(s.cur.Command.Children) > 0 {
		return &clierr.ParseError{
			Code:     clierr.UnknownCommand,
			Token:    tok.Raw,
			Position: tok.Position,
			Command:  s.cur.Command.Name,
			Msg:      fmt.Sprintf("unknown command %q for %q", tok.Raw, s.cur.Command.Name),
		}
	}
	return &clierr.ParseError{
		Code:     clierr.UnexpectedArgument,
		Token:    tok.Raw,
		Position: tok.Position,
		Command:  s.cur.Command.Name,
		Msg:      fmt.Sprintf("unexpected argument %q for %q", tok.Raw, s.cur.Command.Name),
	}
}

// findOption looks up an option on the current node and then on its
// ancestors, returning the node that declares it.
func (s *state) findOption(name string, long bool) (*Tree, *model.Option) {
	for n := s.cur; n != nil; n = n.Parent {
		var o *model.Option
		if long {
			o = n.Command.FindLongOption(name, s.p.cs)
		} else {
			o = n.Command.FindShortOption(name)
		}
		if o != nil {
			return n, o
		}
	}
	return nil, nil
}

func (s *state) option() error {
	tok, _ := s.stream.Next()
	if tok.Value == "" {
		return &clierr.ParseError{
			Code:     clierr.OptionNameMissing,
			Token:    tok.Raw,
			Position: tok.Position,
			Command:  s.cur.Command.Name,
			Msg:      fmt.Sprintf("option name missing in %q", tok.Raw),
		}
	}
	owner, opt := s.findOption(tok.Value, tok.Kind == token.LongOption)
	if opt == nil {
		if s.isHelp(tok) {
			s.cur.ShowHelp = true
			return nil
		}
		prefix := "-"
		if tok.Kind == token.LongOption {
			prefix = "--"
		}
		return s.unknown(tok, prefix+tok.Value, tok.Inline)
	}
	return s.mapOption(owner, opt, tok, tok.Inline, true)
}

// mapOption maps opt on owner. inline is the attached value, if any.
// canConsume reports whether the option may take the following token as
// its value.
func (s *state) mapOption(owner *Tree, opt *model.Option, tok token.Token, inline *string, canConsume bool) error {
	switch opt.Kind {
	case model.Flag:
		if inline == nil {
			owner.mapped(opt, ptr("true"))
			return nil
		}
		if _, err := strconv.ParseBool(*inline); err != nil {
			return &clierr.ParseError{
				Code:      clierr.FlagWithValue,
				Token:     tok.Raw,
				Position:  tok.Position,
				Command:   owner.Command.Name,
				Parameter: opt.DisplayName(),
				Msg:       fmt.Sprintf("flag %s cannot be assigned the value %q", opt.DisplayName(), *inline),
			}
		}
		owner.mapped(opt, inline)
		return nil
	case model.FlagWithValue:
		if inline == nil && canConsume {
			if next, ok := s.stream.Peek(); ok && next.Kind == token.Literal && s.cur.Command.FindChild(next.Value, s.p.cs) == nil {
				s.stream.Next()
				v := next.Raw
				inline = &v
			}
		}
		owner.mapped(opt, inline)
		return nil
	}

	if inline != nil {
		owner.mapped(opt, inline)
		return nil
	}
	if canConsume {
		if next, ok := s.stream.Peek(); ok && s.canBeValue(next) {
			s.stream.Next()
			v := next.Raw
			owner.mapped(opt, &v)
			return nil
		}
	}
	return &clierr.ParseError{
		Code:      clierr.OptionHasNoValue,
		Token:     tok.Raw,
		Position:  tok.Position,
		Command:   owner.Command.Name,
		Parameter: opt.DisplayName(),
		Msg:       fmt.Sprintf("option %s is defined but no value has been provided", opt.DisplayName()),
	}
}

// canBeValue reports whether tok can be consumed as the value of a
// preceding option.
func (s *state) canBeValue(tok token.Token) bool {
	switch tok.Kind {
	case token.Literal:
		return true
	case token.LongOption, token.ShortOption:
		if tok.Value == "" || s.isHelp(tok) {
			return false
		}
		_, o := s.findOption(tok.Value, tok.Kind == token.LongOption)
		return o == nil
	case token.ShortOptionCluster:
		for _, r := range tok.Value {
			if _, o := s.findOption(string(r), false); o != nil {
				return false
			}
		}
		return true
	}
	return false
}

func (s *state) cluster() error {
	tok, _ := s.stream.Next()
	letters := []rune(tok.Value)

	owner, first := s.findOption(string(letters[0]), false)
	if first != nil && first.HasValue() {
		v := string(letters[1:])
		if tok.Inline != nil {
			v += "=" + *tok.Inline
		}
		owner.mapped(first, &v)
		return nil
	}

	for i, r := range letters {
		name := string(r)
		last := i == len(letters)-1
		var inline *string
		if last {
			inline = tok.Inline
		}
		owner, opt := s.findOption(name, false)
		if opt == nil {
			if slices.Contains(s.p.helpShort, name) {
				s.cur.ShowHelp = true
				continue
			}
			if err := s.unknown(tok, "-"+name, inline); err != nil {
				return err
			}
			continue
		}
		if opt.HasValue() && !last {
			return &clierr.ParseError{
				Code:      clierr.OptionHasNoValue,
				Token:     tok.Raw,
				Position:  tok.Position,
				Command:   owner.Command.Name,
				Parameter: opt.DisplayName(),
				Msg:       fmt.Sprintf("option %s in %q takes a value and must be last", opt.DisplayName(), tok.Raw),
			}
		}
		if err := s.mapOption(owner, opt, tok, inline, last); err != nil {
			return err
		}
	}
	return nil
}

// unknown handles an option that is not declared on the current path.
func (s *state) unknown(tok token.Token, name string, inline *string) error {
	if s.p.mode == Strict && !s.p.convertUnknown {
		return &clierr.ParseError{
			Code:     clierr.UnknownOption,
			Token:    tok.Raw,
			Position: tok.Position,
			Command:  s.cur.Command.Name,
			Msg:      fmt.Sprintf("unknown option %s", name),
		}
	}
	val := inline
	var consumed *token.Token
	if val == nil && tok.Kind != token.ShortOptionCluster {
		if next, ok := s.stream.Peek(); ok && next.Kind == token.Literal && s.cur.Command.FindChild(next.Value, s.p.cs) == nil {
			s.stream.Next()
			v := next.Raw
			val = &v
			consumed = &next
		}
	}
	s.res.Remaining.Parsed = append(s.res.Remaining.Parsed, model.RemainingArg{Name: name, Value: val})
	if s.p.convertUnknown {
		raw := tok.Raw
		if tok.Kind == token.ShortOptionCluster {
			raw = name
			if inline != nil {
				raw += "=" + *inline
			}
		}
		s.res.Remaining.Raw = append(s.res.Remaining.Raw, raw)
		if consumed != nil {
			s.res.Remaining.Raw = append(s.res.Remaining.Raw, consumed.Raw)
		}
	}
	return nil
}

func (s *state) remaining() {
	s.stream.Next()
	for {
		tok, ok := s.stream.Next()
		if !ok {
			return
		}
		s.res.Remaining.Raw = append(s.res.Remaining.Raw, tok.Raw)
	}
}

func ptr(s string) *string { return &s }
