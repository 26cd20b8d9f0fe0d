/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package syntax

import (
	"fmt"
	"strings"
)

// NodeKind identifies the syntactic class of a CST node.
type NodeKind int

const (
	// KindAttrSet is an attribute set literal `{ ... }`, possibly rec.
	KindAttrSet NodeKind = iota

	// KindBinding is an attribute binding `a.b.c = expr;` including the
	// terminating semicolon.
	KindBinding

	// KindInherit is an `inherit ...;` binding.
	KindInherit

	// KindList is a list literal `[ ... ]`.
	KindList

	// KindLiteral is an int, float, string, path or URI literal.
	KindLiteral

	// KindIdent is an identifier reference (including true/false/null).
	KindIdent

	// KindSelect is an attribute selection `e.a.b` with optional `or` default.
	KindSelect

	// KindApply is function application by juxtaposition.
	KindApply

	// KindLambda is a function `x: e` or `{ ... }: e`.
	KindLambda

	// KindLet is a `let ... in e` expression.
	KindLet

	// KindIf is an `if c then t else e` expression.
	KindIf

	// KindWith is a `with e; e` expression.
	KindWith

	// KindAssert is an `assert c; e` expression.
	KindAssert

	// KindUnary is a prefix `!e` or `-e`.
	KindUnary

	// KindBinary is a binary operator expression; Op "//" merges attrsets.
	KindBinary

	// KindParen is a parenthesized expression.
	KindParen

	// KindInterp is a standalone `${e}` interpolation (dynamic attr name).
	KindInterp

	// KindHasAttr is an `e ? a.b` test.
	KindHasAttr
)

// AttrName is one segment of an attribute path. Dynamic segments
// (interpolated or interpolation-bearing strings) have no static text.
type AttrName struct {
	// Text is the decoded segment name; empty when Dynamic.
	Text string

	// Dynamic marks a computed segment which cannot be resolved statically.
	Dynamic bool
}

// Node is a node in the concrete syntax tree. Nodes do not own text;
// they reference the half-open token index range [Start, End) of the
// owning File. Leaf nodes reference a single token.
type Node struct {
	Kind     NodeKind
	Start    int
	End      int
	Children []*Node

	// Binding fields: the attribute path and the bound value expression.
	Name  []AttrName
	Value *Node

	// AttrSet: true for `rec { ... }`.
	Rec bool

	// Binary: the operator text.
	Op string
}

// IsMerge reports whether the node is an attrset merge (`//`) expression.
func (n *Node) IsMerge() bool {
	return n.Kind == KindBinary && n.Op == "//"
}

// File owns the token stream and CST for one source file. Tokens are the
// authoritative representation; rendered text is memoized and rebuilt on
// demand after mutation.
type File struct {
	// Path is the file's path within the configuration root.
	Path string

	// Tokens is the token stream, terminated by an EOF token.
	Tokens []Token

	// Root is the file's top-level expression.
	Root *Node

	rendered    string
	dirty       bool
	triviaStart []int
	textStart   []int
}

// Render reconstructs the file's source text from its tokens.
func (f *File) Render() string {
	if !f.dirty && f.rendered != "" {
		return f.rendered
	}
	var sb strings.Builder
	for _, tok := range f.Tokens {
		sb.WriteString(tok.Trivia)
		sb.WriteString(tok.Text)
	}
	f.rendered = sb.String()
	f.dirty = false
	return f.rendered
}

// Dirty reports whether the file has been mutated since Render was cached.
func (f *File) Dirty() bool {
	return f.dirty
}

func (f *File) invalidate() {
	f.dirty = true
	f.triviaStart = nil
	f.textStart = nil
}

func (f *File) ensureOffsets() {
	if f.triviaStart != nil {
		return
	}
	f.triviaStart = make([]int, len(f.Tokens))
	f.textStart = make([]int, len(f.Tokens))
	off := 0
	for i, tok := range f.Tokens {
		f.triviaStart[i] = off
		off += len(tok.Trivia)
		f.textStart[i] = off
		off += len(tok.Text)
	}
}

// TriviaStart returns the byte offset where token i's trivia begins.
func (f *File) TriviaStart(i int) int {
	f.ensureOffsets()
	return f.triviaStart[i]
}

// TextStart returns the byte offset where token i's text begins.
func (f *File) TextStart(i int) int {
	f.ensureOffsets()
	return f.textStart[i]
}

// TextEnd returns the byte offset just past token i's text.
func (f *File) TextEnd(i int) int {
	f.ensureOffsets()
	return f.textStart[i] + len(f.Tokens[i].Text)
}

// NodeSpan returns the byte range [start, end) of a node's text,
// excluding the leading trivia of its first token.
func (f *File) NodeSpan(n *Node) (int, int) {
	return f.TextStart(n.Start), f.TextEnd(n.End - 1)
}

// NodeOuterSpan returns the byte range of a node including the leading
// trivia of its first token.
func (f *File) NodeOuterSpan(n *Node) (int, int) {
	return f.TriviaStart(n.Start), f.TextEnd(n.End - 1)
}

// NodeText returns the rendered text of a node, trivia between its tokens
// included, leading trivia excluded.
func (f *File) NodeText(n *Node) string {
	start, end := f.NodeSpan(n)
	return f.Render()[start:end]
}

// ModuleBody returns the attribute set that forms the file's
// configuration body, unwrapping a module function header and
// parentheses. Returns nil when the file's shape is not a module.
func (f *File) ModuleBody() *Node {
	n := f.Root
	for n != nil {
		switch n.Kind {
		case KindAttrSet:
			return n
		case KindLambda:
			n = n.Children[len(n.Children)-1]
		case KindParen:
			n = n.Children[0]
		default:
			return nil
		}
	}
	return nil
}

// PositionAt returns the 1-based line and column of a byte offset.
func (f *File) PositionAt(offset int) (uint32, uint32) {
	return lineColAt(f.Render(), offset)
}

// SpliceBytes replaces the byte range [start, end) with repl, re-parsing
// the file. When the range aligns with token boundaries only the fragment
// is re-lexed; otherwise the whole file is re-lexed as a fallback. The
// file is left unchanged on error.
func (f *File) SpliceBytes(start, end int, repl string) error {
	if start > end || end > f.TextEnd(len(f.Tokens)-1) {
		return fmt.Errorf("splice range [%d, %d) out of bounds in %s", start, end, f.Path)
	}

	s, e, carry, ok := f.tokenRange(start, end)
	if !ok {
		return f.spliceFallback(start, end, repl)
	}

	frag, trailing, err := LexFragment(repl)
	if err != nil {
		return err
	}

	newTokens := make([]Token, 0, len(f.Tokens)-(e-s)+len(frag))
	newTokens = append(newTokens, f.Tokens[:s]...)
	if len(frag) > 0 && carry {
		frag[0].Trivia = f.Tokens[s].Trivia + frag[0].Trivia
	}
	newTokens = append(newTokens, frag...)
	rest := make([]Token, len(f.Tokens[e:]))
	copy(rest, f.Tokens[e:])
	if len(rest) > 0 {
		prefix := trailing
		if len(frag) == 0 && carry {
			prefix = f.Tokens[s].Trivia + prefix
		}
		rest[0].Trivia = prefix + rest[0].Trivia
	}
	newTokens = append(newTokens, rest...)

	return f.reparse(newTokens)
}

// tokenRange maps a byte range to token indices. carry reports whether the
// leading trivia of token s lies outside the range and must be preserved.
func (f *File) tokenRange(start, end int) (s, e int, carry, ok bool) {
	f.ensureOffsets()
	s = -1
	for i := range f.Tokens {
		if f.textStart[i] == start {
			s, carry = i, true
			break
		}
		if f.triviaStart[i] == start {
			s, carry = i, false
			break
		}
	}
	if s < 0 {
		return 0, 0, false, false
	}
	if start == end {
		// Pure insertion before token s. Inserted bytes precede the
		// token's trivia only when anchored at the trivia start.
		if carry {
			return 0, 0, false, false
		}
		return s, s, false, true
	}
	// The EOF token is never part of a replaced range; a range reaching
	// into trailing trivia falls back to a full re-lex.
	for i := s; i < len(f.Tokens)-1; i++ {
		if f.TextEnd(i) == end {
			return s, i + 1, carry, true
		}
		if f.TextEnd(i) > end {
			return 0, 0, false, false
		}
	}
	return 0, 0, false, false
}

// spliceFallback re-lexes the whole file after a raw text splice.
func (f *File) spliceFallback(start, end int, repl string) error {
	text := f.Render()
	next := text[:start] + repl + text[end:]
	tokens, err := Lex(next)
	if err != nil {
		return err
	}
	return f.reparse(tokens)
}

// reparse rebuilds the CST from a new token stream, leaving the file
// untouched when the stream does not parse.
func (f *File) reparse(tokens []Token) error {
	root, err := parseTokens(f.Path, tokens)
	if err != nil {
		return err
	}
	f.Tokens = tokens
	f.Root = root
	f.invalidate()
	return nil
}
