/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package syntax provides lossless lexing and parsing for the structural
// subset of the Nix expression language. Every input byte is retained as
// either token text or leading trivia, so rendering a parsed file
// reproduces the source exactly.
package syntax

// TokenKind identifies the lexical class of a token.
type TokenKind int

const (
	// EOF marks the end of input. Its Trivia holds trailing bytes.
	EOF TokenKind = iota

	// Ident is an identifier (foo, foo-bar, foo').
	Ident

	// Keyword is a reserved word: let in rec with if then else assert inherit or.
	Keyword

	// Int is an integer literal.
	Int

	// Float is a floating point literal.
	Float

	// Str is a double-quoted string, including quotes and any interpolation.
	Str

	// IndentStr is a two-single-quote indented string, including delimiters.
	IndentStr

	// Path is a path literal (./x.nix, /etc/nixos, ~/cfg, <nixpkgs>).
	Path

	// URI is a bare URI literal (https://example.com/x).
	URI

	// Punctuation and operators.
	LBrace      // {
	RBrace      // }
	LBrack      // [
	RBrack      // ]
	LParen      // (
	RParen      // )
	Semi        // ;
	Colon       // :
	Comma       // ,
	Dot         // .
	Assign      // =
	At          // @
	Question    // ?
	Ellipsis    // ...
	DollarBrace // ${
	Op          // any other operator (// ++ == != <= >= && || -> + - * / < > !)
)

// Token is a lexical token plus the trivia (whitespace and comments)
// immediately preceding it.
type Token struct {
	Kind   TokenKind
	Text   string
	Trivia string
}

// keywords are the reserved words of the expression language.
var keywords = map[string]bool{
	"let":     true,
	"in":      true,
	"rec":     true,
	"with":    true,
	"if":      true,
	"then":    true,
	"else":    true,
	"assert":  true,
	"inherit": true,
	"or":      true,
}

// IsKeyword reports whether s is a reserved word.
func IsKeyword(s string) bool {
	return keywords[s]
}
