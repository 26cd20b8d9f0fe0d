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

// lexer scans source text into tokens. Trivia (whitespace and comments) is
// attached to the following token; trailing trivia lands on the EOF token.
type lexer struct {
	src string
	pos int
}

// Lex tokenizes src. The returned slice always ends with an EOF token.
func Lex(src string) ([]Token, error) {
	l := &lexer{src: src}
	var tokens []Token
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Kind == EOF {
			return tokens, nil
		}
	}
}

// LexFragment tokenizes an expression fragment, returning its tokens
// without the EOF marker plus any trailing trivia.
func LexFragment(src string) ([]Token, string, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, "", err
	}
	eof := tokens[len(tokens)-1]
	return tokens[:len(tokens)-1], eof.Trivia, nil
}

func (l *lexer) next() (Token, error) {
	trivia, err := l.scanTrivia()
	if err != nil {
		return Token{}, err
	}
	if l.pos >= len(l.src) {
		return Token{Kind: EOF, Trivia: trivia}, nil
	}

	start := l.pos
	c := l.src[l.pos]

	switch {
	case isIdentStart(c):
		if tok, ok := l.scanPathOrURI(trivia); ok {
			return tok, nil
		}
		l.scanWhile(isIdentChar)
		text := l.src[start:l.pos]
		kind := Ident
		if IsKeyword(text) {
			kind = Keyword
		}
		return Token{Kind: kind, Text: text, Trivia: trivia}, nil

	case c >= '0' && c <= '9':
		if tok, ok := l.scanPathOrURI(trivia); ok {
			return tok, nil
		}
		return l.scanNumber(trivia)

	case c == '"':
		text, err := l.scanString()
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: Str, Text: text, Trivia: trivia}, nil

	case c == '\'' && l.peekAt(1) == '\'':
		text, err := l.scanIndentString()
		if err != nil {
			return Token{}, err
		}
		return Token{Kind: IndentStr, Text: text, Trivia: trivia}, nil

	case c == '.' || c == '/' || c == '~' || c == '+':
		if tok, ok := l.scanPathOrURI(trivia); ok {
			return tok, nil
		}
		return l.scanOperator(trivia)

	case c == '<':
		if tok, ok := l.scanSearchPath(trivia); ok {
			return tok, nil
		}
		return l.scanOperator(trivia)

	default:
		return l.scanOperator(trivia)
	}
}

// scanTrivia consumes whitespace, line comments and block comments.
func (l *lexer) scanTrivia() (string, error) {
	start := l.pos
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.src) && l.src[l.pos] != '\n' {
				l.pos++
			}
		case c == '/' && l.peekAt(1) == '*':
			end := strings.Index(l.src[l.pos+2:], "*/")
			if end < 0 {
				return "", l.errorf(l.pos, "unterminated block comment")
			}
			l.pos += 2 + end + 2
		default:
			return l.src[start:l.pos], nil
		}
	}
	return l.src[start:l.pos], nil
}

// scanPathOrURI attempts to lex a path (./x, foo/bar, /etc/x) or a URI
// (scheme://rest). Returns false without consuming input when the lookahead
// does not form either.
func (l *lexer) scanPathOrURI(trivia string) (Token, bool) {
	// URI: identifier characters followed by "://".
	j := l.pos
	for j < len(l.src) && isURISchemeChar(l.src[j]) {
		j++
	}
	if j > l.pos && strings.HasPrefix(l.src[j:], "://") {
		j += 3
		for j < len(l.src) && isURIChar(l.src[j]) {
			j++
		}
		tok := Token{Kind: URI, Text: l.src[l.pos:j], Trivia: trivia}
		l.pos = j
		return tok, true
	}

	// Path: a run of path characters containing at least one slash with a
	// following segment character.
	j = l.pos
	slash := false
	for j < len(l.src) {
		c := l.src[j]
		if c == '/' {
			if j+1 < len(l.src) && isPathChar(l.src[j+1]) {
				slash = true
				j++
				continue
			}
			break
		}
		if !isPathChar(c) {
			break
		}
		j++
	}
	if !slash {
		return Token{}, false
	}
	tok := Token{Kind: Path, Text: l.src[l.pos:j], Trivia: trivia}
	l.pos = j
	return tok, true
}

// scanSearchPath lexes <nixpkgs/nixos> style lookup paths.
func (l *lexer) scanSearchPath(trivia string) (Token, bool) {
	j := l.pos + 1
	for j < len(l.src) && (isPathChar(l.src[j]) || l.src[j] == '/') {
		j++
	}
	if j == l.pos+1 || j >= len(l.src) || l.src[j] != '>' {
		return Token{}, false
	}
	tok := Token{Kind: Path, Text: l.src[l.pos : j+1], Trivia: trivia}
	l.pos = j + 1
	return tok, true
}

func (l *lexer) scanNumber(trivia string) (Token, error) {
	start := l.pos
	l.scanWhile(isDigit)
	kind := Int
	if l.pos < len(l.src) && l.src[l.pos] == '.' && isDigit(l.peekAt(1)) {
		kind = Float
		l.pos++
		l.scanWhile(isDigit)
	}
	if l.pos < len(l.src) && (l.src[l.pos] == 'e' || l.src[l.pos] == 'E') {
		j := l.pos + 1
		if j < len(l.src) && (l.src[j] == '+' || l.src[j] == '-') {
			j++
		}
		if j < len(l.src) && isDigit(l.src[j]) {
			kind = Float
			l.pos = j
			l.scanWhile(isDigit)
		}
	}
	return Token{Kind: kind, Text: l.src[start:l.pos], Trivia: trivia}, nil
}

// scanString consumes a double-quoted string including interpolations.
func (l *lexer) scanString() (string, error) {
	start := l.pos
	l.pos++ // opening quote
	for l.pos < len(l.src) {
		switch {
		case l.src[l.pos] == '\\':
			l.pos += 2
		case l.src[l.pos] == '"':
			l.pos++
			return l.src[start:l.pos], nil
		case l.src[l.pos] == '$' && l.peekAt(1) == '{':
			if err := l.scanInterpolation(); err != nil {
				return "", err
			}
		default:
			l.pos++
		}
	}
	return "", l.errorf(start, "unterminated string")
}

// scanIndentString consumes an indented ''...'' string.
func (l *lexer) scanIndentString() (string, error) {
	start := l.pos
	l.pos += 2 // opening ''
	for l.pos < len(l.src) {
		switch {
		case l.src[l.pos] == '\'' && l.peekAt(1) == '\'':
			// ''' escapes a literal '', ''$ escapes interpolation,
			// ''\ escapes any character.
			switch l.peekAt(2) {
			case '\'':
				l.pos += 3
			case '$':
				l.pos += 3
			case '\\':
				l.pos += 4
			default:
				l.pos += 2
				return l.src[start:l.pos], nil
			}
		case l.src[l.pos] == '$' && l.peekAt(1) == '{':
			if err := l.scanInterpolation(); err != nil {
				return "", err
			}
		default:
			l.pos++
		}
	}
	return "", l.errorf(start, "unterminated indented string")
}

// scanInterpolation consumes a ${...} section, tracking nested braces and
// nested strings so the closing brace is matched correctly.
func (l *lexer) scanInterpolation() error {
	start := l.pos
	l.pos += 2 // ${
	depth := 1
	for l.pos < len(l.src) {
		switch {
		case l.src[l.pos] == '"':
			if _, err := l.scanString(); err != nil {
				return err
			}
		case l.src[l.pos] == '\'' && l.peekAt(1) == '\'':
			if _, err := l.scanIndentString(); err != nil {
				return err
			}
		case l.src[l.pos] == '{':
			depth++
			l.pos++
		case l.src[l.pos] == '}':
			depth--
			l.pos++
			if depth == 0 {
				return nil
			}
		default:
			l.pos++
		}
	}
	return l.errorf(start, "unterminated interpolation")
}

func (l *lexer) scanOperator(trivia string) (Token, error) {
	two := ""
	if l.pos+1 < len(l.src) {
		two = l.src[l.pos : l.pos+2]
	}

	if strings.HasPrefix(l.src[l.pos:], "...") {
		l.pos += 3
		return Token{Kind: Ellipsis, Text: "...", Trivia: trivia}, nil
	}

	switch two {
	case "${":
		l.pos += 2
		return Token{Kind: DollarBrace, Text: "${", Trivia: trivia}, nil
	case "//", "++", "==", "!=", "<=", ">=", "&&", "||", "->":
		l.pos += 2
		return Token{Kind: Op, Text: two, Trivia: trivia}, nil
	}

	c := l.src[l.pos]
	l.pos++
	text := string(c)
	switch c {
	case '{':
		return Token{Kind: LBrace, Text: text, Trivia: trivia}, nil
	case '}':
		return Token{Kind: RBrace, Text: text, Trivia: trivia}, nil
	case '[':
		return Token{Kind: LBrack, Text: text, Trivia: trivia}, nil
	case ']':
		return Token{Kind: RBrack, Text: text, Trivia: trivia}, nil
	case '(':
		return Token{Kind: LParen, Text: text, Trivia: trivia}, nil
	case ')':
		return Token{Kind: RParen, Text: text, Trivia: trivia}, nil
	case ';':
		return Token{Kind: Semi, Text: text, Trivia: trivia}, nil
	case ':':
		return Token{Kind: Colon, Text: text, Trivia: trivia}, nil
	case ',':
		return Token{Kind: Comma, Text: text, Trivia: trivia}, nil
	case '.':
		return Token{Kind: Dot, Text: text, Trivia: trivia}, nil
	case '=':
		return Token{Kind: Assign, Text: text, Trivia: trivia}, nil
	case '@':
		return Token{Kind: At, Text: text, Trivia: trivia}, nil
	case '?':
		return Token{Kind: Question, Text: text, Trivia: trivia}, nil
	case '+', '-', '*', '/', '<', '>', '!':
		return Token{Kind: Op, Text: text, Trivia: trivia}, nil
	}
	return Token{}, l.errorf(l.pos-1, "unexpected character %q", c)
}

func (l *lexer) scanWhile(pred func(byte) bool) {
	for l.pos < len(l.src) && pred(l.src[l.pos]) {
		l.pos++
	}
}

func (l *lexer) peekAt(n int) byte {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n]
	}
	return 0
}

func (l *lexer) errorf(offset int, format string, args ...any) error {
	line, col := lineColAt(l.src, offset)
	return &ParseError{Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

// lineColAt returns the 1-based line and column of a byte offset.
func lineColAt(src string, offset int) (uint32, uint32) {
	if offset > len(src) {
		offset = len(src)
	}
	line := uint32(1)
	col := uint32(1)
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '-' || c == '\''
}

func isPathChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '.' || c == '_' || c == '-' || c == '+' || c == '~'
}

func isURISchemeChar(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '+' || c == '-' || c == '.'
}

func isURIChar(c byte) bool {
	switch c {
	case '%', '/', '?', ':', '@', '&', '=', '+', '$', ',', '-', '_', '.', '!', '~', '*', '\'':
		return true
	}
	return isIdentStart(c) || isDigit(c)
}
