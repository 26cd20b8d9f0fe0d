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

// ParseError reports a syntax error with its source position. A file that
// fails to parse is treated as unmanaged raw text by callers.
type ParseError struct {
	// File is the path of the offending file, when known.
	File string
	// Line is the 1-based line of the error.
	Line uint32
	// Column is the 1-based column of the error.
	Column uint32
	// Message describes what went wrong.
	Message string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
}

// Parse lexes and parses src into a File. The returned file renders back
// to src byte for byte.
func Parse(path, src string) (*File, error) {
	tokens, err := Lex(src)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.File = path
		}
		return nil, err
	}
	root, err := parseTokens(path, tokens)
	if err != nil {
		return nil, err
	}
	return &File{Path: path, Tokens: tokens, Root: root}, nil
}

// ParseFragment parses src as a single value expression. It is used to
// validate raw expression edits before they are spliced into a file.
func ParseFragment(src string) (*Node, error) {
	tokens, err := Lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != EOF {
		return nil, p.errorf(p.pos, "unexpected %q after expression", p.peek().Text)
	}
	return node, nil
}

// parseTokens builds a CST from an existing token stream.
func parseTokens(path string, tokens []Token) (*Node, error) {
	p := &parser{path: path, tokens: tokens}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind != EOF {
		return nil, p.errorf(p.pos, "unexpected %q after expression", p.peek().Text)
	}
	return root, nil
}

type parser struct {
	path   string
	tokens []Token
	pos    int
}

func (p *parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *parser) at(kind TokenKind) bool {
	return p.tokens[p.pos].Kind == kind
}

func (p *parser) atKeyword(word string) bool {
	t := p.tokens[p.pos]
	return t.Kind == Keyword && t.Text == word
}

func (p *parser) advance() Token {
	t := p.tokens[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) expect(kind TokenKind, what string) (int, error) {
	if !p.at(kind) {
		return 0, p.errorf(p.pos, "expected %s, found %q", what, p.describe())
	}
	idx := p.pos
	p.advance()
	return idx, nil
}

func (p *parser) describe() string {
	t := p.peek()
	if t.Kind == EOF {
		return "end of file"
	}
	return t.Text
}

func (p *parser) errorf(at int, format string, args ...any) error {
	// Reconstruct the byte offset of the offending token.
	off := 0
	for i := 0; i < at && i < len(p.tokens); i++ {
		off += len(p.tokens[i].Trivia) + len(p.tokens[i].Text)
	}
	if at < len(p.tokens) {
		off += len(p.tokens[at].Trivia)
	}
	var sb strings.Builder
	for _, t := range p.tokens {
		sb.WriteString(t.Trivia)
		sb.WriteString(t.Text)
	}
	line, col := lineColAt(sb.String(), off)
	return &ParseError{File: p.path, Line: line, Column: col, Message: fmt.Sprintf(format, args...)}
}

// parseExpr parses a complete expression.
func (p *parser) parseExpr() (*Node, error) {
	switch {
	case p.atKeyword("let"):
		return p.parseLet()
	case p.atKeyword("with"):
		return p.parseWith()
	case p.atKeyword("assert"):
		return p.parseAssert()
	case p.atKeyword("if"):
		return p.parseIf()
	}

	if n, ok, err := p.tryLambda(); err != nil || ok {
		return n, err
	}

	return p.parseBinary(0)
}

// tryLambda detects and parses function literals: `x: e`, `x @ {..}: e`,
// `{..}: e`, `{..} @ x: e`.
func (p *parser) tryLambda() (*Node, bool, error) {
	start := p.pos

	if p.at(Ident) {
		next := p.tokens[p.pos+1].Kind
		if next == Colon {
			return p.parseLambda(start)
		}
		if next == At && p.tokens[p.pos+2].Kind == LBrace {
			return p.parseLambda(start)
		}
		return nil, false, nil
	}

	if p.at(LBrace) {
		close, ok := p.matchBrace(p.pos)
		if !ok {
			return nil, false, nil
		}
		after := p.tokens[close+1].Kind
		if after == Colon || after == At {
			return p.parseLambda(start)
		}
	}

	return nil, false, nil
}

// matchBrace finds the token index of the brace matching the one at open.
func (p *parser) matchBrace(open int) (int, bool) {
	depth := 0
	for i := open; i < len(p.tokens); i++ {
		switch p.tokens[i].Kind {
		case LBrace, DollarBrace:
			depth++
		case RBrace:
			depth--
			if depth == 0 {
				return i, true
			}
		case EOF:
			return 0, false
		}
	}
	return 0, false
}

func (p *parser) parseLambda(start int) (*Node, bool, error) {
	n := &Node{Kind: KindLambda, Start: start}

	parseHead := func() error {
		if p.at(Ident) {
			p.advance()
			return nil
		}
		return p.parseFormals(n)
	}

	if err := parseHead(); err != nil {
		return nil, true, err
	}
	if p.at(At) {
		p.advance()
		if err := parseHead(); err != nil {
			return nil, true, err
		}
	}
	if _, err := p.expect(Colon, "':' in function"); err != nil {
		return nil, true, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, true, err
	}
	n.Children = append(n.Children, body)
	n.End = p.pos
	return n, true, nil
}

// parseFormals consumes a `{ a, b ? default, ... }` formals pattern.
func (p *parser) parseFormals(lambda *Node) error {
	if _, err := p.expect(LBrace, "'{' in function formals"); err != nil {
		return err
	}
	for !p.at(RBrace) {
		switch {
		case p.at(Ellipsis):
			p.advance()
		case p.at(Ident):
			p.advance()
			if p.at(Question) {
				p.advance()
				def, err := p.parseExpr()
				if err != nil {
					return err
				}
				lambda.Children = append(lambda.Children, def)
			}
		default:
			return p.errorf(p.pos, "expected formal parameter, found %q", p.describe())
		}
		if p.at(Comma) {
			p.advance()
			continue
		}
		break
	}
	_, err := p.expect(RBrace, "'}' closing function formals")
	return err
}

func (p *parser) parseLet() (*Node, error) {
	n := &Node{Kind: KindLet, Start: p.pos}
	p.advance() // let
	for !p.atKeyword("in") {
		if p.at(EOF) {
			return nil, p.errorf(p.pos, "expected 'in' closing let bindings")
		}
		binding, err := p.parseBinding()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, binding)
	}
	p.advance() // in
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	n.Children = append(n.Children, body)
	n.End = p.pos
	return n, nil
}

func (p *parser) parseWith() (*Node, error) {
	n := &Node{Kind: KindWith, Start: p.pos}
	p.advance() // with
	scope, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Semi, "';' after with scope"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	n.Children = []*Node{scope, body}
	n.End = p.pos
	return n, nil
}

func (p *parser) parseAssert() (*Node, error) {
	n := &Node{Kind: KindAssert, Start: p.pos}
	p.advance() // assert
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Semi, "';' after assert condition"); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	n.Children = []*Node{cond, body}
	n.End = p.pos
	return n, nil
}

func (p *parser) parseIf() (*Node, error) {
	n := &Node{Kind: KindIf, Start: p.pos}
	p.advance() // if
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atKeyword("then") {
		return nil, p.errorf(p.pos, "expected 'then', found %q", p.describe())
	}
	p.advance()
	then, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.atKeyword("else") {
		return nil, p.errorf(p.pos, "expected 'else', found %q", p.describe())
	}
	p.advance()
	els, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	n.Children = []*Node{cond, then, els}
	n.End = p.pos
	return n, nil
}

// binaryPrecedence maps operator text to a binding strength. Structure,
// not evaluation, is the goal; ties follow the reference grammar closely
// enough that spans nest correctly.
var binaryPrecedence = map[string]int{
	"->": 1,
	"||": 2,
	"&&": 3,
	"==": 4, "!=": 4,
	"<": 5, ">": 5, "<=": 5, ">=": 5,
	"//": 6,
	"+":  7, "-": 7,
	"*": 8, "/": 8,
	"++": 9,
}

func (p *parser) parseBinary(minPrec int) (*Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}

	for {
		if p.at(Question) {
			// e ? a.b attribute test.
			n := &Node{Kind: KindHasAttr, Start: left.Start, Children: []*Node{left}}
			p.advance()
			if _, _, err := p.parseAttrPath(); err != nil {
				return nil, err
			}
			n.End = p.pos
			left = n
			continue
		}
		if !p.at(Op) {
			return left, nil
		}
		op := p.peek().Text
		prec, known := binaryPrecedence[op]
		if !known || prec < minPrec {
			return left, nil
		}
		p.advance()
		right, err := p.parseBinary(prec + 1)
		if err != nil {
			return nil, err
		}
		left = &Node{
			Kind:     KindBinary,
			Op:       op,
			Start:    left.Start,
			End:      right.End,
			Children: []*Node{left, right},
		}
	}
}

func (p *parser) parseUnary() (*Node, error) {
	if p.at(Op) && (p.peek().Text == "!" || p.peek().Text == "-") {
		n := &Node{Kind: KindUnary, Start: p.pos, Op: p.peek().Text}
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		n.Children = []*Node{operand}
		n.End = operand.End
		return n, nil
	}
	return p.parseApply()
}

func (p *parser) parseApply() (*Node, error) {
	fn, err := p.parseSelect()
	if err != nil {
		return nil, err
	}
	for p.startsAtom() {
		arg, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		fn = &Node{
			Kind:     KindApply,
			Start:    fn.Start,
			End:      arg.End,
			Children: []*Node{fn, arg},
		}
	}
	return fn, nil
}

// startsAtom reports whether the next token can begin a function argument.
func (p *parser) startsAtom() bool {
	switch p.peek().Kind {
	case Ident, Int, Float, Str, IndentStr, Path, URI, LBrack, LParen, DollarBrace:
		return true
	case LBrace:
		return true
	case Keyword:
		return p.peek().Text == "rec" || p.peek().Text == "let"
	}
	return false
}

func (p *parser) parseSelect() (*Node, error) {
	atom, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if !p.at(Dot) {
		return atom, nil
	}
	n := &Node{Kind: KindSelect, Start: atom.Start, Children: []*Node{atom}}
	p.advance()
	if _, _, err := p.parseAttrPath(); err != nil {
		return nil, err
	}
	if p.atKeyword("or") {
		p.advance()
		def, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, def)
	}
	n.End = p.pos
	return n, nil
}

func (p *parser) parseAtom() (*Node, error) {
	start := p.pos
	switch p.peek().Kind {
	case Int, Float, Str, IndentStr, Path, URI:
		p.advance()
		return &Node{Kind: KindLiteral, Start: start, End: p.pos}, nil

	case Ident:
		p.advance()
		return &Node{Kind: KindIdent, Start: start, End: p.pos}, nil

	case LParen:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RParen, "')'"); err != nil {
			return nil, err
		}
		return &Node{Kind: KindParen, Start: start, End: p.pos, Children: []*Node{inner}}, nil

	case LBrack:
		return p.parseList()

	case LBrace:
		return p.parseAttrSet(false)

	case DollarBrace:
		p.advance()
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(RBrace, "'}' closing interpolation"); err != nil {
			return nil, err
		}
		return &Node{Kind: KindInterp, Start: start, End: p.pos, Children: []*Node{inner}}, nil

	case Keyword:
		switch p.peek().Text {
		case "rec":
			p.advance()
			set, err := p.parseAttrSet(true)
			if err != nil {
				return nil, err
			}
			set.Start = start
			return set, nil
		case "let", "with", "assert", "if":
			return p.parseExpr()
		}
	}
	return nil, p.errorf(p.pos, "expected expression, found %q", p.describe())
}

func (p *parser) parseList() (*Node, error) {
	n := &Node{Kind: KindList, Start: p.pos}
	p.advance() // [
	for !p.at(RBrack) {
		if p.at(EOF) {
			return nil, p.errorf(p.pos, "expected ']' closing list")
		}
		// List elements bind tighter than application.
		elem, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, elem)
	}
	p.advance() // ]
	n.End = p.pos
	return n, nil
}

func (p *parser) parseAttrSet(rec bool) (*Node, error) {
	n := &Node{Kind: KindAttrSet, Rec: rec, Start: p.pos}
	if _, err := p.expect(LBrace, "'{'"); err != nil {
		return nil, err
	}
	for !p.at(RBrace) {
		if p.at(EOF) {
			return nil, p.errorf(p.pos, "expected '}' closing attribute set")
		}
		binding, err := p.parseBinding()
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, binding)
	}
	p.advance() // }
	n.End = p.pos
	return n, nil
}

// parseBinding parses one `attrpath = expr;` or `inherit ...;` binding.
func (p *parser) parseBinding() (*Node, error) {
	start := p.pos

	if p.atKeyword("inherit") {
		n := &Node{Kind: KindInherit, Start: start}
		p.advance()
		if p.at(LParen) {
			p.advance()
			from, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			n.Children = append(n.Children, from)
			if _, err := p.expect(RParen, "')' closing inherit source"); err != nil {
				return nil, err
			}
		}
		for p.at(Ident) || p.at(Str) {
			p.advance()
		}
		if _, err := p.expect(Semi, "';' after inherit"); err != nil {
			return nil, err
		}
		n.End = p.pos
		return n, nil
	}

	name, dynamic, err := p.parseAttrPath()
	if err != nil {
		return nil, err
	}
	_ = dynamic
	if _, err := p.expect(Assign, "'=' in binding"); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Semi, "';' after binding"); err != nil {
		return nil, err
	}
	return &Node{
		Kind:     KindBinding,
		Start:    start,
		End:      p.pos,
		Name:     name,
		Value:    value,
		Children: []*Node{value},
	}, nil
}

// parseAttrPath parses a dotted attribute path. dynamic reports whether
// any segment is computed.
func (p *parser) parseAttrPath() ([]AttrName, bool, error) {
	var names []AttrName
	dynamic := false
	for {
		seg, err := p.parseAttrName()
		if err != nil {
			return nil, false, err
		}
		names = append(names, seg)
		if seg.Dynamic {
			dynamic = true
		}
		if !p.at(Dot) {
			return names, dynamic, nil
		}
		p.advance()
	}
}

func (p *parser) parseAttrName() (AttrName, error) {
	switch {
	case p.at(Ident):
		return AttrName{Text: p.advance().Text}, nil

	case p.at(Keyword) && p.peek().Text == "or":
		// `or` is a valid attribute name outside select position.
		return AttrName{Text: p.advance().Text}, nil

	case p.at(Str):
		text := p.advance().Text
		if strings.Contains(text, "${") {
			return AttrName{Dynamic: true}, nil
		}
		return AttrName{Text: unquoteString(text)}, nil

	case p.at(DollarBrace):
		p.advance()
		if _, err := p.parseExpr(); err != nil {
			return AttrName{}, err
		}
		if _, err := p.expect(RBrace, "'}' closing interpolated attribute"); err != nil {
			return AttrName{}, err
		}
		return AttrName{Dynamic: true}, nil
	}
	return AttrName{}, p.errorf(p.pos, "expected attribute name, found %q", p.describe())
}

// unquoteString decodes a double-quoted string token's static content.
func unquoteString(text string) string {
	body := strings.TrimSuffix(strings.TrimPrefix(text, `"`), `"`)
	var sb strings.Builder
	for i := 0; i < len(body); i++ {
		if body[i] == '\\' && i+1 < len(body) {
			i++
			switch body[i] {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			default:
				sb.WriteByte(body[i])
			}
			continue
		}
		sb.WriteByte(body[i])
	}
	return sb.String()
}
