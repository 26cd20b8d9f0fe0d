/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package resolver maps parsed Nix module files to option paths. It
// records every binding site for each dotted attribute path, collects
// import links for the session to follow, and detects import cycles.
package resolver

import (
	"bennypowers.dev/nixedit/internal/logger"
	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/syntax"
)

// Link is a deferred reference to another module file, produced by an
// `imports` binding. Target is the path literal exactly as written; the
// session resolves it against the importing file's directory.
type Link struct {
	// From is the path of the importing file.
	From string
	// Target is the import path literal text.
	Target string
}

// Mapping is the result of resolving one file: every option path bound
// in it, with all of its binding sites, plus outgoing import links.
type Mapping struct {
	// File is the path of the resolved file.
	File string
	// Sites maps dotted option paths to their binding sites, in
	// source order. More than one site for a path means the path is
	// ambiguously defined in this file.
	Sites map[string][]options.Site
	// Links are the file's imports, in source order.
	Links []Link
	// Dynamic counts bindings skipped because an attribute path
	// segment is computed at evaluation time.
	Dynamic int
}

// Resolve walks file's module body and records a binding site for every
// statically-named attribute path. Nested attribute sets extend the
// path; dotted binding names contribute one segment per name. Bindings
// with interpolated path segments cannot be resolved statically and are
// skipped with a warning.
func Resolve(file *syntax.File, base options.Path) (*Mapping, error) {
	body := file.ModuleBody()
	if body == nil {
		return nil, &syntax.ParseError{
			File:    file.Path,
			Line:    1,
			Column:  1,
			Message: "file does not evaluate to a module attribute set",
		}
	}
	r := &walker{file: file, mapping: &Mapping{
		File:  file.Path,
		Sites: map[string][]options.Site{},
	}}
	r.attrSet(body, base, true)
	return r.mapping, nil
}

type walker struct {
	file    *syntax.File
	mapping *Mapping
}

// attrSet visits every binding of set under path. top is true only for
// the module body itself, where `imports`, `config` and `options`
// carry module-system meaning.
func (r *walker) attrSet(set *syntax.Node, path options.Path, top bool) {
	for _, binding := range set.Children {
		if binding.Kind == syntax.KindInherit {
			// Inherited names copy lexical scope, not option
			// values; nothing to record.
			continue
		}
		r.binding(binding, path, top)
	}
}

func (r *walker) binding(binding *syntax.Node, path options.Path, top bool) {
	for _, seg := range binding.Name {
		if seg.Dynamic {
			r.mapping.Dynamic++
			line, col := r.file.PositionAt(r.file.TextStart(binding.Start))
			logger.Warn("%s:%d:%d: skipping binding with computed attribute name",
				r.file.Path, line, col)
			return
		}
	}

	if top && len(binding.Name) == 1 {
		switch binding.Name[0].Text {
		case "imports":
			r.imports(binding)
			return
		case "options":
			// Option declarations, not settings.
			logger.Debug("%s: skipping options declaration block", r.file.Path)
			return
		case "config":
			// `config = { ... };` wraps the settings without
			// contributing a path segment.
			for _, inner := range valueSets(r.file, binding.Value) {
				r.attrSet(inner, path, true)
			}
			return
		}
	}

	full := path
	for _, seg := range binding.Name {
		full = full.Child(seg.Text)
	}

	sets := valueSets(r.file, binding.Value)
	if len(sets) == 0 {
		key := full.String()
		r.mapping.Sites[key] = append(r.mapping.Sites[key], options.Site{
			File:    r.file.Path,
			Binding: binding,
		})
		return
	}
	for _, inner := range sets {
		r.attrSet(inner, full, false)
	}
}

// imports collects the path literals of an `imports = [ ... ];` binding
// as deferred links.
func (r *walker) imports(binding *syntax.Node) {
	list := unwrap(r.file, binding.Value)
	if list == nil || list.Kind != syntax.KindList {
		logger.Warn("%s: imports is not a list literal, skipping", r.file.Path)
		return
	}
	for _, elem := range list.Children {
		target := importTarget(r.file, elem)
		if target == "" {
			line, col := r.file.PositionAt(r.file.TextStart(elem.Start))
			logger.Warn("%s:%d:%d: skipping non-literal import", r.file.Path, line, col)
			continue
		}
		r.mapping.Links = append(r.mapping.Links, Link{From: r.file.Path, Target: target})
	}
}

// importTarget returns the literal path text of an import element, or
// "" when the element is computed.
func importTarget(file *syntax.File, elem *syntax.Node) string {
	n := unwrap(file, elem)
	if n == nil || n.Kind != syntax.KindLiteral {
		return ""
	}
	tok := file.Tokens[n.Start]
	if tok.Kind != syntax.Path {
		return ""
	}
	return tok.Text
}

// valueSets returns the attribute sets a binding value contributes
// bindings through, unwrapping parentheses, merges, and the
// module-system combinators mkMerge and mkIf. A value that is not shaped
// like an attribute set yields nil, meaning the binding is a leaf site.
func valueSets(file *syntax.File, value *syntax.Node) []*syntax.Node {
	n := unwrap(file, value)
	if n == nil {
		return nil
	}
	switch n.Kind {
	case syntax.KindAttrSet:
		if n.Rec {
			// rec sets can reference their own names; treat the
			// whole set as an opaque value.
			return nil
		}
		return []*syntax.Node{n}

	case syntax.KindBinary:
		if !n.IsMerge() {
			return nil
		}
		left := valueSets(file, n.Children[0])
		right := valueSets(file, n.Children[1])
		if left == nil && right == nil {
			return nil
		}
		return append(left, right...)

	case syntax.KindApply:
		switch callee(file, n.Children[0]) {
		case "mkMerge":
			list := unwrap(file, n.Children[1])
			if list == nil || list.Kind != syntax.KindList {
				return nil
			}
			var sets []*syntax.Node
			for _, elem := range list.Children {
				sets = append(sets, valueSets(file, elem)...)
			}
			return sets
		case "mkIf":
			// mkIf cond set: the condition is the inner apply's
			// argument, the set is ours.
			return valueSets(file, n.Children[1])
		}
		return nil
	}
	return nil
}

// Descend finds the deepest attribute set in file reachable along
// path, following nested sets and dotted binding names exactly as
// Resolve does. It returns that set together with the number of leading
// path segments consumed; (body, 0) when no binding matches a prefix,
// and (nil, 0) when the file has no module body.
func Descend(file *syntax.File, path options.Path) (*syntax.Node, int) {
	body := file.ModuleBody()
	if body == nil {
		return nil, 0
	}
	sets := []*syntax.Node{body}
	// A top-level `config = { ... };` wraps the settings without
	// contributing a path segment.
	for _, binding := range body.Children {
		if binding.Kind == syntax.KindBinding &&
			len(binding.Name) == 1 && !binding.Name[0].Dynamic &&
			binding.Name[0].Text == "config" {
			sets = append(sets, valueSets(file, binding.Value)...)
		}
	}

	best, depth := body, 0
	for {
		set, consumed := descendStep(file, sets, path[depth:])
		if set == nil {
			return best, depth
		}
		best, depth = set, depth+consumed
		sets = []*syntax.Node{set}
	}
}

// descendStep finds the first binding across sets whose static name is
// a proper prefix of rest and whose value is an attribute set.
func descendStep(file *syntax.File, sets []*syntax.Node, rest options.Path) (*syntax.Node, int) {
	for _, set := range sets {
		for _, binding := range set.Children {
			if binding.Kind != syntax.KindBinding {
				continue
			}
			if len(binding.Name) == 0 || len(binding.Name) >= len(rest) {
				continue
			}
			match := true
			for i, seg := range binding.Name {
				if seg.Dynamic || seg.Text != rest[i] {
					match = false
					break
				}
			}
			if !match {
				continue
			}
			inner := valueSets(file, binding.Value)
			if len(inner) == 0 {
				continue
			}
			return inner[0], len(binding.Name)
		}
	}
	return nil, 0
}

// unwrap strips parentheses and expression headers (let, with, assert)
// down to the value they yield.
func unwrap(file *syntax.File, n *syntax.Node) *syntax.Node {
	for n != nil {
		switch n.Kind {
		case syntax.KindParen:
			n = n.Children[0]
		case syntax.KindLet, syntax.KindWith, syntax.KindAssert:
			n = n.Children[len(n.Children)-1]
		default:
			return n
		}
	}
	return nil
}

// callee returns the trailing identifier of a function expression, so
// that lib.mkMerge and mkMerge are recognized alike.
func callee(file *syntax.File, fn *syntax.Node) string {
	switch fn.Kind {
	case syntax.KindParen:
		return callee(file, fn.Children[0])
	case syntax.KindApply:
		return callee(file, fn.Children[0])
	case syntax.KindIdent, syntax.KindSelect:
		for i := fn.End - 1; i >= fn.Start; i-- {
			if file.Tokens[i].Kind == syntax.Ident {
				return file.Tokens[i].Text
			}
		}
	}
	return ""
}
