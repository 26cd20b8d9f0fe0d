/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package edit mutates parsed configuration files through typed,
// reversible operations. Every mutation is a byte-range splice recorded
// with its before and after text, so the ledger can invert it exactly.
package edit

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/resolver"
	"bennypowers.dev/nixedit/syntax"
)

// Operation is one reversible edit: replacing len(Before) bytes at
// Offset in File with After. Applying and reverting are exact inverses.
type Operation struct {
	// Seq orders operations within a session.
	Seq int
	// Path is the option the edit targets.
	Path options.Path
	// File is the path of the mutated file.
	File string
	// Offset is the byte offset of the splice.
	Offset int
	// Before is the replaced text, empty for an insertion.
	Before string
	// After is the replacement text, empty for a removal.
	After string
}

// Engine performs edits against a set of parsed files and the option
// tree built over them. It is not safe for concurrent use; the session
// serializes access.
type Engine struct {
	files map[string]*syntax.File
	tree  *options.Tree
	entry string
	seq   int
}

// NewEngine returns an engine over files and tree. entry names the file
// that receives brand-new bindings when no existing ancestor scope is
// found.
func NewEngine(files map[string]*syntax.File, tree *options.Tree, entry string) *Engine {
	return &Engine{files: files, tree: tree, entry: entry}
}

// SetValue sets path to the semantic value v. The value must satisfy
// the option's declared type. A failed call leaves every file and the
// tree exactly as before.
func (e *Engine) SetValue(path options.Path, v options.Value) (*Operation, error) {
	node, err := e.tree.Lookup(path)
	if err != nil {
		return nil, err
	}
	if node.ReadOnly {
		return nil, fmt.Errorf("%s: %w", path, options.ErrReadOnly)
	}
	if err := node.Type.Check(v); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e.setText(node, v.Nix())
}

// SetRawExpression sets path to a literal expression, bypassing type
// checking. The fragment must parse as a value expression.
func (e *Engine) SetRawExpression(path options.Path, expr string) (*Operation, error) {
	node, err := e.tree.Lookup(path)
	if err != nil {
		return nil, err
	}
	if node.ReadOnly {
		return nil, fmt.Errorf("%s: %w", path, options.ErrReadOnly)
	}
	expr = strings.TrimSpace(expr)
	if _, err := syntax.ParseFragment(expr); err != nil {
		return nil, err
	}
	return e.setText(node, expr)
}

// Clear removes path's binding entirely. Enclosing attribute sets left
// empty by the removal are kept as-is.
func (e *Engine) Clear(path options.Path) (*Operation, error) {
	node, err := e.tree.Lookup(path)
	if err != nil {
		return nil, err
	}
	if !node.IsSet() {
		return nil, fmt.Errorf("%s: %w", path, options.ErrNotSet)
	}
	if len(node.Sites) > 1 {
		return nil, fmt.Errorf("%s has %d definition sites: %w",
			path, len(node.Sites), options.ErrAmbiguousDefinition)
	}
	site := node.Sites[0]
	file := e.files[site.File]
	start, end := file.NodeOuterSpan(site.Binding)
	before := file.Render()[start:end]
	if err := file.SpliceBytes(start, end, ""); err != nil {
		return nil, err
	}
	e.seq++
	return &Operation{
		Seq:    e.seq,
		Path:   path,
		File:   site.File,
		Offset: start,
		Before: before,
	}, nil
}

// setText replaces the value of node's single definition site, or
// synthesizes a new binding when the option is unset.
func (e *Engine) setText(node *options.Node, text string) (*Operation, error) {
	switch len(node.Sites) {
	case 0:
		return e.insert(node.Path, text)
	case 1:
		site := node.Sites[0]
		file := e.files[site.File]
		start, end := file.NodeSpan(site.Binding.Value)
		before := file.Render()[start:end]
		if err := file.SpliceBytes(start, end, text); err != nil {
			return nil, err
		}
		e.seq++
		return &Operation{
			Seq:    e.seq,
			Path:   node.Path,
			File:   site.File,
			Offset: start,
			Before: before,
			After:  text,
		}, nil
	default:
		return nil, fmt.Errorf("%s has %d definition sites: %w",
			node.Path, len(node.Sites), options.ErrAmbiguousDefinition)
	}
}

// insert synthesizes a binding for an unset option. The insertion point
// is the end of the deepest attribute set already on the option's path,
// searched across all managed files; ties break to the
// lexicographically smallest file path, and when no file binds any
// ancestor the entry file's module body is used.
func (e *Engine) insert(path options.Path, text string) (*Operation, error) {
	name, chosen, set := e.insertionPoint(path)
	if set == nil {
		return nil, fmt.Errorf("%s: no file accepts new bindings: %w",
			path, options.ErrUnmanagedFile)
	}
	file := e.files[chosen]
	closeIdx := set.End - 1
	offset := file.TriviaStart(closeIdx)
	binding := name + " = " + text + ";"

	closeTrivia := file.Tokens[closeIdx].Trivia
	var fragment string
	if strings.Contains(closeTrivia, "\n") {
		fragment = "\n" + setIndent(file, set) + binding
	} else {
		// One-line set; keep it on one line.
		fragment = " " + binding
	}
	if err := file.SpliceBytes(offset, offset, fragment); err != nil {
		return nil, err
	}
	e.seq++
	return &Operation{
		Seq:    e.seq,
		Path:   path,
		File:   chosen,
		Offset: offset,
		After:  fragment,
	}, nil
}

// insertionPoint picks the file and attribute set to receive a new
// binding, returning the dotted name the binding should carry there.
func (e *Engine) insertionPoint(path options.Path) (name, file string, set *syntax.Node) {
	paths := make([]string, 0, len(e.files))
	for p := range e.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	// Only files binding at least one ancestor segment qualify; the
	// entry file is the fallback otherwise.
	bestDepth := 0
	for _, p := range paths {
		s, depth := resolver.Descend(e.files[p], path)
		if s == nil {
			continue
		}
		if depth > bestDepth {
			bestDepth, file, set = depth, p, s
		}
	}
	if set == nil && e.entry != "" {
		if entry := e.files[e.entry]; entry != nil {
			file, set, bestDepth = e.entry, entry.ModuleBody(), 0
		}
	}
	if set == nil {
		return "", "", nil
	}
	name = attrPathText(path[bestDepth:])
	return name, file, set
}

// setIndent guesses the indentation for a new binding in set: the
// indent of its last binding, or one level deeper than its closing
// brace when the set is empty.
func setIndent(file *syntax.File, set *syntax.Node) string {
	var last *syntax.Node
	for _, child := range set.Children {
		last = child
	}
	if last != nil {
		trivia := file.Tokens[last.Start].Trivia
		if i := strings.LastIndexByte(trivia, '\n'); i >= 0 {
			return trivia[i+1:]
		}
	}
	closeTrivia := file.Tokens[set.End-1].Trivia
	indent := ""
	if i := strings.LastIndexByte(closeTrivia, '\n'); i >= 0 {
		indent = closeTrivia[i+1:]
	}
	return indent + "  "
}

var identPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_'-]*$`)

// attrPathText renders path segments as a dotted attribute path,
// quoting segments that are not plain identifiers.
func attrPathText(segs options.Path) string {
	parts := make([]string, len(segs))
	for i, seg := range segs {
		if identPattern.MatchString(seg) {
			parts[i] = seg
		} else {
			parts[i] = `"` + strings.ReplaceAll(seg, `"`, `\"`) + `"`
		}
	}
	return strings.Join(parts, ".")
}

// Apply re-applies a recorded operation, verifying the file still
// contains the expected before-text at the recorded offset.
func (e *Engine) Apply(op *Operation) error {
	return e.splice(op.File, op.Offset, op.Before, op.After)
}

// Revert undoes a recorded operation, restoring the before-text.
func (e *Engine) Revert(op *Operation) error {
	return e.splice(op.File, op.Offset, op.After, op.Before)
}

func (e *Engine) splice(path string, offset int, from, to string) error {
	file := e.files[path]
	if file == nil {
		return fmt.Errorf("%s: %w", path, options.ErrUnmanagedFile)
	}
	text := file.Render()
	if offset < 0 || offset+len(from) > len(text) || text[offset:offset+len(from)] != from {
		return fmt.Errorf("%s: text at offset %d no longer matches recorded edit", path, offset)
	}
	return file.SpliceBytes(offset, offset+len(from), to)
}

// Render returns the current text of a managed file.
func (e *Engine) Render(path string) (string, error) {
	file := e.files[path]
	if file == nil {
		return "", fmt.Errorf("%s: %w", path, options.ErrUnmanagedFile)
	}
	return file.Render(), nil
}

// Files lists the managed file paths in sorted order.
func (e *Engine) Files() []string {
	paths := make([]string, 0, len(e.files))
	for p := range e.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
