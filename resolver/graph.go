/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package resolver

import (
	"errors"
	"fmt"
)

// ErrCircularImport indicates the import links between files form a cycle.
var ErrCircularImport = errors.New("circular import detected")

// ImportGraph is a directed graph of file import relationships. Files
// never share CST ownership; edges are named links only, so a cycle here
// is reported rather than followed.
type ImportGraph struct {
	imports   map[string][]string
	importers map[string][]string
	nodes     map[string]bool
}

// NewImportGraph creates an empty import graph.
func NewImportGraph() *ImportGraph {
	return &ImportGraph{
		imports:   make(map[string][]string),
		importers: make(map[string][]string),
		nodes:     make(map[string]bool),
	}
}

// AddFile registers a file with no imports yet.
func (g *ImportGraph) AddFile(path string) {
	g.nodes[path] = true
}

// AddImport records that from imports to.
func (g *ImportGraph) AddImport(from, to string) {
	g.nodes[from] = true
	g.nodes[to] = true
	g.imports[from] = append(g.imports[from], to)
	g.importers[to] = append(g.importers[to], from)
}

// Imports returns the files imported by path.
func (g *ImportGraph) Imports(path string) []string {
	if deps, ok := g.imports[path]; ok {
		return deps
	}
	return []string{}
}

// Importers returns the files importing path.
func (g *ImportGraph) Importers(path string) []string {
	if deps, ok := g.importers[path]; ok {
		return deps
	}
	return []string{}
}

// HasCycle returns true if the graph contains a circular import.
func (g *ImportGraph) HasCycle() bool {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)

	for node := range g.nodes {
		if g.hasCycleDFS(node, visited, recStack) {
			return true
		}
	}
	return false
}

func (g *ImportGraph) hasCycleDFS(node string, visited, recStack map[string]bool) bool {
	if recStack[node] {
		return true
	}
	if visited[node] {
		return false
	}

	visited[node] = true
	recStack[node] = true

	for _, dep := range g.imports[node] {
		if g.hasCycleDFS(dep, visited, recStack) {
			return true
		}
	}

	recStack[node] = false
	return false
}

// FindCycle returns the cycle path if one exists, or nil if no cycle.
func (g *ImportGraph) FindCycle() []string {
	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	path := []string{}

	for node := range g.nodes {
		if cycle := g.findCycleDFS(node, visited, recStack, path); cycle != nil {
			return cycle
		}
	}
	return nil
}

func (g *ImportGraph) findCycleDFS(node string, visited, recStack map[string]bool, path []string) []string {
	if recStack[node] {
		cycleStart := -1
		for i, n := range path {
			if n == node {
				cycleStart = i
				break
			}
		}
		if cycleStart == -1 {
			panic(fmt.Sprintf("cycle detection invariant violated: node %q in recStack but not in path %v", node, path))
		}
		return append(path[cycleStart:], node)
	}
	if visited[node] {
		return nil
	}

	visited[node] = true
	recStack[node] = true
	path = append(path, node)

	for _, dep := range g.imports[node] {
		if cycle := g.findCycleDFS(dep, visited, recStack, path); cycle != nil {
			return cycle
		}
	}

	recStack[node] = false
	return nil
}
