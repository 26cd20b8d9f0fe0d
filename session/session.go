/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package session owns one configuration-editing session: the metadata
// feed snapshot, the parsed files, the option tree, the edit engine and
// the ledger, all behind a single exclusive lock. Loading is the only
// long-running operation and can run as cancellable background work.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"bennypowers.dev/nixedit/edit"
	"bennypowers.dev/nixedit/fs"
	"bennypowers.dev/nixedit/internal/logger"
	"bennypowers.dev/nixedit/ledger"
	"bennypowers.dev/nixedit/metadata"
	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/resolver"
	"bennypowers.dev/nixedit/syntax"
)

// ErrNotLoaded indicates an operation was attempted before Load
// completed.
var ErrNotLoaded = errors.New("session is not loaded")

// Session is a single-writer editing session over one configuration
// root. All methods serialize on one lock; no CST is ever mutated
// concurrently.
type Session struct {
	filesystem fs.FileSystem
	entry      string
	feedPath   string
	extra      []string

	mu        sync.Mutex
	loaded    bool
	feed      *metadata.Feed
	files     map[string]*syntax.File
	raw       map[string]string
	graph     *resolver.ImportGraph
	tree      *options.Tree
	engine    *edit.Engine
	ledger    *ledger.Ledger
	listeners []func()
}

// New returns an unloaded session rooted at the entry module file,
// reading the metadata feed from feedPath.
func New(filesystem fs.FileSystem, entry, feedPath string) *Session {
	return &Session{
		filesystem: filesystem,
		entry:      filepath.Clean(entry),
		feedPath:   feedPath,
	}
}

// IncludeFiles adds module files to manage beyond those reached through
// imports. Takes effect on the next Load.
func (s *Session) IncludeFiles(paths ...string) {
	s.mu.Lock()
	for _, p := range paths {
		s.extra = append(s.extra, filepath.Clean(p))
	}
	s.mu.Unlock()
}

// Load reads the metadata feed, parses the entry file and every module
// it transitively imports, and builds the option tree. It replaces any
// previously loaded state wholesale.
func (s *Session) Load(ctx context.Context) error {
	feed, err := metadata.Retrieve(ctx, s.filesystem, s.feedPath)
	if err != nil {
		return fmt.Errorf("loading metadata feed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	files := map[string]*syntax.File{}
	raw := map[string]string{}
	graph := resolver.NewImportGraph()

	s.mu.Lock()
	queue := append([]string{s.entry}, s.extra...)
	s.mu.Unlock()
	visited := map[string]bool{}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := queue[0]
		queue = queue[1:]
		if visited[path] {
			continue
		}
		visited[path] = true

		data, err := s.filesystem.ReadFile(path)
		if err != nil {
			if path == s.entry {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			logger.Warn("unresolved import %s: %v", path, err)
			continue
		}
		file, err := syntax.Parse(path, string(data))
		if err != nil {
			// Unparsable files stay visible as raw text but
			// accept no edits.
			logger.Warn("%v; treating file as read-only", err)
			raw[path] = string(data)
			continue
		}
		files[path] = file
		graph.AddFile(path)

		mapping, err := resolver.Resolve(file, nil)
		if err != nil {
			logger.Warn("%v; treating file as read-only", err)
			delete(files, path)
			raw[path] = string(data)
			continue
		}
		for _, link := range mapping.Links {
			target := filepath.Clean(filepath.Join(filepath.Dir(link.From), link.Target))
			graph.AddImport(link.From, target)
			queue = append(queue, target)
		}
	}

	if graph.HasCycle() {
		logger.Warn("import cycle detected: %v", graph.FindCycle())
	}

	tree := options.Build(feed, resolveAll(files))
	engine := edit.NewEngine(files, tree, s.entry)
	led := ledger.New(engine)
	for path, file := range files {
		led.SetBaseline(path, file.Render())
	}

	s.mu.Lock()
	s.loaded = true
	s.feed = feed
	s.files = files
	s.raw = raw
	s.graph = graph
	s.tree = tree
	s.engine = engine
	s.ledger = led
	s.mu.Unlock()
	s.notify()
	return nil
}

// LoadAsync runs Load in the background and invokes done with its
// result. Cancel ctx to abandon the load; no partial state is
// installed.
func (s *Session) LoadAsync(ctx context.Context, done func(error)) {
	go func() {
		done(s.Load(ctx))
	}()
}

// Reload discards all in-memory state, including edit history, and
// loads fresh from disk.
func (s *Session) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// resolveAll gathers every binding site across files, visiting files in
// sorted order so sites for a path listed in multiple files keep a
// deterministic order.
func resolveAll(files map[string]*syntax.File) map[string][]options.Site {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	all := map[string][]options.Site{}
	for _, p := range paths {
		mapping, err := resolver.Resolve(files[p], nil)
		if err != nil {
			continue
		}
		for key, sites := range mapping.Sites {
			all[key] = append(all[key], sites...)
		}
	}
	return all
}

// refreshSites re-resolves every file and repoints the tree's
// definition sites. Callers hold the lock.
func (s *Session) refreshSites() {
	s.tree.SetSites(resolveAll(s.files))
}

// Subscribe registers fn to be called after every change to the tree or
// the ledger. Callbacks run outside the session lock.
func (s *Session) Subscribe(fn func()) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) notify() {
	s.mu.Lock()
	listeners := make([]func(), len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// Lookup returns the option node at path.
func (s *Session) Lookup(path options.Path) (*options.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return s.tree.Lookup(path)
}

// Children returns the child segments present under path, sorted.
func (s *Session) Children(path options.Path) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return s.tree.Children(path), nil
}

// Walk visits every option node in path order.
func (s *Session) Walk(visit func(*options.Node)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return ErrNotLoaded
	}
	s.tree.Walk(visit)
	return nil
}

// SetValue sets path to the semantic value v.
func (s *Session) SetValue(path options.Path, v options.Value) (*edit.Operation, error) {
	return s.mutate(func() (*edit.Operation, error) {
		return s.engine.SetValue(path, v)
	})
}

// SetRawExpression sets path to a literal expression, bypassing type
// checking.
func (s *Session) SetRawExpression(path options.Path, expr string) (*edit.Operation, error) {
	return s.mutate(func() (*edit.Operation, error) {
		return s.engine.SetRawExpression(path, expr)
	})
}

// Clear removes path's binding.
func (s *Session) Clear(path options.Path) (*edit.Operation, error) {
	return s.mutate(func() (*edit.Operation, error) {
		return s.engine.Clear(path)
	})
}

func (s *Session) mutate(op func() (*edit.Operation, error)) (*edit.Operation, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	result, err := op()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.ledger.Record(result)
	s.refreshSites()
	s.mu.Unlock()
	s.notify()
	return result, nil
}

// Undo reverts the newest edit. Returns (nil, nil) when the history is
// empty.
func (s *Session) Undo() (*edit.Operation, error) {
	return s.step((*ledger.Ledger).Undo)
}

// Redo re-applies the newest undone edit. Returns (nil, nil) when
// there is nothing to redo.
func (s *Session) Redo() (*edit.Operation, error) {
	return s.step((*ledger.Ledger).Redo)
}

func (s *Session) step(move func(*ledger.Ledger) (*edit.Operation, error)) (*edit.Operation, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return nil, ErrNotLoaded
	}
	op, err := move(s.ledger)
	if err != nil || op == nil {
		s.mu.Unlock()
		return op, err
	}
	s.refreshSites()
	s.mu.Unlock()
	s.notify()
	return op, nil
}

// Pending lists the fragment changes not yet committed.
func (s *Session) Pending() ([]ledger.Diff, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	return s.ledger.Pending(), nil
}

// Commit writes every dirty file to disk atomically. A failure on one
// file does not abort the others.
func (s *Session) Commit() error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	err := s.ledger.Commit(s.filesystem)
	s.mu.Unlock()
	s.notify()
	return err
}

// Render returns the current rendered text of a managed file.
func (s *Session) Render(path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return "", ErrNotLoaded
	}
	if raw, ok := s.raw[path]; ok {
		return raw, nil
	}
	return s.engine.Render(path)
}

// CurrentText returns the source text of path's value at its first
// definition site, or "" when the option is unset.
func (s *Session) CurrentText(path options.Path) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return "", ErrNotLoaded
	}
	node, err := s.tree.Lookup(path)
	if err != nil {
		return "", err
	}
	if !node.IsSet() {
		return "", nil
	}
	site := node.Sites[0]
	file := s.files[site.File]
	if file == nil {
		return "", nil
	}
	return file.NodeText(site.Binding.Value), nil
}

// Unmanaged lists the files that failed to parse and are held as
// read-only raw text, sorted.
func (s *Session) Unmanaged() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	paths := make([]string, 0, len(s.raw))
	for p := range s.raw {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}

// ImportCycle returns one import cycle among the loaded files, or nil
// when the import graph is acyclic.
func (s *Session) ImportCycle() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	if !s.graph.HasCycle() {
		return nil, nil
	}
	return s.graph.FindCycle(), nil
}

// Files lists the managed file paths, parsed and raw alike, sorted.
func (s *Session) Files() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil, ErrNotLoaded
	}
	paths := make([]string, 0, len(s.files)+len(s.raw))
	for p := range s.files {
		paths = append(paths, p)
	}
	for p := range s.raw {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths, nil
}
