/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package options

import (
	"fmt"
	"sort"

	"bennypowers.dev/nixedit/internal/logger"
	"bennypowers.dev/nixedit/metadata"
)

// Tree is the hierarchical option model: every option known to the
// metadata feed, merged with the definition sites resolved from the
// configuration files. It is rebuilt wholesale on reload; between
// reloads only definition sites change.
type Tree struct {
	nodes    map[string]*Node
	children map[string]map[string]bool
}

// Build merges a metadata feed snapshot with resolved binding sites.
// Paths bound in configuration files but absent from the feed become
// "unknown option" nodes with TypeUnsupported so user data is never
// silently dropped.
func Build(feed *metadata.Feed, sites map[string][]Site) *Tree {
	t := &Tree{
		nodes:    make(map[string]*Node),
		children: make(map[string]map[string]bool),
	}

	if feed != nil {
		for name, entry := range feed.Options {
			path := ParsePath(name)
			node := &Node{
				Path:        path,
				Type:        ParseTypeString(entry.Type),
				TypeString:  entry.Type,
				Description: entry.Description,
				ReadOnly:    entry.ReadOnly,
				DeclaredIn:  entry.Declarations,
				Known:       true,
			}
			if entry.Default != nil {
				node.Default = entry.Default.Text
			}
			if entry.Example != nil {
				node.Example = entry.Example.Text
			}
			t.insert(node)
		}
	}

	t.SetSites(sites)
	return t
}

// SetSites replaces all definition sites. Paths without a feed entry are
// retained as unknown options.
func (t *Tree) SetSites(sites map[string][]Site) {
	for _, node := range t.nodes {
		node.Sites = nil
	}
	for name, siteList := range sites {
		path := ParsePath(name)
		node, ok := t.nodes[path.String()]
		if !ok {
			logger.Warn("%s is not a known option; retained as unsupported", path)
			node = &Node{Path: path, Type: &Type{Kind: TypeUnsupported}}
			t.insert(node)
		}
		if node.Branch {
			// A configured value at a branch path shadows the branch.
			node.Branch = false
			if node.Type == nil {
				node.Type = &Type{Kind: TypeUnsupported}
			}
		}
		node.Sites = append(node.Sites, siteList...)
	}
}

// insert adds a node and branch entries for its ancestors.
func (t *Tree) insert(node *Node) {
	key := node.Path.String()
	if existing, ok := t.nodes[key]; ok && !existing.Branch {
		// Feed entries win over previously synthesized branches.
		existing.Type = node.Type
		existing.TypeString = node.TypeString
		existing.Description = node.Description
		existing.Default = node.Default
		existing.Example = node.Example
		existing.DeclaredIn = node.DeclaredIn
		existing.ReadOnly = node.ReadOnly
		existing.Known = node.Known
		return
	}
	t.nodes[key] = node

	for i := len(node.Path); i > 0; i-- {
		parent := node.Path[:i-1]
		parentKey := parent.String()
		seg := node.Path[i-1]
		if t.children[parentKey] == nil {
			t.children[parentKey] = make(map[string]bool)
		}
		t.children[parentKey][seg] = true
		if _, ok := t.nodes[parentKey]; !ok && len(parent) > 0 {
			t.nodes[parentKey] = &Node{
				Path:   append(Path(nil), parent...),
				Type:   &Type{Kind: TypeAttrsOf},
				Branch: true,
			}
		}
	}
}

// Lookup returns the node for a path. Unknown paths report ErrNotFound.
func (t *Tree) Lookup(path Path) (*Node, error) {
	node, ok := t.nodes[path.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return node, nil
}

// Children returns the sorted segment names present one level below path.
func (t *Tree) Children(path Path) []string {
	set := t.children[path.String()]
	segs := make([]string, 0, len(set))
	for seg := range set {
		segs = append(segs, seg)
	}
	sort.Strings(segs)
	return segs
}

// Len returns the number of nodes, branch nodes included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Walk visits every non-branch node in path order.
func (t *Tree) Walk(visit func(*Node)) {
	keys := make([]string, 0, len(t.nodes))
	for key := range t.nodes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if node := t.nodes[key]; !node.Branch {
			visit(node)
		}
	}
}
