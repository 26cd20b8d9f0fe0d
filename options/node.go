/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package options

import "bennypowers.dev/nixedit/syntax"

// Site is one definition site of an option: the binding node within a
// parsed file. Node pointers are valid until the owning file is next
// mutated; the session refreshes sites after every edit.
type Site struct {
	// File is the path of the file containing the binding.
	File string

	// Binding is the attribute-binding CST node.
	Binding *syntax.Node
}

// Node is one option in the tree. Nodes persist across edits: clearing a
// binding empties Sites but the node remains, representing an unset
// option with only its default.
type Node struct {
	// Path is the option's unique address.
	Path Path

	// Type is the declared type.
	Type *Type

	// TypeString is the raw type description from the metadata feed.
	TypeString string

	// Description documents the option.
	Description string

	// Default is the default value's expression text, empty if none.
	Default string

	// Example is the example expression text, empty if none.
	Example string

	// DeclaredIn lists the module files declaring the option
	// (informational, from the metadata feed).
	DeclaredIn []string

	// ReadOnly marks options that must not be edited.
	ReadOnly bool

	// Known reports whether the option appears in the metadata feed.
	// Unknown options discovered in configuration files are retained
	// with TypeUnsupported rather than dropped.
	Known bool

	// Branch marks intermediate nodes synthesized for path components
	// that are not options themselves.
	Branch bool

	// Sites are the current definition sites, empty when unset.
	Sites []Site
}

// IsSet reports whether the option currently has at least one
// definition site.
func (n *Node) IsSet() bool {
	return len(n.Sites) > 0
}
