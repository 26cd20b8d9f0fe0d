/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package options provides the unified option model: paths, types,
// semantic values, and the tree merging the metadata feed with the
// bindings resolved from configuration files.
package options

import "strings"

// Path is an ordered sequence of attribute-name segments addressing one
// option in the global namespace (e.g., ["services", "foo", "enable"]).
type Path []string

// ParsePath splits a dotted option path. Quoted segments keep their dots
// (e.g., `networking.hosts."127.0.0.1"`).
func ParsePath(s string) Path {
	var segs []string
	var cur strings.Builder
	quoted := false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			quoted = !quoted
		case c == '.' && !quoted:
			segs = append(segs, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 || len(segs) > 0 {
		segs = append(segs, cur.String())
	}
	return Path(segs)
}

// String returns the dotted form. Segments containing dots are quoted.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, seg := range p {
		if strings.Contains(seg, ".") {
			parts[i] = `"` + seg + `"`
		} else {
			parts[i] = seg
		}
	}
	return strings.Join(parts, ".")
}

// Parent returns the path with the last segment removed.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Child returns the path extended by one segment.
func (p Path) Child(seg string) Path {
	child := make(Path, len(p)+1)
	copy(child, p)
	child[len(p)] = seg
	return child
}

// HasPrefix reports whether p starts with prefix.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	for i, seg := range prefix {
		if p[i] != seg {
			return false
		}
	}
	return true
}

// Equal reports whether two paths are identical.
func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i, seg := range p {
		if other[i] != seg {
			return false
		}
	}
	return true
}
