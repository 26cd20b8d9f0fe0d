/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package metadata parses the option catalog produced by the external
// evaluator (the options.json format of the module system's manual
// build). The feed is an immutable snapshot for the session; reload
// means discarding it and parsing a fresh one.
package metadata

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/jsonc"

	"bennypowers.dev/nixedit/fs"
)

// Literal is a default or example rendered as expression text. The
// catalog wraps these as {"_type": "literalExpression", "text": "..."};
// plain JSON values from older catalogs are re-rendered as JSON text.
type Literal struct {
	Type string
	Text string
}

// UnmarshalJSON accepts both the wrapped and the plain form.
func (l *Literal) UnmarshalJSON(data []byte) error {
	var wrapped struct {
		Type string `json:"_type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Type != "" {
		l.Type = wrapped.Type
		l.Text = wrapped.Text
		return nil
	}
	l.Type = "literalExpression"
	l.Text = string(data)
	return nil
}

// Entry describes one option: its type, default, and documentation.
type Entry struct {
	// Type is the human-readable type description.
	Type string `json:"type"`

	// Description documents the option.
	Description string `json:"description"`

	// Default is the default value's expression, nil if none.
	Default *Literal `json:"default"`

	// Example is an example expression, nil if none.
	Example *Literal `json:"example"`

	// Declarations lists the module files declaring the option.
	Declarations []string `json:"declarations"`

	// ReadOnly marks options that must not be set by configuration.
	ReadOnly bool `json:"readOnly"`
}

// UnmarshalJSON tolerates structured descriptions ({"_type": "mdDoc", ...}).
func (e *Entry) UnmarshalJSON(data []byte) error {
	type rawEntry Entry
	var raw struct {
		rawEntry
		Description json.RawMessage `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Entry(raw.rawEntry)

	if len(raw.Description) > 0 {
		var s string
		if err := json.Unmarshal(raw.Description, &s); err == nil {
			e.Description = s
		} else {
			var doc struct {
				Text string `json:"text"`
			}
			if err := json.Unmarshal(raw.Description, &doc); err == nil {
				e.Description = doc.Text
			}
		}
	}
	return nil
}

// Feed is an immutable snapshot of the option catalog.
type Feed struct {
	// Options maps dotted option paths to their catalog entries.
	Options map[string]*Entry
}

// Parse decodes a catalog document. Comments and trailing commas are
// tolerated, since hand-maintained catalog extracts carry them.
func Parse(data []byte) (*Feed, error) {
	var opts map[string]*Entry
	if err := json.Unmarshal(jsonc.ToJSON(data), &opts); err != nil {
		return nil, fmt.Errorf("failed to parse option catalog: %w", err)
	}
	// The manual build nests the catalog under no key, but some
	// evaluator wrappers emit internal entries; drop the _module tree.
	for name := range opts {
		if name == "_module" || len(name) >= 8 && name[:8] == "_module." {
			delete(opts, name)
		}
	}
	return &Feed{Options: opts}, nil
}

// Load reads and parses a catalog file.
func Load(filesystem fs.FileSystem, path string) (*Feed, error) {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read option catalog %s: %w", path, err)
	}
	return Parse(data)
}
