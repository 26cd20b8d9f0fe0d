/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package metadata_test

import (
	"testing"

	"bennypowers.dev/nixedit/internal/mapfs"
	"bennypowers.dev/nixedit/metadata"
)

const catalogJSON = `{
	// extracted from the manual build
	"services.foo.enable": {
		"type": "boolean",
		"description": "Whether to enable foo.",
		"default": {"_type": "literalExpression", "text": "false"},
		"example": {"_type": "literalExpression", "text": "true"},
		"declarations": ["nixos/modules/services/foo.nix"]
	},
	"services.foo.settings": {
		"type": "attribute set of string",
		"description": {"_type": "mdDoc", "text": "Structured settings."},
		"default": {}
	},
	"system.stateVersion": {
		"type": "string",
		"readOnly": true
	},
	"_module.args": {
		"type": "lazy attribute set of raw value"
	},
}`

func TestParse(t *testing.T) {
	feed, err := metadata.Parse([]byte(catalogJSON))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if len(feed.Options) != 3 {
		t.Fatalf("parsed %d options, want 3 (_module dropped)", len(feed.Options))
	}

	enable := feed.Options["services.foo.enable"]
	if enable == nil {
		t.Fatal("services.foo.enable missing")
	}
	if enable.Type != "boolean" {
		t.Errorf("Type = %q", enable.Type)
	}
	if enable.Description != "Whether to enable foo." {
		t.Errorf("Description = %q", enable.Description)
	}
	if enable.Default == nil || enable.Default.Text != "false" {
		t.Errorf("Default = %+v", enable.Default)
	}
	if enable.Example == nil || enable.Example.Text != "true" {
		t.Errorf("Example = %+v", enable.Example)
	}
	if len(enable.Declarations) != 1 || enable.Declarations[0] != "nixos/modules/services/foo.nix" {
		t.Errorf("Declarations = %v", enable.Declarations)
	}

	settings := feed.Options["services.foo.settings"]
	if settings.Description != "Structured settings." {
		t.Errorf("structured description = %q", settings.Description)
	}
	if settings.Default == nil || settings.Default.Text != "{}" {
		t.Errorf("plain-form default = %+v", settings.Default)
	}

	if !feed.Options["system.stateVersion"].ReadOnly {
		t.Error("readOnly not parsed")
	}
}

func TestParseInvalid(t *testing.T) {
	if _, err := metadata.Parse([]byte(`{"a": [}`)); err == nil {
		t.Error("Parse() accepted malformed catalog")
	}
}

func TestLoad(t *testing.T) {
	filesystem := mapfs.New()
	filesystem.AddFile("options.json", `{"networking.hostName": {"type": "string"}}`, 0o644)

	feed, err := metadata.Load(filesystem, "options.json")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if feed.Options["networking.hostName"] == nil {
		t.Error("loaded catalog missing networking.hostName")
	}

	if _, err := metadata.Load(filesystem, "missing.json"); err == nil {
		t.Error("Load() succeeded for missing file")
	}
}
