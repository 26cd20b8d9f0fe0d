/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package session_test

import (
	"context"
	"testing"

	"bennypowers.dev/nixedit/internal/mapfs"
	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/session"
)

func TestOpenWithConfigFile(t *testing.T) {
	filesystem := mapfs.New()
	filesystem.AddFile("/project/.config/nixedit.yaml", `
entry: hosts/gateway.nix
feed: catalog/options.json
files:
  - modules/*.nix
`, 0o644)
	filesystem.AddFile("/project/hosts/gateway.nix", "{\n  networking.hostName = \"gateway\";\n}\n", 0o644)
	filesystem.AddFile("/project/catalog/options.json", `{"networking.hostName": {"type": "string"}}`, 0o644)
	filesystem.AddFile("/project/modules/extra.nix", "{\n  networking.domain = \"lan\";\n}\n", 0o644)

	sess, err := session.Open(context.Background(), filesystem, "/project", "", "")
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}

	files, err := sess.Files()
	if err != nil {
		t.Fatalf("Files(): %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("Files() = %v", files)
	}

	node, err := sess.Lookup(options.ParsePath("networking.hostName"))
	if err != nil {
		t.Fatalf("Lookup(): %v", err)
	}
	if !node.IsSet() {
		t.Error("entry binding not resolved")
	}
	// The globbed extra file's bindings are managed too.
	if _, err := sess.Lookup(options.ParsePath("networking.domain")); err != nil {
		t.Errorf("extra file binding dropped: %v", err)
	}
}

func TestOpenOverrides(t *testing.T) {
	filesystem := mapfs.New()
	filesystem.AddFile("/project/machine.nix", "{ }\n", 0o644)
	filesystem.AddFile("/project/feed.json", "{}", 0o644)

	sess, err := session.Open(context.Background(), filesystem, "/project", "machine.nix", "feed.json")
	if err != nil {
		t.Fatalf("Open(): %v", err)
	}
	files, err := sess.Files()
	if err != nil {
		t.Fatalf("Files(): %v", err)
	}
	if len(files) != 1 || files[0] != "/project/machine.nix" {
		t.Errorf("Files() = %v", files)
	}
}
