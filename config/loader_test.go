/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package config_test

import (
	"testing"

	"bennypowers.dev/nixedit/config"
	"bennypowers.dev/nixedit/internal/mapfs"
)

func TestLoadYAML(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/project/.config/nixedit.yaml", `
root: ./nixos
entry: hosts/gateway/configuration.nix
feed: options.json
files:
  - extra.nix
  - path: optional.nix
    optional: true
`, 0o644)

	cfg, err := config.Load(mfs, "/project")
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg == nil {
		t.Fatal("Load() returned nil for existing config")
	}
	if cfg.Root != "./nixos" {
		t.Errorf("Root = %q", cfg.Root)
	}
	if cfg.Entry != "hosts/gateway/configuration.nix" {
		t.Errorf("Entry = %q", cfg.Entry)
	}
	if len(cfg.Files) != 2 {
		t.Fatalf("Files = %+v", cfg.Files)
	}
	if cfg.Files[0].Path != "extra.nix" || cfg.Files[0].Optional {
		t.Errorf("string-form spec = %+v", cfg.Files[0])
	}
	if cfg.Files[1].Path != "optional.nix" || !cfg.Files[1].Optional {
		t.Errorf("object-form spec = %+v", cfg.Files[1])
	}
}

func TestLoadJSON(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/project/.config/nixedit.json",
		`{"entry": "flake-host.nix", "files": ["a.nix", {"path": "b.nix", "optional": true}]}`, 0o644)

	cfg, err := config.Load(mfs, "/project")
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg.Entry != "flake-host.nix" {
		t.Errorf("Entry = %q", cfg.Entry)
	}
	if len(cfg.Files) != 2 || cfg.Files[1].Path != "b.nix" || !cfg.Files[1].Optional {
		t.Errorf("Files = %+v", cfg.Files)
	}
}

func TestLoadMissing(t *testing.T) {
	cfg, err := config.Load(mapfs.New(), "/project")
	if err != nil {
		t.Fatalf("Load(): %v", err)
	}
	if cfg != nil {
		t.Errorf("Load() = %+v, want nil for missing config", cfg)
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg := config.LoadOrDefault(mapfs.New(), "/project")
	if cfg.Entry != "configuration.nix" {
		t.Errorf("default Entry = %q", cfg.Entry)
	}
	if cfg.Feed != "options.json" {
		t.Errorf("default Feed = %q", cfg.Feed)
	}
}

func TestPathResolution(t *testing.T) {
	cfg := &config.Config{Root: "nixos", Entry: "configuration.nix", Feed: "https://example.com/options.json"}

	if got := cfg.EntryPath("/project"); got != "/project/nixos/configuration.nix" {
		t.Errorf("EntryPath() = %q", got)
	}
	// URLs pass through untouched.
	if got := cfg.FeedPath("/project"); got != "https://example.com/options.json" {
		t.Errorf("FeedPath() = %q", got)
	}

	abs := &config.Config{Entry: "/etc/nixos/configuration.nix"}
	if got := abs.EntryPath("/project"); got != "/etc/nixos/configuration.nix" {
		t.Errorf("absolute EntryPath() = %q", got)
	}
}

func TestExpandFilesGlob(t *testing.T) {
	mfs := mapfs.New()
	mfs.AddFile("/project/modules/net.nix", "{ }\n", 0o644)
	mfs.AddFile("/project/modules/hw/disks.nix", "{ }\n", 0o644)
	mfs.AddFile("/project/modules/hw/README.md", "", 0o644)

	cfg := &config.Config{Files: []config.FileSpec{{Path: "modules/**/*.nix"}}}
	paths, err := cfg.ExpandFiles(mfs, "/project")
	if err != nil {
		t.Fatalf("ExpandFiles(): %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("ExpandFiles() = %v", paths)
	}
	for _, p := range paths {
		if p != "/project/modules/net.nix" && p != "/project/modules/hw/disks.nix" {
			t.Errorf("unexpected match %q", p)
		}
	}
}

func TestExpandFilesOptionalMissing(t *testing.T) {
	cfg := &config.Config{Files: []config.FileSpec{
		{Path: "missing.nix", Optional: true},
	}}
	paths, err := cfg.ExpandFiles(mapfs.New(), "/project")
	if err != nil {
		t.Fatalf("ExpandFiles(): %v", err)
	}
	if len(paths) != 0 {
		t.Errorf("optional missing file kept: %v", paths)
	}
}
