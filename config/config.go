/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package config provides configuration loading for the nixedit tools.
package config

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents a nixedit session configuration.
type Config struct {
	// Root is the working configuration root directory. Relative
	// paths in the other fields resolve against it.
	Root string `yaml:"root" json:"root"`

	// Entry is the root module file the session loads first.
	Entry string `yaml:"entry" json:"entry"`

	// Feed is the path of the options metadata feed (options.json).
	Feed string `yaml:"feed" json:"feed"`

	// Files lists additional module files to manage beyond those
	// reached through imports (paths or specs, globs supported).
	Files []FileSpec `yaml:"files" json:"files"`
}

// FileSpec represents an additional managed file.
// It can be specified as a simple string path or as an object with overrides.
type FileSpec struct {
	// Path is the file path (supports globs).
	Path string `yaml:"path" json:"path"`

	// Optional suppresses the load warning when the file is missing.
	Optional bool `yaml:"optional" json:"optional"`
}

// UnmarshalYAML handles both string and object forms for FileSpec.
func (f *FileSpec) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Path = node.Value
		return nil
	}

	type rawFileSpec FileSpec
	return node.Decode((*rawFileSpec)(f))
}

// UnmarshalJSON handles both string and object forms for FileSpec.
func (f *FileSpec) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.Path = s
		return nil
	}

	type rawFileSpec FileSpec
	return json.Unmarshal(data, (*rawFileSpec)(f))
}

// Default returns a config with default values.
func Default() *Config {
	return &Config{
		Entry: "configuration.nix",
		Feed:  "options.json",
	}
}

// EntryPath returns the entry file resolved against the root.
func (c *Config) EntryPath(rootDir string) string {
	return c.resolve(rootDir, c.Entry)
}

// FeedPath returns the metadata feed path resolved against the root.
func (c *Config) FeedPath(rootDir string) string {
	return c.resolve(rootDir, c.Feed)
}

// RootDir returns the effective configuration root: the Root field
// resolved against baseDir, or baseDir itself when Root is unset.
func (c *Config) RootDir(baseDir string) string {
	if c.Root == "" {
		return baseDir
	}
	if filepath.IsAbs(c.Root) {
		return c.Root
	}
	return filepath.Join(baseDir, c.Root)
}

func (c *Config) resolve(rootDir, path string) string {
	rootDir = c.RootDir(rootDir)
	if path == "" || filepath.IsAbs(path) || strings.Contains(path, "://") {
		return path
	}
	return filepath.Join(rootDir, path)
}

// FilePaths returns the list of file paths from all FileSpecs.
func (c *Config) FilePaths() []string {
	paths := make([]string, 0, len(c.Files))
	for _, spec := range c.Files {
		paths = append(paths, spec.Path)
	}
	return paths
}
