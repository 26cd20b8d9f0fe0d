/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package session

import (
	"context"

	"bennypowers.dev/nixedit/config"
	"bennypowers.dev/nixedit/fs"
)

// FromConfig builds an unloaded session from a loaded configuration.
// baseDir anchors the config's relative paths, typically the working
// directory.
func FromConfig(filesystem fs.FileSystem, cfg *config.Config, baseDir string) (*Session, error) {
	rootDir := cfg.RootDir(baseDir)
	sess := New(filesystem, cfg.EntryPath(baseDir), cfg.FeedPath(baseDir))
	extra, err := cfg.ExpandFiles(filesystem, rootDir)
	if err != nil {
		return nil, err
	}
	sess.IncludeFiles(extra...)
	return sess, nil
}

// Open loads the configuration at baseDir, applies optional entry and
// feed overrides, and returns a loaded session.
func Open(ctx context.Context, filesystem fs.FileSystem, baseDir, entry, feed string) (*Session, error) {
	cfg := config.LoadOrDefault(filesystem, baseDir)
	if entry != "" {
		cfg.Entry = entry
	}
	if feed != "" {
		cfg.Feed = feed
	}
	sess, err := FromConfig(filesystem, cfg, baseDir)
	if err != nil {
		return nil, err
	}
	if err := sess.Load(ctx); err != nil {
		return nil, err
	}
	return sess, nil
}
