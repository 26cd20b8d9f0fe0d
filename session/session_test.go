/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package session_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"bennypowers.dev/nixedit/internal/mapfs"
	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/session"
	"bennypowers.dev/nixedit/testutil"
)

func newSession(t *testing.T) (*session.Session, *mapfs.MapFileSystem) {
	t.Helper()
	filesystem := testutil.NewFixtureFS(t, "basic", "/")
	return session.New(filesystem, "configuration.nix", "options.json"), filesystem
}

func load(t *testing.T, sess *session.Session) {
	t.Helper()
	if err := sess.Load(context.Background()); err != nil {
		t.Fatalf("Load(): %v", err)
	}
}

func TestErrNotLoaded(t *testing.T) {
	sess, _ := newSession(t)
	if _, err := sess.Lookup(options.ParsePath("services.foo.enable")); !errors.Is(err, session.ErrNotLoaded) {
		t.Errorf("Lookup before Load = %v, want ErrNotLoaded", err)
	}
	if err := sess.Commit(); !errors.Is(err, session.ErrNotLoaded) {
		t.Errorf("Commit before Load = %v, want ErrNotLoaded", err)
	}
}

func TestLoadFollowsImports(t *testing.T) {
	sess, _ := newSession(t)
	load(t, sess)

	files, err := sess.Files()
	if err != nil {
		t.Fatalf("Files(): %v", err)
	}
	if len(files) != 2 || files[0] != "configuration.nix" || files[1] != "hardware.nix" {
		t.Errorf("Files() = %v", files)
	}

	node, err := sess.Lookup(options.ParsePath("services.foo.enable"))
	if err != nil {
		t.Fatalf("Lookup(): %v", err)
	}
	if !node.IsSet() || !node.Known {
		t.Errorf("node = %+v", node)
	}
	text, err := sess.CurrentText(options.ParsePath("services.foo.enable"))
	if err != nil || text != "false" {
		t.Errorf("CurrentText() = %q, %v", text, err)
	}
}

func TestSetValueRoundTrip(t *testing.T) {
	sess, filesystem := newSession(t)
	original, err := filesystem.ReadFile("configuration.nix")
	if err != nil {
		t.Fatalf("ReadFile(): %v", err)
	}
	load(t, sess)

	path := options.ParsePath("services.foo.enable")
	if _, err := sess.SetValue(path, options.BoolValue(true)); err != nil {
		t.Fatalf("SetValue(): %v", err)
	}

	// Only the value changed; every other byte survives.
	want := strings.Replace(string(original), "enable = false", "enable = true", 1)
	text, err := sess.Render("configuration.nix")
	if err != nil {
		t.Fatalf("Render(): %v", err)
	}
	if text != want {
		t.Errorf("rendered text:\n%s\nwant:\n%s", text, want)
	}

	pending, err := sess.Pending()
	if err != nil {
		t.Fatalf("Pending(): %v", err)
	}
	if len(pending) != 1 || pending[0].Before != "false" || pending[0].After != "true" {
		t.Errorf("Pending() = %+v", pending)
	}

	if err := sess.Commit(); err != nil {
		t.Fatalf("Commit(): %v", err)
	}
	data, err := filesystem.ReadFile("configuration.nix")
	if err != nil {
		t.Fatalf("ReadFile(): %v", err)
	}
	if string(data) != want {
		t.Errorf("committed text:\n%s", data)
	}
	if pending, _ := sess.Pending(); len(pending) != 0 {
		t.Errorf("Pending() after commit = %+v", pending)
	}
}

func TestUndoRestoresText(t *testing.T) {
	sess, filesystem := newSession(t)
	original, err := filesystem.ReadFile("configuration.nix")
	if err != nil {
		t.Fatalf("ReadFile(): %v", err)
	}
	load(t, sess)

	path := options.ParsePath("services.foo.enable")
	if _, err := sess.SetValue(path, options.BoolValue(true)); err != nil {
		t.Fatalf("SetValue(): %v", err)
	}
	op, err := sess.Undo()
	if err != nil || op == nil {
		t.Fatalf("Undo() = %v, %v", op, err)
	}
	text, _ := sess.Render("configuration.nix")
	if text != string(original) {
		t.Errorf("undo did not restore text:\n%s", text)
	}
	if text, _ := sess.CurrentText(path); text != "false" {
		t.Errorf("CurrentText() after undo = %q", text)
	}

	if op, err := sess.Redo(); err != nil || op == nil {
		t.Fatalf("Redo() = %v, %v", op, err)
	}
	if text, _ := sess.CurrentText(path); text != "true" {
		t.Errorf("CurrentText() after redo = %q", text)
	}
}

func TestUnknownOptionsSurviveEdits(t *testing.T) {
	sess, _ := newSession(t)
	load(t, sess)

	node, err := sess.Lookup(options.ParsePath("mySpecial.custom"))
	if err != nil {
		t.Fatalf("unknown option dropped: %v", err)
	}
	if node.Known || !node.IsSet() {
		t.Errorf("node = %+v", node)
	}

	if _, err := sess.SetValue(options.ParsePath("services.foo.enable"), options.BoolValue(true)); err != nil {
		t.Fatalf("SetValue(): %v", err)
	}
	text, _ := sess.Render("configuration.nix")
	if !strings.Contains(text, "mySpecial.custom = 1;") {
		t.Errorf("unknown binding lost:\n%s", text)
	}
}

func TestUnparsableFileIsReadOnly(t *testing.T) {
	sess, filesystem := newSession(t)
	filesystem.AddFile("broken.nix", "{ unterminated\n", 0o644)
	sess.IncludeFiles("broken.nix")
	load(t, sess)

	unmanaged, err := sess.Unmanaged()
	if err != nil {
		t.Fatalf("Unmanaged(): %v", err)
	}
	if len(unmanaged) != 1 || unmanaged[0] != "broken.nix" {
		t.Fatalf("Unmanaged() = %v", unmanaged)
	}
	// Raw text is still visible.
	text, err := sess.Render("broken.nix")
	if err != nil || text != "{ unterminated\n" {
		t.Errorf("Render(broken.nix) = %q, %v", text, err)
	}
}

func TestImportCycle(t *testing.T) {
	filesystem := mapfs.New()
	filesystem.AddFile("options.json", "{}", 0o644)
	filesystem.AddFile("a.nix", "{\n  imports = [ ./b.nix ];\n}\n", 0o644)
	filesystem.AddFile("b.nix", "{\n  imports = [ ./a.nix ];\n}\n", 0o644)
	sess := session.New(filesystem, "a.nix", "options.json")
	load(t, sess)

	cycle, err := sess.ImportCycle()
	if err != nil {
		t.Fatalf("ImportCycle(): %v", err)
	}
	if len(cycle) == 0 {
		t.Error("cycle not detected")
	}
}

func TestSubscribe(t *testing.T) {
	sess, _ := newSession(t)
	notified := 0
	sess.Subscribe(func() { notified++ })
	load(t, sess)
	if notified != 1 {
		t.Fatalf("notified %d times after Load, want 1", notified)
	}
	if _, err := sess.SetValue(options.ParsePath("services.foo.enable"), options.BoolValue(true)); err != nil {
		t.Fatalf("SetValue(): %v", err)
	}
	if notified != 2 {
		t.Errorf("notified %d times after edit, want 2", notified)
	}
}

func TestMissingEntryFails(t *testing.T) {
	filesystem := mapfs.New()
	filesystem.AddFile("options.json", "{}", 0o644)
	sess := session.New(filesystem, "missing.nix", "options.json")
	if err := sess.Load(context.Background()); err == nil {
		t.Error("Load() succeeded without entry file")
	}
}
