/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package ledger_test

import (
	"errors"
	"fmt"
	iofs "io/fs"
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"

	"bennypowers.dev/nixedit/edit"
	"bennypowers.dev/nixedit/fs"
	"bennypowers.dev/nixedit/internal/mapfs"
	"bennypowers.dev/nixedit/ledger"
	"bennypowers.dev/nixedit/metadata"
	"bennypowers.dev/nixedit/options"
	"bennypowers.dev/nixedit/resolver"
	"bennypowers.dev/nixedit/syntax"
)

// newLedger builds an engine over the sources and a ledger with each
// file's source registered as its on-disk baseline.
func newLedger(t *testing.T, sources map[string]string) (*ledger.Ledger, *edit.Engine) {
	t.Helper()
	feed := &metadata.Feed{Options: map[string]*metadata.Entry{
		"services.foo.enable": {Type: "boolean"},
		"services.bar.enable": {Type: "boolean"},
	}}
	files := make(map[string]*syntax.File)
	sites := make(map[string][]options.Site)
	for path, src := range sources {
		file, err := syntax.Parse(path, src)
		if err != nil {
			t.Fatalf("Parse(%s): %v", path, err)
		}
		files[path] = file
		mapping, err := resolver.Resolve(file, nil)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", path, err)
		}
		for name, siteList := range mapping.Sites {
			sites[name] = append(sites[name], siteList...)
		}
	}
	engine := edit.NewEngine(files, options.Build(feed, sites), "a.nix")
	led := ledger.New(engine)
	for path, src := range sources {
		led.SetBaseline(path, src)
	}
	return led, engine
}

func set(t *testing.T, led *ledger.Ledger, engine *edit.Engine, path string, v bool) {
	t.Helper()
	op, err := engine.SetValue(options.ParsePath(path), options.BoolValue(v))
	if err != nil {
		t.Fatalf("SetValue(%s): %v", path, err)
	}
	led.Record(op)
}

func TestUndoRedo(t *testing.T) {
	src := "{ services.foo.enable = false; }\n"
	led, engine := newLedger(t, map[string]string{"a.nix": src})

	set(t, led, engine, "services.foo.enable", true)
	set(t, led, engine, "services.foo.enable", false)

	if !led.CanUndo() || led.CanRedo() {
		t.Fatalf("CanUndo = %v, CanRedo = %v", led.CanUndo(), led.CanRedo())
	}

	for range 2 {
		if op, err := led.Undo(); err != nil || op == nil {
			t.Fatalf("Undo() = %v, %v", op, err)
		}
	}
	if text, _ := engine.Render("a.nix"); text != src {
		t.Errorf("undo did not restore original text:\n%s", text)
	}
	if led.CanUndo() {
		t.Error("CanUndo after full unwind")
	}

	if op, err := led.Redo(); err != nil || op == nil {
		t.Fatalf("Redo() = %v, %v", op, err)
	}
	if text, _ := engine.Render("a.nix"); !strings.Contains(text, "= true;") {
		t.Errorf("redo did not re-apply first edit:\n%s", text)
	}
}

func TestUndoEmpty(t *testing.T) {
	led, _ := newLedger(t, map[string]string{"a.nix": "{ }\n"})
	if op, err := led.Undo(); op != nil || err != nil {
		t.Errorf("Undo() on empty history = %v, %v", op, err)
	}
	if op, err := led.Redo(); op != nil || err != nil {
		t.Errorf("Redo() on empty history = %v, %v", op, err)
	}
}

func TestRecordDiscardsUndoneTail(t *testing.T) {
	led, engine := newLedger(t, map[string]string{"a.nix": "{ services.foo.enable = false; }\n"})

	set(t, led, engine, "services.foo.enable", true)
	if _, err := led.Undo(); err != nil {
		t.Fatalf("Undo(): %v", err)
	}
	set(t, led, engine, "services.foo.enable", true)

	if led.CanRedo() {
		t.Error("undone tail survived a new record")
	}
	if op, err := led.Redo(); op != nil || err != nil {
		t.Errorf("Redo() after discard = %v, %v", op, err)
	}
}

func TestPending(t *testing.T) {
	led, engine := newLedger(t, map[string]string{"a.nix": "{ services.foo.enable = false; }\n"})

	set(t, led, engine, "services.foo.enable", true)
	set(t, led, engine, "services.foo.enable", false)

	pending := led.Pending()
	if len(pending) != 2 {
		t.Fatalf("Pending() has %d diffs, want 2", len(pending))
	}
	if pending[0].Before != "false" || pending[0].After != "true" {
		t.Errorf("pending[0] = %+v", pending[0])
	}
	if pending[1].Before != "true" || pending[1].After != "false" {
		t.Errorf("pending[1] = %+v", pending[1])
	}

	filesystem := mapfs.New()
	filesystem.AddFile("a.nix", "{ services.foo.enable = false; }\n", 0o644)
	if err := led.Commit(filesystem); err != nil {
		t.Fatalf("Commit(): %v", err)
	}
	if pending := led.Pending(); len(pending) != 0 {
		t.Errorf("Pending() after commit = %v", pending)
	}
}

func TestPendingAfterUndoPastCommit(t *testing.T) {
	led, engine := newLedger(t, map[string]string{"a.nix": "{ services.foo.enable = false; }\n"})

	set(t, led, engine, "services.foo.enable", true)

	filesystem := mapfs.New()
	filesystem.AddFile("a.nix", "{ services.foo.enable = false; }\n", 0o644)
	if err := led.Commit(filesystem); err != nil {
		t.Fatalf("Commit(): %v", err)
	}

	if _, err := led.Undo(); err != nil {
		t.Fatalf("Undo(): %v", err)
	}
	pending := led.Pending()
	if len(pending) != 1 {
		t.Fatalf("Pending() has %d diffs, want 1 reverted", len(pending))
	}
	// The committed edit was undone, so the pending change runs the
	// other way.
	if pending[0].Before != "true" || pending[0].After != "false" {
		t.Errorf("pending[0] = %+v", pending[0])
	}
}

func TestCommitWritesDirtyFiles(t *testing.T) {
	srcA := "{ services.foo.enable = false; }\n"
	srcB := "{ services.bar.enable = false; }\n"
	led, engine := newLedger(t, map[string]string{"a.nix": srcA, "b.nix": srcB})

	set(t, led, engine, "services.foo.enable", true)

	if dirty := led.Dirty(); len(dirty) != 1 || dirty[0] != "a.nix" {
		t.Fatalf("Dirty() = %v", dirty)
	}

	filesystem := mapfs.New()
	filesystem.AddFile("a.nix", srcA, 0o644)
	filesystem.AddFile("b.nix", srcB, 0o644)
	if err := led.Commit(filesystem); err != nil {
		t.Fatalf("Commit(): %v", err)
	}

	data, err := filesystem.ReadFile("a.nix")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "= true;") {
		t.Errorf("committed text: %s", data)
	}
	if dirty := led.Dirty(); len(dirty) != 0 {
		t.Errorf("Dirty() after commit = %v", dirty)
	}
}

// failFS rejects writes whose path contains a marker, to exercise
// per-file commit failure.
type failFS struct {
	fs.FileSystem
	marker string
}

func (f *failFS) WriteFile(name string, data []byte, perm iofs.FileMode) error {
	if strings.Contains(name, f.marker) {
		return fmt.Errorf("disk full")
	}
	return f.FileSystem.WriteFile(name, data, perm)
}

func TestCommitFailureIsolation(t *testing.T) {
	srcA := "{ services.foo.enable = false; }\n"
	srcB := "{ services.bar.enable = false; }\n"
	led, engine := newLedger(t, map[string]string{"a.nix": srcA, "b.nix": srcB})

	set(t, led, engine, "services.foo.enable", true)
	set(t, led, engine, "services.bar.enable", true)

	inner := mapfs.New()
	inner.AddFile("a.nix", srcA, 0o644)
	inner.AddFile("b.nix", srcB, 0o644)
	filesystem := &failFS{FileSystem: inner, marker: "b.nix"}

	err := led.Commit(filesystem)
	if !errors.Is(err, ledger.ErrWriteFailure) {
		t.Fatalf("Commit() error = %v, want ErrWriteFailure", err)
	}

	// The healthy file was written and its baseline advanced.
	data, _ := inner.ReadFile("a.nix")
	if !strings.Contains(string(data), "= true;") {
		t.Errorf("a.nix not committed: %s", data)
	}
	if dirty := led.Dirty(); len(dirty) != 1 || dirty[0] != "b.nix" {
		t.Errorf("Dirty() after partial commit = %v", dirty)
	}
}

func TestDiffSegments(t *testing.T) {
	d := ledger.Diff{Before: "false", After: "true"}
	segments := d.Segments()
	if len(segments) == 0 {
		t.Fatal("Segments() empty for differing texts")
	}
	var before, after strings.Builder
	for _, seg := range segments {
		switch seg.Type {
		case diffmatchpatch.DiffEqual:
			before.WriteString(seg.Text)
			after.WriteString(seg.Text)
		case diffmatchpatch.DiffDelete:
			before.WriteString(seg.Text)
		case diffmatchpatch.DiffInsert:
			after.WriteString(seg.Text)
		}
	}
	if before.String() != "false" || after.String() != "true" {
		t.Errorf("segments do not reconstruct inputs: %q, %q", before.String(), after.String())
	}
}
