/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

// Package ledger records edit operations as a linear history with
// undo/redo, computes the pending before/after fragments for display,
// and commits touched files to disk atomically.
package ledger

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sergi/go-diff/diffmatchpatch"

	"bennypowers.dev/nixedit/edit"
	"bennypowers.dev/nixedit/fs"
	"bennypowers.dev/nixedit/options"
)

// ErrWriteFailure indicates a file could not be persisted at commit.
// Other files' commits are unaffected.
var ErrWriteFailure = errors.New("failed to write file")

// Applier re-applies and reverts recorded operations against the
// in-memory files. The edit engine implements it.
type Applier interface {
	Apply(*edit.Operation) error
	Revert(*edit.Operation) error
	Render(file string) (string, error)
}

// Diff is one pending fragment change for display: the before and
// after text of a single operation's affected range.
type Diff struct {
	// Path is the option the operation targeted.
	Path options.Path
	// File is the file the operation touched.
	File string
	// Before is the fragment's prior text, empty for an insertion.
	Before string
	// After is the fragment's new text, empty for a removal.
	After string
}

// Segments returns the intra-fragment differences between Before and
// After, cleaned up for human display.
func (d Diff) Segments() []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(d.Before, d.After, false)
	return dmp.DiffCleanupSemantic(diffs)
}

// Ledger is a linear edit history. New edits after an undo discard the
// undone tail. Not safe for concurrent use; the session serializes
// access.
type Ledger struct {
	applier   Applier
	ops       []*edit.Operation
	cursor    int
	committed map[string]int
	disk      map[string]string
}

// New returns an empty ledger applying through applier.
func New(applier Applier) *Ledger {
	return &Ledger{
		applier:   applier,
		committed: map[string]int{},
		disk:      map[string]string{},
	}
}

// SetBaseline records text as the current on-disk content of file. The
// session calls it for every managed file at load time.
func (l *Ledger) SetBaseline(file, text string) {
	l.disk[file] = text
	l.committed[file] = 0
}

// Record appends op as the newest operation, discarding any
// previously-undone tail. The operation has already been applied by the
// engine.
func (l *Ledger) Record(op *edit.Operation) {
	if l.cursor < len(l.ops) {
		// The discarded tail may include operations that were
		// committed and then undone; their files diverge from
		// disk until the next commit, which rewrites them from
		// the rendered text.
		for file, c := range l.committed {
			if n := l.activeCount(file); c > n {
				l.committed[file] = n
			}
		}
		l.ops = l.ops[:l.cursor]
	}
	l.ops = append(l.ops, op)
	l.cursor = len(l.ops)
}

// Undo reverts the newest active operation and returns it. Returns
// (nil, nil) when there is nothing to undo.
func (l *Ledger) Undo() (*edit.Operation, error) {
	if l.cursor == 0 {
		return nil, nil
	}
	op := l.ops[l.cursor-1]
	if err := l.applier.Revert(op); err != nil {
		return op, err
	}
	l.cursor--
	return op, nil
}

// Redo re-applies the next undone operation and returns it. Returns
// (nil, nil) when there is nothing to redo.
func (l *Ledger) Redo() (*edit.Operation, error) {
	if l.cursor == len(l.ops) {
		return nil, nil
	}
	op := l.ops[l.cursor]
	if err := l.applier.Apply(op); err != nil {
		return op, err
	}
	l.cursor++
	return op, nil
}

// CanUndo reports whether an operation is available to undo.
func (l *Ledger) CanUndo() bool { return l.cursor > 0 }

// CanRedo reports whether an undone operation is available to redo.
func (l *Ledger) CanRedo() bool { return l.cursor < len(l.ops) }

// activeCount returns how many active operations touch file.
func (l *Ledger) activeCount(file string) int {
	n := 0
	for _, op := range l.ops[:l.cursor] {
		if op.File == file {
			n++
		}
	}
	return n
}

// Pending lists the fragment changes not yet committed, per active
// operation since each file's last commit, in operation order. Undoing
// past a commit reports the reverted operations with before and after
// swapped.
func (l *Ledger) Pending() []Diff {
	var diffs []Diff
	count := map[string]int{}
	for _, op := range l.ops[:l.cursor] {
		count[op.File]++
		if count[op.File] > l.committed[op.File] {
			diffs = append(diffs, Diff{
				Path:   op.Path,
				File:   op.File,
				Before: op.Before,
				After:  op.After,
			})
		}
	}
	// Committed operations that are currently undone.
	for i := len(l.ops) - 1; i >= l.cursor; i-- {
		op := l.ops[i]
		undoneRank := 0
		for _, prior := range l.ops[:i+1] {
			if prior.File == op.File {
				undoneRank++
			}
		}
		if undoneRank <= l.committed[op.File] {
			diffs = append(diffs, Diff{
				Path:   op.Path,
				File:   op.File,
				Before: op.After,
				After:  op.Before,
			})
		}
	}
	return diffs
}

// Dirty lists the files whose rendered text differs from the on-disk
// baseline, in sorted order.
func (l *Ledger) Dirty() []string {
	var dirty []string
	for file, base := range l.disk {
		text, err := l.applier.Render(file)
		if err != nil {
			continue
		}
		if text != base {
			dirty = append(dirty, file)
		}
	}
	sort.Strings(dirty)
	return dirty
}

// Commit writes every dirty file's rendered text to disk through an
// atomic rename. A failure on one file does not abort the others; the
// on-disk baseline advances only for files that were written. The
// returned error joins one ErrWriteFailure per failed file.
func (l *Ledger) Commit(filesystem fs.FileSystem) error {
	var errs []error
	for _, file := range l.Dirty() {
		text, err := l.applier.Render(file)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w: %w", file, ErrWriteFailure, err))
			continue
		}
		if err := fs.WriteFileAtomic(filesystem, file, []byte(text), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w: %w", file, ErrWriteFailure, err))
			continue
		}
		l.disk[file] = text
		l.committed[file] = l.activeCount(file)
	}
	return errors.Join(errs...)
}
