/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package options

import "errors"

// Sentinel errors for option model operations.
var (
	// ErrNotFound indicates an unknown option path was queried.
	ErrNotFound = errors.New("option not found")

	// ErrTypeMismatch indicates a semantic value violates the declared type.
	ErrTypeMismatch = errors.New("value does not satisfy option type")

	// ErrAmbiguousDefinition indicates an option is bound at more than one
	// site and a single-site edit cannot proceed.
	ErrAmbiguousDefinition = errors.New("option has multiple definition sites")

	// ErrReadOnly indicates an option is declared read-only.
	ErrReadOnly = errors.New("option is read-only")

	// ErrNotSet indicates an option has no definition site to clear.
	ErrNotSet = errors.New("option is not set")

	// ErrUnmanagedFile indicates a file failed to parse and is read-only.
	ErrUnmanagedFile = errors.New("file is unmanaged (parse error)")
)
