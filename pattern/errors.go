/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package pattern

import "errors"

// Sentinel errors for pattern composition and resolution.
var (
	// ErrUnresolvedPlaceholder indicates a placeholder was used before it was resolved,
	// or its name is missing from the repository.
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")

	// ErrNotPattern indicates a repository entry cannot be substituted for a placeholder.
	ErrNotPattern = errors.New("not a pattern and cannot be substituted")

	// ErrCircularReference indicates placeholders expand into themselves.
	ErrCircularReference = errors.New("circular placeholder reference")

	// ErrUnknownReference indicates a back-reference or subroutine names no capture group.
	ErrUnknownReference = errors.New("reference names a group that does not exist")

	// ErrAmbiguousReference indicates a reference name is carried by more than one group.
	ErrAmbiguousReference = errors.New("reference names more than one group")

	// ErrFrozen indicates an attempt to mutate a frozen (resolved) pattern.
	ErrFrozen = errors.New("pattern is frozen")

	// ErrUnsupportedMatch indicates a match value of an unsupported type.
	ErrUnsupportedMatch = errors.New("unsupported match value")
)
