package module

import "errors"

// Sentinel errors for Splitter split-management operations. Callers match
// with errors.Is rather than string comparison.
var (
	// ErrDuplicateSplit is returned by SplitterBase.MakeSplit when split_id
	// has already been declared.
	ErrDuplicateSplit = errors.New("module: duplicate split id")

	// ErrUnknownSplit is returned by SplitterBase.AddOutput/GetOutput/
	// SetOutput when split_id has not been declared via MakeSplit.
	ErrUnknownSplit = errors.New("module: unknown split id")

	// ErrDuplicateOutputKey is returned by SplitterBase.AddOutput when key
	// has already been set within split_id.
	ErrDuplicateOutputKey = errors.New("module: duplicate output key within split")

	// ErrUndeclaredOutputKey is returned by SplitterBase.SetOutput when key
	// was never declared in the module's output keys.
	ErrUndeclaredOutputKey = errors.New("module: undeclared output key")
)
