package nvram

import "errors"

// Error classification codes, in propagation order from medium upward.
//
// Implementations MAY wrap these errors with additional context via
// fmt.Errorf("...: %w", ...). Callers MUST classify errors using
// errors.Is.
var (
	// ErrIO indicates a medium read or write failed.
	ErrIO = errors.New("nvram: io error")

	// ErrInvalidArgument indicates a malformed key, a missing section
	// name, or a size exceeding 2^32-1.
	ErrInvalidArgument = errors.New("nvram: invalid argument")

	// ErrCorrupt indicates a header CRC or data CRC mismatch, a bad
	// magic, or a truncated payload.
	ErrCorrupt = errors.New("nvram: corrupt")

	// ErrNotFound indicates a Get of an absent key.
	ErrNotFound = errors.New("nvram: not found")

	// ErrOutOfMemory indicates an allocation failure during encoding or
	// decoding. No code path in this module currently returns it.
	ErrOutOfMemory = errors.New("nvram: out of memory")

	// ErrPermissionDenied indicates a namespace-gate violation.
	ErrPermissionDenied = errors.New("nvram: permission denied")

	// ErrUnsupported indicates an operation a format or medium variant
	// does not implement, e.g. a legacy format asked to use two
	// sections.
	ErrUnsupported = errors.New("nvram: unsupported")

	// ErrTooSmall indicates a destination buffer could not hold a
	// serialized section.
	ErrTooSmall = errors.New("nvram: buffer too small")
)
