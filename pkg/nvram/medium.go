package nvram

import "context"

// Medium is a single mirrored section's storage backend: a fixed-size
// region that can be read and overwritten as a whole. Implementations
// live under pkg/medium (file, mtd, efi); the engine itself never
// assumes a particular transport.
//
// Implementations need not support partial writes; the engine always
// writes a full section image in one call. A Medium's BlankFill value
// tells the engine which byte value means "never written" so it can
// tell [StateEmpty] apart from [StateCorrupt].
type Medium interface {
	// Size returns the capacity of the section in bytes. The engine
	// refuses to encode a section larger than this.
	Size() uint64

	// BlankFill is the byte value an untouched region of this medium
	// reads back as (0xFF for erased flash, 0x00 for a zeroed file).
	BlankFill() byte

	// Read returns the full contents of the section, always Size()
	// bytes unless the underlying storage has never been written, in
	// which case implementations may return a shorter (even empty)
	// slice; decodeSection treats that the same as an all-blank
	// section.
	Read(ctx context.Context) ([]byte, error)

	// Write replaces the full contents of the section with data, which
	// is never larger than Size(). Write must be atomic with respect to
	// process crashes from the caller's point of view: either the old
	// or the new image is observed on the next Read after a crash,
	// never a torn mix of both.
	Write(ctx context.Context, data []byte) error

	// Close releases any resources held by the medium (file handles,
	// mmaps). A closed Medium must not be used again.
	Close() error
}

// MediumFactory constructs the pair of mediums backing one namespace
// (system or user). No package in this module defines or registers one;
// the CLIs construct pkg/medium/{file,mtd,efi} mediums directly.
type MediumFactory func(ctx context.Context, pathA, pathB string, sectionSize uint64) (a, b Medium, err error)
