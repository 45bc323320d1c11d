// Package file implements [nvram.Medium] on top of a plain file: the
// variant used on devices without raw flash access, or for development
// and testing on a regular filesystem.
//
// Grounded on the original platform driver's file-backed interface (a
// section is a file of fixed size, read in full and replaced in full)
// and on the teacher's own durability primitive for doing that
// replacement safely: [fs.AtomicWriter] writes to a temp file in the
// same directory, syncs it, and renames it over the target, so a crash
// mid-write leaves either the old image or the new one, never a torn
// mix. Taking an [fs.FS] rather than talking to the OS directly is what
// lets medium/file's own tests drive that durability claim through
// [fs.Crash] and [fs.Chaos] instead of asserting it by inspection.
package file

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/nvramkv/nvram/pkg/fs"
	"github.com/nvramkv/nvram/pkg/nvram"
)

const filePerm = 0o600

// Medium implements [nvram.Medium] over a single file, backed by an
// [fs.FS] so production code and tests share the same write path.
type Medium struct {
	fsys   fs.FS
	writer *fs.AtomicWriter
	path   string
	size   uint64
}

// New opens path as a section of sectionSize bytes on the real
// filesystem. Use [NewWithFS] to back the medium with a fake for
// testing.
func New(path string, sectionSize uint64) (*Medium, error) {
	return NewWithFS(fs.NewReal(), path, sectionSize)
}

// NewWithFS is like [New] but lets the caller supply the [fs.FS], e.g.
// an [fs.Crash] or [fs.Chaos] wrapper in tests.
func NewWithFS(fsys fs.FS, path string, sectionSize uint64) (*Medium, error) {
	if sectionSize == 0 {
		return nil, fmt.Errorf("%w: sectionSize must be non-zero", nvram.ErrInvalidArgument)
	}

	if _, err := fsys.Stat(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: stat %s: %v", nvram.ErrIO, path, err)
	}

	return &Medium{
		fsys:   fsys,
		writer: fs.NewAtomicWriter(fsys),
		path:   path,
		size:   sectionSize,
	}, nil
}

// Size implements [nvram.Medium].
func (m *Medium) Size() uint64 { return m.size }

// BlankFill implements [nvram.Medium]. A file medium treats a missing
// or short file as blank; an existing but never-written file is
// zero-filled by the OS, so 0x00 is the blank byte.
func (m *Medium) BlankFill() byte { return 0x00 }

// Read implements [nvram.Medium]. A missing file reads back as empty,
// which [nvram] treats the same as an all-blank section.
func (m *Medium) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := m.fsys.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: reading %s: %v", nvram.ErrIO, m.path, err)
	}

	if uint64(len(data)) > m.size {
		data = data[:m.size]
	}

	return data, nil
}

// Write implements [nvram.Medium]. data is padded to the full section
// size with zero bytes before being written, so Read always sees a
// fixed-size image once a section has been written at least once.
func (m *Medium) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if uint64(len(data)) > m.size {
		return fmt.Errorf("%w: %d bytes exceeds section size %d", nvram.ErrTooSmall, len(data), m.size)
	}

	padded := make([]byte, m.size)
	copy(padded, data)

	opts := fs.AtomicWriteOptions{SyncDir: true, Perm: filePerm}

	if err := m.writer.Write(m.path, bytes.NewReader(padded), opts); err != nil {
		return fmt.Errorf("%w: writing %s: %v", nvram.ErrIO, m.path, err)
	}

	return nil
}

// Close implements [nvram.Medium]. A file medium holds no open handle
// between calls, so Close is a no-op.
func (m *Medium) Close() error { return nil }

var _ nvram.Medium = (*Medium)(nil)
