// Package efi implements [nvram.Medium] on top of an EFI variable file
// (or any regular file living on a filesystem that supports the ext2
// immutable inode attribute), the backend used on devices that expose
// NVRAM through efivarfs rather than raw flash or a plain file.
//
// Every on-disk image is prefixed with a fixed 4-byte attribute header
// (attr=0x7: EFI_VARIABLE_NON_VOLATILE | BOOTSERVICE_ACCESS |
// RUNTIME_ACCESS) before the section payload, matching the original
// driver's EFI_HEADER. Writes clear the file's immutable flag first and
// restore it afterward, so the variable is protected from accidental
// modification between nvram writes the way the platform firmware
// expects.
package efi

import (
	"context"
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/nvramkv/nvram/pkg/nvram"
)

// efiHeaderSize is sizeof(struct efi_header) in the original driver: a
// single uint32 attribute word.
const efiHeaderSize = 4

// efiHeaderAttr is EFI_VARIABLE_NON_VOLATILE | EFI_VARIABLE_BOOTSERVICE_ACCESS
// | EFI_VARIABLE_RUNTIME_ACCESS, stamped at the front of every image.
const efiHeaderAttr uint32 = 0x7

// Medium implements [nvram.Medium] over a single EFI variable file.
type Medium struct {
	path string
	size uint64
}

// New opens path as a section of sectionSize bytes, exclusive of the
// 4-byte attribute header prepended to every image written here.
func New(path string, sectionSize uint64) (*Medium, error) {
	return &Medium{path: path, size: sectionSize}, nil
}

// Size implements [nvram.Medium].
func (m *Medium) Size() uint64 { return m.size }

// BlankFill implements [nvram.Medium].
func (m *Medium) BlankFill() byte { return 0x00 }

// Read implements [nvram.Medium]. A missing file reads back as empty.
func (m *Medium) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: reading %s: %v", nvram.ErrIO, m.path, err)
	}

	if len(raw) < efiHeaderSize {
		return nil, nil
	}

	payload := raw[efiHeaderSize:]
	if uint64(len(payload)) > m.size {
		payload = payload[:m.size]
	}

	return payload, nil
}

// Write implements [nvram.Medium]: it clears the immutable flag, writes
// the 4-byte attribute header followed by data padded to the section
// size, and restores the immutable flag.
func (m *Medium) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if uint64(len(data)) > m.size {
		return fmt.Errorf("%w: %d bytes exceeds section size %d", nvram.ErrTooSmall, len(data), m.size)
	}

	if _, err := os.Stat(m.path); err == nil {
		if err := setImmutable(m.path, false); err != nil {
			return err
		}
		defer setImmutable(m.path, true)
	}

	buf := make([]byte, efiHeaderSize+m.size)
	binary.LittleEndian.PutUint32(buf, efiHeaderAttr)
	copy(buf[efiHeaderSize:], data)

	if err := os.WriteFile(m.path, buf, 0o600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", nvram.ErrIO, m.path, err)
	}

	if err := setImmutable(m.path, true); err != nil {
		return err
	}

	return nil
}

func setImmutable(path string, value bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", nvram.ErrIO, path, err)
	}
	defer f.Close()

	cur, err := unix.IoctlGetInt(int(f.Fd()), unix.FS_IOC_GETFLAGS)
	if err != nil {
		return fmt.Errorf("%w: FS_IOC_GETFLAGS %s: %v", nvram.ErrIO, path, err)
	}

	if value {
		cur |= unix.FS_IMMUTABLE_FL
	} else {
		cur &^= unix.FS_IMMUTABLE_FL
	}

	if err := unix.IoctlSetPointerInt(int(f.Fd()), unix.FS_IOC_SETFLAGS, cur); err != nil {
		return fmt.Errorf("%w: FS_IOC_SETFLAGS %s: %v", nvram.ErrIO, path, err)
	}

	return nil
}

// Close implements [nvram.Medium]. An efi medium holds no open handle
// between calls, so Close is a no-op.
func (m *Medium) Close() error { return nil }

var _ nvram.Medium = (*Medium)(nil)
