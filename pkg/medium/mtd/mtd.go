// Package mtd implements [nvram.Medium] on top of a raw MTD (Memory
// Technology Device) partition, the normal backing store for NVRAM on
// devices with raw NOR/NAND flash.
//
// A section is identified by its MTD partition label (as found under
// /sys/class/mtd/*/name) rather than a /dev/mtdN path directly, since
// the device number a given partition is assigned can change across
// boots. Writing erases the whole partition first — MTD devices cannot
// be overwritten in place — and, if NVRAM_WP_GPIO names a sysfs GPIO
// value file, toggles it low around the erase+write to disable a
// hardware write-protect line.
//
// This is a best-effort port: it is grounded on the original platform
// driver's MTD backend but has not been exercised against real MTD
// hardware in this repository, unlike pkg/medium/file.
package mtd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/nvramkv/nvram/pkg/nvram"
)

// memerase is MEMERASE from <mtd/mtd-user.h>: _IOW('M', 2,
// struct erase_info_user { __u32 start; __u32 length; }).
const memerase = 0x40084d02

type eraseInfoUser struct {
	Start  uint32
	Length uint32
}

// Medium implements [nvram.Medium] over a single MTD partition.
type Medium struct {
	devPath  string
	size     uint64
	gpioPath string
}

// New locates the MTD partition named label under /sys/class/mtd and
// opens it as a section of sectionSize bytes. gpioPath, if non-empty,
// names a sysfs GPIO value file toggled low (disabling write-protect)
// for the duration of each Write and restored high afterward, mirroring
// the NVRAM_WP_GPIO behavior of the original driver.
func New(label string, sectionSize uint64, gpioPath string) (*Medium, error) {
	devPath, err := findMTDByLabel(label)
	if err != nil {
		return nil, err
	}

	return &Medium{devPath: devPath, size: sectionSize, gpioPath: gpioPath}, nil
}

func findMTDByLabel(label string) (string, error) {
	entries, err := os.ReadDir("/sys/class/mtd")
	if err != nil {
		return "", fmt.Errorf("%w: listing /sys/class/mtd: %v", nvram.ErrIO, err)
	}

	for _, e := range entries {
		nameBytes, err := os.ReadFile(filepath.Join("/sys/class/mtd", e.Name(), "name"))
		if err != nil {
			continue
		}

		if strings.TrimSpace(string(nameBytes)) == label {
			return filepath.Join("/dev", e.Name()), nil
		}
	}

	return "", fmt.Errorf("%w: no mtd partition labeled %q", nvram.ErrIO, label)
}

// Size implements [nvram.Medium].
func (m *Medium) Size() uint64 { return m.size }

// BlankFill implements [nvram.Medium]. An erased NOR/NAND cell reads
// back as all-ones.
func (m *Medium) BlankFill() byte { return 0xFF }

// Read implements [nvram.Medium].
func (m *Medium) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(m.devPath, os.O_RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", nvram.ErrIO, m.devPath, err)
	}
	defer f.Close()

	buf := make([]byte, m.size)

	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("%w: reading %s: %v", nvram.ErrIO, m.devPath, err)
	}

	return buf[:n], nil
}

// Write implements [nvram.Medium]: it erases the partition and writes
// data, padded to the full section size, toggling the write-protect
// GPIO (if configured) around the operation.
func (m *Medium) Write(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if uint64(len(data)) > m.size {
		return fmt.Errorf("%w: %d bytes exceeds section size %d", nvram.ErrTooSmall, len(data), m.size)
	}

	if m.gpioPath != "" {
		if err := writeGPIO(m.gpioPath, false); err != nil {
			return err
		}
		defer writeGPIO(m.gpioPath, true)
	}

	f, err := os.OpenFile(m.devPath, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", nvram.ErrIO, m.devPath, err)
	}
	defer f.Close()

	if err := eraseMTD(f.Fd(), m.size); err != nil {
		return err
	}

	padded := make([]byte, m.size)
	copy(padded, data)

	if _, err := f.Write(padded); err != nil {
		return fmt.Errorf("%w: writing %s: %v", nvram.ErrIO, m.devPath, err)
	}

	return nil
}

func eraseMTD(fd uintptr, size uint64) error {
	info := eraseInfoUser{Start: 0, Length: uint32(size)}

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, fd, memerase, uintptr(unsafe.Pointer(&info)))
	if errno != 0 {
		return fmt.Errorf("%w: MEMERASE: %v", nvram.ErrIO, errno)
	}

	return nil
}

func writeGPIO(path string, high bool) error {
	val := []byte("0")
	if high {
		val = []byte("1")
	}

	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("%w: opening gpio %s: %v", nvram.ErrIO, path, err)
	}
	defer f.Close()

	if _, err := f.Write(val); err != nil {
		return fmt.Errorf("%w: writing gpio %s: %v", nvram.ErrIO, path, err)
	}

	return nil
}

// Close implements [nvram.Medium]. An mtd medium holds no open handle
// between calls, so Close is a no-op.
func (m *Medium) Close() error { return nil }

var _ nvram.Medium = (*Medium)(nil)
