//go:build linux

package blockdev

import (
	"log/slog"
	"os"
	"unsafe"

	"github.com/kairos-io/go-cuckoo/pkg/constants"
	"golang.org/x/sys/unix"
)

func deviceSize(f *os.File) (int64, error) {
	var size uint64
	if _, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), unix.BLKGETSIZE64, uintptr(unsafe.Pointer(&size))); errno != 0 {
		return 0, errno
	}

	if ssz, err := unix.IoctlGetInt(int(f.Fd()), unix.BLKSSZGET); err == nil && ssz != constants.SectorSize {
		slog.Warn("Device logical sector size differs from layout unit", "device", f.Name(), "sector-size", ssz)
	}
	return int64(size), nil
}
