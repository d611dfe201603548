// Package blockdev reports the capacity of a target device in 512-byte sectors.
package blockdev

import (
	"errors"
	"fmt"
	"os"

	"github.com/kairos-io/go-cuckoo/pkg/constants"
)

// ErrUnsupported is returned when block device sizes cannot be queried on this platform.
var ErrUnsupported = errors.New("block device size query not supported on this platform")

// Sectors returns the size of path in 512-byte sectors. Regular files (disk
// images) use their length, block devices are asked through ioctl.
func Sectors(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}

	var size int64
	switch mode := info.Mode(); {
	case mode.IsRegular():
		size = info.Size()
	case mode&os.ModeDevice != 0 && mode&os.ModeCharDevice == 0:
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		size, err = deviceSize(f)
		if err != nil {
			return 0, fmt.Errorf("querying size of %s: %w", path, err)
		}
	default:
		return 0, fmt.Errorf("%s is neither a block device nor a regular file", path)
	}

	return size / constants.SectorSize, nil
}
