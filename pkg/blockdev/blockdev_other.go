//go:build !linux

package blockdev

import "os"

func deviceSize(_ *os.File) (int64, error) {
	return 0, ErrUnsupported
}
