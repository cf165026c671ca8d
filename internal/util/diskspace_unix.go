//go:build !windows

package util

import (
	"golang.org/x/sys/unix"
)

func GetDiskSpace(path string) (DiskSpaceInfo, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return DiskSpaceInfo{}, err
	}
	bsize := uint64(stat.Bsize)
	return newDiskSpaceInfo(stat.Bavail*bsize, stat.Blocks*bsize), nil
}
