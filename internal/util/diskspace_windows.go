//go:build windows

package util

import (
	"golang.org/x/sys/windows"
)

func GetDiskSpace(path string) (DiskSpaceInfo, error) {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return DiskSpaceInfo{}, err
	}

	var freeBytesAvailable, totalBytes, totalFreeBytes uint64
	if err := windows.GetDiskFreeSpaceEx(pathPtr, &freeBytesAvailable, &totalBytes, &totalFreeBytes); err != nil {
		return DiskSpaceInfo{}, err
	}
	return newDiskSpaceInfo(freeBytesAvailable, totalBytes), nil
}
