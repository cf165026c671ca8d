package util

const gib = 1024 * 1024 * 1024

type DiskSpaceInfo struct {
	AvailGB float64
	TotalGB float64
	UsedGB  float64
}

func newDiskSpaceInfo(availBytes, totalBytes uint64) DiskSpaceInfo {
	availGB := float64(availBytes) / gib
	totalGB := float64(totalBytes) / gib
	return DiskSpaceInfo{
		AvailGB: availGB,
		TotalGB: totalGB,
		UsedGB:  totalGB - availGB,
	}
}

// Low reports whether less than minGB is free.
func (d DiskSpaceInfo) Low(minGB float64) bool {
	return d.AvailGB < minGB
}
