package services

import (
	"fmt"
	"sync"

	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/util"
)

type JobCheck struct {
	OK     bool
	Reason string
}

// JobTracker caps how many conversions run at once and refuses new ones when
// the output volume is nearly full.
type JobTracker struct {
	mu     sync.Mutex
	active int
	limit  int

	diskRoot  string
	diskSpace func(string) (util.DiskSpaceInfo, error)
}

func NewJobTracker(limit int, diskRoot string) *JobTracker {
	return &JobTracker{
		limit:     limit,
		diskRoot:  diskRoot,
		diskSpace: util.GetDiskSpace,
	}
}

// CanStartJob reserves a slot when one is free. Every OK result must be paired
// with a ReleaseJob.
func (s *JobTracker) CanStartJob() JobCheck {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active >= s.limit {
		return JobCheck{false, fmt.Sprintf("Too many active convert jobs (limit: %d)", s.limit)}
	}

	if s.diskSpace != nil && s.diskRoot != "" {
		if ds, err := s.diskSpace(s.diskRoot); err == nil && ds.Low(config.DiskSpaceMinGB) {
			return JobCheck{false, fmt.Sprintf("Low disk space (%.1fGB free, need %dGB)", ds.AvailGB, config.DiskSpaceMinGB)}
		}
	}

	s.active++
	return JobCheck{true, ""}
}

func (s *JobTracker) ReleaseJob() {
	s.mu.Lock()
	if s.active > 0 {
		s.active--
	}
	s.mu.Unlock()
}

func (s *JobTracker) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
