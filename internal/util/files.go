package util

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/logger"
)

var sweepLogger = logger.Get("Sweeper")

// EnsureDirs creates every directory that does not exist yet.
func EnsureDirs(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

type SweepResult struct {
	Removed []string
	Failed  int
}

// Sweeper deletes entries under its roots whose modification time is older than
// maxAge. Only immediate children are considered; directories go as a whole.
type Sweeper struct {
	roots    []string
	maxAge   time.Duration
	interval time.Duration

	// OnFailure, when set, is told about every entry that could not be removed.
	OnFailure func(path string, err error)

	remove func(path string) error
}

func NewSweeper(roots []string, maxAge, interval time.Duration) *Sweeper {
	return &Sweeper{roots: roots, maxAge: maxAge, interval: interval, remove: os.RemoveAll}
}

func NewSweeperFromConfig(cfg *config.Config) *Sweeper {
	return NewSweeper([]string{cfg.UploadFolder, cfg.OutputFolder}, cfg.RetentionAge(), config.SweepInterval)
}

// Sweep runs one pass. A failure on one entry never stops the others.
func (s *Sweeper) Sweep(now time.Time) SweepResult {
	var result SweepResult
	cutoff := now.Add(-s.maxAge)

	for _, root := range s.roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			sweepLogger.Emit(logger.WARNING, "Cannot list %s: %v\n", root, err)
			continue
		}
		for _, e := range entries {
			p := filepath.Join(root, e.Name())
			info, err := e.Info()
			if err != nil {
				if !os.IsNotExist(err) {
					s.fail(&result, p, err)
				}
				continue
			}
			if !info.ModTime().Before(cutoff) {
				continue
			}
			if err := s.remove(p); err != nil {
				s.fail(&result, p, err)
				continue
			}
			result.Removed = append(result.Removed, p)
			sweepLogger.Emit(logger.REMOVE, "Removed %s\n", p)
		}
	}
	return result
}

func (s *Sweeper) fail(result *SweepResult, path string, err error) {
	result.Failed++
	sweepLogger.Emit(logger.ERROR, "Failed to remove %s: %v\n", path, err)
	if s.OnFailure != nil {
		s.OnFailure(path, err)
	}
}

// Start runs Sweep every interval until ctx is done. A panic inside one pass is
// logged and the schedule carries on.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				s.runGuarded(now)
			}
		}
	}()
}

func (s *Sweeper) runGuarded(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			sweepLogger.Emit(logger.ERROR, "Sweep pass panicked: %v\n", r)
		}
	}()

	result := s.Sweep(now)
	sweepLogger.Emit(logger.INFO, "Sweep finished: %d removed, %d failed\n", len(result.Removed), result.Failed)
	s.reportDiskSpace()
}

func (s *Sweeper) reportDiskSpace() {
	if len(s.roots) == 0 {
		return
	}
	root := s.roots[len(s.roots)-1]
	ds, err := GetDiskSpace(root)
	if err != nil {
		return
	}
	sweepLogger.Emit(logger.INFO, "%.1fGB free / %.1fGB total (%.1fGB used)\n", ds.AvailGB, ds.TotalGB, ds.UsedGB)
	if ds.Low(config.DiskSpaceMinGB) {
		sweepLogger.Emit(logger.WARNING, "Only %.1fGB free on %s, below %dGB threshold\n", ds.AvailGB, root, config.DiskSpaceMinGB)
	}
}
