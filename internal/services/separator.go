package services

import (
	"context"
	"path/filepath"
	"time"

	"github.com/coah80/mediaconv/internal/logger"
)

var separateLogger = logger.Get("Spleeter")

// Separator splits each input into stems with spleeter, writing under outDir.
type Separator struct {
	runner  Runner
	timeout time.Duration
}

func NewSeparator(runner Runner, timeout time.Duration) *Separator {
	return &Separator{runner: runner, timeout: timeout}
}

// Separate processes inputs in order and stops at the first failure.
func (s *Separator) Separate(ctx context.Context, jobID, outDir string, inputs []string) error {
	for _, in := range inputs {
		separateLogger.Emit(logger.INFO, "[%s] Separating %s\n", jobID, filepath.Base(in))
		if err := s.runner.Run(ctx, s.timeout, "spleeter", "separate", "-o", outDir, in); err != nil {
			separateLogger.Emit(logger.ERROR, "[%s] spleeter failed on %s: %v\n", jobID, filepath.Base(in), err)
			return asToolError("spleeter", err)
		}
	}
	return nil
}
