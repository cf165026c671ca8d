package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coah80/mediaconv/internal/logger"
)

var transcodeLogger = logger.Get("Transcode")

const ConvertedDirName = "converted"

var audioFormats = map[string]bool{
	"mp3": true, "wav": true, "flac": true, "ogg": true, "opus": true,
	"m4a": true, "aac": true, "wma": true, "aiff": true,
}

// Transcoder re-encodes files with ffmpeg. ffmpeg probes the source container
// itself, so only the target format has to be spelled out.
type Transcoder struct {
	runner  Runner
	timeout time.Duration
}

func NewTranscoder(runner Runner, timeout time.Duration) *Transcoder {
	return &Transcoder{runner: runner, timeout: timeout}
}

// OutputPath is where the converted copy of input lands inside outDir.
func OutputPath(outDir, input, format string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(outDir, base+"."+format)
}

// Args builds the ffmpeg command line for one file.
func (t *Transcoder) Args(input, output, format string) []string {
	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-i", input}

	if audioFormats[format] {
		args = append(args, "-vn")
	}
	switch format {
	case "mp3":
		args = append(args, "-codec:a", "libmp3lame", "-b:a", "320k")
	case "m4a", "aac":
		args = append(args, "-codec:a", "aac", "-b:a", "256k")
	case "opus":
		args = append(args, "-codec:a", "libopus", "-b:a", "192k")
	case "ogg":
		args = append(args, "-codec:a", "libvorbis", "-q:a", "6")
	case "wav":
		args = append(args, "-codec:a", "pcm_s16le")
	case "flac":
		args = append(args, "-codec:a", "flac")
	case "mp4", "mov":
		args = append(args, "-movflags", "+faststart")
	}
	return append(args, output)
}

// TranscodeAll converts every input into a fresh subdirectory of workDir and
// returns that directory. The first failure aborts the batch.
func (t *Transcoder) TranscodeAll(ctx context.Context, jobID, workDir string, inputs []string, format string) (string, error) {
	outDir := filepath.Join(workDir, ConvertedDirName)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", &IOError{Op: "create", Path: outDir, Err: err}
	}

	for _, in := range inputs {
		out := OutputPath(outDir, in, format)
		transcodeLogger.Emit(logger.INFO, "[%s] %s -> %s\n", jobID, filepath.Base(in), filepath.Base(out))
		if err := t.runner.Run(ctx, t.timeout, "ffmpeg", t.Args(in, out, format)...); err != nil {
			transcodeLogger.Emit(logger.ERROR, "[%s] ffmpeg failed on %s: %v\n", jobID, filepath.Base(in), err)
			return "", &ConversionError{File: filepath.Base(in), Err: asToolError("ffmpeg", err)}
		}
	}
	return outDir, nil
}
