package services

import (
	"context"
	"path/filepath"
	"time"

	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/logger"
	"github.com/coah80/mediaconv/internal/util"
)

var downloadLogger = logger.Get("Download")

type DownloadOpts struct {
	Format    string
	OutputDir string
}

// Downloader fetches a remote media URL into a workspace with yt-dlp.
type Downloader struct {
	runner      Runner
	timeout     time.Duration
	cookiesFile string
	proxy       string
}

func NewDownloader(runner Runner, cfg *config.Config) *Downloader {
	return &Downloader{
		runner:      runner,
		timeout:     config.DownloadTimeout,
		cookiesFile: cfg.YtdlpCookiesFile,
		proxy:       cfg.YtdlpProxy,
	}
}

// Args builds the yt-dlp command line. The best audio stream is always
// preferred; it is extracted and re-encoded to the requested format unless the
// pass-through container was asked for.
func (d *Downloader) Args(url string, opts DownloadOpts) []string {
	args := []string{
		"-o", filepath.Join(opts.OutputDir, "%(title)s.%(ext)s"),
		"-f", "bestaudio/best",
		"--no-playlist",
		"--quiet",
	}
	if opts.Format != config.PassthroughFormat {
		args = append(args, "--extract-audio", "--audio-format", opts.Format)
	}
	args = append(args, util.CookiesArgs(d.cookiesFile)...)
	args = append(args, util.ProxyArgs(d.proxy)...)
	return append(args, url)
}

func (d *Downloader) Download(ctx context.Context, jobID, url string, opts DownloadOpts) error {
	downloadLogger.Emit(logger.INFO, "[%s] Fetching %s as %s\n", jobID, url, opts.Format)

	err := d.runner.Run(ctx, d.timeout, "yt-dlp", d.Args(url, opts)...)
	if err != nil {
		downloadLogger.Emit(logger.ERROR, "[%s] yt-dlp failed: %v\n", jobID, err)
		return asToolError("yt-dlp", err)
	}
	return nil
}

// asToolError makes sure a runner failure surfaces as a ToolExecutionError even
// when a custom Runner returns something else.
func asToolError(tool string, err error) error {
	if te, ok := err.(*ToolExecutionError); ok {
		return te
	}
	return &ToolExecutionError{Tool: tool, ExitCode: -1, Err: err}
}
