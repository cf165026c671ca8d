package services

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coah80/mediaconv/internal/config"
)

type toolCall struct {
	Name string
	Args []string
}

// fakeRunner imitates yt-dlp, ffmpeg and spleeter closely enough for the
// pipeline: each writes the files the real tool would.
type fakeRunner struct {
	mu    sync.Mutex
	calls []toolCall
	fail  map[string]error
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{fail: map[string]error{}}
}

func (f *fakeRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) error {
	f.mu.Lock()
	f.calls = append(f.calls, toolCall{Name: name, Args: append([]string(nil), args...)})
	err := f.fail[name]
	f.mu.Unlock()
	if err != nil {
		return err
	}

	switch name {
	case "yt-dlp":
		template := argAfter(args, "-o")
		ext := argAfter(args, "--audio-format")
		if ext == "" {
			ext = "mp4"
		}
		return os.WriteFile(filepath.Join(filepath.Dir(template), "Remote Title."+ext), []byte("downloaded"), 0o644)
	case "ffmpeg":
		data, err := os.ReadFile(argAfter(args, "-i"))
		if err != nil {
			return err
		}
		return os.WriteFile(args[len(args)-1], data, 0o644)
	case "spleeter":
		outDir := argAfter(args, "-o")
		in := args[len(args)-1]
		stemDir := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)))
		if err := os.MkdirAll(stemDir, 0o755); err != nil {
			return err
		}
		for _, stem := range []string{"vocals.wav", "accompaniment.wav"} {
			if err := os.WriteFile(filepath.Join(stemDir, stem), []byte(stem), 0o644); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.New("unexpected tool " + name)
}

func (f *fakeRunner) Calls(name string) []toolCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []toolCall
	for _, c := range f.calls {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

func argAfter(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	return &config.Config{
		UploadFolder:      filepath.Join(base, "downloads"),
		OutputFolder:      filepath.Join(base, "outputs"),
		MaxContentLength:  10 * 1024 * 1024,
		AllowedExtensions: []string{"mp3", "wav", "mp4", "mkv", "avi", "flac"},
		CleanupAgeHours:   24,
		ToolTimeoutSec:    60,
		MaxConcurrentJobs: 2,
	}
}

// uploadFiles turns name→content pairs into the headers a parsed multipart form
// would carry under the "files" field.
func uploadFiles(t *testing.T, files map[string]string) []*multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File["files"]
}

func intakeEntries(t *testing.T, cfg *config.Config) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(cfg.UploadFolder)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	return entries
}
