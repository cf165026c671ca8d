package routes

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/services"
)

var zipURLPattern = regexp.MustCompile(`^/download/[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\.zip$`)

// copyRunner stands in for ffmpeg by copying the input to the output path.
type copyRunner struct{}

func (copyRunner) Run(ctx context.Context, timeout time.Duration, name string, args ...string) error {
	if name != "ffmpeg" {
		return errors.New("unexpected tool " + name)
	}
	var in string
	for i := 0; i < len(args)-1; i++ {
		if args[i] == "-i" {
			in = args[i+1]
		}
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	return os.WriteFile(args[len(args)-1], data, 0o644)
}

type stubConverter struct {
	res *services.Result
	err error
	got services.ConversionRequest
	fn  func()
}

func (s *stubConverter) Convert(ctx context.Context, req services.ConversionRequest) (*services.Result, error) {
	s.got = req
	if s.fn != nil {
		s.fn()
	}
	return s.res, s.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	base := t.TempDir()
	return &config.Config{
		UploadFolder:      filepath.Join(base, "downloads"),
		OutputFolder:      filepath.Join(base, "outputs"),
		IndexFile:         filepath.Join(base, "index.html"),
		MaxContentLength:  1 << 20,
		AllowedExtensions: []string{"mp3", "wav", "mp4", "mkv", "avi", "flac"},
		CleanupAgeHours:   24,
		ToolTimeoutSec:    60,
		MaxConcurrentJobs: 2,
	}
}

func newRouter(cfg *config.Config, conv Converter, jobs *services.JobTracker) http.Handler {
	r := chi.NewRouter()
	CoreRoutes(r, cfg)
	DownloadRoutes(r, cfg)
	ConvertRoutes(r, NewConvertHandler(cfg, conv, jobs, nil))
	return r
}

func multipartBody(t *testing.T, fields map[string]string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func postConvert(t *testing.T, h http.Handler, fields, files map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	body, contentType := multipartBody(t, fields, files)
	req := httptest.NewRequest(http.MethodPost, "/convert", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec, out
}

func TestHealth(t *testing.T) {
	cfg := testConfig(t)
	h := newRouter(cfg, &stubConverter{}, services.NewJobTracker(2, ""))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndex(t *testing.T) {
	cfg := testConfig(t)
	h := newRouter(cfg, &stubConverter{}, services.NewJobTracker(2, ""))

	t.Run("missing page is a 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("serves the landing page", func(t *testing.T) {
		require.NoError(t, os.WriteFile(cfg.IndexFile, []byte("<h1>convert</h1>"), 0o644))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "<h1>convert</h1>")
	})
}

func TestConvertEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	h := newRouter(cfg, services.NewConverter(cfg, copyRunner{}), services.NewJobTracker(2, ""))

	rec, out := postConvert(t, h, map[string]string{"format": "mp3"}, map[string]string{"song.wav": "pcm"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["success"])
	zipURL, _ := out["zip_url"].(string)
	assert.Regexp(t, zipURLPattern, zipURL)
	_, ok := out["size_mb"].(float64)
	assert.True(t, ok)

	dl := httptest.NewRecorder()
	h.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, zipURL, nil))
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "attachment")

	zr, err := zip.NewReader(bytes.NewReader(dl.Body.Bytes()), int64(dl.Body.Len()))
	require.NoError(t, err)
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	require.Len(t, names, 1)
	assert.True(t, strings.HasSuffix(names[0], "_song.mp3"), names[0])

	entries, err := os.ReadDir(cfg.UploadFolder)
	require.NoError(t, err)
	assert.Empty(t, entries, "workspace should be released")
}

func TestConvertErrors(t *testing.T) {
	t.Run("no input", func(t *testing.T) {
		cfg := testConfig(t)
		h := newRouter(cfg, services.NewConverter(cfg, copyRunner{}), services.NewJobTracker(2, ""))

		rec, out := postConvert(t, h, map[string]string{"format": "mp3"}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, false, out["success"])
		assert.Equal(t, "Aucun fichier ni URL", out["error"])
	})

	t.Run("only disallowed files", func(t *testing.T) {
		cfg := testConfig(t)
		h := newRouter(cfg, services.NewConverter(cfg, copyRunner{}), services.NewJobTracker(2, ""))

		rec, out := postConvert(t, h, nil, map[string]string{"notes.txt": "hello"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Aucun fichier valide à traiter.", out["error"])
	})

	t.Run("tool failure", func(t *testing.T) {
		cfg := testConfig(t)
		conv := &stubConverter{err: &services.ToolExecutionError{Tool: "yt-dlp", ExitCode: 1, Stderr: "ERROR: Unsupported URL: https://example.com"}}
		h := newRouter(cfg, conv, services.NewJobTracker(2, ""))

		rec, out := postConvert(t, h, map[string]string{"url": "https://example.com"}, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, false, out["success"])
		assert.Equal(t, "Erreur traitement subprocess (yt-dlp): This website isn't supported", out["error"])
	})

	t.Run("io failure is reported verbatim", func(t *testing.T) {
		cfg := testConfig(t)
		ioErr := &services.IOError{Op: "create archive", Path: "/x.zip", Err: os.ErrPermission}
		h := newRouter(cfg, &stubConverter{err: ioErr}, services.NewJobTracker(2, ""))

		rec, out := postConvert(t, h, map[string]string{"url": "https://example.com"}, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, ioErr.Error(), out["error"])
	})

	t.Run("panic becomes a 500", func(t *testing.T) {
		cfg := testConfig(t)
		jobs := services.NewJobTracker(2, "")
		h := newRouter(cfg, &stubConverter{fn: func() { panic("boom") }}, jobs)

		rec, out := postConvert(t, h, map[string]string{"url": "https://example.com"}, nil)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, false, out["success"])
		assert.Contains(t, out["error"], "boom")
		assert.Equal(t, 0, jobs.Active())
	})

	t.Run("body over the limit", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.MaxContentLength = 512
		h := newRouter(cfg, &stubConverter{}, services.NewJobTracker(2, ""))

		rec, out := postConvert(t, h, nil, map[string]string{"big.mp3": strings.Repeat("x", 4096)})
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, false, out["success"])
	})

	t.Run("missing input wins over a full job tracker", func(t *testing.T) {
		cfg := testConfig(t)
		jobs := services.NewJobTracker(1, "")
		require.True(t, jobs.CanStartJob().OK)
		h := newRouter(cfg, &stubConverter{}, jobs)

		rec, out := postConvert(t, h, map[string]string{"format": "mp3"}, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Aucun fichier ni URL", out["error"])
		assert.Equal(t, 1, jobs.Active())
	})

	t.Run("no free job slot", func(t *testing.T) {
		cfg := testConfig(t)
		jobs := services.NewJobTracker(1, "")
		require.True(t, jobs.CanStartJob().OK)
		h := newRouter(cfg, &stubConverter{}, jobs)

		rec, out := postConvert(t, h, map[string]string{"url": "https://example.com"}, nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, out["error"], "Too many active convert jobs")
	})
}

func TestConvertFormFields(t *testing.T) {
	cfg := testConfig(t)
	conv := &stubConverter{res: &services.Result{ZipURL: "/download/x.zip", SizeMB: 0}}
	h := newRouter(cfg, conv, services.NewJobTracker(2, ""))

	rec, out := postConvert(t, h, map[string]string{"useSpleeter": "on", "url": "https://example.com/v"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), out["size_mb"])
	assert.Equal(t, "mp3", conv.got.Format)
	assert.True(t, conv.got.Separate)
	assert.Equal(t, "https://example.com/v", conv.got.URL)

	_, _ = postConvert(t, h, map[string]string{"useSpleeter": "true", "format": "wav"}, map[string]string{"a.mp3": "x"})
	assert.False(t, conv.got.Separate)
	assert.Equal(t, "wav", conv.got.Format)
	assert.Len(t, conv.got.Files, 1)
}

func TestDownload(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.OutputFolder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.OutputFolder, "abc.zip"), []byte("PK"), 0o644))
	h := newRouter(cfg, &stubConverter{}, services.NewJobTracker(2, ""))

	t.Run("existing archive", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/abc.zip", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "PK", rec.Body.String())
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `attachment; filename="abc.zip"`)
	})

	t.Run("missing archive", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/nope.zip", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("traversal is refused", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/download/..%2Fsecret", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestJobID(t *testing.T) {
	wrapped := &services.JobError{ID: "0b5c9a8e-1111-4222-8333-944455556666", Err: os.ErrPermission}
	assert.Equal(t, "0b5c9a8e-1111-4222-8333-944455556666", jobID(wrapped))
	assert.Equal(t, "-", jobID(errors.New("boom")))

	status, message := errorResponse(&services.JobError{ID: "x", Err: &services.NoValidInputError{Message: "Aucun fichier valide à traiter."}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Aucun fichier valide à traiter.", message)
}
