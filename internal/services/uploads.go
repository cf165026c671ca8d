package services

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/coah80/mediaconv/internal/config"
	"github.com/coah80/mediaconv/internal/logger"
)

var uploadLogger = logger.Get("Upload")

// UploadSaver copies allow-listed multipart files into a workspace.
type UploadSaver struct {
	cfg *config.Config
}

func NewUploadSaver(cfg *config.Config) *UploadSaver {
	return &UploadSaver{cfg: cfg}
}

// Save writes every acceptable file into dir as "<hex token>_<name>" and returns
// how many were kept. Files without an extension or with one outside the
// allow-list are skipped without complaint.
func (s *UploadSaver) Save(jobID, dir string, files []*multipart.FileHeader) (int, error) {
	saved := 0
	for _, fh := range files {
		if fh == nil {
			continue
		}
		name := filepath.Base(fh.Filename)
		dot := strings.LastIndex(name, ".")
		if dot < 0 || !s.cfg.AllowsExtension(name[dot+1:]) {
			uploadLogger.Emit(logger.DEBUG, "[%s] Skipping %q: extension not allowed\n", jobID, fh.Filename)
			continue
		}

		dst := filepath.Join(dir, strings.ReplaceAll(uuid.New().String(), "-", "")+"_"+name)
		if err := copyUpload(fh, dst); err != nil {
			return saved, err
		}
		saved++
	}
	uploadLogger.Emit(logger.INFO, "[%s] Saved %d of %d uploaded files\n", jobID, saved, len(files))
	return saved, nil
}

func copyUpload(fh *multipart.FileHeader, dst string) error {
	src, err := fh.Open()
	if err != nil {
		return &IOError{Op: "open upload", Path: fh.Filename, Err: err}
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return &IOError{Op: "create", Path: dst, Err: err}
	}
	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		os.Remove(dst)
		return &IOError{Op: "write", Path: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &IOError{Op: "close", Path: dst, Err: err}
	}
	return nil
}
