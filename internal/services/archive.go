package services

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/coah80/mediaconv/internal/logger"
)

var archiveLogger = logger.Get("Archive")

type ArchiveResult struct {
	Path      string
	SizeBytes int64
	SizeMB    float64
	URL       string
}

// Archiver zips a finished workspace into the output root as "<id>.zip".
type Archiver struct {
	outputRoot string
}

func NewArchiver(outputRoot string) *Archiver {
	return &Archiver{outputRoot: outputRoot}
}

func ArchiveName(id string) string {
	return id + ".zip"
}

func DownloadURL(id string) string {
	return "/download/" + ArchiveName(id)
}

// SizeMB converts a byte count to megabytes rounded to two decimals.
func SizeMB(bytes int64) float64 {
	return math.Round(float64(bytes)/(1024*1024)*100) / 100
}

// Archive writes the whole tree under sourceDir. The archive is assembled under a
// temporary name and renamed into place, so a download never sees half a file.
func (a *Archiver) Archive(sourceDir, id string) (*ArchiveResult, error) {
	if err := os.MkdirAll(a.outputRoot, 0o755); err != nil {
		return nil, &IOError{Op: "create output root", Path: a.outputRoot, Err: err}
	}

	zipPath := filepath.Join(a.outputRoot, ArchiveName(id))
	partPath := zipPath + ".part"

	if err := createZip(partPath, sourceDir); err != nil {
		os.Remove(partPath)
		return nil, &IOError{Op: "write archive", Path: zipPath, Err: err}
	}
	if err := os.Rename(partPath, zipPath); err != nil {
		os.Remove(partPath)
		return nil, &IOError{Op: "finalize archive", Path: zipPath, Err: err}
	}

	stat, err := os.Stat(zipPath)
	if err != nil {
		return nil, &IOError{Op: "stat archive", Path: zipPath, Err: err}
	}

	res := &ArchiveResult{
		Path:      zipPath,
		SizeBytes: stat.Size(),
		SizeMB:    SizeMB(stat.Size()),
		URL:       DownloadURL(id),
	}
	archiveLogger.Emit(logger.SUCCESS, "[%s] Archive ready (%.2fMB)\n", id, res.SizeMB)
	return res, nil
}

func createZip(zipPath, sourceDir string) (err error) {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(f)
	walkErr := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == sourceDir {
			return nil
		}
		rel, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		if d.IsDir() {
			_, err := zw.Create(name + "/")
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return addZipFile(zw, path, name, d)
	})
	if walkErr != nil {
		zw.Close()
		return walkErr
	}
	return zw.Close()
}

func addZipFile(zw *zip.Writer, path, name string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	entry, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	if _, err := io.Copy(entry, src); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return nil
}
