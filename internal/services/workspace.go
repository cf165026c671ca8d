package services

import (
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/coah80/mediaconv/internal/logger"
)

var workspaceLogger = logger.Get("Workspace")

// WorkspaceManager hands out one scratch directory per request under the
// intake root. Request ids are random UUIDs, so concurrent requests never
// share a directory and need no locking.
type WorkspaceManager struct {
	root string
}

func NewWorkspaceManager(root string) *WorkspaceManager {
	return &WorkspaceManager{root: root}
}

func (m *WorkspaceManager) Root() string {
	return m.root
}

// Acquire creates a fresh workspace and returns its request id and path.
// Callers must defer Release(path) as soon as Acquire succeeds.
func (m *WorkspaceManager) Acquire() (string, string, error) {
	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return "", "", &IOError{Op: "create intake root", Path: m.root, Err: err}
	}

	id := uuid.New().String()
	path := filepath.Join(m.root, id)
	if err := os.Mkdir(path, 0o755); err != nil {
		return "", "", &IOError{Op: "create workspace", Path: path, Err: err}
	}

	workspaceLogger.Emit(logger.NEW, "Workspace %s created\n", id)
	return id, path, nil
}

// Release removes the workspace tree. Failures are logged and swallowed so they
// never replace the request's real outcome.
func (m *WorkspaceManager) Release(path string) {
	if err := os.RemoveAll(path); err != nil {
		workspaceLogger.Emit(logger.ERROR, "Failed to remove workspace %s: %v\n", path, err)
		return
	}
	workspaceLogger.Emit(logger.REMOVE, "Workspace %s removed\n", filepath.Base(path))
}

// listInputFiles returns the regular files directly inside dir, sorted by name.
func listInputFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Op: "read workspace", Path: dir, Err: err}
	}

	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files, nil
}
