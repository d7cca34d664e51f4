package convert

import (
	"context"
	"io/fs"
	"os"

	"github.com/temirov/queryconv/internal/platform"
)

// PlatformAPI is the subset of the platform client used by the convert
// workflow. All reads return per-run snapshots; the only write is
// UploadQueryGroups and it targets the project level exclusively.
type PlatformAPI interface {
	ListTeams(executionContext context.Context) ([]platform.Team, error)
	ListProjects(executionContext context.Context) ([]platform.Project, error)
	QueryCollection(executionContext context.Context) ([]platform.QueryGroup, error)
	UploadQueryGroups(executionContext context.Context, queryGroups []platform.QueryGroup) error
	ProjectScanLanguages(executionContext context.Context, projectIdentifier int64) ([]string, error)
}

// FileSystem provides the filesystem operations required by the
// save-queries mode.
type FileSystem interface {
	MkdirAll(path string, permissions fs.FileMode) error
	WriteFile(path string, data []byte, permissions fs.FileMode) error
}

// OSFileSystem implements FileSystem using the standard library.
type OSFileSystem struct{}

// MkdirAll creates the directory and any missing parents.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// WriteFile writes data to the named file.
func (OSFileSystem) WriteFile(path string, data []byte, permissions fs.FileMode) error {
	return os.WriteFile(path, data, permissions)
}
