package snapshot

import (
	"context"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/usersync/internal/client/models"
	"github.com/dmitrijs2005/usersync/internal/filex"
)

type FileExporter struct {
	dir string
	now func() time.Time
}

func NewFileExporter(dir string) *FileExporter {
	return &FileExporter{dir: dir, now: time.Now}
}

// Export writes <dir>/<name>.json, creating dir if needed.
func (e *FileExporter) Export(ctx context.Context, name string, users []models.User) (string, error) {
	file, err := objectName(name)
	if err != nil {
		return "", err
	}

	dir, err := filex.EnsureDir(e.dir)
	if err != nil {
		return "", err
	}

	data, err := encode(users, e.now())
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, file)
	if err := filex.WriteFileAtomic(path, data, 0o640); err != nil {
		return "", err
	}
	return path, nil
}
