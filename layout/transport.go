package layout

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"ocm.software/open-component-model/resolution/repository"
)

// Transport reads the files of a layout.
type Transport interface {
	// Open opens the file at the given slash separated path.
	// Absent files are reported with an error matching fs.ErrNotExist.
	Open(ctx context.Context, file string) (io.ReadCloser, error)
	// Location describes where the file is looked up, for diagnostics.
	Location(file string) string
	// Cost of fetching a file.
	Cost() repository.Cost
}

// FileSystemTransport reads a layout from a directory of a virtual file system.
type FileSystemTransport struct {
	fileSystem vfs.FileSystem
	root       string
}

var _ Transport = (*FileSystemTransport)(nil)

// NewFileSystemTransport creates a transport reading below root.
func NewFileSystemTransport(fileSystem vfs.FileSystem, root string) *FileSystemTransport {
	return &FileSystemTransport{fileSystem: fileSystem, root: root}
}

func (t *FileSystemTransport) path(file string) string {
	return vfs.Join(t.fileSystem, t.root, strings.TrimPrefix(path.Clean("/"+file), "/"))
}

func (t *FileSystemTransport) Open(ctx context.Context, file string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := t.fileSystem.Open(t.path(file))
	if vfs.IsErrNotExist(err) {
		return nil, fmt.Errorf("%s: %w", t.path(file), fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", t.path(file), err)
	}
	return f, nil
}

func (t *FileSystemTransport) Location(file string) string {
	return t.path(file)
}

func (t *FileSystemTransport) Cost() repository.Cost {
	return repository.CostCheap
}
