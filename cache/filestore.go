package cache

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/mandelsoft/vfs/pkg/vfs"
)

// FileStore keeps artifact files below a root directory of a file system.
type FileStore struct {
	fs   vfs.VFS
	root string
}

// NewFileStore creates a file store rooted at root.
func NewFileStore(fs vfs.FileSystem, root string) *FileStore {
	return &FileStore{fs: vfs.New(fs), root: root}
}

// FileSystem returns the file system the files are stored on.
func (s *FileStore) FileSystem() vfs.FileSystem {
	return s.fs
}

// Put writes the content of r to the given slash separated relative path and returns
// the path of the stored file. The content is written to a temporary file first, so
// that readers never observe partially written files.
func (s *FileStore) Put(relative string, r io.Reader) (_ string, err error) {
	target := s.fs.Join(s.root, strings.TrimPrefix(path.Clean("/"+relative), "/"))
	dir := s.fs.Dir(target)
	if err := s.fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %q: %w", dir, err)
	}
	tmp, err := s.fs.TempFile(dir, ".download-")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file in %q: %w", dir, err)
	}
	defer func() {
		if err != nil {
			_ = s.fs.Remove(tmp.Name())
		}
	}()
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write %q: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close %q: %w", target, err)
	}
	if err := s.fs.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("failed to move download to %q: %w", target, err)
	}
	return target, nil
}

// Exists reports whether a stored file exists.
func (s *FileStore) Exists(file string) bool {
	if file == "" {
		return false
	}
	ok, err := s.fs.FileExists(file)
	return err == nil && ok
}

// Open opens a stored file.
func (s *FileStore) Open(file string) (vfs.File, error) {
	return s.fs.Open(file)
}
