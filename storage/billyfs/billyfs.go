// Package billyfs adapts a billy filesystem to the storage.Backend
// interface. NewLocal backs a cache with the host disk, NewMemory with an
// in-memory filesystem for tests and examples.
package billyfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/filekv/filecache/storage"
)

// FS implements storage.Backend on top of a billy.Filesystem.
type FS struct {
	bfs billy.Filesystem
}

var _ storage.Backend = (*FS)(nil)

// New wraps an existing billy filesystem.
func New(bfs billy.Filesystem) *FS { return &FS{bfs: bfs} }

// NewLocal returns a backend over the host filesystem. Paths are passed
// through as given, so cache roots should be absolute.
func NewLocal() *FS { return New(osfs.New("/")) }

// NewMemory returns a backend over an in-memory filesystem. The underlying
// memfs is not synchronized; use NewLocal when multiple goroutines share a
// cache.
func NewMemory() *FS { return New(memfs.New()) }

func (f *FS) ReadFile(name string) ([]byte, error) {
	file, err := f.bfs.Open(normalize(name))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (f *FS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	file, err := f.bfs.OpenFile(normalize(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func (f *FS) Exists(name string) (bool, error) {
	if _, err := f.bfs.Stat(normalize(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (f *FS) MkdirAll(p string, perm fs.FileMode) error {
	return f.bfs.MkdirAll(normalize(p), perm)
}

func (f *FS) Remove(name string) error {
	return f.bfs.Remove(normalize(name))
}

// RemoveAll deletes the named subtree. billy has no RemoveAll of its own, so
// this recurses bottom-up: children first, then the directory.
func (f *FS) RemoveAll(p string) error {
	p = normalize(p)
	fi, err := f.bfs.Stat(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if !fi.IsDir() {
		return f.bfs.Remove(p)
	}
	infos, err := f.bfs.ReadDir(p)
	if err != nil {
		return err
	}
	for _, fi := range infos {
		if err := f.RemoveAll(path.Join(p, fi.Name())); err != nil {
			return err
		}
	}
	return f.bfs.Remove(p)
}

// Walk mirrors filepath.WalkDir over the billy filesystem, including the
// SkipDir and SkipAll sentinels and the missing-root callback.
func (f *FS) Walk(root string, fn fs.WalkDirFunc) error {
	root = normalize(root)
	fi, err := f.bfs.Stat(root)
	if err != nil {
		err = fn(root, nil, err)
	} else {
		err = f.walk(root, fs.FileInfoToDirEntry(fi), fn)
	}
	if err == fs.SkipDir || err == fs.SkipAll {
		return nil
	}
	return err
}

func (f *FS) walk(name string, d fs.DirEntry, fn fs.WalkDirFunc) error {
	if err := fn(name, d, nil); err != nil || !d.IsDir() {
		if err == fs.SkipDir && d.IsDir() {
			err = nil
		}
		return err
	}
	infos, err := f.bfs.ReadDir(name)
	if err != nil {
		err = fn(name, d, err)
		if err != nil {
			if err == fs.SkipDir && d.IsDir() {
				err = nil
			}
			return err
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	for _, fi := range infos {
		child := path.Join(name, fi.Name())
		if err := f.walk(child, fs.FileInfoToDirEntry(fi), fn); err != nil {
			if err == fs.SkipDir {
				break
			}
			return err
		}
	}
	return nil
}

func normalize(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
