// Package boltfs keeps an entire cache tree inside a single bbolt database
// file. It satisfies storage.Backend, so a cache can live in one .db file
// instead of a directory hierarchy. Permission arguments are accepted and
// ignored; bbolt owns the mode of the database file itself.
package boltfs

import (
	"bytes"
	"errors"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/filekv/filecache/storage"
)

var (
	bucketFiles = []byte("files")
	bucketDirs  = []byte("dirs")

	// bbolt reports zero-length values as nil, so directory keys carry a
	// one-byte marker to stay distinguishable from absent keys.
	dirMarker = []byte{'d'}
)

// Store implements storage.Backend on a bbolt database. File contents live
// in one bucket keyed by slash path, directories in another.
type Store struct {
	db *bolt.DB
}

var _ storage.Backend = (*Store)(nil)

// Open opens or creates the database at path and prepares its buckets.
func Open(dbPath string) (*Store, error) {
	db, err := bolt.Open(dbPath, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketFiles); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketDirs)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database file.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) ReadFile(name string) ([]byte, error) {
	name = normalize(name)
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		k, v := tx.Bucket(bucketFiles).Cursor().Seek([]byte(name))
		if string(k) != name {
			return &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		out = append([]byte(nil), v...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) WriteFile(name string, data []byte, _ fs.FileMode) error {
	name = normalize(name)
	val := append([]byte(nil), data...)
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(bucketFiles).Put([]byte(name), val); err != nil {
			return err
		}
		return putDirChain(tx.Bucket(bucketDirs), path.Dir(name))
	})
}

func (s *Store) Exists(name string) (bool, error) {
	name = normalize(name)
	var ok bool
	err := s.db.View(func(tx *bolt.Tx) error {
		ok = hasKey(tx.Bucket(bucketFiles), name) || hasKey(tx.Bucket(bucketDirs), name)
		return nil
	})
	return ok, err
}

func (s *Store) MkdirAll(p string, _ fs.FileMode) error {
	p = normalize(p)
	return s.db.Update(func(tx *bolt.Tx) error {
		return putDirChain(tx.Bucket(bucketDirs), p)
	})
}

func (s *Store) Remove(name string) error {
	name = normalize(name)
	return s.db.Update(func(tx *bolt.Tx) error {
		files := tx.Bucket(bucketFiles)
		if hasKey(files, name) {
			return files.Delete([]byte(name))
		}
		dirs := tx.Bucket(bucketDirs)
		if hasKey(dirs, name) {
			if hasChild(tx, name) {
				return &fs.PathError{Op: "remove", Path: name, Err: errors.New("directory not empty")}
			}
			return dirs.Delete([]byte(name))
		}
		return &fs.PathError{Op: "remove", Path: name, Err: fs.ErrNotExist}
	})
}

func (s *Store) RemoveAll(p string) error {
	p = normalize(p)
	prefix := []byte(withSlash(p))
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bn := range [][]byte{bucketFiles, bucketDirs} {
			b := tx.Bucket(bn)
			if err := b.Delete([]byte(p)); err != nil {
				return err
			}
			var doomed [][]byte
			scanPrefix(b, prefix, func(k, _ []byte) {
				doomed = append(doomed, append([]byte(nil), k...))
			})
			for _, k := range doomed {
				if err := b.Delete(k); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Walk snapshots the subtree under root inside one read transaction, then
// replays it with filepath.WalkDir semantics: directories before their
// children, names in lexical order, SkipDir and SkipAll honored, a missing
// root reported through the callback.
func (s *Store) Walk(root string, fn fs.WalkDirFunc) error {
	root = normalize(root)
	var (
		rootFile  bool
		rootSize  int64
		dirSet    = map[string]bool{}
		fileSizes = map[string]int64{}
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		files := tx.Bucket(bucketFiles)
		dirs := tx.Bucket(bucketDirs)
		if k, v := files.Cursor().Seek([]byte(root)); string(k) == root {
			rootFile = true
			rootSize = int64(len(v))
		}
		if hasKey(dirs, root) {
			dirSet[root] = true
		}
		prefix := []byte(withSlash(root))
		scanPrefix(dirs, prefix, func(k, _ []byte) {
			dirSet[string(k)] = true
		})
		scanPrefix(files, prefix, func(k, v []byte) {
			p := string(k)
			fileSizes[p] = int64(len(v))
			for d := path.Dir(p); d != root && !dirSet[d]; d = path.Dir(d) {
				dirSet[d] = true
				if d == path.Dir(d) {
					break
				}
			}
		})
		return nil
	})
	if err != nil {
		return err
	}

	var rootEntry *entry
	switch {
	case rootFile:
		rootEntry = &entry{name: path.Base(root), size: rootSize}
	case len(dirSet) > 0 || len(fileSizes) > 0:
		rootEntry = &entry{name: path.Base(root), dir: true}
	}
	if rootEntry == nil {
		err := fn(root, nil, &fs.PathError{Op: "stat", Path: root, Err: fs.ErrNotExist})
		if err == fs.SkipDir || err == fs.SkipAll {
			return nil
		}
		return err
	}

	children := map[string][]entry{}
	for d := range dirSet {
		if d == root {
			continue
		}
		parent := path.Dir(d)
		children[parent] = append(children[parent], entry{name: path.Base(d), dir: true})
	}
	for f, size := range fileSizes {
		parent := path.Dir(f)
		children[parent] = append(children[parent], entry{name: path.Base(f), size: size})
	}
	for _, list := range children {
		sort.Slice(list, func(i, j int) bool { return list[i].name < list[j].name })
	}

	err = walkTree(root, *rootEntry, children, fn)
	if err == fs.SkipDir || err == fs.SkipAll {
		return nil
	}
	return err
}

func walkTree(name string, e entry, children map[string][]entry, fn fs.WalkDirFunc) error {
	if err := fn(name, e, nil); err != nil || !e.dir {
		if err == fs.SkipDir && e.dir {
			err = nil
		}
		return err
	}
	for _, child := range children[name] {
		if err := walkTree(path.Join(name, child.name), child, children, fn); err != nil {
			if err == fs.SkipDir {
				break
			}
			return err
		}
	}
	return nil
}

// putDirChain records dir and every ancestor up to the filesystem root.
func putDirChain(dirs *bolt.Bucket, dir string) error {
	for d := dir; ; d = path.Dir(d) {
		if err := dirs.Put([]byte(d), dirMarker); err != nil {
			return err
		}
		if d == path.Dir(d) {
			break
		}
	}
	return nil
}

func hasKey(b *bolt.Bucket, name string) bool {
	k, _ := b.Cursor().Seek([]byte(name))
	return string(k) == name
}

func hasChild(tx *bolt.Tx, dir string) bool {
	prefix := []byte(withSlash(dir))
	for _, bn := range [][]byte{bucketFiles, bucketDirs} {
		k, _ := tx.Bucket(bn).Cursor().Seek(prefix)
		if bytes.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func scanPrefix(b *bolt.Bucket, prefix []byte, visit func(k, v []byte)) {
	c := b.Cursor()
	for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
		visit(k, v)
	}
}

func normalize(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}

func withSlash(p string) string {
	if strings.HasSuffix(p, "/") {
		return p
	}
	return p + "/"
}

// entry is the fs.DirEntry view of a snapshot node.
type entry struct {
	name string
	dir  bool
	size int64
}

func (e entry) Name() string { return e.name }
func (e entry) IsDir() bool  { return e.dir }

func (e entry) Type() fs.FileMode {
	if e.dir {
		return fs.ModeDir
	}
	return 0
}

func (e entry) Info() (fs.FileInfo, error) { return entryInfo{e}, nil }

type entryInfo struct{ e entry }

func (i entryInfo) Name() string { return i.e.name }
func (i entryInfo) Size() int64  { return i.e.size }

func (i entryInfo) Mode() fs.FileMode {
	if i.e.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

func (i entryInfo) ModTime() time.Time { return time.Time{} }
func (i entryInfo) IsDir() bool        { return i.e.dir }
func (i entryInfo) Sys() any           { return nil }
