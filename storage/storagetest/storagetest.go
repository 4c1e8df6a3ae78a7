// Package storagetest runs one conformance table against every
// storage.Backend implementation, so the engine can treat them
// interchangeably. Backend packages call Run from their own tests.
package storagetest

import (
	"bytes"
	"errors"
	"io/fs"
	"path"
	"sort"
	"testing"

	"github.com/filekv/filecache/storage"
)

// Factory returns a fresh Backend plus a root directory the suite may use as
// writable scratch space (created if missing). Each subtest gets its own
// backend; cleanup goes through t.Cleanup.
type Factory func(t *testing.T) (b storage.Backend, root string)

// Run exercises the Backend contract documented on storage.Backend.
func Run(t *testing.T, newBackend Factory) {
	t.Helper()

	t.Run("WriteReadRoundTrip", func(t *testing.T) {
		b, root := newBackend(t)
		mustMkdirAll(t, b, path.Join(root, "a/b"))
		f := path.Join(root, "a/b/f.json")
		if err := b.WriteFile(f, []byte("payload"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		got, err := b.ReadFile(f)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if !bytes.Equal(got, []byte("payload")) {
			t.Fatalf("ReadFile = %q, want %q", got, "payload")
		}
	})

	t.Run("WriteTruncates", func(t *testing.T) {
		b, root := newBackend(t)
		mustMkdirAll(t, b, root)
		f := path.Join(root, "f")
		if err := b.WriteFile(f, []byte("a long first value"), 0o644); err != nil {
			t.Fatalf("first WriteFile: %v", err)
		}
		if err := b.WriteFile(f, []byte("short"), 0o644); err != nil {
			t.Fatalf("second WriteFile: %v", err)
		}
		got, err := b.ReadFile(f)
		if err != nil {
			t.Fatalf("ReadFile: %v", err)
		}
		if string(got) != "short" {
			t.Fatalf("ReadFile = %q, want %q (stale tail not truncated?)", got, "short")
		}
	})

	t.Run("ReadMissing", func(t *testing.T) {
		b, root := newBackend(t)
		_, err := b.ReadFile(path.Join(root, "nope"))
		if !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("ReadFile(missing) = %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("Exists", func(t *testing.T) {
		b, root := newBackend(t)
		mustMkdirAll(t, b, path.Join(root, "dir"))
		if err := b.WriteFile(path.Join(root, "dir/f"), nil, 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		for p, want := range map[string]bool{
			path.Join(root, "dir/f"): true,
			path.Join(root, "dir"):   true,
			path.Join(root, "ghost"): false,
		} {
			ok, err := b.Exists(p)
			if err != nil {
				t.Fatalf("Exists(%s): %v", p, err)
			}
			if ok != want {
				t.Fatalf("Exists(%s) = %v, want %v", p, ok, want)
			}
		}
	})

	t.Run("MkdirAllIdempotent", func(t *testing.T) {
		b, root := newBackend(t)
		mustMkdirAll(t, b, path.Join(root, "x/y/z"))
		mustMkdirAll(t, b, path.Join(root, "x/y/z"))
	})

	t.Run("RemoveFile", func(t *testing.T) {
		b, root := newBackend(t)
		mustMkdirAll(t, b, root)
		f := path.Join(root, "f")
		if err := b.WriteFile(f, []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if err := b.Remove(f); err != nil {
			t.Fatalf("Remove: %v", err)
		}
		if _, err := b.ReadFile(f); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("ReadFile(removed) = %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("RemoveMissing", func(t *testing.T) {
		b, root := newBackend(t)
		if err := b.Remove(path.Join(root, "ghost")); !errors.Is(err, fs.ErrNotExist) {
			t.Fatalf("Remove(missing) = %v, want fs.ErrNotExist", err)
		}
	})

	t.Run("RemoveAllSubtree", func(t *testing.T) {
		b, root := newBackend(t)
		top := path.Join(root, "top")
		mustMkdirAll(t, b, path.Join(top, "aa/bb"))
		for _, p := range []string{
			path.Join(top, "aa/bb/one"),
			path.Join(top, "aa/two"),
			path.Join(top, "three"),
		} {
			if err := b.WriteFile(p, []byte("x"), 0o644); err != nil {
				t.Fatalf("WriteFile(%s): %v", p, err)
			}
		}
		if err := b.RemoveAll(top); err != nil {
			t.Fatalf("RemoveAll: %v", err)
		}
		ok, err := b.Exists(top)
		if err != nil {
			t.Fatalf("Exists after RemoveAll: %v", err)
		}
		if ok {
			t.Fatal("subtree still exists after RemoveAll")
		}
		// Idempotent on the now-missing path.
		if err := b.RemoveAll(top); err != nil {
			t.Fatalf("RemoveAll(missing) = %v, want nil", err)
		}
	})

	t.Run("WalkVisitsFilesDepthFirst", func(t *testing.T) {
		b, root := newBackend(t)
		w := path.Join(root, "w")
		mustMkdirAll(t, b, path.Join(w, "aa"))
		mustMkdirAll(t, b, path.Join(w, "bb"))
		files := []string{
			path.Join(w, "aa/1.json"),
			path.Join(w, "aa/2.json"),
			path.Join(w, "bb/3.json"),
		}
		for _, p := range files {
			if err := b.WriteFile(p, []byte("{}"), 0o644); err != nil {
				t.Fatalf("WriteFile(%s): %v", p, err)
			}
		}

		var seen []string
		dirsBeforeChildren := true
		visitedDirs := map[string]bool{}
		err := b.Walk(w, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				visitedDirs[p] = true
				return nil
			}
			if !visitedDirs[path.Dir(p)] {
				dirsBeforeChildren = false
			}
			seen = append(seen, p)
			return nil
		})
		if err != nil {
			t.Fatalf("Walk: %v", err)
		}
		sort.Strings(seen)
		sort.Strings(files)
		if len(seen) != len(files) {
			t.Fatalf("Walk saw %v, want %v", seen, files)
		}
		for i := range files {
			if seen[i] != files[i] {
				t.Fatalf("Walk saw %v, want %v", seen, files)
			}
		}
		if !dirsBeforeChildren {
			t.Fatal("Walk visited a file before its parent directory")
		}
	})

	t.Run("WalkSkipDir", func(t *testing.T) {
		b, root := newBackend(t)
		w := path.Join(root, "w")
		mustMkdirAll(t, b, path.Join(w, "skipme"))
		mustMkdirAll(t, b, path.Join(w, "keep"))
		if err := b.WriteFile(path.Join(w, "skipme/f"), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		if err := b.WriteFile(path.Join(w, "keep/f"), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		var files []string
		err := b.Walk(w, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() && path.Base(p) == "skipme" {
				return fs.SkipDir
			}
			if !d.IsDir() {
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("Walk: %v", err)
		}
		if len(files) != 1 || files[0] != path.Join(w, "keep/f") {
			t.Fatalf("Walk after SkipDir saw %v, want only keep/f", files)
		}
	})

	t.Run("WalkMissingRoot", func(t *testing.T) {
		b, root := newBackend(t)
		var cbErr error
		err := b.Walk(path.Join(root, "ghost"), func(p string, d fs.DirEntry, err error) error {
			cbErr = err
			return err
		})
		if !errors.Is(err, fs.ErrNotExist) || !errors.Is(cbErr, fs.ErrNotExist) {
			t.Fatalf("Walk(missing root): walk err %v, callback err %v, want fs.ErrNotExist", err, cbErr)
		}
	})
}

func mustMkdirAll(t *testing.T, b storage.Backend, p string) {
	t.Helper()
	if err := b.MkdirAll(p, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", p, err)
	}
}
