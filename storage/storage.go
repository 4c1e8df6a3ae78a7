// Package storage defines the narrow filesystem contract the cache engine
// calls through. The engine needs exactly seven primitives: byte reads and
// writes, existence checks, directory creation, single and recursive
// removal, and a tree walk for the sweep task. Anything that can provide
// those honestly can sit behind the cache; see billyfs for disk and
// in-memory backends and boltfs for a single-file one.
package storage

import "io/fs"

// Backend is the byte and directory I/O surface behind the cache engine.
//
// Path semantics follow the io/fs conventions:
//
//   - ReadFile and Remove on a missing path return an error satisfying
//     errors.Is(err, fs.ErrNotExist).
//   - WriteFile creates the file if absent and truncates it otherwise; the
//     parent directory must already exist.
//   - MkdirAll and RemoveAll are idempotent: creating an existing directory
//     and removing a missing path both succeed.
//   - Walk visits root and everything beneath it depth-first, directories
//     before their children, and honors fs.SkipDir and fs.SkipAll. A missing
//     root is reported through the callback, as with fs.WalkDir.
//
// Implementations are expected to be safe for concurrent use to the same
// degree the underlying store is; the engine adds no locking of its own.
type Backend interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	Exists(name string) (bool, error)
	MkdirAll(path string, perm fs.FileMode) error
	Remove(name string) error
	RemoveAll(path string) error
	Walk(root string, fn fs.WalkDirFunc) error
}
