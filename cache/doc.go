// Package cache provides a filesystem-backed key/value cache with per-entry
// TTL, pluggable storage backends, optional read-through loading, and
// lightweight metrics hooks. One Cache instance serves one domain: an
// isolated namespace that maps to its own directory subtree and can be
// cleared without touching its siblings.
//
// Design
//
//   - Layout: a key is hashed with SHA-256 and stored at
//     <root>/<domain>/<hash[0:2]>/<hash[2:4]>/<hash>.json. Two shard levels
//     of two hex characters keep any directory at or under 256 entries, and
//     the file location is always recomputed from the key, so there is no
//     index structure to maintain or corrupt.
//
//   - Records: each file holds a small JSON envelope (see the item package)
//     carrying the encoded value, its type tag, an optional absolute expiry,
//     the creation time, and a schema version. Bumping the version
//     invalidates every existing record at once.
//
//   - Laziness: expiry and schema version are checked on the access that
//     touches a record. A bad or expired record reads as a miss and its file
//     is deleted best-effort, so the cache heals itself as it is used. No
//     background goroutines exist; Sweep does the same cleanup proactively
//     when the caller asks for it.
//
//   - Concurrency: the engine takes no locks and holds no mutable state
//     after construction. Concurrent callers race at the file level: same-key
//     writes are last-write-wins, Has followed by Get is not transactional,
//     and Clear racing a writer is unspecified. GetOrLoad is the one
//     exception — concurrent misses for a key collapse into one loader call.
//
//   - Backends: all I/O goes through storage.Backend. The default is the
//     host filesystem via storage/billyfs; the same package offers an
//     in-memory variant for tests, and storage/boltfs keeps a whole cache
//     inside a single bbolt database file.
//
//   - Errors: ErrInvalidArgument covers bad keys, bad domain names and
//     unencodable values, and is raised before any I/O. ErrOperationFailed
//     covers backend write/delete/clear failures and an unwritable root at
//     construction; the cause stays wrapped underneath. Read-side problems
//     are never errors — they are misses.
//
//   - Metrics: Options.Metrics receives Hit/Miss/Evict/Write signals. The
//     default is NoopMetrics; metrics/prom adapts the interface to
//     Prometheus counters.
//
// Basic usage
//
//	c, err := cache.New("sessions", cache.Options{Root: "/var/cache/app"})
//	if err != nil {
//	    // bad domain name or unwritable root
//	}
//	_ = c.Set("user-42", map[string]any{"name": "Ada"}, 0)
//	v, _ := c.Get("user-42", nil)
//	_ = c.Delete("user-42")
//
// With TTL
//
//	_ = c.Set("token", "abc", 15*time.Minute)
//	// after the deadline passes:
//	v, _ := c.Get("token", "absent") // v == "absent", file already purged
//
// In-memory backend for tests
//
//	c, _ := cache.New("t", cache.Options{
//	    Root:    "/cache",
//	    Backend: billyfs.NewMemory(),
//	})
//
// Read-through loading
//
//	c, _ := cache.New("profiles", cache.Options{
//	    Loader: func(ctx context.Context, key string) (any, error) {
//	        return fetchProfile(ctx, key) // e.g. from a database
//	    },
//	})
//	v, err := c.GetOrLoad(ctx, "user-42")
//
// Exporting metrics
//
//	m := prom.New(prometheus.DefaultRegisterer, "app", "cache", nil)
//	c, _ := cache.New("pages", cache.Options{Metrics: m})
//
// Value round-trips
//
// Scalars keep their kind: signed integers come back as int64, unsigned as
// uint64, floats as float64, and []byte stays []byte. Structured values
// round-trip through JSON and come back as []any / map[string]any with
// integral numbers as int64 and the rest as float64.
package cache
