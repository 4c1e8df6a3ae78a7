package cache

import (
	"context"
	"time"
)

// Cache is a filesystem-backed key/value store scoped to one domain.
// All methods are synchronous and perform blocking I/O through the
// configured storage backend. The engine keeps no mutable state after
// construction, so methods may be called from multiple goroutines; callers
// race only at the file level (see the package documentation for the exact
// guarantees).
type Cache interface {
	// Has reports whether key currently maps to a valid, unexpired record.
	// The answer is advisory: it can be stale by the time it is used.
	// Expired or malformed records found on the way are purged best-effort.
	// The only error is an invalid key.
	Has(key string) (bool, error)

	// Get returns the value stored under key, or def when the key is
	// absent, expired, unreadable or malformed. The miss path deletes bad
	// records best-effort, so the cache heals itself as it is read.
	// The only error is an invalid key.
	Get(key string, def any) (any, error)

	// GetMultiple applies Get to every key and returns key→value for all of
	// them. An invalid key aborts the call with no partial result.
	GetMultiple(keys []string, def any) (map[string]any, error)

	// Set stores value under key. ttl == 0 applies Options.DefaultTTL
	// (whose zero value means no expiry); a negative ttl writes an
	// already-expired record. Bad keys and unencodable values fail with
	// ErrInvalidArgument before any I/O; backend failures surface as
	// ErrOperationFailed and are never retried.
	Set(key string, value any, ttl time.Duration) error

	// SetMultiple stores every pair, continuing past individual failures,
	// and returns the joined errors. Nil means every pair was stored.
	SetMultiple(values map[string]any, ttl time.Duration) error

	// Delete removes key's record. Deleting an absent key is not an error.
	Delete(key string) error

	// DeleteMultiple deletes every key, continuing past individual
	// failures, and returns the joined errors. Nil means every key is gone.
	DeleteMultiple(keys []string) error

	// Clear removes every record in this domain and leaves the empty domain
	// directory in place. Its outcome is unspecified when racing concurrent
	// writers.
	Clear() error

	// GetOrLoad returns the value for key, loading it via Options.Loader on
	// miss. Concurrent loads for the same key are coalesced (singleflight)
	// and the loaded value is stored with the default TTL, then handed back
	// in its stored form, so the loading caller sees the same decoded
	// shapes later reads return. Returns ErrNoLoader if no Loader was
	// configured.
	GetOrLoad(ctx context.Context, key string) (any, error)

	// Sweep walks the whole domain once: every invalid or expired record is
	// removed, and when Options.MaxBytes is set, valid records are evicted
	// in Options.SweepPolicy order until the domain fits the budget.
	// Returns the number of files removed. ctx is checked between entries.
	Sweep(ctx context.Context) (int, error)

	// InvalidOrExpired reports whether a raw record would be treated as a
	// miss right now: undecodable, wrong schema version, or past deadline.
	InvalidOrExpired(record []byte) bool
}
