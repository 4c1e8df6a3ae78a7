package cache

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/filekv/filecache/storage"
	"github.com/filekv/filecache/storage/billyfs"
	"github.com/filekv/filecache/sweep"
)

// EvictReason explains why the engine removed a stored record.
type EvictReason int

const (
	// EvictExpired — the record's deadline had passed (lazy eviction on
	// access, or an explicit Sweep).
	EvictExpired EvictReason = iota
	// EvictInvalid — the record was malformed or written under a different
	// schema version.
	EvictInvalid
	// EvictCapacity — removed by Sweep to satisfy Options.MaxBytes.
	EvictCapacity
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
// Hit/Miss fire on value reads (Get, GetMultiple, GetOrLoad), not on the
// advisory Has.
type Metrics interface {
	Hit()
	Miss()
	Evict(reason EvictReason)
	Write(bytes int)
}

// Clock provides the current time; useful for deterministic TTL tests.
type Clock interface{ Now() time.Time }

// systemClock is the production time source.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options configures one cache domain. Zero values are safe;
// defaults are applied in New():
//   - empty Root      => os.TempDir()/filecache
//   - nil Backend     => billyfs.NewLocal()
//   - nil Metrics     => NoopMetrics
//   - nil Clock       => time.Now
//   - nil SweepPolicy => sweep.OldestFirst
type Options struct {
	// Root is the directory that holds every domain subtree.
	Root string

	// Backend performs all file and directory I/O. The default talks to the
	// host filesystem; see storage/billyfs and storage/boltfs for variants.
	Backend storage.Backend

	// DefaultTTL applies when Set is called with ttl == 0.
	// A zero DefaultTTL means such entries never expire.
	DefaultTTL time.Duration

	// Loader fetches a value on cache miss. Used by GetOrLoad.
	Loader func(ctx context.Context, key string) (any, error)

	// MaxBytes caps the total encoded size of the valid records in the
	// domain. The cap is enforced only by explicit Sweep calls; normal
	// operations never measure the domain. 0 disables the cap.
	MaxBytes int64

	// SweepPolicy orders capacity evictions during Sweep.
	SweepPolicy sweep.Policy

	// Metrics receives Hit/Miss/Evict/Write signals.
	Metrics Metrics

	// Clock overrides the time source (tests).
	Clock Clock
}

// normalize fills in defaults. Called once by New on its own copy.
func (o *Options) normalize() {
	if o.Root == "" {
		o.Root = filepath.Join(os.TempDir(), "filecache")
	}
	if o.Backend == nil {
		o.Backend = billyfs.NewLocal()
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.Clock == nil {
		o.Clock = systemClock{}
	}
	if o.SweepPolicy == nil {
		o.SweepPolicy = sweep.OldestFirst{}
	}
}
