package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/filekv/filecache/item"
	"github.com/filekv/filecache/storage"
)

// cache implements Cache for one domain rooted at <Root>/<domain>.
// It holds no mutable state after construction; the singleflight group is
// internally synchronized.
type cache struct {
	domain string
	dir    string
	fs     storage.Backend
	opt    Options

	// sf coalesces concurrent GetOrLoad misses per key.
	sf singleflight.Group
}

// New constructs a cache bound to one domain. The domain name is validated
// first (ErrInvalidArgument); then the domain directory is created and
// probed for writability, so a cache that cannot store anything fails here
// with ErrOperationFailed instead of on the first Set.
func New(domain string, opt Options) (Cache, error) {
	if err := ValidateDomainName(domain); err != nil {
		return nil, err
	}
	opt.normalize()

	c := &cache{
		domain: domain,
		dir:    path.Join(filepath.ToSlash(opt.Root), domain),
		fs:     opt.Backend,
		opt:    opt,
	}
	if err := c.fs.MkdirAll(c.dir, dirPerm); err != nil {
		return nil, opFailed("create domain "+domain, err)
	}
	probe := path.Join(c.dir, ".writable")
	if err := c.fs.WriteFile(probe, nil, filePerm); err != nil {
		return nil, opFailed("probe domain "+domain, err)
	}
	if err := c.fs.Remove(probe); err != nil {
		return nil, opFailed("probe domain "+domain, err)
	}
	return c, nil
}

// ---- Cache implementation ----

// Has reports whether key maps to a valid, unexpired record right now.
func (c *cache) Has(key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	_, ok := c.fetch(key)
	return ok, nil
}

// Get returns the stored value, or def on any kind of miss.
func (c *cache) Get(key string, def any) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	it, ok := c.fetch(key)
	if !ok {
		c.opt.Metrics.Miss()
		return def, nil
	}
	c.opt.Metrics.Hit()
	return it.Value(def, c.opt.Clock.Now()), nil
}

// GetMultiple applies Get per key. Validation covers every key up front, so
// an invalid key aborts before any I/O and no partial map escapes.
func (c *cache) GetMultiple(keys []string, def any) (map[string]any, error) {
	for _, k := range keys {
		if err := ValidateKey(k); err != nil {
			return nil, err
		}
	}
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		v, err := c.Get(k, def)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

// Set encodes value and writes its record, creating the shard directory on
// first use. ttl == 0 selects Options.DefaultTTL.
func (c *cache) Set(key string, value any, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl == 0 {
		ttl = c.opt.DefaultTTL
	}
	it, err := item.New(value, ttl, c.opt.Clock.Now())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	data, err := it.Encode()
	if err != nil {
		return opFailed("encode "+key, err)
	}
	p := recordPath(c.dir, key)
	if err := c.fs.MkdirAll(path.Dir(p), dirPerm); err != nil {
		return opFailed("set "+key, err)
	}
	if err := c.fs.WriteFile(p, data, filePerm); err != nil {
		return opFailed("set "+key, err)
	}
	c.opt.Metrics.Write(len(data))
	return nil
}

// SetMultiple attempts every pair even after a failure and joins the errors.
func (c *cache) SetMultiple(values map[string]any, ttl time.Duration) error {
	var errs []error
	for k, v := range values {
		if err := c.Set(k, v, ttl); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Delete removes the record file. An absent key is a success.
func (c *cache) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := c.fs.Remove(recordPath(c.dir, key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return opFailed("delete "+key, err)
	}
	return nil
}

// DeleteMultiple attempts every key even after a failure and joins the errors.
func (c *cache) DeleteMultiple(keys []string) error {
	var errs []error
	for _, k := range keys {
		if err := c.Delete(k); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Clear drops the whole domain subtree and recreates the empty domain root,
// so the cache remains usable afterwards.
func (c *cache) Clear() error {
	if err := c.fs.RemoveAll(c.dir); err != nil {
		return opFailed("clear "+c.domain, err)
	}
	if err := c.fs.MkdirAll(c.dir, dirPerm); err != nil {
		return opFailed("clear "+c.domain, err)
	}
	return nil
}

// GetOrLoad returns the value for key; on miss it loads via Options.Loader,
// coalescing concurrent loads for the same key. The loaded value is stored
// with the default TTL; a store failure fails the load. The flight hands
// back the stored form rather than the loader's raw value, so the loading
// caller and later readers observe the same decoded shapes.
func (c *cache) GetOrLoad(ctx context.Context, key string) (any, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	if it, ok := c.fetch(key); ok {
		c.opt.Metrics.Hit()
		return it.Value(nil, c.opt.Clock.Now()), nil
	}
	c.opt.Metrics.Miss()
	if c.opt.Loader == nil {
		return nil, ErrNoLoader
	}
	v, err, _ := c.sf.Do(key, func() (any, error) {
		// Double-check after joining the flight; the winner may already
		// have stored the value.
		if it, ok := c.fetch(key); ok {
			return it.Value(nil, c.opt.Clock.Now()), nil
		}
		loaded, err := c.opt.Loader(ctx, key)
		if err != nil {
			return nil, err
		}
		if err := c.Set(key, loaded, 0); err != nil {
			return nil, err
		}
		// Read the record back so the loading caller gets the same
		// decoded shapes later reads return, not the loader's raw value.
		if it, ok := c.fetch(key); ok {
			return it.Value(nil, c.opt.Clock.Now()), nil
		}
		// Stored but already unreadable again (a negative DefaultTTL or a
		// racing delete); the loaded value is the best answer left.
		return loaded, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// InvalidOrExpired reports whether record would read as a miss right now.
func (c *cache) InvalidOrExpired(record []byte) bool {
	return item.InvalidOrExpired(record, c.opt.Clock.Now())
}

// ---- helpers ----

// fetch loads and validates the record for key. ok is false for every
// condition that counts as a miss: no file, unreadable file, undecodable
// record, version mismatch, expired. Bad records are purged on the way out.
func (c *cache) fetch(key string) (*item.Item, bool) {
	p := recordPath(c.dir, key)
	data, err := c.fs.ReadFile(p)
	if err != nil {
		return nil, false
	}
	it, err := item.Decode(data)
	if err != nil {
		c.purge(p, EvictInvalid)
		return nil, false
	}
	if it.ExpiredAt(c.opt.Clock.Now()) {
		c.purge(p, EvictExpired)
		return nil, false
	}
	return it, true
}

// purge is the best-effort delete behind lazy eviction. A failure is
// dropped: the record already reads as a miss and the next access or sweep
// retries. Reports whether a file was actually removed.
func (c *cache) purge(p string, reason EvictReason) bool {
	if err := c.fs.Remove(p); err != nil {
		return false
	}
	c.opt.Metrics.Evict(reason)
	return true
}
