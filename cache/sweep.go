package cache

import (
	"context"
	"errors"
	"io/fs"
	"sort"
	"strings"

	"github.com/filekv/filecache/item"
	"github.com/filekv/filecache/sweep"
)

// Sweep walks the domain subtree once. Invalid and expired records are
// removed unconditionally; the surviving records are then measured and, when
// Options.MaxBytes > 0, evicted in Options.SweepPolicy order until the
// domain fits the budget. Lazy per-access eviction is unaffected; Sweep just
// does the same work proactively, plus capacity enforcement.
func (c *cache) Sweep(ctx context.Context) (int, error) {
	now := c.opt.Clock.Now()
	removed := 0

	var (
		live      []sweep.Entry
		liveBytes int64
	)
	walkErr := c.fs.Walk(c.dir, func(p string, d fs.DirEntry, werr error) error {
		if werr != nil {
			if p == c.dir && errors.Is(werr, fs.ErrNotExist) {
				// Nothing stored yet; an absent domain sweeps clean.
				return fs.SkipAll
			}
			return werr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, fileExt) {
			return nil
		}
		data, err := c.fs.ReadFile(p)
		if err != nil {
			// Raced away between walk and read; nothing left to purge.
			return nil
		}
		it, err := item.Decode(data)
		switch {
		case err != nil:
			if c.purge(p, EvictInvalid) {
				removed++
			}
		case it.ExpiredAt(now):
			if c.purge(p, EvictExpired) {
				removed++
			}
		default:
			e := sweep.Entry{Path: p, Size: int64(len(data)), CreatedAt: it.CreatedAt()}
			if exp, ok := it.ExpiresAt(); ok {
				e.ExpiresAt = exp
			}
			live = append(live, e)
			liveBytes += e.Size
		}
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return removed, walkErr
		}
		return removed, opFailed("sweep "+c.domain, walkErr)
	}

	if c.opt.MaxBytes <= 0 || liveBytes <= c.opt.MaxBytes {
		return removed, nil
	}
	pol := c.opt.SweepPolicy
	sort.Slice(live, func(i, j int) bool { return pol.Less(live[i], live[j]) })
	for _, e := range live {
		if liveBytes <= c.opt.MaxBytes {
			break
		}
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if c.purge(e.Path, EvictCapacity) {
			removed++
			liveBytes -= e.Size
		}
	}
	return removed, nil
}
