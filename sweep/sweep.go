// Package sweep defines ordering policies for capacity eviction.
package sweep

// Entry describes one stored record as a sweep sees it: where it lives, how
// many encoded bytes it occupies, and its lifecycle stamps in Unix seconds.
// ExpiresAt is zero for records that never expire.
type Entry struct {
	Path      string
	Size      int64
	CreatedAt int64
	ExpiresAt int64
}

// Policy orders eviction candidates when a sweep must reclaim space.
// Less reports whether a should be evicted before b, so sorting a candidate
// slice with Less puts the first victims at the front. Implementations must
// define a strict weak ordering; ties are broken by path to keep sweeps
// deterministic.
type Policy interface {
	Less(a, b Entry) bool
}

// OldestFirst evicts by creation time, oldest records first.
type OldestFirst struct{}

var _ Policy = OldestFirst{}

func (OldestFirst) Less(a, b Entry) bool {
	if a.CreatedAt != b.CreatedAt {
		return a.CreatedAt < b.CreatedAt
	}
	return a.Path < b.Path
}

// ExpiringFirst evicts records closest to their deadline first and keeps
// records without an expiry the longest. Equal deadlines and the no-expiry
// tail fall back to OldestFirst ordering.
type ExpiringFirst struct{}

var _ Policy = ExpiringFirst{}

func (ExpiringFirst) Less(a, b Entry) bool {
	switch {
	case a.ExpiresAt != 0 && b.ExpiresAt == 0:
		return true
	case a.ExpiresAt == 0 && b.ExpiresAt != 0:
		return false
	case a.ExpiresAt != b.ExpiresAt:
		return a.ExpiresAt < b.ExpiresAt
	}
	return OldestFirst{}.Less(a, b)
}
