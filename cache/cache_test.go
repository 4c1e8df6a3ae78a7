package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/filekv/filecache/storage"
	"github.com/filekv/filecache/storage/billyfs"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time      { return f.t }
func (f *fakeClock) add(d time.Duration) { f.t = f.t.Add(d) }

// recordingMetrics counts every signal; serial tests only.
type recordingMetrics struct {
	hits, misses int
	evicts       map[EvictReason]int
	writes       []int
}

func (m *recordingMetrics) Hit()  { m.hits++ }
func (m *recordingMetrics) Miss() { m.misses++ }

func (m *recordingMetrics) Evict(r EvictReason) {
	if m.evicts == nil {
		m.evicts = map[EvictReason]int{}
	}
	m.evicts[r]++
}

func (m *recordingMetrics) Write(bytes int) { m.writes = append(m.writes, bytes) }

// failingBackend wraps a working backend and fails writes or removes on
// demand, for exercising the surfaced-error paths.
type failingBackend struct {
	storage.Backend
	failWrites  bool
	failRemoves bool
}

func (b *failingBackend) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if b.failWrites {
		return fmt.Errorf("write %s: %w", name, fs.ErrPermission)
	}
	return b.Backend.WriteFile(name, data, perm)
}

func (b *failingBackend) Remove(name string) error {
	if b.failRemoves {
		return fmt.Errorf("remove %s: %w", name, fs.ErrPermission)
	}
	return b.Backend.Remove(name)
}

// newMemCache builds a cache on a fresh in-memory backend with a fake clock
// pinned to a fixed instant, so TTL tests never sleep.
func newMemCache(t testing.TB, opt Options) (Cache, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	if opt.Backend == nil {
		opt.Backend = billyfs.NewMemory()
	}
	if opt.Root == "" {
		opt.Root = "/cache"
	}
	opt.Clock = clk
	c, err := New("app", opt)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c, clk
}

// rawWrite plants record bytes directly at key's path, bypassing the codec.
func rawWrite(t *testing.T, c Cache, key string, data []byte) {
	t.Helper()
	tc := c.(*cache)
	p := recordPath(tc.dir, key)
	if err := tc.fs.MkdirAll(path.Dir(p), dirPerm); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := tc.fs.WriteFile(p, data, filePerm); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func rawRead(t *testing.T, c Cache, key string) []byte {
	t.Helper()
	tc := c.(*cache)
	data, err := tc.fs.ReadFile(recordPath(tc.dir, key))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return data
}

func fileExists(t *testing.T, c Cache, key string) bool {
	t.Helper()
	tc := c.(*cache)
	ok, err := tc.fs.Exists(recordPath(tc.dir, key))
	if err != nil {
		t.Fatalf("Exists: %v", err)
	}
	return ok
}

// Every supported value kind survives a Set/Get round trip, with the
// documented decoded shapes: int64 for signed, uint64 for unsigned, float64
// for floats, []any / map[string]any for structured values.
func TestCache_RoundTripKinds(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{})
	cases := []struct {
		name string
		in   any
		want any
	}{
		{"nil", nil, nil},
		{"bool", true, true},
		{"int", 42, int64(42)},
		{"negative-int", -7, int64(-7)},
		{"uint", uint16(9), uint64(9)},
		{"float", 2.5, 2.5},
		{"string", "hello", "hello"},
		{"bytes", []byte{0x00, 0xff, 0x10}, []byte{0x00, 0xff, 0x10}},
		{"list", []any{int64(1), "two", 3.5}, []any{int64(1), "two", 3.5}},
		{"typed-slice", []int{1, 2}, []any{int64(1), int64(2)}},
		{"map", map[string]any{"a": int64(1), "b": "x"}, map[string]any{"a": int64(1), "b": "x"}},
		{"struct", struct {
			Name string `json:"name"`
		}{"Ada"}, map[string]any{"name": "Ada"}},
	}
	for i, tc := range cases {
		key := fmt.Sprintf("rt-%d", i)
		t.Run(tc.name, func(t *testing.T) {
			if err := c.Set(key, tc.in, 0); err != nil {
				t.Fatalf("Set: %v", err)
			}
			got, err := c.Get(key, "sentinel-default")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Get = %#v, want %#v", got, tc.want)
			}
		})
	}
}

// A stored nil is a hit, not a miss: the default must not replace it.
func TestCache_StoredNilBeatsDefault(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{})
	if err := c.Set("n", nil, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.Get("n", "fallback")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("Get stored nil = %#v, want nil", got)
	}
	got, err = c.Get("missing", "fallback")
	if err != nil || got != "fallback" {
		t.Fatalf("Get missing = %#v, %v, want fallback", got, err)
	}
}

// Uses a fake clock to avoid timing flakiness.
// Per-entry TTL expires entries and the expired file is purged on access.
func TestCache_TTL_FakeClock(t *testing.T) {
	t.Parallel()

	c, clk := newMemCache(t, Options{})
	if err := c.Set("x", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := c.Get("x", nil); got != "v" {
		t.Fatalf("fresh Get = %#v, want v", got)
	}
	clk.add(2 * time.Minute)
	if got, _ := c.Get("x", "gone"); got != "gone" {
		t.Fatalf("expired Get = %#v, want default", got)
	}
	if fileExists(t, c, "x") {
		t.Fatal("expired record must be purged on the access that finds it")
	}
}

// A negative TTL is legal and writes an already-expired record.
func TestCache_NegativeTTL_ImmediatelyExpired(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{})
	if err := c.Set("x", "v", -time.Second); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, _ := c.Get("x", "gone"); got != "gone" {
		t.Fatalf("Get = %#v, want default", got)
	}
	if fileExists(t, c, "x") {
		t.Fatal("already-expired record must be purged on first access")
	}
}

// ttl == 0 selects Options.DefaultTTL; an explicit ttl overrides it.
func TestCache_DefaultTTL_AppliedOnZero(t *testing.T) {
	t.Parallel()

	c, clk := newMemCache(t, Options{DefaultTTL: time.Minute})
	if err := c.Set("short", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set("long", "v", time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	clk.add(2 * time.Minute)
	if got, _ := c.Get("short", "gone"); got != "gone" {
		t.Fatalf("default-TTL entry should have expired, got %#v", got)
	}
	if got, _ := c.Get("long", nil); got != "v" {
		t.Fatalf("explicit-TTL entry should survive, got %#v", got)
	}
}

// Has tracks the key lifecycle: absent, stored, deleted, expired.
func TestCache_Has_Lifecycle(t *testing.T) {
	t.Parallel()

	c, clk := newMemCache(t, Options{})
	if ok, err := c.Has("k"); err != nil || ok {
		t.Fatalf("Has absent = %v, %v", ok, err)
	}
	if err := c.Set("k", 1, 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ok, _ := c.Has("k"); !ok {
		t.Fatal("Has after Set must be true")
	}
	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := c.Has("k"); ok {
		t.Fatal("Has after Delete must be false")
	}
	if err := c.Set("k", 1, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	clk.add(2 * time.Minute)
	if ok, _ := c.Has("k"); ok {
		t.Fatal("Has after expiry must be false")
	}
}

// Deleting an absent key succeeds; deleting twice succeeds.
func TestCache_Delete_Idempotent(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{})
	if err := c.Delete("never-stored"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}
	if err := c.Set("k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Delete("k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Delete("k"); err != nil {
		t.Fatalf("second Delete: %v", err)
	}
}

// SetMultiple/GetMultiple/DeleteMultiple round trip, with the default
// filling in for keys that were never stored. Nil inputs mean empty.
func TestCache_Bulk_RoundTrip(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{})
	in := map[string]any{"a": int64(1), "b": "two", "c": true}
	if err := c.SetMultiple(in, 0); err != nil {
		t.Fatalf("SetMultiple: %v", err)
	}

	got, err := c.GetMultiple([]string{"a", "b", "c", "ghost"}, "absent")
	if err != nil {
		t.Fatalf("GetMultiple: %v", err)
	}
	want := map[string]any{"a": int64(1), "b": "two", "c": true, "ghost": "absent"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("GetMultiple = %#v, want %#v", got, want)
	}

	if err := c.DeleteMultiple([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("DeleteMultiple: %v", err)
	}
	got, err = c.GetMultiple([]string{"a", "b", "c"}, "absent")
	if err != nil {
		t.Fatalf("GetMultiple after delete: %v", err)
	}
	for k, v := range got {
		if v != "absent" {
			t.Fatalf("key %s survived DeleteMultiple: %#v", k, v)
		}
	}

	empty, err := c.GetMultiple(nil, nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("GetMultiple(nil) = %#v, %v, want empty map", empty, err)
	}
	if err := c.SetMultiple(nil, 0); err != nil {
		t.Fatalf("SetMultiple(nil): %v", err)
	}
	if err := c.DeleteMultiple(nil); err != nil {
		t.Fatalf("DeleteMultiple(nil): %v", err)
	}
}

// One invalid key aborts GetMultiple entirely; no partial map escapes.
func TestCache_GetMultiple_InvalidKeyAborts(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{})
	if err := c.Set("good", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := c.GetMultiple([]string{"good", "bad key"}, nil)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if got != nil {
		t.Fatalf("partial result escaped: %#v", got)
	}
}

// SetMultiple keeps going after a failure and reports it in the joined
// error; the storable pairs land anyway.
func TestCache_SetMultiple_ContinuesPastFailure(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{})
	err := c.SetMultiple(map[string]any{
		"good": "v",
		"bad":  make(chan int),
	}, 0)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if got, _ := c.Get("good", nil); got != "v" {
		t.Fatalf("good pair not stored, got %#v", got)
	}
}

// Clear empties exactly one domain; a sibling domain under the same root is
// untouched, and the cleared domain keeps working.
func TestCache_Clear_IsolatesDomains(t *testing.T) {
	t.Parallel()

	be := billyfs.NewMemory()
	alpha, err := New("alpha", Options{Root: "/cache", Backend: be})
	if err != nil {
		t.Fatalf("New alpha: %v", err)
	}
	beta, err := New("beta", Options{Root: "/cache", Backend: be})
	if err != nil {
		t.Fatalf("New beta: %v", err)
	}

	if err := alpha.Set("k", "va", 0); err != nil {
		t.Fatalf("Set alpha: %v", err)
	}
	if err := beta.Set("k", "vb", 0); err != nil {
		t.Fatalf("Set beta: %v", err)
	}

	if err := alpha.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got, _ := alpha.Get("k", "gone"); got != "gone" {
		t.Fatalf("alpha survived Clear: %#v", got)
	}
	if got, _ := beta.Get("k", nil); got != "vb" {
		t.Fatalf("beta was touched by alpha.Clear: %#v", got)
	}

	if err := alpha.Set("k2", "fresh", 0); err != nil {
		t.Fatalf("Set after Clear: %v", err)
	}
	if got, _ := alpha.Get("k2", nil); got != "fresh" {
		t.Fatalf("Get after Clear = %#v, want fresh", got)
	}
}

// A record written under a different schema version is invalid on the next
// read even with a live expiry, and its file is purged.
func TestCache_VersionMismatch_PurgedOnRead(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{})
	rawWrite(t, c, "k", []byte(`{"value":"x","value_type":"string","expires_at":null,"created_at":1700000000,"version":99}`))

	if got, _ := c.Get("k", "miss"); got != "miss" {
		t.Fatalf("version-mismatched record served: %#v", got)
	}
	if fileExists(t, c, "k") {
		t.Fatal("version-mismatched record must be purged")
	}
}

// Corrupted bytes on disk read as a miss and the file disappears, so the
// same key is clean on the next write.
func TestCache_CorruptRecord_SelfHeals(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{})
	rawWrite(t, c, "k", []byte(`{"value": truncated`))

	if got, _ := c.Get("k", "miss"); got != "miss" {
		t.Fatalf("corrupt record served: %#v", got)
	}
	if fileExists(t, c, "k") {
		t.Fatal("corrupt record must be purged")
	}
	if err := c.Set("k", "clean", 0); err != nil {
		t.Fatalf("Set after self-heal: %v", err)
	}
	if got, _ := c.Get("k", nil); got != "clean" {
		t.Fatalf("Get after rewrite = %#v, want clean", got)
	}
}

// Domain names follow the same shape rule as keys, checked before any I/O.
func TestCache_New_Validation(t *testing.T) {
	t.Parallel()

	bad := []string{"", ".", "..", "two words", "ha/sh", "dot..ok-but/slash-not", strings.Repeat("d", 65)}
	for _, domain := range bad {
		if _, err := New(domain, Options{Backend: billyfs.NewMemory(), Root: "/cache"}); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("New(%q) err = %v, want ErrInvalidArgument", domain, err)
		}
	}
	if _, err := New(strings.Repeat("d", 64), Options{Backend: billyfs.NewMemory(), Root: "/cache"}); err != nil {
		t.Fatalf("New(64-char domain) = %v, want nil", err)
	}
}

// A domain name becomes a literal directory under the root, so the relative
// segments "." and ".." would alias the root itself or its parent; New must
// reject both before touching any directory, or a later Clear could wipe
// sibling domains or content outside the root.
func TestCache_New_RejectsDotDomains(t *testing.T) {
	t.Parallel()

	be := billyfs.NewMemory()
	sibling, err := New("alpha", Options{Root: "/cache", Backend: be})
	if err != nil {
		t.Fatalf("New alpha: %v", err)
	}
	if err := sibling.Set("k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// "." under /cache would be /cache itself; ".." under /cache/inner
	// would climb back to /cache.
	for _, tc := range []struct{ domain, root string }{
		{".", "/cache"},
		{"..", "/cache/inner"},
	} {
		if _, err := New(tc.domain, Options{Root: tc.root, Backend: be}); !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("New(%q) err = %v, want ErrInvalidArgument", tc.domain, err)
		}
	}

	if got, _ := sibling.Get("k", nil); got != "v" {
		t.Fatalf("sibling domain disturbed: %#v, want v", got)
	}
}

// An unwritable root fails construction, not the first Set.
func TestCache_New_UnwritableRoot(t *testing.T) {
	t.Parallel()

	fb := &failingBackend{Backend: billyfs.NewMemory(), failWrites: true}
	_, err := New("app", Options{Root: "/cache", Backend: fb})
	if !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("err = %v, want ErrOperationFailed", err)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("cause lost: %v", err)
	}
}

// Invalid keys and unencodable values fail before anything is written.
func TestCache_Set_InvalidInputsBeforeIO(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{})
	if err := c.Set("bad key", "v", 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad key err = %v, want ErrInvalidArgument", err)
	}
	if err := c.Set("k", make(chan int), 0); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("bad value err = %v, want ErrInvalidArgument", err)
	}
	if fileExists(t, c, "k") {
		t.Fatal("nothing must be written for an unencodable value")
	}
}

// Backend write and remove failures surface as ErrOperationFailed with the
// cause wrapped underneath; nothing is retried.
func TestCache_BackendFailuresSurface(t *testing.T) {
	t.Parallel()

	fb := &failingBackend{Backend: billyfs.NewMemory()}
	c, err := New("app", Options{Root: "/cache", Backend: fb})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := c.Set("k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	fb.failWrites = true
	err = c.Set("k2", "v", 0)
	if !errors.Is(err, ErrOperationFailed) || !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("Set err = %v, want ErrOperationFailed wrapping ErrPermission", err)
	}
	err = c.SetMultiple(map[string]any{"a": 1, "b": 2}, 0)
	if !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("SetMultiple err = %v, want ErrOperationFailed", err)
	}
	fb.failWrites = false

	fb.failRemoves = true
	err = c.Delete("k")
	if !errors.Is(err, ErrOperationFailed) || !errors.Is(err, fs.ErrPermission) {
		t.Fatalf("Delete err = %v, want ErrOperationFailed wrapping ErrPermission", err)
	}
}

// GetOrLoad without a configured Loader reports ErrNoLoader; invalid keys
// are still rejected first.
func TestCache_GetOrLoad_NoLoader(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{})
	if _, err := c.GetOrLoad(context.Background(), "bad key"); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("err = %v, want ErrInvalidArgument", err)
	}
	if _, err := c.GetOrLoad(context.Background(), "k"); !errors.Is(err, ErrNoLoader) {
		t.Fatalf("err = %v, want ErrNoLoader", err)
	}
}

// GetOrLoad stores the loaded value under the default TTL: the second call
// is a pure hit, and after the TTL passes the loader runs again.
func TestCache_GetOrLoad_LoadsOnceAndCaches(t *testing.T) {
	t.Parallel()

	calls := 0
	c, clk := newMemCache(t, Options{
		DefaultTTL: time.Minute,
		Loader: func(_ context.Context, key string) (any, error) {
			calls++
			return "v:" + key, nil
		},
	})

	v, err := c.GetOrLoad(context.Background(), "k")
	if err != nil || v != "v:k" {
		t.Fatalf("GetOrLoad = %#v, %v", v, err)
	}
	if calls != 1 {
		t.Fatalf("loader calls = %d, want 1", calls)
	}
	if got, _ := c.Get("k", nil); got != "v:k" {
		t.Fatalf("loaded value not stored: %#v", got)
	}

	v, err = c.GetOrLoad(context.Background(), "k")
	if err != nil || v != "v:k" || calls != 1 {
		t.Fatalf("second GetOrLoad = %#v, %v, calls=%d", v, err, calls)
	}

	clk.add(2 * time.Minute)
	v, err = c.GetOrLoad(context.Background(), "k")
	if err != nil || v != "v:k" {
		t.Fatalf("GetOrLoad after expiry = %#v, %v", v, err)
	}
	if calls != 2 {
		t.Fatalf("loader calls after expiry = %d, want 2", calls)
	}
}

// The call that runs the loader hands back the stored form of the value,
// with the documented decoded shapes (int64 numbers, []any slices), so it
// deep-equals what every later read returns.
func TestCache_GetOrLoad_ReturnsStoredForm(t *testing.T) {
	t.Parallel()

	c, _ := newMemCache(t, Options{
		Loader: func(context.Context, string) (any, error) {
			return map[string]any{"n": 42, "list": []int{1, 2}}, nil
		},
	})

	first, err := c.GetOrLoad(context.Background(), "k")
	if err != nil {
		t.Fatalf("GetOrLoad: %v", err)
	}
	want := map[string]any{"n": int64(42), "list": []any{int64(1), int64(2)}}
	if !reflect.DeepEqual(first, want) {
		t.Fatalf("loading call returned %#v, want stored form %#v", first, want)
	}

	later, err := c.Get("k", nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !reflect.DeepEqual(first, later) {
		t.Fatalf("loading call returned %#v but later reads return %#v", first, later)
	}
}

// A loader error propagates unchanged and nothing is stored.
func TestCache_GetOrLoad_LoaderErrorPropagates(t *testing.T) {
	t.Parallel()

	errLoad := errors.New("upstream down")
	c, _ := newMemCache(t, Options{
		Loader: func(context.Context, string) (any, error) { return nil, errLoad },
	})
	if _, err := c.GetOrLoad(context.Background(), "k"); !errors.Is(err, errLoad) {
		t.Fatalf("err = %v, want wrapped upstream error", err)
	}
	if fileExists(t, c, "k") {
		t.Fatal("nothing must be stored after a failed load")
	}
}

// Metrics fire on reads and evictions but not on the advisory Has.
func TestCache_Metrics_Signals(t *testing.T) {
	t.Parallel()

	m := &recordingMetrics{}
	c, clk := newMemCache(t, Options{Metrics: m})

	if err := c.Set("a", "x", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if len(m.writes) != 1 || m.writes[0] <= 0 {
		t.Fatalf("writes = %v, want one positive size", m.writes)
	}

	c.Get("a", nil)     // hit
	c.Get("ghost", nil) // miss
	clk.add(2 * time.Minute)
	c.Get("a", nil) // miss + expired eviction
	rawWrite(t, c, "junk", []byte("not json"))
	c.Get("junk", nil) // miss + invalid eviction
	c.Has("a")         // advisory, no hit/miss

	if m.hits != 1 || m.misses != 3 {
		t.Fatalf("hits=%d misses=%d, want 1/3", m.hits, m.misses)
	}
	if m.evicts[EvictExpired] != 1 || m.evicts[EvictInvalid] != 1 {
		t.Fatalf("evicts = %v, want one expired and one invalid", m.evicts)
	}
}

// InvalidOrExpired mirrors the miss decision: fresh records pass, expired
// and undecodable ones do not.
func TestCache_InvalidOrExpired(t *testing.T) {
	t.Parallel()

	c, clk := newMemCache(t, Options{})
	if err := c.Set("k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	rec := rawRead(t, c, "k")

	if c.InvalidOrExpired(rec) {
		t.Fatal("fresh record reported invalid")
	}
	clk.add(2 * time.Minute)
	if !c.InvalidOrExpired(rec) {
		t.Fatal("expired record reported valid")
	}
	if !c.InvalidOrExpired([]byte("garbage")) {
		t.Fatal("garbage reported valid")
	}
}
