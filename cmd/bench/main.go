// Command bench runs a synthetic workload against a cache domain and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/filekv/filecache/cache"
	pmet "github.com/filekv/filecache/metrics/prom"
	"github.com/filekv/filecache/storage"
	"github.com/filekv/filecache/storage/billyfs"
	"github.com/filekv/filecache/storage/boltfs"
	"github.com/filekv/filecache/sweep"
)

func main() {
	// ---- Flags ----
	var (
		root    = flag.String("root", filepath.Join(os.TempDir(), "filecache-bench"), "cache root directory")
		domain  = flag.String("domain", "bench", "cache domain")
		backend = flag.String("backend", "local", "storage backend: local | memory | bolt")
		dbPath  = flag.String("db", filepath.Join(os.TempDir(), "filecache-bench.db"), "database file for -backend bolt")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")
		ttl      = flag.Duration("ttl", 0, "per-entry TTL (0 = no expiry)")

		keys    = flag.Int("keys", 100_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 10_000, "entries written before the run")

		maxBytes = flag.Int64("max_bytes", 0, "domain size budget enforced by the final sweep (0 = off)")
		sweepPol = flag.String("sweep_policy", "oldest", "capacity eviction order: oldest | expiring")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "filecache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Backend selection ----
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}
	var be storage.Backend
	switch *backend {
	case "local":
		be = billyfs.NewLocal()
	case "memory":
		be = billyfs.NewMemory()
		if workersN > 1 {
			log.Printf("memory backend is not synchronized; forcing workers=1")
			workersN = 1
		}
	case "bolt":
		st, err := boltfs.Open(*dbPath)
		if err != nil {
			log.Fatalf("open bolt store: %v", err)
		}
		defer st.Close()
		be = st
	default:
		log.Fatalf("unknown backend: %q (use local, memory or bolt)", *backend)
	}

	// ---- Build cache ----
	opt := cache.Options{
		Root:     *root,
		Backend:  be,
		Metrics:  metrics,
		MaxBytes: *maxBytes,
	}
	switch *sweepPol {
	case "oldest":
		// nil => OldestFirst by default
	case "expiring":
		opt.SweepPolicy = sweep.ExpiringFirst{}
	default:
		log.Fatalf("unknown sweep policy: %q (use oldest or expiring)", *sweepPol)
	}
	c, err := cache.New(*domain, opt)
	if err != nil {
		log.Fatalf("construct cache: %v", err)
	}

	// ---- Preload to get a realistic hit-rate ----
	for i := 0; i < *preload; i++ {
		k := "k-" + strconv.Itoa(i)
		if err := c.Set(k, "v"+strconv.Itoa(i), *ttl); err != nil {
			log.Fatalf("preload: %v", err)
		}
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	ttlVal := *ttl

	// ---- Load generation ----
	var reads, writes, hits, misses, failures uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var g errgroup.Group
	for w := 0; w < workersN; w++ {
		id := w
		g.Go(func() error {
			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k-" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for ctx.Err() == nil {
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					v, err := c.Get(keyByZipf(), nil)
					if err != nil {
						return err
					}
					if v != nil {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					if err := c.Set(keyByZipf(), "v"+strconv.Itoa(localR.Int()), ttlVal); err != nil {
						atomic.AddUint64(&failures, 1)
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("worker: %v", err)
	}
	elapsed := time.Since(start)

	// ---- Report ----
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)
	ops := readsN + writesN

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("backend=%s domain=%s workers=%d keys=%d ttl=%v dur=%v seed=%d\n",
		*backend, *domain, workersN, *keys, ttlVal, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d  write-failures=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN, atomic.LoadUint64(&failures))
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)

	// ---- Final sweep ----
	swStart := time.Now()
	removed, err := c.Sweep(context.Background())
	if err != nil {
		log.Fatalf("sweep: %v", err)
	}
	fmt.Printf("sweep: removed=%d in %v (max_bytes=%d, policy=%s)\n",
		removed, time.Since(swStart), *maxBytes, *sweepPol)
}
