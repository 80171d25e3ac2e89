package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	tyadmin "github.com/GitHub-GodOne/ty-admin-sub001"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		sessions    = flag.Int("sessions", 100000, "number of sessions to issue")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "authorize operations")
		rounds      = flag.Int("credential-rounds", 50, "rounds of concurrent upstream token misses")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 || *rounds < 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency and ops must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	var upstreamCalls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		n := upstreamCalls.Add(1)
		time.Sleep(20 * time.Millisecond)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "loadtest-" + strconv.FormatInt(n, 10),
			"expires_in":   7200,
		})
	}))
	defer upstream.Close()

	cfg := tyadmin.DefaultConfig()
	cfg.Credential.Endpoint = upstream.URL
	cfg.Credential.AppID = "loadtest"
	cfg.Credential.Secret = "loadtest"
	cfg.Metrics.Enabled = true

	engine, err := tyadmin.New().
		WithConfig(cfg).
		WithRedis(client).
		WithPermissions("order:list").
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	tokens := make([]string, *sessions)
	fmt.Printf("issuing %d sessions...\n", *sessions)
	issueStats := runPhase(*sessions, *concurrency, func(i int, _ *rand.Rand) error {
		res, err := engine.Issue(ctx, tyadmin.Grant{
			SubjectID:   int64(i + 1),
			Account:     "load-" + strconv.Itoa(i),
			Roles:       []string{"2"},
			Permissions: []string{"order:list"},
		})
		if err != nil {
			return err
		}
		tokens[i] = res.Token
		return nil
	})

	authorizeStats := runPhase(*ops, *concurrency, func(_ int, r *rand.Rand) error {
		_, err := engine.Authorize(ctx, tokens[r.Intn(len(tokens))], "order:list")
		return err
	})

	// Each round empties the credential slot and races concurrent readers onto it.
	var redundant, failedReads int64
	credentialStats := runPhase(*rounds, 1, func(int, *rand.Rand) error {
		if err := client.Del(ctx, cfg.Credential.Key).Err(); err != nil {
			return err
		}
		before := upstreamCalls.Load()

		failed, err := raceCredentialMiss(ctx, engine, *concurrency)
		failedReads += failed

		if n := upstreamCalls.Load() - before; n > 1 {
			redundant += n - 1
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("issue", issueStats)
	printStats("authorize", authorizeStats)
	printStats("credential-round", credentialStats)
	fmt.Printf("upstream calls=%d redundant fetches under concurrent misses=%d failed token reads=%d\n",
		upstreamCalls.Load(), redundant, failedReads)

	snap := engine.MetricsSnapshot()
	fmt.Printf("credential hits=%d misses=%d fetches=%d\n",
		snap.Counters[tyadmin.MetricCredentialHit],
		snap.Counters[tyadmin.MetricCredentialMiss],
		snap.Counters[tyadmin.MetricCredentialFetch],
	)
}

type upstreamTokenReader interface {
	UpstreamToken(ctx context.Context) (string, error)
}

// raceCredentialMiss runs the given number of concurrent token reads and returns how many failed,
// along with the first failure.
func raceCredentialMiss(ctx context.Context, src upstreamTokenReader, readers int) (int64, error) {
	var (
		wg       sync.WaitGroup
		failed   atomic.Int64
		firstErr error
		once     sync.Once
	)
	for w := 0; w < readers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := src.UpstreamToken(ctx); err != nil {
				failed.Add(1)
				once.Do(func() { firstErr = err })
			}
		}()
	}
	wg.Wait()
	return failed.Load(), firstErr
}

func runPhase(ops, concurrency int, op func(i int, r *rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := op(i, r)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
