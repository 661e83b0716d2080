package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alecthomas/kong"
	"github.com/alicebob/miniredis/v2"
	"github.com/chatcore/sessiongate"
	"github.com/chatcore/sessiongate/directory"
	"github.com/chatcore/sessiongate/session"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

var cli struct {
	Sessions    int    `help:"Number of sessions to seed." default:"100000"`
	Users       int    `help:"Number of distinct users owning the sessions." default:"1000"`
	Concurrency int    `help:"Number of concurrent workers." default:"256"`
	Ops         int    `help:"Operations per phase." default:"200000"`
	RedisAddr   string `help:"Redis address; miniredis is used when empty." env:"REDIS_ADDR"`
	Prefix      string `help:"Session key prefix." default:"sglt"`
	RotateEvery int    `help:"In the churn phase, rotate a user credential every N operations." default:"1000"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("sessiongate-loadtest"),
		kong.Description("Concurrent Reload+Authenticate load generator."),
	)
	if cli.Sessions <= 0 || cli.Users <= 0 || cli.Concurrency <= 0 || cli.Ops <= 0 || cli.RotateEvery <= 0 {
		kctx.Fatalf("sessions, users, concurrency, ops and rotate-every must be > 0")
	}

	ctx := context.Background()

	client, cleanup, err := connect(cli.RedisAddr)
	kctx.FatalIfErrorf(err)
	defer cleanup()

	dir := directory.NewMemory()
	issued := time.Now().Add(-time.Minute)
	for u := 0; u < cli.Users; u++ {
		dir.Put(directory.Snapshot{
			UserID:              userID(u),
			CredentialHash:      "loadtest",
			CredentialChangedAt: issued.Add(-time.Hour),
			Status:              directory.StatusActive,
		})
	}

	cfg := sessiongate.DefaultConfig()
	cfg.Session.RedisPrefix = cli.Prefix
	cfg.Metrics.EnableLatencyHistograms = true
	engine, err := sessiongate.New().
		WithConfig(cfg).
		WithRedis(client).
		WithUserDirectory(dir).
		Build()
	kctx.FatalIfErrorf(err)
	defer engine.Close()

	store := session.NewStore(client, cli.Prefix)
	sids := make([]string, cli.Sessions)
	fmt.Printf("seeding %d sessions for %d users...\n", cli.Sessions, cli.Users)
	startSeed := time.Now()
	for i := range sids {
		sids[i] = fmt.Sprintf("sid-%d", i)
		err := store.Save(ctx, &session.Session{
			SessionID:  sids[i],
			UserID:     userID(i % cli.Users),
			IssuedAt:   issued.UnixMilli(),
			LastSeenAt: issued.UnixMilli(),
		}, 24*time.Hour)
		kctx.FatalIfErrorf(err, "save failed")
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	steady := runPhase(ctx, cli.Ops, cli.Concurrency, func(r *rand.Rand, _ int) error {
		return authenticate(ctx, engine, sids[r.Intn(len(sids))])
	})

	var rotated sync.Map
	churn := runPhase(ctx, cli.Ops, cli.Concurrency, func(r *rand.Rand, i int) error {
		if i%cli.RotateEvery == 0 {
			u := userID(r.Intn(cli.Users))
			if _, loaded := rotated.LoadOrStore(u, true); !loaded {
				_ = dir.ChangeCredential(u, time.Now())
			}
		}
		return authenticate(ctx, engine, sids[r.Intn(len(sids))])
	})

	fmt.Println("---- results ----")
	printStats("authenticate", steady)
	printStats("authenticate+churn", churn)

	snap := engine.MetricsSnapshot()
	fmt.Printf("engine: success=%d credential_changed=%d unavailable=%d touch_failures=%d\n",
		snap.Counters[sessiongate.MetricAuthSuccess],
		snap.Counters[sessiongate.MetricAuthCredentialChanged],
		snap.Counters[sessiongate.MetricAuthUnavailable],
		snap.Counters[sessiongate.MetricTouchFailure],
	)
}

func connect(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			return nil, nil, fmt.Errorf("start miniredis: %w", err)
		}
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		fmt.Printf("using miniredis at %s\n", mr.Addr())
		return client, func() {
			_ = client.Close()
			mr.Close()
		}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
	fmt.Printf("using redis at %s\n", addr)
	return client, func() { _ = client.Close() }, nil
}

func authenticate(ctx context.Context, engine *sessiongate.Engine, sid string) error {
	ctx, err := engine.Reload(ctx, sid)
	if err != nil {
		return err
	}
	_, _, err = engine.Authenticate(ctx)
	return err
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

// runPhase runs ops calls of op across concurrency workers. op failures are
// counted, not fatal.
func runPhase(ctx context.Context, ops, concurrency int, op func(r *rand.Rand, i int) error) phaseStats {
	var (
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	g, _ := errgroup.WithContext(ctx)
	start := time.Now()
	for w := 0; w < concurrency; w++ {
		g.Go(func() error {
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(w)*7919))
			local := make([]time.Duration, 0, ops/concurrency+1)
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					break
				}
				t0 := time.Now()
				if err := op(r, i); err != nil {
					atomic.AddInt64(&failures, 1)
				}
				local = append(local, time.Since(t0))
			}
			mu.Lock()
			latencies = append(latencies, local...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return computeStats(time.Since(start), latencies, failures)
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
	return samples[(len(samples)-1)*p/100]
}

func printStats(name string, s phaseStats) {
	fmt.Fprintf(os.Stdout, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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

func userID(i int) string {
	return fmt.Sprintf("user-%d", i)
}
