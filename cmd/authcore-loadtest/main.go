// Command authcore-loadtest seeds token-pair sessions against Redis (or an
// embedded miniredis when no address is given) and drives concurrent
// verify and refresh load, reporting latency percentiles per phase.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/charvault/authcore"
	"github.com/charvault/authcore/kv"
	"github.com/charvault/authcore/token"
)

func main() {
	var (
		subjects    = flag.Int("subjects", 1000, "number of subjects to seed (one token pair each)")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per phase (verify + refresh)")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *subjects <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "subjects, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
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
			logger.Fatal().Err(err).Msg("failed to start miniredis")
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		logger.Info().Str("addr", addr).Msg("using miniredis")
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		logger.Info().Str("addr", addr).Msg("using redis")
	}
	defer cleanup()

	manager, err := authcore.New(authcore.Config{
		Token: authcore.TokenConfig{
			Secret: []byte("loadtest-secret-loadtest-secret-x"),
			Issuer: "authcore-loadtest",
		},
		Logger: &logger,
	}, kv.NewRedis(client))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build manager")
	}

	logger.Info().Int("subjects", *subjects).Msg("seeding token pairs")
	startSeed := time.Now()
	pairs := make([]*authcore.TokenPair, *subjects)
	for i := range pairs {
		pair, err := manager.GenerateTokenPair(ctx, token.Identity{
			SubjectID:   fmt.Sprintf("u%d", i),
			Email:       fmt.Sprintf("u%d@example.com", i),
			DisplayName: fmt.Sprintf("User %d", i),
			Role:        token.RolePlayer,
		}, authcore.IssueOptions{DeviceInfo: "loadtest"})
		if err != nil {
			logger.Fatal().Err(err).Msg("seed failed")
		}
		pairs[i] = pair
	}
	logger.Info().Dur("elapsed", time.Since(startSeed)).Msg("seeded")

	verifyStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		_, err := manager.VerifyAccessToken(ctx, pairs[r.Intn(len(pairs))].AccessToken)
		return err
	})
	refreshStats := runPhase(*ops, *concurrency, func(r *rand.Rand) error {
		_, err := manager.RefreshAccessToken(ctx, pairs[r.Intn(len(pairs))].RefreshToken)
		return err
	})

	fmt.Println("---- results ----")
	printStats("verify", verifyStats)
	printStats("refresh", refreshStats)
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

func runPhase(ops, concurrency int, op func(*rand.Rand) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		mu        sync.Mutex
		latencies = make([]time.Duration, 0, ops)
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
				err := op(r)
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

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      samples[len(samples)*50/100],
		p95:      samples[len(samples)*95/100],
		p99:      samples[len(samples)*99/100],
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%-8s ops=%d failures=%d total=%s ops/s=%.0f p50=%s p95=%s p99=%s\n",
		name, s.ops, s.failures, s.total.Round(time.Millisecond), s.opsPerS,
		s.p50.Round(time.Microsecond), s.p95.Round(time.Microsecond), s.p99.Round(time.Microsecond))
}
