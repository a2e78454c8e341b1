package main

import (
	"flag"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/credcore"
)

func runLoadtest(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("loadtest", flag.ContinueOnError)
	subjects := fs.Int("subjects", 10000, "number of distinct subjects to issue for")
	concurrency := fs.Int("concurrency", 64, "number of concurrent workers")
	ops := fs.Int("ops", 200000, "operations per phase (issue + fetch)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subjects <= 0 || *concurrency <= 0 || *ops <= 0 {
		return fmt.Errorf("subjects, concurrency, and ops must be > 0")
	}

	backend, _, err := buildBackend(commonFlags{})
	if err != nil {
		return err
	}

	issueStats, tokens := runIssuePhase(backend, *subjects, *ops, *concurrency)
	if len(tokens) == 0 {
		return fmt.Errorf("issue phase produced no tokens")
	}
	fetchStats := runFetchPhase(backend, tokens, *ops, *concurrency)

	fmt.Fprintln(stdout, "---- results ----")
	printStats(stdout, "issue", issueStats)
	printStats(stdout, "fetch", fetchStats)
	return nil
}

func runIssuePhase(backend credcore.TokenIssuer, subjects, ops, concurrency int) (phaseStats, []string) {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		tokens    = make([]string, subjects)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				idx := i % subjects
				t0 := time.Now()
				tok, err := backend.CreateAccessToken(credcore.TokenData{
					Subject: fmt.Sprintf("user-%d", idx),
					Scopes:  credcore.Scopes{"read"},
				})
				d := time.Since(t0)
				mu.Lock()
				if err != nil {
					failures++
				} else if tokens[idx] == "" {
					tokens[idx] = tok.AccessToken
				}
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)

	issued := tokens[:0]
	for _, t := range tokens {
		if t != "" {
			issued = append(issued, t)
		}
	}
	return computeStats(total, latencies, failures), issued
}

func runFetchPhase(backend credcore.TokenIssuer, tokens []string, ops, concurrency int) phaseStats {
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
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				_, err := backend.FetchData(tokens[i%len(tokens)])
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, atomic.LoadInt64(&failures))
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

func printStats(w io.Writer, name string, s phaseStats) {
	fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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
