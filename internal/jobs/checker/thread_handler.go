package checker

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"shrike/internal/domain"
	"shrike/internal/judge"
)

type CheckOptions struct {
	Timeout time.Duration

	// RequireAllJudges makes the candidate pass only when every judge
	// check succeeds. When false the first passing judge settles it.
	RequireAllJudges bool
}

type BatchOptions struct {
	Threads   uint32
	MaxChecks uint32 // 0 = no cap
	StopAfter uint32 // 0 = exhaustive

	// Deadline is the hard per-task budget, independent of the request
	// timeout. A task past its deadline counts as a plain failure.
	Deadline time.Duration
}

// CheckFunc validates a single candidate. The boolean reports whether
// the candidate passed; failed candidates produce no result.
type CheckFunc func(ctx context.Context, proxyToCheck domain.Proxy) (domain.CheckResult, bool)

// CheckProxy validates one candidate against the configured judges.
// Every failure mode collapses to a debug log line and "no result";
// dead candidates are the common case, not an exception.
func CheckProxy(ctx context.Context, proxyToCheck domain.Proxy, judges []*judge.Judge, referenceIP string, opts CheckOptions) (domain.CheckResult, bool) {
	checks := make([]domain.JudgeCheck, 0, len(judges))

	var (
		exitIP       string
		totalSeconds float64
	)

	for _, j := range judges {
		if err := ctx.Err(); err != nil {
			return domain.CheckResult{}, false
		}

		check, ip, err := runJudgeCheck(ctx, proxyToCheck, j, opts.Timeout)
		if err != nil {
			log.Debug("Judge check failed", "proxy", proxyToCheck.GetFullProxy(), "judge", j.GetFullString(), "error", err)
			if opts.RequireAllJudges {
				return domain.CheckResult{}, false
			}
			continue
		}

		if referenceIP != "" && ip == referenceIP {
			// The relay fails open: traffic went through unproxied. A
			// self-IP response rejects the candidate in either mode.
			log.Debug("Candidate echoed the reference IP", "proxy", proxyToCheck.GetFullProxy(), "judge", j.GetFullString())
			return domain.CheckResult{}, false
		}

		checks = append(checks, check)
		exitIP = ip
		totalSeconds += check.ResponseTime

		if !opts.RequireAllJudges {
			break
		}
	}

	if len(checks) == 0 {
		return domain.CheckResult{}, false
	}
	if opts.RequireAllJudges && len(checks) != len(judges) {
		return domain.CheckResult{}, false
	}

	result := domain.CheckResult{
		Proxy:        proxyToCheck,
		Endpoint:     proxyToCheck.GetIdentity(),
		ExitIP:       exitIP,
		ResponseTime: totalSeconds / float64(len(checks)),
		Checks:       checks,
		CheckedAt:    time.Now().UTC(),
	}
	return result, true
}

func runJudgeCheck(ctx context.Context, proxyToCheck domain.Proxy, j *judge.Judge, timeout time.Duration) (domain.JudgeCheck, string, error) {
	timeStart := time.Now()
	body, status, err := ProxyCheckRequest(ctx, proxyToCheck, j, timeout)
	elapsed := time.Since(timeStart).Seconds()

	if err != nil {
		return domain.JudgeCheck{}, "", err
	}
	if status != http.StatusOK {
		return domain.JudgeCheck{}, "", fmt.Errorf("judge returned status %d", status)
	}

	ip, ok := judge.ExtractIP(body)
	if !ok {
		return domain.JudgeCheck{}, "", fmt.Errorf("judge body is not an IPv4 echo")
	}

	check := domain.JudgeCheck{
		Website:      j.GetFullString(),
		StatusCode:   status,
		ResponseTime: elapsed,
	}
	return check, ip, nil
}

// RunBatch shuffles the pool, caps it, and fans candidates out over a
// bounded worker group. Results keep dispatch order so that latency ties
// rank deterministically. Returns the collected results and the number
// of candidates actually dispatched.
func RunBatch(ctx context.Context, pool []domain.Proxy, check CheckFunc, opts BatchOptions) ([]domain.CheckResult, int) {
	rand.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})

	if opts.MaxChecks > 0 && uint32(len(pool)) > opts.MaxChecks {
		pool = pool[:opts.MaxChecks]
	}

	threads := int(opts.Threads)
	if threads < 1 {
		threads = 1
	}

	var (
		slots     = make([]*domain.CheckResult, len(pool))
		successes atomic.Uint32
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	dispatched := 0
	for i, proxyToCheck := range pool {
		if gctx.Err() != nil {
			break
		}
		if opts.StopAfter > 0 && successes.Load() >= opts.StopAfter {
			log.Debug("Early-stop threshold reached, halting dispatch", "successes", successes.Load(), "dispatched", dispatched)
			break
		}

		i, proxyToCheck := i, proxyToCheck
		dispatched++
		g.Go(func() error {
			taskCtx := gctx
			if opts.Deadline > 0 {
				var cancel context.CancelFunc
				taskCtx, cancel = context.WithTimeout(gctx, opts.Deadline)
				defer cancel()
			}

			result, ok := check(taskCtx, proxyToCheck)
			if !ok {
				return nil
			}

			successes.Add(1)
			slots[i] = &result
			return nil
		})
	}

	_ = g.Wait()

	results := make([]domain.CheckResult, 0, successes.Load())
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}

	return results, dispatched
}
