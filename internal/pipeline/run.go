package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"

	"shrike/internal/artifacts"
	"shrike/internal/bestcache"
	"shrike/internal/config"
	"shrike/internal/database"
	"shrike/internal/domain"
	"shrike/internal/jobs/checker"
	"shrike/internal/jobs/scraper"
	"shrike/internal/judge"
	"shrike/internal/refip"
	"shrike/internal/support"
)

// Pipeline runs one discovery, validation and persistence cycle. The
// function fields are seams: New wires the real implementations and
// tests swap in fakes.
type Pipeline struct {
	cfg    config.Config
	judges []*judge.Judge

	fetch    func(ctx context.Context) (scraper.FetchOutcome, error)
	check    func(ctx context.Context, proxyToCheck domain.Proxy, referenceIP string) (domain.CheckResult, bool)
	refIP    func(ctx context.Context) string
	loadBest func(ctx context.Context) string
	persist  func(summary domain.RunSummary) error
	mirror   func(ctx context.Context, endpoint string)
	archive  func(summary domain.RunSummary)
}

func New(cfg config.Config, judges []*judge.Judge) *Pipeline {
	checkOpts := checker.CheckOptions{
		Timeout:          time.Duration(cfg.Checker.Timeout) * time.Millisecond,
		RequireAllJudges: cfg.Checker.RequireAllJudges,
	}

	oracle := refip.New(cfg.Checker.IpLookup, checkOpts.Timeout)
	store := bestcache.New(cfg.BestPath())
	writer := artifacts.New(cfg)

	return &Pipeline{
		cfg:    cfg,
		judges: judges,
		fetch: func(ctx context.Context) (scraper.FetchOutcome, error) {
			return scraper.FetchAll(ctx, cfg.Sources, cfg.RenderSources, scraper.FetchOptions{
				Threads:       cfg.Scraper.Threads,
				Timeout:       time.Duration(cfg.Scraper.Timeout) * time.Millisecond,
				RespectRobots: cfg.Scraper.RespectRobots,
			})
		},
		check: func(ctx context.Context, proxyToCheck domain.Proxy, referenceIP string) (domain.CheckResult, bool) {
			return checker.CheckProxy(ctx, proxyToCheck, judges, referenceIP, checkOpts)
		},
		refIP:    oracle.IP,
		loadBest: store.Load,
		persist:  writer.WriteAll,
		mirror:   store.Mirror,
		archive:  archiveIfConfigured,
	}
}

// Run executes one cycle. Unless full is set it first revalidates the
// previous run's best proxy and, when that still works, skips source
// fetching entirely.
func (pipe *Pipeline) Run(ctx context.Context, full bool) (domain.RunSummary, error) {
	started := time.Now()

	if !full {
		summary, settled, err := pipe.tryFastPath(ctx, started)
		if err != nil {
			return summary, err
		}
		if settled {
			return summary, nil
		}
		if err := ctx.Err(); err != nil {
			return domain.RunSummary{}, err
		}
	}

	return pipe.runFull(ctx, started)
}

func (pipe *Pipeline) tryFastPath(ctx context.Context, started time.Time) (domain.RunSummary, bool, error) {
	endpoint := pipe.loadBest(ctx)
	if endpoint == "" {
		return domain.RunSummary{}, false, nil
	}

	previous, err := support.ParseCandidate(endpoint)
	if err != nil {
		log.Warn("Previous best proxy is malformed, ignoring", "endpoint", endpoint, "error", err)
		return domain.RunSummary{}, false, nil
	}

	log.Info("Revalidating previous best proxy", "proxy", previous.GetIdentity())

	referenceIP := pipe.refIP(ctx)
	result, ok := pipe.check(ctx, previous, referenceIP)
	if !ok {
		log.Info("Previous best proxy failed revalidation, running the full pool")
		return domain.RunSummary{}, false, nil
	}

	summary := domain.RunSummary{
		StartedAt:    started.UTC(),
		FetchedTotal: 1,
		TestedTotal:  1,
		ReferenceIP:  referenceIP,
		FastPath:     true,
		Judges:       judgeStrings(pipe.judges),
		Results:      []domain.CheckResult{result},
	}
	summary.Duration = time.Since(started)

	if err := pipe.finish(ctx, &summary); err != nil {
		return summary, true, err
	}
	return summary, true, nil
}

func (pipe *Pipeline) runFull(ctx context.Context, started time.Time) (domain.RunSummary, error) {
	summary := domain.RunSummary{
		StartedAt: started.UTC(),
		Judges:    judgeStrings(pipe.judges),
	}

	outcome, err := pipe.fetch(ctx)
	if err != nil {
		if errors.Is(err, scraper.ErrEmptyPool) {
			// Still persist: empty artifacts are the truthful record of
			// this run, and stale files from the last one would not be.
			log.Error("Every proxy source failed, persisting empty artifacts")
			summary.SourceFailures = outcome.Failures
			summary.Duration = time.Since(started)
			if perr := pipe.finish(ctx, &summary); perr != nil {
				return summary, perr
			}
			return summary, nil
		}
		return summary, err
	}

	summary.FetchedTotal = len(outcome.Candidates)
	summary.SourceFailures = outcome.Failures

	proxies, malformed := support.ParseCandidates(outcome.Candidates)
	proxies = support.DeduplicateProxies(proxies)
	summary.MalformedTotal = malformed

	log.Info("Candidate pool assembled",
		"fetched", summary.FetchedTotal,
		"unique", len(proxies),
		"malformed", malformed,
		"failed_sources", summary.SourceFailures,
	)

	referenceIP := pipe.refIP(ctx)
	summary.ReferenceIP = referenceIP

	check := func(taskCtx context.Context, proxyToCheck domain.Proxy) (domain.CheckResult, bool) {
		return pipe.check(taskCtx, proxyToCheck, referenceIP)
	}

	results, tested := checker.RunBatch(ctx, proxies, check, checker.BatchOptions{
		Threads:   pipe.cfg.Checker.Threads,
		MaxChecks: pipe.cfg.Checker.MaxChecks,
		StopAfter: pipe.cfg.Checker.StopAfter,
		Deadline:  time.Duration(pipe.cfg.Checker.Timeout+pipe.cfg.Checker.DeadlineSlack) * time.Millisecond,
	})
	summary.TestedTotal = tested

	// An interrupted run persists nothing; whatever the previous run
	// wrote stays on disk.
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	summary.Results = RankResults(results)
	summary.Duration = time.Since(started)

	if err := pipe.finish(ctx, &summary); err != nil {
		return summary, err
	}
	return summary, nil
}

func (pipe *Pipeline) finish(ctx context.Context, summary *domain.RunSummary) error {
	if err := pipe.persist(*summary); err != nil {
		return err
	}

	best := ""
	if result, ok := summary.Best(); ok {
		best = result.Endpoint
	}
	pipe.mirror(ctx, best)
	pipe.archive(*summary)

	log.Info("Run complete",
		"working", summary.WorkingCount(),
		"tested", summary.TestedTotal,
		"fetched", summary.FetchedTotal,
		"duration", summary.Duration,
	)
	return nil
}

func judgeStrings(judges []*judge.Judge) []string {
	names := make([]string, 0, len(judges))
	for _, j := range judges {
		names = append(names, j.GetFullString())
	}
	return names
}

func archiveIfConfigured(summary domain.RunSummary) {
	if !database.Enabled() {
		return
	}

	db, err := database.SetupDB()
	if err != nil {
		log.Warn("Run archive unavailable", "error", err)
		return
	}

	if err := database.ArchiveRun(db, summary); err != nil {
		log.Warn("Run archive failed", "error", err)
		return
	}

	keep := support.GetEnvInt("DB_ARCHIVE_KEEP", 0)
	if err := database.PruneArchive(db, keep); err != nil {
		log.Warn("Run archive prune failed", "error", err)
	}
}
