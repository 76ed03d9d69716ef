package scraper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"golang.org/x/sync/errgroup"

	"shrike/internal/support"
)

// ErrEmptyPool means every configured source failed; nothing can be
// validated this run.
var ErrEmptyPool = errors.New("every proxy source failed")

// FetchOutcome carries everything the fetch phase learned.
type FetchOutcome struct {
	Candidates []string // raw candidates, merged in source order
	Sources    int
	Failures   int
}

type FetchOptions struct {
	Threads       uint32
	Timeout       time.Duration
	RespectRobots bool // applies to render sources only
}

/* ─────────────────────────────  source fan-out  ─────────────────────────── */

// FetchAll retrieves every configured source under a small worker bound
// and merges the raw candidates. Individual source failures are logged
// and skipped; only a full wipe-out yields ErrEmptyPool.
func FetchAll(ctx context.Context, sources, renderSources []string, opts FetchOptions) (FetchOutcome, error) {
	type sourceJob struct {
		url    string
		render bool
	}

	jobs := make([]sourceJob, 0, len(sources)+len(renderSources))
	for _, url := range sources {
		jobs = append(jobs, sourceJob{url: url})
	}
	for _, url := range renderSources {
		jobs = append(jobs, sourceJob{url: url, render: true})
	}

	outcome := FetchOutcome{Sources: len(jobs)}
	if len(jobs) == 0 {
		return outcome, ErrEmptyPool
	}

	limit := int(opts.Threads)
	if limit < 1 {
		limit = 1
	}

	var (
		perSource = make([][]string, len(jobs))
		failures  atomic.Uint32
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			var found []string
			if job.render {
				html, err := renderAllowed(job.url, opts)
				if err != nil {
					log.Warn("Source fetch failed", "url", job.url, "error", err)
					failures.Add(1)
					return nil
				}
				found = support.ExtractEndpoints(html)
			} else {
				body, err := FetchSource(gctx, job.url, opts.Timeout)
				if err != nil {
					log.Warn("Source fetch failed", "url", job.url, "error", err)
					failures.Add(1)
					return nil
				}
				found = ParseSourceText(body)
			}

			perSource[i] = found
			log.Debug("Source fetched", "url", job.url, "candidates", len(found))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return outcome, err
	}

	outcome.Failures = int(failures.Load())
	for _, found := range perSource {
		outcome.Candidates = append(outcome.Candidates, found...)
	}

	if outcome.Failures == outcome.Sources {
		return outcome, ErrEmptyPool
	}

	return outcome, nil
}

func renderAllowed(sourceURL string, opts FetchOptions) (string, error) {
	if opts.RespectRobots {
		result, err := CheckRobotsAllowance(sourceURL, opts.Timeout)
		if err != nil {
			log.Warn("robots.txt check failed", "url", sourceURL, "error", err)
		}
		if result.RobotsFound && !result.Allowed {
			return "", errors.New("robots.txt disallows scraping")
		}
	}
	return RenderSource(sourceURL, opts.Timeout)
}

/* ─────────────────────────────  browser & page pool  ───────────────────── */

const pagePoolSize = 4

var (
	browserMu sync.Mutex
	browser   *rod.Browser
	pagePool  chan *rod.Page
)

// ensureBrowser launches the headless browser on first use. Runs with
// only plain-text sources never pay the launch cost.
func ensureBrowser() error {
	browserMu.Lock()
	defer browserMu.Unlock()

	if browser != nil {
		return nil
	}

	url, err := launcher.New().
		Leakless(true).
		Headless(true).
		Launch()
	if err != nil {
		return fmt.Errorf("browser launch failed: %w", err)
	}

	b := rod.New().ControlURL(url)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser connect failed: %w", err)
	}

	pool := make(chan *rod.Page, pagePoolSize)
	for i := 0; i < pagePoolSize; i++ {
		p, err := stealth.Page(b)
		if err != nil {
			_ = rod.Try(func() { b.MustClose() })
			return fmt.Errorf("stealth page: %w", err)
		}
		pool <- p
	}

	browser = b
	pagePool = pool
	return nil
}

func borrowPage(timeout time.Duration) (*rod.Page, error) {
	if err := ensureBrowser(); err != nil {
		return nil, err
	}

	select {
	case p := <-pagePool:
		return p, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for available page")
	}
}

func recyclePage(p *rod.Page) {
	select {
	case pagePool <- p:
		// recycled
	default:
		_ = safeClosePage(p)
	}
}

// Cleanup closes pooled pages and the browser instance. Safe to call
// when the browser never launched.
func Cleanup() {
	browserMu.Lock()
	defer browserMu.Unlock()

	if browser == nil {
		return
	}

	for {
		select {
		case p := <-pagePool:
			_ = safeClosePage(p)
		default:
			_ = rod.Try(func() { browser.MustClose() })
			browser = nil
			pagePool = nil
			return
		}
	}
}

func safeClosePage(p *rod.Page) error {
	return rod.Try(func() { p.MustClose() })
}
