package artifacts

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shrike/internal/config"
	"shrike/internal/domain"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()

	var cfg config.Config
	cfg.Output.Dir = t.TempDir()
	cfg.Output.ResultsFile = "proxy_results.json"
	cfg.Output.ListFile = "available_proxies.txt"
	cfg.Output.BestFile = "BEST_SOCKS5.txt"
	cfg.Output.ReportFile = "proxy_report.html"
	return cfg
}

func TestWriteAllPersistsEveryArtifact(t *testing.T) {
	cfg := testConfig(t)

	summary := domain.RunSummary{
		StartedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		FetchedTotal: 150,
		TestedTotal:  100,
		Judges:       []string{"https://icanhazip.com"},
		Results: []domain.CheckResult{
			{
				Endpoint:     "10.0.0.1:1080",
				ExitIP:       "203.0.113.9",
				ResponseTime: 0.42,
				Checks: []domain.JudgeCheck{
					{Website: "https://icanhazip.com", StatusCode: 200, ResponseTime: 0.42},
				},
				CheckedAt: time.Date(2025, 6, 1, 12, 0, 5, 0, time.UTC),
			},
			{
				Endpoint:     "10.0.0.2:1080",
				ExitIP:       "198.51.100.4",
				ResponseTime: 1.80,
			},
		},
	}

	if err := New(cfg).WriteAll(summary); err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}

	raw, err := os.ReadFile(cfg.ResultsPath())
	if err != nil {
		t.Fatalf("read results file: %v", err)
	}

	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		t.Fatalf("results file is not valid JSON: %v", err)
	}
	for key, want := range map[string]float64{
		"total_proxies_fetched": 150,
		"total_proxies_tested":  100,
		"working_proxies_count": 2,
	} {
		if got, ok := record[key].(float64); !ok || got != want {
			t.Fatalf("results %s = %v, want %v", key, record[key], want)
		}
	}
	if _, ok := record["test_time"].(string); !ok {
		t.Fatal("results file is missing test_time")
	}

	list, err := os.ReadFile(cfg.ListPath())
	if err != nil {
		t.Fatalf("read list file: %v", err)
	}
	text := string(list)
	if !strings.HasPrefix(text, "# Generated:") {
		t.Fatalf("list file is missing the header block:\n%s", text)
	}
	if !strings.Contains(text, "10.0.0.1:1080\n") || !strings.Contains(text, "10.0.0.2:1080\n") {
		t.Fatalf("list file is missing endpoints:\n%s", text)
	}

	best, err := os.ReadFile(cfg.BestPath())
	if err != nil {
		t.Fatalf("read best file: %v", err)
	}
	if strings.TrimSpace(string(best)) != "10.0.0.1:1080" {
		t.Fatalf("best file contains %q, want the top-ranked endpoint", best)
	}

	page, err := os.ReadFile(cfg.ReportPath())
	if err != nil {
		t.Fatalf("read report file: %v", err)
	}
	if !strings.Contains(string(page), "10.0.0.1:1080") {
		t.Fatal("report is missing the top-ranked endpoint")
	}
}

func TestWriteAllEmptyRun(t *testing.T) {
	cfg := testConfig(t)

	// A stale best from the previous run must not survive an empty one.
	if err := os.WriteFile(cfg.BestPath(), []byte("10.9.9.9:1080\n"), 0o644); err != nil {
		t.Fatalf("seed stale best file: %v", err)
	}

	summary := domain.RunSummary{
		StartedAt:    time.Now(),
		FetchedTotal: 80,
		TestedTotal:  80,
		Judges:       []string{"https://icanhazip.com"},
	}

	if err := New(cfg).WriteAll(summary); err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}

	raw, err := os.ReadFile(cfg.ResultsPath())
	if err != nil {
		t.Fatalf("read results file: %v", err)
	}
	if !strings.Contains(string(raw), `"results": []`) {
		t.Fatalf("empty run must serialize an empty results array:\n%s", raw)
	}

	best, err := os.ReadFile(cfg.BestPath())
	if err != nil {
		t.Fatalf("read best file: %v", err)
	}
	if len(best) != 0 {
		t.Fatalf("best file contains %q after an empty run, want truncated", best)
	}

	list, err := os.ReadFile(cfg.ListPath())
	if err != nil {
		t.Fatalf("read list file: %v", err)
	}
	if !strings.Contains(string(list), "# Working proxies: 0") {
		t.Fatalf("list header does not report zero working proxies:\n%s", list)
	}
}

func TestWriteAllCreatesOutputDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Dir = filepath.Join(cfg.Output.Dir, "nested", "deeper")

	if err := New(cfg).WriteAll(domain.RunSummary{StartedAt: time.Now()}); err != nil {
		t.Fatalf("WriteAll returned error: %v", err)
	}

	if _, err := os.Stat(cfg.ResultsPath()); err != nil {
		t.Fatalf("results file was not created under the nested dir: %v", err)
	}
}
