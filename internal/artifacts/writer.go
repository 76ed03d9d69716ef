package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"shrike/internal/config"
	"shrike/internal/domain"
	"shrike/internal/report"
)

// Writer persists the run artifacts under the output directory. Unlike
// source and candidate failures these errors are fatal: a run whose
// results never land on disk has produced nothing.
type Writer struct {
	cfg config.Config
}

func New(cfg config.Config) *Writer {
	return &Writer{cfg: cfg}
}

type resultsRecord struct {
	TestTime            string               `json:"test_time"`
	TotalProxiesFetched int                  `json:"total_proxies_fetched"`
	TotalProxiesTested  int                  `json:"total_proxies_tested"`
	WorkingProxiesCount int                  `json:"working_proxies_count"`
	TestWebsites        []string             `json:"test_websites"`
	Results             []domain.CheckResult `json:"results"`
}

// WriteAll persists every artifact of a finished run. A run without a
// single working proxy still writes the full set so stale files from
// the previous run cannot masquerade as fresh results.
func (writer *Writer) WriteAll(summary domain.RunSummary) error {
	if err := os.MkdirAll(writer.cfg.Output.Dir, os.ModePerm); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := writer.writeResults(summary); err != nil {
		return err
	}
	if err := writer.writeList(summary); err != nil {
		return err
	}
	if err := writer.writeBest(summary); err != nil {
		return err
	}
	return writer.writeReport(summary)
}

func (writer *Writer) writeResults(summary domain.RunSummary) error {
	results := summary.Results
	if results == nil {
		results = []domain.CheckResult{}
	}

	record := resultsRecord{
		TestTime:            summary.StartedAt.Format(time.RFC3339),
		TotalProxiesFetched: summary.FetchedTotal,
		TotalProxiesTested:  summary.TestedTotal,
		WorkingProxiesCount: summary.WorkingCount(),
		TestWebsites:        summary.Judges,
		Results:             results,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}

	if err := os.WriteFile(writer.cfg.ResultsPath(), data, os.ModePerm); err != nil {
		return fmt.Errorf("write results file: %w", err)
	}
	return nil
}

func (writer *Writer) writeList(summary domain.RunSummary) error {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Generated: %s\n", time.Now().Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("# Proxies fetched: %d\n", summary.FetchedTotal))
	sb.WriteString(fmt.Sprintf("# Working proxies: %d\n", summary.WorkingCount()))
	sb.WriteString("# Format: ip:port\n")

	for _, result := range summary.Results {
		sb.WriteString(result.Endpoint)
		sb.WriteByte('\n')
	}

	if err := os.WriteFile(writer.cfg.ListPath(), []byte(sb.String()), os.ModePerm); err != nil {
		return fmt.Errorf("write proxy list file: %w", err)
	}
	return nil
}

func (writer *Writer) writeBest(summary domain.RunSummary) error {
	content := ""
	if best, ok := summary.Best(); ok {
		content = best.Endpoint + "\n"
	}

	// An empty run truncates the file; a best that just died must not
	// survive into the next run's fast path.
	if err := os.WriteFile(writer.cfg.BestPath(), []byte(content), os.ModePerm); err != nil {
		return fmt.Errorf("write best proxy file: %w", err)
	}
	return nil
}

func (writer *Writer) writeReport(summary domain.RunSummary) error {
	html, err := report.Render(summary)
	if err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	if err := os.WriteFile(writer.cfg.ReportPath(), html, os.ModePerm); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}
