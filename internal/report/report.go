package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"shrike/internal/domain"
)

type proxyRow struct {
	Rank         int
	Endpoint     string
	Latency      string
	LatencyClass string
	SuccessRate  string
}

type reportData struct {
	Fetched     int
	Tested      int
	Working     int
	TestTime    string
	Rows        []proxyRow
	Top         []proxyRow
	Judges      string
	GeneratedAt string
}

var reportTemplate = template.Must(template.New("report").Parse(reportHTML))

// Render produces the self-contained HTML report for a finished run.
func Render(summary domain.RunSummary) ([]byte, error) {
	data := reportData{
		Fetched:     summary.FetchedTotal,
		Tested:      summary.TestedTotal,
		Working:     summary.WorkingCount(),
		TestTime:    summary.StartedAt.Format(time.RFC3339),
		Judges:      strings.Join(summary.Judges, ", "),
		GeneratedAt: time.Now().Format("2006-01-02 15:04:05"),
	}

	judgeCount := len(summary.Judges)
	for i, result := range summary.Results {
		data.Rows = append(data.Rows, proxyRow{
			Rank:         i + 1,
			Endpoint:     result.Endpoint,
			Latency:      fmt.Sprintf("%.2f", result.ResponseTime),
			LatencyClass: latencyClass(result.ResponseTime),
			SuccessRate:  successRate(len(result.Checks), judgeCount),
		})
	}

	top := len(data.Rows)
	if top > 5 {
		top = 5
	}
	data.Top = data.Rows[:top]

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func latencyClass(seconds float64) string {
	switch {
	case seconds < 2:
		return "good"
	case seconds < 5:
		return "medium"
	default:
		return "poor"
	}
}

func successRate(checks, judges int) string {
	if judges == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", 100*float64(checks)/float64(judges))
}

const reportHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>SOCKS5 Proxy Test Report</title>
<style>
    body { font-family: Arial, sans-serif; margin: 20px; line-height: 1.6; }
    .summary { background: #f5f5f5; padding: 20px; border-radius: 5px; margin-bottom: 20px; }
    .summary h2 { margin-top: 0; }
    .stat { display: inline-block; margin-right: 20px; background: white; padding: 10px; border-radius: 3px; }
    .proxy-item { background: white; margin: 5px 0; padding: 10px; border-left: 4px solid #4CAF50; border-radius: 3px; }
    .latency { color: #666; font-size: 0.9em; }
    .good { color: #4CAF50; }
    .medium { color: #FF9800; }
    .poor { color: #F44336; }
    table { border-collapse: collapse; width: 100%; margin-top: 20px; }
    th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
    th { background-color: #f2f2f2; }
</style>
</head>
<body>
<h1>SOCKS5 Proxy Test Report</h1>

<div class="summary">
    <h2>Overview</h2>
    <div class="stat">Proxies fetched: {{.Fetched}}</div>
    <div class="stat">Proxies tested: {{.Tested}}</div>
    <div class="stat">Working proxies: <span class="good">{{.Working}}</span></div>
    <div class="stat">Test time: {{.TestTime}}</div>
</div>

<h2>Working Proxies</h2>
{{if .Rows}}
<table>
<tr><th>Rank</th><th>Proxy</th><th>Avg Latency (s)</th><th>Success Rate</th><th>Status</th></tr>
{{range .Rows}}
<tr>
    <td>#{{.Rank}}</td>
    <td>{{.Endpoint}}</td>
    <td class="{{.LatencyClass}}">{{.Latency}}</td>
    <td>{{.SuccessRate}}</td>
    <td class="good">OK</td>
</tr>
{{end}}
</table>

<h3>Top Proxies</h3>
{{range .Top}}
<div class="proxy-item">
    <strong>#{{.Rank}}: {{.Endpoint}}</strong>
    <div class="latency">Avg latency: {{.Latency}}s</div>
</div>
{{end}}
{{else}}
<p>No working proxies found.</p>
{{end}}

<hr>
<footer>
    <p><small>Judges: {{.Judges}}</small></p>
    <p><small>Generated: {{.GeneratedAt}}</small></p>
</footer>
</body>
</html>
`
