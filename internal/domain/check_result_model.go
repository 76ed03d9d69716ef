package domain

import "time"

// JudgeCheck is one echo probe inside a candidate validation.
type JudgeCheck struct {
	Website      string  `json:"website"`
	StatusCode   int     `json:"status_code"`
	ResponseTime float64 `json:"response_time"`
}

// CheckResult records a candidate that passed validation. A result is
// written once by the worker that produced it and never mutated after.
// ResponseTime is the mean across checks, in seconds.
type CheckResult struct {
	Proxy        Proxy        `json:"-"`
	Endpoint     string       `json:"proxy"`
	ExitIP       string       `json:"exit_ip"`
	ResponseTime float64      `json:"response_time"`
	Checks       []JudgeCheck `json:"checks"`
	CheckedAt    time.Time    `json:"timestamp"`
}
