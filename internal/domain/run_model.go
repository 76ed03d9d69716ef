package domain

import "time"

// RunSummary is everything a finished run hands to persistence. Results
// are ranked ascending by response time before the summary is built.
type RunSummary struct {
	StartedAt      time.Time
	Duration       time.Duration
	FetchedTotal   int // raw candidates seen across all sources, pre-dedupe
	TestedTotal    int // candidates handed to validation
	MalformedTotal int
	SourceFailures int
	ReferenceIP    string // empty when the lookup failed
	FastPath       bool
	Judges         []string
	Results        []CheckResult
}

func (summary *RunSummary) WorkingCount() int {
	return len(summary.Results)
}

func (summary *RunSummary) Best() (CheckResult, bool) {
	if len(summary.Results) == 0 {
		return CheckResult{}, false
	}
	return summary.Results[0], true
}

// Run and RunProxy are the archive rows written when a postgres
// connection is configured.
type Run struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	StartedAt      time.Time `gorm:"not null;index"`
	DurationMs     int64     `gorm:"not null"`
	FetchedTotal   int       `gorm:"not null"`
	TestedTotal    int       `gorm:"not null"`
	WorkingTotal   int       `gorm:"not null"`
	SourceFailures int       `gorm:"not null"`
	ReferenceIP    string    `gorm:"size:45"`
	FastPath       bool      `gorm:"not null"`

	Proxies []RunProxy `gorm:"foreignKey:RunID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type RunProxy struct {
	ID           uint64  `gorm:"primaryKey;autoIncrement"`
	RunID        uint64  `gorm:"not null;index"`
	Endpoint     string  `gorm:"size:128;not null"`
	ExitIP       string  `gorm:"size:45"`
	ResponseTime float64 `gorm:"not null"`
	Rank         int     `gorm:"not null"`
}
