package pipeline

import (
	"sort"

	"shrike/internal/domain"
)

// RankResults orders results ascending by mean response time. The sort
// is stable so equal latencies keep their dispatch order.
func RankResults(results []domain.CheckResult) []domain.CheckResult {
	ranked := make([]domain.CheckResult, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ResponseTime < ranked[j].ResponseTime
	})

	return ranked
}
