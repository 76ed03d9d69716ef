package database

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"shrike/internal/domain"
)

// ArchiveRun stores one finished run together with its ranked proxies.
// Archive failures are the caller's to log; they never fail the run.
func ArchiveRun(db *gorm.DB, summary domain.RunSummary) error {
	if db == nil {
		return errors.New("archive database is not connected")
	}

	run := buildRunRecord(summary)
	if err := db.Create(&run).Error; err != nil {
		return fmt.Errorf("archive run: %w", err)
	}
	return nil
}

// PruneArchive deletes all but the newest keep runs. Their proxies go
// with them through the cascade constraint. Zero disables pruning.
func PruneArchive(db *gorm.DB, keep int) error {
	if keep <= 0 {
		return nil
	}
	if db == nil {
		return errors.New("archive database is not connected")
	}

	var ids []uint64
	if err := db.Model(&domain.Run{}).
		Order("started_at DESC").
		Limit(keep).
		Pluck("id", &ids).Error; err != nil {
		return fmt.Errorf("prune archive: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	result := db.Where("id NOT IN ?", ids).Delete(&domain.Run{})
	if result.Error != nil {
		return fmt.Errorf("prune archive: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Debug("Pruned archived runs", "deleted", result.RowsAffected, "kept", keep)
	}
	return nil
}

func buildRunRecord(summary domain.RunSummary) domain.Run {
	run := domain.Run{
		StartedAt:      summary.StartedAt,
		DurationMs:     summary.Duration.Milliseconds(),
		FetchedTotal:   summary.FetchedTotal,
		TestedTotal:    summary.TestedTotal,
		WorkingTotal:   summary.WorkingCount(),
		SourceFailures: summary.SourceFailures,
		ReferenceIP:    summary.ReferenceIP,
		FastPath:       summary.FastPath,
	}

	for i, result := range summary.Results {
		run.Proxies = append(run.Proxies, domain.RunProxy{
			Endpoint:     result.Endpoint,
			ExitIP:       result.ExitIP,
			ResponseTime: result.ResponseTime,
			Rank:         i + 1,
		})
	}

	return run
}
