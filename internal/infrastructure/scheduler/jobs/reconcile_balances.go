// Package jobs contains implementations of scheduled jobs for Club Progress Hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/application/command"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE BALANCES JOB
// ══════════════════════════════════════════════════════════════════════════════

// MemberDirectory lists member IDs for full-sweep jobs.
type MemberDirectory interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// ReconcileBalancesJob verifies every member's cached points balance against
// the ledger sum. The ledger is the source of truth: any drift is a data
// integrity fault, so the cache is corrected and the drift is logged loudly.
type ReconcileBalancesJob struct {
	members   MemberDirectory
	recompute *command.RecomputeBalanceHandler
	logger    *slog.Logger

	config ReconcileBalancesConfig

	lastStats atomic.Value // *ReconcileStats
}

// ReconcileBalancesConfig contains configuration for the reconcile job.
type ReconcileBalancesConfig struct {
	// Timeout is the maximum duration for a full sweep.
	Timeout time.Duration

	// PauseBetweenMembers throttles the sweep to keep load off the pool.
	PauseBetweenMembers time.Duration
}

// DefaultReconcileBalancesConfig returns sensible defaults.
func DefaultReconcileBalancesConfig() ReconcileBalancesConfig {
	return ReconcileBalancesConfig{
		Timeout:             10 * time.Minute,
		PauseBetweenMembers: 10 * time.Millisecond,
	}
}

// ReconcileStats contains statistics from a reconcile sweep.
type ReconcileStats struct {
	StartedAt      time.Time
	CompletedAt    time.Time
	Duration       time.Duration
	MembersChecked int
	DriftsFound    int
	Errors         []error
}

// NewReconcileBalancesJob creates a new reconcile balances job.
func NewReconcileBalancesJob(
	members MemberDirectory,
	recompute *command.RecomputeBalanceHandler,
	logger *slog.Logger,
	config ReconcileBalancesConfig,
) *ReconcileBalancesJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &ReconcileBalancesJob{
		members:   members,
		recompute: recompute,
		logger:    logger,
		config:    config,
	}
}

// Name returns the job name.
func (j *ReconcileBalancesJob) Name() string {
	return "reconcile_balances"
}

// Description returns a human-readable description.
func (j *ReconcileBalancesJob) Description() string {
	return "Verifies cached points balances against the ledger and corrects drift"
}

// Run executes the reconcile sweep.
func (j *ReconcileBalancesJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &ReconcileStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting reconcile_balances job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	ids, err := j.members.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list members: %w", err)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			stats.Errors = append(stats.Errors, ctx.Err())
			break
		}

		result, err := j.recompute.Handle(ctx, id)
		if err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Error("failed to reconcile balance",
				"member_id", id,
				"error", err,
			)
			continue
		}

		stats.MembersChecked++
		if result.Drifted {
			stats.DriftsFound++
			j.logger.Error("balance drift corrected",
				"member_id", id,
				"cached_balance", result.CachedBalance,
				"actual_balance", result.ActualBalance,
			)
		}

		if j.config.PauseBetweenMembers > 0 {
			time.Sleep(j.config.PauseBetweenMembers)
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastStats.Store(stats)

	j.logger.Info("reconcile_balances job completed",
		"duration", stats.Duration.String(),
		"members_checked", stats.MembersChecked,
		"drifts_found", stats.DriftsFound,
		"errors", len(stats.Errors),
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("reconcile completed with %d errors", len(stats.Errors))
	}

	return nil
}

// LastStats returns statistics from the last sweep.
func (j *ReconcileBalancesJob) LastStats() *ReconcileStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*ReconcileStats)
}
