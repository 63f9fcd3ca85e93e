package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/clube-hub/club-progress-hub/internal/domain/member"
	"github.com/clube-hub/club-progress-hub/internal/domain/ranking"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD RANKINGS JOB
// ══════════════════════════════════════════════════════════════════════════════

// ClubDirectory lists club IDs from the organizational registry.
type ClubDirectory interface {
	ListClubIDs(ctx context.Context) ([]string, error)
}

// RebuildRankingsJob recomputes hot ranking scopes and warms the Redis cache,
// so interactive ranking reads rarely fall through to PostgreSQL.
// Only cumulative standings are warmed: windowed rankings use arbitrary
// windows and are computed on demand.
type RebuildRankingsJob struct {
	reader ranking.Reader
	cache  ranking.Cache
	clubs  ClubDirectory
	logger *slog.Logger

	config RebuildRankingsConfig

	lastStats atomic.Value // *RebuildRankingsStats
}

// RebuildRankingsConfig contains configuration for the rebuild job.
type RebuildRankingsConfig struct {
	// CacheTTL is the TTL for warmed standings. Should exceed the rebuild
	// interval so entries do not expire between runs.
	CacheTTL time.Duration

	// Timeout is the maximum duration for the rebuild operation.
	Timeout time.Duration
}

// DefaultRebuildRankingsConfig returns sensible defaults.
func DefaultRebuildRankingsConfig() RebuildRankingsConfig {
	return RebuildRankingsConfig{
		CacheTTL: 10 * time.Minute,
		Timeout:  5 * time.Minute,
	}
}

// RebuildRankingsStats contains statistics from a rebuild run.
type RebuildRankingsStats struct {
	StartedAt      time.Time
	CompletedAt    time.Time
	Duration       time.Duration
	ScopesRebuilt  int
	EntriesWritten int
	Errors         []error
}

// NewRebuildRankingsJob creates a new rebuild rankings job.
func NewRebuildRankingsJob(
	reader ranking.Reader,
	cache ranking.Cache,
	clubs ClubDirectory,
	logger *slog.Logger,
	config RebuildRankingsConfig,
) *RebuildRankingsJob {
	if logger == nil {
		logger = slog.Default()
	}

	return &RebuildRankingsJob{
		reader: reader,
		cache:  cache,
		clubs:  clubs,
		logger: logger,
		config: config,
	}
}

// Name returns the job name.
func (j *RebuildRankingsJob) Name() string {
	return "rebuild_rankings"
}

// Description returns a human-readable description.
func (j *RebuildRankingsJob) Description() string {
	return "Recomputes global and per-club rankings and warms the Redis cache"
}

// brackets covered for every warmed scope: combined plus both age groups.
var warmedBrackets = []member.AgeBracket{"", member.BracketJunior, member.BracketSenior}

// Run executes the rebuild job.
func (j *RebuildRankingsJob) Run(ctx context.Context) error {
	startedAt := time.Now()
	stats := &RebuildRankingsStats{
		StartedAt: startedAt,
		Errors:    make([]error, 0),
	}

	j.logger.Info("starting rebuild_rankings job")

	if j.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.config.Timeout)
		defer cancel()
	}

	// Global scope first, then every club from the registry.
	j.rebuildScope(ctx, ranking.ScopeGlobal, "", stats)

	clubIDs, err := j.clubs.ListClubIDs(ctx)
	if err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Error("failed to list clubs", "error", err)
	} else {
		for _, clubID := range clubIDs {
			if ctx.Err() != nil {
				stats.Errors = append(stats.Errors, ctx.Err())
				break
			}
			j.rebuildScope(ctx, ranking.ScopeClub, clubID, stats)
		}
	}

	stats.CompletedAt = time.Now()
	stats.Duration = stats.CompletedAt.Sub(startedAt)
	j.lastStats.Store(stats)

	j.logger.Info("rebuild_rankings job completed",
		"duration", stats.Duration.String(),
		"scopes_rebuilt", stats.ScopesRebuilt,
		"entries_written", stats.EntriesWritten,
		"errors", len(stats.Errors),
	)

	if len(stats.Errors) > 0 {
		return fmt.Errorf("rebuild completed with %d errors", len(stats.Errors))
	}

	return nil
}

// rebuildScope recomputes one scope across all brackets and caches the result.
// Members are fetched once per scope; Compute filters per bracket.
func (j *RebuildRankingsJob) rebuildScope(ctx context.Context, scope ranking.Scope, scopeID string, stats *RebuildRankingsStats) {
	rows, err := j.reader.MembersInScope(ctx, scope, scopeID)
	if err != nil {
		stats.Errors = append(stats.Errors, err)
		j.logger.Error("failed to read scope members",
			"scope", string(scope),
			"scope_id", scopeID,
			"error", err,
		)
		return
	}

	now := time.Now().UTC()
	for _, bracket := range warmedBrackets {
		standings := ranking.Compute(ranking.Params{
			Scope:   scope,
			ScopeID: scopeID,
			Bracket: bracket,
		}, rows, now)

		if err := j.cache.PutStandings(ctx, standings, bracket, j.config.CacheTTL); err != nil {
			stats.Errors = append(stats.Errors, err)
			j.logger.Warn("failed to cache standings",
				"scope", string(scope),
				"scope_id", scopeID,
				"bracket", string(bracket),
				"error", err,
			)
			continue
		}
		stats.EntriesWritten += len(standings.Entries)
	}

	stats.ScopesRebuilt++
}

// LastStats returns statistics from the last rebuild.
func (j *RebuildRankingsJob) LastStats() *RebuildRankingsStats {
	stats := j.lastStats.Load()
	if stats == nil {
		return nil
	}
	return stats.(*RebuildRankingsStats)
}
