package config

import (
	"hash/fnv"
	"os"
	"strconv"
	"strings"
	"sync"
)

// FeatureFlags manages feature toggles.
// Supports gradual rollout by member ID and per-club targeting, so risky
// changes (new ranking surfaces, notification types) can be enabled for a
// handful of clubs before going wide.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Members are assigned based on hash of their ID
	RolloutPercent int

	// Club targeting; empty means all clubs
	TargetClubs []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	MemberID string
	ClubID   string
	IsAdmin  bool
}

// Predefined feature flag names.
const (
	// === Ranking Features ===
	FeatureRankingsCache    = "rankings.cache"    // Serve rankings from Redis
	FeatureRankingsWindowed = "rankings.windowed" // Period-based rankings (day/week/month/year)
	FeatureRankingsGroups   = "rankings.groups"   // Group-vs-group comparison

	// === Notification Features ===
	FeatureNotifyCompletion = "notify.completion" // Specialty completion notifications

	// === Award Features ===
	FeatureAwardsDirect = "awards.direct" // Director direct specialty awards
	FeatureAwardsBulk   = "awards.bulk"   // Bulk event point awards
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	ff := &FeatureFlags{
		features: make(map[string]*Feature),
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	defaults := []*Feature{
		{
			Name:           FeatureRankingsCache,
			Description:    "Serve cumulative rankings from the Redis cache",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureRankingsWindowed,
			Description:    "Allow day/week/month/year ranking windows",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureRankingsGroups,
			Description:    "Group comparison rankings by average points",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureNotifyCompletion,
			Description:    "Notify members when a specialty is completed",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureAwardsDirect,
			Description:    "Allow directors to award specialties directly",
			Enabled:        true,
			RolloutPercent: 100,
		},
		{
			Name:           FeatureAwardsBulk,
			Description:    "Allow bulk point awards for events",
			Enabled:        true,
			RolloutPercent: 100,
		},
	}

	for _, f := range defaults {
		ff.features[f.Name] = f
	}
}

// loadFromEnvironment applies environment variable overrides.
// FEATURE_RANKINGS_CACHE=false disables rankings.cache;
// FEATURE_RANKINGS_CACHE_ROLLOUT=25 sets a 25% rollout.
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		envName := "FEATURE_" + strings.ToUpper(strings.ReplaceAll(name, ".", "_"))

		if val := os.Getenv(envName); val != "" {
			if b, err := strconv.ParseBool(val); err == nil {
				feature.Enabled = b
			}
		}

		if val := os.Getenv(envName + "_ROLLOUT"); val != "" {
			if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
				feature.RolloutPercent = p
			}
		}

		if val := os.Getenv(envName + "_CLUBS"); val != "" {
			feature.TargetClubs = strings.Split(val, ",")
		}
	}
}

// IsEnabled reports whether a feature is globally enabled.
func (ff *FeatureFlags) IsEnabled(name string) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, exists := ff.features[name]
	return exists && feature.Enabled
}

// IsEnabledFor evaluates a feature flag for a specific context.
// Admins always see enabled features regardless of rollout.
func (ff *FeatureFlags) IsEnabledFor(name string, ctx FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, exists := ff.features[name]
	if !exists || !feature.Enabled {
		return false
	}

	if len(feature.TargetClubs) > 0 {
		found := false
		for _, club := range feature.TargetClubs {
			if strings.TrimSpace(club) == ctx.ClubID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if ctx.IsAdmin {
		return true
	}

	if feature.RolloutPercent >= 100 {
		return true
	}
	if feature.RolloutPercent <= 0 {
		return false
	}

	return bucketFor(ctx.MemberID) < feature.RolloutPercent
}

// SetEnabled toggles a feature at runtime.
func (ff *FeatureFlags) SetEnabled(name string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if feature, exists := ff.features[name]; exists {
		feature.Enabled = enabled
	}
}

// List returns a snapshot of all features.
func (ff *FeatureFlags) List() []Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	out := make([]Feature, 0, len(ff.features))
	for _, f := range ff.features {
		out = append(out, *f)
	}
	return out
}

// bucketFor maps a member ID to a stable 0-99 rollout bucket.
func bucketFor(memberID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(memberID))
	return int(h.Sum32() % 100)
}
