package config

import (
	"hash/fnv"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// FeatureFlags manages feature toggles.
// Supports gradual rollout by user hash, per-user overrides and time windows.
type FeatureFlags struct {
	mu sync.RWMutex

	features map[string]*Feature

	// Override rules (for testing/debugging)
	userOverrides map[string]map[string]bool // userID -> feature -> enabled

	clock clockwork.Clock
}

// Feature represents a single feature flag.
type Feature struct {
	Name        string
	Description string
	Enabled     bool

	// Rollout percentage (0-100)
	// Users are assigned based on hash of their ID
	RolloutPercent int

	// Kinds restricts the flag to some record kinds ("comment", "like",
	// "subscription"). Empty means all kinds.
	Kinds []string

	// Time-based activation
	EnabledFrom  *time.Time
	EnabledUntil *time.Time

	// A/B test variant (for experiments)
	Variants []string
}

// FeatureContext provides context for feature flag evaluation.
type FeatureContext struct {
	UserID  string
	Kind    string
	IsAdmin bool
}

// Predefined feature flag names.
const (
	// === Moderation ===
	FeatureSpamReview      = "moderation.spam_review"   // Queue spam-flagged comments for review
	FeatureModerationQueue = "moderation.queue"         // Track every flagged comment
	FeatureEventJournal    = "moderation.event_journal" // Write domain events as JSON lines

	// === Projections ===
	FeatureRedisProjection = "projection.redis"     // Publish rankings to Redis
	FeatureArchiveSink     = "projection.archive"   // Archive views in PostgreSQL
	FeatureTopFromCache    = "projection.top_cache" // Serve top comments from Redis

	// === Export ===
	FeatureExportPseudonymize = "export.pseudonymize" // Hash user ids in archived views
)

// LoadFeatureFlags loads feature flags from environment variables.
func LoadFeatureFlags() *FeatureFlags {
	return NewFeatureFlags(clockwork.NewRealClock())
}

// NewFeatureFlags creates the registry with defaults and environment
// overrides, evaluating time windows against clock.
func NewFeatureFlags(clock clockwork.Clock) *FeatureFlags {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ff := &FeatureFlags{
		features:      make(map[string]*Feature),
		userOverrides: make(map[string]map[string]bool),
		clock:         clock,
	}

	ff.initializeDefaults()
	ff.loadFromEnvironment()

	return ff
}

// initializeDefaults sets up all features with default values.
func (ff *FeatureFlags) initializeDefaults() {
	ff.features[FeatureSpamReview] = &Feature{
		Name:           FeatureSpamReview,
		Description:    "Queue spam-flagged comments for manual review",
		Enabled:        true,
		RolloutPercent: 100,
		Kinds:          []string{"comment"},
	}

	ff.features[FeatureModerationQueue] = &Feature{
		Name:           FeatureModerationQueue,
		Description:    "Track flagged comments until they are cleared",
		Enabled:        true,
		RolloutPercent: 100,
		Kinds:          []string{"comment"},
	}

	ff.features[FeatureEventJournal] = &Feature{
		Name:           FeatureEventJournal,
		Description:    "Write every domain event to the journal",
		Enabled:        false,
		RolloutPercent: 0,
	}

	// Sinks are also gated by their connection settings.
	ff.features[FeatureRedisProjection] = &Feature{
		Name:           FeatureRedisProjection,
		Description:    "Publish comment ranking, daily activity and summary to Redis",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureArchiveSink] = &Feature{
		Name:           FeatureArchiveSink,
		Description:    "Upsert exported views into the PostgreSQL archive",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureTopFromCache] = &Feature{
		Name:           FeatureTopFromCache,
		Description:    "Read top comments from the Redis ranking before the store",
		Enabled:        true,
		RolloutPercent: 100,
	}

	ff.features[FeatureExportPseudonymize] = &Feature{
		Name:           FeatureExportPseudonymize,
		Description:    "Replace user ids with keyed hashes in archived views",
		Enabled:        true,
		RolloutPercent: 100,
	}
}

// loadFromEnvironment loads feature flag overrides from env vars.
// Format: FEATURE_<NAME>=true|false|<percent>
// Example: FEATURE_PROJECTION_REDIS=false
// Example: FEATURE_MODERATION_SPAM_REVIEW=50 (50% rollout)
func (ff *FeatureFlags) loadFromEnvironment() {
	for name, feature := range ff.features {
		val := os.Getenv(featureNameToEnvKey(name))
		if val == "" {
			continue
		}

		if b, err := strconv.ParseBool(val); err == nil {
			feature.Enabled = b
			if b {
				feature.RolloutPercent = 100
			} else {
				feature.RolloutPercent = 0
			}
			continue
		}

		if p, err := strconv.Atoi(val); err == nil && p >= 0 && p <= 100 {
			feature.Enabled = p > 0
			feature.RolloutPercent = p
		}
	}
}

// featureNameToEnvKey converts feature name to environment variable key.
// "projection.redis" -> "FEATURE_PROJECTION_REDIS"
func featureNameToEnvKey(name string) string {
	key := strings.ToUpper(name)
	key = strings.ReplaceAll(key, ".", "_")
	return "FEATURE_" + key
}

// IsEnabled checks if a feature is enabled for the given context.
// A nil context asks about the feature globally.
func (ff *FeatureFlags) IsEnabled(featureName string, ctx *FeatureContext) bool {
	ff.mu.RLock()
	defer ff.mu.RUnlock()
	return ff.isEnabled(featureName, ctx)
}

func (ff *FeatureFlags) isEnabled(featureName string, ctx *FeatureContext) bool {
	if ctx != nil && ctx.UserID != "" {
		if overrides, ok := ff.userOverrides[ctx.UserID]; ok {
			if enabled, ok := overrides[featureName]; ok {
				return enabled
			}
		}
	}

	feature, ok := ff.features[featureName]
	if !ok {
		return false
	}

	if ctx != nil && ctx.IsAdmin {
		return true
	}

	if !feature.Enabled {
		return false
	}

	now := ff.clock.Now()
	if feature.EnabledFrom != nil && now.Before(*feature.EnabledFrom) {
		return false
	}
	if feature.EnabledUntil != nil && now.After(*feature.EnabledUntil) {
		return false
	}

	if len(feature.Kinds) > 0 && ctx != nil && ctx.Kind != "" && !slices.Contains(feature.Kinds, ctx.Kind) {
		return false
	}

	if feature.RolloutPercent < 100 && ctx != nil && ctx.UserID != "" {
		return isInRollout(ctx.UserID, featureName, feature.RolloutPercent)
	}

	return feature.RolloutPercent > 0
}

// isInRollout determines if a user is in the rollout percentage.
// Uses consistent hashing so users stay in their bucket.
func isInRollout(userID, featureName string, percent int) bool {
	h := fnv.New32a()
	h.Write([]byte(featureName))
	h.Write([]byte(userID))

	return int(h.Sum32()%100) < percent
}

// GetVariant returns the A/B test variant for a user.
// Returns empty string if no variants defined or feature disabled.
func (ff *FeatureFlags) GetVariant(featureName string, ctx *FeatureContext) string {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	feature, ok := ff.features[featureName]
	if !ok || ctx == nil || len(feature.Variants) == 0 || !ff.isEnabled(featureName, ctx) {
		return ""
	}

	h := fnv.New32a()
	h.Write([]byte(featureName + "_variant"))
	h.Write([]byte(ctx.UserID))

	return feature.Variants[int(h.Sum32()%uint32(len(feature.Variants)))]
}

// SetUserOverride sets a feature override for a specific user.
func (ff *FeatureFlags) SetUserOverride(userID, featureName string, enabled bool) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if _, ok := ff.userOverrides[userID]; !ok {
		ff.userOverrides[userID] = make(map[string]bool)
	}
	ff.userOverrides[userID][featureName] = enabled
}

// ClearUserOverrides removes all overrides for a user.
func (ff *FeatureFlags) ClearUserOverrides(userID string) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	delete(ff.userOverrides, userID)
}

// SetRolloutPercent updates the rollout percentage for a feature.
func (ff *FeatureFlags) SetRolloutPercent(featureName string, percent int) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}

	if percent < 0 || percent > 100 {
		return ErrInvalidRolloutPercent
	}

	feature.RolloutPercent = percent
	feature.Enabled = percent > 0

	return nil
}

// SetWindow limits a feature to [from, until]. Nil bounds are open.
func (ff *FeatureFlags) SetWindow(featureName string, from, until *time.Time) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	feature.EnabledFrom = from
	feature.EnabledUntil = until
	return nil
}

// SetVariants replaces the experiment variants of a feature.
func (ff *FeatureFlags) SetVariants(featureName string, variants ...string) error {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	feature, ok := ff.features[featureName]
	if !ok {
		return ErrFeatureNotFound
	}
	feature.Variants = slices.Clone(variants)
	return nil
}

// EnableFeature enables a feature at 100% rollout.
func (ff *FeatureFlags) EnableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 100)
}

// DisableFeature disables a feature completely.
func (ff *FeatureFlags) DisableFeature(featureName string) error {
	return ff.SetRolloutPercent(featureName, 0)
}

// GetAllFeatures returns a copy of all feature configurations.
func (ff *FeatureFlags) GetAllFeatures() map[string]*Feature {
	ff.mu.RLock()
	defer ff.mu.RUnlock()

	result := make(map[string]*Feature, len(ff.features))
	for k, v := range ff.features {
		featureCopy := *v
		featureCopy.Kinds = slices.Clone(v.Kinds)
		featureCopy.Variants = slices.Clone(v.Variants)
		result[k] = &featureCopy
	}
	return result
}

// --- Convenience methods for common checks ---

// ProjectionsEnabled checks if any external sink may be written.
func (ff *FeatureFlags) ProjectionsEnabled() bool {
	return ff.IsEnabled(FeatureRedisProjection, nil) ||
		ff.IsEnabled(FeatureArchiveSink, nil)
}

// --- Errors ---

var (
	ErrFeatureNotFound       = &FeatureFlagError{Message: "feature not found"}
	ErrInvalidRolloutPercent = &FeatureFlagError{Message: "rollout percent must be 0-100"}
)

// FeatureFlagError represents a feature flag error.
type FeatureFlagError struct {
	Message string
}

func (e *FeatureFlagError) Error() string {
	return e.Message
}
