package query

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/internal/domain/shared"
	"github.com/alem-hub/interaction-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET REPORT QUERY
// Builds one report section from a fresh snapshot of the store.
// ══════════════════════════════════════════════════════════════════════════════

// Report sections.
const (
	SectionOverview      = "overview"
	SectionComments      = "comments"
	SectionLikes         = "likes"
	SectionSubscriptions = "subscriptions"
	SectionFull          = "full"
	SectionSummary       = "summary"
	SectionUser          = "user"
	SectionActivity      = "activity"
	SectionHashtags      = "hashtags"
	SectionSearch        = "search"
	SectionFlagged       = "flagged"
	SectionControversial = "controversial"
	SectionScoreClasses  = "score-classes"
)

// Sections lists every report section in display order.
func Sections() []string {
	return []string{
		SectionOverview, SectionComments, SectionLikes, SectionSubscriptions,
		SectionFull, SectionSummary, SectionUser, SectionActivity, SectionHashtags,
		SectionSearch, SectionFlagged, SectionControversial, SectionScoreClasses,
	}
}

// GetReportQuery selects a report section and its parameters.
type GetReportQuery struct {
	Section string

	// UserID is required for the user section.
	UserID string

	// Keyword is required for the search section.
	Keyword string

	// Days is the activity window; 0 means 7.
	Days int

	// Limit caps ranked lists; 0 means 10.
	Limit int

	// TargetType selects the controversial targets; empty means video.
	TargetType string

	IncludeDeleted bool
}

// Validate checks the query parameters.
func (q *GetReportQuery) Validate() error {
	known := false
	for _, s := range Sections() {
		if q.Section == s {
			known = true
			break
		}
	}
	if !known {
		return fmt.Errorf("unknown section %q", q.Section)
	}
	if q.Days < 0 || q.Limit < 0 {
		return fmt.Errorf("days and limit cannot be negative")
	}
	if q.Section == SectionUser && q.UserID == "" {
		return fmt.Errorf("user section requires a user id")
	}
	if q.Section == SectionSearch && q.Keyword == "" {
		return fmt.Errorf("search section requires a keyword")
	}
	if q.TargetType != "" && !interaction.TargetType(q.TargetType).IsValid() {
		return fmt.Errorf("unknown target type %q", q.TargetType)
	}
	return nil
}

// GetReportResult carries one rendered section.
type GetReportResult struct {
	Section     string    `json:"section"`
	GeneratedAt time.Time `json:"generated_at"`
	Data        any       `json:"data"`
}

// GetReportHandler builds report sections.
type GetReportHandler struct {
	repo     interaction.Repository
	clock    clockwork.Clock
	location *time.Location
}

// NewGetReportHandler creates a new GetReportHandler. A nil clock uses the
// real clock and a nil location uses UTC.
func NewGetReportHandler(repo interaction.Repository, clock clockwork.Clock, location *time.Location) *GetReportHandler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if location == nil {
		location = time.UTC
	}
	return &GetReportHandler{repo: repo, clock: clock, location: location}
}

// Handle builds the requested section.
func (h *GetReportHandler) Handle(ctx context.Context, query GetReportQuery) (*GetReportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetReport", shared.ErrValidation, err.Error(), err)
	}

	opts := []Option{WithClock(h.clock), WithLocation(h.location)}
	if query.IncludeDeleted {
		opts = append(opts, IncludeDeleted())
	}
	records := h.repo.Snapshot()
	reports := NewReportEngine(records, opts...)

	days := query.Days
	if days == 0 {
		days = 7
	}
	n := query.Limit
	if n == 0 {
		n = 10
	}
	targetType := interaction.TargetVideo
	if query.TargetType != "" {
		targetType = interaction.TargetType(query.TargetType)
	}

	var data any
	switch query.Section {
	case SectionOverview:
		data = reports.GeneralOverview()
	case SectionComments:
		data = reports.CommentOverview()
	case SectionLikes:
		data = reports.LikeOverview()
	case SectionSubscriptions:
		data = reports.SubscriptionOverview()
	case SectionFull:
		data = reports.FullReport()
	case SectionSummary:
		data = NewStatisticsEngine(records, opts...).GenerateSummary()
	case SectionUser:
		data = reports.InteractionsByUser(interaction.UserID(query.UserID))
	case SectionActivity:
		data = reports.DailyActivityMap(days)
	case SectionHashtags:
		data = reports.TopHashtags(n)
	case SectionSearch:
		data = limit(reports.SearchComments(query.Keyword), n)
	case SectionFlagged:
		data = reports.FlaggedComments()
	case SectionControversial:
		data = reports.ControversialTargets(targetType)
	case SectionScoreClasses:
		data = reports.ClassifyCommentsByScore()
	}

	return &GetReportResult{
		Section:     query.Section,
		GeneratedAt: h.clock.Now(),
		Data:        data,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GET TOP COMMENTS QUERY
// Reads the published ranking from the cache and falls back to computing it
// from the store when the cache is unavailable or empty.
// ══════════════════════════════════════════════════════════════════════════════

// Sources of a top comments result.
const (
	SourceCache = "cache"
	SourceStore = "store"
)

// GetTopCommentsQuery asks for the best ranked comments.
type GetTopCommentsQuery struct {
	Limit int
}

// Validate checks the query parameters.
func (q *GetTopCommentsQuery) Validate() error {
	if q.Limit < 1 || q.Limit > 100 {
		return fmt.Errorf("limit must be between 1 and 100")
	}
	return nil
}

// GetTopCommentsResult lists comment views, best first.
type GetTopCommentsResult struct {
	Comments []interaction.View `json:"comments"`
	Source   string             `json:"source"`
}

// GetTopCommentsHandler serves the comment ranking.
type GetTopCommentsHandler struct {
	repo  interaction.Repository
	cache interaction.RankingCache
	log   *logger.Logger
}

// NewGetTopCommentsHandler creates a new GetTopCommentsHandler. cache may be nil.
func NewGetTopCommentsHandler(repo interaction.Repository, cache interaction.RankingCache, log *logger.Logger) *GetTopCommentsHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &GetTopCommentsHandler{repo: repo, cache: cache, log: log}
}

// Handle returns the top comments.
func (h *GetTopCommentsHandler) Handle(ctx context.Context, query GetTopCommentsQuery) (*GetTopCommentsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, shared.WrapError("query", "GetTopComments", shared.ErrValidation, err.Error(), err)
	}

	if views, ok := h.tryGetFromCache(ctx, query.Limit); ok {
		return &GetTopCommentsResult{Comments: views, Source: SourceCache}, nil
	}

	views := NewReportEngine(h.repo.Snapshot()).TopComments(query.Limit)
	return &GetTopCommentsResult{Comments: views, Source: SourceStore}, nil
}

// tryGetFromCache resolves cached ids against the store with the same scope
// as the report engine: deleted comments are out, flagged ones stay. A ranking
// naming anything that no longer resolves is stale and counts as a miss, as
// does an empty one.
func (h *GetTopCommentsHandler) tryGetFromCache(ctx context.Context, n int) ([]interaction.View, bool) {
	if h.cache == nil {
		return nil, false
	}

	ids, err := h.cache.TopCommentIDs(ctx, n)
	if err != nil {
		h.log.Warn("ranking cache unavailable, computing from store", logger.Err(err))
		return nil, false
	}
	if len(ids) == 0 {
		return nil, false
	}

	views := make([]interaction.View, 0, len(ids))
	for _, id := range ids {
		rec, ok := h.repo.FindByID(id)
		if !ok || rec.IsDeleted() || rec.Kind() != interaction.KindComment {
			h.log.Debug("ranking cache is stale, computing from store", logger.RecordID(id.String()))
			return nil, false
		}
		views = append(views, rec.ToView())
	}
	return views, true
}
