package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/alem-hub/interaction-hub/config"
	"github.com/alem-hub/interaction-hub/internal/application/command"
	"github.com/alem-hub/interaction-hub/internal/application/eventhandler"
	"github.com/alem-hub/interaction-hub/internal/application/projection"
	"github.com/alem-hub/interaction-hub/internal/application/query"
	"github.com/alem-hub/interaction-hub/internal/domain/interaction"
	"github.com/alem-hub/interaction-hub/internal/infrastructure/messaging"
	"github.com/alem-hub/interaction-hub/internal/infrastructure/metrics"
	"github.com/alem-hub/interaction-hub/internal/infrastructure/persistence/memory"
	"github.com/alem-hub/interaction-hub/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/interaction-hub/internal/infrastructure/persistence/redis"
	"github.com/alem-hub/interaction-hub/internal/interface/http/handlers"
	"github.com/alem-hub/interaction-hub/pkg/logger"
	"github.com/alem-hub/interaction-hub/pkg/pseudonym"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLICATION WIRING
// ══════════════════════════════════════════════════════════════════════════════

// appOptions selects how much of the stack a command needs.
type appOptions struct {
	// connectSinks opens Redis and PostgreSQL when they are enabled.
	connectSinks bool

	// liveClock anchors reports at the wall clock. Otherwise they share the
	// stamping clock and are anchored at the newest loaded record.
	liveClock bool

	// journal receives the event journal when the flag enables it.
	journal io.Writer
}

// app holds one fully wired hub.
type app struct {
	cfg *config.Config
	log *logger.Logger

	// stamp is the clock the command handlers read created_at from. Seeding
	// advances it to each record's timestamp.
	stamp *clockwork.FakeClock
	clock clockwork.Clock

	store     *memory.InteractionStore
	bus       *messaging.InMemoryEventBus
	registry  *prometheus.Registry
	collector *metrics.Collector
	tracker   *eventhandler.ProjectionTracker
	queue     *eventhandler.ModerationQueue
	journal   *eventhandler.Journal

	record             *command.RecordInteractionHandler
	moderate           *command.ModerateHandler
	toggleLike         *command.ToggleLikeHandler
	updateSubscription *command.UpdateSubscriptionHandler
	reports            *query.GetReportHandler
	top                *query.GetTopCommentsHandler

	cache     *redis.Cache
	ranking   *redis.RankingCache
	db        *postgres.Connection
	archive   *postgres.ArchiveRepository
	publisher *projection.Publisher
	health    *handlers.CompositeHealthChecker

	closers []func()
}

// stampEpoch is where the stamping clock starts before the first record.
var stampEpoch = time.Unix(0, 0).UTC()

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, opts appOptions) (*app, error) {
	if log == nil {
		log = logger.Nop()
	}
	flags := cfg.Features
	if flags == nil {
		flags = config.LoadFeatureFlags()
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		stamp: clockwork.NewFakeClockAt(stampEpoch),
	}
	a.clock = a.stamp
	if opts.liveClock {
		a.clock = clockwork.NewRealClock()
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 1. STORE, EVENT BUS AND METRICS
	// ─────────────────────────────────────────────────────────────────────────
	a.store = memory.NewInteractionStore()

	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	a.bus = messaging.NewInMemoryEventBus(busConfig)
	a.closers = append(a.closers, func() { _ = a.bus.Close() })

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.collector = metrics.NewCollector(a.registry)
	if err := a.collector.Attach(a.bus); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to attach metrics: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	a.tracker = eventhandler.NewProjectionTracker(log)
	if err := a.tracker.Attach(a.bus); err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to attach projection tracker: %w", err)
	}

	comments := &config.FeatureContext{Kind: string(interaction.KindComment)}
	if flags.IsEnabled(config.FeatureModerationQueue, comments) {
		var queueOpts []eventhandler.QueueOption
		if !flags.IsEnabled(config.FeatureSpamReview, comments) {
			queueOpts = append(queueOpts, eventhandler.WithoutSpamReview())
		}
		a.queue = eventhandler.NewModerationQueue(log, queueOpts...)
		if err := a.queue.Attach(a.bus); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to attach moderation queue: %w", err)
		}
	}

	if flags.IsEnabled(config.FeatureEventJournal, nil) {
		w := opts.journal
		if w == nil {
			w = os.Stderr
		}
		a.journal = eventhandler.NewJournal(w)
		if err := a.journal.Attach(a.bus); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to attach event journal: %w", err)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 3. COMMAND AND QUERY HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	a.record = command.NewRecordInteractionHandler(a.store, a.bus, a.stamp, log)
	a.moderate = command.NewModerateHandler(a.store, a.bus, a.stamp, log)
	a.toggleLike = command.NewToggleLikeHandler(a.store, a.bus, a.stamp, log)
	a.updateSubscription = command.NewUpdateSubscriptionHandler(a.store, a.bus, a.stamp, log)
	a.reports = query.NewGetReportHandler(a.store, a.clock, cfg.App.Location)

	a.health = handlers.NewCompositeHealthChecker(cfg.App.Name, nil)

	// ─────────────────────────────────────────────────────────────────────────
	// 4. SINKS (optional)
	// ─────────────────────────────────────────────────────────────────────────
	if opts.connectSinks {
		if err := a.connectSinks(ctx, flags); err != nil {
			a.Close()
			return nil, err
		}
	}

	var topCache interaction.RankingCache
	if a.ranking != nil && flags.IsEnabled(config.FeatureTopFromCache, nil) {
		topCache = a.ranking
	}
	a.top = query.NewGetTopCommentsHandler(a.store, topCache, log)

	pubOpts := []projection.Option{
		projection.WithTracker(a.tracker),
		projection.WithObserver(a.collector),
		projection.WithLogger(log),
		projection.WithActivityDays(cfg.Analytics.DailyDays),
		projection.WithSummaryTTL(cfg.Redis.SummaryTTL),
		projection.WithReportClock(a.clock),
		projection.WithLocation(cfg.App.Location),
	}
	if a.ranking != nil {
		pubOpts = append(pubOpts, projection.WithRanking(a.ranking))
	}
	if a.archive != nil {
		pubOpts = append(pubOpts, projection.WithArchive(a.archive))
	}
	a.publisher = projection.NewPublisher(a.store, pubOpts...)

	return a, nil
}

// connectSinks opens the enabled sinks. An unreachable Redis only disables
// the ranking; a database that was asked for and cannot be reached is an error.
func (a *app) connectSinks(ctx context.Context, flags *config.FeatureFlags) error {
	cfg := a.cfg

	if cfg.Redis.Enabled && flags.IsEnabled(config.FeatureRedisProjection, nil) {
		a.log.Info("connecting to Redis...", logger.String("host", cfg.Redis.Host))
		cache, err := redis.NewCache(redisConfig(cfg.Redis))
		if err != nil {
			a.log.Warn("failed to connect to Redis, ranking projection disabled", logger.Err(err))
		} else {
			a.cache = cache
			a.closers = append(a.closers, func() { _ = cache.Close() })
			a.ranking = redis.NewRankingCache(cache,
				redis.WithNamespace(cfg.Redis.Namespace),
				redis.WithTTL(cfg.Redis.RankingTTL),
			)
			a.health.AddCheck(projection.SinkRanking, handlers.NewPingCheck(cache))
			a.log.Info("Redis connection established")
		}
	}

	if cfg.Database.Enabled && flags.IsEnabled(config.FeatureArchiveSink, nil) {
		conn, err := a.openDatabase(ctx)
		if err != nil {
			return err
		}

		a.log.Info("checking database migrations...")
		applied, err := postgres.NewMigrator(conn).Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		a.log.Info("database schema is up to date", logger.Int("applied", applied))

		archiveOpts := []postgres.ArchiveOption{postgres.WithBatchSize(cfg.Database.BatchSize)}
		if cfg.Export.PseudonymizeUsers && flags.IsEnabled(config.FeatureExportPseudonymize, nil) {
			p, err := pseudonym.New([]byte(cfg.Export.PseudonymKey))
			if err != nil {
				return fmt.Errorf("failed to build pseudonymizer: %w", err)
			}
			archiveOpts = append(archiveOpts, postgres.WithPseudonymizer(p))
		}
		a.archive = postgres.NewArchiveRepository(conn, archiveOpts...)
		a.health.AddCheck(projection.SinkArchive, handlers.NewPingCheck(conn))
	}

	return nil
}

// openDatabase connects to PostgreSQL and remembers the connection for Close.
func (a *app) openDatabase(ctx context.Context) (*postgres.Connection, error) {
	if a.db != nil {
		return a.db, nil
	}

	a.log.Info("connecting to database...")
	conn, err := postgres.NewConnection(ctx, postgresConfig(a.cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.db = conn
	a.closers = append(a.closers, func() {
		a.log.Info("closing database connection...")
		conn.Close()
	})
	a.log.Info("database connection established")
	return conn, nil
}

// Close releases everything newApp opened, newest first.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// status is the snapshot served on /status.
func (a *app) status() map[string]any {
	pending, _ := a.tracker.Pending()
	out := map[string]any{
		"records":            a.store.Len(),
		"by_status":          a.store.CountByStatus(),
		"counters":           a.store.Counters(),
		"projection_version": a.publisher.Version(),
		"pending_changes":    pending,
		"breakers":           a.publisher.BreakerStates(),
	}
	if a.queue != nil {
		out["moderation_queue"] = a.queue.Len()
	}
	return out
}

func redisConfig(c config.RedisConfig) redis.Config {
	rc := redis.DefaultConfig()
	rc.Host = c.Host
	rc.Port = c.Port
	rc.Password = c.Password
	rc.DB = c.DB
	rc.PoolSize = c.PoolSize
	rc.MaxRetries = c.MaxRetries
	rc.DialTimeout = c.DialTimeout
	rc.ReadTimeout = c.ReadTimeout
	rc.WriteTimeout = c.WriteTimeout
	return rc
}

func postgresConfig(c config.DatabaseConfig) postgres.Config {
	pc := postgres.DefaultConfig()
	pc.URL = c.URL
	pc.Host = c.Host
	pc.Port = c.Port
	pc.Database = c.Name
	pc.User = c.User
	pc.Password = c.Password
	pc.SSLMode = c.SSLMode
	pc.MaxConns = c.MaxConns
	pc.ConnectTimeout = c.ConnectTimeout
	return pc
}
