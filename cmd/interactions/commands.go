package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/alem-hub/interaction-hub/config"
	"github.com/alem-hub/interaction-hub/internal/application/query"
	"github.com/alem-hub/interaction-hub/pkg/logger"
)

// --- Global Command Variables ---
var (
	configFile string
	logLevel   string
	logFormat  string
	inputFile  string

	// report
	reportUser           string
	reportKeyword        string
	reportDays           int
	reportLimit          int
	reportTargetType     string
	reportIncludeDeleted bool

	// demo / publish
	demoPublish  bool
	publishForce bool

	// top
	topLimit int

	// serve
	servePublishEvery time.Duration
	serveMetricsEvery time.Duration
	servePublishWait  time.Duration

	// Set by PersistentPreRunE.
	appConfig *config.Config
	appLogger *logger.Logger

	rootCmd = &cobra.Command{
		Use:   "interactions",
		Short: "Track comments, likes and subscriptions and report on them",
		Long: `interactions loads a dataset of user interactions into an in-memory store,
runs moderation and counter bookkeeping over it, and derives reports,
rankings and archived views from the result.

The dataset is the built-in demo set unless --input names a JSON file.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadRuntime,
	}

	demoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Seed the demo dataset, run a moderation pass and print the full report",
		Args:  cobra.NoArgs,
		RunE:  runDemo, // Defined in cmd_demo.go
	}

	reportCmd = &cobra.Command{
		Use:       "report [section]",
		Short:     "Print one report section as JSON",
		Long:      "Sections: " + strings.Join(query.Sections(), ", "),
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: query.Sections(),
		RunE:      runReport, // Defined in cmd_report.go
	}

	breakdownCmd = &cobra.Command{
		Use:   "breakdown",
		Short: "Print likes per target, comments per video and subscribers per channel",
		Args:  cobra.NoArgs,
		RunE:  runBreakdown, // Defined in cmd_report.go
	}

	topCmd = &cobra.Command{
		Use:   "top",
		Short: "Print the best ranked comments, from the ranking cache when available",
		Args:  cobra.NoArgs,
		RunE:  runTop, // Defined in cmd_report.go
	}

	publishCmd = &cobra.Command{
		Use:   "publish",
		Short: "Publish rankings and archived views to the configured sinks",
		Args:  cobra.NoArgs,
		RunE:  runPublish, // Defined in cmd_publish.go
	}

	migrateCmd = &cobra.Command{
		Use:       "migrate [up|down|status]",
		Short:     "Manage the archive schema",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"up", "down", "status"},
		RunE:      runMigrate, // Defined in cmd_publish.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Keep the dataset loaded and publish projections on a schedule",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default: ./interactions.yaml or ./config/interactions.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "override observability.log_level (debug, info, warn, error)")
	pf.StringVar(&logFormat, "log-format", "", "override observability.log_format (json, text)")
	pf.StringVarP(&inputFile, "input", "i", "", "JSON file of interaction records to load instead of the demo set")

	rf := reportCmd.Flags()
	rf.StringVar(&reportUser, "user", "", "user id for the user section")
	rf.StringVar(&reportKeyword, "keyword", "", "keyword for the search section")
	rf.IntVar(&reportDays, "days", 0, "activity window in days (default: analytics.daily_days)")
	rf.IntVar(&reportLimit, "limit", 0, "size of ranked lists (default: analytics.top_n)")
	rf.StringVar(&reportTargetType, "target-type", "", "target type for the controversial section (video, comment)")
	rf.BoolVar(&reportIncludeDeleted, "include-deleted", false, "include soft-deleted records")

	demoCmd.Flags().BoolVar(&demoPublish, "publish", false, "publish projections after the moderation pass")
	publishCmd.Flags().BoolVar(&publishForce, "force", false, "publish even when nothing changed")
	topCmd.Flags().IntVarP(&topLimit, "limit", "n", 0, "number of comments (default: analytics.top_n)")

	sf := serveCmd.Flags()
	sf.DurationVar(&servePublishEvery, "publish-every", 30*time.Second, "projection publish interval")
	sf.DurationVar(&serveMetricsEvery, "metrics-every", 15*time.Second, "store gauge refresh interval")
	sf.DurationVar(&servePublishWait, "publish-timeout", 20*time.Second, "deadline of one scheduled publish")

	rootCmd.AddCommand(demoCmd, reportCmd, breakdownCmd, topCmd, publishCmd, migrateCmd, serveCmd)
}

// loadRuntime reads the configuration and builds the logger every command
// shares. Flag overrides win over file and environment values.
func loadRuntime(cmd *cobra.Command, _ []string) error {
	var opts []config.LoadOption
	if configFile != "" {
		opts = append(opts, config.WithFile(configFile))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if logLevel != "" {
		cfg.Observability.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.Observability.LogFormat = logFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	appConfig = cfg
	appLogger = newLogger(cfg)
	appLogger.Debug("configuration loaded",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("timezone", cfg.App.Timezone),
		logger.Bool("redis", cfg.Redis.Enabled),
		logger.Bool("database", cfg.Database.Enabled),
	)
	return nil
}

// newLogger writes to stderr so report JSON on stdout stays parseable.
func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		Output:    os.Stderr,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		Format:    logger.Format(cfg.Observability.LogFormat),
		AddCaller: cfg.IsDevelopment(),
	}).With(logger.String("app", cfg.App.Name))
}
