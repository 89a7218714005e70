package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alem-hub/interaction-hub/internal/application/projection"
	"github.com/alem-hub/interaction-hub/internal/infrastructure/persistence/postgres"
	"github.com/alem-hub/interaction-hub/pkg/logger"
)

// ErrNoSinks is returned by publish when neither sink is enabled.
var ErrNoSinks = errors.New("no projection sink enabled (set redis.enabled or database.enabled)")

// --- publish ---

func runPublish(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)

	if !appConfig.Redis.Enabled && !appConfig.Database.Enabled {
		return ErrNoSinks
	}

	a, err := loadedApp(ctx, appOptions{connectSinks: true})
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.publisher.Publish(ctx, publishForce)
	if res != nil {
		if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
			return perr
		}
	}
	if errors.Is(err, projection.ErrPublishIncomplete) {
		a.log.Warn("publish incomplete", logger.Err(err))
	}
	return err
}

// --- migrate ---

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := commandContext(cmd)

	action := "up"
	if len(args) == 1 {
		action = args[0]
	}
	if !appConfig.Database.Enabled {
		return errors.New("database is disabled (set database.enabled)")
	}

	conn, err := postgres.NewConnection(ctx, postgresConfig(appConfig.Database))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close()

	migrator := postgres.NewMigrator(conn)
	out := cmd.OutOrStdout()

	switch action {
	case "up":
		n, err := migrator.Migrate(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "applied %d migration(s)\n", n)
	case "down":
		if err := migrator.Rollback(ctx); err != nil {
			return err
		}
		fmt.Fprintln(out, "rolled back the last migration")
	case "status":
		migrations, err := migrator.Status(ctx)
		if err != nil {
			return err
		}
		return writeMigrationStatus(out, migrations)
	default:
		return fmt.Errorf("unknown migrate action %q (want up, down or status)", action)
	}
	return nil
}

func writeMigrationStatus(w io.Writer, migrations []postgres.Migration) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tNAME\tAPPLIED AT")
	for _, m := range migrations {
		applied := "pending"
		if m.IsApplied {
			applied = m.AppliedAt.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Version, m.Name, applied)
	}
	return tw.Flush()
}
