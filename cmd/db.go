package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/brandlens/pkg/db"
	"github.com/otherjamesbrown/brandlens/pkg/store"
)

// NewDbCommand creates the root db command with all subcommands.
func NewDbCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Manage the run store schema.

The store is SQLite by default (~/.brandlens/brandlens.db). Set store.driver
to postgres and store.url (or BRANDLENS_DATABASE_URL / BRANDLENS_DB_*) to use
PostgreSQL. Migrations are embedded in the binary, applied in filename order,
and tracked in the schema_migrations table. Opening the store applies any
pending migrations, so 'db migrate' is only needed to prepare a database
ahead of time.

Examples:
  # Show migration status
  brandlens db status

  # Apply all pending migrations
  brandlens db migrate`,
		Aliases: []string{"database", "migrations"},
	}

	cmd.AddCommand(newDbMigrateCommand(deps))
	cmd.AddCommand(newDbStatusCommand(deps))
	return cmd
}

// newDbMigrateCommand creates the 'db migrate' subcommand.
func newDbMigrateCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := deps.OpenStore(ctx, deps.Config)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer repo.Close()

			applied, err := repo.Migrate(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(applied) == 0 {
				fmt.Fprintln(out, "Database is up to date.")
				return nil
			}
			for _, v := range applied {
				fmt.Fprintf(out, "Applied %s\n", v)
			}
			return nil
		},
	}
}

// dbStatus is the 'db status' report.
type dbStatus struct {
	Driver     string           `json:"driver" yaml:"driver"`
	Migrations []db.Migration   `json:"migrations" yaml:"migrations"`
	Pending    int              `json:"pending" yaml:"pending"`
	Health     *db.HealthStatus `json:"health,omitempty" yaml:"health,omitempty"`
}

// newDbStatusCommand creates the 'db status' subcommand.
func newDbStatusCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show database migration status",
		Long: `Show every known migration and whether it has been applied. For
PostgreSQL the connection pool is also pinged and its counts reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := deps.OpenStore(ctx, deps.Config)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer repo.Close()

			migrations, err := repo.MigrationStatus(ctx)
			if err != nil {
				return err
			}
			status := dbStatus{Driver: store.DriverSQLite, Migrations: migrations}
			if pg, ok := repo.(*store.PostgresStore); ok {
				status.Driver = store.DriverPostgres
				status.Health = db.Check(ctx, pg.Pool())
			}
			for _, m := range migrations {
				if !m.Applied {
					status.Pending++
				}
			}

			return writeOutput(cmd.OutOrStdout(), deps.Config.OutputFormat, status, func(w io.Writer) error {
				fmt.Fprintf(w, "Driver: %s\n", status.Driver)
				if h := status.Health; h != nil {
					state := "healthy"
					if !h.Healthy {
						state = "unhealthy: " + h.Error
					}
					fmt.Fprintf(w, "Health: %s (latency %s, %d/%d conns in use)\n", state, h.Latency, h.AcquiredConns, h.TotalConns)
				}
				fmt.Fprintln(w)
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tSTATUS\tAPPLIED AT")
				for _, m := range status.Migrations {
					state, at := "pending", "-"
					if m.Applied {
						state = "applied"
						if m.AppliedAt != nil {
							at = m.AppliedAt.Local().Format("2006-01-02 15:04:05")
						}
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Version, state, at)
				}
				tw.Flush()
				fmt.Fprintf(w, "\n%d pending\n", status.Pending)
				return nil
			})
		},
	}
}
