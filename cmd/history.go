package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// History command flags.
var (
	historyTarget string
	historyLimit  int
)

// NewHistoryCommand creates the 'history' command group.
func NewHistoryCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List, show, and delete persisted runs",
		Long: `Inspect runs saved by 'brandlens batch' or 'brandlens score --save'.

Examples:
  brandlens history list
  brandlens history list --target grandhotel.com --limit 5
  brandlens history show 6f1c2a7e-...
  brandlens history delete 6f1c2a7e-...`,
		Aliases: []string{"runs"},
	}

	cmd.AddCommand(newHistoryListCommand(deps))
	cmd.AddCommand(newHistoryShowCommand(deps))
	cmd.AddCommand(newHistoryDeleteCommand(deps))
	return cmd
}

func newHistoryListCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := deps.OpenStore(ctx, deps.Config)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer repo.Close()

			runs, err := repo.ListRuns(ctx, historyTarget, historyLimit)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), deps.Config.OutputFormat, runs, func(w io.Writer) error {
				if len(runs) == 0 {
					fmt.Fprintln(w, "No runs found.")
					return nil
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTARGET\tCREATED\tUNITS\tMENTION RATE\tAVG SCORE\tRECOMMENDATION")
				for _, r := range runs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.1f%%\t%.1f\t%s\n",
						r.ID, truncateString(r.Target, 30), r.CreatedAt.Local().Format("2006-01-02 15:04"),
						r.TotalUnits, r.MentionRate, r.AverageScore, r.Recommendation)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&historyTarget, "target", "t", "", "Only runs for this target")
	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list")
	return cmd
}

func newHistoryShowCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a run's results and summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := deps.OpenStore(ctx, deps.Config)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer repo.Close()

			run, err := repo.GetRun(ctx, args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), deps.Config.OutputFormat, run, func(w io.Writer) error {
				fmt.Fprintf(w, "Created: %s\n", run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
				return printRun(w, run)
			})
		},
	}
}

func newHistoryDeleteCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete a run and its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			repo, err := deps.OpenStore(ctx, deps.Config)
			if err != nil {
				return fmt.Errorf("opening store: %w", err)
			}
			defer repo.Close()

			if err := repo.DeleteRun(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
			return nil
		},
	}
}
