package cmd

import (
	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/brandlens/pkg/runner"
	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

// Fetch command flags.
var (
	fetchTarget      string
	fetchSave        bool
	fetchCorroborate bool
)

// NewFetchCommand creates the 'fetch' command.
func NewFetchCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Fetch a web page and score its visible text",
		Long: `Fetch a page over HTTP, extract its visible text, and score it against a
target brand. Scripts, styles, and navigation chrome are removed before
scoring. The URL is used as the source label.

Examples:
  brandlens fetch https://example.com/best-hotels --target grandhotel.com
  brandlens fetch https://example.com/review --target workexe.com --save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs := []runner.Job{{
				Unit: visibility.EvaluationUnit{Target: fetchTarget, SourceLabel: args[0]},
				URL:  args[0],
			}}
			run, err := executeRun(cmd.Context(), deps, fetchTarget, jobs, runOptions{
				persist:     fetchSave,
				corroborate: fetchCorroborate,
			})
			if run == nil {
				return err
			}
			if outErr := outputSingle(cmd.OutOrStdout(), deps, run, fetchSave); outErr != nil {
				return outErr
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&fetchTarget, "target", "t", "", "Target brand URL, domain, or name (required)")
	cmd.Flags().BoolVar(&fetchSave, "save", false, "Persist the result as a run")
	cmd.Flags().BoolVar(&fetchCorroborate, "corroborate", false, "Ask the external provider as well")
	cmd.MarkFlagRequired("target")

	return cmd
}
