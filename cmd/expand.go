package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// NewExpandCommand creates the 'expand' command.
func NewExpandCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "expand <target>",
		Short: "Show the name forms derived from a brand URL or name",
		Long: `Expand a target (URL, domain, or bare name) into the identity used for
matching: domain, company name, short name with hospitality suffixes removed,
spelling variants, and configured aliases.

Examples:
  brandlens expand https://www.workexe.com/
  brandlens expand grandhotel.com.tr --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := deps.NewEngine(deps.Config, deps.Logger)
			if err != nil {
				return err
			}
			id := engine.Expand(args[0])
			return writeOutput(cmd.OutOrStdout(), deps.Config.OutputFormat, id, func(w io.Writer) error {
				fmt.Fprintf(w, "Source:   %s\n", id.Source)
				fmt.Fprintf(w, "Domain:   %s\n", valueOrDash(id.Domain))
				fmt.Fprintf(w, "Company:  %s\n", valueOrDash(id.CompanyName))
				fmt.Fprintf(w, "Short:    %s\n", valueOrDash(id.ShortName))
				fmt.Fprintf(w, "Variants: %s\n", valueOrDash(strings.Join(id.Variants, ", ")))
				fmt.Fprintf(w, "Aliases:  %s\n", valueOrDash(strings.Join(id.Aliases, ", ")))
				return nil
			})
		},
	}
}
