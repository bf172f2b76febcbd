package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/brandlens/config"
	"github.com/otherjamesbrown/brandlens/pkg/buildinfo"
)

// NewVersionCommand creates the 'version' command. It runs without loading
// the config file, so --output is read from the flag directly.
func NewVersionCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long: `Print the version, commit hash, and build time of the brandlens CLI.

Examples:
  brandlens version
  brandlens version --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := deps.Config.OutputFormat
			if f, err := cmd.Flags().GetString("output"); err == nil && f != "" {
				format = config.OutputFormat(f)
			}
			info := buildinfo.Get("brandlens")
			return writeOutput(cmd.OutOrStdout(), format, info, func(w io.Writer) error {
				fmt.Fprintf(w, "brandlens version %s\n", info.Version)
				fmt.Fprintf(w, "  commit:     %s\n", info.Commit)
				fmt.Fprintf(w, "  built:      %s\n", info.BuildTime)
				fmt.Fprintf(w, "  go:         %s %s\n", info.GoVersion, info.Platform)
				return nil
			})
		},
	}
}
