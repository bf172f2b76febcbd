package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/brandlens/config"
)

var configInitForce bool

// NewConfigCommand creates the 'config' command group.
func NewConfigCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the CLI configuration",
		Long: `Show the effective configuration or write a default config file.

Settings are layered: defaults, then the config file
(~/.brandlens/config.yaml or --config), then .env, then BRANDLENS_*
environment variables, then command-line flags.`,
	}

	cmd.AddCommand(newConfigShowCommand(deps))
	cmd.AddCommand(newConfigInitCommand(deps))
	cmd.AddCommand(newConfigPathCommand(deps))
	return cmd
}

func newConfigShowCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			shown := *deps.Config
			if shown.Redis.Password != "" {
				shown.Redis.Password = "****"
			}
			return writeOutput(cmd.OutOrStdout(), deps.Config.OutputFormat, &shown, func(w io.Writer) error {
				data, err := yaml.Marshal(&shown)
				if err != nil {
					return err
				}
				_, err = w.Write(data)
				return err
			})
		},
	}
}

func newConfigInitCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath(deps)
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !configInitForce {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}
			if err := config.SaveConfig(config.DefaultConfig(), path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&configInitForce, "force", false, "Overwrite an existing file")
	return cmd
}

func newConfigPathCommand(deps *Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := configFilePath(deps)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}

func configFilePath(deps *Deps) (string, error) {
	if deps.ConfigFile != "" {
		return config.ExpandPath(deps.ConfigFile)
	}
	return config.ConfigPath()
}
