// Package main provides the brandlens CLI entry point.
// brandlens scores how visibly a brand appears in web pages and model answers.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/brandlens/cmd"
	"github.com/otherjamesbrown/brandlens/config"
	"github.com/otherjamesbrown/brandlens/pkg/logging"
)

// Global flags.
var (
	cfgFile      string
	timeout      time.Duration
	outputFormat string
	debug        bool
)

// newRootCommand builds the command tree around deps.
func newRootCommand(deps *cmd.Deps) *cobra.Command {
	var cancel context.CancelFunc

	rootCmd := &cobra.Command{
		Use:   "brandlens",
		Short: "Brand visibility scoring for web pages and model answers",
		Long: `brandlens estimates whether a brand is mentioned in a piece of text, how
prominently, and with what sentiment, and turns that into a 0-100
visibility score. Batches of texts or URLs are summarized into a mention
rate, an average score, and a recommendation.

COMMON WORKFLOWS:
  Check a name:     brandlens expand grandhotel.com
  Score a text:     brandlens score --target grandhotel.com answer.txt
  Score a page:     brandlens fetch https://example.com/list --target grandhotel.com
  Score a batch:    brandlens batch prompts.yaml --target grandhotel.com
  Review history:   brandlens history list  ->  brandlens history show <id>

Every command supports --output json|yaml for structured output.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			if c.Name() == "version" || c.Name() == "help" || c.Name() == "completion" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile)
			if err != nil {
				// 'config init' creates the file --config points at.
				if !(errors.Is(err, os.ErrNotExist) && c.Name() == "init" && c.Parent() != nil && c.Parent().Name() == "config") {
					return fmt.Errorf("loading configuration: %w", err)
				}
				cfg = config.DefaultConfig()
			}

			if timeout != 0 {
				cfg.Timeout = config.Duration(timeout)
			}
			if outputFormat != "" {
				cfg.OutputFormat = config.OutputFormat(outputFormat)
				if !cfg.OutputFormat.IsValid() {
					return fmt.Errorf("invalid --output %q (must be text, json, or yaml)", outputFormat)
				}
			}
			if debug {
				cfg.Debug = true
			}

			deps.Config = cfg
			deps.ConfigFile = cfgFile
			deps.Logger = newLogger(cfg, c.ErrOrStderr())

			ctx, cancelFn := context.WithTimeout(c.Context(), cfg.Timeout.Std())
			cancel = cancelFn
			c.SetContext(ctx)
			return nil
		},
		PersistentPostRun: func(c *cobra.Command, args []string) {
			if cancel != nil {
				cancel()
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.brandlens/config.yaml)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "command timeout (e.g., 30s, 5m)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "scoring", Title: "Scoring:"},
		&cobra.Group{ID: "data", Title: "Runs & Storage:"},
		&cobra.Group{ID: "setup", Title: "Setup:"},
	)

	for _, c := range []*cobra.Command{
		cmd.NewExpandCommand(deps),
		cmd.NewScoreCommand(deps),
		cmd.NewFetchCommand(deps),
		cmd.NewBatchCommand(deps),
	} {
		c.GroupID = "scoring"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		cmd.NewHistoryCommand(deps),
		cmd.NewDbCommand(deps),
	} {
		c.GroupID = "data"
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{
		cmd.NewAuthCommand(deps),
		cmd.NewConfigCommand(deps),
		cmd.NewVersionCommand(deps),
	} {
		c.GroupID = "setup"
		rootCmd.AddCommand(c)
	}

	return rootCmd
}

func newLogger(cfg *config.CLIConfig, out io.Writer) logging.Logger {
	lc := logging.DefaultConfig()
	lc.Level = logging.LevelWarn
	if cfg.Debug {
		lc.Level = logging.LevelDebug
	}
	lc.JSONFormat = cfg.LogJSON
	lc.Output = out
	return logging.NewLogger(lc)
}

func main() {
	// Cancel in-flight work on SIGINT/SIGTERM; a second signal exits at once.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		stop()
	}()

	err := newRootCommand(cmd.DefaultDeps()).ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
