package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/otherjamesbrown/brandlens/pkg/runner"
	"github.com/otherjamesbrown/brandlens/pkg/store"
	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

// Score command flags.
var (
	scoreTarget      string
	scoreText        string
	scoreFile        string
	scoreLabel       string
	scoreSave        bool
	scoreCorroborate bool
)

// NewScoreCommand creates the 'score' command.
func NewScoreCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [file|-]",
		Short: "Score one piece of text for brand visibility",
		Long: `Score a single piece of text against a target brand.

The text comes from --text, --file, a positional file argument, or stdin
when the argument is "-". The result shows whether the brand is mentioned,
its visibility score (0-100), rank bucket, sentiment, and the signals that
matched.

Examples:
  brandlens score --target workexe.com --text "Workexe is the best choice."
  brandlens score --target "Grand Hotel" answer.txt
  cat answer.txt | brandlens score --target grandhotel.com -
  brandlens score --target workexe.com --file answer.txt --save --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScore(cmd, deps, args)
		},
	}

	cmd.Flags().StringVarP(&scoreTarget, "target", "t", "", "Target brand URL, domain, or name (required)")
	cmd.Flags().StringVar(&scoreText, "text", "", "Text to score")
	cmd.Flags().StringVarP(&scoreFile, "file", "f", "", "Read text from file")
	cmd.Flags().StringVar(&scoreLabel, "label", "", "Source label recorded with the result")
	cmd.Flags().BoolVar(&scoreSave, "save", false, "Persist the result as a run")
	cmd.Flags().BoolVar(&scoreCorroborate, "corroborate", false, "Ask the external provider as well")
	cmd.MarkFlagRequired("target")

	return cmd
}

func runScore(cmd *cobra.Command, deps *Deps, args []string) error {
	text, label, err := readScoreInput(deps, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("no text to score: use --text, --file, or pass a file argument")
	}

	jobs := []runner.Job{{Unit: visibility.EvaluationUnit{
		Text:        text,
		Target:      scoreTarget,
		SourceLabel: label,
	}}}

	run, err := executeRun(cmd.Context(), deps, scoreTarget, jobs, runOptions{
		persist:     scoreSave,
		corroborate: scoreCorroborate,
	})
	if run == nil {
		return err
	}
	if outErr := outputSingle(cmd.OutOrStdout(), deps, run, scoreSave); outErr != nil {
		return outErr
	}
	return err
}

func readScoreInput(deps *Deps, args []string) (text, label string, err error) {
	label = scoreLabel
	switch {
	case scoreText != "":
		return scoreText, label, nil
	case scoreFile != "":
		return readTextFile(scoreFile, label)
	case len(args) == 1 && args[0] == "-":
		b, err := io.ReadAll(deps.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("reading stdin: %w", err)
		}
		if label == "" {
			label = "stdin"
		}
		return string(b), label, nil
	case len(args) == 1:
		return readTextFile(args[0], label)
	}
	return "", label, nil
}

func readTextFile(path, label string) (string, string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("reading %s: %w", path, err)
	}
	if label == "" {
		label = path
	}
	return string(b), label, nil
}

// outputSingle renders a one-unit run.
func outputSingle(w io.Writer, deps *Deps, run *store.Run, saved bool) error {
	if len(run.Results) == 0 {
		return fmt.Errorf("run %s has no results", run.ID)
	}
	r := run.Results[0]
	return writeOutput(w, deps.Config.OutputFormat, r, func(w io.Writer) error {
		printResult(w, r)
		if saved {
			fmt.Fprintf(w, "\nSaved as run %s\n", run.ID)
		}
		return nil
	})
}

// printResult writes the detail view of one result.
func printResult(w io.Writer, r visibility.MentionResult) {
	if r.Failed() {
		fmt.Fprintf(w, "Error:      %s (%s)\n", r.Error, r.ErrorCode)
		return
	}
	mentioned := "no"
	if r.Mentioned {
		mentioned = "yes"
	}
	fmt.Fprintf(w, "Source:     %s\n", valueOrDash(r.SourceLabel))
	fmt.Fprintf(w, "Mentioned:  %s\n", mentioned)
	fmt.Fprintf(w, "Score:      %d\n", r.VisibilityScore)
	fmt.Fprintf(w, "Rank:       %s\n", r.Rank)
	fmt.Fprintf(w, "Sentiment:  %s\n", r.Sentiment)
	fmt.Fprintf(w, "Confidence: %s\n", r.Confidence)
	fmt.Fprintf(w, "Signals:    %s\n", valueOrDash(strings.Join(r.Signals.Strings(), ", ")))
}
