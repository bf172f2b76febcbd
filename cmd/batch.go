package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/brandlens/pkg/runner"
	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

// Batch command flags.
var (
	batchTarget      string
	batchConcurrency int
	batchNoSave      bool
	batchCorroborate bool
)

// batchEntry is one unit in a batch file. A bare string is shorthand for
// {text: ...}.
type batchEntry struct {
	Text        string `yaml:"text"`
	URL         string `yaml:"url"`
	SourceLabel string `yaml:"source_label"`
	Prompt      string `yaml:"prompt"`
	Timestamp   string `yaml:"timestamp"`
}

func (e *batchEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		e.Text = node.Value
		return nil
	}
	type plain batchEntry
	return node.Decode((*plain)(e))
}

// batchFile is the document form of a batch file.
type batchFile struct {
	Target string       `yaml:"target"`
	Units  []batchEntry `yaml:"units"`
}

// NewBatchCommand creates the 'batch' command.
func NewBatchCommand(deps *Deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch <file|->",
		Short: "Score a batch of texts or URLs and summarize the run",
		Long: `Evaluate every unit in a YAML or JSON batch file against one target,
print a row per unit plus the run summary, and persist the run.

The file is either a list of units or a document with a target and units:

  target: grandhotel.com
  units:
    - text: "Grand Hotel is the best choice in Antalya."
      source_label: "best hotels in antalya"
    - url: https://example.com/review
    - "A bare string is treated as text."

--target overrides the target in the file. Units are evaluated concurrently
but reported in file order. A failed unit is reported in its row and does
not stop the run.

Examples:
  brandlens batch prompts.yaml --target grandhotel.com
  brandlens batch answers.json --concurrency 8 --output json
  cat units.yaml | brandlens batch - --target workexe.com --no-save`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, deps, args[0])
		},
	}

	cmd.Flags().StringVarP(&batchTarget, "target", "t", "", "Target brand URL, domain, or name")
	cmd.Flags().IntVarP(&batchConcurrency, "concurrency", "c", 0, "Units evaluated in parallel (default from config)")
	cmd.Flags().BoolVar(&batchNoSave, "no-save", false, "Do not persist the run")
	cmd.Flags().BoolVar(&batchCorroborate, "corroborate", false, "Ask the external provider as well")

	return cmd
}

func runBatch(cmd *cobra.Command, deps *Deps, path string) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(deps.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("reading batch file: %w", err)
	}

	fileTarget, jobs, err := parseBatch(data)
	if err != nil {
		return err
	}
	target := batchTarget
	if target == "" {
		target = fileTarget
	}
	if target == "" {
		return fmt.Errorf("no target: pass --target or set target in the batch file")
	}
	for i := range jobs {
		jobs[i].Unit.Target = target
	}

	run, err := executeRun(cmd.Context(), deps, target, jobs, runOptions{
		persist:     !batchNoSave,
		corroborate: batchCorroborate,
		concurrency: batchConcurrency,
	})
	if run == nil {
		return err
	}
	if outErr := writeOutput(cmd.OutOrStdout(), deps.Config.OutputFormat, run, func(w io.Writer) error {
		return printRun(w, run)
	}); outErr != nil {
		return outErr
	}
	return err
}

// parseBatch decodes a YAML or JSON batch into jobs.
func parseBatch(data []byte) (string, []runner.Job, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return "", nil, fmt.Errorf("parsing batch file: %w", err)
	}
	if len(root.Content) == 0 {
		return "", nil, fmt.Errorf("batch file is empty")
	}

	var doc batchFile
	switch node := root.Content[0]; node.Kind {
	case yaml.SequenceNode:
		if err := node.Decode(&doc.Units); err != nil {
			return "", nil, fmt.Errorf("parsing batch units: %w", err)
		}
	case yaml.MappingNode:
		if err := node.Decode(&doc); err != nil {
			return "", nil, fmt.Errorf("parsing batch file: %w", err)
		}
	default:
		return "", nil, fmt.Errorf("batch file must be a list of units or a document with units")
	}

	if len(doc.Units) == 0 {
		return "", nil, fmt.Errorf("batch file has no units")
	}

	jobs := make([]runner.Job, 0, len(doc.Units))
	for i, e := range doc.Units {
		if strings.TrimSpace(e.Text) == "" && e.URL == "" {
			return "", nil, fmt.Errorf("unit %d: text or url is required", i+1)
		}
		label := e.SourceLabel
		if label == "" {
			label = e.Prompt
		}
		jobs = append(jobs, runner.Job{
			Unit: visibility.EvaluationUnit{
				Text:        e.Text,
				SourceLabel: label,
				Timestamp:   e.Timestamp,
			},
			URL: e.URL,
		})
	}
	return doc.Target, jobs, nil
}

