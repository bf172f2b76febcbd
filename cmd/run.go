package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/otherjamesbrown/brandlens/pkg/corroborate"
	"github.com/otherjamesbrown/brandlens/pkg/db"
	"github.com/otherjamesbrown/brandlens/pkg/logging"
	"github.com/otherjamesbrown/brandlens/pkg/observability"
	"github.com/otherjamesbrown/brandlens/pkg/runner"
	"github.com/otherjamesbrown/brandlens/pkg/store"
	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

// runOptions are the per-command switches layered over CLIConfig.
type runOptions struct {
	persist     bool
	corroborate bool
	concurrency int
}

// executeRun wires a Runner from deps and runs jobs against target.
func executeRun(ctx context.Context, deps *Deps, target string, jobs []runner.Job, opts runOptions) (*store.Run, error) {
	cfg := deps.Config
	log := deps.Logger

	engine, err := deps.NewEngine(cfg, log)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	rcfg := runner.Config{
		Concurrency:         cfg.Concurrency,
		UnitTimeout:         cfg.UnitTimeout.Std(),
		StrictCorroboration: cfg.Corroboration.Strict,
	}
	if opts.concurrency > 0 {
		rcfg.Concurrency = opts.concurrency
	}
	if rcfg.MergePolicy, err = corroborate.ParseMergePolicy(cfg.Corroboration.MergePolicy); err != nil {
		return nil, err
	}

	runOpts := []runner.Option{
		runner.WithLogger(log),
		runner.WithMetrics(metrics),
		runner.WithTracer(observability.NewTracer()),
		runner.WithTextSource(deps.NewTextSource(cfg)),
	}

	if opts.persist && !cfg.Store.Disabled {
		repo, err := deps.OpenStore(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		defer repo.Close()
		if pg, ok := repo.(*store.PostgresStore); ok {
			if _, err := db.RegisterPoolStats(reg, pg.Pool(), observability.Namespace); err != nil {
				log.Warn("failed to register pool metrics", logging.Err(err))
			}
		}
		runOpts = append(runOpts, runner.WithRepository(repo))
	}

	if opts.corroborate || cfg.Corroboration.Enabled {
		provider, closeFn, err := deps.NewProvider(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		defer closeFn()
		runOpts = append(runOpts, runner.WithProvider(provider))
	}

	publisher, closePub, err := deps.NewPublisher(ctx, cfg)
	if err != nil {
		log.Warn("event publishing disabled", logging.Err(err))
	} else {
		defer closePub()
		runOpts = append(runOpts, runner.WithPublisher(publisher))
	}

	run, runErr := runner.New(engine, rcfg, runOpts...).Run(ctx, target, jobs)

	if cfg.MetricsTextfile != "" {
		if err := observability.WriteTextfile(cfg.MetricsTextfile, reg); err != nil {
			log.Warn("failed to write metrics textfile", logging.Err(err), logging.F("path", cfg.MetricsTextfile))
		}
	}
	return run, runErr
}

// printResults writes one row per result.
func printResults(w io.Writer, results []visibility.MentionResult) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tSOURCE\tMENTIONED\tSCORE\tRANK\tSENTIMENT\tCONFIDENCE\tERROR")
	for i, r := range results {
		mentioned := "no"
		if r.Mentioned {
			mentioned = "yes"
		}
		errText := "-"
		if r.Failed() {
			errText = r.ErrorCode
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
			i+1, truncateString(valueOrDash(r.SourceLabel), 40), mentioned, r.VisibilityScore,
			r.Rank, r.Sentiment, r.Confidence, errText)
	}
	tw.Flush()
}

// printSummary writes the aggregate block and the advice line.
func printSummary(w io.Writer, s visibility.RunSummary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Units:          %d (%d evaluated)\n", s.TotalUnits, s.SuccessfulUnits)
	fmt.Fprintf(w, "Mentioned:      %d\n", s.MentionedCount)
	fmt.Fprintf(w, "Mention rate:   %.1f%%\n", s.MentionRate)
	fmt.Fprintf(w, "Average score:  %.1f\n", s.AverageScore)
	fmt.Fprintf(w, "Sentiment:      %d positive, %d negative, %d neutral\n",
		s.SentimentBreakdown.Positive, s.SentimentBreakdown.Negative, s.SentimentBreakdown.Neutral)
	if s.BestResult != nil {
		fmt.Fprintf(w, "Best unit:      #%d %s (score %d)\n", s.BestIndex+1, valueOrDash(s.BestResult.SourceLabel), s.BestResult.VisibilityScore)
	}
	fmt.Fprintf(w, "Recommendation: %s\n", s.Recommendation)
	fmt.Fprintf(w, "  %s\n", s.Recommendation.Message())
}

func printRun(w io.Writer, run *store.Run) error {
	fmt.Fprintf(w, "Run %s for %s\n\n", run.ID, run.Target)
	printResults(w, run.Results)
	printSummary(w, run.Summary)
	return nil
}
