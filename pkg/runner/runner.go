// Package runner evaluates a batch of units concurrently and turns the
// results into a persisted, summarized run.
package runner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/otherjamesbrown/brandlens/pkg/corroborate"
	blerrors "github.com/otherjamesbrown/brandlens/pkg/errors"
	"github.com/otherjamesbrown/brandlens/pkg/fetch"
	"github.com/otherjamesbrown/brandlens/pkg/logging"
	"github.com/otherjamesbrown/brandlens/pkg/observability"
	"github.com/otherjamesbrown/brandlens/pkg/store"
	"github.com/otherjamesbrown/brandlens/pkg/visibility"
)

// TextSource supplies unit text for jobs given by URL.
type TextSource interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Job is one unit of a batch. When Unit.Text is empty and URL is set, the
// text is fetched first.
type Job struct {
	Unit visibility.EvaluationUnit `json:"unit" yaml:"unit"`
	URL  string                    `json:"url,omitempty" yaml:"url,omitempty"`
}

// Config tunes a Runner.
type Config struct {
	// Concurrency bounds the units in flight. Zero means 4.
	Concurrency int
	// UnitTimeout bounds fetch plus corroboration per unit. Zero disables it.
	UnitTimeout time.Duration
	MergePolicy corroborate.MergePolicy
	// StrictCorroboration turns provider failures into unit errors instead
	// of falling back to the local verdict.
	StrictCorroboration bool
}

// DefaultConfig returns the Runner defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		UnitTimeout: 60 * time.Second,
		MergePolicy: corroborate.PolicyPreferExternalPositive,
	}
}

// Runner drives an Engine over a batch.
type Runner struct {
	engine    *visibility.Engine
	cfg       Config
	source    TextSource
	provider  corroborate.Provider
	repo      store.Repository
	publisher observability.Publisher
	metrics   *observability.Metrics
	tracer    *observability.Tracer
	logger    logging.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithTextSource enables URL jobs.
func WithTextSource(s TextSource) Option { return func(r *Runner) { r.source = s } }

// WithProvider enables external corroboration.
func WithProvider(p corroborate.Provider) Option { return func(r *Runner) { r.provider = p } }

// WithRepository persists each run.
func WithRepository(repo store.Repository) Option { return func(r *Runner) { r.repo = repo } }

// WithPublisher publishes run events.
func WithPublisher(p observability.Publisher) Option { return func(r *Runner) { r.publisher = p } }

// WithMetrics records Prometheus metrics.
func WithMetrics(m *observability.Metrics) Option { return func(r *Runner) { r.metrics = m } }

// WithTracer sets the tracer.
func WithTracer(t *observability.Tracer) Option { return func(r *Runner) { r.tracer = t } }

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Runner around engine.
func New(engine *visibility.Engine, cfg Config, opts ...Option) *Runner {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.MergePolicy == "" {
		cfg.MergePolicy = corroborate.PolicyPreferExternalPositive
	}
	r := &Runner{
		engine:    engine,
		cfg:       cfg,
		publisher: observability.NopPublisher{},
		tracer:    observability.NewTracer(),
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates jobs against target and returns the run with results in job
// order. Unit failures are recorded in their results; the returned error is
// set only for invalid input or a persistence failure, in which case the
// run is still returned.
func (r *Runner) Run(ctx context.Context, target string, jobs []Job) (*store.Run, error) {
	if target == "" {
		return nil, fmt.Errorf("%w: target is required", blerrors.ErrInvalidInput)
	}
	start := time.Now()

	run := store.NewRun(target, nil, visibility.RunSummary{})
	ctx = logging.WithRunID(ctx, run.ID)
	log := r.logger.WithContext(ctx).With(logging.F("target", target))

	ctx, span := r.tracer.StartRunSpan(ctx, run.ID, target, len(jobs))
	defer span.End()

	id := r.engine.Expand(target)
	log.Debug("identity expanded",
		logging.F("company", id.CompanyName),
		logging.F("short", id.ShortName),
		logging.F("variants", id.Variants),
		logging.F("aliases", id.Aliases),
	)

	results := make([]visibility.MentionResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(r.cfg.Concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			results[i] = r.processUnit(ctx, run.ID, i, job, target, id)
			return nil
		})
	}
	_ = g.Wait()

	run.Results = results
	run.Summary = visibility.Summarize(results)
	elapsed := time.Since(start)
	r.metrics.RecordRun(target, run.Summary, elapsed.Seconds())

	log.Info("run complete",
		logging.F("units", run.Summary.TotalUnits),
		logging.F("successful", run.Summary.SuccessfulUnits),
		logging.F("mention_rate", run.Summary.MentionRate),
		logging.F("average_score", run.Summary.AverageScore),
		logging.F("recommendation", run.Summary.Recommendation),
		logging.F("duration_ms", elapsed.Milliseconds()),
	)

	var persistErr error
	if r.repo != nil {
		persistErr = r.persist(ctx, run)
		if persistErr != nil {
			observability.NewSpanHelper(span).SetError(persistErr, string(blerrors.CodePersistenceFailed), true)
			log.Error("failed to persist run", logging.Err(persistErr))
		}
	}

	ev := observability.NewRunCompletedEvent(run.ID, target, run.Summary, elapsed)
	ev.TraceID = observability.GetTraceID(ctx)
	if err := r.publisher.Publish(ctx, observability.ChannelRunCompleted, ev); err != nil {
		log.Warn("failed to publish run event", logging.Err(err))
	}

	return run, persistErr
}

func (r *Runner) persist(ctx context.Context, run *store.Run) error {
	ctx, span := r.tracer.StartStageSpan(ctx, observability.SpanPersist, blerrors.StagePersist)
	defer span.End()

	start := time.Now()
	err := r.repo.SaveRun(ctx, run)
	r.metrics.RecordStage(blerrors.StagePersist, time.Since(start).Seconds())
	if err != nil {
		return blerrors.ClassifyError(err, blerrors.StagePersist)
	}
	return nil
}

// processUnit never returns an error; every failure becomes the unit's result.
func (r *Runner) processUnit(ctx context.Context, runID string, pos int, job Job, target string, id visibility.Identity) visibility.MentionResult {
	unit := job.Unit
	if unit.Target == "" {
		unit.Target = target
	}
	if unit.SourceLabel == "" && job.URL != "" {
		unit.SourceLabel = job.URL
	}

	ctx, span := r.tracer.StartUnitSpan(ctx, pos, unit.SourceLabel)
	defer span.End()
	helper := observability.NewSpanHelper(span)
	log := r.logger.WithContext(ctx).With(logging.F("position", pos), logging.F("source_label", unit.SourceLabel))

	if r.cfg.UnitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.UnitTimeout)
		defer cancel()
	}

	report := func(res visibility.MentionResult, stage string) visibility.MentionResult {
		log.Warn("unit failed", logging.F("stage", stage), logging.F("code", res.ErrorCode), logging.F("error", res.Error))
		r.metrics.RecordUnit(res)
		if err := r.publisher.Publish(ctx, observability.ChannelUnitFailed, observability.NewUnitFailedEvent(runID, pos, res)); err != nil {
			log.Warn("failed to publish unit event", logging.Err(err))
		}
		return res
	}
	fail := func(err error, stage string) visibility.MentionResult {
		ue := blerrors.ClassifyError(err, stage)
		helper.SetError(ue, string(ue.Code), blerrors.IsRetryable(ue.Code))
		return report(visibility.FailedResult(unit, ue), stage)
	}

	if err := ctx.Err(); err != nil {
		return fail(err, blerrors.StageEvaluate)
	}

	if unit.Text == "" && job.URL != "" {
		text, err := r.fetchText(ctx, job.URL)
		if err != nil {
			return fail(err, blerrors.StageFetch)
		}
		unit.Text = text
	}

	start := time.Now()
	result := r.engine.Evaluate(unit, id)
	r.metrics.RecordStage(blerrors.StageEvaluate, time.Since(start).Seconds())
	if result.Failed() {
		return report(result, blerrors.StageEvaluate)
	}

	if r.needsCorroboration(result) {
		merged, err := r.corroborate(ctx, unit, target, result)
		if err != nil {
			if r.cfg.StrictCorroboration {
				return fail(err, blerrors.StageCorroborate)
			}
			log.Warn("corroboration failed, keeping local verdict", logging.Err(err))
		} else {
			result = merged
		}
	}

	helper.SetResult(result)
	helper.SetSuccess()
	r.metrics.RecordUnit(result)
	return result
}

func (r *Runner) fetchText(ctx context.Context, url string) (string, error) {
	if r.source == nil {
		return "", fmt.Errorf("%w: no text source configured for %s", blerrors.ErrInvalidInput, url)
	}
	ctx, span := r.tracer.StartStageSpan(ctx, observability.SpanFetch, blerrors.StageFetch)
	defer span.End()

	start := time.Now()
	page, err := r.source.Fetch(ctx, url)
	r.metrics.RecordStage(blerrors.StageFetch, time.Since(start).Seconds())
	if err != nil {
		r.metrics.RecordFetch("failed")
		return "", err
	}
	r.metrics.RecordFetch("ok")
	return page.Text, nil
}

// needsCorroboration skips the call when the policy cannot change the result.
func (r *Runner) needsCorroboration(local visibility.MentionResult) bool {
	if r.provider == nil {
		return false
	}
	switch r.cfg.MergePolicy {
	case corroborate.PolicyLocal:
		return false
	case corroborate.PolicyPreferExternalPositive:
		return !local.Mentioned
	}
	return true
}

func (r *Runner) corroborate(ctx context.Context, unit visibility.EvaluationUnit, target string, local visibility.MentionResult) (visibility.MentionResult, error) {
	ctx, span := r.tracer.StartStageSpan(ctx, observability.SpanCorroborate, blerrors.StageCorroborate)
	defer span.End()

	start := time.Now()
	j, err := r.provider.Judge(ctx, unit.Text, target)
	elapsed := time.Since(start).Seconds()
	r.metrics.RecordStage(blerrors.StageCorroborate, elapsed)
	if err != nil {
		r.metrics.RecordCorroboration(r.provider.Name(), "failed", elapsed)
		return local, err
	}
	r.metrics.RecordCorroboration(r.provider.Name(), "ok", elapsed)
	return corroborate.Merge(local, j, r.cfg.MergePolicy), nil
}
