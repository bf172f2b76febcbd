package visibility

import (
	"fmt"
	"runtime/debug"
	"unicode/utf8"

	blerrors "github.com/otherjamesbrown/brandlens/pkg/errors"
	"github.com/otherjamesbrown/brandlens/pkg/logging"
)

// Engine wires the expander, detector, scorer, rank extractor, and sentiment
// classifier around one Config. It is safe for concurrent use.
type Engine struct {
	cfg       Config
	fold      folder
	expander  *Expander
	detector  *Detector
	scorer    *Scorer
	ranker    *RankExtractor
	sentiment *SentimentClassifier
	logger    logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for debug output.
func WithLogger(l logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewEngine validates cfg and builds an Engine.
func NewEngine(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	e := &Engine{
		cfg:       cfg,
		fold:      newFolder(cfg.Language),
		expander:  NewExpander(cfg),
		detector:  NewDetector(cfg),
		scorer:    NewScorer(cfg),
		ranker:    NewRankExtractor(cfg),
		sentiment: NewSentimentClassifier(cfg),
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the validated configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Expand returns the Identity for a target.
func (e *Engine) Expand(target string) Identity {
	return e.expander.Expand(target)
}

// Evaluate scores one unit against id. Failures are returned as an
// error-bearing result rather than an error.
func (e *Engine) Evaluate(unit EvaluationUnit, id Identity) (result MentionResult) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("%w: %v", blerrors.ErrClassification, p)
			e.logger.Debug("unit evaluation panicked",
				logging.F("source_label", unit.SourceLabel),
				logging.Err(err),
				logging.F("stack", string(debug.Stack())),
			)
			result = FailedResult(unit, blerrors.ClassifyError(err, blerrors.StageEvaluate))
		}
	}()

	if !utf8.ValidString(unit.Text) {
		err := fmt.Errorf("%w in unit text", blerrors.ErrEncoding)
		return FailedResult(unit, blerrors.ClassifyError(err, blerrors.StageEvaluate))
	}

	text := e.fold.Fold(unit.Text)
	det := e.detector.detectFolded(text, id)

	result = MentionResult{
		Mentioned:   det.Mentioned,
		Rank:        RankNotRanked,
		Sentiment:   SentimentNeutral,
		Confidence:  ConfidenceFor(det.Signals),
		Signals:     det.Signals,
		SourceLabel: unit.SourceLabel,
		Timestamp:   unit.Timestamp,
	}
	if det.Mentioned {
		result.VisibilityScore = e.scorer.scoreFolded(text, id, det.Signals)
		if e.scorer.hasPositiveContext(text, id) {
			result.Signals.Add(Signal{Kind: SignalPositiveContext})
		}
		result.Rank = e.ranker.extractFolded(text, id)
		result.Sentiment = e.sentiment.classifyFolded(text, true)
	}

	e.logger.Debug("unit evaluated",
		logging.F("source_label", unit.SourceLabel),
		logging.F("mentioned", result.Mentioned),
		logging.F("score", result.VisibilityScore),
		logging.F("signals", result.Signals.Strings()),
	)
	return result
}

// EvaluateAll evaluates units in order. Each distinct target is expanded once.
func (e *Engine) EvaluateAll(units []EvaluationUnit) []MentionResult {
	identities := make(map[string]Identity)
	results := make([]MentionResult, len(units))
	for i, u := range units {
		id, ok := identities[u.Target]
		if !ok {
			id = e.Expand(u.Target)
			identities[u.Target] = id
		}
		results[i] = e.Evaluate(u, id)
	}
	return results
}

// FailedResult converts a unit error into its result record.
func FailedResult(unit EvaluationUnit, ue *blerrors.UnitError) MentionResult {
	return ErrorResult(unit, string(ue.Code), ue.Error())
}
