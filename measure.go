package bias

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// A MeasureOpt represents a setting that changes how a Measurer works.
//
// For example, it might spread the co-occurrence pass across four workers:
//
//	m := bias.NewMeasurer(demographic, target, bias.WithWorkers(4))
type MeasureOpt func(opts *MeasureOpts)

// MeasureOpts controls a Measurer.
type MeasureOpts struct {
	Tokenizer        Tokenizer              // Tokenizer applied to the corpus and the dictionaries
	Logger           *slog.Logger           // Receives dictionary warnings and run summaries
	Workers          int                    // Co-occurrence workers; 1 means sequential
	ProgressCallback func(progress float64) // Progress reporting callback
	StopWordLanguage string                 // ISO 639-1 code for target stop word checks; empty disables them

	customTokenizer bool
}

// UsingTokenizer specifies the Tokenizer to use. Dictionary terms are
// re-normalized with it so that they stay comparable with corpus tokens.
func UsingTokenizer(tok Tokenizer) MeasureOpt {
	return func(opts *MeasureOpts) {
		if tok != nil {
			opts.Tokenizer = tok
			opts.customTokenizer = true
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) MeasureOpt {
	return func(opts *MeasureOpts) {
		if logger != nil {
			opts.Logger = logger
		}
	}
}

// WithWorkers sets the number of co-occurrence workers. Values below 1 are
// treated as 1.
func WithWorkers(n int) MeasureOpt {
	return func(opts *MeasureOpts) {
		if n < 1 {
			n = 1
		}
		opts.Workers = n
	}
}

// WithProgressCallback sets a progress reporting callback
func WithProgressCallback(callback func(float64)) MeasureOpt {
	return func(opts *MeasureOpts) {
		opts.ProgressCallback = callback
	}
}

// WithStopWordLanguage selects the stop word list used to flag target terms.
func WithStopWordLanguage(langCode string) MeasureOpt {
	return func(opts *MeasureOpts) {
		opts.StopWordLanguage = langCode
	}
}

func defaultMeasureOpts() MeasureOpts {
	return MeasureOpts{
		Tokenizer:        defaultTokenizer,
		Logger:           slog.New(slog.DiscardHandler),
		Workers:          1,
		StopWordLanguage: "en",
	}
}

// A Measurer computes demographic frequencies and target co-occurrences for
// corpora, using dictionaries fixed at construction.
type Measurer struct {
	demographic TermGroups
	target      TermGroups
	opts        MeasureOpts
}

// NewMeasurer creates a Measurer for the given dictionaries.
//
// For example,
//
//	m := bias.NewMeasurer(bias.DefaultDemographicGroups(), bias.DefaultTargetGroups())
//	res, err := m.Measure(ctx, sentences, "professions")
func NewMeasurer(demographic, target TermGroups, opts ...MeasureOpt) *Measurer {
	base := defaultMeasureOpts()
	for _, applyOpt := range opts {
		applyOpt(&base)
	}

	if base.customTokenizer {
		demographic = demographic.WithTokenizer(base.Tokenizer)
		target = target.WithTokenizer(base.Tokenizer)
	}

	return &Measurer{
		demographic: demographic,
		target:      target,
		opts:        base,
	}
}

// Demographic returns the demographic dictionary.
func (m *Measurer) Demographic() TermGroups {
	return m.demographic
}

// Target returns the target dictionary.
func (m *Measurer) Target() TermGroups {
	return m.target
}

// Issues returns the dictionary problems of the demographic and target
// dictionaries.
func (m *Measurer) Issues() (demographic, target []DictionaryIssue) {
	demographic = m.demographic.Issues()
	target = m.target.Issues()
	if m.opts.StopWordLanguage != "" {
		target = append(target, m.target.StopWordIssues(m.opts.StopWordLanguage)...)
	}
	return demographic, target
}

// Tokenize builds a corpus from pre-split sentences.
func (m *Measurer) Tokenize(sentences []string) Corpus {
	return NewCorpus(sentences, m.opts.Tokenizer)
}

// DemographicStats counts demographic group occurrences in corpus.
func (m *Measurer) DemographicStats(corpus Corpus) DemographicStats {
	return ComputeDemographicStats(corpus, m.demographic)
}

// Cooccurrence builds the co-occurrence matrix for targetGroup.
func (m *Measurer) Cooccurrence(ctx context.Context, corpus Corpus, targetGroup string) (*CooccurrenceMatrix, error) {
	if m.opts.Workers > 1 && len(corpus) > 1 {
		return computeCooccurrenceParallel(ctx, corpus, m.demographic, m.target, targetGroup, m.opts.Workers)
	}
	return ComputeCooccurrenceMatrix(corpus, m.demographic, m.target, targetGroup)
}

// Measure runs a full measurement over sentences: tokenization, demographic
// counts and the co-occurrence matrix for targetGroup.
//
// An unknown targetGroup fails with ErrInvalidArgument before any work is
// done. Dictionary problems are logged and recorded on the Result.
func (m *Measurer) Measure(ctx context.Context, sentences []string, targetGroup string) (*Result, error) {
	if !m.target.Has(targetGroup) {
		return nil, unknownTargetGroup(m.target, targetGroup)
	}

	res := &Result{
		RunID:         uuid.NewString(),
		StartedAt:     time.Now().UTC(),
		SentenceCount: len(sentences),
	}
	logger := m.opts.Logger.With("run_id", res.RunID)

	res.DemographicIssues, res.TargetIssues = m.Issues()
	for _, issue := range res.DemographicIssues {
		logger.Warn("demographic dictionary issue", "kind", issue.Kind, "detail", issue.String())
	}
	for _, issue := range res.TargetIssues {
		logger.Warn("target dictionary issue", "kind", issue.Kind, "detail", issue.String())
	}

	reportProgress := func(p float64) {
		if m.opts.ProgressCallback != nil {
			m.opts.ProgressCallback(p)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	corpus := m.Tokenize(sentences)
	res.TokenCount = corpus.TokenCount()
	logger.Debug("corpus tokenized", "sentences", len(corpus), "tokens", res.TokenCount)
	reportProgress(0.25)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res.Demographics = m.DemographicStats(corpus)
	reportProgress(0.5)

	matrix, err := m.Cooccurrence(ctx, corpus, targetGroup)
	if err != nil {
		return nil, fmt.Errorf("measure %q: %w", targetGroup, err)
	}
	res.Cooccurrence = matrix
	reportProgress(1.0)

	res.FinishedAt = time.Now().UTC()
	logger.Info("measurement complete",
		"target_group", targetGroup,
		"sentences", res.SentenceCount,
		"tokens", res.TokenCount,
		"duration", res.FinishedAt.Sub(res.StartedAt))

	return res, nil
}
