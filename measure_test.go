package bias

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
)

func TestMeasure(t *testing.T) {
	var (
		mu       sync.Mutex
		progress []float64
	)
	m := NewMeasurer(DefaultDemographicGroups(), DefaultTargetGroups(),
		WithProgressCallback(func(p float64) {
			mu.Lock()
			defer mu.Unlock()
			progress = append(progress, p)
		}))

	res, err := m.Measure(context.Background(), []string{"She is a doctor.", "He is a doctor."}, "professions")
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	if res.RunID == "" {
		t.Error("expected a run ID")
	}
	if res.SentenceCount != 2 || res.TokenCount != 8 {
		t.Errorf("expected 2 sentences and 8 tokens, got %d and %d", res.SentenceCount, res.TokenCount)
	}
	if res.FinishedAt.Before(res.StartedAt) {
		t.Error("FinishedAt is before StartedAt")
	}
	if got := res.Demographics.Map(); !reflect.DeepEqual(got, map[string]int{"female": 1, "male": 1}) {
		t.Errorf("unexpected demographic stats %v", got)
	}
	if res.Cooccurrence.Get("doctor", "female") != 1 || res.Cooccurrence.Get("doctor", "male") != 1 {
		t.Errorf("unexpected doctor row: %v", res.Cooccurrence.Cells())
	}
	if !reflect.DeepEqual(progress, []float64{0.25, 0.5, 1.0}) {
		t.Errorf("unexpected progress %v", progress)
	}
}

func TestMeasureUnknownTargetGroup(t *testing.T) {
	called := false
	m := NewMeasurer(DefaultDemographicGroups(), DefaultTargetGroups(),
		WithProgressCallback(func(float64) { called = true }))

	res, err := m.Measure(context.Background(), []string{"She is a doctor."}, "animals")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	if res != nil {
		t.Error("expected nil result")
	}
	if called {
		t.Error("expected no work before validation")
	}
	if !strings.Contains(err.Error(), "adjectives, professions") {
		t.Errorf("expected error to list available groups, got %q", err)
	}
}

func TestMeasureCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMeasurer(DefaultDemographicGroups(), DefaultTargetGroups())
	if _, err := m.Measure(ctx, []string{"She is a doctor."}, "professions"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestMeasureWorkers(t *testing.T) {
	sentences := []string{
		"She is a doctor.",
		"He is a nurse and his sister is a nurse.",
		"The engineer met her.",
		"No one here.",
	}
	seq, err := NewMeasurer(DefaultDemographicGroups(), DefaultTargetGroups()).
		Measure(context.Background(), sentences, "professions")
	if err != nil {
		t.Fatal(err)
	}
	par, err := NewMeasurer(DefaultDemographicGroups(), DefaultTargetGroups(), WithWorkers(3)).
		Measure(context.Background(), sentences, "professions")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(seq.Cooccurrence.Cells(), par.Cooccurrence.Cells()) {
		t.Errorf("expected identical matrices, got %v and %v", seq.Cooccurrence.Cells(), par.Cooccurrence.Cells())
	}
}

func TestMeasureRecordsAndLogsIssues(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	target := NewTermGroups(map[string][]string{
		"roles": {"doctor", "head nurse", "the"},
	})
	m := NewMeasurer(DefaultDemographicGroups(), target, WithLogger(logger))

	res, err := m.Measure(context.Background(), []string{"She is the head nurse."}, "roles")
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}

	kinds := map[IssueKind]bool{}
	for _, issue := range res.TargetIssues {
		kinds[issue.Kind] = true
	}
	if !kinds[IssueMultiToken] || !kinds[IssueStopWord] {
		t.Errorf("expected multi_token and stop_word issues, got %v", res.TargetIssues)
	}
	if len(res.DemographicIssues) != 0 {
		t.Errorf("expected no demographic issues, got %v", res.DemographicIssues)
	}

	// A multi-token term never matches a single token.
	if got := res.Cooccurrence.Get("head nurse", "female"); got != 0 {
		t.Errorf("expected 0 for multi-token term, got %d", got)
	}

	out := buf.String()
	if !strings.Contains(out, "level=WARN") || !strings.Contains(out, "measurement complete") {
		t.Errorf("expected warnings and a summary in the log, got:\n%s", out)
	}
}

func TestMeasureStopWordLanguageDisabled(t *testing.T) {
	target := NewTermGroups(map[string][]string{"roles": {"the"}})
	m := NewMeasurer(DefaultDemographicGroups(), target, WithStopWordLanguage(""))

	if _, issues := m.Issues(); len(issues) != 0 {
		t.Errorf("expected no issues with stop word checks disabled, got %v", issues)
	}
}

// fieldsTokenizer splits on whitespace only and keeps case.
type fieldsTokenizer struct{}

func (fieldsTokenizer) Tokenize(text string) []*Token {
	var toks []*Token
	for _, f := range strings.Fields(text) {
		toks = append(toks, &Token{Text: f})
	}
	return toks
}

func (fieldsTokenizer) Words(text string) []string {
	return strings.Fields(text)
}

func TestMeasureUsingTokenizer(t *testing.T) {
	demo := NewTermGroups(map[string][]string{"female": {"She"}})
	target := NewTermGroups(map[string][]string{"roles": {"Doctor"}})

	m := NewMeasurer(demo, target, UsingTokenizer(fieldsTokenizer{}))

	// Dictionaries are re-normalized with the custom tokenizer, so case is kept.
	if got := m.Target().Terms("roles"); !reflect.DeepEqual(got, []string{"Doctor"}) {
		t.Errorf("expected [Doctor], got %v", got)
	}

	res, err := m.Measure(context.Background(), []string{"She met a Doctor", "she met a doctor"}, "roles")
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Cooccurrence.Get("Doctor", "female"); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}

func TestWithWorkersClampsToOne(t *testing.T) {
	m := NewMeasurer(DefaultDemographicGroups(), DefaultTargetGroups(), WithWorkers(-3))
	if m.opts.Workers != 1 {
		t.Errorf("expected 1 worker, got %d", m.opts.Workers)
	}
}
