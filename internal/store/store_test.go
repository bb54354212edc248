package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tsawler/bias"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return s
}

func measureDoctor(t *testing.T) *bias.Result {
	t.Helper()
	m := bias.NewMeasurer(bias.DefaultDemographicGroups(), bias.DefaultTargetGroups())
	res, err := m.Measure(context.Background(), []string{"She is a doctor.", "He is a doctor."}, "professions")
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	return res
}

func TestSaveAndLoadRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	res := measureDoctor(t)

	if err := s.SaveResult(ctx, "doctors.txt", res); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	run := runs[0]
	if run.RunID != res.RunID || run.Source != "doctors.txt" || run.TargetGroup != "professions" {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.SentenceCount != 2 || run.TokenCount != res.TokenCount {
		t.Errorf("unexpected counts: %+v", run)
	}
	if !run.StartedAt.Equal(res.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", run.StartedAt, res.StartedAt)
	}

	counts, err := s.DemographicCounts(ctx, res.RunID)
	if err != nil {
		t.Fatalf("DemographicCounts failed: %v", err)
	}
	if counts["female"] != 1 || counts["male"] != 1 || len(counts) != 2 {
		t.Errorf("unexpected demographic counts: %v", counts)
	}

	cells, err := s.LoadCells(ctx, res.RunID)
	if err != nil {
		t.Fatalf("LoadCells failed: %v", err)
	}
	terms := res.Cooccurrence.Terms()
	if len(cells) != len(terms)*2 {
		t.Fatalf("expected %d cells, got %d", len(terms)*2, len(cells))
	}
	for _, c := range cells {
		want := res.Cooccurrence.Get(c.Term, c.Group)
		if c.Value != want {
			t.Errorf("cell (%s, %s) = %d, want %d", c.Term, c.Group, c.Value, want)
		}
	}
	if cells[0].Term != "doctor" || cells[0].Group != "female" || cells[0].Value != 1 {
		t.Errorf("unexpected first cell: %+v", cells[0])
	}
}

func TestListRunsLimit(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for i := 0; i < 3; i++ {
		if err := s.SaveResult(ctx, "corpus.txt", measureDoctor(t)); err != nil {
			t.Fatalf("SaveResult failed: %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].StartedAt.Before(runs[1].StartedAt) {
		t.Errorf("runs not ordered newest first: %v then %v", runs[0].StartedAt, runs[1].StartedAt)
	}
}

func TestLoadCellsUnknownRun(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.LoadCells(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.DemographicCounts(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveResultRejectsIncomplete(t *testing.T) {
	s := openTestStore(t)
	if err := s.SaveResult(context.Background(), "x", &bias.Result{RunID: "r"}); err == nil {
		t.Fatal("expected error for result without matrix")
	}
}

func TestReopenKeepsMigrations(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := s.SaveResult(ctx, "a.txt", measureDoctor(t)); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()
	if s.Path() != path {
		t.Errorf("Path() = %q, want %q", s.Path(), path)
	}

	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run after reopen, got %d", len(runs))
	}
}
