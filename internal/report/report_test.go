package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tsawler/bias"
)

func doctorResult(t *testing.T) *bias.Result {
	t.Helper()
	m := bias.NewMeasurer(bias.DefaultDemographicGroups(), bias.DefaultTargetGroups())
	res, err := m.Measure(context.Background(), []string{"She is a doctor.", "He is a doctor."}, "professions")
	if err != nil {
		t.Fatalf("Measure failed: %v", err)
	}
	return res
}

const (
	expectedDemographicCSV  = "demographic_group,values\nfemale,1\nmale,1\n"
	expectedCooccurrenceCSV = "professions,female,male\n" +
		"doctor,1,1\n" +
		"engineer,0,0\n" +
		"nurse,0,0\n" +
		"physician,0,0\n" +
		"professor,0,0\n"
)

func TestWriteCSV(t *testing.T) {
	res := doctorResult(t)

	var buf bytes.Buffer
	if err := WriteDemographicCSV(&buf, res.Demographics); err != nil {
		t.Fatalf("WriteDemographicCSV failed: %v", err)
	}
	if buf.String() != expectedDemographicCSV {
		t.Errorf("expected %q, got %q", expectedDemographicCSV, buf.String())
	}

	buf.Reset()
	if err := WriteCooccurrenceCSV(&buf, res.Cooccurrence); err != nil {
		t.Fatalf("WriteCooccurrenceCSV failed: %v", err)
	}
	if buf.String() != expectedCooccurrenceCSV {
		t.Errorf("expected %q, got %q", expectedCooccurrenceCSV, buf.String())
	}

	if err := WriteCooccurrenceCSV(&buf, nil); err == nil {
		t.Error("expected error for nil matrix")
	}
}

func TestSaveCSV(t *testing.T) {
	res := doctorResult(t)
	dir := filepath.Join(t.TempDir(), "results")

	paths, err := SaveCSV(dir, res)
	if err != nil {
		t.Fatalf("SaveCSV failed: %v", err)
	}

	expected := map[string]string{
		filepath.Join(dir, DemographicFile):  expectedDemographicCSV,
		filepath.Join(dir, CooccurrenceFile): expectedCooccurrenceCSV,
	}
	if len(paths) != len(expected) {
		t.Fatalf("expected %d paths, got %v", len(expected), paths)
	}
	for _, p := range paths {
		want, ok := expected[p]
		if !ok {
			t.Errorf("unexpected path %s", p)
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		if string(data) != want {
			t.Errorf("%s: expected %q, got %q", p, want, data)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	res := doctorResult(t)

	var buf bytes.Buffer
	if err := WriteJSON(&buf, res); err != nil {
		t.Fatalf("WriteJSON failed: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.RunID != res.RunID || doc.TargetGroup != "professions" {
		t.Errorf("unexpected header fields: %+v", doc)
	}
	if doc.Demographics["female"] != 1 || doc.Demographics["male"] != 1 {
		t.Errorf("unexpected demographic stats %v", doc.Demographics)
	}
	if doc.Cooccurrence["doctor"]["male"] != 1 || doc.Cooccurrence["nurse"]["female"] != 0 {
		t.Errorf("unexpected matrix %v", doc.Cooccurrence)
	}
	if _, ok := doc.Cooccurrence["engineer"]["female"]; !ok {
		t.Error("expected zero cells to be present")
	}
	if len(doc.Issues) != 0 {
		t.Errorf("expected no issues, got %v", doc.Issues)
	}
}

func TestNewDocumentIssues(t *testing.T) {
	res := doctorResult(t)
	res.TargetIssues = []bias.DictionaryIssue{{Kind: bias.IssueStopWord, Group: "roles", Term: "the"}}

	doc := NewDocument(res)
	if len(doc.Issues) != 1 || !strings.HasPrefix(doc.Issues[0], "target: ") {
		t.Errorf("unexpected issues %v", doc.Issues)
	}
}

func TestRender(t *testing.T) {
	res := doctorResult(t)

	tests := []struct {
		name     string
		out      string
		expected []string
	}{
		{
			name:     "Demographic plain",
			out:      RenderDemographic(res.Demographics, StylePlain),
			expected: []string{"demographic_group", "values", "female", "male"},
		},
		{
			name:     "Co-occurrence rounded",
			out:      RenderCooccurrence(res.Cooccurrence, StyleRounded),
			expected: []string{"professions", "doctor", "professor", "total", "╭"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lower := strings.ToLower(tt.out)
			for _, want := range tt.expected {
				if !strings.Contains(lower, strings.ToLower(want)) {
					t.Errorf("expected output to contain %q, got:\n%s", want, tt.out)
				}
			}
		})
	}

	if RenderCooccurrence(nil, StylePlain) != "" {
		t.Error("expected empty output for nil matrix")
	}
}

func TestStyleForNonTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if StyleFor(f) != StylePlain {
		t.Error("expected plain style for a regular file")
	}
	if StyleFor(nil) != StylePlain {
		t.Error("expected plain style for nil")
	}
}
