package report

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/tsawler/bias"
)

// Document is the JSON shape of a measurement result.
type Document struct {
	RunID         string                    `json:"run_id"`
	StartedAt     time.Time                 `json:"started_at"`
	FinishedAt    time.Time                 `json:"finished_at"`
	SentenceCount int                       `json:"sentence_count"`
	TokenCount    int                       `json:"token_count"`
	TargetGroup   string                    `json:"target_group"`
	Demographics  map[string]int            `json:"demographic_stats"`
	Cooccurrence  map[string]map[string]int `json:"cooccurrence_matrix"` // term -> group -> count
	Issues        []string                  `json:"issues,omitempty"`
}

// NewDocument converts res into its JSON shape. The matrix is dense: every
// term has an entry for every group.
func NewDocument(res *bias.Result) Document {
	doc := Document{
		RunID:         res.RunID,
		StartedAt:     res.StartedAt,
		FinishedAt:    res.FinishedAt,
		SentenceCount: res.SentenceCount,
		TokenCount:    res.TokenCount,
		Demographics:  res.Demographics.Map(),
		Cooccurrence:  map[string]map[string]int{},
	}

	if m := res.Cooccurrence; m != nil {
		doc.TargetGroup = m.TargetGroup()
		for _, term := range m.Terms() {
			row := make(map[string]int, len(m.Groups()))
			for _, group := range m.Groups() {
				row[group] = m.Get(term, group)
			}
			doc.Cooccurrence[term] = row
		}
	}

	for _, issue := range res.DemographicIssues {
		doc.Issues = append(doc.Issues, "demographic: "+issue.String())
	}
	for _, issue := range res.TargetIssues {
		doc.Issues = append(doc.Issues, "target: "+issue.String())
	}
	return doc
}

// WriteJSON writes res as indented JSON.
func WriteJSON(w io.Writer, res *bias.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(res)); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
