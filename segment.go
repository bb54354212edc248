package bias

import (
	"fmt"
	"strings"
	"sync"

	"gopkg.in/neurosnap/sentences.v1"
	"gopkg.in/neurosnap/sentences.v1/english"
)

var (
	segmenterOnce sync.Once
	segmenter     *sentences.DefaultSentenceTokenizer
	segmenterErr  error
)

func englishSegmenter() (*sentences.DefaultSentenceTokenizer, error) {
	segmenterOnce.Do(func() {
		segmenter, segmenterErr = english.NewSentenceTokenizer(nil)
	})
	return segmenter, segmenterErr
}

// SplitSentences splits text into sentences with the punkt English model.
// Sentences are trimmed and blank ones are dropped.
func SplitSentences(text string) ([]string, error) {
	seg, err := englishSegmenter()
	if err != nil {
		return nil, fmt.Errorf("load sentence model: %w", err)
	}

	var out []string
	for _, s := range seg.Tokenize(text) {
		if trimmed := strings.TrimSpace(s.Text); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out, nil
}
