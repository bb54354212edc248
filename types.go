package bias

import (
	"errors"
	"sort"
	"time"
)

// ErrInvalidArgument is returned when a caller asks for something the
// configured dictionaries do not contain, such as an unknown target group.
var ErrInvalidArgument = errors.New("invalid argument")

// A Token represents an individual token of text such as a word or punctuation
// symbol.
type Token struct {
	Text string // The token's actual content.
}

// A Sentence represents one unit of input text and its normalized words.
type Sentence struct {
	Text   string   // The sentence's original text.
	Tokens []string // Lowercase word tokens, punctuation removed.
}

// String returns the text content of the sentence
func (s Sentence) String() string {
	return s.Text
}

// Counts returns how many times each token occurs in the sentence.
func (s Sentence) Counts() map[string]int {
	counts := make(map[string]int, len(s.Tokens))
	for _, tok := range s.Tokens {
		counts[tok]++
	}
	return counts
}

// A Corpus is an ordered sequence of tokenized sentences.
type Corpus []Sentence

// NewCorpus tokenizes every sentence once with tok. A nil tokenizer selects
// the default one.
func NewCorpus(sentences []string, tok Tokenizer) Corpus {
	if tok == nil {
		tok = defaultTokenizer
	}
	corpus := make(Corpus, 0, len(sentences))
	for _, text := range sentences {
		corpus = append(corpus, Sentence{Text: text, Tokens: tok.Words(text)})
	}
	return corpus
}

// TokenCount returns the number of word tokens across all sentences.
func (c Corpus) TokenCount() int {
	n := 0
	for _, s := range c {
		n += len(s.Tokens)
	}
	return n
}

// Cell addresses one entry of a co-occurrence matrix.
type Cell struct {
	Term  string // Target term (row).
	Group string // Demographic group (column).
}

// DemographicStats holds the number of corpus tokens belonging to each
// demographic group. Every group of the dictionary is present, with 0 when
// none of its terms occur.
type DemographicStats struct {
	groups []string
	counts map[string]int
}

// Count returns the count for group, or 0 if the group is unknown.
func (s DemographicStats) Count(group string) int {
	return s.counts[group]
}

// Groups returns the group names in sorted order.
func (s DemographicStats) Groups() []string {
	return append([]string(nil), s.groups...)
}

// Total returns the sum of all group counts.
func (s DemographicStats) Total() int {
	total := 0
	for _, v := range s.counts {
		total += v
	}
	return total
}

// Map returns a copy of the counts keyed by group.
func (s DemographicStats) Map() map[string]int {
	m := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		m[k] = v
	}
	return m
}

// CooccurrenceMatrix holds the summed per-sentence products of demographic
// group occurrences and target term occurrences.
//
// For each sentence and each (term, group) pair the contribution is the
// number of tokens belonging to group times the number of occurrences of
// term. A sentence mentioning "doctor" three times and "she" twice adds 6
// to (doctor, female). This counts mention pairs, not sentences.
type CooccurrenceMatrix struct {
	targetGroup string
	terms       []string
	groups      []string
	cells       map[Cell]int
}

func newCooccurrenceMatrix(targetGroup string, terms, groups []string) *CooccurrenceMatrix {
	m := &CooccurrenceMatrix{
		targetGroup: targetGroup,
		terms:       uniqueSorted(terms),
		groups:      append([]string(nil), groups...),
		cells:       make(map[Cell]int, len(terms)*len(groups)),
	}
	for _, term := range m.terms {
		for _, group := range m.groups {
			m.cells[Cell{Term: term, Group: group}] = 0
		}
	}
	return m
}

// Get returns the value at (term, group). Missing cells are 0.
func (m *CooccurrenceMatrix) Get(term, group string) int {
	return m.cells[Cell{Term: term, Group: group}]
}

// TargetGroup returns the name of the target group the matrix was built for.
func (m *CooccurrenceMatrix) TargetGroup() string {
	return m.targetGroup
}

// Terms returns the row labels in sorted order.
func (m *CooccurrenceMatrix) Terms() []string {
	return append([]string(nil), m.terms...)
}

// Groups returns the column labels in sorted order.
func (m *CooccurrenceMatrix) Groups() []string {
	return append([]string(nil), m.groups...)
}

// Cells returns a copy of the cell values.
func (m *CooccurrenceMatrix) Cells() map[Cell]int {
	out := make(map[Cell]int, len(m.cells))
	for k, v := range m.cells {
		out[k] = v
	}
	return out
}

// Total returns the sum over all cells.
func (m *CooccurrenceMatrix) Total() int {
	total := 0
	for _, v := range m.cells {
		total += v
	}
	return total
}

func (m *CooccurrenceMatrix) merge(other *CooccurrenceMatrix) {
	for k, v := range other.cells {
		m.cells[k] += v
	}
}

// Result is the outcome of one measurement run.
type Result struct {
	RunID             string
	StartedAt         time.Time
	FinishedAt        time.Time
	SentenceCount     int
	TokenCount        int
	Demographics      DemographicStats
	Cooccurrence      *CooccurrenceMatrix
	DemographicIssues []DictionaryIssue
	TargetIssues      []DictionaryIssue
}

func uniqueSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
