package bias

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bbalet/stopwords"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// TermGroups maps a group name to the set of terms that belong to it.
//
// Two instances drive a measurement: the demographic groups (e.g. female,
// male) and the target groups (e.g. professions, adjectives). Terms are
// normalized with the same tokenizer that is applied to the corpus, so
// membership is tested by exact string equality. A TermGroups value is never
// mutated after construction.
type TermGroups struct {
	names []string
	terms map[string][]string
	raw   map[string][]string
	// multi holds terms that normalize to more than one token and so can
	// never match a single corpus token.
	multi map[string][]string
}

// NewTermGroups normalizes groups with the default tokenizer.
func NewTermGroups(groups map[string][]string) TermGroups {
	return NewTermGroupsWithTokenizer(groups, nil)
}

// NewTermGroupsWithTokenizer normalizes groups with tok. A nil tokenizer
// selects the default one.
func NewTermGroupsWithTokenizer(groups map[string][]string, tok Tokenizer) TermGroups {
	if tok == nil {
		tok = defaultTokenizer
	}

	tg := TermGroups{
		names: make([]string, 0, len(groups)),
		terms: make(map[string][]string, len(groups)),
		raw:   make(map[string][]string, len(groups)),
		multi: make(map[string][]string),
	}

	for name, list := range groups {
		tg.names = append(tg.names, name)
		tg.raw[name] = append([]string(nil), list...)

		normalized := make([]string, 0, len(list))
		for _, term := range list {
			words := tok.Words(term)
			switch len(words) {
			case 0:
				continue
			case 1:
				normalized = append(normalized, words[0])
			default:
				joined := strings.Join(words, " ")
				tg.multi[name] = append(tg.multi[name], joined)
				normalized = append(normalized, joined)
			}
		}
		tg.terms[name] = uniqueSorted(normalized)
	}
	sort.Strings(tg.names)

	return tg
}

// WithTokenizer re-normalizes the original term lists with tok.
func (tg TermGroups) WithTokenizer(tok Tokenizer) TermGroups {
	return NewTermGroupsWithTokenizer(tg.raw, tok)
}

// Groups returns the group names in sorted order.
func (tg TermGroups) Groups() []string {
	return append([]string(nil), tg.names...)
}

// Terms returns the normalized terms of group in sorted order, or nil if the
// group does not exist.
func (tg TermGroups) Terms(group string) []string {
	terms, ok := tg.terms[group]
	if !ok {
		return nil
	}
	return append([]string(nil), terms...)
}

// Has reports whether group exists.
func (tg TermGroups) Has(group string) bool {
	_, ok := tg.terms[group]
	return ok
}

// Len returns the number of groups.
func (tg TermGroups) Len() int {
	return len(tg.names)
}

// Map returns a copy of the normalized groups.
func (tg TermGroups) Map() map[string][]string {
	m := make(map[string][]string, len(tg.terms))
	for k, v := range tg.terms {
		m[k] = append([]string(nil), v...)
	}
	return m
}

// reverseIndex maps each term to the groups that contain it.
func (tg TermGroups) reverseIndex() map[string][]string {
	index := make(map[string][]string)
	for _, name := range tg.names {
		for _, term := range tg.terms[name] {
			index[term] = append(index[term], name)
		}
	}
	return index
}

// IssueKind classifies a dictionary problem.
type IssueKind string

const (
	IssueEmptyGroup    IssueKind = "empty_group"    // Group has no usable terms
	IssueMultiToken    IssueKind = "multi_token"    // Term splits into several tokens
	IssueDuplicateTerm IssueKind = "duplicate_term" // Term is listed under several groups
	IssueStopWord      IssueKind = "stop_word"      // Term is a stop word
)

// DictionaryIssue describes a problem with a term group. Issues never stop a
// measurement; an empty group simply contributes zero everywhere.
type DictionaryIssue struct {
	Kind  IssueKind
	Group string
	Term  string
}

func (i DictionaryIssue) String() string {
	switch i.Kind {
	case IssueEmptyGroup:
		return fmt.Sprintf("group %q has no terms", i.Group)
	case IssueMultiToken:
		return fmt.Sprintf("group %q: term %q spans several tokens and will never match", i.Group, i.Term)
	case IssueDuplicateTerm:
		return fmt.Sprintf("group %q: term %q also belongs to another group", i.Group, i.Term)
	case IssueStopWord:
		return fmt.Sprintf("group %q: term %q is a stop word", i.Group, i.Term)
	default:
		return fmt.Sprintf("group %q: %s %q", i.Group, i.Kind, i.Term)
	}
}

// Issues returns the structural problems of the dictionary: empty groups,
// multi-token terms and terms shared between groups.
func (tg TermGroups) Issues() []DictionaryIssue {
	var issues []DictionaryIssue
	for _, name := range tg.names {
		if len(tg.terms[name]) == 0 {
			issues = append(issues, DictionaryIssue{Kind: IssueEmptyGroup, Group: name})
		}
		for _, term := range tg.multi[name] {
			issues = append(issues, DictionaryIssue{Kind: IssueMultiToken, Group: name, Term: term})
		}
	}

	index := tg.reverseIndex()
	terms := make([]string, 0, len(index))
	for term := range index {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for _, term := range terms {
		owners := index[term]
		if len(owners) < 2 {
			continue
		}
		for _, group := range owners {
			issues = append(issues, DictionaryIssue{Kind: IssueDuplicateTerm, Group: group, Term: term})
		}
	}
	return issues
}

// StopWordIssues reports terms that the stop word list for langCode (ISO
// 639-1, e.g. "en") would remove. Such target terms tend to dominate the
// co-occurrence matrix.
func (tg TermGroups) StopWordIssues(langCode string) []DictionaryIssue {
	var issues []DictionaryIssue
	for _, name := range tg.names {
		for _, term := range tg.terms[name] {
			if isStopWord(term, langCode) {
				issues = append(issues, DictionaryIssue{Kind: IssueStopWord, Group: name, Term: term})
			}
		}
	}
	return issues
}

// isStopWord relies on stopwords.CleanString dropping the word entirely.
func isStopWord(word, langCode string) bool {
	if strings.Contains(word, " ") {
		return false
	}
	cleaned := stopwords.CleanString(word, langCode, false)
	return strings.TrimSpace(cleaned) == ""
}

// LoadTermGroups reads a term group file. The file holds a flat mapping of
// group name to term list, encoded as JSON (.json), YAML (.yaml, .yml) or
// TOML (.toml).
func LoadTermGroups(path string) (TermGroups, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TermGroups{}, fmt.Errorf("error reading term groups file: %w", err)
	}

	groups, err := ParseTermGroups(data, filepath.Ext(path))
	if err != nil {
		return TermGroups{}, fmt.Errorf("%s: %w", path, err)
	}
	return NewTermGroups(groups), nil
}

// ParseTermGroups decodes raw term group data. ext selects the format and
// includes the leading dot.
func ParseTermGroups(data []byte, ext string) (map[string][]string, error) {
	groups := map[string][]string{}

	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(data, &groups); err != nil {
			return nil, fmt.Errorf("error parsing term groups JSON: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &groups); err != nil {
			return nil, fmt.Errorf("error parsing term groups YAML: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &groups); err != nil {
			return nil, fmt.Errorf("error parsing term groups TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported term groups format %q", ext)
	}

	if len(groups) == 0 {
		return nil, fmt.Errorf("term groups file defines no groups")
	}
	return groups, nil
}

// DefaultDemographicGroups returns the built-in gender word lists.
func DefaultDemographicGroups() TermGroups {
	return NewTermGroups(map[string][]string{
		"female": {
			"she", "daughter", "hers", "her", "mother", "woman", "girl",
			"herself", "female", "sister", "daughters", "mothers", "women",
			"girls", "females", "sisters", "aunt", "aunts", "niece", "nieces",
			"wife", "wives",
		},
		"male": {
			"he", "son", "his", "him", "father", "man", "boy", "himself",
			"male", "brother", "sons", "fathers", "men", "boys", "males",
			"brothers", "uncle", "uncles", "nephew", "nephews", "husband",
			"husbands",
		},
	})
}

// DefaultTargetGroups returns the built-in target concept word lists.
func DefaultTargetGroups() TermGroups {
	return NewTermGroups(map[string][]string{
		"adjectives":  {"reactive", "caring", "gentle", "working"},
		"professions": {"doctor", "nurse", "physician", "engineer", "professor"},
	})
}
