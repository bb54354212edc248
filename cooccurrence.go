package bias

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// ctxCheckInterval is how many sentences a worker processes between
// cancellation checks.
const ctxCheckInterval = 512

// ComputeCooccurrenceMatrix builds the co-occurrence matrix of the target
// group's terms against every demographic group.
//
// For each sentence, the cell (term, group) grows by d*t, where d is the
// number of tokens in the sentence that belong to group and t is the number
// of times term appears in it. The sum runs over the whole corpus.
//
// It fails with ErrInvalidArgument before counting anything when targetGroup
// is not a group of target.
func ComputeCooccurrenceMatrix(corpus Corpus, demographic, target TermGroups, targetGroup string) (*CooccurrenceMatrix, error) {
	if !target.Has(targetGroup) {
		return nil, unknownTargetGroup(target, targetGroup)
	}

	m := newCooccurrenceMatrix(targetGroup, target.Terms(targetGroup), demographic.Groups())
	for _, sentence := range corpus {
		m.addSentence(sentence, demographic)
	}
	return m, nil
}

// computeCooccurrenceParallel shards the corpus across at most workers
// goroutines. Each shard fills its own partial matrix and the partials are
// summed once all shards are done, so no accumulator is shared.
func computeCooccurrenceParallel(ctx context.Context, corpus Corpus, demographic, target TermGroups, targetGroup string, workers int) (*CooccurrenceMatrix, error) {
	if !target.Has(targetGroup) {
		return nil, unknownTargetGroup(target, targetGroup)
	}

	terms := target.Terms(targetGroup)
	groups := demographic.Groups()

	shards := shardCorpus(corpus, workers)
	partials := make([]*CooccurrenceMatrix, len(shards))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, shard := range shards {
		g.Go(func() error {
			partial := newCooccurrenceMatrix(targetGroup, terms, groups)
			for j, sentence := range shard {
				if j%ctxCheckInterval == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				partial.addSentence(sentence, demographic)
			}
			partials[i] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("co-occurrence: %w", err)
	}

	m := newCooccurrenceMatrix(targetGroup, terms, groups)
	for _, partial := range partials {
		m.merge(partial)
	}
	return m, nil
}

// addSentence adds the contribution of one sentence. Token counts are taken
// once per sentence; cells whose contribution is zero are left untouched.
func (m *CooccurrenceMatrix) addSentence(sentence Sentence, demographic TermGroups) {
	if len(sentence.Tokens) == 0 || len(m.terms) == 0 {
		return
	}
	counts := sentence.Counts()

	for _, group := range m.groups {
		d := 0
		for _, term := range demographic.terms[group] {
			d += counts[term]
		}
		if d == 0 {
			continue
		}
		for _, term := range m.terms {
			if t := counts[term]; t > 0 {
				m.cells[Cell{Term: term, Group: group}] += d * t
			}
		}
	}
}

// shardCorpus splits corpus into at most n contiguous, roughly equal parts.
func shardCorpus(corpus Corpus, n int) []Corpus {
	if n < 1 {
		n = 1
	}
	if n > len(corpus) {
		n = len(corpus)
	}
	if n == 0 {
		return nil
	}

	shards := make([]Corpus, 0, n)
	size := (len(corpus) + n - 1) / n
	for start := 0; start < len(corpus); start += size {
		end := start + size
		if end > len(corpus) {
			end = len(corpus)
		}
		shards = append(shards, corpus[start:end])
	}
	return shards
}

func unknownTargetGroup(target TermGroups, name string) error {
	return fmt.Errorf("%w: unknown target group %q (available: %s)",
		ErrInvalidArgument, name, strings.Join(target.Groups(), ", "))
}
