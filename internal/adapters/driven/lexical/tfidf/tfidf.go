// Package tfidf provides the lexical ranker: a TF-IDF model over unigrams and
// bigrams of each record's searchable text, scored by cosine similarity.
package tfidf

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/partsearch/internal/core/domain"
	"github.com/custodia-labs/partsearch/internal/core/ports/driven"
)

// Ensure Index implements the interfaces.
var (
	_ driven.Ranker     = (*Index)(nil)
	_ driven.Vocabulary = (*Index)(nil)
)

// Name is the ranker name reported in metrics.
const Name = "lexical"

// minTokenLen drops single-character tokens.
const minTokenLen = 2

// entry is one non-zero component of a sparse vector.
type entry struct {
	term   int
	weight float64
}

// posting is one document's weight for a term.
type posting struct {
	doc    int
	weight float64
}

// Index is a fitted TF-IDF model with its document-term matrix.
// It is immutable after NewIndex and safe for concurrent use.
type Index struct {
	terms    []string // sorted; position is the feature id
	vocab    map[string]int
	idf      []float64
	docs     [][]entry
	postings [][]posting
}

// Option configures an Index.
type Option func(*config)

type config struct {
	maxFeatures int
}

// WithMaxFeatures caps the vocabulary to the n most frequent terms.
// Zero or negative keeps every term.
func WithMaxFeatures(n int) Option {
	return func(c *config) { c.maxFeatures = n }
}

// NewIndex fits the model on the searchable text of records. Document i of
// the index is records[i].
func NewIndex(records []domain.Record, opts ...Option) *Index {
	cfg := config{maxFeatures: domain.DefaultMaxFeatures}
	for _, opt := range opts {
		opt(&cfg)
	}

	tokenized := make([][]string, len(records))
	df := make(map[string]int)
	freq := make(map[string]int)
	for i, rec := range records {
		grams := analyze(rec.SearchableText)
		tokenized[i] = grams
		seen := make(map[string]struct{}, len(grams))
		for _, g := range grams {
			freq[g]++
			if _, ok := seen[g]; ok {
				continue
			}
			seen[g] = struct{}{}
			df[g]++
		}
	}

	terms := selectFeatures(freq, cfg.maxFeatures)
	idx := &Index{
		terms:    terms,
		vocab:    make(map[string]int, len(terms)),
		idf:      make([]float64, len(terms)),
		docs:     make([][]entry, len(records)),
		postings: make([][]posting, len(terms)),
	}

	n := float64(len(records))
	for i, term := range terms {
		idx.vocab[term] = i
		// Smoothed IDF
		idx.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}

	for doc, grams := range tokenized {
		vec := idx.vectorize(grams)
		idx.docs[doc] = vec
		for _, e := range vec {
			idx.postings[e.term] = append(idx.postings[e.term], posting{doc: doc, weight: e.weight})
		}
	}
	return idx
}

// selectFeatures keeps the limit most frequent terms, ties broken
// alphabetically, and returns them sorted.
func selectFeatures(freq map[string]int, limit int) []string {
	terms := make([]string, 0, len(freq))
	for t := range freq {
		terms = append(terms, t)
	}
	if limit > 0 && len(terms) > limit {
		sort.Slice(terms, func(i, j int) bool {
			if freq[terms[i]] != freq[terms[j]] {
				return freq[terms[i]] > freq[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:limit]
	}
	sort.Strings(terms)
	return terms
}

// analyze cleans text and returns its unigrams followed by its bigrams.
// Stop words and short tokens are removed before bigrams are formed.
func analyze(text string) []string {
	var tokens []string
	for _, tok := range strings.Fields(domain.CleanText(text)) {
		if len(tok) < minTokenLen || domain.IsStopWord(tok) {
			continue
		}
		tokens = append(tokens, tok)
	}
	grams := make([]string, 0, 2*len(tokens))
	grams = append(grams, tokens...)
	for i := 1; i < len(tokens); i++ {
		grams = append(grams, tokens[i-1]+" "+tokens[i])
	}
	return grams
}

// vectorize builds an L2-normalised tf*idf vector over known terms.
func (x *Index) vectorize(grams []string) []entry {
	counts := make(map[int]int)
	for _, g := range grams {
		if id, ok := x.vocab[g]; ok {
			counts[id]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	vec := make([]entry, 0, len(counts))
	for id, c := range counts {
		vec = append(vec, entry{term: id, weight: float64(c) * x.idf[id]})
	}
	// Sorting first keeps the floating point sums reproducible.
	sort.Slice(vec, func(i, j int) bool { return vec[i].term < vec[j].term })

	norm := 0.0
	for _, e := range vec {
		norm += e.weight * e.weight
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i].weight /= norm
	}
	return vec
}

// Name identifies the ranker.
func (x *Index) Name() string {
	return Name
}

// Len returns the number of indexed documents.
func (x *Index) Len() int {
	return len(x.docs)
}

// VocabularySize returns the number of fitted terms.
func (x *Index) VocabularySize() int {
	return len(x.terms)
}

// Rank scores every document against the cleaned query.
func (x *Index) Rank(ctx context.Context, query string, k int, minScore float64) ([]domain.ScoredIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return x.top(x.vectorize(analyze(query)), k, minScore, -1), nil
}

// SimilarTo scores every other document against document index.
func (x *Index) SimilarTo(ctx context.Context, index, k int, minScore float64) ([]domain.ScoredIndex, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(x.docs) {
		return nil, fmt.Errorf("document %d: %w", index, domain.ErrNotFound)
	}
	return x.top(x.docs[index], k, minScore, index), nil
}

// top accumulates cosine scores through the postings and returns the k best
// at or above minScore. Document exclude is skipped.
func (x *Index) top(query []entry, k int, minScore float64, exclude int) []domain.ScoredIndex {
	out := []domain.ScoredIndex{}
	if k <= 0 || len(query) == 0 {
		return out
	}

	scores := make([]float64, len(x.docs))
	for _, q := range query {
		for _, p := range x.postings[q.term] {
			scores[p.doc] += q.weight * p.weight
		}
	}

	for doc, s := range scores {
		if doc == exclude || s <= 0 || s < minScore {
			continue
		}
		out = append(out, domain.ScoredIndex{Index: doc, Score: math.Min(s, 1)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Index < out[j].Index
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}

// Complete returns vocabulary terms extending prefix, in lexical order.
func (x *Index) Complete(prefix string, limit int) []string {
	out := []string{}
	prefix = strings.ToLower(prefix)
	if prefix == "" || limit <= 0 {
		return out
	}
	start := sort.SearchStrings(x.terms, prefix)
	for _, term := range x.terms[start:] {
		if !strings.HasPrefix(term, prefix) || len(out) == limit {
			break
		}
		if len(term) > len(prefix) {
			out = append(out, term)
		}
	}
	return out
}
