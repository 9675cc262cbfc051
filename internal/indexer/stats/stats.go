// Package stats computes per-document term counts and per-term document
// frequencies over a tokenized corpus.
package stats

import (
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/weighting"
)

// TermFrequencyTable holds raw term counts per document. Documents keep
// corpus order; a document without tokens still has an (empty) row.
type TermFrequencyTable struct {
	docIDs []int64
	rows   map[int64]map[string]int
}

// DocIDs returns a copy of the document ids in corpus order.
func (t *TermFrequencyTable) DocIDs() []int64 {
	out := make([]int64, len(t.docIDs))
	copy(out, t.docIDs)
	return out
}

// Len returns the number of documents.
func (t *TermFrequencyTable) Len() int {
	return len(t.docIDs)
}

// Count returns how often term occurs in docID, zero if never.
func (t *TermFrequencyTable) Count(docID int64, term string) int {
	return t.rows[docID][term]
}

// Row returns the term counts of docID. The map is shared and must not be
// modified.
func (t *TermFrequencyTable) Row(docID int64) map[string]int {
	return t.rows[docID]
}

// MaxCount returns the largest count in the row of docID.
func (t *TermFrequencyTable) MaxCount(docID int64) int {
	max := 0
	for _, c := range t.rows[docID] {
		if c > max {
			max = c
		}
	}
	return max
}

// DocumentFrequencyTable holds, per term, the number of documents that
// contain it at least once.
type DocumentFrequencyTable struct {
	df        map[string]int
	totalDocs int
}

// DF returns the document frequency of term, zero if unseen.
func (d *DocumentFrequencyTable) DF(term string) int {
	return d.df[term]
}

// TotalDocs returns the number of documents in the corpus.
func (d *DocumentFrequencyTable) TotalDocs() int {
	return d.totalDocs
}

// Len returns the vocabulary size.
func (d *DocumentFrequencyTable) Len() int {
	return len(d.df)
}

// Terms returns the vocabulary in ascending order.
func (d *DocumentFrequencyTable) Terms() []string {
	terms := make([]string, 0, len(d.df))
	for term := range d.df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// IDF computes ln(N/df) for every term, where N is the document count.
func (d *DocumentFrequencyTable) IDF() IDFTable {
	idf := make(IDFTable, len(d.df))
	for term, df := range d.df {
		idf[term] = weighting.IDF(d.totalDocs, df)
	}
	return idf
}

// IDFTable maps a corpus term to its inverse document frequency.
type IDFTable map[string]float64

// Get returns the idf of term. Terms outside the corpus vocabulary weigh 0.
func (t IDFTable) Get(term string) float64 {
	return t[term]
}

// Stats bundles the two tables produced from one corpus.
type Stats struct {
	TF *TermFrequencyTable
	DF *DocumentFrequencyTable
}

// Build counts terms in a single pass over docs. It fails on an empty corpus
// or duplicate document ids.
func Build(docs []corpus.Document) (*Stats, error) {
	if err := corpus.ValidateDocuments(docs); err != nil {
		return nil, fmt.Errorf("building term statistics: %w", err)
	}
	tf := &TermFrequencyTable{
		docIDs: make([]int64, 0, len(docs)),
		rows:   make(map[int64]map[string]int, len(docs)),
	}
	df := &DocumentFrequencyTable{
		df:        make(map[string]int),
		totalDocs: len(docs),
	}
	for _, doc := range docs {
		row := make(map[string]int)
		for _, token := range doc.Tokens {
			row[token]++
		}
		for term := range row {
			df.df[term]++
		}
		tf.docIDs = append(tf.docIDs, doc.ID)
		tf.rows[doc.ID] = row
	}
	return &Stats{TF: tf, DF: df}, nil
}
