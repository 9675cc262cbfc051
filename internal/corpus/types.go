// Package corpus defines the token-annotated documents, queries and
// relevance judgments that make up one test collection.
package corpus

import "sort"

// Document is one corpus entry after language processing.
type Document struct {
	ID     int64    `json:"doc_id"`
	Tokens []string `json:"tokens"`
}

// Query is one information need after language processing.
type Query struct {
	ID     int64    `json:"query_id"`
	Tokens []string `json:"tokens"`
}

// RelevanceSet maps a query id to the ids of its relevant documents.
type RelevanceSet map[int64]map[int64]struct{}

// NewRelevanceSet builds a RelevanceSet from query id -> doc id lists.
// Duplicate ids collapse.
func NewRelevanceSet(judgments map[int64][]int64) RelevanceSet {
	rs := make(RelevanceSet, len(judgments))
	for queryID, docIDs := range judgments {
		docs := make(map[int64]struct{}, len(docIDs))
		for _, id := range docIDs {
			docs[id] = struct{}{}
		}
		rs[queryID] = docs
	}
	return rs
}

// Relevant returns the relevant documents for queryID and whether the query
// has an entry at all.
func (rs RelevanceSet) Relevant(queryID int64) (map[int64]struct{}, bool) {
	docs, ok := rs[queryID]
	return docs, ok
}

// QueryIDs returns the judged query ids in ascending order.
func (rs RelevanceSet) QueryIDs() []int64 {
	ids := make([]int64, 0, len(rs))
	for id := range rs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Collection bundles everything one evaluation run reads.
type Collection struct {
	Name      string
	Documents []Document
	Queries   []Query
	Relevance RelevanceSet
}

// DocIDs returns the document ids in corpus order.
func DocIDs(docs []Document) []int64 {
	ids := make([]int64, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids
}
