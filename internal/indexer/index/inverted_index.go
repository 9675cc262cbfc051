package index

import "sort"

// InvertedIndex maps a term to the documents that carry it with a positive
// weight. It is immutable once built and safe for concurrent readers.
//
// An index may also carry a baseline: a weight every document gives every
// term of the vocabulary, factored as Baseline(doc) * TermScale(term). The
// full weight of a term in a document is that product plus its posting.
type InvertedIndex struct {
	postings map[string]PostingList
	baseline map[int64]float64
	scale    map[string]float64
	docCount int
	size     int
}

// Builder accumulates postings for one InvertedIndex. It is not safe for
// concurrent use.
type Builder struct {
	postings map[string]PostingList
	baseline map[int64]float64
	scale    map[string]float64
	docs     map[int64]struct{}
	size     int
}

// NewBuilder returns an empty Builder sized for roughly terms entries.
func NewBuilder(terms int) *Builder {
	return &Builder{
		postings: make(map[string]PostingList, terms),
		docs:     make(map[int64]struct{}),
	}
}

// Add appends p to the postings of term. Non-positive weights are dropped.
func (b *Builder) Add(term string, p Posting) {
	if p.Weight <= 0 {
		return
	}
	b.postings[term] = append(b.postings[term], p)
	b.docs[p.DocID] = struct{}{}
	b.size++
}

// SetBaseline records the baseline factor of docID. Non-positive factors
// are dropped.
func (b *Builder) SetBaseline(docID int64, factor float64) {
	if factor <= 0 {
		return
	}
	if b.baseline == nil {
		b.baseline = make(map[int64]float64)
	}
	b.baseline[docID] = factor
	b.docs[docID] = struct{}{}
}

// SetTermScale records the baseline factor of term. Non-positive factors
// are dropped.
func (b *Builder) SetTermScale(term string, factor float64) {
	if factor <= 0 {
		return
	}
	if b.scale == nil {
		b.scale = make(map[string]float64)
	}
	b.scale[term] = factor
}

// Build finalizes the index. Lists added out of doc id order are sorted.
func (b *Builder) Build() *InvertedIndex {
	for _, list := range b.postings {
		if !sort.SliceIsSorted(list, func(i, j int) bool { return list[i].DocID < list[j].DocID }) {
			sort.Slice(list, func(i, j int) bool { return list[i].DocID < list[j].DocID })
		}
	}
	idx := &InvertedIndex{
		postings: b.postings,
		docCount: len(b.docs),
		size:     b.size,
	}
	if len(b.baseline) > 0 && len(b.scale) > 0 {
		idx.baseline = b.baseline
		idx.scale = b.scale
	}
	b.postings = make(map[string]PostingList)
	b.baseline = nil
	b.scale = nil
	b.docs = make(map[int64]struct{})
	b.size = 0
	return idx
}

// Postings returns the postings of term, nil when the term is not indexed.
// The list is shared and must not be modified.
func (x *InvertedIndex) Postings(term string) PostingList {
	return x.postings[term]
}

// HasBaseline reports whether the index carries a baseline.
func (x *InvertedIndex) HasBaseline() bool {
	return x.baseline != nil
}

// Baseline returns the baseline factor of docID, zero when it has none.
func (x *InvertedIndex) Baseline(docID int64) float64 {
	return x.baseline[docID]
}

// TermScale returns the baseline factor of term, zero when it has none.
func (x *InvertedIndex) TermScale(term string) float64 {
	return x.scale[term]
}

// Len returns the number of indexed terms.
func (x *InvertedIndex) Len() int {
	return len(x.postings)
}

// Size returns the total number of postings. Baseline weights are not
// counted.
func (x *InvertedIndex) Size() int {
	return x.size
}

// DocCount returns how many distinct documents have a posting or a
// baseline.
func (x *InvertedIndex) DocCount() int {
	return x.docCount
}

// Terms returns the indexed terms in ascending order.
func (x *InvertedIndex) Terms() []string {
	terms := make([]string, 0, len(x.postings))
	for term := range x.postings {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Snapshot copies the index into term-ordered entries.
func (x *InvertedIndex) Snapshot() []TermEntry {
	entries := make([]TermEntry, 0, len(x.postings))
	for _, term := range x.Terms() {
		list := x.postings[term]
		postings := make(PostingList, len(list))
		copy(postings, list)
		entries = append(entries, TermEntry{
			Term:     term,
			Postings: postings,
		})
	}
	return entries
}
