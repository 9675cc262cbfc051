package indexer

import (
	"math"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer/stats"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/weighting"
)

// Cell is one stored weight; Term indexes the matrix vocabulary.
type Cell struct {
	Term   int32
	Weight float64
}

// WeightedMatrix holds document term weights. Only positive cells are
// stored, each row ordered by term column.
//
// Under augmented tf every term of a non-empty document has a weight. The
// part shared by absent terms is kept factored as base[doc] * scale[term]
// and the stored cells hold only the excess, so the matrix stays as sparse
// as the raw counts.
type WeightedMatrix struct {
	terms    []string
	docIDs   []int64
	docIndex map[int64]int
	rows     [][]Cell
	nonZero  int
	base     []float64
	scale    []float64
}

// DocIDs returns a copy of the document ids in corpus order.
func (m *WeightedMatrix) DocIDs() []int64 {
	out := make([]int64, len(m.docIDs))
	copy(out, m.docIDs)
	return out
}

// Terms returns a copy of the vocabulary in column order.
func (m *WeightedMatrix) Terms() []string {
	out := make([]string, len(m.terms))
	copy(out, m.terms)
	return out
}

// NonZero returns the number of stored cells.
func (m *WeightedMatrix) NonZero() int {
	return m.nonZero
}

// Weight returns the weight of term in docID, zero when absent.
func (m *WeightedMatrix) Weight(docID int64, term string) float64 {
	i, ok := m.docIndex[docID]
	if !ok {
		return 0
	}
	col := sort.SearchStrings(m.terms, term)
	if col >= len(m.terms) || m.terms[col] != term {
		return 0
	}
	w := m.baseline(i, col)
	row := m.rows[i]
	j := sort.Search(len(row), func(k int) bool { return row[k].Term >= int32(col) })
	if j < len(row) && row[j].Term == int32(col) {
		w += row[j].Weight
	}
	return w
}

func (m *WeightedMatrix) baseline(doc, col int) float64 {
	if m.base == nil {
		return 0
	}
	return m.base[doc] * m.scale[col]
}

// Row returns the positive weights of docID keyed by term.
func (m *WeightedMatrix) Row(docID int64) map[string]float64 {
	i, ok := m.docIndex[docID]
	if !ok {
		return nil
	}
	if m.base != nil && m.base[i] > 0 {
		out := make(map[string]float64, len(m.terms))
		for col, term := range m.terms {
			if w := m.baseline(i, col); w > 0 {
				out[term] = w
			}
		}
		for _, c := range m.rows[i] {
			out[m.terms[c.Term]] += c.Weight
		}
		return out
	}
	out := make(map[string]float64, len(m.rows[i]))
	for _, c := range m.rows[i] {
		out[m.terms[c.Term]] = c.Weight
	}
	return out
}

// Each calls fn for every stored cell, documents in corpus order and terms
// in column order. Baseline weights are not visited.
func (m *WeightedMatrix) Each(fn func(docID int64, term string, weight float64)) {
	for i, row := range m.rows {
		for _, c := range row {
			fn(m.docIDs[i], m.terms[c.Term], c.Weight)
		}
	}
}

// Convert applies the tf, idf and normalization stages of t to the raw
// counts.
func Convert(tf *stats.TermFrequencyTable, df *stats.DocumentFrequencyTable, t weighting.Triplet) *WeightedMatrix {
	terms := df.Terms()
	column := make(map[string]int32, len(terms))
	for i, term := range terms {
		column[term] = int32(i)
	}
	var idf []float64
	if t.IDF == weighting.IDFLog {
		idf = make([]float64, len(terms))
		for i, term := range terms {
			idf[i] = weighting.IDF(df.TotalDocs(), df.DF(term))
		}
	}

	docIDs := tf.DocIDs()
	m := &WeightedMatrix{
		terms:    terms,
		docIDs:   docIDs,
		docIndex: make(map[int64]int, len(docIDs)),
		rows:     make([][]Cell, len(docIDs)),
	}
	augmented := t.TF == weighting.TFAugmented
	// floorSq is the squared norm of a row where every term is absent.
	var floorSq float64
	if augmented {
		m.base = make([]float64, len(docIDs))
		m.scale = make([]float64, len(terms))
		for col := range terms {
			m.scale[col] = 1
			if idf != nil {
				m.scale[col] = idf[col]
			}
			f := weighting.AugmentedFloor * m.scale[col]
			floorSq += f * f
		}
	}

	for i, docID := range docIDs {
		m.docIndex[docID] = i
		counts := tf.Row(docID)
		max := float64(tf.MaxCount(docID))

		row := make([]Cell, 0, len(counts))
		for term, c := range counts {
			w := weighting.TF(t.TF, float64(c), max)
			if augmented {
				w = weighting.AugmentedExcess(float64(c), max)
			}
			row = append(row, Cell{Term: column[term], Weight: w})
		}
		sort.Slice(row, func(a, b int) bool { return row[a].Term < row[b].Term })
		if idf != nil {
			for k := range row {
				row[k].Weight *= idf[row[k].Term]
			}
		}

		switch {
		case augmented && max > 0:
			base := weighting.AugmentedFloor
			if t.Norm == weighting.NormCosine {
				norm := augmentedNorm(row, m.scale, floorSq)
				if norm == 0 {
					base = 0
					row = row[:0]
				} else {
					base /= norm
					for k := range row {
						row[k].Weight /= norm
					}
				}
			}
			m.base[i] = base
		case t.Norm == weighting.NormCosine:
			cosineNormalize(row)
		}
		row = compact(row)
		m.rows[i] = row
		m.nonZero += len(row)
	}
	return m
}

// augmentedNorm returns the Euclidean norm of an augmented row given its
// excess cells, the per-term floor scale and the norm of an all-absent row.
func augmentedNorm(row []Cell, scale []float64, floorSq float64) float64 {
	sum := floorSq
	for _, c := range row {
		f := weighting.AugmentedFloor * scale[c.Term]
		full := f + c.Weight
		sum += full*full - f*f
	}
	if sum <= 0 {
		return 0
	}
	return math.Sqrt(sum)
}

func cosineNormalize(row []Cell) {
	var sum float64
	for _, c := range row {
		sum += c.Weight * c.Weight
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for k := range row {
		row[k].Weight /= norm
	}
}

// compact drops non-positive cells in place.
func compact(row []Cell) []Cell {
	out := row[:0]
	for _, c := range row {
		if c.Weight > 0 {
			out = append(out, c)
		}
	}
	return out
}

// Invert builds the term-to-postings index from m in one pass over its
// stored cells. Postings come out ordered by ascending doc id. Baseline
// factors carry over unchanged.
func Invert(m *WeightedMatrix) *index.InvertedIndex {
	order := make([]int, len(m.docIDs))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool { return m.docIDs[order[a]] < m.docIDs[order[b]] })

	b := index.NewBuilder(len(m.terms))
	for _, i := range order {
		docID := m.docIDs[i]
		for _, c := range m.rows[i] {
			b.Add(m.terms[c.Term], index.Posting{DocID: docID, Weight: c.Weight})
		}
		if m.base != nil {
			b.SetBaseline(docID, m.base[i])
		}
	}
	for col, factor := range m.scale {
		b.SetTermScale(m.terms[col], factor)
	}
	return b.Build()
}
