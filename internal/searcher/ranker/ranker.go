package ranker

import (
	"sort"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer/index"
)

// ScoredDoc is one entry of a ranking.
type ScoredDoc struct {
	DocID int64   `json:"doc_id"`
	Score float64 `json:"score"`
}

// Score computes the sparse dot product between the query weights and every
// document of the corpus. Every id in docIDs is present in the result, at 0
// when it shares no weighted term with the query. When the index carries a
// baseline, each document adds its baseline factor times the query's
// weighted sum of term scales.
func Score(queryWeights map[string]float64, idx *index.InvertedIndex, docIDs []int64) map[int64]float64 {
	scores := make(map[int64]float64, len(docIDs))
	for _, id := range docIDs {
		scores[id] = 0
	}
	// Fixed term order keeps float sums identical across runs.
	terms := make([]string, 0, len(queryWeights))
	for term, weight := range queryWeights {
		if weight > 0 {
			terms = append(terms, term)
		}
	}
	sort.Strings(terms)
	var shared float64
	for _, term := range terms {
		weight := queryWeights[term]
		for _, posting := range idx.Postings(term) {
			if _, ok := scores[posting.DocID]; ok {
				scores[posting.DocID] += weight * posting.Weight
			}
		}
		shared += weight * idx.TermScale(term)
	}
	if shared > 0 {
		for id := range scores {
			scores[id] += shared * idx.Baseline(id)
		}
	}
	return scores
}

// Rank orders scores by descending score, ties by ascending doc id.
func Rank(scores map[int64]float64) []ScoredDoc {
	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		result = append(result, ScoredDoc{
			DocID: docID,
			Score: score,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].DocID < result[j].DocID
	})
	return result
}

// RankQuery scores and ranks the whole corpus for one query vector.
func RankQuery(docIDs []int64, idx *index.InvertedIndex, queryWeights map[string]float64) []ScoredDoc {
	return Rank(Score(queryWeights, idx, docIDs))
}

// DocIDs extracts the ranked document ids.
func DocIDs(ranked []ScoredDoc) []int64 {
	ids := make([]int64, len(ranked))
	for i, d := range ranked {
		ids[i] = d.DocID
	}
	return ids
}
