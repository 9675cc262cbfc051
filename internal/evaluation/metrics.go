package evaluation

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/errors"
)

// AveragePrecision computes AP over the top rankLimit ranks: the sum of
// hits/r at every rank r holding a relevant document, divided by the number
// of relevant documents.
func AveragePrecision(ranked []int64, relevant map[int64]struct{}, rankLimit int) (float64, error) {
	if len(relevant) == 0 {
		return 0, apperrors.New(apperrors.ErrDegenerateRelevance, "relevance set is empty")
	}
	if rankLimit <= 0 {
		return 0, apperrors.Newf(apperrors.ErrInvalidConfig, "rank limit must be positive, got %d", rankLimit)
	}
	k := min(rankLimit, len(ranked))
	hits := 0
	sum := 0.0
	for i := 0; i < k; i++ {
		if _, ok := relevant[ranked[i]]; ok {
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}
	return sum / float64(len(relevant)), nil
}

// MeanAveragePrecision is the arithmetic mean of aps.
func MeanAveragePrecision(aps []float64) (float64, error) {
	if len(aps) == 0 {
		return 0, apperrors.New(apperrors.ErrEmptyInput, "no queries to average")
	}
	sum := 0.0
	for _, ap := range aps {
		sum += ap
	}
	return sum / float64(len(aps)), nil
}

// PrecisionAt is the fraction of the top k ranks holding relevant documents.
func PrecisionAt(ranked []int64, relevant map[int64]struct{}, k int) float64 {
	k = min(k, len(ranked))
	if k <= 0 {
		return 0
	}
	return float64(hitsAt(ranked, relevant, k)) / float64(k)
}

// RecallAt is the fraction of relevant documents found in the top k ranks.
func RecallAt(ranked []int64, relevant map[int64]struct{}, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}
	return float64(hitsAt(ranked, relevant, min(k, len(ranked)))) / float64(len(relevant))
}

// ReciprocalRank is 1/r for the first relevant rank r within the top k, 0 if
// none.
func ReciprocalRank(ranked []int64, relevant map[int64]struct{}, k int) float64 {
	k = min(k, len(ranked))
	for i := 0; i < k; i++ {
		if _, ok := relevant[ranked[i]]; ok {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

func hitsAt(ranked []int64, relevant map[int64]struct{}, k int) int {
	hits := 0
	for i := 0; i < k; i++ {
		if _, ok := relevant[ranked[i]]; ok {
			hits++
		}
	}
	return hits
}
