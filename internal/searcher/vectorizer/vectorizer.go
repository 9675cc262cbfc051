// Package vectorizer weighs query terms with the same transforms used for
// documents, against the corpus-wide idf table.
package vectorizer

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer/stats"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/weighting"
)

// Vector maps a term to its weight. Every function in this package returns
// a new Vector and leaves its input untouched.
type Vector map[string]float64

// RawFrequencies counts the occurrences of each token.
func RawFrequencies(tokens []string) map[string]int {
	counts := make(map[string]int, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return counts
}

// ApplyTF transforms raw counts; the augmented mode divides by the largest
// count in this query.
func ApplyTF(counts map[string]int, mode weighting.TFMode) Vector {
	max := 0
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	out := make(Vector, len(counts))
	for term, c := range counts {
		out[term] = weighting.TF(mode, float64(c), float64(max))
	}
	return out
}

// ApplyIDF multiplies every weight by the corpus idf of its term. Terms
// the corpus never saw end up at zero.
func ApplyIDF(v Vector, idf stats.IDFTable) Vector {
	out := make(Vector, len(v))
	for term, w := range v {
		out[term] = w * idf.Get(term)
	}
	return out
}

// Normalize scales v to unit length. A zero vector is returned unchanged.
func Normalize(v Vector) Vector {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	out := make(Vector, len(v))
	if sum == 0 {
		for term, w := range v {
			out[term] = w
		}
		return out
	}
	norm := math.Sqrt(sum)
	for term, w := range v {
		out[term] = w / norm
	}
	return out
}

// Vectorize runs the tf stage always, then idf and cosine normalization
// when t asks for them.
func Vectorize(tokens []string, t weighting.Triplet, idf stats.IDFTable) Vector {
	v := ApplyTF(RawFrequencies(tokens), t.TF)
	if t.IDF == weighting.IDFLog {
		v = ApplyIDF(v, idf)
	}
	if t.Norm == weighting.NormCosine {
		v = Normalize(v)
	}
	return v
}
