// Package indexer turns a tokenized corpus into SMART-weighted document
// vectors and the inverted index that scores queries against them.
package indexer

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer/stats"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/weighting"
)

// Engine owns one weighted index over a fixed corpus. Every field is
// written once in NewEngine, so an Engine may be shared between goroutines.
type Engine struct {
	weighting weighting.Triplet
	stats     *stats.Stats
	index     *index.InvertedIndex
	idf       stats.IDFTable
	logger    *slog.Logger
}

// NewEngine counts, weights and inverts docs under the document weighting t.
func NewEngine(docs []corpus.Document, t weighting.Triplet) (*Engine, error) {
	start := time.Now()
	s, err := stats.Build(docs)
	if err != nil {
		return nil, fmt.Errorf("indexing corpus: %w", err)
	}
	m := Convert(s.TF, s.DF, t)
	e := &Engine{
		weighting: t,
		stats:     s,
		index:     Invert(m),
		idf:       s.DF.IDF(),
		logger:    slog.Default().With("component", "indexer", "weighting", t.Code()),
	}
	e.logger.Debug("index built",
		"docs", s.TF.Len(),
		"terms", e.index.Len(),
		"postings", e.index.Size(),
		"baseline", e.index.HasBaseline(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return e, nil
}

// Weighting returns the document weighting the index was built with.
func (e *Engine) Weighting() weighting.Triplet {
	return e.weighting
}

// Index returns the inverted index.
func (e *Engine) Index() *index.InvertedIndex {
	return e.index
}

// IDF returns the corpus idf table used to weight queries.
func (e *Engine) IDF() stats.IDFTable {
	return e.idf
}

// DocIDs returns the corpus document ids in corpus order.
func (e *Engine) DocIDs() []int64 {
	return e.stats.TF.DocIDs()
}

// TotalDocs returns the corpus size.
func (e *Engine) TotalDocs() int {
	return e.stats.DF.TotalDocs()
}
