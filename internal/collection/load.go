package collection

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/logger"
)

// Layout describes how one collection's files are parsed.
type Layout struct {
	Documents RecordReader
	Queries   RecordReader
	Relevance QrelsReader
	// SequentialQueryIDs renumbers queries 1..n in file order. The CRAN
	// query file skips numbers its relevance file does not.
	SequentialQueryIDs bool
}

var layouts = map[string]Layout{
	"adi":  {Documents: ReadSmart, Queries: ReadSmart, Relevance: ReadColumnQrels},
	"cacm": {Documents: ReadSmart, Queries: ReadSmart, Relevance: ReadColumnQrels},
	"cran": {Documents: ReadSmart, Queries: ReadSmart, Relevance: ReadColumnQrels, SequentialQueryIDs: true},
	"med":  {Documents: ReadSmart, Queries: ReadSmart, Relevance: ReadColumnQrels},
	"time": {Documents: ReadTimeDocuments, Queries: ReadTimeQueries, Relevance: ReadLineQrels},
	"npl":  {Documents: ReadNPL, Queries: ReadNPL, Relevance: ReadNPLQrels},
}

// Lookup returns the layout registered for name.
func Lookup(name string) (Layout, error) {
	l, ok := layouts[strings.ToLower(name)]
	if !ok {
		return Layout{}, apperrors.Newf(apperrors.ErrInvalidConfig,
			"unknown collection %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return l, nil
}

// Names lists the registered collections.
func Names() []string {
	names := make([]string, 0, len(layouts))
	for name := range layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options tunes how records become tokens.
type Options struct {
	// IncludeTitle prepends the title section to the document text.
	IncludeTitle bool
}

// Load reads <name>.all, <name>.qry and <name>.rel from dir and tokenizes
// documents and queries with processor.
func Load(dir, name string, processor tokenizer.Tokenizer, opts Options) (*corpus.Collection, error) {
	layout, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	name = strings.ToLower(name)
	log := logger.WithComponent("collection").With("collection", name, "dir", dir)

	docRecords, err := readRecords(filepath.Join(dir, name+".all"), layout.Documents)
	if err != nil {
		return nil, err
	}
	queryRecords, err := readRecords(filepath.Join(dir, name+".qry"), layout.Queries)
	if err != nil {
		return nil, err
	}
	qrels, err := readQrels(filepath.Join(dir, name+".rel"), layout.Relevance)
	if err != nil {
		return nil, err
	}

	c := &corpus.Collection{
		Name:      name,
		Documents: make([]corpus.Document, len(docRecords)),
		Queries:   make([]corpus.Query, len(queryRecords)),
		Relevance: corpus.NewRelevanceSet(qrels),
	}
	for i, rec := range docRecords {
		text := rec.Text
		if opts.IncludeTitle && rec.Title != "" {
			text = rec.Title + " " + text
		}
		c.Documents[i] = corpus.Document{ID: rec.ID, Tokens: processor.Tokenize(text)}
	}
	for i, rec := range queryRecords {
		id := rec.ID
		if layout.SequentialQueryIDs {
			id = int64(i + 1)
		}
		c.Queries[i] = corpus.Query{ID: id, Tokens: processor.Tokenize(rec.Text)}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	log.Info("collection loaded",
		"documents", len(c.Documents),
		"queries", len(c.Queries),
		"judged_queries", len(c.Relevance),
	)
	return c, nil
}

func readRecords(path string, read RecordReader) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	records, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return records, nil
}

func readQrels(path string, read QrelsReader) (map[int64][]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	qrels, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return qrels, nil
}
