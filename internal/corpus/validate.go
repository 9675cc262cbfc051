package corpus

import (
	"fmt"
	"sort"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/errors"
)

// ValidationError holds per-record validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s:%s", k, e.Fields[k]))
	}
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return apperrors.ErrInvalidInput
}

// ValidateDocuments rejects an empty corpus and duplicate document ids.
func ValidateDocuments(docs []Document) error {
	if len(docs) == 0 {
		return apperrors.New(apperrors.ErrEmptyInput, "corpus has no documents")
	}
	errs := make(map[string]string)
	seen := make(map[int64]struct{}, len(docs))
	for _, d := range docs {
		if _, dup := seen[d.ID]; dup {
			errs[fmt.Sprintf("doc[%d]", d.ID)] = "duplicate document id"
			continue
		}
		seen[d.ID] = struct{}{}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateQueries rejects duplicate query ids. An empty query set is not an
// error here; evaluation reports it once no query qualifies.
func ValidateQueries(queries []Query) error {
	errs := make(map[string]string)
	seen := make(map[int64]struct{}, len(queries))
	for _, q := range queries {
		if _, dup := seen[q.ID]; dup {
			errs[fmt.Sprintf("query[%d]", q.ID)] = "duplicate query id"
			continue
		}
		seen[q.ID] = struct{}{}
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// Validate checks documents and queries of a collection.
func (c *Collection) Validate() error {
	if err := ValidateDocuments(c.Documents); err != nil {
		return fmt.Errorf("collection %s: %w", c.Name, err)
	}
	if err := ValidateQueries(c.Queries); err != nil {
		return fmt.Errorf("collection %s: %w", c.Name, err)
	}
	return nil
}
