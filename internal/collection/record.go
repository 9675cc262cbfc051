// Package collection reads the classic IR test collections (ADI, CACM,
// CRAN, MED, TIME, NPL) from their distribution files and turns them into a
// tokenized corpus.Collection.
package collection

import (
	"bufio"
	"io"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/errors"
)

// Record is one document or query before language processing.
type Record struct {
	ID    int64
	Title string
	Text  string
}

// RecordReader parses a document or query file.
type RecordReader func(r io.Reader) ([]Record, error)

// QrelsReader parses a relevance file into query id -> relevant doc ids.
type QrelsReader func(r io.Reader) (map[int64][]int64, error)

const maxLineSize = 1 << 20

func newScanner(r io.Reader) *bufio.Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)
	return sc
}

func lineError(line int, format string, args ...any) error {
	return apperrors.Newf(apperrors.ErrInvalidInput, "line %d: "+format, append([]any{line}, args...)...)
}

func appendLine(b *strings.Builder, line string) {
	if line == "" {
		return
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(line)
}
