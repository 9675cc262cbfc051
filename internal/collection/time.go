package collection

import (
	"io"
	"strconv"
	"strings"
)

// ReadTimeDocuments parses the TIME article file. Each "*TEXT" header line
// opens an article; articles are numbered 1..n in file order. "*STOP" ends
// the file.
func ReadTimeDocuments(r io.Reader) ([]Record, error) {
	return readStarred(r, "*TEXT", func(lineNo int, _ string, n int) (int64, error) {
		return int64(n), nil
	})
}

// ReadTimeQueries parses the TIME query file, where "*FIND <id>" opens a
// query.
func ReadTimeQueries(r io.Reader) ([]Record, error) {
	return readStarred(r, "*FIND", func(lineNo int, header string, _ int) (int64, error) {
		fields := strings.Fields(header)
		if len(fields) == 0 {
			return 0, lineError(lineNo, "missing query id")
		}
		id, err := strconv.ParseInt(fields[0], 10, 64)
		if err != nil {
			return 0, lineError(lineNo, "bad query id %q", fields[0])
		}
		return id, nil
	})
}

// readStarred splits on lines starting with marker. idFor receives the rest
// of the marker line and the 1-based record ordinal.
func readStarred(r io.Reader, marker string, idFor func(lineNo int, header string, n int) (int64, error)) ([]Record, error) {
	sc := newScanner(r)
	var (
		records []Record
		cur     *Record
		text    strings.Builder
		lineNo  int
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Text = text.String()
		records = append(records, *cur)
		text.Reset()
		cur = nil
	}
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "*STOP"):
			flush()
			return records, nil
		case strings.HasPrefix(line, marker):
			flush()
			id, err := idFor(lineNo, line[len(marker):], len(records)+1)
			if err != nil {
				return nil, err
			}
			cur = &Record{ID: id}
		case cur != nil:
			appendLine(&text, line)
		case line != "":
			return nil, lineError(lineNo, "text before first %s", marker)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return records, nil
}
