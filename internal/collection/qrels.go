package collection

import (
	"io"
	"strconv"
	"strings"
)

// ReadColumnQrels parses one "<query> <doc> [ignored...]" pair per line.
func ReadColumnQrels(r io.Reader) (map[int64][]int64, error) {
	sc := newScanner(r)
	out := make(map[int64][]int64)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) < 2 {
			return nil, lineError(lineNo, "want query and document id, got %q", sc.Text())
		}
		ids, err := parseIDs(lineNo, fields[:2])
		if err != nil {
			return nil, err
		}
		out[ids[0]] = append(out[ids[0]], ids[1])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadLineQrels parses "<query> <doc> <doc> ..." lines. A query listed
// without documents is kept with an empty judgment.
func ReadLineQrels(r io.Reader) (map[int64][]int64, error) {
	sc := newScanner(r)
	out := make(map[int64][]int64)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		ids, err := parseIDs(lineNo, fields)
		if err != nil {
			return nil, err
		}
		docs, ok := out[ids[0]]
		if !ok {
			docs = []int64{}
		}
		out[ids[0]] = append(docs, ids[1:]...)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadNPLQrels parses the NPL relevance layout: a query id line, document
// ids spread over any number of lines, then "/".
func ReadNPLQrels(r io.Reader) (map[int64][]int64, error) {
	out := make(map[int64][]int64)
	err := scanSlashRecords(r, func(id int64, lines []numberedLine) error {
		docs := out[id]
		for _, line := range lines {
			ids, err := parseIDs(line.no, strings.Fields(line.text))
			if err != nil {
				return err
			}
			docs = append(docs, ids...)
		}
		if docs == nil {
			docs = []int64{}
		}
		out[id] = docs
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parseIDs(lineNo int, fields []string) ([]int64, error) {
	ids := make([]int64, len(fields))
	for i, f := range fields {
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, lineError(lineNo, "bad id %q", f)
		}
		ids[i] = id
	}
	return ids, nil
}
