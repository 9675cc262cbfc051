package collection

import (
	"io"
	"strconv"
	"strings"
)

// ReadNPL parses the NPL layout: an id line, body lines, then a line
// holding only "/". A final record may omit the terminator.
func ReadNPL(r io.Reader) ([]Record, error) {
	var records []Record
	err := scanSlashRecords(r, func(id int64, lines []numberedLine) error {
		text := make([]string, len(lines))
		for i, l := range lines {
			text[i] = l.text
		}
		records = append(records, Record{ID: id, Text: strings.Join(text, " ")})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

type numberedLine struct {
	no   int
	text string
}

// scanSlashRecords calls emit once per record with its non-blank body lines.
func scanSlashRecords(r io.Reader, emit func(id int64, lines []numberedLine) error) error {
	sc := newScanner(r)
	var (
		open   bool
		id     int64
		body   []numberedLine
		lineNo int
	)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if !open {
			if line == "" {
				continue
			}
			parsed, err := strconv.ParseInt(line, 10, 64)
			if err != nil {
				return lineError(lineNo, "bad record id %q", line)
			}
			open, id, body = true, parsed, nil
			continue
		}
		if line == "/" {
			if err := emit(id, body); err != nil {
				return err
			}
			open = false
			continue
		}
		if line != "" {
			body = append(body, numberedLine{no: lineNo, text: line})
		}
	}
	if err := sc.Err(); err != nil {
		return err
	}
	if open {
		return emit(id, body)
	}
	return nil
}
