package collection

import (
	"io"
	"strconv"
	"strings"
)

// smartFields are the section markers of the tagged SMART layout.
const smartFields = "ITABWNXKC"

// ReadSmart parses the tagged layout shared by ADI, CACM, CRAN and MED:
// ".I <id>" opens a record and ".T", ".W" and friends open its sections.
// Only the title and text sections are kept.
func ReadSmart(r io.Reader) ([]Record, error) {
	sc := newScanner(r)
	var (
		records []Record
		cur     *Record
		field   byte
		title   strings.Builder
		text    strings.Builder
		lineNo  int
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Title = strings.TrimSpace(title.String())
		cur.Text = strings.TrimSpace(text.String())
		records = append(records, *cur)
		title.Reset()
		text.Reset()
	}
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if tag, rest, ok := smartTag(line); ok {
			if tag == 'I' {
				flush()
				id, err := strconv.ParseInt(strings.TrimSpace(rest), 10, 64)
				if err != nil {
					return nil, lineError(lineNo, "bad record id %q", rest)
				}
				cur = &Record{ID: id}
				field = 0
				continue
			}
			if cur == nil {
				return nil, lineError(lineNo, "section .%c before first .I", tag)
			}
			field = tag
			line = strings.TrimSpace(rest)
			if line == "" {
				continue
			}
		}
		if cur == nil {
			if line == "" {
				continue
			}
			return nil, lineError(lineNo, "text before first .I")
		}
		switch field {
		case 'T':
			appendLine(&title, line)
		case 'W':
			appendLine(&text, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	flush()
	return records, nil
}

func smartTag(line string) (byte, string, bool) {
	if len(line) < 2 || line[0] != '.' || strings.IndexByte(smartFields, line[1]) < 0 {
		return 0, "", false
	}
	if len(line) > 2 && line[2] != ' ' && line[2] != '\t' {
		return 0, "", false
	}
	return line[1], line[2:], true
}
