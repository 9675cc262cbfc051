package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Fingerprint hashes the processed content of the collection. Record order
// does not matter; two collections with the same tokens and judgments share
// a fingerprint.
func (c *Collection) Fingerprint() string {
	h := sha256.New()

	docs := make([]Document, len(c.Documents))
	copy(docs, c.Documents)
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	for _, d := range docs {
		writeRecord(h, "d", d.ID, d.Tokens)
	}

	queries := make([]Query, len(c.Queries))
	copy(queries, c.Queries)
	sort.Slice(queries, func(i, j int) bool { return queries[i].ID < queries[j].ID })
	for _, q := range queries {
		writeRecord(h, "q", q.ID, q.Tokens)
	}

	for _, qid := range c.Relevance.QueryIDs() {
		ids := make([]int64, 0, len(c.Relevance[qid]))
		for id := range c.Relevance[qid] {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		fmt.Fprintf(h, "r%d:%v\n", qid, ids)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeRecord(w io.Writer, kind string, id int64, tokens []string) {
	fmt.Fprintf(w, "%s%d:%s\n", kind, id, strings.Join(tokens, "\x1f"))
}
