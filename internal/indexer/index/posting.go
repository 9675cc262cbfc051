package index

// Posting records the weight of one term in one document.
type Posting struct {
	DocID  int64   `json:"doc_id"`
	Weight float64 `json:"weight"`
}

// PostingList is ordered by ascending DocID.
type PostingList []Posting

// TermEntry pairs a term with its postings.
type TermEntry struct {
	Term     string      `json:"term"`
	Postings PostingList `json:"postings"`
}
