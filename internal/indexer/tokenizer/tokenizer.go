// Package tokenizer turns raw document and query text into index terms.
// It NFC-normalises and lower-cases input, splits on anything that is not a
// letter, digit or apostrophe, drops numbers and stop-words, and optionally
// applies the Porter stemmer.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/reiver/go-porterstemmer"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer maps text to an ordered list of terms.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Options configures an Analyzer.
type Options struct {
	// Stem enables Porter stemming of every kept token.
	Stem bool
	// Stopwords replaces the default English list when non-nil.
	Stopwords []string
}

// Analyzer is the default Tokenizer. It holds no mutable state after New
// and may be shared between goroutines.
type Analyzer struct {
	stem      bool
	stopwords map[string]struct{}
}

// New builds an Analyzer. Single ASCII letters are always stop-words.
func New(opts Options) *Analyzer {
	words := opts.Stopwords
	if words == nil {
		words = englishStopwords
	}
	stop := make(map[string]struct{}, len(words)+26)
	for _, w := range words {
		stop[strings.ToLower(w)] = struct{}{}
	}
	for r := 'a'; r <= 'z'; r++ {
		stop[string(r)] = struct{}{}
	}
	return &Analyzer{stem: opts.Stem, stopwords: stop}
}

// Tokenize breaks text into lower-cased terms with stop-words removed.
func (a *Analyzer) Tokenize(text string) []string {
	text = strings.ToLower(norm.NFC.String(text))
	words := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		word = strings.ReplaceAll(word, "'", "")
		if word == "" || isNumber(word) {
			continue
		}
		if _, isStop := a.stopwords[word]; isStop {
			continue
		}
		if a.stem {
			word = stem(word)
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func isNumber(word string) bool {
	for _, r := range word {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// stem falls back to the input when the stemmer panics on odd tokens.
func stem(word string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = word
		}
	}()
	out = porterstemmer.StemString(word)
	if out == "" {
		return word
	}
	return out
}

var englishStopwords = []string{
	"i", "me", "my", "myself", "we", "our", "ours", "ourselves", "you", "you're",
	"you've", "you'll", "you'd", "your", "yours", "yourself", "yourselves", "he",
	"him", "his", "himself", "she", "she's", "her", "hers", "herself", "it", "it's",
	"its", "itself", "they", "them", "their", "theirs", "themselves", "what", "which",
	"who", "whom", "this", "that", "that'll", "these", "those", "am", "is", "are",
	"was", "were", "be", "been", "being", "have", "has", "had", "having", "do",
	"does", "did", "doing", "a", "an", "the", "and", "but", "if", "or", "because",
	"as", "until", "while", "of", "at", "by", "for", "with", "about", "against",
	"between", "into", "through", "during", "before", "after", "above", "below",
	"to", "from", "up", "down", "in", "out", "on", "off", "over", "under", "again",
	"further", "then", "once", "here", "there", "when", "where", "why", "how", "all",
	"any", "both", "each", "few", "more", "most", "other", "some", "such", "no",
	"nor", "not", "only", "own", "same", "so", "than", "too", "very", "s", "t",
	"can", "will", "just", "don", "don't", "should", "should've", "now", "d", "ll",
	"m", "o", "re", "ve", "y", "ain", "aren", "aren't", "couldn", "couldn't",
	"didn", "didn't", "doesn", "doesn't", "hadn", "hadn't", "hasn", "hasn't",
	"haven", "haven't", "isn", "isn't", "ma", "mightn", "mightn't", "mustn",
	"mustn't", "needn", "needn't", "shan", "shan't", "shouldn", "shouldn't",
	"wasn", "wasn't", "weren", "weren't", "won", "won't", "wouldn", "wouldn't",
}
