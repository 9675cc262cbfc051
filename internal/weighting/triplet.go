// Package weighting defines the SMART term-weighting triplet: a term
// frequency mode, an inverse document frequency mode and a normalization
// mode, parsed from a three-character code such as "ltc" or "nnn".
package weighting

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/smart-eval/pkg/errors"
)

// TFMode selects how a raw term count becomes a weight.
type TFMode int

const (
	TFNatural   TFMode = iota // n: raw count
	TFLog                     // l: 1 + ln(c)
	TFAugmented               // a: 0.5 + 0.5*c/max
	TFBoolean                 // b: 1 if present
)

// IDFMode selects whether weights are scaled by inverse document frequency.
type IDFMode int

const (
	IDFNone IDFMode = iota // n
	IDFLog                 // t: ln(N/df)
)

// NormMode selects the vector normalization.
type NormMode int

const (
	NormNone   NormMode = iota // n
	NormCosine                 // c: divide by the Euclidean norm
)

var (
	tfSymbols   = []byte{'n', 'l', 'a', 'b'}
	idfSymbols  = []byte{'n', 't'}
	normSymbols = []byte{'n', 'c'}
)

func (m TFMode) String() string {
	if int(m) < 0 || int(m) >= len(tfSymbols) {
		return fmt.Sprintf("TFMode(%d)", int(m))
	}
	return string(tfSymbols[m])
}

func (m IDFMode) String() string {
	if int(m) < 0 || int(m) >= len(idfSymbols) {
		return fmt.Sprintf("IDFMode(%d)", int(m))
	}
	return string(idfSymbols[m])
}

func (m NormMode) String() string {
	if int(m) < 0 || int(m) >= len(normSymbols) {
		return fmt.Sprintf("NormMode(%d)", int(m))
	}
	return string(normSymbols[m])
}

// Triplet is one weighting scheme in SMART notation.
type Triplet struct {
	TF   TFMode
	IDF  IDFMode
	Norm NormMode
}

// Code returns the lowercase three-character SMART code.
func (t Triplet) Code() string {
	return t.TF.String() + t.IDF.String() + t.Norm.String()
}

func (t Triplet) String() string {
	return t.Code()
}

// Parse converts a three-character code into a Triplet. Symbols are matched
// case-insensitively; anything else fails with ErrInvalidConfig.
func Parse(code string) (Triplet, error) {
	if len(code) != 3 {
		return Triplet{}, apperrors.Newf(apperrors.ErrInvalidConfig,
			"weighting code %q must be 3 characters", code)
	}
	lower := strings.ToLower(code)

	var t Triplet
	switch lower[0] {
	case 'n':
		t.TF = TFNatural
	case 'l':
		t.TF = TFLog
	case 'a':
		t.TF = TFAugmented
	case 'b':
		t.TF = TFBoolean
	default:
		return Triplet{}, apperrors.Newf(apperrors.ErrInvalidConfig,
			"invalid tf mode %q in weighting code %q", code[0], code)
	}

	switch lower[1] {
	case 'n':
		t.IDF = IDFNone
	case 't':
		t.IDF = IDFLog
	default:
		return Triplet{}, apperrors.Newf(apperrors.ErrInvalidConfig,
			"invalid idf mode %q in weighting code %q", code[1], code)
	}

	switch lower[2] {
	case 'n':
		t.Norm = NormNone
	case 'c':
		t.Norm = NormCosine
	default:
		return Triplet{}, apperrors.Newf(apperrors.ErrInvalidConfig,
			"invalid norm mode %q in weighting code %q", code[2], code)
	}
	return t, nil
}

// MustParse is like Parse but panics on error. Intended for constants in
// tests and tables.
func MustParse(code string) Triplet {
	t, err := Parse(code)
	if err != nil {
		panic(err)
	}
	return t
}

// AllCodes lists every valid code, TF symbols outermost, in n,l,a,b / n,t /
// n,c order.
func AllCodes() []string {
	codes := make([]string, 0, len(tfSymbols)*len(idfSymbols)*len(normSymbols))
	for _, tf := range tfSymbols {
		for _, idf := range idfSymbols {
			for _, norm := range normSymbols {
				codes = append(codes, string([]byte{tf, idf, norm}))
			}
		}
	}
	return codes
}
