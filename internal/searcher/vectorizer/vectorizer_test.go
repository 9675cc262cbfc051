package vectorizer

import (
	"math"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/indexer/stats"
	"github.com/Adithya-Monish-Kumar-K/smart-eval/internal/weighting"
)

const eps = 1e-12

func TestRawFrequencies(t *testing.T) {
	got := RawFrequencies([]string{"a", "b", "a", "a"})
	if got["a"] != 3 || got["b"] != 1 || len(got) != 2 {
		t.Errorf("RawFrequencies() = %v", got)
	}
	if len(RawFrequencies(nil)) != 0 {
		t.Error("RawFrequencies(nil) should be empty")
	}
}

func TestApplyTF(t *testing.T) {
	counts := map[string]int{"a": 4, "b": 1}
	tests := []struct {
		mode weighting.TFMode
		want Vector
	}{
		{weighting.TFNatural, Vector{"a": 4, "b": 1}},
		{weighting.TFLog, Vector{"a": 1 + math.Log(4), "b": 1}},
		{weighting.TFAugmented, Vector{"a": 1, "b": 0.625}},
		{weighting.TFBoolean, Vector{"a": 1, "b": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			got := ApplyTF(counts, tt.mode)
			for term, w := range tt.want {
				if math.Abs(got[term]-w) > eps {
					t.Errorf("weight(%s) = %v, want %v", term, got[term], w)
				}
			}
		})
	}
}

func TestApplyIDFZeroesUnseenTerms(t *testing.T) {
	idf := stats.IDFTable{"a": 2}
	in := Vector{"a": 1.5, "zzz": 3}
	got := ApplyIDF(in, idf)
	if got["a"] != 3 {
		t.Errorf("weight(a) = %v, want 3", got["a"])
	}
	if got["zzz"] != 0 {
		t.Errorf("weight(zzz) = %v, want 0", got["zzz"])
	}
	if in["a"] != 1.5 {
		t.Error("ApplyIDF mutated its input")
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize(Vector{"a": 3, "b": 4})
	if math.Abs(got["a"]-0.6) > eps || math.Abs(got["b"]-0.8) > eps {
		t.Errorf("Normalize() = %v", got)
	}
	zero := Normalize(Vector{"a": 0, "b": 0})
	if zero["a"] != 0 || zero["b"] != 0 || len(zero) != 2 {
		t.Errorf("Normalize(zero) = %v, want unchanged", zero)
	}
	if len(Normalize(Vector{})) != 0 {
		t.Error("Normalize(empty) should stay empty")
	}
}

func TestVectorize(t *testing.T) {
	idf := stats.IDFTable{"a": math.Log(2), "b": 0}
	tokens := []string{"a", "b", "b", "c"}

	nnn := Vectorize(tokens, weighting.MustParse("nnn"), idf)
	if nnn["b"] != 2 || nnn["c"] != 1 {
		t.Errorf("nnn = %v", nnn)
	}

	ltc := Vectorize(tokens, weighting.MustParse("ltc"), idf)
	if ltc["b"] != 0 || ltc["c"] != 0 {
		t.Errorf("ltc = %v, want b and c zeroed by idf", ltc)
	}
	if math.Abs(ltc["a"]-1) > eps {
		t.Errorf("ltc weight(a) = %v, want 1 after normalization", ltc["a"])
	}
}
