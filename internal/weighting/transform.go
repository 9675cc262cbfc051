package weighting

import "math"

// AugmentedFloor is the augmented tf of a term absent from a non-empty vector.
const AugmentedFloor = 0.5

// TF transforms a raw count c given the largest raw count m in the same
// document or query. Only TFAugmented reads m; callers pass m >= c.
//
// TFAugmented is defined for absent terms too (0.5 when c == 0). A vector
// without any term (m == 0) has no augmented weights at all.
func TF(mode TFMode, c, m float64) float64 {
	switch mode {
	case TFNatural:
		return c
	case TFLog:
		if c > 0 {
			return 1 + math.Log(c)
		}
		return 0
	case TFAugmented:
		if m <= 0 {
			return 0
		}
		return AugmentedFloor + AugmentedExcess(c, m)
	case TFBoolean:
		if c > 0 {
			return 1
		}
		return 0
	default:
		panic("weighting: unknown tf mode " + mode.String())
	}
}

// AugmentedExcess is the part of the augmented tf above AugmentedFloor.
// It is zero for absent terms and for empty vectors.
func AugmentedExcess(c, m float64) float64 {
	if m <= 0 || c <= 0 {
		return 0
	}
	return (1 - AugmentedFloor) * c / m
}

// IDF returns ln(totalDocs/df). df must be at least 1.
func IDF(totalDocs, df int) float64 {
	return math.Log(float64(totalDocs) / float64(df))
}
