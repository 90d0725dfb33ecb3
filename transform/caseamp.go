package transform

import "math"

// Compile time check to ensure CaseAmplification satisfies the SimilarityTransform interface.
var _ SimilarityTransform = (*CaseAmplification)(nil)

// CaseAmplification reshapes a correlation value v to sign(v) * |v|^factor.
// Factors above 1 punish weak correlations; factors below 1 boost them.
type CaseAmplification struct {
	factor float64
}

// NewCaseAmplification creates the transform. factor must be finite and
// non-zero.
func NewCaseAmplification(factor float64) (*CaseAmplification, error) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor == 0 {
		return nil, ErrInvalidAmplificationFactor
	}
	return &CaseAmplification{factor: factor}, nil
}

// TransformSimilarity returns sign(v) * |v|^factor. NaN passes through.
func (c *CaseAmplification) TransformSimilarity(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	if v < 0 {
		return -math.Pow(-v, c.factor)
	}
	return math.Pow(v, c.factor)
}
