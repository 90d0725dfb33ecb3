// Package transform provides pluggable preference and similarity transforms
// that reshape rating data before or after correlation is computed.
package transform

import (
	"errors"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
)

var (
	// ErrNilDataModel is returned when a transform is constructed without a data model.
	ErrNilDataModel = errors.New("transform: data model must not be nil")

	// ErrInvalidLogBase is returned for a log base that is not finite and > 1.
	ErrInvalidLogBase = errors.New("transform: log base must be finite and greater than 1")

	// ErrInvalidAmplificationFactor is returned for a factor that is not finite and non-zero.
	ErrInvalidAmplificationFactor = errors.New("transform: amplification factor must be finite and non-zero")
)

// PreferenceTransform adjusts a single preference value before similarity
// computation.
type PreferenceTransform interface {
	// Transform returns the adjusted value for the given preference.
	Transform(p model.Preference) (float64, error)

	refresh.Refreshable
}

// SimilarityTransform reshapes an already-computed correlation value.
type SimilarityTransform interface {
	// TransformSimilarity maps a correlation in [-1, 1] to an adjusted value.
	// NaN (undefined correlation) passes through unchanged.
	TransformSimilarity(v float64) float64
}
