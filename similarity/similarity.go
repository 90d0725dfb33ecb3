// Package similarity computes correlation between users or items from their
// shared preferences.
//
// Correlation values live in [-1, 1]. The sentinel "undefined" — returned
// when fewer than two shared observations exist or variance is zero — is
// represented as NaN, detected with IsNone. Undefined is not an error: it
// means "no relation" and is excluded from aggregation by all consumers.
package similarity

import (
	"errors"
	"math"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
)

// ErrNilDataModel is returned when a similarity is constructed without a data model.
var ErrNilDataModel = errors.New("similarity: data model must not be nil")

// None returns the undefined-correlation sentinel.
func None() float64 {
	return math.NaN()
}

// IsNone reports whether v is the undefined-correlation sentinel.
func IsNone(v float64) bool {
	return math.IsNaN(v)
}

// UserSimilarity scores how alike two users' tastes are.
type UserSimilarity interface {
	// UserSimilarity returns the correlation between two users in [-1, 1],
	// or None() when undefined.
	UserSimilarity(x, y model.UserID) (float64, error)

	refresh.Refreshable
}

// ItemSimilarity scores how alike two items' rating patterns are.
type ItemSimilarity interface {
	// ItemSimilarity returns the correlation between two items in [-1, 1],
	// or None() when undefined.
	ItemSimilarity(x, y model.ItemID) (float64, error)

	refresh.Refreshable
}

// PreferenceInferrer fills in a plausible rating for a (user, item) pair
// without an observed preference, producing a denser view for similarity.
type PreferenceInferrer interface {
	// InferPreference returns an estimated value for the pair.
	InferPreference(userID model.UserID, itemID model.ItemID) (float64, error)

	refresh.Refreshable
}

// correlate computes the sample Pearson correlation of two aligned vectors.
// Returns None() when fewer than two observations exist or either variance
// is zero. When weighted, the result is biased by the overlap size relative
// to total: well-supported comparisons are pushed toward full strength,
// damping the advantage thin overlaps get.
func correlate(xs, ys []float64, weighted bool, total int) float64 {
	n := len(xs)
	if n < 2 {
		return None()
	}

	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := range xs {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return None()
	}

	r := cov / math.Sqrt(varX*varY)

	if weighted {
		r = weightOverlap(r, n, total)
	}

	return clamp(r)
}

// weightOverlap biases r by how much of the total universe the overlap
// covers; small overlaps keep roughly their raw correlation while large
// overlaps are pushed toward +-1.
func weightOverlap(r float64, count, total int) float64 {
	if count >= total {
		return r
	}
	scale := 1.0 - float64(count)/float64(total+1)
	if r < 0 {
		return -1.0 + scale*(1.0+r)
	}
	return 1.0 - scale*(1.0-r)
}

func clamp(r float64) float64 {
	if r > 1.0 {
		return 1.0
	}
	if r < -1.0 {
		return -1.0
	}
	return r
}
