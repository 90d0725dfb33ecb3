// Package slopeone implements the slope-one predictor and its pairwise
// rating-difference store.
//
// Slope one predicts a rating for (user, item) from the average differences
// between the target item and the items the user has already rated. The
// diff store can be maintained incrementally on every preference write, or
// rebuilt in batch on Refresh.
package slopeone

import (
	"errors"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
)

var (
	// ErrNilDataModel is returned when a component is constructed without a data model.
	ErrNilDataModel = errors.New("slopeone: data model must not be nil")

	// ErrInvalidMaxEntries is returned for a non-positive capacity bound.
	ErrInvalidMaxEntries = errors.New("slopeone: max entries must be at least 1")
)

// DiffStorage maintains running average rating differences between item
// pairs. Only one canonical direction is stored per pair; the invariant
// diff(A,B) == -diff(B,A) holds through every update.
//
// The preference hooks receive the owning user's other preferences (the
// written item excluded) so the store can touch exactly the pairs affected
// by the write.
type DiffStorage interface {
	// Diff returns the average of (rating for b) - (rating for a) and its
	// support count. ok is false when no diff data exists for the pair.
	Diff(a, b model.ItemID) (avg float64, count uint64, ok bool)

	// AddPreference folds a newly observed preference into the pair averages.
	AddPreference(others model.PreferenceArray, itemID model.ItemID, value float64)

	// UpdatePreference shifts the pair averages for a changed preference.
	UpdatePreference(others model.PreferenceArray, itemID model.ItemID, oldValue, newValue float64)

	// RemovePreference unfolds a removed preference; a pair whose support
	// reaches zero is dropped entirely.
	RemovePreference(others model.PreferenceArray, itemID model.ItemID, value float64)

	refresh.Refreshable
}

// pairKey is the canonical unordered item pair: lo < hi. The stored average
// is always (rating for hi) - (rating for lo).
type pairKey struct {
	lo, hi model.ItemID
}

// canonical returns the pair key and the sign carried by the stored average
// when read as diff(a, b) = rating(b) - rating(a).
func canonical(a, b model.ItemID) (key pairKey, sign float64) {
	if a < b {
		return pairKey{lo: a, hi: b}, 1
	}
	return pairKey{lo: b, hi: a}, -1
}
