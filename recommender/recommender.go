// Package recommender provides the prediction engines that turn a DataModel
// plus similarity/neighborhood configuration into ranked recommendations.
package recommender

import (
	"errors"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/recgo/internal/top"
	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
	"github.com/hupe1980/recgo/similarity"
)

var (
	// ErrInvalidHowMany is returned when fewer than one recommendation is requested.
	ErrInvalidHowMany = errors.New("recommender: howMany must be at least 1")

	// ErrNilDataModel is returned when a recommender is constructed without a data model.
	ErrNilDataModel = errors.New("recommender: data model must not be nil")

	// ErrNilSimilarity is returned when a recommender is constructed without a similarity.
	ErrNilSimilarity = errors.New("recommender: similarity must not be nil")

	// ErrNilNeighborhood is returned when a recommender is constructed without a neighborhood.
	ErrNilNeighborhood = errors.New("recommender: neighborhood must not be nil")

	// ErrNilDelegate is returned when a caching recommender is constructed without a delegate.
	ErrNilDelegate = errors.New("recommender: delegate must not be nil")
)

// RecommendedItem is a single ranked recommendation.
type RecommendedItem struct {
	ItemID model.ItemID
	Value  float64
}

// Rescorer adjusts or vetoes a candidate after the base estimate is
// computed. Returning ok=false excludes the item entirely.
type Rescorer interface {
	Rescore(itemID model.ItemID, value float64) (newValue float64, ok bool)
}

// Recommender is the engine contract exposed to callers. Implementations are
// safe for concurrent use against a quiescent data model.
type Recommender interface {
	// Recommend returns up to howMany items the user has not rated, ordered
	// by estimated value descending (ties by ascending item ID). The
	// optional rescorer may adjust or veto candidates.
	Recommend(userID model.UserID, howMany int, rescorer Rescorer) ([]RecommendedItem, error)

	// EstimatePreference returns the estimated rating for the pair, or NaN
	// when no estimate is possible. An observed preference is returned as-is.
	EstimatePreference(userID model.UserID, itemID model.ItemID) (float64, error)

	refresh.Refreshable
}

// PreferenceWriter is implemented by recommenders that support write-through
// preference mutation against their underlying data model.
type PreferenceWriter interface {
	SetPreference(userID model.UserID, itemID model.ItemID, value float64) error
	RemovePreference(userID model.UserID, itemID model.ItemID) error
}

// rankCandidates estimates every candidate item, applies the rescorer and
// returns the top howMany by value (ties by ascending item ID). Candidates
// with undefined estimates or vetoed by the rescorer are skipped.
func rankCandidates(candidates *roaring64.Bitmap, howMany int, rescorer Rescorer, estimate func(model.ItemID) (float64, error)) ([]RecommendedItem, error) {
	collector := top.NewCollector(howMany)

	it := candidates.Iterator()
	for it.HasNext() {
		itemID := model.ItemID(it.Next())

		value, err := estimate(itemID)
		if err != nil {
			return nil, err
		}
		if similarity.IsNone(value) {
			continue
		}
		if rescorer != nil {
			rescored, ok := rescorer.Rescore(itemID, value)
			if !ok {
				continue
			}
			value = rescored
		}
		collector.Add(top.Item{ID: uint64(itemID), Value: value})
	}

	ranked := collector.Ranked()
	items := make([]RecommendedItem, len(ranked))
	for i, r := range ranked {
		items[i] = RecommendedItem{ItemID: model.ItemID(r.ID), Value: r.Value}
	}

	return items, nil
}

// wrapDataAccess wraps unexpected data-source failures; not-found and
// unsupported conditions surface unchanged.
func wrapDataAccess(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrUnsupported) {
		return err
	}
	var dae *model.DataAccessError
	if errors.As(err, &dae) {
		return err
	}
	return &model.DataAccessError{Op: op, Err: err}
}
