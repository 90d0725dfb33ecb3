package recommender

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/neighborhood"
	"github.com/hupe1980/recgo/refresh"
	"github.com/hupe1980/recgo/similarity"
)

// Compile time checks to ensure UserBased satisfies the engine contracts.
var (
	_ Recommender      = (*UserBased)(nil)
	_ PreferenceWriter = (*UserBased)(nil)
)

// UserBased predicts a user's missing ratings from the ratings of similar
// users: the estimate for an item is the correlation-weighted average of the
// neighborhood's ratings for it.
type UserBased struct {
	dm   model.DataModel
	sim  similarity.UserSimilarity
	hood neighborhood.UserNeighborhood
}

// NewUserBased creates a user-based recommender.
func NewUserBased(dm model.DataModel, sim similarity.UserSimilarity, hood neighborhood.UserNeighborhood) (*UserBased, error) {
	if dm == nil {
		return nil, ErrNilDataModel
	}
	if sim == nil {
		return nil, ErrNilSimilarity
	}
	if hood == nil {
		return nil, ErrNilNeighborhood
	}

	return &UserBased{dm: dm, sim: sim, hood: hood}, nil
}

// Recommend returns up to howMany unrated items, ranked by estimated value.
func (r *UserBased) Recommend(userID model.UserID, howMany int, rescorer Rescorer) ([]RecommendedItem, error) {
	if howMany < 1 {
		return nil, ErrInvalidHowMany
	}

	rated, err := r.dm.ItemIDsFromUser(userID)
	if err != nil {
		return nil, wrapDataAccess("recommend", err)
	}

	hood, err := r.hood.Neighborhood(userID)
	if err != nil {
		return nil, wrapDataAccess("recommend", err)
	}
	if len(hood) == 0 {
		return nil, nil
	}

	// Candidates: everything any neighbor rated that the target has not.
	candidates := roaring64.New()
	for _, neighborID := range hood {
		items, err := r.dm.ItemIDsFromUser(neighborID)
		if err != nil {
			return nil, wrapDataAccess("recommend", err)
		}
		candidates.Or(items)
	}
	candidates.AndNot(rated)

	items, err := rankCandidates(candidates, howMany, rescorer, func(itemID model.ItemID) (float64, error) {
		return r.estimate(userID, itemID, hood)
	})
	if err != nil {
		return nil, wrapDataAccess("recommend", err)
	}

	return items, nil
}

// EstimatePreference returns the observed preference if one exists, else the
// neighborhood-weighted estimate, else NaN.
func (r *UserBased) EstimatePreference(userID model.UserID, itemID model.ItemID) (float64, error) {
	value, ok, err := r.dm.PreferenceValue(userID, itemID)
	if err != nil {
		return similarity.None(), wrapDataAccess("estimate", err)
	}
	if ok {
		return value, nil
	}

	hood, err := r.hood.Neighborhood(userID)
	if err != nil {
		return similarity.None(), wrapDataAccess("estimate", err)
	}

	est, err := r.estimate(userID, itemID, hood)
	if err != nil {
		return similarity.None(), wrapDataAccess("estimate", err)
	}

	return est, nil
}

// SetPreference writes through to the data model.
func (r *UserBased) SetPreference(userID model.UserID, itemID model.ItemID, value float64) error {
	return r.dm.SetPreference(userID, itemID, value)
}

// RemovePreference writes through to the data model.
func (r *UserBased) RemovePreference(userID model.UserID, itemID model.ItemID) error {
	return r.dm.RemovePreference(userID, itemID)
}

// Refresh propagates to the neighborhood, similarity and data model.
func (r *UserBased) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(r)

	refresh.Recurse(visited, r.hood, r.sim, r.dm)
}

// estimate computes the correlation-weighted average of the neighbors'
// ratings for the item. Neighbors with undefined correlation or without a
// rating are skipped; a non-positive weight sum yields NaN.
func (r *UserBased) estimate(userID model.UserID, itemID model.ItemID, hood []model.UserID) (float64, error) {
	var total, weight float64
	for _, neighborID := range hood {
		corr, err := r.sim.UserSimilarity(userID, neighborID)
		if err != nil {
			return similarity.None(), err
		}
		if similarity.IsNone(corr) {
			continue
		}

		value, ok, err := r.dm.PreferenceValue(neighborID, itemID)
		if err != nil {
			return similarity.None(), err
		}
		if !ok {
			continue
		}

		total += corr * value
		weight += corr
	}

	if weight <= 0 {
		return similarity.None(), nil
	}

	return total / weight, nil
}
