package recommender

import (
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/recgo/model"
	"github.com/hupe1980/recgo/refresh"
	"github.com/hupe1980/recgo/similarity"
)

// Compile time checks to ensure ItemBased satisfies the engine contracts.
var (
	_ Recommender      = (*ItemBased)(nil)
	_ PreferenceWriter = (*ItemBased)(nil)
)

// ItemBased predicts from the target user's own ratings: the estimate for a
// candidate item is the average of the user's ratings, weighted by each
// rated item's correlation to the candidate.
//
// Item-item correlations are typically more stable than user-user ones, so
// this engine tolerates fast-changing user bases better than UserBased.
type ItemBased struct {
	dm  model.DataModel
	sim similarity.ItemSimilarity
}

// NewItemBased creates an item-based recommender.
func NewItemBased(dm model.DataModel, sim similarity.ItemSimilarity) (*ItemBased, error) {
	if dm == nil {
		return nil, ErrNilDataModel
	}
	if sim == nil {
		return nil, ErrNilSimilarity
	}

	return &ItemBased{dm: dm, sim: sim}, nil
}

// Recommend returns up to howMany unrated items, ranked by estimated value.
func (r *ItemBased) Recommend(userID model.UserID, howMany int, rescorer Rescorer) ([]RecommendedItem, error) {
	if howMany < 1 {
		return nil, ErrInvalidHowMany
	}

	prefs, err := r.dm.PreferencesFromUser(userID)
	if err != nil {
		return nil, wrapDataAccess("recommend", err)
	}
	if len(prefs) == 0 {
		return nil, nil
	}

	rated, err := r.dm.ItemIDsFromUser(userID)
	if err != nil {
		return nil, wrapDataAccess("recommend", err)
	}

	candidates := roaring64.New()
	for _, itemID := range r.dm.ItemIDs() {
		candidates.Add(uint64(itemID))
	}
	candidates.AndNot(rated)

	items, err := rankCandidates(candidates, howMany, rescorer, func(itemID model.ItemID) (float64, error) {
		return r.estimate(itemID, prefs)
	})
	if err != nil {
		return nil, wrapDataAccess("recommend", err)
	}

	return items, nil
}

// EstimatePreference returns the observed preference if one exists, else the
// item-correlation-weighted estimate, else NaN.
func (r *ItemBased) EstimatePreference(userID model.UserID, itemID model.ItemID) (float64, error) {
	prefs, err := r.dm.PreferencesFromUser(userID)
	if err != nil {
		return similarity.None(), wrapDataAccess("estimate", err)
	}

	if value, ok := prefs.Find(itemID); ok {
		return value, nil
	}

	est, err := r.estimate(itemID, prefs)
	if err != nil {
		return similarity.None(), wrapDataAccess("estimate", err)
	}

	return est, nil
}

// SetPreference writes through to the data model.
func (r *ItemBased) SetPreference(userID model.UserID, itemID model.ItemID, value float64) error {
	return r.dm.SetPreference(userID, itemID, value)
}

// RemovePreference writes through to the data model.
func (r *ItemBased) RemovePreference(userID model.UserID, itemID model.ItemID) error {
	return r.dm.RemovePreference(userID, itemID)
}

// Refresh propagates to the similarity and data model.
func (r *ItemBased) Refresh(visited refresh.Visited) {
	if visited == nil {
		visited = make(refresh.Visited)
	}
	visited.Once(r)

	refresh.Recurse(visited, r.sim, r.dm)
}

// estimate averages the user's ratings weighted by each rated item's
// correlation to the target item.
func (r *ItemBased) estimate(itemID model.ItemID, prefs model.PreferenceArray) (float64, error) {
	var total, weight float64
	for _, p := range prefs {
		corr, err := r.sim.ItemSimilarity(itemID, p.ItemID)
		if err != nil {
			return similarity.None(), err
		}
		if similarity.IsNone(corr) {
			continue
		}

		total += corr * p.Value
		weight += corr
	}

	if weight <= 0 {
		return similarity.None(), nil
	}

	return total / weight, nil
}
